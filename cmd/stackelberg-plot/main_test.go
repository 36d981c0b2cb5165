package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWritesFigure(t *testing.T) {
	t.Setenv("STACKELBERG_LOG_LEVEL", "error")
	out := filepath.Join(t.TempDir(), "figure.svg")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-out", out}, &stdout, &stderr), stderr.String())

	var p, q float64
	_, err := fmt.Sscanf(stdout.String(), "p* = %f\nq* = %f", &p, &q)
	require.NoError(t, err, stdout.String())
	assert.InDelta(t, 0.9102, p, 2e-3)
	assert.Greater(t, p, q)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRunRejectsBadInput(t *testing.T) {
	t.Setenv("STACKELBERG_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer

	err := run([]string{"-out", filepath.Join(t.TempDir(), "f.png"), "-c", "0"}, &stdout, &stderr)
	assert.Error(t, err)

	err = run([]string{"-out", "figure.gif"}, &stdout, &stderr)
	assert.Error(t, err)

	err = run([]string{"-nope"}, &stdout, &stderr)
	assert.Error(t, err)
}
