// Command stackelberg-plot solves one game and writes the response curve
// with the equilibrium point to an image file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MikeSquared-Agency/Stackelberg/internal/chart"
	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/solve"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "stackelberg-plot:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("stackelberg-plot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	a := fs.Float64("a", 1, "leader self-cost weight")
	b := fs.Float64("b", 2, "leader benefit weight")
	c := fs.Float64("c", 1, "follower self-cost weight")
	d := fs.Float64("d", 2, "follower benefit weight")
	out := fs.String("out", "stackelberg.png", "output image (.png, .svg, .pdf, .eps, .jpg, .tif)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := chart.FormatFromPath(*out); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logging.Logger(stderr)
	slog.SetDefault(logger)

	svc, err := solve.NewService(cfg, logger)
	if err != nil {
		return err
	}
	fig, err := svc.Figure(context.Background(), game.Params{A: *a, B: *b, C: *c, D: *d})
	if err != nil {
		return err
	}
	if err := chart.Save(*out, fig); err != nil {
		return err
	}

	eq := fig.Equilibrium
	fmt.Fprintf(stdout, "p* = %.6f\nq* = %.6f\n", eq.P, eq.Q)
	if !eq.Converged {
		fmt.Fprintf(stdout, "warning: best effort result (%s)\n", fig.Status)
	}
	logger.Info("figure written", "path", *out, "samples", len(fig.Curve))
	return nil
}
