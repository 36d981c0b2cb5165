package hermes

import (
	"strings"
	"time"
	"unicode"
)

const (
	SubjectSolveRequest = "stackelberg.solve.request"
	SubjectSolverStats  = "stackelberg.solver.stats"

	// QueueSolvers is the queue group solve requests are balanced over.
	QueueSolvers = "stackelberg-solvers"

	StreamName   = "STACKELBERG_EVENTS"
	StreamMaxAge = "168h" // 7 days
	DedupWindow  = 2 * time.Minute

	subjectEquilibriumPrefix = "stackelberg.equilibrium."
)

func SubjectEquilibriumComputed(requestID string) string {
	return subjectEquilibriumPrefix + requestID + ".computed"
}

func SubjectEquilibriumFailed(requestID string) string {
	return subjectEquilibriumPrefix + requestID + ".failed"
}

// ValidToken reports whether s can stand as a single subject token: non-empty,
// no separators, no wildcards and no whitespace or control characters.
func ValidToken(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return r == '.' || r == '*' || r == '>' || unicode.IsSpace(r) || unicode.IsControl(r)
	})
}
