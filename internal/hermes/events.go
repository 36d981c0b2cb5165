package hermes

import "time"

// SolveRequestEvent asks the service to solve one game. RequestID is
// optional; the service assigns one when it is empty.
type SolveRequestEvent struct {
	RequestID string  `json:"request_id,omitempty"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
	C         float64 `json:"c"`
	D         float64 `json:"d"`
	Source    string  `json:"source,omitempty"`
}

type EquilibriumComputedEvent struct {
	RequestID    string  `json:"request_id"`
	A            float64 `json:"a"`
	B            float64 `json:"b"`
	C            float64 `json:"c"`
	D            float64 `json:"d"`
	P            float64 `json:"p"`
	Q            float64 `json:"q"`
	LeaderCost   float64 `json:"leader_cost"`
	FollowerCost float64 `json:"follower_cost"`
	Converged    bool    `json:"converged"`
	Status       string  `json:"status"`
	InnerSolves  int     `json:"inner_solves"`
	DurationMs   int64   `json:"duration_ms"`
	Source       string  `json:"source,omitempty"`
}

type EquilibriumFailedEvent struct {
	RequestID  string `json:"request_id"`
	Error      string `json:"error"`
	InputError bool   `json:"input_error"`
	Source     string `json:"source,omitempty"`
}

type SolverStatsEvent struct {
	Solved     int64     `json:"solved"`
	BestEffort int64     `json:"best_effort"`
	Failed     int64     `json:"failed"`
	Timestamp  time.Time `json:"timestamp"`
}
