package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stackelberg/internal/chart"
	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/hermes"
	"github.com/MikeSquared-Agency/Stackelberg/internal/solve"
	"github.com/MikeSquared-Agency/Stackelberg/internal/stackelberg"
)

type GameHandler struct {
	svc    *solve.Service
	hermes hermes.Client
	cfg    *config.Config
	logger *slog.Logger
}

func NewGameHandler(svc *solve.Service, h hermes.Client, cfg *config.Config, logger *slog.Logger) *GameHandler {
	return &GameHandler{svc: svc, hermes: h, cfg: cfg, logger: logger}
}

type EquilibriumResponse struct {
	RequestID string      `json:"request_id"`
	Params    game.Params `json:"params"`
	stackelberg.Equilibrium
	Status string `json:"status"`
}

// Equilibrium handles GET /api/v1/equilibrium?a=&b=&c=&d=
func (h *GameHandler) Equilibrium(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	eq, err := h.svc.Equilibrium(r.Context(), params)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	id := uuid.NewString()
	if h.hermes != nil {
		_ = h.hermes.Publish(hermes.SubjectEquilibriumComputed(id), hermes.EquilibriumComputedEvent{
			RequestID:    id,
			A:            params.A,
			B:            params.B,
			C:            params.C,
			D:            params.D,
			P:            eq.P,
			Q:            eq.Q,
			LeaderCost:   eq.LeaderCost,
			FollowerCost: eq.FollowerCost,
			Converged:    eq.Converged,
			Status:       eq.Status.String(),
			InnerSolves:  eq.InnerSolves,
			DurationMs:   time.Since(start).Milliseconds(),
			Source:       "http",
		})
	}

	writeJSON(w, http.StatusOK, EquilibriumResponse{
		RequestID:   id,
		Params:      params,
		Equilibrium: eq,
		Status:      eq.Status.String(),
	})
}

// BestResponse handles GET /api/v1/best-response?p=&c=&d=[&initial_guess=]
func (h *GameHandler) BestResponse(w http.ResponseWriter, r *http.Request) {
	vals, err := queryFloats(r, "p", "c", "d")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	guess := stackelberg.DefaultInitialGuess
	if s := r.URL.Query().Get("initial_guess"); s != "" {
		guess, err = strconv.ParseFloat(s, 64)
		if err != nil || guess < game.MinAction {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("initial_guess must be a number >= %v", game.MinAction),
			})
			return
		}
	}

	q, err := h.svc.BestResponse(r.Context(), vals[0], vals[1], vals[2], guess)
	if err != nil {
		writeSolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"p": vals[0], "c": vals[1], "d": vals[2], "q": q})
}

// Figure handles GET /api/v1/figure?a=&b=&c=&d=, the payload the dashboard
// redraws from on every slider change.
func (h *GameHandler) Figure(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	fig, err := h.svc.Figure(r.Context(), params)
	if err != nil {
		writeSolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

// FigurePNG handles GET /api/v1/figure.png?a=&b=&c=&d=
func (h *GameHandler) FigurePNG(w http.ResponseWriter, r *http.Request) {
	params, err := parseParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	fig, err := h.svc.Figure(r.Context(), params)
	if err != nil {
		writeSolveError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := chart.Render(w, fig, "png"); err != nil {
		h.logger.Error("failed to render figure", "params", params, "error", err)
	}
}

// Config handles GET /api/v1/config.
func (h *GameHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dashboard": h.cfg.Dashboard,
		"curve":     h.cfg.Curve,
		"solver": map[string]interface{}{
			"inner_method": h.cfg.Solver.InnerMethod,
			"outer_method": h.cfg.Solver.OuterMethod,
			"strict":       h.cfg.Solver.Strict,
		},
		"events": h.hermes != nil,
	})
}

func parseParams(r *http.Request) (game.Params, error) {
	vals, err := queryFloats(r, "a", "b", "c", "d")
	if err != nil {
		return game.Params{}, err
	}
	return game.Params{A: vals[0], B: vals[1], C: vals[2], D: vals[3]}, nil
}

// queryFloats reads the named query parameters, each of which must be a
// positive number.
func queryFloats(r *http.Request, names ...string) ([]float64, error) {
	q := r.URL.Query()
	out := make([]float64, len(names))
	for i, name := range names {
		s := q.Get(name)
		if s == "" {
			return nil, fmt.Errorf("%s required", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		if err := game.CheckPositive(name, v); err != nil {
			return nil, fmt.Errorf("%s must be positive", name)
		}
		out[i] = v
	}
	return out, nil
}

func writeSolveError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if solve.IsInputError(err) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
