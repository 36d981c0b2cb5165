// Package broker serves solve requests arriving over the event bus and
// publishes the results.
package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/hermes"
	"github.com/MikeSquared-Agency/Stackelberg/internal/solve"
	"github.com/MikeSquared-Agency/Stackelberg/internal/stackelberg"
)

// Solver is the part of solve.Service the broker uses.
type Solver interface {
	Equilibrium(ctx context.Context, params game.Params) (stackelberg.Equilibrium, error)
}

type Broker struct {
	solver Solver
	hermes hermes.Client
	cfg    *config.Config
	logger *slog.Logger

	solved     atomic.Int64
	bestEffort atomic.Int64
	failed     atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s Solver, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Broker {
	return &Broker{
		solver: s,
		hermes: h,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start runs the stats loop. It is a no-op without an event bus.
func (b *Broker) Start(ctx context.Context) {
	if b.hermes == nil || b.cfg.StatsInterval() <= 0 {
		return
	}
	b.wg.Add(1)
	go b.statsLoop(ctx)
}

func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
	b.wg.Wait()
}

func (b *Broker) statsLoop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.StatsInterval())
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.publishStats()
		}
	}
}

func (b *Broker) publishStats() {
	if err := b.hermes.Publish(hermes.SubjectSolverStats, b.Stats()); err != nil {
		b.logger.Warn("failed to publish solver stats", "error", err)
	}
}

// Stats returns the request counters since start.
func (b *Broker) Stats() hermes.SolverStatsEvent {
	return hermes.SolverStatsEvent{
		Solved:     b.solved.Load(),
		BestEffort: b.bestEffort.Load(),
		Failed:     b.failed.Load(),
		Timestamp:  time.Now().UTC(),
	}
}

// SetupSubscriptions joins the solve request queue group. Each request is
// solved by exactly one replica.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}

	err := b.hermes.QueueSubscribe(hermes.SubjectSolveRequest, hermes.QueueSolvers, func(msg hermes.Message) {
		var req hermes.SolveRequestEvent
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			b.logger.Warn("invalid solve request event", "error", err)
			return
		}
		b.handle(context.Background(), req, msg.Reply)
	})
	if err != nil {
		b.logger.Error("failed to subscribe to solve requests", "subject", hermes.SubjectSolveRequest, "error", err)
	}
}

// HandleSolveRequest solves one request and publishes either a computed or
// a failed event under the request's id.
func (b *Broker) HandleSolveRequest(ctx context.Context, req hermes.SolveRequestEvent) {
	b.handle(ctx, req, "")
}

// handle also sends the event to reply when the request came in over
// request/reply.
func (b *Broker) handle(ctx context.Context, req hermes.SolveRequestEvent, reply string) {
	switch {
	case req.RequestID == "":
		req.RequestID = uuid.NewString()
	case !hermes.ValidToken(req.RequestID):
		id := uuid.NewString()
		b.logger.Warn("request id not usable in a subject, replacing", "request_id", req.RequestID, "assigned", id)
		req.RequestID = id
	}
	if req.Source == "" {
		req.Source = "nats"
	}
	params := game.Params{A: req.A, B: req.B, C: req.C, D: req.D}

	start := time.Now()
	eq, err := b.solver.Equilibrium(ctx, params)
	if err != nil {
		b.failed.Add(1)
		b.logger.Warn("solve request failed", "request_id", req.RequestID, "error", err)
		b.publish(hermes.SubjectEquilibriumFailed(req.RequestID), reply, hermes.EquilibriumFailedEvent{
			RequestID:  req.RequestID,
			Error:      err.Error(),
			InputError: solve.IsInputError(err),
			Source:     req.Source,
		})
		return
	}

	b.solved.Add(1)
	if !eq.Converged {
		b.bestEffort.Add(1)
	}
	b.logger.Info("solve request completed", "request_id", req.RequestID, "p", eq.P, "q", eq.Q)
	b.publish(hermes.SubjectEquilibriumComputed(req.RequestID), reply, hermes.EquilibriumComputedEvent{
		RequestID:    req.RequestID,
		A:            req.A,
		B:            req.B,
		C:            req.C,
		D:            req.D,
		P:            eq.P,
		Q:            eq.Q,
		LeaderCost:   eq.LeaderCost,
		FollowerCost: eq.FollowerCost,
		Converged:    eq.Converged,
		Status:       eq.Status.String(),
		InnerSolves:  eq.InnerSolves,
		DurationMs:   time.Since(start).Milliseconds(),
		Source:       req.Source,
	})
}

func (b *Broker) publish(subject, reply string, evt interface{}) {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Publish(subject, evt); err != nil {
		b.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
	if reply == "" {
		return
	}
	if err := b.hermes.Publish(reply, evt); err != nil {
		b.logger.Warn("failed to reply", "subject", subject, "error", err)
	}
}
