// Package coordinator turns a shopper's session into an order. The work is
// split into steps that each know how to undo themselves, so a failure part
// way through leaves neither a dangling order nor an emptied cart.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
)

// Step is a single unit of work in the saga. Compensate undoes Execute.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Orchestrator runs steps in order and records each transition in the
// saga log.
type Orchestrator struct {
	id    string
	steps []Step
	log   sagalog.Repository
}

// NewOrchestrator returns an orchestrator for saga id. A nil log discards
// transitions.
func NewOrchestrator(id string, log sagalog.Repository, steps ...Step) *Orchestrator {
	if log == nil {
		log = sagalog.Nop{}
	}
	return &Orchestrator{id: id, steps: steps, log: log}
}

// Start runs the steps sequentially. When a step fails, every step that
// already succeeded is compensated in reverse order and the step's error is
// returned unchanged.
func (o *Orchestrator) Start(ctx context.Context, payload string) error {
	o.record(ctx, sagalog.StatusStarted, "", payload, nil)

	var done []Step
	for _, step := range o.steps {
		slog.DebugContext(ctx, "executing saga step", "saga_id", o.id, "step", step.Name())

		if err := step.Execute(ctx); err != nil {
			slog.WarnContext(ctx, "saga step failed, compensating", "saga_id", o.id, "step", step.Name(), "error", err)
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", []string{err.Error()})

			errs := append([]string{fmt.Sprintf("%s: %v", step.Name(), err)}, o.rollback(ctx, done)...)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", errs)
			return err
		}

		done = append(done, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	slog.InfoContext(ctx, "saga completed", "saga_id", o.id, "steps", len(o.steps))
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var errs []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		slog.InfoContext(ctx, "compensating saga step", "saga_id", o.id, "step", step.Name())
		if err := step.Compensate(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to compensate saga step", "saga_id", o.id, "step", step.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("compensate %s: %v", step.Name(), err))
		}
	}
	return errs
}

// record never fails the saga; a lost log row is only logged.
func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if err := o.log.Save(ctx, sagalog.NewEntry(ctx, o.id, status, step, payload, errs)); err != nil {
		slog.ErrorContext(ctx, "failed to write saga log", "saga_id", o.id, "status", status, "error", err)
	}
}
