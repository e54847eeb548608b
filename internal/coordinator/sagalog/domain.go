// Package sagalog records every state transition of a checkout submission.
//
// Each row is immutable; the newest row per saga is its current state. Rows
// carry the trace and span ids of the request that wrote them so a stuck or
// failed submission can be matched to its trace.
package sagalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Status string

const (
	StatusStarted      Status = "STARTED"
	StatusStepDone     Status = "STEP_DONE"
	StatusCompleted    Status = "COMPLETED"
	StatusCompensating Status = "COMPENSATING"
	StatusFailed       Status = "FAILED"
)

var ErrSagaNotFound = errors.New("saga not found")

type Entry struct {
	SagaID      string
	Status      Status
	CurrentStep string
	// Payload is the JSON input of the saga, written only on STARTED.
	Payload string
	// Errors holds step and compensation failures as a JSON array.
	Errors    string
	TraceID   string
	SpanID    string
	UpdatedAt time.Time
}

// Repository appends entries; it never updates them.
type Repository interface {
	Save(ctx context.Context, e *Entry) error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Save(context.Context, *Entry) error { return nil }

// NewEntry builds an entry stamped with the span active in ctx.
func NewEntry(ctx context.Context, sagaID string, status Status, step, payload string, errs []string) *Entry {
	e := &Entry{
		SagaID:      sagaID,
		Status:      status,
		CurrentStep: step,
		Payload:     payload,
		Errors:      "[]",
		UpdatedAt:   time.Now().UTC(),
	}

	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			e.Errors = string(b)
		}
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		e.TraceID = sc.TraceID().String()
		e.SpanID = sc.SpanID().String()
	}
	return e
}
