package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishWritesJSONKeyedByOrder(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	err := p.Publish(context.Background(), "order-created", "o-1", map[string]any{"orderId": "o-1", "total": 10.5})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-created", msg.Topic)
	assert.Equal(t, "o-1", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "o-1", body["orderId"])
	assert.Equal(t, 10.5, body["total"])
}

func TestPublishCarriesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	w := &fakeWriter{}
	require.NoError(t, newPublisher(w).Publish(ctx, "order-cancelled", "o-1", struct{}{}))

	require.Len(t, w.msgs, 1)
	var traceparent string
	for _, h := range w.msgs[0].Headers {
		if h.Key == "traceparent" {
			traceparent = string(h.Value)
		}
	}
	assert.Contains(t, traceparent, span.SpanContext().TraceID().String())
}

func TestPublishWrapsWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}

	err := newPublisher(w).Publish(context.Background(), "order-created", "o-1", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestPublishRejectsUnencodablePayload(t *testing.T) {
	w := &fakeWriter{}

	err := newPublisher(w).Publish(context.Background(), "order-created", "o-1", make(chan int))
	require.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newPublisher(w).Close())
	assert.True(t, w.closed)
}
