package tracing

import (
	"context"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTracer_NoopSpan(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "test")
	defer span.End()
	if span.SpanContext().IsSampled() {
		t.Error("no-op provider must not sample")
	}
}
