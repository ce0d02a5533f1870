package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "", "test")
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("No-op shutdown failed: %v", err)
	}
}

func TestTracerNamesComponent(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Tracer(Applications).Start(context.Background(), "SubmitApplication")
	span.SetAttributes(ApplicationID("a-1"), Recipients(2))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected one span, got %d", len(spans))
	}
	if got := spans[0].InstrumentationScope().Name; got != "job-board/applications" {
		t.Errorf("Unexpected tracer name %q", got)
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["application.id"] != "a-1" || attrs["job_board.recipients"] != "2" {
		t.Errorf("Unexpected attributes %v", attrs)
	}
}
