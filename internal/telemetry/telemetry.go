// Package telemetry exports the API's traces over OTLP and names the spans
// and attributes its components emit.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	ServiceName    = "job-board"
	ServiceVersion = "1.0.0"
)

// Component is a part of the API that emits its own spans.
type Component string

const (
	Applications Component = "applications"
	Notify       Component = "notify"
	Chat         Component = "chat"
)

// Tracer returns the tracer for c, named "job-board/<component>".
func Tracer(c Component) trace.Tracer {
	return otel.Tracer(ServiceName + "/" + string(c))
}

func JobID(id string) attribute.KeyValue {
	return attribute.String("job.id", id)
}

func ApplicationID(id string) attribute.KeyValue {
	return attribute.String("application.id", id)
}

func Subject(subject string) attribute.KeyValue {
	return attribute.String("messaging.destination.name", subject)
}

// Recipients counts the users a notification or conversation addresses.
func Recipients(n int) attribute.KeyValue {
	return attribute.Int("job_board.recipients", n)
}

// InitTracer installs a global OTLP tracer provider for the API. With an
// empty collectorURL tracing stays on the no-op provider.
func InitTracer(ctx context.Context, collectorURL, environment string) (func(context.Context) error, error) {
	if collectorURL == "" {
		return func(context.Context) error { return nil }, nil
	}

	conn, err := grpc.NewClient(collectorURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to collector %s: %w", collectorURL, err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		return conn.Close()
	}, nil
}
