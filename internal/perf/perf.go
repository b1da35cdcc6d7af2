// Package perf wraps OpenTelemetry tracing for the launcher.
package perf

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/palgania/launcher"

type StartOption = trace.SpanStartOption

func WithAttributes(attributes ...attribute.KeyValue) StartOption {
	return trace.WithAttributes(attributes...)
}

type Span struct {
	trace.Span
}

var (
	initOnce sync.Once
	provider *sdktrace.TracerProvider
	recorder = &recordingExporter{}
)

// Init installs the tracer provider with the in-memory recorder. Safe to call
// more than once.
func Init() {
	initOnce.Do(func() {
		provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(recorder))
		otel.SetTracerProvider(provider)
	})
}

func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

func StartSpan(ctx context.Context, name string, opts ...StartOption) (context.Context, *Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return ctx, &Span{Span: span}
}

// StartRegion traces a local operation that has no request context, such as
// filesystem IO.
func StartRegion(name string, opts ...StartOption) *Span {
	_, span := StartSpan(context.Background(), name, opts...)
	return span
}
