package perf

import (
	"context"
	"sync"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// recordingExporter keeps finished spans in memory so tests and diagnostics
// can inspect them without an external collector.
type recordingExporter struct {
	mu    sync.Mutex
	spans []sdktrace.ReadOnlySpan
}

func (exporter *recordingExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	exporter.spans = append(exporter.spans, spans...)
	return nil
}

func (exporter *recordingExporter) Shutdown(_ context.Context) error {
	return nil
}

type SpanSnapshot struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Attributes map[string]interface{}
}

func Spans() []SpanSnapshot {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()

	out := make([]SpanSnapshot, 0, len(recorder.spans))
	for _, span := range recorder.spans {
		attributes := make(map[string]interface{}, len(span.Attributes()))
		for _, kv := range span.Attributes() {
			attributes[string(kv.Key)] = kv.Value.AsInterface()
		}
		out = append(out, SpanSnapshot{
			Name:       span.Name(),
			StartTime:  span.StartTime(),
			EndTime:    span.EndTime(),
			Attributes: attributes,
		})
	}
	return out
}

func FindSpanByName(spans []SpanSnapshot, name string) (SpanSnapshot, bool) {
	for _, span := range spans {
		if span.Name == name {
			return span, true
		}
	}
	return SpanSnapshot{}, false
}

// ResetForTesting drops recorded spans (tests only).
func ResetForTesting() {
	recorder.mu.Lock()
	recorder.spans = nil
	recorder.mu.Unlock()
}
