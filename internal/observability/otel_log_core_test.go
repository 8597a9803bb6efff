package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type recordingOTelLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []otellog.Record
}

func (l *recordingOTelLogger) Emit(_ context.Context, record otellog.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, record.Clone())
}

func (l *recordingOTelLogger) Enabled(context.Context, otellog.EnabledParameters) bool {
	return true
}

func (l *recordingOTelLogger) snapshot() []otellog.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]otellog.Record(nil), l.records...)
}

func recordAttributes(record otellog.Record) map[string]otellog.Value {
	out := make(map[string]otellog.Value)
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestOTelLogCore_EmitsRecordWithFields(t *testing.T) {
	recorder := &recordingOTelLogger{}
	logger := zap.New(newOTelLogCore(recorder, zapcore.InfoLevel)).
		Named("reconciler").
		With(zap.Int64("source_id", 3))

	logger.Warn("feed fetch failed", zap.Error(errors.New("timeout")), zap.Duration("took", 2*time.Second))
	logger.Debug("suppressed")

	records := recorder.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	record := records[0]
	if record.Severity() != otellog.SeverityWarn {
		t.Fatalf("unexpected severity: %v", record.Severity())
	}
	if record.Body().AsString() != "feed fetch failed" {
		t.Fatalf("unexpected body: %q", record.Body().AsString())
	}

	attrs := recordAttributes(record)
	if attrs["logger"].AsString() != "reconciler" {
		t.Fatalf("missing logger attribute: %v", attrs)
	}
	if attrs["source_id"].AsInt64() != 3 {
		t.Fatalf("unexpected source_id: %v", attrs["source_id"])
	}
	if attrs["error"].AsString() != "timeout" {
		t.Fatalf("unexpected error attribute: %v", attrs["error"])
	}
	if attrs["took"].AsString() != "2s" {
		t.Fatalf("unexpected took attribute: %v", attrs["took"])
	}
}

func TestOTelLogCore_SkipsHealthAccessLog(t *testing.T) {
	recorder := &recordingOTelLogger{}
	logger := zap.New(newOTelLogCore(recorder, zapcore.InfoLevel))

	logger.Info("http_request", zap.String("http_path", "/healthz"))
	logger.Info("http_request", zap.String("http_path", "/v1/live/fixtures"))

	records := recorder.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if path := recordAttributes(records[0])["http_path"].AsString(); path != "/v1/live/fixtures" {
		t.Fatalf("unexpected path: %q", path)
	}
}

func TestToOTelSeverity(t *testing.T) {
	cases := map[zapcore.Level]otellog.Severity{
		zapcore.DebugLevel:  otellog.SeverityDebug,
		zapcore.InfoLevel:   otellog.SeverityInfo,
		zapcore.WarnLevel:   otellog.SeverityWarn,
		zapcore.ErrorLevel:  otellog.SeverityError,
		zapcore.DPanicLevel: otellog.SeverityFatal,
	}
	for level, want := range cases {
		if got := toOTelSeverity(level); got != want {
			t.Fatalf("severity(%v) = %v, want %v", level, got, want)
		}
	}
}

func TestToOTelLogValue_NestedMap(t *testing.T) {
	value := toOTelLogValue(map[string]any{
		"ids":  []any{int64(1), int64(2)},
		"kind": "live_odds",
	}, 0)
	if value.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %v", value.Kind())
	}

	kvs := value.AsMap()
	if len(kvs) != 2 || kvs[0].Key != "ids" || kvs[1].Key != "kind" {
		t.Fatalf("unexpected map: %v", kvs)
	}
	if got := kvs[0].Value.AsSlice(); len(got) != 2 || got[1].AsInt64() != 2 {
		t.Fatalf("unexpected ids slice: %v", got)
	}
}
