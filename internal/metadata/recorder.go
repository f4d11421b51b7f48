package metadata

import (
	"time"

	"go.uber.org/zap"
)

/*
Recorder turns structured events into log lines and metric samples.

It must not:
  - make I/O decisions for callers
  - affect control flow

Metadata is write-only. No component reads it back to decide anything.
*/
type Recorder struct {
	logger  *zap.Logger
	metrics *Metrics
}

// NewRecorder accepts a nil logger or nil metrics; the missing side is skipped.
func NewRecorder(logger *zap.Logger, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		logger:  logger.Named("metadata"),
		metrics: metrics,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	fields := append([]zap.Field{
		zap.Time("observed_at", observedAt),
		zap.String("package", packageName),
		zap.String("action", action),
		zap.Stringer("cause", cause),
		zap.String("error", errorString),
	}, attrFields(attrs)...)
	r.logger.Warn("error recorded", fields...)

	if r.metrics != nil {
		r.metrics.errors.WithLabelValues(packageName, cause.String()).Inc()
	}
}

func (r *Recorder) RecordFetch(event FetchEvent) {
	r.logger.Debug("upstream fetch",
		zap.String("key", event.ResourceKey),
		zap.String("url", event.FetchURL),
		zap.Int("http_status", event.HTTPStatus),
		zap.Duration("duration", event.Duration),
		zap.String("content_type", event.ContentType),
		zap.Int("attempts", event.Attempts),
	)

	if r.metrics != nil {
		outcome := "ok"
		if event.HTTPStatus == 0 || event.HTTPStatus >= 400 {
			outcome = "error"
		}
		r.metrics.fetchTotal.WithLabelValues(event.ResourceKey, outcome).Inc()
		r.metrics.fetchDuration.WithLabelValues(event.ResourceKey).Observe(event.Duration.Seconds())
	}
}

func (r *Recorder) RecordTransition(resourceKey string, from string, to string) {
	r.logger.Debug("cache transition",
		zap.String("key", resourceKey),
		zap.String("from", from),
		zap.String("to", to),
	)

	if r.metrics != nil {
		r.metrics.transitions.WithLabelValues(resourceKey, to).Inc()
	}
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := append([]zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}, attrFields(attrs)...)
	r.logger.Info("artifact written", fields...)

	if r.metrics != nil {
		r.metrics.artifacts.WithLabelValues(string(kind)).Inc()
	}
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)
	RecordFetch(event FetchEvent)
	RecordTransition(resourceKey string, from string, to string)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// NoopSink implements MetadataSink and does nothing.
// Callers and tests decide whether to inject a Recorder or a NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(event FetchEvent) {}

func (n *NoopSink) RecordTransition(resourceKey string, from string, to string) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
