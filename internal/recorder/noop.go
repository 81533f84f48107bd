package recorder

import "PositionSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAlert(_ *model.SignalCandidate, _ bool) error { return nil }
func (n *NoopRecorder) RecordHealth(_ *HealthSnapshot) error               { return nil }
func (n *NoopRecorder) RecordEOD(_ *EODRecord) error                       { return nil }
func (n *NoopRecorder) Close() error                                       { return nil }
