package tracking

import (
	"context"
	"errors"

	"github.com/dbsmedya/goreport/internal/logger"
)

// Tracker receives exceptions while a run progresses and its properties
// once it ends.
type Tracker interface {
	RecordException(step string, err error)
	Report(ctx context.Context, runID string, props *ExecutionProperties) error
}

// NopTracker discards everything.
type NopTracker struct{}

func (NopTracker) RecordException(string, error) {}

func (NopTracker) Report(context.Context, string, *ExecutionProperties) error { return nil }

// LogTracker writes telemetry to the structured log.
type LogTracker struct {
	logger *logger.Logger
}

// NewLogTracker creates a tracker logging through log.
func NewLogTracker(log *logger.Logger) *LogTracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogTracker{logger: log}
}

func (t *LogTracker) RecordException(step string, err error) {
	t.logger.WithStep(step).Debugw("Step failed", "error", err)
}

func (t *LogTracker) Report(_ context.Context, runID string, props *ExecutionProperties) error {
	args := []interface{}{"run_id", runID}
	for _, key := range props.Keys() {
		v, _ := props.Get(key)
		args = append(args, key, v)
	}
	t.logger.Debugw("Execution properties", args...)
	return nil
}

// MultiTracker fans telemetry out to several trackers.
type MultiTracker []Tracker

func (m MultiTracker) RecordException(step string, err error) {
	for _, t := range m {
		t.RecordException(step, err)
	}
}

func (m MultiTracker) Report(ctx context.Context, runID string, props *ExecutionProperties) error {
	var errs []error
	for _, t := range m {
		if err := t.Report(ctx, runID, props); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
