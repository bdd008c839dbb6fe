// Package tracking carries the per-run telemetry state of one report
// generation: execution properties, the overall success flag and the
// tracker that receives exceptions and the final properties.
package tracking

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Execution property keys.
const (
	PropElementaryTestCount = "elementary_test_count"
	PropTestResultCount     = "test_result_count"
	PropModelCount          = "model_count"
	PropSourceCount         = "source_count"
	PropExposureCount       = "exposure_count"
	PropReportEnd           = "report_end"
	PropSuccess             = "success"
)

// SentToProp returns the property recording delivery through the named sink.
func SentToProp(sink string) string {
	return "sent_to_" + sink + "_successfully"
}

// SuccessFlag starts true and can only be downgraded.
type SuccessFlag struct {
	failed bool
}

// Fail marks the run as unsuccessful.
func (f *SuccessFlag) Fail() {
	f.failed = true
}

// OK reports whether no step has failed.
func (f *SuccessFlag) OK() bool {
	return !f.failed
}

// ExecutionProperties are counters and flags accumulated during a run.
type ExecutionProperties struct {
	values map[string]any
}

// NewExecutionProperties returns an empty property set.
func NewExecutionProperties() *ExecutionProperties {
	return &ExecutionProperties{values: make(map[string]any)}
}

// Set stores a property, replacing any previous value.
func (p *ExecutionProperties) Set(key string, value any) {
	p.values[key] = value
}

// Get returns a property value.
func (p *ExecutionProperties) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns property names in sorted order.
func (p *ExecutionProperties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns a copy of every property.
func (p *ExecutionProperties) All() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Run is the mutable context of one report generation. It is passed by
// pointer through every stage and must not be shared between runs.
type Run struct {
	ID        string
	StartedAt time.Time
	Props     *ExecutionProperties
	Success   *SuccessFlag
	Tracker   Tracker

	finished bool
}

// NewRun starts a run reporting to tracker. A nil tracker discards telemetry.
func NewRun(tracker Tracker) *Run {
	if tracker == nil {
		tracker = NopTracker{}
	}
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Props:     NewExecutionProperties(),
		Success:   &SuccessFlag{},
		Tracker:   tracker,
	}
}

// Fail records err against step and downgrades the success flag.
func (r *Run) Fail(step string, err error) {
	r.Success.Fail()
	r.Tracker.RecordException(step, err)
}

// Finish stamps the final properties and reports them once. Later calls
// are no-ops.
func (r *Run) Finish(ctx context.Context) error {
	if r.finished {
		return nil
	}
	r.finished = true
	r.Props.Set(PropSuccess, r.Success.OK())
	r.Props.Set(PropReportEnd, true)
	return r.Tracker.Report(ctx, r.ID, r.Props)
}
