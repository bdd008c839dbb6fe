package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/goreport/internal/logger"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewWithCore(core), logs
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMode  Mode
		wantValue string
	}{
		{"empty", "", ModeNone, ""},
		{"last invocation", "last_invocation", ModeLastInvocation, ""},
		{"invocation id", "invocation_id:abc123", ModeInvocationID, "abc123"},
		{"invocation time", "invocation_time:2024-01-01T10:00:00", ModeInvocationTime, "2024-01-01T10:00:00"},
		{"value keeps later colons", "invocation_id:a:b:c", ModeInvocationID, "a:b:c"},
		{"marker inside text", "tag:nightly invocation_id:xyz", ModeInvocationID, "xyz"},
		{"empty id value", "invocation_id:", ModeInvocationID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := observedLogger()
			f := Parse(tt.input, log)
			assert.Equal(t, tt.wantMode, f.Mode())
			assert.Equal(t, tt.wantValue, f.Value())
		})
	}
}

func TestParse_LastInvocationWins(t *testing.T) {
	inputs := []string{
		"invocation_id:abc last_invocation",
		"last_invocation invocation_time:2024-01-01",
		"invocation_time:2024 invocation_id:abc last_invocation",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			log, _ := observedLogger()
			assert.Equal(t, LastInvocation(), Parse(input, log))
		})
	}
}

func TestParse_InvocationIDBeatsTime(t *testing.T) {
	log, _ := observedLogger()
	f := Parse("invocation_time:2024-01-01 invocation_id:abc", log)
	assert.Equal(t, ModeInvocationID, f.Mode())
	assert.Equal(t, "abc", f.Value())
}

func TestParse_EmptyDoesNotLog(t *testing.T) {
	log, logs := observedLogger()
	f := Parse("", log)

	assert.True(t, f.IsNone())
	assert.Equal(t, 0, logs.Len())
}

func TestParse_UnrecognizedLogsAndFallsBack(t *testing.T) {
	log, logs := observedLogger()

	var f Filter
	assert.NotPanics(t, func() { f = Parse("model:customers", log) })

	assert.Equal(t, None(), f)
	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "model:customers", entries[0].ContextMap()["select"])
	}
}

func TestParse_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, Parse("garbage", nil).IsNone())
	})
}

func TestFilterString(t *testing.T) {
	assert.Equal(t, "none", None().String())
	assert.Equal(t, "last_invocation", LastInvocation().String())
	assert.Equal(t, "invocation_id:abc", ByInvocationID("abc").String())
	assert.Equal(t, "invocation_time:2024", ByInvocationTime("2024").String())
}
