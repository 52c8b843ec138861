package debuglog

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_FormatsRecords(t *testing.T) {
	buf := New(nil)
	logger := slog.New(buf)

	logger.Debug("existing saved searches", "count", 2)
	logger.Info("creating search", "name", "My Search")
	logger.With("run_id", "r1").WithGroup("entry").Warn("skipped", "name", "A")
	logger.Error("sync failed", "error", errors.New("boom"))

	assert.Equal(t, []string{
		"existing saved searches count=2",
		`creating search name="My Search"`,
		"WARN: skipped run_id=r1 entry.name=A",
		"ERROR: sync failed error=boom",
	}, buf.Lines())
}

func TestBuffer_Level(t *testing.T) {
	buf := New(slog.LevelInfo)
	logger := slog.New(buf)

	logger.Debug("hidden")
	logger.Info("shown")

	assert.Equal(t, []string{"shown"}, buf.Lines())
}

func TestBuffer_AppendAndDrain(t *testing.T) {
	buf := New(nil)
	buf.Append("first")
	buf.Append("trace line 1\ntrace line 2\n")

	assert.Equal(t, 3, buf.Len())
	assert.Equal(t, []string{"first", "trace line 1", "trace line 2"}, buf.Drain())
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Lines())
}

func TestBuffer_DerivedHandlersShareLines(t *testing.T) {
	buf := New(nil)
	slog.New(buf).With("a", 1).Info("one")
	slog.New(buf).Info("two")

	assert.Equal(t, []string{"one a=1", "two"}, buf.Lines())
}
