package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNew_BadOutputPath(t *testing.T) {
	_, err := New(Config{OutputPaths: []string{"/nonexistent-dir/x/y.log"}})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestFromCore_FieldsAndChildren(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromCore(core).Named("parser").With(String("lexicon", "en"))

	l.Debug("article opened", String("id", "2"), Int("line", 7), Bool("dup", false))
	l.Warn("orphan note", Err(errors.New("no article 9")))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "parser", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "en", ctx["lexicon"])
	assert.Equal(t, "2", ctx["id"])
	assert.EqualValues(t, 7, ctx["line"])
	assert.Equal(t, "no article 9", entries[1].ContextMap()["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("ignored")
	assert.Equal(t, l, l.With(String("k", "v")))
	assert.NoError(t, l.Sync())
	assert.Equal(t, Nop(), OrNop(nil))
}
