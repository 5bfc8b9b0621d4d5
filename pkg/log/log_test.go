package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesAboveMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelWarning)

	l.Warn().Src("bitrate-selector").Clip("walk").Msg("fell back to raw")

	out := buf.String()
	require.Contains(t, out, "warning")
	require.Contains(t, out, "bitrate-selector")
	require.Contains(t, out, "walk")
	require.Contains(t, out, "fell back to raw")
}

func TestLoggerDropsBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelError)

	l.Debug().Msg("should not appear")

	require.Empty(t, strings.TrimSpace(buf.String()))
}

func TestDiscardLoggerNeverPanics(t *testing.T) {
	l := NewDiscardLogger()
	require.NotPanics(t, func() {
		l.Error().Msgf("value %d", 42)
	})
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	require.NotPanics(t, func() {
		l.Info().Msg("ignored")
	})
}
