package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreshold(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "centfit: ")
	SetOutput(&buf)
	defer Init("info", "")

	Info("hidden %d", 1)
	Warn("shown %d", 2)
	Error("shown %d", 3)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN] shown 2")
	require.Contains(t, out, "[ERROR] shown 3")
	require.Contains(t, out, "centfit: ")
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	} {
		require.Equal(t, want, ParseLevel(name), name)
	}
}
