package slogx

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestChanLogger(t *testing.T) {
	ch := make(chan string, 4)
	l := NewChanLogger(ch, slog.LevelInfo)
	l.Debug("hidden")
	l.Info("export done", "file", "EURUSD60.hst")

	require.Len(t, ch, 1)
	line := <-ch
	assert.Contains(t, line, "msg=\"export done\"")
	assert.Contains(t, line, "file=EURUSD60.hst")
}

func TestChanWriterDropsWhenFull(t *testing.T) {
	ch := make(chan string, 1)
	w := &ChanWriter{Ch: ch}
	n, err := w.Write([]byte("a\nb\npartial"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, "a", <-ch)
	assert.Equal(t, "partial", string(w.Buf))
}
