package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { _ = SetLevel("info") })

	require.NoError(t, SetLevel("warn"))
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	require.NoError(t, SetLevel("DEBUG"))
	Debugf("debug %s", "line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestSetLevel_Invalid(t *testing.T) {
	assert.Error(t, SetLevel("loud"))
	assert.Error(t, SetLevel(""))
}

func TestLevelWriter(t *testing.T) {
	var buf bytes.Buffer
	w := LevelWriter{Writer: &buf, Levels: []zerolog.Level{zerolog.ErrorLevel}}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("info"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, buf.String())

	_, err = w.WriteLevel(zerolog.ErrorLevel, []byte("error"))
	require.NoError(t, err)
	assert.Equal(t, "error", buf.String())
}
