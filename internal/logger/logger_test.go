package logger

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interatlas/management-system/internal/config"
)

func TestLineLogger(t *testing.T) {
	var buf bytes.Buffer
	l := LineLogger(&buf)

	l.Info("USER: Jonas | ACTION: Login | DETAILS: ")
	l.Warn("USER: Jonas | ACTION: Login | DETAILS: (User Not Active)")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Regexp(t, regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] USER: Jonas \| ACTION: Login \| DETAILS: $`), string(lines[0]))
	assert.Contains(t, string(lines[1]), "[WARN] USER: Jonas")
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, "warn", levelFromString("warning").String())
	assert.Equal(t, "info", levelFromString("bogus").String())
}

func TestNew(t *testing.T) {
	l, err := New(config.LogConfig{Level: "debug", Dev: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(levelFromString("debug")))
}

func TestRotatingFile(t *testing.T) {
	dir := t.TempDir()
	w, err := RotatingFile(dir, "user_actions")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	assert.NoError(t, err)
}
