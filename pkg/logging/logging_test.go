package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{" WARN ", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppLogger(t *testing.T) {
	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWriterAppLogger(&buf, LogLevelWarn, nil)

		l.Info("hidden")
		l.Warn("shown", "key", "value")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "warn: shown key=value")
	})

	t.Run("quotes values with spaces", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWriterAppLogger(&buf, LogLevelDebug, nil)

		l.Debug("loaded", "reason", "bad password")

		assert.Contains(t, buf.String(), `reason="bad password"`)
	})

	t.Run("with carries context", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWriterAppLogger(&buf, LogLevelInfo, nil)

		l.With("client", 7).Info("connected", "addr", "127.0.0.1")

		assert.Contains(t, buf.String(), "connected client=7 addr=127.0.0.1")
	})

	t.Run("is debug", func(t *testing.T) {
		assert.True(t, NewWriterAppLogger(&bytes.Buffer{}, LogLevelDebug, nil).IsDebug())
		assert.False(t, NewWriterAppLogger(&bytes.Buffer{}, LogLevelInfo, nil).IsDebug())
	})
}

func TestAccessLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterAccessLogger(&buf)

	l.LogAuth("AUTH", "alice", "failure", "reason", "invalid credentials", "dangling")
	l.LogAccess("RETR", "alice", "/players/alice/x.c", "success")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `op=AUTH user=alice status=failure reason="invalid credentials"`)
	assert.NotContains(t, lines[0], "dangling")
	assert.Contains(t, lines[1], "op=RETR user=alice path=/players/alice/x.c status=success")
}

func TestInitialize(t *testing.T) {
	prevApp, prevAccess := App, Access
	t.Cleanup(func() { App, Access = prevApp, prevAccess })

	dir := t.TempDir()
	cfg := &Config{
		AccessLogPath: filepath.Join(dir, "access.log"),
		AppLogPath:    filepath.Join(dir, "app", "cftpd.log"),
		Level:         LogLevelDebug,
	}
	require.NoError(t, Initialize(cfg))
	defer App.Close()

	App.Info("started")
	Access.LogAuth("AUTH", "bob", "success")

	data, err := os.ReadFile(cfg.AppLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "info: started")

	data, err = os.ReadFile(cfg.AccessLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "op=AUTH user=bob status=success")
}

func TestRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, 32, 0)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("0123456789012345678901234567\n"))
	require.NoError(t, err)
	// Pushes past maxSize and forces an archive
	_, err = w.Write([]byte("second line\n"))
	require.NoError(t, err)

	archived, err := os.ReadDir(filepath.Join(dir, ArchiveDir))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.True(t, strings.HasPrefix(archived[0].Name(), "app.log."))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second line\n", string(data))

	t.Run("reopens after external move", func(t *testing.T) {
		require.NoError(t, os.Rename(path, filepath.Join(dir, "moved.log")))

		w.mu.Lock()
		require.NoError(t, w.verifyLocked())
		w.mu.Unlock()

		_, err := w.Write([]byte("after move\n"))
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "after move\n", string(data))
	})
}
