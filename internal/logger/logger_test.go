package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogEvent_Fields(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "hub")

	l.LogEvent("info", "client_registered", "alice", "")
	l.LogEvent("warn", "handshake_rejected", "a>b", "reserved character")

	entries := decodeLines(t, &buf)
	req.Len(entries, 2)

	req.Equal("hub", entries[0]["component"])
	req.Equal("client_registered", entries[0]["event"])
	req.Equal("alice", entries[0]["name"])
	req.Equal("info", entries[0]["level"])
	req.Contains(entries[0]["message"], "alice")

	req.Equal("warn", entries[1]["level"])
	req.Contains(entries[1]["message"], "reserved character")
}

func TestWithFields(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "client").WithFields(map[string]interface{}{"peer": "p-1"}).WithField("remote", "127.0.0.1:1")

	l.Infof("hello %s", "world")

	entries := decodeLines(t, &buf)
	req.Len(entries, 1)
	req.Equal("p-1", entries[0]["peer"])
	req.Equal("127.0.0.1:1", entries[0]["remote"])
	req.Equal("hello world", entries[0]["message"])
}

func TestDefaultLogConfig(t *testing.T) {
	req := require.New(t)
	cfg := DefaultLogConfig()
	req.Equal("info", cfg.Level)
	req.NotEmpty(cfg.FilePath)
	req.Positive(cfg.MaxSize)
}
