package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriterFiltersAndStamps(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info().Msg("dropped")
	log.Warn().Str("op", "produce").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["message"] != "kept" || entry["op"] != "produce" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected timestamp field")
	}
}

func TestNewUsesLevel(t *testing.T) {
	if got := New("production", "error").GetLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got %v", got)
	}
}
