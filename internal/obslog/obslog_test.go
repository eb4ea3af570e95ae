package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuildWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "arena.log")
	logger, err := Build(Options{Level: "debug", ToFile: true, Format: "json", File: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	logger.Debug("arena_move", zap.String("game_id", "g1"))
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, raw)
	}
	if entry["msg"] != "arena_move" || entry["game_id"] != "g1" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestReplaceRestores(t *testing.T) {
	orig := L()
	l := zap.NewExample()
	restore := Replace(l)
	if L() != l {
		t.Fatalf("Replace did not install logger")
	}
	restore()
	if L() != orig {
		t.Fatalf("restore did not reinstall previous logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
