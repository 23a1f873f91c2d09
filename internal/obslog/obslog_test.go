package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

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
			t.Fatalf("parseLevel(%q): got %s want %s", in, got, want)
		}
	}
}

func TestBuild_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "game.log")
	l, err := Build(Options{Level: "info", Format: "json", ToFile: true, File: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l.Info("game_move")
	l.Debug("hidden")
	_ = l.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, `"msg":"game_move"`) {
		t.Fatalf("missing entry: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry leaked at info level: %s", out)
	}
}

func TestSet_NilRestoresNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatalf("L() must never be nil")
	}
}
