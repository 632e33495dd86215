package sysutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"trace", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	lg, closer, err := NewLogger(&buf, LogOptions{})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closer.Close()

	lg.Info().Str("k", "v").Msg("hello")
	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) || !strings.Contains(out, `"time":`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewLogger_Pretty(t *testing.T) {
	var buf bytes.Buffer
	lg, _, err := NewLogger(&buf, LogOptions{Pretty: true})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	lg.Info().Msg("pretty")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console format, got: %s", buf.String())
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	var buf bytes.Buffer
	lg, closer, err := NewLogger(&buf, LogOptions{File: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	lg.Warn().Msg("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Fatalf("file=%q console=%q", data, buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q", got)
	}
	if got := FirstNonEmpty(" ", "\t"); got != "" {
		t.Fatalf("FirstNonEmpty(blanks) = %q", got)
	}
	if got := FirstNonEmpty("   ", "  v1  ", "v2"); got != "  v1  " {
		t.Fatalf("FirstNonEmpty(...) = %q", got)
	}
}
