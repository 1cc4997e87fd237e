package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestInit_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aquestalk.log")
	if err := Init(Config{Level: "debug", File: path}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		Sync()
		rotator = nil
		Init(Config{Level: "info"})
	})

	Infof("[test] hello %s", "world")
	Debugf("[test] debug line")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "[test] hello world") {
		t.Errorf("log file missing info line: %s", data)
	}
	if !strings.Contains(string(data), "[test] debug line") {
		t.Errorf("log file missing debug line: %s", data)
	}
}

func TestNewRotatorDefaults(t *testing.T) {
	r := newRotator(Config{File: "x.log"})
	if r.MaxSize != 64 || r.MaxBackups != 3 || r.MaxAge != 7 {
		t.Errorf("defaults: size=%d backups=%d age=%d", r.MaxSize, r.MaxBackups, r.MaxAge)
	}
	r = newRotator(Config{File: "x.log", MaxSize: 1, MaxBackups: 2, MaxAge: 3})
	if r.MaxSize != 1 || r.MaxBackups != 2 || r.MaxAge != 3 {
		t.Errorf("explicit: size=%d backups=%d age=%d", r.MaxSize, r.MaxBackups, r.MaxAge)
	}
}
