package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-encoding", "sjis", "-speed", "150", "-play", "ゆっくり", "していってね"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.encoding != "sjis" || opts.speed != 150 || !opts.play {
		t.Errorf("opts: %+v", opts)
	}
	if len(opts.phonemes) != 2 {
		t.Errorf("phonemes: %v", opts.phonemes)
	}
	if !opts.set["encoding"] || !opts.set["speed"] || opts.set["lib"] {
		t.Errorf("set: %v", opts.set)
	}

	if _, err := parseFlags([]string{"-speed", "fast"}); err == nil {
		t.Error("expected error for non-numeric speed")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aquestalk.yaml")
	content := "engine:\n  encoding: utf-16\n  speed: 80\n  lib_path: /opt/a.so\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := parseFlags([]string{"-config", path, "-speed", "200", "a"})
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Engine.Speed != 200 {
		t.Errorf("speed flag should override file: got %d", cfg.Engine.Speed)
	}
	if cfg.Engine.Encoding != "utf-16" || cfg.Engine.LibPath != "/opt/a.so" {
		t.Errorf("file values should be kept: %+v", cfg.Engine)
	}

	opts, _ = parseFlags([]string{"-config", path, "-speed", "0", "a"})
	cfg, err = loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Engine.Speed != 0 {
		t.Errorf("explicit -speed 0 should be kept: got %d", cfg.Engine.Speed)
	}

	opts, _ = parseFlags([]string{"-config", path, "-encoding", "euc-jp", "a"})
	if _, err := loadConfig(opts); err == nil {
		t.Error("expected error for unsupported encoding flag")
	}
}

func TestCollectPhonemes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("こんにちわ\r\n\n  ゆっくり  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	lines, err := collectPhonemes(&options{inputFile: path, phonemes: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("collectPhonemes: %v", err)
	}
	want := []string{"こんにちわ", "ゆっくり", "a b"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", lines, want)
	}

	if _, err := collectPhonemes(&options{}); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := collectPhonemes(&options{inputFile: "/nonexistent/input.txt"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		out   string
		i     int
		total int
		want  string
	}{
		{"out.wav", 0, 1, "out.wav"},
		{"out-%d.wav", 1, 3, "out-2.wav"},
		{"wavs", 0, 2, filepath.Join("wavs", "001.wav")},
		{"wavs", 11, 12, filepath.Join("wavs", "012.wav")},
	}
	for _, tt := range tests {
		if got := outputPath(tt.out, tt.i, tt.total); got != tt.want {
			t.Errorf("outputPath(%q, %d, %d) = %q, want %q", tt.out, tt.i, tt.total, got, tt.want)
		}
	}
}
