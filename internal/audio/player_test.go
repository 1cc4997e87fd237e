package audio

import (
	"context"
	"errors"
	"os"
	"runtime"
	"strings"
	"testing"
)

type fakePlayer struct {
	name   string
	err    error
	calls  int
	closed int
}

func (f *fakePlayer) Name() string { return f.name }

func (f *fakePlayer) Play(ctx context.Context, pcm *PCM) error {
	f.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.err
}

func (f *fakePlayer) Close() error {
	f.closed++
	return nil
}

var testPCM = &PCM{Samples: []int16{1, 2, 3, 4}, SampleRate: 8000, Channels: 1}

func TestFallbackPlayer_FirstSucceeds(t *testing.T) {
	a := &fakePlayer{name: "a"}
	b := &fakePlayer{name: "b"}
	f := NewFallbackPlayer(a, b)

	if err := f.Play(context.Background(), testPCM); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if a.calls != 1 || b.calls != 0 {
		t.Errorf("calls: a=%d b=%d", a.calls, b.calls)
	}
	if f.Name() != "fallback(a,b)" {
		t.Errorf("Name: got %s", f.Name())
	}
}

func TestFallbackPlayer_SwitchesOnError(t *testing.T) {
	a := &fakePlayer{name: "a", err: errors.New("no device")}
	b := &fakePlayer{name: "b"}
	f := NewFallbackPlayer(a, b)

	if err := f.Play(context.Background(), testPCM); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls: a=%d b=%d", a.calls, b.calls)
	}

	// 记住可用的后端，不再先尝试 a
	if err := f.Play(context.Background(), testPCM); err != nil {
		t.Fatalf("second Play: %v", err)
	}
	if a.calls != 1 || b.calls != 2 {
		t.Errorf("after switch: a=%d b=%d", a.calls, b.calls)
	}
}

func TestFallbackPlayer_AllFail(t *testing.T) {
	a := &fakePlayer{name: "a", err: errors.New("no device")}
	b := &fakePlayer{name: "b", err: errors.New("format")}
	err := NewFallbackPlayer(a, b).Play(context.Background(), testPCM)
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
	if !strings.Contains(err.Error(), "no device") || !strings.Contains(err.Error(), "format") {
		t.Errorf("error should carry both causes: %v", err)
	}

	if err := NewFallbackPlayer().Play(context.Background(), testPCM); !errors.Is(err, ErrNoBackend) {
		t.Errorf("empty fallback: got %v", err)
	}
}

func TestFallbackPlayer_CancelStopsChain(t *testing.T) {
	a := &fakePlayer{name: "a"}
	b := &fakePlayer{name: "b"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFallbackPlayer(a, b).Play(ctx, testPCM)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.calls != 0 {
		t.Error("should not try next backend after cancel")
	}
}

func TestFallbackPlayer_CloseAll(t *testing.T) {
	a := &fakePlayer{name: "a"}
	b := &fakePlayer{name: "b"}
	if err := NewFallbackPlayer(a, b).Close(); err != nil {
		t.Fatal(err)
	}
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("closed: a=%d b=%d", a.closed, b.closed)
	}
}

func TestNewPlayer_UnknownBackend(t *testing.T) {
	if _, err := NewPlayer("pulse", ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultCommand(t *testing.T) {
	only := func(names ...string) func(string) (string, error) {
		return func(name string) (string, error) {
			for _, n := range names {
				if n == name {
					return "/usr/bin/" + name, nil
				}
			}
			return "", errors.New("not found")
		}
	}

	tests := []struct {
		goos    string
		avail   []string
		want    string
		wantErr bool
	}{
		{"darwin", []string{"afplay"}, "afplay", false},
		{"linux", []string{"aplay", "paplay"}, "aplay -q", false},
		{"linux", []string{"paplay"}, "paplay", false},
		{"freebsd", []string{"ffplay"}, "ffplay -nodisp -autoexit -loglevel quiet", false},
		{"linux", nil, "", true},
	}
	for _, tt := range tests {
		got, err := defaultCommand(tt.goos, only(tt.avail...))
		if (err != nil) != tt.wantErr {
			t.Errorf("%s %v: err = %v", tt.goos, tt.avail, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrNoCommand) {
			t.Errorf("expected ErrNoCommand, got %v", err)
		}
		if got != tt.want {
			t.Errorf("%s %v: got %q, want %q", tt.goos, tt.avail, got, tt.want)
		}
	}

	got, err := defaultCommand("windows", only("powershell"))
	if err != nil || !strings.HasPrefix(got, "powershell") || !strings.Contains(got, fileArg) {
		t.Errorf("windows: got %q, %v", got, err)
	}
}

func TestCommandArgs(t *testing.T) {
	got := commandArgs([]string{"aplay", "-q"}, "/tmp/x.wav")
	if strings.Join(got, " ") != "aplay -q /tmp/x.wav" {
		t.Errorf("append: got %v", got)
	}
	got = commandArgs([]string{"play", "--file={file}", "--quiet"}, "/tmp/x.wav")
	if strings.Join(got, " ") != "play --file=/tmp/x.wav --quiet" {
		t.Errorf("placeholder: got %v", got)
	}
}

func newTestCommandPlayer(t *testing.T, command string) *CommandPlayer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires unix true/false")
	}
	p, err := NewCommandPlayer(command)
	if err != nil {
		t.Skipf("%s not available: %v", command, err)
	}
	p.tmpDir = t.TempDir()
	return p
}

func TestCommandPlayer_RemovesTempFile(t *testing.T) {
	p := newTestCommandPlayer(t, "true")
	if err := p.Play(context.Background(), testPCM); err != nil {
		t.Fatalf("Play: %v", err)
	}
	entries, err := os.ReadDir(p.tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestCommandPlayer_CommandFails(t *testing.T) {
	p := newTestCommandPlayer(t, "false")
	if err := p.Play(context.Background(), testPCM); err == nil {
		t.Fatal("expected error from failing command")
	}
	entries, _ := os.ReadDir(p.tmpDir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %v", entries)
	}
}

func TestNewCommandPlayer_Missing(t *testing.T) {
	if _, err := NewCommandPlayer("definitely-not-a-player-binary"); err == nil {
		t.Fatal("expected error for missing command")
	}
}
