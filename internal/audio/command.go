package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/iabetor/aquestalk/internal/logger"
)

// fileArg 命令模板中的文件占位符，缺省时文件路径追加到末尾。
const fileArg = "{file}"

// ErrNoCommand 当前平台找不到可用的播放命令。
var ErrNoCommand = errors.New("[audio] 未找到可用的播放命令")

// CommandPlayer 将音频写成临时 WAV 后调用外部命令播放。
type CommandPlayer struct {
	args   []string
	tmpDir string
}

// NewCommandPlayer 创建外部命令播放器，command 为空时按平台自动选择。
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	if strings.TrimSpace(command) == "" {
		var err error
		command, err = defaultCommand(runtime.GOOS, exec.LookPath)
		if err != nil {
			return nil, err
		}
	}
	args := strings.Fields(command)
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("[audio] 播放命令 %s 不可用: %w", args[0], err)
	}
	return &CommandPlayer{args: args}, nil
}

// defaultCommand 按平台挑选系统自带的播放工具。
func defaultCommand(goos string, lookPath func(string) (string, error)) (string, error) {
	var candidates []string
	switch goos {
	case "darwin":
		candidates = []string{"afplay"}
	case "windows":
		candidates = []string{"powershell -NoProfile -Command (New-Object Media.SoundPlayer '" + fileArg + "').PlaySync()"}
	default:
		candidates = []string{"aplay -q", "paplay", "ffplay -nodisp -autoexit -loglevel quiet"}
	}
	for _, c := range candidates {
		name := strings.Fields(c)[0]
		if _, err := lookPath(name); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w (%s)", ErrNoCommand, goos)
}

func (p *CommandPlayer) Name() string { return "command" }

// Play 写入临时文件并等待命令退出，结束后删除临时文件。
func (p *CommandPlayer) Play(ctx context.Context, pcm *PCM) error {
	if pcm == nil || len(pcm.Samples) == 0 {
		return nil
	}

	dir := p.tmpDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "aquestalk-"+uuid.NewString()+".wav")
	if err := writeWAVFile(path, pcm); err != nil {
		return err
	}
	defer os.Remove(path)

	args := commandArgs(p.args, path)
	logger.Debugf("[audio] 执行播放命令: %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("[audio] 播放命令 %s 失败: %w (%s)", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (p *CommandPlayer) Close() error { return nil }

// commandArgs 替换占位符，没有占位符时把文件路径作为最后一个参数。
func commandArgs(tmpl []string, path string) []string {
	args := make([]string, 0, len(tmpl)+1)
	replaced := false
	for _, a := range tmpl {
		if strings.Contains(a, fileArg) {
			a = strings.ReplaceAll(a, fileArg, path)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, path)
	}
	return args
}

func writeWAVFile(path string, pcm *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[audio] 创建临时文件失败: %w", err)
	}
	if err := EncodeWAV(f, pcm); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("[audio] 写入临时文件失败: %w", err)
	}
	return nil
}
