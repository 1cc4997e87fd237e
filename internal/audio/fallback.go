package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iabetor/aquestalk/internal/aquestalk"
	"github.com/iabetor/aquestalk/internal/logger"
)

// ErrNoBackend 所有播放后端都不可用。
var ErrNoBackend = errors.New("[audio] 没有可用的播放后端")

// FallbackPlayer 按顺序尝试多个播放后端，失败时切换到下一个。
// 成功播放的后端会被记住，下次优先使用。
type FallbackPlayer struct {
	players []Player
	mu      sync.Mutex
	current int
}

// NewFallbackPlayer 创建兜底播放器，players 按优先级排序。
func NewFallbackPlayer(players ...Player) *FallbackPlayer {
	return &FallbackPlayer{players: players}
}

func (f *FallbackPlayer) Name() string {
	names := make([]string, len(f.players))
	for i, p := range f.players {
		names[i] = p.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// Play 依次尝试各后端。ctx 被取消时立即返回，不再切换。
func (f *FallbackPlayer) Play(ctx context.Context, pcm *PCM) error {
	if len(f.players) == 0 {
		return ErrNoBackend
	}

	f.mu.Lock()
	start := f.current
	f.mu.Unlock()

	var errs []error
	for i := range f.players {
		idx := (start + i) % len(f.players)
		p := f.players[idx]
		err := p.Play(ctx, pcm)
		if err == nil {
			if idx != start {
				logger.Infof("[audio] 切换播放后端: %s -> %s", f.players[start].Name(), p.Name())
				f.mu.Lock()
				f.current = idx
				f.mu.Unlock()
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("[audio] 后端 %s 播放失败，尝试下一个: %v", p.Name(), err)
		errs = append(errs, err)
	}
	return fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}

// Close 关闭所有后端，返回遇到的全部错误。
func (f *FallbackPlayer) Close() error {
	var errs []error
	for _, p := range f.players {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// NewPlayer 按名称创建播放器。auto 依次组合 malgo、oto、外部命令，
// 初始化失败的后端会被跳过。
func NewPlayer(backend, command string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "malgo":
		return NewMalgoPlayer()
	case "oto":
		return NewOtoPlayer(), nil
	case "command":
		return NewCommandPlayer(command)
	case "", "auto":
		var players []Player
		if mp, err := NewMalgoPlayer(); err == nil {
			players = append(players, mp)
		} else {
			logger.Debugf("[audio] malgo 不可用: %v", err)
		}
		players = append(players, NewOtoPlayer())
		if cp, err := NewCommandPlayer(command); err == nil {
			players = append(players, cp)
		} else {
			logger.Debugf("[audio] 外部命令不可用: %v", err)
		}
		return NewFallbackPlayer(players...), nil
	default:
		return nil, fmt.Errorf("[audio] 不支持的播放后端: %s", backend)
	}
}

// PlayAudio 解码合成结果并播放。
func PlayAudio(ctx context.Context, p Player, a *aquestalk.Audio) error {
	pcm, err := Samples(a)
	if err != nil {
		return err
	}
	logger.Debugf("[audio] 使用 %s 播放 %s", p.Name(), pcm.Duration())
	return p.Play(ctx, pcm)
}
