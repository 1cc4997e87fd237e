package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/iabetor/aquestalk/internal/logger"
)

// OtoPlayer 使用 oto 播放。
// oto 每个进程只允许一个上下文，因此首次播放时按该段音频的格式创建，
// 之后格式不一致的音频会返回错误，交给下一个后端处理。
type OtoPlayer struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	channels   int
	closed     bool
}

// NewOtoPlayer 创建 oto 播放器，上下文延迟到首次播放时初始化。
func NewOtoPlayer() *OtoPlayer {
	return &OtoPlayer{}
}

func (p *OtoPlayer) Name() string { return "oto" }

func (p *OtoPlayer) ensureContext(sampleRate, channels int) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPlayerClosed
	}
	if p.otoCtx != nil {
		if p.sampleRate != sampleRate || p.channels != channels {
			return nil, fmt.Errorf("[audio] oto 上下文格式为 %dHz/%dch，无法播放 %dHz/%dch",
				p.sampleRate, p.channels, sampleRate, channels)
		}
		return p.otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("[audio] 创建 oto 上下文失败: %w", err)
	}
	<-ready

	p.otoCtx = ctx
	p.sampleRate = sampleRate
	p.channels = channels
	logger.Debugf("[audio] oto 上下文已初始化: %dHz, %d 声道", sampleRate, channels)
	return ctx, nil
}

// Play 阻塞直到播放结束或 ctx 被取消。
func (p *OtoPlayer) Play(ctx context.Context, pcm *PCM) error {
	if pcm == nil || len(pcm.Samples) == 0 {
		return nil
	}

	otoCtx, err := p.ensureContext(pcm.SampleRate, pcm.Channels)
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(bytes.NewReader(pcm.Bytes()))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			logger.Debugf("[audio] 播放被取消")
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close 挂起 oto 上下文。oto 不支持销毁上下文。
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.otoCtx != nil {
		return p.otoCtx.Suspend()
	}
	return nil
}
