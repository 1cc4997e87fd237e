package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/aquestalk/internal/logger"
)

// ErrPlayerClosed 播放器已关闭。
var ErrPlayerClosed = errors.New("[audio] 播放器已关闭")

// Player 播放一段 PCM，阻塞直到播放完成或 ctx 被取消。
type Player interface {
	Name() string
	Play(ctx context.Context, pcm *PCM) error
	Close() error
}

// MalgoPlayer 使用 malgo (miniaudio) 管理音频播放。
type MalgoPlayer struct {
	ctx    *malgo.AllocatedContext
	mu     sync.Mutex
	closed bool
}

// NewMalgoPlayer 初始化 miniaudio 上下文。
func NewMalgoPlayer() (*MalgoPlayer, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("[audio] 初始化播放上下文失败: %w", err)
	}
	return &MalgoPlayer{ctx: ctx}, nil
}

func (p *MalgoPlayer) Name() string { return "malgo" }

// Play 通过默认扬声器播放，设备采样率与声道跟随 pcm。
func (p *MalgoPlayer) Play(ctx context.Context, pcm *PCM) error {
	if pcm == nil || len(pcm.Samples) == 0 {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	p.mu.Unlock()

	pcmBytes := pcm.Bytes()
	channels := uint32(pcm.Channels)
	pos := 0
	done := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = uint32(pcm.SampleRate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			need := int(frameCount) * int(channels) * 2
			if need > len(out) {
				need = len(out)
			}
			n := 0
			if pos < len(pcmBytes) {
				n = copy(out[:need], pcmBytes[pos:])
				pos += n
			}
			// 数据不足的部分填充静音
			clear(out[n:need])
			if n == 0 {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("[audio] 初始化播放设备失败: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("[audio] 启动播放设备失败: %w", err)
	}
	defer device.Stop()

	select {
	case <-ctx.Done():
		logger.Debugf("[audio] 播放被取消")
		return ctx.Err()
	case <-done:
		logger.Debugf("[audio] 播放完成 (%s)", pcm.Duration())
		return nil
	}
}

// Close 释放 miniaudio 上下文，可重复调用。
func (p *MalgoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.ctx != nil {
		err := p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
		return err
	}
	return nil
}
