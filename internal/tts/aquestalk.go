package tts

import (
	"context"
	"fmt"

	"github.com/iabetor/aquestalk/internal/aquestalk"
	"github.com/iabetor/aquestalk/internal/audio"
	"github.com/iabetor/aquestalk/internal/cache"
	"github.com/iabetor/aquestalk/internal/logger"
)

// AquesTalkEngine 把 AquesTalk 绑定适配为 Engine。
// 输入必须是音声记号列，而不是普通文本。
type AquesTalkEngine struct {
	synth    Synthesizer
	encoding aquestalk.Encoding
	speed    int
	cache    *cache.Cache
}

// AquesTalkConfig 引擎参数。Speed 原样传给引擎，超出范围时由引擎截断；
// Cache 可以为 nil。
type AquesTalkConfig struct {
	Encoding aquestalk.Encoding
	Speed    int
	Cache    *cache.Cache
}

// NewAquesTalkEngine 创建 AquesTalk TTS 引擎。
func NewAquesTalkEngine(synth Synthesizer, cfg AquesTalkConfig) *AquesTalkEngine {
	return &AquesTalkEngine{
		synth:    synth,
		encoding: cfg.Encoding,
		speed:    cfg.Speed,
		cache:    cfg.Cache,
	}
}

// SynthesizeWAV 合成并返回完整 WAV，优先读取缓存。
// 原生调用本身不可中断，只在进入引擎前检查 ctx。
func (e *AquesTalkEngine) SynthesizeWAV(ctx context.Context, phonemes string) (*aquestalk.Audio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if e.cache.Enabled() {
		a, ok, err := e.cache.Get(phonemes, e.encoding, e.speed)
		if err != nil {
			logger.Warnf("[tts] 读取缓存失败: %v", err)
		} else if ok {
			logger.Debugf("[tts] aquestalk: 命中缓存 (%d 字节)", a.Len())
			return a, nil
		}
	}

	logger.Debugf("[tts] aquestalk: 正在合成 %d 个字符", len([]rune(phonemes)))
	a, err := e.synth.Synthesize(phonemes, e.encoding, e.speed)
	if err != nil {
		return nil, fmt.Errorf("[tts] aquestalk 合成失败: %w", err)
	}

	if err := e.cache.Put(phonemes, e.encoding, e.speed, a); err != nil {
		logger.Warnf("[tts] 写入缓存失败: %v", err)
	}
	return a, nil
}

// Synthesize 实现 Engine，返回单声道 float32 样本和采样率。
func (e *AquesTalkEngine) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	a, err := e.SynthesizeWAV(ctx, text)
	if err != nil {
		return nil, 0, err
	}
	pcm, err := audio.Samples(a)
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] 解码音频失败: %w", err)
	}
	return audio.Int16ToFloat32(pcm.Samples), pcm.SampleRate, nil
}
