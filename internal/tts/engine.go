package tts

import (
	"context"

	"github.com/iabetor/aquestalk/internal/aquestalk"
)

// Engine 定义语音合成后端接口。
type Engine interface {
	// Synthesize 将文本转换为音频。
	// 返回 float32 音频样本、采样率（Hz）和错误。
	Synthesize(ctx context.Context, text string) ([]float32, int, error)
}

// Synthesizer 是 AquesTalk 绑定的调用面，*aquestalk.Synthesizer 实现了它。
type Synthesizer interface {
	Synthesize(phonemes string, enc aquestalk.Encoding, speed int) (*aquestalk.Audio, error)
}

var _ Synthesizer = (*aquestalk.Synthesizer)(nil)
