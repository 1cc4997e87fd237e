package audio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/iabetor/aquestalk/internal/aquestalk"
)

// PCM 是解码后的 16bit 交错样本。
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Frames 返回帧数（每帧包含所有声道的一个样本）。
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration 返回播放时长。
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// Bytes 返回小端字节形式的样本。
func (p *PCM) Bytes() []byte {
	return Int16ToBytes(p.Samples)
}

// DecodeWAV 解码 WAV 数据。
// 非 RIFF 数据按 AquesTalk 的输出格式（8kHz 16bit 单声道）当作裸 PCM 处理。
func DecodeWAV(data []byte) (*PCM, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return &PCM{
			Samples:    BytesToInt16(data),
			SampleRate: aquestalk.SampleRate,
			Channels:   aquestalk.Channels,
		}, nil
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("[audio] 解码 WAV 失败: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("[audio] WAV 格式信息无效")
	}

	samples, err := IntsToInt16(buf.Data, int(d.BitDepth))
	if err != nil {
		return nil, err
	}
	return &PCM{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

// Samples 解码合成结果，返回交错样本。
func Samples(a *aquestalk.Audio) (*PCM, error) {
	if a == nil {
		return nil, fmt.Errorf("[audio] 音频为空")
	}
	return DecodeWAV(a.Bytes())
}

// EncodeWAV 把 PCM 编码成 16bit WAV 写入 ws。
func EncodeWAV(ws io.WriteSeeker, p *PCM) error {
	enc := wav.NewEncoder(ws, p.SampleRate, 16, p.Channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate},
		Data:           Int16ToInts(p.Samples),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("[audio] 写入 WAV 失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("[audio] 关闭 WAV 编码器失败: %w", err)
	}
	return nil
}

// AudioInfo 描述一段合成结果。
type AudioInfo struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
	NumSamples    int
	DataSize      int
	Duration      time.Duration
}

// Info 汇总音频格式信息。
func Info(a *aquestalk.Audio) AudioInfo {
	return AudioInfo{
		SampleRate:    a.SampleRate(),
		BitsPerSample: a.BitsPerSample(),
		Channels:      a.Channels(),
		NumSamples:    a.NumSamples(),
		DataSize:      a.Len(),
		Duration:      a.Duration(),
	}
}

func (i AudioInfo) String() string {
	return fmt.Sprintf("%d Hz, %d bit, %d ch, %d samples, %d bytes, %.3fs",
		i.SampleRate, i.BitsPerSample, i.Channels, i.NumSamples, i.DataSize, i.Duration.Seconds())
}
