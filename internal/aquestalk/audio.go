package aquestalk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// AquesTalk1 的输出格式：8kHz、16bit、单声道 WAV。
const (
	SampleRate    = 8000
	BitsPerSample = 16
	Channels      = 1
)

// Audio 是合成结果，构造后不可变。
type Audio struct {
	data          []byte
	sampleRate    int
	bitsPerSample int
	channels      int
}

// NewAudio 复制 data 并构造 Audio。
func NewAudio(data []byte, sampleRate, bitsPerSample, channels int) *Audio {
	return newAudio(bytes.Clone(data), sampleRate, bitsPerSample, channels)
}

// newAudio 直接持有 data，调用方需保证不再修改。
func newAudio(data []byte, sampleRate, bitsPerSample, channels int) *Audio {
	return &Audio{
		data:          data,
		sampleRate:    sampleRate,
		bitsPerSample: bitsPerSample,
		channels:      channels,
	}
}

// Bytes 返回 WAV 数据的副本。
func (a *Audio) Bytes() []byte { return bytes.Clone(a.data) }

// Len 返回 WAV 数据字节数（含文件头）。
func (a *Audio) Len() int { return len(a.data) }

func (a *Audio) SampleRate() int    { return a.sampleRate }
func (a *Audio) BitsPerSample() int { return a.bitsPerSample }
func (a *Audio) Channels() int      { return a.channels }

// WriteTo 实现 io.WriterTo，原样写出 WAV 数据。
func (a *Audio) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}

// PCM 返回 data 块负载的副本；不是 RIFF/WAVE 时返回整个缓冲区。
func (a *Audio) PCM() []byte {
	return bytes.Clone(a.payload())
}

// NumSamples 按整个缓冲区（含文件头）计算样本帧数。
func (a *Audio) NumSamples() int {
	frame := a.frameSize()
	if frame <= 0 {
		return 0
	}
	return len(a.data) / frame
}

// Duration 由缓冲区长度和格式参数推算时长，与 NumSamples 口径一致。
func (a *Audio) Duration() time.Duration {
	bytesPerSecond := a.sampleRate * a.frameSize()
	if bytesPerSecond <= 0 {
		return 0
	}
	return time.Duration(len(a.data)) * time.Second / time.Duration(bytesPerSecond)
}

func (a *Audio) frameSize() int {
	return a.bitsPerSample / 8 * a.channels
}

// Save 将 WAV 数据写入文件，先写同目录下的唯一临时文件再重命名，
// 并发保存到同一路径时不会互相覆盖临时文件。
func (a *Audio) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("[aquestalk] 创建目录失败: %w", err)
		}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("[aquestalk] 创建临时文件失败: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(a.data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("[aquestalk] 保存 WAV 文件失败: %w", err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("[aquestalk] 保存 WAV 文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("[aquestalk] 保存 WAV 文件失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("[aquestalk] 保存 WAV 文件失败: %w", err)
	}
	return nil
}

func (a *Audio) payload() []byte {
	if off, n, ok := findDataChunk(a.data); ok {
		return a.data[off : off+n]
	}
	return a.data
}

// findDataChunk 在 RIFF/WAVE 容器中定位 data 块，返回负载偏移和长度。
// 声明长度超出缓冲区时截断到实际长度。
func findDataChunk(b []byte) (int, int, bool) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return 0, 0, false
	}

	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		body := pos + 8
		if id == "data" {
			if size > len(b)-body || size < 0 {
				size = len(b) - body
			}
			return body, size, true
		}
		// 块按偶数字节对齐
		next := body + size + size&1
		if next <= pos || next > len(b) {
			break
		}
		pos = next
	}
	return 0, 0, false
}
