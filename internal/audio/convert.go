package audio

import (
	"fmt"
	"math"
)

// Int16ToFloat32 将 PCM int16 样本转换为 [-1.0, 1.0] 范围的 float32。
func Int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// BytesToInt16 将小端字节切片转换为 int16 样本，奇数尾字节被忽略。
func BytesToInt16(b []byte) []int16 {
	n := len(b) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(b[2*i]) | int16(b[2*i+1])<<8
	}
	return out
}

// Int16ToBytes 将 int16 样本转换为小端字节切片。
func Int16ToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

// IntsToInt16 把 go-audio 解码得到的整型样本统一为 16bit。
// 8bit WAV 为无符号样本，需要先去掉偏置。
func IntsToInt16(in []int, bitDepth int) ([]int16, error) {
	out := make([]int16, len(in))
	switch bitDepth {
	case 8:
		for i, s := range in {
			out[i] = int16((s - 128) << 8)
		}
	case 16:
		for i, s := range in {
			out[i] = int16(s)
		}
	case 24:
		for i, s := range in {
			out[i] = int16(s >> 8)
		}
	case 32:
		for i, s := range in {
			out[i] = int16(s >> 16)
		}
	default:
		return nil, fmt.Errorf("[audio] 不支持的位深: %d", bitDepth)
	}
	return out, nil
}

// Int16ToInts 是 IntsToInt16 在 16bit 下的逆操作，用于 go-audio 编码。
func Int16ToInts(in []int16) []int {
	out := make([]int, len(in))
	for i, s := range in {
		out[i] = int(s)
	}
	return out
}
