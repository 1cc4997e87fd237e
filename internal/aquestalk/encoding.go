package aquestalk

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"github.com/iabetor/aquestalk/internal/logger"
)

// Encoding 指定传给引擎的音声记号列编码，决定调用哪个导出函数。
type Encoding int

const (
	// EncodingUTF8 对应 AquesTalk_Synthe_Utf8。
	EncodingUTF8 Encoding = iota
	// EncodingUTF16 对应 AquesTalk_Synthe_Utf16（字节序跟随运行环境）。
	EncodingUTF16
	// EncodingShiftJIS 对应 AquesTalk_Synthe（CP932）。
	EncodingShiftJIS
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf-8"
	case EncodingUTF16:
		return "utf-16"
	case EncodingShiftJIS:
		return "sjis"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding 解析编码名称，大小写不敏感。
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "utf-16", "utf16":
		return EncodingUTF16, nil
	case "sjis", "shift-jis", "shift_jis", "shiftjis", "cp932":
		return EncodingShiftJIS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// encodedPhonemes 是已编码、NUL 终止的记号列。
// 8 位编码使用 narrow，UTF-16 使用 wide。
type encodedPhonemes struct {
	narrow []byte
	wide   []uint16
}

const bom = '\uFEFF'

// encodePhonemes 按指定编码转换记号列并追加 NUL 终止符。
func encodePhonemes(koe string, enc Encoding) (encodedPhonemes, error) {
	switch enc {
	case EncodingUTF8:
		// 引擎不接受 BOM
		koe = strings.TrimPrefix(koe, string(bom))
		if !utf8.ValidString(koe) {
			return encodedPhonemes{}, fmt.Errorf("%w: 非法的 UTF-8 序列", ErrInvalidPhonemes)
		}
		if koe == "" {
			return encodedPhonemes{}, ErrEmptyPhonemes
		}
		b := make([]byte, 0, len(koe)+1)
		b = append(b, koe...)
		return encodedPhonemes{narrow: append(b, 0)}, nil

	case EncodingUTF16:
		if !utf8.ValidString(koe) {
			return encodedPhonemes{}, fmt.Errorf("%w: 非法的 UTF-8 序列", ErrInvalidPhonemes)
		}
		w := utf16.Encode([]rune(koe))
		return encodedPhonemes{wide: append(w, 0)}, nil

	case EncodingShiftJIS:
		b, err := encodeShiftJIS(koe)
		if err != nil {
			return encodedPhonemes{}, err
		}
		return encodedPhonemes{narrow: append(b, 0)}, nil

	default:
		return encodedPhonemes{}, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// encodeShiftJIS 先严格编码；失败时逐字符编码并丢弃无法表示的字符。
func encodeShiftJIS(koe string) ([]byte, error) {
	enc := japanese.ShiftJIS.NewEncoder()
	if s, err := enc.String(koe); err == nil {
		return []byte(s), nil
	}

	var (
		out     []byte
		dropped int
	)
	for _, r := range koe {
		s, err := enc.String(string(r))
		if r == utf8.RuneError || err != nil {
			dropped++
			continue
		}
		out = append(out, s...)
	}
	logger.Warnf("[aquestalk] Shift-JIS 无法表示 %d 个字符，已忽略", dropped)

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: 没有可用 Shift-JIS 表示的字符", ErrInvalidPhonemes)
	}
	return out, nil
}
