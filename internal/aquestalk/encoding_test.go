package aquestalk

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"utf-8", EncodingUTF8, false},
		{"UTF8", EncodingUTF8, false},
		{" utf-16 ", EncodingUTF16, false},
		{"utf16", EncodingUTF16, false},
		{"sjis", EncodingShiftJIS, false},
		{"Shift-JIS", EncodingShiftJIS, false},
		{"shift_jis", EncodingShiftJIS, false},
		{"cp932", EncodingShiftJIS, false},
		{"euc-jp", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedEncoding) {
				t.Errorf("ParseEncoding(%q): expected ErrUnsupportedEncoding, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseEncoding(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestEncodingString_RoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF16, EncodingShiftJIS} {
		got, err := ParseEncoding(enc.String())
		if err != nil || got != enc {
			t.Errorf("%v: ParseEncoding(String()) = %v, %v", enc, got, err)
		}
	}
}

func TestEncodePhonemes_NulTerminated(t *testing.T) {
	u8, err := encodePhonemes("ab", EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(u8.narrow, []byte{'a', 'b', 0}) {
		t.Errorf("utf-8: got % x", u8.narrow)
	}

	u16, err := encodePhonemes("aあ", EncodingUTF16)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{'a', 0x3042, 0}
	if len(u16.wide) != len(want) {
		t.Fatalf("utf-16: got %v", u16.wide)
	}
	for i := range want {
		if u16.wide[i] != want[i] {
			t.Errorf("utf-16[%d]: got %#x, want %#x", i, u16.wide[i], want[i])
		}
	}
}

func TestEncodePhonemes_UTF8StripsBOM(t *testing.T) {
	got, err := encodePhonemes("\uFEFFa", EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.narrow, []byte{'a', 0}) {
		t.Errorf("got % x", got.narrow)
	}
}

func TestEncodePhonemes_UTF16SurrogatePair(t *testing.T) {
	got, err := encodePhonemes("𠮷", EncodingUTF16)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.wide) != 3 || got.wide[0] != 0xD842 || got.wide[1] != 0xDFB7 {
		t.Errorf("got %#x", got.wide)
	}
}

func TestEncodeShiftJIS(t *testing.T) {
	got, err := encodeShiftJIS("こんにちわ。")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x82, 0xb1, 0x82, 0xf1, 0x82, 0xc9, 0x82, 0xbf, 0x82, 0xed, 0x81, 0x42}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeShiftJIS_DropsUnencodable(t *testing.T) {
	// 表情符号无法用 Shift-JIS 表示，应被忽略
	got, err := encodeShiftJIS("あ😀い")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x82, 0xa0, 0x82, 0xa2}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}

	if _, err := encodeShiftJIS("😀"); !errors.Is(err, ErrInvalidPhonemes) {
		t.Errorf("all-unencodable input: got %v, want ErrInvalidPhonemes", err)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		in          int
		want        int
		wantClamped bool
	}{
		{49, 50, true},
		{50, 50, false},
		{100, 100, false},
		{300, 300, false},
		{301, 300, true},
		{0, 50, true},
		{-100, 50, true},
	}
	for _, tt := range tests {
		got, clamped := ClampSpeed(tt.in)
		if got != tt.want || clamped != tt.wantClamped {
			t.Errorf("ClampSpeed(%d) = %d, %v; want %d, %v", tt.in, got, clamped, tt.want, tt.wantClamped)
		}
	}
}

func TestDescribeCode(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{105, "音声记号列中含有未定义的读音记号"},
		{107, "音声记号列的标签指定不正确"},
		{201, "音声记号列过长"},
		{950, "Profile 指定错误"},
		{-1, "引擎未返回音频数据"},
		{12345, "音声记号列可能不正确"},
	}
	for _, tt := range tests {
		if got := DescribeCode(tt.code); got != tt.want {
			t.Errorf("DescribeCode(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}

	err := newError(105)
	if !errors.Is(err, ErrSynthesis) {
		t.Error("*Error should unwrap to ErrSynthesis")
	}
	var e *Error
	if !errors.As(error(err), &e) || e.Code != 105 {
		t.Errorf("errors.As: got %+v", e)
	}
}

func TestNormalizePhonemes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"こんにちわ", "こんにちわ"},
		{"こん\r\nにちわ\n", "こんにちわ"},
		{"\uFEFFあ", "あ"},
		{"あ\uFEFF", "あ\uFEFF"},
		{" あ ", " あ "},
	}
	for _, tt := range tests {
		if got := NormalizePhonemes(tt.in); got != tt.want {
			t.Errorf("NormalizePhonemes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
