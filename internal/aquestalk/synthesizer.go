package aquestalk

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/iabetor/aquestalk/internal/logger"
)

// Options 配置引擎库的加载。
type Options struct {
	LibPath    string   // 显式指定库路径，非空时只尝试该路径
	SearchDirs []string // 额外的搜索目录
	DevKey     string   // 开发许可证密钥，非空时在加载后设置
	UsrKey     string   // 使用许可证密钥，非空时在加载后设置
}

// Synthesizer 封装已加载的 AquesTalk1 引擎。
// 引擎调用由互斥锁串行化，可在多个 goroutine 间共享。
type Synthesizer struct {
	mu          sync.Mutex
	lib         *nativeLib
	path        string
	initialized bool
}

// New 加载引擎库并解析导出函数。
func New(opts Options) (*Synthesizer, error) {
	paths := candidatePaths(opts)

	var lastErr error
	for _, p := range paths {
		lib, err := loadLibrary(p)
		if err != nil {
			logger.Debugf("[aquestalk] 加载 %s 失败: %v", p, err)
			lastErr = err
			continue
		}
		logger.Infof("[aquestalk] 已加载引擎库: %s", p)

		s := newSynthesizer(lib, p)
		s.applyKeys(opts)
		return s, nil
	}

	return nil, fmt.Errorf("%w (已尝试: %s): %w", ErrLibraryNotFound, strings.Join(paths, ", "), lastErr)
}

func newSynthesizer(lib *nativeLib, path string) *Synthesizer {
	return &Synthesizer{lib: lib, path: path, initialized: true}
}

// applyKeys 设置许可证密钥。密钥被拒时引擎仍以评估模式工作，因此只记录警告。
func (s *Synthesizer) applyKeys(opts Options) {
	if opts.DevKey != "" {
		if err := s.SetDevKey(opts.DevKey); err != nil {
			logger.Warnf("[aquestalk] 设置开发许可证失败: %v", err)
		}
	}
	if opts.UsrKey != "" {
		if err := s.SetUsrKey(opts.UsrKey); err != nil {
			logger.Warnf("[aquestalk] 设置使用许可证失败: %v", err)
		}
	}
}

// Initialized 返回合成器是否可用。
func (s *Synthesizer) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Path 返回实际加载的库路径。
func (s *Synthesizer) Path() string {
	return s.path
}

// Synthesize 将音声记号列合成为 WAV 音频。
// speed 超出 [MinSpeed, MaxSpeed] 时会被调整并记录警告。
func (s *Synthesizer) Synthesize(phonemes string, enc Encoding, speed int) (*Audio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	koe, err := preparePhonemes(phonemes)
	if err != nil {
		return nil, err
	}

	if clamped, changed := ClampSpeed(speed); changed {
		logger.Warnf("[aquestalk] 语速 %d%% 超出范围，已调整为 %d%%", speed, clamped)
		speed = clamped
	}

	encoded, err := encodePhonemes(koe, enc)
	if err != nil {
		return nil, err
	}

	logger.Debugf("[aquestalk] 正在合成 %d 个字符，编码=%s，语速=%d%%", len([]rune(koe)), enc, speed)

	var size int32
	wav := s.call(enc, encoded, int32(speed), &size)
	audio, err := s.collect(wav, size)
	if err != nil {
		return nil, err
	}

	logger.Debugf("[aquestalk] 合成完成: %d 字节，时长 %v", audio.Len(), audio.Duration())
	return audio, nil
}

// SynthesizeToFile 合成并把 WAV 数据原样写入 path。
func (s *Synthesizer) SynthesizeToFile(phonemes, path string, enc Encoding, speed int) error {
	audio, err := s.Synthesize(phonemes, enc, speed)
	if err != nil {
		return err
	}
	return audio.Save(path)
}

// SetDevKey 设置开发许可证密钥，解除评估版限制。
// 引擎对部分无效密钥也会返回成功，此时限制不会解除。
func (s *Synthesizer) SetDevKey(key string) error {
	return s.setKey(func(l *nativeLib) int32 { return l.setDevKey(key) })
}

// SetUsrKey 设置使用许可证密钥，改变合成音频中的水印状态。
func (s *Synthesizer) SetUsrKey(key string) error {
	return s.setKey(func(l *nativeLib) int32 { return l.setUsrKey(key) })
}

func (s *Synthesizer) setKey(set func(*nativeLib) int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if ret := set(s.lib); ret != 0 {
		return fmt.Errorf("%w (ret=%d)", ErrKeyRejected, ret)
	}
	return nil
}

// Close 卸载引擎库。重复调用安全。
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	s.initialized = false

	if s.lib != nil && s.lib.close != nil {
		if err := s.lib.close(); err != nil {
			return fmt.Errorf("[aquestalk] 卸载引擎库失败: %w", err)
		}
	}
	logger.Debugf("[aquestalk] 引擎库已卸载: %s", s.path)
	return nil
}

// call 根据编码选择导出函数。
func (s *Synthesizer) call(enc Encoding, koe encodedPhonemes, speed int32, size *int32) unsafe.Pointer {
	var wav unsafe.Pointer
	switch enc {
	case EncodingUTF16:
		wav = s.lib.syntheUtf16(&koe.wide[0], speed, size)
	case EncodingShiftJIS:
		wav = s.lib.synthe(&koe.narrow[0], speed, size)
	default:
		wav = s.lib.syntheUtf8(&koe.narrow[0], speed, size)
	}
	runtime.KeepAlive(koe)
	return wav
}

// collect 把引擎缓冲区复制到 Go 内存。只要 wav 非空，无论成功与否都会释放。
func (s *Synthesizer) collect(wav unsafe.Pointer, size int32) (*Audio, error) {
	code := int(size)
	if code == 0 {
		code = -1
	}

	if wav == nil {
		// 出错时引擎把错误码写入 pSize
		return nil, newError(code)
	}
	defer s.lib.freeWave(wav)

	if size <= 0 {
		return nil, newError(code)
	}

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(wav), int(size)))
	return newAudio(data, SampleRate, BitsPerSample, Channels), nil
}

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// NormalizePhonemes 去掉换行和开头的 BOM，结果与实际送入引擎的记号列一致。
func NormalizePhonemes(phonemes string) string {
	return strings.TrimPrefix(lineBreaks.Replace(phonemes), string(bom))
}

// preparePhonemes 规范化并校验记号列。
func preparePhonemes(phonemes string) (string, error) {
	koe := NormalizePhonemes(phonemes)
	if koe == "" {
		return "", ErrEmptyPhonemes
	}
	if strings.IndexByte(koe, 0) >= 0 {
		return "", fmt.Errorf("%w: 含有 NUL 字符", ErrInvalidPhonemes)
	}
	return koe, nil
}

// IsCode 判断 err 是否为指定错误码的合成错误。
func IsCode(err error, code int) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
