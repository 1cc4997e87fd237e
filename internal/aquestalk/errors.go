package aquestalk

import (
	"errors"
	"fmt"
)

var (
	// ErrLibraryNotFound 表示所有候选路径都无法加载引擎动态库。
	ErrLibraryNotFound = errors.New("[aquestalk] 无法加载引擎库")
	// ErrSymbolNotFound 表示动态库缺少必需的导出函数。
	ErrSymbolNotFound = errors.New("[aquestalk] 引擎库缺少导出函数")
	// ErrNotInitialized 表示合成器未初始化或已关闭。
	ErrNotInitialized = errors.New("[aquestalk] 合成器未初始化")
	// ErrUnsupportedEncoding 表示不支持的音声记号列编码。
	ErrUnsupportedEncoding = errors.New("[aquestalk] 不支持的编码")
	// ErrEmptyPhonemes 表示音声记号列为空。
	ErrEmptyPhonemes = errors.New("[aquestalk] 音声记号列不能为空")
	// ErrInvalidPhonemes 表示音声记号列无法传给引擎（含 NUL、非法 UTF-8 等）。
	ErrInvalidPhonemes = errors.New("[aquestalk] 音声记号列无效")
	// ErrKeyRejected 表示引擎拒绝了许可证密钥。
	ErrKeyRejected = errors.New("[aquestalk] 许可证密钥被拒绝")
	// ErrSynthesis 是所有 *Error 的公共底层错误，可用 errors.Is 判断。
	ErrSynthesis = errors.New("[aquestalk] 合成失败")
)

// Error 表示引擎返回的合成错误，Code 为引擎写入 pSize 的错误码。
type Error struct {
	Code    int
	Message string
}

func newError(code int) *Error {
	return &Error{Code: code, Message: DescribeCode(code)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("[aquestalk] 合成失败: %s (code=%d)", e.Message, e.Code)
}

// Unwrap 使 errors.Is(err, ErrSynthesis) 成立。
func (e *Error) Unwrap() error {
	return ErrSynthesis
}

// DescribeCode 返回引擎错误码的说明。
func DescribeCode(code int) string {
	switch {
	case code == 100:
		return "其他错误"
	case code == 101:
		return "内存不足"
	case code == 103:
		return "音声记号列指定错误（词首长音、促音连续等）"
	case code == 104:
		return "音声记号列中没有有效的读音"
	case code == 105:
		return "音声记号列中含有未定义的读音记号"
	case code >= 106 && code <= 108:
		return "音声记号列的标签指定不正确"
	case code >= 200 && code <= 204:
		return "音声记号列过长"
	case code >= 900 && code <= 999:
		return "Profile 指定错误"
	case code < 0:
		return "引擎未返回音频数据"
	default:
		return "音声记号列可能不正确"
	}
}
