package aquestalk

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// 引擎导出函数名，见 AquesTalk.h。
const (
	symSynthe      = "AquesTalk_Synthe"
	symSyntheUtf8  = "AquesTalk_Synthe_Utf8"
	symSyntheUtf16 = "AquesTalk_Synthe_Utf16"
	symFreeWave    = "AquesTalk_FreeWave"
	symSetDevKey   = "AquesTalk_SetDevKey"
	symSetUsrKey   = "AquesTalk_SetUsrKey"
)

// nativeLib 是已解析的引擎函数表。
// 合成函数返回引擎分配的 WAV 缓冲区，必须用 freeWave 释放。
type nativeLib struct {
	synthe      func(koe *byte, speed int32, size *int32) unsafe.Pointer
	syntheUtf8  func(koe *byte, speed int32, size *int32) unsafe.Pointer
	syntheUtf16 func(koe *uint16, speed int32, size *int32) unsafe.Pointer
	freeWave    func(wav unsafe.Pointer)
	setDevKey   func(key string) int32
	setUsrKey   func(key string) int32
	close       func() error
}

// loadLibrary 可在测试中替换。
var loadLibrary = openNativeLib

// openNativeLib 加载动态库并绑定全部导出函数，任一函数缺失则卸载并返回错误。
func openNativeLib(path string) (*nativeLib, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, err
	}

	lib := &nativeLib{close: func() error { return closeLibrary(handle) }}
	bindings := []struct {
		name string
		fptr any
	}{
		{symSynthe, &lib.synthe},
		{symSyntheUtf8, &lib.syntheUtf8},
		{symSyntheUtf16, &lib.syntheUtf16},
		{symFreeWave, &lib.freeWave},
		{symSetDevKey, &lib.setDevKey},
		{symSetUsrKey, &lib.setUsrKey},
	}
	for _, b := range bindings {
		addr, err := lookupSymbol(handle, b.name)
		if err != nil || addr == 0 {
			closeLibrary(handle)
			return nil, fmt.Errorf("%w: %s (%s)", ErrSymbolNotFound, b.name, path)
		}
		purego.RegisterFunc(b.fptr, addr)
	}
	return lib, nil
}

// libraryNames 返回各平台的候选库文件名。
func libraryNames(goos string) []string {
	switch goos {
	case "windows":
		return []string{"AquesTalk.dll", "AquesTalk1.dll"}
	case "darwin":
		return []string{"libAquesTalk.dylib", "libAquesTalk1.dylib"}
	default:
		return []string{"libAquesTalk.so", "libAquesTalk1.so"}
	}
}

// candidatePaths 生成加载顺序：显式路径优先，否则依次为
// 裸文件名（交给系统加载器搜索）、SearchDirs、可执行文件目录及其 lib 子目录。
func candidatePaths(opts Options) []string {
	if opts.LibPath != "" {
		return []string{opts.LibPath}
	}

	dirs := append([]string{}, opts.SearchDirs...)
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs, exeDir, filepath.Join(exeDir, "lib"))
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, name := range libraryNames(runtime.GOOS) {
		add(name)
		for _, dir := range dirs {
			if dir != "" {
				add(filepath.Join(dir, name))
			}
		}
	}
	return paths
}
