package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// collectPhonemes 返回待合成的句子。命令行参数合为一句，-f 文件每行一句。
func collectPhonemes(opts *options) ([]string, error) {
	var lines []string
	if opts.inputFile != "" {
		var r io.Reader = os.Stdin
		if opts.inputFile != "-" {
			f, err := os.Open(opts.inputFile)
			if err != nil {
				return nil, fmt.Errorf("打开输入文件失败: %w", err)
			}
			defer f.Close()
			r = f
		}
		read, err := readLines(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, read...)
	}
	if len(opts.phonemes) > 0 {
		lines = append(lines, strings.Join(opts.phonemes, " "))
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("没有输入的音声记号列")
	}
	return lines, nil
}

// readLines 读取非空行，并去掉行尾空白。
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取输入失败: %w", err)
	}
	return lines, nil
}

// outputPath 计算第 i 句的输出路径。
// 单句时直接使用 out；多句时 out 含 %d 则作为模板，否则视为目录。
func outputPath(out string, i, total int) string {
	if total <= 1 {
		return out
	}
	if strings.Contains(out, "%d") {
		return fmt.Sprintf(out, i+1)
	}
	return filepath.Join(out, fmt.Sprintf("%03d.wav", i+1))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
