package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iabetor/aquestalk/internal/aquestalk"
)

// Config 是顶层配置结构。
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Player PlayerConfig `yaml:"player"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig AquesTalk 引擎配置。
type EngineConfig struct {
	LibPath    string   `yaml:"lib_path"`
	SearchDirs []string `yaml:"search_dirs"`
	DevKey     string   `yaml:"dev_key"`
	UsrKey     string   `yaml:"usr_key"`
	Encoding   string   `yaml:"encoding"`
	Speed      int      `yaml:"speed"`
}

// PlayerConfig 播放配置。
type PlayerConfig struct {
	// Backend 可选 auto、malgo、oto、command。
	Backend string `yaml:"backend"`
	// Command 外部播放命令，为空时按平台自动选择。
	Command string `yaml:"command"`
}

// CacheConfig 合成结果缓存配置。
type CacheConfig struct {
	Path      string `yaml:"path"`
	MaxSizeMB int64  `yaml:"max_size_mb"` // 0 表示禁用
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

var playerBackends = map[string]bool{
	"auto":    true,
	"malgo":   true,
	"oto":     true,
	"command": true,
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${AQUESTALK_DEV_KEY}
	expanded := os.Expand(string(data), os.Getenv)

	cfg := newConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// Default 返回全部使用默认值的配置。
func Default() *Config {
	cfg := newConfig()
	setDefaults(cfg)
	return cfg
}

// newConfig 预置无法用零值区分的默认项。
// speed: 0 是合法输入（截断为最低语速），因此默认语速在解析前写入，
// 只有文件中缺少该键时才保留。
func newConfig() *Config {
	return &Config{Engine: EngineConfig{Speed: aquestalk.DefaultSpeed}}
}

// Validate 检查取值是否合法。
func (c *Config) Validate() error {
	if _, err := aquestalk.ParseEncoding(c.Engine.Encoding); err != nil {
		return err
	}
	if !playerBackends[c.Player.Backend] {
		return fmt.Errorf("不支持的播放后端: %s", c.Player.Backend)
	}
	if c.Cache.MaxSizeMB < 0 {
		return fmt.Errorf("cache.max_size_mb 不能为负数: %d", c.Cache.MaxSizeMB)
	}
	return nil
}

// EngineOptions 转换为引擎加载参数。
func (c *Config) EngineOptions() aquestalk.Options {
	return aquestalk.Options{
		LibPath:    c.Engine.LibPath,
		SearchDirs: c.Engine.SearchDirs,
		DevKey:     c.Engine.DevKey,
		UsrKey:     c.Engine.UsrKey,
	}
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Engine.Encoding == "" {
		cfg.Engine.Encoding = "utf-8"
	}
	if cfg.Player.Backend == "" {
		cfg.Player.Backend = "auto"
	}
	cfg.Player.Backend = strings.ToLower(cfg.Player.Backend)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Cache.Path == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.Cache.Path = filepath.Join(home, ".aquestalk", "cache.db")
		} else {
			cfg.Cache.Path = "./.aquestalk-cache.db"
		}
	}
	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	cfg.Engine.LibPath = expandHome(cfg.Engine.LibPath)
	cfg.Log.File = expandHome(cfg.Log.File)
	for i, dir := range cfg.Engine.SearchDirs {
		cfg.Engine.SearchDirs[i] = expandHome(dir)
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.Engine.DevKey = strings.TrimSpace(cfg.Engine.DevKey)
	cfg.Engine.UsrKey = strings.TrimSpace(cfg.Engine.UsrKey)
}

// expandHome 展开 ~/ 前缀，Go 不会自动处理。
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return path
	}
	return filepath.Join(home, path[2:])
}
