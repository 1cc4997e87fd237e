package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/aquestalk/internal/aquestalk"
	"github.com/iabetor/aquestalk/internal/audio"
	"github.com/iabetor/aquestalk/internal/cache"
	"github.com/iabetor/aquestalk/internal/config"
	"github.com/iabetor/aquestalk/internal/logger"
	"github.com/iabetor/aquestalk/internal/tts"
)

const defaultConfigPath = "configs/aquestalk.yaml"

type options struct {
	configPath string
	libPath    string
	encoding   string
	speed      int
	output     string
	inputFile  string
	play       bool
	info       bool
	logLevel   string
	phonemes   []string
	set        map[string]bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 收到信号时中断播放
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在停止...", sig)
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		logger.Sync()
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		}
		os.Exit(1)
	}
	logger.Sync()
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("aquestalk", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "配置文件路径（默认 "+defaultConfigPath+"，不存在时使用内置默认值）")
	fs.StringVar(&opts.libPath, "lib", "", "AquesTalk 动态库路径")
	fs.StringVar(&opts.encoding, "encoding", "", "音声记号列编码: utf-8, utf-16, sjis")
	fs.IntVar(&opts.speed, "speed", 0, fmt.Sprintf("语速 %d-%d", aquestalk.MinSpeed, aquestalk.MaxSpeed))
	fs.StringVar(&opts.output, "o", "", "输出 WAV 路径；多行输入时为目录或含 %d 的模板")
	fs.StringVar(&opts.inputFile, "f", "", "从文件读取音声记号列，每行一句，- 表示标准输入")
	fs.BoolVar(&opts.play, "play", false, "合成后播放")
	fs.BoolVar(&opts.info, "info", false, "打印音频信息")
	fs.StringVar(&opts.logLevel, "log-level", "", "日志级别: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "用法: aquestalk [flags] <音声记号列...>\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.phonemes = fs.Args()
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig 读取配置文件，命令行参数优先。
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case opts.configPath != "":
		c, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	case fileExists(defaultConfigPath):
		c, err := config.Load(defaultConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	default:
		cfg = config.Default()
	}

	if opts.set["lib"] {
		cfg.Engine.LibPath = opts.libPath
	}
	if opts.set["encoding"] {
		cfg.Engine.Encoding = opts.encoding
	}
	if opts.set["speed"] {
		cfg.Engine.Speed = opts.speed
	}
	if opts.set["log-level"] {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		return err
	}

	lines, err := collectPhonemes(opts)
	if err != nil {
		return err
	}
	if opts.output == "" && !opts.play && !opts.info && len(lines) > 1 {
		return fmt.Errorf("多行输入时需要指定 -o、-play 或 -info")
	}

	enc, err := aquestalk.ParseEncoding(cfg.Engine.Encoding)
	if err != nil {
		return err
	}

	synth, err := aquestalk.New(cfg.EngineOptions())
	if err != nil {
		return err
	}
	defer synth.Close()
	logger.Debugf("[main] 已加载引擎: %s", synth.Path())

	c, err := cache.Open(cfg.Cache.Path, cfg.Cache.MaxSizeMB)
	if err != nil {
		logger.Warnf("[main] 打开缓存失败，将不使用缓存: %v", err)
		c = nil
	}
	defer c.Close()

	engine := tts.NewAquesTalkEngine(synth, tts.AquesTalkConfig{
		Encoding: enc,
		Speed:    cfg.Engine.Speed,
		Cache:    c,
	})

	var player audio.Player
	if opts.play {
		player, err = audio.NewPlayer(cfg.Player.Backend, cfg.Player.Command)
		if err != nil {
			return err
		}
		defer player.Close()
	}

	for i, line := range lines {
		a, err := engine.SynthesizeWAV(ctx, line)
		if err != nil {
			return fmt.Errorf("第 %d 行: %w", i+1, err)
		}

		if opts.info {
			fmt.Fprintf(os.Stderr, "[%d] %s\n", i+1, audio.Info(a))
		}

		switch {
		case opts.output != "":
			path := outputPath(opts.output, i, len(lines))
			if err := a.Save(path); err != nil {
				return err
			}
			logger.Infof("[main] 已保存: %s (%.2fs)", path, a.Duration().Seconds())
		case !opts.play && !opts.info:
			if _, err := a.WriteTo(os.Stdout); err != nil {
				return fmt.Errorf("写入标准输出失败: %w", err)
			}
		}

		if player != nil {
			if err := audio.PlayAudio(ctx, player, a); err != nil {
				return err
			}
		}
	}
	return nil
}
