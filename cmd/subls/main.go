package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tangzhangming/sub/internal/config"
	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/lsp"
)

func main() {
	showVersion := flag.Bool("version", false, "显示版本信息")
	showHelp := flag.Bool("help", false, "显示帮助信息")
	logFile := flag.String("log", "", "日志文件路径（默认不记录日志）")

	flag.Parse()

	if *showVersion {
		fmt.Printf("SUB Language Server v%s\n", lsp.ServerVersion)
		os.Exit(0)
	}

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if err := run(*logFile); err != nil {
		fmt.Fprintf(os.Stderr, "LSP server error: %v\n", err)
		os.Exit(1)
	}
}

func run(logFile string) error {
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 从当前目录向上查找 sub.toml，找不到时使用默认配置
	cfg, err := config.LoadOrDefault(".")
	if err != nil {
		logger.Warn("config not loaded, using defaults", zap.Error(err))
		cfg = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := lsp.NewServer(driver.New(cfg, driver.WithLogger(logger)), logger)
	if err := server.Serve(ctx, stdio{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// newLogger 日志写入文件；stdout 用于协议通信，不能输出日志
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// stdio 把标准输入输出组合成一个连接
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdio) Close() error {
	return multierr.Append(os.Stdin.Close(), os.Stdout.Close())
}

func printUsage() {
	fmt.Println("SUB Language Server - LSP 服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  subls [options]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  --version    显示版本信息")
	fmt.Println("  --help       显示帮助信息")
	fmt.Println("  --log <file> 日志文件路径")
	fmt.Println()
	fmt.Println("LSP 服务器通过标准输入输出 (stdio) 与编辑器通信。")
	fmt.Println("提供诊断、悬停和文档大纲。")
}
