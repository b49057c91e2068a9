package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/sub/internal/config"
	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/i18n"
)

const (
	Version = "0.1.0"
)

// 全局语言参数
var globalLang string

func main() {
	// 预扫描全局参数 --lang 或 -lang
	args := preprocessArgs(os.Args[1:])
	InitLanguage(globalLang)

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]

	switch command {
	case "build":
		os.Exit(cmdBuild(args[1:]))
	case "check":
		os.Exit(cmdCheck(args[1:]))
	case "init":
		cmdInit(args[1:])
	case "fmt":
		os.Exit(cmdFmt(args[1:]))
	case "repl":
		os.Exit(cmdRepl(args[1:]))
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		// 直接给出文件时按 build 处理
		if !isFlag(args[0]) {
			os.Exit(cmdBuild(args))
		}
		fmt.Fprintf(os.Stderr, Msg().ErrUnknownCmd+"\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// preprocessArgs 预处理参数，提取全局 --lang 参数
func preprocessArgs(args []string) []string {
	var result []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--lang" || arg == "-lang" {
			if i+1 < len(args) {
				globalLang = args[i+1]
				i++
				continue
			}
		} else if strings.HasPrefix(arg, "--lang=") {
			globalLang = strings.TrimPrefix(arg, "--lang=")
			continue
		} else if strings.HasPrefix(arg, "-lang=") {
			globalLang = strings.TrimPrefix(arg, "-lang=")
			continue
		}
		result = append(result, arg)
	}
	return result
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func printUsage() {
	m := Msg()
	fmt.Printf(m.VersionTitle+"\n\n", Version)
	fmt.Println(m.HelpUsage)
	fmt.Println("  subc [--lang en|zh] <command> [options] [files]")
	fmt.Println()
	fmt.Println(m.HelpCommands)
	fmt.Printf("  build <files>   %s\n", m.CmdBuild)
	fmt.Printf("  check <files>   %s\n", m.CmdCheck)
	fmt.Printf("  init            %s\n", m.CmdInit)
	fmt.Printf("  fmt <files>     %s\n", m.CmdFmt)
	fmt.Printf("  repl            %s\n", m.CmdRepl)
	fmt.Printf("  version         %s\n", m.CmdVersion)
	fmt.Printf("  help            %s\n", m.CmdHelp)
	fmt.Println()
	fmt.Println(m.HelpOptions)
	fmt.Printf("  -tokens         %s\n", m.OptTokens)
	fmt.Printf("  -ast            %s\n", m.OptAST)
	fmt.Printf("  -ir             %s\n", m.OptIR)
	fmt.Printf("  -json           %s\n", m.OptJSON)
	fmt.Printf("  -O <n>          %s\n", m.OptOpt)
	fmt.Printf("  -config <file>  %s\n", m.OptConfig)
	fmt.Printf("  -lenient        %s\n", m.OptLenient)
	fmt.Printf("  -watch          %s\n", m.OptWatch)
	fmt.Printf("  -v              %s\n", m.OptVerbose)
	fmt.Printf("  --lang <en|zh>  %s\n", m.OptLang)
	fmt.Println()
	fmt.Println(m.HelpExamples)
	fmt.Println("  subc build -ir main.sub")
	fmt.Println("  subc build -O 3 -ast main.sub")
	fmt.Println("  subc check a.sub b.sub")
	fmt.Println("  subc fmt -w main.sub")
	fmt.Println("  subc --lang zh help")
}

// ============================================================================
// 公共选项
// ============================================================================

// commonFlags build 和 check 共用的选项
type commonFlags struct {
	configPath string
	verbose    bool
	noColor    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	m := Msg()
	fs.StringVar(&c.configPath, "config", "", m.OptConfig)
	fs.BoolVar(&c.verbose, "v", false, m.OptVerbose)
	fs.BoolVar(&c.noColor, "no-color", false, m.OptNoColor)
}

// loadConfig 加载 -config 指定的配置，否则从第一个输入文件向上查找
func (c *commonFlags) loadConfig(files []string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case c.configPath != "":
		cfg, err = config.Load(c.configPath)
	case len(files) > 0:
		cfg, err = config.LoadOrDefault(files[0])
	default:
		cfg, err = config.LoadOrDefault(".")
	}
	if err != nil {
		return nil, err
	}

	// 没有显式指定语言时使用配置中的诊断语言
	if globalLang == "" && os.Getenv("SUB_LANG") == "" {
		setLanguage(cfg.Build.Language)
	}
	return cfg, nil
}

func (c *commonFlags) logger(cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	if c.verbose {
		logCfg.Level = zapcore.DebugLevel.String()
	}
	return logCfg.NewLogger(c.verbose)
}

// inputFiles 返回命令行给出的文件，没有时使用配置的入口文件
func inputFiles(fs *flag.FlagSet, cfg *config.Config) []string {
	if fs.NArg() > 0 {
		return fs.Args()
	}
	if entry := cfg.EntryPath(); entry != "" {
		if _, err := os.Stat(entry); err == nil {
			return []string{entry}
		}
	}
	return nil
}

// signalContext 返回在 Ctrl+C 时取消的上下文
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ============================================================================
// build
// ============================================================================

// buildFlags build 命令的选项
type buildFlags struct {
	commonFlags
	showTokens bool
	showAST    bool
	showIR     bool
	showJSON   bool
	optLevel   int
	lenient    bool
	watch      bool
}

// cmdBuild 编译源文件，返回退出码
func cmdBuild(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var bf buildFlags
	bf.register(fs)
	fs.BoolVar(&bf.showTokens, "tokens", false, m.OptTokens)
	fs.BoolVar(&bf.showAST, "ast", false, m.OptAST)
	fs.BoolVar(&bf.showIR, "ir", false, m.OptIR)
	fs.BoolVar(&bf.showJSON, "json", false, m.OptJSON)
	fs.IntVar(&bf.optLevel, "O", -1, m.OptOpt)
	fs.BoolVar(&bf.lenient, "lenient", false, m.OptLenient)
	fs.BoolVar(&bf.watch, "watch", false, m.OptWatch)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " subc build [options] <files>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := bf.loadConfig(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrConfig+"\n", err)
		return 1
	}

	files := inputFiles(fs, cfg)
	if len(files) == 0 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, m.ErrNoInput)
		return 1
	}

	logger, err := bf.logger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrLogger+"\n", err)
		return 1
	}
	defer logger.Sync()

	opts := []driver.Option{driver.WithLogger(logger)}
	if bf.optLevel >= 0 {
		opts = append(opts, driver.WithOptLevel(bf.optLevel))
	}
	if bf.lenient {
		opts = append(opts, driver.WithStrict(false))
	}
	d := driver.New(cfg, opts...)
	logger.Debug("configuration loaded",
		zap.String("project", cfg.Project.Name),
		zap.Int("opt_level", d.OptLevel()),
		zap.String("language", string(i18n.GetLanguage())))

	ctx, stop := signalContext()
	defer stop()

	b := &builder{
		driver: d,
		flags:  &bf,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: logger,
	}

	code := b.build(ctx, files)
	if bf.watch {
		if err := b.watch(ctx, files); err != nil {
			fmt.Fprintf(os.Stderr, m.ErrWatch+"\n", err)
			return 1
		}
		return 0
	}
	return code
}

// ============================================================================
// check
// ============================================================================

// cmdCheck 检查源文件，返回退出码
func cmdCheck(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " subc check [options] <files>")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := cf.loadConfig(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrConfig+"\n", err)
		return 1
	}

	files := inputFiles(fs, cfg)
	if len(files) == 0 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, m.ErrNoInput)
		return 1
	}

	logger, err := cf.logger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrLogger+"\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	b := &builder{
		driver: driver.New(cfg, driver.WithLogger(logger)),
		flags:  &buildFlags{commonFlags: cf},
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: logger,
		check:  true,
	}
	return b.build(ctx, files)
}

// cmdVersion 显示版本信息
func cmdVersion() {
	m := Msg()
	fmt.Printf(m.VersionTitle+"\n", Version)
	fmt.Println(m.VersionDesc)
}
