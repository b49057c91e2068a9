package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/repl"
)

// cmdRepl 启动交互式会话，返回退出码
func cmdRepl(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	optLevel := fs.Int("O", -1, m.OptOpt)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " subc repl [options]")
		fmt.Println()
		fmt.Println(m.HelpOptions)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := cf.loadConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrConfig+"\n", err)
		return 1
	}

	logger, err := cf.logger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrLogger+"\n", err)
		return 1
	}
	defer logger.Sync()

	opts := []driver.Option{driver.WithLogger(logger)}
	if *optLevel >= 0 {
		opts = append(opts, driver.WithOptLevel(*optLevel))
	}

	config := repl.DefaultConfig()
	config.NoColor = cf.noColor || os.Getenv("NO_COLOR") != ""
	r := repl.New(driver.New(cfg, opts...), os.Stdin, os.Stdout, config)
	if err := r.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
