package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/tangzhangming/sub/internal/formatter"
)

// cmdFmt 格式化源文件，返回退出码
func cmdFmt(args []string) int {
	m := Msg()
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	write := fs.Bool("w", false, m.OptWrite)
	list := fs.Bool("l", false, m.OptList)

	fs.Usage = func() {
		fmt.Println(m.HelpUsage + " subc fmt [options] <files>")
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

	opts := formatter.FromConfig(cfg.Format)
	code := 0
	for _, file := range files {
		source, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, m.ErrReadFile+"\n", err)
			code = 1
			continue
		}

		formatted, err := formatter.Format(string(source), file, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, m.ErrFormat+"\n", file, err)
			code = 1
			continue
		}
		changed := formatted != string(source)
		logger.Debug("formatted", zap.String("file", file), zap.Bool("changed", changed))

		if *list && changed {
			fmt.Println(file)
		}
		if *write {
			if changed {
				if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
					fmt.Fprintf(os.Stderr, m.ErrWriteFile+"\n", err)
					code = 1
				}
			}
			continue
		}
		if !*list {
			fmt.Print(formatted)
		}
	}
	return code
}
