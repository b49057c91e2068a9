package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/errors"
)

// builder 编译一组文件并输出结果
type builder struct {
	driver *driver.Driver
	flags  *buildFlags
	out    io.Writer
	errOut io.Writer
	logger *zap.Logger
	check  bool // 只检查，不生成 IR
}

func (b *builder) formatter() *errors.Formatter {
	if b.flags.noColor || os.Getenv("NO_COLOR") != "" {
		return errors.NewPlainFormatter()
	}
	return errors.NewFormatter()
}

// build 编译所有文件，返回退出码
func (b *builder) build(ctx context.Context, files []string) int {
	m := Msg()

	units := make([]driver.Unit, 0, len(files))
	for _, f := range files {
		source, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(b.errOut, m.ErrReadFile+"\n", err)
			return 1
		}
		units = append(units, driver.Unit{Name: f, Source: string(source)})
	}

	results, err := b.compile(ctx, units)
	if err != nil {
		fmt.Fprintf(b.errOut, m.ErrCompile+"\n", err)
		return 1
	}

	reporter := errors.NewReporter(b.formatter())
	for i, res := range results {
		reporter.SetSource(units[i].Name, units[i].Source)
		reporter.Report(res.Diagnostics)
		if err := b.print(res, len(results) > 1); err != nil {
			fmt.Fprintf(b.errOut, m.ErrJSON+"\n", err)
			return 1
		}
	}
	if _, err := reporter.WriteTo(b.errOut); err != nil {
		b.logger.Warn("writing diagnostics", zap.Error(err))
	}
	if reporter.HasErrors() {
		return 1
	}

	for _, res := range results {
		if b.check {
			fmt.Fprintf(b.errOut, m.SuccessCheckOK+"\n", res.Unit)
		} else if res.Module != nil {
			fmt.Fprintf(b.errOut, m.SuccessBuilt+"\n", res.Unit, len(res.Module.Functions))
		}
	}
	return 0
}

func (b *builder) compile(ctx context.Context, units []driver.Unit) ([]*driver.Result, error) {
	if !b.check {
		return b.driver.CompileAll(ctx, units)
	}
	results := make([]*driver.Result, 0, len(units))
	for _, u := range units {
		res, err := b.driver.Check(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// print 按选项输出各阶段的结果
func (b *builder) print(res *driver.Result, header bool) error {
	f := b.flags
	if !f.showTokens && !f.showAST && !f.showIR && !f.showJSON {
		return nil
	}
	if header {
		fmt.Fprintf(b.out, "==> %s <==\n", res.Unit)
	}

	if f.showTokens {
		fmt.Fprintln(b.out, "=== Tokens ===")
		for _, tok := range res.Tokens {
			fmt.Fprintf(b.out, "  %s\n", tok)
		}
		fmt.Fprintln(b.out)
	}

	if f.showAST && res.Program != nil {
		fmt.Fprintln(b.out, "=== AST ===")
		fmt.Fprintln(b.out, ast.Sexpr(res.Program))
		fmt.Fprintln(b.out)
	}

	if res.Module == nil {
		return nil
	}
	if f.showIR {
		fmt.Fprint(b.out, res.Module.Dump())
	}
	if f.showJSON {
		data, err := res.Module.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(b.out, string(data))
	}
	return nil
}
