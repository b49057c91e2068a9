// Package driver 串联编译流水线：词法分析、语法分析、语义分析、优化和 IR 生成
package driver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/config"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/i18n"
	"github.com/tangzhangming/sub/internal/ir"
	"github.com/tangzhangming/sub/internal/lexer"
	"github.com/tangzhangming/sub/internal/optimizer"
	"github.com/tangzhangming/sub/internal/parser"
	"github.com/tangzhangming/sub/internal/semantic"
	"github.com/tangzhangming/sub/internal/token"
)

// ============================================================================
// 阶段
// ============================================================================

// Stage 编译阶段
type Stage int

const (
	StageNone Stage = iota
	StageLex
	StageParse
	StageAnalyze
	StageOptimize
	StageLower
)

var stageNames = [...]string{
	StageNone:     "none",
	StageLex:      "lex",
	StageParse:    "parse",
	StageAnalyze:  "analyze",
	StageOptimize: "optimize",
	StageLower:    "lower",
}

func (s Stage) String() string {
	if int(s) >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ============================================================================
// 编译单元与结果
// ============================================================================

// Unit 一个编译单元
type Unit struct {
	Name   string // 文件名，用于诊断
	Source string
}

// Result 一次编译的产物。Stage 是最后完成的阶段
type Result struct {
	Unit        string
	Tokens      []token.Token
	Program     *ast.Program
	Analysis    *semantic.Result
	Module      *ir.Module
	Diagnostics errors.List
	Stage       Stage
	Optimizer   optimizer.Stats
}

// HasErrors 是否有错误级诊断
func (r *Result) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Err 把错误级诊断合并为一个 error，没有错误时为 nil
func (r *Result) Err() error {
	err := r.Diagnostics.Err()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", i18n.T(i18n.ErrStageFailed, r.Unit, r.Diagnostics.ErrorCount()), err)
}

// ============================================================================
// 驱动器
// ============================================================================

// Driver 编译驱动器。Driver 本身不保存编译状态，可以被多个 goroutine 同时使用
type Driver struct {
	optLevel  int
	strict    bool
	maxInline int
	logger    *zap.Logger
}

// Option 驱动器选项
type Option func(*Driver)

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOptLevel 覆盖配置中的优化级别
func WithOptLevel(level int) Option {
	return func(d *Driver) {
		d.optLevel = level
	}
}

// WithStrict 覆盖配置中的严格模式
func WithStrict(strict bool) Option {
	return func(d *Driver) {
		d.strict = strict
	}
}

// New 创建驱动器，cfg 为 nil 时使用默认配置
func New(cfg *config.Config, opts ...Option) *Driver {
	if cfg == nil {
		cfg = config.Default(".")
	}
	d := &Driver{
		optLevel:  cfg.Build.OptLevel,
		strict:    cfg.Build.Strict,
		maxInline: cfg.Build.MaxInlineStatements,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OptLevel 返回优化级别
func (d *Driver) OptLevel() int {
	return d.optLevel
}

// Compile 编译一个源文件单元
//
// 返回的 error 只表示致命情况（上下文取消、空输入），
// 源代码中的问题都记录在 Result.Diagnostics 中。
func (d *Driver) Compile(ctx context.Context, unit Unit) (*Result, error) {
	res := &Result{Unit: unit.Name}

	start := time.Now()
	tokens, lexErrs := lexer.Tokenize(unit.Source, unit.Name)
	for _, le := range lexErrs {
		res.Diagnostics.Add(le.Diagnostic())
	}
	res.Tokens = tokens
	d.finish(res, StageLex, start)

	return d.compileTokens(ctx, res)
}

// CompileTokens 从 token 流开始编译
func (d *Driver) CompileTokens(ctx context.Context, name string, tokens []token.Token) (*Result, error) {
	res := &Result{Unit: name, Tokens: tokens}
	return d.compileTokens(ctx, res)
}

// Check 只执行到语义分析，供编辑器使用
func (d *Driver) Check(ctx context.Context, unit Unit) (*Result, error) {
	check := *d
	check.strict = true
	check.optLevel = -1
	return check.Compile(ctx, unit)
}

func (d *Driver) compileTokens(ctx context.Context, res *Result) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return res, err
	}

	// 语法分析
	start := time.Now()
	prog, diags, err := parser.Parse(res.Tokens)
	if err != nil {
		return res, err
	}
	res.Program = prog
	res.Diagnostics.Append(diags)
	d.finish(res, StageParse, start)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// 语义分析
	start = time.Now()
	analysis, err := semantic.Analyze(prog)
	if err != nil {
		return res, err
	}
	res.Analysis = analysis
	res.Diagnostics.Append(analysis.Diagnostics())
	d.finish(res, StageAnalyze, start)

	if d.optLevel < 0 || d.stopStrict(res) {
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// 优化
	start = time.Now()
	opt := optimizer.New(d.optLevel, optimizer.WithMaxInlineStatements(d.maxInline))
	_, optDiags := opt.Run(prog)
	res.Diagnostics.Append(optDiags)
	res.Optimizer = opt.Stats()
	d.finish(res, StageOptimize, start)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	// 优化阶段也可能报告错误，例如除数为常量零
	if d.stopStrict(res) {
		return res, nil
	}

	// IR 生成
	start = time.Now()
	module, err := ir.Lower(prog)
	if err != nil {
		return res, err
	}
	res.Module = module
	d.finish(res, StageLower, start)

	return res, nil
}

// stopStrict 严格模式下已有错误时不再继续
func (d *Driver) stopStrict(res *Result) bool {
	if !d.strict || !res.HasErrors() {
		return false
	}
	d.logger.Debug("strict mode: skipping lowering",
		zap.String("unit", res.Unit),
		zap.Stringer("after", res.Stage),
		zap.Int("errors", res.Diagnostics.ErrorCount()))
	return true
}

func (d *Driver) finish(res *Result, stage Stage, start time.Time) {
	res.Stage = stage
	d.logger.Debug("stage finished",
		zap.String("unit", res.Unit),
		zap.Stringer("stage", stage),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("diagnostics", len(res.Diagnostics)))
}

// CompileAll 并发编译互不依赖的单元，结果与输入顺序一致。
// 任一单元出现致命错误时取消其余单元。
func (d *Driver) CompileAll(ctx context.Context, units []Unit) ([]*Result, error) {
	results := make([]*Result, len(units))
	g, ctx := errgroup.WithContext(ctx)

	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			res, err := d.Compile(ctx, unit)
			results[i] = res
			if err != nil {
				return fmt.Errorf("%s: %w", unit.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	d.logger.Info("batch compiled",
		zap.Int("units", len(units)),
		zap.Int("failed", countFailed(results)),
		zap.Error(err))
	return results, err
}

func countFailed(results []*Result) int {
	n := 0
	for _, r := range results {
		if r == nil || r.HasErrors() {
			n++
		}
	}
	return n
}
