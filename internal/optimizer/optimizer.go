package optimizer

import (
	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/token"
)

// ============================================================================
// 优化 Pass
// ============================================================================

// Pass 优化 Pass。Run 原地修改语法树，返回是否有修改
type Pass struct {
	Name     string
	MinLevel int // 优化级别不低于 MinLevel 时启用
	Run      func(prog *ast.Program, ctx *Context) bool
}

// Context 一次优化过程共享的状态
type Context struct {
	// MaxInlineStatements 可内联函数体的最大语句数
	MaxInlineStatements int

	diagnostics errors.List
	reported    map[diagKey]bool
	inlineSeq   int
	inline      InlineStats
}

type diagKey struct {
	code string
	pos  token.Position
}

// Report 记录诊断，同一位置的同一错误码只记录一次
func (c *Context) Report(d errors.Diagnostic) {
	key := diagKey{d.Code, d.Pos}
	if c.reported[key] {
		return
	}
	if c.reported == nil {
		c.reported = make(map[diagKey]bool)
	}
	c.reported[key] = true
	c.diagnostics.Add(d)
}

// Diagnostics 返回已记录的诊断
func (c *Context) Diagnostics() errors.List {
	return c.diagnostics
}

// ============================================================================
// 优化器 (Pass 管理器)
// ============================================================================

// DefaultMaxInlineStatements 默认可内联的函数体大小
const DefaultMaxInlineStatements = 8

// Optimizer 按优化级别选择 Pass 并顺序执行
//
// 每个 Pass 接收前一个 Pass 变换后的语法树，Pass 之间不会互相重跑。
type Optimizer struct {
	level  int
	passes []Pass
	ctx    *Context
	stats  Stats
}

// Stats 统计信息
type Stats struct {
	PassesRun      int
	TotalChanges   int
	PerPassChanges map[string]int
	Inline         InlineStats
}

// Option 优化器选项
type Option func(*Optimizer)

// WithMaxInlineStatements 设置可内联函数体的最大语句数
func WithMaxInlineStatements(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.ctx.MaxInlineStatements = n
		}
	}
}

// WithPass 在标准流水线之后追加一个 Pass
func WithPass(p Pass) Option {
	return func(o *Optimizer) {
		o.passes = append(o.passes, p)
	}
}

// StandardPasses 返回标准流水线：常量折叠、死代码消除、内联展开
func StandardPasses() []Pass {
	return []Pass{
		{Name: "constant-folding", MinLevel: 1, Run: FoldConstants},
		{Name: "dead-code-elimination", MinLevel: 2, Run: EliminateDeadCode},
		{Name: "inline-expansion", MinLevel: 3, Run: InlineCalls},
	}
}

// New 创建优化器
func New(level int, opts ...Option) *Optimizer {
	o := &Optimizer{
		level:  level,
		passes: StandardPasses(),
		ctx:    &Context{MaxInlineStatements: DefaultMaxInlineStatements},
		stats:  Stats{PerPassChanges: make(map[string]int)},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Level 返回优化级别
func (o *Optimizer) Level() int {
	return o.level
}

// Passes 返回当前级别启用的 Pass，按执行顺序
func (o *Optimizer) Passes() []Pass {
	var enabled []Pass
	for _, p := range o.passes {
		if o.level >= p.MinLevel {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// Run 对程序执行启用的 Pass，原地修改并返回同一个根节点
func (o *Optimizer) Run(prog *ast.Program) (*ast.Program, errors.List) {
	if prog == nil {
		return nil, nil
	}

	start := len(o.ctx.diagnostics)
	for _, p := range o.Passes() {
		o.stats.PassesRun++
		if p.Run(prog, o.ctx) {
			o.stats.TotalChanges++
			o.stats.PerPassChanges[p.Name]++
		}
	}
	o.stats.Inline = o.ctx.inline

	return prog, o.ctx.diagnostics[start:]
}

// Stats 获取统计信息
func (o *Optimizer) Stats() Stats {
	return o.stats
}

// Optimize 以给定级别优化程序
func Optimize(prog *ast.Program, level int) (*ast.Program, errors.List) {
	return New(level).Run(prog)
}
