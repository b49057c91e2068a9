package ir

import (
	"fmt"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
)

// ============================================================================
// IR 生成器
// ============================================================================
//
// 顶层语句降级为入口函数 main，用户函数各自降级为独立的 IR 函数，
// 按声明出现的顺序追加在 main 之后。main 顶层作用域的声明登记在
// Module.Globals 中，用户函数通过名称访问它们。
//
// 降级从不因语法树内容失败：缺失的子节点直接跳过，
// 无法解析的数字按 0 处理并在指令上留注释。
//
// ============================================================================

// EntryPoint 入口函数名
const EntryPoint = "main"

// Generator IR 生成器。一个 Generator 同一时间只服务一次编译
type Generator struct {
	module  *Module
	entry   *builder
	strings map[string]int
	pending []*ast.FunctionDecl
}

// NewGenerator 创建 IR 生成器
func NewGenerator() *Generator {
	return &Generator{}
}

// Lower 把程序降级为 IR 模块
func Lower(prog *ast.Program) (*Module, error) {
	return NewGenerator().Generate(prog)
}

// Generate 把程序降级为 IR 模块，只有 prog 为 nil 时返回错误
func (g *Generator) Generate(prog *ast.Program) (*Module, error) {
	if prog == nil {
		return nil, errors.InvalidInput("nil program")
	}

	g.module = &Module{EntryPoint: EntryPoint, Globals: []Global{}, StringLiterals: []string{}}
	g.strings = make(map[string]int)
	g.pending = nil

	b := newBuilder(EntryPoint, Int)
	g.entry = b
	g.lowerStatements(b, prog.Statements)
	if !lastIsReturn(prog.Statements) {
		b.emitReturn(valuePtr(IntConst(0)))
	}
	g.module.Functions = append(g.module.Functions, b.fn)

	// 降级过程中可能发现嵌套函数，pending 会继续增长
	for i := 0; i < len(g.pending); i++ {
		g.module.Functions = append(g.module.Functions, g.lowerFunction(g.pending[i]))
	}
	return g.module, nil
}

func lastIsReturn(stmts []ast.Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ast.ReturnStmt)
	return ok
}

// intern 把字符串放入模块字符串池，相同文本共享下标
func (g *Generator) intern(s string) int {
	if idx, ok := g.strings[s]; ok {
		return idx
	}
	idx := len(g.module.StringLiterals)
	g.module.StringLiterals = append(g.module.StringLiterals, s)
	g.strings[s] = idx
	return idx
}

// ============================================================================
// 函数
// ============================================================================

// lowerFunction 参数依次占用 r0..rn-1，入口处写入同名局部槽位
func (g *Generator) lowerFunction(fn *ast.FunctionDecl) *Function {
	b := newBuilder(fn.Name, returnType(fn.ReturnType))

	for _, p := range fn.Params {
		b.fn.Params = append(b.fn.Params, b.newRegister(Int, p.Name))
	}
	for i, p := range fn.Params {
		slot := b.alloc(p.Name, Int)
		b.bind(p.Name, slot)
		b.emitStore(slot, b.fn.Params[i])
	}

	g.lowerBlock(b, fn.Body)
	if !b.endsWithReturn() {
		b.emitReturn(nil)
	}
	return b.fn
}

func returnType(t ast.DataType) Type {
	if t.IsLoose() {
		return Int
	}
	return TypeOf(t)
}

// ============================================================================
// 语句
// ============================================================================

func (g *Generator) lowerStatements(b *builder, stmts []ast.Statement) {
	for _, s := range stmts {
		g.lowerStatement(b, s)
	}
}

func (g *Generator) lowerStatement(b *builder, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		g.lowerDecl(b, s.Name, s.Init, s.Type())
	case *ast.ConstDecl:
		g.lowerDecl(b, s.Name, s.Init, s.Type())
	case *ast.FunctionDecl:
		g.pending = append(g.pending, s)
	case *ast.AssignStmt:
		g.lowerAssign(b, s)
	case *ast.ReturnStmt:
		g.lowerReturn(b, s)
	case *ast.IfStmt:
		g.lowerIf(b, s)
	case *ast.WhileStmt:
		g.lowerWhile(b, s)
	case *ast.ForStmt:
		g.lowerFor(b, s)
	case *ast.CallExpr:
		g.lowerCall(b, s)
	case *ast.Block:
		g.lowerBlock(b, s)
	case *ast.UiComponent:
		for _, arg := range s.Args {
			g.lowerExpr(b, arg)
		}
	case *ast.EmbedCode:
		// 内嵌代码由后端处理
	}
}

func (g *Generator) lowerBlock(b *builder, blk *ast.Block) {
	if blk == nil {
		return
	}
	b.enterScope()
	defer b.exitScope()
	g.lowerStatements(b, blk.Statements)
}

// lowerDecl 先分配槽位，再计算初始值。初始值中的同名引用指向外层变量
func (g *Generator) lowerDecl(b *builder, name string, init ast.Expression, t ast.DataType) {
	slot := b.alloc(name, TypeOf(t))
	v, ok := g.lowerExpr(b, init)
	b.bind(name, slot)
	if b == g.entry && len(b.scopes) == 1 {
		g.module.Globals = append(g.module.Globals, Global{Name: name, Slot: slot})
	}
	if ok {
		b.emitStore(slot, v)
	}
}

func (g *Generator) lowerAssign(b *builder, s *ast.AssignStmt) {
	v, ok := g.lowerExpr(b, s.Value)
	if !ok {
		return
	}
	if slot, found := b.lookup(s.Name); found {
		b.emitStore(slot, v)
		return
	}
	b.emit(&Instruction{Op: OpStore, Dest: valuePtr(Label(s.Name)), Src1: valuePtr(v), Comment: "global"})
}

func (g *Generator) lowerReturn(b *builder, s *ast.ReturnStmt) {
	if v, ok := g.lowerExpr(b, s.Value); ok {
		b.emitReturn(&v)
		return
	}
	b.emitReturn(nil)
}

// lowerIf
//
//	cond; JUMP_IF_FALSE cond, else; then; JUMP end; LABEL else; else; LABEL end
func (g *Generator) lowerIf(b *builder, s *ast.IfStmt) {
	labels := b.newLabels("if", "else", "end")
	elseLabel, endLabel := labels[0], labels[1]

	if cond, ok := g.lowerExpr(b, s.Condition); ok {
		b.emitJumpIfFalse(cond, elseLabel)
	}
	g.lowerBlock(b, s.Then)
	b.emitJump(endLabel)
	b.emitLabel(elseLabel)
	if s.Else != nil {
		g.lowerStatement(b, s.Else)
	}
	b.emitLabel(endLabel)
}

// lowerWhile
//
//	LABEL head; cond; JUMP_IF_FALSE cond, end; body; JUMP head; LABEL end
func (g *Generator) lowerWhile(b *builder, s *ast.WhileStmt) {
	labels := b.newLabels("while", "head", "end")
	head, end := labels[0], labels[1]

	b.emitLabel(head)
	if cond, ok := g.lowerExpr(b, s.Condition); ok {
		b.emitJumpIfFalse(cond, end)
	}
	g.lowerBlock(b, s.Body)
	b.emitJump(head)
	b.emitLabel(end)
}

// lowerFor 计数循环。range(n) 从 0 数到 n，range(a, b) 从 a 数到 b，
// 其他可迭代表达式的值作为上界。上界只计算一次。
// 头部缺少可迭代表达式时循环变量置 0，循环体按顺序降级一次。
func (g *Generator) lowerFor(b *builder, s *ast.ForStmt) {
	b.enterScope()
	defer b.exitScope()

	if s.Iterable == nil {
		if s.Var != "" {
			zero := b.emitConstInt(0, Int)
			slot := b.alloc(s.Var, Int)
			b.bind(s.Var, slot)
			b.emitStore(slot, zero)
		}
		g.lowerBlock(b, s.Body)
		return
	}

	var start, limit *Value
	lower := func(e ast.Expression) *Value {
		if v, ok := g.lowerExpr(b, e); ok {
			return &v
		}
		return nil
	}
	if call, ok := s.Iterable.(*ast.CallExpr); ok && call.Name == "range" && len(call.Args) >= 1 && len(call.Args) <= 2 {
		if len(call.Args) == 2 {
			start = lower(call.Args[0])
			limit = lower(call.Args[1])
		} else {
			limit = lower(call.Args[0])
		}
	} else {
		limit = lower(s.Iterable)
	}
	if start == nil {
		zero := b.emitConstInt(0, Int)
		start = &zero
	}

	labels := b.newLabels("for", "head", "end")
	head, end := labels[0], labels[1]

	slot := b.alloc(s.Var, Int)
	b.bind(s.Var, slot)
	b.emitStore(slot, *start)

	b.emitLabel(head)
	if limit != nil {
		i := b.emitLoad(slot, Int)
		cond := b.emitBinary(OpCmpLt, Bool, &i, limit, "")
		b.emitJumpIfFalse(cond, end)
	}
	g.lowerBlock(b, s.Body)

	cur := b.emitLoad(slot, Int)
	one := b.emitConstInt(1, Int)
	next := b.emitBinary(OpAdd, Int, &cur, &one, "")
	b.emitStore(slot, next)
	b.emitJump(head)
	b.emitLabel(end)
}

// ============================================================================
// 表达式
// ============================================================================

// lowerExpr 降级表达式，返回结果所在的寄存器。
// 没有结果（空槽位、print 调用）时 ok 为 false。
func (g *Generator) lowerExpr(b *builder, expr ast.Expression) (Value, bool) {
	switch e := expr.(type) {
	case *ast.Literal:
		return g.lowerLiteral(b, e), true
	case *ast.Identifier:
		return g.lowerIdentifier(b, e), true
	case *ast.BinaryExpr:
		return g.lowerBinary(b, e), true
	case *ast.CallExpr:
		return g.lowerCall(b, e)
	}
	return Value{}, false
}

func (g *Generator) lowerLiteral(b *builder, lit *ast.Literal) Value {
	switch lit.LitKind {
	case ast.NumberLit:
		n, ok := lit.Number()
		if !ok {
			r := b.newRegister(Int, "")
			b.emit(&Instruction{
				Op:      OpConstInt,
				Dest:    valuePtr(r),
				Src1:    valuePtr(IntConst(0)),
				Comment: fmt.Sprintf("malformed number %q", lit.Value),
			})
			return r
		}
		if n.IsFloat {
			r := b.newRegister(Float, "")
			b.emit(&Instruction{Op: OpConstFloat, Dest: valuePtr(r), Src1: valuePtr(FloatConst(n.Float))})
			return r
		}
		return b.emitConstInt(n.Int, Int)

	case ast.StringLit:
		r := b.newRegister(String, "")
		c := StringConst(lit.Value, g.intern(lit.Value))
		b.emit(&Instruction{Op: OpConstString, Dest: valuePtr(r), Src1: valuePtr(c)})
		return r

	case ast.BoolLit:
		v, _ := lit.Bool()
		if v {
			return b.emitConstInt(1, Bool)
		}
		return b.emitConstInt(0, Bool)
	}

	// null
	r := b.newRegister(Int, "")
	b.emit(&Instruction{Op: OpConstInt, Dest: valuePtr(r), Src1: valuePtr(IntConst(0)), Comment: "null"})
	return r
}

// lowerIdentifier 当前函数中可见的名称从槽位读取，其余按全局名称读取
func (g *Generator) lowerIdentifier(b *builder, id *ast.Identifier) Value {
	if slot, ok := b.lookup(id.Name); ok {
		return b.emitLoad(slot, slot.Type)
	}
	r := b.newRegister(TypeOf(id.Type()), id.Name)
	b.emit(&Instruction{Op: OpLoadGlobal, Dest: valuePtr(r), Src1: valuePtr(Label(id.Name))})
	return r
}

// lowerBinary 先左后右
func (g *Generator) lowerBinary(b *builder, e *ast.BinaryExpr) Value {
	var left, right *Value
	if v, ok := g.lowerExpr(b, e.Left); ok {
		left = &v
	}
	if v, ok := g.lowerExpr(b, e.Right); ok {
		right = &v
	}

	op, known := binaryOps[e.Op]
	comment := ""
	if !known {
		op = OpAdd
		comment = fmt.Sprintf("unknown operator %q", e.Op)
	}
	return b.emitBinary(op, binaryType(e, left, right), left, right, comment)
}

func binaryType(e *ast.BinaryExpr, left, right *Value) Type {
	if ast.IsComparison(e.Op) || ast.IsLogical(e.Op) {
		return Bool
	}
	if t := e.Type(); !t.IsLoose() {
		return TypeOf(t)
	}
	for _, v := range []*Value{left, right} {
		if v != nil && v.Type == Float {
			return Float
		}
	}
	if left != nil && left.Type == String {
		return String
	}
	return Int
}

// lowerCall 实参从左到右求值。print 发射一条 PRINT，输出最后一个实参
func (g *Generator) lowerCall(b *builder, c *ast.CallExpr) (Value, bool) {
	args := make([]Value, 0, len(c.Args))
	for _, arg := range c.Args {
		if v, ok := g.lowerExpr(b, arg); ok {
			args = append(args, v)
		}
	}

	if c.Name == "print" {
		inst := &Instruction{Op: OpPrint}
		if len(args) > 0 {
			inst.Src1 = valuePtr(args[len(args)-1])
		}
		b.emit(inst)
		return Value{}, false
	}

	r := b.newRegister(TypeOf(c.Type()), "")
	b.emit(&Instruction{Op: OpCall, Dest: valuePtr(r), Src1: valuePtr(Label(c.Name)), Args: args})
	return r, true
}
