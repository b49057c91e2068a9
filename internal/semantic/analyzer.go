package semantic

import (
	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/token"
)

// Result 语义分析结果
type Result struct {
	OK       bool        // 没有任何错误级诊断
	Errors   errors.List // 错误，按发现顺序
	Warnings errors.List // 警告，按发现顺序
}

// ErrorStrings 以 "Error [行:列]: 消息" 形式返回错误
func (r *Result) ErrorStrings() []string {
	return r.Errors.Strings()
}

// WarningStrings 以 "Warning [行:列]: 消息" 形式返回警告
func (r *Result) WarningStrings() []string {
	return r.Warnings.Strings()
}

// Diagnostics 返回错误和警告的合并列表
func (r *Result) Diagnostics() errors.List {
	var all errors.List
	all.Append(r.Errors)
	all.Append(r.Warnings)
	return all
}

// Analyzer 语义分析器
//
// 单次自顶向下遍历，显式维护作用域栈。每个代码块打开一层作用域，
// 函数名在进入函数体之前声明于外层作用域（允许递归）。
// 错误不会中断遍历，诊断全部累积后一并返回。
type Analyzer struct {
	symbols  *SymbolTable
	errs     errors.List
	warnings errors.List

	// 当前函数的返回类型收集
	returnTypes []ast.DataType
	inFunction  bool
}

// New 创建语义分析器
func New() *Analyzer {
	return &Analyzer{symbols: NewSymbolTable()}
}

// Analyze 分析程序
func Analyze(prog *ast.Program) (*Result, error) {
	return New().Analyze(prog)
}

// Analyze 分析程序。prog 为 nil 时返回 ErrInvalidInput
func (a *Analyzer) Analyze(prog *ast.Program) (*Result, error) {
	if prog == nil {
		return nil, errors.InvalidInput("nil program")
	}

	a.withScope(func() {
		a.analyzeStatements(prog.Statements)
	})

	return &Result{
		OK:       !a.errs.HasErrors(),
		Errors:   a.errs,
		Warnings: a.warnings,
	}, nil
}

// SymbolTable 返回分析器使用的符号表
func (a *Analyzer) SymbolTable() *SymbolTable {
	return a.symbols
}

// ============================================================================
// 诊断
// ============================================================================

func (a *Analyzer) error(code string, pos token.Position, name string, args ...interface{}) {
	d := errors.New(code, pos, args...)
	d = d.WithHint(errors.Suggestions(code, a.suggestionContext(code, name))...)
	a.errs.Add(d)
}

func (a *Analyzer) warn(code string, pos token.Position, args ...interface{}) {
	d := errors.New(code, pos, args...)
	d = d.WithHint(errors.Suggestions(code, errors.Context{})...)
	a.warnings.Add(d)
}

func (a *Analyzer) suggestionContext(code, name string) errors.Context {
	ctx := errors.Context{Name: name}
	switch code {
	case errors.E0100:
		ctx.Candidates = a.symbols.VisibleNames(false)
	case errors.E0300:
		ctx.Candidates = a.symbols.VisibleNames(true)
	}
	return ctx
}

// ============================================================================
// 作用域
// ============================================================================

// withScope 在新作用域中执行 fn，退出时总是弹出并检查未使用的变量
func (a *Analyzer) withScope(fn func()) {
	a.symbols.EnterScope()
	defer func() {
		for _, sym := range a.symbols.ExitScope() {
			if !sym.Used && !sym.IsFunction && !sym.IsParam && sym.Name != "_" {
				a.warn(errors.W0001, sym.Pos, sym.Name)
			}
		}
	}()
	fn()
}

func (a *Analyzer) declare(sym *Symbol) {
	if !a.symbols.Insert(sym) {
		a.error(errors.E0101, sym.Pos, sym.Name, sym.Name)
	}
}

// ============================================================================
// 语句
// ============================================================================

func (a *Analyzer) analyzeStatements(stmts []ast.Statement) {
	returned := false
	for _, stmt := range stmts {
		if returned {
			a.warn(errors.W0005, stmt.Pos())
			returned = false
		}
		a.analyzeStatement(stmt)
		if _, ok := stmt.(*ast.ReturnStmt); ok {
			returned = true
		}
	}
}

func (a *Analyzer) analyzeBlock(block *ast.Block) {
	if block == nil {
		return
	}
	a.withScope(func() {
		a.analyzeStatements(block.Statements)
	})
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		a.analyzeDecl(s.Pos(), s.Name, s.Init, false)
		s.SetType(typeOf(s.Init))

	case *ast.ConstDecl:
		if s.Init == nil {
			a.warn(errors.W0004, s.Pos(), s.Name)
		}
		a.analyzeDecl(s.Pos(), s.Name, s.Init, true)
		s.SetType(typeOf(s.Init))

	case *ast.FunctionDecl:
		a.analyzeFunction(s)

	case *ast.IfStmt:
		a.analyzeExpr(s.Condition)
		a.analyzeBlock(s.Then)
		switch e := s.Else.(type) {
		case *ast.IfStmt:
			a.analyzeStatement(e)
		case *ast.Block:
			a.analyzeBlock(e)
		}

	case *ast.ForStmt:
		iterType := a.analyzeExpr(s.Iterable)
		a.withScope(func() {
			if s.Var != "" {
				varType := ast.Unknown
				if call, ok := s.Iterable.(*ast.CallExpr); ok && call.Name == "range" || iterType.IsNumeric() {
					varType = ast.Int
				}
				a.declare(&Symbol{
					Name:          s.Var,
					Type:          varType,
					IsInitialized: true,
					IsParam:       true,
					Pos:           s.Pos(),
				})
			}
			if s.Body != nil {
				a.analyzeStatements(s.Body.Statements)
			}
		})

	case *ast.WhileStmt:
		a.analyzeExpr(s.Condition)
		a.analyzeBlock(s.Body)

	case *ast.ReturnStmt:
		t := ast.Void
		if s.Value != nil {
			t = a.analyzeExpr(s.Value)
		}
		s.SetType(t)
		if a.inFunction {
			a.returnTypes = append(a.returnTypes, t)
		}

	case *ast.AssignStmt:
		a.analyzeExpr(s.Value)
		sym := a.symbols.Lookup(s.Name)
		switch {
		case sym == nil:
			a.error(errors.E0100, s.Pos(), s.Name, s.Name)
		case sym.IsConst:
			a.error(errors.E0102, s.Pos(), s.Name, s.Name)
		default:
			sym.IsInitialized = true
			if sym.Type.IsLoose() {
				sym.Type = typeOf(s.Value)
			}
		}

	case *ast.CallExpr:
		a.analyzeCall(s)

	case *ast.UiComponent:
		for _, arg := range s.Args {
			a.analyzeExpr(arg)
		}

	case *ast.Block:
		a.analyzeBlock(s)

	case *ast.EmbedCode:
		// 嵌入代码原样交给后端
	}
}

func (a *Analyzer) analyzeDecl(pos token.Position, name string, init ast.Expression, isConst bool) {
	t := ast.Auto
	if init != nil {
		t = a.analyzeExpr(init)
	}
	a.declare(&Symbol{
		Name:          name,
		Type:          t,
		IsConst:       isConst,
		IsInitialized: init != nil || isConst,
		Pos:           pos,
	})
}

func (a *Analyzer) analyzeFunction(fn *ast.FunctionDecl) {
	sym := &Symbol{
		Name:          fn.Name,
		Type:          ast.Function,
		IsFunction:    true,
		IsInitialized: true,
		MinArity:      len(fn.Params),
		MaxArity:      len(fn.Params),
		ReturnType:    ast.Unknown,
		Pos:           fn.Pos(),
	}
	a.declare(sym)

	outerReturns, outerIn := a.returnTypes, a.inFunction
	a.returnTypes, a.inFunction = nil, true
	defer func() {
		a.returnTypes, a.inFunction = outerReturns, outerIn
	}()

	a.withScope(func() {
		for _, p := range fn.Params {
			a.declare(&Symbol{
				Name:          p.Name,
				Type:          ast.Unknown,
				IsInitialized: true,
				IsParam:       true,
				Pos:           p.Pos,
			})
		}
		if fn.Body != nil {
			a.analyzeStatements(fn.Body.Statements)
		}
	})

	fn.ReturnType = unifyReturnTypes(a.returnTypes)
	fn.SetType(ast.Function)
	sym.ReturnType = fn.ReturnType
}

// unifyReturnTypes 合并所有 return 的类型：没有 return 为 Void，
// 尚未确定的类型被忽略，数值混合取 Float，冲突为 Unknown
func unifyReturnTypes(types []ast.DataType) ast.DataType {
	if len(types) == 0 {
		return ast.Void
	}
	result := ast.Unknown
	for _, t := range types {
		switch {
		case t.IsLoose() || t == result:
		case result == ast.Unknown:
			result = t
		case t.IsNumeric() && result.IsNumeric():
			result = ast.Float
		default:
			return ast.Unknown
		}
	}
	return result
}

// ============================================================================
// 表达式
// ============================================================================

// analyzeExpr 检查表达式并写入类型标签，返回推断的类型
func (a *Analyzer) analyzeExpr(expr ast.Expression) ast.DataType {
	if expr == nil {
		return ast.Unknown
	}

	var t ast.DataType
	switch e := expr.(type) {
	case *ast.Literal:
		t = a.literalType(e)

	case *ast.Identifier:
		sym := a.symbols.Lookup(e.Name)
		if sym == nil {
			a.error(errors.E0100, e.Pos(), e.Name, e.Name)
			t = ast.Unknown
			break
		}
		sym.Used = true
		if !sym.IsInitialized && !sym.IsFunction && !sym.warnedUninit {
			sym.warnedUninit = true
			a.warn(errors.W0002, e.Pos(), e.Name)
		}
		t = sym.Type

	case *ast.BinaryExpr:
		lt := a.analyzeExpr(e.Left)
		rt := a.analyzeExpr(e.Right)
		t = a.binaryType(e, lt, rt)

	case *ast.CallExpr:
		t = a.analyzeCall(e)

	default:
		t = ast.Unknown
	}

	expr.SetType(t)
	return t
}

func (a *Analyzer) literalType(lit *ast.Literal) ast.DataType {
	switch lit.LitKind {
	case ast.NumberLit:
		n, ok := lit.Number()
		if !ok {
			a.warn(errors.W0003, lit.Pos(), lit.Value)
			return ast.Int
		}
		if n.IsFloat {
			return ast.Float
		}
		return ast.Int
	case ast.StringLit:
		return ast.String
	case ast.BoolLit:
		return ast.Bool
	case ast.NullLit:
		return ast.Null
	}
	return ast.Unknown
}

// binaryType 宽松的兼容性检查：类型相同、同为数值或任一侧尚未确定时兼容
func (a *Analyzer) binaryType(e *ast.BinaryExpr, lt, rt ast.DataType) ast.DataType {
	if e.Left == nil || e.Right == nil {
		return ast.Unknown
	}

	if e.Negation && !lt.IsLoose() && lt != ast.Bool {
		a.error(errors.E0201, e.Pos(), "", lt)
		return ast.Unknown
	}
	if !compatible(e.Op, lt, rt) {
		a.error(errors.E0200, e.Pos(), "", lt, e.Op, rt)
		return ast.Unknown
	}

	if ast.IsComparison(e.Op) || ast.IsLogical(e.Op) {
		return ast.Bool
	}
	switch {
	case lt == ast.Float || rt == ast.Float:
		return ast.Float
	case lt.IsLoose():
		return rt
	default:
		return lt
	}
}

func compatible(op string, lt, rt ast.DataType) bool {
	if lt.IsLoose() || rt.IsLoose() || lt == rt {
		return true
	}
	if lt.IsNumeric() && rt.IsNumeric() {
		return true
	}
	// 任何值都可以与 null 比较相等
	if (op == "==" || op == "!=") && (lt == ast.Null || rt == ast.Null) {
		return true
	}
	return false
}

// analyzeCall 检查调用目标与参数数量，返回被调函数的返回类型
func (a *Analyzer) analyzeCall(call *ast.CallExpr) ast.DataType {
	for _, arg := range call.Args {
		a.analyzeExpr(arg)
	}

	sym := a.symbols.Lookup(call.Name)
	var t ast.DataType
	switch {
	case sym == nil:
		a.error(errors.E0300, call.Pos(), call.Name, call.Name)
		t = ast.Unknown
	case !sym.IsFunction:
		sym.Used = true
		a.error(errors.E0301, call.Pos(), call.Name, call.Name)
		t = ast.Unknown
	default:
		sym.Used = true
		n := len(call.Args)
		if n < sym.MinArity || (sym.MaxArity >= 0 && n > sym.MaxArity) {
			want := sym.MinArity
			if n > sym.MaxArity && sym.MaxArity >= 0 {
				want = sym.MaxArity
			}
			a.error(errors.E0302, call.Pos(), call.Name, call.Name, want, n)
		}
		t = sym.ReturnType
	}

	call.SetType(t)
	return t
}

// typeOf 返回已分析表达式的类型标签
func typeOf(e ast.Expression) ast.DataType {
	if e == nil {
		return ast.Auto
	}
	return e.Type()
}
