package semantic

import (
	"sort"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/token"
)

// Symbol 符号
type Symbol struct {
	Name          string
	Type          ast.DataType
	ScopeLevel    int  // 所在作用域层级，0 为内置
	IsConst       bool // 常量不可赋值
	IsInitialized bool
	IsFunction    bool
	IsParam       bool // 参数与循环变量不报未使用
	Used          bool
	LineDeclared  int
	Pos           token.Position

	// 函数签名（仅 IsFunction）
	MinArity   int
	MaxArity   int // -1 表示可变参数
	ReturnType ast.DataType

	warnedUninit bool
}

// scope 一层作用域。order 记录声明顺序，保证告警顺序稳定
type scope struct {
	symbols map[string]*Symbol
	order   []*Symbol
}

// SymbolTable 作用域栈
//
// 第 0 层是内置函数，用户的全局声明位于第 1 层，因此内置名可以被遮蔽。
type SymbolTable struct {
	frames []*scope
}

// NewSymbolTable 创建符号表并注册内置函数
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{}
	st.EnterScope()
	st.registerBuiltinFunctions()
	return st
}

// registerBuiltinFunctions 注册内置函数签名
func (st *SymbolTable) registerBuiltinFunctions() {
	builtins := []*Symbol{
		{Name: "print", MinArity: 0, MaxArity: -1, ReturnType: ast.Void},
		{Name: "range", MinArity: 1, MaxArity: 2, ReturnType: ast.Array},
		{Name: "len", MinArity: 1, MaxArity: 1, ReturnType: ast.Int},
		{Name: "input", MinArity: 0, MaxArity: 1, ReturnType: ast.String},
		{Name: "str", MinArity: 1, MaxArity: 1, ReturnType: ast.String},
		{Name: "int", MinArity: 1, MaxArity: 1, ReturnType: ast.Int},
	}
	for _, b := range builtins {
		b.Type = ast.Function
		b.IsFunction = true
		b.IsInitialized = true
		b.Used = true
		st.Insert(b)
	}
}

// EnterScope 压入一个空作用域
func (st *SymbolTable) EnterScope() {
	st.frames = append(st.frames, &scope{symbols: make(map[string]*Symbol)})
}

// ExitScope 弹出当前作用域，按声明顺序返回其中的符号。
// 弹出后这些符号不再可见。
func (st *SymbolTable) ExitScope() []*Symbol {
	if len(st.frames) == 0 {
		return nil
	}
	top := st.frames[len(st.frames)-1]
	st.frames = st.frames[:len(st.frames)-1]
	return top.order
}

// Level 返回当前作用域层级
func (st *SymbolTable) Level() int {
	return len(st.frames) - 1
}

// Insert 在当前作用域声明符号；同一层已有同名符号时返回 false
func (st *SymbolTable) Insert(sym *Symbol) bool {
	top := st.frames[len(st.frames)-1]
	if _, exists := top.symbols[sym.Name]; exists {
		return false
	}
	sym.ScopeLevel = st.Level()
	if sym.LineDeclared == 0 {
		sym.LineDeclared = sym.Pos.Line
	}
	top.symbols[sym.Name] = sym
	top.order = append(top.order, sym)
	return true
}

// Lookup 从内向外查找，返回第一个匹配
func (st *SymbolTable) Lookup(name string) *Symbol {
	for i := len(st.frames) - 1; i >= 0; i-- {
		if sym, ok := st.frames[i].symbols[name]; ok {
			return sym
		}
	}
	return nil
}

// LookupCurrent 只在当前作用域查找
func (st *SymbolTable) LookupCurrent(name string) *Symbol {
	if len(st.frames) == 0 {
		return nil
	}
	return st.frames[len(st.frames)-1].symbols[name]
}

// VisibleNames 返回当前可见的名称（用于 "did you mean"），按名称排序
func (st *SymbolTable) VisibleNames(functions bool) []string {
	seen := make(map[string]bool)
	var names []string
	for i := len(st.frames) - 1; i >= 0; i-- {
		for name, sym := range st.frames[i].symbols {
			if seen[name] {
				continue
			}
			seen[name] = true
			if sym.IsFunction == functions {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
