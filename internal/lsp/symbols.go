package lsp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/semantic"
	"github.com/tangzhangming/sub/internal/token"
)

// ============================================================================
// 悬停
// ============================================================================

// hover 返回光标处标识符的声明信息，不是标识符时返回 nil
func (d *Document) hover(pos protocol.Position) *protocol.Hover {
	if d.Result == nil {
		return nil
	}
	tok, ok := d.identAt(d.fromProtocolPosition(pos))
	if !ok {
		return nil
	}

	sig := declarationSignature(d.Result.Program, tok.Literal, tok.Pos)
	if sig == "" {
		sig = builtinSignature(tok.Literal)
	}
	if sig == "" {
		return nil
	}

	rng := d.tokenRange(tok)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: "```sub\n" + sig + "\n```",
		},
		Range: &rng,
	}
}

// identAt 查找覆盖 pos 的标识符 token
func (d *Document) identAt(pos token.Position) (token.Token, bool) {
	if d.Result == nil {
		return token.Token{}, false
	}
	for _, tok := range d.Result.Tokens {
		if tok.Type != token.IDENT || tok.Pos.Line != pos.Line {
			continue
		}
		end := tok.Pos.Column + utf8.RuneCountInString(tok.Literal)
		if pos.Column >= tok.Pos.Column && pos.Column < end {
			return tok, true
		}
	}
	return token.Token{}, false
}

// declarationSignature 查找 use 之前最近的同名声明并返回其签名
func declarationSignature(prog *ast.Program, name string, use token.Position) string {
	if prog == nil {
		return ""
	}
	var sig string
	consider := func(pos token.Position, text string) {
		if !after(pos, use) {
			sig = text
		}
	}

	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.VarDecl:
			if n.Name == name {
				consider(n.Pos(), "#var "+name+typeSuffix(n.Type()))
			}
		case *ast.ConstDecl:
			if n.Name == name {
				consider(n.Pos(), "#const "+name+typeSuffix(n.Type()))
			}
		case *ast.FunctionDecl:
			if n.Name == name {
				consider(n.Pos(), functionSignature(n))
			}
			for _, p := range n.Params {
				if p.Name == name {
					consider(p.Pos, "(parameter) "+name)
				}
			}
		case *ast.ForStmt:
			if n.Var == name {
				consider(n.Pos(), "(loop variable) "+name)
			}
		}
		return true
	})
	return sig
}

// after 判断 a 是否在 b 之后
func after(a, b token.Position) bool {
	if a.Line != b.Line {
		return a.Line > b.Line
	}
	return a.Column > b.Column
}

func typeSuffix(t ast.DataType) string {
	if t.IsLoose() {
		return ""
	}
	return ": " + t.String()
}

func functionSignature(fn *ast.FunctionDecl) string {
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		names[i] = p.Name
	}
	sig := fmt.Sprintf("#function %s(%s)", fn.Name, strings.Join(names, ", "))
	if !fn.ReturnType.IsLoose() {
		sig += " -> " + fn.ReturnType.String()
	}
	return sig
}

// builtinSignature 返回内置函数的签名，不是内置函数时返回空串
func builtinSignature(name string) string {
	sym := semantic.NewSymbolTable().Lookup(name)
	if sym == nil || !sym.IsFunction {
		return ""
	}
	var args string
	switch {
	case sym.MaxArity < 0:
		args = "..."
	case sym.MinArity == sym.MaxArity:
		args = fmt.Sprintf("%d", sym.MinArity)
	default:
		args = fmt.Sprintf("%d..%d", sym.MinArity, sym.MaxArity)
	}
	return fmt.Sprintf("(builtin) %s(%s) -> %s", name, args, sym.ReturnType)
}

// ============================================================================
// 文档符号
// ============================================================================

// documentSymbols 返回文档的声明大纲
func (d *Document) documentSymbols() []protocol.DocumentSymbol {
	out := []protocol.DocumentSymbol{}
	if d.Result == nil || d.Result.Program == nil {
		return out
	}
	return d.collectSymbols(d.Result.Program.Statements, out)
}

func (d *Document) collectSymbols(stmts []ast.Statement, out []protocol.DocumentSymbol) []protocol.DocumentSymbol {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VarDecl:
			out = append(out, d.symbol(s.Name, s.Pos(), protocol.SymbolKindVariable, typeSuffix(s.Type())))
		case *ast.ConstDecl:
			out = append(out, d.symbol(s.Name, s.Pos(), protocol.SymbolKindConstant, typeSuffix(s.Type())))
		case *ast.FunctionDecl:
			sym := d.symbol(s.Name, s.Pos(), protocol.SymbolKindFunction, strings.TrimPrefix(functionSignature(s), "#function "+s.Name))
			for _, p := range s.Params {
				sym.Children = append(sym.Children, d.symbol(p.Name, p.Pos, protocol.SymbolKindVariable, ""))
			}
			if s.Body != nil {
				sym.Children = d.collectSymbols(s.Body.Statements, sym.Children)
			}
			out = append(out, sym)
		}
	}
	return out
}

// symbol 以声明位置到名称结束为范围创建符号
func (d *Document) symbol(name string, pos token.Position, kind protocol.SymbolKind, detail string) protocol.DocumentSymbol {
	nameTok := token.Token{Type: token.IDENT, Literal: name, Pos: pos}
	for _, tok := range d.Result.Tokens {
		if tok.Type == token.IDENT && tok.Literal == name && !after(pos, tok.Pos) {
			nameTok = tok
			break
		}
	}
	sel := d.tokenRange(nameTok)
	return protocol.DocumentSymbol{
		Name:           name,
		Detail:         strings.TrimPrefix(detail, ": "),
		Kind:           kind,
		Range:          protocol.Range{Start: d.toProtocolPosition(pos), End: sel.End},
		SelectionRange: sel,
	}
}
