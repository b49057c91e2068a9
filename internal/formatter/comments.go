package formatter

import (
	"strings"

	"github.com/tangzhangming/sub/internal/token"
)

// comment 源码中的一条 // 注释
type comment struct {
	line     int
	text     string
	trailing bool // 同一行前面有代码
}

// scanComments 按行扫描源码中的注释，跳过字符串和嵌入代码
func scanComments(source string) []comment {
	var out []comment
	var quote rune
	inEmbed := false

	for i, line := range strings.Split(source, "\n") {
		if inEmbed {
			if directive(line) == "endembed" {
				inEmbed = false
			}
			continue
		}
		if quote == 0 && directive(line) == "embed" {
			inEmbed = true
			continue
		}

		escaped := false
	scan:
		for j, ch := range line {
			switch {
			case quote != 0:
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == quote:
					quote = 0
				}
			case ch == '"' || ch == '\'':
				quote = ch
			case ch == '/' && strings.HasPrefix(line[j:], "//"):
				out = append(out, comment{
					line:     i + 1,
					text:     strings.TrimRight(line[j:], " \t\r"),
					trailing: strings.TrimSpace(line[:j]) != "",
				})
				break scan
			}
		}
	}
	return out
}

// directive 返回以 # 开头的行的关键字
func directive(line string) string {
	rest := strings.TrimSpace(line)
	if !strings.HasPrefix(rest, "#") {
		return ""
	}
	rest = strings.TrimSpace(rest[1:])
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// flushComments 输出 line 之前尚未输出的注释
func (p *Printer) flushComments(line int) {
	for p.next < len(p.comments) && p.comments[p.next].line < line {
		c := p.comments[p.next]
		p.next++
		p.blankBefore(c.line)
		p.writeIndent()
		p.buf.WriteString(c.text)
		p.buf.WriteByte('\n')
		p.fresh = false
	}
}

// trailingComment 取出 line 行的行尾注释
func (p *Printer) trailingComment(line int) (string, bool) {
	if line <= 0 || p.next >= len(p.comments) {
		return "", false
	}
	c := p.comments[p.next]
	if c.line != line || !c.trailing {
		return "", false
	}
	p.next++
	return c.text, true
}

// ============================================================================
// 块结构
// ============================================================================

// blockLines 一个块语句的 elif/else 行和 end 行
type blockLines struct {
	branches []int
	end      int
}

func (b *blockLines) branch(i int) int {
	if b == nil || i >= len(b.branches) {
		return 0
	}
	return b.branches[i]
}

func (b *blockLines) endLine() int {
	if b == nil {
		return 0
	}
	return b.end
}

// scanBlocks 根据每行开头的关键字配对块的起止行，以块起始行为键
func scanBlocks(tokens []token.Token) map[int]*blockLines {
	blocks := make(map[int]*blockLines)
	var stack []int
	lineStart := true

	for i, tok := range tokens {
		if tok.Type == token.NEWLINE {
			lineStart = true
			continue
		}
		if !lineStart {
			continue
		}
		lineStart = false
		if tok.Type == token.HASH && i+1 < len(tokens) {
			tok = tokens[i+1]
		}

		switch tok.Type {
		case token.FUNCTION, token.IF, token.WHILE, token.FOR:
			stack = append(stack, tok.Pos.Line)
			blocks[tok.Pos.Line] = &blockLines{}
		case token.ELIF, token.ELSE:
			if len(stack) > 0 {
				b := blocks[stack[len(stack)-1]]
				b.branches = append(b.branches, tok.Pos.Line)
			}
		case token.END:
			if len(stack) > 0 {
				blocks[stack[len(stack)-1]].end = tok.Pos.Line
				stack = stack[:len(stack)-1]
			}
		}
	}
	return blocks
}
