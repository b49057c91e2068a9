package lsp

import (
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/token"
)

// Document 表示一个打开的文档
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string
	Lines   []string // 按行分割的内容

	// 最近一次检查的结果，内容变化后由服务器重新填充
	Result *driver.Result
}

// Filename 返回文档对应的文件名，非 file:// 地址时返回原始 URI
func (d *Document) Filename() string {
	if strings.HasPrefix(string(d.URI), "file://") {
		return uri.URI(d.URI).Filename()
	}
	return string(d.URI)
}

// GetLine 获取指定行的内容（0-based）
func (d *Document) GetLine(line int) string {
	if line < 0 || line >= len(d.Lines) {
		return ""
	}
	return d.Lines[line]
}

// DocumentStore 文档管理器
type DocumentStore struct {
	documents map[protocol.DocumentURI]*Document
	mu        sync.RWMutex
}

// NewDocumentStore 创建文档管理器
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{documents: make(map[protocol.DocumentURI]*Document)}
}

// Open 打开文档
func (ds *DocumentStore) Open(u protocol.DocumentURI, content string, version int32) *Document {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	doc := &Document{
		URI:     u,
		Version: version,
		Content: content,
		Lines:   splitLines(content),
	}
	ds.documents[u] = doc
	return doc
}

// Update 替换文档内容（全量同步）。文档未打开时返回 nil
func (ds *DocumentStore) Update(u protocol.DocumentURI, content string, version int32) *Document {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	old, ok := ds.documents[u]
	if !ok {
		return nil
	}
	if version == 0 {
		version = old.Version + 1
	}

	// 旧文档可能仍被其他请求读取，这里换成新对象
	doc := &Document{
		URI:     u,
		Version: version,
		Content: content,
		Lines:   splitLines(content),
	}
	ds.documents[u] = doc
	return doc
}

// Close 关闭文档
func (ds *DocumentStore) Close(u protocol.DocumentURI) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.documents, u)
}

// Get 获取文档
func (ds *DocumentStore) Get(u protocol.DocumentURI) *Document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.documents[u]
}

// Len 返回打开的文档数量
func (ds *DocumentStore) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.documents)
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}

// ============================================================================
// 位置换算
//
// 编译器的位置是 1-based 的行号和字符（rune）列号，
// LSP 的位置是 0-based 的行号和 UTF-16 码元偏移。
// ============================================================================

// toProtocolPosition 把编译器位置换算为 LSP 位置
func (d *Document) toProtocolPosition(pos token.Position) protocol.Position {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(utf16Offset(d.GetLine(line), pos.Column-1)),
	}
}

// fromProtocolPosition 把 LSP 位置换算为编译器位置
func (d *Document) fromProtocolPosition(pos protocol.Position) token.Position {
	line := int(pos.Line)
	return token.Position{
		Line:   line + 1,
		Column: runeOffset(d.GetLine(line), int(pos.Character)) + 1,
	}
}

// utf16Offset 返回行内前 runes 个字符占用的 UTF-16 码元数
func utf16Offset(line string, runes int) int {
	n := 0
	for _, r := range line {
		if runes <= 0 {
			return n
		}
		n += len(utf16.Encode([]rune{r}))
		runes--
	}
	return n + runes
}

// runeOffset 把 UTF-16 偏移换算为字符偏移
func runeOffset(line string, units int) int {
	n := 0
	for _, r := range line {
		if units <= 0 {
			return n
		}
		units -= len(utf16.Encode([]rune{r}))
		n++
	}
	if units > 0 {
		n += units
	}
	return n
}

// tokenRange 返回 token 在文档中覆盖的范围
func (d *Document) tokenRange(tok token.Token) protocol.Range {
	start := d.toProtocolPosition(tok.Pos)
	end := tok.Pos
	end.Column += utf8.RuneCountInString(tok.Literal)
	return protocol.Range{Start: start, End: d.toProtocolPosition(end)}
}

// fullRange 返回覆盖整个文档的范围
func (d *Document) fullRange() protocol.Range {
	last := len(d.Lines) - 1
	return protocol.Range{
		End: protocol.Position{
			Line:      uint32(last),
			Character: uint32(utf16Offset(d.Lines[last], utf8.RuneCountInString(d.Lines[last]))),
		},
	}
}
