package errors

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ============================================================================
// Reporter - 诊断收集与输出
// ============================================================================

// Reporter 按文件收集诊断，并用 Formatter 输出带源码上下文的报告
type Reporter struct {
	mu        sync.Mutex
	formatter *Formatter
	sources   map[string][]string // 文件名 -> 源码行
	diags     List
}

// NewReporter 创建报告器
func NewReporter(f *Formatter) *Reporter {
	if f == nil {
		f = NewFormatter()
	}
	return &Reporter{
		formatter: f,
		sources:   make(map[string][]string),
	}
}

// SetSource 登记源码，用于显示上下文
func (r *Reporter) SetSource(filename, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[filename] = strings.Split(content, "\n")
}

// Report 记录一组诊断
func (r *Reporter) Report(list List) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags.Append(list)
}

// Diagnostics 返回已记录的诊断
func (r *Reporter) Diagnostics() List {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(List, len(r.diags))
	copy(out, r.diags)
	return out
}

// HasErrors 是否有错误
func (r *Reporter) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.diags.HasErrors()
}

// WriteTo 输出所有诊断和统计行
func (r *Reporter) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sb strings.Builder
	for _, d := range r.diags.Sorted() {
		sb.WriteString(r.formatter.Format(d, r.sources[d.Pos.Filename]))
		sb.WriteByte('\n')
	}
	if summary := r.formatter.Summary(r.diags); summary != "" {
		sb.WriteString(summary + "\n")
	}

	n, err := io.WriteString(w, sb.String())
	if err != nil {
		return int64(n), fmt.Errorf("failed to write diagnostics: %w", err)
	}
	return int64(n), nil
}

// Clear 清空诊断，保留源码
func (r *Reporter) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = nil
}
