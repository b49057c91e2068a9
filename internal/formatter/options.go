package formatter

import (
	"strings"

	"github.com/tangzhangming/sub/internal/config"
)

// Options 格式化选项
type Options struct {
	// 缩进设置
	IndentStyle string // "tabs" 或 "spaces"
	IndentSize  int    // 空格数（当使用 spaces 时）

	// 注释设置
	PreserveComments bool // 保留注释

	// 其他
	RemoveTrailingSpace bool // 移除行尾空格
	EnsureNewlineAtEOF  bool // 确保文件末尾有换行符
}

// DefaultOptions 返回默认格式化选项（4 空格缩进）
func DefaultOptions() *Options {
	return &Options{
		IndentStyle:         "spaces",
		IndentSize:          4,
		PreserveComments:    true,
		RemoveTrailingSpace: true,
		EnsureNewlineAtEOF:  true,
	}
}

// FromConfig 由 sub.toml 的 [format] 节生成选项
func FromConfig(cfg config.FormatConfig) *Options {
	opts := DefaultOptions()
	if cfg.IndentStyle != "" {
		opts.IndentStyle = cfg.IndentStyle
	}
	if cfg.IndentSize > 0 {
		opts.IndentSize = cfg.IndentSize
	}
	return opts
}

// IndentString 返回一级缩进
func (o *Options) IndentString() string {
	if o.IndentStyle == "tabs" {
		return "\t"
	}
	return strings.Repeat(" ", o.IndentSize)
}
