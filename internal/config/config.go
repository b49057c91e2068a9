// Package config 读写 sub.toml 项目配置
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/sub/internal/i18n"
)

// 常量定义
const (
	FileName = "sub.toml" // 配置文件名

	MaxOptLevel = 3
)

// Config 项目配置
type Config struct {
	Project ProjectConfig `toml:"project"`
	Build   BuildConfig   `toml:"build"`
	Format  FormatConfig  `toml:"format"`
	Log     LogConfig     `toml:"log"`

	dir string // 配置文件所在目录
}

// ProjectConfig 项目信息
type ProjectConfig struct {
	// Name 项目名
	Name string `toml:"name"`

	// Version 版本号（遵循语义化版本，如 1.0.0）
	Version string `toml:"version"`

	// Entry 入口源文件，相对于配置文件所在目录
	Entry string `toml:"entry"`
}

// BuildConfig 编译选项
type BuildConfig struct {
	OptLevel            int    `toml:"opt_level"`             // 0..3
	Strict              bool   `toml:"strict"`                // 分析或优化报告错误时不再降级
	Language            string `toml:"language"`              // 诊断语言
	MaxInlineStatements int    `toml:"max_inline_statements"` // 可内联函数体的最大语句数
}

// FormatConfig 代码格式化选项
type FormatConfig struct {
	IndentStyle string `toml:"indent_style"` // spaces 或 tabs
	IndentSize  int    `toml:"indent_size"`
}

// LogConfig 日志选项
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Default 生成默认配置
// dir 是项目目录路径，用于生成默认的项目名
func Default(dir string) *Config {
	baseName := filepath.Base(dir)
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "my-app"
	}

	return &Config{
		Project: ProjectConfig{
			Name:    sanitizeName(baseName),
			Version: "0.1.0",
			Entry:   "main.sub",
		},
		Build: BuildConfig{
			OptLevel:            1,
			Strict:              true,
			Language:            string(i18n.LangEnglish),
			MaxInlineStatements: 8,
		},
		Format: FormatConfig{IndentStyle: "spaces", IndentSize: 4},
		Log:    LogConfig{Level: "warn"},
		dir:    dir,
	}
}

// Load 从文件加载配置。文件中缺省的字段取默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dir := filepath.Dir(path)
	cfg, err := Parse(data, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse 解析配置内容，dir 为配置所在目录
func Parse(data []byte, dir string) (*Config, error) {
	cfg := Default(dir)
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.dir = dir
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查版本号和各项取值范围，返回所有问题
func (c *Config) Validate() error {
	var err error
	if strings.TrimSpace(c.Project.Name) == "" {
		err = multierr.Append(err, fmt.Errorf("project.name must not be empty"))
	}
	if _, verr := semver.StrictNewVersion(c.Project.Version); verr != nil {
		err = multierr.Append(err, fmt.Errorf("project.version %q is not a semantic version: %w", c.Project.Version, verr))
	}
	if c.Build.OptLevel < 0 || c.Build.OptLevel > MaxOptLevel {
		err = multierr.Append(err, fmt.Errorf("build.opt_level must be between 0 and %d, got %d", MaxOptLevel, c.Build.OptLevel))
	}
	if _, ok := i18n.ParseLanguage(c.Build.Language); !ok {
		err = multierr.Append(err, fmt.Errorf("build.language %q is not supported", c.Build.Language))
	}
	if c.Build.MaxInlineStatements <= 0 {
		err = multierr.Append(err, fmt.Errorf("build.max_inline_statements must be positive"))
	}
	if c.Format.IndentStyle != "spaces" && c.Format.IndentStyle != "tabs" {
		err = multierr.Append(err, fmt.Errorf("format.indent_style must be \"spaces\" or \"tabs\", got %q", c.Format.IndentStyle))
	}
	if c.Format.IndentSize < 1 || c.Format.IndentSize > 8 {
		err = multierr.Append(err, fmt.Errorf("format.indent_size must be between 1 and 8, got %d", c.Format.IndentSize))
	}
	if _, lerr := c.Log.ZapLevel(); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", lerr))
	}
	return err
}

// Version 返回解析后的项目版本
func (c *Config) Version() (*semver.Version, error) {
	return semver.StrictNewVersion(c.Project.Version)
}

// Dir 返回配置文件所在目录
func (c *Config) Dir() string {
	return c.dir
}

// EntryPath 返回入口文件的路径
func (c *Config) EntryPath() string {
	if c.Project.Entry == "" || filepath.IsAbs(c.Project.Entry) {
		return c.Project.Entry
	}
	return filepath.Join(c.dir, c.Project.Entry)
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	// 生成带注释的配置文件内容
	content := generateConfigWithComments(c)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[project]\n")
	sb.WriteString("# 项目名\n")
	sb.WriteString(fmt.Sprintf("name = %q\n\n", c.Project.Name))
	sb.WriteString("# 版本号（遵循语义化版本）\n")
	sb.WriteString(fmt.Sprintf("version = %q\n\n", c.Project.Version))
	sb.WriteString("# 入口源文件\n")
	sb.WriteString(fmt.Sprintf("entry = %q\n\n", c.Project.Entry))

	sb.WriteString("[build]\n")
	sb.WriteString("# 优化级别 0..3\n")
	sb.WriteString(fmt.Sprintf("opt_level = %d\n\n", c.Build.OptLevel))
	sb.WriteString("# 语义分析失败时不生成 IR\n")
	sb.WriteString(fmt.Sprintf("strict = %t\n\n", c.Build.Strict))
	sb.WriteString("# 诊断语言 (en, zh)\n")
	sb.WriteString(fmt.Sprintf("language = %q\n\n", c.Build.Language))
	sb.WriteString("# 可内联函数体的最大语句数\n")
	sb.WriteString(fmt.Sprintf("max_inline_statements = %d\n\n", c.Build.MaxInlineStatements))

	sb.WriteString("[format]\n")
	sb.WriteString("# 缩进方式 (spaces, tabs)\n")
	sb.WriteString(fmt.Sprintf("indent_style = %q\n", c.Format.IndentStyle))
	sb.WriteString(fmt.Sprintf("indent_size = %d\n\n", c.Format.IndentSize))

	sb.WriteString("[log]\n")
	sb.WriteString(fmt.Sprintf("level = %q\n", c.Log.Level))

	return sb.String()
}

// sanitizeName 清理项目名
func sanitizeName(name string) string {
	// 转换为小写，替换空格和下划线为连字符
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "_", "-")

	// 移除非法字符
	var result strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			result.WriteRune(r)
		}
	}

	s := result.String()
	if s == "" {
		return "my-app"
	}
	return s
}

// Find 从指定路径向上查找配置文件
// 返回配置文件的完整路径，如果找不到则返回空字符串
func Find(startPath string) string {
	// 如果是文件，从其所在目录开始
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	var dir string
	if info.IsDir() {
		dir = startPath
	} else {
		dir = filepath.Dir(startPath)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// 已到达根目录
			return ""
		}
		dir = parent
	}
}

// LoadOrDefault 查找并加载配置，找不到时返回以 startPath 所在目录生成的默认配置
func LoadOrDefault(startPath string) (*Config, error) {
	if path := Find(startPath); path != "" {
		return Load(path)
	}
	dir := startPath
	if info, err := os.Stat(startPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	return Default(dir), nil
}

// ============================================================================
// 日志
// ============================================================================

// ZapLevel 解析日志级别
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return level, nil
}

// NewLogger 按配置创建日志器。development 为 true 时输出便于阅读的控制台格式
func (l LogConfig) NewLogger(development bool) (*zap.Logger, error) {
	level, err := l.ZapLevel()
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
