package main

import (
	"os"
	"runtime"
	"strings"

	"github.com/tangzhangming/sub/internal/i18n"
)

// Messages 命令行界面的消息
type Messages struct {
	// 版本信息
	VersionTitle string
	VersionDesc  string

	// 帮助信息
	HelpUsage    string
	HelpCommands string
	HelpOptions  string
	HelpExamples string

	// 命令描述
	CmdBuild   string
	CmdCheck   string
	CmdInit    string
	CmdFmt     string
	CmdRepl    string
	CmdVersion string
	CmdHelp    string

	// 编译选项
	OptTokens  string
	OptAST     string
	OptIR      string
	OptJSON    string
	OptOpt     string
	OptConfig  string
	OptLenient string
	OptWatch   string
	OptVerbose string
	OptNoColor string
	OptLang    string

	// fmt 选项
	OptWrite string
	OptList  string

	// init 选项
	InitDesc    string
	InitOptName string

	// 错误信息
	ErrNoInput      string
	ErrReadFile     string
	ErrUnknownCmd   string
	ErrConfig       string
	ErrLogger       string
	ErrCompile      string
	ErrJSON         string
	ErrWatch        string
	ErrConfigExists string
	ErrCreateFile   string
	ErrGetWorkDir   string
	ErrFormat       string
	ErrWriteFile    string

	// 成功信息
	SuccessCheckOK  string
	SuccessBuilt    string
	InitCreating    string
	InitSuccess     string
	InitNextSteps   string
	WatchStarted    string
	WatchRebuilding string
}

// 英文消息
var messagesEN = Messages{
	VersionTitle: "SUB compiler v%s",
	VersionDesc:  "Parses, analyzes, optimizes and lowers SUB scripts to a register IR",

	HelpUsage:    "Usage:",
	HelpCommands: "Commands:",
	HelpOptions:  "Options:",
	HelpExamples: "Examples:",

	CmdBuild:   "Compile source files to IR",
	CmdCheck:   "Check source files without lowering",
	CmdInit:    "Create sub.toml and main.sub in the current directory",
	CmdFmt:     "Format source files",
	CmdRepl:    "Start an interactive session",
	CmdVersion: "Show version information",
	CmdHelp:    "Show this help message",

	OptTokens:  "Show lexer tokens",
	OptAST:     "Show the syntax tree after optimization",
	OptIR:      "Show the IR module",
	OptJSON:    "Print the IR module as JSON",
	OptOpt:     "Optimization level 0..3 (default from sub.toml)",
	OptConfig:  "Path to sub.toml",
	OptLenient: "Lower to IR even when analysis reports errors",
	OptWatch:   "Rebuild when source files change",
	OptVerbose: "Verbose logging",
	OptNoColor: "Disable colored diagnostics",
	OptLang:    "Set language (en/zh)",

	OptWrite: "Write the result back to the source file",
	OptList:  "List files whose formatting differs",

	InitDesc:    "Initialize a new SUB project in the current directory.",
	InitOptName: "Project name (default: directory name)",

	ErrNoInput:      "Error: no input file specified",
	ErrReadFile:     "Error reading file: %v",
	ErrUnknownCmd:   "Unknown command: %s",
	ErrConfig:       "Error loading configuration: %v",
	ErrLogger:       "Error creating logger: %v",
	ErrCompile:      "Compilation failed: %v",
	ErrJSON:         "Error encoding IR: %v",
	ErrWatch:        "Error watching files: %v",
	ErrConfigExists: "Error: %s already exists",
	ErrCreateFile:   "Error creating file: %v",
	ErrGetWorkDir:   "Error getting working directory: %v",
	ErrFormat:       "Cannot format %s: %v",
	ErrWriteFile:    "Error writing file: %v",

	SuccessCheckOK:  "✓ %s: OK",
	SuccessBuilt:    "✓ Built %s (%d function(s))",
	InitCreating:    "Creating %s",
	InitSuccess:     "✓ Project '%s' initialized",
	InitNextSteps:   "Next steps:",
	WatchStarted:    "Watching %d file(s) for changes. Press Ctrl+C to stop.",
	WatchRebuilding: "%s changed, rebuilding...",
}

// 中文消息
var messagesZH = Messages{
	VersionTitle: "SUB 编译器 v%s",
	VersionDesc:  "解析、分析、优化 SUB 脚本并生成寄存器 IR",

	HelpUsage:    "用法:",
	HelpCommands: "命令:",
	HelpOptions:  "选项:",
	HelpExamples: "示例:",

	CmdBuild:   "编译源文件为 IR",
	CmdCheck:   "检查源文件，不生成 IR",
	CmdInit:    "在当前目录创建 sub.toml 和 main.sub",
	CmdFmt:     "格式化源文件",
	CmdRepl:    "启动交互式会话",
	CmdVersion: "显示版本信息",
	CmdHelp:    "显示帮助信息",

	OptTokens:  "显示词法分析结果",
	OptAST:     "显示优化后的语法树",
	OptIR:      "显示 IR 模块",
	OptJSON:    "以 JSON 输出 IR 模块",
	OptOpt:     "优化级别 0..3（默认取 sub.toml）",
	OptConfig:  "sub.toml 路径",
	OptLenient: "语义分析有错误时仍然生成 IR",
	OptWatch:   "源文件变化时重新编译",
	OptVerbose: "详细日志",
	OptNoColor: "诊断输出不使用颜色",
	OptLang:    "设置语言 (en/zh)",

	OptWrite: "把结果写回源文件",
	OptList:  "列出格式不一致的文件",

	InitDesc:    "在当前目录初始化一个新的 SUB 项目。",
	InitOptName: "项目名（默认为目录名）",

	ErrNoInput:      "错误: 未指定输入文件",
	ErrReadFile:     "读取文件错误: %v",
	ErrUnknownCmd:   "未知命令: %s",
	ErrConfig:       "加载配置错误: %v",
	ErrLogger:       "创建日志器错误: %v",
	ErrCompile:      "编译失败: %v",
	ErrJSON:         "IR 编码错误: %v",
	ErrWatch:        "监听文件错误: %v",
	ErrConfigExists: "错误: %s 已存在",
	ErrCreateFile:   "创建文件错误: %v",
	ErrGetWorkDir:   "获取工作目录错误: %v",
	ErrFormat:       "无法格式化 %s: %v",
	ErrWriteFile:    "写入文件错误: %v",

	SuccessCheckOK:  "✓ %s: 检查通过",
	SuccessBuilt:    "✓ 编译完成 %s（%d 个函数）",
	InitCreating:    "正在创建 %s",
	InitSuccess:     "✓ 项目 '%s' 初始化完成",
	InitNextSteps:   "下一步:",
	WatchStarted:    "正在监听 %d 个文件，按 Ctrl+C 停止。",
	WatchRebuilding: "%s 已修改，重新编译...",
}

// 当前消息
var msg = messagesEN

// InitLanguage 初始化语言设置
// 优先级: 命令行参数 > 环境变量 SUB_LANG > 操作系统语言 > 默认英文
func InitLanguage(langOverride string) {
	if langOverride != "" {
		setLanguage(langOverride)
		return
	}
	if envLang := os.Getenv("SUB_LANG"); envLang != "" {
		setLanguage(envLang)
		return
	}
	if detectChineseOS() {
		setLanguage("zh")
		return
	}
	setLanguage("en")
}

// setLanguage 同时设置界面消息和诊断消息的语言
func setLanguage(lang string) {
	l, _ := i18n.ParseLanguage(lang)
	i18n.SetLanguage(l)
	if l == i18n.LangChinese {
		msg = messagesZH
	} else {
		msg = messagesEN
	}
}

// detectChineseOS 检测操作系统是否为中文环境
func detectChineseOS() bool {
	if runtime.GOOS == "windows" && detectWindowsChinese() {
		return true
	}

	// Unix/Linux/Mac: 检查环境变量
	for _, v := range []string{"LANG", "LANGUAGE", "LC_ALL", "LC_MESSAGES"} {
		if val := strings.ToLower(os.Getenv(v)); val != "" {
			if strings.Contains(val, "zh") || strings.Contains(val, "chinese") {
				return true
			}
		}
	}
	return false
}

// Msg 获取当前消息对象
func Msg() *Messages {
	return &msg
}
