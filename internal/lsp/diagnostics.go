package lsp

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/tangzhangming/sub/internal/errors"
)

// Source 诊断来源
const Source = "sub"

// toProtocolDiagnostics 把编译器诊断转换为 LSP 诊断。
// 返回值不为 nil，空列表用于清除客户端上的旧诊断
func (d *Document) toProtocolDiagnostics(list errors.List) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(list))
	for _, diag := range list {
		out = append(out, d.toProtocolDiagnostic(diag))
	}
	return out
}

func (d *Document) toProtocolDiagnostic(diag errors.Diagnostic) protocol.Diagnostic {
	length := diag.Length
	if length <= 0 {
		length = 1
	}
	start := diag.Pos
	end := start
	end.Column += length

	message := diag.Message
	if len(diag.Hints) > 0 {
		message += "\n" + strings.Join(diag.Hints, "\n")
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: d.toProtocolPosition(start),
			End:   d.toProtocolPosition(end),
		},
		Severity: severity(diag.Level),
		Code:     diag.Code,
		Source:   Source,
		Message:  message,
	}
}

// severity 根据诊断级别返回 LSP 严重程度
func severity(level errors.Level) protocol.DiagnosticSeverity {
	switch level {
	case errors.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case errors.LevelNote:
		return protocol.DiagnosticSeverityInformation
	case errors.LevelHelp:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}
