// Package lsp 实现 SUB 语言服务器：打开或修改文档时执行检查并发布诊断，
// 并提供悬停与文档大纲
package lsp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/formatter"
)

// 服务器信息
const (
	ServerName    = "subls"
	ServerVersion = "0.1.0"
)

// Server LSP 服务器
type Server struct {
	driver    *driver.Driver
	documents *DocumentStore
	logger    *zap.Logger

	// 连接建立后设置
	conn   jsonrpc2.Conn
	client protocol.Client

	mu          sync.Mutex
	initialized bool
	shutdown    bool
}

// NewServer 创建 LSP 服务器。logger 为 nil 时不输出日志
func NewServer(d *driver.Driver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		driver:    d,
		documents: NewDocumentStore(),
		logger:    logger,
	}
}

// Documents 返回文档管理器
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Serve 在 rwc 上运行服务器，直到连接关闭或 ctx 结束
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.conn = conn
	s.client = protocol.ClientDispatcher(conn, s.logger)

	s.logger.Info("SUB language server started")
	conn.Go(ctx, s.handle)

	select {
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
		return ctx.Err()
	case <-conn.Done():
	}

	err := conn.Err()
	if err == nil || stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrClosedPipe) {
		s.logger.Info("client disconnected")
		return nil
	}
	return err
}

// handle 按方法分发消息
func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Debug("received", zap.String("method", req.Method()))

	switch req.Method() {
	case protocol.MethodInitialize:
		var params protocol.InitializeParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		return reply(ctx, s.initialize(&params), nil)

	case protocol.MethodInitialized:
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		s.logger.Info("server initialized")
		return reply(ctx, nil, nil)

	case protocol.MethodShutdown:
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		s.logger.Info("shutdown requested")
		return reply(ctx, nil, nil)

	case protocol.MethodExit:
		err := reply(ctx, nil, nil)
		s.conn.Close()
		return err

	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		doc := s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
		s.logger.Debug("document opened", zap.String("uri", string(doc.URI)))
		return reply(ctx, nil, s.check(ctx, doc))

	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		if len(params.ContentChanges) == 0 {
			return reply(ctx, nil, nil)
		}
		// 全量同步：最后一次变更就是完整内容
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		doc := s.documents.Update(params.TextDocument.URI, text, params.TextDocument.Version)
		if doc == nil {
			return reply(ctx, nil, nil)
		}
		return reply(ctx, nil, s.check(ctx, doc))

	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		if params.Text == "" {
			return reply(ctx, nil, nil)
		}
		doc := s.documents.Update(params.TextDocument.URI, params.Text, 0)
		if doc == nil {
			return reply(ctx, nil, nil)
		}
		return reply(ctx, nil, s.check(ctx, doc))

	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		s.documents.Close(params.TextDocument.URI)
		// 清除客户端上该文档的诊断
		err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
		return reply(ctx, nil, err)

	case protocol.MethodTextDocumentHover:
		var params protocol.HoverParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		doc := s.documents.Get(params.TextDocument.URI)
		if doc == nil {
			return reply(ctx, nil, nil)
		}
		return reply(ctx, doc.hover(params.Position), nil)

	case protocol.MethodTextDocumentDocumentSymbol:
		var params protocol.DocumentSymbolParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		doc := s.documents.Get(params.TextDocument.URI)
		if doc == nil {
			return reply(ctx, []protocol.DocumentSymbol{}, nil)
		}
		return reply(ctx, doc.documentSymbols(), nil)

	case protocol.MethodTextDocumentFormatting:
		var params protocol.DocumentFormattingParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, invalidParams(err))
		}
		doc := s.documents.Get(params.TextDocument.URI)
		if doc == nil {
			return reply(ctx, []protocol.TextEdit{}, nil)
		}
		return reply(ctx, s.format(doc, params.Options), nil)

	case "$/cancelRequest", "$/setTrace":
		return reply(ctx, nil, nil)
	}

	s.logger.Debug("method not found", zap.String("method", req.Method()))
	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func invalidParams(err error) error {
	return fmt.Errorf("%w: %s", jsonrpc2.ErrInvalidParams, err)
}

// initialize 返回服务器能力
func (s *Server) initialize(params *protocol.InitializeParams) *protocol.InitializeResult {
	s.logger.Info("initialize", zap.String("root", string(params.RootURI)))

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			HoverProvider:              true,
			DocumentSymbolProvider:     true,
			DocumentFormattingProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}
}

// check 检查文档并发布诊断
func (s *Server) check(ctx context.Context, doc *Document) error {
	res, err := s.driver.Check(ctx, driver.Unit{Name: doc.Filename(), Source: doc.Content})
	if err != nil {
		s.logger.Warn("check failed", zap.String("uri", string(doc.URI)), zap.Error(err))
		return nil
	}
	doc.Result = res

	diags := doc.toProtocolDiagnostics(res.Diagnostics)
	s.logger.Debug("publishing diagnostics",
		zap.String("uri", string(doc.URI)),
		zap.Int("count", len(diags)))

	return s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     uint32(doc.Version),
		Diagnostics: diags,
	})
}

// format 返回替换整个文档的编辑。有语法错误时不修改文档
func (s *Server) format(doc *Document, opts protocol.FormattingOptions) []protocol.TextEdit {
	options := formatter.DefaultOptions()
	if !opts.InsertSpaces {
		options.IndentStyle = "tabs"
	}
	if opts.TabSize > 0 {
		options.IndentSize = int(opts.TabSize)
	}

	formatted, err := formatter.Format(doc.Content, doc.Filename(), options)
	if err != nil {
		s.logger.Debug("format skipped", zap.String("uri", string(doc.URI)), zap.Error(err))
		return []protocol.TextEdit{}
	}
	if formatted == doc.Content {
		return []protocol.TextEdit{}
	}
	return []protocol.TextEdit{{Range: doc.fullRange(), NewText: formatted}}
}
