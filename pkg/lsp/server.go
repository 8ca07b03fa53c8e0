// Package lsp exposes the highlighting pipeline as a language server
// speaking JSON-RPC over stdio.
package lsp

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/treehl/pkg/highlight"
	"github.com/walteh/treehl/pkg/lsp/protocol"
	"github.com/walteh/treehl/pkg/semtok"
	"gitlab.com/tozd/go/errors"
)

// Server answers LSP requests with semantic tokens produced by the
// highlight pipeline.
type Server struct {
	id        string
	fs        afero.Fs
	documents *DocumentManager

	workspace string
	provider  *highlight.Provider
	watcher   *assetWatcher

	initialized bool
	shutdown    bool
}

func NewServer(fsys afero.Fs) *Server {
	return &Server{
		id:        xid.New().String(),
		fs:        fsys,
		documents: NewDocumentManager(),
	}
}

// NewServerWithProvider bypasses workspace discovery, for callers that
// already built a provider.
func NewServerWithProvider(fsys afero.Fs, provider *highlight.Provider) *Server {
	s := NewServer(fsys)
	s.provider = provider
	return s
}

func (s *Server) Documents() *DocumentManager {
	return s.documents
}

// BuildHandlerMap wires every supported method. Unlisted methods fail
// with MethodNotFound, which clients tolerate.
func (s *Server) BuildHandlerMap() handler.Map {
	return handler.Map{
		"initialize":                       protocol.NewHandler(s.Initialize),
		"initialized":                      handler.New(func(ctx context.Context, r *jrpc2.Request) (interface{}, error) { return nil, nil }),
		"shutdown":                         protocol.NewEmptyHandler(s.Shutdown),
		"exit":                             protocol.NewEmptyHandler(s.Exit),
		"textDocument/didOpen":             protocol.NewNotificationHandler(s.DidOpen),
		"textDocument/didChange":           protocol.NewNotificationHandler(s.DidChange),
		"textDocument/didClose":            protocol.NewNotificationHandler(s.DidClose),
		"textDocument/semanticTokens/full": protocol.NewHandler(s.SemanticTokensFull),
		"workspace/didChangeConfiguration": protocol.NewNotificationHandler(s.DidChangeConfiguration),
	}
}

// BuildServerInstance creates the jrpc2 server around the handler map.
func (s *Server) BuildServerInstance(ctx context.Context, opts *jrpc2.ServerOptions) *jrpc2.Server {
	if opts == nil {
		opts = &jrpc2.ServerOptions{}
	}
	opts.NewContext = func() context.Context { return ctx }
	return jrpc2.NewServer(s.BuildHandlerMap(), opts)
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("server_id", s.id).Msg("initializing server")

	s.workspace = workspaceRoot(params)

	if s.provider == nil {
		provider, err := highlight.NewProvider(s.fs, s.workspace)
		if err != nil {
			return nil, errors.Errorf("loading workspace configuration: %w", err)
		}
		s.provider = provider
	}

	if s.workspace != "" {
		watcher, err := watchAssets(ctx, s.workspace, s.provider)
		if err != nil {
			// highlighting still works without live reload
			logger.Warn().Err(err).Msg("asset watcher unavailable")
		} else {
			s.watcher = watcher
		}
	}

	legend := s.provider.Legend()
	s.initialized = true

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindFull,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     legend.TokenTypes,
					TokenModifiers: legend.TokenModifiers,
				},
				Full: true,
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: "treehl"},
	}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	zerolog.Ctx(ctx).Debug().Msg("shutting down")
	s.shutdown = true
	return s.Close()
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

// Close releases resources held outside the request cycle.
func (s *Server) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.documents.Store(params.TextDocument.URI, &Document{
		URI:        normalizeURI(string(params.TextDocument.URI)),
		LanguageID: params.TextDocument.LanguageID,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
	})
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return errors.Errorf("document not open: %s", params.TextDocument.URI)
	}

	for _, change := range params.ContentChanges {
		if change.Range != nil {
			return errors.Errorf("incremental sync not supported: %s", params.TextDocument.URI)
		}
		doc.Content = change.Text
	}
	doc.Version = params.TextDocument.Version
	s.documents.Store(params.TextDocument.URI, doc)
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.documents.Delete(params.TextDocument.URI)
	return nil
}

func (s *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Reload(ctx)
}

// SemanticTokensFull runs the whole-document pipeline and returns the
// stream in LSP relative encoding. A failed pass surfaces as an error;
// the client keeps its stale tokens.
func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	if s.provider == nil {
		return nil, errors.Errorf("server not initialized")
	}

	doc, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, errors.Errorf("document not open: %s", params.TextDocument.URI)
	}

	tokens, err := s.provider.Highlight(ctx, doc.LanguageID, doc.Content)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("uri", doc.URI).
			Str("language", doc.LanguageID).
			Msg("highlight request failed")
		return nil, err
	}

	return &protocol.SemanticTokens{
		Data: semtok.EncodeLSP(tokens, s.provider.Legend()),
	}, nil
}

func workspaceRoot(params *protocol.InitializeParams) string {
	if params.RootURI != "" {
		return normalizeURI(string(params.RootURI))
	}
	return params.RootPath
}
