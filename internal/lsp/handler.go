package lsp

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"weft/grammar"
	"weft/internal/cfg"
	"weft/internal/directory"
	"weft/internal/lower"
)

var log = commonlog.GetLogger("weft.lsp")

// ConfigName is the file looked up next to an open document for its
// externs.
const ConfigName = "weft.hcl"

// document is the analysis state of one open file.
type document struct {
	content string
	program *grammar.Program // nil when the file does not parse
	dir     *directory.Directory
	output  *lower.Output
}

// WeftHandler implements the LSP server handlers for weft source files.
type WeftHandler struct {
	mu   sync.RWMutex
	docs map[string]*document
}

// NewWeftHandler creates and returns a new WeftHandler instance
func NewWeftHandler() *WeftHandler {
	return &WeftHandler{
		docs: make(map[string]*document),
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *WeftHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			HoverProvider:              true,
			DocumentFormattingProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *WeftHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("initialized")
	return nil
}

func (h *WeftHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

func (h *WeftHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// TextDocumentDidOpen analyzes the opened document and publishes its diagnostics
func (h *WeftHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Debugf("opened %s", params.TextDocument.URI)
	return h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

func (h *WeftHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Debugf("closed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs, path)

	return nil
}

// TextDocumentDidChange re-analyzes the document. Only full syncs are
// advertised, so the last change holds the whole text.
func (h *WeftHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed %s", params.TextDocument.URI)

	var text *string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = &c.Text
		case *protocol.TextDocumentContentChangeEventWhole:
			text = &c.Text
		case protocol.TextDocumentContentChangeEvent:
			text = &c.Text
		case *protocol.TextDocumentContentChangeEvent:
			text = &c.Text
		}
	}
	if text == nil {
		return nil
	}
	return h.update(ctx, params.TextDocument.URI, *text)
}

// TextDocumentCompletion offers keywords and every function the document
// can call.
func (h *WeftHandler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	addFunction := func(name, detail string) {
		if seen[name] {
			return
		}
		seen[name] = true
		items = append(items, protocol.CompletionItem{
			Label:  name,
			Kind:   ptrCompletionKind(protocol.CompletionItemKindFunction),
			Detail: ptrString(detail),
		})
	}

	for _, name := range doc.dir.Names() {
		entry, _ := doc.dir.Lookup(name)
		addFunction(name, "extern "+entry.Handle.Type().String())
	}
	if doc.program != nil {
		for _, item := range doc.program.Items {
			if item.Function != nil {
				addFunction(item.Function.Name, item.Function.Signature())
			}
		}
	}
	for _, kw := range keywordList {
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  ptrCompletionKind(protocol.CompletionItemKindKeyword),
		})
	}

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        items,
	}, nil
}

// TextDocumentHover shows the graphs built for the function under the
// cursor.
func (h *WeftHandler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	if doc.program == nil || doc.output == nil {
		return nil, nil
	}

	line := int(params.Position.Line) + 1
	for _, item := range doc.program.Items {
		fn := item.Function
		if fn == nil || line < fn.Pos.Line || line > fn.EndPos.Line {
			continue
		}
		lowered := doc.output.Lookup(fn.Name)
		if lowered == nil {
			return nil, nil
		}
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: "```\n" + cfg.Print(lowered.Result) + "```",
			},
			Range: &protocol.Range{
				Start: protocol.Position{Line: uint32(fn.Pos.Line - 1), Character: uint32(fn.Pos.Column - 1)},
				End:   protocol.Position{Line: uint32(fn.EndPos.Line - 1), Character: uint32(fn.EndPos.Column - 1)},
			},
		}, nil
	}
	return nil, nil
}

// TextDocumentFormatting replaces the document with its canonical
// rendering. Documents that do not parse are left alone.
func (h *WeftHandler) TextDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	if doc.program == nil {
		return nil, nil
	}

	formatted := doc.program.String()
	if formatted == doc.content {
		return []protocol.TextEdit{}, nil
	}
	return []protocol.TextEdit{{
		Range:   protocol.Range{Start: protocol.Position{}, End: endOf(doc.content)},
		NewText: formatted,
	}}, nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *WeftHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	path, _ := uriToPath(params.TextDocument.URI)
	tokens := collectSemanticTokens(path, doc.content)

	data := []uint32{}
	var prevLine, prevStart uint32

	// Encode tokens into LSP wire format (using delta-line, delta-start compression)
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}

		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))

		prevLine = token.Line
		prevStart = token.StartChar
	}

	return &protocol.SemanticTokens{
		Data: data,
	}, nil
}

// document returns the analysis of uri, reading the file from disk when
// the client has not opened it.
func (h *WeftHandler) document(ctx *glsp.Context, uri protocol.DocumentUri) (*document, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	doc, ok := h.docs[path]
	h.mu.RUnlock()
	if ok {
		return doc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := h.update(ctx, uri, string(content)); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.docs[path], nil
}

// update analyzes content as the new text of uri and publishes the
// diagnostics found.
func (h *WeftHandler) update(ctx *glsp.Context, uri protocol.DocumentUri, content string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}

	dir := h.loadDirectory(ctx, filepath.Join(filepath.Dir(path), ConfigName))
	doc := &document{content: content, dir: dir}
	diagnostics := []protocol.Diagnostic{}

	program, err := grammar.ParseString(path, content)
	if err != nil {
		diagnostics = append(diagnostics, ConvertParseError(err)...)
	} else {
		doc.program = program
		doc.output = lower.Lower(program, dir)
		diagnostics = append(diagnostics, ConvertProblems(doc.output.Problems)...)
		diagnostics = append(diagnostics, ConvertProblems(doc.output.Validate())...)
	}

	h.mu.Lock()
	h.docs[path] = doc
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, uri, diagnostics)
	return nil
}

// loadDirectory reads the externs of the configuration file at path. A
// missing file gives an empty directory. A broken one also gives an empty
// directory, and its problems are published against the file itself.
func (h *WeftHandler) loadDirectory(ctx *glsp.Context, path string) *directory.Directory {
	if _, err := os.Stat(path); err != nil {
		return directory.New()
	}

	config, err := directory.LoadFile(path)
	var dir *directory.Directory
	if err == nil {
		dir, err = directory.FromConfig(config)
	}
	if err != nil {
		log.Warningf("ignoring %s: %s", path, err)
		sendDiagnosticNotification(ctx, pathToURI(path), convertAll(directory.Problems(err), "weft-config"))
		return directory.New()
	}
	return dir
}

// endOf returns the position just past the last character of content.
func endOf(content string) protocol.Position {
	lines := strings.Split(content, "\n")
	last := lines[len(lines)-1]
	return protocol.Position{Line: uint32(len(lines) - 1), Character: uint32(len(last))}
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func pathToURI(path string) protocol.DocumentUri {
	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return protocol.DocumentUri((&url.URL{Scheme: "file", Path: slashed}).String())
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if encoded, err := json.Marshal(diagnostics); err == nil {
		log.Debugf("diagnostics for %s: %s", uri, encoded)
	}

	if ctx == nil || ctx.Notify == nil {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrString(s string) *string {
	return &s
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

func ptrCompletionKind(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}
