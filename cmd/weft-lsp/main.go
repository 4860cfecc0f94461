// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"weft/internal/lsp"
)

const lsName = "weft"

var handler protocol.Handler

func main() {
	verbosity := flag.Int("v", 1, "Log verbosity written to -log.")
	logPath := flag.String("log", "", "Log file; logs go to stderr when empty.")
	flag.Parse()

	var path *string
	if *logPath != "" {
		path = logPath
	}
	commonlog.Configure(*verbosity, path)
	log := commonlog.GetLogger("weft.lsp")

	weftHandler := lsp.NewWeftHandler()

	handler = protocol.Handler{
		Initialize:                     weftHandler.Initialize,
		Initialized:                    weftHandler.Initialized,
		Shutdown:                       weftHandler.Shutdown,
		SetTrace:                       weftHandler.SetTrace,
		TextDocumentDidOpen:            weftHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           weftHandler.TextDocumentDidClose,
		TextDocumentDidChange:          weftHandler.TextDocumentDidChange,
		TextDocumentCompletion:         weftHandler.TextDocumentCompletion,
		TextDocumentHover:              weftHandler.TextDocumentHover,
		TextDocumentFormatting:         weftHandler.TextDocumentFormatting,
		TextDocumentSemanticTokensFull: weftHandler.TextDocumentSemanticTokensFull,
	}

	// stdio carries the protocol, so nothing else may write to stdout
	s := server.NewServer(&handler, lsName, false)

	log.Info("starting weft language server")
	if err := s.RunStdio(); err != nil {
		log.Errorf("language server stopped: %s", err)
		os.Exit(1)
	}
}
