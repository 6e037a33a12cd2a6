package main

import (
	"bufio"
	"encoding/json"
	"log"
	"os"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/ralph-lsp/ralph-lsp/internal/config"
	"github.com/ralph-lsp/ralph-lsp/internal/dependency"
	"github.com/ralph-lsp/ralph-lsp/internal/workspace"
	"github.com/ralph-lsp/ralph-lsp/internal/xpls/server"
)

// serveCmd starts the language server on stdio, grounded on the teacher's
// own xpls serve command: a synchronous read/dispatch/write loop over
// jsonrpc2.VSCodeObjectCodec, rather than the async jsonrpc2.Conn/Handler
// stack the teacher's internal/xpls package left unwired.
type serveCmd struct {
	Verbose bool `help:"Enable debug logging."`
}

// Run starts serving LSP requests on stdio until the stream closes.
func (c serveCmd) Run() error { //nolint:gocyclo
	cfg, cfgErr := loadConfig()
	if cfgErr != nil {
		cfg = &config.Config{}
	}

	verbose := c.Verbose || cfg.GetLogLevel("info") == "debug"
	log := logging.NewLogrLogger(zap.New(zap.UseDevMode(verbose)))
	if cfgErr != nil {
		log.Debug("continuing with default configuration", "error", cfgErr)
	}

	dep := dependency.New(
		dependency.WithLogger(log),
		dependency.WithRoot(cfg.GetDependencyRoot(dependency.DefaultRoot)),
	)
	eng := workspace.New(workspace.WithDependencyLoader(dep), workspace.WithLogger(log))
	srv := server.New(server.WithEngine(eng), server.WithLogger(log))

	reader := bufio.NewReader(os.Stdin)
	writer := bufio.NewWriter(os.Stdout)
	codec := jsonrpc2.VSCodeObjectCodec{}

	for {
		req := &jsonrpc2.Request{}
		if err := codec.ReadObject(reader, req); err != nil {
			return err
		}
		dispatch(srv, codec, writer, req)
	}
}

func dispatch(srv *server.Server, codec jsonrpc2.VSCodeObjectCodec, writer *bufio.Writer, req *jsonrpc2.Request) {
	switch req.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		result, err := srv.Initialize(params.RootURI)
		if err != nil {
			log.Print(err)
			return
		}
		reply(codec, writer, req.ID, result)
	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		publish(codec, writer, srv.DidOpen(params.TextDocument.URI, params.TextDocument.Text))
	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		text := ""
		if len(params.ContentChanges) > 0 {
			text = params.ContentChanges[len(params.ContentChanges)-1].Text
		}
		publish(codec, writer, srv.DidChange(params.TextDocument.URI, text))
	case "textDocument/didSave":
		var params lsp.DidSaveTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		publish(codec, writer, srv.DidSave(params.TextDocument.URI))
	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		publish(codec, writer, srv.DidClose(params.TextDocument.URI))
	case "textDocument/completion":
		var params lsp.CompletionParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		result, err := srv.Completion(params.TextDocument.URI, params.Position)
		if err != nil {
			log.Print(err)
			return
		}
		reply(codec, writer, req.ID, result)
	case "textDocument/definition":
		var params lsp.TextDocumentPositionParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			log.Print(err)
			return
		}
		result, err := srv.Definition(params.TextDocument.URI, params.Position)
		if err != nil {
			log.Print(err)
			return
		}
		reply(codec, writer, req.ID, result)
	}
}

func publish(codec jsonrpc2.VSCodeObjectCodec, writer *bufio.Writer, params []lsp.PublishDiagnosticsParams, err error) {
	if err != nil {
		log.Print(err)
		return
	}
	for _, p := range params {
		notify(codec, writer, "textDocument/publishDiagnostics", p)
	}
}

func reply(codec jsonrpc2.VSCodeObjectCodec, writer *bufio.Writer, id jsonrpc2.ID, result interface{}) {
	b, err := json.Marshal(result)
	if err != nil {
		log.Print(err)
		return
	}
	raw := json.RawMessage(b)
	if err := codec.WriteObject(writer, &jsonrpc2.Response{ID: id, Result: &raw}); err != nil {
		log.Print(err)
		return
	}
	writer.Flush() //nolint:errcheck,gosec
}

func notify(codec jsonrpc2.VSCodeObjectCodec, writer *bufio.Writer, method string, params interface{}) {
	b, err := json.Marshal(params)
	if err != nil {
		log.Print(err)
		return
	}
	raw := json.RawMessage(b)
	if err := codec.WriteObject(writer, &jsonrpc2.Request{Method: method, Notif: true, Params: &raw}); err != nil {
		log.Print(err)
		return
	}
	writer.Flush() //nolint:errcheck,gosec
}

func loadConfig() (*config.Config, error) {
	src, err := config.NewFSSource()
	if err != nil {
		return nil, err
	}
	return config.Extract(src)
}
