package main

import (
	"log"

	mcpadapter "github.com/kirillkom/doc-responder/internal/adapters/mcp"
	"github.com/kirillkom/doc-responder/internal/config"
	"github.com/kirillkom/doc-responder/internal/core/classify"
	"github.com/kirillkom/doc-responder/internal/core/match"
	"github.com/kirillkom/doc-responder/internal/observability/logging"
)

// The MCP entrypoint serves only the deterministic engines over
// stdio. No mailbox, library, or database access happens here, so an
// agent host can call the tools without credentials.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("mcp", cfg.LogLevel)

	tables := classify.DefaultTables()
	if cfg.PatternsPath != "" {
		loaded, err := classify.LoadTables(cfg.PatternsPath)
		if err != nil {
			log.Fatalf("load pattern tables: %v", err)
		}
		tables = loaded
	}

	classifier := classify.New(tables, classify.WithLogger(logger))
	matcher := match.New(cfg.CompletionMarker, match.DefaultWeights())

	srv := mcpadapter.NewServer(classifier, matcher)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
