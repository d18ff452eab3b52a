// Package mcpadapter exposes the deterministic classification and
// matching engines as MCP tools over stdio, so agent hosts can query
// the pipeline without touching the mailbox or the document library.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/doc-responder/internal/core/domain"
	"github.com/kirillkom/doc-responder/internal/core/ports"
)

type Server struct {
	classifier ports.MessageClassifier
	matcher    ports.ArtifactMatcher
	mcpServer  *server.MCPServer
}

func NewServer(classifier ports.MessageClassifier, matcher ports.ArtifactMatcher) *Server {
	s := &Server{
		classifier: classifier,
		matcher:    matcher,
	}
	s.mcpServer = server.NewMCPServer("doc-responder", "1.0.0",
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	classifyTool := mcp.NewTool("classify_message",
		mcp.WithDescription("Decide whether an email asks for a completed document. Returns the verdict with confidence, matched signals, and extracted document references."),
		mcp.WithString("subject", mcp.Description("Email subject line")),
		mcp.WithString("sender", mcp.Description("Sender address, bare or in Name <addr> form")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Plain-text email body")),
	)
	s.mcpServer.AddTool(classifyTool, s.handleClassify)

	matchTool := mcp.NewTool("match_documents",
		mcp.WithDescription("Score candidate document titles against an email and its classification. Returns matches sorted by relevance with human-readable reasons."),
		mcp.WithString("subject", mcp.Description("Email subject line")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Plain-text email body")),
		mcp.WithArray("titles", mcp.Required(),
			mcp.Description("Candidate document titles, completion marker included"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	s.mcpServer.AddTool(matchTool, s.handleMatch)
}

func (s *Server) handleClassify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := req.GetString("body", "")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}

	verdict := s.classifier.Classify(ctx, domain.Message{
		Subject: req.GetString("subject", ""),
		Sender:  req.GetString("sender", ""),
		Body:    body,
	})
	return jsonResult(verdict)
}

func (s *Server) handleMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := req.GetString("body", "")
	if body == "" {
		return mcp.NewToolResultError("body is required"), nil
	}
	titles := req.GetStringSlice("titles", nil)
	if len(titles) == 0 {
		return mcp.NewToolResultError("titles is required"), nil
	}

	msg := domain.Message{
		Subject: req.GetString("subject", ""),
		Body:    body,
	}
	verdict := s.classifier.Classify(ctx, msg)

	artifacts := make([]domain.Artifact, 0, len(titles))
	for i, title := range titles {
		artifacts = append(artifacts, domain.Artifact{
			ID:    fmt.Sprintf("candidate-%d", i+1),
			Title: title,
		})
	}
	return jsonResult(s.matcher.Match(artifacts, msg, verdict))
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
