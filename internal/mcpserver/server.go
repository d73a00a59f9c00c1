// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/calder/inkwell/internal/apperr"
	"github.com/calder/inkwell/internal/docservice"
	"github.com/calder/inkwell/internal/workspace"
)

// Server wraps the MCP server with Inkwell tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
	ws  *workspace.Manager
}

// New creates a new MCP server with all Inkwell tools registered.
func New(svc *docservice.Service, ws *workspace.Manager) *Server {
	s := &Server{svc: svc, ws: ws}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Text search through document content, titles, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full markdown content of a document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. drafts/essay.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Create or overwrite a document with markdown content. "+
			"Content MUST follow the canonical document format (YAML frontmatter with "+
			"title, the extended span dialect for inline marks). Read the contract "+
			"first via the get_document_contract tool or the inkwell://document-format "+
			"resource. Pass if_match with the current checksum to guard against "+
			"overwriting concurrent edits."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the document (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Inkwell document format contract")),
		mcp.WithString("if_match", mcp.Description("Optional SHA-256 checksum of the expected current content")),
	), s.saveDocument)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical Inkwell document format contract. "+
			"Call this before creating or updating documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List indexed documents with title and word count."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("List the snapshot history of a document, newest first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
	), s.listVersions)

	s.mcp.AddTool(mcp.NewTool("restore_version",
		mcp.WithDescription("Restore a document to an earlier snapshot. The current "+
			"content is snapshotted first, so the restore is undoable."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document")),
		mcp.WithNumber("timestamp", mcp.Required(), mcp.Description("Snapshot timestamp in epoch milliseconds, from list_versions")),
	), s.restoreVersion)

	s.mcp.AddTool(mcp.NewTool("get_workspace",
		mcp.WithDescription("Returns the workspace tree: document references and folders."),
	), s.getWorkspace)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("inkwell://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical markdown document format that all documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.LoadDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(doc.Content)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ifMatch := ""
	if v, err := req.RequireString("if_match"); err == nil {
		ifMatch = v
	}

	doc, err := s.svc.SaveMarkdown(ctx, path, []byte(content), ifMatch)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return mcp.NewToolResultError("checksum mismatch: the document changed since you read it"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s (checksum %s)", path, doc.Checksum)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := ""
	if v, err := req.RequireString("tag"); err == nil {
		tag = v
	}

	items, _, err := s.svc.ListDocuments(ctx, 200, 0, tag, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, d := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d words", d.Path, d.Title, d.WordCount))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no documents"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vs, err := s.svc.ListVersions(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(vs) == 0 {
		return mcp.NewToolResultText("no versions"), nil
	}
	out, _ := json.MarshalIndent(vs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) restoreVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ts, err := req.RequireFloat("timestamp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.RestoreVersion(ctx, path, int64(ts))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no such snapshot for %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored: %s (checksum %s)", path, doc.Checksum)), nil
}

func (s *Server) getWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.ws.Snapshot()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "inkwell://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
