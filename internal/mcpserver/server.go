// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the synchronization pipeline for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/links"
	"github.com/starford/raido/internal/loader"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/syncer"
)

// Server wraps the MCP server with the synchronization tools.
type Server struct {
	mcp      *server.MCPServer
	pipeline *syncer.Pipeline
	layout   *syncer.Layout
	paths    syncer.Paths
	logger   *slog.Logger
}

// New creates an MCP server with all tools registered.
func New(pipeline *syncer.Pipeline, layout *syncer.Layout, paths syncer.Paths, logger *slog.Logger) *Server {
	s := &Server{pipeline: pipeline, layout: layout, paths: paths, logger: logger}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_content",
		mcp.WithDescription("Run the vault-to-site synchronization and report what was written."),
	), s.syncContent)

	s.mcp.AddTool(mcp.NewTool("list_source_notes",
		mcp.WithDescription("List vault notes eligible for synchronization, with parsed metadata."),
		mcp.WithString("kind", mcp.Description("Which sources to list: blog, log, or all (default all)")),
	), s.listSourceNotes)

	s.mcp.AddTool(mcp.NewTool("resolve_reference",
		mcp.WithDescription("Resolve a [[wikilink]] reference to the destination URL the sync would produce."),
		mcp.WithString("reference", mcp.Required(), mcp.Description("Reference text as written inside the brackets")),
	), s.resolveReference)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the vault note format contract. "+
			"Call this before preparing notes for synchronization."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://note-format", "Vault Note Format",
			mcp.WithResourceDescription("Note format that synchronized vault notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

type passReport struct {
	Scanned   int `json:"scanned"`
	Published int `json:"published"`
	Written   int `json:"written"`
}

type syncReport struct {
	Blog passReport  `json:"blog"`
	Log  *passReport `json:"log,omitempty"`
}

func toPassReport(r *models.SyncResult) passReport {
	return passReport{
		Scanned:   r.ScannedCount,
		Published: r.PublishedCount,
		Written:   r.WrittenCount,
	}
}

func (s *Server) syncContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.pipeline.Run(s.paths)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := syncReport{Blog: toPassReport(report.Blog)}
	if report.Log != nil {
		logReport := toPassReport(report.Log)
		out.Log = &logReport
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

type noteInfo struct {
	Path      string   `json:"path"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Published bool     `json:"published"`
	Ignored   bool     `json:"ignored,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (s *Server) listSourceNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := "all"
	if k, err := req.RequireString("kind"); err == nil && k != "" {
		kind = k
	}

	var dirs []string
	switch kind {
	case "blog":
		dirs = s.paths.BlogSourceDirs
	case "log":
		dirs = s.paths.LogSourceDirs
	case "all":
		dirs = append(append([]string{}, s.paths.BlogSourceDirs...), s.paths.LogSourceDirs...)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", kind)), nil
	}

	files, err := loader.CollectMarkdownFiles(s.logger, dirs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos := make([]noteInfo, 0, len(files))
	for _, filePath := range files {
		note, err := loader.LoadNote(s.paths.VaultRoot, filePath)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		infos = append(infos, noteInfo{
			Path:      note.RelativePath,
			Title:     note.Metadata.Title,
			Slug:      note.Metadata.Slug,
			Published: note.Metadata.Published,
			Ignored:   loader.IsIgnored(note),
			Tags:      note.Metadata.Tags,
		})
	}

	data, _ := json.MarshalIndent(infos, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) resolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference, err := req.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolver, err := s.buildResolver()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dest := resolver.Resolve(reference)

	data, _ := json.MarshalIndent(map[string]string{
		"url":   dest.URL,
		"label": dest.Label,
	}, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

// buildResolver assembles the same resolution context the blog pass uses:
// materialized entries from the output tree plus the current source notes.
func (s *Server) buildResolver() (*links.Context, error) {
	blogEntries, err := syncer.DiscoverEntries(s.layout.FS(), s.layout.BlogDir())
	if err != nil {
		return nil, err
	}
	pebbleEntries, err := syncer.DiscoverEntries(s.layout.FS(), s.layout.PebbleDir())
	if err != nil {
		return nil, err
	}
	blogOutputDir, err := s.layout.FS().Abs(s.layout.BlogDir())
	if err != nil {
		return nil, err
	}
	pebbleOutputDir, err := s.layout.FS().Abs(s.layout.PebbleDir())
	if err != nil {
		return nil, err
	}

	files, err := loader.CollectMarkdownFiles(s.logger, s.paths.BlogSourceDirs)
	if err != nil {
		return nil, err
	}
	var sourceNotes []*models.NoteDocument
	for _, filePath := range files {
		note, err := loader.LoadNote(s.paths.VaultRoot, filePath)
		if err != nil {
			return nil, err
		}
		sourceNotes = append(sourceNotes, note)
	}

	return links.NewContext(links.ContextParams{
		BlogEntries:     blogEntries,
		SourceNotes:     sourceNotes,
		PebbleEntries:   pebbleEntries,
		VaultRoot:       s.paths.VaultRoot,
		BlogOutputDir:   blogOutputDir,
		PebbleOutputDir: pebbleOutputDir,
		Logger:          s.logger,
	}), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
