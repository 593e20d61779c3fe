package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/yavin-ai/yavin/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the course demos and lesson search
// as tools.
type Server struct {
	index *search.Index
	mcp   *server.MCPServer
}

// NewServer creates a new MCP server. index may be nil, in which case
// search_lessons reports that no lessons are indexed.
func NewServer(index *search.Index) *Server {
	s := &Server{index: index}

	s.mcp = server.NewMCPServer(
		"yavin",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(runGradientDescentTool, s.handleRunGradientDescent)
	s.mcp.AddTool(trainDecisionBoundaryTool, s.handleTrainDecisionBoundary)
	s.mcp.AddTool(attentionWeightsTool, s.handleAttentionWeights)
	s.mcp.AddTool(searchLessonsTool, s.handleSearchLessons)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
