package mcp

import (
	"context"
	"encoding/json"

	"guesstimate/internal/analysis"
	"guesstimate/internal/jira"
	"guesstimate/internal/simulation"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Service is the part of the analysis service exposed as tools.
type Service interface {
	Analyze(ctx context.Context, q analysis.Query) (*analysis.Response, error)
	Refresh(ctx context.Context, q analysis.Query) (*analysis.Response, error)
	Filters(ctx context.Context, name string) ([]jira.Filter, error)
	Backtest(ctx context.Context, q analysis.Query, cfg simulation.WalkForwardConfig) (*simulation.WalkForwardResult, *string, error)
}

// Server holds the state for the MCP server.
type Server struct {
	svc        Service
	filterName string
	version    string
}

// NewServer creates a new MCP server.
func NewServer(svc Service, filterName, version string) *Server {
	if filterName == "" {
		filterName = "guesstimate"
	}
	return &Server{svc: svc, filterName: filterName, version: version}
}

// Build registers the tools on a fresh protocol server.
func (s *Server) Build() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "guesstimate",
		Version: s.version,
	}, nil)
	s.registerTools(server)
	return server
}

// Serve runs the protocol over stdio until the client disconnects or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", s.version).Msg("Starting MCP server on stdio")
	return s.Build().Run(ctx, &mcp.StdioTransport{})
}

// ResponseEnvelope wraps tool data with interpretation hints for the client.
type ResponseEnvelope struct {
	Data     any      `json:"data"`
	Insights []string `json:"insights,omitempty"`
}

func (s *Server) formatResult(data any) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}

func (s *Server) textResult(data any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: s.formatResult(data)}},
	}
}
