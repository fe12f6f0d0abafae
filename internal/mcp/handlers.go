package mcp

import (
	"context"
	"fmt"
	"strings"

	"guesstimate/internal/analysis"
	"guesstimate/internal/simulation"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleAnalyzeJQL(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeJQLInput) (*mcp.CallToolResult, any, error) {
	jql := strings.TrimSpace(in.JQL)
	if jql == "" {
		return nil, nil, fmt.Errorf("jql is required")
	}

	env, err := s.analyze(ctx, jql, in.Refresh)
	if err != nil {
		return nil, nil, err
	}
	return s.textResult(env), nil, nil
}

func (s *Server) handleListFilters(ctx context.Context, req *mcp.CallToolRequest, in ListFiltersInput) (*mcp.CallToolResult, any, error) {
	name := in.Name
	if name == "" {
		name = s.filterName
	}

	filters, err := s.svc.Filters(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	env := ResponseEnvelope{Data: filters}
	if len(filters) == 0 {
		env.Insights = append(env.Insights, fmt.Sprintf("No saved filter matches %q. Save a filter with that name in Jira, or call 'analyze_jql' directly.", name))
	}
	return s.textResult(env), nil, nil
}

func (s *Server) handleAnalyzeFilter(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeFilterInput) (*mcp.CallToolResult, any, error) {
	if in.Name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}

	filters, err := s.svc.Filters(ctx, in.Name)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range filters {
		if f.Name == in.Name {
			log.Debug().Str("filter", f.Name).Str("jql", f.JQL).Msg("Resolved saved filter")
			env, err := s.analyze(ctx, f.JQL, false)
			if err != nil {
				return nil, nil, err
			}
			return s.textResult(env), nil, nil
		}
	}
	return nil, nil, fmt.Errorf("saved filter %q not found", in.Name)
}

func (s *Server) handleBacktest(ctx context.Context, req *mcp.CallToolRequest, in BacktestInput) (*mcp.CallToolResult, any, error) {
	jql := strings.TrimSpace(in.JQL)
	if jql == "" {
		return nil, nil, fmt.Errorf("jql is required")
	}

	res, rejected, err := s.svc.Backtest(ctx, analysis.Query{JQL: jql}, simulation.WalkForwardConfig{
		LookbackWeeks: in.LookbackWeeks,
		StepWeeks:     in.StepWeeks,
	})
	if err != nil {
		return nil, nil, err
	}
	if rejected != nil {
		return s.textResult(ResponseEnvelope{Data: map[string]any{"error": *rejected}}), nil, nil
	}

	env := ResponseEnvelope{Data: res, Insights: []string{res.ValidationMessage}}
	return s.textResult(env), nil, nil
}

func (s *Server) analyze(ctx context.Context, jql string, refresh bool) (ResponseEnvelope, error) {
	run := s.svc.Analyze
	if refresh {
		run = s.svc.Refresh
	}

	resp, err := run(ctx, analysis.Query{JQL: jql})
	if err != nil {
		return ResponseEnvelope{}, err
	}

	env := ResponseEnvelope{Data: resp}
	if resp.Cached {
		env.Insights = append(env.Insights, "Query unchanged since the last analysis: returning the memoized result. Set 'refresh' to recompute.")
	}
	if resp.Datasets != nil {
		if resp.Datasets.Percentiles == nil {
			env.Insights = append(env.Insights, "No forecast: the query has no open backlog or no throughput history.")
		}
		env.Insights = append(env.Insights, resp.Datasets.Warnings...)
	}
	return env, nil
}
