package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

// AnalyzeJQLInput is the input of analyze_jql.
type AnalyzeJQLInput struct {
	JQL     string `json:"jql" jsonschema:"the JQL query selecting the issues to analyze"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"recompute even if the query is unchanged"`
}

// ListFiltersInput is the input of list_filters.
type ListFiltersInput struct {
	Name string `json:"name,omitempty" jsonschema:"saved filter name to search for; defaults to the configured filter name"`
}

// AnalyzeFilterInput is the input of analyze_filter.
type AnalyzeFilterInput struct {
	Name string `json:"name" jsonschema:"exact name of the saved filter whose JQL is analyzed"`
}

// BacktestInput is the input of backtest_jql.
type BacktestInput struct {
	JQL           string `json:"jql" jsonschema:"the JQL query selecting the issues to backtest"`
	LookbackWeeks int    `json:"lookback_weeks,omitempty" jsonschema:"how many weeks back the earliest checkpoint may be (default 26)"`
	StepWeeks     int    `json:"step_weeks,omitempty" jsonschema:"weeks between checkpoints (default 2)"`
}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "analyze_jql",
		Description: "Analyze the issues selected by a JQL query: weekly new/done/todo timeline, cycle time by story points, " +
			"and a Monte-Carlo forecast of when the open backlog is cleared (20/50/80% confidence bands).\n\n" +
			"The forecast samples historical weekly THROUGHPUT only. If the query is rejected by Jira, the result carries an 'error' message instead of datasets. " +
			"Repeating the same query returns the memoized result ('cached': true) unless 'refresh' is set.",
	}, s.handleAnalyzeJQL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_filters",
		Description: "List saved Jira filters matching a name, with their JQL. Use 'analyze_filter' or 'analyze_jql' next.",
	}, s.handleListFilters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_filter",
		Description: "Analyze the JQL of a saved Jira filter, found by its exact name. Same output as 'analyze_jql'.",
	}, s.handleAnalyzeFilter)

	mcp.AddTool(server, &mcp.Tool{
		Name: "backtest_jql",
		Description: "Walk-forward backtest of the forecast: replays the history of a JQL query at past checkpoints and reports " +
			"how often the actual completion week fell within the predicted P10-P95 cone. Use it to judge how far the forecast can be trusted.",
	}, s.handleBacktest)
}
