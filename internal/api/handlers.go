package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"guesstimate/internal/analysis"
	"guesstimate/internal/jira"

	"github.com/gin-gonic/gin"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	JQL     string `json:"jql" jsonschema:"the JQL query to analyze"`
	Host    string `json:"host,omitempty" jsonschema:"Jira base URL overriding the configured one"`
	Email   string `json:"email,omitempty" jsonschema:"Jira account email for basic auth"`
	Token   string `json:"token,omitempty" jsonschema:"Jira API token for basic auth"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"ignore the memoized result of an unchanged query"`
}

// Handlers implements the HTTP routes.
type Handlers struct {
	svc    Analyzer
	opts   Options
	schema *jsonschema.Resolved
}

func mustAnalyzeSchema() *jsonschema.Resolved {
	schema, err := jsonschema.For[AnalyzeRequest](nil)
	if err != nil {
		panic(err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

func (h *Handlers) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "guesstimate",
		"version": h.opts.Version,
		"endpoints": []string{
			"GET /healthz",
			"GET /api/analyze?jql=",
			"POST /api/analyze",
			"GET /api/filters?name=",
			"GET /metrics",
		},
	})
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AnalyzeQuery serves GET /api/analyze?jql=&host=&email=&token=.
func (h *Handlers) AnalyzeQuery(c *gin.Context) {
	req := AnalyzeRequest{
		JQL:   c.Query("jql"),
		Host:  c.Query("host"),
		Email: c.Query("email"),
		Token: c.Query("token"),
	}
	req.Refresh = c.Query("refresh") == "true"
	h.analyze(c, req)
}

// AnalyzeBody serves POST /api/analyze with a schema-validated JSON body.
func (h *Handlers) AnalyzeBody(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	var instance any
	if err := json.Unmarshal(body, &instance); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.schema.Validate(instance); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	h.analyze(c, req)
}

func (h *Handlers) analyze(c *gin.Context, req AnalyzeRequest) {
	if strings.TrimSpace(req.JQL) == "" {
		writeError(c, http.StatusBadRequest, "jql is required")
		return
	}

	q := analysis.Query{JQL: req.JQL}
	if (req.Host != "" || req.Email != "" || req.Token != "") && h.opts.Connect != nil {
		q.Source, q.Identity = h.opts.Connect(req.Host, req.Email, req.Token)
	}

	run := h.svc.Analyze
	if req.Refresh {
		run = h.svc.Refresh
	}

	resp, err := run(c.Request.Context(), q)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Filters serves GET /api/filters?name=.
func (h *Handlers) Filters(c *gin.Context) {
	name := c.DefaultQuery("name", h.opts.FilterName)

	filters, err := h.svc.Filters(c.Request.Context(), name)
	if err != nil {
		writeFailure(c, err)
		return
	}
	if filters == nil {
		filters = []jira.Filter{}
	}
	c.JSON(http.StatusOK, filters)
}

func writeFailure(c *gin.Context, err error) {
	var rerr *jira.RetrievalError
	if errors.As(err, &rerr) {
		log.Warn().Err(err).Str("id", c.GetString("requestID")).Msg("Jira retrieval failed")
		writeError(c, http.StatusBadGateway, err.Error())
		return
	}
	log.Error().Err(err).Str("id", c.GetString("requestID")).Msg("Request failed")
	writeError(c, http.StatusInternalServerError, err.Error())
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
