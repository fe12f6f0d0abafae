package api

import (
	"context"
	"strings"
	"time"

	"guesstimate/internal/analysis"
	"guesstimate/internal/jira"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadHeaderTimeout bounds slow clients on the HTTP server.
const ReadHeaderTimeout = 10 * time.Second

// Analyzer is the part of the analysis service the HTTP surface depends on.
type Analyzer interface {
	Analyze(ctx context.Context, q analysis.Query) (*analysis.Response, error)
	Refresh(ctx context.Context, q analysis.Query) (*analysis.Response, error)
	Filters(ctx context.Context, name string) ([]jira.Filter, error)
}

// Connector builds a per-request Jira source from host/email/token overrides and
// returns it with its memo identity.
type Connector func(host, email, token string) (jira.Source, string)

// Options configures the router.
type Options struct {
	Debug bool
	// FilterName is the default saved-filter search term.
	FilterName string
	Connect    Connector
	Version    string
}

// NewRouter wires the HTTP routes.
func NewRouter(svc Analyzer, opts Options) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.FilterName == "" {
		opts.FilterName = "guesstimate"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID(), observe())

	h := &Handlers{svc: svc, opts: opts, schema: mustAnalyzeSchema()}

	r.GET("/", h.Index)
	r.GET("/healthz", h.Healthz)
	r.GET("/api/analyze", h.AnalyzeQuery)
	r.POST("/api/analyze", h.AnalyzeBody)
	r.GET("/api/filters", h.Filters)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// JiraConnector overrides the connection fields of base that are set.
//
// The configured credentials are only ever sent to the configured host: a request that
// names another host, or brings its own email or token, authenticates with exactly what
// it supplied.
func JiraConnector(base jira.Config) Connector {
	return func(host, email, token string) (jira.Source, string) {
		cfg := base
		if host != "" && strings.TrimRight(host, "/") != strings.TrimRight(base.BaseURL, "/") {
			cfg.BaseURL = host
			cfg.Email, cfg.APIToken, cfg.Token = "", "", ""
		}
		if email != "" || token != "" {
			// Per-request credentials are the original basic-auth pair.
			cfg.Email, cfg.APIToken, cfg.Token = email, token, ""
		}
		return jira.NewClient(cfg), cfg.Identity()
	}
}
