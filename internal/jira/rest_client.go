package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"guesstimate/internal/metrics"

	"github.com/rs/zerolog/log"
)

const defaultEstimateField = "customfield_10004"

// Client talks to the Jira REST API v2 (Cloud and Data Center).
type Client struct {
	cfg        Config
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time

	fieldMu       sync.Mutex
	resolvedField string
}

func newRESTClient(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.EstimateField == "" {
		cfg.EstimateField = defaultEstimateField
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *Client) throttle() {
	if c.cfg.RequestDelay <= 0 {
		return
	}
	c.throttleMu.Lock()
	defer c.throttleMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func (c *Client) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Jira Cloud: email + API token
	if c.cfg.Email != "" || c.cfg.APIToken != "" {
		req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	}
}

// do performs a JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any, out any) error {
	if c.cfg.BaseURL == "" {
		return fmt.Errorf("Jira base URL is not configured")
	}

	c.throttle()

	reqURL := c.cfg.BaseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authenticateRequest(req)

	log.Debug().Str("method", method).Str("url", reqURL).Msg("Jira request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordJiraRequest(endpoint, "error")
		return err
	}
	defer resp.Body.Close()
	metrics.RecordJiraRequest(endpoint, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("Jira authentication failed (%d). Please check your email and API token.", resp.StatusCode)
		case http.StatusNotFound:
			return fmt.Errorf("Jira endpoint %s not found (404). Please check the Jira URL.", endpoint)
		case http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			if retryAfter != "" {
				return fmt.Errorf("Jira rate limit exceeded (429). Retry after %s seconds.", retryAfter)
			}
			return fmt.Errorf("Jira rate limit exceeded (429).")
		default:
			return fmt.Errorf("Jira API returned status %d. Please check Jira availability.", resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode Jira response from %s: %w", endpoint, err)
	}
	return nil
}

// ValidateJQL asks the Jira parser whether jql is valid.
func (c *Client) ValidateJQL(ctx context.Context, jql string) error {
	var result jqlParseResponse
	err := c.do(ctx, http.MethodPost, "/rest/api/2/jql/parse", nil, jqlParseRequest{Queries: []string{jql}}, &result)
	if err != nil {
		return &RetrievalError{Op: "validate", Err: err}
	}
	if len(result.Queries) == 0 {
		return &RetrievalError{Op: "validate", Err: fmt.Errorf("empty parser response")}
	}
	if errs := result.Queries[0].Errors; len(errs) > 0 {
		return &ValidationError{Query: jql, Messages: errs}
	}
	return nil
}

// SearchIssues fetches a single page of issues including their changelog.
func (c *Client) SearchIssues(ctx context.Context, jql string, fieldID string, startAt, maxResults int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("fields", strings.Join([]string{"resolutiondate", "created", fieldID}, ","))
	params.Set("expand", "changelog,names")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startAt", strconv.Itoa(startAt))

	var result SearchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/search", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchIssues resolves every page of jql. Any failed page aborts the fetch.
func (c *Client) FetchIssues(ctx context.Context, jql string) ([]Issue, error) {
	fieldID, err := c.EstimateFieldID(ctx)
	if err != nil {
		return nil, &RetrievalError{Op: "field lookup", Err: err}
	}

	var issues []Issue
	startAt := 0
	for {
		page, err := c.SearchIssues(ctx, jql, fieldID, startAt, c.cfg.PageSize)
		if err != nil {
			return nil, &RetrievalError{Op: "search", StartAt: startAt, Err: err}
		}

		if len(page.Issues) == 0 && startAt < page.Total {
			return nil, &RetrievalError{Op: "search", StartAt: startAt,
				Err: fmt.Errorf("empty page with %d of %d issues fetched", startAt, page.Total)}
		}

		issues = append(issues, MapIssues(page.Issues, fieldID, c.cfg.Location)...)
		startAt += len(page.Issues)

		log.Debug().Int("fetched", startAt).Int("total", page.Total).Msg("Fetched Jira page")

		if startAt >= page.Total {
			break
		}
	}

	log.Info().Int("issues", len(issues)).Msg("Fetched issues from Jira")
	return issues, nil
}

// SearchFilters lists saved filters whose name matches name.
func (c *Client) SearchFilters(ctx context.Context, name string) ([]Filter, error) {
	params := url.Values{}
	params.Set("filterName", name)
	params.Set("expand", "jql")

	var result filterSearchResponse
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/filter/search", params, nil, &result); err != nil {
		return nil, &RetrievalError{Op: "filter search", Err: err}
	}
	return result.Values, nil
}

// systemEstimateFields are built-in numeric field ids usable without a lookup.
var systemEstimateFields = map[string]bool{
	"timeoriginalestimate":          true,
	"timeestimate":                  true,
	"timespent":                     true,
	"aggregatetimeoriginalestimate": true,
	"aggregatetimeestimate":         true,
	"aggregatetimespent":            true,
}

// EstimateFieldID resolves the configured estimate field to a field id.
// Anything but a custom or system field id is looked up once via the field list,
// matching the display name ("Story Points", "Estimate") or the id.
func (c *Client) EstimateFieldID(ctx context.Context) (string, error) {
	name := c.cfg.EstimateField
	if strings.HasPrefix(name, "customfield_") || systemEstimateFields[name] {
		return name, nil
	}

	c.fieldMu.Lock()
	defer c.fieldMu.Unlock()
	if c.resolvedField != "" {
		return c.resolvedField, nil
	}

	var fields []fieldDTO
	if err := c.do(ctx, http.MethodGet, "/rest/api/2/field", nil, nil, &fields); err != nil {
		return "", err
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) || f.ID == name {
			c.resolvedField = f.ID
			log.Debug().Str("name", name).Str("id", f.ID).Msg("Resolved estimate field")
			return f.ID, nil
		}
	}
	return "", fmt.Errorf("estimate field %q not found", name)
}
