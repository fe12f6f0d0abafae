package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guesstimate/internal/analysis"
	"guesstimate/internal/datasets"
	"guesstimate/internal/jira"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	resp      *analysis.Response
	err       error
	filters   []jira.Filter
	lastQuery analysis.Query
	refreshed bool
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, q analysis.Query) (*analysis.Response, error) {
	f.lastQuery = q
	return f.resp, f.err
}

func (f *fakeAnalyzer) Refresh(ctx context.Context, q analysis.Query) (*analysis.Response, error) {
	f.refreshed = true
	return f.Analyze(ctx, q)
}

func (f *fakeAnalyzer) Filters(ctx context.Context, name string) ([]jira.Filter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.filters, nil
}

type stubSource struct{ jira.Source }

func setupTestRouter(t *testing.T, svc *fakeAnalyzer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, Options{
		Debug: true,
		Connect: func(host, email, token string) (jira.Source, string) {
			return stubSource{}, email + "@" + host
		},
	})
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{})
	rec := do(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestAnalyzeQuery(t *testing.T) {
	svc := &fakeAnalyzer{resp: &analysis.Response{RunID: "r1", Datasets: &datasets.Datasets{
		All: []datasets.Bubble{{X: 2, Y: 3, R: 3}},
	}}}
	r := setupTestRouter(t, svc)

	rec := do(r, http.MethodGet, "/api/analyze?jql=project%20%3D%20P", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["error"])
	assert.Equal(t, "project = P", svc.lastQuery.JQL)
	assert.Nil(t, svc.lastQuery.Source, "no override without host/email/token")

	ds := body["datasets"].(map[string]any)
	assert.Len(t, ds["all"], 1)
}

func TestAnalyzeQuery_ConnectionOverride(t *testing.T) {
	svc := &fakeAnalyzer{resp: &analysis.Response{}}
	r := setupTestRouter(t, svc)

	rec := do(r, http.MethodGet, "/api/analyze?jql=x&host=https://other&email=me@x&token=t", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, svc.lastQuery.Source)
	assert.Equal(t, "me@x@https://other", svc.lastQuery.Identity)
}

func TestAnalyzeQuery_MissingJQL(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{})
	rec := do(r, http.MethodGet, "/api/analyze", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "jql is required")
}

func TestAnalyze_ValidationErrorIsOK(t *testing.T) {
	msg := "Field 'foo' does not exist"
	r := setupTestRouter(t, &fakeAnalyzer{resp: &analysis.Response{Error: &msg}})

	rec := do(r, http.MethodGet, "/api/analyze?jql=foo", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), msg)
}

func TestAnalyze_RetrievalErrorIsBadGateway(t *testing.T) {
	svc := &fakeAnalyzer{err: &jira.RetrievalError{Op: "search", StartAt: 200, Err: errors.New("timeout")}}
	r := setupTestRouter(t, svc)

	rec := do(r, http.MethodGet, "/api/analyze?jql=x", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "startAt=200")
}

func TestAnalyze_OtherErrorIsInternal(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{err: errors.New("boom")})

	rec := do(r, http.MethodGet, "/api/analyze?jql=x", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyzeBody(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantRefresh bool
	}{
		{"valid", `{"jql":"project = P"}`, http.StatusOK, false},
		{"refresh", `{"jql":"project = P","refresh":true}`, http.StatusOK, true},
		{"missing jql", `{"host":"https://jira"}`, http.StatusBadRequest, false},
		{"wrong type", `{"jql":5}`, http.StatusBadRequest, false},
		{"not json", `jql=x`, http.StatusBadRequest, false},
		{"blank jql", `{"jql":"  "}`, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAnalyzer{resp: &analysis.Response{}}
			r := setupTestRouter(t, svc)

			rec := do(r, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantRefresh, svc.refreshed)
		})
	}
}

func TestFilters(t *testing.T) {
	svc := &fakeAnalyzer{filters: []jira.Filter{{ID: "1", Name: "guesstimate", JQL: "project = P"}}}
	r := setupTestRouter(t, svc)

	rec := do(r, http.MethodGet, "/api/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var filters []jira.Filter
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filters))
	assert.Equal(t, "project = P", filters[0].JQL)
}

func TestFilters_Empty(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{})

	rec := do(r, http.MethodGet, "/api/filters?name=none", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupTestRouter(t, &fakeAnalyzer{})
	do(r, http.MethodGet, "/healthz", "")

	rec := do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guesstimate_http_requests_total")
}

func TestJiraConnector(t *testing.T) {
	base := jira.Config{BaseURL: "https://base", Token: "pat"}
	connect := JiraConnector(base)

	src, identity := connect("https://other", "me@x", "secret")
	assert.IsType(t, &jira.Client{}, src)
	assert.Equal(t, jira.Config{BaseURL: "https://other", Email: "me@x", APIToken: "secret"}.Identity(), identity)
	assert.NotContains(t, identity, "secret")

	_, identity = connect("", "", "")
	assert.Equal(t, base.Identity(), identity)

	_, identity = connect("https://base/", "", "")
	assert.Equal(t, base.Identity(), identity, "the configured host keeps its credentials")
}

func TestJiraConnector_HostOnlyOverrideDropsCredentials(t *testing.T) {
	var authHeaders []string
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"queries": []any{map[string]any{"query": "x"}}})
	}))
	defer other.Close()

	connect := JiraConnector(jira.Config{BaseURL: "https://jira.example.com", Token: "SERVER-PAT", Email: "svc@example.com", APIToken: "SERVER-TOKEN"})

	src, identity := connect(other.URL, "", "")
	require.NoError(t, src.ValidateJQL(context.Background(), "x"))
	require.Len(t, authHeaders, 1)
	assert.Empty(t, authHeaders[0], "configured credentials must not reach another host")
	assert.Equal(t, "@"+other.URL, identity)

	// Request credentials against the configured host replace the server's PAT.
	own := JiraConnector(jira.Config{BaseURL: other.URL, Token: "SERVER-PAT"})
	src, _ = own("", "me@example.com", "mine")
	require.NoError(t, src.ValidateJQL(context.Background(), "x"))
	require.Len(t, authHeaders, 2)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("me@example.com:mine")), authHeaders[1])
}
