package jira

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Issue represents the subset of Jira issue data needed for forecasting.
type Issue struct {
	Key            string
	Created        time.Time
	ResolutionDate *time.Time
	// Estimate is the size estimate (story points); nil when the field is unset.
	Estimate *float64
	// History holds every changelog item in chronological order.
	History []ChangeItem
}

// ChangeItem is a single field change taken from the issue changelog.
type ChangeItem struct {
	Date       time.Time
	Field      string
	FromString string
	ToString   string
}

// Filter is a saved Jira filter.
type Filter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	JQL  string `json:"jql"`
}

// Source is the read-side contract the analysis pipeline depends on.
type Source interface {
	ValidateJQL(ctx context.Context, jql string) error
	FetchIssues(ctx context.Context, jql string) ([]Issue, error)
	SearchFilters(ctx context.Context, name string) ([]Filter, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Jira Cloud basic auth (email + API token)
	Email    string
	APIToken string

	// Personal Access Token, takes precedence over basic auth
	Token string

	// EstimateField is either a field id (customfield_10004) or a display name (Story Points).
	EstimateField string
	PageSize      int
	RequestDelay  time.Duration
	Location      *time.Location
}

// Identity returns a string identifying the Jira connection without leaking credentials.
// The secret contributes a short SHA-256 fingerprint, so the same user with another
// token is a different connection.
func (c Config) Identity() string {
	user, secret := c.Email, c.APIToken
	if c.Token != "" {
		user, secret = "pat", c.Token
	}
	id := user + "@" + c.BaseURL
	if secret != "" {
		sum := sha256.Sum256([]byte(secret))
		id += "#" + hex.EncodeToString(sum[:6])
	}
	return id
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) *Client {
	return newRESTClient(cfg)
}
