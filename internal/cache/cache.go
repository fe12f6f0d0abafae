package cache

import (
	"context"
	"time"

	"guesstimate/internal/datasets"
)

// Entry is the memoized result of the last analysis.
type Entry struct {
	Key      string             `json:"key"`
	Datasets *datasets.Datasets `json:"datasets,omitempty"`
	// Error is the validation message of a rejected query.
	Error    *string   `json:"error,omitempty"`
	StoredAt time.Time `json:"storedAt"`
}

// Store is a single-slot memo: saving an entry replaces the previous one,
// and Load only returns the slot when its key matches.
type Store interface {
	Load(ctx context.Context, key string) (*Entry, error)
	Save(ctx context.Context, entry Entry) error
	Reset(ctx context.Context) error
}

// Key identifies a query against a specific Jira connection.
func Key(identity, jql string) string {
	return identity + "|" + jql
}
