package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// FileSource serves issues from a saved search response (see cmd/mockgen).
// Every query is accepted and returns the whole dump.
type FileSource struct {
	path          string
	estimateField string
	loc           *time.Location
}

func NewFileSource(path, estimateField string, loc *time.Location) *FileSource {
	if estimateField == "" {
		estimateField = defaultEstimateField
	}
	if loc == nil {
		loc = time.UTC
	}
	return &FileSource{path: path, estimateField: estimateField, loc: loc}
}

func (f *FileSource) ValidateJQL(ctx context.Context, jql string) error {
	return nil
}

func (f *FileSource) FetchIssues(ctx context.Context, jql string) ([]Issue, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, &RetrievalError{Op: "read dump", Err: err}
	}

	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &RetrievalError{Op: "read dump", Err: fmt.Errorf("failed to decode %s: %w", f.path, err)}
	}

	log.Debug().Str("path", f.path).Int("issues", len(resp.Issues)).Msg("Loaded issues from dump")
	return MapIssues(resp.Issues, f.estimateField, f.loc), nil
}

func (f *FileSource) SearchFilters(ctx context.Context, name string) ([]Filter, error) {
	return nil, nil
}
