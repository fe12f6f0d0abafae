package jira

import (
	"encoding/json"
	"time"
)

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue in the Jira search response.
type IssueDTO struct {
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO contains the fixed fields we care about plus the raw field map,
// since the estimate lives in an instance-specific custom field.
type FieldsDTO struct {
	Created        string                     `json:"created"`
	ResolutionDate string                     `json:"resolutiondate"`
	Raw            map[string]json.RawMessage `json:"-"`
}

func (f *FieldsDTO) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Raw = raw
	if v, ok := raw["created"]; ok {
		_ = json.Unmarshal(v, &f.Created)
	}
	if v, ok := raw["resolutiondate"]; ok {
		_ = json.Unmarshal(v, &f.ResolutionDate)
	}
	return nil
}

func (f FieldsDTO) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(f.Raw)+2)
	for k, v := range f.Raw {
		out[k] = v
	}
	out["created"] = f.Created
	if f.ResolutionDate != "" {
		out["resolutiondate"] = f.ResolutionDate
	} else {
		out["resolutiondate"] = nil
	}
	return json.Marshal(out)
}

// Number decodes a numeric field; nulls and non-numbers report false.
func (f FieldsDTO) Number(field string) (float64, bool) {
	v, ok := f.Raw[field]
	if !ok {
		return 0, false
	}
	var n *float64
	if err := json.Unmarshal(v, &n); err != nil || n == nil {
		return 0, false
	}
	return *n, true
}

// ChangelogDTO contains historical transitions.
type ChangelogDTO struct {
	Histories []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type jqlParseRequest struct {
	Queries []string `json:"queries"`
}

type jqlParseResponse struct {
	Queries []struct {
		Query  string   `json:"query"`
		Errors []string `json:"errors,omitempty"`
	} `json:"queries"`
}

type filterSearchResponse struct {
	Values []Filter `json:"values"`
}

type fieldDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Custom bool   `json:"custom"`
}

// ParseTime parses the strict Jira time format, falling back to RFC 3339.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05.000-0700", s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
