package jira

import (
	"slices"
	"time"
)

// MapIssue transforms a Jira DTO into a domain Issue.
// Timestamps are moved into loc so week bucketing is consistent across offsets.
func MapIssue(item IssueDTO, estimateField string, loc *time.Location) Issue {
	if loc == nil {
		loc = time.UTC
	}

	issue := Issue{Key: item.Key}

	if t, err := ParseTime(item.Fields.Created); err == nil {
		issue.Created = t.In(loc)
	}

	if item.Fields.ResolutionDate != "" {
		if t, err := ParseTime(item.Fields.ResolutionDate); err == nil {
			t = t.In(loc)
			issue.ResolutionDate = &t
		}
	}

	if estimateField != "" {
		if n, ok := item.Fields.Number(estimateField); ok {
			issue.Estimate = &n
		}
	}

	if item.Changelog != nil {
		issue.History = ProcessChangelog(item.Changelog, loc)
	}

	return issue
}

// ProcessChangelog flattens a changelog into chronologically ordered change items.
// Histories with unparsable dates are skipped.
func ProcessChangelog(changelog *ChangelogDTO, loc *time.Location) []ChangeItem {
	var items []ChangeItem
	for _, h := range changelog.Histories {
		hDate, err := ParseTime(h.Created)
		if err != nil {
			continue
		}
		hDate = hDate.In(loc)

		for _, itm := range h.Items {
			items = append(items, ChangeItem{
				Date:       hDate,
				Field:      itm.Field,
				FromString: itm.FromString,
				ToString:   itm.ToString,
			})
		}
	}

	// Jira Cloud returns newest-first, Data Center oldest-first.
	slices.SortStableFunc(items, func(a, b ChangeItem) int {
		return a.Date.Compare(b.Date)
	})

	return items
}

// MapIssues maps a page of DTOs.
func MapIssues(items []IssueDTO, estimateField string, loc *time.Location) []Issue {
	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		issues = append(issues, MapIssue(item, estimateField, loc))
	}
	return issues
}
