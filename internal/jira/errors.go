package jira

import (
	"fmt"
	"strings"
)

// ValidationError reports a JQL query rejected by the Jira parser.
type ValidationError struct {
	Query    string
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ";")
}

// RetrievalError reports a failed request or page while talking to Jira.
type RetrievalError struct {
	Op      string
	StartAt int
	Err     error
}

func (e *RetrievalError) Error() string {
	if e.Op == "search" {
		return fmt.Sprintf("jira %s failed at startAt=%d: %v", e.Op, e.StartAt, e.Err)
	}
	return fmt.Sprintf("jira %s failed: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
