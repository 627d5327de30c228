package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks a 200 response whose body could not be used as a page.
var ErrMalformedResponse = errors.New("malformed table rows response")

// ErrNoSources is returned when a refresh is requested with nothing configured.
var ErrNoSources = errors.New("no sources configured")

// PageFetchError is a transport, HTTP or decoding failure for a single page.
type PageFetchError struct {
	Source     string
	Cursor     string
	StatusCode int
	Cause      error
}

func (e *PageFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page for %s (cursor %q): status %d: %v", e.Source, e.Cursor, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("fetch page for %s (cursor %q): %v", e.Source, e.Cursor, e.Cause)
}

func (e *PageFetchError) Unwrap() error { return e.Cause }

// RetrievalError means a source used up its retry budget.
type RetrievalError struct {
	Source   string
	Cause    error
	Attempts int
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval for %s failed after %d attempts: %v", e.Source, e.Attempts, e.Cause)
}

func (e *RetrievalError) Unwrap() error { return e.Cause }

// AggregateRefreshError collects every source failure of one refresh cycle.
type AggregateRefreshError struct {
	Failures []*RetrievalError
}

func (e *AggregateRefreshError) Error() string {
	return e.Summary()
}

// Summary joins the failure messages into one user-facing line.
func (e *AggregateRefreshError) Summary() string {
	if e == nil || len(e.Failures) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *AggregateRefreshError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
