package wdqs

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a server-side query timeout, distinguished so callers can
// suggest narrowing the query instead of showing a generic failure.
var ErrTimeout = errors.New("wdqs query timeout")

// QueryError carries the request and raw response of a failed query for
// diagnostics.
type QueryError struct {
	Query      string
	Template   string
	StatusCode int
	Body       []byte
	Timeout    bool
}

func (e *QueryError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("query timed out (status %d, template %q)", e.StatusCode, e.Template)
	}
	return fmt.Sprintf("query failed (status %d, template %q)", e.StatusCode, e.Template)
}

func (e *QueryError) Unwrap() error {
	if e.Timeout {
		return ErrTimeout
	}
	return nil
}
