// Package search runs Shodan Trends queries in the background for the
// dashboard and turns their outcomes into user-facing messages.
package search

import (
	"fmt"
	"strings"

	"github.com/wesm/strend/internal/trends"
)

// Request is a validated search.
type Request struct {
	Query    string
	Facets   string
	Identity trends.Identity
}

// ValidationError rejects input before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewRequest trims the inputs and rejects an empty query.
func NewRequest(query, facets string) (Request, error) {
	query = strings.TrimSpace(query)
	facets = strings.TrimSpace(facets)
	if query == "" {
		return Request{}, &ValidationError{Field: "query", Reason: "empty"}
	}
	return Request{
		Query:    query,
		Facets:   facets,
		Identity: trends.NewIdentity(query, facets),
	}, nil
}
