package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/wesm/strend/internal/shodan"
	"github.com/wesm/strend/internal/trends"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", &ValidationError{Field: "query", Reason: "empty"}, MsgInvalidQuery},
		{"parse", &trends.ParseError{Reason: "missing total"}, MsgParseFailed},
		{"wrapped parse", fmt.Errorf("build: %w", &trends.ParseError{Reason: "x"}), MsgParseFailed},
		{"api message", &shodan.HTTPStatusError{Code: 400, Body: []byte(`{"error":"Invalid facet"}`)}, "Invalid facet"},
		{"api no message", &shodan.HTTPStatusError{Code: 502, Body: []byte(`bad gateway`)}, MsgSearchFailed},
		{"timeout", &shodan.TransportError{Err: context.DeadlineExceeded}, MsgTimedOut},
		{"transport", &shodan.TransportError{Err: errors.New("connection refused")}, MsgSearchFailed},
		{"other", errors.New("mystery"), MsgSearchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}
