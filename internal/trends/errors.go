package trends

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrNoResults means the API reported a total of zero. It is not shown
	// as an error; no chart is built or stored.
	ErrNoResults = eris.New("no results")

	// ErrNothingToExport is returned for an export table without series.
	ErrNothingToExport = eris.New("nothing to export")
)

// ParseError reports a response body that does not have the expected shape.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse response: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}
