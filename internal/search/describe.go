package search

import (
	"errors"

	"github.com/wesm/strend/internal/shodan"
	"github.com/wesm/strend/internal/trends"
)

// Messages shown to the user for failed searches.
const (
	MsgInvalidQuery = "Invalid search query"
	MsgParseFailed  = "Failed to parse API response."
	MsgSearchFailed = "Search failed, please try again later."
	MsgTimedOut     = "Timed out, please try again later."
)

// Describe maps a search error to the line shown in the dashboard.
func Describe(err error) string {
	var (
		ve *ValidationError
		pe *trends.ParseError
		se *shodan.HTTPStatusError
		te *shodan.TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return MsgInvalidQuery
	case errors.As(err, &pe):
		return MsgParseFailed
	case errors.As(err, &se):
		return se.Message(MsgSearchFailed)
	case errors.As(err, &te):
		if te.Timeout() {
			return MsgTimedOut
		}
		return MsgSearchFailed
	default:
		return MsgSearchFailed
	}
}
