package trends

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
)

// Response is a decoded search response.
type Response struct {
	Total   int64
	Matches []Match
	// Facet is the aggregated facet dimension, "" when none was requested.
	Facet   string
	Buckets []FacetBucket
}

// Match is the unfiltered count for one month.
type Match struct {
	Label string
	Count int64
}

// FacetBucket holds the per-value counts for one month.
type FacetBucket struct {
	Label  string
	Values []FacetValue
}

// FacetValue is a count for one facet value. Numeric values (ports, hashes)
// are stringified.
type FacetValue struct {
	Value string
	Count int64
}

type rawResponse struct {
	Total   *int64                     `json:"total"`
	Matches []rawMatch                 `json:"matches"`
	Facets  map[string]json.RawMessage `json:"facets"`
}

type rawMatch struct {
	Month *string `json:"month"`
	Count *int64  `json:"count"`
}

type rawBucket struct {
	Key    *string    `json:"key"`
	Values []rawValue `json:"values"`
}

type rawValue struct {
	Value json.RawMessage `json:"value"`
	Count *int64          `json:"count"`
}

// ParseResponse decodes body. When facet is non-empty the bucket list under
// facets[facet] is required. Months are only validated when the total is
// non-zero.
func ParseResponse(body []byte, facet string) (*Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if raw.Total == nil {
		return nil, parseErrorf("missing total")
	}
	resp := &Response{Total: *raw.Total, Facet: facet}
	if resp.Total == 0 {
		return resp, nil
	}

	if raw.Matches == nil {
		return nil, parseErrorf("missing matches")
	}
	resp.Matches = make([]Match, len(raw.Matches))
	for i, m := range raw.Matches {
		if m.Month == nil || m.Count == nil {
			return nil, parseErrorf("match %d is missing month or count", i)
		}
		label, err := MonthLabel(*m.Month)
		if err != nil {
			return nil, err
		}
		resp.Matches[i] = Match{Label: label, Count: *m.Count}
	}

	if facet == "" {
		return resp, nil
	}
	rawBuckets, ok := raw.Facets[facet]
	if !ok {
		return nil, parseErrorf("missing facet %q", facet)
	}
	buckets, err := parseBuckets(rawBuckets)
	if err != nil {
		return nil, err
	}
	resp.Buckets = buckets
	return resp, nil
}

func parseBuckets(data json.RawMessage) ([]FacetBucket, error) {
	var raw []rawBucket
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Reason: "invalid facet buckets", Err: err}
	}
	out := make([]FacetBucket, len(raw))
	for i, b := range raw {
		if b.Key == nil {
			return nil, parseErrorf("facet bucket %d is missing key", i)
		}
		label, err := MonthLabel(*b.Key)
		if err != nil {
			return nil, err
		}
		values := make([]FacetValue, len(b.Values))
		for j, v := range b.Values {
			if v.Count == nil {
				return nil, parseErrorf("facet bucket %d value %d is missing count", i, j)
			}
			s, err := facetValueString(v.Value)
			if err != nil {
				return nil, &ParseError{Reason: "facet bucket " + strconv.Itoa(i) + " has a bad value", Err: err}
			}
			values[j] = FacetValue{Value: s, Count: *v.Count}
		}
		out[i] = FacetBucket{Label: label, Values: values}
	}
	return out, nil
}

// facetValueString accepts a JSON string or integer.
func facetValueString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", eris.New("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", eris.Wrap(err, "decode string value")
		}
		return s, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return "", eris.Wrapf(err, "value %s is not a string or integer", raw)
	}
	return strconv.FormatInt(n, 10), nil
}
