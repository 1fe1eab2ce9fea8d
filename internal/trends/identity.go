package trends

import (
	"net/url"
	"strings"
)

// Identity names a query by the form encoding of its trimmed query text and
// facet spec, e.g. "query=nginx&facets=os%3A5". Inputs that encode the same
// way share saved charts and cached selections.
type Identity string

// NewIdentity builds the identity for a query and facet spec.
func NewIdentity(query, facets string) Identity {
	var sb strings.Builder
	sb.WriteString("query=")
	sb.WriteString(url.QueryEscape(strings.TrimSpace(query)))
	sb.WriteString("&facets=")
	sb.WriteString(url.QueryEscape(strings.TrimSpace(facets)))
	return Identity(sb.String())
}

func (id Identity) String() string { return string(id) }

func (id Identity) values() url.Values {
	v, err := url.ParseQuery(string(id))
	if err != nil {
		return url.Values{}
	}
	return v
}

// Query returns the decoded query text.
func (id Identity) Query() string { return id.values().Get("query") }

// Facets returns the decoded facet spec.
func (id Identity) Facets() string { return id.values().Get("facets") }

// FacetName returns the facet dimension that gets aggregated for this
// identity, or "" when none was requested.
func (id Identity) FacetName() string { return FirstFacet(id.Facets()) }

// FirstFacet extracts the dimension name from a facet spec: only the first
// comma-separated term is used and any ":count" hint is dropped.
func FirstFacet(spec string) string {
	term, _, _ := strings.Cut(spec, ",")
	name, _, _ := strings.Cut(term, ":")
	return strings.TrimSpace(name)
}
