package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wesm/strend/internal/config"
	"github.com/wesm/strend/internal/output"
	"github.com/wesm/strend/internal/shodan"
	"github.com/wesm/strend/internal/testutil"
	"github.com/wesm/strend/internal/trends"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.NewDefaultConfig(t.TempDir())
}

// stubFetcher answers from canned bodies and errors keyed by query. It is
// only read after construction, so concurrent searches are safe.
type stubFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
}

func (s stubFetcher) Search(ctx context.Context, query, facets string) ([]byte, error) {
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	if b, ok := s.bodies[query]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("unexpected query %q", query)
}

// response builds a body with one month per count and, for a facet, the
// given per-month value counts.
func response(t *testing.T, total int64, counts []int64, facet string, values map[string]int64) []byte {
	t.Helper()
	matches := make([]map[string]any, len(counts))
	buckets := make([]map[string]any, len(counts))
	for i, c := range counts {
		month := fmt.Sprintf("2022-%02d", i+1)
		matches[i] = map[string]any{"month": month, "count": c}
		var vals []map[string]any
		for v, n := range values {
			vals = append(vals, map[string]any{"value": v, "count": n})
		}
		buckets[i] = map[string]any{"key": month, "values": vals}
	}
	resp := map[string]any{"total": total, "matches": matches}
	if facet != "" {
		resp["facets"] = map[string]any{facet: buckets}
	}
	data, err := json.Marshal(resp)
	testutil.MustNoErr(t, err, "marshal")
	return data
}

func newTestPrinter() (*output.Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return output.NewPrinter(&out, &errOut, false), &out, &errOut
}

func TestExportValidate(t *testing.T) {
	tests := []struct {
		name string
		opts exportOptions
		want string
	}{
		{"no query", exportOptions{}, "at least one --query"},
		{"too many", exportOptions{Queries: []string{"a", "b", "c", "d", "e", "f"}}, "at most 5"},
		{"facets with several queries", exportOptions{Queries: []string{"a", "b"}, Facets: "os"}, "single --query"},
		{"blank query", exportOptions{Queries: []string{"a", "  "}}, "query 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("validate() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestExportAggregateToFile(t *testing.T) {
	f := stubFetcher{bodies: map[string][]byte{
		"apache": response(t, 100, []int64{10, 20}, "", nil),
		"nginx":  response(t, 50, []int64{5, 6}, "", nil),
	}}
	path := filepath.Join(t.TempDir(), "out.csv")
	p, out, _ := newTestPrinter()

	opts := exportOptions{Queries: []string{"apache", "nginx"}, Out: path}
	testutil.MustNoErr(t, runExport(context.Background(), f, opts, out, p), "runExport")

	testutil.AssertFileContent(t, path,
		"Month,query=apache&facets=,query=nginx&facets=\n"+
			"Jan 2022,10,5\n"+
			"Feb 2022,20,6\n")
	if !strings.Contains(out.String(), "Exported 2 series to "+path) {
		t.Errorf("output = %q", out.String())
	}
}

func TestExportFacetsToStdout(t *testing.T) {
	f := stubFetcher{bodies: map[string][]byte{
		"port:22": response(t, 100, []int64{10, 20}, "os", map[string]int64{"Linux": 7}),
	}}
	p, _, _ := newTestPrinter()
	var stdout bytes.Buffer

	opts := exportOptions{Queries: []string{"port:22"}, Facets: "os", Out: "-"}
	testutil.MustNoErr(t, runExport(context.Background(), f, opts, &stdout, p), "runExport")

	want := "Month,Linux\nJan 2022,7\nFeb 2022,7\n"
	if stdout.String() != want {
		t.Errorf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestExportTableOnTerminal(t *testing.T) {
	f := stubFetcher{bodies: map[string][]byte{
		"port:22": response(t, 100, []int64{10, 20}, "os", map[string]int64{"Linux": 2000}),
	}}
	p, _, _ := newTestPrinter()
	var stdout bytes.Buffer

	opts := exportOptions{Queries: []string{"port:22"}, Facets: "os", Out: "-", TTY: true}
	testutil.MustNoErr(t, runExport(context.Background(), f, opts, &stdout, p), "runExport")

	testutil.AssertContainsAll(t, stdout.String(), []string{"Month", "Linux", "Jan 2022", "2000", "Linux: 4,000 total"})
	if strings.Contains(stdout.String(), "Month,Linux") {
		t.Error("terminal output is CSV, want a table")
	}
}

func TestExportSkipsEmptyQueries(t *testing.T) {
	f := stubFetcher{bodies: map[string][]byte{
		"apache":  response(t, 100, []int64{10}, "", nil),
		"nothing": response(t, 0, nil, "", nil),
	}}
	p, _, errOut := newTestPrinter()
	var stdout bytes.Buffer

	opts := exportOptions{Queries: []string{"apache", "nothing"}, Out: "-"}
	testutil.MustNoErr(t, runExport(context.Background(), f, opts, &stdout, p), "runExport")

	if !strings.Contains(errOut.String(), `no results for "nothing"`) {
		t.Errorf("stderr = %q", errOut.String())
	}
	if stdout.String() != "Month,query=apache&facets=\nJan 2022,10\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestExportNothingToExport(t *testing.T) {
	f := stubFetcher{bodies: map[string][]byte{
		"nothing": response(t, 0, nil, "", nil),
	}}
	p, _, _ := newTestPrinter()
	path := filepath.Join(t.TempDir(), "out.csv")

	err := runExport(context.Background(), f, exportOptions{Queries: []string{"nothing"}, Out: path}, &bytes.Buffer{}, p)
	if !errors.Is(err, trends.ErrNothingToExport) {
		t.Errorf("err = %v, want ErrNothingToExport", err)
	}
	testutil.MustNotExist(t, path)
}

func TestExportSearchFailure(t *testing.T) {
	f := stubFetcher{
		bodies: map[string][]byte{"apache": response(t, 100, []int64{10}, "", nil)},
		errs: map[string]error{
			"bad": &shodan.HTTPStatusError{Code: 400, Body: []byte(`{"error":"Invalid query"}`)},
		},
	}
	p, _, _ := newTestPrinter()

	err := runExport(context.Background(), f, exportOptions{Queries: []string{"apache", "bad"}, Out: "-"}, &bytes.Buffer{}, p)
	if err == nil || !strings.Contains(err.Error(), "Invalid query") {
		t.Errorf("err = %v, want the API message", err)
	}
}
