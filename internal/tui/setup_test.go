package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/wesm/strend/internal/search"
)

// ansiStart is the escape sequence prefix found in styled terminal output.
const ansiStart = "\x1b["

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output. It acquires colorProfileMu to prevent data races with
// parallel tests and restores the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// fakeFetcher answers searches from canned bodies keyed by query. An
// optional gate holds every search until it is closed.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
	gate   chan struct{}
}

func (f *fakeFetcher) Search(ctx context.Context, query, facets string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	body, err := f.bodies[query], f.errs[query]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("no canned response for %q", query)
	}
	return body, nil
}

func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// trendsBody builds a search response with one month per count. When
// facetValues is non-empty every month carries each value, earlier values
// with larger counts.
func trendsBody(t *testing.T, total int64, counts []int64, facet string, facetValues ...string) []byte {
	t.Helper()
	matches := make([]map[string]any, len(counts))
	buckets := make([]map[string]any, len(counts))
	for i, c := range counts {
		month := fmt.Sprintf("2021-%02d", i%12+1)
		matches[i] = map[string]any{"month": month, "count": c}
		values := make([]map[string]any, len(facetValues))
		for j, v := range facetValues {
			values[j] = map[string]any{"value": v, "count": int64(1000 * (len(facetValues) - j))}
		}
		buckets[i] = map[string]any{"key": month, "values": values}
	}
	resp := map[string]any{"total": total, "matches": matches}
	if facet != "" {
		resp["facets"] = map[string]any{facet: buckets}
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// TestModelBuilder helps construct Model instances for testing.
type TestModelBuilder struct {
	fetcher      *fakeFetcher
	width        int
	height       int
	query        string
	facets       string
	exportPath   string
	statusTicks  int
	tickInterval time.Duration
}

// NewBuilder creates a builder with a default 120x40 terminal.
func NewBuilder() *TestModelBuilder {
	return &TestModelBuilder{
		fetcher: &fakeFetcher{
			bodies: make(map[string][]byte),
			errs:   make(map[string]error),
		},
		width:  120,
		height: 40,
	}
}

func (b *TestModelBuilder) WithResponse(query string, body []byte) *TestModelBuilder {
	b.fetcher.bodies[query] = body
	return b
}

func (b *TestModelBuilder) WithError(query string, err error) *TestModelBuilder {
	b.fetcher.errs[query] = err
	return b
}

// WithGate holds every search until gate is closed.
func (b *TestModelBuilder) WithGate(gate chan struct{}) *TestModelBuilder {
	b.fetcher.gate = gate
	return b
}

func (b *TestModelBuilder) WithSize(width, height int) *TestModelBuilder {
	b.width = width
	b.height = height
	return b
}

func (b *TestModelBuilder) WithInitialQuery(query, facets string) *TestModelBuilder {
	b.query = query
	b.facets = facets
	return b
}

func (b *TestModelBuilder) WithExportPath(path string) *TestModelBuilder {
	b.exportPath = path
	return b
}

func (b *TestModelBuilder) WithStatusTicks(n int) *TestModelBuilder {
	b.statusTicks = n
	return b
}

func (b *TestModelBuilder) Build() Model {
	coord := search.NewCoordinator(b.fetcher)
	m := New(coord, Options{
		Query:        b.query,
		Facets:       b.facets,
		ExportPath:   b.exportPath,
		TickInterval: b.tickInterval,
		StatusTicks:  b.statusTicks,
	})
	m.width = b.width
	m.height = b.height
	m.help.Width = b.width
	m.resizeInputs()
	return m
}

// sendKey sends a key message to the model and returns the updated concrete Model.
func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

// sendMsg sends any tea.Msg through Update and returns the concrete Model.
func sendMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

// settle ticks the model until the in-flight search has been applied.
func settle(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.coord.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("search did not finish")
		}
		m, _ = sendMsg(t, m, tickMsg(time.Now()))
		if m.coord.Busy() {
			time.Sleep(2 * time.Millisecond)
		}
	}
	return m
}

// runSearch focuses the inputs, types query and facets, submits and waits
// for the result.
func runSearch(t *testing.T, m Model, query, facets string) Model {
	t.Helper()
	m = focusPanel(t, m, panelQuery)
	m.queryInput.SetValue("")
	m.facetInput.SetValue("")
	m, _ = sendKey(t, m, typed(query))
	m, _ = sendKey(t, m, keyTab())
	if facets != "" {
		m, _ = sendKey(t, m, typed(facets))
	}
	m, _ = sendKey(t, m, keyEnter())
	if !m.coord.Busy() {
		t.Fatalf("submitting %q did not dispatch a search (err %q)", query, m.state.Err())
	}
	return settle(t, m)
}

// focusPanel moves focus straight to p.
func focusPanel(t *testing.T, m Model, p panel) Model {
	t.Helper()
	newM, _ := m.setFocus(p)
	return newM.(Model)
}

// runCmd executes cmd and returns its message, or nil for a nil cmd.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// Key message helpers for common keys.

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyEnter() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func keyEsc() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

func keyTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyTab}
}

func keyShiftTab() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyShiftTab}
}

func keyUp() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyUp}
}

func keyDown() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyDown}
}

func keyLeft() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyLeft}
}

func keyCtrlE() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlE}
}

func keyCtrlC() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyCtrlC}
}
