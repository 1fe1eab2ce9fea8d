package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wesm/strend/internal/apikey"
	"github.com/wesm/strend/internal/shodan"
	"github.com/wesm/strend/internal/testutil"
)

type validatorFunc func(ctx context.Context) error

func (f validatorFunc) ValidateKey(ctx context.Context) error { return f(ctx) }

func TestRunInitStoresValidKey(t *testing.T) {
	store, err := apikey.NewStore(filepath.Join(t.TempDir(), "shodan"))
	testutil.MustNoErr(t, err, "NewStore")
	p, out, _ := newTestPrinter()

	ok := validatorFunc(func(context.Context) error { return nil })
	testutil.MustNoErr(t, runInit(context.Background(), "abc123", ok, store, p), "runInit")

	testutil.AssertFileContent(t, store.Path(), "abc123")
	testutil.AssertContainsAll(t, out.String(), []string{"Successfully initialized API key", store.Path()})
}

func TestRunInitRejectsInvalidKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "api message",
			err:  &shodan.HTTPStatusError{Code: 401, Body: []byte(`{"error":"Please upgrade your API plan"}`)},
			want: "Please upgrade your API plan",
		},
		{
			name: "fallback",
			err:  &shodan.HTTPStatusError{Code: 401, Body: []byte("<html>")},
			want: "Invalid API key",
		},
		{
			name: "transport",
			err:  &shodan.TransportError{Err: errors.New("connection refused")},
			want: "Search failed, please try again later.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := apikey.NewStore(t.TempDir())
			testutil.MustNoErr(t, err, "NewStore")
			p, _, _ := newTestPrinter()

			bad := validatorFunc(func(context.Context) error { return tt.err })
			err = runInit(context.Background(), "abc123", bad, store, p)
			if err == nil || err.Error() != tt.want {
				t.Errorf("runInit() error = %v, want %q", err, tt.want)
			}
			testutil.MustNotExist(t, store.Path())
		})
	}
}

func TestRunInitAgainstAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api-info" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
			return
		}
		_, _ = w.Write([]byte(`{"plan":"dev"}`))
	}))
	defer srv.Close()

	saved := cfg
	defer func() { cfg = saved }()
	cfg = newTestConfig(t)
	cfg.API.InfoEndpoint = srv.URL
	cfg.API.RateLimitQPS = 0

	store, err := apikey.NewStore(t.TempDir())
	testutil.MustNoErr(t, err, "NewStore")
	p, _, _ := newTestPrinter()

	err = runInit(context.Background(), "bad-key", newClient("bad-key"), store, p)
	if err == nil || !strings.Contains(err.Error(), "Invalid API key") {
		t.Errorf("bad key error = %v", err)
	}
	testutil.MustNoErr(t, runInit(context.Background(), "good-key", newClient("good-key"), store, p), "runInit good key")
	testutil.AssertFileContent(t, store.Path(), "good-key")
}
