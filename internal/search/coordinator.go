package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Fetcher performs one search and returns the raw response body.
type Fetcher interface {
	Search(ctx context.Context, query, facets string) ([]byte, error)
}

// Result is the terminal outcome of one dispatched request.
type Result struct {
	Request Request
	Body    []byte
	Err     error
	Elapsed time.Duration
}

// Coordinator runs at most one fetch at a time and hands its result back
// through a single-slot mailbox. Dispatch, Busy and Poll must all be called
// from the same goroutine (the UI loop); the fetch goroutine only writes the
// mailbox.
type Coordinator struct {
	fetcher Fetcher
	mailbox chan Result
	busy    bool
	logger  *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger for the coordinator.
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator(f Fetcher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		fetcher: f,
		mailbox: make(chan Result, 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a dispatched fetch has not been polled yet.
func (c *Coordinator) Busy() bool { return c.busy }

// Dispatch starts req in the background. It returns false without doing
// anything when a fetch is already in flight. The fetch is not cancelable
// and may outlive the caller; its result then sits in the mailbox unread.
func (c *Coordinator) Dispatch(req Request) bool {
	if c.busy {
		c.logger.Debug("search dropped, another is in flight", "identity", req.Identity)
		return false
	}
	c.busy = true
	c.logger.Info("search dispatched", "query", req.Query, "facets", req.Facets)

	go func() {
		start := time.Now()
		res := Result{Request: req}
		defer func() {
			if r := recover(); r != nil {
				res.Body = nil
				res.Err = fmt.Errorf("search panic: %v", r)
			}
			res.Elapsed = time.Since(start)
			// Never blocks: busy stays set until Poll drains this slot.
			c.mailbox <- res
		}()
		res.Body, res.Err = c.fetcher.Search(context.Background(), req.Query, req.Facets)
	}()
	return true
}

// Poll returns the finished result if there is one, without blocking.
// Receiving a result clears the busy flag.
func (c *Coordinator) Poll() (Result, bool) {
	select {
	case res := <-c.mailbox:
		c.busy = false
		c.logger.Info("search finished", "identity", res.Request.Identity,
			"elapsed", res.Elapsed, "err", res.Err)
		return res, true
	default:
		return Result{}, false
	}
}
