package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/types"
)

var (
	ErrUnknownQuery = errors.New("unknown query")
	ErrClosed       = errors.New("query client closed")
)

type State int

const (
	Loading State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "loading"
}

// Result is the current answer of one named query. Results are values and
// are never mutated once handed out.
type Result struct {
	Name      string
	State     State
	Journey   types.Journey
	Err       error
	FetchedAt time.Time
}

type Fetcher interface {
	FetchJourney(ctx context.Context, name string) (types.Journey, error)
}

type Options struct {
	// StaleTime is how long a ready result is served without refetching.
	// Zero keeps results until they are invalidated.
	StaleTime time.Duration
	Logger    *zap.SugaredLogger
}

type entry struct {
	result   Result
	stale    bool
	inflight chan struct{}
}

// Client holds the results of a fixed set of named queries.
type Client struct {
	fetcher Fetcher
	names   []string
	opts    Options
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu      sync.Mutex
	closed  bool
	entries map[string]*entry
}

func New(fetcher Fetcher, names []string, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		fetcher: fetcher,
		names:   append([]string(nil), names...),
		opts:    opts,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry, len(names)),
	}
	for _, name := range c.names {
		c.entries[name] = &entry{result: Result{Name: name, State: Loading}, stale: true}
	}
	return c
}

func (c *Client) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Client) fresh(e *entry) bool {
	if e.stale || e.result.State != Ready {
		return false
	}
	if c.opts.StaleTime <= 0 {
		return true
	}
	return c.now().Sub(e.result.FetchedAt) < c.opts.StaleTime
}

// start returns a channel closed once name has resolved, launching a fetch
// if the current result is not fresh and none is running. A nil channel
// means the stored result can be used as is.
func (c *Client) start(name string) (chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuery, name)
	}
	if e.inflight != nil {
		return e.inflight, nil
	}
	if c.fresh(e) {
		return nil, nil
	}

	done := make(chan struct{})
	e.inflight = done
	e.stale = false
	e.result = Result{Name: name, State: Loading}

	c.opts.Logger.Debugw("fetching query", "query", name)
	c.wg.Go(func() { c.run(name, e, done) })

	return done, nil
}

func (c *Client) run(name string, e *entry, done chan struct{}) {
	journey, err := c.fetcher.FetchJourney(c.ctx, name)

	result := Result{Name: name, State: Ready, Journey: journey, FetchedAt: c.now()}
	if err != nil {
		c.opts.Logger.Warnw("query failed", "query", name, "error", err)
		result = Result{Name: name, State: Failed, Err: err, FetchedAt: result.FetchedAt}
	}

	c.mu.Lock()
	e.result = result
	e.inflight = nil
	c.mu.Unlock()

	close(done)
}

func (c *Client) result(name string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[name].result
}

// Fetch blocks until name has resolved or ctx is done. Concurrent callers
// share a single in-flight fetch. A Failed result is returned with a nil
// error; the error is reserved for the call itself.
func (c *Client) Fetch(ctx context.Context, name string) (Result, error) {
	done, err := c.start(name)
	if err != nil {
		return Result{Name: name, State: Failed, Err: err}, err
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.result(name), ctx.Err()
		}
	}

	return c.result(name), nil
}

// Prefetch issues every query that is not fresh without waiting for any.
func (c *Client) Prefetch() error {
	for _, name := range c.names {
		if _, err := c.start(name); err != nil {
			return err
		}
	}
	return nil
}

// FetchAll issues every query concurrently and waits for all of them. The
// returned error combines the failures of the individual queries.
func (c *Client) FetchAll(ctx context.Context) ([]Result, error) {
	type outcome struct {
		result Result
		err    error
	}

	outcomes := iter.Map(c.names, func(name *string) outcome {
		result, err := c.Fetch(ctx, *name)
		if err == nil && result.State == Failed {
			err = fmt.Errorf("%s: %w", *name, result.Err)
		}
		return outcome{result: result, err: err}
	})

	results := make([]Result, len(outcomes))
	var errs error
	for i, o := range outcomes {
		results[i] = o.result
		errs = multierr.Append(errs, o.err)
	}
	return results, errs
}

// Snapshot returns the current result of every query in configured order
// without starting or waiting for anything.
func (c *Client) Snapshot() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]Result, len(c.names))
	for i, name := range c.names {
		results[i] = c.entries[name].result
	}
	return results
}

// Loading reports whether any query has not resolved yet.
func (c *Client) Loading() bool {
	for _, r := range c.Snapshot() {
		if r.State == Loading {
			return true
		}
	}
	return false
}

// Invalidate marks the named queries, or all of them when none are given,
// so the next fetch goes back to the fetcher.
func (c *Client) Invalidate(names ...string) error {
	if len(names) == 0 {
		names = c.names
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	var errs error
	for _, name := range names {
		e, ok := c.entries[name]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrUnknownQuery, name))
			continue
		}
		e.stale = true
	}
	return errs
}

// Close cancels every in-flight fetch and waits for them to return.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}
