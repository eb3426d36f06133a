package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jack-barr3tt/commute-board/src/common/delay"
	"github.com/jack-barr3tt/commute-board/src/common/query"
	"github.com/jack-barr3tt/commute-board/src/common/rpc"
	"github.com/jack-barr3tt/commute-board/src/common/sources"
	"github.com/jack-barr3tt/commute-board/src/common/types"
	"github.com/jack-barr3tt/commute-board/src/common/view"
)

type options struct {
	API        string
	Queries    []string
	Sources    []types.Source
	Timeout    time.Duration
	Watch      time.Duration
	Invalidate bool
	Formatter  *delay.Formatter
}

func optionsFromCLI(c *cli.Context) (options, error) {
	srcs, err := sources.Load(c.String("sources"))
	if err != nil {
		return options{}, err
	}

	formula, err := delay.ParseFormula(c.String("formula"))
	if err != nil {
		return options{}, err
	}
	formatter, err := delay.NewFormatter(c.String("timezone"), formula)
	if err != nil {
		return options{}, err
	}

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		queries = sources.Names(srcs)
	}

	return options{
		API:        c.String("api"),
		Queries:    queries,
		Sources:    srcs,
		Timeout:    c.Duration("timeout"),
		Watch:      c.Duration("watch"),
		Invalidate: c.Bool("invalidate"),
		Formatter:  formatter,
	}, nil
}

func invalidate(ctx context.Context, client *rpc.Client, names []string) error {
	var errs error
	for _, name := range names {
		errs = multierr.Append(errs, client.Invalidate(ctx, name))
	}
	return errs
}

// draw fetches every query and prints the board. While queries are pending
// the loading board is printed first. Failed queries are shown on the board;
// only a timeout is returned as an error.
func draw(ctx context.Context, w io.Writer, queries *query.Client, opts options, logger *zap.SugaredLogger) error {
	fetchCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := queries.Prefetch(); err != nil {
		return err
	}
	if queries.Loading() {
		if err := view.RenderText(w, view.Build(queries.Snapshot(), opts.Sources, opts.Formatter)); err != nil {
			return err
		}
	}

	results, err := queries.FetchAll(fetchCtx)
	if err != nil {
		logger.Debugw("board has failed queries", "error", err)
	}
	if fetchCtx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("queries did not resolve within %s", opts.Timeout)
	}

	return view.RenderText(w, view.Build(results, opts.Sources, opts.Formatter))
}

func run(ctx context.Context, w io.Writer, opts options, logger *zap.SugaredLogger) (err error) {
	// fetches are bounded by opts.Timeout and cancelled on close
	client := rpc.New(opts.API, 0)

	if opts.Invalidate {
		if err := invalidate(ctx, client, opts.Queries); err != nil {
			return err
		}
	}

	queries := query.New(client, opts.Queries, query.Options{Logger: logger.Named("query")})
	defer func() {
		err = multierr.Append(err, queries.Close())
	}()

	if err := draw(ctx, w, queries, opts, logger); err != nil || opts.Watch <= 0 {
		return err
	}

	ticker := time.NewTicker(opts.Watch)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := queries.Invalidate(); err != nil {
			return err
		}
		fmt.Fprintln(w)
		if err := draw(ctx, w, queries, opts, logger); err != nil {
			return err
		}
	}
}
