package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serveReturns(t *testing.T, ctx context.Context, stop context.CancelFunc, start func() error) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		serve(ctx, stop, start, zap.NewNop().Sugar())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return")
	}
}

func TestServeStopsWhenSubscriptionCloses(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	serveReturns(t, ctx, stop, func() error { return nil })
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestServeStopsOnListenerError(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	serveReturns(t, ctx, stop, func() error { return errors.New("failed to subscribe") })
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestServeReturnsOnShutdown(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	released := make(chan struct{})
	start := func() error {
		<-ctx.Done()
		close(released)
		return nil
	}

	time.AfterFunc(20*time.Millisecond, stop)
	serveReturns(t, ctx, stop, start)

	select {
	case <-released:
	case <-time.After(time.Second):
		require.Fail(t, "listener was not released by shutdown")
	}
}
