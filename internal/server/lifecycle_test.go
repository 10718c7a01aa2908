package server_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/rolltable/internal/server"
)

// mockService blocks in Start until Stop is called, recording both events.
type mockService struct {
	started  atomic.Bool
	stopped  atomic.Bool
	startErr error
	done     chan struct{}
	once     sync.Once
	onStop   func()
}

func newMockService() *mockService {
	return &mockService{done: make(chan struct{})}
}

func (m *mockService) Start() error {
	m.started.Store(true)
	if m.startErr != nil {
		return m.startErr
	}
	<-m.done
	return nil
}

func (m *mockService) Stop() {
	m.stopped.Store(true)
	if m.onStop != nil {
		m.onStop()
	}
	m.once.Do(func() { close(m.done) })
}

func TestLifecycle_RunStopsOnContextCancel(t *testing.T) {
	lc := server.NewLifecycle(zaptest.NewLogger(t))
	svc := newMockService()
	lc.Add("mock", svc)

	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan error, 1)
	go func() { runDone <- lc.Run(ctx) }()

	require.Eventually(t, svc.started.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not shut down after context cancellation")
	}
	assert.True(t, svc.stopped.Load())
}

func TestLifecycle_ServiceErrorTriggersShutdown(t *testing.T) {
	lc := server.NewLifecycle(zaptest.NewLogger(t))
	failing := newMockService()
	failing.startErr = errors.New("listener exploded")
	healthy := newMockService()
	lc.Add("failing", failing)
	lc.Add("healthy", healthy)

	runDone := make(chan error, 1)
	go func() { runDone <- lc.Run(context.Background()) }()

	select {
	case err := <-runDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}
	assert.True(t, healthy.stopped.Load())
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	lc := server.NewLifecycle(zaptest.NewLogger(t))

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		}
	}

	first := newMockService()
	first.onStop = record("first")
	second := newMockService()
	second.onStop = record("second")
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- lc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return first.started.Load() && second.started.Load()
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("lifecycle did not shut down")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second", "first"}, order)
}
