package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "custos/pkg/domain"
)

type captureSink struct {
	events chan Event
	err    error
}

func (s *captureSink) Publish(_ context.Context, event Event) error {
	if s.err != nil {
		return s.err
	}
	s.events <- event
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startRecorder(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRecorder_PersistsAndFansOut(t *testing.T) {
	store := NewInMemoryStore()
	sink := &captureSink{events: make(chan Event, 1)}
	r := NewRecorder(store, sink, testLogger(), 16)
	startRecorder(t, r)

	dependentID := id.DependentID(uuid.New())
	r.Emit(Event{
		DependentID: dependentID,
		Action:      "buy",
		Category:    id.CategoryTrading,
		Amount:      decimal.RequireFromString("25"),
		Decision:    DecisionAuthorized,
	})

	select {
	case published := <-sink.events:
		assert.Equal(t, DecisionAuthorized, published.Decision)
		assert.False(t, published.Timestamp.IsZero(), "Emit stamps missing timestamps")
	case <-time.After(time.Second):
		t.Fatal("event never reached the sink")
	}

	events, err := r.List(context.Background(), dependentID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "buy", events[0].Action)
}

func TestRecorder_SinkFailureDoesNotStopPersistence(t *testing.T) {
	store := NewInMemoryStore()
	sink := &captureSink{err: errors.New("broker down")}
	r := NewRecorder(store, sink, testLogger(), 16)
	startRecorder(t, r)

	dependentID := id.DependentID(uuid.New())
	r.Emit(Event{DependentID: dependentID, Action: "buy", Decision: DecisionDenied})

	require.Eventually(t, func() bool {
		events, err := r.List(context.Background(), dependentID)
		return err == nil && len(events) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRecorder_EmitNeverBlocks(t *testing.T) {
	// No worker running and a tiny inbox: overflow must drop, not block.
	r := NewRecorder(NewInMemoryStore(), nil, testLogger(), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			r.Emit(Event{Action: "buy", Decision: DecisionFailed})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}

func TestInMemoryStore_ListFiltersByDependent(t *testing.T) {
	store := NewInMemoryStore()
	first := id.DependentID(uuid.New())
	second := id.DependentID(uuid.New())

	require.NoError(t, store.Append(context.Background(), Event{DependentID: first, Action: "buy"}))
	require.NoError(t, store.Append(context.Background(), Event{DependentID: second, Action: "swap"}))

	events, err := store.ListByDependent(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "buy", events[0].Action)
}
