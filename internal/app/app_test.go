package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fujie-cit/streaming-vad/internal/config"
	"github.com/fujie-cit/streaming-vad/pkg/classifier/mock"
	"github.com/fujie-cit/streaming-vad/pkg/segment"
)

// testConfig returns a config with small thresholds so tests need few frames.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			LogLevel: config.LogInfo,
		},
		Engine: config.EngineConfig{
			SampleRate:          16000,
			SampleWidth:         2,
			SamplesPerFrame:     160,
			StartFrameThreshold: 2,
			StartRollbackFrames: 3,
			EndFrameThreshold:   2,
		},
		Classifier: config.ClassifierEntry{Name: "mock"},
	}
}

// frame returns one engine frame of PCM bytes.
func frame() []byte {
	return make([]byte, 320)
}

// feed delivers n frames on a fresh channel and closes it.
func feed(n int) <-chan []byte {
	ch := make(chan []byte, n)
	for i := 0; i < n; i++ {
		ch <- frame()
	}
	close(ch)
	return ch
}

func TestNew_ClassifierMismatch(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cl := &mock.Classifier{SampleRateVal: 8000}

	_, err := New(cfg, cl)
	if !errors.Is(err, segment.ErrConfigMismatch) {
		t.Fatalf("New error = %v, want ErrConfigMismatch", err)
	}
}

func TestRun_EmitsSegmentEvents(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	// Two positives start a segment, two negatives end it.
	cl := &mock.Classifier{Results: []bool{true, true, false, false}}

	var states []segment.State
	a, err := New(cfg, cl, WithEventHandler(func(_ context.Context, ev segment.Event) {
		states = append(states, ev.State)
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Run(context.Background(), feed(4)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []segment.State{
		segment.StateIdle,
		segment.StateStarted,
		segment.StateContinue,
		segment.StateEnded,
	}
	if len(states) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(states), len(want), states)
	}
	for i, s := range states {
		if s != want[i] {
			t.Errorf("event %d state = %v, want %v", i, s, want[i])
		}
	}
}

func TestRun_StartedEventCarriesLeadIn(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cl := &mock.Classifier{Results: []bool{false, true, true}}

	var started segment.Event
	a, err := New(cfg, cl, WithEventHandler(func(_ context.Context, ev segment.Event) {
		if ev.State == segment.StateStarted {
			started = ev
		}
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Run(context.Background(), feed(3)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Rollback capacity is 3, and all 3 frames were pushed before the
	// segment opened.
	if got := len(started.Frames); got != 3 {
		t.Errorf("started event carries %d frames, want 3", got)
	}
}

func TestRun_ClassifierErrorStopsPipeline(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	boom := errors.New("boom")
	cl := &mock.Classifier{ClassifyErr: boom}

	a, err := New(cfg, cl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = a.Run(context.Background(), feed(2))
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want wrapped classifier error", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cl := &mock.Classifier{}

	a, err := New(cfg, cl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan []byte) // never fed, never closed

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, frames) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestShutdown_ClosesClassifier(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cl := &mock.Classifier{}

	a, err := New(cfg, cl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if cl.CloseCallCount != 1 {
		t.Errorf("classifier Close called %d times, want 1", cl.CloseCallCount)
	}

	// Second Shutdown is a no-op.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if cl.CloseCallCount != 1 {
		t.Errorf("classifier Close called %d times after repeat, want 1", cl.CloseCallCount)
	}
}
