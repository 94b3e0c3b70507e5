// Package app wires the segmentation pipeline into a running application.
//
// The App struct owns the full lifecycle: New builds the segmentation engine
// from config, Run executes the frame-processing loop alongside the metrics
// endpoint, and Shutdown tears everything down in order.
//
// For testing, inject doubles via functional options (WithMetrics,
// WithEventHandler). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fujie-cit/streaming-vad/internal/config"
	"github.com/fujie-cit/streaming-vad/internal/observe"
	"github.com/fujie-cit/streaming-vad/pkg/classifier"
	"github.com/fujie-cit/streaming-vad/pkg/segment"
)

// EventHandler receives every segmentation event emitted by the pipeline.
// Handlers run synchronously on the processing loop and must not retain the
// event's frame slices past the call.
type EventHandler func(ctx context.Context, ev segment.Event)

// App owns the segmentation pipeline and its telemetry endpoint.
type App struct {
	cfg     *config.Config
	cl      classifier.Classifier
	seg     *segment.Segmenter
	metrics *observe.Metrics
	onEvent EventHandler

	// Per-segment bookkeeping, touched only by the Run loop.
	segmentStart time.Time
	segmentSpan  trace.Span
	segmentCtx   context.Context

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithMetrics injects a Metrics instance instead of using the default set.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithEventHandler registers a handler for segmentation events.
func WithEventHandler(fn EventHandler) Option {
	return func(a *App) { a.onEvent = fn }
}

// New creates an App by wiring the classifier into a segmentation engine
// built from cfg. The classifier is owned by the App afterwards and is
// closed during Shutdown.
func New(cfg *config.Config, cl classifier.Classifier, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		cl:  cl,
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	seg, err := segment.New(cfg.Engine.SegmentConfig(), cl)
	if err != nil {
		return nil, fmt.Errorf("app: build segmenter: %w", err)
	}
	a.seg = seg
	a.closers = append(a.closers, cl.Close)

	return a, nil
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run consumes frames until the channel closes or ctx is cancelled. The
// metrics endpoint (if configured) is served for the same duration. A
// classifier failure stops the loop and is returned to the caller.
func (a *App) Run(ctx context.Context, frames <-chan []byte) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		g.Go(func() error { return a.serveMetrics(ctx, addr) })
	}

	g.Go(func() error {
		// Cancel tears down the metrics endpoint when the stream ends
		// cleanly, not only on error.
		defer cancel()
		return a.processLoop(ctx, frames)
	})

	return g.Wait()
}

// processLoop is the pipeline core: one frame in, one event out.
func (a *App) processLoop(ctx context.Context, frames <-chan []byte) error {
	a.metrics.ActiveStreams.Add(ctx, 1)
	defer a.metrics.ActiveStreams.Add(ctx, -1)

	slog.Info("pipeline running",
		"classifier", a.cfg.Classifier.Name,
		"sample_rate", a.cfg.Engine.SampleRate,
		"samples_per_frame", a.cfg.Engine.SamplesPerFrame,
	)

	for {
		select {
		case <-ctx.Done():
			a.abandonSegment()
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				a.abandonSegment()
				slog.Info("input stream ended")
				return nil
			}
			if err := a.handleFrame(ctx, frame); err != nil {
				return err
			}
		}
	}
}

// handleFrame runs one frame through the segmenter and dispatches the
// resulting event.
func (a *App) handleFrame(ctx context.Context, frame []byte) error {
	start := time.Now()
	ev, err := a.seg.ProcessFrame(frame)
	if err != nil {
		a.metrics.RecordClassifierError(ctx, a.cfg.Classifier.Name)
		a.abandonSegment()
		a.seg.Reset()
		return fmt.Errorf("app: process frame: %w", err)
	}
	a.metrics.RecordFrame(ctx, ev.State.String(), time.Since(start))

	switch ev.State {
	case segment.StateStarted:
		a.segmentStart = time.Now()
		a.segmentCtx, a.segmentSpan = observe.StartSpan(ctx, "segment")
		a.metrics.SegmentsStarted.Add(ctx, 1)
		observe.Logger(a.segmentCtx).Info("segment started",
			"lead_in_frames", len(ev.Frames),
		)
	case segment.StateEnded:
		duration := time.Since(a.segmentStart)
		a.metrics.RecordSegment(ctx, duration)
		if a.segmentSpan != nil {
			observe.Logger(a.segmentCtx).Info("segment ended", "duration", duration)
			a.segmentSpan.End()
			a.segmentSpan = nil
			a.segmentCtx = nil
		}
	}

	if a.onEvent != nil {
		evCtx := ctx
		if a.segmentCtx != nil {
			evCtx = a.segmentCtx
		}
		a.onEvent(evCtx, ev)
	}
	return nil
}

// abandonSegment ends an in-flight segment span without recording a
// completed segment. Used on cancellation, stream end, and errors.
func (a *App) abandonSegment() {
	if a.segmentSpan != nil {
		a.segmentSpan.End()
		a.segmentSpan = nil
		a.segmentCtx = nil
	}
}

// serveMetrics exposes the Prometheus scrape endpoint until ctx is done.
func (a *App) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observe.Middleware(a.metrics)(promhttp.Handler()))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("app: metrics shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: metrics server: %w", err)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases the classifier and any other owned resources. It
// respects the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
