// Command streaming-vad segments streaming audio into speech regions.
//
// Audio comes either from the default microphone or from a raw PCM file
// (use "-" for stdin). Segmentation events are logged; the Prometheus
// scrape endpoint exposes runtime metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fujie-cit/streaming-vad/internal/app"
	"github.com/fujie-cit/streaming-vad/internal/capture"
	"github.com/fujie-cit/streaming-vad/internal/config"
	"github.com/fujie-cit/streaming-vad/internal/observe"
	"github.com/fujie-cit/streaming-vad/pkg/classifier"
	"github.com/fujie-cit/streaming-vad/pkg/classifier/energy"
	"github.com/fujie-cit/streaming-vad/pkg/classifier/webrtc"
	"github.com/fujie-cit/streaming-vad/pkg/segment"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	inputPath := flag.String("input", "", `raw PCM input file ("-" for stdin; empty for microphone)`)
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "streaming-vad: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "streaming-vad: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("streaming-vad starting",
		"version", version,
		"config", *configPath,
		"classifier", cfg.Classifier.Name,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "streaming-vad",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Classifier registry ───────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinClassifiers(reg)

	cl, err := reg.CreateClassifier(cfg.Classifier)
	if err != nil {
		slog.Error("failed to create classifier", "name", cfg.Classifier.Name, "err", err)
		return 1
	}

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(cfg, cl,
		app.WithEventHandler(logEvents(cfg)),
	)
	if err != nil {
		cl.Close()
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Frame source ──────────────────────────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)
	frames, err := startSource(ctx, g, cfg, *inputPath)
	if err != nil {
		slog.Error("failed to open input", "err", err)
		return 1
	}

	slog.Info("ready — press Ctrl+C to shut down")

	g.Go(func() error { return application.Run(ctx, frames) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	return 0
}

// ── Classifier wiring ─────────────────────────────────────────────────────────

// registerBuiltinClassifiers wires the built-in classifier factories into reg.
// Each factory derives its geometry from the classifier options, falling back
// to package defaults.
func registerBuiltinClassifiers(reg *config.Registry) {
	reg.RegisterClassifier("energy", func(entry config.ClassifierEntry) (classifier.Classifier, error) {
		return energy.New(energy.Config{
			SampleRate:       optInt(entry.Options, "sample_rate"),
			SamplesPerWindow: optInt(entry.Options, "samples_per_window"),
			Threshold:        optFloat(entry.Options, "threshold"),
		})
	})

	reg.RegisterClassifier("webrtc", func(entry config.ClassifierEntry) (classifier.Classifier, error) {
		cfg := webrtc.Config{
			SampleRate:       optInt(entry.Options, "sample_rate"),
			SamplesPerWindow: optInt(entry.Options, "samples_per_window"),
		}
		if mode, ok := entry.Options["mode"]; ok {
			m, err := toInt(mode)
			if err != nil {
				return nil, fmt.Errorf("classifier option mode: %w", err)
			}
			cfg.Mode = &m
		}
		return webrtc.New(cfg)
	})
}

// logEvents returns an event handler that logs segment boundaries. Continue
// and idle events are logged at debug to keep steady-state output quiet.
func logEvents(cfg *config.Config) app.EventHandler {
	frameBytes := cfg.Engine.SampleWidth * cfg.Engine.SamplesPerFrame
	return func(ctx context.Context, ev segment.Event) {
		l := observe.Logger(ctx)
		switch ev.State {
		case segment.StateStarted, segment.StateEnded:
			l.Info("segment boundary",
				"state", ev.State.String(),
				"frames", len(ev.Frames),
				"bytes", len(ev.Frames)*frameBytes,
			)
		default:
			l.Debug("frame processed", "state", ev.State.String(), "frames", len(ev.Frames))
		}
	}
}

// ── Frame source ──────────────────────────────────────────────────────────────

// startSource opens the configured audio input and returns the channel it
// delivers frames on. Pump goroutines are registered on g.
func startSource(ctx context.Context, g *errgroup.Group, cfg *config.Config, inputPath string) (<-chan []byte, error) {
	frameBytes := cfg.Engine.SampleWidth * cfg.Engine.SamplesPerFrame

	switch inputPath {
	case "":
		rec, err := capture.NewRecorder(capture.Config{
			SampleRate:      cfg.Engine.SampleRate,
			SamplesPerFrame: cfg.Engine.SamplesPerFrame,
		})
		if err != nil {
			return nil, err
		}
		if err := rec.Start(ctx); err != nil {
			rec.Close()
			return nil, err
		}
		g.Go(func() error {
			<-ctx.Done()
			return rec.Close()
		})
		return rec.Frames(), nil

	case "-":
		out := make(chan []byte, 8)
		g.Go(func() error { return app.PumpReader(ctx, os.Stdin, frameBytes, out) })
		return out, nil

	default:
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, err
		}
		out := make(chan []byte, 8)
		g.Go(func() error {
			defer f.Close()
			return app.PumpReader(ctx, f, frameBytes, out)
		})
		return out, nil
	}
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optInt extracts an integer from a classifier Options map. Returns 0 if the
// map is nil, the key is absent, or the value is not numeric.
func optInt(opts map[string]any, key string) int {
	if opts == nil {
		return 0
	}
	v, ok := opts[key]
	if !ok {
		return 0
	}
	n, err := toInt(v)
	if err != nil {
		return 0
	}
	return n
}

// optFloat extracts a float from a classifier Options map. Returns 0 if the
// map is nil, the key is absent, or the value is not numeric.
func optFloat(opts map[string]any, key string) float64 {
	if opts == nil {
		return 0
	}
	switch v := opts[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// toInt converts the numeric types the YAML decoder produces to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
