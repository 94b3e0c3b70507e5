package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/fujie-cit/streaming-vad/pkg/segment"
)

// ValidClassifierNames lists the classifier names that ship with the daemon.
// Used by [Validate] to warn about unrecognised names — the registry is still
// the source of truth, so externally registered classifiers only produce a
// warning here.
var ValidClassifierNames = []string{"energy", "webrtc"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills in engine defaults and checks that cfg contains a coherent
// set of values. It returns a joined error listing all validation failures
// found. Cross-checks against the classifier's metadata happen later, in
// segment.New.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Engine defaults.
	applyEngineDefaults(&cfg.Engine)
	if cfg.Engine.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.sample_rate must be positive, got %d", cfg.Engine.SampleRate))
	}
	if cfg.Engine.SampleWidth <= 0 {
		errs = append(errs, fmt.Errorf("engine.sample_width must be positive, got %d", cfg.Engine.SampleWidth))
	}
	if cfg.Engine.SamplesPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("engine.samples_per_frame must be positive, got %d", cfg.Engine.SamplesPerFrame))
	}
	if cfg.Engine.StartFrameThreshold < 1 {
		errs = append(errs, fmt.Errorf("engine.start_frame_threshold must be at least 1, got %d", cfg.Engine.StartFrameThreshold))
	}
	if cfg.Engine.EndFrameThreshold < 1 {
		errs = append(errs, fmt.Errorf("engine.end_frame_threshold must be at least 1, got %d", cfg.Engine.EndFrameThreshold))
	}
	if cfg.Engine.StartRollbackFrames < 0 {
		errs = append(errs, fmt.Errorf("engine.start_rollback_frames must not be negative, got %d", cfg.Engine.StartRollbackFrames))
	}

	// Classifier name validation — warn for unknown names.
	if cfg.Classifier.Name == "" {
		errs = append(errs, errors.New("classifier.name is required"))
	} else if !slices.Contains(ValidClassifierNames, cfg.Classifier.Name) {
		slog.Warn("unknown classifier name; expecting an externally registered classifier",
			"name", cfg.Classifier.Name,
			"known", ValidClassifierNames,
		)
	}

	return errors.Join(errs...)
}

// applyEngineDefaults fills zero-valued engine fields with the segment
// package defaults.
func applyEngineDefaults(e *EngineConfig) {
	if e.SampleRate == 0 {
		e.SampleRate = segment.DefaultSampleRate
	}
	if e.SampleWidth == 0 {
		e.SampleWidth = segment.DefaultSampleWidth
	}
	if e.SamplesPerFrame == 0 {
		e.SamplesPerFrame = segment.DefaultSamplesPerFrame
	}
	if e.StartFrameThreshold == 0 {
		e.StartFrameThreshold = segment.DefaultStartFrameThreshold
	}
	if e.StartRollbackFrames == 0 {
		e.StartRollbackFrames = segment.DefaultStartRollbackFrames
	}
	if e.EndFrameThreshold == 0 {
		e.EndFrameThreshold = segment.DefaultEndFrameThreshold
	}
}
