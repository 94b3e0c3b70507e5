// Package config provides the configuration schema, loader, and classifier
// registry for the streaming VAD daemon.
package config

import "github.com/fujie-cit/streaming-vad/pkg/segment"

// LogLevel controls log verbosity for the daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for the daemon.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Engine     EngineConfig    `yaml:"engine"`
	Classifier ClassifierEntry `yaml:"classifier"`
}

// ServerConfig holds telemetry and logging settings for the daemon.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint listens
	// on (e.g., ":9100"). When empty, no metrics endpoint is served.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// EngineConfig holds the segmentation engine parameters. Zero fields take
// the segment package defaults, applied by [Validate].
type EngineConfig struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// SampleWidth is the width of a single sample in bytes.
	SampleWidth int `yaml:"sample_width"`

	// SamplesPerFrame is the engine's unit of input in samples.
	SamplesPerFrame int `yaml:"samples_per_frame"`

	// StartFrameThreshold is the number of consecutive speech classifications
	// required to declare a segment started.
	StartFrameThreshold int `yaml:"start_frame_threshold"`

	// StartRollbackFrames is the number of recent frames replayed when a
	// segment starts.
	StartRollbackFrames int `yaml:"start_rollback_frames"`

	// EndFrameThreshold is the number of consecutive non-speech
	// classifications required to declare a segment ended.
	EndFrameThreshold int `yaml:"end_frame_threshold"`

	// EmitIdleFrames controls whether idle-state frames are emitted.
	EmitIdleFrames bool `yaml:"emit_idle_frames"`
}

// SegmentConfig converts the engine section into a [segment.Config].
func (e EngineConfig) SegmentConfig() segment.Config {
	return segment.Config{
		SampleRate:          e.SampleRate,
		SampleWidth:         e.SampleWidth,
		SamplesPerFrame:     e.SamplesPerFrame,
		StartFrameThreshold: e.StartFrameThreshold,
		StartRollbackFrames: e.StartRollbackFrames,
		EndFrameThreshold:   e.EndFrameThreshold,
		EmitIdleFrames:      e.EmitIdleFrames,
	}
}

// ClassifierEntry selects and configures the voice activity classifier
// backend. The Name field is used to look up the constructor in the
// [Registry].
type ClassifierEntry struct {
	// Name selects the registered classifier implementation (e.g., "energy",
	// "webrtc").
	Name string `yaml:"name"`

	// Options holds classifier-specific configuration values. Values may be
	// strings, numbers, or booleans.
	Options map[string]any `yaml:"options"`
}
