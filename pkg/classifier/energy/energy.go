// Package energy implements a signal-heuristic voice activity classifier
// based on RMS energy.
//
// Each window is classified independently by comparing its root-mean-square
// level (normalised to [0, 1]) against a fixed threshold. There is no
// smoothing or hangover here — debouncing is the segmentation engine's job.
// The heuristic cannot tell speech from other loud sounds, but it is cheap,
// dependency-free, and works on arbitrarily small windows, which makes it a
// good fallback where the model-based backend is unavailable.
package energy

import (
	"fmt"
	"math"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

const (
	// DefaultSampleRate is the sample rate assumed when Config.SampleRate is zero.
	DefaultSampleRate = 16000

	// DefaultSamplesPerWindow is the window size assumed when
	// Config.SamplesPerWindow is zero (10 ms at 16 kHz).
	DefaultSamplesPerWindow = 160

	// DefaultThreshold is the normalised RMS level at or above which a window
	// is classified as speech (~-36 dBFS). Low enough to pass quiet speech,
	// high enough to suppress background hum and open-mic noise.
	DefaultThreshold = 0.015

	// sampleWidth is fixed: the classifier operates on 16-bit PCM.
	sampleWidth = 2
)

// Config holds the parameters for an energy classifier.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Default: [DefaultSampleRate].
	SampleRate int

	// SamplesPerWindow is the number of samples per classification window.
	// Default: [DefaultSamplesPerWindow].
	SamplesPerWindow int

	// Threshold is the normalised RMS level at or above which a window counts
	// as speech. Range (0, 1]. Default: [DefaultThreshold].
	Threshold float64
}

// Classifier classifies windows of 16-bit little-endian mono PCM by RMS
// energy. It is stateless between windows and therefore deterministic.
type Classifier struct {
	sampleRate       int
	samplesPerWindow int
	threshold        float64
	windowBytes      int
}

// New returns a Classifier for cfg. Zero-valued fields take defaults.
func New(cfg Config) (*Classifier, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.SamplesPerWindow == 0 {
		cfg.SamplesPerWindow = DefaultSamplesPerWindow
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.SampleRate < 0 {
		return nil, fmt.Errorf("energy: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.SamplesPerWindow < 0 {
		return nil, fmt.Errorf("energy: samples per window must be positive, got %d", cfg.SamplesPerWindow)
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("energy: threshold must be in (0, 1], got %g", cfg.Threshold)
	}
	return &Classifier{
		sampleRate:       cfg.SampleRate,
		samplesPerWindow: cfg.SamplesPerWindow,
		threshold:        cfg.Threshold,
		windowBytes:      sampleWidth * cfg.SamplesPerWindow,
	}, nil
}

// Classify reports whether the window's RMS level reaches the threshold.
func (c *Classifier) Classify(window []byte) (bool, error) {
	if len(window) != c.windowBytes {
		return false, fmt.Errorf("%w: got %d bytes, want %d", classifier.ErrInvalidWindowSize, len(window), c.windowBytes)
	}
	return rms(window) >= c.threshold, nil
}

// SampleRate returns the configured sample rate in Hz.
func (c *Classifier) SampleRate() int { return c.sampleRate }

// SampleWidth returns 2: the classifier operates on 16-bit samples.
func (c *Classifier) SampleWidth() int { return sampleWidth }

// SamplesPerWindow returns the configured window size in samples.
func (c *Classifier) SamplesPerWindow() int { return c.samplesPerWindow }

// Close is a no-op; the classifier holds no resources.
func (c *Classifier) Close() error { return nil }

// rms computes the root-mean-square level of little-endian int16 PCM,
// normalised so that a full-scale square wave yields 1.0.
func rms(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < samples; i++ {
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(samples))
}

// Ensure Classifier implements classifier.Classifier at compile time.
var _ classifier.Classifier = (*Classifier)(nil)
