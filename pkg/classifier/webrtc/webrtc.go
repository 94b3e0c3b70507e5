// Package webrtc implements a voice activity classifier backed by libfvad,
// the WebRTC voice activity detection model.
//
// The underlying detector is a trained Gaussian mixture model over speech and
// noise spectra, which makes it markedly more robust to non-speech noise than
// the energy heuristic. It imposes the standard WebRTC constraints: sample
// rates of 8, 16, 32, or 48 kHz and window durations of exactly 10, 20, or
// 30 ms. Construction fails for any other geometry.
//
// A Classifier wraps one detector instance and is owned by a single audio
// stream; it is not safe for concurrent use.
package webrtc

import (
	"fmt"

	"github.com/josharian/fvad"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

const (
	// DefaultSampleRate is the sample rate assumed when Config.SampleRate is zero.
	DefaultSampleRate = 16000

	// DefaultSamplesPerWindow is the window size assumed when
	// Config.SamplesPerWindow is zero (30 ms at 16 kHz).
	DefaultSamplesPerWindow = 480

	// DefaultMode is the detector aggressiveness used when Config.Mode is nil.
	// Mode 3 filters non-speech most aggressively.
	DefaultMode = 3

	// sampleWidth is fixed: libfvad operates on 16-bit PCM.
	sampleWidth = 2
)

// Config holds the parameters for a WebRTC VAD classifier.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must be one of 8000, 16000,
	// 32000, or 48000. Default: [DefaultSampleRate].
	SampleRate int

	// SamplesPerWindow is the number of samples per classification window.
	// The window must span exactly 10, 20, or 30 ms at SampleRate.
	// Default: [DefaultSamplesPerWindow].
	SamplesPerWindow int

	// Mode is the detector aggressiveness, an integer between 0 and 3
	// inclusive. 0 is the least aggressive about filtering out non-speech,
	// 3 the most. Default: [DefaultMode].
	Mode *int
}

// Classifier classifies windows of 16-bit little-endian mono PCM using the
// libfvad detector.
type Classifier struct {
	detector         *fvad.Detector
	sampleRate       int
	samplesPerWindow int
	windowBytes      int
	closed           bool
}

// New returns a Classifier for cfg. Zero-valued fields take defaults.
func New(cfg Config) (*Classifier, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.SamplesPerWindow == 0 {
		cfg.SamplesPerWindow = DefaultSamplesPerWindow
	}
	mode := DefaultMode
	if cfg.Mode != nil {
		mode = *cfg.Mode
	}
	if err := validateGeometry(cfg.SampleRate, cfg.SamplesPerWindow); err != nil {
		return nil, err
	}
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("webrtc: mode must be between 0 and 3, got %d", mode)
	}

	detector := fvad.NewDetector()
	if err := detector.SetSampleRate(cfg.SampleRate); err != nil {
		detector.Close()
		return nil, fmt.Errorf("webrtc: set sample rate: %w", err)
	}
	if err := detector.SetMode(mode); err != nil {
		detector.Close()
		return nil, fmt.Errorf("webrtc: set mode: %w", err)
	}

	return &Classifier{
		detector:         detector,
		sampleRate:       cfg.SampleRate,
		samplesPerWindow: cfg.SamplesPerWindow,
		windowBytes:      sampleWidth * cfg.SamplesPerWindow,
	}, nil
}

// validateGeometry checks the libfvad sample-rate and window-duration
// constraints.
func validateGeometry(sampleRate, samplesPerWindow int) error {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("webrtc: sample rate must be 8000, 16000, 32000, or 48000 Hz, got %d", sampleRate)
	}
	if samplesPerWindow <= 0 || samplesPerWindow*1000%sampleRate != 0 {
		return fmt.Errorf("webrtc: window of %d samples is not a whole number of milliseconds at %d Hz", samplesPerWindow, sampleRate)
	}
	switch ms := samplesPerWindow * 1000 / sampleRate; ms {
	case 10, 20, 30:
		return nil
	default:
		return fmt.Errorf("webrtc: window must span 10, 20, or 30 ms, got %d ms", ms)
	}
}

// Classify reports whether the detector considers the window to contain
// speech.
func (c *Classifier) Classify(window []byte) (bool, error) {
	if len(window) != c.windowBytes {
		return false, fmt.Errorf("%w: got %d bytes, want %d", classifier.ErrInvalidWindowSize, len(window), c.windowBytes)
	}
	samples := make([]int16, c.samplesPerWindow)
	for i := range samples {
		samples[i] = int16(window[i*2]) | int16(window[i*2+1])<<8
	}
	result, err := c.detector.Process(samples)
	if err != nil {
		return false, fmt.Errorf("webrtc: process window: %w", err)
	}
	return result, nil
}

// SampleRate returns the configured sample rate in Hz.
func (c *Classifier) SampleRate() int { return c.sampleRate }

// SampleWidth returns 2: libfvad operates on 16-bit samples.
func (c *Classifier) SampleWidth() int { return sampleWidth }

// SamplesPerWindow returns the configured window size in samples.
func (c *Classifier) SamplesPerWindow() int { return c.samplesPerWindow }

// Close releases the underlying detector. Calling Close more than once is
// safe and returns nil.
func (c *Classifier) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.detector.Close()
	return nil
}

// Ensure Classifier implements classifier.Classifier at compile time.
var _ classifier.Classifier = (*Classifier)(nil)
