package segment

import "fmt"

// Defaults for [Config]. The frame defaults describe 10 ms frames of 16-bit
// mono PCM at 16 kHz, the geometry used by most speech recognisers.
const (
	DefaultSampleRate          = 16000
	DefaultSampleWidth         = 2
	DefaultSamplesPerFrame     = 160
	DefaultStartFrameThreshold = 5
	DefaultStartRollbackFrames = 10
	DefaultEndFrameThreshold   = 30
)

// Config holds the construction parameters for a [Segmenter]. It is
// immutable after construction.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must equal the classifier's
	// declared sample rate.
	SampleRate int

	// SampleWidth is the width of a single sample in bytes. Must equal the
	// classifier's declared sample width.
	SampleWidth int

	// SamplesPerFrame is the engine's unit of input in samples. It must not
	// exceed the classifier's window size, and the classifier window must be
	// an exact integer multiple of it.
	SamplesPerFrame int

	// StartFrameThreshold is the number of consecutive speech classifications
	// required to declare that a segment has started. Raising it filters
	// spurious onsets from short noise bursts at the cost of onset latency.
	StartFrameThreshold int

	// StartRollbackFrames is the number of most-recent input frames replayed
	// in the Started event's payload. This recovers the onset audio that was
	// consumed while the start count was still below threshold.
	StartRollbackFrames int

	// EndFrameThreshold is the number of consecutive non-speech
	// classifications required to declare that a segment has ended. It is
	// deliberately larger than StartFrameThreshold so that brief pauses
	// mid-utterance do not truncate the segment.
	EndFrameThreshold int

	// EmitIdleFrames controls whether Idle events carry the frame evicted
	// from the rollback buffer. When false (the default), Idle events have
	// an empty payload.
	EmitIdleFrames bool
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:          DefaultSampleRate,
		SampleWidth:         DefaultSampleWidth,
		SamplesPerFrame:     DefaultSamplesPerFrame,
		StartFrameThreshold: DefaultStartFrameThreshold,
		StartRollbackFrames: DefaultStartRollbackFrames,
		EndFrameThreshold:   DefaultEndFrameThreshold,
	}
}

// validate checks that cfg is internally coherent. Cross-checks against the
// classifier happen in [New].
func (cfg Config) validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrConfigMismatch, cfg.SampleRate)
	}
	if cfg.SampleWidth <= 0 {
		return fmt.Errorf("%w: sample width must be positive, got %d", ErrConfigMismatch, cfg.SampleWidth)
	}
	if cfg.SamplesPerFrame <= 0 {
		return fmt.Errorf("%w: samples per frame must be positive, got %d", ErrConfigMismatch, cfg.SamplesPerFrame)
	}
	if cfg.StartFrameThreshold < 1 {
		return fmt.Errorf("%w: start frame threshold must be at least 1, got %d", ErrConfigMismatch, cfg.StartFrameThreshold)
	}
	if cfg.EndFrameThreshold < 1 {
		return fmt.Errorf("%w: end frame threshold must be at least 1, got %d", ErrConfigMismatch, cfg.EndFrameThreshold)
	}
	if cfg.StartRollbackFrames < 0 {
		return fmt.Errorf("%w: start rollback frames must not be negative, got %d", ErrConfigMismatch, cfg.StartRollbackFrames)
	}
	return nil
}
