// Package segment turns a stream of fixed-size audio frames into discrete
// speech segments.
//
// A [Segmenter] applies hysteresis (debounced) thresholding over the boolean
// output of a per-window [classifier.Classifier]: speech is declared started
// only after StartFrameThreshold consecutive speech classifications, and
// ended only after EndFrameThreshold consecutive non-speech classifications.
// A bounded rollback buffer replays the audio that led into a detected onset,
// so the first word is not clipped by the debounce delay.
//
// The engine accepts frames smaller than the classifier's window: it
// accumulates frames until a full window is available, classifies it, and
// carries the previous classification forward for frames arriving in
// between. This keeps the output cadence at frame granularity at the cost of
// classification staleness within a window — a deliberate latency trade.
//
// A Segmenter is single-owner, synchronous state: ProcessFrame performs no
// blocking I/O and no background work, and concurrent calls against one
// instance are not supported. Use one Segmenter per audio stream, called
// strictly in frame-arrival order. The engine itself never logs; all error
// conditions surface synchronously to the caller.
package segment

import (
	"errors"
	"fmt"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

// ErrConfigMismatch is returned by [New] when the engine configuration is
// incompatible with itself or with the classifier's declared metadata.
var ErrConfigMismatch = errors.New("segment: configuration mismatch")

// ErrInvalidFrameSize is returned by [Segmenter.ProcessFrame] when the frame
// byte length does not match SampleWidth * SamplesPerFrame. The engine
// performs no partial-frame handling or padding.
var ErrInvalidFrameSize = errors.New("segment: invalid frame size")

// ErrInvalidState signals a macro-state outside {Idle, Continue}. It
// indicates an internal invariant violation and is not recoverable.
var ErrInvalidState = errors.New("segment: invalid internal state")

// Segmenter is the streaming segmentation engine. Construct with [New].
type Segmenter struct {
	cfg        Config
	cl         classifier.Classifier
	frameBytes int

	// windowRatio is how many engine frames make up one classifier window.
	windowRatio int

	// window accumulates raw frame bytes awaiting a full classifier window.
	window []byte

	// lastResult is the most recent classifier verdict, carried forward for
	// frames that arrive between classifier invocations.
	lastResult bool

	// count tracks consecutive same-direction classifications: speech while
	// resting in Idle, non-speech while resting in Continue.
	count int

	// state is the resting macro-state, StateIdle or StateContinue.
	state State

	// buffer holds recent frames: the rollback history while Idle, and the
	// frames accumulated since the last emission while in a segment.
	buffer *frameRing
}

// New returns a Segmenter that feeds cl and validates cfg against the
// classifier's declared metadata. It returns an error wrapping
// [ErrConfigMismatch] when the sample rate or width differ, when the engine
// frame exceeds the classifier window, or when the window is not an exact
// multiple of the engine frame.
func New(cfg Config, cl classifier.Classifier) (*Segmenter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.SampleRate != cl.SampleRate() {
		return nil, fmt.Errorf("%w: sample rate %d != classifier's %d", ErrConfigMismatch, cfg.SampleRate, cl.SampleRate())
	}
	if cfg.SampleWidth != cl.SampleWidth() {
		return nil, fmt.Errorf("%w: sample width %d != classifier's %d", ErrConfigMismatch, cfg.SampleWidth, cl.SampleWidth())
	}
	if cfg.SamplesPerFrame > cl.SamplesPerWindow() {
		return nil, fmt.Errorf("%w: frame of %d samples exceeds classifier window of %d", ErrConfigMismatch, cfg.SamplesPerFrame, cl.SamplesPerWindow())
	}
	if cl.SamplesPerWindow()%cfg.SamplesPerFrame != 0 {
		return nil, fmt.Errorf("%w: classifier window of %d samples is not a multiple of the %d-sample frame", ErrConfigMismatch, cl.SamplesPerWindow(), cfg.SamplesPerFrame)
	}

	frameBytes := cfg.SampleWidth * cfg.SamplesPerFrame
	ratio := cl.SamplesPerWindow() / cfg.SamplesPerFrame
	return &Segmenter{
		cfg:         cfg,
		cl:          cl,
		frameBytes:  frameBytes,
		windowRatio: ratio,
		window:      make([]byte, 0, frameBytes*ratio),
		state:       StateIdle,
		buffer:      newFrameRing(cfg.StartRollbackFrames),
	}, nil
}

// Config returns the configuration the Segmenter was constructed with.
func (s *Segmenter) Config() Config { return s.cfg }

// ProcessFrame submits one frame of little-endian PCM and returns exactly one
// [Event] describing its fate. The frame must be exactly
// SampleWidth * SamplesPerFrame bytes; otherwise an error wrapping
// [ErrInvalidFrameSize] is returned.
//
// The frame is copied internally, so the caller may reuse its slice.
// A classifier failure is returned as-is; the stream should be [Reset]
// before continuing after one.
func (s *Segmenter) ProcessFrame(frame []byte) (Event, error) {
	if len(frame) != s.frameBytes {
		return Event{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidFrameSize, len(frame), s.frameBytes)
	}
	owned := make([]byte, len(frame))
	copy(owned, frame)

	// Accumulate towards a classifier window; between invocations the
	// previous verdict is carried forward.
	s.window = append(s.window, owned...)
	result := s.lastResult
	if len(s.window) == s.frameBytes*s.windowRatio {
		r, err := s.cl.Classify(s.window)
		s.window = s.window[:0]
		if err != nil {
			return Event{}, fmt.Errorf("segment: classify: %w", err)
		}
		result = r
	}
	s.lastResult = result

	evicted := s.buffer.push(owned)

	switch s.state {
	case StateIdle:
		if result {
			s.count++
		} else {
			s.count = 0
		}
		if s.count >= s.cfg.StartFrameThreshold {
			ev := Event{State: StateStarted, Frames: s.buffer.snapshot()}
			s.buffer.clear()
			s.count = 0
			s.state = StateContinue
			return ev, nil
		}
		ev := Event{State: StateIdle}
		if s.cfg.EmitIdleFrames && evicted != nil {
			ev.Frames = [][]byte{evicted}
		}
		return ev, nil

	case StateContinue:
		if result {
			s.count = 0
		} else {
			s.count++
		}
		ev := Event{Frames: s.buffer.snapshot()}
		s.buffer.clear()
		if s.count >= s.cfg.EndFrameThreshold {
			ev.State = StateEnded
			s.count = 0
			s.state = StateIdle
		} else {
			ev.State = StateContinue
		}
		return ev, nil

	default:
		return Event{}, fmt.Errorf("%w: %d", ErrInvalidState, s.state)
	}
}

// Reset returns the runtime state to its freshly-constructed form: pending
// window bytes, hysteresis counters, and buffered frames are all dropped.
// Use it to recover from a forced stream interruption without rebuilding the
// engine.
func (s *Segmenter) Reset() {
	s.window = s.window[:0]
	s.lastResult = false
	s.count = 0
	s.state = StateIdle
	s.buffer.clear()
}
