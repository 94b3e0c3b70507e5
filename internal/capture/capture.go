// Package capture records mono PCM audio from the default input device and
// delivers it as fixed-size frames suitable for the segmentation engine.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ErrAlreadyStarted is returned when Start is called on a running Recorder.
var ErrAlreadyStarted = errors.New("capture: already started")

// Config holds the audio geometry for a Recorder. It must match the
// segmentation engine it feeds.
type Config struct {
	// SampleRate is the capture rate in Hz.
	SampleRate int
	// SamplesPerFrame is the number of samples delivered per frame.
	SamplesPerFrame int
}

// Recorder reads 16-bit mono audio from the default input device and emits
// one frame of little-endian PCM bytes per stream read.
type Recorder struct {
	cfg    Config
	frames chan []byte

	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	running bool
	done    chan struct{}
}

// NewRecorder initializes the audio backend and returns a Recorder. The
// caller must call Close to release the backend.
func NewRecorder(cfg Config) (*Recorder, error) {
	if cfg.SampleRate <= 0 || cfg.SamplesPerFrame <= 0 {
		return nil, fmt.Errorf("capture: invalid geometry: rate=%d samples=%d", cfg.SampleRate, cfg.SamplesPerFrame)
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: initialize: %w", err)
	}
	return &Recorder{
		cfg:    cfg,
		frames: make(chan []byte, 8),
		buffer: make([]int16, cfg.SamplesPerFrame),
	}, nil
}

// Frames returns the channel on which captured frames are delivered. The
// channel is closed when the capture loop stops.
func (r *Recorder) Frames() <-chan []byte {
	return r.frames
}

// Start opens the default input stream and begins delivering frames until
// ctx is cancelled or Stop is called.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyStarted
	}

	stream, err := portaudio.OpenDefaultStream(
		1, // input channels, mono
		0, // output channels
		float64(r.cfg.SampleRate),
		r.cfg.SamplesPerFrame,
		r.buffer,
	)
	if err != nil {
		return fmt.Errorf("capture: open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("capture: start stream: %w", err)
	}

	r.stream = stream
	r.running = true
	r.done = make(chan struct{})

	go r.recordLoop(ctx)

	slog.Debug("capture started",
		"sample_rate", r.cfg.SampleRate,
		"samples_per_frame", r.cfg.SamplesPerFrame,
	)
	return nil
}

// recordLoop reads the stream one frame at a time and forwards each frame
// to the output channel until cancellation.
func (r *Recorder) recordLoop(ctx context.Context) {
	defer close(r.done)
	defer close(r.frames)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r.mu.Lock()
		running := r.running
		stream := r.stream
		r.mu.Unlock()
		if !running || stream == nil {
			return
		}

		if err := stream.Read(); err != nil {
			// Overflows happen when the consumer falls behind; the next
			// read resynchronizes the stream.
			if errors.Is(err, portaudio.InputOverflowed) {
				slog.Warn("capture input overflowed")
				continue
			}
			slog.Error("capture read failed", "error", err)
			return
		}

		frame := make([]byte, len(r.buffer)*2)
		for i, s := range r.buffer {
			frame[2*i] = byte(s)
			frame[2*i+1] = byte(s >> 8)
		}

		select {
		case r.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the capture loop and closes the stream. It is safe to call
// multiple times.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stream := r.stream
	r.stream = nil
	done := r.done
	r.mu.Unlock()

	if stream != nil {
		stream.Abort()
	}
	if done != nil {
		<-done
	}
	if stream != nil {
		stream.Close()
	}
}

// Close stops the recorder and releases the audio backend.
func (r *Recorder) Close() error {
	r.Stop()
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("capture: terminate: %w", err)
	}
	return nil
}
