// Package classifier defines the Classifier interface for per-window voice
// activity backends.
//
// A classifier inspects a fixed-size window of raw PCM audio and answers a
// single question: does this window contain speech? It carries no notion of
// segments, debouncing, or time — that logic lives in the segment package,
// which consumes a classifier one window at a time. Backends range from cheap
// signal heuristics (see the energy sub-package) to trained voice models (see
// the webrtc sub-package); all of them expose the same metadata so the
// segmentation engine can validate its own frame geometry against them at
// construction time.
//
// Implementations must be deterministic: the same window with the same
// configuration must always yield the same answer. A Classifier is owned by a
// single audio stream and is not required to be safe for concurrent use.
package classifier

import "errors"

// ErrInvalidWindowSize is returned by Classify when the supplied window's
// byte length does not match SampleWidth() * SamplesPerWindow().
var ErrInvalidWindowSize = errors.New("classifier: invalid window size")

// Classifier is the per-window voice activity contract consumed by the
// segmentation engine.
type Classifier interface {
	// Classify reports whether the window contains speech. The window must be
	// raw little-endian PCM of exactly SampleWidth() * SamplesPerWindow()
	// bytes; Classify returns an error wrapping [ErrInvalidWindowSize]
	// otherwise. It is synchronous and must not block on I/O.
	Classify(window []byte) (bool, error)

	// SampleRate returns the audio sample rate in Hz the classifier expects.
	SampleRate() int

	// SampleWidth returns the width of a single sample in bytes.
	SampleWidth() int

	// SamplesPerWindow returns the number of samples in one classification
	// window.
	SamplesPerWindow() int

	// Close releases any resources held by the classifier. Calling Close more
	// than once is safe and returns nil.
	Close() error
}

// WindowBytes returns the byte length of one classification window of c.
func WindowBytes(c Classifier) int {
	return c.SampleWidth() * c.SamplesPerWindow()
}
