// Package mock provides a test double for the classifier package.
//
// Use Classifier to script per-window detection results and inspect the
// windows that were submitted for classification.
//
// Example:
//
//	cl := &mock.Classifier{
//	    Results: []bool{false, false, true, true},
//	}
//	seg, _ := segment.New(cfg, cl)
package mock

import (
	"sync"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

// Default metadata reported when the corresponding field is zero.
const (
	DefaultSampleRate       = 16000
	DefaultSampleWidth      = 2
	DefaultSamplesPerWindow = 160
)

// ClassifyCall records a single invocation of Classifier.Classify.
type ClassifyCall struct {
	// Window is a copy of the bytes passed to Classify.
	Window []byte
}

// Classifier is a mock implementation of classifier.Classifier. Results are
// consumed in order, one per Classify call; once exhausted, the last result
// repeats (or false when Results is empty).
type Classifier struct {
	mu sync.Mutex

	// SampleRateVal, SampleWidthVal, and SamplesPerWindowVal override the
	// metadata reported by the accessor methods. Zero values fall back to the
	// package defaults.
	SampleRateVal       int
	SampleWidthVal      int
	SamplesPerWindowVal int

	// Results is the scripted sequence of Classify return values.
	Results []bool

	// ClassifyErr, if non-nil, is returned by every Classify call.
	ClassifyErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// --- Call records ---

	// ClassifyCalls records every call to Classify in order.
	ClassifyCalls []ClassifyCall

	// CloseCallCount is the number of times Close was called.
	CloseCallCount int

	next int
}

// Classify records the call and returns the next scripted result.
func (c *Classifier) Classify(window []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(window))
	copy(cp, window)
	c.ClassifyCalls = append(c.ClassifyCalls, ClassifyCall{Window: cp})
	if c.ClassifyErr != nil {
		return false, c.ClassifyErr
	}
	if len(c.Results) == 0 {
		return false, nil
	}
	result := c.Results[min(c.next, len(c.Results)-1)]
	c.next++
	return result, nil
}

// SampleRate returns SampleRateVal or [DefaultSampleRate].
func (c *Classifier) SampleRate() int {
	if c.SampleRateVal != 0 {
		return c.SampleRateVal
	}
	return DefaultSampleRate
}

// SampleWidth returns SampleWidthVal or [DefaultSampleWidth].
func (c *Classifier) SampleWidth() int {
	if c.SampleWidthVal != 0 {
		return c.SampleWidthVal
	}
	return DefaultSampleWidth
}

// SamplesPerWindow returns SamplesPerWindowVal or [DefaultSamplesPerWindow].
func (c *Classifier) SamplesPerWindow() int {
	if c.SamplesPerWindowVal != 0 {
		return c.SamplesPerWindowVal
	}
	return DefaultSamplesPerWindow
}

// Close records the call and returns CloseErr.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CloseCallCount++
	return c.CloseErr
}

// ResetCalls clears all recorded call history and rewinds the scripted
// results. Thread-safe.
func (c *Classifier) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ClassifyCalls = nil
	c.CloseCallCount = 0
	c.next = 0
}

// Ensure Classifier implements classifier.Classifier at compile time.
var _ classifier.Classifier = (*Classifier)(nil)
