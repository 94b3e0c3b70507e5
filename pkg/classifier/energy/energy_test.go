package energy

import (
	"errors"
	"math"
	"testing"

	"github.com/fujie-cit/streaming-vad/pkg/classifier"
)

// sineWindow generates one window of little-endian int16 PCM containing a
// 440 Hz sine at the given peak amplitude (0.0–1.0).
func sineWindow(samples int, sampleRate int, amplitude float64) []byte {
	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		s := int16(v * 32767)
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}
	return pcm
}

func TestClassify_SpeechAndSilence(t *testing.T) {
	t.Parallel()

	cl, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name      string
		amplitude float64
		want      bool
	}{
		{"silence", 0.0, false},
		{"faint noise", 0.005, false},
		{"quiet speech", 0.05, true},
		{"loud speech", 0.8, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cl.Classify(sineWindow(cl.SamplesPerWindow(), cl.SampleRate(), tc.amplitude))
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got != tc.want {
				t.Errorf("amplitude %g: got %v, want %v", tc.amplitude, got, tc.want)
			}
		})
	}
}

func TestClassify_WrongWindowSize(t *testing.T) {
	t.Parallel()

	cl, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = cl.Classify(make([]byte, 10))
	if !errors.Is(err, classifier.ErrInvalidWindowSize) {
		t.Fatalf("got %v, want ErrInvalidWindowSize", err)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	cl, err := New(Config{Threshold: 0.02})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	window := sineWindow(cl.SamplesPerWindow(), cl.SampleRate(), 0.021)
	first, err := cl.Classify(window)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := cl.Classify(window)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if got != first {
			t.Fatalf("result changed on repeat call %d: %v vs %v", i, got, first)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	cl, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if cl.SampleRate() != DefaultSampleRate {
		t.Errorf("SampleRate = %d, want %d", cl.SampleRate(), DefaultSampleRate)
	}
	if cl.SampleWidth() != 2 {
		t.Errorf("SampleWidth = %d, want 2", cl.SampleWidth())
	}
	if cl.SamplesPerWindow() != DefaultSamplesPerWindow {
		t.Errorf("SamplesPerWindow = %d, want %d", cl.SamplesPerWindow(), DefaultSamplesPerWindow)
	}
}

func TestNew_InvalidThreshold(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Threshold: 1.5}); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
	if _, err := New(Config{Threshold: -0.1}); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}
