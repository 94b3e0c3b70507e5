package webrtc

import "testing"

// Geometry validation is pure and testable without instantiating the cgo
// detector.
func TestValidateGeometry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    int
		samples int
		wantErr bool
	}{
		{"16kHz 10ms", 16000, 160, false},
		{"16kHz 20ms", 16000, 320, false},
		{"16kHz 30ms", 16000, 480, false},
		{"8kHz 30ms", 8000, 240, false},
		{"32kHz 10ms", 32000, 320, false},
		{"48kHz 20ms", 48000, 960, false},
		{"unsupported rate", 44100, 441, true},
		{"40ms window", 16000, 640, true},
		{"fractional ms", 16000, 100, true},
		{"zero window", 16000, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateGeometry(tc.rate, tc.samples)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateGeometry(%d, %d) = %v, wantErr %v", tc.rate, tc.samples, err, tc.wantErr)
			}
		})
	}
}
