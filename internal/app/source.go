package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// PumpReader reads fixed-size PCM frames from r and delivers them on out
// until EOF or ctx cancellation. A trailing partial frame is discarded. The
// out channel is closed on return so the consumer sees end of stream.
func PumpReader(ctx context.Context, r io.Reader, frameBytes int, out chan<- []byte) error {
	defer close(out)

	if frameBytes <= 0 {
		return fmt.Errorf("app: invalid frame size %d", frameBytes)
	}

	for {
		frame := make([]byte, frameBytes)
		_, err := io.ReadFull(r, frame)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			slog.Debug("discarding trailing partial frame")
			return nil
		}
		if err != nil {
			return fmt.Errorf("app: read frame: %w", err)
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
