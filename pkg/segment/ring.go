package segment

// frameRing is a fixed-capacity FIFO of frame payloads backed by a
// preallocated array with head/count indices, so pushes on the per-frame hot
// path never allocate. When full, a push evicts the oldest frame.
type frameRing struct {
	frames [][]byte
	head   int // index of the oldest frame
	count  int
}

func newFrameRing(capacity int) *frameRing {
	return &frameRing{frames: make([][]byte, capacity)}
}

// push appends frame. If the ring is at capacity, the oldest frame is
// evicted and returned; otherwise push returns nil. A zero-capacity ring
// evicts every frame immediately.
func (r *frameRing) push(frame []byte) (evicted []byte) {
	if len(r.frames) == 0 {
		return frame
	}
	if r.count == len(r.frames) {
		evicted = r.frames[r.head]
		r.frames[r.head] = frame
		r.head = (r.head + 1) % len(r.frames)
		return evicted
	}
	r.frames[(r.head+r.count)%len(r.frames)] = frame
	r.count++
	return nil
}

// snapshot returns the buffered frames oldest-first in a freshly allocated
// slice. The frame payloads themselves are not copied.
func (r *frameRing) snapshot() [][]byte {
	out := make([][]byte, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.frames[(r.head+i)%len(r.frames)]
	}
	return out
}

// clear drops all buffered frames and releases their payloads.
func (r *frameRing) clear() {
	for i := range r.frames {
		r.frames[i] = nil
	}
	r.head = 0
	r.count = 0
}

func (r *frameRing) len() int { return r.count }
