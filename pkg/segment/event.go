package segment

// State tags a segmentation [Event].
//
// Idle and Continue are resting states: the engine stays in them across
// frames. Started and Ended are one-shot transition tags — immediately after
// emitting one, the engine settles back into Continue or Idle respectively.
type State int

const (
	// StateIdle indicates no speech segment is active.
	StateIdle State = iota

	// StateStarted indicates a speech segment has just begun. The event
	// payload carries the rollback frames leading into the onset.
	StateStarted

	// StateContinue indicates an ongoing speech segment.
	StateContinue

	// StateEnded indicates the active speech segment has just ended.
	StateEnded
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateContinue:
		return "continue"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is the result of processing one input frame. Exactly one Event is
// produced per call to [Segmenter.ProcessFrame].
type Event struct {
	// State is the segmentation verdict for this frame.
	State State

	// Frames holds raw frame payloads in arrival order, each exactly one
	// engine frame of little-endian 16-bit PCM. Contents depend on State:
	//
	//   - Started: the rollback buffer — up to StartRollbackFrames of recent
	//     audio, including the current frame.
	//   - Continue, Ended: the frames accumulated since the last emission
	//     (one frame in the steady state).
	//   - Idle: empty, unless EmitIdleFrames is set, in which case it may
	//     carry the single frame just evicted from the rollback buffer.
	//
	// Ownership of the payload transfers to the caller; the engine does not
	// retain references to it.
	Frames [][]byte
}
