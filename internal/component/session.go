package component

// SessionRef links a character entity to the feed session that spawned it,
// so command results can be routed back. Zero means the host spawned it.
type SessionRef struct {
	SessionID uint64
}
