package loader

// Progress observes one artifact download. Implementations must be safe to
// call from the downloading goroutine; Loader never calls them concurrently
// for the same download.
type Progress interface {
	// Start is called once, when the expected size is first known.
	// total is 0 if the size is unknown.
	Start(total int64)
	// Add reports n more bytes. Bytes already on disk from an earlier
	// partial download are reported once at the start, and are not taken
	// back if the server forces a restart.
	Add(n int64)
	// Done is called once when Download succeeds or fails, including
	// when a cached artifact is returned without Start.
	Done(err error)
}

// VerifyObserver is implemented by a Progress that wants to know when the
// loader starts checking an artifact.
type VerifyObserver interface {
	Verifying()
}

// meter adapts an optional Progress.
type meter struct {
	p       Progress
	started bool
	ended   bool
}

func (m *meter) start(total int64) {
	if m.p == nil || m.started {
		return
	}
	m.started = true
	m.p.Start(max(total, 0))
}

func (m *meter) add(n int64) {
	if m.p == nil || n <= 0 {
		return
	}
	m.p.Add(n)
}

func (m *meter) Write(b []byte) (int, error) {
	m.add(int64(len(b)))
	return len(b), nil
}

func (m *meter) done(err error) {
	if m.p == nil || m.ended {
		return
	}
	m.ended = true
	m.p.Done(err)
}

func (m *meter) verifying() {
	if v, ok := m.p.(VerifyObserver); ok {
		v.Verifying()
	}
}
