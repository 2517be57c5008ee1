// Package capture implements the raw-motion gate: it converts low-level
// pointer reports into relative deltas while capture is enabled and handles
// the single enabled -> released transition.
package capture

// Delta is one relative motion sample. It exists only for the duration of one
// event-handling step; nothing stores it after it has been printed.
type Delta struct {
	Dx int
	Dy int
}

// Tracker owns the capture flag and whatever position memory the absolute
// path needs. It is not safe for concurrent use; the event loop that owns it
// is strictly sequential.
type Tracker struct {
	enabled bool
	invert  bool

	// Previous absolute position, for backends that report positions rather
	// than deltas.
	havePrev bool
	prevX    int
	prevY    int
}

// NewTracker returns a Tracker in the Capturing state. If invert is set,
// relative deltas are negated, matching the sign convention the X11 path has
// always had. See the configuration documentation before changing it.
func NewTracker(invert bool) *Tracker {
	return &Tracker{enabled: true, invert: invert}
}

// Enabled reports whether the tracker is still capturing.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Relative processes an already-relative motion report (Windows raw input,
// X11 raw valuators.) The report must be pre-filtered by the backend: mouse
// device only, never all-zero. Returns false while released.
func (t *Tracker) Relative(dx, dy float64) (Delta, bool) {
	if !t.enabled {
		return Delta{}, false
	}
	d := Delta{Dx: int(dx), Dy: int(dy)}
	if t.invert {
		d.Dx, d.Dy = -d.Dx, -d.Dy
	}
	return d, true
}

// Absolute processes an absolute position report and produces the difference
// against the previous report, previous minus current. The first report only
// seeds the previous position. Returns false while released or when seeding.
func (t *Tracker) Absolute(x, y int) (Delta, bool) {
	if !t.enabled {
		return Delta{}, false
	}
	if !t.havePrev {
		t.havePrev = true
		t.prevX, t.prevY = x, y
		return Delta{}, false
	}
	d := Delta{Dx: t.prevX - x, Dy: t.prevY - y}
	t.prevX, t.prevY = x, y
	return d, true
}

// Deactivate performs the Capturing -> Released transition. It returns true
// exactly once; the caller must then detach raw reporting, release the
// pointer confinement and print the one-time notice. Later calls are no-ops.
// There is no path back to Capturing.
func (t *Tracker) Deactivate() bool {
	if !t.enabled {
		return false
	}
	t.enabled = false
	return true
}
