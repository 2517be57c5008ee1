// Package platform defines the closed set of input events the backends
// produce and the contract a windowing backend must fulfill. The backends
// translate their native event streams into these variants so that the
// session loop never has to switch on platform event codes.
package platform

import "errors"

// Error kinds surfaced by backend constructors. The underlying platform
// failure is wrapped so it stays inspectable.
var (
	ErrWindowCreation     = errors.New("window creation failed")
	ErrDeviceRegistration = errors.New("raw input device registration failed")
)

// Event is one of MotionEvent, DeltaEvent, KeyEvent or CloseEvent.
type Event interface {
	event()
}

// MotionEvent is an absolute pointer position report, in window coordinates.
type MotionEvent struct {
	X int
	Y int
}

// DeltaEvent is an already-relative raw motion report. Backends discard
// non-mouse devices and all-zero reports before producing one.
type DeltaEvent struct {
	Dx float64
	Dy float64
}

// KeyEvent is a key press. Any key deactivates capture; the code is carried
// for logging only.
type KeyEvent struct {
	Code uint32
}

// CloseEvent signals that the window is closing or already gone.
type CloseEvent struct{}

func (MotionEvent) event() {}
func (DeltaEvent) event()  {}
func (KeyEvent) event()    {}
func (CloseEvent) event()  {}

// Geometry is the window position and size.
type Geometry struct {
	X int
	Y int
	W int
	H int
}

// Backend is a platform window that reports raw pointer motion. All methods
// other than the channel getters may be called only from the single event
// processing goroutine.
type Backend interface {
	// Events returns the backend's event stream. The channel is closed when
	// the backend shuts down.
	Events() <-chan Event

	// Errors returns the backend's error stream.
	Errors() <-chan error

	// Confine claims the pointer for the window: confine or grab the cursor,
	// register for raw motion reporting and warp the pointer to the window
	// center.
	Confine() error

	// Release undoes Confine: detach raw motion reporting and release the
	// cursor. It must be called at most once.
	Release() error

	// Recenter warps the pointer back to the window center so that deltas
	// stay boundable.
	Recenter() error

	// Close destroys the window and stops the event stream.
	Close() error
}
