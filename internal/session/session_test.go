package session

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"rawmouse/internal/capture"
	"rawmouse/internal/log"
	"rawmouse/internal/platform"
)

type fakeBackend struct {
	events chan platform.Event
	errs   chan error

	confined  int
	released  int
	recenters int
	closed    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		events: make(chan platform.Event, 16),
		errs:   make(chan error, 4),
	}
}

func (f *fakeBackend) Events() <-chan platform.Event { return f.events }
func (f *fakeBackend) Errors() <-chan error          { return f.errs }
func (f *fakeBackend) Confine() error                { f.confined += 1; return nil }
func (f *fakeBackend) Release() error                { f.released += 1; return nil }
func (f *fakeBackend) Recenter() error               { f.recenters += 1; return nil }
func (f *fakeBackend) Close() error                  { f.closed += 1; return nil }

func runSession(t *testing.T, backend *fakeBackend, tracker *capture.Tracker, out *bytes.Buffer, events ...platform.Event) {
	t.Helper()
	logger := log.DefaultLogger(log.ERROR, "")
	s := New(backend, tracker, &logger, out)
	done := make(chan error)
	go func() {
		done <- s.Run(context.Background())
	}()
	for _, evt := range events {
		backend.events <- evt
	}
	backend.events <- platform.CloseEvent{}
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSessionScenario(t *testing.T) {
	backend := newFakeBackend()
	out := &bytes.Buffer{}
	runSession(t, backend, capture.NewTracker(false), out,
		platform.DeltaEvent{Dx: 3, Dy: 4},
		platform.KeyEvent{Code: 38},
		platform.DeltaEvent{Dx: 1, Dy: 1},
	)

	want := fmt.Sprintf("%s: 3 4\n%s\n", deltaTag, disabledNotice)
	if out.String() != want {
		t.Fatalf("got output %q, want %q", out.String(), want)
	}
	if backend.confined != 1 {
		t.Fatalf("confined %d times", backend.confined)
	}
	if backend.released != 1 {
		t.Fatalf("released %d times", backend.released)
	}
}

func TestSessionRepeatedKeyPresses(t *testing.T) {
	backend := newFakeBackend()
	out := &bytes.Buffer{}
	runSession(t, backend, capture.NewTracker(false), out,
		platform.KeyEvent{Code: 38},
		platform.KeyEvent{Code: 38},
		platform.KeyEvent{Code: 40},
	)

	// Exactly one notice and one release, no matter how many keys follow.
	want := disabledNotice + "\n"
	if out.String() != want {
		t.Fatalf("got output %q, want %q", out.String(), want)
	}
	if backend.released != 1 {
		t.Fatalf("released %d times", backend.released)
	}
}

func TestSessionAbsoluteMotion(t *testing.T) {
	backend := newFakeBackend()
	out := &bytes.Buffer{}
	runSession(t, backend, capture.NewTracker(true), out,
		platform.MotionEvent{X: 10, Y: 10},
		platform.MotionEvent{X: 15, Y: 12},
	)

	want := fmt.Sprintf("%s: -5 -2\n", deltaTag)
	if out.String() != want {
		t.Fatalf("got output %q, want %q", out.String(), want)
	}
	// Both samples recenter the pointer, even the seeding one.
	if backend.recenters != 2 {
		t.Fatalf("recentered %d times", backend.recenters)
	}
}

func TestSessionMotionAfterReleaseIsSilent(t *testing.T) {
	backend := newFakeBackend()
	out := &bytes.Buffer{}
	runSession(t, backend, capture.NewTracker(true), out,
		platform.KeyEvent{Code: 24},
		platform.MotionEvent{X: 10, Y: 10},
		platform.MotionEvent{X: 15, Y: 12},
		platform.DeltaEvent{Dx: 2, Dy: 2},
	)

	want := disabledNotice + "\n"
	if out.String() != want {
		t.Fatalf("got output %q, want %q", out.String(), want)
	}
	if backend.recenters != 0 {
		t.Fatalf("recentered %d times after release", backend.recenters)
	}
}
