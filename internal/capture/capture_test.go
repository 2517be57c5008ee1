package capture_test

import (
	"testing"

	"rawmouse/internal/capture"
)

func TestRelativePassthrough(t *testing.T) {
	tracker := capture.NewTracker(false)
	d, ok := tracker.Relative(7, -3)
	if !ok {
		t.Fatal("expected a delta while capturing")
	}
	if d.Dx != 7 || d.Dy != -3 {
		t.Fatalf("got (%d, %d), want (7, -3)", d.Dx, d.Dy)
	}
}

func TestRelativeInverted(t *testing.T) {
	tracker := capture.NewTracker(true)
	d, ok := tracker.Relative(7, -3)
	if !ok {
		t.Fatal("expected a delta while capturing")
	}
	if d.Dx != -7 || d.Dy != 3 {
		t.Fatalf("got (%d, %d), want (-7, 3)", d.Dx, d.Dy)
	}
}

func TestAbsolutePreviousMinusCurrent(t *testing.T) {
	tracker := capture.NewTracker(true)
	if _, ok := tracker.Absolute(10, 10); ok {
		t.Fatal("first absolute sample should only seed")
	}
	d, ok := tracker.Absolute(15, 12)
	if !ok {
		t.Fatal("expected a delta for the second sample")
	}
	if d.Dx != -5 || d.Dy != -2 {
		t.Fatalf("got (%d, %d), want (-5, -2)", d.Dx, d.Dy)
	}
}

func TestGatingAfterDeactivate(t *testing.T) {
	tracker := capture.NewTracker(false)
	if !tracker.Deactivate() {
		t.Fatal("first deactivation should signal the release actions")
	}
	if _, ok := tracker.Relative(3, 4); ok {
		t.Fatal("relative sample produced a delta while released")
	}
	if _, ok := tracker.Absolute(3, 4); ok {
		t.Fatal("absolute sample produced a delta while released")
	}
	if tracker.Enabled() {
		t.Fatal("tracker still enabled after deactivation")
	}
}

func TestDeactivateIdempotent(t *testing.T) {
	tracker := capture.NewTracker(false)
	if !tracker.Deactivate() {
		t.Fatal("first deactivation should signal the release actions")
	}
	for i := 0; i < 3; i += 1 {
		if tracker.Deactivate() {
			t.Fatal("repeated deactivation signalled release actions again")
		}
	}
}

func TestNoReactivation(t *testing.T) {
	tracker := capture.NewTracker(false)
	tracker.Deactivate()

	// No sequence of inputs may restore the capturing state.
	tracker.Relative(1, 1)
	tracker.Absolute(5, 5)
	tracker.Absolute(6, 6)
	tracker.Deactivate()
	if tracker.Enabled() {
		t.Fatal("tracker re-enabled itself")
	}
	if _, ok := tracker.Relative(1, 1); ok {
		t.Fatal("delta produced after release")
	}
}

func TestFractionalTruncation(t *testing.T) {
	tracker := capture.NewTracker(false)
	d, ok := tracker.Relative(2.75, -1.5)
	if !ok {
		t.Fatal("expected a delta while capturing")
	}
	if d.Dx != 2 || d.Dy != -1 {
		t.Fatalf("got (%d, %d), want (2, -1)", d.Dx, d.Dy)
	}
}
