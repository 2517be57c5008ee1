//go:build windows

package session

import (
	"context"

	"rawmouse/internal/capture"
	"rawmouse/internal/cfg"
	"rawmouse/internal/log"
	"rawmouse/internal/platform"
	"rawmouse/internal/win32"
)

// Output literals of the Windows path.
const (
	deltaTag       = "raw input"
	disabledNotice = "rawinput disabled"
)

func newBackend(_ context.Context, conf *cfg.Profile, logger *log.Logger) (platform.Backend, error) {
	geo := platform.Geometry{X: win32.DefaultX, Y: win32.DefaultY, W: win32.DefaultW, H: win32.DefaultH}
	if g := conf.Window.Geometry; g != nil {
		geo = platform.Geometry{X: g.X, Y: g.Y, W: g.W, H: g.H}
	}
	return win32.NewWindow(geo, conf.Window.Title, logger)
}

func newTracker(conf *cfg.Profile) *capture.Tracker {
	// Raw input deltas are already relative; no inversion on this path.
	return capture.NewTracker(false)
}
