//go:build !windows

package session

import (
	"context"

	"rawmouse/internal/capture"
	"rawmouse/internal/cfg"
	"rawmouse/internal/log"
	"rawmouse/internal/platform"
	"rawmouse/internal/x11"
)

// Output literals of the X11 path.
const (
	deltaTag       = "rawinput"
	disabledNotice = "Raw input disabled"
)

func newBackend(ctx context.Context, conf *cfg.Profile, logger *log.Logger) (platform.Backend, error) {
	geo := platform.Geometry{X: x11.DefaultX, Y: x11.DefaultY, W: x11.DefaultW, H: x11.DefaultH}
	if g := conf.Window.Geometry; g != nil {
		geo = platform.Geometry{X: g.X, Y: g.Y, W: g.W, H: g.H}
	}
	return x11.NewWindow(ctx, geo, conf.Window.Title, logger)
}

func newTracker(conf *cfg.Profile) *capture.Tracker {
	return capture.NewTracker(conf.X11.InvertDeltas)
}
