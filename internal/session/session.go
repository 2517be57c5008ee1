// Package session wires the motion tracker to a platform backend: it runs
// the event loop, prints delta lines to standard output and performs the
// one-time release when a key is pressed.
package session

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"rawmouse/internal/capture"
	"rawmouse/internal/cfg"
	"rawmouse/internal/log"
	"rawmouse/internal/platform"
)

// Session drives one capture run. Events are processed strictly one at a
// time on the goroutine that calls Run; the tracker is never shared.
type Session struct {
	backend platform.Backend
	tracker *capture.Tracker
	logger  *log.Logger
	out     io.Writer

	updates   <-chan cfg.Profile
	watchErrs <-chan error
}

// New creates a session over the given backend and tracker. Delta lines and
// the disabled notice are written to out.
func New(backend platform.Backend, tracker *capture.Tracker, logger *log.Logger, out io.Writer) *Session {
	return &Session{
		backend: backend,
		tracker: tracker,
		logger:  logger,
		out:     out,
	}
}

// WatchConfig attaches a live configuration stream. Only the log level is
// applied mid-run; everything else takes effect on restart.
func (s *Session) WatchConfig(updates <-chan cfg.Profile, errs <-chan error) {
	s.updates = updates
	s.watchErrs = errs
}

// Run confines the pointer and processes backend events until the window
// closes or ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	id := uuid.New()
	s.logger.Info("Starting capture session %s", id)
	if err := s.backend.Confine(); err != nil {
		return errors.Wrap(err, "confine pointer")
	}
	events := s.backend.Events()
	backendErrs := s.backend.Errors()
	for {
		select {
		case <-ctx.Done():
			s.shutdownRelease()
			return nil
		case profile, ok := <-s.updates:
			if !ok {
				s.updates = nil
				continue
			}
			s.applyProfile(profile)
		case err, ok := <-s.watchErrs:
			if !ok {
				s.watchErrs = nil
				continue
			}
			s.logger.Warn("Config watch: %s", err)
		case err, ok := <-backendErrs:
			if !ok {
				backendErrs = nil
				continue
			}
			s.logger.Error("Backend: %s", err)
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if done := s.handle(evt); done {
				s.logger.Info("Window closed, session %s over", id)
				return nil
			}
		}
	}
}

// handle processes a single event. It returns true once the session should
// end.
func (s *Session) handle(evt platform.Event) bool {
	switch evt := evt.(type) {
	case platform.DeltaEvent:
		if d, ok := s.tracker.Relative(evt.Dx, evt.Dy); ok {
			s.report(d)
		}
	case platform.MotionEvent:
		d, ok := s.tracker.Absolute(evt.X, evt.Y)
		if ok {
			s.report(d)
		} else if s.tracker.Enabled() {
			// First sample only seeds the previous position, but the pointer
			// still gets warped back so it cannot leave the window.
			s.recenter()
		}
	case platform.KeyEvent:
		if s.tracker.Deactivate() {
			s.logger.Debug("Key 0x%x pressed, releasing pointer", evt.Code)
			if err := s.backend.Release(); err != nil {
				s.logger.Error("Release: %s", err)
			}
			fmt.Fprintln(s.out, disabledNotice)
		}
	case platform.CloseEvent:
		return true
	}
	return false
}

// report prints one delta line and warps the pointer back to the window
// center so deltas stay boundable.
func (s *Session) report(d capture.Delta) {
	fmt.Fprintf(s.out, "%s: %d %d\n", deltaTag, d.Dx, d.Dy)
	s.recenter()
}

func (s *Session) recenter() {
	if err := s.backend.Recenter(); err != nil {
		s.logger.Warn("Recenter: %s", err)
	}
}

// shutdownRelease releases the pointer on cancellation without printing the
// disabled notice; the notice belongs to the key-press path only.
func (s *Session) shutdownRelease() {
	if s.tracker.Deactivate() {
		if err := s.backend.Release(); err != nil {
			s.logger.Error("Release: %s", err)
		}
	}
}

// applyProfile applies a live configuration update.
func (s *Session) applyProfile(profile cfg.Profile) {
	if level, ok := log.LevelFromName(profile.Log.Level); ok && level != s.logger.Level() {
		s.logger.SetLevel(level)
		s.logger.Info("Log level changed to %s", profile.Log.Level)
	}
}

// Run creates the platform backend for the current OS and runs a capture
// session with the given profile until the window closes or ctx is
// cancelled.
func Run(ctx context.Context, profileName string, conf *cfg.Profile, logger *log.Logger) error {
	backend, err := newBackend(ctx, conf, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Debug("Backend close: %s", err)
		}
	}()

	s := New(backend, newTracker(conf), logger, os.Stdout)
	if path, err := cfg.GetProfilePath(profileName); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			updates, watchErrs, err := cfg.Watch(ctx, path)
			if err != nil {
				logger.Warn("Config watch unavailable: %s", err)
			} else {
				s.WatchConfig(updates, watchErrs)
			}
		}
	}
	return s.Run(ctx)
}
