package cfg

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Watch watches the given profile file and emits a re-parsed Profile whenever
// it changes. Parse and validation failures of the edited file are reported
// on the error channel and the previous profile stays in effect. Both
// channels close when the context is cancelled.
func Watch(ctx context.Context, path string) (<-chan Profile, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}
	ch := make(chan Profile, 1)
	errch := make(chan error, 1)
	go func() {
		defer close(ch)
		defer close(errch)
		defer func() {
			_ = watcher.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				errch <- err
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					errch <- err
					continue
				}
				profile, err := ParseProfile(data)
				if err != nil {
					errch <- err
					continue
				}
				select {
				case ch <- profile:
				default:
					// Drop the update if the consumer is behind; a newer one
					// will follow.
				}
			}
		}
	}()
	return ch, errch, nil
}
