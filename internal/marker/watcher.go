package marker

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/topology"
)

// DefaultPollInterval is the fallback polling interval used when file
// watching is unavailable.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher waits for completion markers to appear in a channel's directory.
// It prefers fsnotify events and falls back to polling when the watcher
// cannot be created (e.g. on filesystems without inotify support). Polling
// also runs alongside events as a safety net: a marker created before the
// watch was registered would otherwise never be observed.
type Watcher struct {
	channel      *Channel
	pollInterval time.Duration
}

// NewWatcher returns a Watcher over channel. A non-positive pollInterval
// uses DefaultPollInterval.
func NewWatcher(channel *Channel, pollInterval time.Duration) *Watcher {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Watcher{channel: channel, pollInterval: pollInterval}
}

// WaitAll blocks until every worker in roles has a completion marker, the
// context is done, or an unrecoverable read error occurs. Each newly
// observed completion is reported through onComplete (which may be nil).
func (w *Watcher) WaitAll(ctx context.Context, roles []topology.Role, onComplete func(worker int)) error {
	wanted := make(map[int]bool)
	for _, role := range roles {
		if role.Kind == topology.Worker {
			wanted[role.Index] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	// The directory must exist before fsnotify can watch it.
	if err := os.MkdirAll(w.channel.Dir(), 0o755); err != nil {
		return crewerrors.Wrapf(err, "creating marker directory %s", w.channel.Dir())
	}

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		defer fsw.Close()
		if addErr := fsw.Add(w.channel.Dir()); addErr == nil {
			events = fsw.Events
			watchErrs = fsw.Errors
		}
	}

	seen := make(map[int]bool)
	notify := func(n int) {
		if wanted[n] && !seen[n] {
			seen[n] = true
			if onComplete != nil {
				onComplete(n)
			}
		}
	}

	scan := func() (bool, error) {
		done, err := w.channel.Completed()
		if err != nil {
			return false, err
		}
		for _, n := range done {
			notify(n)
		}
		return len(seen) == len(wanted), nil
	}

	// Initial scan catches markers dropped before we started watching.
	if allDone, err := scan(); err != nil || allDone {
		return err
	}

	return w.waitLoop(ctx, events, watchErrs, scan)
}

// waitLoop runs scan on every relevant watch event and on every poll tick
// until scan reports completion. Watch errors are drained and discarded:
// fsnotify blocks its event sender on an unread Errors channel, and the
// polling ticker already covers anything the watch misses.
func (w *Watcher) waitLoop(ctx context.Context, events <-chan fsnotify.Event, watchErrs <-chan error, scan func() (bool, error)) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return crewerrors.Wrap(ctx.Err(), "waiting for completion markers")

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if allDone, err := scan(); err != nil || allDone {
				return err
			}

		case _, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
			}

		case <-ticker.C:
			if allDone, err := scan(); err != nil || allDone {
				return err
			}
		}
	}
}

// WaitAny blocks until at least one completion marker is present and
// returns the sorted worker indices observed at that point.
func (w *Watcher) WaitAny(ctx context.Context) ([]int, error) {
	var first []int
	err := w.waitUntil(ctx, func() (bool, error) {
		done, err := w.channel.Completed()
		if err != nil {
			return false, err
		}
		if len(done) == 0 {
			return false, nil
		}
		first = done
		return true, nil
	})
	return first, err
}

func (w *Watcher) waitUntil(ctx context.Context, cond func() (bool, error)) error {
	if ok, err := cond(); err != nil || ok {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return crewerrors.Wrap(ctx.Err(), "waiting for completion markers")
		case <-ticker.C:
			if ok, err := cond(); err != nil || ok {
				return err
			}
		}
	}
}
