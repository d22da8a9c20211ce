// Package marker implements the file-based completion channel workers use
// to signal that their task is done. A worker drops an empty file named
// worker<N>_done into the marker directory; the orchestrator side watches
// that directory to learn which workers have finished.
package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/topology"
)

// DefaultDir is the marker directory relative to the working directory.
const DefaultDir = "tmp"

var markerNameRegex = regexp.MustCompile(`^worker([1-9][0-9]*)_done$`)

// FileName returns the marker file name for worker n.
func FileName(n int) string {
	return fmt.Sprintf("worker%d_done", n)
}

// ParseFileName extracts the worker index from a marker file name.
// It returns 0 and false for names that are not completion markers.
func ParseFileName(name string) (int, bool) {
	m := markerNameRegex.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Channel is the marker directory viewed as a completion channel.
// All operations are safe to call before the directory exists.
type Channel struct {
	dir string
}

// NewChannel returns a Channel rooted at dir. An empty dir uses DefaultDir.
func NewChannel(dir string) *Channel {
	if dir == "" {
		dir = DefaultDir
	}
	return &Channel{dir: dir}
}

// Dir returns the marker directory path.
func (c *Channel) Dir() string {
	return c.dir
}

// Path returns the marker file path for worker n.
func (c *Channel) Path(n int) string {
	return filepath.Join(c.dir, FileName(n))
}

// MarkComplete records completion for worker n by creating its marker
// file. Marking an already-complete worker is a no-op.
func (c *Channel) MarkComplete(n int) error {
	if n < 1 {
		return crewerrors.NewValidationError("worker index must be positive").
			WithField("worker").WithValue(n)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return crewerrors.Wrapf(err, "creating marker directory %s", c.dir)
	}
	f, err := os.OpenFile(c.Path(n), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return crewerrors.Wrapf(err, "creating marker for worker %d", n)
	}
	return f.Close()
}

// IsComplete reports whether worker n has dropped its marker.
func (c *Channel) IsComplete(n int) bool {
	info, err := os.Stat(c.Path(n))
	return err == nil && !info.IsDir()
}

// Completed returns the sorted indices of all workers whose markers are
// present. A missing marker directory means nothing has completed.
func (c *Channel) Completed() ([]int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, crewerrors.Wrapf(err, "reading marker directory %s", c.dir)
	}

	var done []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if n, ok := ParseFileName(entry.Name()); ok {
			done = append(done, n)
		}
	}
	sort.Ints(done)
	return done, nil
}

// AllComplete reports whether every worker in roles has a marker present.
func (c *Channel) AllComplete(roles []topology.Role) (bool, error) {
	done, err := c.Completed()
	if err != nil {
		return false, err
	}
	present := make(map[int]bool, len(done))
	for _, n := range done {
		present[n] = true
	}
	for _, role := range roles {
		if role.Kind != topology.Worker {
			continue
		}
		if !present[role.Index] {
			return false, nil
		}
	}
	return true, nil
}

// Clear removes all completion markers. It is idempotent: a missing
// directory or missing markers count as success. Non-marker files in the
// directory are left alone.
func (c *Channel) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return crewerrors.Wrapf(err, "reading marker directory %s", c.dir)
	}

	var removeErrs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := ParseFileName(entry.Name()); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			removeErrs = append(removeErrs, err.Error())
		}
	}
	if len(removeErrs) > 0 {
		return crewerrors.New("clearing markers: " + strings.Join(removeErrs, "; "))
	}
	return nil
}
