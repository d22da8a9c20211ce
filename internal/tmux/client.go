package tmux

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/crewmux/crewmux/internal/errors"
)

// SplitDirection selects the axis of a pane split.
type SplitDirection int

const (
	// SplitHorizontal places the new pane to the right of the target.
	SplitHorizontal SplitDirection = iota
	// SplitVertical places the new pane below the target.
	SplitVertical
)

// String returns the tmux flag for the direction.
func (d SplitDirection) String() string {
	if d == SplitVertical {
		return "-v"
	}
	return "-h"
}

// CreateSessionOptions controls session creation.
type CreateSessionOptions struct {
	// Name is the tmux session name. Required.
	Name string
	// Width and Height size the detached session. Zero values let tmux decide.
	Width  int
	Height int
	// WorkDir is the initial working directory for the first pane.
	WorkDir string
	// Command, if set, runs instead of the default shell in the first pane.
	Command string
}

// Gateway is the full surface crewmux needs from a terminal multiplexer.
// The production implementation shells out to tmux; tests substitute a fake.
type Gateway interface {
	// Available verifies the multiplexer binary can be executed.
	Available(ctx context.Context) error

	// CreateSession creates a detached session and returns the ID of its
	// first pane. Returns ErrSessionExists if the name is taken.
	CreateSession(ctx context.Context, opts CreateSessionOptions) (string, error)

	// DestroySession kills a session. Destroying a session that does not
	// exist is not an error: teardown is idempotent.
	DestroySession(ctx context.Context, name string) error

	// HasSession reports whether a session with the given name exists.
	HasSession(ctx context.Context, name string) (bool, error)

	// ListSessions returns the names of all sessions on the socket.
	// A missing server yields an empty list, not an error.
	ListSessions(ctx context.Context) ([]string, error)

	// SplitPane splits the target pane and returns the new pane's ID.
	SplitPane(ctx context.Context, target string, direction SplitDirection) (string, error)

	// SetPaneTitle sets the visible title of a pane.
	SetPaneTitle(ctx context.Context, pane, title string) error

	// SelectLayout applies a named tmux layout (e.g. "tiled") to a window.
	SelectLayout(ctx context.Context, target, layout string) error

	// StageText places text into a pane's input without submitting it.
	// The text appears in the pane exactly as given, trailing newlines and
	// all, and waits for a later Commit.
	StageText(ctx context.Context, pane, text string) error

	// Commit submits whatever input is pending in the pane.
	Commit(ctx context.Context, pane string) error

	// SendLine types a single line into the pane and submits it.
	SendLine(ctx context.Context, pane, line string) error

	// CapturePane returns the current visible contents of a pane.
	CapturePane(ctx context.Context, pane string) (string, error)

	// PaneCurrentCommand returns the name of the process currently in the
	// foreground of the pane (e.g. "bash" before a launch, the assistant
	// binary after).
	PaneCurrentCommand(ctx context.Context, pane string) (string, error)
}

// Client is the tmux-backed Gateway. All commands run against a single
// socket so the crew is isolated from other tmux servers.
type Client struct {
	socket string
}

var _ Gateway = (*Client)(nil)

// NewClient returns a Client bound to the given socket name.
// An empty socket falls back to the default crewmux socket.
func NewClient(socket string) *Client {
	if socket == "" {
		socket = SocketName
	}
	return &Client{socket: socket}
}

// Socket returns the tmux socket name this client is bound to.
func (c *Client) Socket() string {
	return c.socket
}

// run executes a tmux command and returns its combined output.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := CommandContextWithSocket(ctx, c.socket, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("tmux %s: %w (output: %s)",
			args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Available verifies the tmux binary can be executed.
// It runs "tmux -V" rather than a server command so that a stopped server
// does not count as unavailable.
func (c *Client) Available(ctx context.Context) error {
	cmd := CommandContextWithSocket(ctx, c.socket, "-V")
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.NewSubstrateError("tmux is not available", err).WithSocket(c.socket)
	} else if !strings.HasPrefix(strings.TrimSpace(string(out)), "tmux") {
		return errors.NewSubstrateError(
			fmt.Sprintf("unexpected tmux version output %q", strings.TrimSpace(string(out))), nil,
		).WithSocket(c.socket)
	}
	return nil
}

// CreateSession creates a detached session and returns its first pane ID.
func (c *Client) CreateSession(ctx context.Context, opts CreateSessionOptions) (string, error) {
	if opts.Name == "" {
		return "", errors.NewValidationError("session name cannot be empty").WithField("Name")
	}

	args := []string{"new-session", "-d", "-s", opts.Name, "-P", "-F", "#{pane_id}"}
	if opts.Width > 0 {
		args = append(args, "-x", fmt.Sprintf("%d", opts.Width))
	}
	if opts.Height > 0 {
		args = append(args, "-y", fmt.Sprintf("%d", opts.Height))
	}
	if opts.WorkDir != "" {
		args = append(args, "-c", opts.WorkDir)
	}
	if opts.Command != "" {
		args = append(args, opts.Command)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		if strings.Contains(out, "duplicate session") {
			return "", errors.Wrapf(errors.ErrSessionExists, "session %q", opts.Name)
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DestroySession kills a session. A session that is already gone, or a
// server that is not running at all, counts as success.
func (c *Client) DestroySession(ctx context.Context, name string) error {
	out, err := c.run(ctx, "kill-session", "-t", name)
	if err != nil {
		if isSessionNotFoundOutput(out) {
			return nil
		}
		return err
	}
	return nil
}

// HasSession reports whether a session exists on the socket.
func (c *Client) HasSession(ctx context.Context, name string) (bool, error) {
	out, err := c.run(ctx, "has-session", "-t", "="+name)
	if err != nil {
		if isSessionNotFoundOutput(out) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListSessions returns all session names on the socket.
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		if isSessionNotFoundOutput(out) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sessions = append(sessions, line)
		}
	}
	return sessions, nil
}

// SplitPane splits the target pane and returns the new pane's ID.
func (c *Client) SplitPane(ctx context.Context, target string, direction SplitDirection) (string, error) {
	out, err := c.run(ctx, "split-window", direction.String(), "-t", target, "-P", "-F", "#{pane_id}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// SetPaneTitle sets the visible title of a pane.
func (c *Client) SetPaneTitle(ctx context.Context, pane, title string) error {
	_, err := c.run(ctx, "select-pane", "-t", pane, "-T", title)
	return err
}

// SelectLayout applies a named tmux layout to the target window.
func (c *Client) SelectLayout(ctx context.Context, target, layout string) error {
	_, err := c.run(ctx, "select-layout", "-t", target, layout)
	return err
}

// StageText loads text into a tmux buffer and pastes it into the pane
// without submitting. load-buffer reads from stdin so arbitrary content,
// including multi-line text and characters that look like key names, arrives
// in the pane byte for byte. The buffer is deleted afterwards.
func (c *Client) StageText(ctx context.Context, pane, text string) error {
	bufName := fmt.Sprintf("crewmux-%d", time.Now().UnixNano())

	loadCmd := CommandContextWithSocket(ctx, c.socket, "load-buffer", "-b", bufName, "-")
	loadCmd.Stdin = strings.NewReader(text)
	if out, err := loadCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux load-buffer: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	// -p pastes bracketed so the receiving program treats the text as a
	// single paste rather than interpreting newlines as submissions.
	if _, err := c.run(ctx, "paste-buffer", "-p", "-b", bufName, "-t", pane); err != nil {
		_, _ = c.run(ctx, "delete-buffer", "-b", bufName)
		return err
	}

	_, err := c.run(ctx, "delete-buffer", "-b", bufName)
	return err
}

// Commit submits whatever input is pending in the pane.
func (c *Client) Commit(ctx context.Context, pane string) error {
	_, err := c.run(ctx, "send-keys", "-t", pane, "Enter")
	return err
}

// SendLine types a single line into the pane literally and submits it.
func (c *Client) SendLine(ctx context.Context, pane, line string) error {
	if _, err := c.run(ctx, "send-keys", "-t", pane, "-l", line); err != nil {
		return err
	}
	return c.Commit(ctx, pane)
}

// CapturePane returns the current visible contents of a pane.
func (c *Client) CapturePane(ctx context.Context, pane string) (string, error) {
	out, err := c.run(ctx, "capture-pane", "-t", pane, "-p")
	if err != nil {
		return "", err
	}
	return out, nil
}

// PaneCurrentCommand returns the foreground process name of a pane.
func (c *Client) PaneCurrentCommand(ctx context.Context, pane string) (string, error) {
	out, err := c.run(ctx, "display-message", "-p", "-t", pane, "#{pane_current_command}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// isSessionNotFoundOutput reports whether tmux output indicates a missing
// session or a server that is not running. tmux phrases this differently
// across versions, so several variants are checked.
func isSessionNotFoundOutput(out string) bool {
	out = strings.ToLower(out)
	return strings.Contains(out, "session not found") ||
		strings.Contains(out, "can't find session") ||
		strings.Contains(out, "no server running") ||
		strings.Contains(out, "error connecting to")
}
