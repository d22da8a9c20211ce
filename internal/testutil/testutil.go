// Package testutil provides shared helpers for crewmux tests.
package testutil

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"
)

// RequireTmux skips the test when no tmux binary is available.
func RequireTmux(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tmux"); err != nil {
		t.Skip("tmux not found in PATH, skipping test")
	}
}

// TestSocket returns a socket name unique to this test run so integration
// tests never touch a user's real tmux server.
func TestSocket(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("crewmux-test-%d", time.Now().UnixNano())
}

// KillSocket tears down the whole tmux server on the given socket.
// Registered as test cleanup so sessions never outlive the test.
func KillSocket(t *testing.T, socket string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = exec.CommandContext(ctx, "tmux", "-L", socket, "kill-server").Run()
	})
}

// Context returns a context canceled shortly before the test deadline, or
// after a generous default when no deadline is set.
func Context(t *testing.T) context.Context {
	t.Helper()
	timeout := 30 * time.Second
	if deadline, ok := t.Deadline(); ok {
		timeout = time.Until(deadline) - time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
