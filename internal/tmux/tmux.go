// Package tmux provides the gateway through which crewmux drives tmux.
//
// Crewmux runs all of its sessions on a dedicated tmux socket so that
// creating and tearing down the crew topology never touches a user's
// regular tmux server. The default socket is named "crewmux"; a different
// socket can be configured for running several crews side by side.
package tmux

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
)

// SocketName is the default tmux socket name for crewmux operations.
const SocketName = "crewmux"

// Command creates an exec.Cmd for tmux with the default crewmux socket.
// For a custom socket, use CommandWithSocket instead.
func Command(args ...string) *exec.Cmd {
	return CommandWithSocket(SocketName, args...)
}

// CommandContext creates a context-aware exec.Cmd for tmux with the default socket.
func CommandContext(ctx context.Context, args ...string) *exec.Cmd {
	return CommandContextWithSocket(ctx, SocketName, args...)
}

// CommandWithSocket creates an exec.Cmd for tmux with a custom socket name.
func CommandWithSocket(socket string, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-L", socket}, args...)
	return exec.Command("tmux", fullArgs...)
}

// CommandContextWithSocket creates a context-aware exec.Cmd with a custom socket.
func CommandContextWithSocket(ctx context.Context, socket string, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-L", socket}, args...)
	return exec.CommandContext(ctx, "tmux", fullArgs...)
}

// CommandArgs returns the arguments needed to run a tmux command with the
// default socket. Use this when building the command string for display.
func CommandArgs(args ...string) []string {
	return CommandArgsWithSocket(SocketName, args...)
}

// CommandArgsWithSocket returns tmux arguments with a custom socket name.
func CommandArgsWithSocket(socket string, args ...string) []string {
	return append([]string{"-L", socket}, args...)
}

// BaseArgs returns just the socket arguments [-L, crewmux].
func BaseArgs() []string {
	return BaseArgsWithSocket(SocketName)
}

// BaseArgsWithSocket returns socket arguments for a custom socket name.
func BaseArgsWithSocket(socket string) []string {
	return []string{"-L", socket}
}

// ListSockets returns the crewmux tmux sockets present on this machine.
// It searches the tmux socket directory for sockets named "crewmux" or
// "crewmux-*", covering both the default socket and custom crew sockets.
func ListSockets() ([]string, error) {
	socketDir, err := getSocketDir()
	if err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(socketDir, SocketName+"-*"))
	if err != nil {
		return nil, err
	}

	defaultSocket := filepath.Join(socketDir, SocketName)
	if _, err := os.Stat(defaultSocket); err == nil {
		matches = append(matches, defaultSocket)
	}

	sockets := make([]string, 0, len(matches))
	for _, match := range matches {
		sockets = append(sockets, filepath.Base(match))
	}

	return sockets, nil
}

// getSocketDir returns the tmux socket directory for the current user.
func getSocketDir() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	// tmux uses /tmp/tmux-{uid}/ for sockets
	return filepath.Join("/tmp", "tmux-"+u.Uid), nil
}
