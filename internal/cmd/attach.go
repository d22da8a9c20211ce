package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/crewmux/crewmux/internal/config"
	"github.com/crewmux/crewmux/internal/tmux"
)

var attachCmd = &cobra.Command{
	Use:   "attach [session]",
	Short: "Attach the terminal to a crew session",
	Long: `Attach replaces the current process with a tmux client attached to the
named crew session. Without an argument the grid session is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	target := cfg.Topology.GridSession
	if len(args) == 1 {
		target = args[0]
	}

	client := tmux.NewClient(cfg.Tmux.Socket)
	exists, err := client.HasSession(cmd.Context(), target)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %q is not running (start the crew first)", target)
	}

	attach := tmux.CommandWithSocket(cfg.Tmux.Socket, "attach-session", "-t", target)
	attach.Stdin = os.Stdin
	attach.Stdout = os.Stdout
	attach.Stderr = os.Stderr
	if err := attach.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("attaching to %s: %w", target, err)
		}
		// A nonzero exit here is the client detaching or the session
		// ending, not a failure to attach.
	}
	return nil
}
