package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Reset, build, and bootstrap the crew",
	Long: `Start tears down any previous crew, builds the session/pane topology,
launches the assistant in every pane, and delivers each role its
initialization instruction.

The previous crew's sessions and completion markers are always removed
first, so start is safe to run over a half-dead crew.`,
	RunE: runStart,
}

var startWorkers int

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().IntVarP(&startWorkers, "workers", "w", 0, "number of worker panes (overrides config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if startWorkers > 0 {
		viper.Set("topology.workers", startWorkers)
	}

	orch, cfg, cleanup, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("Resetting previous crew...")
	panes, err := orch.Start(cmd.Context())
	if err != nil {
		return fmt.Errorf("starting crew: %w", err)
	}

	fmt.Printf("Crew is up: %d panes across %d sessions.\n",
		len(panes), len(orch.Descriptor().Sessions))
	for _, session := range orch.Descriptor().Sessions {
		fmt.Printf("  %s:", session.Name)
		for _, role := range session.Roles {
			fmt.Printf(" %s", role.Style().Render(role.String()))
		}
		fmt.Println()
	}
	fmt.Printf("\nAttach with: tmux -L %s attach -t %s\n",
		cfg.Tmux.Socket, cfg.Topology.GridSession)
	return nil
}
