package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewmux/crewmux/internal/marker"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until every worker has signaled completion",
	Long: `Wait watches the marker directory and returns once every worker in the
topology has dropped its completion marker. Markers created before wait
starts are counted.`,
	RunE: runWait,
}

var waitTimeout time.Duration

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "give up after this duration (0 waits forever)")
}

func runWait(cmd *cobra.Command, args []string) error {
	orch, cfg, cleanup, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	if waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, waitTimeout)
		defer cancel()
	}

	watcher := marker.NewWatcher(orch.Markers(), cfg.Markers.PollInterval())
	total := len(orch.Descriptor().Workers())
	seen := 0

	fmt.Printf("Waiting for %d workers...\n", total)
	err = watcher.WaitAll(ctx, orch.Descriptor().Roles(), func(n int) {
		seen++
		fmt.Printf("worker%d done (%d/%d)\n", n, seen, total)
	})
	if err != nil {
		return fmt.Errorf("waiting for workers: %w", err)
	}
	fmt.Println("All workers complete.")
	return nil
}
