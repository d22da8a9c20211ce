package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crewmux/crewmux/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold instruction documents for each role",
	Long: `Init creates the instructions directory with a starter document per role
(coordinator.md, supervisor.md, worker.md). Existing documents are left
untouched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

var starterDocs = map[string]string{
	"coordinator.md": `# Coordinator

You direct the crew. Break the shared task into units of work, hand them
to the supervisor, and track overall progress. Do not perform worker
tasks yourself.
`,
	"supervisor.md": `# Supervisor

You relay work from the coordinator to the workers in your session.
Assign each worker one unit of work at a time and report progress back
to the coordinator.
`,
	"worker.md": `# Worker

You execute one unit of work at a time as assigned by the supervisor.
When your task is finished, create your completion marker file exactly
as instructed at startup, then stop and wait for the next assignment.
`,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.Instructions.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for name, content := range starterDocs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("exists   %s\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("created  %s\n", path)
	}
	return nil
}
