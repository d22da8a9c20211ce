package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Tear down the crew's sessions and completion markers",
	Long: `Reset destroys every crew session and deletes all completion marker
files. Resources that are already gone count as success, so reset can be
run repeatedly and over a partially torn-down crew.

Use --dry-run to see what would be removed without touching anything.`,
	RunE: runReset,
}

var (
	resetDryRun bool
	resetForce  bool
)

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetDryRun, "dry-run", false, "Show what would be removed without making changes")
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	orch, _, cleanup, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	statuses, done, err := orch.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("inspecting crew state: %w", err)
	}

	var live []string
	for _, s := range statuses {
		if s.Running {
			live = append(live, s.Name)
		}
	}

	if len(live) == 0 && len(done) == 0 {
		fmt.Println("Nothing to reset: no crew sessions, no completion markers.")
		return nil
	}

	if len(live) > 0 {
		fmt.Printf("Sessions to destroy: %s\n", strings.Join(live, ", "))
	}
	if len(done) > 0 {
		fmt.Printf("Completion markers to clear: %d\n", len(done))
	}

	if resetDryRun {
		fmt.Println("Dry run: nothing was removed.")
		return nil
	}

	if !resetForce && !confirm("Proceed with reset?") {
		fmt.Println("Aborted.")
		return nil
	}

	orch.Reset(cmd.Context())
	fmt.Println("Crew reset complete.")
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
