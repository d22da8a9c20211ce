package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/crewmux/crewmux/internal/config"
	"github.com/crewmux/crewmux/internal/tmux"
	"github.com/crewmux/crewmux/internal/topology"
	"github.com/crewmux/crewmux/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crew session and completion status",
	Long:  `Display which crew sessions are running and which workers have signaled completion.`,
	RunE:  runStatus,
}

var statusPeek bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusPeek, "peek", false, "show the last visible line of each running session")
}

var (
	upStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	peekStyle = lipgloss.NewStyle().Faint(true)
)

// peekWidth bounds the rendered pane preview.
const peekWidth = 72

// peekSession captures the active pane of a running session and returns its
// last visible line, width-truncated for display.
func peekSession(cmd *cobra.Command, cfg *config.Config, session string) string {
	content, err := tmux.NewClient(cfg.Tmux.Socket).CapturePane(cmd.Context(), session)
	if err != nil {
		return ""
	}
	line := util.LastNonEmptyLine(content)
	return util.TruncateANSI(strings.TrimRight(line, "\r"), peekWidth)
}

func runStatus(cmd *cobra.Command, args []string) error {
	orch, cfg, cleanup, err := buildOrchestrator()
	if err != nil {
		return err
	}
	defer cleanup()

	statuses, done, err := orch.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("inspecting crew state: %w", err)
	}

	for _, s := range statuses {
		state := downStyle.Render("down")
		if s.Running {
			state = upStyle.Render("up")
		}
		fmt.Printf("%s  %s\n", s.Name, state)
		if statusPeek && s.Running {
			if line := peekSession(cmd, cfg, s.Name); line != "" {
				fmt.Printf("  %s\n", peekStyle.Render(line))
			}
		}
		for _, role := range s.Roles {
			marker := ""
			if role.Kind == topology.Worker && slices.Contains(done, role.Index) {
				marker = "  " + doneStyle.Render("done")
			}
			fmt.Printf("  %s%s\n", role.Style().Render(role.String()), marker)
		}
	}

	if len(done) > 0 {
		fmt.Printf("\n%d of %d workers complete.\n", len(done), len(orch.Descriptor().Workers()))
	}

	// Other crew sockets (from --config or CREWMUX_TMUX_SOCKET overrides)
	// are easy to lose track of; list any that still exist.
	if sockets, err := tmux.ListSockets(); err == nil {
		var others []string
		for _, s := range sockets {
			if s != cfg.Tmux.Socket {
				others = append(others, s)
			}
		}
		if len(others) > 0 {
			fmt.Printf("\nother crew sockets: %s\n", strings.Join(others, ", "))
		}
	}
	return nil
}
