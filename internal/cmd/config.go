package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crewmux/crewmux/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify crewmux configuration",
	Long: `View or modify crewmux configuration.

Without arguments, displays the current configuration.
Use subcommands to create a config file or locate it.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/crewmux/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.ConfigFile())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println("Topology:")
	fmt.Printf("  grid_session: %s\n", cfg.Topology.GridSession)
	fmt.Printf("  lead_session: %s\n", cfg.Topology.LeadSession)
	fmt.Printf("  workers: %d\n", cfg.Topology.Workers)
	fmt.Println("Tmux:")
	fmt.Printf("  socket: %s\n", cfg.Tmux.Socket)
	fmt.Printf("  width: %d\n", cfg.Tmux.Width)
	fmt.Printf("  height: %d\n", cfg.Tmux.Height)
	fmt.Println("Bootstrap:")
	fmt.Printf("  assistant_command: %s\n", cfg.Bootstrap.AssistantCommand)
	fmt.Printf("  settle_delay_ms: %d\n", cfg.Bootstrap.SettleDelayMs)
	fmt.Printf("  readiness_probe: %v\n", cfg.Bootstrap.ReadinessProbe)
	if cfg.Bootstrap.ReadinessProbe {
		fmt.Printf("  readiness_pattern: %s\n", cfg.Bootstrap.ReadinessPattern)
		fmt.Printf("  readiness_timeout_s: %d\n", cfg.Bootstrap.ReadinessTimeoutS)
	}
	fmt.Println("Markers:")
	fmt.Printf("  dir: %s\n", cfg.Markers.Dir)
	fmt.Printf("  poll_interval_ms: %d\n", cfg.Markers.PollIntervalMs)
	fmt.Println("Instructions:")
	fmt.Printf("  dir: %s\n", cfg.Instructions.Dir)
	fmt.Println("Logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)
	if cfg.Logging.Dir != "" {
		fmt.Printf("  dir: %s\n", cfg.Logging.Dir)
	}

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("\nConfig file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Println("\nNo config file in use (defaults shown).")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	d := config.Default()
	content := fmt.Sprintf(`# crewmux configuration

topology:
  grid_session: %s
  lead_session: %s
  workers: %d

tmux:
  socket: %s
  width: %d
  height: %d

bootstrap:
  assistant_command: %q
  # Settle delay before staging instructions and again before committing
  # them. A heuristic, not a readiness guarantee.
  settle_delay_ms: %d
  # Enable to poll each pane for readiness_pattern instead of the settle
  # delay.
  readiness_probe: %v
  readiness_pattern: %q
  readiness_timeout_s: %d

markers:
  dir: %s
  poll_interval_ms: %d

instructions:
  dir: %s

logging:
  enabled: %v
  level: %s
  # Log file directory; leave empty to log to stderr.
  dir: %s
  max_size_mb: %d
  max_backups: %d
`,
		d.Topology.GridSession, d.Topology.LeadSession, d.Topology.Workers,
		d.Tmux.Socket, d.Tmux.Width, d.Tmux.Height,
		d.Bootstrap.AssistantCommand, d.Bootstrap.SettleDelayMs,
		d.Bootstrap.ReadinessProbe, d.Bootstrap.ReadinessPattern, d.Bootstrap.ReadinessTimeoutS,
		d.Markers.Dir, d.Markers.PollIntervalMs,
		d.Instructions.Dir,
		d.Logging.Enabled, d.Logging.Level, d.Logging.Dir, d.Logging.MaxSizeMB, d.Logging.MaxBackups)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Created %s\n", path)
	return nil
}
