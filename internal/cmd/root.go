package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crewmux/crewmux/internal/config"
	"github.com/crewmux/crewmux/internal/logging"
	"github.com/crewmux/crewmux/internal/orchestrator"
	"github.com/crewmux/crewmux/internal/tmux"
)

var rootCmd = &cobra.Command{
	Use:   "crewmux",
	Short: "Role-based tmux crew orchestrator",
	Long: `Crewmux bootstraps a fixed topology of tmux sessions, each pane hosting
a long-running assistant process with an assigned role (coordinator,
supervisor, worker-N). Roles cooperate through their terminal panes and
report task completion via marker files.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/crewmux/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CREWMUX")
	// Replace dots with underscores for nested keys in env vars
	// e.g., CREWMUX_TOPOLOGY_WORKERS for topology.workers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// buildOrchestrator assembles the orchestrator from the loaded config.
// The returned cleanup closes the logger and must be called by the command.
func buildOrchestrator() (*orchestrator.Orchestrator, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logging.NopLogger()
	cleanup := func() {}
	if cfg.Logging.Enabled {
		l, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		log = l
		cleanup = func() { _ = l.Close() }
	}

	orch, err := orchestrator.New(tmux.NewClient(cfg.Tmux.Socket), cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return orch, cfg, cleanup, nil
}
