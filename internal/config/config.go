package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete crewmux configuration
type Config struct {
	Topology     TopologyConfig     `mapstructure:"topology"`
	Tmux         TmuxConfig         `mapstructure:"tmux"`
	Bootstrap    BootstrapConfig    `mapstructure:"bootstrap"`
	Markers      MarkersConfig      `mapstructure:"markers"`
	Instructions InstructionsConfig `mapstructure:"instructions"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// TopologyConfig controls the session/pane layout of the crew
type TopologyConfig struct {
	// GridSession is the name of the session holding the supervisor and workers
	GridSession string `mapstructure:"grid_session"`
	// LeadSession is the name of the single-pane coordinator session
	LeadSession string `mapstructure:"lead_session"`
	// Workers is the number of worker panes in the grid session
	Workers int `mapstructure:"workers"`
}

// TmuxConfig controls how crewmux talks to tmux
type TmuxConfig struct {
	// Socket is the tmux socket name; all crew sessions live on this socket
	Socket string `mapstructure:"socket"`
	// Width is the width of detached sessions in columns
	Width int `mapstructure:"width"`
	// Height is the height of detached sessions in rows
	Height int `mapstructure:"height"`
}

// BootstrapConfig controls how roles are initialized in their panes
type BootstrapConfig struct {
	// AssistantCommand is the command launched in each pane
	AssistantCommand string `mapstructure:"assistant_command"`
	// SettleDelayMs is how long to wait after launching before staging text
	// and again between staging and committing (in milliseconds)
	SettleDelayMs int `mapstructure:"settle_delay_ms"`
	// ReadinessProbe enables capture-pane polling for ReadinessPattern
	// instead of relying on SettleDelayMs alone
	ReadinessProbe bool `mapstructure:"readiness_probe"`
	// ReadinessPattern is the substring that signals a pane is ready for input
	ReadinessPattern string `mapstructure:"readiness_pattern"`
	// ReadinessTimeoutS bounds the readiness poll per pane (in seconds)
	ReadinessTimeoutS int `mapstructure:"readiness_timeout_s"`
}

// MarkersConfig controls the completion-marker channel
type MarkersConfig struct {
	// Dir is the directory where workers drop their completion marker files
	Dir string `mapstructure:"dir"`
	// PollIntervalMs is the fallback polling interval when file watching
	// is unavailable (in milliseconds)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// InstructionsConfig controls where per-role initialization text is read from
type InstructionsConfig struct {
	// Dir is the directory holding one instruction file per role
	// (coordinator.md, supervisor.md, worker.md)
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for the log file (default: "tmp"); empty logs
	// to stderr, which mixes JSON records into command output
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// SettleDelay returns the bootstrap settle delay as a time.Duration
func (b *BootstrapConfig) SettleDelay() time.Duration {
	return time.Duration(b.SettleDelayMs) * time.Millisecond
}

// ReadinessTimeout returns the readiness poll bound as a time.Duration
func (b *BootstrapConfig) ReadinessTimeout() time.Duration {
	return time.Duration(b.ReadinessTimeoutS) * time.Second
}

// PollInterval returns the marker poll interval as a time.Duration
func (m *MarkersConfig) PollInterval() time.Duration {
	return time.Duration(m.PollIntervalMs) * time.Millisecond
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Topology: TopologyConfig{
			GridSession: "crew-grid",
			LeadSession: "crew-lead",
			Workers:     3,
		},
		Tmux: TmuxConfig{
			Socket: "crewmux",
			Width:  200,
			Height: 50,
		},
		Bootstrap: BootstrapConfig{
			AssistantCommand:  "claude --dangerously-skip-permissions",
			SettleDelayMs:     3000,
			ReadinessProbe:    false,
			ReadinessPattern:  "",
			ReadinessTimeoutS: 30,
		},
		Markers: MarkersConfig{
			Dir:            "tmp",
			PollIntervalMs: 500,
		},
		Instructions: InstructionsConfig{
			Dir: "instructions",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "tmp",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Topology defaults
	viper.SetDefault("topology.grid_session", defaults.Topology.GridSession)
	viper.SetDefault("topology.lead_session", defaults.Topology.LeadSession)
	viper.SetDefault("topology.workers", defaults.Topology.Workers)

	// Tmux defaults
	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)
	viper.SetDefault("tmux.width", defaults.Tmux.Width)
	viper.SetDefault("tmux.height", defaults.Tmux.Height)

	// Bootstrap defaults
	viper.SetDefault("bootstrap.assistant_command", defaults.Bootstrap.AssistantCommand)
	viper.SetDefault("bootstrap.settle_delay_ms", defaults.Bootstrap.SettleDelayMs)
	viper.SetDefault("bootstrap.readiness_probe", defaults.Bootstrap.ReadinessProbe)
	viper.SetDefault("bootstrap.readiness_pattern", defaults.Bootstrap.ReadinessPattern)
	viper.SetDefault("bootstrap.readiness_timeout_s", defaults.Bootstrap.ReadinessTimeoutS)

	// Marker defaults
	viper.SetDefault("markers.dir", defaults.Markers.Dir)
	viper.SetDefault("markers.poll_interval_ms", defaults.Markers.PollIntervalMs)

	// Instructions defaults
	viper.SetDefault("instructions.dir", defaults.Instructions.Dir)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crewmux")
	}
	// Fall back to ~/.config/crewmux
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crewmux"
	}
	return filepath.Join(home, ".config", "crewmux")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
