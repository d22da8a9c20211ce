package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d configuration error(s):", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, err.Error()))
	}
	return sb.String()
}

// Validation constants
const (
	MinWorkers = 1
	MaxWorkers = 16

	MinWidth  = 80
	MaxWidth  = 1000
	MinHeight = 24
	MaxHeight = 500

	MaxSettleDelayMs     = 60000
	MaxReadinessTimeoutS = 600
	MinPollIntervalMs    = 10
	MaxPollIntervalMs    = 60000

	MaxLogSizeMB   = 1000
	MaxLogBackups  = 100
	MaxSessionName = 100
)

// sessionNameRegex matches valid tmux session names. tmux itself rejects
// names containing '.' or ':' since they collide with target syntax.
var sessionNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_-]*$`)

// ValidLogLevels are the accepted logging levels
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for invalid values
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	errs = append(errs, c.validateTopology()...)
	errs = append(errs, c.validateTmux()...)
	errs = append(errs, c.validateBootstrap()...)
	errs = append(errs, c.validateMarkers()...)
	errs = append(errs, c.validateInstructions()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateTopology() []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateSessionName("topology.grid_session", c.Topology.GridSession)...)
	errs = append(errs, validateSessionName("topology.lead_session", c.Topology.LeadSession)...)

	if c.Topology.GridSession != "" && c.Topology.GridSession == c.Topology.LeadSession {
		errs = append(errs, ValidationError{
			Field:   "topology.lead_session",
			Value:   c.Topology.LeadSession,
			Message: "must differ from topology.grid_session",
		})
	}

	if c.Topology.Workers < MinWorkers || c.Topology.Workers > MaxWorkers {
		errs = append(errs, ValidationError{
			Field:   "topology.workers",
			Value:   c.Topology.Workers,
			Message: fmt.Sprintf("must be between %d and %d", MinWorkers, MaxWorkers),
		})
	}

	return errs
}

func validateSessionName(field, name string) []ValidationError {
	var errs []ValidationError

	if name == "" {
		errs = append(errs, ValidationError{
			Field:   field,
			Value:   name,
			Message: "must not be empty",
		})
		return errs
	}

	if len(name) > MaxSessionName {
		errs = append(errs, ValidationError{
			Field:   field,
			Value:   name,
			Message: fmt.Sprintf("must be at most %d characters", MaxSessionName),
		})
	}

	if !sessionNameRegex.MatchString(name) {
		errs = append(errs, ValidationError{
			Field:   field,
			Value:   name,
			Message: "must start with a letter, digit, or underscore and contain only letters, digits, hyphens, and underscores",
		})
	}

	return errs
}

func (c *Config) validateTmux() []ValidationError {
	var errs []ValidationError

	if c.Tmux.Socket == "" {
		errs = append(errs, ValidationError{
			Field:   "tmux.socket",
			Value:   c.Tmux.Socket,
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(c.Tmux.Socket, "/\x00") {
		errs = append(errs, ValidationError{
			Field:   "tmux.socket",
			Value:   c.Tmux.Socket,
			Message: "must not contain path separators",
		})
	}

	if c.Tmux.Width < MinWidth || c.Tmux.Width > MaxWidth {
		errs = append(errs, ValidationError{
			Field:   "tmux.width",
			Value:   c.Tmux.Width,
			Message: fmt.Sprintf("must be between %d and %d", MinWidth, MaxWidth),
		})
	}

	if c.Tmux.Height < MinHeight || c.Tmux.Height > MaxHeight {
		errs = append(errs, ValidationError{
			Field:   "tmux.height",
			Value:   c.Tmux.Height,
			Message: fmt.Sprintf("must be between %d and %d", MinHeight, MaxHeight),
		})
	}

	return errs
}

func (c *Config) validateBootstrap() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Bootstrap.AssistantCommand) == "" {
		errs = append(errs, ValidationError{
			Field:   "bootstrap.assistant_command",
			Value:   c.Bootstrap.AssistantCommand,
			Message: "must not be empty",
		})
	}

	if c.Bootstrap.SettleDelayMs < 0 || c.Bootstrap.SettleDelayMs > MaxSettleDelayMs {
		errs = append(errs, ValidationError{
			Field:   "bootstrap.settle_delay_ms",
			Value:   c.Bootstrap.SettleDelayMs,
			Message: fmt.Sprintf("must be between 0 and %d", MaxSettleDelayMs),
		})
	}

	if c.Bootstrap.ReadinessProbe {
		if c.Bootstrap.ReadinessPattern == "" {
			errs = append(errs, ValidationError{
				Field:   "bootstrap.readiness_pattern",
				Value:   c.Bootstrap.ReadinessPattern,
				Message: "must not be empty when readiness_probe is enabled",
			})
		}
		if c.Bootstrap.ReadinessTimeoutS < 1 || c.Bootstrap.ReadinessTimeoutS > MaxReadinessTimeoutS {
			errs = append(errs, ValidationError{
				Field:   "bootstrap.readiness_timeout_s",
				Value:   c.Bootstrap.ReadinessTimeoutS,
				Message: fmt.Sprintf("must be between 1 and %d", MaxReadinessTimeoutS),
			})
		}
	}

	return errs
}

func (c *Config) validateMarkers() []ValidationError {
	var errs []ValidationError

	if c.Markers.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "markers.dir",
			Value:   c.Markers.Dir,
			Message: "must not be empty",
		})
	} else if strings.ContainsRune(c.Markers.Dir, '\x00') {
		errs = append(errs, ValidationError{
			Field:   "markers.dir",
			Value:   c.Markers.Dir,
			Message: "must not contain null bytes",
		})
	}

	if c.Markers.PollIntervalMs < MinPollIntervalMs || c.Markers.PollIntervalMs > MaxPollIntervalMs {
		errs = append(errs, ValidationError{
			Field:   "markers.poll_interval_ms",
			Value:   c.Markers.PollIntervalMs,
			Message: fmt.Sprintf("must be between %d and %d", MinPollIntervalMs, MaxPollIntervalMs),
		})
	}

	return errs
}

func (c *Config) validateInstructions() []ValidationError {
	var errs []ValidationError

	if c.Instructions.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "instructions.dir",
			Value:   c.Instructions.Dir,
			Message: "must not be empty",
		})
	} else if strings.ContainsRune(c.Instructions.Dir, '\x00') {
		errs = append(errs, ValidationError{
			Field:   "instructions.dir",
			Value:   c.Instructions.Dir,
			Message: "must not contain null bytes",
		})
	}

	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidLogLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels, ", ")),
		})
	}

	if c.Logging.MaxSizeMB < 1 || c.Logging.MaxSizeMB > MaxLogSizeMB {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("must be between 1 and %d", MaxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 || c.Logging.MaxBackups > MaxLogBackups {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: fmt.Sprintf("must be between 0 and %d", MaxLogBackups),
		})
	}

	return errs
}
