package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/logging"
	"github.com/crewmux/crewmux/internal/marker"
	"github.com/crewmux/crewmux/internal/topology"
)

// Bootstrap launches the assistant in every pane and delivers each role's
// instruction in two strict phases. First every pane gets its instruction
// text staged on the input line without submitting it; then, after a
// single collective barrier, every staged instruction is committed in a
// fixed order so they all land in the same narrow time window.
//
// Delivery failures are isolated per pane: a pane that cannot be reached
// is logged and skipped for its remaining steps while the rest of the
// crew proceeds. Bootstrap only returns an error when no pane could be
// bootstrapped at all.
func (o *Orchestrator) Bootstrap(ctx context.Context, panes map[topology.Role]string) error {
	log := o.log.WithPhase("bootstrap")
	roles := orderedRoles(panes)
	failed := make(map[topology.Role]bool)

	// Launch phase. The assistant gives no signal when it has finished
	// starting, so readiness below is best-effort.
	for _, role := range roles {
		if err := o.gateway.SendLine(ctx, panes[role], o.cfg.Bootstrap.AssistantCommand); err != nil {
			failed[role] = true
			log.Error("assistant launch failed",
				"role", role.String(), "pane", panes[role], "error", err)
		}
	}

	if err := o.awaitReady(ctx, log, panes, roles, failed); err != nil {
		return err
	}

	// A pane whose foreground process is still a plain shell most likely
	// failed to launch the assistant (binary missing, command typo). The
	// instruction is still delivered, so a recovered pane can pick it up,
	// but the operator gets a warning.
	for _, role := range roles {
		if failed[role] {
			continue
		}
		current, err := o.gateway.PaneCurrentCommand(ctx, panes[role])
		if err != nil {
			log.Warn("could not inspect pane foreground process",
				"role", role.String(), "pane", panes[role], "error", err)
			continue
		}
		if isShellCommand(current) {
			log.Warn("assistant may not have launched, pane still runs a shell",
				"role", role.String(), "pane", panes[role], "command", current)
		}
	}

	// Instruction phase: stage each role's text without committing it.
	for _, role := range roles {
		if failed[role] {
			continue
		}
		if err := o.gateway.StageText(ctx, panes[role], o.instructionFor(role)); err != nil {
			failed[role] = true
			derr := crewerrors.NewDeliveryError("staging instruction text", err).
				WithPane(panes[role]).WithRole(role.String())
			log.Error("instruction staging failed", "role", role.String(), "error", derr)
		}
	}

	// Barrier: one collective wait, not per pane. When the readiness probe
	// already confirmed every pane accepts input, the extra settle wait is
	// skipped; the probe replaces the delay heuristic.
	if !o.cfg.Bootstrap.ReadinessProbe {
		if err := sleepCtx(ctx, o.cfg.Bootstrap.SettleDelay()); err != nil {
			return err
		}
	}

	// Commit phase: submit every staged instruction in the fixed order.
	committed := 0
	for _, role := range roles {
		if failed[role] {
			continue
		}
		if err := o.gateway.Commit(ctx, panes[role]); err != nil {
			failed[role] = true
			derr := crewerrors.NewDeliveryError("committing instruction", err).
				WithPane(panes[role]).WithRole(role.String())
			log.Error("instruction commit failed", "role", role.String(), "error", derr)
			continue
		}
		committed++
		log.Info("role bootstrapped", "role", role.String(), "pane", panes[role])
	}

	if committed == 0 && len(roles) > 0 {
		return crewerrors.NewDeliveryError("no pane could be bootstrapped", nil)
	}
	return nil
}

// awaitReady waits for the launched assistants to be ready for input.
// With the readiness probe enabled it polls each pane's visible content
// for the configured pattern, marking panes that never match as failed.
// Otherwise it falls back to the fixed settle delay, a heuristic rather
// than a guarantee.
func (o *Orchestrator) awaitReady(ctx context.Context, log *logging.Logger, panes map[topology.Role]string, roles []topology.Role, failed map[topology.Role]bool) error {
	if !o.cfg.Bootstrap.ReadinessProbe {
		return sleepCtx(ctx, o.cfg.Bootstrap.SettleDelay())
	}

	deadline := time.Now().Add(o.cfg.Bootstrap.ReadinessTimeout())
	for _, role := range roles {
		if failed[role] {
			continue
		}
		if err := o.probePane(ctx, panes[role], deadline); err != nil {
			failed[role] = true
			derr := crewerrors.NewDeliveryError("assistant not ready", err).
				WithPane(panes[role]).WithRole(role.String())
			log.Error("readiness probe failed", "role", role.String(), "error", derr)
		}
	}
	return nil
}

// probePane polls a pane's captured content until the readiness pattern
// appears or the shared deadline passes.
func (o *Orchestrator) probePane(ctx context.Context, pane string, deadline time.Time) error {
	for {
		content, err := o.gateway.CapturePane(ctx, pane)
		if err == nil && strings.Contains(content, o.cfg.Bootstrap.ReadinessPattern) {
			return nil
		}
		if time.Now().After(deadline) {
			return crewerrors.NewTimeoutError("readiness probe", o.cfg.Bootstrap.ReadinessTimeout())
		}
		if err := sleepCtx(ctx, 250*time.Millisecond); err != nil {
			return err
		}
	}
}

// instructionFor builds the role's initialization message: it names the
// role, points at the role's instruction document, and tells workers how
// to signal completion.
func (o *Orchestrator) instructionFor(role topology.Role) string {
	doc := filepath.Join(o.cfg.Instructions.Dir, instructionFile(role))

	switch role.Kind {
	case topology.Coordinator:
		return fmt.Sprintf(
			"You are the coordinator of this crew. Read %s and follow it. "+
				"Direct the supervisor in the %q session; do not do worker tasks yourself.",
			doc, o.cfg.Topology.GridSession)
	case topology.Supervisor:
		return fmt.Sprintf(
			"You are the supervisor. Read %s and follow it. "+
				"Assign tasks to the %d workers in your session and report progress to the coordinator.",
			doc, o.cfg.Topology.Workers)
	default:
		return fmt.Sprintf(
			"You are %s. Read %s and follow it. "+
				"When your task is finished, create the file %s and stop.",
			role.String(), doc, filepath.Join(o.cfg.Markers.Dir, marker.FileName(role.Index)))
	}
}

// shellCommands are foreground process names that indicate no assistant
// is running in the pane.
var shellCommands = map[string]bool{
	"sh":   true,
	"bash": true,
	"zsh":  true,
	"fish": true,
	"dash": true,
	"ksh":  true,
}

func isShellCommand(name string) bool {
	return shellCommands[name]
}

func instructionFile(role topology.Role) string {
	switch role.Kind {
	case topology.Coordinator:
		return "coordinator.md"
	case topology.Supervisor:
		return "supervisor.md"
	default:
		return "worker.md"
	}
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return crewerrors.Wrap(ctx.Err(), "bootstrap interrupted")
	case <-timer.C:
		return nil
	}
}
