package orchestrator

import (
	"context"

	"github.com/crewmux/crewmux/internal/tmux"
)

// Reset idempotently tears down any prior crew: every session in the
// topology is destroyed and every completion marker is cleared. Failures
// are logged and swallowed; a resource that is already absent is the
// desired state. Reset never returns an error so that a fresh start is
// always possible over a half-torn-down crew.
func (o *Orchestrator) Reset(ctx context.Context) {
	log := o.log.WithPhase("reset")

	for _, name := range o.desc.SessionNames() {
		slog := log.WithSession(name)

		exists, err := o.gateway.HasSession(ctx, name)
		if err != nil {
			slog.Warn("could not check session, destroying anyway", "error", err)
		}
		if err == nil && !exists {
			slog.Debug("session already absent")
			continue
		}

		// Kill the processes inside the panes before the session itself,
		// otherwise assistants can linger after kill-session.
		if sp, ok := o.gateway.(socketProvider); ok {
			tmux.GracefulShutdown(sp.Socket(), name, tmux.DefaultGracefulStopTimeout)
		}
		if err := o.gateway.DestroySession(ctx, name); err != nil {
			slog.Warn("destroy session failed", "error", err)
			continue
		}
		slog.Info("session destroyed")
	}

	// With every crew session gone the dedicated server has nothing left
	// to manage; killing it also sweeps any pane that kill-session missed.
	if sp, ok := o.gateway.(socketProvider); ok {
		if err := tmux.KillServer(sp.Socket()); err != nil {
			log.Debug("kill-server failed, server likely already gone", "error", err)
		}
	}

	if err := o.markers.Clear(); err != nil {
		log.Warn("clearing completion markers failed", "error", err)
	} else {
		log.Debug("completion markers cleared", "dir", o.markers.Dir())
	}
}

type socketProvider interface {
	Socket() string
}
