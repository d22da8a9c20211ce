package orchestrator

import (
	"context"
	"fmt"

	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/tmux"
	"github.com/crewmux/crewmux/internal/topology"
)

// Build constructs every session in the topology and returns the
// role-to-pane mapping. Sessions must not already exist; Reset is assumed
// to have run first. Any substrate failure aborts the build with a
// TopologyError.
func (o *Orchestrator) Build(ctx context.Context) (map[topology.Role]string, error) {
	log := o.log.WithPhase("build")
	panes := make(map[topology.Role]string)

	for _, session := range o.desc.Sessions {
		slog := log.WithSession(session.Name)

		sessionPanes, err := o.buildSession(ctx, session)
		if err != nil {
			return nil, crewerrors.NewTopologyError("building session layout", err).
				WithSession(session.Name)
		}
		slog.Info("session built", "panes", len(sessionPanes))

		for role, pane := range sessionPanes {
			panes[role] = pane
		}
	}

	for _, role := range orderedRoles(panes) {
		if err := o.setupPane(ctx, role, panes[role]); err != nil {
			return nil, crewerrors.NewTopologyError("preparing pane", err).
				WithRole(role.String())
		}
	}

	return panes, nil
}

// buildSession creates one session and splits it to the pane count its
// roles require. The first role in the session owns the initial pane; a
// four-pane session is split into a deterministic 2x2 grid (initial pane
// top-left, then right half, then the two bottom halves), larger sessions
// fall back to the substrate's tiled layout.
func (o *Orchestrator) buildSession(ctx context.Context, session topology.Session) (map[topology.Role]string, error) {
	first, err := o.gateway.CreateSession(ctx, tmux.CreateSessionOptions{
		Name:    session.Name,
		Width:   o.cfg.Tmux.Width,
		Height:  o.cfg.Tmux.Height,
		WorkDir: o.workDir,
	})
	if err != nil {
		return nil, err
	}

	panes := map[topology.Role]string{session.Roles[0]: first}
	if len(session.Roles) == 1 {
		return panes, nil
	}

	if len(session.Roles) == 4 {
		// 2x2: split horizontally for the right half, then split each
		// half vertically. Index order is top-left, top-right,
		// bottom-left, bottom-right.
		right, err := o.gateway.SplitPane(ctx, first, tmux.SplitHorizontal)
		if err != nil {
			return nil, err
		}
		bottomLeft, err := o.gateway.SplitPane(ctx, first, tmux.SplitVertical)
		if err != nil {
			return nil, err
		}
		bottomRight, err := o.gateway.SplitPane(ctx, right, tmux.SplitVertical)
		if err != nil {
			return nil, err
		}
		panes[session.Roles[1]] = right
		panes[session.Roles[2]] = bottomLeft
		panes[session.Roles[3]] = bottomRight
		return panes, nil
	}

	// Other pane counts: split off the initial pane and let tmux tile.
	for _, role := range session.Roles[1:] {
		pane, err := o.gateway.SplitPane(ctx, first, tmux.SplitVertical)
		if err != nil {
			return nil, err
		}
		panes[role] = pane
		if err := o.gateway.SelectLayout(ctx, session.Name, "tiled"); err != nil {
			return nil, err
		}
	}
	return panes, nil
}

// setupPane applies the per-pane cosmetics in a fixed order: title, then
// colored prompt, then working directory, then a screen clear. Panes are
// independent of each other; only the order within a pane matters.
func (o *Orchestrator) setupPane(ctx context.Context, role topology.Role, pane string) error {
	if err := o.gateway.SetPaneTitle(ctx, pane, role.String()); err != nil {
		return err
	}
	if err := o.gateway.SendLine(ctx, pane, promptCommand(role)); err != nil {
		return err
	}
	if err := o.gateway.SendLine(ctx, pane, fmt.Sprintf("cd %q", o.workDir)); err != nil {
		return err
	}
	return o.gateway.SendLine(ctx, pane, "clear")
}

// promptCommand returns the shell command that sets a role-colored prompt,
// so an operator glancing at the grid can tell panes apart before the
// assistants take over.
func promptCommand(role topology.Role) string {
	return fmt.Sprintf(`export PS1='\[\e[%sm\][%s]\[\e[0m\] \w \$ '`, role.PromptColor(), role.String())
}
