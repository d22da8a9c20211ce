// Package orchestrator wires the crew lifecycle together: tear down any
// prior run, build the session/pane topology, and bootstrap one assistant
// per pane with its role instruction.
package orchestrator

import (
	"context"
	"os"
	"sort"

	"github.com/crewmux/crewmux/internal/config"
	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/logging"
	"github.com/crewmux/crewmux/internal/marker"
	"github.com/crewmux/crewmux/internal/tmux"
	"github.com/crewmux/crewmux/internal/topology"
)

// Orchestrator drives a single crew through reset, build, and bootstrap.
// It issues synchronous sequential commands to the gateway; the assistant
// processes it launches run concurrently outside its control.
type Orchestrator struct {
	gateway tmux.Gateway
	cfg     *config.Config
	log     *logging.Logger
	desc    topology.Descriptor
	markers *marker.Channel
	workDir string
}

// New creates an Orchestrator from the given configuration. A nil logger
// falls back to a no-op logger.
func New(gateway tmux.Gateway, cfg *config.Config, log *logging.Logger) (*Orchestrator, error) {
	if gateway == nil {
		return nil, crewerrors.NewValidationError("gateway must not be nil")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.NopLogger()
	}

	desc := topology.New(cfg.Topology.GridSession, cfg.Topology.LeadSession, cfg.Topology.Workers)
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, crewerrors.Wrap(err, "resolving working directory")
	}

	return &Orchestrator{
		gateway: gateway,
		cfg:     cfg,
		log:     log,
		desc:    desc,
		markers: marker.NewChannel(cfg.Markers.Dir),
		workDir: workDir,
	}, nil
}

// Descriptor returns the topology this orchestrator manages.
func (o *Orchestrator) Descriptor() topology.Descriptor {
	return o.desc
}

// Markers returns the completion channel for this crew.
func (o *Orchestrator) Markers() *marker.Channel {
	return o.markers
}

// Start runs the full lifecycle: reset, build, bootstrap. It returns the
// role-to-pane mapping of the built topology.
func (o *Orchestrator) Start(ctx context.Context) (map[topology.Role]string, error) {
	if err := o.gateway.Available(ctx); err != nil {
		return nil, err
	}

	o.Reset(ctx)

	panes, err := o.Build(ctx)
	if err != nil {
		return nil, err
	}

	if err := o.Bootstrap(ctx, panes); err != nil {
		return nil, err
	}
	return panes, nil
}

// SessionStatus describes one crew session for status output.
type SessionStatus struct {
	Name    string
	Roles   []topology.Role
	Running bool
}

// Status reports which crew sessions exist and which workers have
// completed.
func (o *Orchestrator) Status(ctx context.Context) ([]SessionStatus, []int, error) {
	var statuses []SessionStatus
	for _, session := range o.desc.Sessions {
		running, err := o.gateway.HasSession(ctx, session.Name)
		if err != nil {
			return nil, nil, err
		}
		statuses = append(statuses, SessionStatus{
			Name:    session.Name,
			Roles:   session.Roles,
			Running: running,
		})
	}

	done, err := o.markers.Completed()
	if err != nil {
		return nil, nil, err
	}
	sort.Ints(done)
	return statuses, done, nil
}

// orderedRoles returns the roles of a pane map in deterministic commit
// order: supervisor and workers by index first, coordinator last, so the
// coordinator's instruction lands after its crew is briefed.
func orderedRoles(panes map[topology.Role]string) []topology.Role {
	roles := make([]topology.Role, 0, len(panes))
	for role := range panes {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		return roleRank(roles[i]) < roleRank(roles[j])
	})
	return roles
}

func roleRank(r topology.Role) int {
	switch r.Kind {
	case topology.Supervisor:
		return 0
	case topology.Worker:
		return r.Index
	default: // coordinator commits last
		return 1 << 20
	}
}
