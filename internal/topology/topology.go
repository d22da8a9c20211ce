// Package topology defines the static session/pane/role layout for a crewmux run.
// A Descriptor is built once from configuration and is read-only afterwards;
// runtime state (which panes actually exist) lives in the orchestrator, not here.
package topology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RoleKind identifies the class of a role.
type RoleKind int

const (
	// Coordinator is the single top-level role that directs the supervisor.
	Coordinator RoleKind = iota
	// Supervisor relays work from the coordinator to the workers.
	Supervisor
	// Worker executes units of work; each worker has a positive index.
	Worker
)

// Role is the logical identity bound to exactly one pane.
// For Worker roles, Index is the 1-based worker number; it is zero otherwise.
type Role struct {
	Kind  RoleKind
	Index int
}

// RoleCoordinator and RoleSupervisor are the two singleton roles.
var (
	RoleCoordinator = Role{Kind: Coordinator}
	RoleSupervisor  = Role{Kind: Supervisor}
)

// WorkerRole returns the role for the n-th worker (1-based).
func WorkerRole(n int) Role {
	return Role{Kind: Worker, Index: n}
}

// String returns the canonical role name: "coordinator", "supervisor", "worker3".
func (r Role) String() string {
	switch r.Kind {
	case Coordinator:
		return "coordinator"
	case Supervisor:
		return "supervisor"
	case Worker:
		return fmt.Sprintf("worker%d", r.Index)
	default:
		return "unknown"
	}
}

// ParseRole parses a canonical role name back into a Role.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "coordinator":
		return RoleCoordinator, nil
	case s == "supervisor":
		return RoleSupervisor, nil
	case strings.HasPrefix(s, "worker"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "worker"))
		if err != nil || n < 1 {
			return Role{}, fmt.Errorf("invalid worker role %q", s)
		}
		return WorkerRole(n), nil
	default:
		return Role{}, fmt.Errorf("unknown role %q", s)
	}
}

// Session describes one tmux session in the topology: its wire-level name and
// the role bound to each pane index, in pane-index order.
type Session struct {
	Name  string
	Roles []Role
}

// Descriptor is the static configuration of a topology: the sessions to create,
// their pane counts, and the role assigned to each pane index.
type Descriptor struct {
	Sessions []Session
}

// New builds the standard crewmux descriptor: a grid session holding the
// supervisor plus `workers` worker panes, and a lead session holding the
// coordinator alone.
func New(gridSession, leadSession string, workers int) Descriptor {
	grid := Session{Name: gridSession, Roles: []Role{RoleSupervisor}}
	for i := 1; i <= workers; i++ {
		grid.Roles = append(grid.Roles, WorkerRole(i))
	}
	lead := Session{Name: leadSession, Roles: []Role{RoleCoordinator}}
	return Descriptor{Sessions: []Session{grid, lead}}
}

// SessionNames returns the names of all sessions in declaration order.
func (d Descriptor) SessionNames() []string {
	names := make([]string, 0, len(d.Sessions))
	for _, s := range d.Sessions {
		names = append(names, s.Name)
	}
	return names
}

// Roles returns every role in the topology in pane order, sessions first to last.
func (d Descriptor) Roles() []Role {
	var roles []Role
	for _, s := range d.Sessions {
		roles = append(roles, s.Roles...)
	}
	return roles
}

// Workers returns the worker roles in index order.
func (d Descriptor) Workers() []Role {
	var workers []Role
	for _, r := range d.Roles() {
		if r.Kind == Worker {
			workers = append(workers, r)
		}
	}
	return workers
}

// Validate checks the structural invariants of the descriptor:
// every session is named and non-empty, session names are unique, the
// role→pane mapping is a bijection, and worker indices run 1..N without gaps.
func (d Descriptor) Validate() error {
	if len(d.Sessions) == 0 {
		return fmt.Errorf("topology has no sessions")
	}

	sessionNames := make(map[string]bool)
	seenRoles := make(map[Role]bool)
	workerCount := 0
	maxWorker := 0

	for _, s := range d.Sessions {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("topology session has empty name")
		}
		if sessionNames[s.Name] {
			return fmt.Errorf("duplicate session name %q", s.Name)
		}
		sessionNames[s.Name] = true

		if len(s.Roles) == 0 {
			return fmt.Errorf("session %q has no panes", s.Name)
		}
		for _, r := range s.Roles {
			if r.Kind == Worker && r.Index < 1 {
				return fmt.Errorf("worker role with invalid index %d in session %q", r.Index, s.Name)
			}
			if seenRoles[r] {
				return fmt.Errorf("role %s assigned to more than one pane", r)
			}
			seenRoles[r] = true
			if r.Kind == Worker {
				workerCount++
				if r.Index > maxWorker {
					maxWorker = r.Index
				}
			}
		}
	}

	// Contiguity: with unique indices, max index == count implies 1..N.
	if workerCount > 0 && maxWorker != workerCount {
		return fmt.Errorf("worker indices are not contiguous from 1 (have %d workers, highest index %d)", workerCount, maxWorker)
	}

	return nil
}

// PromptColor returns the ANSI color code used in the role's shell prompt.
// Coordinator and supervisor get warm control-plane colors; workers are blue.
func (r Role) PromptColor() string {
	switch r.Kind {
	case Coordinator:
		return "1;35" // bold magenta
	case Supervisor:
		return "1;31" // bold red
	default:
		return "1;34" // bold blue
	}
}

// Style returns the lipgloss style used when rendering the role in operator output.
func (r Role) Style() lipgloss.Style {
	switch r.Kind {
	case Coordinator:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	case Supervisor:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	}
}
