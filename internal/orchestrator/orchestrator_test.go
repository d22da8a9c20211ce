package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crewmux/crewmux/internal/config"
	crewerrors "github.com/crewmux/crewmux/internal/errors"
	"github.com/crewmux/crewmux/internal/tmux"
	"github.com/crewmux/crewmux/internal/topology"
)

// fakeGateway is an in-memory Gateway that records every call in order.
type fakeGateway struct {
	mu       sync.Mutex
	calls    []string
	sessions map[string]bool
	nextPane int

	failStageFor  map[string]bool // pane -> fail StageText
	failCommitFor map[string]bool
	failSplit     bool
	failCreate    bool

	commandFor     map[string]string // pane -> foreground command, default "claude"
	captureContent string            // returned by CapturePane for every pane
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions:      make(map[string]bool),
		failStageFor:  make(map[string]bool),
		failCommitFor: make(map[string]bool),
		commandFor:    make(map[string]string),
	}
}

func (f *fakeGateway) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGateway) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeGateway) Available(ctx context.Context) error { return nil }

func (f *fakeGateway) CreateSession(ctx context.Context, opts tmux.CreateSessionOptions) (string, error) {
	if f.failCreate {
		return "", crewerrors.New("create failed")
	}
	if f.sessions[opts.Name] {
		return "", crewerrors.ErrSessionExists
	}
	f.sessions[opts.Name] = true
	f.nextPane++
	pane := fmt.Sprintf("%%%d", f.nextPane)
	f.record("create %s -> %s", opts.Name, pane)
	return pane, nil
}

func (f *fakeGateway) DestroySession(ctx context.Context, name string) error {
	delete(f.sessions, name)
	f.record("destroy %s", name)
	return nil
}

func (f *fakeGateway) HasSession(ctx context.Context, name string) (bool, error) {
	return f.sessions[name], nil
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]string, error) {
	var names []string
	for name := range f.sessions {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeGateway) SplitPane(ctx context.Context, target string, dir tmux.SplitDirection) (string, error) {
	if f.failSplit {
		return "", crewerrors.New("split failed")
	}
	f.nextPane++
	pane := fmt.Sprintf("%%%d", f.nextPane)
	f.record("split %s %s -> %s", target, dir, pane)
	return pane, nil
}

func (f *fakeGateway) SetPaneTitle(ctx context.Context, pane, title string) error {
	f.record("title %s %s", pane, title)
	return nil
}

func (f *fakeGateway) SelectLayout(ctx context.Context, target, layout string) error {
	f.record("layout %s %s", target, layout)
	return nil
}

func (f *fakeGateway) StageText(ctx context.Context, pane, text string) error {
	if f.failStageFor[pane] {
		return crewerrors.New("stage failed")
	}
	f.record("stage %s", pane)
	return nil
}

func (f *fakeGateway) Commit(ctx context.Context, pane string) error {
	if f.failCommitFor[pane] {
		return crewerrors.New("commit failed")
	}
	f.record("commit %s", pane)
	return nil
}

func (f *fakeGateway) SendLine(ctx context.Context, pane, line string) error {
	f.record("send %s %s", pane, line)
	return nil
}

func (f *fakeGateway) CapturePane(ctx context.Context, pane string) (string, error) {
	return f.captureContent, nil
}

func (f *fakeGateway) PaneCurrentCommand(ctx context.Context, pane string) (string, error) {
	f.record("inspect %s", pane)
	if cmd, ok := f.commandFor[pane]; ok {
		return cmd, nil
	}
	return "claude", nil
}

var _ tmux.Gateway = (*fakeGateway)(nil)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Markers.Dir = t.TempDir()
	cfg.Bootstrap.SettleDelayMs = 0
	return cfg
}

func newTestOrchestrator(t *testing.T, gw tmux.Gateway, cfg *config.Config) *Orchestrator {
	t.Helper()
	o, err := New(gw, cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestNewRejectsNilGateway(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("New(nil, ...) error = nil, want validation error")
	}
}

func TestBuildSplitOrder(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// 3 workers + supervisor + coordinator
	if len(panes) != 5 {
		t.Fatalf("Build() returned %d panes, want 5", len(panes))
	}

	// Grid session is created first: supervisor owns pane %1, then the
	// fixed 2x2 split sequence produces workers 1..3.
	want := map[topology.Role]string{
		topology.RoleSupervisor:  "%1",
		topology.WorkerRole(1):   "%2",
		topology.WorkerRole(2):   "%3",
		topology.WorkerRole(3):   "%4",
		topology.RoleCoordinator: "%5",
	}
	for role, pane := range want {
		if panes[role] != pane {
			t.Errorf("panes[%s] = %s, want %s", role, panes[role], pane)
		}
	}

	splits := gw.callsWithPrefix("split")
	wantSplits := []string{
		"split %1 -h -> %2",
		"split %1 -v -> %3",
		"split %2 -v -> %4",
	}
	if len(splits) != len(wantSplits) {
		t.Fatalf("split calls = %v, want %v", splits, wantSplits)
	}
	for i, s := range wantSplits {
		if splits[i] != s {
			t.Errorf("split[%d] = %q, want %q", i, splits[i], s)
		}
	}
}

func TestBuildSetsTitles(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))

	if _, err := o.Build(context.Background()); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	titles := gw.callsWithPrefix("title")
	if len(titles) != 5 {
		t.Fatalf("title calls = %v, want 5", titles)
	}
	for _, role := range []string{"supervisor", "worker1", "worker2", "worker3", "coordinator"} {
		found := false
		for _, c := range titles {
			if strings.HasSuffix(c, " "+role) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no title call for role %s in %v", role, titles)
		}
	}
}

func TestBuildSplitFailureIsTopologyError(t *testing.T) {
	gw := newFakeGateway()
	gw.failSplit = true
	o := newTestOrchestrator(t, gw, testConfig(t))

	_, err := o.Build(context.Background())
	if err == nil {
		t.Fatal("Build() error = nil, want topology error")
	}
	var terr *crewerrors.TopologyError
	if !crewerrors.As(err, &terr) {
		t.Errorf("Build() error = %T, want *TopologyError", err)
	}
	if !crewerrors.IsFatal(err) {
		t.Error("IsFatal(topology error) = false, want true")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	gw := newFakeGateway()
	cfg := testConfig(t)
	o := newTestOrchestrator(t, gw, cfg)
	ctx := context.Background()

	// Nothing exists yet; reset must not fail or destroy anything.
	o.Reset(ctx)
	if got := gw.callsWithPrefix("destroy"); len(got) != 0 {
		t.Errorf("Reset() on clean state destroyed %v, want none", got)
	}

	if _, err := o.Build(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Markers().MarkComplete(1); err != nil {
		t.Fatal(err)
	}

	o.Reset(ctx)
	if got := gw.callsWithPrefix("destroy"); len(got) != 2 {
		t.Errorf("Reset() destroyed %v, want both sessions", got)
	}
	done, err := o.Markers().Completed()
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Errorf("markers after Reset() = %v, want none", done)
	}

	// Second reset over clean state: identical observable state, no errors.
	o.Reset(ctx)
	for _, name := range o.Descriptor().SessionNames() {
		if exists, _ := gw.HasSession(ctx, name); exists {
			t.Errorf("session %s still exists after second Reset()", name)
		}
	}
}

func TestBootstrapStagesBeforeAnyCommit(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	lastStage, firstCommit := -1, -1
	gw.mu.Lock()
	for i, c := range gw.calls {
		if strings.HasPrefix(c, "stage ") {
			lastStage = i
		}
		if strings.HasPrefix(c, "commit ") && firstCommit == -1 {
			firstCommit = i
		}
	}
	gw.mu.Unlock()

	if lastStage == -1 || firstCommit == -1 {
		t.Fatalf("missing stage/commit calls: %v", gw.calls)
	}
	if lastStage > firstCommit {
		t.Errorf("stage at %d after first commit at %d: commits must wait for the barrier", lastStage, firstCommit)
	}
	if got := gw.callsWithPrefix("commit"); len(got) != 5 {
		t.Errorf("commit calls = %v, want 5", got)
	}
}

func TestBootstrapCoordinatorCommitsLast(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatal(err)
	}

	commits := gw.callsWithPrefix("commit")
	if len(commits) == 0 {
		t.Fatal("no commit calls")
	}
	coordPane := panes[topology.RoleCoordinator]
	if last := commits[len(commits)-1]; last != "commit "+coordPane {
		t.Errorf("last commit = %q, want coordinator pane %s", last, coordPane)
	}
}

func TestBootstrapPartialFailureIsolation(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// worker2's pane rejects staged text.
	gw.failStageFor[panes[topology.WorkerRole(2)]] = true

	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatalf("Bootstrap() error = %v, want nil despite one failing pane", err)
	}

	commits := gw.callsWithPrefix("commit")
	if len(commits) != 4 {
		t.Errorf("commit calls = %v, want 4 (failing pane skipped)", commits)
	}
	for _, c := range commits {
		if c == "commit "+panes[topology.WorkerRole(2)] {
			t.Error("failing pane was committed; it should be skipped after staging failed")
		}
	}
}

func TestBootstrapAllPanesFailing(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, pane := range panes {
		gw.failStageFor[pane] = true
	}

	if err := o.Bootstrap(ctx, panes); err == nil {
		t.Error("Bootstrap() error = nil, want error when every pane fails")
	}
}

func TestBootstrapInspectsEveryPane(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatal(err)
	}

	// Even without the readiness probe, every pane's foreground process
	// is checked once after launch.
	inspects := gw.callsWithPrefix("inspect")
	if len(inspects) != len(panes) {
		t.Fatalf("inspect calls = %v, want one per pane (%d)", inspects, len(panes))
	}
	seen := make(map[string]bool)
	for _, c := range inspects {
		seen[strings.TrimPrefix(c, "inspect ")] = true
	}
	for role, pane := range panes {
		if !seen[pane] {
			t.Errorf("pane %s (%s) was never inspected", pane, role)
		}
	}
}

func TestBootstrapShellPaneStillDelivered(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// worker1's pane still runs a shell after launch; the check is a
	// warning, not a failure, so delivery proceeds for the pane anyway.
	gw.commandFor[panes[topology.WorkerRole(1)]] = "bash"

	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatalf("Bootstrap() error = %v, want nil for a shell-reporting pane", err)
	}
	commits := gw.callsWithPrefix("commit")
	if len(commits) != len(panes) {
		t.Errorf("commit calls = %v, want %d (shell pane still committed)", commits, len(panes))
	}
}

func TestBootstrapProbeReplacesSettleDelay(t *testing.T) {
	gw := newFakeGateway()
	gw.captureContent = "Welcome to Claude"

	cfg := testConfig(t)
	cfg.Bootstrap.SettleDelayMs = 30000
	cfg.Bootstrap.ReadinessProbe = true
	cfg.Bootstrap.ReadinessPattern = "Welcome"
	cfg.Bootstrap.ReadinessTimeoutS = 5
	o := newTestOrchestrator(t, gw, cfg)
	ctx := context.Background()

	panes, err := o.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := o.Bootstrap(ctx, panes); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Bootstrap() took %v; the readiness probe should replace the settle delay", elapsed)
	}
	if got := gw.callsWithPrefix("commit"); len(got) != len(panes) {
		t.Errorf("commit calls = %v, want %d", got, len(panes))
	}
}

func TestStartTwiceLeavesNoResidue(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	if _, err := o.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if _, err := o.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	// Both sessions exist exactly once after the second run.
	names, err := gw.ListSessions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("sessions after second Start() = %v, want 2", names)
	}
	done, err := o.Markers().Completed()
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 0 {
		t.Errorf("stale markers after second Start() = %v", done)
	}
}

func TestStatus(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))
	ctx := context.Background()

	statuses, done, err := o.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("Status() sessions = %d, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.Running {
			t.Errorf("session %s reported running before Build()", s.Name)
		}
	}
	if len(done) != 0 {
		t.Errorf("completed workers = %v, want none", done)
	}

	if _, err := o.Build(ctx); err != nil {
		t.Fatal(err)
	}
	if err := o.Markers().MarkComplete(2); err != nil {
		t.Fatal(err)
	}

	statuses, done, err = o.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range statuses {
		if !s.Running {
			t.Errorf("session %s reported not running after Build()", s.Name)
		}
	}
	if len(done) != 1 || done[0] != 2 {
		t.Errorf("completed workers = %v, want [2]", done)
	}
}

func TestInstructionFor(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw, testConfig(t))

	worker := o.instructionFor(topology.WorkerRole(2))
	if !strings.Contains(worker, "worker2") {
		t.Errorf("worker instruction %q does not name the role", worker)
	}
	if !strings.Contains(worker, "worker2_done") {
		t.Errorf("worker instruction %q does not name the completion marker", worker)
	}

	coord := o.instructionFor(topology.RoleCoordinator)
	if !strings.Contains(coord, "coordinator") {
		t.Errorf("coordinator instruction %q does not name the role", coord)
	}
	if !strings.Contains(coord, "coordinator.md") {
		t.Errorf("coordinator instruction %q does not reference its document", coord)
	}
}
