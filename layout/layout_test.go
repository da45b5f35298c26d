package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"driftwm.dev/driftwm/anim"
	"driftwm.dev/driftwm/clock"
	"driftwm.dev/driftwm/internal/serial"
	"driftwm.dev/driftwm/transaction"
	"driftwm.dev/driftwm/window"
)

type fakeSurface struct {
	nextSerial     serial.Serial
	sentConfigures []window.ConfigureState
	blockers       []transaction.Blocker
}

func (f *fakeSurface) SendConfigure(state window.ConfigureState) serial.Serial {
	f.nextSerial++
	f.sentConfigures = append(f.sentConfigures, state)
	return f.nextSerial
}
func (f *fakeSurface) CommittedSize() window.Size            { return window.Size{} }
func (f *fakeSurface) MinMaxSize() (window.Size, window.Size) { return window.Size{}, window.Size{} }
func (f *fakeSurface) HasServerSideDecoration() bool          { return false }
func (f *fakeSurface) AddCommitBlocker(b transaction.Blocker) {
	f.blockers = append(f.blockers, b)
}

func TestResizeColumnTransactionalSendsSameTransactionToEveryTile(t *testing.T) {
	surfA, surfB := &fakeSurface{}, &fakeSurface{}
	col := &Column{Tiles: []*Tile{
		{Window: window.NewMapped(surfA, window.ResolvedWindowRules{})},
		{Window: window.NewMapped(surfB, window.ResolvedWindowRules{})},
	}}

	txn := transaction.New()
	clk := clock.WithTime(0)
	cfg := anim.Config{Kind: anim.EasingKind{Curve: anim.EaseOutCubic, DurationMS: 250}}
	ResizeColumnTransactional(col, 320, 640, true, clk, cfg, &txn)

	for _, tile := range col.Tiles {
		sn, ok := tile.Window.SendPendingConfigure()
		assert.True(t, ok)
		assert.True(t, tile.Window.ShouldAnimateCommit(sn))
	}
	assert.Len(t, surfA.blockers, 1)
	assert.Len(t, surfB.blockers, 1)

	txn.Release()
	assert.Equal(t, transaction.Released, surfA.blockers[0].State())
	assert.Equal(t, transaction.Released, surfB.blockers[0].State())
}

func TestColumnResolvedWidth(t *testing.T) {
	c := &Column{Width: window.PresetWidth{Proportion: 0.5}}
	assert.Equal(t, 500, c.ResolvedWidth(1000))

	c2 := &Column{Width: window.PresetWidth{Fixed: 400}}
	assert.Equal(t, 400, c2.ResolvedWidth(1000))
}

func TestCycleWidthWrapsAround(t *testing.T) {
	c := &Column{Width: PresetLadder[len(PresetLadder)-1]}
	c.CycleWidth()
	assert.Equal(t, PresetLadder[0], c.Width)
}

func TestCycleWidthOffLadderJumpsToFirst(t *testing.T) {
	c := &Column{Width: window.PresetWidth{Proportion: 0.9}}
	c.CycleWidth()
	assert.Equal(t, PresetLadder[0], c.Width)
}

func TestDoubleTapDetector(t *testing.T) {
	d := NewDoubleTapDetector(200 * time.Millisecond)
	start := time.Unix(0, 0)

	assert.False(t, d.Tap("right", start))
	assert.True(t, d.Tap("right", start.Add(100*time.Millisecond)))

	assert.False(t, d.Tap("right", start.Add(500*time.Millisecond)))
	assert.False(t, d.Tap("left", start.Add(600*time.Millisecond)), "different edge resets the sequence")
}

func TestWorkspaceFocusNavigation(t *testing.T) {
	w := NewWorkspace("main")
	w.InsertColumn(0, &Column{})
	w.InsertColumn(1, &Column{})
	w.InsertColumn(2, &Column{})
	assert.Equal(t, 2, w.ActiveColumn)

	w.FocusLeft()
	assert.Equal(t, 1, w.ActiveColumn)
	w.FocusLeft()
	w.FocusLeft()
	assert.Equal(t, 0, w.ActiveColumn, "focus must clamp at the left edge")

	w.FocusRight()
	assert.Equal(t, 1, w.ActiveColumn)
}

func TestRemoveColumnRefocusesNeighbor(t *testing.T) {
	w := NewWorkspace("main")
	w.InsertColumn(0, &Column{})
	w.InsertColumn(1, &Column{})
	w.FocusColumn(1)

	w.RemoveColumn(1)
	assert.Equal(t, 0, w.ActiveColumn)

	w.RemoveColumn(0)
	assert.Equal(t, -1, w.ActiveColumn)
	assert.Nil(t, w.ActiveColumnPtr())
}

func TestEnsureActiveVisibleScrollsRight(t *testing.T) {
	w := NewWorkspace("main")
	for i := 0; i < 5; i++ {
		w.InsertColumn(i, &Column{Width: window.PresetWidth{Fixed: 400}})
	}
	w.Relayout(800)
	w.FocusColumn(4)
	w.EnsureActiveVisible(800)

	col := w.ActiveColumnPtr()
	assert.GreaterOrEqual(t, w.ScrollX, col.X+400-800)
	assert.LessOrEqual(t, w.ScrollX, col.X)
}

type fakeOutput struct{ name string }

func (f *fakeOutput) Name() string             { return f.name }
func (f *fakeOutput) LogicalSize() window.Size { return window.Size{W: 1920, H: 1080} }

func TestRootRemoveMonitorPreservesWorkspaces(t *testing.T) {
	var r Root
	out := &fakeOutput{name: "eDP-1"}
	mon := NewMonitor(out)
	mon.Workspaces[0].Name = "main"
	r.AddMonitor(mon)

	r.RemoveMonitor(out)
	assert.Empty(t, r.Monitors)
	assert.Len(t, r.DisconnectedSpace, 1)
	assert.Equal(t, "main", r.DisconnectedSpace[0].Name)
}

func TestRootAddMonitorReattachesMatchingWorkspaces(t *testing.T) {
	var r Root
	out := &fakeOutput{name: "eDP-1"}
	mon := NewMonitor(out)
	mon.Workspaces[0].Name = "main"
	r.AddMonitor(mon)
	r.RemoveMonitor(out)
	require := assert.New(t)
	require.Len(r.DisconnectedSpace, 1)

	reconnected := NewMonitor(out)
	reconnected.Workspaces[0].Name = "fresh"
	r.AddMonitor(reconnected)

	require.Empty(r.DisconnectedSpace, "the matching workspace must be pulled back out of the pool")
	require.Len(reconnected.Workspaces, 2)
	require.Equal("main", reconnected.Workspaces[0].Name, "the reattached workspace leads, ahead of the monitor's own default")
	require.Equal(0, reconnected.ActiveWorkspace)
}

func TestRootAddMonitorLeavesUnrelatedWorkspacesDisconnected(t *testing.T) {
	var r Root
	outA := &fakeOutput{name: "eDP-1"}
	monA := NewMonitor(outA)
	monA.Workspaces[0].Name = "main"
	r.AddMonitor(monA)
	r.RemoveMonitor(outA)

	outB := &fakeOutput{name: "DP-2"}
	monB := NewMonitor(outB)
	r.AddMonitor(monB)

	assert.Len(t, r.DisconnectedSpace, 1, "a workspace tagged for a different output must stay parked")
	assert.Len(t, monB.Workspaces, 1)
}

func TestMonitorSwitchWorkspaceAnimatesProgress(t *testing.T) {
	clk := clock.WithTime(0)
	cfg := anim.Config{Kind: anim.EasingKind{Curve: anim.EaseOutCubic, DurationMS: 100}}
	mon := NewMonitor(&fakeOutput{name: "eDP-1"})
	mon.Workspaces = append(mon.Workspaces, NewWorkspace(""))

	mon.SwitchWorkspace(1, clk, cfg)
	assert.Equal(t, 1, mon.ActiveWorkspace)
	assert.InDelta(t, 0, mon.WorkspaceSwitchProgress(), 1e-9)

	clk.SetUnadjusted(200 * time.Millisecond)
	assert.Equal(t, 1.0, mon.WorkspaceSwitchProgress())
}

func TestWorkspaceFloatingLayer(t *testing.T) {
	w := NewWorkspace("main")
	tile := &Tile{}
	w.AddFloating(tile, 10, 20)
	assert.Equal(t, 10.0, tile.FloatX)
	assert.Equal(t, 20.0, tile.FloatY)

	w.MoveFloating(tile, 30, 40)
	assert.Equal(t, 30.0, tile.FloatX)
	assert.Equal(t, 40.0, tile.FloatY)

	w.RemoveFloating(tile)
	assert.NotContains(t, w.Floating, tile)
}

func TestTileSizeAnimationSettles(t *testing.T) {
	clk := clock.WithTime(0)
	cfg := anim.Config{Kind: anim.EasingKind{Curve: anim.EaseOutCubic, DurationMS: 100}}
	tile := &Tile{}

	tile.AnimateSizeChange(clk, 200, 400, cfg)
	assert.True(t, tile.IsAnimating())
	assert.Equal(t, 200, tile.RenderWidth(400))

	clk.SetUnadjusted(200 * time.Millisecond)
	assert.Equal(t, 400, tile.RenderWidth(400))
	assert.False(t, tile.IsAnimating())
}
