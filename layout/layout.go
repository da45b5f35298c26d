// Package layout implements the scrolling-tiling layout engine: columns of
// windows arranged left-to-right in an unbounded scrolling strip per
// workspace, plus a floating space and interactive resize.
package layout

import (
	"time"

	"golang.org/x/exp/slices"

	"driftwm.dev/driftwm/anim"
	"driftwm.dev/driftwm/clock"
	"driftwm.dev/driftwm/transaction"
	"driftwm.dev/driftwm/window"
)

// Tile wraps a single mapped window as it participates in a column, plus
// the transient animation state layered on top of its resting geometry: a
// size change, an offset (settling back to the resting position after an
// interactive operation), an opacity fade, and an open/close animation.
type Tile struct {
	Window *window.Mapped

	// FloatX/FloatY are this tile's position when it lives in a workspace's
	// floating layer. They are meaningless for a tile inside a Column, whose
	// position is derived from the column's X and its stacking order.
	FloatX, FloatY float64

	sizeAnim    *anim.Animation
	offsetXAnim *anim.Animation
	offsetYAnim *anim.Animation
	opacityAnim *anim.Animation
	closing     bool
}

// AnimateSizeChange starts (or replaces) an animation from fromWidth to
// toWidth, so a column resize doesn't snap the tile instantly.
func (t *Tile) AnimateSizeChange(clk clock.Clock, fromWidth, toWidth float64, cfg anim.Config) {
	a := anim.New(clk, fromWidth, toWidth, 0, cfg)
	t.sizeAnim = &a
}

// AnimateOffset starts an offset animation settling from (fromX, fromY) to
// the tile's resting position (0, 0), used for interactive-resize/move
// catch-up and for neighbors nudged by an insertion.
func (t *Tile) AnimateOffset(clk clock.Clock, fromX, fromY float64, cfg anim.Config) {
	ax := anim.New(clk, fromX, 0, 0, cfg)
	ay := anim.New(clk, fromY, 0, 0, cfg)
	t.offsetXAnim = &ax
	t.offsetYAnim = &ay
}

// AnimateOpen starts the open animation (opacity 0 to 1) for a newly mapped
// tile.
func (t *Tile) AnimateOpen(clk clock.Clock, cfg anim.Config) {
	a := anim.New(clk, 0, 1, 0, cfg)
	t.opacityAnim = &a
	t.closing = false
}

// AnimateClose starts the close animation (opacity 1 to 0) and marks the
// tile closing; CloseDone reports when it is safe to drop the tile from its
// column.
func (t *Tile) AnimateClose(clk clock.Clock, cfg anim.Config) {
	a := anim.New(clk, 1, 0, 0, cfg)
	t.opacityAnim = &a
	t.closing = true
}

// CloseDone reports whether a close animation has finished.
func (t *Tile) CloseDone() bool {
	return t.closing && t.opacityAnim != nil && t.opacityAnim.IsClampedDone()
}

// Opacity returns the tile's current opacity: 1 if no open/close animation
// is running.
func (t *Tile) Opacity() float64 {
	if t.opacityAnim == nil {
		return 1
	}
	if t.opacityAnim.IsClampedDone() {
		v := t.opacityAnim.To()
		t.opacityAnim = nil
		return v
	}
	return t.opacityAnim.ClampedValue()
}

// RenderWidth returns resting (the column's currently resolved width)
// adjusted by any in-flight size animation.
func (t *Tile) RenderWidth(resting int) int {
	if t.sizeAnim == nil {
		return resting
	}
	if t.sizeAnim.IsClampedDone() {
		t.sizeAnim = nil
		return resting
	}
	return int(t.sizeAnim.ClampedValue())
}

// RenderOffset returns the tile's current animated offset from its resting
// position, (0, 0) once any running offset animations settle.
func (t *Tile) RenderOffset() (x, y float64) {
	if t.offsetXAnim != nil {
		if t.offsetXAnim.IsClampedDone() {
			t.offsetXAnim = nil
		} else {
			x = t.offsetXAnim.ClampedValue()
		}
	}
	if t.offsetYAnim != nil {
		if t.offsetYAnim.IsClampedDone() {
			t.offsetYAnim = nil
		} else {
			y = t.offsetYAnim.ClampedValue()
		}
	}
	return x, y
}

// IsAnimating reports whether any transient animation is still in flight,
// i.e. whether the redraw scheduler must keep ticking this tile's output.
func (t *Tile) IsAnimating() bool {
	for _, a := range [...]*anim.Animation{t.sizeAnim, t.offsetXAnim, t.offsetYAnim, t.opacityAnim} {
		if a != nil && !a.IsClampedDone() {
			return true
		}
	}
	return false
}

// Column is a vertical stack of tiles sharing one horizontal slot in the
// scrolling strip. In tabbed mode only the active tile is visible; all
// tiles share the column's width and are resized together.
type Column struct {
	Tiles  []*Tile
	Active int
	Width  window.PresetWidth
	Tabbed bool

	// X is this column's left edge in the workspace's scroll space,
	// maintained by the owning Workspace as columns are inserted/removed.
	X float64
}

// ActiveTile returns the column's currently focused/visible tile.
func (c *Column) ActiveTile() *Tile {
	if len(c.Tiles) == 0 {
		return nil
	}
	return c.Tiles[c.Active]
}

// ResolvedWidth returns this column's width in logical pixels given the
// workspace's working-area width.
func (c *Column) ResolvedWidth(workAreaWidth int) int {
	if c.Width.IsProportion() {
		w := int(float64(workAreaWidth) * c.Width.Proportion)
		if w < 1 {
			w = 1
		}
		return w
	}
	if c.Width.Fixed > 0 {
		return c.Width.Fixed
	}
	return workAreaWidth
}

// PresetLadder is the sequence of width presets double-tapping a resize
// edge cycles through, in order.
var PresetLadder = []window.PresetWidth{
	{Proportion: 1.0 / 3},
	{Proportion: 1.0 / 2},
	{Proportion: 2.0 / 3},
}

// CycleWidth advances to the next preset in PresetLadder after the column's
// current width, wrapping around. If the column's width isn't on the
// ladder at all, it jumps to the first entry.
func (c *Column) CycleWidth() {
	idx := slices.IndexFunc(PresetLadder, func(p window.PresetWidth) bool {
		return p == c.Width
	})
	next := 0
	if idx >= 0 {
		next = (idx + 1) % len(PresetLadder)
	}
	c.Width = PresetLadder[next]
}

// DoubleTapDetector recognizes a second activation of the same edge within
// a short window, used to cycle width presets on a double-tap of a resize
// edge rather than requiring a dedicated keybind.
type DoubleTapDetector struct {
	window   time.Duration
	lastEdge string
	lastAt   time.Time
}

// NewDoubleTapDetector creates a detector using window as the maximum gap
// between taps that still counts as a double-tap.
func NewDoubleTapDetector(window time.Duration) *DoubleTapDetector {
	return &DoubleTapDetector{window: window}
}

// Tap records an activation of edge at now and reports whether it completed
// a double-tap.
func (d *DoubleTapDetector) Tap(edge string, now time.Time) bool {
	isDouble := d.lastEdge == edge && !d.lastAt.IsZero() && now.Sub(d.lastAt) <= d.window
	if isDouble {
		d.lastEdge = ""
		d.lastAt = time.Time{}
		return true
	}
	d.lastEdge = edge
	d.lastAt = now
	return false
}

// Workspace owns one scrolling strip of columns plus a floating space.
type Workspace struct {
	Name string

	Columns      []*Column
	ActiveColumn int
	ScrollX      float64

	Floating []*Tile

	// lastOutputName remembers the output this workspace was last attached
	// to, set when its monitor disconnects, so Root.AddMonitor can reattach
	// it if that same output reappears.
	lastOutputName string
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(name string) *Workspace {
	return &Workspace{Name: name, ActiveColumn: -1}
}

// AddFloating adds tile to the floating layer at logical position (x, y).
func (w *Workspace) AddFloating(tile *Tile, x, y float64) {
	tile.FloatX, tile.FloatY = x, y
	w.Floating = append(w.Floating, tile)
}

// MoveFloating repositions an already-floating tile.
func (w *Workspace) MoveFloating(tile *Tile, x, y float64) {
	tile.FloatX, tile.FloatY = x, y
}

// RemoveFloating removes tile from the floating layer, if present.
func (w *Workspace) RemoveFloating(tile *Tile) {
	idx := slices.IndexFunc(w.Floating, func(c *Tile) bool { return c == tile })
	if idx < 0 {
		return
	}
	w.Floating = slices.Delete(w.Floating, idx, idx+1)
}

// InsertColumn inserts col at index idx (appending if idx is out of range)
// and focuses it. Column X positions are left stale; call Relayout once
// the working-area width is known.
func (w *Workspace) InsertColumn(idx int, col *Column) {
	if idx < 0 || idx > len(w.Columns) {
		idx = len(w.Columns)
	}
	w.Columns = slices.Insert(w.Columns, idx, col)
	w.ActiveColumn = idx
}

// RemoveColumn removes the column at idx, refocusing a neighbor.
func (w *Workspace) RemoveColumn(idx int) {
	if idx < 0 || idx >= len(w.Columns) {
		return
	}
	w.Columns = slices.Delete(w.Columns, idx, idx+1)
	if len(w.Columns) == 0 {
		w.ActiveColumn = -1
	} else if w.ActiveColumn >= len(w.Columns) {
		w.ActiveColumn = len(w.Columns) - 1
	}
}

// Relayout recomputes every column's X position given the current
// working-area width, then scrolls by the minimum amount needed to bring
// the active column into view (see EnsureActiveVisible).
func (w *Workspace) Relayout(workAreaWidth int) {
	x := 0.0
	for _, col := range w.Columns {
		col.X = x
		x += float64(col.ResolvedWidth(workAreaWidth))
	}
	w.EnsureActiveVisible(workAreaWidth)
}

// ActiveColumnPtr returns the focused column, or nil if the workspace is
// empty.
func (w *Workspace) ActiveColumnPtr() *Column {
	if w.ActiveColumn < 0 || w.ActiveColumn >= len(w.Columns) {
		return nil
	}
	return w.Columns[w.ActiveColumn]
}

// FocusColumn moves focus to the column at idx, clamped to the valid range.
func (w *Workspace) FocusColumn(idx int) {
	if len(w.Columns) == 0 {
		w.ActiveColumn = -1
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(w.Columns) {
		idx = len(w.Columns) - 1
	}
	w.ActiveColumn = idx
}

// FocusLeft/FocusRight move focus by one column, clamping at the ends
// (the scrolling strip does not wrap).
func (w *Workspace) FocusLeft()  { w.FocusColumn(w.ActiveColumn - 1) }
func (w *Workspace) FocusRight() { w.FocusColumn(w.ActiveColumn + 1) }

// EnsureActiveVisible adjusts ScrollX by the minimum amount necessary so
// the active column's full width is within [ScrollX, ScrollX+workAreaWidth].
func (w *Workspace) EnsureActiveVisible(workAreaWidth int) {
	col := w.ActiveColumnPtr()
	if col == nil {
		return
	}
	width := float64(col.ResolvedWidth(workAreaWidth))
	left := col.X
	right := col.X + width

	if left < w.ScrollX {
		w.ScrollX = left
	} else if right > w.ScrollX+float64(workAreaWidth) {
		w.ScrollX = right - float64(workAreaWidth)
	}
}

// Monitor is an output together with the workspaces currently assigned to
// it, plus the per-monitor animations that aren't tied to any one tile: the
// workspace-switch transition, a transient config-change notification
// overlay, and a full screen-transition crossfade (e.g. on output
// reconnect).
type Monitor struct {
	Info            window.OutputInfo
	Workspaces      []*Workspace
	ActiveWorkspace int

	workspaceSwitchAnim  *anim.Animation
	configNotifyAnim     *anim.Animation
	screenTransitionAnim *anim.Animation
}

// NewMonitor creates a Monitor with one empty workspace active.
func NewMonitor(info window.OutputInfo) *Monitor {
	ws := NewWorkspace("")
	return &Monitor{Info: info, Workspaces: []*Workspace{ws}, ActiveWorkspace: 0}
}

// ActiveWorkspacePtr returns the monitor's currently visible workspace.
func (m *Monitor) ActiveWorkspacePtr() *Workspace {
	if m.ActiveWorkspace < 0 || m.ActiveWorkspace >= len(m.Workspaces) {
		return nil
	}
	return m.Workspaces[m.ActiveWorkspace]
}

// SwitchWorkspace focuses the workspace at idx on this monitor, starting a
// workspace-switch animation from the previously active index.
func (m *Monitor) SwitchWorkspace(idx int, clk clock.Clock, cfg anim.Config) {
	if idx < 0 || idx >= len(m.Workspaces) || idx == m.ActiveWorkspace {
		return
	}
	a := anim.New(clk, float64(m.ActiveWorkspace), float64(idx), 0, cfg)
	m.workspaceSwitchAnim = &a
	m.ActiveWorkspace = idx
}

// WorkspaceSwitchProgress returns the in-flight workspace-switch position (a
// possibly fractional workspace index), or the settled active index once
// the switch animation has finished or none is running.
func (m *Monitor) WorkspaceSwitchProgress() float64 {
	if m.workspaceSwitchAnim == nil {
		return float64(m.ActiveWorkspace)
	}
	if m.workspaceSwitchAnim.IsClampedDone() {
		m.workspaceSwitchAnim = nil
		return float64(m.ActiveWorkspace)
	}
	return m.workspaceSwitchAnim.ClampedValue()
}

// NotifyConfig starts the config-notification overlay animation (shown
// briefly when this monitor's configuration changes, then fades out).
func (m *Monitor) NotifyConfig(clk clock.Clock, cfg anim.Config) {
	a := anim.New(clk, 1, 0, 0, cfg)
	m.configNotifyAnim = &a
}

// ConfigNotifyOpacity returns the config-notification overlay's current
// opacity, 0 once it has finished fading or if none is showing.
func (m *Monitor) ConfigNotifyOpacity() float64 {
	if m.configNotifyAnim == nil {
		return 0
	}
	if m.configNotifyAnim.IsClampedDone() {
		m.configNotifyAnim = nil
		return 0
	}
	return m.configNotifyAnim.ClampedValue()
}

// StartScreenTransition starts the full-screen crossfade animation used
// when this monitor's contents change abruptly, e.g. right after
// reconnecting with a different set of workspaces.
func (m *Monitor) StartScreenTransition(clk clock.Clock, cfg anim.Config) {
	a := anim.New(clk, 0, 1, 0, cfg)
	m.screenTransitionAnim = &a
}

// ScreenTransitionProgress returns the screen-transition's progress in
// [0,1], 1 (fully settled) once it has finished or if none is running.
func (m *Monitor) ScreenTransitionProgress() float64 {
	if m.screenTransitionAnim == nil {
		return 1
	}
	if m.screenTransitionAnim.IsClampedDone() {
		m.screenTransitionAnim = nil
		return 1
	}
	return m.screenTransitionAnim.ClampedValue()
}

// Root owns every monitor and every workspace not currently assigned to
// one (e.g. named workspaces kept around for when their matching output
// reappears).
type Root struct {
	Monitors          []*Monitor
	DisconnectedSpace []*Workspace
}

// AddMonitor registers a newly-connected output, reattaching any
// disconnected workspaces that were last attached to an output of the same
// name ahead of the monitor's own default workspace.
func (r *Root) AddMonitor(m *Monitor) {
	name := m.Info.Name()

	var reattached, remaining []*Workspace
	for _, ws := range r.DisconnectedSpace {
		if ws.lastOutputName == name {
			reattached = append(reattached, ws)
		} else {
			remaining = append(remaining, ws)
		}
	}
	r.DisconnectedSpace = remaining

	if len(reattached) > 0 {
		m.Workspaces = append(reattached, m.Workspaces...)
		m.ActiveWorkspace = 0
	}

	r.Monitors = append(r.Monitors, m)
}

// RemoveMonitor disconnects an output, moving its workspaces into the
// disconnected pool rather than discarding them, so they can be reattached
// if the same output reappears.
func (r *Root) RemoveMonitor(info window.OutputInfo) {
	idx := slices.IndexFunc(r.Monitors, func(m *Monitor) bool { return m.Info == info })
	if idx < 0 {
		return
	}
	removed := r.Monitors[idx]
	name := info.Name()
	for _, ws := range removed.Workspaces {
		ws.lastOutputName = name
	}
	r.DisconnectedSpace = append(r.DisconnectedSpace, removed.Workspaces...)
	r.Monitors = slices.Delete(r.Monitors, idx, idx+1)
}

// ResizeColumnTransactional resizes every tile in col from fromWidth to
// toWidth (preserving each tile's own height) as a single atomic commit:
// every tile is given the same transaction, so the redraw scheduler waits
// for all of them to commit before presenting any of them, avoiding a
// visible stagger. txn is not released by this call — the caller owns its
// lifecycle and must release it once every column's commit is expected to
// have landed (or on deadline). When animate is true, each tile also gets a
// size animation from fromWidth to toWidth so the resize doesn't snap
// instantly ahead of the client's own commit catching up.
func ResizeColumnTransactional(col *Column, fromWidth, toWidth int, animate bool, clk clock.Clock, cfg anim.Config, txn *transaction.Transaction) {
	col.Width = window.PresetWidth{Fixed: toWidth}
	for _, t := range col.Tiles {
		var tileTxn *transaction.Transaction
		if txn != nil {
			clone := txn.Clone()
			tileTxn = &clone
		}
		if animate {
			t.AnimateSizeChange(clk, float64(fromWidth), float64(toWidth), cfg)
		}
		t.Window.RequestSize(window.Size{W: toWidth, H: 0}, animate, tileTxn)
	}
}
