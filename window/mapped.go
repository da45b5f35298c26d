package window

import (
	"driftwm.dev/driftwm/internal/serial"
	"driftwm.dev/driftwm/transaction"
)

// ConfigureIntent classifies what should happen the next time the redraw
// loop considers sending this window a configure event.
type ConfigureIntent int

const (
	// NotNeeded: server_pending (if any) already matches current_server.
	NotNeeded ConfigureIntent = iota
	// CanSend: only size changed, and the client's committed buffer size
	// already matches the previous server baseline — it has caught up with
	// the last configure we sent, so sending the next one now won't pile up
	// a second outstanding request.
	CanSend
	// ShouldSend: something other than size changed (or a configure was
	// explicitly forced), so this should be sent as soon as possible.
	ShouldSend
	// Throttled: size changed but the client hasn't caught up yet; sending
	// now would just pile up more outstanding configures.
	Throttled
)

type requestSizeOnceKind int

const (
	requestSizeOnceNone requestSizeOnceKind = iota
	requestSizeOnceWaitingForConfigure
	requestSizeOnceWaitingForCommit
	requestSizeOnceUseWindowSize
)

type requestSizeOnceState struct {
	kind   requestSizeOnceKind
	serial serial.Serial // valid only when kind == requestSizeOnceWaitingForCommit
}

// ResizeEdges names which edges an interactive resize grabbed.
type ResizeEdges struct {
	Left, Right, Top, Bottom bool
}

type interactiveResizeKind int

const (
	interactiveResizeNone interactiveResizeKind = iota
	interactiveResizeOngoing
	interactiveResizeWaitingForLastConfigure
	interactiveResizeWaitingForLastCommit
)

type interactiveResizeState struct {
	kind   interactiveResizeKind
	edges  ResizeEdges
	serial serial.Serial // valid only when kind == interactiveResizeWaitingForLastCommit
}

type uncommittedFullscreenEntry struct {
	serial serial.Serial
	value  bool
}

// Mapped is a window that has committed at least one buffer and is
// participating in the layout.
type Mapped struct {
	surface Surface
	rules   ResolvedWindowRules

	// serverPending is the set of changes the compositor wants to send next
	// but hasn't yet, or nil if there is nothing pending beyond what was
	// already sent.
	serverPending *ConfigureState

	// currentServer is the baseline: the configure state most recently sent
	// to the client (the zero state before the first send).
	currentServer ConfigureState
	hasCurrent    bool

	pendingConfigures []PendingConfigure

	lastAcked    ConfigureState
	hasLastAcked bool

	currentSerial    serial.Serial
	hasCurrentSerial bool

	needsConfigure       bool
	animateNextConfigure bool

	requestSizeOnce requestSizeOnceState

	interactiveResize interactiveResizeState

	pendingTransaction *transaction.Transaction
	animateSerials     []serial.Serial

	isPendingWindowedFullscreen bool
	isWindowedFullscreen        bool
	uncommittedWindowedFS       []uncommittedFullscreenEntry
}

// NewMapped creates a Mapped window wrapping surface, already carrying the
// resolved rules it was opened with.
func NewMapped(surface Surface, rules ResolvedWindowRules) *Mapped {
	return &Mapped{surface: surface, rules: rules}
}

// Rules returns the resolved window rules currently in effect.
func (m *Mapped) Rules() ResolvedWindowRules { return m.rules }

// pending returns the state request_size should mutate, creating it (as a
// copy of the current baseline) if nothing is pending yet.
func (m *Mapped) pending() *ConfigureState {
	if m.serverPending == nil {
		base := m.currentServer
		m.serverPending = &base
	}
	return m.serverPending
}

// RequestSize asks the client to resize to size, carrying fullscreen/tiled
// state forward unless overridden. txn, if non-nil, is attached to whatever
// configure eventually carries this request — unconditionally, even if an
// earlier configure is already outstanding, because a column resize that
// touches several windows needs every one of them to eventually present
// together even if some are still waiting on an earlier configure to be
// acked.
func (m *Mapped) RequestSize(size Size, animate bool, txn *transaction.Transaction) {
	p := m.pending()
	changed := p.Size != size
	p.Size = size

	if changed {
		m.animateNextConfigure = animate
	}
	m.requestSizeOnce = requestSizeOnceState{}

	// A plain size change does not force needsConfigure: whether it should
	// actually go out now is exactly what ConfigureIntent's throttle
	// comparison decides, weighing it against what the client has already
	// committed.
	if txn != nil {
		m.pendingTransaction = txn
	}
}

// RequestSizeOnce behaves like RequestSize, but only actually sends a
// configure if the window isn't already at (or about to be at) that size —
// otherwise it resolves immediately via UseWindowSize, used for "restore
// floating size" style operations that shouldn't perturb an already-correct
// window.
func (m *Mapped) RequestSizeOnce(size Size, fullscreen bool) {
	already := m.alreadyAt(size, fullscreen)
	if already {
		m.requestSizeOnce = requestSizeOnceState{kind: requestSizeOnceUseWindowSize}
		return
	}

	p := m.pending()
	p.Size = size
	p.Fullscreen = fullscreen
	m.needsConfigure = true
	m.requestSizeOnce = requestSizeOnceState{kind: requestSizeOnceWaitingForConfigure}
}

func (m *Mapped) alreadyAt(size Size, fullscreen bool) bool {
	last, ok := m.lastPendingOrAcked()
	if !ok {
		return false
	}
	return last.Size == size && last.Fullscreen == fullscreen
}

// lastPendingOrAcked returns the most recently sent configure's state, or
// the last acked state if nothing is outstanding.
func (m *Mapped) lastPendingOrAcked() (ConfigureState, bool) {
	if n := len(m.pendingConfigures); n > 0 {
		return m.pendingConfigures[n-1].State, true
	}
	if m.hasLastAcked {
		return m.lastAcked, true
	}
	return ConfigureState{}, false
}

// ConfigureIntent classifies what should happen next for this window's
// outstanding server_pending, given the client's last committed size.
func (m *Mapped) ConfigureIntent(committedSize Size) ConfigureIntent {
	if m.needsConfigure {
		return ShouldSend
	}
	if m.serverPending == nil {
		return NotNeeded
	}

	pending := *m.serverPending
	current := m.currentServer

	onlySizeDiffers := pending.Fullscreen == current.Fullscreen &&
		pending.Activated == current.Activated &&
		pending.Resizing == current.Resizing &&
		pending.TiledLeft == current.TiledLeft &&
		pending.TiledRight == current.TiledRight &&
		pending.TiledTop == current.TiledTop &&
		pending.TiledBottom == current.TiledBottom &&
		pending.Size != current.Size

	if onlySizeDiffers {
		if committedSize == current.Size {
			return CanSend
		}
		return Throttled
	}

	if pending == current {
		return NotNeeded
	}
	return ShouldSend
}

// SendPendingConfigure sends the outstanding server_pending (or a forced
// configure if needsConfigure was set without any pending change) and
// returns the serial it went out under, or false if there was nothing to
// send.
func (m *Mapped) SendPendingConfigure() (serial.Serial, bool) {
	has := m.serverPending != nil || m.needsConfigure
	if !has {
		return 0, false
	}

	state := m.currentServer
	if m.serverPending != nil {
		state = *m.serverPending
	}

	if m.requestSizeOnce.kind == requestSizeOnceUseWindowSize {
		if committed := m.surface.CommittedSize(); !committed.IsEmpty() {
			state.Size = committed
		}
	}

	sn := m.surface.SendConfigure(state)

	m.pendingConfigures = append(m.pendingConfigures, PendingConfigure{Serial: sn, State: state})
	m.serverPending = nil
	m.needsConfigure = false

	if m.animateNextConfigure {
		m.animateSerials = append(m.animateSerials, sn)
		m.animateNextConfigure = false
	}

	if m.pendingTransaction != nil {
		m.surface.AddCommitBlocker(m.pendingTransaction.Blocker())
		// The blocker is enough to gate the client's commit; drop the
		// strong reference we were handed so this window stops keeping the
		// transaction alive on its own.
		m.pendingTransaction.Release()
		m.pendingTransaction = nil
	}

	switch m.interactiveResize.kind {
	case interactiveResizeWaitingForLastConfigure:
		m.interactiveResize = interactiveResizeState{
			kind:   interactiveResizeWaitingForLastCommit,
			edges:  m.interactiveResize.edges,
			serial: sn,
		}
	}

	switch m.requestSizeOnce.kind {
	case requestSizeOnceWaitingForConfigure:
		m.requestSizeOnce = requestSizeOnceState{kind: requestSizeOnceWaitingForCommit, serial: sn}
	}

	if m.isPendingWindowedFullscreen != m.isWindowedFullscreen {
		m.uncommittedWindowedFS = append(m.uncommittedWindowedFS, uncommittedFullscreenEntry{
			serial: sn,
			value:  m.isPendingWindowedFullscreen,
		})
	}

	m.currentServer = state
	return sn, true
}

// OnCommit processes a client commit that acked commitSerial, advancing
// every serial-gated state machine (interactive resize, request-size-once,
// windowed-fullscreen) whose waited-for serial is no newer than
// commitSerial.
func (m *Mapped) OnCommit(commitSerial serial.Serial) {
	m.currentSerial = commitSerial
	m.hasCurrentSerial = true

	// Retire acked-and-committed pending configures up to and including
	// commitSerial, promoting the newest one to lastAcked.
	idx := -1
	for i, pc := range m.pendingConfigures {
		if commitSerial.IsNoOlderThan(pc.Serial) {
			idx = i
		}
	}
	if idx >= 0 {
		m.lastAcked = m.pendingConfigures[idx].State
		m.hasLastAcked = true
		m.pendingConfigures = m.pendingConfigures[idx+1:]
	}

	if m.interactiveResize.kind == interactiveResizeWaitingForLastCommit &&
		commitSerial.IsNoOlderThan(m.interactiveResize.serial) {
		m.interactiveResize = interactiveResizeState{}
	}

	if m.requestSizeOnce.kind == requestSizeOnceWaitingForCommit &&
		commitSerial.IsNoOlderThan(m.requestSizeOnce.serial) {
		m.requestSizeOnce = requestSizeOnceState{kind: requestSizeOnceUseWindowSize}
	}

	kept := m.uncommittedWindowedFS[:0]
	for _, e := range m.uncommittedWindowedFS {
		if commitSerial.IsNoOlderThan(e.serial) {
			m.isWindowedFullscreen = e.value
			continue
		}
		kept = append(kept, e)
	}
	m.uncommittedWindowedFS = kept
}

// ShouldAnimateCommit reports whether the commit that acked commitSerial
// should play its configured move/resize animation, i.e. whether
// commitSerial was one of the serials a RequestSize(animate=true) call
// tagged.
func (m *Mapped) ShouldAnimateCommit(commitSerial serial.Serial) bool {
	kept := m.animateSerials[:0]
	found := false
	for _, sn := range m.animateSerials {
		if commitSerial.IsNoOlderThan(sn) {
			found = true
			continue
		}
		kept = append(kept, sn)
	}
	m.animateSerials = kept
	return found
}

// IsFullscreen reports whether this window is currently presented
// fullscreen. Windowed-fullscreen windows report false here: they occupy
// the whole output but still participate in layout like a maximized tile.
func (m *Mapped) IsFullscreen() bool {
	if m.isWindowedFullscreen {
		return false
	}
	return m.currentServer.Fullscreen
}

// IsPendingFullscreen is like IsFullscreen but reflects the not-yet-acked
// server_pending state, used to decide layout eagerly instead of waiting a
// round trip.
func (m *Mapped) IsPendingFullscreen() bool {
	if m.isPendingWindowedFullscreen {
		return false
	}
	if m.serverPending != nil {
		return m.serverPending.Fullscreen
	}
	return m.currentServer.Fullscreen
}

// RequestWindowedFullscreen toggles windowed-fullscreen mode: the window is
// told it's fullscreen (so it removes its own chrome) but the compositor
// still lays it out as an oversized tile rather than an exclusive
// fullscreen surface.
func (m *Mapped) RequestWindowedFullscreen(value bool) {
	m.isPendingWindowedFullscreen = value
	p := m.pending()
	p.Fullscreen = value
	m.needsConfigure = true
}

// SetInteractiveResize starts (edges != nil) or ends (edges == nil) an
// interactive resize grab.
func (m *Mapped) SetInteractiveResize(edges *ResizeEdges) {
	p := m.pending()
	p.Resizing = edges != nil
	m.needsConfigure = true

	if edges != nil {
		m.interactiveResize = interactiveResizeState{kind: interactiveResizeOngoing, edges: *edges}
		return
	}

	switch m.interactiveResize.kind {
	case interactiveResizeOngoing:
		m.interactiveResize = interactiveResizeState{kind: interactiveResizeWaitingForLastConfigure, edges: m.interactiveResize.edges}
	}
}

// InteractiveResizeEdges returns the edges of the in-progress interactive
// resize, if any.
func (m *Mapped) InteractiveResizeEdges() (ResizeEdges, bool) {
	if m.interactiveResize.kind == interactiveResizeNone {
		return ResizeEdges{}, false
	}
	return m.interactiveResize.edges, true
}

// TakePendingTransaction returns and clears the transaction (if any) waiting
// to be attached to this window's next outgoing configure.
func (m *Mapped) TakePendingTransaction() *transaction.Transaction {
	t := m.pendingTransaction
	m.pendingTransaction = nil
	return t
}

// ExpectedSize returns the size layout should currently assume this window
// will have, even though the authoritative answer (the next committed
// buffer) hasn't arrived yet.
func (m *Mapped) ExpectedSize() Size {
	if m.requestSizeOnce.kind == requestSizeOnceUseWindowSize {
		return m.surface.CommittedSize()
	}

	if m.serverPending != nil && m.serverPending.Size != m.currentServer.Size {
		if m.serverPending.Fullscreen && !m.isPendingWindowedFullscreen {
			return Size{}
		}
		return m.substituteZeroDims(m.serverPending.Size)
	}

	if last, ok := m.lastPendingOrAcked(); ok && m.hasCurrentSerial {
		return m.substituteZeroDims(last.Size)
	}

	return m.substituteZeroDims(m.currentServer.Size)
}

// substituteZeroDims fills in any zero width/height component with the
// client's current committed size, matching "client decides" semantics for
// an axis the compositor left unconstrained.
func (m *Mapped) substituteZeroDims(size Size) Size {
	committed := m.surface.CommittedSize()
	if size.W == 0 {
		size.W = committed.W
	}
	if size.H == 0 {
		size.H = committed.H
	}
	return size
}

// MinMaxSize returns the effective min/max size, deferring to the surface's
// own cached constraints.
func (m *Mapped) MinMaxSize() (min, max Size) {
	return m.surface.MinMaxSize()
}

// HasServerSideDecoration reports whether this window's chrome is drawn by
// the compositor.
func (m *Mapped) HasServerSideDecoration() bool {
	return m.surface.HasServerSideDecoration()
}

// UpdateTiledState updates which edges the window should report itself as
// tiled against (so a client can e.g. square off its corners).
func (m *Mapped) UpdateTiledState(left, right, top, bottom bool) {
	p := m.pending()
	if p.TiledLeft == left && p.TiledRight == right && p.TiledTop == top && p.TiledBottom == bottom {
		return
	}
	p.TiledLeft, p.TiledRight, p.TiledTop, p.TiledBottom = left, right, top, bottom
	m.needsConfigure = true
}
