// Package window implements the window model: the Unmapped/Mapped lifecycle,
// resolved window rules, and the configure/commit state machine that
// negotiates window geometry with a client.
package window

import (
	"driftwm.dev/driftwm/internal/serial"
	"driftwm.dev/driftwm/transaction"
)

// Size is a window or surface size in logical pixels.
type Size struct {
	W, H int
}

// IsEmpty reports whether either dimension is non-positive, the Go
// equivalent of "not yet known" for a size that should otherwise always be
// positive.
func (s Size) IsEmpty() bool { return s.W <= 0 || s.H <= 0 }

// DecorationMode selects who draws a window's titlebar/border.
type DecorationMode int

const (
	DecorationModeClientSide DecorationMode = iota
	DecorationModeServerSide
)

// ConfigureState is everything the compositor tells a toplevel about its
// size and state in a single configure event.
type ConfigureState struct {
	Size        Size
	Bounds      Size
	Fullscreen  bool
	Activated   bool
	Resizing    bool
	TiledLeft   bool
	TiledRight  bool
	TiledTop    bool
	TiledBottom bool
}

// PendingConfigure pairs a sent-but-not-yet-acked configure with the serial
// it was sent under.
type PendingConfigure struct {
	Serial serial.Serial
	State  ConfigureState
}

// Surface is the contract a Wayland xdg_toplevel role object must satisfy
// for window.Mapped to drive its configure/commit lifecycle. Implementations
// live outside this module (wire handling is a non-goal here); tests supply
// fakes.
type Surface interface {
	// SendConfigure transmits state to the client and returns the serial it
	// was sent under.
	SendConfigure(state ConfigureState) serial.Serial
	// CommittedSize returns the client's most recently committed buffer
	// size, in logical coordinates.
	CommittedSize() Size
	// MinMaxSize returns the surface's cached size constraints. A zero Size
	// means "no constraint" in that dimension.
	MinMaxSize() (min, max Size)
	// HasServerSideDecoration reports whether the client has negotiated
	// server-side decorations via any supported decoration protocol.
	HasServerSideDecoration() bool
	// AddCommitBlocker blocks the client's next commit from being applied
	// until b reports Released.
	AddCommitBlocker(b transaction.Blocker)
}

// OutputInfo is the contract an output must satisfy for rule resolution and
// fullscreen placement.
type OutputInfo interface {
	Name() string
	LogicalSize() Size
}
