package window

// InitialConfigureState tracks whether an Unmapped window's very first
// configure has gone out yet, and if so, what it committed to. Modeled as a
// closed interface since Go has no tagged union — NotConfigured and
// Configured are the only implementations.
type InitialConfigureState interface {
	needsInitialConfigure() bool
}

// NotConfigured means the compositor has not yet sent this window's first
// configure event.
type NotConfigured struct {
	// WantsFullscreen records a client's _NET_WM_STATE_FULLSCREEN-equivalent
	// request made before mapping, if any, and which output it was for (a
	// nil Output inside a non-nil pointer means "any output").
	WantsFullscreen *FullscreenRequest
}

// FullscreenRequest is a pre-map fullscreen request, optionally pinned to an
// output.
type FullscreenRequest struct {
	Output OutputInfo // nil means "no preference"
}

func (NotConfigured) needsInitialConfigure() bool { return true }

// Configured means the initial configure has been sent, recording the rules
// and size it was sent with so the first commit can be validated against it.
type Configured struct {
	Rules           ResolvedWindowRules
	Width, Height   int
	FloatingWidth   int
	FloatingHeight  int
	IsFullWidth     bool
	Output          OutputInfo
	WorkspaceName   string
}

func (Configured) needsInitialConfigure() bool { return false }

// Unmapped is a window that exists (a client has created a toplevel role)
// but has not yet sent its first buffer commit.
type Unmapped struct {
	AppID string
	Title string

	State InitialConfigureState

	// ActivationTokenData carries an xdg-activation token presented at
	// surface-creation time, consumed once the window maps.
	ActivationTokenData string
}

// NewUnmapped creates an Unmapped window that has not yet been configured.
func NewUnmapped(appID, title string) *Unmapped {
	return &Unmapped{
		AppID: appID,
		Title: title,
		State: NotConfigured{},
	}
}

// NeedsInitialConfigure reports whether the compositor still needs to send
// this window's first configure event.
func (u *Unmapped) NeedsInitialConfigure() bool {
	return u.State.needsInitialConfigure()
}
