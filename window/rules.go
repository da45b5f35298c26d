package window

import "golang.org/x/text/cases"

// nameFolder normalizes app-id/title matches the same way regardless of the
// input's original casing.
var nameFolder = cases.Fold()

// FoldName case-folds s for rule/workspace-name matching.
func FoldName(s string) string {
	return nameFolder.String(s)
}

// Match describes a single window-rule matcher: an optional app-id pattern
// and an optional title pattern, both matched as case-folded substrings (a
// real implementation would use the regex engine named in a config rule; the
// core only needs the resolution algorithm, not the matcher syntax).
type Match struct {
	AppIDContains string
	TitleContains string
}

func (m Match) matches(appID, title string) bool {
	if m.AppIDContains != "" && !contains(FoldName(appID), FoldName(m.AppIDContains)) {
		return false
	}
	if m.TitleContains != "" && !contains(FoldName(title), FoldName(m.TitleContains)) {
		return false
	}
	return true
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, h := len(needle), len(haystack)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= h; i++ {
		if haystack[i:i+n] == needle {
			return i
		}
	}
	return -1
}

// Color is a plain RGBA color, used by the decoration-related rule fields.
// Actually painting a border/shadow/tab-indicator is a rendering concern and
// stays out of scope; this module only carries the resolved values through.
type Color struct {
	R, G, B, A float64
}

// BorderRule is a merge-combined decoration rule (used for both the window
// border and the focus ring): every field is itself optional, so a later
// rule that only sets Width doesn't clear an earlier rule's Color.
type BorderRule struct {
	Enable *bool
	Width  *float64
	Color  *Color
}

func (b *BorderRule) mergeInto(out *BorderRule) {
	if b == nil {
		return
	}
	if b.Enable != nil {
		out.Enable = b.Enable
	}
	if b.Width != nil {
		out.Width = b.Width
	}
	if b.Color != nil {
		out.Color = b.Color
	}
}

// ShadowRule is a merge-combined shadow override: like BorderRule, every
// field is optional and merged on its own.
type ShadowRule struct {
	Enable      *bool
	Color       *Color
	Softness    *float64
	SpreadPixel *float64
}

func (s *ShadowRule) mergeInto(out *ShadowRule) {
	if s == nil {
		return
	}
	if s.Enable != nil {
		out.Enable = s.Enable
	}
	if s.Color != nil {
		out.Color = s.Color
	}
	if s.Softness != nil {
		out.Softness = s.Softness
	}
	if s.SpreadPixel != nil {
		out.SpreadPixel = s.SpreadPixel
	}
}

// BlockOutFrom names the capture surfaces a window should be hidden from.
type BlockOutFrom int

const (
	// BlockOutFromNone: the window is visible to every capturer.
	BlockOutFromNone BlockOutFrom = iota
	// BlockOutFromScreenCast: hidden from screen-cast (e.g. video call)
	// capture only.
	BlockOutFromScreenCast
	// BlockOutFromScreenCapture: hidden from any capture, screen-cast or
	// one-shot screenshot alike.
	BlockOutFromScreenCapture
)

// Rule is one declarative window rule: a matcher plus the overrides it
// contributes. Every override field is a pointer/optional so that later
// rules only replace what they explicitly set, leaving earlier matches in
// place — this is the "declarative merge" spec.md describes. BorderRule and
// ShadowRule fields merge their own nested optionals rather than being
// replaced wholesale.
type Rule struct {
	Match Match

	Floating        *bool
	FloatingSize    *Size
	DefaultWidth    *PresetWidth
	DefaultHeight   *PresetWidth
	MinSize         *Size
	MaxSize         *Size
	OpenFullscreen  *bool
	OpenMaximized   *bool
	OpenOnWorkspace *string
	OpenOnOutput    *string
	OpenFocused     *bool

	Border    *BorderRule
	FocusRing *BorderRule
	Shadow    *ShadowRule

	TabIndicatorActiveColor   *Color
	TabIndicatorInactiveColor *Color

	Opacity              *float64
	GeometryCornerRadius *float64
	ClipToGeometry       *bool
	ScrollFactor         *float64
	BlockOutFrom         *BlockOutFrom
	TiledStateOverride   *bool
	BabaIsFloat          *bool
}

// ResolvedWindowRules is the result of folding every matching rule, in
// order, into a single set of effective values.
type ResolvedWindowRules struct {
	Floating        bool
	FloatingSize    Size
	DefaultWidth    PresetWidth
	DefaultHeight   PresetWidth
	MinSize         Size
	MaxSize         Size
	OpenFullscreen  bool
	OpenMaximized   bool
	OpenOnWorkspace string
	OpenOnOutput    string
	OpenFocused     bool

	Border    BorderRule
	FocusRing BorderRule
	Shadow    ShadowRule

	TabIndicatorActiveColor   *Color
	TabIndicatorInactiveColor *Color

	Opacity              float64
	GeometryCornerRadius float64
	ClipToGeometry       bool
	ScrollFactor         float64
	BlockOutFrom         BlockOutFrom
	TiledStateOverride   *bool
	BabaIsFloat          bool
}

// Resolve folds every rule in rules that matches (appID, title) into a
// ResolvedWindowRules, later rules overriding earlier ones field by field —
// never rule-by-rule wholesale, so a later rule that only sets Floating
// doesn't clobber an earlier rule's OpenOnWorkspace. Opacity defaults to 1
// (fully opaque) and ScrollFactor to 1 (unscaled) when no rule sets them.
func Resolve(rules []Rule, appID, title string) ResolvedWindowRules {
	out := ResolvedWindowRules{Opacity: 1, ScrollFactor: 1}
	for _, r := range rules {
		if !r.Match.matches(appID, title) {
			continue
		}
		if r.Floating != nil {
			out.Floating = *r.Floating
		}
		if r.FloatingSize != nil {
			out.FloatingSize = *r.FloatingSize
		}
		if r.DefaultWidth != nil {
			out.DefaultWidth = *r.DefaultWidth
		}
		if r.DefaultHeight != nil {
			out.DefaultHeight = *r.DefaultHeight
		}
		if r.MinSize != nil {
			out.MinSize = *r.MinSize
		}
		if r.MaxSize != nil {
			out.MaxSize = *r.MaxSize
		}
		if r.OpenFullscreen != nil {
			out.OpenFullscreen = *r.OpenFullscreen
		}
		if r.OpenMaximized != nil {
			out.OpenMaximized = *r.OpenMaximized
		}
		if r.OpenOnWorkspace != nil {
			out.OpenOnWorkspace = *r.OpenOnWorkspace
		}
		if r.OpenOnOutput != nil {
			out.OpenOnOutput = *r.OpenOnOutput
		}
		if r.OpenFocused != nil {
			out.OpenFocused = *r.OpenFocused
		}
		r.Border.mergeInto(&out.Border)
		r.FocusRing.mergeInto(&out.FocusRing)
		r.Shadow.mergeInto(&out.Shadow)
		if r.TabIndicatorActiveColor != nil {
			out.TabIndicatorActiveColor = r.TabIndicatorActiveColor
		}
		if r.TabIndicatorInactiveColor != nil {
			out.TabIndicatorInactiveColor = r.TabIndicatorInactiveColor
		}
		if r.Opacity != nil {
			out.Opacity = *r.Opacity
		}
		if r.GeometryCornerRadius != nil {
			out.GeometryCornerRadius = *r.GeometryCornerRadius
		}
		if r.ClipToGeometry != nil {
			out.ClipToGeometry = *r.ClipToGeometry
		}
		if r.ScrollFactor != nil {
			out.ScrollFactor = *r.ScrollFactor
		}
		if r.BlockOutFrom != nil {
			out.BlockOutFrom = *r.BlockOutFrom
		}
		if r.TiledStateOverride != nil {
			out.TiledStateOverride = r.TiledStateOverride
		}
		if r.BabaIsFloat != nil {
			out.BabaIsFloat = *r.BabaIsFloat
		}
	}
	return out
}

// PresetWidth is a column width preset: either a proportion of the working
// area or a fixed logical size.
type PresetWidth struct {
	Proportion float64 // 0 means "unset"; use Fixed instead
	Fixed      int     // 0 means "unset"
}

// IsProportion reports whether this preset expresses a proportion rather
// than a fixed size.
func (p PresetWidth) IsProportion() bool { return p.Proportion > 0 }
