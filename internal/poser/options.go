package poser

import "poser-sync/internal/skeleton"

// Style is how an edit to one joint deflects onto its mirror partner.
type Style int

const (
	// StyleNone leaves the partner alone.
	StyleNone Style = iota
	// StyleMirror gives the partner a reflected copy of the joint's rotation.
	StyleMirror
	// StyleMirrorDelta applies the reflected change to the partner.
	StyleMirrorDelta
	// StyleSympathetic gives the partner a copy of the joint's rotation.
	StyleSympathetic
	// StyleSympatheticDelta applies the same change to the partner.
	StyleSympatheticDelta
	// StyleDelta composes the input onto the joint's current delta and leaves the partner alone.
	StyleDelta
)

var styleNames = [...]string{"none", "mirror", "mirror-delta", "sympathetic", "sympathetic-delta", "delta"}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return "unknown"
	}
	return styleNames[s]
}

// ParseStyle accepts the names produced by String.
func ParseStyle(s string) (Style, bool) {
	for i, n := range styleNames {
		if n == s {
			return Style(i), true
		}
	}
	return StyleNone, false
}

// deflects reports whether the style touches the partner joint.
func (s Style) deflects() bool {
	return s != StyleNone && s != StyleDelta
}

// Frame is the space an input rotation is expressed in.
type Frame int

const (
	FrameBone Frame = iota
	FrameWorld
	FrameCharacter
	FrameCamera
)

var frameNames = [...]string{"bone", "world", "character", "camera"}

func (f Frame) String() string {
	if f < 0 || int(f) >= len(frameNames) {
		return "unknown"
	}
	return frameNames[f]
}

// ParseFrame accepts the names produced by String.
func ParseFrame(s string) (Frame, bool) {
	for i, n := range frameNames {
		if n == s {
			return Frame(i), true
		}
	}
	return FrameBone, false
}

// EditOptions describe how an edit is interpreted. Build them with Edit.
//
// A rotation in any frame other than FrameBone is always composed onto the
// current delta: an absolute value has no meaning outside the joint's own space.
type EditOptions struct {
	style  Style
	frame  Frame
	axes   bool
	remap  skeleton.AxisRemap
	negate skeleton.Negation
}

// Edit returns options for a bone-local edit with no deflection, using the
// catalog's axis remap and negation for the joint.
func Edit() EditOptions {
	return EditOptions{}
}

// Deflect sets the deflection style.
func (o EditOptions) Deflect(s Style) EditOptions {
	o.style = s
	return o
}

// InFrame sets the reference frame.
func (o EditOptions) InFrame(f Frame) EditOptions {
	o.frame = f
	return o
}

// WithAxes overrides the catalog's axis remap and negation.
func (o EditOptions) WithAxes(remap skeleton.AxisRemap, negate skeleton.Negation) EditOptions {
	o.axes = true
	o.remap = remap
	o.negate = negate
	return o
}

// Style returns the deflection style.
func (o EditOptions) Style() Style { return o.style }

// Frame returns the reference frame.
func (o EditOptions) Frame() Frame { return o.frame }

// composes reports whether the input is composed onto the current delta
// rather than replacing it.
func (o EditOptions) composes() bool {
	return o.frame != FrameBone || o.style == StyleDelta
}

func (o EditOptions) axesFor(jd *skeleton.JointDescriptor) (skeleton.AxisRemap, skeleton.Negation) {
	if o.axes {
		return o.remap, o.negate
	}
	return jd.Remap, jd.Negate
}
