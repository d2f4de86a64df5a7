package collab

import "strconv"

// Permission is the relationship this client holds with a remote character.
// States are ordered; comparisons are meaningful.
type Permission int

const (
	PermNone Permission = iota
	PermEnded
	PermDenied
	PermIAskedThem
	PermTheyAskedMe
	// PermPartyMode advertises that the sender will take requests from anyone.
	// It ranks below PermGranted and authorizes no traffic by itself.
	PermPartyMode
	PermGranted
	PermTheyPoseMe
	PermIPoseThem
	PermPoseEachOther

	permCount
)

var permNames = [...]string{
	"none",
	"ended",
	"denied",
	"i-asked-them",
	"they-asked-me",
	"party-mode",
	"granted",
	"they-pose-me",
	"i-pose-them",
	"pose-each-other",
}

func (p Permission) String() string {
	if !p.Valid() {
		return "invalid(" + strconv.Itoa(int(p)) + ")"
	}
	return permNames[p]
}

// Valid reports whether p is a known state.
func (p Permission) Valid() bool {
	return p >= PermNone && p < permCount
}

// ParsePermission accepts the names produced by String.
func ParsePermission(s string) (Permission, bool) {
	for i, n := range permNames {
		if n == s {
			return Permission(i), true
		}
	}
	return PermNone, false
}

// CanPoseMe reports whether the holder of p may drive this client's own pose.
func (p Permission) CanPoseMe() bool {
	return p == PermTheyPoseMe || p == PermPoseEachOther
}

// Assert applies a state this client chose for a link. It returns the new
// local state and whether the assertion goes out on the wire. States that
// only a peer can grant are refused.
func Assert(current, asserted Permission) (Permission, bool) {
	switch asserted {
	case PermIAskedThem:
		if current == PermTheyAskedMe {
			return PermGranted, true
		}
		return PermIAskedThem, true
	case PermGranted:
		switch current {
		case PermPoseEachOther:
			return PermIPoseThem, true
		case PermTheyPoseMe:
			return PermGranted, true
		}
		return current, true
	case PermTheyPoseMe:
		if current == PermIPoseThem {
			return PermPoseEachOther, true
		}
		return PermTheyPoseMe, true
	case PermNone, PermEnded, PermDenied, PermPartyMode:
		return asserted, true
	}
	return current, false
}

// Receive applies a state a peer asserted. It returns the new local state and
// whether this client must reply with PermIAskedThem so a peer that asked
// while this side was not listening still converges.
func Receive(current, received Permission) (Permission, bool) {
	switch received {
	case PermGranted:
		// Only rescinds a grant made earlier.
		switch current {
		case PermPoseEachOther:
			return PermTheyPoseMe, false
		case PermIPoseThem:
			return PermGranted, false
		}
	case PermIAskedThem:
		if current == PermIAskedThem {
			return PermGranted, true
		}
		if current != PermGranted {
			return PermTheyAskedMe, false
		}
	case PermTheyPoseMe:
		switch current {
		case PermGranted:
			return PermIPoseThem, false
		case PermTheyPoseMe:
			return PermPoseEachOther, false
		}
	case PermNone, PermEnded, PermDenied:
		return received, false
	case PermPartyMode:
		if current < PermGranted {
			return PermPartyMode, false
		}
	}
	return current, false
}
