package animstate

import (
	"github.com/google/uuid"

	"poser-sync/internal/skeleton"
)

// StaticAnimator is an Animator backed by a fixed table, for tools and tests.
type StaticAnimator map[uuid.UUID][]Playback

func (a StaticAnimator) Playing(character uuid.UUID) []Playback {
	return a[character]
}

// OwnedSet is an Ownership listing the assets the user owns.
type OwnedSet map[uuid.UUID]bool

func (o OwnedSet) Owns(asset uuid.UUID) bool { return o[asset] }

// JointsOf resolves the joint ids an animation drives against cat.
func JointsOf(cat *skeleton.Catalog, names []string) []skeleton.JointID {
	var out []skeleton.JointID
	for _, n := range names {
		if id, ok := cat.Lookup(n); ok {
			out = append(out, id)
		}
	}
	return out
}
