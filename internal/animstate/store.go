package animstate

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"poser-sync/internal/anim"
	"poser-sync/internal/jointpose"
	"poser-sync/internal/metrics"
	"poser-sync/internal/posing"
	"poser-sync/internal/skeleton"
)

// Playback is an animation currently playing on a character.
type Playback struct {
	AssetID  uuid.UUID
	PlayHead float64
	Joints   []skeleton.JointID
}

// Animator reports the animations playing on a character.
type Animator interface {
	Playing(character uuid.UUID) []Playback
}

// ClipSource resolves animation assets. A false result means the asset is
// not available yet.
type ClipSource interface {
	Clip(id uuid.UUID) (*anim.Animation, bool)
}

// Ownership decides whether the local user may persist an animation.
type Ownership interface {
	Owns(asset uuid.UUID) bool
}

// Snapshot records one background animation frozen at a play-head.
type Snapshot struct {
	AssetID      uuid.UUID
	PlayHead     float64
	Joints       []skeleton.JointID
	CaptureOrder int
	InLayer      int
	Ownable      bool
	Applied      bool
}

// Record is the persisted form of a Snapshot.
type Record struct {
	AssetID      uuid.UUID `json:"animation_id"`
	PlayHead     float64   `json:"play_head"`
	Joints       []int     `json:"joints"`
	CaptureOrder int       `json:"capture_order"`
	InLayer      int       `json:"in_layer"`
}

type character struct {
	snapshots []Snapshot
	counter   int
}

// Store reconciles manual pose edits with animations already playing.
type Store struct {
	sessions *posing.Registry
	animator Animator
	clips    ClipSource
	owner    Ownership
	log      zerolog.Logger

	chars map[uuid.UUID]*character
}

// NewStore wires a store. owner may be nil, in which case every animation is ownable.
func NewStore(sessions *posing.Registry, animator Animator, clips ClipSource, owner Ownership, log zerolog.Logger) *Store {
	return &Store{
		sessions: sessions,
		animator: animator,
		clips:    clips,
		owner:    owner,
		log:      log,
		chars:    make(map[uuid.UUID]*character),
	}
}

func (s *Store) char(id uuid.UUID) *character {
	c, ok := s.chars[id]
	if !ok {
		c = &character{}
		s.chars[id] = c
	}
	return c
}

func (s *Store) ownable(asset uuid.UUID) bool {
	return s.owner == nil || s.owner.Owns(asset)
}

// Capture records every animation playing on the character at capture order 0.
func (s *Store) Capture(id uuid.UUID) {
	c := s.char(id)
	c.snapshots = c.snapshots[:0]
	c.counter = 0
	if s.animator == nil {
		return
	}
	for i, p := range s.animator.Playing(id) {
		c.snapshots = append(c.snapshots, Snapshot{
			AssetID:  p.AssetID,
			PlayHead: p.PlayHead,
			Joints:   append([]skeleton.JointID(nil), p.Joints...),
			InLayer:  i,
			Ownable:  s.ownable(p.AssetID),
		})
	}
	s.log.Debug().Str("character", id.String()).Int("snapshots", len(c.snapshots)).Msg("animations captured")
}

// UpdateAfterRecapture layers a new capture order over the joints just
// recaptured. Snapshots now fully covered by the recapture are dropped, and
// playing animations touching a recaptured joint are recorded if new.
func (s *Store) UpdateAfterRecapture(id uuid.UUID, recaptured []skeleton.JointID) {
	if len(recaptured) == 0 {
		return
	}
	c := s.char(id)
	c.counter++

	set := make(map[skeleton.JointID]bool, len(recaptured))
	for _, j := range recaptured {
		set[j] = true
	}

	kept := c.snapshots[:0]
	for _, snap := range c.snapshots {
		if subsetOf(snap.Joints, set) {
			continue
		}
		kept = append(kept, snap)
	}
	c.snapshots = kept

	if s.animator == nil {
		return
	}
	inLayer := 0
	for _, p := range s.animator.Playing(id) {
		var touched []skeleton.JointID
		for _, j := range p.Joints {
			if set[j] {
				touched = append(touched, j)
			}
		}
		if len(touched) == 0 || c.has(p.AssetID, p.PlayHead) {
			continue
		}
		c.snapshots = append(c.snapshots, Snapshot{
			AssetID:      p.AssetID,
			PlayHead:     p.PlayHead,
			Joints:       touched,
			CaptureOrder: c.counter,
			InLayer:      inLayer,
			Ownable:      s.ownable(p.AssetID),
		})
		inLayer++
	}
}

func (c *character) has(asset uuid.UUID, playHead float64) bool {
	for _, snap := range c.snapshots {
		if snap.AssetID == asset && math.Abs(snap.PlayHead-playHead) < 1e-6 {
			return true
		}
	}
	return false
}

// subsetOf reports whether joints is non-empty and entirely inside set.
func subsetOf(joints []skeleton.JointID, set map[skeleton.JointID]bool) bool {
	if len(joints) == 0 {
		return false
	}
	for _, j := range joints {
		if !set[j] {
			return false
		}
	}
	return true
}

// ApplyAll writes every snapshot's sampled pose into joint bases, in capture
// order. Only rotation and position are written: .anim files carry no scale
// keys, so base scale stays as captured. Priority is reset at each capture-order boundary so later layers
// win. Returns false while any asset is still unresolved.
func (s *Store) ApplyAll(id uuid.UUID) bool {
	c, ok := s.chars[id]
	if !ok {
		return true
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return true
	}

	sort.SliceStable(c.snapshots, func(a, b int) bool {
		sa, sb := c.snapshots[a], c.snapshots[b]
		if sa.CaptureOrder != sb.CaptureOrder {
			return sa.CaptureOrder < sb.CaptureOrder
		}
		return sa.InLayer < sb.InLayer
	})

	cat := session.Rig.Catalog
	resolved := true
	order := -1
	for i := range c.snapshots {
		snap := &c.snapshots[i]
		if snap.CaptureOrder != order {
			order = snap.CaptureOrder
			s.resetPriority(session, c.snapshots, order)
		}

		clip, ok := s.clip(snap.AssetID)
		if !ok {
			resolved = false
			continue
		}
		for _, j := range snap.Joints {
			js := session.Joint(j)
			if js == nil {
				continue
			}
			p, ok := clip.Sample(cat.Name(j), snap.PlayHead)
			if !ok {
				continue
			}
			prio := jointpose.Priority(p.Priority)
			if p.HasRotation {
				js.SetBaseRotation(p.Rotation, prio)
			}
			if p.HasPosition {
				js.SetBasePosition(p.Position, prio)
			}
		}
		snap.Applied = true
	}
	if resolved {
		metrics.SnapshotsApplied.WithLabelValues("applied").Inc()
	} else {
		metrics.SnapshotsApplied.WithLabelValues("unresolved").Inc()
	}
	return resolved
}

// clip resolves an asset. Without a source every asset stays unresolved.
func (s *Store) clip(id uuid.UUID) (*anim.Animation, bool) {
	if s.clips == nil {
		return nil, false
	}
	return s.clips.Clip(id)
}

func (s *Store) resetPriority(session *posing.Session, snaps []Snapshot, order int) {
	for _, snap := range snaps {
		if snap.CaptureOrder != order {
			continue
		}
		for _, j := range snap.Joints {
			if js := session.Joint(j); js != nil {
				js.ResetPriority()
			}
		}
	}
}

// Snapshots returns a copy of the character's snapshots.
func (s *Store) Snapshots(id uuid.UUID) []Snapshot {
	c, ok := s.chars[id]
	if !ok {
		return nil
	}
	return append([]Snapshot(nil), c.snapshots...)
}

// Write returns the persistable records. Snapshots the user does not own are
// omitted unless override is set.
func (s *Store) Write(id uuid.UUID, override bool) []Record {
	c, ok := s.chars[id]
	if !ok {
		return nil
	}
	var out []Record
	for _, snap := range c.snapshots {
		if !snap.Ownable && !override {
			continue
		}
		joints := make([]int, len(snap.Joints))
		for i, j := range snap.Joints {
			joints[i] = int(j)
		}
		out = append(out, Record{
			AssetID:      snap.AssetID,
			PlayHead:     snap.PlayHead,
			Joints:       joints,
			CaptureOrder: snap.CaptureOrder,
			InLayer:      snap.InLayer,
		})
	}
	return out
}

// Restore replaces the character's snapshots with records. The capture-order
// counter continues from the highest restored order.
func (s *Store) Restore(id uuid.UUID, records []Record) {
	c := s.char(id)
	c.snapshots = c.snapshots[:0]
	c.counter = 0
	for _, r := range records {
		joints := make([]skeleton.JointID, len(r.Joints))
		for i, j := range r.Joints {
			joints[i] = skeleton.JointID(j)
		}
		c.snapshots = append(c.snapshots, Snapshot{
			AssetID:      r.AssetID,
			PlayHead:     r.PlayHead,
			Joints:       joints,
			CaptureOrder: r.CaptureOrder,
			InLayer:      r.InLayer,
			Ownable:      s.ownable(r.AssetID),
		})
		if r.CaptureOrder > c.counter {
			c.counter = r.CaptureOrder
		}
	}
}

// Purge forgets everything recorded for the character.
func (s *Store) Purge(id uuid.UUID) {
	delete(s.chars, id)
}
