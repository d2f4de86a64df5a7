package poser

import (
	"github.com/google/uuid"

	"poser-sync/internal/animstate"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
	"poser-sync/internal/wire"
)

// RecordVersion is written into every Record.
const RecordVersion = 1

// JointRecord is the persisted pose of one joint. Rotation is the delta as
// Euler radians.
type JointRecord struct {
	Name        string        `json:"name"`
	Rotation    mathutil.Vec3 `json:"rotation"`
	Position    mathutil.Vec3 `json:"position"`
	Scale       mathutil.Vec3 `json:"scale"`
	BaseZero    bool          `json:"base_zero,omitempty"`
	WorldLocked bool          `json:"world_locked,omitempty"`
	Mirrored    bool          `json:"mirrored,omitempty"`
	Enabled     bool          `json:"enabled"`
}

// Record is a saved pose: joint deltas and background-animation snapshots.
type Record struct {
	Version   int                `json:"version"`
	Joints    []JointRecord      `json:"joints"`
	Snapshots []animstate.Record `json:"snapshots,omitempty"`
}

// Save captures the character's pose. Unposed or untouched joints are
// included only if they differ from rest. Snapshots of animations the user
// does not own are left out unless override is set.
func (p *Poser) Save(id uuid.UUID, override bool) (Record, bool) {
	s, ok := p.sessions.Get(id)
	if !ok {
		return Record{}, false
	}
	cat := s.Rig.Catalog
	rec := Record{Version: RecordVersion}
	for _, js := range s.Joints() {
		if js.IsCollisionVolume() && !js.Changed() {
			continue
		}
		if !js.Modified() && !js.Changed() && js.Posed {
			continue
		}
		rec.Joints = append(rec.Joints, JointRecord{
			Name:        cat.Name(js.Joint),
			Rotation:    js.Rotation().Euler(),
			Position:    js.Position(),
			Scale:       js.Scale(),
			BaseZero:    js.UserBaseZero(),
			WorldLocked: js.WorldLocked,
			Mirrored:    js.Mirrored,
			Enabled:     js.Posed,
		})
	}
	if p.store != nil {
		rec.Snapshots = p.store.Write(id, override)
	}
	return rec, true
}

// Restore loads rec onto a posed character. Snapshots are applied first so
// that zeroed bases fold the restored animation in. Joints the catalog does
// not know are skipped. Restored values bypass undo history.
func (p *Poser) Restore(id uuid.UUID, rec Record) bool {
	s, ok := p.sessions.Get(id)
	if !ok {
		return false
	}
	if p.store != nil {
		p.store.Restore(id, rec.Snapshots)
		if !p.store.ApplyAll(id) {
			p.log.Debug().Str("character", id.String()).Msg("snapshots pending assets")
		}
	}

	cat := s.Rig.Catalog
	for _, jr := range rec.Joints {
		j, ok := cat.Lookup(jr.Name)
		if !ok {
			p.log.Debug().Str("joint", jr.Name).Strs("suggest", cat.Suggest(jr.Name, 1)).Msg("unknown joint in record")
			continue
		}
		js := s.Joint(j)
		if js == nil {
			continue
		}
		if jr.BaseZero {
			js.ZeroBaseRotation()
		}
		js.LoadRotation(mathutil.FromEuler(jr.Rotation))
		js.LoadPosition(jr.Position)
		js.LoadScale(jr.Scale)
		js.WorldLocked = jr.WorldLocked
		js.Mirrored = jr.Mirrored
		js.Posed = jr.Enabled
		js.PurgeHistory()
	}
	p.notify(id, wire.ChangeBoth)
	return true
}

// JointTokens encodes every touched joint of the character for the wire.
// Joints released to external animation are left out.
func (p *Poser) JointTokens(id uuid.UUID) []wire.JointToken {
	s, ok := p.sessions.Get(id)
	if !ok {
		return nil
	}
	var out []wire.JointToken
	for _, js := range s.Joints() {
		if !js.Posed || (!js.Modified() && !js.Changed()) {
			continue
		}
		if int(js.Joint) > wire.MaxJointNumber {
			continue
		}
		var flags wire.JointFlags
		if js.UserBaseZero() {
			flags |= wire.FlagBaseZero
		}
		if js.WorldLocked {
			flags |= wire.FlagWorldLocked
		}
		if js.Mirrored {
			flags |= wire.FlagMirrored
		}
		out = append(out, wire.JointToken{
			Number:   int(js.Joint),
			Flags:    flags,
			Rotation: js.Rotation().Euler(),
			Position: js.Position(),
			Scale:    js.Scale(),
		})
	}
	return out
}

// LoadJointTokens writes tokens received from a peer straight into the
// character's joint deltas, bypassing history. Returns how many joints were
// written; unknown joint numbers are skipped.
func (p *Poser) LoadJointTokens(id uuid.UUID, tokens []wire.JointToken) int {
	s, ok := p.sessions.Get(id)
	if !ok {
		return 0
	}
	n := 0
	for _, t := range tokens {
		js := s.Joint(skeleton.JointID(t.Number))
		if js == nil {
			p.log.Debug().Int("joint", t.Number).Msg("token for unknown joint")
			continue
		}
		if t.Flags&wire.FlagBaseZero != 0 && !js.UserBaseZero() {
			js.ZeroBaseRotation()
		}
		js.LoadRotation(mathutil.FromEuler(t.Rotation))
		js.LoadPosition(t.Position)
		js.LoadScale(t.Scale)
		js.WorldLocked = t.Flags&wire.FlagWorldLocked != 0
		js.Mirrored = t.Flags&wire.FlagMirrored != 0
		n++
	}
	return n
}

// PoseTuples encodes the character's snapshots for the wire.
func (p *Poser) PoseTuples(id uuid.UUID) []wire.PoseTuple {
	if p.store == nil {
		return nil
	}
	var out []wire.PoseTuple
	for _, r := range p.store.Write(id, true) {
		out = append(out, wire.PoseTuple{
			AssetID:      r.AssetID,
			PlayHead:     r.PlayHead,
			Joints:       r.Joints,
			CaptureOrder: r.CaptureOrder,
		})
	}
	return out
}

// LoadPoseTuples replaces the character's snapshots with tuples from a peer
// and applies them. Returns false while any animation is unresolved, or
// when the character is not posed.
func (p *Poser) LoadPoseTuples(id uuid.UUID, tuples []wire.PoseTuple) bool {
	if p.store == nil || !p.IsPosing(id) {
		return false
	}
	recs := make([]animstate.Record, 0, len(tuples))
	layer := map[int]int{}
	for _, t := range tuples {
		recs = append(recs, animstate.Record{
			AssetID:      t.AssetID,
			PlayHead:     t.PlayHead,
			Joints:       t.Joints,
			CaptureOrder: t.CaptureOrder,
			InLayer:      layer[t.CaptureOrder],
		})
		layer[t.CaptureOrder]++
	}
	p.store.Restore(id, recs)
	return p.store.ApplyAll(id)
}
