package anim

import (
	"sort"
	"strings"

	"poser-sync/internal/mathutil"
)

// Joint returns the motion authored for name, ignoring case.
func (a *Animation) Joint(name string) (*JointMotion, bool) {
	for i := range a.Joints {
		if strings.EqualFold(a.Joints[i].Name, name) {
			return &a.Joints[i], true
		}
	}
	return nil, false
}

// JointNames lists the joints the animation drives.
func (a *Animation) JointNames() []string {
	out := make([]string, len(a.Joints))
	for i, jm := range a.Joints {
		out[i] = jm.Name
	}
	return out
}

// Sample evaluates the joint at play-head t seconds. Times outside the key
// range hold the nearest key.
func (a *Animation) Sample(name string, t float64) (Pose, bool) {
	jm, ok := a.Joint(name)
	if !ok {
		return Pose{}, false
	}
	p := Pose{Priority: jm.Priority}
	if p.Priority < 0 {
		p.Priority = a.BasePriority
	}
	if len(jm.RotKeys) > 0 {
		p.Rotation = sampleRot(jm.RotKeys, t)
		p.HasRotation = true
	}
	if len(jm.PosKeys) > 0 {
		p.Position = samplePos(jm.PosKeys, t)
		p.HasPosition = true
	}
	return p, p.HasRotation || p.HasPosition
}

func sampleRot(keys []RotKey, t float64) mathutil.Quat {
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time >= t })
	switch {
	case i == 0:
		return keys[0].Rotation
	case i == len(keys):
		return keys[len(keys)-1].Rotation
	}
	a, b := keys[i-1], keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Rotation
	}
	return a.Rotation.Slerp(b.Rotation, (t-a.Time)/span)
}

func samplePos(keys []PosKey, t float64) mathutil.Vec3 {
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time >= t })
	switch {
	case i == 0:
		return keys[0].Position
	case i == len(keys):
		return keys[len(keys)-1].Position
	}
	a, b := keys[i-1], keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Position
	}
	return a.Position.Lerp(b.Position, (t-a.Time)/span)
}
