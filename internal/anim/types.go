package anim

import "poser-sync/internal/mathutil"

// RotKey is one rotation keyframe; Time is in seconds.
type RotKey struct {
	Time     float64
	Rotation mathutil.Quat
}

// PosKey is one position keyframe; Time is in seconds.
type PosKey struct {
	Time     float64
	Position mathutil.Vec3
}

// JointMotion holds the keyframes authored for one joint.
type JointMotion struct {
	Name     string
	Priority int
	RotKeys  []RotKey
	PosKeys  []PosKey
}

// Animation is a decoded keyframe animation.
type Animation struct {
	Version      uint16
	SubVersion   uint16
	BasePriority int
	Duration     float64
	Emote        string
	LoopIn       float64
	LoopOut      float64
	Loop         bool
	EaseIn       float64
	EaseOut      float64
	HandPose     uint32
	Joints       []JointMotion
}

// Pose is an animation sampled for one joint at one play-head.
type Pose struct {
	Rotation    mathutil.Quat
	Position    mathutil.Vec3
	HasRotation bool
	HasPosition bool
	Priority    int
}
