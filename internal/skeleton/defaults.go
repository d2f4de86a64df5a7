package skeleton

import "sync"

func j(name, mirror string, cat Category, children ...string) JointDef {
	return JointDef{Name: name, Mirror: mirror, Category: cat, Children: children}
}

// right marks the right-hand member of a mirrored pair; whole-pose flips
// are driven from the left side only.
func right(d JointDef) JointDef {
	d.NoAutoFlip = true
	return d
}

func axes(d JointDef, r AxisRemap, n Negation) JointDef {
	d.Remap = r
	d.Negate = n
	return d
}

// DefaultJoints is the stock humanoid skeleton, clustered by body area.
var DefaultJoints = []JointDef{
	// head, torso, legs
	j("mPelvis", "", WholeCharacter, "mTorso", "mHipLeft", "mHipRight", "mTail1", "mGroin", "mHindLimbsRoot", "BUTT"),
	axes(j("mTorso", "", Body, "mChest", "BELLY"), SwapYawAndRoll, NegateYaw),
	axes(j("mChest", "", Body, "mNeck", "mCollarLeft", "mCollarRight", "mWingsRoot", "LEFT_PEC", "RIGHT_PEC"), SwapYawAndRoll, NegateYaw),
	axes(j("mNeck", "", Body, "mHead"), SwapYawAndRoll, NegateYaw),
	axes(j("mHead", "", Body,
		"mEyeLeft", "mEyeRight",
		"mFaceForeheadLeft", "mFaceForeheadCenter", "mFaceForeheadRight",
		"mFaceEyebrowOuterLeft", "mFaceEyebrowCenterLeft", "mFaceEyebrowInnerLeft",
		"mFaceEyebrowOuterRight", "mFaceEyebrowCenterRight", "mFaceEyebrowInnerRight",
		"mFaceEyeLidUpperLeft", "mFaceEyeLidLowerLeft", "mFaceEyeLidUpperRight", "mFaceEyeLidLowerRight",
		"mFaceCheekUpperLeft", "mFaceCheekLowerLeft", "mFaceCheekUpperRight", "mFaceCheekLowerRight",
		"mFaceLipUpperLeft", "mFaceLipUpperCenter", "mFaceLipUpperRight",
		"mFaceLipCornerLeft", "mFaceLipCornerRight",
		"mFaceJaw"), SwapYawAndRoll, NegateYaw),

	axes(j("mCollarLeft", "mCollarRight", Body, "mShoulderLeft"), SwapYawAndPitch, 0),
	axes(j("mShoulderLeft", "mShoulderRight", Body, "mElbowLeft"), SwapYawAndPitch, 0),
	axes(j("mElbowLeft", "mElbowRight", Body, "mWristLeft"), SwapYawAndPitch, 0),
	axes(j("mWristLeft", "mWristRight", Body,
		"mHandThumb1Left", "mHandIndex1Left", "mHandMiddle1Left", "mHandRing1Left", "mHandPinky1Left"), SwapYawAndPitch, 0),
	right(axes(j("mCollarRight", "mCollarLeft", Body, "mShoulderRight"), SwapYawAndPitch, NegatePitch|NegateRoll)),
	right(axes(j("mShoulderRight", "mShoulderLeft", Body, "mElbowRight"), SwapYawAndPitch, NegatePitch|NegateRoll)),
	right(axes(j("mElbowRight", "mElbowLeft", Body, "mWristRight"), SwapYawAndPitch, NegatePitch|NegateRoll)),
	right(axes(j("mWristRight", "mWristLeft", Body,
		"mHandThumb1Right", "mHandIndex1Right", "mHandMiddle1Right", "mHandRing1Right", "mHandPinky1Right"), SwapYawAndPitch, NegatePitch|NegateRoll)),

	axes(j("mHipLeft", "mHipRight", Body, "mKneeLeft"), SwapYawAndRoll, NegateYaw),
	axes(j("mKneeLeft", "mKneeRight", Body, "mAnkleLeft"), SwapYawAndRoll, NegateYaw),
	axes(j("mAnkleLeft", "mAnkleRight", Body), SwapYawAndRoll, NegateYaw),
	right(axes(j("mHipRight", "mHipLeft", Body, "mKneeRight"), SwapYawAndRoll, NegateYaw)),
	right(axes(j("mKneeRight", "mKneeLeft", Body, "mAnkleRight"), SwapYawAndRoll, NegateYaw)),
	right(axes(j("mAnkleRight", "mAnkleLeft", Body), SwapYawAndRoll, NegateYaw)),

	// face
	j("mFaceForeheadLeft", "mFaceForeheadRight", Face),
	j("mFaceForeheadCenter", "", Face),
	right(j("mFaceForeheadRight", "mFaceForeheadLeft", Face)),
	j("mFaceEyebrowOuterLeft", "mFaceEyebrowOuterRight", Face),
	j("mFaceEyebrowCenterLeft", "mFaceEyebrowCenterRight", Face),
	j("mFaceEyebrowInnerLeft", "mFaceEyebrowInnerRight", Face),
	right(j("mFaceEyebrowOuterRight", "mFaceEyebrowOuterLeft", Face)),
	right(j("mFaceEyebrowCenterRight", "mFaceEyebrowCenterLeft", Face)),
	right(j("mFaceEyebrowInnerRight", "mFaceEyebrowInnerLeft", Face)),

	axes(j("mEyeLeft", "mEyeRight", Face), SwapYawAndRoll, NegateYaw),
	right(axes(j("mEyeRight", "mEyeLeft", Face), SwapYawAndRoll, NegateYaw)),
	j("mFaceEyeLidUpperLeft", "mFaceEyeLidUpperRight", Face),
	j("mFaceEyeLidLowerLeft", "mFaceEyeLidLowerRight", Face),
	right(j("mFaceEyeLidUpperRight", "mFaceEyeLidUpperLeft", Face)),
	right(j("mFaceEyeLidLowerRight", "mFaceEyeLidLowerLeft", Face)),

	j("mFaceCheekUpperLeft", "mFaceCheekUpperRight", Face),
	j("mFaceCheekLowerLeft", "mFaceCheekLowerRight", Face),
	right(j("mFaceCheekUpperRight", "mFaceCheekUpperLeft", Face)),
	right(j("mFaceCheekLowerRight", "mFaceCheekLowerLeft", Face)),
	j("mFaceLipUpperLeft", "mFaceLipUpperRight", Face),
	j("mFaceLipUpperCenter", "", Face),
	right(j("mFaceLipUpperRight", "mFaceLipUpperLeft", Face)),
	j("mFaceLipCornerLeft", "mFaceLipCornerRight", Face),
	right(j("mFaceLipCornerRight", "mFaceLipCornerLeft", Face)),
	j("mFaceTongueBase", "", Face, "mFaceTongueTip"),
	right(j("mFaceTongueTip", "", Face)),
	j("mFaceLipLowerLeft", "mFaceLipLowerRight", Face),
	j("mFaceLipLowerCenter", "", Face),
	right(j("mFaceLipLowerRight", "mFaceLipLowerLeft", Face)),
	j("mFaceJaw", "", Face, "mFaceLipLowerLeft", "mFaceLipLowerCenter", "mFaceLipLowerRight", "mFaceTongueBase"),

	// left hand
	j("mHandThumb1Left", "mHandThumb1Right", Hands, "mHandThumb2Left"),
	j("mHandThumb2Left", "mHandThumb2Right", Hands, "mHandThumb3Left"),
	j("mHandThumb3Left", "mHandThumb3Right", Hands),
	j("mHandIndex1Left", "mHandIndex1Right", Hands, "mHandIndex2Left"),
	j("mHandIndex2Left", "mHandIndex2Right", Hands, "mHandIndex3Left"),
	j("mHandIndex3Left", "mHandIndex3Right", Hands),
	j("mHandMiddle1Left", "mHandMiddle1Right", Hands, "mHandMiddle2Left"),
	j("mHandMiddle2Left", "mHandMiddle2Right", Hands, "mHandMiddle3Left"),
	j("mHandMiddle3Left", "mHandMiddle3Right", Hands),
	j("mHandRing1Left", "mHandRing1Right", Hands, "mHandRing2Left"),
	j("mHandRing2Left", "mHandRing2Right", Hands, "mHandRing3Left"),
	j("mHandRing3Left", "mHandRing3Right", Hands),
	j("mHandPinky1Left", "mHandPinky1Right", Hands, "mHandPinky2Left"),
	j("mHandPinky2Left", "mHandPinky2Right", Hands, "mHandPinky3Left"),
	j("mHandPinky3Left", "mHandPinky3Right", Hands),

	// right hand
	right(j("mHandThumb1Right", "mHandThumb1Left", Hands, "mHandThumb2Right")),
	right(j("mHandThumb2Right", "mHandThumb2Left", Hands, "mHandThumb3Right")),
	right(j("mHandThumb3Right", "mHandThumb3Left", Hands)),
	right(j("mHandIndex1Right", "mHandIndex1Left", Hands, "mHandIndex2Right")),
	right(j("mHandIndex2Right", "mHandIndex2Left", Hands, "mHandIndex3Right")),
	right(j("mHandIndex3Right", "mHandIndex3Left", Hands)),
	right(j("mHandMiddle1Right", "mHandMiddle1Left", Hands, "mHandMiddle2Right")),
	right(j("mHandMiddle2Right", "mHandMiddle2Left", Hands, "mHandMiddle3Right")),
	right(j("mHandMiddle3Right", "mHandMiddle3Left", Hands)),
	right(j("mHandRing1Right", "mHandRing1Left", Hands, "mHandRing2Right")),
	right(j("mHandRing2Right", "mHandRing2Left", Hands, "mHandRing3Right")),
	right(j("mHandRing3Right", "mHandRing3Left", Hands)),
	right(j("mHandPinky1Right", "mHandPinky1Left", Hands, "mHandPinky2Right")),
	right(j("mHandPinky2Right", "mHandPinky2Left", Hands, "mHandPinky3Right")),
	right(j("mHandPinky3Right", "mHandPinky3Left", Hands)),

	// tail and hind limbs
	j("mTail1", "", Misc, "mTail2"),
	j("mTail2", "", Misc, "mTail3"),
	j("mTail3", "", Misc, "mTail4"),
	j("mTail4", "", Misc, "mTail5"),
	j("mTail5", "", Misc, "mTail6"),
	j("mTail6", "", Misc),
	j("mGroin", "", Misc),
	j("mHindLimbsRoot", "", Misc, "mHindLimb1Left", "mHindLimb1Right"),
	j("mHindLimb1Left", "mHindLimb1Right", Misc, "mHindLimb2Left"),
	j("mHindLimb2Left", "mHindLimb2Right", Misc, "mHindLimb3Left"),
	j("mHindLimb3Left", "mHindLimb3Right", Misc, "mHindLimb4Left"),
	j("mHindLimb4Left", "mHindLimb4Right", Misc),
	right(j("mHindLimb1Right", "mHindLimb1Left", Misc, "mHindLimb2Right")),
	right(j("mHindLimb2Right", "mHindLimb2Left", Misc, "mHindLimb3Right")),
	right(j("mHindLimb3Right", "mHindLimb3Left", Misc, "mHindLimb4Right")),
	right(j("mHindLimb4Right", "mHindLimb4Left", Misc)),

	// wings
	j("mWingsRoot", "", Misc, "mWing1Left", "mWing1Right"),
	j("mWing1Left", "mWing1Right", Misc, "mWing2Left"),
	j("mWing2Left", "mWing2Right", Misc, "mWing3Left"),
	j("mWing3Left", "mWing3Right", Misc, "mWing4Left", "mWing4FanLeft"),
	j("mWing4Left", "mWing4Right", Misc),
	j("mWing4FanLeft", "mWing4FanRight", Misc),
	right(j("mWing1Right", "mWing1Left", Misc, "mWing2Right")),
	right(j("mWing2Right", "mWing2Left", Misc, "mWing3Right")),
	right(j("mWing3Right", "mWing3Left", Misc, "mWing4Right", "mWing4FanRight")),
	right(j("mWing4Right", "mWing4Left", Misc)),
	right(j("mWing4FanRight", "mWing4FanLeft", Misc)),

	// collision volumes
	j("LEFT_PEC", "RIGHT_PEC", CollisionVolume),
	right(j("RIGHT_PEC", "LEFT_PEC", CollisionVolume)),
	j("BELLY", "", CollisionVolume),
	j("BUTT", "", CollisionVolume),
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shared catalog built from DefaultJoints.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewCatalog(DefaultJoints)
		if err != nil {
			panic("skeleton: default catalog: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
