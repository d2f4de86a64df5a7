package mathutil

// ChangeOfBasis re-expresses rotation r, given in the frame described by
// basis, in the frame basis is relative to: basis × r × basis⁻¹.
func ChangeOfBasis(r, basis Quat) Quat {
	return basis.Mul(r).Mul(basis.Inverse()).Normalize()
}

// FrameToParent converts a rotation expressed in an arbitrary frame (world,
// character root, camera) into the parent space of a joint whose parent
// world rotation is parentWorld.
func FrameToParent(r, parentWorld, frame Quat) Quat {
	return ChangeOfBasis(r, parentWorld.Inverse().Mul(frame))
}

// ParentToFrame is the inverse of FrameToParent.
func ParentToFrame(r, parentWorld, frame Quat) Quat {
	return ChangeOfBasis(r, frame.Inverse().Mul(parentWorld))
}
