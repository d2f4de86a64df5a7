package mathutil

// Tolerances used when deciding whether a pose channel has moved.
const (
	// RotationEpsilon is the smallest rotation (radians) treated as a change.
	RotationEpsilon = 0.001
	// VectorEpsilon is the smallest position or scale delta treated as a change.
	VectorEpsilon = 0.0001
)

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
