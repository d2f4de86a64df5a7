package wire

import (
	"math"
	"strings"

	"poser-sync/internal/mathutil"
)

// Scalar codec: two printable characters in '.'..'~' per value.
const (
	codecBase  = '.'
	codecRadix = 80
	codecSpan  = codecRadix * codecRadix // 6400
	codecBias  = 3200
	codecScale = 1000.0

	// FloatMin and FloatMax bound the encodable range.
	FloatMin = -3.2
	FloatMax = 3.199
)

// EncodeInt writes n in [0, 6399] as two characters. Out-of-range values clamp.
func EncodeInt(n int) string {
	if n < 0 {
		n = 0
	}
	if n >= codecSpan {
		n = codecSpan - 1
	}
	return string([]byte{byte(n/codecRadix + codecBase), byte(n%codecRadix + codecBase)})
}

// DecodeInt reads the first two characters of s.
func DecodeInt(s string) (int, bool) {
	if len(s) < 2 {
		return 0, false
	}
	hi, lo := int(s[0])-codecBase, int(s[1])-codecBase
	if hi < 0 || hi >= codecRadix || lo < 0 || lo >= codecRadix {
		return 0, false
	}
	return hi*codecRadix + lo, true
}

// EncodeFloat quantizes v to 0.001 within [FloatMin, FloatMax].
func EncodeFloat(v float64) string {
	if math.IsNaN(v) {
		v = 0
	}
	v = mathutil.Clamp(v, FloatMin, FloatMax)
	return EncodeInt(int(math.Round(v*codecScale)) + codecBias)
}

// DecodeFloat reverses EncodeFloat.
func DecodeFloat(s string) (float64, bool) {
	n, ok := DecodeInt(s)
	if !ok {
		return 0, false
	}
	return float64(n-codecBias) / codecScale, true
}

// EncodeVec writes three floats in six characters.
func EncodeVec(v mathutil.Vec3) string {
	return EncodeFloat(v[0]) + EncodeFloat(v[1]) + EncodeFloat(v[2])
}

// DecodeVec reads six characters.
func DecodeVec(s string) (mathutil.Vec3, bool) {
	if len(s) < 6 {
		return mathutil.Vec3{}, false
	}
	var v mathutil.Vec3
	for i := 0; i < 3; i++ {
		f, ok := DecodeFloat(s[i*2 : i*2+2])
		if !ok {
			return mathutil.Vec3{}, false
		}
		v[i] = f
	}
	return v, true
}

// quantizesToZero reports whether every component encodes as zero.
func quantizesToZero(v mathutil.Vec3) bool {
	for _, c := range v {
		if math.Round(c*codecScale) != 0 {
			return false
		}
	}
	return true
}

// Joint-number list codec: carries '~' (189), '}' (126), '|' (63), then a
// terminal character holding the remainder.
const (
	carry189 = '~'
	carry126 = '}'
	carry63  = '|'
	listBase = '='

	// MaxListValue is the largest encodable joint number.
	MaxListValue = 189 + 62
)

// EncodeJointList encodes joint numbers in order. Values outside
// [0, MaxListValue] are skipped.
func EncodeJointList(nums []int) string {
	var b strings.Builder
	for _, n := range nums {
		if n < 0 || n > MaxListValue {
			continue
		}
		for n >= 189 {
			b.WriteByte(carry189)
			n -= 189
		}
		for n >= 126 {
			b.WriteByte(carry126)
			n -= 126
		}
		for n >= 63 {
			b.WriteByte(carry63)
			n -= 63
		}
		b.WriteByte(byte(n + listBase))
	}
	return b.String()
}

// DecodeJointList reverses EncodeJointList. A dangling carry or a character
// outside the alphabet fails the whole list.
func DecodeJointList(s string) ([]int, bool) {
	var out []int
	acc := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == carry189:
			acc += 189
		case c == carry126:
			acc += 126
		case c == carry63:
			acc += 63
		case c >= listBase && c < listBase+63:
			out = append(out, acc+int(c-listBase))
			acc = 0
		default:
			return nil, false
		}
	}
	if acc != 0 {
		return nil, false
	}
	return out, true
}
