package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"poser-sync/internal/mathutil"
)

// JointFlags travel in the low bits of a joint token's identity field.
type JointFlags uint8

const (
	FlagBaseZero    JointFlags = 1
	FlagWorldLocked JointFlags = 2
	FlagMirrored    JointFlags = 4

	flagSpan = 40
	// ZeroMarker ends a token whose rotation, position and scale are all zero.
	ZeroMarker = '-'
)

// MaxJointNumber is the largest joint number a token can carry.
const MaxJointNumber = codecSpan/flagSpan - 1

// JointToken is one joint's delta: rotation as Euler radians, position and scale offsets.
type JointToken struct {
	Number   int
	Flags    JointFlags
	Rotation mathutil.Vec3
	Position mathutil.Vec3
	Scale    mathutil.Vec3
}

// Encode writes the token in 3, 8, 14 or 20 characters. Trailing zero
// fields are omitted.
func (t JointToken) Encode() string {
	var b strings.Builder
	b.WriteString(EncodeInt(t.Number*flagSpan + int(t.Flags&7)))

	rotZero := quantizesToZero(t.Rotation)
	posZero := quantizesToZero(t.Position)
	scaleZero := quantizesToZero(t.Scale)
	if rotZero && posZero && scaleZero {
		b.WriteByte(ZeroMarker)
		return b.String()
	}

	b.WriteString(EncodeVec(t.Rotation))
	if posZero && scaleZero {
		return b.String()
	}
	b.WriteString(EncodeVec(t.Position))
	if scaleZero {
		return b.String()
	}
	b.WriteString(EncodeVec(t.Scale))
	return b.String()
}

// DecodeJointToken parses a token produced by Encode.
func DecodeJointToken(s string) (JointToken, bool) {
	var t JointToken
	switch len(s) {
	case 3:
		if s[2] != ZeroMarker {
			return t, false
		}
	case 8, 14, 20:
	default:
		return t, false
	}

	id, ok := DecodeInt(s)
	if !ok {
		return t, false
	}
	t.Number = id / flagSpan
	t.Flags = JointFlags(id % flagSpan)
	if t.Flags > 7 {
		return t, false
	}
	if len(s) == 3 {
		return t, true
	}

	fields := []*mathutil.Vec3{&t.Rotation, &t.Position, &t.Scale}
	for i := 0; 2+i*6 < len(s); i++ {
		v, ok := DecodeVec(s[2+i*6:])
		if !ok {
			return t, false
		}
		*fields[i] = v
	}
	return t, true
}

// PoseTuple describes one background animation snapshot on the wire.
type PoseTuple struct {
	AssetID      uuid.UUID
	PlayHead     float64
	Joints       []int
	CaptureOrder int
}

// tokens returns the four wire tokens of the tuple.
func (p PoseTuple) tokens() []string {
	return []string{
		p.AssetID.String(),
		strconv.FormatFloat(p.PlayHead, 'f', 3, 64),
		EncodeJointList(p.Joints),
		strconv.Itoa(p.CaptureOrder),
	}
}

func parsePoseTuple(tok []string) (PoseTuple, error) {
	var p PoseTuple
	if len(tok) < 4 {
		return p, fmt.Errorf("short tuple")
	}
	id, err := uuid.Parse(tok[0])
	if err != nil {
		return p, fmt.Errorf("asset id: %w", err)
	}
	head, err := strconv.ParseFloat(tok[1], 64)
	if err != nil {
		return p, fmt.Errorf("play-head: %w", err)
	}
	joints, ok := DecodeJointList(tok[2])
	if !ok {
		return p, fmt.Errorf("joint list %q", tok[2])
	}
	order, err := strconv.Atoi(tok[3])
	if err != nil {
		return p, fmt.Errorf("capture order: %w", err)
	}
	return PoseTuple{AssetID: id, PlayHead: head, Joints: joints, CaptureOrder: order}, nil
}
