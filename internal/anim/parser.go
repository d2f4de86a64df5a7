package anim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"poser-sync/internal/mathutil"
)

// ErrBadHeader is returned for data that is not a version 1.0 keyframe animation.
var ErrBadHeader = errors.New("anim: bad header")

const (
	maxJoints   = 216
	maxKeys     = 1 << 16
	rotRange    = 1.0
	posRange    = 5.0
	u16Max      = 65535.0
	fileVersion = 1
)

// Parse reads a keyframe .anim file.
func Parse(path string) (*Animation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("anim: read %s: %w", path, err)
	}
	a, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("anim: parse %s: %w", path, err)
	}
	return a, nil
}

// Decode parses keyframe animation bytes (little-endian).
func Decode(data []byte) (*Animation, error) {
	r := &reader{data: data}

	a := &Animation{}
	a.Version = r.readU16()
	a.SubVersion = r.readU16()
	if r.short || a.Version != fileVersion || a.SubVersion != 0 {
		return nil, ErrBadHeader
	}
	a.BasePriority = int(r.readI32())
	a.Duration = float64(r.readF32())
	a.Emote = r.readCString()
	a.LoopIn = float64(r.readF32())
	a.LoopOut = float64(r.readF32())
	a.Loop = r.readI32() != 0
	a.EaseIn = float64(r.readF32())
	a.EaseOut = float64(r.readF32())
	a.HandPose = r.readU32()

	numJoints := int(r.readU32())
	if r.short {
		return nil, fmt.Errorf("truncated header: %w", ErrBadHeader)
	}
	if numJoints > maxJoints {
		return nil, fmt.Errorf("invalid joint count %d", numJoints)
	}
	if a.Duration < 0 {
		return nil, fmt.Errorf("invalid duration %f", a.Duration)
	}

	a.Joints = make([]JointMotion, 0, numJoints)
	for i := 0; i < numJoints; i++ {
		jm := JointMotion{Name: r.readCString(), Priority: int(r.readI32())}

		n := int(r.readI32())
		if n < 0 || n > maxKeys {
			return nil, fmt.Errorf("joint %s: invalid rotation key count %d", jm.Name, n)
		}
		jm.RotKeys = make([]RotKey, 0, n)
		for k := 0; k < n; k++ {
			t := dequantize(r.readU16(), 0, a.Duration)
			x := dequantize(r.readU16(), -rotRange, rotRange)
			y := dequantize(r.readU16(), -rotRange, rotRange)
			z := dequantize(r.readU16(), -rotRange, rotRange)
			w := math.Sqrt(math.Max(0, 1-x*x-y*y-z*z))
			jm.RotKeys = append(jm.RotKeys, RotKey{Time: t, Rotation: mathutil.Quat{x, y, z, w}.Normalize()})
		}

		n = int(r.readI32())
		if n < 0 || n > maxKeys {
			return nil, fmt.Errorf("joint %s: invalid position key count %d", jm.Name, n)
		}
		jm.PosKeys = make([]PosKey, 0, n)
		for k := 0; k < n; k++ {
			t := dequantize(r.readU16(), 0, a.Duration)
			x := dequantize(r.readU16(), -posRange, posRange)
			y := dequantize(r.readU16(), -posRange, posRange)
			z := dequantize(r.readU16(), -posRange, posRange)
			jm.PosKeys = append(jm.PosKeys, PosKey{Time: t, Position: mathutil.Vec3{x, y, z}})
		}

		if r.short {
			return nil, fmt.Errorf("joint %d truncated", i)
		}
		a.Joints = append(a.Joints, jm)
	}

	// Constraint block is not used for sampling; a missing count is tolerated.
	_ = r.readI32()

	return a, nil
}

// Encode serializes an animation in the keyframe format. Values are quantized.
func Encode(a *Animation) []byte {
	w := &writer{}
	w.u16(fileVersion)
	w.u16(0)
	w.i32(int32(a.BasePriority))
	w.f32(a.Duration)
	w.cstring(a.Emote)
	w.f32(a.LoopIn)
	w.f32(a.LoopOut)
	if a.Loop {
		w.i32(1)
	} else {
		w.i32(0)
	}
	w.f32(a.EaseIn)
	w.f32(a.EaseOut)
	w.u32(a.HandPose)
	w.u32(uint32(len(a.Joints)))
	for _, jm := range a.Joints {
		w.cstring(jm.Name)
		w.i32(int32(jm.Priority))
		w.i32(int32(len(jm.RotKeys)))
		for _, k := range jm.RotKeys {
			q := k.Rotation.Normalize()
			if q[3] < 0 {
				q = mathutil.Quat{-q[0], -q[1], -q[2], -q[3]}
			}
			w.u16(quantize(k.Time, 0, a.Duration))
			w.u16(quantize(q[0], -rotRange, rotRange))
			w.u16(quantize(q[1], -rotRange, rotRange))
			w.u16(quantize(q[2], -rotRange, rotRange))
		}
		w.i32(int32(len(jm.PosKeys)))
		for _, k := range jm.PosKeys {
			w.u16(quantize(k.Time, 0, a.Duration))
			w.u16(quantize(k.Position[0], -posRange, posRange))
			w.u16(quantize(k.Position[1], -posRange, posRange))
			w.u16(quantize(k.Position[2], -posRange, posRange))
		}
	}
	w.i32(0)
	return w.buf
}

func dequantize(v uint16, lo, hi float64) float64 {
	return float64(v)*(hi-lo)/u16Max + lo
}

func quantize(v, lo, hi float64) uint16 {
	if hi <= lo {
		return 0
	}
	v = mathutil.Clamp(v, lo, hi)
	return uint16(math.Round((v - lo) * u16Max / (hi - lo)))
}

type reader struct {
	data  []byte
	off   int
	short bool
}

func (r *reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) readI32() int32 {
	return int32(r.readU32())
}

func (r *reader) readF32() float32 {
	return math.Float32frombits(r.readU32())
}

// readCString reads up to and including a null terminator.
func (r *reader) readCString() string {
	for i := r.off; i < len(r.data); i++ {
		if r.data[i] == 0 {
			s := string(r.data[r.off:i])
			r.off = i + 1
			return s
		}
	}
	r.off = len(r.data)
	r.short = true
	return ""
}

type writer struct{ buf []byte }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) f32(v float64) {
	w.u32(math.Float32bits(float32(v)))
}
func (w *writer) cstring(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}
