// Package bvh exports saved poses as single-frame BVH motion files.
package bvh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"poser-sync/internal/mathutil"
	"poser-sync/internal/poser"
	"poser-sync/internal/skeleton"
)

// DefaultFrameTime is the frame duration written into the MOTION section.
const DefaultFrameTime = 1.0 / 30

// ErrNoRoot is returned when the catalog has no exportable root joint.
var ErrNoRoot = errors.New("bvh: catalog has no exportable root")

// Write renders rec as BVH against cat. Joints come from the catalog
// hierarchy; collision volumes are left out. Rotations too small to survive
// an export round-trip are written as zero.
func Write(w io.Writer, cat *skeleton.Catalog, rec poser.Record) error {
	root, ok := exportRoot(cat)
	if !ok {
		return ErrNoRoot
	}

	byName := make(map[string]poser.JointRecord, len(rec.Joints))
	for _, jr := range rec.Joints {
		byName[strings.ToLower(jr.Name)] = jr
	}

	bw := bufio.NewWriter(w)
	order := writeHierarchy(bw, cat, root)

	fmt.Fprintln(bw, "MOTION")
	fmt.Fprintln(bw, "Frames: 1")
	fmt.Fprintf(bw, "Frame Time: %.6f\n", DefaultFrameTime)

	var values []string
	for i, j := range order {
		jr, found := byName[strings.ToLower(cat.Name(j))]
		if i == 0 {
			pos := mathutil.Vec3{}
			if found {
				pos = jr.Position
			}
			values = append(values, num(pos[0]), num(pos[1]), num(pos[2]))
		}
		rot := mathutil.Vec3{}
		if found && jr.Enabled && Exportable(cat, j, jr.Rotation) {
			rot = jr.Rotation
		}
		values = append(values,
			num(mathutil.Rad2Deg(rot[2])),
			num(mathutil.Rad2Deg(rot[1])),
			num(mathutil.Rad2Deg(rot[0])),
		)
	}
	fmt.Fprintln(bw, strings.Join(values, " "))

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("bvh: write: %w", err)
	}
	return nil
}

// Exportable reports whether a delta rotation of joint j is large enough to
// be kept in an export.
func Exportable(cat *skeleton.Catalog, j skeleton.JointID, euler mathutil.Vec3) bool {
	angle := mathutil.FromEuler(euler).AngleTo(mathutil.QuatIdentity())
	return angle >= poser.MinimumRotation(cat, j)
}

// exportRoot prefers mPelvis, then the first non-collision root.
func exportRoot(cat *skeleton.Catalog) (skeleton.JointID, bool) {
	if j, ok := cat.Lookup("mPelvis"); ok && cat.Joint(j).Parent == skeleton.NoJoint {
		return j, true
	}
	for _, j := range cat.Roots() {
		if !cat.Joint(j).IsCollisionVolume() {
			return j, true
		}
	}
	return skeleton.NoJoint, false
}

// writeHierarchy writes the HIERARCHY section and returns joints in channel order.
func writeHierarchy(w io.Writer, cat *skeleton.Catalog, root skeleton.JointID) []skeleton.JointID {
	fmt.Fprintln(w, "HIERARCHY")
	var order []skeleton.JointID
	var walk func(j skeleton.JointID, depth int)
	walk = func(j skeleton.JointID, depth int) {
		indent := strings.Repeat("\t", depth)
		jd := cat.Joint(j)
		order = append(order, j)
		if depth == 0 {
			fmt.Fprintf(w, "ROOT %s\n", jd.Name)
		} else {
			fmt.Fprintf(w, "%sJOINT %s\n", indent, jd.Name)
		}
		fmt.Fprintf(w, "%s{\n", indent)
		fmt.Fprintf(w, "%s\tOFFSET 0.000000 0.000000 0.000000\n", indent)
		if depth == 0 {
			fmt.Fprintf(w, "%s\tCHANNELS 6 Xposition Yposition Zposition Zrotation Yrotation Xrotation\n", indent)
		} else {
			fmt.Fprintf(w, "%s\tCHANNELS 3 Zrotation Yrotation Xrotation\n", indent)
		}

		children := 0
		for _, c := range jd.Children {
			if cat.Joint(c).IsCollisionVolume() {
				continue
			}
			walk(c, depth+1)
			children++
		}
		if children == 0 {
			fmt.Fprintf(w, "%s\tEnd Site\n%s\t{\n%s\t\tOFFSET 0.000000 0.000000 0.000000\n%s\t}\n", indent, indent, indent, indent)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	}
	walk(root, 0)
	return order
}

func num(v float64) string {
	s := fmt.Sprintf("%.6f", v)
	if s == "-0.000000" {
		return "0.000000"
	}
	return s
}
