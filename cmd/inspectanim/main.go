package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"poser-sync/internal/anim"
	"poser-sync/internal/mathutil"
	"poser-sync/internal/skeleton"
)

func main() {
	at := flag.Float64("t", -1, "Sample every joint at this play-head (seconds)")
	catalogXML := flag.String("catalog", "", "Catalog XML to check joint names against (default: built-in)")
	flag.Parse()

	cat := skeleton.Default()
	if *catalogXML != "" {
		c, err := skeleton.LoadXML(*catalogXML)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
			os.Exit(1)
		}
		cat = c
	}

	for _, arg := range flag.Args() {
		a, err := anim.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		fmt.Printf("\n=== %s (v%d.%d joints=%d duration=%.3fs priority=%d) ===\n",
			arg, a.Version, a.SubVersion, len(a.Joints), a.Duration, a.BasePriority)
		if a.Loop {
			fmt.Printf("  loop: %.3f..%.3f\n", a.LoopIn, a.LoopOut)
		}
		if a.Emote != "" {
			fmt.Printf("  emote: %s\n", a.Emote)
		}
		fmt.Printf("  ease: in=%.3f out=%.3f hand=%d\n", a.EaseIn, a.EaseOut, a.HandPose)

		printJoints(a, cat)

		if *at >= 0 {
			fmt.Printf("--- SAMPLED at t=%.3f ---\n", *at)
			for _, name := range a.JointNames() {
				p, ok := a.Sample(name, *at)
				if !ok {
					continue
				}
				line := fmt.Sprintf("  %-20s prio=%d", name, p.Priority)
				if p.HasRotation {
					e := p.Rotation.Euler()
					line += fmt.Sprintf(" rot=(%.1f, %.1f, %.1f)deg",
						mathutil.Rad2Deg(e[0]), mathutil.Rad2Deg(e[1]), mathutil.Rad2Deg(e[2]))
				}
				if p.HasPosition {
					line += fmt.Sprintf(" pos=(%.3f, %.3f, %.3f)", p.Position[0], p.Position[1], p.Position[2])
				}
				fmt.Println(line)
			}
		}
	}
}

func printJoints(a *anim.Animation, cat *skeleton.Catalog) {
	joints := append([]anim.JointMotion(nil), a.Joints...)
	sort.Slice(joints, func(i, j int) bool { return joints[i].Name < joints[j].Name })

	unknown := 0
	for _, jm := range joints {
		status := ""
		if _, ok := cat.Lookup(jm.Name); !ok {
			unknown++
			status = " UNKNOWN"
			if s := cat.Suggest(jm.Name, 1); len(s) > 0 {
				status += " (did you mean " + s[0] + "?)"
			}
		}

		// Largest rotation away from rest across all keys
		maxAngle := 0.0
		for _, k := range jm.RotKeys {
			if ang := k.Rotation.AngleTo(mathutil.QuatIdentity()); ang > maxAngle {
				maxAngle = ang
			}
		}
		fmt.Printf("  %-20s prio=%d rotKeys=%d posKeys=%d maxRot=%.1fdeg%s\n",
			jm.Name, jm.Priority, len(jm.RotKeys), len(jm.PosKeys), mathutil.Rad2Deg(maxAngle), status)
	}
	if unknown > 0 {
		fmt.Printf("  %d joint(s) not in catalog\n", unknown)
	}
}
