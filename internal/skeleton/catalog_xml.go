package skeleton

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// xmlSkeleton matches the catalog XML schema:
//
//	<Skeleton Extends="default">
//	  <Joint Name="mChest" Remap="SWAP_YAW_AND_ROLL" Negate="NEGATE_YAW" />
//	</Skeleton>
//
// With Extends="default" listed joints override the stock table attribute
// by attribute and unknown names are appended.
type xmlSkeleton struct {
	Extends string     `xml:"Extends,attr"`
	Joints  []xmlJoint `xml:"Joint"`
}

type xmlJoint struct {
	Name     string `xml:"Name,attr"`
	Mirror   string `xml:"Mirror,attr"`
	Category string `xml:"Category,attr"`
	Children string `xml:"Children,attr"`
	NoFlip   string `xml:"NoFlip,attr"`
	Remap    string `xml:"Remap,attr"`
	Negate   string `xml:"Negate,attr"`
}

// LoadXML reads a catalog XML file.
func LoadXML(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("skeleton: read %s: %w", path, err)
	}
	defer f.Close()

	c, err := ParseXML(f)
	if err != nil {
		return nil, fmt.Errorf("skeleton: parse %s: %w", path, err)
	}
	return c, nil
}

// ParseXML builds a catalog from XML.
func ParseXML(r io.Reader) (*Catalog, error) {
	var doc xmlSkeleton
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	var defs []JointDef
	switch doc.Extends {
	case "":
	case "default":
		defs = cloneDefs(DefaultJoints)
	default:
		return nil, fmt.Errorf("unknown base catalog %q", doc.Extends)
	}

	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[strings.ToLower(d.Name)] = i
	}

	for _, xj := range doc.Joints {
		if xj.Name == "" {
			continue
		}
		i, ok := index[strings.ToLower(xj.Name)]
		if !ok {
			defs = append(defs, JointDef{Name: xj.Name})
			i = len(defs) - 1
			index[strings.ToLower(xj.Name)] = i
		}
		if err := xj.apply(&defs[i]); err != nil {
			return nil, fmt.Errorf("joint %s: %w", xj.Name, err)
		}
	}

	return NewCatalog(defs)
}

func (xj xmlJoint) apply(d *JointDef) error {
	if xj.Mirror != "" {
		d.Mirror = xj.Mirror
		if xj.Mirror == "-" {
			d.Mirror = ""
		}
	}
	if xj.Category != "" {
		cat, ok := ParseCategory(strings.ToLower(xj.Category))
		if !ok {
			return fmt.Errorf("unknown category %q", xj.Category)
		}
		d.Category = cat
	}
	if xj.Children != "" {
		d.Children = nil
		for _, c := range strings.Split(xj.Children, ",") {
			if c = strings.TrimSpace(c); c != "" {
				d.Children = append(d.Children, c)
			}
		}
	}
	if xj.NoFlip != "" {
		d.NoAutoFlip = strings.EqualFold(xj.NoFlip, "true")
	}
	if xj.Remap != "" {
		r, ok := ParseAxisRemap(strings.ToUpper(xj.Remap))
		if !ok {
			return fmt.Errorf("unknown remap %q", xj.Remap)
		}
		d.Remap = r
	}
	if xj.Negate != "" {
		d.Negate = parseNegation(xj.Negate)
	}
	return nil
}

// parseNegation reads a "|"-separated list such as "NEGATE_YAW|NEGATE_ROLL".
func parseNegation(s string) Negation {
	var n Negation
	for _, part := range strings.Split(strings.ToUpper(s), "|") {
		switch strings.TrimSpace(part) {
		case "NEGATE_YAW":
			n |= NegateYaw
		case "NEGATE_PITCH":
			n |= NegatePitch
		case "NEGATE_ROLL":
			n |= NegateRoll
		case "NEGATE_ALL":
			return NegateAll
		}
	}
	return n
}

func cloneDefs(in []JointDef) []JointDef {
	out := make([]JointDef, len(in))
	for i, d := range in {
		d.Children = append([]string(nil), d.Children...)
		out[i] = d
	}
	return out
}
