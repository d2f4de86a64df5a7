package skeleton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Catalog is the immutable joint arena shared by every character.
type Catalog struct {
	joints []JointDescriptor
	byName map[string]JointID
	depth  []int
}

// NewCatalog resolves names into graph edges. Mirror references must be
// symmetric, children must exist and every joint has at most one parent.
func NewCatalog(defs []JointDef) (*Catalog, error) {
	c := &Catalog{
		joints: make([]JointDescriptor, len(defs)),
		byName: make(map[string]JointID, len(defs)),
	}

	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("skeleton: joint %d has no name", i)
		}
		key := strings.ToLower(d.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("skeleton: duplicate joint %s", d.Name)
		}
		c.byName[key] = JointID(i)
		c.joints[i] = JointDescriptor{
			ID:         JointID(i),
			Name:       d.Name,
			MirrorName: d.Mirror,
			Mirror:     NoJoint,
			Parent:     NoJoint,
			Category:   d.Category,
			NoAutoFlip: d.NoAutoFlip,
			Remap:      d.Remap,
			Negate:     d.Negate,
		}
	}

	for i, d := range defs {
		jd := &c.joints[i]
		if d.Mirror != "" {
			m, ok := c.Lookup(d.Mirror)
			if !ok {
				return nil, fmt.Errorf("skeleton: %s mirrors unknown joint %s", d.Name, d.Mirror)
			}
			if !strings.EqualFold(defs[m].Mirror, d.Name) {
				return nil, fmt.Errorf("skeleton: mirror %s<->%s is not symmetric", d.Name, d.Mirror)
			}
			jd.Mirror = m
		}
		for _, childName := range d.Children {
			child, ok := c.Lookup(childName)
			if !ok {
				return nil, fmt.Errorf("skeleton: %s has unknown child %s", d.Name, childName)
			}
			if c.joints[child].Parent != NoJoint {
				return nil, fmt.Errorf("skeleton: %s has two parents", childName)
			}
			if child == jd.ID {
				return nil, fmt.Errorf("skeleton: %s is its own child", d.Name)
			}
			c.joints[child].Parent = jd.ID
			jd.Children = append(jd.Children, child)
		}
	}

	c.depth = make([]int, len(c.joints))
	for i := range c.depth {
		c.depth[i] = -1
	}
	for i := range c.joints {
		if _, err := c.measure(JointID(i), 0); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// measure fills depth[id] with the number of levels to the deepest descendant.
func (c *Catalog) measure(id JointID, guard int) (int, error) {
	if guard > len(c.joints) {
		return 0, fmt.Errorf("skeleton: cycle through %s", c.joints[id].Name)
	}
	if c.depth[id] >= 0 {
		return c.depth[id], nil
	}
	deepest := 0
	for _, child := range c.joints[id].Children {
		d, err := c.measure(child, guard+1)
		if err != nil {
			return 0, err
		}
		if d+1 > deepest {
			deepest = d + 1
		}
	}
	c.depth[id] = deepest
	return deepest, nil
}

// Len returns the number of joints.
func (c *Catalog) Len() int { return len(c.joints) }

// Joint returns the descriptor for id, or nil when id is out of range.
func (c *Catalog) Joint(id JointID) *JointDescriptor {
	if id < 0 || int(id) >= len(c.joints) {
		return nil
	}
	return &c.joints[id]
}

// Joints returns every descriptor in catalog order. Callers must not modify the slice.
func (c *Catalog) Joints() []JointDescriptor { return c.joints }

// Lookup finds a joint by name, ignoring case.
func (c *Catalog) Lookup(name string) (JointID, bool) {
	id, ok := c.byName[strings.ToLower(name)]
	return id, ok
}

// MustLookup is Lookup for names known to be present.
func (c *Catalog) MustLookup(name string) JointID {
	id, ok := c.Lookup(name)
	if !ok {
		panic("skeleton: unknown joint " + name)
	}
	return id
}

// Name returns the joint's name, or "" for an invalid id.
func (c *Catalog) Name(id JointID) string {
	if jd := c.Joint(id); jd != nil {
		return jd.Name
	}
	return ""
}

// Depth is the distance in hierarchy levels from id to its deepest descendant.
func (c *Catalog) Depth(id JointID) int {
	if id < 0 || int(id) >= len(c.depth) {
		return 0
	}
	return c.depth[id]
}

// Roots returns joints without a parent.
func (c *Catalog) Roots() []JointID {
	var out []JointID
	for _, jd := range c.joints {
		if jd.Parent == NoJoint {
			out = append(out, jd.ID)
		}
	}
	return out
}

// Descendants lists every joint below id, depth first.
func (c *Catalog) Descendants(id JointID) []JointID {
	jd := c.Joint(id)
	if jd == nil {
		return nil
	}
	var out []JointID
	for _, child := range jd.Children {
		out = append(out, child)
		out = append(out, c.Descendants(child)...)
	}
	return out
}

// CollisionVolumes returns every collision-volume joint.
func (c *Catalog) CollisionVolumes() []JointID {
	var out []JointID
	for _, jd := range c.joints {
		if jd.IsCollisionVolume() {
			out = append(out, jd.ID)
		}
	}
	return out
}

// Suggest returns up to n joint names close to name, nearest first.
func (c *Catalog) Suggest(name string, n int) []string {
	type cand struct {
		name string
		dist int
	}
	needle := strings.ToLower(name)
	limit := len(needle)/3 + 2

	var cands []cand
	for _, jd := range c.joints {
		d := levenshtein.ComputeDistance(needle, strings.ToLower(jd.Name))
		if d <= limit {
			cands = append(cands, cand{jd.Name, d})
		}
	}
	sort.SliceStable(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })

	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, len(cands))
	for i, cd := range cands {
		out[i] = cd.name
	}
	return out
}
