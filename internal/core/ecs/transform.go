package ecs

import (
	"fmt"
	"strconv"
	"strings"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) String() string {
	return strings.Join([]string{
		strconv.FormatFloat(v.X, 'g', -1, 64),
		strconv.FormatFloat(v.Y, 'g', -1, 64),
		strconv.FormatFloat(v.Z, 'g', -1, 64),
	}, " ")
}

// ParseVec3 reads the "x y z" form written by Vec3.String.
func ParseVec3(s string) (Vec3, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("vec3 %q: want 3 components, got %d", s, len(parts))
	}
	var out [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("vec3 %q: %w", s, err)
		}
		out[i] = v
	}
	return Vec3{out[0], out[1], out[2]}, nil
}

// Transform is an object's spatial state. Rotation is Euler angles in degrees.
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

func IdentityTransform() Transform {
	return Transform{Scale: Vec3{1, 1, 1}}
}

func (t Transform) export() *Node {
	n := NewNode("Transform")
	n.SetAttr("position", t.Position.String())
	n.SetAttr("rotation", t.Rotation.String())
	n.SetAttr("scale", t.Scale.String())
	return n
}

func transformFromNode(n *Node) (Transform, error) {
	t := IdentityTransform()
	for _, f := range []struct {
		attr string
		dst  *Vec3
	}{
		{"position", &t.Position},
		{"rotation", &t.Rotation},
		{"scale", &t.Scale},
	} {
		raw, ok := n.Attr(f.attr)
		if !ok {
			continue
		}
		v, err := ParseVec3(raw)
		if err != nil {
			return Transform{}, fmt.Errorf("transform %s: %w", f.attr, err)
		}
		*f.dst = v
	}
	return t, nil
}
