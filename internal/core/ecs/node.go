package ecs

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// TypeAttr is the attribute carrying a component's type tag.
const TypeAttr = "type"

// Node is one element of the persisted scene format. Attribute order is kept
// as read so that an unchanged node serializes back to the same bytes.
// Character data is dropped.
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []*Node    `xml:",any"`
}

// NewNode returns an empty element with the given name.
func NewNode(name string) *Node {
	return &Node{XMLName: xml.Name{Local: name}}
}

// ParseNode decodes a single element and its subtree.
func ParseNode(data []byte) (*Node, error) {
	var n Node
	if err := xml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse node: %w", err)
	}
	return &n, nil
}

// Marshal encodes the node and its subtree.
func (n *Node) Marshal() ([]byte, error) {
	return xml.Marshal(n)
}

// MarshalIndent encodes the node for files meant to be edited by hand.
func (n *Node) MarshalIndent() ([]byte, error) {
	return xml.MarshalIndent(n, "", "  ")
}

func (n *Node) Name() string { return n.XMLName.Local }

// Attr returns the attribute value and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or def when absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr replaces an existing attribute in place or appends a new one.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *Node) SetFloat(name string, v float64) {
	n.SetAttr(name, strconv.FormatFloat(v, 'g', -1, 64))
}

func (n *Node) SetBool(name string, v bool) {
	n.SetAttr(name, strconv.FormatBool(v))
}

// Float reads a required float attribute.
func (n *Node) Float(name string) (float64, error) {
	raw, ok := n.Attr(name)
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return v, nil
}

// FloatOr reads an optional float attribute. A present but unparsable value is
// still an error.
func (n *Node) FloatOr(name string, def float64) (float64, error) {
	if _, ok := n.Attr(name); !ok {
		return def, nil
	}
	return n.Float(name)
}

// BoolOr reads an optional bool attribute.
func (n *Node) BoolOr(name string, def bool) (bool, error) {
	raw, ok := n.Attr(name)
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("attribute %q: %w", name, err)
	}
	return v, nil
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements with the given name in document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
}
