package djvu

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// Node is one element of a parsed metadata document.
type Node struct {
	name     string
	attrs    []xml.Attr
	children []*Node
	text     strings.Builder
}

// TagName returns the element's local name.
func (n *Node) TagName() string {
	if n == nil {
		return ""
	}
	return n.name
}

// Children returns the immediate child elements in document order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the character data directly inside the element.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text.String()
}

// Child returns the first immediate child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children() {
		if c.name == tag {
			return c
		}
	}
	return nil
}

// ChildAt returns the i-th (0-based) immediate child with the given tag,
// or nil when there are not that many.
func (n *Node) ChildAt(tag string, i int) *Node {
	if i < 0 {
		return nil
	}
	for _, c := range n.Children() {
		if c.name != tag {
			continue
		}
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

// Find returns the node itself and every descendant with the given tag,
// in document order.
func (n *Node) Find(tag string) []*Node {
	var out []*Node
	n.walk(func(c *Node) {
		if c.name == tag {
			out = append(out, c)
		}
	})
	return out
}

// Count returns len(n.Find(tag)) without allocating the slice.
func (n *Node) Count(tag string) int {
	count := 0
	n.walk(func(c *Node) {
		if c.name == tag {
			count++
		}
	})
	return count
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// ParseXML decodes an XML document into a node tree and returns its root.
// Input size is not limited; scanned books produce multi-megabyte metadata.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		root  *Node
		stack []*Node
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapXMLError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, &XMLError{Line: lineOf(dec), Message: "extra content at the end of the document"}
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, &XMLError{Message: "document is empty"}
	}
	return root, nil
}

func lineOf(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}
