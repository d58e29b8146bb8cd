package html

import "strings"

// NodeKind classifies a token of the flat document stream
type NodeKind int

const (
	Other       NodeKind = iota // text, comments, doctype, CDATA, script/style bodies
	OpeningTag                  // <tag ...>
	ClosingTag                  // </tag>
)

func (k NodeKind) String() string {
	switch k {
	case OpeningTag:
		return "opening"
	case ClosingTag:
		return "closing"
	default:
		return "other"
	}
}

// Node is one token of the document. Opening tags are linked into an element tree
// through Parent and Children; everything else only keeps its raw text.
type Node struct {
	Index    int      // position in document order
	Kind     NodeKind // token category
	Raw      string   // original text, rewritten in place for opening tags
	Level    int      // nesting depth when the token was met
	Parent   *Node    // enclosing element, nil at the top level
	Children []*Node  // direct child elements in document order
	Tag      string   // lowercased tag name (opening and closing tags)
	ID       string
	Classes  []string
}

// HasClass checks whether the element carries the given class
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Position returns the 1-based position of the node among its parent's children and the
// number of those children. With sameType only siblings sharing the node's tag are counted.
func (n *Node) Position(sameType bool) (position, count int) {
	if n.Parent == nil {
		return 0, 0
	}
	for _, sibling := range n.Parent.Children {
		if sameType && sibling.Tag != n.Tag {
			continue
		}
		count++
		if sibling == n {
			position = count
		}
	}
	return position, count
}

// PrevSibling returns the element right before this one under the same parent
func (n *Node) PrevSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	var prev *Node
	for _, sibling := range n.Parent.Children {
		if sibling == n {
			return prev
		}
		prev = sibling
	}
	return nil
}

// Tokens is the flat token stream of a document
type Tokens struct {
	Nodes []*Node
}

// Elements returns the opening-tag nodes in document order
func (t *Tokens) Elements() []*Node {
	elements := make([]*Node, 0, len(t.Nodes)/2)
	for _, n := range t.Nodes {
		if n.Kind == OpeningTag {
			elements = append(elements, n)
		}
	}
	return elements
}

// String reassembles the document from the (possibly rewritten) raw token text
func (t *Tokens) String() string {
	size := 0
	for _, n := range t.Nodes {
		size += len(n.Raw)
	}
	var sb strings.Builder
	sb.Grow(size)
	for _, n := range t.Nodes {
		sb.WriteString(n.Raw)
	}
	return sb.String()
}
