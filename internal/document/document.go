package document

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns a parsed bookmark tree.
// It is not safe for concurrent mutation; traversal must not run while
// another goroutine detaches nodes.
type Document struct {
	nodes []Node
	root  NodeID
}

// Parse reads a bookmark document from r.
// Input that is not valid UTF-8 or that the HTML parser rejects fails with
// an error matching ErrParse.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Err: errInvalidUTF8}
	}

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	d := &Document{nodes: make([]Node, 0, bytes.Count(data, []byte("<"))+1)}
	d.root = d.add(root, NoNode)
	return d, nil
}

// ParseFile reads and parses the bookmark document at path.
// A missing or unreadable file is returned as a plain I/O error, not ErrParse.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// add copies n and its subtree into the arena and returns the new ID.
func (d *Document) add(n *html.Node, parent NodeID) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, Node{
		Kind:      kindOf(n.Type),
		Data:      n.Data,
		Namespace: n.Namespace,
		Attrs:     copyAttrs(n.Attr),
		parent:    parent,
	})

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := d.add(c, id)
		d.nodes[id].children = append(d.nodes[id].children, child)
	}
	return id
}

// Root returns the ID of the document node.
func (d *Document) Root() NodeID {
	return d.root
}

// Kind returns the kind of a node, or KindError for an unknown ID.
func (d *Document) Kind(id NodeID) Kind {
	if !d.valid(id) {
		return KindError
	}
	return d.nodes[id].Kind
}

// Tag returns the element name of id, or "" if id is not an element.
func (d *Document) Tag(id NodeID) string {
	if !d.valid(id) || d.nodes[id].Kind != KindElement {
		return ""
	}
	return d.nodes[id].Data
}

// Attrs returns the attributes of id in document order.
// The returned slice is shared with the arena and must not be modified.
func (d *Document) Attrs(id NodeID) []Attr {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].Attrs
}

// Attr returns the value of the first attribute named key.
func (d *Document) Attr(id NodeID, key string) (string, bool) {
	for _, a := range d.Attrs(id) {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Parent returns the parent of id. The root and detached nodes have none.
func (d *Document) Parent(id NodeID) (NodeID, bool) {
	if !d.valid(id) || d.nodes[id].parent == NoNode {
		return NoNode, false
	}
	return d.nodes[id].parent, true
}

// Attached reports whether id is still reachable from the root.
func (d *Document) Attached(id NodeID) bool {
	for d.valid(id) {
		if id == d.root {
			return true
		}
		id = d.nodes[id].parent
	}
	return false
}

// Text returns the whitespace-collapsed text content below id.
func (d *Document) Text(id NodeID) string {
	var sb strings.Builder
	for n := range d.descendants(id) {
		if d.nodes[n].Kind == KindText {
			sb.WriteString(d.nodes[n].Data)
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// All returns a fresh depth-first traversal of the live tree: parents
// before children, siblings left to right, every attached node exactly once.
func (d *Document) All() iter.Seq[NodeID] {
	return d.descendants(d.root)
}

func (d *Document) descendants(start NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if !d.valid(start) {
			return
		}
		stack := []NodeID{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if !yield(id) {
				return
			}

			children := d.nodes[id].children
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// Len returns the number of attached nodes, including the root.
func (d *Document) Len() int {
	n := 0
	for range d.All() {
		n++
	}
	return n
}

// Detach removes id from its parent's child list and clears its parent
// reference. The node is matched by identity, never by content.
// It returns false without doing anything when id is the root, was already
// detached, or is unknown.
func (d *Document) Detach(id NodeID) bool {
	if !d.valid(id) {
		return false
	}
	n := &d.nodes[id]
	if n.removed || n.parent == NoNode {
		return false
	}

	p := &d.nodes[n.parent]
	if i := slices.Index(p.children, id); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = NoNode
	n.removed = true
	return true
}

// Validate checks that every attached node lists children whose parent is
// that node, and that no node is reachable twice.
func (d *Document) Validate() error {
	if !d.valid(d.root) {
		return fmt.Errorf("%w: missing root", ErrInconsistentTree)
	}
	if d.nodes[d.root].parent != NoNode {
		return fmt.Errorf("%w: root has a parent", ErrInconsistentTree)
	}

	seen := make(map[NodeID]bool, len(d.nodes))
	for id := range d.All() {
		if seen[id] {
			return fmt.Errorf("%w: node %d reachable twice", ErrInconsistentTree, id)
		}
		seen[id] = true

		if d.nodes[id].removed {
			return fmt.Errorf("%w: removed node %d still attached", ErrInconsistentTree, id)
		}
		for _, c := range d.nodes[id].children {
			if !d.valid(c) {
				return fmt.Errorf("%w: node %d has unknown child %d", ErrInconsistentTree, id, c)
			}
			if d.nodes[c].parent != id {
				return fmt.Errorf("%w: child %d of node %d points to parent %d",
					ErrInconsistentTree, c, id, d.nodes[c].parent)
			}
		}
	}
	return nil
}

// Render writes the current tree to w in HTML form.
// Output is deterministic for a given tree. Failures of w are returned as
// an error matching ErrSerialize.
func (d *Document) Render(w io.Writer) error {
	if !d.valid(d.root) {
		return &SerializeError{Err: ErrInconsistentTree}
	}
	if err := html.Render(w, d.toHTML(d.root)); err != nil {
		return &SerializeError{Err: err}
	}
	return nil
}

// Bytes renders the current tree into memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the current tree and writes it to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return WriteBytes(path, data)
}

// WriteBytes writes rendered document bytes to path, creating parent
// directories as needed. Failures match ErrSerialize.
func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return &SerializeError{Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return &SerializeError{Err: err}
	}
	return nil
}

// toHTML rebuilds an html.Node subtree from the live arena nodes.
func (d *Document) toHTML(id NodeID) *html.Node {
	n := d.nodes[id]
	h := &html.Node{
		Type:      n.Kind.htmlType(),
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      toHTMLAttrs(n.Attrs),
	}
	if n.Kind == KindElement {
		h.DataAtom = atom.Lookup([]byte(n.Data))
	}
	for _, c := range n.children {
		h.AppendChild(d.toHTML(c))
	}
	return h
}

func (d *Document) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(d.nodes)
}
