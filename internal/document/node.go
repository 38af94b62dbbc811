package document

import "golang.org/x/net/html"

// NodeID identifies a node inside its Document.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

// Kind is the type of a node.
type Kind uint8

const (
	// KindError is an unknown node type.
	KindError Kind = iota
	// KindDocument is the root of the tree.
	KindDocument
	// KindElement is a markup element such as <a> or <dl>.
	KindElement
	// KindText is character data.
	KindText
	// KindComment is an HTML comment.
	KindComment
	// KindDoctype is the <!DOCTYPE> declaration.
	KindDoctype
	// KindRaw is raw markup passed through untouched.
	KindRaw
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindDoctype:
		return "doctype"
	case KindRaw:
		return "raw"
	default:
		return "error"
	}
}

func kindOf(t html.NodeType) Kind {
	switch t {
	case html.DocumentNode:
		return KindDocument
	case html.ElementNode:
		return KindElement
	case html.TextNode:
		return KindText
	case html.CommentNode:
		return KindComment
	case html.DoctypeNode:
		return KindDoctype
	case html.RawNode:
		return KindRaw
	default:
		return KindError
	}
}

func (k Kind) htmlType() html.NodeType {
	switch k {
	case KindDocument:
		return html.DocumentNode
	case KindElement:
		return html.ElementNode
	case KindText:
		return html.TextNode
	case KindComment:
		return html.CommentNode
	case KindDoctype:
		return html.DoctypeNode
	case KindRaw:
		return html.RawNode
	default:
		return html.ErrorNode
	}
}

// Attr is one attribute of an element, in document order.
type Attr struct {
	Namespace string
	Key       string
	Val       string
}

// Node is one element of the arena.
//
// Data holds the tag name for elements, the text for text and comment nodes,
// and the name for doctypes. The tree links are unexported and only change
// through Document.Detach.
type Node struct {
	Kind      Kind
	Data      string
	Namespace string
	Attrs     []Attr

	parent   NodeID
	children []NodeID
	removed  bool
}

func copyAttrs(src []html.Attribute) []Attr {
	if len(src) == 0 {
		return nil
	}
	attrs := make([]Attr, len(src))
	for i, a := range src {
		attrs[i] = Attr{Namespace: a.Namespace, Key: a.Key, Val: a.Val}
	}
	return attrs
}

func toHTMLAttrs(src []Attr) []html.Attribute {
	if len(src) == 0 {
		return nil
	}
	attrs := make([]html.Attribute, len(src))
	for i, a := range src {
		attrs[i] = html.Attribute{Namespace: a.Namespace, Key: a.Key, Val: a.Val}
	}
	return attrs
}
