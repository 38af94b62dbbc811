// Package document holds a parsed bookmark document as an arena of nodes.
//
// Every node lives in a single slice owned by Document. Parent and child
// links are NodeID indices into that slice, so detaching a node is a splice
// of one child list plus clearing one back-reference. Nodes are never added
// after parsing; the only mutation is Detach.
//
// Parsing and rendering are delegated to golang.org/x/net/html, the HTML5
// parser that also handles the loosely nested markup browsers emit for
// Netscape bookmark exports (<DL><p><DT><A ...>).
package document
