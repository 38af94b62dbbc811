package bookmark

import (
	"iter"
	"slices"
	"strings"

	"github.com/nao1215/bmclean/internal/document"
)

const (
	// anchorTag is the element that carries a bookmark.
	anchorTag = "a"

	// linkAttr is the attribute holding the bookmark target.
	linkAttr = "href"

	// absoluteMarker is the coarse "looks like a web link" filter applied
	// to link targets. Relative and non-web schemes do not contain it.
	absoluteMarker = "http"
)

// Index maps each bookmarked URL to the nodes that reference it.
// URLs are kept in order of first occurrence and each node list is in
// document order, so iteration is deterministic.
//
// An Index is a snapshot: it becomes stale as soon as nodes are detached
// from the document it was built from.
type Index struct {
	urls  []string
	nodes map[string][]document.NodeID
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{nodes: make(map[string][]document.NodeID)}
}

// Build traverses doc once and indexes every bookmark entry.
//
// Every qualifying attribute of an anchor is indexed, so an anchor carrying
// two matching href attributes appears twice in its URL's list.
func Build(doc *document.Document) *Index {
	idx := NewIndex()
	for id := range doc.All() {
		if doc.Tag(id) != anchorTag {
			continue
		}
		for _, attr := range doc.Attrs(id) {
			if IsBookmarkAttr(attr) {
				idx.add(attr.Val, id)
			}
		}
	}
	return idx
}

// IsBookmarkAttr reports whether attr marks its element as a bookmark.
func IsBookmarkAttr(attr document.Attr) bool {
	return attr.Key == linkAttr && strings.Contains(attr.Val, absoluteMarker)
}

func (i *Index) add(url string, id document.NodeID) {
	if _, ok := i.nodes[url]; !ok {
		i.urls = append(i.urls, url)
	}
	i.nodes[url] = append(i.nodes[url], id)
}

// Len returns the number of unique URLs.
func (i *Index) Len() int {
	return len(i.urls)
}

// Entries returns the total number of indexed occurrences.
func (i *Index) Entries() int {
	n := 0
	for _, ids := range i.nodes {
		n += len(ids)
	}
	return n
}

// URLs returns the unique URLs in order of first occurrence.
func (i *Index) URLs() []string {
	return slices.Clone(i.urls)
}

// Nodes returns the nodes referencing url, in document order.
func (i *Index) Nodes(url string) []document.NodeID {
	return slices.Clone(i.nodes[url])
}

// All iterates over URLs in order of first occurrence with their nodes.
func (i *Index) All() iter.Seq2[string, []document.NodeID] {
	return func(yield func(string, []document.NodeID) bool) {
		for _, url := range i.urls {
			if !yield(url, slices.Clone(i.nodes[url])) {
				return
			}
		}
	}
}

// Filter returns a new Index holding only the entries for which keep
// returns true. Order is preserved.
func (i *Index) Filter(keep func(url string, nodes []document.NodeID) bool) *Index {
	out := NewIndex()
	for url, ids := range i.All() {
		if keep(url, ids) {
			out.urls = append(out.urls, url)
			out.nodes[url] = ids
		}
	}
	return out
}
