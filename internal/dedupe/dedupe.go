// Package dedupe decides which bookmark entries are redundant.
//
// The functions here are pure: they read an index and return node IDs,
// leaving all tree mutation to the mutator package.
package dedupe

import (
	"github.com/nao1215/bmclean/internal/bookmark"
	"github.com/nao1215/bmclean/internal/document"
)

// FindDuplicates returns the entries of idx whose URL occurs two or more
// times, in order of first occurrence.
func FindDuplicates(idx *bookmark.Index) *bookmark.Index {
	return idx.Filter(func(_ string, nodes []document.NodeID) bool {
		return len(nodes) >= 2
	})
}

// ChooseRemovable returns the nodes to discard for one duplicated URL.
//
// The first node in document order is kept and every other distinct node is
// returned in document order, so with two copies the last one is removed.
// Repeats of the kept node (an anchor indexed once per matching attribute)
// and repeated IDs are skipped.
func ChooseRemovable(nodes []document.NodeID) []document.NodeID {
	if len(nodes) < 2 {
		return nil
	}
	keep := nodes[0]
	return distinct(nodes[1:], keep)
}

// RemoveAll returns every distinct node of a URL, for entries that must be
// dropped entirely such as outdated bookmarks.
func RemoveAll(nodes []document.NodeID) []document.NodeID {
	return distinct(nodes, document.NoNode)
}

func distinct(nodes []document.NodeID, skip document.NodeID) []document.NodeID {
	out := make([]document.NodeID, 0, len(nodes))
	seen := make(map[document.NodeID]struct{}, len(nodes))
	for _, id := range nodes {
		if id == skip {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
