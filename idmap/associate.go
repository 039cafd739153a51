package idmap

import (
	"github.com/google/uuid"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/source"
)

// Associate reconciles a freshly parsed tree with a previous id-map: every
// node whose span exactly matches an old entry gets that entry's identifier.
// Old entries with no matching span are silently dropped; the editor treats
// the affected external node as newly created. New nodes with no matching
// entry stay unidentified until the consumer assigns them an id.
//
// The input tree is untouched; the result shares unchanged subtrees with it.
// This is what lets an open visual-editor node survive a reformat-only edit:
// as long as a node's span is unchanged, its identity is, too.
func Associate(root *compiler.Ast, previous *IdMap) *compiler.Ast {
	if previous == nil || previous.Len() == 0 {
		return root
	}

	// Queue ids per span in canonical order. Identical spans are legal (a
	// module with a single line shares its span with that line); the
	// pre-order walk hands them out outermost first, mirroring the order
	// they were collected in.
	queues := make(map[source.Span][]uuid.UUID)
	for _, e := range previous.Entries() {
		queues[e.Span] = append(queues[e.Span], e.ID)
	}
	take := func(span source.Span) (uuid.UUID, bool) {
		q := queues[span]
		if len(q) == 0 {
			return uuid.UUID{}, false
		}
		queues[span] = q[1:]
		return q[0], true
	}

	var rebuild func(node *compiler.Ast, off int) *compiler.Ast
	rebuild = func(node *compiler.Ast, off int) *compiler.Ast {
		result := node
		if node.ID == nil {
			if id, ok := take(source.NewSpan(off, node.Len())); ok {
				result = node.WithID(id)
			}
		}
		for _, ch := range result.Children() {
			rebuilt := rebuild(ch.Node, off+ch.Off)
			if rebuilt == ch.Node {
				continue
			}
			updated, err := result.Set([]compiler.Crumb{ch.Crumb}, rebuilt)
			if err != nil {
				// The crumb came from Children on this very node, so this
				// cannot happen; keep the original child if it somehow does.
				continue
			}
			result = updated
		}
		return result
	}

	return rebuild(root, 0)
}
