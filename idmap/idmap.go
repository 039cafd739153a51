// Package idmap maintains the span-to-identifier table that keeps external
// node references stable across reparses. The table is persisted next to the
// source code (see the srcfile package) and reconciled against each freshly
// parsed tree by exact span matching.
package idmap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/source"
)

// Entry associates one byte span with a persistent node identifier.
type Entry struct {
	Span source.Span
	ID   uuid.UUID
}

// IdMap is an ordered sequence of span/identifier pairs, sorted by span.
// Spans are disjoint or nested; partial overlaps never occur because every
// span comes from a node of one syntax tree.
type IdMap struct {
	entries []Entry
}

// New builds an id-map from entries, sorting them into canonical order:
// ascending start offset, then descending size so that an outer node sorts
// before the nodes nested inside it.
func New(entries []Entry) *IdMap {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Index != sorted[j].Span.Index {
			return sorted[i].Span.Index < sorted[j].Span.Index
		}
		return sorted[i].Span.Size > sorted[j].Span.Size
	})
	return &IdMap{entries: sorted}
}

// ForAst collects the identifiers present in a tree into an id-map.
func ForAst(root *compiler.Ast) *IdMap {
	var entries []Entry
	compiler.WalkSpans(root, func(node *compiler.Ast, span source.Span, _ []compiler.Crumb) bool {
		if node.ID != nil {
			entries = append(entries, Entry{Span: span, ID: *node.ID})
		}
		return true
	})
	return New(entries)
}

// Entries returns the entries in canonical order. The slice is shared;
// callers must not modify it.
func (m *IdMap) Entries() []Entry { return m.entries }

// Len returns the number of entries.
func (m *IdMap) Len() int { return len(m.entries) }

// Lookup finds the identifier for a span: an exact match if one exists,
// otherwise the smallest entry strictly containing the span (the
// best-nested match). The second result reports whether anything was found.
func (m *IdMap) Lookup(span source.Span) (uuid.UUID, bool) {
	var best *Entry
	for i := range m.entries {
		e := &m.entries[i]
		if e.Span == span {
			return e.ID, true
		}
		if e.Span.Contains(span) {
			if best == nil || best.Span.Size > e.Span.Size {
				best = e
			}
		}
	}
	if best != nil {
		return best.ID, true
	}
	return uuid.UUID{}, false
}

// ---------------------------------------------------------------------------
// JSON codec
//
// The persisted form is a single-line JSON array of pairs:
//
//	[[{"index":0,"size":1},"f64a...-..."], ...]
//
// kept separate from the source text so identifiers survive
// whitespace-preserving reparses.
// ---------------------------------------------------------------------------

type jsonSpan struct {
	Index int `json:"index"`
	Size  int `json:"size"`
}

// MarshalJSON encodes the id-map in its persisted single-line form.
func (m *IdMap) MarshalJSON() ([]byte, error) {
	pairs := make([][2]json.RawMessage, 0, len(m.entries))
	for _, e := range m.entries {
		span, err := json.Marshal(jsonSpan{Index: e.Span.Index, Size: e.Span.Size})
		if err != nil {
			return nil, err
		}
		id, err := json.Marshal(e.ID.String())
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]json.RawMessage{span, id})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes the persisted form, restoring canonical order.
func (m *IdMap) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("idmap: %w", err)
	}
	entries := make([]Entry, 0, len(pairs))
	for _, pair := range pairs {
		var span jsonSpan
		if err := json.Unmarshal(pair[0], &span); err != nil {
			return fmt.Errorf("idmap: span: %w", err)
		}
		var idStr string
		if err := json.Unmarshal(pair[1], &idStr); err != nil {
			return fmt.Errorf("idmap: id: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("idmap: id %q: %w", idStr, err)
		}
		entries = append(entries, Entry{
			Span: source.NewSpan(span.Index, span.Size),
			ID:   id,
		})
	}
	*m = *New(entries)
	return nil
}
