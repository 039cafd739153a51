// Package source provides the immutable text buffer and byte-span types
// shared by the lexer, AST, id-map and span-tree layers.
package source

import (
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Span: half-open byte interval [Index, Index+Size)
// ---------------------------------------------------------------------------

// Span is a contiguous byte range within source text.
type Span struct {
	Index int // byte offset of the first byte
	Size  int // number of bytes
}

// NewSpan creates a span from a start offset and size.
func NewSpan(index, size int) Span {
	return Span{Index: index, Size: size}
}

// SpanBetween creates the span covering [start, end).
func SpanBetween(start, end int) Span {
	return Span{Index: start, Size: end - start}
}

// End returns the offset one past the last byte.
func (s Span) End() int { return s.Index + s.Size }

// IsEmpty reports whether the span covers zero bytes.
func (s Span) IsEmpty() bool { return s.Size == 0 }

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return s.Index <= other.Index && other.End() <= s.End()
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Index < other.End() && other.Index < s.End()
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Index, s.End())
}

// ---------------------------------------------------------------------------
// Position: line/column coordinates
// ---------------------------------------------------------------------------

// Position is a human-oriented source location. Line and Column are 1-based;
// Column counts bytes from the line start, not display cells.
type Position struct {
	Offset int
	Line   int
	Column int
}

// ---------------------------------------------------------------------------
// Buffer: immutable-per-revision text with line indexing
// ---------------------------------------------------------------------------

// Buffer wraps one revision of source text. It is immutable: edits produce a
// new Buffer via Splice. The line index is built once on construction.
type Buffer struct {
	text       string
	lineStarts []int // byte offset of each line start; lineStarts[0] == 0
}

// NewBuffer builds a buffer and its line index for the given text.
func NewBuffer(text string) *Buffer {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Buffer{text: text, lineStarts: starts}
}

// Text returns the full buffer contents.
func (b *Buffer) Text() string { return b.text }

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int { return len(b.text) }

// LineCount returns the number of lines (a trailing newline starts a new,
// possibly empty, final line).
func (b *Buffer) LineCount() int { return len(b.lineStarts) }

// Slice returns the text covered by span. It panics via the runtime if span
// is out of bounds; callers hold spans derived from this buffer's revision.
func (b *Buffer) Slice(span Span) string {
	return b.text[span.Index:span.End()]
}

// Line returns the text of the 1-based line number, without its newline.
func (b *Buffer) Line(n int) (string, error) {
	if n < 1 || n > len(b.lineStarts) {
		return "", fmt.Errorf("source: line %d out of range 1..%d", n, len(b.lineStarts))
	}
	start := b.lineStarts[n-1]
	end := len(b.text)
	if n < len(b.lineStarts) {
		end = b.lineStarts[n] - 1 // drop the newline
	}
	return b.text[start:end], nil
}

// PositionAt converts a byte offset into a Position. Offsets past the end
// clamp to the end of the buffer.
func (b *Buffer) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(b.text) {
		offset = len(b.text)
	}
	// Binary search for the last line start <= offset.
	line := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	return Position{
		Offset: offset,
		Line:   line,
		Column: offset - b.lineStarts[line-1] + 1,
	}
}

// OffsetAt converts a 1-based line/column pair into a byte offset.
func (b *Buffer) OffsetAt(line, column int) (int, error) {
	if line < 1 || line > len(b.lineStarts) {
		return 0, fmt.Errorf("source: line %d out of range 1..%d", line, len(b.lineStarts))
	}
	start := b.lineStarts[line-1]
	end := len(b.text)
	if line < len(b.lineStarts) {
		end = b.lineStarts[line] - 1
	}
	if column < 1 || start+column-1 > end {
		return 0, fmt.Errorf("source: column %d out of range on line %d", column, line)
	}
	return start + column - 1, nil
}

// Splice returns a new buffer with span replaced by text. This is the single
// primitive all structural edits reduce to: replace the exact byte range,
// then reparse from scratch.
func (b *Buffer) Splice(span Span, text string) (*Buffer, error) {
	if span.Index < 0 || span.End() > len(b.text) {
		return nil, fmt.Errorf("source: splice span %s out of range 0..%d", span, len(b.text))
	}
	var sb strings.Builder
	sb.Grow(len(b.text) - span.Size + len(text))
	sb.WriteString(b.text[:span.Index])
	sb.WriteString(text)
	sb.WriteString(b.text[span.End():])
	return NewBuffer(sb.String()), nil
}
