package compiler

import (
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// AST: abstract syntax tree for Marble
//
// Nodes record their own byte LENGTH, never an absolute offset; offsets are
// derived by walking from the root, so rebuilding one subtree never forces
// renumbering its siblings. Inter-child whitespace is stored explicitly in
// the shapes, which makes the tree round-trip-safe: Repr() reproduces the
// parsed source byte-for-byte.
//
// The tree is immutable. Edits rebuild the affected spine bottom-up (see
// Ast.Set in crumb.go); nothing ever mutates a node in place.
// ---------------------------------------------------------------------------

// Ast is one node of the syntax tree: a shape plus an optional persistent
// identifier. New nodes carry no identifier; ids are attached by id-map
// association or assigned by the embedding editor.
type Ast struct {
	ID    *uuid.UUID
	Shape Shape
}

// Len returns the node's length in bytes.
func (a *Ast) Len() int { return a.Shape.Len() }

// Repr returns the exact source text of the subtree.
func (a *Ast) Repr() string {
	var sb strings.Builder
	a.writeRepr(&sb)
	return sb.String()
}

func (a *Ast) writeRepr(sb *strings.Builder) {
	a.Shape.writeRepr(sb)
}

// WithID returns a copy of the node carrying the given identifier.
func (a *Ast) WithID(id uuid.UUID) *Ast {
	return &Ast{ID: &id, Shape: a.Shape}
}

// Shape is the closed set of node variants. Every traversal switches
// exhaustively over these types; Invalid is the catch-all, so no traversal
// needs a failure path for an unknown shape.
type Shape interface {
	Len() int
	writeRepr(sb *strings.Builder)
	shape() // marker method
}

// ---------------------------------------------------------------------------
// Leaf shapes
// ---------------------------------------------------------------------------

// Var is an identifier reference.
type Var struct {
	Name string
}

func (s *Var) Len() int                      { return len(s.Name) }
func (s *Var) writeRepr(sb *strings.Builder) { sb.WriteString(s.Name) }
func (s *Var) shape()                        {}

// Opr is an operator occurrence. Operators are nodes of their own so that a
// span tree can point at them (the Operation port of an infix expression).
type Opr struct {
	Name string
}

func (s *Opr) Len() int                      { return len(s.Name) }
func (s *Opr) writeRepr(sb *strings.Builder) { sb.WriteString(s.Name) }
func (s *Opr) shape()                        {}

// Number is a numeric literal, kept raw.
type Number struct {
	Raw string
}

func (s *Number) Len() int                      { return len(s.Raw) }
func (s *Number) writeRepr(sb *strings.Builder) { sb.WriteString(s.Raw) }
func (s *Number) shape()                        {}

// Text is a text literal, kept raw including quotes and escapes.
type Text struct {
	Raw string
}

func (s *Text) Len() int                      { return len(s.Raw) }
func (s *Text) writeRepr(sb *strings.Builder) { sb.WriteString(s.Raw) }
func (s *Text) shape()                        {}

// Invalid wraps source text that could not be recognized: a stray character,
// an unterminated literal, an unmatched macro segment. Reason is a
// diagnostic tag, not part of the source text. Invalid nodes keep malformed
// input representable so the editor can always render something.
type Invalid struct {
	Raw    string
	Reason string
}

func (s *Invalid) Len() int                      { return len(s.Raw) }
func (s *Invalid) writeRepr(sb *strings.Builder) { sb.WriteString(s.Raw) }
func (s *Invalid) shape()                        {}

// ---------------------------------------------------------------------------
// Compound shapes. Off fields hold inter-child whitespace widths.
// ---------------------------------------------------------------------------

// Prefix is function application: `f a`. Off is the whitespace between.
type Prefix struct {
	Func *Ast
	Off  int
	Arg  *Ast
}

func (s *Prefix) Len() int {
	return s.Func.Len() + s.Off + s.Arg.Len()
}

func (s *Prefix) writeRepr(sb *strings.Builder) {
	s.Func.writeRepr(sb)
	writeSpaces(sb, s.Off)
	s.Arg.writeRepr(sb)
}
func (s *Prefix) shape() {}

// Infix is binary operator application: `a + b`.
type Infix struct {
	Larg *Ast
	Loff int
	Opr  *Ast
	Roff int
	Rarg *Ast
}

func (s *Infix) Len() int {
	return s.Larg.Len() + s.Loff + s.Opr.Len() + s.Roff + s.Rarg.Len()
}

func (s *Infix) writeRepr(sb *strings.Builder) {
	s.Larg.writeRepr(sb)
	writeSpaces(sb, s.Loff)
	s.Opr.writeRepr(sb)
	writeSpaces(sb, s.Roff)
	s.Rarg.writeRepr(sb)
}
func (s *Infix) shape() {}

// SectionLeft is a partially applied infix with only the left operand: `a +`.
type SectionLeft struct {
	Arg *Ast
	Off int
	Opr *Ast
}

func (s *SectionLeft) Len() int {
	return s.Arg.Len() + s.Off + s.Opr.Len()
}

func (s *SectionLeft) writeRepr(sb *strings.Builder) {
	s.Arg.writeRepr(sb)
	writeSpaces(sb, s.Off)
	s.Opr.writeRepr(sb)
}
func (s *SectionLeft) shape() {}

// SectionRight is a partially applied infix with only the right operand: `.foo`.
type SectionRight struct {
	Opr *Ast
	Off int
	Arg *Ast
}

func (s *SectionRight) Len() int {
	return s.Opr.Len() + s.Off + s.Arg.Len()
}

func (s *SectionRight) writeRepr(sb *strings.Builder) {
	s.Opr.writeRepr(sb)
	writeSpaces(sb, s.Off)
	s.Arg.writeRepr(sb)
}
func (s *SectionRight) shape() {}

// SectionSides is a bare operator with both operands missing: `+`.
type SectionSides struct {
	Opr *Ast
}

func (s *SectionSides) Len() int                      { return s.Opr.Len() }
func (s *SectionSides) writeRepr(sb *strings.Builder) { s.Opr.writeRepr(sb) }
func (s *SectionSides) shape()                        {}

// ChainLink is one `.name`-style link of a Chain.
type ChainLink struct {
	Loff int // whitespace before the operator
	Opr  *Ast
	Roff int // whitespace before the argument
	Arg  *Ast
}

func (l *ChainLink) len() int {
	return l.Loff + l.Opr.Len() + l.Roff + l.Arg.Len()
}

// Chain is a flattened run of same-operator chain-category links, e.g.
// `a.b.c`. Keeping the links in one flat node lets the span tree address
// "the 3rd call of this chain" by index instead of by tree depth.
type Chain struct {
	Head  *Ast
	Links []ChainLink
}

func (s *Chain) Len() int {
	n := s.Head.Len()
	for i := range s.Links {
		n += s.Links[i].len()
	}
	return n
}

func (s *Chain) writeRepr(sb *strings.Builder) {
	s.Head.writeRepr(sb)
	for i := range s.Links {
		l := &s.Links[i]
		writeSpaces(sb, l.Loff)
		l.Opr.writeRepr(sb)
		writeSpaces(sb, l.Roff)
		l.Arg.writeRepr(sb)
	}
}
func (s *Chain) shape() {}

// MatchSegment is one keyword segment of a macro match. Off is the
// whitespace before the keyword (zero for the first segment; the match's own
// leading whitespace belongs to the parent). Body is nil for body-less
// segments such as a closing parenthesis.
type MatchSegment struct {
	Off     int
	Kw      *Ast
	BodyOff int
	Body    *Ast
}

func (seg *MatchSegment) len() int {
	n := seg.Off + seg.Kw.Len()
	if seg.Body != nil {
		n += seg.BodyOff + seg.Body.Len()
	}
	return n
}

// Match is a matched macro call: `(a + b)`, `if c then x else y`, `import m`.
type Match struct {
	Macro    string // macro name, e.g. "parens", "if-then-else"
	Segments []MatchSegment
}

func (s *Match) Len() int {
	n := 0
	for i := range s.Segments {
		n += s.Segments[i].len()
	}
	return n
}

func (s *Match) writeRepr(sb *strings.Builder) {
	for i := range s.Segments {
		seg := &s.Segments[i]
		writeSpaces(sb, seg.Off)
		seg.Kw.writeRepr(sb)
		if seg.Body != nil {
			writeSpaces(sb, seg.BodyOff)
			seg.Body.writeRepr(sb)
		}
	}
}
func (s *Match) shape() {}

// BlockLine is one line of a Block or Module. Off is the leading whitespace
// width (the content indent, or whatever whitespace an otherwise empty line
// carries). Elem is nil for empty lines. Trail preserves whitespace between
// the element and the end of the line.
type BlockLine struct {
	Off   int
	Elem  *Ast
	Trail int
}

func (l *BlockLine) len() int {
	n := l.Off + l.Trail
	if l.Elem != nil {
		n += l.Elem.Len()
	}
	return n
}

// Block is an indented sequence of lines. A block's text starts with the
// newline that ends the introducing line, so every line contributes
// "\n" + spaces(Off) + element.
type Block struct {
	Indent int
	Lines  []BlockLine
}

func (s *Block) Len() int {
	n := 0
	for i := range s.Lines {
		n += 1 + s.Lines[i].len()
	}
	return n
}

func (s *Block) writeRepr(sb *strings.Builder) {
	for i := range s.Lines {
		sb.WriteByte('\n')
		writeSpaces(sb, s.Lines[i].Off)
		if s.Lines[i].Elem != nil {
			s.Lines[i].Elem.writeRepr(sb)
		}
		writeSpaces(sb, s.Lines[i].Trail)
	}
}
func (s *Block) shape() {}

// Module is the root shape of a parsed source file: top-level lines joined
// by newlines.
type Module struct {
	Lines []BlockLine
}

func (s *Module) Len() int {
	n := 0
	for i := range s.Lines {
		if i > 0 {
			n++
		}
		n += s.Lines[i].len()
	}
	return n
}

func (s *Module) writeRepr(sb *strings.Builder) {
	for i := range s.Lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		writeSpaces(sb, s.Lines[i].Off)
		if s.Lines[i].Elem != nil {
			s.Lines[i].Elem.writeRepr(sb)
		}
		writeSpaces(sb, s.Lines[i].Trail)
	}
}
func (s *Module) shape() {}

// ---------------------------------------------------------------------------
// Construction helpers
// ---------------------------------------------------------------------------

// NewVar builds an identifier node.
func NewVar(name string) *Ast { return &Ast{Shape: &Var{Name: name}} }

// NewOpr builds an operator node.
func NewOpr(name string) *Ast { return &Ast{Shape: &Opr{Name: name}} }

// NewNumber builds a numeric literal node.
func NewNumber(raw string) *Ast { return &Ast{Shape: &Number{Raw: raw}} }

// NewText builds a text literal node from its raw source form.
func NewText(raw string) *Ast { return &Ast{Shape: &Text{Raw: raw}} }

// NewInvalid builds an invalid node wrapping unrecognized source text.
func NewInvalid(raw, reason string) *Ast {
	return &Ast{Shape: &Invalid{Raw: raw, Reason: reason}}
}

// NewPrefix builds `f a` with off spaces between.
func NewPrefix(fn *Ast, off int, arg *Ast) *Ast {
	return &Ast{Shape: &Prefix{Func: fn, Off: off, Arg: arg}}
}

// NewInfix builds `a op b` with the given whitespace widths.
func NewInfix(larg *Ast, loff int, opr *Ast, roff int, rarg *Ast) *Ast {
	return &Ast{Shape: &Infix{Larg: larg, Loff: loff, Opr: opr, Roff: roff, Rarg: rarg}}
}

func writeSpaces(sb *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		sb.WriteByte(' ')
	}
}
