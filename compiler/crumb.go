package compiler

import (
	"fmt"

	"github.com/marblelang/marble/source"
)

// ---------------------------------------------------------------------------
// Crumbs: structural navigation steps
//
// A crumb names one child position within a parent node; a path of crumbs
// uniquely locates a subtree from any ancestor. Crumbs are recomputed
// whenever a tree view is rebuilt and are never persisted.
// ---------------------------------------------------------------------------

// CrumbTag identifies which child slot of a shape a crumb selects.
type CrumbTag int

const (
	CrumbPrefixFunc CrumbTag = iota
	CrumbPrefixArg
	CrumbInfixLeft
	CrumbInfixOpr
	CrumbInfixRight
	CrumbSectionArg // operand of SectionLeft/SectionRight
	CrumbSectionOpr // operator of any section shape
	CrumbChainHead
	CrumbChainOpr    // indexed
	CrumbChainArg    // indexed
	CrumbSegmentKw   // indexed
	CrumbSegmentBody // indexed
	CrumbLine        // indexed; Block and Module lines
)

var crumbTagNames = map[CrumbTag]string{
	CrumbPrefixFunc:  "prefix-func",
	CrumbPrefixArg:   "prefix-arg",
	CrumbInfixLeft:   "infix-left",
	CrumbInfixOpr:    "infix-opr",
	CrumbInfixRight:  "infix-right",
	CrumbSectionArg:  "section-arg",
	CrumbSectionOpr:  "section-opr",
	CrumbChainHead:   "chain-head",
	CrumbChainOpr:    "chain-opr",
	CrumbChainArg:    "chain-arg",
	CrumbSegmentKw:   "segment-kw",
	CrumbSegmentBody: "segment-body",
	CrumbLine:        "line",
}

// Crumb is a single-step navigation instruction. Index is meaningful only
// for the indexed tags.
type Crumb struct {
	Tag   CrumbTag
	Index int
}

func (c Crumb) String() string {
	name, ok := crumbTagNames[c.Tag]
	if !ok {
		name = fmt.Sprintf("crumb(%d)", int(c.Tag))
	}
	switch c.Tag {
	case CrumbChainOpr, CrumbChainArg, CrumbSegmentKw, CrumbSegmentBody, CrumbLine:
		return fmt.Sprintf("%s[%d]", name, c.Index)
	}
	return name
}

// Child is one enumerated child of a node: its crumb, its byte offset within
// the parent, and the node itself.
type Child struct {
	Crumb Crumb
	Off   int
	Node  *Ast
}

// Children enumerates a node's children in source order with their offsets.
// Leaf shapes return nil.
func (a *Ast) Children() []Child {
	switch s := a.Shape.(type) {
	case *Var, *Opr, *Number, *Text, *Invalid:
		return nil

	case *Prefix:
		return []Child{
			{Crumb{CrumbPrefixFunc, 0}, 0, s.Func},
			{Crumb{CrumbPrefixArg, 0}, s.Func.Len() + s.Off, s.Arg},
		}

	case *Infix:
		off := 0
		children := make([]Child, 0, 3)
		children = append(children, Child{Crumb{CrumbInfixLeft, 0}, off, s.Larg})
		off += s.Larg.Len() + s.Loff
		children = append(children, Child{Crumb{CrumbInfixOpr, 0}, off, s.Opr})
		off += s.Opr.Len() + s.Roff
		children = append(children, Child{Crumb{CrumbInfixRight, 0}, off, s.Rarg})
		return children

	case *SectionLeft:
		return []Child{
			{Crumb{CrumbSectionArg, 0}, 0, s.Arg},
			{Crumb{CrumbSectionOpr, 0}, s.Arg.Len() + s.Off, s.Opr},
		}

	case *SectionRight:
		return []Child{
			{Crumb{CrumbSectionOpr, 0}, 0, s.Opr},
			{Crumb{CrumbSectionArg, 0}, s.Opr.Len() + s.Off, s.Arg},
		}

	case *SectionSides:
		return []Child{{Crumb{CrumbSectionOpr, 0}, 0, s.Opr}}

	case *Chain:
		children := []Child{{Crumb{CrumbChainHead, 0}, 0, s.Head}}
		off := s.Head.Len()
		for i := range s.Links {
			l := &s.Links[i]
			off += l.Loff
			children = append(children, Child{Crumb{CrumbChainOpr, i}, off, l.Opr})
			off += l.Opr.Len() + l.Roff
			children = append(children, Child{Crumb{CrumbChainArg, i}, off, l.Arg})
			off += l.Arg.Len()
		}
		return children

	case *Match:
		var children []Child
		off := 0
		for i := range s.Segments {
			seg := &s.Segments[i]
			off += seg.Off
			children = append(children, Child{Crumb{CrumbSegmentKw, i}, off, seg.Kw})
			off += seg.Kw.Len()
			if seg.Body != nil {
				off += seg.BodyOff
				children = append(children, Child{Crumb{CrumbSegmentBody, i}, off, seg.Body})
				off += seg.Body.Len()
			}
		}
		return children

	case *Block:
		var children []Child
		off := 0
		for i := range s.Lines {
			off++ // the line's leading newline
			off += s.Lines[i].Off
			if s.Lines[i].Elem != nil {
				children = append(children, Child{Crumb{CrumbLine, i}, off, s.Lines[i].Elem})
				off += s.Lines[i].Elem.Len()
			}
			off += s.Lines[i].Trail
		}
		return children

	case *Module:
		var children []Child
		off := 0
		for i := range s.Lines {
			if i > 0 {
				off++
			}
			off += s.Lines[i].Off
			if s.Lines[i].Elem != nil {
				children = append(children, Child{Crumb{CrumbLine, i}, off, s.Lines[i].Elem})
				off += s.Lines[i].Elem.Len()
			}
			off += s.Lines[i].Trail
		}
		return children

	default:
		return nil
	}
}

// Child resolves a single crumb against this node.
func (a *Ast) Child(c Crumb) (*Ast, error) {
	for _, ch := range a.Children() {
		if ch.Crumb == c {
			return ch.Node, nil
		}
	}
	return nil, fmt.Errorf("compiler: node %T has no child %s", a.Shape, c)
}

// ChildOffset returns the byte offset of the child selected by c.
func (a *Ast) ChildOffset(c Crumb) (int, error) {
	for _, ch := range a.Children() {
		if ch.Crumb == c {
			return ch.Off, nil
		}
	}
	return 0, fmt.Errorf("compiler: node %T has no child %s", a.Shape, c)
}

// Get resolves a crumb path from this node.
func (a *Ast) Get(crumbs []Crumb) (*Ast, error) {
	node := a
	for _, c := range crumbs {
		child, err := node.Child(c)
		if err != nil {
			return nil, err
		}
		node = child
	}
	return node, nil
}

// Set returns a new tree with the subtree at the crumb path replaced. The
// original tree is untouched; the spine from the root down to the edit is
// rebuilt bottom-up.
func (a *Ast) Set(crumbs []Crumb, sub *Ast) (*Ast, error) {
	if len(crumbs) == 0 {
		return sub, nil
	}
	child, err := a.Child(crumbs[0])
	if err != nil {
		return nil, err
	}
	newChild, err := child.Set(crumbs[1:], sub)
	if err != nil {
		return nil, err
	}
	return a.withChild(crumbs[0], newChild)
}

// withChild rebuilds this node with one child slot replaced.
func (a *Ast) withChild(c Crumb, child *Ast) (*Ast, error) {
	var shape Shape
	switch s := a.Shape.(type) {
	case *Prefix:
		cp := *s
		switch c.Tag {
		case CrumbPrefixFunc:
			cp.Func = child
		case CrumbPrefixArg:
			cp.Arg = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *Infix:
		cp := *s
		switch c.Tag {
		case CrumbInfixLeft:
			cp.Larg = child
		case CrumbInfixOpr:
			cp.Opr = child
		case CrumbInfixRight:
			cp.Rarg = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *SectionLeft:
		cp := *s
		switch c.Tag {
		case CrumbSectionArg:
			cp.Arg = child
		case CrumbSectionOpr:
			cp.Opr = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *SectionRight:
		cp := *s
		switch c.Tag {
		case CrumbSectionArg:
			cp.Arg = child
		case CrumbSectionOpr:
			cp.Opr = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *SectionSides:
		cp := *s
		if c.Tag != CrumbSectionOpr {
			return nil, badCrumb(a, c)
		}
		cp.Opr = child
		shape = &cp

	case *Chain:
		cp := *s
		cp.Links = append([]ChainLink(nil), s.Links...)
		switch {
		case c.Tag == CrumbChainHead:
			cp.Head = child
		case c.Tag == CrumbChainOpr && c.Index < len(cp.Links):
			cp.Links[c.Index].Opr = child
		case c.Tag == CrumbChainArg && c.Index < len(cp.Links):
			cp.Links[c.Index].Arg = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *Match:
		cp := *s
		cp.Segments = append([]MatchSegment(nil), s.Segments...)
		switch {
		case c.Tag == CrumbSegmentKw && c.Index < len(cp.Segments):
			cp.Segments[c.Index].Kw = child
		case c.Tag == CrumbSegmentBody && c.Index < len(cp.Segments) && cp.Segments[c.Index].Body != nil:
			cp.Segments[c.Index].Body = child
		default:
			return nil, badCrumb(a, c)
		}
		shape = &cp

	case *Block:
		cp := *s
		cp.Lines = append([]BlockLine(nil), s.Lines...)
		if c.Tag != CrumbLine || c.Index >= len(cp.Lines) || cp.Lines[c.Index].Elem == nil {
			return nil, badCrumb(a, c)
		}
		cp.Lines[c.Index].Elem = child
		shape = &cp

	case *Module:
		cp := *s
		cp.Lines = append([]BlockLine(nil), s.Lines...)
		if c.Tag != CrumbLine || c.Index >= len(cp.Lines) || cp.Lines[c.Index].Elem == nil {
			return nil, badCrumb(a, c)
		}
		cp.Lines[c.Index].Elem = child
		shape = &cp

	default:
		return nil, badCrumb(a, c)
	}

	return &Ast{ID: a.ID, Shape: shape}, nil
}

func badCrumb(a *Ast, c Crumb) error {
	return fmt.Errorf("compiler: node %T has no child %s", a.Shape, c)
}

// WalkSpans visits every node of the tree in pre-order, deriving absolute
// spans from the root. The crumbs slice passed to fn is reused between
// calls; callers that keep it must copy it. Returning false from fn prunes
// the subtree.
func WalkSpans(root *Ast, fn func(node *Ast, span source.Span, crumbs []Crumb) bool) {
	var crumbs []Crumb
	var walk func(node *Ast, off int)
	walk = func(node *Ast, off int) {
		if !fn(node, source.NewSpan(off, node.Len()), crumbs) {
			return
		}
		for _, ch := range node.Children() {
			crumbs = append(crumbs, ch.Crumb)
			walk(ch.Node, off+ch.Off)
			crumbs = crumbs[:len(crumbs)-1]
		}
	}
	walk(root, 0)
}
