// Package spantree derives, from an AST expression, the tree of editable
// ports the visual editor works with: existing arguments, operator and call
// names, and the empty insertion points where new arguments may be added.
//
// A span tree is a disposable view: it is recomputed from the AST (plus the
// call-signature context) after every edit and is never persisted.
package spantree

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/source"
)

// Kind classifies the role of a span-tree node.
type Kind int

const (
	// KindRoot is the node covering the whole expression.
	KindRoot Kind = iota
	// KindChained is the head of a flattened call chain.
	KindChained
	// KindOperation is a function or operator name port.
	KindOperation
	// KindThis is the self/target argument of a method-style call.
	KindThis
	// KindArgument is an explicit argument port.
	KindArgument
	// KindInsertionPoint is an empty slot where an argument may be inserted.
	KindInsertionPoint
)

var kindNames = map[Kind]string{
	KindRoot:           "Root",
	KindChained:        "Chained",
	KindOperation:      "Operation",
	KindThis:           "This",
	KindArgument:       "Argument",
	KindInsertionPoint: "InsertionPoint",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// InsertType distinguishes the insertion-point variants.
type InsertType int

const (
	// InsertBeforeArgument is a slot before the argument with index ArgIndex
	// (used for inserting a call in the middle of a chain by index).
	InsertBeforeArgument InsertType = iota
	// InsertAppend is a slot after the last supplied argument.
	InsertAppend
	// InsertExpectedOperand is the missing operand of an operator section.
	// Unlike the other variants it only supports Set: there is nothing to
	// insert before, and nothing to erase.
	InsertExpectedOperand
)

func (t InsertType) String() string {
	switch t {
	case InsertBeforeArgument:
		return "BeforeArgument"
	case InsertAppend:
		return "Append"
	case InsertExpectedOperand:
		return "ExpectedOperand"
	}
	return fmt.Sprintf("InsertType(%d)", int(t))
}

// Node is one editable span within an expression. Offset is relative to the
// parent node; Crumbs locate the corresponding AST node from the expression
// root (empty for insertion points, which have no AST counterpart).
type Node struct {
	Kind       Kind
	InsertType InsertType // meaningful only for KindInsertionPoint
	ArgIndex   int        // meaningful only for InsertBeforeArgument
	Offset     int        // byte offset relative to the parent node
	Size       int        // byte length; zero for insertion points
	Crumbs     []compiler.Crumb
	AstID      *uuid.UUID
	Removable  bool
	IsThis     bool
	Name       string // parameter name from the call signature, if known
	Children   []*Node
}

// Span returns the node's span relative to its parent.
func (n *Node) Span() source.Span {
	return source.NewSpan(n.Offset, n.Size)
}

// Tree is a built span tree together with the expression it was derived
// from and the absolute placement of every node within that expression.
type Tree struct {
	Root *Node
	Ast  *compiler.Ast

	spans   map[*Node]source.Span
	parents map[*Node]*Node
}

// SpanOf returns a node's absolute span within the tree's expression. The
// second result is false for nodes that do not belong to this tree (e.g. a
// node kept from a span tree built before a concurrent edit).
func (t *Tree) SpanOf(node *Node) (source.Span, bool) {
	span, ok := t.spans[node]
	return span, ok
}

// Parent returns a node's parent, or nil for the root.
func (t *Tree) Parent(node *Node) *Node {
	return t.parents[node]
}

// Walk visits every node in pre-order with its absolute span.
func (t *Tree) Walk(fn func(node *Node, span source.Span) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !fn(n, t.spans[n]) {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// index fills the absolute span and parent tables after building.
func (t *Tree) index() {
	t.spans = make(map[*Node]source.Span)
	t.parents = make(map[*Node]*Node)
	var walk func(n *Node, base int)
	walk = func(n *Node, base int) {
		abs := base + n.Offset
		t.spans[n] = source.NewSpan(abs, n.Size)
		for _, c := range n.Children {
			t.parents[c] = n
			walk(c, abs)
		}
	}
	walk(t.Root, 0)
}
