package spantree

import (
	"errors"
	"fmt"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/source"
)

// Action is a mutation a span-tree node may support.
type Action int

const (
	// ActionSet replaces the node's text (or fills an insertion point).
	ActionSet Action = iota
	// ActionErase removes the argument together with its separator.
	ActionErase
	// ActionInsertBefore inserts a new argument before the node.
	ActionInsertBefore
)

func (a Action) String() string {
	switch a {
	case ActionSet:
		return "Set"
	case ActionErase:
		return "Erase"
	case ActionInsertBefore:
		return "InsertBefore"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ErrActionNotAvailable reports an action applied to a node that does not
// support it.
var ErrActionNotAvailable = errors.New("spantree: action not available")

// ErrForeignNode reports a node that does not belong to the tree an action
// was applied through, e.g. a node kept across a rebuild.
var ErrForeignNode = errors.New("spantree: node does not belong to this tree")

// Actions lists the mutations this node supports, always in the order Set,
// Erase, InsertBefore.
func (n *Node) Actions() []Action {
	switch n.Kind {
	case KindArgument:
		actions := []Action{ActionSet}
		if n.Removable {
			actions = append(actions, ActionErase)
		}
		return append(actions, ActionInsertBefore)

	case KindInsertionPoint:
		if n.InsertType == InsertExpectedOperand {
			return []Action{ActionSet}
		}
		return []Action{ActionSet, ActionInsertBefore}

	case KindThis, KindChained:
		return []Action{ActionSet}

	default:
		// Root and Operation are not edited through actions.
		return nil
	}
}

// Supports reports whether the node supports the given action.
func (n *Node) Supports(action Action) bool {
	for _, a := range n.Actions() {
		if a == action {
			return true
		}
	}
	return false
}

// Apply performs an action on a node of this tree and returns the resulting
// expression text. The caller reparses the result; the tree itself is
// disposable and is not updated in place.
func (t *Tree) Apply(node *Node, action Action, text string) (string, error) {
	span, ok := t.SpanOf(node)
	if !ok {
		return "", ErrForeignNode
	}
	if !node.Supports(action) {
		return "", fmt.Errorf("%w: %s on %s node", ErrActionNotAvailable, action, node.Kind)
	}

	src := t.Ast.Repr()
	switch action {
	case ActionSet:
		return t.applySet(node, span, src, text)
	case ActionInsertBefore:
		return t.applyInsertBefore(node, span, src, text)
	case ActionErase:
		return t.applyErase(node, span, src)
	}
	return "", fmt.Errorf("%w: %s", ErrActionNotAvailable, action)
}

func (t *Tree) applySet(node *Node, span source.Span, src, text string) (string, error) {
	if node.Kind != KindInsertionPoint {
		return splice(src, span, text)
	}
	switch node.InsertType {
	case InsertAppend:
		return splice(src, span, " "+text)
	case InsertBeforeArgument:
		// The slot sits at the start of a chain link's operator; the new
		// link goes in front of it.
		opr, ok := t.chainOperator(node)
		if !ok {
			return "", fmt.Errorf("%w: %s slot outside a chain", ErrActionNotAvailable, node.InsertType)
		}
		return splice(src, span, opr+text)
	case InsertExpectedOperand:
		return splice(src, span, text)
	}
	return "", fmt.Errorf("%w: %s", ErrActionNotAvailable, node.InsertType)
}

func (t *Tree) applyInsertBefore(node *Node, span source.Span, src, text string) (string, error) {
	at := source.NewSpan(span.Index, 0)
	if node.Kind == KindInsertionPoint {
		return t.applySet(node, span, src, text)
	}
	if opr, ok := t.chainOperator(node); ok {
		return splice(src, at, text+opr)
	}
	return splice(src, at, text+" ")
}

// applyErase removes an argument together with the whitespace before it, and
// for chain arguments also the link's operator.
func (t *Tree) applyErase(node *Node, span source.Span, src string) (string, error) {
	start := span.Index
	for start > 0 && src[start-1] == ' ' {
		start--
	}
	if _, chained := t.chainOperator(node); chained {
		for start > 0 && compiler.IsOperatorChar(rune(src[start-1])) {
			start--
		}
		for start > 0 && src[start-1] == ' ' {
			start--
		}
	}
	return splice(src, source.SpanBetween(start, span.End()), "")
}

// chainOperator resolves the operator text of the chain link a node belongs
// to. Reports false for nodes outside a chain.
func (t *Tree) chainOperator(node *Node) (string, bool) {
	var chainCrumbs []compiler.Crumb
	index := 0
	switch {
	case node.Kind == KindInsertionPoint && node.InsertType == InsertBeforeArgument:
		parent := t.Parent(node)
		if parent == nil {
			return "", false
		}
		chainCrumbs = parent.Crumbs
		index = node.ArgIndex
	case len(node.Crumbs) > 0 && node.Crumbs[len(node.Crumbs)-1].Tag == compiler.CrumbChainArg:
		chainCrumbs = node.Crumbs[:len(node.Crumbs)-1]
		index = node.Crumbs[len(node.Crumbs)-1].Index
	default:
		return "", false
	}

	chainAst, err := t.Ast.Get(chainCrumbs)
	if err != nil {
		return "", false
	}
	chain, ok := chainAst.Shape.(*compiler.Chain)
	if !ok || index >= len(chain.Links) {
		return "", false
	}
	return chain.Links[index].Opr.Repr(), true
}

func splice(src string, span source.Span, text string) (string, error) {
	buf, err := source.NewBuffer(src).Splice(span, text)
	if err != nil {
		return "", fmt.Errorf("spantree: apply: %w", err)
	}
	return buf.Text(), nil
}
