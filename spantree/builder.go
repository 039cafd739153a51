package spantree

import (
	"errors"

	"github.com/marblelang/marble/compiler"
)

// Build derives the span tree for an expression, using ctx to resolve call
// signatures. A nil ctx behaves like EmptyContext. The resulting tree's root
// span equals the expression's span; children are listed in increasing
// offset order and never overlap.
func Build(ast *compiler.Ast, ctx Context) (*Tree, error) {
	if ast == nil {
		return nil, errors.New("spantree: nil expression")
	}
	if ctx == nil {
		ctx = EmptyContext{}
	}

	b := &builder{ctx: ctx}
	root := &Node{Kind: KindRoot, Size: ast.Len(), AstID: ast.ID}
	root.Children = b.portsOf(ast, nil)

	tree := &Tree{Root: root, Ast: ast}
	tree.index()
	return tree, nil
}

type builder struct {
	ctx Context
}

// port builds a span-tree node for an AST node at the given offset relative
// to the parent port. Operation ports do not recurse: they are name ports,
// not editable sub-expressions.
func (b *builder) port(kind Kind, ast *compiler.Ast, off int, crumbs []compiler.Crumb, recurse bool) *Node {
	n := &Node{
		Kind:   kind,
		Offset: off,
		Size:   ast.Len(),
		Crumbs: append([]compiler.Crumb(nil), crumbs...),
		AstID:  ast.ID,
	}
	if recurse {
		n.Children = b.portsOf(ast, crumbs)
	}
	return n
}

func insertionPoint(t InsertType, off int) *Node {
	return &Node{Kind: KindInsertionPoint, InsertType: t, Offset: off}
}

// portsOf derives the child ports of one expression node. Offsets are
// relative to the node itself.
func (b *builder) portsOf(ast *compiler.Ast, crumbs []compiler.Crumb) []*Node {
	switch s := ast.Shape.(type) {
	case *compiler.Prefix:
		return b.applicationPorts(ast, crumbs)

	case *compiler.Chain:
		return b.chainPorts(ast, s, crumbs)

	case *compiler.Infix:
		left, opr, right := childOffsets(ast, compiler.CrumbInfixLeft, compiler.CrumbInfixOpr, compiler.CrumbInfixRight)
		return []*Node{
			b.port(KindArgument, s.Larg, left, push(crumbs, compiler.CrumbInfixLeft, 0), true),
			b.port(KindOperation, s.Opr, opr, push(crumbs, compiler.CrumbInfixOpr, 0), false),
			b.port(KindArgument, s.Rarg, right, push(crumbs, compiler.CrumbInfixRight, 0), true),
		}

	case *compiler.SectionRight:
		opr, arg, _ := childOffsets(ast, compiler.CrumbSectionOpr, compiler.CrumbSectionArg, compiler.CrumbSectionArg)
		return []*Node{
			insertionPoint(InsertExpectedOperand, 0),
			b.port(KindOperation, s.Opr, opr, push(crumbs, compiler.CrumbSectionOpr, 0), false),
			b.port(KindArgument, s.Arg, arg, push(crumbs, compiler.CrumbSectionArg, 0), true),
		}

	case *compiler.SectionLeft:
		arg, opr, _ := childOffsets(ast, compiler.CrumbSectionArg, compiler.CrumbSectionOpr, compiler.CrumbSectionOpr)
		return []*Node{
			b.port(KindArgument, s.Arg, arg, push(crumbs, compiler.CrumbSectionArg, 0), true),
			b.port(KindOperation, s.Opr, opr, push(crumbs, compiler.CrumbSectionOpr, 0), false),
			insertionPoint(InsertExpectedOperand, ast.Len()),
		}

	case *compiler.SectionSides:
		return []*Node{
			insertionPoint(InsertExpectedOperand, 0),
			b.port(KindOperation, s.Opr, 0, push(crumbs, compiler.CrumbSectionOpr, 0), false),
			insertionPoint(InsertExpectedOperand, ast.Len()),
		}

	case *compiler.Match:
		var ports []*Node
		for _, ch := range ast.Children() {
			childCrumbs := push(crumbs, ch.Crumb.Tag, ch.Crumb.Index)
			if ch.Crumb.Tag == compiler.CrumbSegmentKw {
				ports = append(ports, b.port(KindOperation, ch.Node, ch.Off, childCrumbs, false))
			} else {
				ports = append(ports, b.port(KindArgument, ch.Node, ch.Off, childCrumbs, true))
			}
		}
		return ports

	case *compiler.Block, *compiler.Module:
		var ports []*Node
		for _, ch := range ast.Children() {
			childCrumbs := push(crumbs, ch.Crumb.Tag, ch.Crumb.Index)
			ports = append(ports, b.port(KindArgument, ch.Node, ch.Off, childCrumbs, true))
		}
		return ports

	case *compiler.Var:
		// A bare name the context knows a signature for is a zero-argument
		// call; the UI must always be offered "add first argument".
		if _, known := b.ctx.Signature(s.Name); known {
			sig, _ := b.ctx.Signature(s.Name)
			op := b.port(KindOperation, ast, 0, crumbs, false)
			ip := insertionPoint(InsertAppend, ast.Len())
			if len(sig.Params) > 0 {
				ip.Name = sig.Params[0].Name
			}
			return []*Node{op, ip}
		}
		return nil

	default:
		// Leaf shapes: Opr, Number, Text, Invalid.
		return nil
	}
}

// applicationPorts flattens a Prefix spine (`f a b`) into Operation,
// Argument and InsertionPoint ports.
func (b *builder) applicationPorts(ast *compiler.Ast, crumbs []compiler.Crumb) []*Node {
	fn, args := flattenApplication(ast, crumbs)

	var sig *Signature
	if name := callName(fn.ast); name != "" {
		sig, _ = b.ctx.Signature(name)
	}

	var ports []*Node
	if chain, ok := fn.ast.Shape.(*compiler.Chain); ok && len(chain.Links) > 0 {
		// Method-style call: the chain head is the self argument, the final
		// link's name is the operation.
		this := b.port(KindThis, chain.Head, fn.off, push(fn.crumbs, compiler.CrumbChainHead, 0), true)
		this.IsThis = true
		ports = append(ports, this)

		last := len(chain.Links) - 1
		nameOff, _ := fn.ast.ChildOffset(compiler.Crumb{Tag: compiler.CrumbChainArg, Index: last})
		ports = append(ports, b.port(
			KindOperation,
			chain.Links[last].Arg,
			fn.off+nameOff,
			push(fn.crumbs, compiler.CrumbChainArg, last),
			false,
		))
	} else {
		ports = append(ports, b.port(KindOperation, fn.ast, fn.off, fn.crumbs, false))
	}

	for i, arg := range args {
		n := b.port(KindArgument, arg.ast, arg.off, arg.crumbs, true)
		n.Removable = i == len(args)-1 ||
			(sig != nil && i < len(sig.Params) && sig.Params[i].HasDefault)
		if sig != nil && i < len(sig.Params) {
			n.Name = sig.Params[i].Name
		}
		ports = append(ports, n)
	}

	end := ast.Len()
	switch {
	case sig == nil:
		ports = append(ports, insertionPoint(InsertAppend, end))
	case len(args) < len(sig.Params):
		// One slot per missing trailing parameter, in declaration order.
		for j := len(args); j < len(sig.Params); j++ {
			ip := insertionPoint(InsertAppend, end)
			ip.Name = sig.Params[j].Name
			ports = append(ports, ip)
		}
	}
	return ports
}

// chainPorts flattens chain links into one ordered child list, with an
// insertion point before each link so a call can be inserted mid-chain by
// index.
func (b *builder) chainPorts(ast *compiler.Ast, s *compiler.Chain, crumbs []compiler.Crumb) []*Node {
	head := b.port(KindChained, s.Head, 0, push(crumbs, compiler.CrumbChainHead, 0), true)
	ports := []*Node{head}

	for i := range s.Links {
		oprOff, _ := ast.ChildOffset(compiler.Crumb{Tag: compiler.CrumbChainOpr, Index: i})
		argOff, _ := ast.ChildOffset(compiler.Crumb{Tag: compiler.CrumbChainArg, Index: i})

		ip := insertionPoint(InsertBeforeArgument, oprOff)
		ip.ArgIndex = i
		ports = append(ports, ip)

		ports = append(ports, b.port(KindOperation, s.Links[i].Opr, oprOff, push(crumbs, compiler.CrumbChainOpr, i), false))

		arg := b.port(KindArgument, s.Links[i].Arg, argOff, push(crumbs, compiler.CrumbChainArg, i), true)
		arg.Removable = true
		ports = append(ports, arg)
	}

	ports = append(ports, insertionPoint(InsertAppend, ast.Len()))
	return ports
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type spinePart struct {
	ast    *compiler.Ast
	off    int // relative to the spine root
	crumbs []compiler.Crumb
}

// flattenApplication unrolls `((f a) b) c` into the callee and its ordered
// arguments, each with its own crumbs and offset.
func flattenApplication(ast *compiler.Ast, crumbs []compiler.Crumb) (spinePart, []spinePart) {
	var args []spinePart
	cur := ast
	curOff := 0
	curCrumbs := append([]compiler.Crumb(nil), crumbs...)

	for {
		p, ok := cur.Shape.(*compiler.Prefix)
		if !ok {
			break
		}
		argOff, _ := cur.ChildOffset(compiler.Crumb{Tag: compiler.CrumbPrefixArg})
		args = append([]spinePart{{
			ast:    p.Arg,
			off:    curOff + argOff,
			crumbs: push(curCrumbs, compiler.CrumbPrefixArg, 0),
		}}, args...)
		curCrumbs = push(curCrumbs, compiler.CrumbPrefixFunc, 0)
		cur = p.Func
	}

	return spinePart{ast: cur, off: curOff, crumbs: curCrumbs}, args
}

// callName renders a callee into the qualified name the context is keyed
// by: a plain identifier or an accessor chain such as "point.move".
func callName(fn *compiler.Ast) string {
	switch fn.Shape.(type) {
	case *compiler.Var, *compiler.Chain:
		return fn.Repr()
	}
	return ""
}

// childOffsets looks up the offsets of up to three child slots at once.
func childOffsets(ast *compiler.Ast, a, b, c compiler.CrumbTag) (int, int, int) {
	ao, _ := ast.ChildOffset(compiler.Crumb{Tag: a})
	bo, _ := ast.ChildOffset(compiler.Crumb{Tag: b})
	co, _ := ast.ChildOffset(compiler.Crumb{Tag: c})
	return ao, bo, co
}

// push copies a crumb path and appends one step.
func push(crumbs []compiler.Crumb, tag compiler.CrumbTag, index int) []compiler.Crumb {
	out := make([]compiler.Crumb, 0, len(crumbs)+1)
	out = append(out, crumbs...)
	return append(out, compiler.Crumb{Tag: tag, Index: index})
}
