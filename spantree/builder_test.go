package spantree

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/source"
)

var cmpChildren = cmp.AllowUnexported(childSummary{})

func parse(t *testing.T, src string) *compiler.Ast {
	t.Helper()
	ast := compiler.NewParser(compiler.DefaultGrammar()).ParseExpression(src)
	if ast == nil {
		t.Fatalf("ParseExpression(%q) = nil", src)
	}
	return ast
}

func build(t *testing.T, src string, ctx Context) *Tree {
	t.Helper()
	tree, err := Build(parse(t, src), ctx)
	if err != nil {
		t.Fatalf("Build(%q): %v", src, err)
	}
	return tree
}

type childSummary struct {
	kind Kind
	span source.Span
}

func summarize(t *testing.T, tree *Tree, node *Node) []childSummary {
	t.Helper()
	var out []childSummary
	for _, c := range node.Children {
		span, ok := tree.SpanOf(c)
		if !ok {
			t.Fatalf("child %v has no absolute span", c.Kind)
		}
		out = append(out, childSummary{kind: c.Kind, span: span})
	}
	return out
}

func TestSimpleApplication(t *testing.T) {
	tree := build(t, "f a", nil)

	got := summarize(t, tree, tree.Root)
	want := []childSummary{
		{KindOperation, source.NewSpan(0, 1)},
		{KindArgument, source.NewSpan(2, 1)},
		{KindInsertionPoint, source.NewSpan(3, 0)},
	}
	if diff := cmp.Diff(want, got, cmpChildren); diff != "" {
		t.Fatalf("root children mismatch (-want +got):\n%s", diff)
	}
	if ip := tree.Root.Children[2]; ip.InsertType != InsertAppend {
		t.Errorf("insertion point type = %v, want Append", ip.InsertType)
	}
	if arg := tree.Root.Children[1]; !arg.Removable {
		t.Error("sole argument is not removable")
	}
}

func TestApplicationSpine(t *testing.T) {
	tree := build(t, "f a b", nil)

	got := summarize(t, tree, tree.Root)
	want := []childSummary{
		{KindOperation, source.NewSpan(0, 1)},
		{KindArgument, source.NewSpan(2, 1)},
		{KindArgument, source.NewSpan(4, 1)},
		{KindInsertionPoint, source.NewSpan(5, 0)},
	}
	if diff := cmp.Diff(want, got, cmpChildren); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionMissingOperand(t *testing.T) {
	tree := build(t, ".foo", nil)

	children := tree.Root.Children
	if len(children) != 3 {
		t.Fatalf("root has %d children, want 3", len(children))
	}
	ip := children[0]
	if ip.Kind != KindInsertionPoint || ip.InsertType != InsertExpectedOperand {
		t.Fatalf("first child = %v/%v, want ExpectedOperand slot", ip.Kind, ip.InsertType)
	}

	actions := ip.Actions()
	if len(actions) != 1 || actions[0] != ActionSet {
		t.Errorf("missing-operand slot actions = %v, want [Set] only", actions)
	}
}

func TestZeroArgumentCall(t *testing.T) {
	ctx := SignatureMap{
		"f": {Params: []Param{{Name: "x"}, {Name: "y"}}},
	}
	tree := build(t, "f", ctx)

	var appends []*Node
	tree.Walk(func(n *Node, _ source.Span) bool {
		if n.Kind == KindInsertionPoint && n.InsertType == InsertAppend {
			appends = append(appends, n)
		}
		return true
	})
	if len(appends) != 1 {
		t.Fatalf("%d append slots, want exactly 1", len(appends))
	}
	if appends[0].Name != "x" {
		t.Errorf("append slot name = %q, want first parameter %q", appends[0].Name, "x")
	}
}

func TestMissingTrailingParameters(t *testing.T) {
	ctx := SignatureMap{
		"f": {Params: []Param{{Name: "x"}, {Name: "y"}, {Name: "z"}}},
	}
	tree := build(t, "f 1", ctx)

	children := tree.Root.Children
	if len(children) != 4 {
		t.Fatalf("root has %d children, want 4: op, arg, two slots", len(children))
	}
	if children[2].Name != "y" || children[3].Name != "z" {
		t.Errorf("slot names = %q, %q; want y, z in declaration order",
			children[2].Name, children[3].Name)
	}
	for _, ip := range children[2:] {
		if span, _ := tree.SpanOf(ip); span != source.NewSpan(3, 0) {
			t.Errorf("slot span = %v, want [3,3)", span)
		}
	}
}

func TestEraseRequiresDefaultOrLastPosition(t *testing.T) {
	ctx := SignatureMap{
		"f": {Params: []Param{
			{Name: "x", HasDefault: true},
			{Name: "y"}, // no default
			{Name: "z"},
		}},
	}
	tree := build(t, "f a b c", ctx)

	var args []*Node
	for _, c := range tree.Root.Children {
		if c.Kind == KindArgument {
			args = append(args, c)
		}
	}
	if len(args) != 3 {
		t.Fatalf("%d arguments, want 3", len(args))
	}

	if !args[0].Supports(ActionErase) {
		t.Error("argument 1 has a default, want Erase available")
	}
	if args[1].Supports(ActionErase) {
		t.Error("argument 2 has no default and is not last, want no Erase")
	}
	if !args[2].Supports(ActionErase) {
		t.Error("last argument, want Erase available")
	}
}

func TestChainChildren(t *testing.T) {
	tree := build(t, "a.b.c", nil)

	got := summarize(t, tree, tree.Root)
	want := []childSummary{
		{KindChained, source.NewSpan(0, 1)},        // a
		{KindInsertionPoint, source.NewSpan(1, 0)}, // before .b
		{KindOperation, source.NewSpan(1, 1)},      // .
		{KindArgument, source.NewSpan(2, 1)},       // b
		{KindInsertionPoint, source.NewSpan(3, 0)}, // before .c
		{KindOperation, source.NewSpan(3, 1)},      // .
		{KindArgument, source.NewSpan(4, 1)},       // c
		{KindInsertionPoint, source.NewSpan(5, 0)}, // append
	}
	if diff := cmp.Diff(want, got, cmpChildren); diff != "" {
		t.Fatalf("root children mismatch (-want +got):\n%s", diff)
	}

	if ip := tree.Root.Children[4]; ip.InsertType != InsertBeforeArgument || ip.ArgIndex != 1 {
		t.Errorf("mid-chain slot = %v/%d, want BeforeArgument/1", ip.InsertType, ip.ArgIndex)
	}
	for _, i := range []int{3, 6} {
		if !tree.Root.Children[i].Removable {
			t.Errorf("chain argument %d is not removable", i)
		}
	}
}

func TestMethodStyleCall(t *testing.T) {
	ctx := SignatureMap{
		"obj.f": {Params: []Param{{Name: "x"}, {Name: "y"}}},
	}
	tree := build(t, "obj.f a", ctx)

	children := tree.Root.Children
	if len(children) != 4 {
		t.Fatalf("root has %d children, want 4: %v", len(children), summarize(t, tree, tree.Root))
	}
	this := children[0]
	if this.Kind != KindThis || !this.IsThis {
		t.Fatalf("first child = %v, want This", this.Kind)
	}
	if span, _ := tree.SpanOf(this); span != source.NewSpan(0, 3) {
		t.Errorf("This span = %v, want [0,3)", span)
	}
	op := children[1]
	if op.Kind != KindOperation {
		t.Fatalf("second child = %v, want Operation", op.Kind)
	}
	if span, _ := tree.SpanOf(op); span != source.NewSpan(4, 1) {
		t.Errorf("Operation span = %v, want [4,5)", span)
	}
	if arg := children[2]; arg.Name != "x" {
		t.Errorf("argument name = %q, want %q", arg.Name, "x")
	}
	if ip := children[3]; ip.Name != "y" {
		t.Errorf("slot name = %q, want %q", ip.Name, "y")
	}
}

func TestInfixChildren(t *testing.T) {
	tree := build(t, "a + b", nil)

	got := summarize(t, tree, tree.Root)
	want := []childSummary{
		{KindArgument, source.NewSpan(0, 1)},
		{KindOperation, source.NewSpan(2, 1)},
		{KindArgument, source.NewSpan(4, 1)},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("child %d = %v, want %v", i, got[i], want[i])
		}
	}
	if tree.Root.Children[1].Supports(ActionSet) {
		t.Error("Operation node supports Set, want no actions")
	}
}

func TestMacroChildren(t *testing.T) {
	tree := build(t, "if a then b", nil)

	got := summarize(t, tree, tree.Root)
	want := []childSummary{
		{KindOperation, source.NewSpan(0, 2)}, // if
		{KindArgument, source.NewSpan(3, 1)},  // a
		{KindOperation, source.NewSpan(5, 4)}, // then
		{KindArgument, source.NewSpan(10, 1)}, // b
	}
	if diff := cmp.Diff(want, got, cmpChildren); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
}

// Children never overlap and stay within their parent, across a corpus of
// expressions.
func TestTreeInvariants(t *testing.T) {
	sources := []string{
		"f a", "f a b", "a + b * c", "a.b.c d", "obj.f x y",
		".foo", "a +", "+", "(a + b) c", "if a then b else c",
	}
	for _, src := range sources {
		tree := build(t, src, nil)
		tree.Walk(func(n *Node, span source.Span) bool {
			prevEnd := span.Index
			for _, c := range n.Children {
				cs, ok := tree.SpanOf(c)
				if !ok {
					t.Errorf("%q: child of %v not indexed", src, n.Kind)
					continue
				}
				if cs.Index < prevEnd {
					t.Errorf("%q: child %v at %v overlaps previous sibling", src, c.Kind, cs)
				}
				if cs.End() > span.End() {
					t.Errorf("%q: child %v at %v escapes parent %v", src, c.Kind, cs, span)
				}
				prevEnd = cs.End()
			}
			return true
		})
		if rootSpan, _ := tree.SpanOf(tree.Root); rootSpan.Size != tree.Ast.Len() {
			t.Errorf("%q: root span %v does not cover the expression", src, rootSpan)
		}
	}
}

func TestSpanOfForeignNode(t *testing.T) {
	tree := build(t, "f a", nil)
	other := build(t, "f a", nil)

	if _, ok := tree.SpanOf(other.Root.Children[0]); ok {
		t.Error("SpanOf accepted a node from a different tree")
	}
}
