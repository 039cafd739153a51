package compiler

import "testing"

func TestPrecedenceClimbing(t *testing.T) {
	ast := parseExpr(t, "a + b * c")

	outer, ok := ast.Shape.(*Infix)
	if !ok {
		t.Fatalf("shape = %T, want *Infix", ast.Shape)
	}
	if outer.Opr.Repr() != "+" {
		t.Errorf("root operator = %q, want %q", outer.Opr.Repr(), "+")
	}
	if outer.Rarg.Repr() != "b * c" {
		t.Errorf("right operand = %q, want %q (\"*\" binds tighter)", outer.Rarg.Repr(), "b * c")
	}
}

func TestLeftAssociativity(t *testing.T) {
	ast := parseExpr(t, "a - b - c")

	outer, ok := ast.Shape.(*Infix)
	if !ok {
		t.Fatalf("shape = %T, want *Infix", ast.Shape)
	}
	if outer.Larg.Repr() != "a - b" {
		t.Errorf("left operand = %q, want %q", outer.Larg.Repr(), "a - b")
	}
}

func TestRightAssociativity(t *testing.T) {
	ast := parseExpr(t, "a = b = c")

	outer, ok := ast.Shape.(*Infix)
	if !ok {
		t.Fatalf("shape = %T, want *Infix", ast.Shape)
	}
	if outer.Larg.Repr() != "a" {
		t.Errorf("left operand = %q, want %q", outer.Larg.Repr(), "a")
	}
	if outer.Rarg.Repr() != "b = c" {
		t.Errorf("right operand = %q, want %q", outer.Rarg.Repr(), "b = c")
	}
}

func TestSections(t *testing.T) {
	tests := []struct {
		src   string
		shape string
	}{
		{"a +", "SectionLeft"},
		{"+ a", "SectionRight"},
		{".foo", "SectionRight"},
		{"+", "SectionSides"},
	}
	for _, tt := range tests {
		ast := parseExpr(t, tt.src)
		var got string
		switch ast.Shape.(type) {
		case *SectionLeft:
			got = "SectionLeft"
		case *SectionRight:
			got = "SectionRight"
		case *SectionSides:
			got = "SectionSides"
		default:
			got = "other"
		}
		if got != tt.shape {
			t.Errorf("ParseExpression(%q): shape = %s, want %s", tt.src, got, tt.shape)
		}
	}
}

func TestChainFlattening(t *testing.T) {
	ast := parseExpr(t, "a.b.c.d")

	chain, ok := ast.Shape.(*Chain)
	if !ok {
		t.Fatalf("shape = %T, want *Chain", ast.Shape)
	}
	if chain.Head.Repr() != "a" {
		t.Errorf("head = %q, want %q", chain.Head.Repr(), "a")
	}
	if len(chain.Links) != 3 {
		t.Fatalf("%d links, want 3 (flattened, not nested)", len(chain.Links))
	}
	wantArgs := []string{"b", "c", "d"}
	for i, link := range chain.Links {
		if link.Arg.Repr() != wantArgs[i] {
			t.Errorf("link %d: arg = %q, want %q", i, link.Arg.Repr(), wantArgs[i])
		}
	}
}

func TestNonChainOperatorNests(t *testing.T) {
	// "+" is not a chain-category operator, so a run of it stays nested.
	ast := parseExpr(t, "a + b + c")
	if _, ok := ast.Shape.(*Chain); ok {
		t.Fatal("\"+\" run built a Chain, want nested Infix")
	}
}

func TestApplicationPrecedence(t *testing.T) {
	// Application binds looser than accessor chains: `f x.y` is f applied to
	// the whole chain.
	ast := parseExpr(t, "f x.y")
	prefix, ok := ast.Shape.(*Prefix)
	if !ok {
		t.Fatalf("shape = %T, want *Prefix", ast.Shape)
	}
	if prefix.Arg.Repr() != "x.y" {
		t.Errorf("arg = %q, want %q", prefix.Arg.Repr(), "x.y")
	}

	// ... and the chain itself can be the callee.
	ast = parseExpr(t, "a.b c")
	prefix, ok = ast.Shape.(*Prefix)
	if !ok {
		t.Fatalf("shape = %T, want *Prefix", ast.Shape)
	}
	if prefix.Func.Repr() != "a.b" {
		t.Errorf("func = %q, want %q", prefix.Func.Repr(), "a.b")
	}

	// Application binds tighter than ordinary operators.
	ast = parseExpr(t, "f a + g b")
	infix, ok := ast.Shape.(*Infix)
	if !ok {
		t.Fatalf("shape = %T, want *Infix", ast.Shape)
	}
	if infix.Larg.Repr() != "f a" || infix.Rarg.Repr() != "g b" {
		t.Errorf("operands = %q, %q; want %q, %q",
			infix.Larg.Repr(), infix.Rarg.Repr(), "f a", "g b")
	}
}

func TestApplicationSpine(t *testing.T) {
	ast := parseExpr(t, "f a b")

	outer, ok := ast.Shape.(*Prefix)
	if !ok {
		t.Fatalf("shape = %T, want *Prefix", ast.Shape)
	}
	if outer.Arg.Repr() != "b" {
		t.Errorf("outer arg = %q, want %q (left-nested spine)", outer.Arg.Repr(), "b")
	}
	inner, ok := outer.Func.Shape.(*Prefix)
	if !ok {
		t.Fatalf("inner shape = %T, want *Prefix", outer.Func.Shape)
	}
	if inner.Func.Repr() != "f" || inner.Arg.Repr() != "a" {
		t.Errorf("inner = %q %q, want f a", inner.Func.Repr(), inner.Arg.Repr())
	}
}

func TestWhitespaceWidthsPreserved(t *testing.T) {
	ast := parseExpr(t, "a  +   b")
	infix, ok := ast.Shape.(*Infix)
	if !ok {
		t.Fatalf("shape = %T, want *Infix", ast.Shape)
	}
	if infix.Loff != 2 || infix.Roff != 3 {
		t.Errorf("offsets = %d, %d; want 2, 3", infix.Loff, infix.Roff)
	}
}
