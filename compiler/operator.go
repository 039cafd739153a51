package compiler

// ---------------------------------------------------------------------------
// Operator precedence resolution
//
// Rebuilds a flat sequence of operand/operator items into a tree by
// precedence climbing. Operators used with a missing operand become section
// nodes instead of failing, and consecutive links of a chain-category
// operator flatten into a single Chain node.
// ---------------------------------------------------------------------------

// appPrecedence is the precedence of juxtaposition (function application).
// It binds tighter than ordinary operators but looser than accessor chains,
// so `f x.y` applies f to the chain and `a.b c` applies the chain to c.
const appPrecedence = 10

// exprItem is one element of the flat sequence fed to the resolver: either
// an already-built operand or an operator token. Off is the width of the
// blank run before the item.
type exprItem struct {
	off int
	ast *Ast  // operand; nil for operator items
	opr Token // the operator token when ast == nil
}

// opResolver walks the item sequence with a cursor.
type opResolver struct {
	g     *Grammar
	items []exprItem
	pos   int
}

// resolveOperators builds an expression tree from items. Returns nil for an
// empty sequence.
func resolveOperators(g *Grammar, items []exprItem) *Ast {
	r := &opResolver{g: g, items: items}
	ast, _ := r.parseExpr(0)
	// Anything the climb could not attach (only possible after a recovery
	// path) is folded in as applications so no token is ever dropped.
	for r.pos < len(r.items) {
		item := r.items[r.pos]
		r.pos++
		var next *Ast
		if item.ast != nil {
			next = item.ast
		} else {
			next = NewOpr(item.opr.Text)
		}
		if ast == nil {
			ast = next
		} else {
			ast = NewPrefix(ast, item.off, next)
		}
	}
	return ast
}

// parseExpr climbs the item sequence, combining everything with precedence
// at least minPrec. It returns the built expression (nil if none) and the
// blank width preceding its first item.
func (r *opResolver) parseExpr(minPrec int) (*Ast, int) {
	var left *Ast
	lead := 0

	if item, ok := r.peekOperand(); ok {
		left = item.ast
		lead = item.off
		r.pos++
	}

	for {
		if item, ok := r.peekOperator(); ok {
			info := r.g.Operator(item.opr.Text)
			if info.Precedence < minPrec {
				break
			}
			if left == nil {
				lead = item.off
			}
			r.pos++

			nextMin := info.Precedence + 1
			if info.Assoc == AssocRight {
				nextMin = info.Precedence
			}
			right, rightLead := r.parseExpr(nextMin)

			opr := NewOpr(item.opr.Text)
			switch {
			case left == nil && right == nil:
				left = &Ast{Shape: &SectionSides{Opr: opr}}
			case left == nil:
				left = &Ast{Shape: &SectionRight{Opr: opr, Off: rightLead, Arg: right}}
			case right == nil:
				left = &Ast{Shape: &SectionLeft{Arg: left, Off: item.off, Opr: opr}}
			case info.Chain:
				left = appendChainLink(left, item.off, opr, rightLead, right)
			default:
				left = NewInfix(left, item.off, opr, rightLead, right)
			}
			continue
		}

		if _, ok := r.peekOperand(); ok && left != nil {
			// Juxtaposition: an implicit application operator.
			if appPrecedence < minPrec {
				break
			}
			right, rightLead := r.parseExpr(appPrecedence + 1)
			if right == nil {
				break
			}
			left = NewPrefix(left, rightLead, right)
			continue
		}

		break
	}

	return left, lead
}

func (r *opResolver) peekOperand() (exprItem, bool) {
	if r.pos < len(r.items) && r.items[r.pos].ast != nil {
		return r.items[r.pos], true
	}
	return exprItem{}, false
}

func (r *opResolver) peekOperator() (exprItem, bool) {
	if r.pos < len(r.items) && r.items[r.pos].ast == nil {
		return r.items[r.pos], true
	}
	return exprItem{}, false
}

// appendChainLink extends a chain, flattening `a.b.c` into one node with an
// ordered link list. A fresh chain is started when the left side is not
// already a chain over the same operator.
func appendChainLink(left *Ast, loff int, opr *Ast, roff int, arg *Ast) *Ast {
	link := ChainLink{Loff: loff, Opr: opr, Roff: roff, Arg: arg}

	if chain, ok := left.Shape.(*Chain); ok {
		if sameOperator(chain, opr) {
			links := make([]ChainLink, 0, len(chain.Links)+1)
			links = append(links, chain.Links...)
			links = append(links, link)
			return &Ast{ID: left.ID, Shape: &Chain{Head: chain.Head, Links: links}}
		}
	}
	return &Ast{Shape: &Chain{Head: left, Links: []ChainLink{link}}}
}

func sameOperator(chain *Chain, opr *Ast) bool {
	if len(chain.Links) == 0 {
		return true
	}
	prev, ok1 := chain.Links[0].Opr.Shape.(*Opr)
	next, ok2 := opr.Shape.(*Opr)
	return ok1 && ok2 && prev.Name == next.Name
}
