package compiler

// ---------------------------------------------------------------------------
// Macro segment matching
//
// A registry of built-in macros is consulted by leading-token lookahead. A
// matching macro claims a contiguous token run, splits it at its segment
// keywords and recursively resolves each segment body into an expression.
// Unmatched leading tokens fall through to default expression parsing.
// ---------------------------------------------------------------------------

// Pattern describes what a macro segment's body may contain.
type Pattern interface {
	pattern() // marker method
}

// ExprPattern matches a (possibly empty) expression body.
type ExprPattern struct{}

// NothingPattern matches an empty body; the segment is just its keyword.
// A trailing NothingPattern segment closes the macro, so following tokens
// are left for the surrounding expression (e.g. the ")" of a parens group).
type NothingPattern struct{}

// SeqPattern matches a sequence of sub-patterns. With the current built-in
// registry a body is always a single expression, but macro authors can
// combine patterns the way the matcher combinators compose.
type SeqPattern struct {
	Patterns []Pattern
}

// OrPattern matches the first of its alternatives.
type OrPattern struct {
	Patterns []Pattern
}

func (*ExprPattern) pattern()    {}
func (*NothingPattern) pattern() {}
func (*SeqPattern) pattern()     {}
func (*OrPattern) pattern()      {}

// SegmentDef is one keyword segment of a macro definition.
type SegmentDef struct {
	Keyword string
	Body    Pattern
}

// MacroDef is a registered macro shape. Matching is by leading keyword;
// when several definitions share a leading keyword, the one matching the
// most segments wins, then registration order.
type MacroDef struct {
	Name     string
	Segments []SegmentDef
}

// closed reports whether the macro ends at its final keyword rather than
// claiming the rest of the token run.
func (d *MacroDef) closed() bool {
	_, ok := d.Segments[len(d.Segments)-1].Body.(*NothingPattern)
	return ok
}

// standardMacros returns the built-in macro registry.
func standardMacros() []*MacroDef {
	return []*MacroDef{
		{
			Name: "parens",
			Segments: []SegmentDef{
				{Keyword: "(", Body: &ExprPattern{}},
				{Keyword: ")", Body: &NothingPattern{}},
			},
		},
		{
			Name: "if-then-else",
			Segments: []SegmentDef{
				{Keyword: "if", Body: &ExprPattern{}},
				{Keyword: "then", Body: &ExprPattern{}},
				{Keyword: "else", Body: &ExprPattern{}},
			},
		},
		{
			Name: "if-then",
			Segments: []SegmentDef{
				{Keyword: "if", Body: &ExprPattern{}},
				{Keyword: "then", Body: &ExprPattern{}},
			},
		},
		{
			Name: "import",
			Segments: []SegmentDef{
				{Keyword: "import", Body: &ExprPattern{}},
			},
		},
	}
}

// matchMacro tries every macro whose leading keyword equals tokens[i].Text,
// most specific first. On success it returns the built Match node and the
// number of tokens consumed (including the leading keyword).
func matchMacro(g *Grammar, tokens []Token, i int) (*Ast, int, bool) {
	for _, def := range g.Macros(tokens[i].Text) {
		if ast, consumed, ok := tryMacro(g, def, tokens, i); ok {
			return ast, consumed, true
		}
	}
	return nil, 0, false
}

// tryMacro attempts to match one macro definition starting at tokens[i].
func tryMacro(g *Grammar, def *MacroDef, tokens []Token, i int) (*Ast, int, bool) {
	type rawSegment struct {
		off  int // blank run before the keyword
		kw   Token
		body []Token // includes surrounding blanks
	}

	segments := make([]rawSegment, 0, len(def.Segments))
	segments = append(segments, rawSegment{off: 0, kw: tokens[i]})
	pos := i + 1

	for segIdx := 1; segIdx < len(def.Segments); segIdx++ {
		kwPos, ok := findKeyword(tokens, pos, def.Segments[segIdx].Keyword)
		if !ok {
			return nil, 0, false
		}
		segments[len(segments)-1].body = tokens[pos:kwPos]

		// The blank run before the keyword belongs to the keyword's segment,
		// not to the previous body.
		body := segments[len(segments)-1].body
		off := 0
		if len(body) > 0 && body[len(body)-1].Kind == TokenBlank {
			off = body[len(body)-1].Len()
			segments[len(segments)-1].body = body[:len(body)-1]
		}
		segments = append(segments, rawSegment{off: off, kw: tokens[kwPos]})
		pos = kwPos + 1
	}

	consumed := pos - i
	if !def.closed() {
		// Open-ended macro: the final segment's body claims the rest.
		segments[len(segments)-1].body = tokens[pos:]
		consumed = len(tokens) - i
	}

	// Build the Match shape, resolving each body recursively.
	match := &Match{Macro: def.Name}
	for segIdx, raw := range segments {
		kwNode := keywordNode(raw.kw)
		seg := MatchSegment{Off: raw.off, Kw: kwNode}

		if _, nothing := def.Segments[segIdx].Body.(*NothingPattern); !nothing {
			bodyTokens, lead := trimLeadingBlank(raw.body)
			if body := resolveTokens(g, bodyTokens); body != nil {
				seg.BodyOff = lead
				seg.Body = body
			}
		}
		match.Segments = append(match.Segments, seg)
	}

	return &Ast{Shape: match}, consumed, true
}

// findKeyword scans forward for a segment keyword at parenthesis depth zero.
func findKeyword(tokens []Token, from int, keyword string) (int, bool) {
	depth := 0
	for j := from; j < len(tokens); j++ {
		switch tokens[j].Kind {
		case TokenOpen:
			if depth == 0 && tokens[j].Text == keyword {
				return j, true
			}
			depth++
		case TokenClose:
			if depth == 0 {
				if tokens[j].Text == keyword {
					return j, true
				}
				return 0, false // unbalanced; the macro cannot match here
			}
			depth--
		default:
			if depth == 0 && tokens[j].Text == keyword {
				return j, true
			}
		}
	}
	return 0, false
}

// keywordNode builds the AST leaf for a macro keyword token.
func keywordNode(tok Token) *Ast {
	if tok.Kind == TokenIdent {
		return NewVar(tok.Text)
	}
	return NewOpr(tok.Text)
}

func trimLeadingBlank(tokens []Token) ([]Token, int) {
	if len(tokens) > 0 && tokens[0].Kind == TokenBlank {
		return tokens[1:], tokens[0].Len()
	}
	return tokens, 0
}

func trimTrailingBlank(tokens []Token) ([]Token, int) {
	if n := len(tokens); n > 0 && tokens[n-1].Kind == TokenBlank {
		return tokens[:n-1], tokens[n-1].Len()
	}
	return tokens, 0
}
