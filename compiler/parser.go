package compiler

// ---------------------------------------------------------------------------
// Parser: token stream -> module AST
//
// The parser is a plain value around a Grammar. It keeps no state between
// calls, so one Parser may be shared by any number of goroutines; the host
// builds it once and passes it wherever parsing happens.
// ---------------------------------------------------------------------------

// Parser turns Marble source text into an AST.
type Parser struct {
	grammar *Grammar
}

// NewParser creates a parser over the given grammar table.
func NewParser(grammar *Grammar) *Parser {
	return &Parser{grammar: grammar}
}

// Grammar returns the parser's rule table.
func (p *Parser) Grammar() *Grammar { return p.grammar }

// Run parses source text into a Module-rooted AST. It is total: malformed
// input produces Invalid nodes, never an error, and the result satisfies
// Repr() == src byte-for-byte.
func (p *Parser) Run(src string) *Ast {
	lines := splitLines(Tokenize(src))
	pos := 0
	moduleLines := p.parseLineSeq(lines, &pos, 0)
	if len(moduleLines) == 0 {
		moduleLines = []BlockLine{{}}
	}
	return &Ast{Shape: &Module{Lines: moduleLines}}
}

// ParseExpression parses a single expression (no line structure). Returns
// nil when src holds nothing but whitespace.
func (p *Parser) ParseExpression(src string) *Ast {
	tokens := Tokenize(src)
	tokens, _ = trimLeadingBlank(tokens)
	tokens, _ = trimTrailingBlank(tokens)
	return resolveTokens(p.grammar, tokens)
}

// ---------------------------------------------------------------------------
// Line structure
// ---------------------------------------------------------------------------

// srcLine is one physical line of tokens, split off the flat stream.
type srcLine struct {
	indent int     // width of the leading blank run
	tokens []Token // content tokens, leading/trailing blanks stripped
	trail  int     // width of the trailing blank run
	blank  bool    // no content tokens at all
}

// splitLines cuts the token stream at newline tokens. Blank-only lines keep
// their whitespace width in indent.
func splitLines(tokens []Token) []srcLine {
	var lines []srcLine
	var cur []Token
	flush := func() {
		line := srcLine{}
		if len(cur) > 0 && cur[0].Kind == TokenBlank {
			line.indent = cur[0].Len()
			cur = cur[1:]
		}
		if n := len(cur); n > 0 && cur[n-1].Kind == TokenBlank {
			line.trail = cur[n-1].Len()
			cur = cur[:n-1]
		}
		line.tokens = cur
		line.blank = len(cur) == 0
		lines = append(lines, line)
		cur = nil
	}

	for _, tok := range tokens {
		if tok.Kind == TokenNewline {
			flush()
			continue
		}
		cur = append(cur, tok)
	}
	flush()

	// A trailing newline produces a final empty line, which is wanted; but a
	// fully empty input produced one empty line that the module can spell as
	// a single empty line too, so nothing to trim here.
	return lines
}

// parseLineSeq consumes lines at the given indent level, attaching
// deeper-indented runs as Block arguments of the preceding line.
func (p *Parser) parseLineSeq(lines []srcLine, pos *int, indent int) []BlockLine {
	var out []BlockLine

	for *pos < len(lines) {
		ln := lines[*pos]

		if ln.blank {
			out = append(out, BlockLine{Off: ln.indent})
			*pos++
			continue
		}

		if ln.indent < indent {
			break
		}

		if ln.indent > indent {
			if last := lastContentLine(out); last >= 0 {
				out = p.attachBlockTo(out, last, lines, pos, ln.indent)
				continue
			}
			// No line to hang a block on (e.g. the file starts indented):
			// keep the line as-is with its own offset.
		}

		out = append(out, BlockLine{
			Off:   ln.indent,
			Elem:  resolveTokens(p.grammar, ln.tokens),
			Trail: ln.trail,
		})
		*pos++
	}

	return out
}

// attachBlockTo collects the deeper-indented run starting at *pos into a
// Block and grafts it onto the element of out[last]. Blank lines sitting
// between the introducing line and the block content move into the block so
// the source order of bytes is preserved.
func (p *Parser) attachBlockTo(out []BlockLine, last int, lines []srcLine, pos *int, blockIndent int) []BlockLine {
	var leading []BlockLine
	for len(out) > last+1 {
		leading = append([]BlockLine{out[len(out)-1]}, leading...)
		out = out[:len(out)-1]
	}

	blockLines := append(leading, p.parseLineSeq(lines, pos, blockIndent)...)
	block := &Ast{Shape: &Block{Indent: blockIndent, Lines: blockLines}}

	intro := out[last]
	out[last] = BlockLine{
		Off:  intro.Off,
		Elem: graftBlock(intro.Elem, intro.Trail, block),
	}
	return out
}

// lastContentLine returns the index of the last line with an element, or -1.
func lastContentLine(out []BlockLine) int {
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Elem != nil {
			return i
		}
	}
	return -1
}

// graftBlock attaches a Block as the argument of the line element it
// follows. A line ending in an operator (a left section, e.g. `main =`)
// completes into an Infix with the block as right operand; anything else
// takes the block as a trailing Prefix argument.
func graftBlock(elem *Ast, trail int, block *Ast) *Ast {
	if sect, ok := elem.Shape.(*SectionLeft); ok {
		return &Ast{ID: elem.ID, Shape: &Infix{
			Larg: sect.Arg,
			Loff: sect.Off,
			Opr:  sect.Opr,
			Roff: trail,
			Rarg: block,
		}}
	}
	return &Ast{Shape: &Prefix{Func: elem, Off: trail, Arg: block}}
}

// ---------------------------------------------------------------------------
// Itemization: tokens -> operand/operator items
// ---------------------------------------------------------------------------

// resolveTokens runs the macro matcher and the operator resolver over one
// run of tokens. Returns nil for an empty run.
func resolveTokens(g *Grammar, tokens []Token) *Ast {
	return resolveOperators(g, itemize(g, tokens))
}

// itemize converts a token run into expression items, letting registered
// macros claim their segments. Unrecognized or unmatched tokens become
// Invalid operands so that no input is ever dropped.
func itemize(g *Grammar, tokens []Token) []exprItem {
	var items []exprItem
	pending := 0

	operand := func(ast *Ast) {
		items = append(items, exprItem{off: pending, ast: ast})
		pending = 0
	}

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		switch tok.Kind {
		case TokenBlank:
			pending += tok.Len()
			i++

		case TokenIdent, TokenOpen:
			if ast, consumed, ok := matchMacro(g, tokens, i); ok {
				operand(ast)
				i += consumed
				continue
			}
			if tok.Kind == TokenOpen {
				operand(NewInvalid(tok.Text, "unmatched opening parenthesis"))
			} else {
				operand(NewVar(tok.Text))
			}
			i++

		case TokenClose:
			operand(NewInvalid(tok.Text, "unmatched closing parenthesis"))
			i++

		case TokenOperator:
			if ast, consumed, ok := matchMacro(g, tokens, i); ok {
				operand(ast)
				i += consumed
				continue
			}
			items = append(items, exprItem{off: pending, opr: tok})
			pending = 0
			i++

		case TokenNumber:
			operand(NewNumber(tok.Text))
			i++

		case TokenText:
			operand(NewText(tok.Text))
			i++

		case TokenInvalidText:
			operand(NewInvalid(tok.Text, "unterminated text literal"))
			i++

		default:
			operand(NewInvalid(tok.Text, "unexpected character"))
			i++
		}
	}

	return items
}
