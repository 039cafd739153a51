package compiler

import (
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for Marble syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes Marble source code. It is total: every byte of the input
// ends up in exactly one token, and unrecognized input becomes an invalid
// token rather than an error, so downstream stages can always proceed.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character, 0 at EOF
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
		l.ch = r
		l.pos = l.readPos
		l.readPos += size
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	start := l.pos

	switch {
	case l.pos >= len(l.input):
		return Token{Kind: TokenEOF, Off: start}

	// Only plain spaces count as blank and only "\n" ends a line: blank runs
	// are stored in the tree as widths, and widths can only reproduce spaces.
	// Tabs and carriage returns surface as invalid tokens, which keep their
	// raw text.
	case l.ch == ' ':
		for l.ch == ' ' {
			l.readChar()
		}
		return l.token(TokenBlank, start)

	case l.ch == '\n':
		l.readChar()
		return l.token(TokenNewline, start)

	case l.ch == '(':
		l.readChar()
		return l.token(TokenOpen, start)

	case l.ch == ')':
		l.readChar()
		return l.token(TokenClose, start)

	case l.ch == '"':
		return l.readText(start)

	case isDigit(l.ch):
		return l.readNumber(start)

	case isLetter(l.ch) || l.ch == '_':
		return l.readIdentifier(start)

	case IsOperatorChar(l.ch):
		for IsOperatorChar(l.ch) {
			l.readChar()
		}
		return l.token(TokenOperator, start)

	default:
		l.readChar()
		return l.token(TokenInvalidChar, start)
	}
}

// token builds a token of the given kind covering [start, l.pos).
func (l *Lexer) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Off: start, Text: l.input[start:l.pos]}
}

// readText reads a double-quoted text literal. The raw text, including the
// quotes and any escape sequences, is kept verbatim so spans stay exact.
// An unterminated literal runs to the end of the line and is reported as a
// recoverable TokenInvalidText.
func (l *Lexer) readText(start int) Token {
	l.readChar() // consume opening "

	for l.pos < len(l.input) && l.ch != '\n' {
		if l.ch == '\\' {
			// Escape sequence: consume the backslash and whatever follows,
			// including an escaped quote. Validation of the escape itself is
			// not the lexer's job.
			l.readChar()
			if l.pos < len(l.input) && l.ch != '\n' {
				l.readChar()
			}
			continue
		}
		if l.ch == '"' {
			l.readChar() // consume closing "
			return l.token(TokenText, start)
		}
		l.readChar()
	}

	return l.token(TokenInvalidText, start)
}

// readNumber reads an integer or float literal.
func (l *Lexer) readNumber(start int) Token {
	for isDigit(l.ch) {
		l.readChar()
	}

	// Fractional part. The dot is only part of the number when followed by a
	// digit; "1.foo" lexes as NUMBER(1) OPERATOR(.) IDENT(foo).
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent part.
	if l.ch == 'e' || l.ch == 'E' {
		peek := l.peekChar()
		if isDigit(peek) || ((peek == '+' || peek == '-') && l.exponentHasDigits()) {
			l.readChar() // consume e
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.token(TokenNumber, start)
}

// exponentHasDigits reports whether a sign at peek position is followed by a
// digit, i.e. "1e+5" but not "1e+".
func (l *Lexer) exponentHasDigits() bool {
	// l.ch == 'e'/'E', peek is '+'/'-'; look one rune further.
	after := l.readPos
	_, size := utf8.DecodeRuneInString(l.input[after:])
	if after+size >= len(l.input) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.input[after+size:])
	return isDigit(r)
}

// readIdentifier reads an identifier. Trailing apostrophes are allowed
// (x, x', x'') in the tradition of mathematical variable names.
func (l *Lexer) readIdentifier(start int) Token {
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	for l.ch == '\'' {
		l.readChar()
	}
	return l.token(TokenIdent, start)
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, excluding the final EOF token.
// Concatenating the Text of every returned token reproduces the input
// byte-for-byte.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
