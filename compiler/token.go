package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Marble lexer
// ---------------------------------------------------------------------------

// TokenKind represents the kind of a token.
type TokenKind int

const (
	// Special tokens
	TokenEOF TokenKind = iota

	// Layout tokens. Whitespace is significant and is kept in the stream so
	// that the concatenation of all token texts reproduces the source exactly.
	TokenBlank   // run of spaces
	TokenNewline // \n

	// Content tokens
	TokenIdent    // foo, Bar, x'
	TokenOperator // +, ->, ., ==
	TokenNumber   // 42, 3.14, 1.5e-3
	TokenText     // "hello\n" (raw text including quotes)
	TokenOpen     // (
	TokenClose    // )

	// Recoverable error tokens
	TokenInvalidText // unterminated text literal, runs to end of line
	TokenInvalidChar // a single unrecognized character
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:         "EOF",
	TokenBlank:       "BLANK",
	TokenNewline:     "NEWLINE",
	TokenIdent:       "IDENT",
	TokenOperator:    "OPERATOR",
	TokenNumber:      "NUMBER",
	TokenText:        "TEXT",
	TokenOpen:        "(",
	TokenClose:       ")",
	TokenInvalidText: "INVALID_TEXT",
	TokenInvalidChar: "INVALID_CHAR",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// IsInvalid reports whether the kind is one of the recoverable error kinds.
func (k TokenKind) IsInvalid() bool {
	return k == TokenInvalidText || k == TokenInvalidChar
}

// Token represents a lexical token. Text is the exact source slice, so a
// token's span is [Off, Off+len(Text)).
type Token struct {
	Kind TokenKind
	Off  int    // byte offset of the first byte
	Text string // the raw text
}

// Len returns the token length in bytes.
func (t Token) Len() int { return len(t.Text) }

// End returns the byte offset just past the token.
func (t Token) End() int { return t.Off + len(t.Text) }

func (t Token) String() string {
	if t.Kind == TokenEOF {
		return "EOF"
	}
	if len(t.Text) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Kind, t.Text[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// IsOperatorChar returns true if r can appear in an operator token.
func IsOperatorChar(r rune) bool {
	switch r {
	case '!', '$', '%', '&', '*', '+', '-', '.', '/', ':', '<', '=', '>', '?', '^', '|', '~', ',', '\\', '@', ';':
		return true
	}
	return false
}
