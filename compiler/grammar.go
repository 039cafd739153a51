package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ---------------------------------------------------------------------------
// Grammar: operator table and macro registry
// ---------------------------------------------------------------------------

// Assoc is an operator associativity class.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "none"
	}
}

// OperatorInfo describes one operator's parsing behavior.
type OperatorInfo struct {
	Name       string
	Precedence int
	Assoc      Assoc
	// Chain marks a chain-category operator: consecutive links with the same
	// operator flatten into a single Chain node instead of nesting.
	Chain bool
}

// Grammar is the parser's rule table: operator precedences plus the macro
// registry. It is a plain value constructed once by the host and passed into
// each parse; the core keeps no global parser state.
type Grammar struct {
	operators    map[string]OperatorInfo
	macros       []*MacroDef
	defaultPrec  int
	defaultAssoc Assoc
}

//go:embed grammar.toml
var defaultGrammarTOML []byte

// grammarFile mirrors the TOML layout of a grammar table.
type grammarFile struct {
	Defaults struct {
		Precedence int    `toml:"precedence"`
		Assoc      string `toml:"assoc"`
	} `toml:"defaults"`
	Operators []struct {
		Name       string `toml:"name"`
		Precedence int    `toml:"precedence"`
		Assoc      string `toml:"assoc"`
		Chain      bool   `toml:"chain"`
	} `toml:"operator"`
}

// DefaultGrammar returns the built-in grammar table with the standard macro
// registry. The embedded table is known-good; failure to parse it is a
// programming error.
func DefaultGrammar() *Grammar {
	g, err := LoadGrammar(defaultGrammarTOML)
	if err != nil {
		panic(fmt.Sprintf("compiler: embedded grammar table is broken: %v", err))
	}
	return g
}

// LoadGrammar parses a TOML grammar table and returns a Grammar with the
// standard macro registry attached.
func LoadGrammar(data []byte) (*Grammar, error) {
	var file grammarFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("compiler: parse grammar table: %w", err)
	}

	g := &Grammar{
		operators:    make(map[string]OperatorInfo, len(file.Operators)),
		defaultPrec:  file.Defaults.Precedence,
		defaultAssoc: AssocLeft,
	}
	if g.defaultPrec == 0 {
		g.defaultPrec = 7
	}
	if file.Defaults.Assoc != "" {
		assoc, err := parseAssoc(file.Defaults.Assoc)
		if err != nil {
			return nil, err
		}
		g.defaultAssoc = assoc
	}

	for _, op := range file.Operators {
		if op.Name == "" {
			return nil, fmt.Errorf("compiler: grammar table has operator with empty name")
		}
		assoc := g.defaultAssoc
		if op.Assoc != "" {
			var err error
			assoc, err = parseAssoc(op.Assoc)
			if err != nil {
				return nil, fmt.Errorf("compiler: operator %q: %w", op.Name, err)
			}
		}
		prec := op.Precedence
		if prec == 0 {
			prec = g.defaultPrec
		}
		g.operators[op.Name] = OperatorInfo{
			Name:       op.Name,
			Precedence: prec,
			Assoc:      assoc,
			Chain:      op.Chain,
		}
	}

	g.macros = standardMacros()
	return g, nil
}

// LoadGrammarFile loads a grammar table from a TOML file on disk.
func LoadGrammarFile(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compiler: cannot read %s: %w", path, err)
	}
	return LoadGrammar(data)
}

func parseAssoc(s string) (Assoc, error) {
	switch s {
	case "left":
		return AssocLeft, nil
	case "right":
		return AssocRight, nil
	case "none":
		return AssocNone, nil
	}
	return AssocLeft, fmt.Errorf("unknown associativity %q", s)
}

// Operator returns the table entry for an operator name. Unregistered
// operators get an entry derived from their first character, so user-defined
// operators like "+=" or "<$>" parse with sensible precedence.
func (g *Grammar) Operator(name string) OperatorInfo {
	if info, ok := g.operators[name]; ok {
		return info
	}
	if len(name) > 0 {
		if info, ok := g.operators[name[:1]]; ok {
			return OperatorInfo{Name: name, Precedence: info.Precedence, Assoc: info.Assoc}
		}
	}
	return OperatorInfo{Name: name, Precedence: g.defaultPrec, Assoc: g.defaultAssoc}
}

// Macros returns the registered macro definitions whose leading keyword is
// the given token text, most specific (most segments) first.
func (g *Grammar) Macros(leading string) []*MacroDef {
	var defs []*MacroDef
	for _, def := range g.macros {
		if def.Segments[0].Keyword == leading {
			defs = append(defs, def)
		}
	}
	// Most segments wins; registration order breaks ties. The registry is
	// small, so a stable insertion sort is plenty.
	for i := 1; i < len(defs); i++ {
		for j := i; j > 0 && len(defs[j].Segments) > len(defs[j-1].Segments); j-- {
			defs[j], defs[j-1] = defs[j-1], defs[j]
		}
	}
	return defs
}
