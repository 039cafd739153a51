package compiler

import "testing"

func TestDefaultGrammarOperators(t *testing.T) {
	g := DefaultGrammar()

	tests := []struct {
		name  string
		prec  int
		assoc Assoc
		chain bool
	}{
		{"=", 1, AssocRight, false},
		{",", 2, AssocRight, false},
		{"->", 3, AssocRight, false},
		{"&&", 5, AssocLeft, false},
		{"==", 6, AssocNone, false},
		{"+", 7, AssocLeft, false},
		{"*", 8, AssocLeft, false},
		{"^", 9, AssocRight, false},
		{".", 11, AssocLeft, true},
	}
	for _, tt := range tests {
		info := g.Operator(tt.name)
		if info.Precedence != tt.prec {
			t.Errorf("Operator(%q): precedence = %d, want %d", tt.name, info.Precedence, tt.prec)
		}
		if info.Assoc != tt.assoc {
			t.Errorf("Operator(%q): assoc = %v, want %v", tt.name, info.Assoc, tt.assoc)
		}
		if info.Chain != tt.chain {
			t.Errorf("Operator(%q): chain = %v, want %v", tt.name, info.Chain, tt.chain)
		}
	}
}

func TestOperatorFallback(t *testing.T) {
	g := DefaultGrammar()

	// User-defined operators take precedence from their first character.
	if info := g.Operator("+="); info.Precedence != 7 {
		t.Errorf("Operator(%q): precedence = %d, want 7", "+=", info.Precedence)
	}
	if info := g.Operator("*>"); info.Precedence != 8 {
		t.Errorf("Operator(%q): precedence = %d, want 8", "*>", info.Precedence)
	}

	// Unknown first character falls back to the table default.
	if info := g.Operator("~~"); info.Precedence != 7 {
		t.Errorf("Operator(%q): precedence = %d, want default 7", "~~", info.Precedence)
	}

	// The fallback entry must not inherit the chain flag.
	if info := g.Operator(".."); info.Chain {
		t.Errorf("Operator(%q): chain = true, want false", "..")
	}
}

func TestMacroLookupOrder(t *testing.T) {
	g := DefaultGrammar()

	defs := g.Macros("if")
	if len(defs) != 2 {
		t.Fatalf("Macros(%q): %d defs, want 2", "if", len(defs))
	}
	if defs[0].Name != "if-then-else" || defs[1].Name != "if-then" {
		t.Errorf("Macros(%q): order = %s, %s; want if-then-else first",
			"if", defs[0].Name, defs[1].Name)
	}

	if defs := g.Macros("while"); len(defs) != 0 {
		t.Errorf("Macros(%q): %d defs, want 0", "while", len(defs))
	}
}

func TestLoadGrammarErrors(t *testing.T) {
	if _, err := LoadGrammar([]byte("not [valid toml")); err == nil {
		t.Error("LoadGrammar(malformed): want error")
	}
	if _, err := LoadGrammar([]byte("[[operator]]\nname = \"+\"\nassoc = \"sideways\"\n")); err == nil {
		t.Error("LoadGrammar(bad assoc): want error")
	}
	if _, err := LoadGrammar([]byte("[[operator]]\nprecedence = 3\n")); err == nil {
		t.Error("LoadGrammar(empty name): want error")
	}
}

func TestLoadGrammarDefaults(t *testing.T) {
	g, err := LoadGrammar([]byte("[defaults]\nprecedence = 4\nassoc = \"right\"\n"))
	if err != nil {
		t.Fatalf("LoadGrammar: %v", err)
	}
	info := g.Operator("??")
	if info.Precedence != 4 || info.Assoc != AssocRight {
		t.Errorf("Operator(%q) = {prec %d, assoc %v}, want {4, right}", "??", info.Precedence, info.Assoc)
	}
}
