package srcfile

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/idmap"
	"github.com/marblelang/marble/source"
)

func newParser() *compiler.Parser {
	return compiler.NewParser(compiler.DefaultGrammar())
}

// withID attaches an id to the node at the given crumb path.
func withID(t *testing.T, ast *compiler.Ast, id uuid.UUID, crumbs ...compiler.Crumb) *compiler.Ast {
	t.Helper()
	elem, err := ast.Get(crumbs)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	updated, err := ast.Set(crumbs, elem.WithID(id))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	return updated
}

func TestSerializeLayout(t *testing.T) {
	id := uuid.New()
	file := &ParsedSourceFile{
		Ast: withID(t, newParser().Run("f a"), id,
			compiler.Crumb{Tag: compiler.CrumbLine},
			compiler.Crumb{Tag: compiler.CrumbPrefixArg}),
		Metadata: json.RawMessage(`{"open": ["n1"]}`),
	}

	ser, err := file.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	wantPrefix := "f a\n\n\n" + MetadataTag + "\n"
	if !strings.HasPrefix(ser.Content, wantPrefix) {
		t.Fatalf("Content = %q, want prefix %q", ser.Content, wantPrefix)
	}

	slice := func(span source.Span) string {
		return ser.Content[span.Index:span.End()]
	}
	if got := slice(ser.Code); got != "f a" {
		t.Errorf("code section = %q, want %q", got, "f a")
	}
	if got := slice(ser.IdMap); !strings.Contains(got, id.String()) {
		t.Errorf("id-map section %q does not mention id %s", got, id)
	}
	if got := slice(ser.Metadata); got != `{"open":["n1"]}` {
		t.Errorf("metadata section = %q, want compacted JSON", got)
	}

	// The id-map section is one line of JSON.
	if strings.ContainsRune(slice(ser.IdMap), '\n') {
		t.Error("id-map section spans multiple lines")
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	// The id goes on the "point.move" chain, whose span no other node shares.
	chainCrumbs := []compiler.Crumb{
		{Tag: compiler.CrumbLine},
		{Tag: compiler.CrumbPrefixFunc},
		{Tag: compiler.CrumbPrefixFunc},
	}
	id := uuid.New()
	file := &ParsedSourceFile{
		Ast:      withID(t, newParser().Run("point.move 3 4"), id, chainCrumbs...),
		Metadata: json.RawMessage(`{"zoom":2}`),
	}

	ser, err := file.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	back, err := Parse(ser.Content, newParser())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := back.Ast.Repr(); got != "point.move 3 4" {
		t.Errorf("reparsed code = %q", got)
	}
	if string(back.Metadata) != `{"zoom":2}` {
		t.Errorf("metadata = %s, want %s", back.Metadata, `{"zoom":2}`)
	}

	// The chain's identity survived the round trip.
	elem, err := back.Ast.Get(chainCrumbs)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if elem.ID == nil || *elem.ID != id {
		t.Errorf("chain id = %v, want %v", elem.ID, id)
	}
}

func TestSerializeRejectsInvalidMetadata(t *testing.T) {
	file := &ParsedSourceFile{
		Ast:      newParser().Run("x"),
		Metadata: json.RawMessage(`{"broken":`),
	}
	if _, err := file.Serialize(); err == nil {
		t.Error("Serialize with invalid metadata: want error")
	}
}

func TestSerializeEmptyMetadata(t *testing.T) {
	file := &ParsedSourceFile{Ast: newParser().Run("x")}
	ser, err := file.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got := ser.Content[ser.Metadata.Index:ser.Metadata.End()]; got != "{}" {
		t.Errorf("metadata section = %q, want %q", got, "{}")
	}
}

func TestParsePlainCode(t *testing.T) {
	file, err := Parse("f a", newParser())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := file.Ast.Repr(); got != "f a" {
		t.Errorf("code = %q, want %q", got, "f a")
	}
	if string(file.Metadata) != "{}" {
		t.Errorf("metadata = %s, want {}", file.Metadata)
	}
	if idmap.ForAst(file.Ast).Len() != 0 {
		t.Error("plain code picked up ids from nowhere")
	}
}

func TestParseRejectsCorruptSections(t *testing.T) {
	corrupt := []string{
		"x\n\n\n" + MetadataTag + "\nnot json\n{}",
		"x\n\n\n" + MetadataTag + "\n[]\n{broken",
	}
	for _, content := range corrupt {
		if _, err := Parse(content, newParser()); err == nil {
			t.Errorf("Parse(%q): want error", content)
		}
	}
}

func TestParseKeepsLiteralTagInCode(t *testing.T) {
	// A text literal containing the tag must not be mistaken for the real
	// separator, which always comes last.
	code := "x = \"\n\n\n" + MetadataTag + "\n\""
	content := code + "\n\n\n" + MetadataTag + "\n[]\n{}"

	file, err := Parse(content, newParser())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := file.Ast.Repr(); got != code {
		t.Errorf("code = %q, want %q", got, code)
	}
}
