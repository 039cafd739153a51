// Package srcfile reads and writes the persisted Marble source-file format:
// a single text blob holding the code, the id-map and the editor metadata,
// separated by a fixed tag so each section can be re-located without
// re-scanning.
package srcfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/idmap"
	"github.com/marblelang/marble/source"
)

// MetadataTag separates the code section from the id-map and metadata
// sections. The full separator is three newlines, the tag and one newline.
const MetadataTag = "#### METADATA ####"

const sectionSeparator = "\n\n\n" + MetadataTag + "\n"

// ParsedSourceFile owns a parsed module and the raw editor metadata. The
// metadata is opaque to the core: it must be a valid single JSON value, but
// its keys and their order belong to the editor.
type ParsedSourceFile struct {
	Ast      *compiler.Ast
	Metadata json.RawMessage
}

// Serialized is the persisted blob plus the recorded byte ranges of its
// three logical sections, so a consumer can slice any section directly.
type Serialized struct {
	Content  string
	Code     source.Span
	IdMap    source.Span
	Metadata source.Span
}

// Serialize renders the file into its persisted form. The id-map section is
// derived from the identifiers present in the tree. A metadata value that is
// not valid JSON fails the whole call: silently dropping it would strand the
// editor's node identities.
func (f *ParsedSourceFile) Serialize() (*Serialized, error) {
	code := f.Ast.Repr()

	ids := idmap.ForAst(f.Ast)
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("srcfile: serialize id-map: %w", err)
	}

	metadata := []byte(f.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	if !json.Valid(metadata) {
		return nil, fmt.Errorf("srcfile: metadata is not valid JSON")
	}
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, metadata); err != nil {
		return nil, fmt.Errorf("srcfile: serialize metadata: %w", err)
	}
	metadata = compacted.Bytes()

	var sb strings.Builder
	sb.WriteString(code)
	sb.WriteString(sectionSeparator)
	idMapStart := sb.Len()
	sb.Write(idsJSON)
	sb.WriteByte('\n')
	metadataStart := sb.Len()
	sb.Write(metadata)

	return &Serialized{
		Content:  sb.String(),
		Code:     source.NewSpan(0, len(code)),
		IdMap:    source.NewSpan(idMapStart, len(idsJSON)),
		Metadata: source.NewSpan(metadataStart, len(metadata)),
	}, nil
}

// Parse reads a persisted blob back into a ParsedSourceFile, reparsing the
// code with the given parser and re-attaching identifiers from the id-map
// section. A blob without a metadata tag is plain code with no ids and empty
// metadata.
func Parse(content string, parser *compiler.Parser) (*ParsedSourceFile, error) {
	code, idsJSON, metadata, found := splitSections(content)

	ast := parser.Run(code)
	if found {
		var ids idmap.IdMap
		if err := json.Unmarshal([]byte(idsJSON), &ids); err != nil {
			return nil, fmt.Errorf("srcfile: id-map section: %w", err)
		}
		ast = idmap.Associate(ast, &ids)
		if !json.Valid([]byte(metadata)) {
			return nil, fmt.Errorf("srcfile: metadata section is not valid JSON")
		}
	}
	if metadata == "" {
		metadata = "{}"
	}

	return &ParsedSourceFile{
		Ast:      ast,
		Metadata: json.RawMessage(metadata),
	}, nil
}

// splitSections cuts a blob at the last occurrence of the section
// separator. Using the last occurrence keeps a literal tag inside a text
// constant in the code from being mistaken for the real separator.
func splitSections(content string) (code, ids, metadata string, found bool) {
	at := strings.LastIndex(content, sectionSeparator)
	if at < 0 {
		return content, "", "", false
	}
	code = content[:at]
	rest := content[at+len(sectionSeparator):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return code, rest, "", true
	}
	return code, rest[:nl], rest[nl+1:], true
}
