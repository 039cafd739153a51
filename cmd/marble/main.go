// Marble CLI - inspect and transform Marble source files
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/marblelang/marble/cache"
	"github.com/marblelang/marble/compiler"
	"github.com/marblelang/marble/idmap"
	"github.com/marblelang/marble/manifest"
	"github.com/marblelang/marble/source"
	"github.com/marblelang/marble/spantree"
	"github.com/marblelang/marble/srcfile"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	tokens := flag.Bool("tokens", false, "Print the token stream")
	tree := flag.Bool("tree", false, "Print the syntax tree with spans")
	spans := flag.Bool("spans", false, "Print the span tree of the expression")
	roundtrip := flag.Bool("roundtrip", false, "Verify that the tree reproduces the input byte-for-byte")
	serialize := flag.Bool("serialize", false, "Print the persisted source-file form")
	grammarPath := flag.String("grammar", "", "Load the operator table from a TOML file instead of the built-in one")
	cacheDir := flag.String("cache-dir", "", "Store serialized output in this cache directory")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: marble [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Reads Marble source from the file (or stdin) and inspects it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  marble -tree main.marble      # Show the parsed tree\n")
		fmt.Fprintf(os.Stderr, "  marble -tokens main.marble    # Show the token stream\n")
		fmt.Fprintf(os.Stderr, "  echo 'f a' | marble -spans    # Show the editable spans\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	src, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	// A marble.toml in or above the working directory supplies project
	// defaults; explicit flags win.
	if project, ok, err := manifest.Find("."); err == nil && ok {
		if path, hasGrammar := project.GrammarPath(); hasGrammar && *grammarPath == "" {
			*grammarPath = path
		}
		if *cacheDir == "" {
			*cacheDir = project.CacheDir()
		}
	}

	grammar := compiler.DefaultGrammar()
	if *grammarPath != "" {
		grammar, err = compiler.LoadGrammarFile(*grammarPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading grammar: %v\n", err)
			os.Exit(1)
		}
	}
	parser := compiler.NewParser(grammar)

	switch {
	case *tokens:
		printTokens(src)

	case *tree:
		file, err := srcfile.Parse(src, parser)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printTree(file.Ast)

	case *spans:
		printSpans(parser, src)

	case *roundtrip:
		if got := parser.Run(src).Repr(); got != src {
			fmt.Fprintf(os.Stderr, "Round trip failed: %d bytes in, %d bytes out\n", len(src), len(got))
			os.Exit(1)
		}
		fmt.Println("ok")

	case *serialize:
		if err := serializeSource(parser, src, *cacheDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func readInput(args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func printTokens(src string) {
	for _, tok := range compiler.Tokenize(src) {
		fmt.Printf("%3d..%-3d %-13s %q\n", tok.Off, tok.End(), tok.Kind, tok.Text)
	}
}

func printTree(ast *compiler.Ast) {
	compiler.WalkSpans(ast, func(node *compiler.Ast, span source.Span, crumbs []compiler.Crumb) bool {
		indent := strings.Repeat("  ", len(crumbs))
		label := fmt.Sprintf("%T", node.Shape)
		label = strings.TrimPrefix(label, "*compiler.")
		id := ""
		if node.ID != nil {
			id = " id=" + node.ID.String()
		}
		fmt.Printf("%s%s %v%s\n", indent, label, span, id)
		return true
	})
}

func printSpans(parser *compiler.Parser, src string) {
	expr := parser.ParseExpression(src)
	if expr == nil {
		fmt.Fprintln(os.Stderr, "No expression in input")
		os.Exit(1)
	}
	tree, err := spantree.Build(expr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	depths := map[*spantree.Node]int{}
	tree.Walk(func(node *spantree.Node, span source.Span) bool {
		depth := 0
		if parent := tree.Parent(node); parent != nil {
			depth = depths[parent] + 1
		}
		depths[node] = depth

		label := node.Kind.String()
		if node.Kind == spantree.KindInsertionPoint {
			label += "/" + node.InsertType.String()
		}
		detail := ""
		if node.Name != "" {
			detail += " name=" + node.Name
		}
		if node.Removable {
			detail += " removable"
		}
		fmt.Printf("%s%s %v%s\n", strings.Repeat("  ", depth), label, span, detail)
		return true
	})
}

func serializeSource(parser *compiler.Parser, src string, cacheDir string) error {
	file, err := srcfile.Parse(src, parser)
	if err != nil {
		return err
	}
	ser, err := file.Serialize()
	if err != nil {
		return err
	}

	if cacheDir != "" {
		store, err := cache.NewStore(cacheDir)
		if err != nil {
			return err
		}
		if err := store.Put(ser); err != nil {
			return err
		}
	}

	ids := idmap.ForAst(file.Ast)
	if data, err := json.Marshal(ids); err == nil && ids.Len() > 0 {
		fmt.Fprintf(os.Stderr, "%d identified nodes: %s\n", ids.Len(), data)
	}
	fmt.Print(ser.Content)
	return nil
}
