package tidy

import (
	"fmt"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type defaultParser struct{}

func init() {
	p := defaultParser{}
	for _, ext := range []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx"} {
		parsers[ext] = p
	}
}

// specifierNodes extracts the module-specifier string nodes a parse
// tree node of this kind directly carries, given the source bytes the
// tree was parsed from. Registered per node kind so ParseImports never
// needs to know which grammar constructs can introduce an import.
var specifierNodes = map[string]func(*tree_sitter.Node, []byte) []*tree_sitter.Node{
	"import_statement": importSpecifierStrings,
	"call_expression":  callSpecifierStrings,
}

// ParseImports walks the TSX grammar's parse tree (a superset covering
// plain JS, JSX, and TS as well) looking for ES module imports and
// require()/import() call expressions, returning the distinct bare
// (non-relative) specifiers found.
func (defaultParser) ParseImports(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	lang := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: empty tree", path)
	}
	defer tree.Close()

	found := map[string]bool{}
	pending := []*tree_sitter.Node{tree.RootNode()}
	for len(pending) > 0 {
		node := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if node == nil {
			continue
		}

		if extract, ok := specifierNodes[node.Kind()]; ok {
			for _, s := range extract(node, content) {
				if spec := unquote(s, content); spec != "" && !isRelative(spec) {
					found[spec] = true
				}
			}
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			pending = append(pending, node.Child(i))
		}
	}

	imports := make([]string, 0, len(found))
	for spec := range found {
		imports = append(imports, spec)
	}
	return imports, nil
}

func importSpecifierStrings(node *tree_sitter.Node, _ []byte) []*tree_sitter.Node {
	return stringChildren(node)
}

// callSpecifierStrings treats a call expression as an import site only
// when its callee is literally require or import; everything else is
// an ordinary function call and contributes no specifiers.
func callSpecifierStrings(node *tree_sitter.Node, source []byte) []*tree_sitter.Node {
	if node.ChildCount() == 0 {
		return nil
	}
	callee := node.Child(0)
	if callee == nil {
		return nil
	}
	switch string(source[callee.StartByte():callee.EndByte()]) {
	case "require", "import":
	default:
		return nil
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	return stringChildren(args)
}

func stringChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil && c.Kind() == "string" {
			out = append(out, c)
		}
	}
	return out
}

// unquote strips the surrounding quote characters a "string" node's raw
// text carries; tree-sitter's string node spans the quotes themselves.
func unquote(node *tree_sitter.Node, source []byte) string {
	raw := source[node.StartByte():node.EndByte()]
	if len(raw) < 2 {
		return string(raw)
	}
	return string(raw[1 : len(raw)-1])
}

func isRelative(path string) bool {
	return strings.HasPrefix(path, "./") ||
		strings.HasPrefix(path, "../") ||
		strings.HasPrefix(path, "~/") ||
		strings.HasPrefix(path, "@/") ||
		strings.HasPrefix(path, "/")
}
