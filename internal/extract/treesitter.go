package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammar pairs a tree-sitter language with the node kinds that count as
// definitions.
type grammar struct {
	language *sitter.Language
	defKinds map[string]bool
}

func newGrammar(language *sitter.Language, kinds ...string) *grammar {
	g := &grammar{language: language, defKinds: make(map[string]bool, len(kinds))}
	for _, k := range kinds {
		g.defKinds[k] = true
	}
	return g
}

var grammars = func() map[string]*grammar {
	py := newGrammar(sitter.NewLanguage(python.Language()),
		"function_definition", "class_definition")
	jv := newGrammar(sitter.NewLanguage(java.Language()),
		"class_declaration", "interface_declaration", "enum_declaration",
		"method_declaration", "constructor_declaration")
	tsKinds := []string{
		"function_declaration", "generator_function_declaration", "class_declaration",
		"interface_declaration", "type_alias_declaration", "method_definition",
	}
	ts := newGrammar(sitter.NewLanguage(typescript.LanguageTypescript()), tsKinds...)
	tsx := newGrammar(sitter.NewLanguage(typescript.LanguageTSX()), tsKinds...)
	cc := newGrammar(sitter.NewLanguage(c.Language()),
		"function_definition")
	rb := newGrammar(sitter.NewLanguage(ruby.Language()),
		"class", "module", "method", "singleton_method")
	rs := newGrammar(sitter.NewLanguage(rust.Language()),
		"function_item", "struct_item", "enum_item", "trait_item", "impl_item")
	ph := newGrammar(sitter.NewLanguage(php.LanguagePHP()),
		"function_definition", "class_declaration", "interface_declaration",
		"trait_declaration", "method_declaration")

	return map[string]*grammar{
		".py":   py,
		".java": jv,
		".ts":   ts,
		".tsx":  tsx,
		".js":   tsx,
		".jsx":  tsx,
		".c":    cc,
		".h":    cc,
		".rb":   rb,
		".rs":   rs,
		".php":  ph,
	}
}()

// definitionLines returns the first source line of every definition node, in
// document order. ok is false when no grammar is registered for ext or the
// source could not be parsed.
func definitionLines(ext string, source []byte, lines []string) ([]string, bool) {
	g, found := grammars[ext]
	if !found {
		return nil, false
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(g.language); err != nil {
		return nil, false
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, false
	}
	defer tree.Close()

	var out []string
	seen := make(map[uint]bool)
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		if g.defKinds[n.Kind()] {
			row := n.StartPosition().Row
			if !seen[row] && int(row) < len(lines) {
				seen[row] = true
				out = append(out, strings.TrimRight(lines[row], " \t\r"))
			}
		}
		return true
	})
	return out, true
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}
