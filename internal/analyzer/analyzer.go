package analyzer

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Definition is a single named definition extracted from a source file.
type Definition struct {
	QualifiedName   string   `json:"qualified_name"`
	Kind            string   `json:"kind"` // "function", "method" or "class"
	StartLine       int      `json:"start_line"`
	EndLine         int      `json:"end_line"`
	Lines           int      `json:"lines"`
	Params          []string `json:"params,omitempty"`
	Decorators      []string `json:"decorators,omitempty"`
	Complexity      int      `json:"complexity"`
	Maintainability float64  `json:"maintainability"`
}

// FileAnalysis is the structural report for one file. A file that could
// not be parsed is reported with ParseFailed set and no definitions, so
// one broken file never aborts a whole run.
type FileAnalysis struct {
	Path        string       `json:"path"`
	Language    string       `json:"language"`
	Lines       int          `json:"lines"`
	ParseFailed bool         `json:"parse_failed"`
	Definitions []Definition `json:"definitions"`
	Imports     []string     `json:"imports"`
}

// Analyzer parses source files and extracts definitions, imports and
// per-definition complexity. It is not safe for concurrent use; create
// one per worker goroutine.
type Analyzer struct {
	parser *sitter.Parser
}

func New() *Analyzer {
	return &Analyzer{parser: sitter.NewParser()}
}

// Supports reports whether the analyzer can structurally parse the
// given language.
func Supports(language string) bool {
	return language == "Python"
}

// AnalyzeSource analyzes a single file's content. It never returns an
// error: unparseable input yields a FileAnalysis with ParseFailed set.
func (a *Analyzer) AnalyzeSource(ctx context.Context, path, language string, source []byte) *FileAnalysis {
	fa := &FileAnalysis{
		Path:        path,
		Language:    language,
		Lines:       countLines(source),
		Definitions: []Definition{},
		Imports:     []string{},
	}

	if !Supports(language) {
		return fa
	}
	if !utf8.Valid(source) {
		fa.ParseFailed = true
		return fa
	}

	a.parser.SetLanguage(python.GetLanguage())
	tree, err := a.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		fa.ParseFailed = true
		return fa
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		fa.ParseFailed = true
		return fa
	}

	fa.Definitions = collectDefinitions(root, source, nil, false)
	fa.Imports = collectImports(root, source)
	return fa
}

// collectDefinitions walks the tree gathering classes, functions and
// methods. The scope stack builds qualified names like Class.method;
// inClass marks a def whose immediate scope is a class body.
func collectDefinitions(node *sitter.Node, source []byte, scope []string, inClass bool) []Definition {
	var defs []Definition

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		target := child
		var decorators []string
		if child.Type() == "decorated_definition" {
			decorators = extractDecorators(child, source)
			target = child.ChildByFieldName("definition")
			if target == nil {
				continue
			}
		}

		switch target.Type() {
		case "function_definition":
			def := buildFunctionDefinition(target, source, scope, decorators, inClass)
			defs = append(defs, def)
			// Nested defs are qualified under their parent.
			defs = append(defs, collectDefinitions(body(target), source, pushScope(scope, nodeName(target, source)), false)...)

		case "class_definition":
			name := nodeName(target, source)
			def := Definition{
				QualifiedName: qualify(scope, name),
				Kind:          "class",
				StartLine:     int(target.StartPoint().Row) + 1,
				EndLine:       int(target.EndPoint().Row) + 1,
				Decorators:    decorators,
				Complexity:    1,
			}
			def.Lines = def.EndLine - def.StartLine + 1
			def.Maintainability = maintainability(def.Complexity, def.Lines)
			defs = append(defs, def)
			defs = append(defs, collectDefinitions(body(target), source, pushScope(scope, name), true)...)

		default:
			defs = append(defs, collectDefinitions(target, source, scope, inClass)...)
		}
	}

	return defs
}

func buildFunctionDefinition(node *sitter.Node, source []byte, scope []string, decorators []string, inClass bool) Definition {
	name := nodeName(node, source)
	kind := "function"
	if inClass {
		kind = "method"
	}

	def := Definition{
		QualifiedName: qualify(scope, name),
		Kind:          kind,
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Params:        extractParams(node, source),
		Decorators:    decorators,
	}
	def.Lines = def.EndLine - def.StartLine + 1
	def.Complexity = cyclomatic(node)
	def.Maintainability = maintainability(def.Complexity, def.Lines)
	return def
}

func body(node *sitter.Node) *sitter.Node {
	if b := node.ChildByFieldName("body"); b != nil {
		return b
	}
	return node
}

func nodeName(node *sitter.Node, source []byte) string {
	n := node.ChildByFieldName("name")
	if n == nil {
		return "<anonymous>"
	}
	return text(n, source)
}

func pushScope(scope []string, name string) []string {
	out := make([]string, 0, len(scope)+1)
	out = append(out, scope...)
	return append(out, name)
}

func qualify(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, ".") + "." + name
}

func extractDecorators(node *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		dec := strings.TrimPrefix(text(child, source), "@")
		// Keep the decorator name, drop call arguments.
		if idx := strings.IndexByte(dec, '('); idx >= 0 {
			dec = dec[:idx]
		}
		out = append(out, strings.TrimSpace(dec))
	}
	return out
}

func extractParams(node *sitter.Node, source []byte) []string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, text(p, source))
		case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			if id := firstIdentifier(p, source); id != "" {
				out = append(out, id)
			}
		case "default_parameter", "typed_default_parameter":
			if n := p.ChildByFieldName("name"); n != nil {
				out = append(out, text(n, source))
			}
		}
	}
	return out
}

func firstIdentifier(node *sitter.Node, source []byte) string {
	if node.Type() == "identifier" {
		return text(node, source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if id := firstIdentifier(node.NamedChild(i), source); id != "" {
			return id
		}
	}
	return ""
}

// collectImports gathers imported module paths from top-level and
// nested import statements, deduplicated and sorted.
func collectImports(root *sitter.Node, source []byte) []string {
	seen := make(map[string]struct{})

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "import_statement":
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				switch child.Type() {
				case "dotted_name":
					seen[text(child, source)] = struct{}{}
				case "aliased_import":
					if n := child.ChildByFieldName("name"); n != nil {
						seen[text(n, source)] = struct{}{}
					}
				}
			}
			return
		case "import_from_statement":
			if m := node.ChildByFieldName("module_name"); m != nil {
				seen[text(m, source)] = struct{}{}
			}
			return
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(root)

	out := make([]string, 0, len(seen))
	for imp := range seen {
		out = append(out, imp)
	}
	sort.Strings(out)
	return out
}

func text(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	lines := 1
	for _, b := range source {
		if b == '\n' {
			lines++
		}
	}
	if source[len(source)-1] == '\n' {
		lines--
	}
	return lines
}
