package analyzer

import (
	"math"

	sitter "github.com/smacker/go-tree-sitter"
)

// decisionNodeTypes are the constructs that open an extra execution
// path. Each occurrence adds one to cyclomatic complexity.
var decisionNodeTypes = map[string]struct{}{
	"if_statement":             {},
	"elif_clause":              {},
	"for_statement":            {},
	"while_statement":          {},
	"except_clause":            {},
	"with_statement":           {},
	"boolean_operator":         {},
	"conditional_expression":   {},
	"list_comprehension":       {},
	"dictionary_comprehension": {},
	"set_comprehension":        {},
	"generator_expression":     {},
}

// functionBoundaryTypes stop the decision walk so a nested def or
// lambda counts toward its own complexity, not its parent's.
var functionBoundaryTypes = map[string]struct{}{
	"function_definition": {},
	"lambda":              {},
}

// cyclomatic counts decision points within a single function body plus
// one for the entry path.
func cyclomatic(fn *sitter.Node) int {
	complexity := 1

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if _, ok := decisionNodeTypes[node.Type()]; ok {
			complexity++
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if _, boundary := functionBoundaryTypes[child.Type()]; boundary {
				continue
			}
			walk(child)
		}
	}

	if b := fn.ChildByFieldName("body"); b != nil {
		walk(b)
	}
	return complexity
}

// maintainability maps complexity and size onto a 0..100 score. It is
// deterministic and strictly non-increasing in both inputs.
func maintainability(complexity, lines int) float64 {
	if complexity < 1 {
		complexity = 1
	}
	if lines < 0 {
		lines = 0
	}
	score := 100 - 4*float64(complexity-1) - 12*math.Log(1+float64(lines))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return math.Round(score*100) / 100
}
