package analyzer

import (
	"context"
	"testing"
)

func analyze(t *testing.T, source string) *FileAnalysis {
	t.Helper()
	return New().AnalyzeSource(context.Background(), "test.py", "Python", []byte(source))
}

func findDefinition(t *testing.T, fa *FileAnalysis, qualified string) Definition {
	t.Helper()
	for _, def := range fa.Definitions {
		if def.QualifiedName == qualified {
			return def
		}
	}
	t.Fatalf("definition %q not found in %+v", qualified, fa.Definitions)
	return Definition{}
}

func TestAnalyzeSimpleFunction(t *testing.T) {
	fa := analyze(t, `def hello(name):
    return "hello " + name
`)

	if fa.ParseFailed {
		t.Fatal("unexpected parse failure")
	}
	def := findDefinition(t, fa, "hello")
	if def.Kind != "function" {
		t.Errorf("expected function kind, got %q", def.Kind)
	}
	if def.Complexity != 1 {
		t.Errorf("expected complexity 1, got %d", def.Complexity)
	}
	if len(def.Params) != 1 || def.Params[0] != "name" {
		t.Errorf("unexpected params %v", def.Params)
	}
	if def.StartLine != 1 || def.EndLine != 2 {
		t.Errorf("unexpected lines %d-%d", def.StartLine, def.EndLine)
	}
}

func TestAnalyzeComplexityCounting(t *testing.T) {
	// 1 base + if + elif + and + for + except = 6
	fa := analyze(t, `def route(request):
    if request.method == "GET" and request.path:
        return get(request)
    elif request.method == "POST":
        for handler in handlers:
            try:
                handler(request)
            except ValueError:
                pass
    return None
`)

	def := findDefinition(t, fa, "route")
	if def.Complexity != 6 {
		t.Errorf("expected complexity 6, got %d", def.Complexity)
	}
}

func TestNestedFunctionComplexityIsSeparate(t *testing.T) {
	fa := analyze(t, `def outer(items):
    def inner(x):
        if x > 0:
            return x
        return -x
    return [inner(i) for i in items]
`)

	outer := findDefinition(t, fa, "outer")
	inner := findDefinition(t, fa, "outer.inner")

	// outer: base + list comprehension; inner's if is not outer's.
	if outer.Complexity != 2 {
		t.Errorf("expected outer complexity 2, got %d", outer.Complexity)
	}
	if inner.Complexity != 2 {
		t.Errorf("expected inner complexity 2, got %d", inner.Complexity)
	}
	if inner.Kind != "function" {
		t.Errorf("nested def is not a method, got %q", inner.Kind)
	}
}

func TestAnalyzeClassAndMethods(t *testing.T) {
	fa := analyze(t, `class Repo:
    def __init__(self, path):
        self.path = path

    def commits(self, limit=10):
        while limit > 0:
            limit -= 1
            yield limit
`)

	cls := findDefinition(t, fa, "Repo")
	if cls.Kind != "class" {
		t.Errorf("expected class kind, got %q", cls.Kind)
	}

	init := findDefinition(t, fa, "Repo.__init__")
	if init.Kind != "method" {
		t.Errorf("expected method kind, got %q", init.Kind)
	}

	commits := findDefinition(t, fa, "Repo.commits")
	if commits.Complexity != 2 {
		t.Errorf("expected complexity 2, got %d", commits.Complexity)
	}
	if len(commits.Params) != 2 || commits.Params[0] != "self" || commits.Params[1] != "limit" {
		t.Errorf("unexpected params %v", commits.Params)
	}
}

func TestAnalyzeDecorators(t *testing.T) {
	fa := analyze(t, `@app.route("/repos")
@cached
def list_repos():
    return []
`)

	def := findDefinition(t, fa, "list_repos")
	if len(def.Decorators) != 2 {
		t.Fatalf("expected 2 decorators, got %v", def.Decorators)
	}
	if def.Decorators[0] != "app.route" || def.Decorators[1] != "cached" {
		t.Errorf("unexpected decorators %v", def.Decorators)
	}
}

func TestAnalyzeSplatParams(t *testing.T) {
	fa := analyze(t, `def call(fn, *args, **kwargs):
    return fn(*args, **kwargs)
`)

	def := findDefinition(t, fa, "call")
	want := []string{"fn", "args", "kwargs"}
	if len(def.Params) != len(want) {
		t.Fatalf("unexpected params %v", def.Params)
	}
	for i, p := range want {
		if def.Params[i] != p {
			t.Errorf("param %d: expected %q, got %q", i, p, def.Params[i])
		}
	}
}

func TestAnalyzeImports(t *testing.T) {
	fa := analyze(t, `import os
import os.path
import json as j
from collections import defaultdict
from . import utils

def main():
    pass
`)

	want := map[string]bool{"os": true, "os.path": true, "json": true, "collections": true, ".": true}
	if len(fa.Imports) != len(want) {
		t.Fatalf("unexpected imports %v", fa.Imports)
	}
	for _, imp := range fa.Imports {
		if !want[imp] {
			t.Errorf("unexpected import %q", imp)
		}
	}
}

func TestAnalyzeParseFailure(t *testing.T) {
	fa := analyze(t, "def broken(:\n    ???\n")

	if !fa.ParseFailed {
		t.Fatal("expected parse failure")
	}
	if len(fa.Definitions) != 0 {
		t.Errorf("failed parse must not yield definitions, got %v", fa.Definitions)
	}
}

func TestAnalyzeInvalidUTF8(t *testing.T) {
	fa := New().AnalyzeSource(context.Background(), "bad.py", "Python", []byte{0xff, 0xfe, 'd', 'e', 'f'})
	if !fa.ParseFailed {
		t.Fatal("expected parse failure for invalid utf-8")
	}
}

func TestAnalyzeUnsupportedLanguage(t *testing.T) {
	fa := New().AnalyzeSource(context.Background(), "main.go", "Go", []byte("package main"))
	if fa.ParseFailed {
		t.Error("unsupported language is skipped, not failed")
	}
	if len(fa.Definitions) != 0 {
		t.Errorf("expected no definitions, got %v", fa.Definitions)
	}
	if fa.Lines != 1 {
		t.Errorf("expected 1 line, got %d", fa.Lines)
	}
}

func TestMaintainabilityMonotonic(t *testing.T) {
	base := maintainability(1, 10)
	if base <= 0 || base > 100 {
		t.Fatalf("score out of range: %f", base)
	}
	if maintainability(5, 10) >= base {
		t.Error("score must decrease as complexity grows")
	}
	if maintainability(1, 200) >= base {
		t.Error("score must decrease as size grows")
	}
	if maintainability(100, 100000) != 0 {
		t.Error("score is clamped at 0")
	}
	if maintainability(1, 0) != 100 {
		t.Errorf("trivial definition scores 100, got %f", maintainability(1, 0))
	}
}
