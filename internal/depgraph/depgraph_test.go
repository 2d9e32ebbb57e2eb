package depgraph

import (
	"reflect"
	"testing"
)

func TestModuleID(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"app.py", "app"},
		{"services/collector.py", "services.collector"},
		{"services/__init__.py", "services"},
		{"README.md", ""},
	}
	for _, tc := range cases {
		if got := ModuleID(tc.path); got != tc.want {
			t.Errorf("ModuleID(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestBuildResolvesInternalAndExternal(t *testing.T) {
	g := Build(map[string][]string{
		"app.py":                {"services.collector", "flask"},
		"services/__init__.py":  nil,
		"services/collector.py": {"requests", "services.storage"},
		"services/storage.py":   {"json"},
	})

	if got := g.FanOut("app"); !reflect.DeepEqual(got, []string{External + "flask", "services.collector"}) {
		t.Errorf("unexpected fan-out for app: %v", got)
	}
	if got := g.FanIn("services.storage"); !reflect.DeepEqual(got, []string{"services.collector"}) {
		t.Errorf("unexpected fan-in: %v", got)
	}
	if got := g.ExternalImports(); !reflect.DeepEqual(got, []string{"flask", "json", "requests"}) {
		t.Errorf("unexpected externals: %v", got)
	}
}

func TestLongestPrefixResolution(t *testing.T) {
	// Importing services.storage.backend resolves to the deepest
	// module present, not the top-level package.
	g := Build(map[string][]string{
		"app.py":               {"services.storage.backend"},
		"services/__init__.py": nil,
		"services/storage.py":  nil,
	})

	if got := g.FanOut("app"); !reflect.DeepEqual(got, []string{"services.storage"}) {
		t.Errorf("expected longest prefix match, got %v", got)
	}
}

func TestRelativeImports(t *testing.T) {
	g := Build(map[string][]string{
		"pkg/__init__.py": nil,
		"pkg/a.py":        {".b", "."},
		"pkg/b.py":        nil,
	})

	if got := g.FanOut("pkg.a"); !reflect.DeepEqual(got, []string{"pkg", "pkg.b"}) {
		t.Errorf("unexpected relative resolution: %v", got)
	}
}

func TestReachableFromHandlesCycles(t *testing.T) {
	g := Build(map[string][]string{
		"a.py": {"b"},
		"b.py": {"c"},
		"c.py": {"a"}, // cycle back to a
		"d.py": nil,
	})

	got := g.ReachableFrom("a")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReachableFrom(a) = %v, want %v", got, want)
	}
	if len(g.ReachableFrom("d")) != 0 {
		t.Error("isolated module reaches nothing")
	}
}

func TestSelfImportsIgnored(t *testing.T) {
	g := Build(map[string][]string{
		"a.py": {"a"},
	})
	if g.EdgeCount() != 0 {
		t.Errorf("self import must not create an edge, got %d edges", g.EdgeCount())
	}
}

func TestRelativeImportFromPackageInit(t *testing.T) {
	g := Build(map[string][]string{
		"pkg/__init__.py": {".mod"},
		"pkg/mod.py":      nil,
	})

	if got := g.FanOut("pkg"); !reflect.DeepEqual(got, []string{"pkg.mod"}) {
		t.Errorf("package initializer import resolved to %v, want [pkg.mod]", got)
	}
}

func TestUnresolvedRelativeImportBecomesExternal(t *testing.T) {
	g := Build(map[string][]string{
		"pkg/a.py": {".missing"},
	})

	if g.EdgeCount() != 1 {
		t.Fatalf("unresolved relative import must keep an edge, got %d", g.EdgeCount())
	}
	if got := g.FanOut("pkg.a"); !reflect.DeepEqual(got, []string{External + "pkg.missing"}) {
		t.Errorf("unexpected target for unresolved relative import: %v", got)
	}
	if got := g.ExternalImports(); !reflect.DeepEqual(got, []string{"pkg.missing"}) {
		t.Errorf("unexpected externals: %v", got)
	}
}
