package config

// FileExclusions contains patterns for files/directories to exclude from stats calculations
var FileExclusions = ExclusionConfig{
	// Patterns support SQL LIKE syntax (% for wildcard)
	Patterns: []string{
		// Package manager lock files
		"package-lock.json",
		"yarn.lock",
		"Pipfile.lock",
		"poetry.lock",
		"go.sum",

		// Generated/compiled files
		"%.pyc",
		"%.min.js",
		"%.min.css",
		"%.generated.%",

		// Vendor/dependency directories
		"vendor/%",
		"node_modules/%",
		"__pycache__/%",
		"%.egg-info/%",
		".venv/%",
		".git/%",

		// Build artifacts
		"dist/%",
		"build/%",
		"out/%",
		"bin/%",

		// IDE/editor config
		".vscode/%",
		".idea/%",
	},

	// File extensions to always exclude
	Extensions: []string{
		".lock",
		".sum",
		".map",
		".pyc",
	},
}

// ExclusionConfig holds file exclusion patterns
type ExclusionConfig struct {
	Patterns   []string `json:"patterns"`
	Extensions []string `json:"extensions"`
}

// GetExclusionPatterns returns all patterns for SQL LIKE filtering
func GetExclusionPatterns() []string {
	return FileExclusions.Patterns
}
