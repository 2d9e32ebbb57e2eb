package gitlog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	// Buffer sizes for the line scanner; source files can have very long lines.
	scannerInitialBufferSize = 64 * 1024
	scannerMaxBufferSize     = 1024 * 1024
)

// FileSnapshot is one tracked file in the HEAD tree.
type FileSnapshot struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Lines    int    `json:"lines"`
	Size     int64  `json:"size"`
}

// Snapshot inventories the files tracked at HEAD, counting lines and
// detecting language by extension.
func (e *Extractor) Snapshot(ctx context.Context) ([]FileSnapshot, error) {
	headCommit, err := e.repo.CommitObject(e.head.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: no HEAD commit: %v", ErrRepositoryUnavailable, err)
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD tree: %w", err)
	}

	var files []FileSnapshot
	err = headTree.Files().ForEach(func(f *object.File) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !f.Mode.IsFile() {
			return nil
		}

		snap := FileSnapshot{
			Path:     f.Name,
			Language: DetectLanguage(f.Name),
			Size:     f.Size,
		}

		if r, err := f.Reader(); err == nil {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, scannerInitialBufferSize), scannerMaxBufferSize)
			for scanner.Scan() {
				snap.Lines++
			}
			r.Close()
		}

		files = append(files, snap)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk file tree: %w", err)
	}

	return files, nil
}

// ContentAt returns the contents of path at the given commit. Callers use it
// to re-analyze historical revisions of a file.
func (e *Extractor) ContentAt(commitHash, path string) ([]byte, error) {
	commit, err := e.repo.CommitObject(plumbing.NewHash(commitHash))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit %s: %w", commitHash, err)
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, fmt.Errorf("no %s at %s: %w", path, commitHash, err)
	}

	r, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s at %s: %w", path, commitHash, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

// ContentAtHead returns the contents of path in the HEAD tree.
func (e *Extractor) ContentAtHead(path string) ([]byte, error) {
	return e.ContentAt(e.HeadHash(), path)
}

// DetectLanguage maps a file path to a language name by extension.
func DetectLanguage(path string) string {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return "Plain Text"
	}

	switch strings.ToLower(path[idx+1:]) {
	case "py", "pyw":
		return "Python"
	case "go":
		return "Go"
	case "js", "mjs", "cjs":
		return "JavaScript"
	case "ts":
		return "TypeScript"
	case "rs":
		return "Rust"
	case "java":
		return "Java"
	case "rb":
		return "Ruby"
	case "c", "h":
		return "C"
	case "cpp", "cc", "hpp":
		return "C++"
	case "md", "rst":
		return "Markup"
	case "html", "htm":
		return "HTML"
	case "css":
		return "CSS"
	case "json", "yaml", "yml", "toml", "ini", "cfg":
		return "Config"
	case "sh", "bash":
		return "Shell"
	default:
		return strings.ToLower(path[idx+1:])
	}
}
