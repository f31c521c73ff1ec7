package fscache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PathTraversalError reports a path that resolved outside the working
// directory root. Findings carrying such a path are rejected outright.
type PathTraversalError struct {
	Path string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path escapes working directory: %s", e.Path)
}

// IsPathTraversal checks if an error is a PathTraversalError.
func IsPathTraversal(err error) bool {
	_, ok := err.(*PathTraversalError)
	return ok
}

// FileInfo is the cached view of one file. Lines is nil when the file does
// not exist.
type FileInfo struct {
	Exists    bool
	Lines     []string
	LineCount int
}

// Cache is a request-scoped read cache rooted at a working directory.
// Each absolute path is read from disk at most once per Cache lifetime;
// concurrent first reads of the same path coalesce into a single read.
// Non-existent paths are cached as negative entries.
type Cache struct {
	root     string
	realRoot string

	mu      sync.Mutex
	entries map[string]*FileInfo
	flight  singleflight.Group
}

// New creates a Cache rooted at root. The root establishes the trust
// boundary: Resolve rejects anything outside it.
func New(root string) (*Cache, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	abs = filepath.Clean(abs)
	return &Cache{
		root:     abs,
		realRoot: resolveSymlinks(abs),
		entries:  make(map[string]*FileInfo),
	}, nil
}

// Root returns the canonical working directory root.
func (c *Cache) Root() string { return c.root }

// Resolve canonicalizes path against the root. Relative paths are joined
// to the root; absolute paths are accepted only if already inside it. Any
// result that is not a descendant of the root fails as PathTraversalError.
func (c *Cache) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &PathTraversalError{Path: path}
	}
	var candidate string
	if filepath.IsAbs(path) {
		candidate = filepath.Clean(path)
	} else {
		candidate = filepath.Join(c.root, path)
	}
	if escapes(c.root, candidate) {
		return "", &PathTraversalError{Path: path}
	}
	// A symlink inside the root can still point outside it.
	if escapes(c.realRoot, resolveSymlinks(candidate)) {
		return "", &PathTraversalError{Path: path}
	}
	return candidate, nil
}

func escapes(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveSymlinks evaluates symlinks in path, tolerating a nonexistent tail
// by evaluating the nearest resolvable ancestor and re-appending the rest.
func resolveSymlinks(path string) string {
	p := path
	tail := ""
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(real, tail)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path
		}
		tail = filepath.Join(filepath.Base(p), tail)
		p = parent
	}
}

// Read returns the cached file info for path, reading from disk on first
// access. Returns PathTraversalError if path escapes the root.
func (c *Cache) Read(path string) (*FileInfo, error) {
	abs, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if info, ok := c.entries[abs]; ok {
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	v, _, _ := c.flight.Do(abs, func() (interface{}, error) {
		info := readFile(abs)
		c.mu.Lock()
		c.entries[abs] = info
		c.mu.Unlock()
		return info, nil
	})
	return v.(*FileInfo), nil
}

// Snippet returns the literal lines in [line-contextLines, line+contextLines]
// clipped to file bounds. Line numbers are 1-based.
func (c *Cache) Snippet(path string, line, contextLines int) ([]string, error) {
	info, err := c.Read(path)
	if err != nil {
		return nil, err
	}
	if !info.Exists {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if line < 1 || line > info.LineCount {
		return nil, fmt.Errorf("line %d out of range [1, %d]", line, info.LineCount)
	}
	start := line - contextLines
	if start < 1 {
		start = 1
	}
	end := line + contextLines
	if end > info.LineCount {
		end = info.LineCount
	}
	return info.Lines[start-1 : end], nil
}

func readFile(abs string) *FileInfo {
	data, err := os.ReadFile(abs)
	if err != nil {
		return &FileInfo{Exists: false}
	}
	lines := strings.Split(string(data), "\n")
	// A trailing newline produces one phantom empty element.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &FileInfo{
		Exists:    true,
		Lines:     lines,
		LineCount: len(lines),
	}
}
