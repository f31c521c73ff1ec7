package gitctx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// RepoMeta contains repository metadata for report headers.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// GetRepoMeta collects repository metadata from the git repository
// containing dir. A plain directory without git history yields a RepoMeta
// with only Root set.
func GetRepoMeta(dir string) (RepoMeta, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return RepoMeta{}, fmt.Errorf("resolving directory: %w", err)
	}
	meta := RepoMeta{Root: abs}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		// Not a repository is fine; verification works on any tree.
		return meta, nil
	}

	if wt, err := repo.Worktree(); err == nil {
		meta.Root = wt.Filesystem.Root()
	}
	if head, err := repo.Head(); err == nil {
		meta.Head = head.Hash().String()
		meta.Branch = head.Name().Short()
	}
	return meta, nil
}

// ListFiles walks root and returns the relative paths of regular files,
// honoring .gitignore plus any extra exclude patterns (gitignore syntax).
// Results are in lexical walk order.
func ListFiles(root string, exclude []string) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	matcher := buildMatcher(abs, exclude)

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(abs, path)
		if rerr != nil {
			return rerr
		}
		if rel == "." {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.Match(parts, false) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// buildMatcher combines the root .gitignore (if present) with extra
// exclude patterns.
func buildMatcher(root string, exclude []string) gitignore.Matcher {
	var ps []gitignore.Pattern
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ps = append(ps, gitignore.ParsePattern(line, nil))
		}
	}
	for _, pattern := range exclude {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(pattern, nil))
	}
	return gitignore.NewMatcher(ps)
}
