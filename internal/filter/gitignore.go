package filter

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// GitignoreMatcher loads and evaluates .gitignore files found anywhere in a
// directory tree, applying each one only to paths within its own subtree and
// inheriting parent rules into child directories, matching real git
// semantics. Grounded on the teacher's discovery.GitignoreMatcher.
type GitignoreMatcher struct {
	root     string
	matchers map[string]*gitignore.GitIgnore
	dirs     []string
	logger   *slog.Logger
}

// NewGitignoreMatcher discovers and compiles every .gitignore file under
// rootDir. A tree with no .gitignore files produces a matcher whose
// IsIgnored always returns false.
func NewGitignoreMatcher(rootDir string) (*GitignoreMatcher, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("filter: resolving root %s: %w", rootDir, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("filter: stat root %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filter: root %s is not a directory", absRoot)
	}

	m := &GitignoreMatcher{
		root:     absRoot,
		matchers: make(map[string]*gitignore.GitIgnore),
		logger:   slog.Default().With("component", "filter.gitignore"),
	}

	if err := m.discover(); err != nil {
		return nil, fmt.Errorf("filter: discovering .gitignore files under %s: %w", absRoot, err)
	}
	return m, nil
}

func (m *GitignoreMatcher) discover() error {
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.Debug("skipping unreadable path", "path", path, "error", err)
			return filepath.SkipDir
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ".gitignore" {
			return nil
		}

		dirPath := filepath.Dir(path)
		relDir, err := filepath.Rel(m.root, dirPath)
		if err != nil {
			return nil
		}
		compiled, err := gitignore.CompileIgnoreFile(path)
		if err != nil {
			m.logger.Debug("skipping unreadable .gitignore", "path", path, "error", err)
			return nil
		}
		if relDir == "" {
			relDir = "."
		}
		m.matchers[relDir] = compiled
		return nil
	})
	if err != nil {
		return err
	}

	m.dirs = make([]string, 0, len(m.matchers))
	for dir := range m.matchers {
		m.dirs = append(m.dirs, dir)
	}
	sort.Strings(m.dirs)
	return nil
}

// IsIgnored reports whether path matches any applicable .gitignore rule,
// walking from the root's .gitignore down toward path's own directory so
// that nested overrides and negations apply correctly.
func (m *GitignoreMatcher) IsIgnored(path string, isDir bool) bool {
	normalized := strings.TrimPrefix(filepath.ToSlash(path), "./")
	if normalized == "" || normalized == "." {
		return false
	}

	matchPath := normalized
	if isDir && !strings.HasSuffix(matchPath, "/") {
		matchPath += "/"
	}

	for _, dir := range m.dirs {
		matcher := m.matchers[dir]
		if dir != "." {
			prefix := dir + "/"
			if !strings.HasPrefix(normalized, prefix) {
				continue
			}
		}

		var relPath string
		if dir == "." {
			relPath = matchPath
		} else {
			relPath = strings.TrimPrefix(matchPath, dir+"/")
		}

		if matcher.MatchesPath(relPath) {
			return true
		}
	}
	return false
}

// PatternCount returns the number of loaded .gitignore files.
func (m *GitignoreMatcher) PatternCount() int {
	return len(m.matchers)
}

var _ Ignorer = (*GitignoreMatcher)(nil)
