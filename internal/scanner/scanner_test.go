package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/8b-is/smart-tree/internal/filter"
	"github.com/8b-is/smart-tree/internal/node"
	"github.com/8b-is/smart-tree/internal/safety"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "src"))
	mustWrite(t, filepath.Join(root, "src", "main.go"), "package main\n\nfunc main() {}\n")
	mustWrite(t, filepath.Join(root, "src", "util.go"), "package main\n")
	mustWrite(t, filepath.Join(root, "README.md"), "# hello\n")
	mustMkdir(t, filepath.Join(root, ".git"))
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	return root
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, nodes <-chan node.Node, errc <-chan error) []node.Node {
	t.Helper()
	var out []node.Node
	for nodes != nil || errc != nil {
		select {
		case n, ok := <-nodes:
			if !ok {
				nodes = nil
				continue
			}
			out = append(out, n)
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				t.Fatalf("scan error: %v", err)
			}
		}
	}
	return out
}

func TestScanPreOrder(t *testing.T) {
	root := buildTree(t)
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root})
	got := collect(t, nodes, errc)

	if got[0].Depth != 0 || got[0].Kind != node.Directory {
		t.Fatalf("first node = %+v, want root directory", got[0])
	}

	var names []string
	for _, n := range got {
		names = append(names, n.RelativePath)
	}
	wantContains := []string{"README.md", "src", "src/main.go", "src/util.go", ".git", ".git/HEAD"}
	for _, w := range wantContains {
		found := false
		for _, n := range names {
			if n == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %q among scanned paths, got %v", w, names)
		}
	}
}

func TestScanDefaultIgnore(t *testing.T) {
	root := buildTree(t)
	ignorer := filter.NewDefaultIgnoreMatcher()
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root, Ignorer: ignorer})
	got := collect(t, nodes, errc)

	for _, n := range got {
		if n.RelativePath == ".git" || n.RelativePath == ".git/HEAD" {
			t.Errorf("expected .git to be excluded by default ignore, found %q", n.RelativePath)
		}
	}
}

func TestScanPredicateExtension(t *testing.T) {
	root := buildTree(t)
	pred, err := filter.Compile(filter.PredicateOptions{Extensions: []string{"go"}})
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root, Predicate: pred})
	got := collect(t, nodes, errc)

	var fileNames []string
	dirSeen := false
	for _, n := range got {
		if n.Kind == node.Directory && n.RelativePath == "src" {
			dirSeen = true
		}
		if n.Kind == node.File {
			fileNames = append(fileNames, n.RelativePath)
		}
	}
	if !dirSeen {
		t.Error("expected scaffolding directory src to still appear despite extension filter")
	}
	for _, f := range fileNames {
		if filepath.Ext(f) != ".go" {
			t.Errorf("unexpected non-.go file in output: %s", f)
		}
	}
}

func TestScanLastSibling(t *testing.T) {
	root := buildTree(t)
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root})
	got := collect(t, nodes, errc)

	byPath := make(map[string]node.Node)
	for _, n := range got {
		byPath[n.RelativePath] = n
	}

	// Root's children, sorted: ".git", "README.md", "src" -- "src" is last.
	if n := byPath["src"]; !n.LastSibling {
		t.Errorf("expected src to be the last sibling at root depth, got %+v", n)
	}
	if n := byPath[".git"]; n.LastSibling {
		t.Errorf("expected .git to not be the last sibling at root depth")
	}
	// "src" has two children, sorted: "main.go", "util.go" -- "util.go" is last.
	if n := byPath["src/util.go"]; !n.LastSibling {
		t.Errorf("expected src/util.go to be the last sibling under src")
	}
	if n := byPath["src/main.go"]; n.LastSibling {
		t.Errorf("expected src/main.go to not be the last sibling under src")
	}
}

func TestScanContentSearch(t *testing.T) {
	root := buildTree(t)
	searcher, err := filter.NewSearcher(filter.SearcherOptions{Pattern: "package main", Literal: true})
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root, Searcher: searcher})
	got := collect(t, nodes, errc)

	matchCount := 0
	for _, n := range got {
		if n.Flags.SearchMatch {
			matchCount++
			if len(n.SearchHits) == 0 {
				t.Errorf("node %s flagged SearchMatch but has no hits", n.RelativePath)
			}
		}
	}
	if matchCount != 2 {
		t.Errorf("matchCount = %d, want 2 (main.go and util.go)", matchCount)
	}
}

func TestScanContentSearchRateLimited(t *testing.T) {
	root := buildTree(t)
	searcher, err := filter.NewSearcher(filter.SearcherOptions{Pattern: "package main", Literal: true})
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{
		Root:                root,
		Searcher:            searcher,
		SearchRatePerSecond: 1000,
	})
	got := collect(t, nodes, errc)

	matchCount := 0
	for _, n := range got {
		if n.Flags.SearchMatch {
			matchCount++
		}
	}
	if matchCount != 2 {
		t.Errorf("matchCount = %d, want 2 (main.go and util.go) with rate limiting enabled", matchCount)
	}
}

// TestScanMaxFilesAbortedMidDirectory exercises spec.md Scenario E against a
// single flat directory, not just across directory boundaries: the safety
// tracker must be consulted before every entry, not once per walkDir call,
// or a wide directory blows straight past max_files with no abort node at
// all (invariant 7).
func TestScanMaxFilesAbortedMidDirectory(t *testing.T) {
	root := t.TempDir()
	const total = 50
	const maxFiles = 20
	for i := 0; i < total; i++ {
		mustWrite(t, filepath.Join(root, fmt.Sprintf("f%03d.txt", i)), "x")
	}

	tracker := safety.NewTracker(safety.Limits{MaxFiles: maxFiles}, nil)
	s := New()
	nodes, errc := s.Scan(context.Background(), Options{Root: root, Tracker: tracker})
	got := collect(t, nodes, errc)

	fileCount := 0
	abortCount := 0
	for _, n := range got {
		if n.Flags.Aborted {
			abortCount++
			continue
		}
		if n.Kind == node.File {
			fileCount++
		}
	}

	if abortCount != 1 {
		t.Fatalf("abortCount = %d, want exactly 1 synthetic abort node", abortCount)
	}
	if fileCount > maxFiles {
		t.Errorf("fileCount = %d, want <= %d (max_files must bound a single wide directory, not just cross-directory scans)", fileCount, maxFiles)
	}
	if !got[len(got)-1].Flags.Aborted {
		t.Errorf("expected the abort node to be the final stream event")
	}
}
