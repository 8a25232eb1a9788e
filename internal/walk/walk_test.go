package walk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"treekit/internal/fsops"
)

// buildTree creates the fixture tree used across walker tests:
//
//	root/
//	  a.txt
//	  sub/
//	    b.txt
//	    deep/
//	      c.txt
//	  zed/
//	    y.txt
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dirs := []string{"sub", "sub/deep", "zed"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}

	files := []string{"a.txt", "sub/b.txt", "sub/deep/c.txt", "zed/y.txt"}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte(f), 0o644); err != nil {
			t.Fatalf("write %s: %v", f, err)
		}
	}

	return root
}

// TestWalkVisitsEveryNodeOnce verifies the at-most-once invariant and that
// every reachable node appears
func TestWalkVisitsEveryNodeOnce(t *testing.T) {
	root := buildTree(t)

	seen := map[string]int{}
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		seen[path]++
		return nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "zed"),
		filepath.Join(root, "sub/b.txt"),
		filepath.Join(root, "sub/deep"),
		filepath.Join(root, "zed/y.txt"),
		filepath.Join(root, "sub/deep/c.txt"),
	}
	if len(seen) != len(want) {
		t.Errorf("visited %d nodes, expected %d: %v", len(seen), len(want), seen)
	}
	for _, p := range want {
		if seen[p] != 1 {
			t.Errorf("node %s visited %d times, expected exactly 1", p, seen[p])
		}
	}
}

// TestWalkBreadthFirstOrder verifies all of one directory's entries are
// visited before any grandchild, and parents before children
func TestWalkBreadthFirstOrder(t *testing.T) {
	root := buildTree(t)

	var order []string
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		order = append(order, path)
		return nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	// os.ReadDir reports entries sorted by name, so the full order is
	// deterministic: level by level, siblings sorted.
	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "zed"),
		filepath.Join(root, "sub/b.txt"),
		filepath.Join(root, "sub/deep"),
		filepath.Join(root, "zed/y.txt"),
		filepath.Join(root, "sub/deep/c.txt"),
	}
	if len(order) != len(want) {
		t.Fatalf("visited %d nodes, expected %d: %v", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, expected %s", i, order[i], want[i])
		}
	}

	// Parent must precede each child
	pos := map[string]int{}
	for i, p := range order {
		pos[p] = i
	}
	for p, i := range pos {
		if p == root {
			continue
		}
		parent := filepath.Dir(p)
		pi, ok := pos[parent]
		if !ok {
			t.Errorf("node %s visited but parent %s never was", p, parent)
			continue
		}
		if pi >= i {
			t.Errorf("node %s (pos %d) visited before its parent %s (pos %d)", p, i, parent, pi)
		}
	}
}

// TestWalkNonRecursive verifies only direct children of the root are visited
func TestWalkNonRecursive(t *testing.T) {
	root := buildTree(t)

	var order []string
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		order = append(order, path)
		return nil
	}, Options{Recursive: false})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "zed"),
	}
	if len(order) != len(want) {
		t.Fatalf("visited %v, expected %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %s, expected %s", i, order[i], want[i])
		}
	}
}

// TestWalkFileRoot verifies walking a plain file visits just that file
func TestWalkFileRoot(t *testing.T) {
	root := buildTree(t)
	file := filepath.Join(root, "a.txt")

	var order []string
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(file, func(path string, rec *fsops.NodeRecord) error {
		order = append(order, path)
		if rec == nil || rec.Kind != fsops.KindFile {
			t.Errorf("expected a file record for %s, got %+v", path, rec)
		}
		return nil
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if len(order) != 1 || order[0] != file {
		t.Errorf("expected exactly [%s], got %v", file, order)
	}
}

// TestWalkMissingRootAborts verifies the default policy propagates the
// root probe failure
func TestWalkMissingRootAborts(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")

	visited := 0
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		visited++
		return nil
	}, DefaultOptions())

	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
	if !fsops.IsNotFound(err) {
		t.Errorf("expected a NotFound error, got %v", err)
	}
	if visited != 0 {
		t.Errorf("visitor invoked %d times on a failed walk", visited)
	}
}

// TestWalkErrorPolicyRecovers verifies a recovering policy keeps the walk alive
func TestWalkErrorPolicyRecovers(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")

	var gotPath string
	var gotRec *fsops.NodeRecord
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		gotPath = path
		gotRec = rec
		return nil
	}, Options{Recursive: true, OnError: MarkMissing})
	if err != nil {
		t.Fatalf("expected policy to recover, got %v", err)
	}

	if gotPath != root {
		t.Errorf("visitor saw path %s, expected %s", gotPath, root)
	}
	if gotRec == nil || gotRec.Kind != fsops.KindMissing {
		t.Errorf("expected a KindMissing substitute record, got %+v", gotRec)
	}
}

// failReadDirFS denies enumeration of a single directory, simulating a
// subtree whose listing fails mid-walk
type failReadDirFS struct {
	fsops.Filesystem
	failPath string
}

func (f failReadDirFS) ReadDir(path string) ([]string, error) {
	if path == f.failPath {
		return nil, fsops.Classify("readdir", path, fs.ErrPermission)
	}
	return f.Filesystem.ReadDir(path)
}

// TestWalkSubdirReadFailureRecovers verifies a recovering policy lets the
// walk continue past a directory whose enumeration fails, skipping only
// that directory's descendants
func TestWalkSubdirReadFailureRecovers(t *testing.T) {
	root := buildTree(t)
	wrapped := failReadDirFS{
		Filesystem: fsops.OSFilesystem{},
		failPath:   filepath.Join(root, "sub"),
	}

	var visited []string
	w := NewWalker(wrapped, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		visited = append(visited, path)
		return nil
	}, Options{Recursive: true, OnError: SkipErrors})
	if err != nil {
		t.Fatalf("expected policy to recover, got %v", err)
	}

	// sub itself is visited but its children are lost with the listing;
	// the rest of the tree still completes
	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "zed"),
		filepath.Join(root, "zed", "y.txt"),
	}
	if len(visited) != len(want) {
		t.Fatalf("visited %d nodes, expected %d: %v", len(visited), len(want), visited)
	}
	for i, p := range want {
		if visited[i] != p {
			t.Errorf("position %d: visited %s, expected %s", i, visited[i], p)
		}
	}
}

// TestWalkSubdirReadFailureAborts verifies that without a policy an
// enumeration failure surfaces and stops the walk
func TestWalkSubdirReadFailureAborts(t *testing.T) {
	root := buildTree(t)
	wrapped := failReadDirFS{
		Filesystem: fsops.OSFilesystem{},
		failPath:   filepath.Join(root, "sub"),
	}

	var visited []string
	w := NewWalker(wrapped, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		visited = append(visited, path)
		return nil
	}, DefaultOptions())
	if !fsops.IsAccessDenied(err) {
		t.Fatalf("expected AccessDenied, got %v", err)
	}

	// The root and its direct children are visited before sub expands
	if len(visited) != 4 {
		t.Errorf("visited %d nodes before the abort, expected 4: %v", len(visited), visited)
	}
	for _, p := range visited {
		if p == filepath.Join(root, "sub", "b.txt") {
			t.Error("visited a child of the failed directory")
		}
	}
}

// TestWalkErrorPolicyReraise verifies a re-raising policy terminates the walk
func TestWalkErrorPolicyReraise(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")
	boom := errors.New("policy says stop")

	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		return nil
	}, Options{Recursive: true, OnError: func(path string, err error) (*fsops.NodeRecord, error) {
		return nil, boom
	}})

	if !errors.Is(err, boom) {
		t.Errorf("expected the policy error, got %v", err)
	}
}

// TestWalkVisitorAborts verifies a visitor error halts the walk immediately
func TestWalkVisitorAborts(t *testing.T) {
	root := buildTree(t)
	stop := errors.New("enough")

	visited := 0
	w := NewWalker(fsops.OSFilesystem{}, nil)
	err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		visited++
		if visited == 3 {
			return stop
		}
		return nil
	}, DefaultOptions())

	if !errors.Is(err, stop) {
		t.Errorf("expected visitor error, got %v", err)
	}
	if visited != 3 {
		t.Errorf("visitor invoked %d times after abort, expected 3", visited)
	}
}

// TestWalkExcludePatterns verifies excluded entries are neither visited
// nor expanded
func TestWalkExcludePatterns(t *testing.T) {
	root := buildTree(t)

	tests := []struct {
		name      string
		patterns  []string
		wantMiss  []string
		wantVisit []string
	}{
		{
			name:      "exclude one file",
			patterns:  []string{"a.txt"},
			wantMiss:  []string{"a.txt"},
			wantVisit: []string{"sub", "sub/b.txt"},
		},
		{
			name:      "exclude directory prunes descendants",
			patterns:  []string{"sub"},
			wantMiss:  []string{"sub", "sub/b.txt", "sub/deep", "sub/deep/c.txt"},
			wantVisit: []string{"a.txt", "zed", "zed/y.txt"},
		},
		{
			name:      "doublestar matches at any depth",
			patterns:  []string{"**/*.txt"},
			wantMiss:  []string{"a.txt", "sub/b.txt", "sub/deep/c.txt", "zed/y.txt"},
			wantVisit: []string{"sub", "sub/deep", "zed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := map[string]bool{}
			w := NewWalker(fsops.OSFilesystem{}, nil)
			err := w.Walk(root, func(path string, rec *fsops.NodeRecord) error {
				seen[path] = true
				return nil
			}, Options{Recursive: true, Exclude: tt.patterns})
			if err != nil {
				t.Fatalf("Walk failed: %v", err)
			}

			for _, rel := range tt.wantMiss {
				if seen[filepath.Join(root, rel)] {
					t.Errorf("excluded node %s was visited", rel)
				}
			}
			for _, rel := range tt.wantVisit {
				if !seen[filepath.Join(root, rel)] {
					t.Errorf("node %s should have been visited", rel)
				}
			}
		})
	}
}
