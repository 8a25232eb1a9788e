package safety

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRemoveTarget(t *testing.T) {
	allowed := t.TempDir()
	v := NewValidator([]string{allowed}, nil)

	inside := filepath.Join(allowed, "data")
	if err := os.Mkdir(inside, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"inside allowed root", inside, nil},
		{"allowed root itself", allowed, nil},
		{"filesystem root", "/", ErrProtectedPath},
		{"etc", "/etc", ErrProtectedPath},
		{"under etc", "/etc/passwd", ErrProtectedPath},
		{"usr", "/usr/local", ErrProtectedPath},
		{"own state directory", "/var/lib/treekit", ErrProtectedPath},
		{"own config directory", "/etc/treekit/config.yaml", ErrProtectedPath},
		{"outside allowed roots", "/home/nobody/file", ErrOutsideAllowed},
		{"traversal in raw input", inside + "/../../../../etc", ErrProtectedPath},
		{"empty path", "", ErrInvalidPath},
		{"whitespace path", "   ", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRemoveTarget(tt.path)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, expected %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRemoveTargetTraversal(t *testing.T) {
	allowed := t.TempDir()
	v := NewValidator([]string{allowed}, nil)

	// Raw ".." segments are refused even when the cleaned path stays inside
	raw := allowed + string(filepath.Separator) + "a" + string(filepath.Separator) + ".." + string(filepath.Separator) + "b"
	err := v.ValidateRemoveTarget(raw)
	if !errors.Is(err, ErrTraversal) {
		t.Errorf("got %v, expected ErrTraversal", err)
	}
}

func TestValidateRemoveTargetExtraProtected(t *testing.T) {
	allowed := t.TempDir()
	sacred := filepath.Join(allowed, "keep")
	v := NewValidator([]string{allowed}, []string{sacred})

	if err := v.ValidateRemoveTarget(sacred); !errors.Is(err, ErrProtectedPath) {
		t.Errorf("extra protected path not enforced: %v", err)
	}
	if err := v.ValidateRemoveTarget(filepath.Join(sacred, "inner")); !errors.Is(err, ErrProtectedPath) {
		t.Errorf("descendant of extra protected path not enforced: %v", err)
	}
}

func TestValidateRemoveTargetSymlinkEscape(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()
	v := NewValidator([]string{allowed}, nil)

	link := filepath.Join(allowed, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	if err := v.ValidateRemoveTarget(link); !errors.Is(err, ErrSymlinkEscape) {
		t.Errorf("got %v, expected ErrSymlinkEscape", err)
	}
}

func TestValidateRemoveTargetMissingPathAllowed(t *testing.T) {
	allowed := t.TempDir()
	v := NewValidator([]string{allowed}, nil)

	// A not-yet-existing target passes validation; the removal itself
	// will report it missing
	if err := v.ValidateRemoveTarget(filepath.Join(allowed, "ghost")); err != nil {
		t.Errorf("missing target rejected: %v", err)
	}
}

func TestIsWithinAllowedRoots(t *testing.T) {
	roots := []string{"/srv/data", "/mnt/scratch"}

	tests := []struct {
		path string
		want bool
	}{
		{"/srv/data", true},
		{"/srv/data/sub/file", true},
		{"/mnt/scratch/x", true},
		{"/srv/database", false},
		{"/srv", false},
		{"/", false},
	}

	for _, tt := range tests {
		if got := IsWithinAllowedRoots(tt.path, roots); got != tt.want {
			t.Errorf("IsWithinAllowedRoots(%q) = %v, expected %v", tt.path, got, tt.want)
		}
	}
}

func TestDetectTraversal(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"/a/b/c", false},
		{"/a/../b", true},
		{"..", true},
		{"/a/..hidden", false},
		{"a/b/..", true},
	}

	for _, tt := range tests {
		if got := DetectTraversal(tt.raw); got != tt.want {
			t.Errorf("DetectTraversal(%q) = %v, expected %v", tt.raw, got, tt.want)
		}
	}
}
