package fsops

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error kinds for single-node primitive failures.
// Every OSFilesystem error matches exactly one of these via errors.Is.
var (
	ErrNotFound     = errors.New("path not found")
	ErrAccessDenied = errors.New("access denied")
	ErrIO           = errors.New("i/o failure")
)

// OpError is a classified failure of one primitive call against one path
type OpError struct {
	Op   string // primitive that failed: lstat, readdir, mkdir, rmdir, rm, open
	Path string
	Kind error // one of ErrNotFound, ErrAccessDenied, ErrIO
	Err  error // underlying OS error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports kind membership so callers can branch with errors.Is
func (e *OpError) Is(target error) bool { return target == e.Kind }

// Classify wraps an OS error into an OpError with its kind determined.
// Returns nil for a nil error.
func Classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	// Already classified (e.g. passed through a wrapper)
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	kind := ErrIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ErrAccessDenied
	}
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// IsNotFound reports whether err is a NotFound-kind failure
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAccessDenied reports whether err is an AccessDenied-kind failure
func IsAccessDenied(err error) bool { return errors.Is(err, ErrAccessDenied) }
