package walk

import (
	"fmt"
	"log"
	"path/filepath"

	"treekit/internal/fsops"
	"treekit/internal/limiter"

	"github.com/bmatcuk/doublestar/v4"
)

// Logger interface for structured logging
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// stdLogger wraps standard log.Logger to implement Logger interface
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *stdLogger) Warn(msg string, args ...interface{}) {
	l.logWithLevel("WARN", msg, args...)
}

func (l *stdLogger) Debug(msg string, args ...interface{}) {
	l.logWithLevel("DEBUG", msg, args...)
}

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	var parts []interface{}
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// Visitor is invoked exactly once per discovered node. rec is nil when an
// error policy recovered a probe failure without a substitute record.
// A non-nil return terminates the walk with that error.
type Visitor func(path string, rec *fsops.NodeRecord) error

// ErrorPolicy decides what happens when probing or enumerating a node fails.
// Returning a nil error continues the walk, visiting the node with the
// returned record (which may be nil). Returning a non-nil error terminates
// the walk with that error.
type ErrorPolicy func(path string, err error) (*fsops.NodeRecord, error)

// SkipErrors continues past any probe failure without a substitute record
func SkipErrors(path string, err error) (*fsops.NodeRecord, error) {
	return nil, nil
}

// MarkMissing substitutes a KindMissing record for vanished nodes and
// re-raises everything else
func MarkMissing(path string, err error) (*fsops.NodeRecord, error) {
	if fsops.IsNotFound(err) {
		return fsops.MissingRecord(path), nil
	}
	return nil, err
}

// Options configures one walk invocation
type Options struct {
	// Recursive controls whether descendants beyond the root's direct
	// children are visited. Default true.
	Recursive bool

	// OnError is consulted on every probe or enumeration failure.
	// When nil, the first failure terminates the walk.
	OnError ErrorPolicy

	// Exclude holds doublestar patterns matched against each entry's
	// slash-separated path relative to the walk root. A matching entry is
	// neither visited nor expanded.
	Exclude []string
}

// DefaultOptions returns the options a bare walk runs with
func DefaultOptions() Options {
	return Options{Recursive: true}
}

// Walker performs breadth-first traversal of a directory tree.
// A Walker is stateless across invocations; each Walk call owns its queue.
type Walker struct {
	fs       fsops.Filesystem
	logger   Logger
	throttle *limiter.Throttle
}

// NewWalker creates a Walker over the given filesystem surface
func NewWalker(fs fsops.Filesystem, logger *log.Logger) *Walker {
	if logger == nil {
		logger = log.Default()
	}
	return &Walker{
		fs:     fs,
		logger: &stdLogger{Logger: logger},
	}
}

// SetThrottle installs CPU pacing applied once per directory expansion
func (w *Walker) SetThrottle(t *limiter.Throttle) {
	w.throttle = t
}

// Walk probes root, visits it, then drains a FIFO queue of directories,
// visiting every reachable node exactly once in breadth-first order.
// All of one directory's direct entries are visited before any grandchild;
// sibling order follows the underlying directory listing. No node is
// visited before its parent directory.
func (w *Walker) Walk(root string, visit Visitor, opts Options) error {
	rec, err := fsops.Probe(w.fs, root)
	if err != nil {
		rec, err = w.recover(opts, root, err)
		if err != nil {
			return err
		}
	}
	if err := visit(root, rec); err != nil {
		return err
	}
	if rec == nil || !rec.IsDir() {
		return nil
	}

	// The queue holds only directory paths, never files
	queue := []string{root}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		if w.throttle != nil {
			w.throttle.Pace()
		}

		names, err := w.fs.ReadDir(dir)
		if err != nil {
			// An enumeration failure (e.g. the directory was deleted
			// mid-walk) follows the same recovery rule as a probe failure
			// for this expansion step.
			if _, rerr := w.recover(opts, dir, err); rerr != nil {
				return rerr
			}
			continue
		}

		for _, name := range names {
			entry := filepath.Join(dir, name)

			if w.excluded(root, entry, opts.Exclude) {
				continue
			}

			entryRec, err := fsops.Probe(w.fs, entry)
			if err != nil {
				entryRec, err = w.recover(opts, entry, err)
				if err != nil {
					return err
				}
			}
			if err := visit(entry, entryRec); err != nil {
				return err
			}
			if opts.Recursive && entryRec != nil && entryRec.IsDir() {
				queue = append(queue, entry)
			}
		}
	}

	return nil
}

// recover consults the error policy for a failed node
func (w *Walker) recover(opts Options, path string, err error) (*fsops.NodeRecord, error) {
	if opts.OnError == nil {
		return nil, err
	}
	rec, perr := opts.OnError(path, err)
	if perr != nil {
		return nil, perr
	}
	w.logger.Debug("Recovered node failure", "path", path, "error", err)
	return rec, nil
}

// excluded checks entry against the exclude patterns, relative to root
func (w *Walker) excluded(root, entry string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, entry)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			w.logger.Warn("Invalid exclude pattern", "pattern", pattern, "error", err)
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
