package copy

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"treekit/internal/audit"
	"treekit/internal/fsops"
	"treekit/internal/limiter"
	"treekit/internal/metrics"
	"treekit/internal/mktree"
	"treekit/internal/walk"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultBufferSize = 128 * 1024

// ErrDestinationInside marks a tree copy whose destination lies inside the
// source subtree. Such a copy would keep re-discovering the directories it
// just created and nest them without bound, so it is refused up front.
var ErrDestinationInside = errors.New("destination is inside the source tree")

// Logger interface for structured logging in copy operations
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// stdLogger wraps standard log.Logger to implement Logger interface
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{})  { l.logWithLevel("INFO", msg, args...) }
func (l *stdLogger) Warn(msg string, args ...interface{})  { l.logWithLevel("WARN", msg, args...) }
func (l *stdLogger) Error(msg string, args ...interface{}) { l.logWithLevel("ERROR", msg, args...) }

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	var parts []interface{}
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// Metrics interface for copy metrics
type Metrics interface {
	BytesCopiedTotal() prometheus.Counter
	ErrorsTotal() prometheus.Counter
	WalkDuration() prometheus.Histogram
}

// globalMetrics wraps package-level metrics to implement Metrics interface
type globalMetrics struct{}

func (m *globalMetrics) BytesCopiedTotal() prometheus.Counter { return metrics.BytesCopiedTotal }
func (m *globalMetrics) ErrorsTotal() prometheus.Counter      { return metrics.ErrorsTotal }
func (m *globalMetrics) WalkDuration() prometheus.Histogram   { return metrics.WalkDuration }

// Result summarizes a completed tree copy
type Result struct {
	Files       int
	Directories int
	Bytes       int64
}

// Copier copies files and whole subtrees
type Copier struct {
	fs       fsops.Filesystem
	walker   *walk.Walker
	creator  *mktree.Creator
	logger   Logger
	metrics  Metrics
	auditLog *audit.Log
	bufSize  int
}

// NewCopier creates a Copier over the given filesystem surface
func NewCopier(fs fsops.Filesystem, logger *log.Logger) *Copier {
	if logger == nil {
		logger = log.Default()
	}
	return &Copier{
		fs:      fs,
		walker:  walk.NewWalker(fs, logger),
		creator: mktree.NewCreator(fs),
		logger:  &stdLogger{Logger: logger},
		metrics: &globalMetrics{},
		bufSize: defaultBufferSize,
	}
}

// SetAudit installs the operation history log
func (c *Copier) SetAudit(l *audit.Log) { c.auditLog = l }

// SetThrottle installs a CPU throttle on the source walk
func (c *Copier) SetThrottle(t *limiter.Throttle) { c.walker.SetThrottle(t) }

// SetBufferSize overrides the transfer chunk size
func (c *Copier) SetBufferSize(n int) {
	if n > 0 {
		c.bufSize = n
	}
}

// CopyFile streams bytes from source to destination, succeeding only once
// the destination reports completion. The first error from either side
// wins, and the counterpart stream is closed immediately rather than left
// open. The destination is created with the source's permission bits.
func (c *Copier) CopyFile(source, destination string) (int64, error) {
	rec, err := fsops.Probe(c.fs, source)
	if err != nil {
		return 0, err
	}
	if rec.IsDir() {
		return 0, fmt.Errorf("copy %s: source is a directory", source)
	}

	n, err := c.transfer(source, destination, rec)
	if err != nil {
		c.metrics.ErrorsTotal().Inc()
		return n, err
	}
	c.metrics.BytesCopiedTotal().Add(float64(n))
	return n, nil
}

func (c *Copier) transfer(source, destination string, rec *fsops.NodeRecord) (int64, error) {
	r, err := c.fs.OpenRead(source)
	if err != nil {
		return 0, err
	}

	w, err := c.fs.OpenWrite(destination, rec.Mode.Perm())
	if err != nil {
		r.Close()
		return 0, err
	}

	buf := make([]byte, c.bufSize)
	n, err := io.CopyBuffer(w, r, buf)

	// Close both sides unconditionally; an error on one side must not
	// leak the other handle.
	cerr := w.Close()
	r.Close()

	if err != nil {
		return n, fsops.Classify("copy", source, err)
	}
	if cerr != nil {
		return n, fsops.Classify("copy", destination, cerr)
	}
	return n, nil
}

// CopyTree replicates the subtree rooted at source under destination.
// The source is walked breadth-first, so every directory is recreated
// before anything inside it; files are streamed with CopyFile and keep
// their permission bits. Symlinks, sockets and other special nodes are
// skipped with a warning. The first failure aborts the copy; nodes
// copied before it remain at the destination.
func (c *Copier) CopyTree(source, destination string) (Result, error) {
	opID := uuid.NewString()
	var res Result

	rootRec, err := fsops.Probe(c.fs, source)
	if err != nil {
		return res, err
	}

	// A file source degenerates to a single-file copy
	if !rootRec.IsDir() {
		n, err := c.CopyFile(source, destination)
		if err != nil {
			c.record(opID, "ERROR", destination, rootRec.Kind, 0, err.Error())
			return res, err
		}
		c.record(opID, "COPY", destination, rootRec.Kind, n, "")
		res.Files = 1
		res.Bytes = n
		return res, nil
	}

	if containsPath(source, destination) {
		err := fsops.Classify("copy", destination, ErrDestinationInside)
		c.record(opID, "ERROR", destination, rootRec.Kind, 0, err.Error())
		return res, err
	}

	if err := c.creator.MakeTreePath(destination, rootRec.Mode.Perm()); err != nil {
		return res, err
	}
	res.Directories++

	walkStart := time.Now()
	err = c.walker.Walk(source, func(path string, rec *fsops.NodeRecord) error {
		if path == source || rec == nil {
			return nil
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destination, rel)

		switch rec.Kind {
		case fsops.KindDirectory:
			// Parent directories are guaranteed by breadth-first order
			if err := c.fs.Mkdir(target, rec.Mode.Perm()); err != nil {
				c.record(opID, "ERROR", target, rec.Kind, 0, err.Error())
				return err
			}
			c.record(opID, "MKDIR", target, rec.Kind, 0, "")
			res.Directories++

		case fsops.KindFile:
			n, err := c.transfer(path, target, rec)
			if err != nil {
				c.metrics.ErrorsTotal().Inc()
				c.record(opID, "ERROR", target, rec.Kind, n, err.Error())
				return err
			}
			c.metrics.BytesCopiedTotal().Add(float64(n))
			c.record(opID, "COPY", target, rec.Kind, n, "")
			res.Files++
			res.Bytes += n

		default:
			c.logger.Warn("Skipping special node", "path", path, "kind", rec.Kind.String())
			c.record(opID, "SKIP", path, rec.Kind, 0, "special node")
		}

		return nil
	}, walk.DefaultOptions())
	c.metrics.WalkDuration().Observe(time.Since(walkStart).Seconds())

	if err != nil {
		return res, err
	}

	c.logger.Info("Tree copy complete",
		"op_id", opID,
		"source", source,
		"destination", destination,
		"files", res.Files,
		"dirs", res.Directories,
		"bytes", res.Bytes,
	)

	return res, nil
}

// containsPath reports whether child is root itself or lies under it
func containsPath(root, child string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// record writes an audit row, never failing the copy on a logging error
func (c *Copier) record(opID, action, path string, kind fsops.NodeKind, size int64, errMsg string) {
	if c.auditLog == nil {
		return
	}
	if err := c.auditLog.Record(opID, "copy", action, path, kind, size, errMsg); err != nil {
		c.logger.Error("Failed to record to audit log", "error", err)
	}
}
