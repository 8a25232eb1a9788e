// Package mktree builds every missing ancestor directory of a target path.
package mktree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"treekit/internal/audit"
	"treekit/internal/fsops"
	"treekit/internal/metrics"
	"treekit/internal/paths"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ErrAncestorNotDir marks an existing ancestor segment that is not a
	// directory. Deeper levels are never attempted past such a collision.
	ErrAncestorNotDir = errors.New("existing ancestor is not a directory")

	errRelativePath = errors.New("target path must be absolute")
)

// Metrics interface for creation metrics
type Metrics interface {
	DirsCreatedTotal() prometheus.Counter
}

// globalMetrics wraps package-level metrics to implement Metrics interface
type globalMetrics struct{}

func (m *globalMetrics) DirsCreatedTotal() prometheus.Counter { return metrics.DirsCreatedTotal }

// Creator creates directory chains one level at a time
type Creator struct {
	fs       fsops.Filesystem
	metrics  Metrics
	auditLog *audit.Log
}

// NewCreator creates a Creator over the given filesystem surface
func NewCreator(fs fsops.Filesystem) *Creator {
	return &Creator{fs: fs, metrics: &globalMetrics{}}
}

// SetAudit installs the operation history log
func (c *Creator) SetAudit(l *audit.Log) { c.auditLog = l }

// MakeTreePath ensures path and every ancestor of it exist as directories,
// creating missing levels with the given mode in shallow-to-deep order.
// Each creation is a single-level primitive: by the time a level is
// created, all shallower levels are guaranteed to exist. A path whose
// every ancestor already exists is a no-op reported as success. An
// existing non-directory ancestor fails with ErrAncestorNotDir without
// touching deeper levels; levels created before the collision remain.
func (c *Creator) MakeTreePath(path string, mode os.FileMode) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", errRelativePath, path)
	}

	opID := uuid.NewString()

	for _, ancestor := range paths.Ancestors(path) {
		rec, err := fsops.Probe(c.fs, ancestor)
		if err != nil {
			if !fsops.IsNotFound(err) {
				return err
			}
			if err := c.fs.Mkdir(ancestor, mode); err != nil {
				c.record(opID, "ERROR", ancestor, err.Error())
				return err
			}
			c.record(opID, "MKDIR", ancestor, "")
			c.metrics.DirsCreatedTotal().Inc()
			continue
		}
		if !rec.IsDir() {
			err := fmt.Errorf("%w: %s", ErrAncestorNotDir, ancestor)
			c.record(opID, "ERROR", ancestor, err.Error())
			return err
		}
	}

	return nil
}

// record writes an audit row, never failing the creation on a logging error
func (c *Creator) record(opID, action, path, errMsg string) {
	if c.auditLog == nil {
		return
	}
	// Creation errors are best-effort history; ignore audit failures here
	_ = c.auditLog.Record(opID, "mktree", action, path, fsops.KindDirectory, 0, errMsg)
}
