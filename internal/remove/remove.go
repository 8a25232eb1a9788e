package remove

import (
	"fmt"
	"log"
	"strings"
	"time"

	"treekit/internal/audit"
	"treekit/internal/fsops"
	"treekit/internal/metrics"
	"treekit/internal/safety"
	"treekit/internal/walk"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Logger interface for structured logging in removal
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// stdLogger wraps standard log.Logger to implement Logger interface
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *stdLogger) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	var parts []interface{}
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// Metrics interface for removal metrics
type Metrics interface {
	NodesRemovedTotal() prometheus.Counter
	BytesRemovedTotal() prometheus.Counter
	ErrorsTotal() prometheus.Counter
	WalkDuration() prometheus.Histogram
}

// globalMetrics wraps package-level metrics to implement Metrics interface
type globalMetrics struct{}

func (m *globalMetrics) NodesRemovedTotal() prometheus.Counter { return metrics.NodesRemovedTotal }
func (m *globalMetrics) BytesRemovedTotal() prometheus.Counter { return metrics.BytesRemovedTotal }
func (m *globalMetrics) ErrorsTotal() prometheus.Counter       { return metrics.ErrorsTotal }
func (m *globalMetrics) WalkDuration() prometheus.Histogram    { return metrics.WalkDuration }

// PartialError reports a tree removal aborted mid-sequence. Every node
// counted in Removed stays deleted; nothing is rolled back. The caller
// should inspect the remainder and retry.
type PartialError struct {
	Root       string
	Removed    int    // nodes deleted before the abort
	FailedPath string // node whose deletion failed
	Err        error  // first unrecoverable cause
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("remove %s: aborted at %s after %d deletions: %v",
		e.Root, e.FailedPath, e.Removed, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Result summarizes a completed removal
type Result struct {
	Removed    int
	BytesFreed int64
}

// Remover deletes whole subtrees bottom-up
type Remover struct {
	fs        fsops.Filesystem
	lister    *walk.Lister
	logger    Logger
	metrics   Metrics
	validator *safety.Validator
	auditLog  *audit.Log
	dryRun    bool
}

// NewRemover creates a Remover over the given filesystem surface
func NewRemover(fs fsops.Filesystem, logger *log.Logger) *Remover {
	if logger == nil {
		logger = log.Default()
	}
	return &Remover{
		fs:      fs,
		lister:  walk.NewLister(fs, logger),
		logger:  &stdLogger{Logger: logger},
		metrics: &globalMetrics{},
	}
}

// SetValidator installs safety enforcement consulted before any deletion
func (r *Remover) SetValidator(v *safety.Validator) { r.validator = v }

// SetAudit installs the operation history log
func (r *Remover) SetAudit(l *audit.Log) { r.auditLog = l }

// SetDryRun toggles dry-run mode: walk and report, never delete
func (r *Remover) SetDryRun(dryRun bool) { r.dryRun = dryRun }

// Lister exposes the underlying lister so callers can install pacing
func (r *Remover) Lister() *walk.Lister { return r.lister }

// RemoveTree deletes the subtree rooted at root. The detailed listing is
// processed in reverse visitation order, so every child is deleted before
// its parent directory and the root goes last. Processing is strictly
// sequential; the first deletion failure aborts the remainder and surfaces
// as a PartialError. Partial deletion is an observable outcome.
func (r *Remover) RemoveTree(root string, recursive bool) (Result, error) {
	opID := uuid.NewString()
	var res Result

	if r.validator != nil {
		if err := r.validator.ValidateRemoveTarget(root); err != nil {
			r.record(opID, "SKIP", root, fsops.KindOther, 0, err.Error())
			r.metrics.ErrorsTotal().Inc()
			return res, err
		}
	}

	rootRec, err := fsops.Probe(r.fs, root)
	if err != nil {
		return res, err
	}

	seq := []fsops.NodeRecord{*rootRec}
	if rootRec.IsDir() {
		walkStart := time.Now()
		listed, err := r.lister.Records(root, walk.Options{Recursive: recursive})
		r.metrics.WalkDuration().Observe(time.Since(walkStart).Seconds())
		if err != nil {
			return res, err
		}
		seq = append(seq, listed...)
	}

	r.logger.Info("Starting tree removal",
		"op_id", opID,
		"root", root,
		"nodes", len(seq),
		"dry_run", r.dryRun,
	)

	// Reverse visitation order: parents precede children in a
	// breadth-first listing, so walking backwards deletes leaves first
	// and never removes a non-empty directory.
	for i := len(seq) - 1; i >= 0; i-- {
		node := seq[i]

		if r.dryRun {
			r.logger.Info("[DRY RUN] Would remove", "path", node.Path, "kind", node.Kind.String())
			r.record(opID, "DRY_RUN", node.Path, node.Kind, node.Size, "")
			continue
		}

		var err error
		if node.IsDir() {
			err = r.fs.RemoveDir(node.Path)
		} else {
			err = r.fs.RemoveFile(node.Path)
		}

		if err != nil {
			// A node deleted out from under us by a concurrent operation
			// is not a failure; the bottom-up order is unaffected.
			if fsops.IsNotFound(err) {
				r.logger.Info("Node already gone", "path", node.Path)
				continue
			}

			r.logger.Error("Failed to remove", "path", node.Path, "error", err)
			r.record(opID, "ERROR", node.Path, node.Kind, node.Size, err.Error())
			r.metrics.ErrorsTotal().Inc()
			return res, &PartialError{
				Root:       root,
				Removed:    res.Removed,
				FailedPath: node.Path,
				Err:        err,
			}
		}

		r.logStructured("DELETE", node.Path, node.Kind.String(), node.Size)
		r.record(opID, "DELETE", node.Path, node.Kind, node.Size, "")

		res.Removed++
		res.BytesFreed += node.Size
		r.metrics.NodesRemovedTotal().Inc()
		r.metrics.BytesRemovedTotal().Add(float64(node.Size))
	}

	r.logger.Info("Tree removal complete",
		"op_id", opID,
		"root", root,
		"removed", res.Removed,
		"bytes_freed", res.BytesFreed,
	)

	return res, nil
}

// record writes an audit row, never failing the removal on a logging error
func (r *Remover) record(opID, action, path string, kind fsops.NodeKind, size int64, errMsg string) {
	if r.auditLog == nil {
		return
	}
	if err := r.auditLog.Record(opID, "remove", action, path, kind, size, errMsg); err != nil {
		r.logger.Error("Failed to record to audit log", "error", err)
	}
}

// logStructured logs with structured format: timestamp, action, path, object type, size
func (r *Remover) logStructured(action, path, objectType string, size int64) {
	entry := fmt.Sprintf("[%s] %s path=%s object=%s size=%d",
		time.Now().UTC().Format(time.RFC3339),
		action,
		path,
		objectType,
		size,
	)
	r.logger.Info(strings.TrimSpace(entry))
}
