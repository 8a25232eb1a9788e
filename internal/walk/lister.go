package walk

import (
	"log"

	"treekit/internal/fsops"
)

// Lister accumulates a walk's visitor stream into an ordered collection.
// A directory root's own entry is never included: a listing describes a
// directory's contents, not the directory.
type Lister struct {
	walker *Walker
}

// NewLister creates a Lister over the given filesystem surface
func NewLister(fs fsops.Filesystem, logger *log.Logger) *Lister {
	return &Lister{walker: NewWalker(fs, logger)}
}

// Walker exposes the underlying walker so callers can install pacing
func (l *Lister) Walker() *Walker { return l.walker }

// Records lists the subtree under root as full metadata records in
// breadth-first visitation order. Listing a single file yields that file's
// own record. Nodes an error policy recovered without a substitute record
// are omitted. Fails with whatever the underlying walk failed with.
func (l *Lister) Records(root string, opts Options) ([]fsops.NodeRecord, error) {
	var out []fsops.NodeRecord
	err := l.walker.Walk(root, func(path string, rec *fsops.NodeRecord) error {
		if rec == nil {
			return nil
		}
		if path == root && rec.IsDir() {
			return nil
		}
		out = append(out, *rec)
		return nil
	}, opts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Paths lists the subtree under root as bare paths in breadth-first
// visitation order
func (l *Lister) Paths(root string, opts Options) ([]string, error) {
	records, err := l.Records(root, opts)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].Path
	}
	return out, nil
}
