package fsops

import (
	"os"
	"syscall"
	"time"
)

// NodeKind classifies a filesystem node
type NodeKind int

const (
	KindFile NodeKind = iota
	KindDirectory
	KindMissing
	KindOther // sockets, devices, symlinks, fifos
)

func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindMissing:
		return "missing"
	default:
		return "other"
	}
}

// NodeRecord is the metadata snapshot for one visited node.
// Immutable after creation; never persisted.
type NodeRecord struct {
	Path       string
	Kind       NodeKind
	Mode       os.FileMode
	UID        uint32
	GID        uint32
	Size       int64
	AccessTime time.Time
	ModTime    time.Time
	ChangeTime time.Time
	BirthTime  time.Time // zero on filesystems that do not report it
}

// IsDir reports whether the record describes a directory
func (r *NodeRecord) IsDir() bool { return r.Kind == KindDirectory }

// Probe performs exactly one metadata query against path and builds a
// NodeRecord from the result. Symlinks are not followed; a symlink probes
// as KindOther. Fails with ErrNotFound, ErrAccessDenied or ErrIO.
func Probe(fs Filesystem, path string) (*NodeRecord, error) {
	info, err := fs.Lstat(path)
	if err != nil {
		return nil, err
	}
	return NewRecord(path, info), nil
}

// NewRecord builds a NodeRecord from stat results
func NewRecord(path string, info os.FileInfo) *NodeRecord {
	rec := &NodeRecord{
		Path:    path,
		Kind:    kindOf(info.Mode()),
		Mode:    info.Mode(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		rec.UID = st.Uid
		rec.GID = st.Gid
		rec.AccessTime = time.Unix(st.Atim.Sec, st.Atim.Nsec)
		rec.ChangeTime = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		// Linux stat does not expose a birth time
	}
	return rec
}

// MissingRecord builds the substitute record an error policy may hand back
// for a node that vanished mid-operation
func MissingRecord(path string) *NodeRecord {
	return &NodeRecord{Path: path, Kind: KindMissing}
}

func kindOf(mode os.FileMode) NodeKind {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}
