package fsops

import (
	"io"
	"os"
)

// Recorder wraps a Filesystem and records every mutating call.
// Tests use it to prove dry-run never mutates and to assert deletion order.
type Recorder struct {
	FS    Filesystem
	Calls []string
}

func (r *Recorder) Lstat(path string) (os.FileInfo, error) { return r.FS.Lstat(path) }

func (r *Recorder) ReadDir(path string) ([]string, error) { return r.FS.ReadDir(path) }

func (r *Recorder) Mkdir(path string, mode os.FileMode) error {
	r.Calls = append(r.Calls, "mkdir:"+path)
	return r.FS.Mkdir(path, mode)
}

func (r *Recorder) RemoveDir(path string) error {
	r.Calls = append(r.Calls, "rmdir:"+path)
	return r.FS.RemoveDir(path)
}

func (r *Recorder) RemoveFile(path string) error {
	r.Calls = append(r.Calls, "rm:"+path)
	return r.FS.RemoveFile(path)
}

func (r *Recorder) OpenRead(path string) (io.ReadCloser, error) {
	return r.FS.OpenRead(path)
}

func (r *Recorder) OpenWrite(path string, mode os.FileMode) (io.WriteCloser, error) {
	r.Calls = append(r.Calls, "write:"+path)
	return r.FS.OpenWrite(path, mode)
}
