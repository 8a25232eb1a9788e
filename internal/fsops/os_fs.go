package fsops

import (
	"io"
	"os"
)

// OSFilesystem implements Filesystem using real os package calls.
// Every error it returns is classified into an OpError.
type OSFilesystem struct{}

func (OSFilesystem) Lstat(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, Classify("lstat", path, err)
	}
	return info, nil
}

func (OSFilesystem) ReadDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, Classify("readdir", path, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

func (OSFilesystem) Mkdir(path string, mode os.FileMode) error {
	return Classify("mkdir", path, os.Mkdir(path, mode))
}

func (OSFilesystem) RemoveDir(path string) error {
	return Classify("rmdir", path, os.Remove(path))
}

func (OSFilesystem) RemoveFile(path string) error {
	return Classify("rm", path, os.Remove(path))
}

func (OSFilesystem) OpenRead(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Classify("open", path, err)
	}
	return f, nil
}

func (OSFilesystem) OpenWrite(path string, mode os.FileMode) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return nil, Classify("open", path, err)
	}
	return f, nil
}
