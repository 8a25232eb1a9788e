package disk

import (
	"os"
	"sync/atomic"
	"syscall"

	"github.com/charlievieth/fastwalk"
)

// GetDiskUsage returns the percentage of disk space used for a given path
func GetDiskUsage(path string) (usedPercent float64, freeBytes int64, totalBytes int64, err error) {
	var stat syscall.Statfs_t
	err = syscall.Statfs(path, &stat)
	if err != nil {
		return 0, 0, 0, err
	}

	totalBytes = int64(stat.Blocks) * int64(stat.Bsize)
	freeBytes = int64(stat.Bavail) * int64(stat.Bsize)
	usedBytes := totalBytes - freeBytes

	if totalBytes > 0 {
		usedPercent = (float64(usedBytes) / float64(totalBytes)) * 100.0
	}

	return usedPercent, freeBytes, totalBytes, nil
}

// GetFreePercent returns the percentage of free disk space
func GetFreePercent(path string) (float64, error) {
	usedPercent, _, _, err := GetDiskUsage(path)
	if err != nil {
		return 0, err
	}
	return 100.0 - usedPercent, nil
}

// TreeSize totals the bytes of every regular file under root using a
// concurrent unordered walk. Unlike the ordered traversal engine this
// makes no visitation-order guarantees; it exists purely for fast size
// accounting. Unreadable nodes are skipped, not fatal.
func TreeSize(root string) (bytes int64, files int64, err error) {
	conf := fastwalk.Config{Follow: false}

	var totalBytes, totalFiles int64
	err = fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			atomic.AddInt64(&totalBytes, info.Size())
			atomic.AddInt64(&totalFiles, 1)
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return atomic.LoadInt64(&totalBytes), atomic.LoadInt64(&totalFiles), nil
}
