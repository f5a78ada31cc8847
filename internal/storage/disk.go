package storage

import (
	"os"
	"path/filepath"
)

// DiskUsageBytes returns the total size in bytes of all regular files under
// path. A missing path counts as zero; unreadable entries are skipped.
func DiskUsageBytes(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FileSizeBytes returns the size of the file at path, or zero when the file
// does not exist.
func FileSizeBytes(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return info.Size()
}
