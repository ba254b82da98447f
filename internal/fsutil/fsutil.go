// Package fsutil provides filesystem helpers shared by the stores and the installer.
package fsutil

import (
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path atomically using a temp file + rename.
// The temp file is created in the same directory as path so the rename stays on
// one filesystem. If the operation fails, the original file (if any) is left
// unchanged. The caller must ensure the parent directory exists.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".sunrised-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Chmod before rename so the file never appears with temp-file permissions.
	if err := os.Chmod(tmpPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	success = true
	return nil
}
