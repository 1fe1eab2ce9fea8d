// Package fileutil provides file helpers for files that hold credentials or
// user exports. They are best-effort wrappers around os.* and do not protect
// against symlink traversal or TOCTOU races.
package fileutil

import "os"

// SecureWriteFile writes data to the named file, creating it if necessary.
// The mode is applied with an explicit chmod afterwards, so an existing file
// with looser permissions is tightened and the umask does not widen it.
func SecureWriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return SecureChmod(path, perm)
}

// SecureMkdirAll creates a directory path and all parents that do not yet exist.
func SecureMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// SecureChmod changes the mode of the named file.
func SecureChmod(path string, perm os.FileMode) error {
	return os.Chmod(path, perm)
}

// SecureOpenFile opens the named file with specified flag and permissions.
func SecureOpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}
