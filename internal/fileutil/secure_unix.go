//go:build unix

// Package fileutil provides owner-only file helpers. On Unix the mode bits
// do the work; on Windows owner-only modes also get a DACL limited to the
// current user.
package fileutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// SecureMkdirAll creates path and any missing parents with perm.
func SecureMkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// CreateExclusive creates a new file for writing. It fails if path already
// exists or is a symlink.
func CreateExclusive(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|unix.O_NOFOLLOW, perm)
}

// SecureWriteFile writes data to path, replacing any existing file.
func SecureWriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
