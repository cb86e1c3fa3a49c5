//go:build !windows

package scanner

import (
	"golang.org/x/sys/unix"
)

// AccessReadable reports whether path is readable by the current process,
// using the platform's native access(2) check rather than an open-and-close
// probe that would leave file descriptors or directory handles behind.
func AccessReadable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

// AccessWritable reports whether path is writable by the current process.
func AccessWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
