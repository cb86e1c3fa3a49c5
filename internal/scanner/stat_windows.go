//go:build windows

package scanner

import "io/fs"

// ownerOf has no POSIX uid/gid equivalent on Windows; every node reports
// owner 0/0 there, matching the teacher's own platform-conditional stat
// handling for fields Windows simply does not have.
func ownerOf(info fs.FileInfo) (uid, gid uint32) {
	return 0, 0
}
