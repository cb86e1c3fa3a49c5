//go:build !windows

package scanner

import (
	"io/fs"
	"syscall"
)

// ownerOf extracts the POSIX uid/gid from a FileInfo's platform-specific
// Sys() value. Non-Unix platforms never populate a *syscall.Stat_t here, so
// the Windows build of this function in stat_windows.go returns zeros.
func ownerOf(info fs.FileInfo) (uid, gid uint32) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Uid, st.Gid
	}
	return 0, 0
}
