// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package shmfifo

import (
	"strings"

	"golang.org/x/sys/unix"
)

// shmDir is where Linux exposes POSIX shared-memory objects.
const shmDir = "/dev/shm"

// shmPath maps a POSIX-style "/name" to its path under shmDir.
func shmPath(name string) string {
	return shmDir + "/" + strings.TrimPrefix(name, "/")
}

// checkName validates a FIFO name: non-empty, at most NameMax bytes, and a
// single path component (an optional leading slash, none elsewhere).
func checkName(name string) bool {
	if name == "" || len(name) > NameMax {
		return false
	}
	trimmed := strings.TrimPrefix(name, "/")
	return trimmed != "" && !strings.ContainsRune(trimmed, '/')
}

// shmCreate creates the shared-memory object with create-exclusive
// semantics and owner read/write permissions, sizes it and returns the
// open descriptor. The existence check and the creation are atomic.
func shmCreate(name string, segSize int) (fd int, err error) {
	fd, err = unix.Open(shmPath(name),
		unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return -1, err
	}
	// A brand-new object reads as zero bytes after ftruncate, so counters
	// and indices need no explicit reset.
	if err = unix.Ftruncate(fd, int64(segSize)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(shmPath(name))
		return -1, err
	}
	return fd, nil
}

// shmOpen opens an existing shared-memory object read-write.
func shmOpen(name string) (fd int, err error) {
	return unix.Open(shmPath(name), unix.O_RDWR|unix.O_CLOEXEC, 0o600)
}

// shmUnlink removes the shared-memory object name.
func shmUnlink(name string) error {
	return unix.Unlink(shmPath(name))
}
