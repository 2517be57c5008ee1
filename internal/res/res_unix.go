//go:build !windows

package res

import "golang.org/x/sys/unix"

// checkWritable verifies that the data directory can be written to.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}
