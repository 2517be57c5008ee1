//go:build windows

package res

import "os"

// checkWritable verifies that the data directory can be written to. Windows
// has no access(2); probe with a temporary file instead.
func checkWritable(dir string) error {
	file, err := os.CreateTemp(dir, ".probe")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	return os.Remove(name)
}
