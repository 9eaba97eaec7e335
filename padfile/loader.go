// Package padfile loads the shared pad from disk into memory once at
// startup. The pad is treated as an opaque, immutable byte sequence
// thereafter — no component copies or mutates it.
package padfile

import (
	"fmt"
	"os"
)

// Load reads the whole pad file in a single pass. Pad files are sized in
// the single-to-double-digit megabytes, so one read is appropriate here;
// there is no benefit to streaming or mmap for a value that is held
// entirely in memory for the process lifetime anyway.
func Load(path string) ([]byte, error) {
	pad, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pad file %q: %w", path, err)
	}
	if len(pad) == 0 {
		return nil, fmt.Errorf("pad file %q is empty", path)
	}
	return pad, nil
}
