package jsonfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
)

// NewOSFS returns a filesystem rooted at dir on the host, creating dir if needed.
func NewOSFS(dir string) (hackpadfs.FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("create %s: %w", abs, err)
	}

	// hackpadfs paths are io/fs style: slash separated, no leading slash.
	rel := strings.TrimPrefix(filepath.ToSlash(abs), "/")
	if rel == "" {
		rel = "."
	}
	sub, err := osfs.NewFS().Sub(rel)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return sub, nil
}
