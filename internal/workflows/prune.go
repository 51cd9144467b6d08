package workflows

import (
	"os"
	"path/filepath"
)

// PruneEmptyDirs removes every directory under root that is empty once its
// own empty subdirectories are gone. Top-level entries named in excludes are
// left alone, including their contents. root itself is never removed. It
// returns the number of directories removed.
func PruneEmptyDirs(root string, excludes []string) (int, error) {
	skip := make(map[string]bool, len(excludes))
	for _, e := range excludes {
		skip[e] = true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if skip[e.Name()] || !e.IsDir() {
			continue
		}
		n, err := pruneDir(filepath.Join(root, e.Name()))
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// pruneDir prunes below dir, then removes dir if it ended up empty.
func pruneDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := pruneDir(filepath.Join(dir, e.Name()))
		removed += n
		if err != nil {
			return removed, err
		}
	}

	rest, err := os.ReadDir(dir)
	if err != nil {
		return removed, err
	}
	if len(rest) == 0 {
		if err := os.Remove(dir); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
