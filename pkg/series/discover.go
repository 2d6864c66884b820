package series

import (
	"os"
	"path/filepath"
	"sort"
)

// Discover lists the immediate subdirectories of patientDir, sorted
// lexicographically. Each subdirectory is a candidate series. A missing or
// non-directory path yields an empty result and a warning.
func (ix *Index) Discover(patientDir string) []string {
	info, err := os.Stat(patientDir)
	if err != nil || !info.IsDir() {
		ix.logger.Warn("patient path is not a valid directory", "path", patientDir)
		return []string{}
	}

	entries, err := os.ReadDir(patientDir)
	if err != nil {
		ix.logger.Warn("failed to read patient directory", "path", patientDir, "error", err)
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || (e.Type()&os.ModeSymlink != 0 && isDir(filepath.Join(patientDir, e.Name()))) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
