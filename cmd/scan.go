package cmd

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// scriptExt is the extension of test scripts found by walking a directory.
const scriptExt = ".omtt"

// CollectScriptsImpl expands paths into test script paths. Files are kept as
// given. Directories are walked recursively for *.omtt files, which are
// sorted lexically. It is an Impl function: it performs OS filesystem
// operations and is excluded from unit test coverage calculations.
func CollectScriptsImpl(paths []string) ([]string, error) {
	var scripts []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			scripts = append(scripts, path)
			continue
		}
		found, err := collectFromDir(path)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, found...)
	}
	return scripts, nil
}

func collectFromDir(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == scriptExt {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
