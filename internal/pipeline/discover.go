package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	"github.com/backmassage/ocrrename/internal/probe"
)

// DiscoverOptions control which files Discover returns.
type DiscoverOptions struct {
	Recursive bool
	// Exclude holds glob patterns matched against the base name and the
	// slash-separated path relative to the input directory.
	Exclude []string
}

// Discover lists the supported files under inputDir, sorted
// lexicographically for a deterministic processing order. Hidden files and
// directories are skipped; subdirectories are only entered when
// opts.Recursive is set.
func Discover(fsys afero.Fs, inputDir string, opts DiscoverOptions) ([]string, error) {
	excludes := make([]glob.Glob, 0, len(opts.Exclude))
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, g)
	}

	root := filepath.Clean(inputDir)
	var files []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		hidden := strings.HasPrefix(info.Name(), ".")
		if info.IsDir() {
			if hidden || !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || !info.Mode().IsRegular() || !probe.IsSupported(path) {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil && excluded(excludes, info.Name(), filepath.ToSlash(rel)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func excluded(globs []glob.Glob, name, rel string) bool {
	for _, g := range globs {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}
