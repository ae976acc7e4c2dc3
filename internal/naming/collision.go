package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// maxSuffix bounds the suffix search.
const maxSuffix = 100000

// CollisionResolver assigns unique destination paths within a run. A path
// is taken when it exists on disk or was claimed by another source earlier
// in the run. All methods are goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	fs     afero.Fs
	owners map[string]string // claimed destination -> source that owns it
}

// NewCollisionResolver creates a resolver that checks existence on fs.
func NewCollisionResolver(fs afero.Fs) *CollisionResolver {
	return &CollisionResolver{fs: fs, owners: make(map[string]string)}
}

// Resolve returns the destination for source and the numeric suffix used
// (0 when desired was free). desired is returned as is when it is free or is
// source itself; otherwise "stem_N.ext" with the smallest N >= 1 that is
// neither on disk nor claimed. A source that is already a "stem_N.ext" form
// of desired keeps its name, so reruns stay no-ops. The returned path is
// claimed for source.
func (cr *CollisionResolver) Resolve(source, desired string) (string, int, error) {
	source, desired = filepath.Clean(source), filepath.Clean(desired)

	cr.mu.Lock()
	defer cr.mu.Unlock()

	if n, ok := suffixOf(source, desired); ok {
		if owner, claimed := cr.owners[source]; !claimed || owner == source {
			cr.owners[source] = source
			return source, n, nil
		}
	}

	free, err := cr.available(source, desired)
	if err != nil {
		return "", 0, err
	}
	if free {
		cr.owners[desired] = source
		return desired, 0, nil
	}

	dir := filepath.Dir(desired)
	base := filepath.Base(desired)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := 1; n <= maxSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		free, err := cr.available(source, candidate)
		if err != nil {
			return "", 0, err
		}
		if free {
			cr.owners[candidate] = source
			return candidate, n, nil
		}
	}
	return "", 0, fmt.Errorf("no free name for %s after %d attempts", desired, maxSuffix)
}

// Release drops the claim on dest, e.g. after a failed rename.
func (cr *CollisionResolver) Release(dest string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	delete(cr.owners, filepath.Clean(dest))
}

// available reports whether source may take path. Caller holds cr.mu.
func (cr *CollisionResolver) available(source, path string) (bool, error) {
	if path == source {
		return true, nil
	}
	if owner, ok := cr.owners[path]; ok {
		return owner == source, nil
	}
	exists, err := afero.Exists(cr.fs, path)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// suffixOf returns N when path is "stem_N.ext" in the same directory as
// desired ("stem.ext"). N must be a canonical integer >= 1.
func suffixOf(path, desired string) (int, bool) {
	if filepath.Dir(path) != filepath.Dir(desired) {
		return 0, false
	}
	want := filepath.Base(desired)
	ext := filepath.Ext(want)
	prefix := strings.TrimSuffix(want, ext) + "_"

	base := filepath.Base(path)
	if !strings.HasSuffix(base, ext) {
		return 0, false
	}
	rest := strings.TrimSuffix(base, ext)
	if !strings.HasPrefix(rest, prefix) {
		return 0, false
	}
	digits := rest[len(prefix):]
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || strconv.Itoa(n) != digits {
		return 0, false
	}
	return n, true
}
