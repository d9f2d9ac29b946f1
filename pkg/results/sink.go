package results

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/catalog"
)

// Sink owns the result directory tree: one directory per experiment
// under Root, one artifact file per sweep point inside it. Paths are
// deterministic functions of the sweep point, so points within one
// experiment can never overwrite each other.
type Sink struct {
	Root string
}

// EnsureDir creates the directory if absent; an existing directory is
// not an error.
func (s Sink) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating result dir %s: %v", path, err)
	}
	return nil
}

// ExperimentDir is the result directory for one experiment.
func (s Sink) ExperimentDir(def catalog.Definition) string {
	return filepath.Join(s.Root, def.DirName())
}

// ArtifactPath is the artifact file for one sweep point.
func (s Sink) ArtifactPath(def catalog.Definition, key string) string {
	return filepath.Join(s.ExperimentDir(def), key+"."+def.OutExt)
}
