package git

import (
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	platformerrors "github.com/jmgilman/go/errors"
)

// lookPath resolves the git binary. Tests replace it.
var lookPath = osexec.LookPath

// isMemoryFilesystem checks if the given filesystem is memory-based.
// Memory-based filesystems (like memfs) cannot be used with git CLI operations
// since the CLI operates on the real filesystem.
func isMemoryFilesystem(fs billy.Filesystem) bool {
	typeName := fmt.Sprintf("%T", fs)
	return strings.Contains(strings.ToLower(typeName), "mem")
}

// requireOSFilesystem rejects filesystems git cannot see.
func requireOSFilesystem(fs billy.Filesystem) error {
	if fs != nil && isMemoryFilesystem(fs) {
		return ErrMemoryFilesystem
	}
	return nil
}

// ensureDir creates dir through fs.
func ensureDir(fs billy.Filesystem, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal, "failed to create directory", map[string]interface{}{
			"path": dir,
		})
	}
	return nil
}

// existingDir reports an error unless path names a directory.
func existingDir(fs billy.Filesystem, path string) error {
	info, err := fs.Stat(path)
	switch {
	case os.IsNotExist(err):
		return platformerrors.WrapWithContext(ErrNotRepository, platformerrors.CodeNotFound, "repository path does not exist", map[string]interface{}{
			"path": path,
		})
	case err != nil:
		return platformerrors.WrapWithContext(err, platformerrors.CodeInternal, "failed to stat repository path", map[string]interface{}{
			"path": path,
		})
	case !info.IsDir():
		return platformerrors.WrapWithContext(ErrNotRepository, platformerrors.CodeNotFound, "repository path is not a directory", map[string]interface{}{
			"path": path,
		})
	}
	return nil
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", platformerrors.WrapWithContext(err, platformerrors.CodeInvalidInput, "failed to resolve path", map[string]interface{}{
			"path": path,
		})
	}
	return abs, nil
}
