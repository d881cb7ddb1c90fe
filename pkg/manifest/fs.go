package manifest

import (
	"context"
	"os"

	"github.com/matzehuels/pkgrun/pkg/async"
)

// Rename moves oldPath to newPath, blocking until done.
func Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// RenameAsync moves oldPath to newPath in the background. The rename is
// skipped when ctx is already done.
func RenameAsync(ctx context.Context, oldPath, newPath string) *async.Future[struct{}] {
	return async.Go(ctx, func(ctx context.Context) (struct{}, error) {
		if err := ctx.Err(); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, Rename(oldPath, newPath)
	})
}

// exists reports whether path names an existing file. Errors other than
// not-exist count as existing so a backup is never clobbered by accident.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}
