package manifest

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgrun/pkg/async"
	"github.com/matzehuels/pkgrun/pkg/errors"
	"github.com/matzehuels/pkgrun/pkg/observability"
)

// active maps a cleaned absolute directory to the swap currently holding it.
var (
	activeMu sync.Mutex
	active   = make(map[string]*Backup)
)

var logger atomic.Pointer[log.Logger]

// SetLogger sets the logger used for swap and restore tracing. A nil l
// restores [log.Default].
func SetLogger(l *log.Logger) {
	logger.Store(l)
}

func getLogger() *log.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return log.Default()
}

// Backup is the handle for a swapped-out manifest. It is returned by
// [Swap] and is the only way to restore that swap.
type Backup struct {
	dir        string
	key        string
	path       string
	backupPath string

	mu       sync.Mutex
	restored bool
}

// Dir returns the package directory the swap was performed in.
func (b *Backup) Dir() string { return b.dir }

// Path returns the path of the original manifest while it is swapped out.
func (b *Backup) Path() string { return b.backupPath }

// Restore moves the original manifest back into place. It blocks, starts no
// goroutines and takes no context so it can run in shutdown paths. Calling
// Restore again after a successful restore is a no-op. A failed restore
// leaves the handle active so the call can be retried.
func (b *Backup) Restore() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.restored {
		return nil
	}

	getLogger().Debug("restore manifest", "dir", b.dir)
	if err := Rename(b.backupPath, b.path); err != nil {
		err = errors.Wrap(errors.ErrCodeRestore, err, "restore %s", b.path)
		observability.Swap().OnRestore(b.dir, err)
		return err
	}

	b.restored = true
	release(b.key, b)
	observability.Swap().OnRestore(b.dir, nil)
	return nil
}

// Swap replaces the manifest in dir with a synthetic one containing only the
// original name and version and deps. Exactly one write happens, blocking.
//
// Errors:
//   - SWAP_IN_PROGRESS: dir already has an active swap in this process.
//   - BACKUP_FAILED: a backup file already exists or the rename failed;
//     nothing was changed.
//   - WRITE_FAILED: the synthetic manifest could not be built or written;
//     the original stays at [BackupPath] until [Restore] is called.
func Swap(ctx context.Context, dir string, deps []Dependency) (*Backup, error) {
	return swap(ctx, dir, deps, func(_ context.Context, oldPath, newPath string) error {
		return Rename(oldPath, newPath)
	})
}

// SwapAsync performs [Swap] in the background using [RenameAsync].
// Cancelling ctx only prevents a rename that has not started; a rename in
// flight is waited for so a BACKUP_FAILED result never leaves the manifest
// moved aside.
func SwapAsync(ctx context.Context, dir string, deps []Dependency) *async.Future[*Backup] {
	return async.Go(ctx, func(ctx context.Context) (*Backup, error) {
		return swap(ctx, dir, deps, func(ctx context.Context, oldPath, newPath string) error {
			_, err := RenameAsync(ctx, oldPath, newPath).Result()
			return err
		})
	})
}

type renameFunc func(ctx context.Context, oldPath, newPath string) error

func swap(ctx context.Context, dir string, deps []Dependency, rename renameFunc) (b *Backup, err error) {
	defer func() { observability.Swap().OnSwap(ctx, dir, len(deps), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := dirKey(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackup, err, "resolve %s", dir)
	}
	b = &Backup{
		dir:        dir,
		key:        key,
		path:       Path(dir),
		backupPath: BackupPath(dir),
	}
	if !acquire(key, b) {
		return nil, errors.New(errors.ErrCodeSwapInProgress, "manifest in %s is already swapped", dir)
	}

	if exists(b.backupPath) {
		release(key, b)
		return nil, errors.New(errors.ErrCodeBackup, "backup already exists: %s", b.backupPath)
	}

	l := getLogger()
	l.Debug("backup manifest", "path", b.path)
	if err := rename(ctx, b.path, b.backupPath); err != nil {
		release(key, b)
		return nil, errors.Wrap(errors.ErrCodeBackup, err, "back up %s", b.path)
	}

	// From here on the original lives at backupPath. Failures leave it there
	// for Restore to recover.
	doc, err := ReadManifest(b.backupPath)
	if err != nil {
		release(key, b)
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "read original manifest")
	}

	tmp := NewSynthetic(doc, deps)
	l.Debug("write temporary manifest", "path", b.path, "dependencies", len(tmp.Dependencies), "devDependencies", len(tmp.DevDependencies))
	if err := WriteManifest(b.path, tmp, doc.Indent); err != nil {
		release(key, b)
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "write temporary manifest %s", b.path)
	}

	return b, nil
}

// Restore recovers the original manifest in dir. If a swap made by this
// process is still active it is restored through its handle; otherwise the
// backup file left behind by a failed write or a crashed process is moved
// back. With no backup present, Restore returns NO_BACKUP.
func Restore(dir string) error {
	key, err := dirKey(dir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRestore, err, "resolve %s", dir)
	}

	activeMu.Lock()
	b := active[key]
	activeMu.Unlock()
	if b != nil {
		return b.Restore()
	}

	backupPath := BackupPath(dir)
	if !exists(backupPath) {
		return errors.New(errors.ErrCodeNoBackup, "no manifest backup in %s", dir)
	}

	getLogger().Debug("restore manifest", "dir", dir)
	if err := Rename(backupPath, Path(dir)); err != nil {
		err = errors.Wrap(errors.ErrCodeRestore, err, "restore %s", Path(dir))
		observability.Swap().OnRestore(dir, err)
		return err
	}
	observability.Swap().OnRestore(dir, nil)
	return nil
}

// HasBackup reports whether dir currently has a swapped-out manifest.
func HasBackup(dir string) bool {
	return exists(BackupPath(dir))
}

func dirKey(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func acquire(key string, b *Backup) bool {
	activeMu.Lock()
	defer activeMu.Unlock()
	if _, ok := active[key]; ok {
		return false
	}
	active[key] = b
	return true
}

func release(key string, b *Backup) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active[key] == b {
		delete(active, key)
	}
}
