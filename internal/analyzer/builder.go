package analyzer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	gitignore "github.com/monochromegane/go-gitignore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jadenpxrk/treescope/internal/logger"
)

// Builder walks a directory and produces its Entry tree. A Builder holds no
// per-run state and may be used for several builds, including concurrently.
type Builder struct {
	logger  logger.Logger
	workers int
}

// NewBuilder creates a Builder that uses runtime.NumCPU() workers and no logging.
func NewBuilder() *Builder {
	return &Builder{
		logger:  logger.Nop(),
		workers: runtime.NumCPU(),
	}
}

// WithLogger sets the logger used for skipped entries and access failures.
func (b *Builder) WithLogger(l logger.Logger) *Builder {
	b.logger = logger.OrNop(l)
	return b
}

// WithWorkers bounds how many sibling subdirectories are read in parallel.
// Values <= 0 select runtime.NumCPU().
func (b *Builder) WithWorkers(n int) *Builder {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	b.workers = n
	return b
}

// Build analyzes the directory at path. The root itself is never excluded by
// folder rules or pruned when empty; exclusions apply to its descendants only.
//
// Unreadable subdirectories are logged and left out of the tree. A root that
// cannot be read fails the build with a *BuildError, and a cancelled ctx
// fails it with ErrCancelled.
func (b *Builder) Build(ctx context.Context, path string, cfg FilterConfig) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPath, path, err)
	}
	if err := ValidateRoot(abs); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if isPermissionError(err) {
			err = fmt.Errorf("%w: %w", ErrRootAccessDenied, err)
		}
		return nil, &BuildError{Path: abs, Err: err}
	}

	start := time.Now()
	b.logger.Info("Starting directory analysis",
		logger.F("path", abs),
		logger.F("workers", b.workers))

	w := &walker{
		ctx: ctx,
		cfg: cfg.Clone(),
		sem: semaphore.NewWeighted(int64(b.workers)),
		log: b.logger,
	}
	if cfg.RespectGitignore {
		w.ignore = b.loadGitignore(abs)
	}

	root := w.directory(abs, entries, 0)

	if err := ctx.Err(); err != nil {
		b.logger.Warn("Directory analysis cancelled", logger.F("path", abs))
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	b.logger.Info("Directory analysis complete",
		logger.F("path", abs),
		logger.F("files", root.FileCount()),
		logger.F("bytes", root.Size()),
		logger.F("elapsed", time.Since(start).Round(time.Millisecond)))

	return root, nil
}

func (b *Builder) loadGitignore(root string) gitignore.IgnoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	matcher, err := gitignore.NewGitIgnore(path, root)
	if err != nil {
		b.logger.Warn("Could not parse .gitignore", logger.F("path", path), logger.Err(err))
		return nil
	}
	return matcher
}

// walker carries the immutable inputs of one build. Each directory call
// owns its own children slice; parallel branches only write their own index
// and the parent reads them after the join.
type walker struct {
	ctx    context.Context
	cfg    FilterConfig
	sem    *semaphore.Weighted
	log    logger.Logger
	ignore gitignore.IgnoreMatcher
}

func (w *walker) directory(path string, entries []fs.DirEntry, depth int) *Entry {
	var (
		subdirs []string
		files   []*Entry
	)

	for _, d := range entries {
		if IsHidden(d) {
			continue
		}
		full := filepath.Join(path, d.Name())

		switch {
		case d.IsDir():
			if !w.excludeDir(d.Name(), full, depth+1) {
				subdirs = append(subdirs, full)
			}
		case d.Type().IsRegular():
			if f := w.file(d, full); f != nil {
				files = append(files, f)
			}
		default:
			w.log.Debug("Skipping non-regular entry",
				logger.F("path", full),
				logger.F("mode", d.Type().String()))
		}
	}

	children := make([]*Entry, len(subdirs), len(subdirs)+len(files))

	var g errgroup.Group
	for i, sub := range subdirs {
		if w.ctx.Err() != nil {
			break
		}
		if w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				children[i] = w.subdirectory(sub, depth+1)
				return nil
			})
			continue
		}
		// No free worker: descend on the current goroutine.
		children[i] = w.subdirectory(sub, depth+1)
	}
	_ = g.Wait()

	children = append(children, files...)
	return NewDirectory(path, children...)
}

// subdirectory returns nil when the directory is unreadable, the build was
// cancelled, or nothing survived filtering below it.
func (w *walker) subdirectory(path string, depth int) *Entry {
	if w.ctx.Err() != nil {
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if isPermissionError(err) {
			w.log.Warn("Access denied, skipping directory", logger.F("path", path), logger.Err(err))
		} else {
			w.log.Error("Cannot read directory, skipping", logger.F("path", path), logger.Err(err))
		}
		return nil
	}

	dir := w.directory(path, entries, depth)
	if dir.FileCount() == 0 {
		w.log.Debug("Dropping directory with no surviving files", logger.F("path", path))
		return nil
	}
	return dir
}

func (w *walker) excludeDir(name, full string, depth int) bool {
	if ShouldExcludeFolder(name, w.cfg) {
		w.log.Info("Directory skipped due to filter", logger.F("path", full))
		return true
	}
	if w.ignore != nil && w.ignore.Match(full, true) {
		w.log.Debug("Directory skipped by .gitignore", logger.F("path", full))
		return true
	}
	if w.cfg.MaxDepth > 0 && depth > w.cfg.MaxDepth {
		w.log.Debug("Directory below max depth", logger.F("path", full), logger.F("depth", depth))
		return true
	}
	return false
}

func (w *walker) file(d fs.DirEntry, full string) *Entry {
	name := d.Name()
	if ShouldExcludeFile(name, strings.ToLower(filepath.Ext(name)), w.cfg) {
		w.log.Debug("File skipped due to filter", logger.F("path", full))
		return nil
	}
	if w.ignore != nil && w.ignore.Match(full, false) {
		w.log.Debug("File skipped by .gitignore", logger.F("path", full))
		return nil
	}

	info, err := d.Info()
	if err != nil {
		w.log.Warn("Could not get file info, skipping", logger.F("path", full), logger.Err(err))
		return nil
	}
	return NewFile(full, info.Size())
}
