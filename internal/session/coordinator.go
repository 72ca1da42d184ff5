// Package session runs directory analyses one at a time and holds the most
// recent successful result for readers.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jadenpxrk/treescope/internal/analyzer"
	"github.com/jadenpxrk/treescope/internal/logger"
)

// ErrBusy is returned by Run while another run on the same Coordinator is in
// progress.
var ErrBusy = errors.New("analysis already in progress")

// State is the lifecycle stage of a Coordinator.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Builder produces the tree for one run. *analyzer.Builder implements it.
type Builder interface {
	Build(ctx context.Context, path string, cfg analyzer.FilterConfig) (*analyzer.Entry, error)
}

// Result is a completed analysis. It is never modified after publication.
type Result struct {
	ID          uuid.UUID
	RootPath    string
	Root        *analyzer.Entry
	Summary     analyzer.Summary
	Config      analyzer.FilterConfig
	Duration    time.Duration
	CompletedAt time.Time
}

// Hooks are optional callbacks invoked around each accepted run. They run on
// the goroutine calling Run.
type Hooks struct {
	OnStart  func(id uuid.UUID, path string)
	OnFinish func(id uuid.UUID, res *Result, err error)
}

// Coordinator accepts at most one analysis at a time and publishes each
// successful result atomically. A failed or cancelled run leaves the
// previous result in place.
type Coordinator struct {
	builder  Builder
	logger   logger.Logger
	settings SettingsSource
	hooks    Hooks

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	lastErr error

	current atomic.Pointer[Result]
}

// New creates an idle Coordinator that builds trees with b.
func New(b Builder) *Coordinator {
	return &Coordinator{
		builder: b,
		logger:  logger.Nop(),
	}
}

// WithLogger sets the logger for run lifecycle events.
func (c *Coordinator) WithLogger(l logger.Logger) *Coordinator {
	c.logger = logger.OrNop(l)
	return c
}

// WithSettings records successful root paths through s.
func (c *Coordinator) WithSettings(s SettingsSource) *Coordinator {
	c.settings = s
	return c
}

// WithHooks installs run callbacks.
func (c *Coordinator) WithHooks(h Hooks) *Coordinator {
	c.hooks = h
	return c
}

// Run analyzes path with cfg and blocks until the build finishes.
//
// An invalid path fails with analyzer.ErrInvalidPath before any state
// change. A call made while another run is active fails with ErrBusy and
// changes nothing. Cancelling ctx, or calling Cancel, stops the run with an
// error matching analyzer.ErrCancelled.
func (c *Coordinator) Run(ctx context.Context, path string, cfg analyzer.FilterConfig) (*Result, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", analyzer.ErrInvalidPath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", analyzer.ErrInvalidPath, path, err)
	}
	if err := analyzer.ValidateRoot(abs); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state == Running {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.state = Running
	c.cancel = cancel
	c.lastErr = nil
	c.mu.Unlock()
	defer cancel()

	id := uuid.New()
	log := c.logger.WithFields(logger.F("run", id.String()))
	log.Info("Analysis started", logger.F("path", abs))
	if c.hooks.OnStart != nil {
		c.hooks.OnStart(id, abs)
	}

	cfg = cfg.Clone()
	start := time.Now()
	root, err := c.builder.Build(runCtx, abs, cfg)
	if err == nil && root == nil {
		err = &analyzer.BuildError{Path: abs, Err: errors.New("builder returned no tree")}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && !errors.Is(err, analyzer.ErrCancelled) {
			err = fmt.Errorf("%w: %w", analyzer.ErrCancelled, err)
		}
		c.finish(Failed, err)
		if errors.Is(err, analyzer.ErrCancelled) {
			log.Warn("Analysis cancelled", logger.F("path", abs))
		} else {
			log.Error("Analysis failed", logger.F("path", abs), logger.Err(err))
		}
		if c.hooks.OnFinish != nil {
			c.hooks.OnFinish(id, nil, err)
		}
		return nil, err
	}

	res := &Result{
		ID:          id,
		RootPath:    abs,
		Root:        root,
		Summary:     analyzer.Summarize(root),
		Config:      cfg,
		Duration:    time.Since(start),
		CompletedAt: time.Now(),
	}
	c.current.Store(res)
	c.finish(Succeeded, nil)

	log.Info("Analysis succeeded",
		logger.F("folders", res.Summary.TotalFolders),
		logger.F("files", res.Summary.TotalFiles),
		logger.F("bytes", res.Summary.TotalSize),
		logger.F("elapsed", res.Duration.Round(time.Millisecond)))

	if c.settings != nil {
		if err := c.settings.SetLastPath(abs); err != nil {
			log.Error("Could not save last selected path", logger.Err(err))
		}
	}
	if c.hooks.OnFinish != nil {
		c.hooks.OnFinish(id, res, nil)
	}
	return res, nil
}

// RunWithSettings runs an analysis using the filters held by s.
func (c *Coordinator) RunWithSettings(ctx context.Context, path string, s SettingsSource) (*Result, error) {
	return c.Run(ctx, path, FilterConfigFrom(s))
}

func (c *Coordinator) finish(state State, err error) {
	c.mu.Lock()
	c.state = state
	c.lastErr = err
	c.cancel = nil
	c.mu.Unlock()
}

// Cancel requests the active run to stop. It reports whether a run was active.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// State returns the current lifecycle stage.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the last successful result, or nil before the first one.
func (c *Coordinator) Current() *Result {
	return c.current.Load()
}

// LastError returns the failure of the most recent finished run, or nil if
// it succeeded.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
