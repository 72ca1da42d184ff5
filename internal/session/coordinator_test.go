package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenpxrk/treescope/internal/analyzer"
	"github.com/jadenpxrk/treescope/internal/logger"
)

// blockingBuilder returns a one-file tree once release is closed, or the
// context error if the run is cancelled first.
type blockingBuilder struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingBuilder() *blockingBuilder {
	return &blockingBuilder{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingBuilder) Build(ctx context.Context, path string, _ analyzer.FilterConfig) (*analyzer.Entry, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return analyzer.NewDirectory(path, analyzer.NewFile(filepath.Join(path, "late.txt"), 7)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type errBuilder struct{ err error }

func (b errBuilder) Build(context.Context, string, analyzer.FilterConfig) (*analyzer.Entry, error) {
	return nil, b.err
}

type fakeSettings struct {
	mu       sync.Mutex
	lastPath string
	saveErr  error
	saved    []string
}

func (f *fakeSettings) FolderExclusions() []string   { return []string{"bin"} }
func (f *fakeSettings) FileExclusions() []string     { return []string{".log"} }
func (f *fakeSettings) FolderFilteringEnabled() bool { return true }
func (f *fakeSettings) FileFilteringEnabled() bool   { return false }
func (f *fakeSettings) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath
}
func (f *fakeSettings) SetLastPath(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.lastPath = p
	return nil
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
}

func TestRun_Succeeds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.cs"), 10)
	writeFile(t, filepath.Join(root, "bin", "out.dll"), 100)
	writeFile(t, filepath.Join(root, "README.md"), 5)

	settings := &fakeSettings{}
	var startedID, finishedID uuid.UUID
	c := New(analyzer.NewBuilder()).
		WithSettings(settings).
		WithHooks(Hooks{
			OnStart:  func(id uuid.UUID, _ string) { startedID = id },
			OnFinish: func(id uuid.UUID, _ *Result, _ error) { finishedID = id },
		})

	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Current())

	res, err := c.RunWithSettings(context.Background(), root, settings)
	require.NoError(t, err)

	assert.Equal(t, Succeeded, c.State())
	assert.NoError(t, c.LastError())
	assert.Same(t, res, c.Current())
	assert.Equal(t, analyzer.Summary{TotalFiles: 2, TotalFolders: 1, TotalSize: 15}, res.Summary)
	assert.Equal(t, root, res.RootPath)
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, res.ID, startedID)
	assert.Equal(t, res.ID, finishedID)
	assert.Equal(t, root, settings.LastPath())
}

func TestRun_InvalidPathLeavesStateUntouched(t *testing.T) {
	c := New(analyzer.NewBuilder())

	_, err := c.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), analyzer.FilterConfig{})
	assert.ErrorIs(t, err, analyzer.ErrInvalidPath)

	_, err = c.Run(context.Background(), "", analyzer.FilterConfig{})
	assert.ErrorIs(t, err, analyzer.ErrInvalidPath)

	assert.Equal(t, Idle, c.State())
	assert.NoError(t, c.LastError())
}

func TestRun_BusyDoesNotAlterPreviousResult(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 3)

	// Publish a first result with the real builder.
	c := New(analyzer.NewBuilder())
	first, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.NoError(t, err)

	blocking := newBlockingBuilder()
	c.builder = blocking

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
		done <- outcome{res, err}
	}()
	<-blocking.started

	assert.Equal(t, Running, c.State())
	_, err = c.Run(context.Background(), root, analyzer.FilterConfig{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Same(t, first, c.Current())
	assert.Equal(t, Running, c.State())

	close(blocking.release)
	out := <-done
	require.NoError(t, out.err)
	assert.Same(t, out.res, c.Current())
	assert.Equal(t, int64(7), out.res.Summary.TotalSize)
}

func TestCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 3)

	c := New(analyzer.NewBuilder())
	first, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.NoError(t, err)

	assert.False(t, c.Cancel(), "nothing to cancel while idle")

	blocking := newBlockingBuilder()
	c.builder = blocking

	errc := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
		errc <- err
	}()
	<-blocking.started
	assert.True(t, c.Cancel())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, analyzer.ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
		var buildErr *analyzer.BuildError
		assert.False(t, errors.As(err, &buildErr), "cancellation is not a build failure")
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled run did not return")
	}

	assert.Equal(t, Failed, c.State())
	assert.ErrorIs(t, c.LastError(), analyzer.ErrCancelled)
	assert.Same(t, first, c.Current(), "no partial tree is published")
}

func TestRun_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(analyzer.NewBuilder())
	_, err := c.Run(ctx, t.TempDir(), analyzer.FilterConfig{})
	assert.ErrorIs(t, err, analyzer.ErrCancelled)
	assert.Equal(t, Failed, c.State())
	assert.Nil(t, c.Current())
}

func TestRun_FailureThenRecovery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 3)

	c := New(analyzer.NewBuilder())
	first, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.NoError(t, err)

	boom := &analyzer.BuildError{Path: root, Err: analyzer.ErrRootAccessDenied}
	c.builder = errBuilder{err: boom}
	var finishErr error
	c.WithHooks(Hooks{OnFinish: func(_ uuid.UUID, _ *Result, err error) { finishErr = err }})

	_, err = c.Run(context.Background(), root, analyzer.FilterConfig{})
	var buildErr *analyzer.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.ErrorIs(t, err, analyzer.ErrRootAccessDenied)
	assert.Equal(t, err, finishErr)
	assert.Equal(t, Failed, c.State())
	assert.Same(t, first, c.Current())

	c.builder = analyzer.NewBuilder()
	second, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.NoError(t, err)
	assert.Equal(t, Succeeded, c.State())
	assert.NoError(t, c.LastError())
	assert.Same(t, second, c.Current())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRun_FailureIsLoggedOnce(t *testing.T) {
	root := t.TempDir()
	var logs bytes.Buffer
	l := logger.New(logger.LevelDebug, &logs)
	boom := &analyzer.BuildError{Path: root, Err: analyzer.ErrRootAccessDenied}
	c := New(errBuilder{err: boom}).WithLogger(l)

	_, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.ErrorIs(t, err, analyzer.ErrRootAccessDenied)

	out := logs.String()
	assert.Equal(t, 1, strings.Count(out, "[ERROR]"), out)
	assert.Contains(t, out, "Analysis failed")
}

func TestRun_NilTreeIsBuildError(t *testing.T) {
	c := New(errBuilder{})
	_, err := c.Run(context.Background(), t.TempDir(), analyzer.FilterConfig{})
	var buildErr *analyzer.BuildError
	assert.ErrorAs(t, err, &buildErr)
}

func TestRun_SettingsSaveFailureIsSwallowed(t *testing.T) {
	root := t.TempDir()
	settings := &fakeSettings{saveErr: errors.New("disk full")}

	c := New(analyzer.NewBuilder()).WithSettings(settings)
	_, err := c.Run(context.Background(), root, analyzer.FilterConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, settings.saved)
	assert.Equal(t, Succeeded, c.State())
}

func TestFilterConfigFrom(t *testing.T) {
	cfg := FilterConfigFrom(&fakeSettings{})
	assert.Equal(t, analyzer.FilterConfig{
		FolderExclusions:       []string{"bin"},
		FileExclusions:         []string{".log"},
		FolderFilteringEnabled: true,
		FileFilteringEnabled:   false,
	}, cfg)

	assert.Equal(t, analyzer.FilterConfig{}, FilterConfigFrom(nil))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
