package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"animeimporter/internal/api"
	"animeimporter/internal/app"
	"animeimporter/internal/logging"
	"animeimporter/internal/preflight"
)

// ErrAlreadyRunning is returned when another process holds the lock.
var ErrAlreadyRunning = errors.New("another animeimporter daemon instance is already running")

// Daemon serves the API for one data directory.
type Daemon struct {
	app     *app.App
	logger  *slog.Logger
	version string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	server  *apiServer
	ready   chan struct{}
	once    sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running  bool
	Address  string
	LockPath string
	Database string
}

// New constructs a daemon around an opened App.
func New(a *app.App, logger *slog.Logger, version string) (*Daemon, error) {
	if a == nil || a.Config == nil {
		return nil, errors.New("daemon requires an app")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := a.Config.LockPath()
	return &Daemon{
		app:      a,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		version:  version,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		ready:    make(chan struct{}),
	}, nil
}

// Run acquires the lock, serves the API and blocks until ctx is cancelled
// or the listener fails. The lock is released before returning.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.logPreflight(ctx)

	handler := api.NewServer(d.app, d.logger, api.WithVersion(d.version)).Handler()
	server := newAPIServer(d.app.Config.Paths.APIBind, handler, d.logger)
	if err := server.listen(); err != nil {
		return err
	}
	d.mu.Lock()
	d.server = server
	d.mu.Unlock()
	d.once.Do(func() { close(d.ready) })

	d.logger.Info("animeimporter daemon started",
		logging.String("lock", d.lockPath),
		logging.String("base_url", d.app.BaseURL()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.serve)
	g.Go(func() error {
		<-gctx.Done()
		d.logger.Info("animeimporter daemon shutting down")
		return server.shutdown()
	})
	return g.Wait()
}

// Ready is closed once the API listener is bound.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Status reports the current runtime state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:  d.running.Load(),
		LockPath: d.lockPath,
		Database: d.app.Store.Path(),
	}
	if d.server != nil && status.Running {
		status.Address = d.server.addr()
	}
	return status
}

func (d *Daemon) logPreflight(ctx context.Context) {
	results := preflight.RunAll(ctx, d.app.Config, d.app.BaseURL())
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "syncs depending on this check will fail"),
		)
	}
}
