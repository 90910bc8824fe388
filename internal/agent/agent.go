package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/photosync/internal/config"
	"github.com/mwantia/photosync/internal/manifest"
	"github.com/mwantia/photosync/internal/remote"
	"github.com/mwantia/photosync/pkg/db/store"
	"github.com/mwantia/photosync/pkg/log"
	"gorm.io/gorm/logger"
)

var (
	ErrNotOpen    = errors.New("agent: store is not open")
	ErrNoManifest = errors.New("agent: no manifest found")
)

// components is assembled by the container from the registered store and logger
type components struct {
	Store store.ManifestStore `fabric:"inject"`

	RemoteLog    log.LoggerService `fabric:"logger:remote"`
	ReconcileLog log.LoggerService `fabric:"logger:reconcile"`
	DownloadLog  log.LoggerService `fabric:"logger:download"`
	VerifyLog    log.LoggerService `fabric:"logger:verify"`
}

// SyncAgent binds the manifest engine to a store, a remote and a configuration.
// Reconcile and Download hold the store lock for their whole duration.
type SyncAgent struct {
	mutex sync.RWMutex

	cfg *config.BaseConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	store *store.SQLiteStore
	lock  *store.Lock

	listing   manifest.ListingSource
	retrieval manifest.RetrievalService
	progress  io.Writer
	now       func() time.Time
}

type Option func(*SyncAgent)

// WithListingSource replaces the HTTP listing source
func WithListingSource(source manifest.ListingSource) Option {
	return func(a *SyncAgent) {
		a.listing = source
	}
}

// WithRetrievalService replaces the HTTP retrieval service
func WithRetrievalService(retrieval manifest.RetrievalService) Option {
	return func(a *SyncAgent) {
		a.retrieval = retrieval
	}
}

func WithLogger(logger log.LoggerService) Option {
	return func(a *SyncAgent) {
		a.log = logger
	}
}

// WithProgressOutput sets where the download progress bar is drawn
func WithProgressOutput(w io.Writer) Option {
	return func(a *SyncAgent) {
		a.progress = w
	}
}

func NewAgent(cfg *config.BaseConfig, opts ...Option) *SyncAgent {
	a := &SyncAgent{
		cfg:  cfg,
		sc:   container.NewServiceContainer(),
		lock: store.NewLock(cfg.Store.Path),
		now:  time.Now,
	}
	if cfg.Download.Progress {
		a.progress = os.Stderr
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.log == nil {
		a.log = log.NewLoggerService("photosync", cfg.Log)
	}
	return a
}

// ManifestExists reports whether the store file has been created yet
func (a *SyncAgent) ManifestExists() bool {
	_, err := os.Stat(a.cfg.Store.Path)
	return err == nil
}

// OpenExisting opens the store only if it was created before. Read-only
// callers use it so that a missing manifest is never created on their behalf.
func (a *SyncAgent) OpenExisting(ctx context.Context) error {
	if !a.ManifestExists() {
		return fmt.Errorf("%w at '%s'", ErrNoManifest, a.cfg.Store.Path)
	}
	return a.Open(ctx)
}

// Open connects and migrates the store and registers the shared services
func (a *SyncAgent) Open(ctx context.Context) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.store != nil {
		return nil
	}

	s, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     a.cfg.Store.Path,
		LogLevel: parseGormLevel(a.cfg.Store.LogLevel),
	})
	if err != nil {
		return err
	}

	if err := s.Connect(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("failed to connect store: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	if err := s.Health(ctx); err != nil {
		_ = s.Close()
		return fmt.Errorf("store health check failed: %w", err)
	}

	a.store = s
	if err := a.setupServices(); err != nil {
		_ = s.Close()
		a.store = nil
		return err
	}

	a.log.Debug("Opened manifest store at '%s'", s.Path())
	return nil
}

func (a *SyncAgent) setupServices() error {
	errs := container.Errors{}

	a.sc.AddTagProcessor(log.NewLoggerTagProcessor())

	a.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](a.sc,
		container.With[log.LoggerService](),
		container.WithInstance(a.log)))

	a.log.Debug("Registering 'ManifestStore'...")
	errs.Add(container.Register[store.SQLiteStore](a.sc,
		container.With[store.ManifestStore](),
		container.WithInstance(a.store)))

	// registered last, its fields are validated against the processors above
	errs.Add(container.Register[*components](a.sc))

	return errs.Errors()
}

// services resolves the store and the component loggers from the container
func (a *SyncAgent) services(ctx context.Context) (*components, error) {
	if a.store == nil {
		return nil, ErrNotOpen
	}

	svc, err := container.Resolve[*components](ctx, a.sc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve services: %w", err)
	}
	return svc, nil
}

func (a *SyncAgent) manifestStore(ctx context.Context) (store.ManifestStore, error) {
	svc, err := a.services(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Store, nil
}

// remoteClient loads the saved session once. Missing or expired sessions are
// returned before anything is written.
func (a *SyncAgent) remoteClient(svc *components) error {
	if a.listing != nil && a.retrieval != nil {
		return nil
	}

	session, err := remote.LoadSession(a.cfg.Remote.SessionFile, a.cfg.Remote.BaseURL, a.now())
	if err != nil {
		return err
	}

	client := remote.NewClient(a.cfg.Remote, a.cfg.Listing, session, svc.RemoteLog)
	if a.listing == nil {
		a.listing = client
	}
	if a.retrieval == nil {
		a.retrieval = client
	}
	return nil
}

// withLock runs fn while holding the advisory store lock
func (a *SyncAgent) withLock(fn func() error) (err error) {
	if err := a.lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if unlockErr := a.lock.Unlock(); unlockErr != nil {
			a.log.Warn("Failed to release store lock: %v", unlockErr)
			err = errors.Join(err, unlockErr)
		}
	}()

	return fn()
}

// Reconcile scans the remote and merges every observed item into the manifest
func (a *SyncAgent) Reconcile(ctx context.Context, full bool) (*manifest.RunSummary, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	svc, err := a.services(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.remoteClient(svc); err != nil {
		return nil, err
	}

	scope := remote.ScopeStandard
	if full {
		scope = remote.ScopeFull
	}

	var summary *manifest.RunSummary
	err = a.withLock(func() error {
		a.log.Info("Scanning remote library (%s scan)", scope)

		reconciler := manifest.NewReconciler(svc.Store, svc.ReconcileLog)
		summary, err = reconciler.Reconcile(ctx, a.listing.Items(ctx, scope))
		return err
	})
	return summary, err
}

// Download fetches every pending content hash, up to opts.Limit
func (a *SyncAgent) Download(ctx context.Context, opts manifest.DownloadOptions) (*manifest.DownloadResult, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	svc, err := a.services(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.remoteClient(svc); err != nil {
		return nil, err
	}

	var result *manifest.DownloadResult
	err = a.withLock(func() error {
		downloader := manifest.NewDownloader(a.cfg.Download, svc.Store, a.retrieval, svc.DownloadLog)
		downloader.SetProgressOutput(a.progress)

		result, err = downloader.Download(ctx, opts)
		return err
	})
	return result, err
}

// Verify runs a probe scan and reports items the manifest does not know yet
func (a *SyncAgent) Verify(ctx context.Context) (*manifest.VerifyReport, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	svc, err := a.services(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.remoteClient(svc); err != nil {
		return nil, err
	}

	probe := manifest.NewProbe(svc.Store, svc.VerifyLog)
	return probe.Verify(ctx, a.listing.Items(ctx, remote.ScopeProbe))
}

// Status aggregates the manifest and the download directory
func (a *SyncAgent) Status(ctx context.Context) (*manifest.StatusReport, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	s, err := a.manifestStore(ctx)
	if err != nil {
		return nil, err
	}

	return manifest.NewReporter(s, a.cfg.Download.Dir).Report(ctx)
}

// Export writes the manifest as CSV to w
func (a *SyncAgent) Export(ctx context.Context, w io.Writer) (int, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	s, err := a.manifestStore(ctx)
	if err != nil {
		return 0, err
	}

	return manifest.NewExporter(s).Export(ctx, w)
}

// Close releases the service container and the store within the shutdown timeout
func (a *SyncAgent) Close() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	shutdown, cancel := context.WithTimeout(context.Background(), a.cfg.GetShutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.sc.Cleanup(shutdown); err != nil {
		errs = append(errs, fmt.Errorf("failed to complete service container cleanup: %w", err))
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
		a.store = nil
	}

	return errors.Join(errs...)
}

func parseGormLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
