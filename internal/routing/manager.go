package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"koox.dev/busrouter/internal/logging"
)

// Loader supplies the stop dataset. It is called once at start and again on
// every reload.
type Loader interface {
	LoadStops(ctx context.Context) ([]Stop, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]Stop, error)

func (f LoaderFunc) LoadStops(ctx context.Context) ([]Stop, error) { return f(ctx) }

// ReloadResult describes one completed reload attempt.
type ReloadResult struct {
	Version  uint64
	Stops    int
	Routes   int
	Duration time.Duration
	Err      error
}

// Manager owns the live Engine. Readers take a snapshot with Engine() and use
// it for the whole request; reloads build a new Engine off to the side and
// swap it in atomically.
type Manager struct {
	config Config
	loader Loader

	current     atomic.Pointer[Engine]
	updateMutex sync.Mutex // serializes ForceUpdate
	version     uint64     // guarded by updateMutex
	healthy     atomic.Bool
	lastErr     atomic.Value // error wrapper

	observersMu sync.RWMutex
	observers   []func(ReloadResult)

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

type errBox struct{ err error }

// NewManager loads the dataset and builds the first engine. A load or
// validation failure is returned to the caller; an empty dataset is not a
// failure.
func NewManager(ctx context.Context, config Config, loader Loader) (*Manager, error) {
	manager := &Manager{
		config:       config,
		loader:       loader,
		shutdownChan: make(chan struct{}),
	}

	if err := manager.ForceUpdate(ctx); err != nil {
		return nil, err
	}

	if config.refreshEnabled() {
		manager.wg.Add(1)
		go manager.refreshPeriodically()
	}

	return manager, nil
}

// NewManagerWithEngine wraps an already built engine. Reloads still go
// through loader, which may be nil when the engine is fixed.
func NewManagerWithEngine(engine *Engine, loader Loader) *Manager {
	manager := &Manager{
		config:       Config{SearchOptions: engine.options},
		loader:       loader,
		shutdownChan: make(chan struct{}),
	}
	manager.version = 1
	engine.version = 1
	manager.current.Store(engine)
	manager.healthy.Store(true)
	return manager
}

// Engine returns the current snapshot. It is never nil after NewManager
// succeeds.
func (manager *Manager) Engine() *Engine {
	return manager.current.Load()
}

// OnReload registers fn to be called after every reload attempt.
func (manager *Manager) OnReload(fn func(ReloadResult)) {
	manager.observersMu.Lock()
	defer manager.observersMu.Unlock()
	manager.observers = append(manager.observers, fn)
}

// ForceUpdate reloads the dataset and swaps in a new engine. On failure the
// previous snapshot keeps serving and the error is returned.
func (manager *Manager) ForceUpdate(ctx context.Context) error {
	manager.updateMutex.Lock()
	defer manager.updateMutex.Unlock()

	logger := slog.Default().With(slog.String("component", "routing_manager"))
	started := time.Now()

	result := manager.rebuild(ctx)
	result.Duration = time.Since(started)

	if result.Err != nil {
		manager.lastErr.Store(errBox{result.Err})
		// Only a manager with nothing to serve is unhealthy.
		manager.healthy.Store(manager.current.Load() != nil)
		logging.LogError(logger, "routing_reload_failed", result.Err,
			slog.String("source", manager.config.Source))
	} else {
		manager.lastErr.Store(errBox{})
		manager.healthy.Store(true)
		if manager.config.Verbose {
			logging.LogOperation(logger, "routing_snapshot_swapped",
				slog.String("source", manager.config.Source),
				slog.Uint64("version", result.Version),
				slog.Int("stops", result.Stops),
				slog.Int("routes", result.Routes),
				slog.Duration("duration", result.Duration))
		}
	}

	manager.notify(result)
	return result.Err
}

func (manager *Manager) rebuild(ctx context.Context) ReloadResult {
	if manager.loader == nil {
		return ReloadResult{Err: fmt.Errorf("routing manager has no loader")}
	}

	stops, err := manager.loader.LoadStops(ctx)
	if err != nil {
		return ReloadResult{Err: fmt.Errorf("error loading stops: %w", err)}
	}

	engine, err := NewEngine(stops, manager.config.SearchOptions)
	if err != nil {
		return ReloadResult{Err: fmt.Errorf("error building routing graph: %w", err)}
	}

	manager.version++
	engine.version = manager.version
	manager.current.Store(engine)

	return ReloadResult{
		Version: engine.version,
		Stops:   engine.graph.Len(),
		Routes:  len(engine.graph.routes),
	}
}

func (manager *Manager) notify(result ReloadResult) {
	manager.observersMu.RLock()
	defer manager.observersMu.RUnlock()
	for _, fn := range manager.observers {
		fn(result)
	}
}

// IsHealthy reports whether a snapshot is available for queries.
func (manager *Manager) IsHealthy() bool {
	return manager.healthy.Load()
}

// LastError returns the error from the latest reload, or nil.
func (manager *Manager) LastError() error {
	box, _ := manager.lastErr.Load().(errBox)
	return box.err
}

func (manager *Manager) refreshPeriodically() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "routing_refresher"))

	ticker := time.NewTicker(manager.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			// Failures are logged by ForceUpdate; the old snapshot stays live.
			_ = manager.ForceUpdate(ctx)
			cancel()
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_routing_refresh")
			return
		}
	}
}

// Shutdown stops the periodic refresher. It is safe to call more than once.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
	})
}

// Statistics summarizes the live snapshot.
type Statistics struct {
	Source   string
	Version  uint64
	Stops    int
	Routes   int
	LoadedAt time.Time
}

func (manager *Manager) Statistics() Statistics {
	stats := Statistics{Source: manager.config.Source}
	if engine := manager.Engine(); engine != nil {
		stats.Version = engine.version
		stats.Stops = engine.graph.Len()
		stats.Routes = len(engine.graph.routes)
		stats.LoadedAt = engine.loadedAt
	}
	return stats
}

// PrintStatistics logs the snapshot summary.
func (manager *Manager) PrintStatistics() {
	stats := manager.Statistics()
	logging.LogOperation(slog.Default(), "routing_statistics",
		slog.String("source", stats.Source),
		slog.Uint64("version", stats.Version),
		slog.Int("stops", stats.Stops),
		slog.Int("routes", stats.Routes),
		slog.Time("loaded_at", stats.LoadedAt))
}
