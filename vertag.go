package vertag

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/vertag/vertag/logging"
	"github.com/vertag/vertag/store"
	"github.com/vertag/vertag/version"
)

const (
	// Name is the name of the application.
	Name string = "vertag"

	// Version is the version of the application.
	Version string = "1.2.0"
)

// Manager runs one operation per invocation as a fresh load, transition,
// save cycle against the configured store. It holds no cached record; every
// mutation persists with exactly one Save and returns what was persisted.
type Manager struct {
	config Config
	store  store.Store
	logger *logging.Logger
	now    func() time.Time
}

// New builds the store named by c.StoreURL and returns a Manager for it.
func New(ctx context.Context, c Config) (*Manager, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, nil)

	st, err := store.New(ctx, c.StoreURL, logger)
	if err != nil {
		return nil, err
	}

	return NewWithStore(c, st, logger), nil
}

// NewWithStore returns a Manager on an already-built store (for testing).
func NewWithStore(c Config, st store.Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}

	return &Manager{
		config: c,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Increment bumps one component and persists the result. Bumping x zeroes
// y and z, bumping y zeroes z.
func (m *Manager) Increment(ctx context.Context, component string) (version.Record, error) {
	current, err := m.store.Load(ctx, m.config.Key)
	if err != nil {
		return version.Record{}, err
	}

	next, err := current.Bump(component)
	if err != nil {
		return version.Record{}, err
	}

	if err := m.store.Save(ctx, m.config.Key, next); err != nil {
		return version.Record{}, err
	}

	m.logger.Debug("Incremented version", slog.String("key", m.config.Key), slog.String("component", component), slog.String("from", current.String()), slog.String("to", next.String()))
	return next, nil
}

// ResetZ zeroes the patch component and persists the result.
func (m *Manager) ResetZ(ctx context.Context) (version.Record, error) {
	current, err := m.store.Load(ctx, m.config.Key)
	if err != nil {
		return version.Record{}, err
	}

	next := current.ResetZ()
	if err := m.store.Save(ctx, m.config.Key, next); err != nil {
		return version.Record{}, err
	}

	m.logger.Debug("Reset patch component", slog.String("key", m.config.Key), slog.String("from", current.String()), slog.String("to", next.String()))
	return next, nil
}

// Set overwrites the supplied components and persists the result. Unlike
// Increment there is no reset cascade; unsupplied components keep their
// stored values.
func (m *Manager) Set(ctx context.Context, x, y, z *int) (version.Record, error) {
	current, err := m.store.Load(ctx, m.config.Key)
	if err != nil {
		return version.Record{}, err
	}

	next, err := current.Merge(x, y, z)
	if err != nil {
		return version.Record{}, err
	}

	if err := m.store.Save(ctx, m.config.Key, next); err != nil {
		return version.Record{}, err
	}

	m.logger.Debug("Set version", slog.String("key", m.config.Key), slog.String("from", current.String()), slog.String("to", next.String()))
	return next, nil
}

// CurrentVersion returns the stored version string without mutating
// anything. A key never saved reads as "0.0.0".
func (m *Manager) CurrentVersion(ctx context.Context) (string, error) {
	current, err := m.store.Load(ctx, m.config.Key)
	if err != nil {
		return "", err
	}

	return current.String(), nil
}

// Tag renders the configured template against the stored record without
// mutating anything.
func (m *Manager) Tag(ctx context.Context) (string, error) {
	current, err := m.store.Load(ctx, m.config.Key)
	if err != nil {
		return "", err
	}

	return current.Tag(m.config.Template, m.tagContext())
}

func (m *Manager) tagContext() version.TagContext {
	commit := m.config.Commit
	if commit == "" {
		commit = "local"
	}
	if len(commit) > 8 {
		commit = commit[:8]
	}

	return version.TagContext{
		// Keys look like <workspace>/<repo>; tags carry the repo part only.
		Repo:      path.Base(m.config.Key),
		Commit:    commit,
		Timestamp: m.now().Unix(),
	}
}
