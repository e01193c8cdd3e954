package sqlmap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Factory collects the provider, the data source and the table
// configurations, then builds a Database. Tables are configured on the
// factory with ConfigureTable before or after Build; every Database built
// from it shares the same registry.
type Factory struct {
	provider string
	dsn      string
	db       *sqlx.DB
	registry *Registry
}

// Connect returns a factory that opens dsn with the driver of provider when
// Build is called.
func Connect(provider, dsn string, opts ...Option) *Factory {
	return &Factory{
		provider: provider,
		dsn:      dsn,
		registry: NewRegistry(opts...),
	}
}

// FromDB returns a factory over an already opened handle. provider still
// decides the bind style and how generated keys are read back.
func FromDB(db *sqlx.DB, provider string, opts ...Option) *Factory {
	return &Factory{
		provider: provider,
		db:       db,
		registry: NewRegistry(opts...),
	}
}

// FromConfig is Connect with the provider and data source taken from cfg.
func FromConfig(cfg Config, opts ...Option) (*Factory, error) {
	dsn, err := cfg.DataSource()
	if err != nil {
		return nil, err
	}

	return Connect(cfg.Provider, dsn, opts...), nil
}

func (f *Factory) Registry() *Registry {
	return f.registry
}

// Build opens the connection and returns a Database bound to it. The handle
// is limited to a single driver connection.
func (f *Factory) Build(ctx context.Context) (*Database, error) {
	p, err := ParseProvider(f.provider)
	if err != nil {
		return nil, err
	}

	log := f.registry.opts.logger

	db := f.db
	if db == nil {
		if db, err = sqlx.Open(p.DriverName(), f.dsn); err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrConfiguration, p, err)
		}
		db.SetMaxOpenConns(1)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	log.Debug("database ready", zap.Stringer("provider", p))
	return newDatabase(db, p, f.registry), nil
}
