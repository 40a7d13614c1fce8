package cli

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/aspectlab/metastore/internal/aspect"
	"github.com/aspectlab/metastore/internal/config"
	"github.com/aspectlab/metastore/internal/dao"
	"github.com/aspectlab/metastore/internal/logger"
	"github.com/aspectlab/metastore/internal/producer"
	"github.com/aspectlab/metastore/internal/store"
	"github.com/aspectlab/metastore/internal/urn"
)

// env bundles the opened store and registries behind one command run.
type env struct {
	store    *store.Store
	cfg      *config.Storage
	registry *aspect.Registry
	urns     *urn.Registry
	log      zerolog.Logger
}

// openEnv opens the database and loads the storage config. With no
// --config flag the store runs with defaults: secondary index on, no
// retention, single-page batch gets.
func openEnv(opts *RootOptions) (*env, error) {
	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	cfg := &config.Storage{SecondaryIndex: true}
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &env{
		store:    st,
		cfg:      cfg,
		registry: aspect.NewRegistry(),
		urns:     urn.NewRegistry(),
		log:      log,
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Error().Err(err).Msg("error closing database")
	}
}

// dao builds the DAO for one entity type. CLI values are untyped, so
// every aspect deserializes into aspect.Generic.
func (e *env) dao(entityType string) *dao.LocalDAO {
	d := dao.New(e.store, e.registry, e.urns, e.cfg, entityType, e.log)
	d.SetUrnPathExtractor(urn.PartsPathExtractor{})
	d.SetEventProducer(producer.NewLogProducer(e.log))
	return d
}
