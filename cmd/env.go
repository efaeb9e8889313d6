package main

import (
	"context"

	"github.com/sells-group/resolver-cli/internal/pipeline"
	"github.com/sells-group/resolver-cli/internal/store"
)

// pipelineEnv holds the initialized store and pipeline shared by the
// run/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, runs migrations, and builds the pipeline
// with every configured adapter registered. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	p := pipeline.Build(cfg, st)
	if err := p.Warm(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "resolver.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, &exitError{code: 2, msg: "unsupported store driver: " + cfg.Store.Driver}
	}
}
