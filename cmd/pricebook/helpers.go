package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/common"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/config"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/engine"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/service"
	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func loadEngineConfig() (engine.Config, error) {
	return config.LoadEngineConfig(viper.GetViper())
}

// notFoundAsUserError turns a not-found failure into a message for the user.
// Other errors are returned unchanged.
func notFoundAsUserError(err error, format string, args ...any) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf(format, args...), err)
	}
	return err
}
