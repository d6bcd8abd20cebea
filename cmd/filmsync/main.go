// Package main is the entry point for the filmsync command.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/filmsync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/filmsync/internal/adapters/driven/extract/letterboxd"
	"github.com/custodia-labs/filmsync/internal/adapters/driven/fetch"
	"github.com/custodia-labs/filmsync/internal/adapters/driven/metadata"
	"github.com/custodia-labs/filmsync/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/filmsync/internal/adapters/driving/cli"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/core/services"
	"github.com/custodia-labs/filmsync/internal/logger"
)

func main() {
	cli.SetInitializer(initialise)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialise opens the store and config and builds every service.
func initialise(opts cli.Options) (cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("using database %s", store.Path())

	fetcher := fetch.NewClient(fetch.ConfigFromSettings(settings.Fetch))
	extractor := letterboxd.New()

	// Left as an untyped nil without a directory so metadata syncs fail
	// with ErrMetadataUnavailable.
	var metadataClient driven.MetadataClient
	if settings.MetadataDir != "" {
		fileClient, err := metadata.NewFileClient(settings.MetadataDir)
		if err != nil {
			logger.Warn("metadata disabled: %v", err)
		} else {
			metadataClient = metadata.NewBreakerClient(fileClient, metadata.DefaultBreakerConfig())
		}
	}

	tracker := services.NewSyncTracker(store.SyncAttemptStore(), settings.Sync.OverlapWindow)
	watches := services.NewWatchSync(tracker, fetcher, extractor,
		store.UserStore(), store.FilmEntryStore(), settings.Sync.RecentMax)
	lists := services.NewListSync(tracker, fetcher, extractor,
		store.FilmListStore(), settings.Sync.DiscoveryMaxPages)
	popular := services.NewPopularSync(tracker, fetcher, extractor,
		store.PopularMovieStore(), settings.Sync)
	metadataSync := services.NewMetadataSync(tracker, metadataClient,
		store.MovieStore(), store.FilmEntryStore(), store.PopularMovieStore(), settings.Sync.MetadataLimit)
	queue := services.NewEntryQueue(store.EntrySyncRequestStore(), watches)

	scheduler := services.NewScheduler(settingsService.GetSchedulerConfig(), store.SchedulerStore(), services.SchedulerJobs{
		Tracker:  tracker,
		Queue:    queue,
		Metadata: metadataSync,
		Popular:  popular,
	})

	watchConfig := func(ctx context.Context) error {
		return configStore.Watch(ctx, func() {
			if err := scheduler.Reconfigure(ctx, settingsService.GetSchedulerConfig()); err != nil {
				logger.Warn("scheduler: reconfigure failed: %v", err)
				return
			}
			logger.Info("scheduler: configuration reloaded")
		})
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store: %v", err)
		}
	}

	return cli.Services{
		Tracker:     tracker,
		Watches:     watches,
		Lists:       lists,
		Popular:     popular,
		Metadata:    metadataSync,
		Queue:       queue,
		Schedule:    scheduler,
		Settings:    settingsService,
		Users:       store.UserStore(),
		WatchConfig: watchConfig,
	}, cleanup, nil
}
