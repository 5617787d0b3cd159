// Command handbook searches clinical handbook content.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/config/file"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/matcher/bitap"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/cli"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/core/services"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configStore, err := openConfigStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore)

	svc := cli.Services{Settings: settingsService}
	closer, err := wireSearch(ctx, settingsService, &svc)
	if err != nil {
		// Settings and version still work without content.
		logger.Warn("search unavailable: %v", err)
	} else {
		defer closer.Close()
	}

	cli.SetServices(svc)
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

func openConfigStore() (driven.ConfigStore, error) {
	if os.Getenv("HANDBOOK_NO_CONFIG") != "" {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore("")
}

// wireSearch opens the configured content store and builds the index
// and search services on top of it.
func wireSearch(ctx context.Context, settingsService *services.SettingsService, svc *cli.Services) (io.Closer, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	store, closer, err := content.Open(ctx, settings.Content)
	if err != nil {
		return nil, fmt.Errorf("opening %s content: %w", settings.Content.Source, err)
	}

	index := services.NewSearchIndex(store, settings.Search.Concurrency, settings.Search.Sections)
	matcher := bitap.New(bitap.FromSettings(settings.Search.Fuzzy))

	svc.Search = services.NewSearchService(index, matcher, settings.Search)
	svc.Index = index
	if watcher, ok := store.(driven.ContentWatcher); ok && settings.Content.Watch {
		svc.Watcher = watcher
	}
	return closer, nil
}
