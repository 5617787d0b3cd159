// Package cli implements the handbook command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services configured by the composition root.
var (
	searchService   driving.SearchService
	indexService    driving.IndexService
	settingsService driving.SettingsService
	contentWatcher  driven.ContentWatcher
)

var (
	verboseFlag bool
	quietFlag   bool
)

// Services groups the ports the commands use.
type Services struct {
	Search   driving.SearchService
	Index    driving.IndexService
	Settings driving.SettingsService

	// Watcher is optional. Long-running commands use it to clear
	// sections whose content changed.
	Watcher driven.ContentWatcher
}

var rootCmd = &cobra.Command{
	Use:   "handbook",
	Short: "Search the clinical handbook",
	Long: `Handbook indexes clinical handbook content on first use and answers
relevance-ranked searches across the handbook, guidelines, protocols and
formulary sections.

Exact keyword scoring is used first; when it finds nothing a typo-tolerant
matcher takes over.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
		logger.SetQuiet(quietFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "show indexing and search pipeline details")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress warnings")
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	searchService = s.Search
	indexService = s.Index
	settingsService = s.Settings
	contentWatcher = s.Watcher
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// startWatch clears changed sections until ctx is done.
// It does nothing when no watcher or index is configured.
func startWatch(ctx context.Context) {
	watcher, index := contentWatcher, indexService
	if watcher == nil || index == nil {
		return
	}
	go func() {
		err := watcher.Watch(ctx, func(section domain.SectionID) {
			logger.Info("content changed, clearing section %s", section)
			index.ClearSection(section)
		})
		if err != nil {
			logger.Warn("content watcher stopped: %v", err)
		}
	}()
}
