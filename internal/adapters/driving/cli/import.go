package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

var (
	importSource   string
	importPath     string
	importBaseURL  string
	importDataDir  string
	importSections []string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy handbook content into a local SQLite snapshot",
	Long: `Reads every document of the selected sections from a content source and
stores them in a SQLite database. Point content.source at sqlite afterwards to
search the snapshot offline.

The configured content source is used unless --source is given.

Examples:
  handbook import --source filesystem --path ./content
  handbook import --source http --base-url https://content.example.org/handbook
  handbook import --section formulary`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "content source to read (filesystem, http, github)")
	importCmd.Flags().StringVar(&importPath, "path", "", "filesystem content root")
	importCmd.Flags().StringVar(&importBaseURL, "base-url", "", "HTTP content endpoint")
	importCmd.Flags().StringVar(&importDataDir, "data-dir", "", "snapshot directory (default ~/.handbook/data)")
	importCmd.Flags().StringSliceVarP(&importSections, "section", "s", nil, "sections to import (default all configured)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	src := settings.Content
	dataDir := importDataDir
	if dataDir == "" && src.Source == domain.ContentSourceSQLite {
		dataDir = src.Path
	}
	if importSource != "" {
		src.Source = domain.ContentSourceType(importSource)
		src.Path = ""
	}
	if importPath != "" {
		src.Path = importPath
	}
	if importBaseURL != "" {
		src.BaseURL = importBaseURL
	}
	if src.Source == domain.ContentSourceSQLite {
		return fmt.Errorf("%w: import needs a filesystem, http or github source", domain.ErrInvalidInput)
	}

	sections := settings.Search.Sections
	if len(importSections) > 0 {
		if sections, err = domain.ParseSections(importSections); err != nil {
			return err
		}
	}

	source, closer, err := content.Open(cmd.Context(), src)
	if err != nil {
		return fmt.Errorf("failed to open %s content: %w", src.Source, err)
	}
	defer closer.Close()

	snapshot, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer snapshot.Close()

	results, err := snapshot.Import(cmd.Context(), source, sections)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  %s: failed: %v\n", r.Section.Description(), r.Err)
			continue
		}
		cmd.Printf("  %s: %d documents (%d skipped)\n", r.Section.Description(), r.Documents, r.Skipped)
	}
	cmd.Printf("Snapshot written to %s\n", snapshot.Path())

	if failed > 0 && failed == len(results) {
		return errors.New("no section could be imported")
	}
	return nil
}
