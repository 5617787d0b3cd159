package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the search index",
	Long: `The index is built in memory the first time a section is searched.
Use these commands to build sections ahead of time or inspect what was built.`,
}

var indexJSON bool

var indexWarmCmd = &cobra.Command{
	Use:   "warm [section...]",
	Short: "Build sections now",
	Long:  `Fetches and indexes the given sections, or every configured section when none are named.`,
	RunE:  runIndexWarm,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show built sections",
	RunE:  runIndexStats,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear [section]",
	Short: "Discard built sections",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexClear,
}

func init() {
	indexWarmCmd.Flags().BoolVar(&indexJSON, "json", false, "output stats as JSON")
	indexStatsCmd.Flags().BoolVar(&indexJSON, "json", false, "output stats as JSON")
	indexCmd.AddCommand(indexWarmCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexWarm(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	sections, err := domain.ParseSections(args)
	if err != nil {
		return err
	}

	failures, err := indexService.Warm(cmd.Context(), sections...)
	if err != nil {
		return fmt.Errorf("warm failed: %w", err)
	}

	stats := indexService.Stats()
	if err := outputStats(cmd, stats); err != nil {
		return err
	}
	printUnavailable(cmd, failures)
	if len(stats) == 0 && len(failures) > 0 {
		return errors.New("no section could be indexed")
	}
	return nil
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}
	return outputStats(cmd, indexService.Stats())
}

func runIndexClear(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	if len(args) == 1 {
		section, err := domain.ParseSection(args[0])
		if err != nil {
			return err
		}
		indexService.ClearSection(section)
		cmd.Printf("Cleared %s.\n", section.Description())
		return nil
	}

	indexService.Clear()
	cmd.Println("Index cleared.")
	return nil
}

func outputStats(cmd *cobra.Command, stats []domain.SectionStats) error {
	if indexJSON {
		return outputJSON(cmd, stats)
	}
	if len(stats) == 0 {
		cmd.Println("No sections built.")
		return nil
	}
	for _, s := range stats {
		cmd.Printf("  %s\n", s)
	}
	return nil
}
