package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

var enhancedOpts searchFlags

var enhancedCmd = &cobra.Command{
	Use:   "enhanced [query]",
	Short: "Typo-tolerant search with match details",
	Long: `Runs the approximate matcher over titles, headings, text and tags and shows
which fields matched for each result. Lower scores are closer matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnhanced,
}

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest [fragment]",
	Short: "Suggest titles and terms for a partial query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	enhancedOpts.register(enhancedCmd.Flags(), false)
	suggestCmd.Flags().IntVarP(&suggestLimit, "limit", "n", 0, "maximum number of suggestions (0 = configured default)")
	rootCmd.AddCommand(enhancedCmd)
	rootCmd.AddCommand(suggestCmd)
}

func runEnhanced(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts, err := enhancedOpts.options()
	if err != nil {
		return err
	}

	resp, err := searchService.EnhancedSearch(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if enhancedOpts.json {
		return outputJSON(cmd, resp)
	}

	printUnavailable(cmd, resp.Unavailable)
	return outputEnhancedTable(cmd, resp)
}

func outputEnhancedTable(cmd *cobra.Command, resp *domain.EnhancedSearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		printSuggestions(cmd, resp.Query)
		return nil
	}

	styled := styledOutput(cmd.OutOrStdout())
	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%.0f%% similar)\n", i+1, r.Reference.Title, r.Similarity*100)
		cmd.Printf("      %s / %s\n", r.Reference.Section.Description(), r.Reference.Path)
		fields := make([]string, 0, len(r.Matches))
		for _, m := range r.Matches {
			fields = append(fields, fmt.Sprintf("%s %.3f", m.Field, m.Score))
		}
		if len(fields) > 0 {
			cmd.Printf("      Matched: %s\n", strings.Join(fields, ", "))
		}
		if r.Excerpt != "" {
			cmd.Printf("      %s\n", renderExcerpt(r.Excerpt, styled))
		}
		cmd.Println()
	}
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	suggestions, err := searchService.GetSuggestions(cmd.Context(), args[0], suggestLimit)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}

	if len(suggestions) == 0 {
		cmd.Println("No suggestions.")
		return nil
	}
	for _, s := range suggestions {
		cmd.Println(s)
	}
	return nil
}
