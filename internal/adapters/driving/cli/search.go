package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// searchFlags holds the flags shared by search and enhanced.
type searchFlags struct {
	limit    int
	json     bool
	sections []string
	tags     []string
	levels   []string
	author   string
	category string
	after    string
	before   string
	strategy string
	minScore float64
}

func (f *searchFlags) register(fs *pflag.FlagSet, withStrategy bool) {
	fs.IntVarP(&f.limit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	fs.BoolVar(&f.json, "json", false, "output results as JSON")
	fs.StringSliceVarP(&f.sections, "section", "s", nil, "limit to sections (handbook, guidelines, protocols, formulary)")
	fs.StringSliceVar(&f.tags, "tag", nil, "keep documents carrying any of the tags")
	fs.StringSliceVar(&f.levels, "level", nil, "keep documents at clinical levels (basic, intermediate, advanced)")
	fs.StringVar(&f.author, "author", "", "keep documents whose author contains this text")
	fs.StringVar(&f.category, "category", "", "keep documents in this category")
	fs.StringVar(&f.after, "after", "", "keep documents updated on or after this date (YYYY-MM-DD)")
	fs.StringVar(&f.before, "before", "", "keep documents updated on or before this date (YYYY-MM-DD)")
	if withStrategy {
		fs.StringVar(&f.strategy, "strategy", "", "exact, approximate, fallback or merge (default from config)")
		fs.Float64Var(&f.minScore, "min-score", 0, "drop exact matches scoring below this (0 = configured default)")
	}
}

func (f *searchFlags) reset() {
	*f = searchFlags{}
}

// options converts the flags into search options.
func (f *searchFlags) options() (domain.SearchOptions, error) {
	opts := domain.SearchOptions{
		Limit:    f.limit,
		MinScore: f.minScore,
		Filters: domain.Filters{
			Tags:     f.tags,
			Author:   f.author,
			Category: f.category,
		},
	}
	if f.limit < 0 {
		return opts, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}

	if f.strategy != "" {
		s := domain.Strategy(strings.ToLower(f.strategy))
		if !s.IsValid() {
			return opts, fmt.Errorf("%w: strategy %q", domain.ErrInvalidInput, f.strategy)
		}
		opts.Strategy = s
	}

	sections, err := domain.ParseSections(f.sections)
	if err != nil {
		return opts, err
	}
	opts.Filters.Sections = sections

	for _, l := range f.levels {
		level, err := domain.ParseClinicalLevel(l)
		if err != nil {
			return opts, err
		}
		opts.Filters.Levels = append(opts.Filters.Levels, level)
	}

	if opts.Filters.UpdatedAfter, err = parseDateFlag("after", f.after, false); err != nil {
		return opts, err
	}
	if opts.Filters.UpdatedBefore, err = parseDateFlag("before", f.before, true); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseDateFlag accepts RFC 3339 or YYYY-MM-DD. A bare date used as an
// upper bound covers the whole day.
func parseDateFlag(name, value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s %q is not a date", domain.ErrInvalidInput, name, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

var searchOpts searchFlags

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the handbook",
	Long: `Searches every configured section and lists matching documents by relevance.

Title hits rank first. Documents matching the full phrase are boosted and long
documents are normalised so they do not win on size alone. When no document
contains the query, a typo-tolerant matcher answers instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchOpts.register(searchCmd.Flags(), true)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts, err := searchOpts.options()
	if err != nil {
		return err
	}

	resp, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOpts.json {
		return outputJSON(cmd, resp)
	}

	printUnavailable(cmd, resp.Unavailable)
	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		printSuggestions(cmd, resp.Query)
		return nil
	}

	styled := styledOutput(cmd.OutOrStdout())
	if resp.Fallback {
		cmd.Println("No exact matches; showing closest matches.")
	}
	cmd.Println("Results:")
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("  [%d] %s (%s)\n", i+1, r.Reference.Title, r.Score)
		cmd.Printf("      %s / %s\n", r.Reference.Section.Description(), r.Reference.Path)
		if r.Excerpt != "" {
			cmd.Printf("      %s\n", renderExcerpt(r.Excerpt, styled))
		}
		cmd.Println()
	}
	return nil
}

// printSuggestions offers alternatives after an empty result.
func printSuggestions(cmd *cobra.Command, query string) {
	if searchService == nil || strings.TrimSpace(query) == "" {
		return
	}
	suggestions, err := searchService.GetSuggestions(cmd.Context(), query, 0)
	if err != nil || len(suggestions) == 0 {
		return
	}
	cmd.Printf("Did you mean: %s?\n", strings.Join(suggestions, ", "))
}
