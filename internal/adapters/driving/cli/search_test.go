package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// execute runs the root command with args and returns everything it wrote.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search the handbook", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "angina")

	require.NoError(t, err)
	assert.Equal(t, "angina", ts.search.lastQuery)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Stable Angina (12.50)")
	assert.Contains(t, out, "Clinical Handbook / cardiology/angina")
	assert.Contains(t, out, "Give «aspirin» and GTN.", "plain output keeps highlight markers")
}

func TestSearchCmd_FlagsBecomeOptions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("search",
		"-n", "5",
		"--section", "protocols,formulary",
		"--tag", "cardiac",
		"--level", "advanced",
		"--author", "smith",
		"--category", "Drugs",
		"--after", "2024-01-01",
		"--before", "2024-02-01",
		"--strategy", "EXACT",
		"--min-score", "1.5",
		"chest pain")

	require.NoError(t, err)
	opts := ts.search.lastOpts
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, 1.5, opts.MinScore)
	assert.Equal(t, domain.StrategyExact, opts.Strategy)
	assert.Equal(t, []domain.SectionID{domain.SectionProtocols, domain.SectionFormulary}, opts.Filters.Sections)
	assert.Equal(t, []string{"cardiac"}, opts.Filters.Tags)
	assert.Equal(t, []domain.ClinicalLevel{domain.LevelAdvanced}, opts.Filters.Levels)
	assert.Equal(t, "smith", opts.Filters.Author)
	assert.Equal(t, "Drugs", opts.Filters.Category)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), opts.Filters.UpdatedAfter)
	assert.Equal(t, time.Date(2024, 2, 1, 23, 59, 59, 999999999, time.UTC), opts.Filters.UpdatedBefore)
}

func TestSearchCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"strategy", []string{"--strategy", "vector"}, domain.ErrInvalidInput},
		{"section", []string{"--section", "radiology"}, domain.ErrUnknownSection},
		{"level", []string{"--level", "expert"}, domain.ErrInvalidInput},
		{"date", []string{"--after", "last week"}, domain.ErrInvalidInput},
		{"negative limit", []string{"--limit", "-1"}, domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cleanup := setupTestServices()
			defer cleanup()

			_, err := execute(append(append([]string{"search"}, tt.args...), "sepsis")...)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("search", "--json", "angina")

	require.NoError(t, err)
	assert.Contains(t, out, `"query": "angina"`)
	assert.Contains(t, out, `"score"`)
	assert.Contains(t, out, `"higher_is_better": true`)
}

func TestSearchCmd_NoResultsOffersSuggestions(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.empty = true
	ts.search.suggestions = []string{"aspirin", "asthma"}

	out, err := execute("search", "asprin")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
	assert.Contains(t, out, "Did you mean: aspirin, asthma?")
}

func TestSearchCmd_FallbackNote(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.fallback = true

	out, err := execute("search", "angnia")

	require.NoError(t, err)
	assert.Contains(t, out, "No exact matches; showing closest matches.")
}

func TestSearchCmd_UnavailableSectionsWarn(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.search.unavailable = []domain.SectionFailure{{Section: domain.SectionGuidelines, Message: "timeout"}}

	out, err := execute("search", "angina")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: Guidelines unavailable: timeout")
	assert.Contains(t, out, "Stable Angina")
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	searchService = nil

	_, err := execute("search", "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	searchService = &mockSearchServiceError{}

	_, err := execute("search", "test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
	assert.ErrorIs(t, err, errMockSearch)
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, &domain.SearchResponse{Results: []domain.SearchResult{}})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}

func TestRenderExcerpt(t *testing.T) {
	excerpt := "give «morphine» slowly"

	assert.Equal(t, excerpt, renderExcerpt(excerpt, false))

	styled := renderExcerpt(excerpt, true)
	assert.Contains(t, styled, "morphine")
	assert.Contains(t, styled, "slowly")
	assert.NotContains(t, styled, domain.HighlightOpen)
	assert.NotContains(t, styled, domain.HighlightClose)
}

func TestRenderExcerpt_UnclosedMarker(t *testing.T) {
	assert.Equal(t, "give «morph", renderExcerpt("give «morph", true))
	assert.Empty(t, renderExcerpt("", true))
}

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("after", "2024-03-01T10:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), got, "timestamps are not widened")

	zero, err := parseDateFlag("after", "", false)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}
