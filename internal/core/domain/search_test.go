package domain

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStrategy_IsValid(t *testing.T) {
	for _, s := range []Strategy{StrategyExact, StrategyApproximate, StrategyFallback, StrategyMerge} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, Strategy("hybrid").IsValid())
	assert.False(t, Strategy("").IsValid())
}

func TestScore_Better(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Score
		expected bool
	}{
		{"higher wins when higher is better", Score{Value: 2, HigherIsBetter: true}, Score{Value: 1, HigherIsBetter: true}, true},
		{"lower loses when higher is better", Score{Value: 1, HigherIsBetter: true}, Score{Value: 2, HigherIsBetter: true}, false},
		{"lower wins when lower is better", Score{Value: 0.1}, Score{Value: 0.3}, true},
		{"higher loses when lower is better", Score{Value: 0.3}, Score{Value: 0.1}, false},
		{"equal is not better", Score{Value: 1, HigherIsBetter: true}, Score{Value: 1, HigherIsBetter: true}, false},
		{"tier beats value", Score{Value: 0.2, HigherIsBetter: true, Tier: 1}, Score{Value: 9, HigherIsBetter: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Better(tt.b))
		})
	}
}

func TestScore_SortsInNativeDirection(t *testing.T) {
	exact := []Score{{Value: 1, HigherIsBetter: true}, {Value: 3, HigherIsBetter: true}, {Value: 2, HigherIsBetter: true}}
	sort.SliceStable(exact, func(i, j int) bool { return exact[i].Better(exact[j]) })
	assert.Equal(t, []float64{3, 2, 1}, []float64{exact[0].Value, exact[1].Value, exact[2].Value})

	approx := []Score{{Value: 0.3}, {Value: 0.01}, {Value: 0.2}}
	sort.SliceStable(approx, func(i, j int) bool { return approx[i].Better(approx[j]) })
	assert.Equal(t, []float64{0.01, 0.2, 0.3}, []float64{approx[0].Value, approx[1].Value, approx[2].Value})
}

func TestScore_String(t *testing.T) {
	assert.Equal(t, "12.50", Score{Value: 12.5, HigherIsBetter: true}.String())
	assert.Equal(t, "0.125", Score{Value: 0.125}.String())
}

func TestMatchSpan_Len(t *testing.T) {
	assert.Equal(t, 1, MatchSpan{Start: 4, End: 4}.Len())
	assert.Equal(t, 10, MatchSpan{Start: 0, End: 9}.Len())
}

func testRecord() *IndexedRecord {
	return &IndexedRecord{
		ID:      "guidelines:pain",
		Section: SectionGuidelines,
		Path:    "pain",
		Title:   "Pain Management",
		Metadata: RecordMetadata{
			Category:      "Analgesia",
			Author:        "Dr. Ada Okafor",
			LastUpdated:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Tags:          []string{"Pain", "opioids"},
			ClinicalLevel: LevelIntermediate,
		},
	}
}

func TestFilters_Match(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		filters  Filters
		expected bool
	}{
		{"empty", Filters{}, true},
		{"section allowed", Filters{Sections: []SectionID{SectionGuidelines}}, true},
		{"section excluded", Filters{Sections: []SectionID{SectionFormulary}}, false},
		{"tag any-match ignores case", Filters{Tags: []string{"sedation", "PAIN"}}, true},
		{"tag missing", Filters{Tags: []string{"sedation"}}, false},
		{"level allowed", Filters{Levels: []ClinicalLevel{LevelBasic, LevelIntermediate}}, true},
		{"level excluded", Filters{Levels: []ClinicalLevel{LevelAdvanced}}, false},
		{"author substring", Filters{Author: "okafor"}, true},
		{"author mismatch", Filters{Author: "smith"}, false},
		{"category ignores case", Filters{Category: "analgesia"}, true},
		{"category mismatch", Filters{Category: "Sedation"}, false},
		{"after bound inclusive", Filters{UpdatedAfter: day(15)}, true},
		{"before bound inclusive", Filters{UpdatedBefore: day(15)}, true},
		{"after excludes older", Filters{UpdatedAfter: day(16)}, false},
		{"before excludes newer", Filters{UpdatedBefore: day(14)}, false},
		{"range contains", Filters{UpdatedAfter: day(1), UpdatedBefore: day(31)}, true},
	}

	r := testRecord()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filters.Match(r))
		})
	}
}

func TestFilters_DateRangeExcludesUndated(t *testing.T) {
	r := testRecord()
	r.Metadata.LastUpdated = time.Time{}

	f := Filters{UpdatedAfter: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	assert.False(t, f.Match(r))
	assert.True(t, (&Filters{}).Match(r))
}

func TestFilters_IsEmpty(t *testing.T) {
	assert.True(t, (&Filters{}).IsEmpty())
	assert.True(t, (&Filters{Sections: []SectionID{SectionHandbook}}).IsEmpty())
	assert.False(t, (&Filters{Author: "x"}).IsEmpty())
}

func TestSearchResponse_Partial(t *testing.T) {
	resp := &SearchResponse{}
	assert.False(t, resp.Partial())

	resp.Unavailable = append(resp.Unavailable, NewSectionFailure(SectionFormulary, ErrIndexUnavailable))
	assert.True(t, resp.Partial())
	assert.Equal(t, "index unavailable", resp.Unavailable[0].Message)
}
