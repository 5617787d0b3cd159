package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMinQueryLength  = "search.min_query_length"
	keyDefaultLimit    = "search.default_limit"
	keyMaxLimit        = "search.max_limit"
	keyMinScore        = "search.min_score"
	keyStrategy        = "search.strategy"
	keySections        = "search.sections"
	keySuggestionLimit = "search.suggestion_limit"
	keyConcurrency     = "index.concurrency"
	keyTitleBoost      = "scoring.title_boost"
	keyPhraseBoost     = "scoring.phrase_boost"
	keyLengthScale     = "scoring.length_scale"
	keyLengthFloor     = "scoring.length_floor"
	keyFuzzyThreshold  = "fuzzy.threshold"
	keyFuzzyMinMatch   = "fuzzy.min_match_length"
	keyFuzzyIgnoreLoc  = "fuzzy.ignore_location"
	keyFuzzyDistance   = "fuzzy.distance"
	keyWeightTitle     = "fuzzy.weight.title"
	keyWeightHeadings  = "fuzzy.weight.headings"
	keyWeightText      = "fuzzy.weight.text"
	keyWeightTags      = "fuzzy.weight.tags"
	keyExcerptMax      = "excerpt.max_length"
	keyExcerptContext  = "excerpt.context"
	keyHighlightOpen   = "excerpt.highlight_open"
	keyHighlightClose  = "excerpt.highlight_close"
	keyContentSource   = "content.source"
	keyContentPath     = "content.path"
	keyContentBaseURL  = "content.base_url"
	keyContentToken    = "content.token"
	keyContentRate     = "content.rate"
	keyContentWatch    = "content.watch"
	keyGitHubOwner     = "content.github.owner"
	keyGitHubRepo      = "content.github.repo"
	keyGitHubRef       = "content.github.ref"
	keyGitHubRoot      = "content.github.root"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

var settingKinds = map[string]valueKind{
	keyMinQueryLength:  kindInt,
	keyDefaultLimit:    kindInt,
	keyMaxLimit:        kindInt,
	keyMinScore:        kindFloat,
	keyStrategy:        kindString,
	keySections:        kindList,
	keySuggestionLimit: kindInt,
	keyConcurrency:     kindInt,
	keyTitleBoost:      kindFloat,
	keyPhraseBoost:     kindFloat,
	keyLengthScale:     kindFloat,
	keyLengthFloor:     kindFloat,
	keyFuzzyThreshold:  kindFloat,
	keyFuzzyMinMatch:   kindInt,
	keyFuzzyIgnoreLoc:  kindBool,
	keyFuzzyDistance:   kindInt,
	keyWeightTitle:     kindFloat,
	keyWeightHeadings:  kindFloat,
	keyWeightText:      kindFloat,
	keyWeightTags:      kindFloat,
	keyExcerptMax:      kindInt,
	keyExcerptContext:  kindInt,
	keyHighlightOpen:   kindString,
	keyHighlightClose:  kindString,
	keyContentSource:   kindString,
	keyContentPath:     kindString,
	keyContentBaseURL:  kindString,
	keyContentToken:    kindString,
	keyContentRate:     kindFloat,
	keyContentWatch:    kindBool,
	keyGitHubOwner:     kindString,
	keyGitHubRepo:      kindString,
	keyGitHubRef:       kindString,
	keyGitHubRoot:      kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
// Missing keys take their defaults; the result is validated.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Search: domain.SearchSettings{
			MinQueryLength:  s.getInt(keyMinQueryLength, d.Search.MinQueryLength),
			DefaultLimit:    s.getInt(keyDefaultLimit, d.Search.DefaultLimit),
			MaxLimit:        s.getInt(keyMaxLimit, d.Search.MaxLimit),
			MinScore:        s.getFloat(keyMinScore, d.Search.MinScore),
			Strategy:        s.getStrategy(d.Search.Strategy),
			Sections:        s.getSections(d.Search.Sections),
			SuggestionLimit: s.getInt(keySuggestionLimit, d.Search.SuggestionLimit),
			Concurrency:     min(max(s.getInt(keyConcurrency, d.Search.Concurrency), minConcurrency), maxConcurrency),
			Scoring: domain.ScoringSettings{
				TitleBoost:  s.getFloat(keyTitleBoost, d.Search.Scoring.TitleBoost),
				PhraseBoost: s.getFloat(keyPhraseBoost, d.Search.Scoring.PhraseBoost),
				LengthScale: s.getFloat(keyLengthScale, d.Search.Scoring.LengthScale),
				LengthFloor: s.getFloat(keyLengthFloor, d.Search.Scoring.LengthFloor),
			},
			Fuzzy: domain.FuzzySettings{
				Threshold:      s.getFloat(keyFuzzyThreshold, d.Search.Fuzzy.Threshold),
				MinMatchLength: s.getInt(keyFuzzyMinMatch, d.Search.Fuzzy.MinMatchLength),
				IgnoreLocation: s.getBool(keyFuzzyIgnoreLoc, d.Search.Fuzzy.IgnoreLocation),
				Distance:       s.getInt(keyFuzzyDistance, d.Search.Fuzzy.Distance),
				Weights: domain.FieldWeights{
					Title:    s.getFloat(keyWeightTitle, d.Search.Fuzzy.Weights.Title),
					Headings: s.getFloat(keyWeightHeadings, d.Search.Fuzzy.Weights.Headings),
					Text:     s.getFloat(keyWeightText, d.Search.Fuzzy.Weights.Text),
					Tags:     s.getFloat(keyWeightTags, d.Search.Fuzzy.Weights.Tags),
				},
			},
			Excerpt: domain.ExcerptSettings{
				MaxLength:      s.getInt(keyExcerptMax, d.Search.Excerpt.MaxLength),
				Context:        s.getInt(keyExcerptContext, d.Search.Excerpt.Context),
				HighlightOpen:  s.getString(keyHighlightOpen, d.Search.Excerpt.HighlightOpen),
				HighlightClose: s.getString(keyHighlightClose, d.Search.Excerpt.HighlightClose),
			},
		},
		Content: domain.ContentSettings{
			Source:  s.getSource(d.Content.Source),
			Path:    s.configStore.GetString(keyContentPath),
			BaseURL: s.configStore.GetString(keyContentBaseURL),
			Token:   s.configStore.GetString(keyContentToken),
			Rate:    s.getFloat(keyContentRate, d.Content.Rate),
			Watch:   s.getBool(keyContentWatch, d.Content.Watch),
			Owner:   s.configStore.GetString(keyGitHubOwner),
			Repo:    s.configStore.GetString(keyGitHubRepo),
			Ref:     s.configStore.GetString(keyGitHubRef),
			Root:    s.configStore.GetString(keyGitHubRoot),
		},
	}

	if err := settings.Search.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys returns every supported configuration key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value returns the effective value of a key as text.
func (s *SettingsService) Value(key string) (string, error) {
	if _, ok := settingKinds[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	return formatSettings(settings)[key], nil
}

// Set parses and stores the value of a supported key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(key, kind, strings.TrimSpace(value))
	if err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(key string, kind valueKind, value string) (any, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalid(err)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, invalid(err)
		}
		if key == keyFuzzyThreshold && (f < 0 || f > 1) {
			return nil, invalid(fmt.Errorf("must be within [0, 1]"))
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, invalid(err)
		}
		return b, nil
	case kindList:
		var items []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if key == keySections {
			if _, err := domain.ParseSections(items); err != nil {
				return nil, err
			}
		}
		return items, nil
	}

	switch key {
	case keyStrategy:
		if !domain.Strategy(value).IsValid() {
			return nil, invalid(fmt.Errorf("unknown strategy %q", value))
		}
	case keyContentSource:
		if !domain.ContentSourceType(value).IsValid() {
			return nil, fmt.Errorf("%w: content source %q", domain.ErrUnsupportedType, value)
		}
	}
	return value, nil
}

// formatSettings renders every key of the settings as text.
func formatSettings(a *domain.AppSettings) map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	sections := make([]string, len(a.Search.Sections))
	for i, sec := range a.Search.Sections {
		sections[i] = sec.String()
	}
	token := ""
	if a.Content.Token != "" {
		token = "********"
	}

	return map[string]string{
		keyMinQueryLength:  strconv.Itoa(a.Search.MinQueryLength),
		keyDefaultLimit:    strconv.Itoa(a.Search.DefaultLimit),
		keyMaxLimit:        strconv.Itoa(a.Search.MaxLimit),
		keyMinScore:        f(a.Search.MinScore),
		keyStrategy:        a.Search.Strategy.String(),
		keySections:        strings.Join(sections, ","),
		keySuggestionLimit: strconv.Itoa(a.Search.SuggestionLimit),
		keyConcurrency:     strconv.Itoa(a.Search.Concurrency),
		keyTitleBoost:      f(a.Search.Scoring.TitleBoost),
		keyPhraseBoost:     f(a.Search.Scoring.PhraseBoost),
		keyLengthScale:     f(a.Search.Scoring.LengthScale),
		keyLengthFloor:     f(a.Search.Scoring.LengthFloor),
		keyFuzzyThreshold:  f(a.Search.Fuzzy.Threshold),
		keyFuzzyMinMatch:   strconv.Itoa(a.Search.Fuzzy.MinMatchLength),
		keyFuzzyIgnoreLoc:  strconv.FormatBool(a.Search.Fuzzy.IgnoreLocation),
		keyFuzzyDistance:   strconv.Itoa(a.Search.Fuzzy.Distance),
		keyWeightTitle:     f(a.Search.Fuzzy.Weights.Title),
		keyWeightHeadings:  f(a.Search.Fuzzy.Weights.Headings),
		keyWeightText:      f(a.Search.Fuzzy.Weights.Text),
		keyWeightTags:      f(a.Search.Fuzzy.Weights.Tags),
		keyExcerptMax:      strconv.Itoa(a.Search.Excerpt.MaxLength),
		keyExcerptContext:  strconv.Itoa(a.Search.Excerpt.Context),
		keyHighlightOpen:   a.Search.Excerpt.HighlightOpen,
		keyHighlightClose:  a.Search.Excerpt.HighlightClose,
		keyContentSource:   a.Content.Source.String(),
		keyContentPath:     a.Content.Path,
		keyContentBaseURL:  a.Content.BaseURL,
		keyContentToken:    token,
		keyContentRate:     f(a.Content.Rate),
		keyContentWatch:    strconv.FormatBool(a.Content.Watch),
		keyGitHubOwner:     a.Content.Owner,
		keyGitHubRepo:      a.Content.Repo,
		keyGitHubRef:       a.Content.Ref,
		keyGitHubRoot:      a.Content.Root,
	}
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStrategy(defaultVal domain.Strategy) domain.Strategy {
	strategy := domain.Strategy(s.configStore.GetString(keyStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getSource(defaultVal domain.ContentSourceType) domain.ContentSourceType {
	source := domain.ContentSourceType(s.configStore.GetString(keyContentSource))
	if !source.IsValid() {
		return defaultVal
	}
	return source
}

func (s *SettingsService) getSections(defaultVal []domain.SectionID) []domain.SectionID {
	names := s.configStore.GetStringSlice(keySections)
	if len(names) == 0 {
		return defaultVal
	}
	sections, err := domain.ParseSections(names)
	if err != nil {
		return defaultVal
	}
	return sections
}
