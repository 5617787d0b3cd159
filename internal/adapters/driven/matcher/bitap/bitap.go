package bitap

import (
	"math"
	"slices"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

// Ensure Matcher implements the interface.
var _ driven.ApproximateMatcher = (*Matcher)(nil)

// maxBits is the widest pattern one machine word can track.
const maxBits = 32

// minScore is the floor reported for any non-identical match.
const minScore = 0.001

// Options tunes the matcher.
type Options struct {
	// Threshold is the highest accepted score, 0 (exact) to 1 (anything).
	Threshold float64

	// Location is where the pattern is expected to start.
	Location int

	// Distance scales the proximity penalty: a match Distance runes away
	// from Location costs as much as a full mismatch.
	Distance int

	// IgnoreLocation drops the proximity penalty entirely.
	IgnoreLocation bool

	// MinMatchLength is the shortest run reported as matched.
	MinMatchLength int

	// FindAllMatches keeps scanning after a good match is found and
	// reports every run of pattern runes, not only the runs around the
	// best match.
	FindAllMatches bool
}

// DefaultOptions returns the handbook defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:      0.4,
		Distance:       100,
		IgnoreLocation: true,
		MinMatchLength: 3,
	}
}

// FromSettings converts fuzzy settings to matcher options.
func FromSettings(s domain.FuzzySettings) Options {
	return Options{
		Threshold:      s.Threshold,
		Distance:       s.Distance,
		IgnoreLocation: s.IgnoreLocation,
		MinMatchLength: s.MinMatchLength,
	}
}

// Matcher compiles patterns with fixed options.
type Matcher struct {
	opts Options
}

// New creates a matcher.
func New(opts Options) *Matcher {
	if opts.MinMatchLength < 1 {
		opts.MinMatchLength = 1
	}
	return &Matcher{opts: opts}
}

// Compile implements driven.ApproximateMatcher.
func (m *Matcher) Compile(pattern string) driven.CompiledPattern {
	p := &Pattern{
		pattern: []rune(strings.ToLower(pattern)),
		opts:    m.opts,
	}

	n := len(p.pattern)
	switch {
	case n == 0:
	case n <= maxBits:
		p.addChunk(0, n)
	default:
		remainder := n % maxBits
		end := n - remainder
		for i := 0; i < end; i += maxBits {
			p.addChunk(i, i+maxBits)
		}
		if remainder > 0 {
			p.addChunk(n-maxBits, n)
		}
	}
	return p
}

type chunk struct {
	pattern  []rune
	alphabet map[rune]uint32
	start    int
}

// Pattern is a compiled, immutable query. Safe for concurrent use.
type Pattern struct {
	pattern []rune
	chunks  []chunk
	opts    Options
}

func (p *Pattern) addChunk(from, to int) {
	runes := p.pattern[from:to]
	alphabet := make(map[rune]uint32, len(runes))
	for i, r := range runes {
		alphabet[r] |= 1 << (len(runes) - i - 1)
	}
	p.chunks = append(p.chunks, chunk{pattern: runes, alphabet: alphabet, start: from})
}

// Match implements driven.CompiledPattern.
func (p *Pattern) Match(text string) driven.TextMatch {
	runes := []rune(strings.ToLower(text))

	if len(runes) == 0 {
		return driven.TextMatch{Score: 1}
	}
	if slices.Equal(p.pattern, runes) {
		return driven.TextMatch{
			IsMatch: true,
			Score:   0,
			Ranges:  []driven.MatchRange{{Start: 0, End: len(runes) - 1}},
		}
	}
	if len(p.chunks) == 0 {
		return driven.TextMatch{Score: 1}
	}

	var total float64
	var ranges []driven.MatchRange
	matched := false
	for i := range p.chunks {
		c := &p.chunks[i]
		ok, score, found := p.search(runes, c, p.opts.Location+c.start)
		total += score
		if ok {
			matched = true
			ranges = append(ranges, found...)
		}
	}

	if !matched {
		return driven.TextMatch{Score: 1}
	}
	return driven.TextMatch{
		IsMatch: true,
		Score:   total / float64(len(p.chunks)),
		Ranges:  ranges,
	}
}

// search runs bitap for one chunk of at most maxBits runes.
func (p *Pattern) search(text []rune, c *chunk, location int) (bool, float64, []driven.MatchRange) {
	patternLen := len(c.pattern)
	textLen := len(text)
	expected := max(0, min(location, textLen))
	threshold := p.opts.Threshold
	bestLocation := expected
	matchMask := make([]bool, textLen)

	// Exact occurrences tighten the threshold before the fuzzy pass.
	for idx := indexRunes(text, c.pattern, bestLocation); idx >= 0; idx = indexRunes(text, c.pattern, bestLocation) {
		threshold = math.Min(p.score(patternLen, 0, idx, expected), threshold)
		bestLocation = idx + patternLen
		for k := 0; k < patternLen; k++ {
			matchMask[idx+k] = true
		}
	}

	bestLocation = -1
	bestErrs := 0
	finalScore := 1.0
	binMax := patternLen + textLen
	hit := uint32(1) << (patternLen - 1)
	var lastBits []uint32

	for errs := 0; errs < patternLen; errs++ {
		// Widest window in which errs errors can still beat the threshold.
		binMin, binMid := 0, binMax
		for binMin < binMid {
			if p.score(patternLen, errs, expected+binMid, expected) <= threshold {
				binMin = binMid
			} else {
				binMax = binMid
			}
			binMid = (binMax-binMin)/2 + binMin
		}
		binMax = binMid

		start := max(1, expected-binMid+1)
		finish := min(expected+binMid, textLen) + patternLen
		if p.opts.FindAllMatches {
			finish = textLen
		}

		bits := make([]uint32, finish+2)
		bits[finish+1] = (uint32(1) << errs) - 1

		for j := finish; j >= start; j-- {
			current := j - 1
			var charMatch uint32
			if current < textLen {
				charMatch = c.alphabet[text[current]]
				matchMask[current] = charMatch != 0
			}

			bits[j] = ((bits[j+1] << 1) | 1) & charMatch
			if errs > 0 {
				bits[j] |= ((at(lastBits, j+1) | at(lastBits, j)) << 1) | 1 | at(lastBits, j+1)
			}

			if bits[j]&hit != 0 {
				finalScore = p.score(patternLen, errs, current, expected)
				if finalScore <= threshold {
					threshold = finalScore
					bestLocation = current
					bestErrs = errs
					if bestLocation <= expected {
						break
					}
					start = max(1, 2*expected-bestLocation)
				}
			}
		}

		if p.score(patternLen, errs+1, expected, expected) > threshold {
			break
		}
		lastBits = bits
	}

	if bestLocation < 0 {
		return false, math.Max(minScore, finalScore), nil
	}
	if !p.opts.FindAllMatches {
		// Only runs around the best match are highlighted; scattered
		// pattern letters elsewhere in long text are not.
		windowMask(matchMask, bestLocation-bestErrs, bestLocation+patternLen+bestErrs-1)
	}
	ranges := maskToRanges(matchMask, p.opts.MinMatchLength)
	if len(ranges) == 0 {
		return false, math.Max(minScore, finalScore), nil
	}
	return true, math.Max(minScore, finalScore), ranges
}

// score is errors/len, plus distance from the expected location.
func (p *Pattern) score(patternLen, errs, current, expected int) float64 {
	accuracy := float64(errs) / float64(patternLen)
	if p.opts.IgnoreLocation {
		return accuracy
	}
	proximity := expected - current
	if proximity < 0 {
		proximity = -proximity
	}
	if p.opts.Distance == 0 {
		if proximity != 0 {
			return 1
		}
		return accuracy
	}
	return accuracy + float64(proximity)/float64(p.opts.Distance)
}

// maskToRanges turns matched positions into runs of at least minLen.
func maskToRanges(mask []bool, minLen int) []driven.MatchRange {
	var ranges []driven.MatchRange
	start := -1
	for i, m := range mask {
		switch {
		case m && start == -1:
			start = i
		case !m && start != -1:
			if i-start >= minLen {
				ranges = append(ranges, driven.MatchRange{Start: start, End: i - 1})
			}
			start = -1
		}
	}
	if start != -1 && len(mask)-start >= minLen {
		ranges = append(ranges, driven.MatchRange{Start: start, End: len(mask) - 1})
	}
	return ranges
}

// windowMask clears every position outside [lo, hi].
func windowMask(mask []bool, lo, hi int) {
	for i := range mask {
		if i < lo || i > hi {
			mask[i] = false
		}
	}
}

func at(bits []uint32, i int) uint32 {
	if i < len(bits) {
		return bits[i]
	}
	return 0
}

// indexRunes finds pattern in text at or after from.
func indexRunes(text, pattern []rune, from int) int {
	if len(pattern) == 0 {
		return -1
	}
	for i := max(from, 0); i+len(pattern) <= len(text); i++ {
		if slices.Equal(text[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}
