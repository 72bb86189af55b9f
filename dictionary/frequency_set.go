package dictionary

import (
	"fmt"
	"math"
)

// FrequencySource is a frequency dictionary with its weight in the
// harmonic. A disabled source or one with zero weight is still reported
// per dictionary but left out of the harmonic.
type FrequencySource struct {
	Dictionary *FrequencyDictionary
	Weight     float64
	Enabled    bool
}

// FrequencySet combines frequency dictionaries. A nil set knows no terms.
type FrequencySet struct {
	sources []FrequencySource
	titles  map[string]struct{}
}

func NewFrequencySet() *FrequencySet {
	return &FrequencySet{titles: make(map[string]struct{})}
}

// Add registers a source. Titles must be unique.
func (s *FrequencySet) Add(src FrequencySource) error {
	if src.Dictionary == nil {
		return fmt.Errorf("%w: nil frequency dictionary", ErrDictionaryUnavailable)
	}
	if src.Weight < 0 {
		return fmt.Errorf("frequency dictionary %q: negative weight %g", src.Dictionary.Title, src.Weight)
	}
	if s.titles == nil {
		s.titles = make(map[string]struct{})
	}
	if _, dup := s.titles[src.Dictionary.Title]; dup {
		return fmt.Errorf("frequency dictionary %q added twice", src.Dictionary.Title)
	}
	s.titles[src.Dictionary.Title] = struct{}{}
	s.sources = append(s.sources, src)
	return nil
}

// Len is the number of sources.
func (s *FrequencySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sources)
}

// Lookup returns the frequency of the term in every dictionary listing it,
// keyed by title, and the weighted harmonic mean over the enabled ones.
// Each frequency is divided by its dictionary's weight before averaging, so
// a heavier dictionary pulls the result toward its own (lower) rank. The
// harmonic is 0 when no enabled dictionary lists the term.
func (s *FrequencySet) Lookup(lemma, reading string) (map[string]int, int) {
	if s.Len() == 0 {
		return nil, 0
	}
	var per map[string]int
	var weighted []int
	for _, src := range s.sources {
		e, ok := src.Dictionary.Lookup(lemma, reading)
		if !ok {
			continue
		}
		if per == nil {
			per = make(map[string]int, len(s.sources))
		}
		per[src.Dictionary.Title] = e.Value
		if !src.Enabled || src.Weight <= 0 || e.Value <= 0 {
			continue
		}
		w := int(math.Round(float64(e.Value) / src.Weight))
		weighted = append(weighted, max(w, 1))
	}
	return per, harmonic(weighted)
}

// harmonic is the rounded harmonic mean of the positive values, or 0.
func harmonic(values []int) int {
	var sum float64
	n := 0
	for _, v := range values {
		if v > 0 {
			sum += 1 / float64(v)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(n) / sum))
}
