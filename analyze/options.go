package analyze

import (
	"vocabmine/balance"
	"vocabmine/dictionary"
	"vocabmine/lookup"
	"vocabmine/model"
)

const (
	// DefaultKnownThreshold is the corpus frequency at which a term counts
	// as known for comprehension.
	DefaultKnownThreshold = 3
	// DefaultSentenceBatch is how many sentences run between cancellation
	// checks.
	DefaultSentenceBatch = 64
	// DefaultWeight applies to sources without a configured weight.
	DefaultWeight = 1.0
)

// Options controls scoring and which terms are surfaced.
type Options struct {
	MinFrequency int
	// MaxFrequency of zero means unbounded.
	MaxFrequency        int
	IncludeUnknownWords bool
	// ExcludePOS lists parts of speech that are never surfaced.
	ExcludePOS model.POSSet
	// FrequencyWeights maps a source name to its weight.
	FrequencyWeights map[string]float64
	KnownThreshold   int
	Ignore           *lookup.IgnoreList
	// Frequencies ranks terms against external frequency dictionaries.
	Frequencies *dictionary.FrequencySet

	BalanceCorpus  bool
	BalanceTarget  balance.Target
	BalanceSources bool
	SentenceBatch  int
}

// DefaultOptions surfaces everything known to the dictionary.
func DefaultOptions() Options {
	return Options{
		MinFrequency:   1,
		KnownThreshold: DefaultKnownThreshold,
		SentenceBatch:  DefaultSentenceBatch,
		ExcludePOS:     model.POSSet{},
	}
}

// Weight returns the weight of source.
func (o Options) Weight(source string) float64 {
	if w, ok := o.FrequencyWeights[source]; ok {
		return w
	}
	return DefaultWeight
}

// Surfaces reports whether t passes the final inclusion filter.
func (o Options) Surfaces(t *model.Term) bool {
	if t.Frequency < o.MinFrequency {
		return false
	}
	if o.MaxFrequency > 0 && t.Frequency > o.MaxFrequency {
		return false
	}
	if o.ExcludePOS.Has(t.POS) {
		return false
	}
	if !o.IncludeUnknownWords && t.POS == model.Unknown {
		return false
	}
	return !o.Ignore.Contains(t.Lemma)
}

func (o Options) knownThreshold() int {
	if o.KnownThreshold <= 0 {
		return DefaultKnownThreshold
	}
	return o.KnownThreshold
}

func (o Options) sentenceBatch() int {
	if o.SentenceBatch <= 0 {
		return DefaultSentenceBatch
	}
	return o.SentenceBatch
}
