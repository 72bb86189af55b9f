package model

// TermKey is the aggregation key of a Term. It never changes once a Term exists.
type TermKey struct {
	Lemma        string       `json:"lemma"`
	LemmaReading string       `json:"lemma_reading"`
	POS          PartOfSpeech `json:"pos"`
}

// Occurrence records one sighting of a term inside a sentence.
type Occurrence struct {
	FileID   int `json:"file_id"`
	Sentence int `json:"sentence"`
	Offset   int `json:"offset"`
}

// Ref returns the sentence the occurrence belongs to.
func (o Occurrence) Ref() SentenceRef {
	return SentenceRef{FileID: o.FileID, Index: o.Sentence}
}

// Term is the corpus-level aggregation of words sharing a TermKey.
type Term struct {
	ID             int          `json:"id"`
	Lemma          string       `json:"lemma"`
	LemmaReading   string       `json:"lemma_reading"`
	Surface        string       `json:"surface"`
	Reading        string       `json:"reading"`
	Segment        string       `json:"segment"`
	SegmentReading string       `json:"segment_reading"`
	POS            PartOfSpeech `json:"pos"`
	IsKana         bool         `json:"is_kana"`
	Known          bool         `json:"known"`
	Occurrences    []Occurrence `json:"occurrences"`

	// Filled in by the frequency analyzer.
	Frequency       int         `json:"frequency"`
	FileCount       int         `json:"file_count"`
	WeightedScore   float64     `json:"weighted_score"`
	FileFrequencies map[int]int `json:"file_frequencies,omitempty"`

	// DictionaryFrequencies is the frequency rank of the term in each
	// configured frequency dictionary, by title. DictionaryFrequency is
	// their weighted harmonic mean, 0 when none lists the term.
	DictionaryFrequencies map[string]int `json:"dictionary_frequencies,omitempty"`
	DictionaryFrequency   int            `json:"dictionary_frequency,omitempty"`
}

// Key returns the aggregation key.
func (t *Term) Key() TermKey {
	return TermKey{Lemma: t.Lemma, LemmaReading: t.LemmaReading, POS: t.POS}
}

// Files returns the distinct file IDs the term occurs in, in first-seen order.
func (t *Term) Files() []int {
	seen := make(map[int]struct{}, 4)
	var out []int
	for _, o := range t.Occurrences {
		if _, ok := seen[o.FileID]; ok {
			continue
		}
		seen[o.FileID] = struct{}{}
		out = append(out, o.FileID)
	}
	return out
}
