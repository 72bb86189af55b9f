// Package terms folds words from every sentence of a corpus into unique
// terms keyed by lemma, lemma reading and part of speech.
package terms

import (
	"vocabmine/kanji"
	"vocabmine/model"
)

// Aggregator builds the term mapping. It is owned by a single worker and
// is not safe for concurrent use.
type Aggregator struct {
	index map[model.TermKey]int
	terms []*model.Term
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[model.TermKey]int)}
}

// Excluded reports whether w never becomes a term: blank segments and
// punctuation carry no vocabulary.
func Excluded(w model.Word) bool {
	return w.POS == model.Symbol || kanji.IsBlank(w.Lemma) || kanji.IsBlank(w.Segment)
}

// Add records one sighting of w in sentence sentenceIndex of file fileID.
// The first sighting of a key creates the term and supplies its forms and
// representative segment. It reports whether w was aggregated.
func (a *Aggregator) Add(w model.Word, fileID, sentenceIndex int) bool {
	if Excluded(w) {
		return false
	}
	key := model.TermKey{Lemma: w.Lemma, LemmaReading: w.LemmaReading, POS: w.POS}
	occ := model.Occurrence{FileID: fileID, Sentence: sentenceIndex, Offset: w.Start}
	if i, ok := a.index[key]; ok {
		t := a.terms[i]
		t.Occurrences = append(t.Occurrences, occ)
		return true
	}
	t := &model.Term{
		ID:             len(a.terms),
		Lemma:          w.Lemma,
		LemmaReading:   w.LemmaReading,
		Surface:        w.Surface,
		Reading:        w.Reading,
		Segment:        w.Segment,
		SegmentReading: w.SegmentReading,
		POS:            w.POS,
		IsKana:         kanji.IsKanaString(w.Lemma),
		Known:          w.Known,
		Occurrences:    []model.Occurrence{occ},
	}
	a.index[key] = len(a.terms)
	a.terms = append(a.terms, t)
	return true
}

// AddSentence adds every word of one sentence and returns how many were
// aggregated.
func (a *Aggregator) AddSentence(words []model.Word, s model.SentenceRef) int {
	n := 0
	for _, w := range words {
		if a.Add(w, s.FileID, s.Index) {
			n++
		}
	}
	return n
}

// Lookup returns the term for key.
func (a *Aggregator) Lookup(key model.TermKey) (*model.Term, bool) {
	i, ok := a.index[key]
	if !ok {
		return nil, false
	}
	return a.terms[i], true
}

// Terms returns the terms in first-seen order. The slice is shared with
// the aggregator.
func (a *Aggregator) Terms() []*model.Term {
	return a.terms
}

// Len is the number of distinct terms.
func (a *Aggregator) Len() int {
	return len(a.terms)
}
