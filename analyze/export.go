package analyze

import (
	"vocabmine/model"
)

// ExportOptions selects which surfaced terms are handed to an exporter.
type ExportOptions struct {
	// ExcludeHapax drops terms seen only once.
	ExcludeHapax bool `json:"exclude_hapax"`
	// Limit keeps the first Limit ranked terms; zero keeps all.
	Limit int `json:"limit"`
}

// RankedTerm is a term with its frequency rank.
type RankedTerm struct {
	Rank int `json:"rank"`
	*model.Term
}

// Export ranks terms by frequency. Equal frequencies share a rank and the
// next distinct frequency is ranked by its position (1, 2, 2, 4). terms
// are sorted in place first.
func Export(terms []*model.Term, eo ExportOptions) []RankedTerm {
	SortTerms(terms)
	out := make([]RankedTerm, 0, len(terms))
	rank, prev := 0, -1
	for _, t := range terms {
		if eo.ExcludeHapax && t.Frequency <= 1 {
			continue
		}
		if eo.Limit > 0 && len(out) >= eo.Limit {
			break
		}
		if t.Frequency != prev {
			rank = len(out) + 1
			prev = t.Frequency
		}
		out = append(out, RankedTerm{Rank: rank, Term: t})
	}
	return out
}
