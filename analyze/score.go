package analyze

import (
	"sort"

	"vocabmine/model"
)

// FileStats describes one source file after scoring.
type FileStats struct {
	FileID        int     `json:"file_id"`
	Path          string  `json:"path"`
	Source        string  `json:"source,omitempty"`
	Size          int64   `json:"size"`
	Sentences     int     `json:"sentences"`
	Terms         int     `json:"terms"`
	KnownTerms    int     `json:"known_terms"`
	Comprehension float64 `json:"comprehension"`
}

// Scores is the output of Score.
type Scores struct {
	// Files follows the order of the files passed to Score.
	Files []FileStats `json:"files"`
	// Surfaced holds the terms passing the filter, most frequent first.
	Surfaced []*model.Term `json:"surfaced"`
	// Excluded counts terms computed but filtered out.
	Excluded int `json:"excluded"`
	Total    int `json:"total"`
}

// Score fills the frequency fields of every term and computes per-file
// comprehension. Every term is scored, including those the filter later
// hides. The result does not depend on the order of terms, occurrences or
// files.
func Score(terms []*model.Term, files []*model.SourceFile, opts Options) Scores {
	sources := make(map[int]string, len(files))
	for _, f := range files {
		sources[f.ID] = f.Source
	}

	for _, t := range terms {
		scoreTerm(t, sources, opts)
	}

	known := opts.knownThreshold()
	// distinct terms per file, and how many of them are known
	perFile := make(map[int]int, len(files))
	knownPerFile := make(map[int]int, len(files))
	for _, t := range terms {
		isKnown := t.Frequency >= known
		for fid := range t.FileFrequencies {
			perFile[fid]++
			if isKnown {
				knownPerFile[fid]++
			}
		}
	}

	out := Scores{Total: len(terms), Files: make([]FileStats, 0, len(files))}
	for _, f := range files {
		fs := FileStats{
			FileID:     f.ID,
			Path:       f.Path,
			Source:     f.Source,
			Size:       f.Size,
			Sentences:  len(f.Sentences),
			Terms:      perFile[f.ID],
			KnownTerms: knownPerFile[f.ID],
		}
		fs.Comprehension = ratio(fs.KnownTerms, fs.Terms)
		out.Files = append(out.Files, fs)
	}

	for _, t := range terms {
		if opts.Surfaces(t) {
			out.Surfaced = append(out.Surfaced, t)
		} else {
			out.Excluded++
		}
	}
	SortTerms(out.Surfaced)
	return out
}

func scoreTerm(t *model.Term, sources map[int]string, opts Options) {
	t.FileFrequencies = make(map[int]int, 2)
	perSource := make(map[string]int, 2)
	for _, o := range t.Occurrences {
		t.FileFrequencies[o.FileID]++
		perSource[sources[o.FileID]]++
	}
	t.Frequency = len(t.Occurrences)
	t.FileCount = len(t.FileFrequencies)

	// integer counts per source, summed in name order, so float rounding
	// never depends on the order occurrences were found in
	names := make([]string, 0, len(perSource))
	for s := range perSource {
		names = append(names, s)
	}
	sort.Strings(names)
	t.WeightedScore = 0
	for _, s := range names {
		t.WeightedScore += opts.Weight(s) * float64(perSource[s])
	}
	t.DictionaryFrequencies, t.DictionaryFrequency = opts.Frequencies.Lookup(t.Lemma, t.LemmaReading)
}

// SortTerms orders terms by frequency, weighted score, then key.
func SortTerms(terms []*model.Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		a, b := terms[i], terms[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if a.Lemma != b.Lemma {
			return a.Lemma < b.Lemma
		}
		if a.LemmaReading != b.LemmaReading {
			return a.LemmaReading < b.LemmaReading
		}
		return a.POS < b.POS
	})
}

// SentenceComprehension returns, for every sentence with at least one term,
// the share of its distinct terms that are known. Terms must be scored.
func SentenceComprehension(terms []*model.Term, opts Options) map[model.SentenceRef]float64 {
	known := opts.knownThreshold()
	total := make(map[model.SentenceRef]int)
	hits := make(map[model.SentenceRef]int)
	for _, t := range terms {
		seen := make(map[model.SentenceRef]struct{}, len(t.Occurrences))
		for _, o := range t.Occurrences {
			ref := o.Ref()
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			total[ref]++
			if t.Frequency >= known {
				hits[ref]++
			}
		}
	}
	out := make(map[model.SentenceRef]float64, len(total))
	for ref, n := range total {
		out[ref] = ratio(hits[ref], n)
	}
	return out
}

// SentenceScore is the comprehension of one sentence.
type SentenceScore struct {
	model.SentenceRef
	Comprehension float64 `json:"comprehension"`
}

// SentenceScores lists SentenceComprehension ordered by file and sentence.
func SentenceScores(terms []*model.Term, opts Options) []SentenceScore {
	byRef := SentenceComprehension(terms, opts)
	out := make([]SentenceScore, 0, len(byRef))
	for ref, c := range byRef {
		out = append(out, SentenceScore{SentenceRef: ref, Comprehension: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FileID != out[j].FileID {
			return out[i].FileID < out[j].FileID
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Comprehension is the mean file comprehension weighted by term count, or
// 0 without files.
func (s Scores) Comprehension() float64 {
	var known, total int
	for _, f := range s.Files {
		known += f.KnownTerms
		total += f.Terms
	}
	return ratio(known, total)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
