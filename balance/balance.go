// Package balance picks a reduced set of corpus files that keeps as much
// distinct vocabulary as possible under a size or count budget.
package balance

import (
	"sort"

	"vocabmine/model"
)

// File is a candidate for selection.
type File struct {
	ID     int    `json:"id"`
	Path   string `json:"path"`
	Source string `json:"source,omitempty"`
	Size   int64  `json:"size"`
}

// Target is the budget. Zero fields are unbounded.
type Target struct {
	MaxFiles int   `json:"max_files"`
	MaxBytes int64 `json:"max_bytes"`
}

func (t Target) fits(files int, bytes int64) bool {
	if t.MaxFiles > 0 && files > t.MaxFiles {
		return false
	}
	if t.MaxBytes > 0 && bytes > t.MaxBytes {
		return false
	}
	return true
}

// Selection is the outcome of Select. Files are in the order they were
// picked.
type Selection struct {
	Files    []File  `json:"files"`
	Covered  int     `json:"covered"`
	Total    int     `json:"total"`
	Coverage float64 `json:"coverage"`
	Bytes    int64   `json:"bytes"`
}

// Paths returns the selected paths in pick order.
func (s Selection) Paths() []string {
	out := make([]string, len(s.Files))
	for i, f := range s.Files {
		out[i] = f.Path
	}
	return out
}

// Select runs greedy maximum coverage: it repeatedly takes the file adding
// the most uncovered terms, preferring the smaller file and then the lower
// path on ties. It stops at the first pick that would break the budget or
// when no file adds coverage, so the pick order does not depend on the
// budget and a larger budget always yields a superset.
func Select(files []File, terms []*model.Term, target Target) Selection {
	sel := Selection{Total: len(terms)}
	if len(files) == 0 || len(terms) == 0 {
		return sel
	}

	byID := make(map[int]int, len(files))
	for i, f := range files {
		byID[f.ID] = i
	}
	// termsOf[i] lists the distinct terms occurring in files[i].
	termsOf := make([][]int, len(files))
	for ti, t := range terms {
		for _, fid := range t.Files() {
			if fi, ok := byID[fid]; ok {
				termsOf[fi] = append(termsOf[fi], ti)
			}
		}
	}

	covered := make([]bool, len(terms))
	taken := make([]bool, len(files))
	for {
		best, bestGain := -1, 0
		for i, f := range files {
			if taken[i] {
				continue
			}
			gain := 0
			for _, ti := range termsOf[i] {
				if !covered[ti] {
					gain++
				}
			}
			if gain == 0 {
				continue
			}
			if best < 0 || better(gain, f, bestGain, files[best]) {
				best, bestGain = i, gain
			}
		}
		if best < 0 {
			break
		}
		f := files[best]
		if !target.fits(len(sel.Files)+1, sel.Bytes+f.Size) {
			break
		}
		taken[best] = true
		for _, ti := range termsOf[best] {
			covered[ti] = true
		}
		sel.Files = append(sel.Files, f)
		sel.Bytes += f.Size
		sel.Covered += bestGain
	}
	sel.Coverage = float64(sel.Covered) / float64(sel.Total)
	return sel
}

func better(gain int, f File, bestGain int, best File) bool {
	if gain != bestGain {
		return gain > bestGain
	}
	if f.Size != best.Size {
		return f.Size < best.Size
	}
	return f.Path < best.Path
}

// trimShare is the fraction of sources dropped from both ends before the
// mean source size is taken.
const trimShare = 0.1

// BySource evens out sources before analysis. The mean source size is
// taken after trimming the largest and smallest sources; every source at
// or under it is kept whole and larger sources are cut to roughly that
// size, taking files in path order. With a single source every file is
// kept. The result is sorted by path.
func BySource(files []File) []File {
	groups := make(map[string][]File)
	for _, f := range files {
		groups[f.Source] = append(groups[f.Source], f)
	}
	out := make([]File, 0, len(files))
	if len(groups) <= 1 {
		out = append(out, files...)
		sortByPath(out)
		return out
	}

	sizes := make([]int64, 0, len(groups))
	for _, g := range groups {
		var total int64
		for _, f := range g {
			total += f.Size
		}
		sizes = append(sizes, total)
	}
	mean := trimmedMean(sizes)

	for _, g := range groups {
		sortByPath(g)
		var total int64
		for _, f := range g {
			total += f.Size
		}
		if total <= mean {
			out = append(out, g...)
			continue
		}
		var acc int64
		for _, f := range g {
			if acc >= mean {
				break
			}
			out = append(out, f)
			acc += f.Size
		}
	}
	sortByPath(out)
	return out
}

func trimmedMean(sizes []int64) int64 {
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	trim := int(float64(len(sizes))*trimShare) / 2 * 2
	each := trim / 2
	kept := sizes
	if len(sizes) > trim && each > 0 {
		kept = sizes[each : len(sizes)-each]
	}
	var sum int64
	for _, s := range kept {
		sum += s
	}
	return sum / int64(len(kept))
}

func sortByPath(files []File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
