package kanji

import "strings"

// Furigana annotates each run of kanji in surface with its share of
// reading, e.g. 食べる + たべる gives 食[た]べる. Kana in surface anchor
// the split. When reading cannot be aligned the whole reading follows the
// surface in brackets. Surfaces without kanji are returned unchanged.
func Furigana(surface, reading string) string {
	if reading == "" || !strings.ContainsFunc(surface, IsKanji) {
		return surface
	}
	rd := []rune(KatakanaToHiragana(reading))
	runs := splitRuns(surface)

	var b strings.Builder
	k := 0
	for i, run := range runs {
		if !IsKanji(run[0]) {
			want := []rune(KatakanaToHiragana(string(run)))
			if !hasPrefixAt(rd, want, k) {
				return fallback(surface, rd)
			}
			b.WriteString(string(run))
			k += len(want)
			continue
		}
		end := len(rd)
		if i+1 < len(runs) {
			next := []rune(KatakanaToHiragana(string(runs[i+1])))
			end = indexFrom(rd, next, k+1)
		}
		if end <= k {
			return fallback(surface, rd)
		}
		b.WriteString(string(run))
		b.WriteString("[" + string(rd[k:end]) + "]")
		k = end
	}
	if k != len(rd) {
		return fallback(surface, rd)
	}
	return b.String()
}

func fallback(surface string, rd []rune) string {
	return surface + "[" + string(rd) + "]"
}

// splitRuns cuts s into maximal runs of kanji and non-kanji runes.
func splitRuns(s string) [][]rune {
	var runs [][]rune
	for _, r := range s {
		n := len(runs)
		if n > 0 && IsKanji(runs[n-1][0]) == IsKanji(r) {
			runs[n-1] = append(runs[n-1], r)
			continue
		}
		runs = append(runs, []rune{r})
	}
	return runs
}

func hasPrefixAt(s, prefix []rune, at int) bool {
	if at+len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[at+i] != r {
			return false
		}
	}
	return true
}

// indexFrom returns the first index >= from where sub starts in s, or -1.
func indexFrom(s, sub []rune, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if hasPrefixAt(s, sub, i) {
			return i
		}
	}
	return -1
}
