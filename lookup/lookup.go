// Package lookup holds the ignore list: lemmas that are never surfaced as
// vocabulary.
package lookup

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// DefaultIgnoredLemmas are grammatical function words.
var DefaultIgnoredLemmas = []string{
	"の", "は", "に", "へ", "を", "て", "が", "だ", "た", "と", "から", "も", "で", "か", "です",
	"ね", "な",
}

// IgnoreList is a set of lemmas, safe for concurrent use.
type IgnoreList struct {
	mu    sync.RWMutex
	terms map[string]struct{}
}

// NewIgnoreList returns a list holding terms.
func NewIgnoreList(terms ...string) *IgnoreList {
	l := &IgnoreList{terms: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		l.Add(t)
	}
	return l
}

// Default returns a list seeded with DefaultIgnoredLemmas.
func Default() *IgnoreList {
	return NewIgnoreList(DefaultIgnoredLemmas...)
}

// Add inserts term and reports whether it was new.
func (l *IgnoreList) Add(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.terms[term]; ok {
		return false
	}
	l.terms[term] = struct{}{}
	return true
}

// Remove deletes term and reports whether it was present.
func (l *IgnoreList) Remove(term string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.terms[term]; !ok {
		return false
	}
	delete(l.terms, term)
	return true
}

// Contains reports whether lemma is ignored. A nil list ignores nothing.
func (l *IgnoreList) Contains(lemma string) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.terms[lemma]
	return ok
}

// Terms returns the ignored lemmas sorted.
func (l *IgnoreList) Terms() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.terms))
	for t := range l.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len is the number of ignored lemmas.
func (l *IgnoreList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.terms)
}

// LoadFile adds one lemma per line of path. Blank lines and lines starting
// with # are skipped. Only the first tab-separated column is used, so
// frequency lists exported as TSV load directly. It returns how many new
// lemmas were added.
func (l *IgnoreList) LoadFile(fs afero.Fs, path string) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()
	added := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, _, _ := strings.Cut(line, "\t")
		if l.Add(term) {
			added++
		}
	}
	if err := sc.Err(); err != nil {
		return added, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return added, nil
}
