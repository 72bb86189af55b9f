package dictionary

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"vocabmine/kanji"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
)

// ErrUnsupportedFrequencyFormat is returned for frequency dictionaries whose
// index does not declare format 3.
var ErrUnsupportedFrequencyFormat = errors.New("unsupported frequency dictionary format")

const (
	frequencyIndexFile = "index.json"
	termMetaBankGlob   = "term_meta_bank_*.json"
	// kanaMarker flags entries that apply when the term is written in kana.
	kanaMarker = "㋕"
)

// FrequencyEntry is one frequency listed for a term. Reading is empty for
// entries that apply to every reading.
type FrequencyEntry struct {
	Reading      string `json:"reading,omitempty"`
	Value        int    `json:"value"`
	DisplayValue string `json:"display_value,omitempty"`
}

// KanaOnly reports whether the entry applies to the kana spelling.
func (e FrequencyEntry) KanaOnly() bool {
	return strings.Contains(e.DisplayValue, kanaMarker)
}

// FrequencyDictionary is a Yomitan frequency dictionary: term to the
// frequencies it lists. Terms and readings are stored with long vowels
// normalised.
type FrequencyDictionary struct {
	Title    string
	Revision string
	terms    map[string][]FrequencyEntry
}

// NewFrequencyDictionary returns an empty dictionary.
func NewFrequencyDictionary(title, revision string) *FrequencyDictionary {
	return &FrequencyDictionary{Title: title, Revision: revision, terms: make(map[string][]FrequencyEntry)}
}

// Add lists e under term.
func (d *FrequencyDictionary) Add(term string, e FrequencyEntry) {
	e.Reading = normalizeLongVowel(kanji.KatakanaToHiragana(e.Reading))
	key := normalizeLongVowel(term)
	d.terms[key] = append(d.terms[key], e)
}

// Len is the number of distinct terms.
func (d *FrequencyDictionary) Len() int {
	return len(d.terms)
}

// Lookup returns the frequency of lemma read as reading. For a kana lemma
// an entry marked as kana-only with the same reading wins, then an entry
// without reading. Otherwise the lowest unmarked entry with the same reading
// is used, then an entry without reading.
func (d *FrequencyDictionary) Lookup(lemma, reading string) (FrequencyEntry, bool) {
	entries := d.terms[normalizeLongVowel(lemma)]
	if len(entries) == 0 {
		return FrequencyEntry{}, false
	}
	reading = normalizeLongVowel(kanji.KatakanaToHiragana(reading))

	if kanji.IsKanaString(lemma) {
		for _, e := range entries {
			if e.Reading != "" && e.KanaOnly() && e.Reading == reading {
				return e, true
			}
		}
		if e, ok := readingless(entries); ok {
			return e, true
		}
	}

	var best FrequencyEntry
	found := false
	for _, e := range entries {
		if e.Reading == "" || e.KanaOnly() || e.Reading != reading {
			continue
		}
		if !found || e.Value < best.Value {
			best, found = e, true
		}
	}
	if found {
		return best, true
	}
	return readingless(entries)
}

func readingless(entries []FrequencyEntry) (FrequencyEntry, bool) {
	for _, e := range entries {
		if e.Reading == "" {
			return e, true
		}
	}
	return FrequencyEntry{}, false
}

// LoadFrequencyDictionary reads a Yomitan frequency dictionary from a
// directory or a .zip archive holding index.json and term_meta_bank_N.json
// files. Rows that are not frequencies or cannot be read are skipped.
func LoadFrequencyDictionary(fs afero.Fs, p string) (*FrequencyDictionary, error) {
	fi, err := fs.Stat(p)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return readFrequencyDictionary(fs, p)
	}
	if !strings.EqualFold(path.Ext(p), ".zip") {
		return nil, fmt.Errorf("%s: want a directory or a .zip archive", p)
	}
	f, err := fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	d, err := readFrequencyDictionary(zipfs.New(zr), "/")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return d, nil
}

type frequencyIndex struct {
	Title    string `json:"title"`
	Revision string `json:"revision"`
	Format   int    `json:"format"`
	Version  int    `json:"version"`
}

func readFrequencyDictionary(fs afero.Fs, dir string) (*FrequencyDictionary, error) {
	data, err := afero.ReadFile(fs, path.Join(dir, frequencyIndexFile))
	if err != nil {
		return nil, err
	}
	var idx frequencyIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%s: %w", frequencyIndexFile, err)
	}
	format := idx.Format
	if format == 0 {
		format = idx.Version
	}
	if format != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFrequencyFormat, format)
	}
	if idx.Title == "" {
		return nil, fmt.Errorf("%s: missing title", frequencyIndexFile)
	}

	banks, err := termMetaBanks(fs, dir)
	if err != nil {
		return nil, err
	}
	d := NewFrequencyDictionary(idx.Title, idx.Revision)
	for _, name := range banks {
		data, err := afero.ReadFile(fs, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if err := d.addBank(data); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return d, nil
}

// termMetaBanks lists the bank files of dir in numeric order.
func termMetaBanks(fs afero.Fs, dir string) ([]string, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	type bank struct {
		name string
		n    int
	}
	var banks []bank
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		ok, _ := doublestar.Match(termMetaBankGlob, fi.Name())
		if !ok {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(fi.Name(), "term_meta_bank_"), ".json")
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 {
			continue
		}
		banks = append(banks, bank{fi.Name(), n})
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].n < banks[j].n })
	out := make([]string, len(banks))
	for i, b := range banks {
		out[i] = b.name
	}
	return out, nil
}

func (d *FrequencyDictionary) addBank(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows [][]any
	if err := dec.Decode(&rows); err != nil {
		return err
	}
	for _, row := range rows {
		term, e, ok := frequencyRow(row)
		if !ok {
			continue
		}
		d.Add(term, e)
	}
	return nil
}

// frequencyRow decodes [term, "freq", data] where data is a frequency or
// {"reading": ..., "frequency": frequency}, and a frequency is a number, a
// numeric string or {"value": ..., "displayValue": ...}.
func frequencyRow(row []any) (string, FrequencyEntry, bool) {
	if len(row) < 3 {
		return "", FrequencyEntry{}, false
	}
	term, ok := row[0].(string)
	if !ok || term == "" {
		return "", FrequencyEntry{}, false
	}
	if kind, _ := row[1].(string); kind != "freq" {
		return "", FrequencyEntry{}, false
	}
	data := row[2]
	var e FrequencyEntry
	if m, ok := data.(map[string]any); ok {
		if r, ok := m["reading"].(string); ok {
			e.Reading = r
			data = m["frequency"]
		}
	}
	e.Value, e.DisplayValue, ok = frequencyValue(data)
	return term, e, ok
}

func frequencyValue(v any) (int, string, bool) {
	if m, ok := v.(map[string]any); ok {
		n, ok := frequencyNumber(m["value"])
		display, _ := m["displayValue"].(string)
		return n, display, ok
	}
	n, ok := frequencyNumber(v)
	return n, "", ok
}

func frequencyNumber(v any) (int, bool) {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

const (
	oRow = "おこそとのほもよろごぞどぼぽ"
	eRow = "けせてねへめれげぜでべぺ"
)

// normalizeLongVowel spells long vowels the way dictionaries list them:
// とお becomes とう and けえ becomes けい.
func normalizeLongVowel(s string) string {
	if !strings.ContainsAny(s, "おえ") {
		return s
	}
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		switch {
		case runes[i+1] == 'お' && strings.ContainsRune(oRow, runes[i]):
			runes[i+1] = 'う'
			i++
		case runes[i+1] == 'え' && strings.ContainsRune(eRow, runes[i]):
			runes[i+1] = 'い'
			i++
		}
	}
	return string(runes)
}
