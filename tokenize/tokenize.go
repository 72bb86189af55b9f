// Package tokenize adapts the kagome morphological analyzer to the
// model.Token stream the rule matcher consumes.
package tokenize

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"vocabmine/dictionary"
	"vocabmine/kanji"
	"vocabmine/model"

	"github.com/ikawaha/kagome/v2/tokenizer"
)

// ErrSegmentation is returned for a sentence that cannot be tokenized.
var ErrSegmentation = errors.New("segmentation failed")

// SegmentationError carries the sentence that failed.
type SegmentationError struct {
	Sentence string
	Err      error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("tokenize %q: %v", truncate(e.Sentence, 32), e.Err)
}

func (e *SegmentationError) Unwrap() []error {
	return []error{ErrSegmentation, e.Err}
}

// Token represents a token / morpheme produced by the tokenizer.
type Token = model.Token

// Mode selects the kagome segmentation mode.
type Mode string

const (
	Normal   Mode = "normal"
	Search   Mode = "search"
	Extended Mode = "extended"
)

func (m Mode) kagome() (tokenizer.TokenizeMode, error) {
	switch m {
	case "", Normal:
		return tokenizer.Normal, nil
	case Search:
		return tokenizer.Search, nil
	case Extended:
		return tokenizer.Extended, nil
	}
	return tokenizer.Normal, fmt.Errorf("unknown tokenize mode %q", m)
}

// Tokenizer turns one sentence into tokens that cover it exactly.
// It holds no mutable state and is safe for concurrent use.
type Tokenizer struct {
	dict   *dictionary.Dictionary
	kg     *tokenizer.Tokenizer
	mode   tokenizer.TokenizeMode
	layout dictionary.Layout
}

// Option configures a Tokenizer.
type Option func(*Tokenizer) error

// WithMode sets the segmentation mode (default normal).
func WithMode(m Mode) Option {
	return func(t *Tokenizer) error {
		km, err := m.kagome()
		if err != nil {
			return err
		}
		t.mode = km
		return nil
	}
}

// New builds a Tokenizer over a loaded dictionary handle.
func New(d *dictionary.Dictionary, opts ...Option) (*Tokenizer, error) {
	if d == nil || d.Kagome() == nil {
		return nil, &dictionary.DictionaryError{Name: "<nil>", Err: errors.New("no dictionary handle")}
	}
	kg, err := tokenizer.New(d.Kagome(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, &dictionary.DictionaryError{Name: string(d.Name), Path: d.Path, Err: err}
	}
	t := &Tokenizer{dict: d, kg: kg, mode: tokenizer.Normal, layout: d.Layout}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Dictionary returns the handle the tokenizer was built with.
func (t *Tokenizer) Dictionary() *dictionary.Dictionary {
	return t.dict
}

// Tokenize segments sentence. Spans are byte offsets into sentence and the
// concatenation of every token's Text is sentence itself; text the analyzer
// did not account for is emitted as symbol tokens.
func (t *Tokenizer) Tokenize(sentence string) (toks []Token, err error) {
	if sentence == "" {
		return []Token{}, nil
	}
	if !utf8.ValidString(sentence) {
		return nil, &SegmentationError{Sentence: sentence, Err: errors.New("invalid UTF-8")}
	}
	defer func() {
		if r := recover(); r != nil {
			toks, err = nil, &SegmentationError{Sentence: sentence, Err: fmt.Errorf("analyzer panic: %v", r)}
		}
	}()

	ktoks := t.kg.Analyze(sentence, t.mode)
	out := make([]Token, 0, len(ktoks)+2)
	cursor := 0
	for _, kt := range ktoks {
		if kt.Class == tokenizer.DUMMY || kt.Surface == "" {
			continue
		}
		start := kt.Position
		if start < cursor || start+len(kt.Surface) > len(sentence) || sentence[start:start+len(kt.Surface)] != kt.Surface {
			idx := strings.Index(sentence[cursor:], kt.Surface)
			if idx < 0 {
				return nil, &SegmentationError{Sentence: sentence, Err: fmt.Errorf("token %q not found after offset %d", kt.Surface, cursor)}
			}
			start = cursor + idx
		}
		if start > cursor {
			out = append(out, gapToken(sentence[cursor:start], cursor))
		}
		out = append(out, t.convert(kt, start))
		cursor = start + len(kt.Surface)
	}
	if cursor < len(sentence) {
		out = append(out, gapToken(sentence[cursor:], cursor))
	}
	return out, nil
}

// TokenizeAll tokenizes every sentence, returning per-sentence results and
// the errors of the sentences that failed. Failed sentences get a nil slice.
func (t *Tokenizer) TokenizeAll(sentences []string) ([][]Token, []error) {
	out := make([][]Token, len(sentences))
	var errs []error
	for i, s := range sentences {
		toks, err := t.Tokenize(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[i] = toks
	}
	return out, errs
}

func (t *Tokenizer) feature(kt tokenizer.Token, i int) string {
	if i < 0 {
		return ""
	}
	v, ok := kt.FeatureAt(i)
	if !ok || v == "*" {
		return ""
	}
	return v
}

func (t *Tokenizer) convert(kt tokenizer.Token, start int) Token {
	features := kt.Features()
	depth := t.layout.POSDepth
	if depth > len(features) {
		depth = len(features)
	}
	pos := strings.Join(features[:depth], ",")

	lemma := t.feature(kt, t.layout.Lemma)
	if lemma == "" {
		lemma = kt.Surface
	}
	reading := kanji.KatakanaToHiragana(t.feature(kt, t.layout.Reading))
	if reading == "" && kanji.IsKanaString(kt.Surface) {
		reading = kanji.KatakanaToHiragana(kt.Surface)
	}
	lemmaReading := kanji.KatakanaToHiragana(t.feature(kt, t.layout.LemmaReading))
	if lemmaReading == "" {
		lemmaReading = DeriveLemmaReading(kt.Surface, reading, lemma)
	}

	return Token{
		Text:           kt.Surface,
		Lemma:          lemma,
		POS:            pos,
		Start:          start,
		End:            start + len(kt.Surface),
		Reading:        reading,
		LemmaReading:   lemmaReading,
		InflectionType: t.feature(kt, t.layout.InflectionType),
		InflectionForm: t.feature(kt, t.layout.InflectionForm),
		Known:          kt.Class == tokenizer.KNOWN || kt.Class == tokenizer.USER,
	}
}

func gapToken(text string, start int) Token {
	pos := "記号,一般"
	if kanji.IsBlank(text) {
		pos = "記号,空白"
	}
	return Token{
		Text:  text,
		Lemma: text,
		POS:   pos,
		Start: start,
		End:   start + len(text),
	}
}

// irregular verbs whose stem reading changes between forms.
var irregularLemmaReadings = map[string]string{
	"来る": "くる",
	"為る": "する",
}

// DeriveLemmaReading builds the reading of lemma from an inflected surface
// and its reading, for dictionaries without a lemma reading column. The
// kana tail that differs between surface and lemma is swapped on the
// reading: 書い/かい/書く gives かく. It falls back to reading when the
// surface tail does not line up with the reading.
func DeriveLemmaReading(surface, reading, lemma string) string {
	if lemma == surface || reading == "" {
		return reading
	}
	if kanji.IsKanaString(lemma) {
		return kanji.KatakanaToHiragana(lemma)
	}
	if r, ok := irregularLemmaReadings[lemma]; ok {
		return r
	}
	common := kanji.CommonPrefix(surface, lemma)
	if common == "" {
		return reading
	}
	surfaceTail := kanji.KatakanaToHiragana(strings.TrimPrefix(surface, common))
	lemmaTail := kanji.KatakanaToHiragana(strings.TrimPrefix(lemma, common))
	if !kanaOrEmpty(surfaceTail) || !kanaOrEmpty(lemmaTail) {
		return reading
	}
	if !strings.HasSuffix(reading, surfaceTail) {
		return reading
	}
	return strings.TrimSuffix(reading, surfaceTail) + lemmaTail
}

func kanaOrEmpty(s string) bool {
	return s == "" || kanji.IsKanaString(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
