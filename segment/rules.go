package segment

import (
	"strings"

	"vocabmine/model"
)

// MaxWindow bounds how many tokens a single rule may merge.
const MaxWindow = 8

// Rule decides whether the tokens starting at i form one word. A match
// consumes n >= 1 tokens and assigns pos to the resulting word. prev is the
// word emitted just before position i, or nil at the start of a sentence.
type Rule interface {
	Name() string
	Match(tokens []model.Token, i int, prev *model.Word) (n int, pos model.PartOfSpeech, ok bool)
}

// Builder is implemented by rules that compose the merged word's lemma and
// readings themselves. Rules without it keep the head token's lemma.
type Builder interface {
	Build(span []model.Token, pos model.PartOfSpeech) model.Word
}

// DefaultRules returns the rule list in priority order.
func DefaultRules() []Rule {
	return []Rule{
		SuruVerb{},
		NaAdjective{},
		PrefixNoun{},
		NounSuffix{},
		Numbers{},
		VerbInflection{},
		AdjectiveInflection{},
		Copula{},
	}
}

// SuruVerb joins a verbal noun with a following する and its inflection:
// 勉強しました -> 勉強する.
type SuruVerb struct{}

func (SuruVerb) Name() string { return "suru_verb" }

func (SuruVerb) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if i+1 >= len(tokens) || !isSahenNoun(tokens[i]) || !isSuru(tokens[i+1]) {
		return 0, "", false
	}
	return 2 + verbTail(tokens, i+2, MaxWindow-2), model.SuruVerb, true
}

func (SuruVerb) Build(span []model.Token, pos model.PartOfSpeech) model.Word {
	w := headWord(span, pos)
	noun, suru := span[0], span[1]
	w.Surface = noun.Text + suru.Text
	w.Reading = noun.Reading + suru.Reading
	w.Lemma = noun.Lemma + "する"
	w.LemmaReading = noun.LemmaReading + "する"
	return w
}

// NaAdjective joins an adjectival noun with its attributive な: 静かな -> 静か.
type NaAdjective struct{}

func (NaAdjective) Name() string { return "na_adjective" }

func (NaAdjective) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if i+1 >= len(tokens) || !isAdjectivalStem(tokens[i]) || !isAttributiveNa(tokens[i+1]) {
		return 0, "", false
	}
	return 2, model.AdjectivalNoun, true
}

// PrefixNoun joins a prefix with the noun it attaches to, plus any noun
// suffixes after it: 新製品 -> 新製品.
type PrefixNoun struct{}

func (PrefixNoun) Name() string { return "prefix_noun" }

func (PrefixNoun) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if i+1 >= len(tokens) || !isPrefix(tokens[i]) {
		return 0, "", false
	}
	next := tokens[i+1]
	pos := model.Noun
	switch {
	case isNumber(next):
		pos = model.Number
	case isNoun(next):
		if p := classify(next); p == model.ProperNoun || p == model.Pronoun {
			pos = p
		}
	default:
		return 0, "", false
	}
	n := 2
	for i+n < len(tokens) && n < MaxWindow && isNounSuffix(tokens[i+n]) {
		n++
	}
	return n, pos, true
}

func (PrefixNoun) Build(span []model.Token, pos model.PartOfSpeech) model.Word {
	return compoundWord(span, pos)
}

// NounSuffix joins a noun with the suffixes that follow it: 田中さん, 日本人.
type NounSuffix struct{}

func (NounSuffix) Name() string { return "noun_suffix" }

func (NounSuffix) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if !isNoun(tokens[i]) {
		return 0, "", false
	}
	n := 1
	for i+n < len(tokens) && n < MaxWindow && isNounSuffix(tokens[i+n]) {
		n++
	}
	if n == 1 {
		return 0, "", false
	}
	pos := classify(tokens[i])
	if pos == model.AdjectivalNoun {
		pos = model.Noun
	}
	return n, pos, true
}

func (NounSuffix) Build(span []model.Token, pos model.PartOfSpeech) model.Word {
	return compoundWord(span, pos)
}

// Numbers joins a run of numerals and an optional counter: 二十三人.
type Numbers struct{}

func (Numbers) Name() string { return "numbers" }

func (Numbers) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if !isNumber(tokens[i]) {
		return 0, "", false
	}
	n := 1
	for i+n < len(tokens) && n < MaxWindow && isNumber(tokens[i+n]) {
		n++
	}
	if i+n < len(tokens) && n < MaxWindow && isCounter(tokens[i+n]) {
		n++
	}
	if n == 1 {
		return 0, "", false
	}
	return n, model.Number, true
}

func (Numbers) Build(span []model.Token, pos model.PartOfSpeech) model.Word {
	return compoundWord(span, pos)
}

// VerbInflection joins a verb with its auxiliaries and dependent verbs:
// 食べました -> 食べる, 読んでいる -> 読む.
type VerbInflection struct{}

func (VerbInflection) Name() string { return "verb_inflection" }

func (VerbInflection) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	if tokens[i].POSAt(0) != "動詞" {
		return 0, "", false
	}
	n := verbTail(tokens, i+1, MaxWindow-1)
	if n == 0 {
		return 0, "", false
	}
	return 1 + n, model.Verb, true
}

// verbTail counts the inflection tokens starting at j, at most limit.
func verbTail(tokens []model.Token, j, limit int) int {
	n := 0
	afterTe := false
	for j+n < len(tokens) && n < limit {
		t := tokens[j+n]
		switch {
		case t.POSAt(0) == "助動詞" && !isCopula(t) && !isAttributiveNa(t):
		case isTe(t):
		case t.POSAt(0) == "動詞" && (t.POSAt(1) == "非自立" || t.POSAt(1) == "接尾"):
		case t.POSAt(0) == "動詞" && t.POSAt(1) == "非自立可能" && afterTe:
		default:
			return n
		}
		afterTe = isTe(t)
		n++
	}
	return n
}

// AdjectiveInflection joins an adjective with its inflection: 高くなかった -> 高い.
type AdjectiveInflection struct{}

func (AdjectiveInflection) Name() string { return "adjective_inflection" }

func (AdjectiveInflection) Match(tokens []model.Token, i int, _ *model.Word) (int, model.PartOfSpeech, bool) {
	head := tokens[i]
	if head.POSAt(0) != "形容詞" || isDependent(head.POSAt(1)) {
		return 0, "", false
	}
	n := adjectiveTail(tokens, i+1, MaxWindow-1)
	if n == 0 {
		return 0, "", false
	}
	return 1 + n, model.Adjective, true
}

func adjectiveTail(tokens []model.Token, j, limit int) int {
	n := 0
	for j+n < len(tokens) && n < limit {
		t := tokens[j+n]
		switch {
		case t.POSAt(0) == "助動詞" && !isCopula(t) && !isAttributiveNa(t):
		case isTe(t):
		case t.POSAt(0) == "形容詞" && (t.Lemma == "ない" || isDependent(t.POSAt(1))):
		default:
			return n
		}
		n++
	}
	return n
}

var nominal = map[model.PartOfSpeech]bool{
	model.Noun:           true,
	model.ProperNoun:     true,
	model.Pronoun:        true,
	model.Number:         true,
	model.AdjectivalNoun: true,
}

// Copula retags だ/です following a nominal word as a copula. Elsewhere the
// same token stays an auxiliary verb.
type Copula struct{}

func (Copula) Name() string { return "copula" }

func (Copula) Match(tokens []model.Token, i int, prev *model.Word) (int, model.PartOfSpeech, bool) {
	if prev == nil || !nominal[prev.POS] || !isCopula(tokens[i]) {
		return 0, "", false
	}
	return 1, model.Copula, true
}

// headWord keeps the first token's lemma and readings; the segment spans
// every token.
func headWord(span []model.Token, pos model.PartOfSpeech) model.Word {
	head := span[0]
	w := model.Word{
		Surface:      head.Text,
		Reading:      head.Reading,
		Lemma:        head.Lemma,
		LemmaReading: head.LemmaReading,
		POS:          pos,
		Start:        head.Start,
		End:          span[len(span)-1].End,
		TokenCount:   len(span),
		Known:        true,
	}
	var seg, segReading strings.Builder
	for _, t := range span {
		seg.WriteString(t.Text)
		segReading.WriteString(readingOf(t))
		if !t.Known {
			w.Known = false
		}
	}
	w.Segment = seg.String()
	w.SegmentReading = segReading.String()
	return w
}

// compoundWord concatenates lemmas and readings of every token.
func compoundWord(span []model.Token, pos model.PartOfSpeech) model.Word {
	w := headWord(span, pos)
	var lemma, lemmaReading strings.Builder
	for _, t := range span {
		lemma.WriteString(t.Lemma)
		if t.LemmaReading != "" {
			lemmaReading.WriteString(t.LemmaReading)
		} else {
			lemmaReading.WriteString(readingOf(t))
		}
	}
	w.Surface = w.Segment
	w.Reading = w.SegmentReading
	w.Lemma = lemma.String()
	w.LemmaReading = lemmaReading.String()
	return w
}

func readingOf(t model.Token) string {
	if t.Reading != "" {
		return t.Reading
	}
	return t.Text
}
