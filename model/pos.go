package model

import (
	"fmt"
	"sort"
	"strings"
)

// PartOfSpeech is the normalized category used everywhere downstream of the
// rule matcher. It is distinct from the raw dictionary feature string.
type PartOfSpeech string

const (
	Unknown        PartOfSpeech = "unknown"
	Noun           PartOfSpeech = "noun"
	ProperNoun     PartOfSpeech = "proper_noun"
	Pronoun        PartOfSpeech = "pronoun"
	Number         PartOfSpeech = "number"
	Verb           PartOfSpeech = "verb"
	SuruVerb       PartOfSpeech = "suru_verb"
	Adjective      PartOfSpeech = "adjective"
	AdjectivalNoun PartOfSpeech = "adjectival_noun"
	Adverb         PartOfSpeech = "adverb"
	Particle       PartOfSpeech = "particle"
	AuxiliaryVerb  PartOfSpeech = "auxiliary_verb"
	Copula         PartOfSpeech = "copula"
	Determiner     PartOfSpeech = "determiner"
	Conjunction    PartOfSpeech = "conjunction"
	Interjection   PartOfSpeech = "interjection"
	Prefix         PartOfSpeech = "prefix"
	Suffix         PartOfSpeech = "suffix"
	Symbol         PartOfSpeech = "symbol"
	Other          PartOfSpeech = "other"
)

var allPartsOfSpeech = []PartOfSpeech{
	Unknown, Noun, ProperNoun, Pronoun, Number, Verb, SuruVerb, Adjective,
	AdjectivalNoun, Adverb, Particle, AuxiliaryVerb, Copula, Determiner,
	Conjunction, Interjection, Prefix, Suffix, Symbol, Other,
}

// PartsOfSpeech returns every category in declaration order.
func PartsOfSpeech() []PartOfSpeech {
	out := make([]PartOfSpeech, len(allPartsOfSpeech))
	copy(out, allPartsOfSpeech)
	return out
}

func (p PartOfSpeech) String() string { return string(p) }

// Valid reports whether p is one of the declared categories.
func (p PartOfSpeech) Valid() bool {
	for _, known := range allPartsOfSpeech {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePartOfSpeech accepts the snake_case name, case-insensitively.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	p := PartOfSpeech(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown part of speech %q", s)
	}
	return p, nil
}

// POSSet is a set of categories.
type POSSet map[PartOfSpeech]struct{}

// NewPOSSet parses names into a set.
func NewPOSSet(names []string) (POSSet, error) {
	set := make(POSSet, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		p, err := ParsePartOfSpeech(n)
		if err != nil {
			return nil, err
		}
		set[p] = struct{}{}
	}
	return set, nil
}

func (s POSSet) Has(p PartOfSpeech) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in name order.
func (s POSSet) Sorted() []PartOfSpeech {
	out := make([]PartOfSpeech, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
