package segment

import (
	"strings"

	"vocabmine/model"
)

// Normalize maps a token's raw feature string to a PartOfSpeech. It
// understands both IPADIC and UniDic tag sets. Tokens the dictionary did
// not know are Unknown unless they are symbols or numerals. Copulas are
// only told apart by context, see Copula.
func Normalize(t model.Token) model.PartOfSpeech {
	pos := classify(t)
	if !t.Known && pos != model.Symbol && pos != model.Number {
		return model.Unknown
	}
	return pos
}

func classify(t model.Token) model.PartOfSpeech {
	p1, p2 := t.POSAt(0), t.POSAt(1)
	switch p1 {
	case "名詞":
		switch {
		case p2 == "数" || p2 == "数詞":
			return model.Number
		case p2 == "固有名詞":
			return model.ProperNoun
		case p2 == "代名詞":
			return model.Pronoun
		case p2 == "形容動詞語幹":
			return model.AdjectivalNoun
		case p2 == "接尾":
			return model.Suffix
		}
		return model.Noun
	case "代名詞":
		return model.Pronoun
	case "形状詞":
		return model.AdjectivalNoun
	case "動詞":
		return model.Verb
	case "形容詞":
		return model.Adjective
	case "副詞":
		return model.Adverb
	case "助詞":
		return model.Particle
	case "助動詞":
		return model.AuxiliaryVerb
	case "連体詞":
		return model.Determiner
	case "接続詞":
		return model.Conjunction
	case "感動詞", "フィラー":
		return model.Interjection
	case "接頭詞", "接頭辞":
		return model.Prefix
	case "接尾辞":
		return model.Suffix
	case "記号", "補助記号", "空白":
		return model.Symbol
	case "その他":
		return model.Other
	}
	return model.Unknown
}

// copula inflection types: IPADIC 特殊・ダ/特殊・デス, UniDic 助動詞-ダ/助動詞-デス.
var copulaTypes = map[string]bool{
	"特殊・ダ":   true,
	"特殊・デス":  true,
	"助動詞-ダ":  true,
	"助動詞-デス": true,
}

func isCopula(t model.Token) bool {
	if t.POSAt(0) != "助動詞" {
		return false
	}
	if t.InflectionType != "" {
		return copulaTypes[t.InflectionType]
	}
	return t.Lemma == "だ" || t.Lemma == "です"
}

func isNoun(t model.Token) bool {
	if !t.Known {
		return false
	}
	switch t.POSAt(0) {
	case "名詞":
		p2 := t.POSAt(1)
		return p2 != "接尾" && p2 != "非自立" && p2 != "数" && p2 != "数詞" && p2 != "代名詞"
	case "代名詞":
		return true
	}
	return false
}

func isNumber(t model.Token) bool {
	p2 := t.POSAt(1)
	return t.POSAt(0) == "名詞" && (p2 == "数" || p2 == "数詞")
}

// isNounSuffix matches IPADIC 名詞,接尾 and UniDic 接尾辞,名詞的.
func isNounSuffix(t model.Token) bool {
	switch t.POSAt(0) {
	case "名詞":
		return t.POSAt(1) == "接尾"
	case "接尾辞":
		return t.POSAt(1) == "名詞的"
	}
	return false
}

func isCounter(t model.Token) bool {
	return isNounSuffix(t) && t.POSAt(2) == "助数詞"
}

func isPrefix(t model.Token) bool {
	p1 := t.POSAt(0)
	return p1 == "接頭詞" || p1 == "接頭辞"
}

// isSahenNoun matches nouns that form verbs with する: IPADIC 名詞,サ変接続,
// UniDic 名詞,普通名詞,サ変可能 (and サ変形状詞可能).
func isSahenNoun(t model.Token) bool {
	if t.POSAt(0) != "名詞" || !t.Known {
		return false
	}
	return t.POSAt(1) == "サ変接続" || strings.HasPrefix(t.POSAt(2), "サ変")
}

func isSuru(t model.Token) bool {
	if t.POSAt(0) != "動詞" {
		return false
	}
	return t.Lemma == "する" || t.Lemma == "為る" ||
		strings.HasPrefix(t.InflectionType, "サ変") || strings.HasPrefix(t.InflectionType, "サ行変格")
}

// isAdjectivalStem matches IPADIC 名詞,形容動詞語幹, UniDic 形状詞 and
// UniDic nouns tagged 形状詞可能.
func isAdjectivalStem(t model.Token) bool {
	if !t.Known {
		return false
	}
	switch t.POSAt(0) {
	case "形状詞":
		return t.POSAt(1) != "助動詞語幹"
	case "名詞":
		return t.POSAt(1) == "形容動詞語幹" || strings.HasSuffix(t.POSAt(2), "形状詞可能")
	}
	return false
}

func isAttributiveNa(t model.Token) bool {
	return t.POSAt(0) == "助動詞" && t.Text == "な"
}

func isTe(t model.Token) bool {
	return t.POSAt(0) == "助詞" && t.POSAt(1) == "接続助詞" && (t.Text == "て" || t.Text == "で")
}

func isDependent(p2 string) bool {
	return p2 == "非自立" || p2 == "非自立可能" || p2 == "接尾"
}
