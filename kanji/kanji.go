// Package kanji holds script predicates and kana conversion used when
// normalising readings and deciding whether text is Japanese vocabulary.
package kanji

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func IsKanji(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || (r >= 0x3400 && r <= 0x4DBF) || r == '々' || r == '〆'
}

func IsHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}

func IsKatakana(r rune) bool {
	return (r >= 0x30A0 && r <= 0x30FF) || (r >= 0x31F0 && r <= 0x31FF) || isHalfwidthKatakana(r)
}

// IsKana returns true if rune is Hiragana or Katakana
func IsKana(r rune) bool {
	return IsHiragana(r) || IsKatakana(r)
}

// IsKanaString reports whether s is non-empty and made only of kana.
func IsKanaString(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !IsKana(r) {
			return false
		}
	}
	return true
}

// IsJapanese reports whether s contains at least one kana or kanji and no
// letters or digits from other scripts.
func IsJapanese(s string) bool {
	found := false
	for _, r := range s {
		switch {
		case IsKana(r) || IsKanji(r):
			found = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !isFullwidthDigit(r) {
				return false
			}
		}
	}
	return found
}

func isHalfwidthKatakana(r rune) bool {
	return r >= 0xFF66 && r <= 0xFF9F
}

func isFullwidthDigit(r rune) bool {
	return r >= '０' && r <= '９'
}

// KatakanaToHiragana converts katakana to hiragana. Halfwidth katakana is
// widened first, joining voicing marks onto their base (ｶﾞ becomes が). The
// prolonged sound mark and non-katakana runes are left untouched.
func KatakanaToHiragana(s string) string {
	if strings.ContainsFunc(s, isHalfwidthKatakana) {
		s = norm.NFKC.String(s)
	}
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// HiraganaToKatakana is the inverse of KatakanaToHiragana.
func HiraganaToKatakana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x3041 && r <= 0x3096 {
			runes[i] = r + 0x60
		}
	}
	return string(runes)
}

// KanaSuffix returns the longest kana-only tail of s.
func KanaSuffix(s string) string {
	runes := []rune(s)
	i := len(runes)
	for i > 0 && IsKana(runes[i-1]) {
		i--
	}
	return string(runes[i:])
}

// CommonPrefix returns the longest shared rune prefix of a and b.
func CommonPrefix(a, b string) string {
	ar, br := []rune(a), []rune(b)
	n := 0
	for n < len(ar) && n < len(br) && ar[n] == br[n] {
		n++
	}
	return string(ar[:n])
}

// IsBlank reports whether s is empty or only whitespace (including U+3000).
func IsBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
