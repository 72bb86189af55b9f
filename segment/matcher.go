// Package segment rebuilds dictionary-form words from a sentence's tokens
// with an ordered list of merge rules.
package segment

import (
	"vocabmine/model"
)

// Matcher applies Rules in order at every position; the first rule that
// matches wins. Tokens no rule claims pass through as single-token words.
type Matcher struct {
	Rules []Rule
}

// NewMatcher returns a Matcher over DefaultRules.
func NewMatcher() Matcher {
	return Matcher{Rules: DefaultRules()}
}

// Words covers tokens with words in a single left-to-right pass. Every
// token ends up in exactly one word and the words' segments concatenate to
// the tokens' text.
func (m Matcher) Words(tokens []model.Token) []model.Word {
	out := make([]model.Word, 0, len(tokens))
	for i := 0; i < len(tokens); {
		var prev *model.Word
		if len(out) > 0 {
			p := out[len(out)-1]
			prev = &p
		}
		w, n := m.match(tokens, i, prev)
		out = append(out, w)
		i += n
	}
	return out
}

func (m Matcher) match(tokens []model.Token, i int, prev *model.Word) (model.Word, int) {
	for _, r := range m.Rules {
		n, pos, ok := r.Match(tokens, i, prev)
		if !ok || n < 1 {
			continue
		}
		if n > MaxWindow {
			n = MaxWindow
		}
		if i+n > len(tokens) {
			n = len(tokens) - i
		}
		span := tokens[i : i+n]
		var w model.Word
		if b, ok := r.(Builder); ok {
			w = b.Build(span, pos)
		} else {
			w = headWord(span, pos)
		}
		w.Rule = r.Name()
		return w, n
	}
	return passThrough(tokens[i]), 1
}

func passThrough(t model.Token) model.Word {
	return headWord([]model.Token{t}, Normalize(t))
}
