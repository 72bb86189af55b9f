package model

import "strings"

// Token represents a token / morpheme produced by the tokenizer.
type Token struct {
	Text           string `json:"text"`
	Lemma          string `json:"lemma,omitempty"`
	POS            string `json:"pos,omitempty"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
	Reading        string `json:"reading,omitempty"`
	LemmaReading   string `json:"lemma_reading,omitempty"`
	InflectionType string `json:"inflection_type,omitempty"`
	InflectionForm string `json:"inflection_form,omitempty"`
	Known          bool   `json:"known"`
}

// POSAt returns the i-th level of the comma separated POS hierarchy, or ""
// when the level is absent or unset ("*").
func (t Token) POSAt(i int) string {
	parts := strings.Split(t.POS, ",")
	if i < 0 || i >= len(parts) {
		return ""
	}
	if parts[i] == "*" {
		return ""
	}
	return parts[i]
}

// Word is one or more tokens merged by rule into a single unit.
type Word struct {
	// Surface is the content-bearing part of the segment (e.g. 食べ in 食べました).
	Surface        string       `json:"surface"`
	Reading        string       `json:"reading,omitempty"`
	Lemma          string       `json:"lemma"`
	LemmaReading   string       `json:"lemma_reading,omitempty"`
	Segment        string       `json:"segment"`
	SegmentReading string       `json:"segment_reading,omitempty"`
	POS            PartOfSpeech `json:"pos"`
	Start          int          `json:"start"`
	End            int          `json:"end"`
	TokenCount     int          `json:"token_count"`
	Known          bool         `json:"known"`
	Rule           string       `json:"rule,omitempty"`
}

// SentenceRef points at a sentence by file and ordinal.
type SentenceRef struct {
	FileID int `json:"file_id"`
	Index  int `json:"index"`
}

// Sentence belongs to exactly one SourceFile.
type Sentence struct {
	FileID    int    `json:"file_id"`
	Index     int    `json:"index"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Ref returns the reference used by term occurrences.
func (s Sentence) Ref() SentenceRef {
	return SentenceRef{FileID: s.FileID, Index: s.Index}
}

// Format is the container format of a source file.
type Format string

const (
	FormatText Format = "txt"
	FormatSRT  Format = "srt"
	FormatASS  Format = "ass"
	FormatVTT  Format = "vtt"
)

// SourceFile is immutable once loaded.
type SourceFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Source   string `json:"source"`
	Format   Format `json:"format"`
	Encoding string `json:"encoding"`
	MIME     string `json:"mime,omitempty"`
	Size     int64  `json:"size"`
	Text     string `json:"-"`

	Sentences []Sentence `json:"-"`
}
