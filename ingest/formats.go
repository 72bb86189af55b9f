package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vocabmine/model"
)

// ErrNoSubtitles is returned for a subtitle file with no usable cues.
var ErrNoSubtitles = errors.New("no subtitles found")

// Split turns decoded text into sentences. FileID and Index are left for
// the caller to fill in.
func Split(format model.Format, text string) ([]model.Sentence, error) {
	switch format {
	case model.FormatText:
		return splitText(text), nil
	case model.FormatSRT:
		return splitSRT(text)
	case model.FormatVTT:
		return splitVTT(text)
	case model.FormatASS:
		return splitASS(text)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

const sentenceEnds = "。！？!?"

// splitText breaks plain text after sentence-ending punctuation and at line
// breaks. The terminator stays with its sentence.
func splitText(text string) []model.Sentence {
	var out []model.Sentence
	for _, line := range strings.Split(text, "\n") {
		start := 0
		for i, r := range line {
			if strings.ContainsRune(sentenceEnds, r) {
				end := i + len(string(r))
				out = appendSentence(out, line[start:end], "")
				start = end
			}
		}
		out = appendSentence(out, line[start:], "")
	}
	return out
}

func appendSentence(out []model.Sentence, text, ts string) []model.Sentence {
	text = strings.TrimSpace(text)
	if text == "" || strings.Trim(text, sentenceEnds) == "" {
		return out
	}
	return append(out, model.Sentence{Text: text, Timestamp: ts})
}

func blocks(text string) []string {
	var out []string
	for _, b := range strings.Split(text, "\n\n") {
		if b = strings.Trim(b, "\n"); strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

var markupTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>|\{\\[^}]*\}`)

func cleanCue(lines []string) string {
	text := strings.Join(lines, "\n")
	text = markupTag.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// splitSRT reads numbered cue blocks: index, timing line, text lines.
// Blocks without a timing line are skipped.
func splitSRT(text string) ([]model.Sentence, error) {
	var out []model.Sentence
	for _, b := range blocks(text) {
		lines := strings.Split(b, "\n")
		if len(lines) < 3 || !strings.Contains(lines[1], "-->") {
			continue
		}
		out = appendSentence(out, cleanCue(lines[2:]), strings.TrimSpace(lines[1]))
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		return nil, ErrNoSubtitles
	}
	return out, nil
}

// splitVTT reads WebVTT cues; the header, NOTE, STYLE and REGION blocks are
// skipped and cue identifiers are optional.
func splitVTT(text string) ([]model.Sentence, error) {
	var out []model.Sentence
	for _, b := range blocks(text) {
		lines := strings.Split(b, "\n")
		first := strings.TrimSpace(lines[0])
		if strings.HasPrefix(first, "WEBVTT") || strings.HasPrefix(first, "NOTE") ||
			first == "STYLE" || first == "REGION" {
			continue
		}
		timing := -1
		for i, l := range lines {
			if strings.Contains(l, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 || timing > 1 {
			continue
		}
		out = appendSentence(out, cleanCue(lines[timing+1:]), vttTiming(lines[timing]))
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		return nil, ErrNoSubtitles
	}
	return out, nil
}

// vttTiming drops cue settings after the end time.
func vttTiming(line string) string {
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "-->" {
		return fields[0] + " --> " + fields[2]
	}
	return strings.TrimSpace(line)
}

var assOverride = regexp.MustCompile(`\{[^}]*\}`)

// splitASS reads Dialogue lines of the [Events] section using its Format
// line to find the Start, End and Text fields.
func splitASS(text string) ([]model.Sentence, error) {
	fields := []string{"Layer", "Start", "End", "Style", "Name", "MarginL", "MarginR", "MarginV", "Effect", "Text"}
	inEvents := false
	var out []model.Sentence
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inEvents = strings.EqualFold(line, "[Events]")
			continue
		}
		if !inEvents {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Format":
			fields = fields[:0]
			for _, f := range strings.Split(value, ",") {
				fields = append(fields, strings.TrimSpace(f))
			}
		case "Dialogue":
			parts := strings.SplitN(strings.TrimSpace(value), ",", len(fields))
			if len(parts) != len(fields) {
				continue
			}
			cue := make(map[string]string, len(fields))
			for i, f := range fields {
				cue[f] = parts[i]
			}
			body := assOverride.ReplaceAllString(cue["Text"], "")
			body = strings.NewReplacer(`\N`, "\n", `\n`, "\n", `\h`, " ").Replace(body)
			ts := ""
			if cue["Start"] != "" {
				ts = strings.TrimSpace(cue["Start"]) + " --> " + strings.TrimSpace(cue["End"])
			}
			out = appendSentence(out, body, ts)
		}
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		return nil, ErrNoSubtitles
	}
	return out, nil
}
