// Package ingest reads source files into model.SourceFile values: it
// detects the container format, decodes the bytes to UTF-8 and splits the
// text into sentences.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"vocabmine/model"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

var (
	// ErrFileRead is returned for a file that cannot be read or decoded.
	ErrFileRead = errors.New("file read failed")
	// ErrInvalidUTF8 marks content that is not valid UTF-8 after decoding.
	ErrInvalidUTF8 = errors.New("content is not valid UTF-8")
	// ErrUnsupportedFormat marks a file whose extension is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// FileReadError carries the path of the file that failed.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() []error {
	return []error{ErrFileRead, e.Err}
}

var formats = map[string]model.Format{
	".txt": model.FormatText,
	".srt": model.FormatSRT,
	".ass": model.FormatASS,
	".ssa": model.FormatASS,
	".vtt": model.FormatVTT,
}

// SupportedExtensions lists the extensions Load accepts, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(formats))
	for ext := range formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// FormatFor returns the format of path judged by its extension.
func FormatFor(path string) (model.Format, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// SourceName is the grouping a file's frequency weight is looked up by:
// the name of the directory holding it.
func SourceName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

// Loader reads source files from Fs.
type Loader struct {
	Fs afero.Fs
	// NormalizeWidth folds fullwidth ASCII and halfwidth katakana.
	NormalizeWidth bool
	// LegacyEncodings allows Shift_JIS and EUC-JP content.
	LegacyEncodings bool
	// MaxFileSize rejects larger files; zero means no limit.
	MaxFileSize int64
}

// NewLoader returns a Loader over fs with width folding enabled.
func NewLoader(fs afero.Fs) *Loader {
	return &Loader{Fs: fs, NormalizeWidth: true}
}

// Load reads path and splits it into sentences. Every failure is a
// *FileReadError.
func (l *Loader) Load(id int, path string) (*model.SourceFile, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, &FileReadError{Path: path, Err: ErrUnsupportedFormat}
	}
	raw, err := l.read(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	text, enc, err := l.decode(raw)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	text = normalizeNewlines(text)
	if l.NormalizeWidth {
		text = width.Fold.String(text)
	}

	sf := &model.SourceFile{
		ID:       id,
		Path:     path,
		Name:     filepath.Base(path),
		Source:   SourceName(path),
		Format:   format,
		Encoding: enc,
		MIME:     mimetype.Detect(raw).String(),
		Size:     int64(len(raw)),
		Text:     text,
	}
	sentences, err := Split(format, text)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	for i := range sentences {
		sentences[i].FileID = id
		sentences[i].Index = i
	}
	sf.Sentences = sentences
	return sf, nil
}

func (l *Loader) read(path string) ([]byte, error) {
	f, err := l.Fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if l.MaxFileSize > 0 && fi.Size() > l.MaxFileSize {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", fi.Size(), l.MaxFileSize)
	}
	return io.ReadAll(f)
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decode returns the UTF-8 text of raw and the encoding it was read as.
func (l *Loader) decode(raw []byte) (string, string, error) {
	name := "utf-8"
	switch {
	case bytes.HasPrefix(raw, utf8BOM):
		name = "utf-8-bom"
	case bytes.HasPrefix(raw, utf16LEBOM):
		name = "utf-16le"
	case bytes.HasPrefix(raw, utf16BEBOM):
		name = "utf-16be"
	}
	if name != "utf-8" {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return "", "", fmt.Errorf("decode %s: %w", name, err)
		}
		if !utf8.Valid(out) {
			return "", "", ErrInvalidUTF8
		}
		return string(out), name, nil
	}
	if utf8.Valid(raw) {
		return string(raw), name, nil
	}
	if l.LegacyEncodings {
		for _, cand := range legacyEncodings {
			if out, ok := tryDecode(cand.enc, raw); ok {
				return out, cand.name, nil
			}
		}
	}
	return "", "", ErrInvalidUTF8
}

var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"shift_jis", japanese.ShiftJIS},
	{"euc-jp", japanese.EUCJP},
}

func tryDecode(enc encoding.Encoding, raw []byte) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil || !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
