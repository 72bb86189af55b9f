package ingest

import (
	"errors"
	"testing"

	"vocabmine/model"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func texts(ss []model.Sentence) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Text
	}
	return out
}

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should split a text file and fill the source file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/corpus/anime/ep1.txt", []byte("今日は晴れ。明日は？\r\n雨かな！\n\n"))
		sf, err := NewLoader(fs).Load(7, "/corpus/anime/ep1.txt")
		require.NoError(t, err)
		assert.Equal(t, 7, sf.ID)
		assert.Equal(t, "ep1.txt", sf.Name)
		assert.Equal(t, "anime", sf.Source)
		assert.Equal(t, model.FormatText, sf.Format)
		assert.Equal(t, "utf-8", sf.Encoding)
		assert.Contains(t, sf.MIME, "text/plain")
		assert.Equal(t, []string{"今日は晴れ。", "明日は?", "雨かな!"}, texts(sf.Sentences))
		for i, s := range sf.Sentences {
			assert.Equal(t, 7, s.FileID)
			assert.Equal(t, i, s.Index)
		}
	})

	t.Run("Should fold widths only when enabled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/a.txt", []byte("ＡＢＣとｶﾀｶﾅ"))
		l := NewLoader(fs)
		sf, err := l.Load(0, "/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "ABCとカタカナ", sf.Text)

		l.NormalizeWidth = false
		sf, err = l.Load(0, "/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "ＡＢＣとｶﾀｶﾅ", sf.Text)
	})

	t.Run("Should decode UTF-8 and UTF-16 byte order marks", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/bom8.txt", append([]byte{0xEF, 0xBB, 0xBF}, []byte("猫です")...))
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		u16, _, err := transform.Bytes(enc, []byte("犬です"))
		require.NoError(t, err)
		writeFile(t, fs, "/bom16.txt", u16)

		l := NewLoader(fs)
		sf, err := l.Load(0, "/bom8.txt")
		require.NoError(t, err)
		assert.Equal(t, "utf-8-bom", sf.Encoding)
		assert.Equal(t, []string{"猫です"}, texts(sf.Sentences))

		sf, err = l.Load(1, "/bom16.txt")
		require.NoError(t, err)
		assert.Equal(t, "utf-16le", sf.Encoding)
		assert.Equal(t, []string{"犬です"}, texts(sf.Sentences))
	})

	t.Run("Should reject non UTF-8 content with a FileReadError", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		sjis, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte("日本語の文章です"))
		require.NoError(t, err)
		writeFile(t, fs, "/sjis.txt", sjis)

		l := NewLoader(fs)
		_, err = l.Load(0, "/sjis.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFileRead)
		assert.ErrorIs(t, err, ErrInvalidUTF8)
		var fre *FileReadError
		require.True(t, errors.As(err, &fre))
		assert.Equal(t, "/sjis.txt", fre.Path)

		l.LegacyEncodings = true
		sf, err := l.Load(0, "/sjis.txt")
		require.NoError(t, err)
		assert.Equal(t, "shift_jis", sf.Encoding)
		assert.Equal(t, "日本語の文章です", sf.Text)
	})

	t.Run("Should fail for missing, oversized and unsupported files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/big.txt", []byte("あいうえお"))
		writeFile(t, fs, "/img.png", []byte{0x89, 'P', 'N', 'G'})
		l := NewLoader(fs)
		l.MaxFileSize = 4

		_, err := l.Load(0, "/missing.txt")
		assert.ErrorIs(t, err, ErrFileRead)
		_, err = l.Load(0, "/big.txt")
		assert.ErrorIs(t, err, ErrFileRead)
		_, err = l.Load(0, "/img.png")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("Should load an empty text file with no sentences", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeFile(t, fs, "/empty.txt", nil)
		sf, err := NewLoader(fs).Load(0, "/empty.txt")
		require.NoError(t, err)
		assert.Empty(t, sf.Sentences)
	})
}

func TestSplit(t *testing.T) {
	t.Run("Should read SRT cues with timestamps and strip tags", func(t *testing.T) {
		srt := "1\n00:00:01,000 --> 00:00:02,000\n<i>こんにちは</i>\n\n2\n00:00:03,000 --> 00:00:04,000\n{\\an8}元気？\n二行目\n\ngarbage\n"
		ss, err := Split(model.FormatSRT, srt)
		require.NoError(t, err)
		require.Len(t, ss, 2)
		assert.Equal(t, "こんにちは", ss[0].Text)
		assert.Equal(t, "00:00:01,000 --> 00:00:02,000", ss[0].Timestamp)
		assert.Equal(t, "元気？\n二行目", ss[1].Text)
	})

	t.Run("Should fail an SRT file without cues", func(t *testing.T) {
		_, err := Split(model.FormatSRT, "not a subtitle\n")
		assert.ErrorIs(t, err, ErrNoSubtitles)
	})

	t.Run("Should read WebVTT cues and skip notes", func(t *testing.T) {
		vtt := "WEBVTT\n\nNOTE skip me\n\nintro\n00:01.000 --> 00:02.000 align:start\nはじめまして\n\n00:03.000 --> 00:04.000\nよろしく\n"
		ss, err := Split(model.FormatVTT, vtt)
		require.NoError(t, err)
		assert.Equal(t, []string{"はじめまして", "よろしく"}, texts(ss))
		assert.Equal(t, "00:01.000 --> 00:02.000", ss[0].Timestamp)
	})

	t.Run("Should read ASS dialogue through its Format line", func(t *testing.T) {
		ass := `[Script Info]
Title: test

[V4+ Styles]
Format: Name, Fontname
Style: Default,Arial

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Comment: 0,0:00:00.00,0:00:01.00,Default,,0,0,0,,無視
Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,{\i1}行くぞ{\i0}、みんな\N急げ
Dialogue: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,{\pos(1,2)}
`
		ss, err := Split(model.FormatASS, ass)
		require.NoError(t, err)
		require.Len(t, ss, 1)
		assert.Equal(t, "行くぞ、みんな\n急げ", ss[0].Text)
		assert.Equal(t, "0:00:01.00 --> 0:00:02.00", ss[0].Timestamp)
	})

	t.Run("Should drop punctuation-only fragments from text", func(t *testing.T) {
		ss, err := Split(model.FormatText, "。。はい。\n  \n！")
		require.NoError(t, err)
		assert.Equal(t, []string{"はい。"}, texts(ss))
	})
}

func TestFormatFor(t *testing.T) {
	t.Run("Should match extensions case-insensitively", func(t *testing.T) {
		f, ok := FormatFor("/x/EP01.SSA")
		assert.True(t, ok)
		assert.Equal(t, model.FormatASS, f)
		_, ok = FormatFor("/x/readme.md")
		assert.False(t, ok)
	})
	t.Run("Should list supported extensions sorted", func(t *testing.T) {
		assert.Equal(t, []string{".ass", ".srt", ".ssa", ".txt", ".vtt"}, SupportedExtensions())
	})
}
