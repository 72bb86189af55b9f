package dictionary

import (
	"archive/zip"
	"bytes"
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jpdbFiles = map[string]string{
	"index.json": `{"title":"JPDB","revision":"2024-01","format":3,"frequencyMode":"rank-based"}`,
	"term_meta_bank_1.json": `[
		["食べる","freq",{"reading":"たべる","frequency":{"value":120,"displayValue":"120"}}],
		["生","freq",{"reading":"なま","frequency":3000}],
		["生","freq",{"reading":"せい","frequency":1200}],
		["生","freq",{"reading":"せい","frequency":"800"}],
		["する","freq",{"reading":"する","frequency":{"value":20,"displayValue":"20㋕"}}],
		["する","freq",{"reading":"する","frequency":{"value":15,"displayValue":"15"}}],
		["犬","pitch",{"reading":"いぬ","pitches":[{"position":2}]}],
		["壊れ","freq","often"]
	]`,
	"term_meta_bank_2.json":  `[["猫","freq",5000],["とおい","freq",{"value":900,"displayValue":"900"}]]`,
	"term_meta_bank_10.json": `[["猫","freq",7000]]`,
	"term_meta_bank_x.json":  `[["猫","freq",1]]`,
	"tag_bank_1.json":        `[["news","frequent",0,"",0]]`,
}

func writeDir(t *testing.T, fs afero.Fs, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, path.Join(dir, name), []byte(body), 0o644))
	}
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func loadJPDB(t *testing.T) *FrequencyDictionary {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeDir(t, fs, "/dicts/jpdb", jpdbFiles)
	d, err := LoadFrequencyDictionary(fs, "/dicts/jpdb")
	require.NoError(t, err)
	return d
}

func TestLoadFrequencyDictionary(t *testing.T) {
	t.Run("Should read the index and every numbered bank", func(t *testing.T) {
		d := loadJPDB(t)
		assert.Equal(t, "JPDB", d.Title)
		assert.Equal(t, "2024-01", d.Revision)
		// 食べる, 生, する, 猫, とうい
		assert.Equal(t, 5, d.Len())
	})

	t.Run("Should read a zip archive", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/dicts/jpdb.zip", zipOf(t, jpdbFiles), 0o644))
		d, err := LoadFrequencyDictionary(fs, "/dicts/jpdb.zip")
		require.NoError(t, err)
		assert.Equal(t, "JPDB", d.Title)
		e, ok := d.Lookup("食べる", "たべる")
		require.True(t, ok)
		assert.Equal(t, 120, e.Value)
	})

	t.Run("Should accept the legacy version key", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeDir(t, fs, "/d", map[string]string{
			"index.json":            `{"title":"Old","revision":"1","version":3}`,
			"term_meta_bank_1.json": `[["猫","freq",10]]`,
		})
		d, err := LoadFrequencyDictionary(fs, "/d")
		require.NoError(t, err)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("Should reject unsupported formats", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeDir(t, fs, "/d", map[string]string{"index.json": `{"title":"Old","revision":"1","format":2}`})
		_, err := LoadFrequencyDictionary(fs, "/d")
		assert.ErrorIs(t, err, ErrUnsupportedFrequencyFormat)
	})

	t.Run("Should fail on broken input", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeDir(t, fs, "/noindex", map[string]string{"term_meta_bank_1.json": `[]`})
		writeDir(t, fs, "/badbank", map[string]string{
			"index.json":            `{"title":"Bad","revision":"1","format":3}`,
			"term_meta_bank_1.json": `[["猫","freq",`,
		})
		writeDir(t, fs, "/notitle", map[string]string{"index.json": `{"revision":"1","format":3}`})
		require.NoError(t, afero.WriteFile(fs, "/dict.txt", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/broken.zip", []byte("not a zip"), 0o644))

		for _, p := range []string{"/noindex", "/badbank", "/notitle", "/dict.txt", "/broken.zip", "/missing"} {
			_, err := LoadFrequencyDictionary(fs, p)
			assert.Error(t, err, p)
		}
	})
}

func TestFrequencyDictionary_Lookup(t *testing.T) {
	d := loadJPDB(t)
	cases := []struct {
		name, lemma, reading string
		want                 int
		ok                   bool
	}{
		{"exact reading", "食べる", "たべる", 120, true},
		{"katakana reading", "食べる", "タベル", 120, true},
		{"lowest of several entries for a reading", "生", "せい", 800, true},
		{"other reading of the same term", "生", "なま", 3000, true},
		{"reading not listed", "生", "ふゆ", 0, false},
		{"kana-only entry for a kana lemma", "する", "する", 20, true},
		{"entry without reading", "猫", "ねこ", 5000, true},
		{"long vowel spelled with お", "とおい", "とおい", 900, true},
		{"long vowel spelled with う", "とうい", "とうい", 900, true},
		{"non-frequency rows", "犬", "いぬ", 0, false},
		{"unreadable values", "壊れ", "こわれ", 0, false},
		{"missing term", "鳥", "とり", 0, false},
	}
	for _, tc := range cases {
		t.Run("Should handle "+tc.name, func(t *testing.T) {
			e, ok := d.Lookup(tc.lemma, tc.reading)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, e.Value)
		})
	}

	t.Run("Should skip kana-only entries for a kanji lemma", func(t *testing.T) {
		nd := NewFrequencyDictionary("n", "1")
		nd.Add("為る", FrequencyEntry{Reading: "する", Value: 20, DisplayValue: "20㋕"})
		nd.Add("為る", FrequencyEntry{Reading: "する", Value: 15})
		e, ok := nd.Lookup("為る", "する")
		require.True(t, ok)
		assert.Equal(t, 15, e.Value)
		assert.False(t, e.KanaOnly())
	})
}

func TestNormalizeLongVowel(t *testing.T) {
	assert.Equal(t, "とうい", normalizeLongVowel("とおい"))
	assert.Equal(t, "けいき", normalizeLongVowel("けえき"))
	assert.Equal(t, "こうり", normalizeLongVowel("こおり"))
	assert.Equal(t, "おうお", normalizeLongVowel("おおお"))
	assert.Equal(t, "けいたい", normalizeLongVowel("けいたい"))
	assert.Equal(t, "猫", normalizeLongVowel("猫"))
}

func TestFrequencySet(t *testing.T) {
	common := NewFrequencyDictionary("common", "1")
	common.Add("食べる", FrequencyEntry{Value: 100})
	common.Add("猫", FrequencyEntry{Value: 1})
	novels := NewFrequencyDictionary("novels", "1")
	novels.Add("食べる", FrequencyEntry{Value: 400})
	muted := NewFrequencyDictionary("muted", "1")
	muted.Add("食べる", FrequencyEntry{Value: 5})

	t.Run("Should average enabled dictionaries by weight", func(t *testing.T) {
		set := NewFrequencySet()
		require.NoError(t, set.Add(FrequencySource{Dictionary: common, Weight: 1, Enabled: true}))
		require.NoError(t, set.Add(FrequencySource{Dictionary: novels, Weight: 2, Enabled: true}))
		require.NoError(t, set.Add(FrequencySource{Dictionary: muted, Weight: 1, Enabled: false}))
		assert.Equal(t, 3, set.Len())

		per, h := set.Lookup("食べる", "たべる")
		assert.Equal(t, map[string]int{"common": 100, "novels": 400, "muted": 5}, per)
		assert.Equal(t, 133, h)
	})

	t.Run("Should leave zero-weight dictionaries out of the harmonic", func(t *testing.T) {
		set := NewFrequencySet()
		require.NoError(t, set.Add(FrequencySource{Dictionary: novels, Weight: 0, Enabled: true}))
		per, h := set.Lookup("食べる", "たべる")
		assert.Equal(t, map[string]int{"novels": 400}, per)
		assert.Zero(t, h)
	})

	t.Run("Should keep weighted ranks at least 1", func(t *testing.T) {
		set := NewFrequencySet()
		require.NoError(t, set.Add(FrequencySource{Dictionary: common, Weight: 4, Enabled: true}))
		_, h := set.Lookup("猫", "ねこ")
		assert.Equal(t, 1, h)
	})

	t.Run("Should reject duplicates and bad sources", func(t *testing.T) {
		set := NewFrequencySet()
		require.NoError(t, set.Add(FrequencySource{Dictionary: common, Weight: 1, Enabled: true}))
		assert.Error(t, set.Add(FrequencySource{Dictionary: common, Weight: 1, Enabled: true}))
		assert.Error(t, set.Add(FrequencySource{Dictionary: novels, Weight: -1, Enabled: true}))
		assert.ErrorIs(t, set.Add(FrequencySource{}), ErrDictionaryUnavailable)
	})

	t.Run("Should know nothing when nil", func(t *testing.T) {
		var set *FrequencySet
		per, h := set.Lookup("食べる", "たべる")
		assert.Nil(t, per)
		assert.Zero(t, h)
		assert.Zero(t, set.Len())
	})
}
