package config

import (
	"testing"

	"vocabmine/model"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, env ...string) (*Loader, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	l := NewLoader(fs)
	l.Environ = func() []string { return env }
	return l, fs
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should return defaults without file or environment", func(t *testing.T) {
		l, _ := newTestLoader(t)
		cfg, err := l.Load(t.Context(), "")
		require.NoError(t, err)
		assert.Equal(t, "ipa", cfg.Dictionary.Name)
		assert.Equal(t, 1, cfg.Analysis.MinFrequency)
		assert.Equal(t, 0, cfg.Analysis.MaxFrequency)
		assert.Equal(t, 3, cfg.Analysis.KnownThreshold)
		assert.True(t, cfg.Analysis.NormalizeWidth)
		assert.Equal(t, []string{".ass", ".srt", ".ssa", ".txt", ".vtt"}, cfg.Scan.Extensions)
	})

	t.Run("Should read a YAML file", func(t *testing.T) {
		l, fs := newTestLoader(t)
		require.NoError(t, afero.WriteFile(fs, "/etc/vocabmine.yaml", []byte(`
dictionary:
  name: uni
analysis:
  min_frequency: 2
  max_frequency: 50
  part_of_speech_filter: [particle, auxiliary_verb]
  frequency_weights:
    anime: 2.5
  corpus_balance_target:
    max_files: 10
scan:
  ignore: ["drafts/**"]
`), 0o644))
		cfg, err := l.Load(t.Context(), "/etc/vocabmine.yaml")
		require.NoError(t, err)
		assert.Equal(t, "uni", cfg.Dictionary.Name)
		assert.Equal(t, 2, cfg.Analysis.MinFrequency)
		assert.Equal(t, 50, cfg.Analysis.MaxFrequency)
		assert.Equal(t, []string{"particle", "auxiliary_verb"}, cfg.Analysis.PartOfSpeechFilter)
		assert.InDelta(t, 2.5, cfg.Analysis.FrequencyWeights["anime"], 1e-9)
		assert.Equal(t, 10, cfg.Analysis.CorpusBalanceTarget.MaxFiles)
		assert.Equal(t, []string{"drafts/**"}, cfg.Scan.Ignore)
		assert.Equal(t, 3, cfg.Analysis.KnownThreshold)
	})

	t.Run("Should read frequency dictionaries", func(t *testing.T) {
		l, fs := newTestLoader(t)
		require.NoError(t, afero.WriteFile(fs, "/f.yaml", []byte(`
analysis:
  frequency_dictionaries:
    - path: /dicts/jpdb.zip
      weight: 2
    - path: /dicts/novels
      disabled: true
`), 0o644))
		cfg, err := l.Load(t.Context(), "/f.yaml")
		require.NoError(t, err)
		assert.Equal(t, []FrequencyDictionaryConfig{
			{Path: "/dicts/jpdb.zip", Weight: 2},
			{Path: "/dicts/novels", Disabled: true},
		}, cfg.Analysis.FrequencyDictionaries)
	})

	t.Run("Should let the environment override the file", func(t *testing.T) {
		l, fs := newTestLoader(t,
			"VOCABMINE_ANALYSIS_MIN_FREQUENCY=4",
			"VOCABMINE_ANALYSIS_INCLUDE_UNKNOWN_WORDS=true",
			"VOCABMINE_ANALYSIS_PART_OF_SPEECH_FILTER=particle,symbol",
			"VOCABMINE_ANALYSIS_FREQUENCY_WEIGHTS=anime=2,news=0.5",
			"VOCABMINE_ANALYSIS_CORPUS_BALANCE_TARGET_MAX_BYTES=4096",
			"OTHER_APP_VALUE=1",
		)
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("analysis:\n  min_frequency: 2\n"), 0o644))
		cfg, err := l.Load(t.Context(), "/c.yaml")
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Analysis.MinFrequency)
		assert.True(t, cfg.Analysis.IncludeUnknownWords)
		assert.Equal(t, []string{"particle", "symbol"}, cfg.Analysis.PartOfSpeechFilter)
		assert.Equal(t, map[string]float64{"anime": 2, "news": 0.5}, cfg.Analysis.FrequencyWeights)
		assert.Equal(t, int64(4096), cfg.Analysis.CorpusBalanceTarget.MaxBytes)
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		l, _ := newTestLoader(t)
		_, err := l.Load(t.Context(), "/nope.yaml")
		assert.Error(t, err)
	})

	t.Run("Should fail on malformed YAML", func(t *testing.T) {
		l, fs := newTestLoader(t)
		require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("analysis: [\n"), 0o644))
		_, err := l.Load(t.Context(), "/bad.yaml")
		assert.Error(t, err)
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		cases := map[string][]string{
			"dictionary":     {"VOCABMINE_DICTIONARY_NAME=mecab"},
			"negative min":   {"VOCABMINE_ANALYSIS_MIN_FREQUENCY=-1"},
			"max below min":  {"VOCABMINE_ANALYSIS_MIN_FREQUENCY=5", "VOCABMINE_ANALYSIS_MAX_FREQUENCY=2"},
			"part of speech": {"VOCABMINE_ANALYSIS_PART_OF_SPEECH_FILTER=nounish"},
			"weight":         {"VOCABMINE_ANALYSIS_FREQUENCY_WEIGHTS=anime"},
			"extension":      {"VOCABMINE_SCAN_EXTENSIONS=txt"},
			"log level":      {"VOCABMINE_LOG_LEVEL=loud"},
		}
		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				l, _ := newTestLoader(t, env...)
				_, err := l.Load(t.Context(), "")
				assert.Error(t, err)
			})
		}
	})

	t.Run("Should reject frequency dictionaries without path or with negative weight", func(t *testing.T) {
		for _, body := range []string{
			"analysis:\n  frequency_dictionaries:\n    - weight: 1\n",
			"analysis:\n  frequency_dictionaries:\n    - path: /d\n      weight: -1\n",
		} {
			l, fs := newTestLoader(t)
			require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte(body), 0o644))
			_, err := l.Load(t.Context(), "/c.yaml")
			assert.Error(t, err, body)
		}
	})

	t.Run("Should accept an unbounded maximum", func(t *testing.T) {
		l, _ := newTestLoader(t, "VOCABMINE_ANALYSIS_MIN_FREQUENCY=5", "VOCABMINE_ANALYSIS_MAX_FREQUENCY=0")
		_, err := l.Load(t.Context(), "")
		assert.NoError(t, err)
	})
}

func TestTransformEnvKey(t *testing.T) {
	assert.Equal(t, "analysis.min_frequency", transformEnvKey("VOCABMINE_ANALYSIS_MIN_FREQUENCY"))
	assert.Equal(t, "log.level", transformEnvKey("VOCABMINE_LOG_LEVEL"))
	assert.Equal(t, "analysis.corpus_balance_target.max_files", transformEnvKey("VOCABMINE_ANALYSIS_CORPUS_BALANCE_TARGET_MAX_FILES"))
	assert.Equal(t, "", transformEnvKey("VOCABMINE_"))
}

func TestConfig_AnalysisOptions(t *testing.T) {
	t.Run("Should convert every analysis field", func(t *testing.T) {
		cfg := Default()
		cfg.Analysis.MaxFrequency = 9
		cfg.Analysis.PartOfSpeechFilter = []string{"particle"}
		cfg.Analysis.IgnoredLemmas = []string{"猫"}
		cfg.Analysis.CorpusBalanceTarget = BalanceTarget{MaxFiles: 3, MaxBytes: 100}
		cfg.Analysis.BalanceCorpus = true

		opts, err := cfg.AnalysisOptions(afero.NewMemMapFs())
		require.NoError(t, err)
		assert.Equal(t, 1, opts.MinFrequency)
		assert.Equal(t, 9, opts.MaxFrequency)
		assert.True(t, opts.ExcludePOS.Has(model.Particle))
		assert.True(t, opts.Ignore.Contains("猫"))
		assert.True(t, opts.Ignore.Contains("です"))
		assert.Equal(t, 3, opts.BalanceTarget.MaxFiles)
		assert.Equal(t, int64(100), opts.BalanceTarget.MaxBytes)
		assert.True(t, opts.BalanceCorpus)
	})

	t.Run("Should read the ignore file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/ignore.txt", []byte("# comment\n犬\n"), 0o644))
		cfg := Default()
		cfg.Analysis.IgnoreFile = "/ignore.txt"
		opts, err := cfg.AnalysisOptions(fs)
		require.NoError(t, err)
		assert.True(t, opts.Ignore.Contains("犬"))
	})

	t.Run("Should load frequency dictionaries with their weights", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		for dir, title := range map[string]string{"/dicts/jpdb": "JPDB", "/dicts/novels": "Novels"} {
			require.NoError(t, afero.WriteFile(fs, dir+"/index.json",
				[]byte(`{"title":"`+title+`","revision":"1","format":3}`), 0o644))
			require.NoError(t, afero.WriteFile(fs, dir+"/term_meta_bank_1.json",
				[]byte(`[["猫","freq",300]]`), 0o644))
		}
		cfg := Default()
		cfg.Analysis.FrequencyDictionaries = []FrequencyDictionaryConfig{
			{Path: "/dicts/jpdb"},
			{Path: "/dicts/novels", Disabled: true},
		}
		opts, err := cfg.AnalysisOptions(fs)
		require.NoError(t, err)
		require.Equal(t, 2, opts.Frequencies.Len())
		per, h := opts.Frequencies.Lookup("猫", "ねこ")
		assert.Equal(t, map[string]int{"JPDB": 300, "Novels": 300}, per)
		assert.Equal(t, 300, h)
	})

	t.Run("Should fail on a missing frequency dictionary", func(t *testing.T) {
		cfg := Default()
		cfg.Analysis.FrequencyDictionaries = []FrequencyDictionaryConfig{{Path: "/nope"}}
		_, err := cfg.AnalysisOptions(afero.NewMemMapFs())
		assert.ErrorContains(t, err, "frequency_dictionaries[0]")
	})

	t.Run("Should fail on a missing ignore file", func(t *testing.T) {
		cfg := Default()
		cfg.Analysis.IgnoreFile = "/missing.txt"
		_, err := cfg.AnalysisOptions(afero.NewMemMapFs())
		assert.Error(t, err)
	})
}

func TestConfig_IngestLoader(t *testing.T) {
	cfg := Default()
	cfg.Analysis.NormalizeWidth = false
	cfg.Scan.LegacyEncodings = true
	cfg.Scan.MaxFileSize = 1 << 20
	l := cfg.IngestLoader(afero.NewMemMapFs())
	assert.False(t, l.NormalizeWidth)
	assert.True(t, l.LegacyEncodings)
	assert.Equal(t, int64(1<<20), l.MaxFileSize)
}
