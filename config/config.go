// Package config holds every setting of a vocabmine run and loads it from
// defaults, an optional YAML file and VOCABMINE_* environment variables.
package config

import (
	"fmt"
	"os"

	"vocabmine/analyze"
	"vocabmine/balance"
	"vocabmine/dictionary"
	"vocabmine/ingest"
	"vocabmine/logger"
	"vocabmine/lookup"
	"vocabmine/model"
	"vocabmine/tokenize"

	"github.com/spf13/afero"
)

type Config struct {
	Dictionary DictionaryConfig `koanf:"dictionary"`
	Scan       ScanConfig       `koanf:"scan"`
	Analysis   AnalysisConfig   `koanf:"analysis"`
	Log        LogConfig        `koanf:"log"`
}

// DictionaryConfig selects the tokenizer dictionary.
type DictionaryConfig struct {
	Name string `koanf:"name" validate:"oneof=ipa uni"`
	// Path loads a dictionary file instead of the embedded one.
	Path      string `koanf:"path"`
	Mode      string `koanf:"mode" validate:"oneof=normal search extended"`
	CacheSize int    `koanf:"cache_size" validate:"min=1"`
}

// ScanConfig controls file discovery and reading.
type ScanConfig struct {
	Extensions      []string `koanf:"extensions" validate:"dive,startswith=."`
	Ignore          []string `koanf:"ignore"`
	Concurrency     int      `koanf:"concurrency" validate:"min=1,max=256"`
	MaxFileSize     int64    `koanf:"max_file_size" validate:"min=0"`
	LegacyEncodings bool     `koanf:"legacy_encodings"`
}

// BalanceTarget bounds the balanced corpus. Zero means unbounded.
type BalanceTarget struct {
	MaxFiles int   `koanf:"max_files" validate:"min=0"`
	MaxBytes int64 `koanf:"max_bytes" validate:"min=0"`
}

// FrequencyDictionaryConfig is one Yomitan frequency dictionary, a
// directory or a .zip archive. Weight 0 means 1.
type FrequencyDictionaryConfig struct {
	Path     string  `koanf:"path" validate:"required"`
	Weight   float64 `koanf:"weight" validate:"gte=0"`
	Disabled bool    `koanf:"disabled"`
}

type AnalysisConfig struct {
	MinFrequency int `koanf:"min_frequency" validate:"min=0"`
	// MaxFrequency of 0 is unbounded.
	MaxFrequency        int                `koanf:"max_frequency" validate:"min=0"`
	IncludeUnknownWords bool               `koanf:"include_unknown_words"`
	PartOfSpeechFilter  []string           `koanf:"part_of_speech_filter"`
	FrequencyWeights    map[string]float64 `koanf:"frequency_weights" validate:"dive,gte=0"`
	CorpusBalanceTarget BalanceTarget      `koanf:"corpus_balance_target"`
	KnownThreshold      int                `koanf:"known_threshold" validate:"min=1"`
	IgnoredLemmas       []string           `koanf:"ignored_lemmas"`
	IgnoreFile          string             `koanf:"ignore_file"`
	BalanceCorpus       bool               `koanf:"balance_corpus"`
	BalanceSources      bool               `koanf:"balance_sources"`
	SentenceBatch       int                `koanf:"sentence_batch" validate:"min=1"`
	NormalizeWidth      bool               `koanf:"normalize_width"`

	FrequencyDictionaries []FrequencyDictionaryConfig `koanf:"frequency_dictionaries" validate:"dive"`
}

type LogConfig struct {
	Level     string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON      bool   `koanf:"json"`
	AddSource bool   `koanf:"add_source"`
	// DumpDir receives JSON dumps of results when set.
	DumpDir string `koanf:"dump_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dictionary: DictionaryConfig{
			Name:      string(dictionary.Default),
			Mode:      string(tokenize.Normal),
			CacheSize: dictionary.DefaultCacheSize,
		},
		Scan: ScanConfig{
			Extensions:  ingest.SupportedExtensions(),
			Ignore:      []string{},
			Concurrency: 8,
		},
		Analysis: AnalysisConfig{
			MinFrequency:       1,
			PartOfSpeechFilter: []string{},
			FrequencyWeights:   map[string]float64{},
			KnownThreshold:     analyze.DefaultKnownThreshold,
			IgnoredLemmas:      []string{},
			SentenceBatch:      analyze.DefaultSentenceBatch,
			NormalizeWidth:     true,

			FrequencyDictionaries: []FrequencyDictionaryConfig{},
		},
		Log: LogConfig{Level: string(logger.InfoLevel)},
	}
}

// AnalysisOptions converts the analysis section. The ignore list starts
// from lookup.DefaultIgnoredLemmas, adds IgnoredLemmas and then the terms of
// IgnoreFile read from fs. Frequency dictionaries are loaded from fs.
func (c *Config) AnalysisOptions(fs afero.Fs) (analyze.Options, error) {
	a := c.Analysis
	exclude, err := model.NewPOSSet(a.PartOfSpeechFilter)
	if err != nil {
		return analyze.Options{}, fmt.Errorf("part_of_speech_filter: %w", err)
	}
	ignore := lookup.Default()
	for _, l := range a.IgnoredLemmas {
		ignore.Add(l)
	}
	if a.IgnoreFile != "" {
		if _, err := ignore.LoadFile(fs, a.IgnoreFile); err != nil {
			return analyze.Options{}, fmt.Errorf("ignore_file: %w", err)
		}
	}
	freqs, err := a.frequencySet(fs)
	if err != nil {
		return analyze.Options{}, err
	}
	return analyze.Options{
		MinFrequency:        a.MinFrequency,
		MaxFrequency:        a.MaxFrequency,
		IncludeUnknownWords: a.IncludeUnknownWords,
		ExcludePOS:          exclude,
		FrequencyWeights:    a.FrequencyWeights,
		KnownThreshold:      a.KnownThreshold,
		Ignore:              ignore,
		Frequencies:         freqs,
		BalanceCorpus:       a.BalanceCorpus,
		BalanceTarget: balance.Target{
			MaxFiles: a.CorpusBalanceTarget.MaxFiles,
			MaxBytes: a.CorpusBalanceTarget.MaxBytes,
		},
		BalanceSources: a.BalanceSources,
		SentenceBatch:  a.SentenceBatch,
	}, nil
}

func (a AnalysisConfig) frequencySet(fs afero.Fs) (*dictionary.FrequencySet, error) {
	if len(a.FrequencyDictionaries) == 0 {
		return nil, nil
	}
	set := dictionary.NewFrequencySet()
	for i, fc := range a.FrequencyDictionaries {
		d, err := dictionary.LoadFrequencyDictionary(fs, fc.Path)
		if err != nil {
			return nil, fmt.Errorf("frequency_dictionaries[%d]: %w", i, err)
		}
		weight := fc.Weight
		if weight == 0 {
			weight = 1
		}
		src := dictionary.FrequencySource{Dictionary: d, Weight: weight, Enabled: !fc.Disabled}
		if err := set.Add(src); err != nil {
			return nil, fmt.Errorf("frequency_dictionaries[%d]: %w", i, err)
		}
	}
	return set, nil
}

// DictionarySpec is the dictionary to load.
func (c *Config) DictionarySpec() dictionary.Spec {
	return dictionary.Spec{Name: c.Dictionary.Name, Path: c.Dictionary.Path}
}

// IngestLoader returns a file loader over fs honouring the scan and
// analysis settings.
func (c *Config) IngestLoader(fs afero.Fs) *ingest.Loader {
	l := ingest.NewLoader(fs)
	l.NormalizeWidth = c.Analysis.NormalizeWidth
	l.LegacyEncodings = c.Scan.LegacyEncodings
	l.MaxFileSize = c.Scan.MaxFileSize
	return l
}

// LoggerConfig maps the log section onto logger.Config.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(c.Log.Level)
	cfg.JSON = c.Log.JSON
	cfg.AddSource = c.Log.AddSource
	cfg.Output = os.Stderr
	return cfg
}
