package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"vocabmine/logger"
	"vocabmine/model"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/afero"
)

// EnvPrefix is stripped from environment variables before mapping them to
// keys: VOCABMINE_ANALYSIS_MIN_FREQUENCY sets analysis.min_frequency.
const EnvPrefix = "VOCABMINE_"

// envMappings cover keys nested deeper than section.field.
var envMappings = map[string]string{
	"VOCABMINE_ANALYSIS_CORPUS_BALANCE_TARGET_MAX_FILES": "analysis.corpus_balance_target.max_files",
	"VOCABMINE_ANALYSIS_CORPUS_BALANCE_TARGET_MAX_BYTES": "analysis.corpus_balance_target.max_bytes",
}

// Loader builds a Config from defaults, a file and the environment, in
// increasing precedence.
type Loader struct {
	Fs afero.Fs
	// Environ lists the environment; os.Environ when nil.
	Environ func() []string

	k        *koanf.Koanf
	validate *validator.Validate
}

func NewLoader(fs afero.Fs) *Loader {
	return &Loader{Fs: fs, k: koanf.New("."), validate: validator.New()}
}

// Load reads path if it is not empty. A missing file is an error.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	log := logger.FromContext(ctx)
	l.k = koanf.New(".")
	if err := l.k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := l.loadFile(path); err != nil {
			return nil, err
		}
		log.Debug("config file loaded", "path", path)
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}
	if err := l.Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string) error {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := l.k.Load(rawMap(raw), nil); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	return nil
}

// transformEnvKey maps VOCABMINE_SECTION_FIELD_NAME to section.field_name.
func transformEnvKey(key string) string {
	if path, ok := envMappings[key]; ok {
		return path
	}
	s := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

func (l *Loader) loadEnvironment() error {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	err := l.k.Load(env.Provider(".", env.Opt{
		Prefix:      EnvPrefix,
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(key), value
		},
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToWeightsHook,
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}

// stringToWeightsHook decodes "anime=2,news=0.5" into a weight map.
func stringToWeightsHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(map[string]float64{}) {
		return data, nil
	}
	out := map[string]float64{}
	for _, pair := range strings.Split(data.(string), ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("frequency weight %q: want source=weight", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("frequency weight %q: %w", pair, err)
		}
		out[strings.TrimSpace(name)] = w
	}
	return out, nil
}

// Validate checks struct tags and the rules spanning several fields.
func (l *Loader) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration cannot be nil")
	}
	if err := l.validate.Struct(cfg); err != nil {
		return err
	}
	a := cfg.Analysis
	if a.MaxFrequency != 0 && a.MaxFrequency < a.MinFrequency {
		return fmt.Errorf("analysis.max_frequency (%d) is below analysis.min_frequency (%d)", a.MaxFrequency, a.MinFrequency)
	}
	if _, err := model.NewPOSSet(a.PartOfSpeechFilter); err != nil {
		return fmt.Errorf("analysis.part_of_speech_filter: %w", err)
	}
	return nil
}

// rawMap adapts a decoded map to koanf.Provider.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("ReadBytes not implemented")
}
