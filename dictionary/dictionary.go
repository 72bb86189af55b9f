// Package dictionary resolves and loads the morphological-analysis
// dictionaries the tokenizer runs on, and the Yomitan frequency
// dictionaries terms are ranked against. A loaded Dictionary is an explicit
// handle: callers pass it to tokenize.New, nothing is process-global.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"vocabmine/logger"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ikawaha/kagome-dict/dict"
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome-dict/uni"
)

// ErrDictionaryUnavailable is returned when a dictionary is missing or corrupt.
var ErrDictionaryUnavailable = errors.New("dictionary unavailable")

// DictionaryError reports which dictionary failed to load.
type DictionaryError struct {
	Name string
	Path string
	Err  error
}

func (e *DictionaryError) Error() string {
	where := e.Name
	if e.Path != "" {
		where += " (" + e.Path + ")"
	}
	return fmt.Sprintf("dictionary %s unavailable: %v", where, e.Err)
}

func (e *DictionaryError) Unwrap() []error {
	return []error{ErrDictionaryUnavailable, e.Err}
}

// Name identifies a dictionary flavour.
type Name string

const (
	IPA     Name = "ipa"
	UniDic  Name = "uni"
	Default      = IPA
)

// Layout gives the feature column indices of one dictionary flavour.
// A negative index means the column does not exist.
type Layout struct {
	POSDepth       int
	InflectionType int
	InflectionForm int
	Lemma          int
	Reading        int
	LemmaReading   int
}

var layouts = map[Name]Layout{
	// 品詞,品詞細分類1,品詞細分類2,品詞細分類3,活用型,活用形,原形,読み,発音
	IPA: {POSDepth: 4, InflectionType: 4, InflectionForm: 5, Lemma: 6, Reading: 7, LemmaReading: -1},
	// pos1..pos4,cType,cForm,lForm,lemma,orth,pron,orthBase,pronBase,...
	UniDic: {POSDepth: 4, InflectionType: 4, InflectionForm: 5, Lemma: 10, Reading: 9, LemmaReading: 6},
}

// ParseName validates a dictionary name; empty means Default.
func ParseName(s string) (Name, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default, nil
	}
	n := Name(s)
	if _, ok := layouts[n]; !ok {
		return "", fmt.Errorf("unknown dictionary %q (want ipa or uni)", s)
	}
	return n, nil
}

// Dictionary is a loaded, queryable dictionary handle.
type Dictionary struct {
	Name   Name
	Path   string
	Layout Layout
	dict   *dict.Dict
}

// Kagome returns the underlying kagome dictionary.
func (d *Dictionary) Kagome() *dict.Dict {
	return d.dict
}

// Spec selects a dictionary: an embedded flavour by Name, or a kagome
// dictionary file at Path whose columns follow Name's layout.
type Spec struct {
	Name string
	Path string
}

func (s Spec) cacheKey(n Name) string {
	return string(n) + "|" + s.Path
}

// DefaultCacheSize bounds how many loaded dictionaries a Loader keeps.
const DefaultCacheSize = 4

// Loader loads dictionaries and caches the handles it produced.
type Loader struct {
	cache    *lru.Cache[string, *Dictionary]
	embedded map[Name]func() *dict.Dict
	openFile func(path string) (*dict.Dict, error)
	log      logger.Logger
}

// NewLoader returns a Loader caching up to size dictionaries.
func NewLoader(size int, log logger.Logger) (*Loader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Dictionary](size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &Loader{
		cache: cache,
		embedded: map[Name]func() *dict.Dict{
			IPA:    ipa.Dict,
			UniDic: uni.Dict,
		},
		openFile: dict.LoadDictFile,
		log:      log,
	}, nil
}

// Load resolves spec, returning a cached handle when one exists.
func (l *Loader) Load(ctx context.Context, spec Spec) (*Dictionary, error) {
	name, err := ParseName(spec.Name)
	if err != nil {
		return nil, &DictionaryError{Name: spec.Name, Path: spec.Path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := spec.cacheKey(name)
	if d, ok := l.cache.Get(key); ok {
		l.log.Debug("dictionary cache hit", "name", name, "path", spec.Path)
		return d, nil
	}

	var kd *dict.Dict
	if spec.Path != "" {
		kd, err = l.loadFile(spec.Path)
	} else {
		kd, err = l.loadEmbedded(name)
	}
	if err != nil {
		return nil, &DictionaryError{Name: string(name), Path: spec.Path, Err: err}
	}
	d := &Dictionary{Name: name, Path: spec.Path, Layout: layouts[name], dict: kd}
	l.cache.Add(key, d)
	l.log.Info("dictionary loaded", "name", name, "path", spec.Path)
	return d, nil
}

func (l *Loader) loadFile(path string) (*dict.Dict, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	kd, err := l.openFile(path)
	if err != nil {
		return nil, err
	}
	if kd == nil {
		return nil, errors.New("empty dictionary")
	}
	return kd, nil
}

func (l *Loader) loadEmbedded(n Name) (kd *dict.Dict, err error) {
	load, ok := l.embedded[n]
	if !ok {
		return nil, fmt.Errorf("no embedded dictionary %q", n)
	}
	defer func() {
		if r := recover(); r != nil {
			kd, err = nil, fmt.Errorf("corrupt embedded dictionary: %v", r)
		}
	}()
	kd = load()
	if kd == nil {
		return nil, errors.New("empty dictionary")
	}
	return kd, nil
}

// Len reports how many dictionaries are cached.
func (l *Loader) Len() int {
	return l.cache.Len()
}
