// Package analyze runs the vocabulary pipeline over a corpus: load each
// file, tokenize and segment its sentences, aggregate terms, score them
// and optionally balance the corpus.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"vocabmine/balance"
	"vocabmine/dictionary"
	"vocabmine/ingest"
	"vocabmine/logger"
	"vocabmine/model"
	"vocabmine/segment"
	"vocabmine/task"
	"vocabmine/terms"
	"vocabmine/tokenize"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// ErrCancelled is reported by Result.Err for a run that stopped early on
// request. Such results are partial, not failed.
var ErrCancelled = errors.New("analysis cancelled")

// DiagnosticKind classifies a recovered error.
type DiagnosticKind string

const (
	DiagFileRead     DiagnosticKind = "file_read"
	DiagSegmentation DiagnosticKind = "segmentation"
)

// Diagnostic records a file or sentence that was skipped.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Path     string         `json:"path"`
	FileID   int            `json:"file_id"`
	Sentence int            `json:"sentence"`
	Message  string         `json:"message"`
}

// Request is one analysis run.
type Request struct {
	// Paths are the files to analyze; a file's ID is its index here.
	Paths     []string
	Fs        afero.Fs
	Loader    *ingest.Loader
	Tokenizer *tokenize.Tokenizer
	Matcher   segment.Matcher
	Options   Options
}

// Result of a run. When Cancelled is set the terms cover only the work done
// before cancellation was observed.
type Result struct {
	Files       []*model.SourceFile `json:"files"`
	Terms       []*model.Term       `json:"terms"`
	Scores      Scores              `json:"scores"`
	Selection   *balance.Selection  `json:"selection,omitempty"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Cancelled   bool                `json:"cancelled"`
	Sentences   int                 `json:"sentences"`
	Words       int                 `json:"words"`

	// SentenceComprehension covers every sentence holding at least one term.
	SentenceComprehension []SentenceScore `json:"sentence_comprehension,omitempty"`
}

// Err returns ErrCancelled for a partial result.
func (r *Result) Err() error {
	if r.Cancelled {
		return ErrCancelled
	}
	return nil
}

// Sentence returns the text of ref, if its file was loaded.
func (r *Result) Sentence(ref model.SentenceRef) (model.Sentence, bool) {
	for _, f := range r.Files {
		if f.ID != ref.FileID {
			continue
		}
		if ref.Index >= 0 && ref.Index < len(f.Sentences) {
			return f.Sentences[ref.Index], true
		}
	}
	return model.Sentence{}, false
}

// Run executes the pipeline on the calling goroutine. Unreadable files and
// sentences that fail to tokenize are skipped and reported as diagnostics.
// A missing tokenizer is fatal. Cancellation of ctx is checked before each
// file and every SentenceBatch sentences; the partial result is returned
// with Cancelled set and a nil error.
func Run(ctx context.Context, req Request, progress *task.Tracker) (*Result, error) {
	log := logger.FromContext(ctx)
	if req.Tokenizer == nil {
		return nil, &dictionary.DictionaryError{Name: "<none>", Err: errors.New("no tokenizer")}
	}
	if req.Fs == nil {
		req.Fs = afero.NewOsFs()
	}
	if req.Loader == nil {
		req.Loader = ingest.NewLoader(req.Fs)
	}
	if req.Matcher.Rules == nil {
		req.Matcher = segment.NewMatcher()
	}
	opts := req.Options

	progress.SetStage(task.StageDiscover, "")
	candidates := statFiles(req.Fs, req.Paths)
	if opts.BalanceSources {
		candidates = balance.BySource(candidates)
	}
	var totalBytes int64
	for _, c := range candidates {
		totalBytes += c.Size
	}
	progress.SetTotals(len(candidates), totalBytes)
	log.Info("analysis started", "files", len(candidates), "size", humanize.IBytes(uint64(totalBytes)))

	res := &Result{}
	agg := terms.NewAggregator()
	batch := opts.sentenceBatch()

files:
	for _, c := range candidates {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		progress.StartFile(filepath.Base(c.Path))
		progress.SetStage(task.StageLoad, c.Path)
		sf, err := req.Loader.Load(c.ID, c.Path)
		if err != nil {
			log.Warn("skipping file", "path", c.Path, "error", err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind: DiagFileRead, Path: c.Path, FileID: c.ID, Sentence: -1, Message: err.Error(),
			})
			progress.FileDone(c.Size)
			continue
		}
		res.Files = append(res.Files, sf)
		progress.SetStage(task.StageSegment, fmt.Sprintf("%d sentences", len(sf.Sentences)))

		for i, s := range sf.Sentences {
			if i > 0 && i%batch == 0 && ctx.Err() != nil {
				res.Cancelled = true
				break files
			}
			toks, err := req.Tokenizer.Tokenize(s.Text)
			if err != nil {
				log.Debug("skipping sentence", "path", c.Path, "sentence", s.Index, "error", err)
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind: DiagSegmentation, Path: c.Path, FileID: c.ID, Sentence: s.Index, Message: err.Error(),
				})
				continue
			}
			words := req.Matcher.Words(toks)
			res.Words += agg.AddSentence(words, s.Ref())
			res.Sentences++
		}
		progress.FileDone(sf.Size)
	}

	res.Terms = agg.Terms()
	progress.SetStage(task.StageScore, "")
	res.Scores = Score(res.Terms, res.Files, opts)
	res.SentenceComprehension = SentenceScores(res.Terms, opts)

	if res.Cancelled {
		progress.SetStage(task.StageCancelled, fmt.Sprintf("%d terms from %d files", len(res.Terms), len(res.Files)))
		log.Info("analysis cancelled", "terms", len(res.Terms), "files", len(res.Files))
		return res, nil
	}

	if opts.BalanceCorpus {
		progress.SetStage(task.StageBalance, "")
		sel := balance.Select(balanceFiles(res.Files), res.Terms, opts.BalanceTarget)
		res.Selection = &sel
		log.Info("corpus balanced", "files", len(sel.Files), "coverage", sel.Coverage)
	}

	progress.SetStage(task.StageDone, fmt.Sprintf("%d terms, %d surfaced", len(res.Terms), len(res.Scores.Surfaced)))
	log.Info("analysis finished",
		"terms", len(res.Terms),
		"surfaced", len(res.Scores.Surfaced),
		"skipped", len(res.Diagnostics),
	)
	return res, nil
}

// statFiles numbers paths and reads their sizes. A file that cannot be
// stat'ed keeps size 0 and fails later when loaded.
func statFiles(fs afero.Fs, paths []string) []balance.File {
	out := make([]balance.File, len(paths))
	for i, p := range paths {
		out[i] = balance.File{ID: i, Path: p, Source: ingest.SourceName(p)}
		if fi, err := fs.Stat(p); err == nil {
			out[i].Size = fi.Size()
		}
	}
	return out
}

func balanceFiles(files []*model.SourceFile) []balance.File {
	out := make([]balance.File, len(files))
	for i, f := range files {
		out[i] = balance.File{ID: f.ID, Path: f.Path, Source: f.Source, Size: f.Size}
	}
	return out
}

// Start runs Run as a background task of kind "analysis" on m. The result
// is available once the handle finishes.
func Start(m *task.Manager, req Request) (*task.Handle, func() *Result, error) {
	var res *Result
	h, err := m.Start(TaskKind, func(ctx context.Context, p *task.Tracker) error {
		r, err := Run(ctx, req, p)
		res = r
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return h, func() *Result {
		if !h.IsFinished() {
			return nil
		}
		return res
	}, nil
}

// TaskKind is the task kind analyses run under.
const TaskKind = "analysis"
