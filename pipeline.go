package main

import (
	"context"
	"fmt"
	"time"

	"vocabmine/analyze"
	"vocabmine/dictionary"
	"vocabmine/filetree"
	"vocabmine/task"
	"vocabmine/tokenize"

	"github.com/dustin/go-humanize"
)

const progressInterval = 500 * time.Millisecond

// corpus is the set of files named on the command line. Directories are
// expanded through the file tree builder.
type corpus struct {
	paths []string
	trees []*filetree.Tree
}

func (a *app) resolve(ctx context.Context, args []string) (*corpus, error) {
	c := &corpus{}
	b := filetree.NewBuilder(a.fs)
	b.Extensions = a.cfg.Scan.Extensions
	b.Ignore = a.cfg.Scan.Ignore
	b.Concurrency = a.cfg.Scan.Concurrency
	for _, arg := range args {
		fi, err := a.fs.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			c.paths = append(c.paths, arg)
			continue
		}
		tree, err := b.Build(ctx, arg)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", arg, err)
		}
		c.trees = append(c.trees, tree)
		c.paths = append(c.paths, tree.SelectedFiles()...)
	}
	return c, nil
}

func (a *app) tokenizer(ctx context.Context) (*tokenize.Tokenizer, error) {
	loader, err := dictionary.NewLoader(a.cfg.Dictionary.CacheSize, a.log)
	if err != nil {
		return nil, err
	}
	d, err := loader.Load(ctx, a.cfg.DictionarySpec())
	if err != nil {
		return nil, err
	}
	return tokenize.New(d, tokenize.WithMode(tokenize.Mode(a.cfg.Dictionary.Mode)))
}

// run executes the pipeline as a background task and reports progress
// until it finishes. Interrupting the command cancels the task and keeps
// the partial result.
func (a *app) run(ctx context.Context, c *corpus, opts analyze.Options) (*analyze.Result, error) {
	tok, err := a.tokenizer(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Debug("analysis options",
		"dictionary", tok.Dictionary().Name,
		"files", len(c.paths),
		"exclude_pos", opts.ExcludePOS.Sorted(),
		"frequency_dictionaries", opts.Frequencies.Len(),
	)
	m := task.NewManager(context.WithoutCancel(ctx))
	h, result, err := analyze.Start(m, analyze.Request{
		Paths:     c.paths,
		Fs:        a.fs,
		Loader:    a.cfg.IngestLoader(a.fs),
		Tokenizer: tok,
		Options:   opts,
	})
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	interrupted := ctx.Done()
	for !h.IsFinished() {
		select {
		case <-h.Done():
		case <-interrupted:
			a.log.Warn("interrupted, stopping analysis", "task", h.ID)
			h.Cancel()
			interrupted = nil
		case <-ticker.C:
			a.reportProgress(h.Progress())
		}
	}
	if err := h.Err(); err != nil {
		return nil, err
	}
	res := result()
	for _, tree := range c.trees {
		for _, f := range res.Scores.Files {
			tree.Annotate(f.Path, f.Comprehension)
		}
	}
	return res, nil
}

func (a *app) reportProgress(p task.Progress) {
	kv := []any{
		"stage", p.Stage,
		"files", fmt.Sprintf("%d/%d", p.FilesProcessed, p.TotalFiles),
		"read", humanize.IBytes(uint64(p.BytesProcessed)),
	}
	if p.CurrentFile != "" {
		kv = append(kv, "file", p.CurrentFile)
	}
	if p.HasETA {
		kv = append(kv, "eta", p.ETA.Round(time.Second))
	}
	a.log.Info("analysing", kv...)
}
