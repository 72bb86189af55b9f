// Package filetree discovers the analysable files under a root directory and
// keeps the user's selection over them.
package filetree

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"vocabmine/ingest"
	"vocabmine/logger"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrNotDirectory is returned when the root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DefaultIgnore skips hidden files and directories.
var DefaultIgnore = []string{"**/.*"}

// Skipped is a directory that could not be read.
type Skipped struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Builder scans a directory tree.
type Builder struct {
	Fs afero.Fs
	// Extensions are matched case-insensitively, with the leading dot.
	// Empty means every format the ingest package reads.
	Extensions []string
	// Ignore holds doublestar patterns matched against the slash-separated
	// path relative to the root and against the base name.
	Ignore []string
	// Concurrency bounds how many sibling directories are read at once.
	Concurrency int
}

// NewBuilder returns a Builder for the supported source formats.
func NewBuilder(fs afero.Fs) *Builder {
	return &Builder{Fs: fs, Extensions: ingest.SupportedExtensions(), Concurrency: 8}
}

type scan struct {
	b      *Builder
	root   string
	exts   map[string]struct{}
	ignore []string
	log    logger.Logger

	mu      sync.Mutex
	skipped []Skipped
}

// Build reads root recursively. Unreadable subdirectories are recorded in
// Tree.Skipped and do not fail the build; an unreadable root does.
// Directories without any matching file are pruned.
func (b *Builder) Build(ctx context.Context, root string) (*Tree, error) {
	for _, p := range b.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	root = filepath.Clean(root)
	fi, err := b.Fs.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}
	exts := b.Extensions
	if len(exts) == 0 {
		exts = ingest.SupportedExtensions()
	}
	s := &scan{
		b:      b,
		root:   root,
		exts:   make(map[string]struct{}, len(exts)),
		ignore: append(append([]string{}, DefaultIgnore...), b.Ignore...),
		log:    logger.FromContext(ctx),
	}
	for _, e := range exts {
		s.exts[strings.ToLower(e)] = struct{}{}
	}

	entries, err := afero.ReadDir(b.Fs, root)
	if err != nil {
		return nil, err
	}
	rootNode := &Node{ID: RootID, Name: filepath.Base(root), Path: root, Dir: true}
	if err := s.fill(ctx, rootNode, entries); err != nil {
		return nil, err
	}
	t := newTree(rootNode)
	sort.Slice(s.skipped, func(i, j int) bool { return s.skipped[i].Path < s.skipped[j].Path })
	t.Skipped = s.skipped
	s.log.Info("file tree built", "root", root, "files", len(t.Files()), "skipped", len(t.Skipped))
	return t, nil
}

// fill adds the matching children of dir. Subdirectories are read
// concurrently.
func (s *scan) fill(ctx context.Context, dir *Node, entries []os.FileInfo) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	children := make([]*Node, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	if s.b.Concurrency > 0 {
		g.SetLimit(s.b.Concurrency)
	}
	for i, e := range entries {
		full := filepath.Join(dir.Path, e.Name())
		rel := s.rel(full)
		if s.ignored(rel, e.Name()) {
			continue
		}
		switch {
		case e.IsDir():
			node := &Node{ID: NodeID(rel), Name: e.Name(), Path: full, Dir: true}
			children[i] = node
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				sub, err := afero.ReadDir(s.b.Fs, full)
				if err != nil {
					s.skip(full, err)
					return nil
				}
				return s.fill(gctx, node, sub)
			})
		case e.Mode().IsRegular() && s.matches(e.Name()):
			children[i] = &Node{ID: NodeID(rel), Name: e.Name(), Path: full, Size: e.Size(), selected: true}
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range children {
		if c == nil || (c.Dir && len(c.Children) == 0) {
			continue
		}
		c.parent = dir
		dir.Children = append(dir.Children, c)
	}
	return nil
}

func (s *scan) rel(full string) string {
	r, err := filepath.Rel(s.root, full)
	if err != nil {
		return filepath.ToSlash(full)
	}
	return filepath.ToSlash(r)
}

func (s *scan) ignored(rel, base string) bool {
	for _, p := range s.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (s *scan) matches(name string) bool {
	_, ok := s.exts[strings.ToLower(path.Ext(name))]
	return ok
}

func (s *scan) skip(p string, err error) {
	s.log.Warn("skipping unreadable directory", "path", p, "error", err)
	s.mu.Lock()
	s.skipped = append(s.skipped, Skipped{Path: p, Err: err.Error()})
	s.mu.Unlock()
}
