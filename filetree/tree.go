package filetree

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned for an ID the tree does not hold.
var ErrNodeNotFound = errors.New("node not found")

// NodeID is the slash-separated path of a node relative to the root, so an
// ID survives rebuilding the tree over the same directory.
type NodeID string

// RootID identifies the root directory.
const RootID NodeID = "."

// Selection is the aggregate selection state of a node.
type Selection int

const (
	SelectedNone Selection = iota
	SelectedPartial
	SelectedAll
)

func (s Selection) String() string {
	switch s {
	case SelectedNone:
		return "none"
	case SelectedPartial:
		return "partial"
	case SelectedAll:
		return "all"
	}
	return fmt.Sprintf("Selection(%d)", int(s))
}

// Node is a directory or a file.
type Node struct {
	ID       NodeID  `json:"id"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Dir      bool    `json:"dir"`
	Size     int64   `json:"size,omitempty"`
	Children []*Node `json:"children,omitempty"`

	// Processed and Comprehension are set on files once analysed.
	Processed        bool    `json:"processed,omitempty"`
	Comprehension    float64 `json:"comprehension,omitempty"`
	HasComprehension bool    `json:"has_comprehension,omitempty"`

	parent   *Node
	selected bool
}

// Parent is nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Selection of a file is All or None. A directory is All when every file
// below it is selected, None when none is, Partial otherwise.
func (n *Node) Selection() Selection {
	if !n.Dir {
		if n.selected {
			return SelectedAll
		}
		return SelectedNone
	}
	files, selected, _ := n.Counts()
	switch {
	case files == 0 || selected == 0:
		return SelectedNone
	case selected == files:
		return SelectedAll
	}
	return SelectedPartial
}

// Counts returns how many files are below n, how many of them are selected
// and how many have been processed. A file counts itself.
func (n *Node) Counts() (files, selected, processed int) {
	n.walk(func(f *Node) {
		files++
		if f.selected {
			selected++
		}
		if f.Processed {
			processed++
		}
	})
	return files, selected, processed
}

// Bytes is the total size of the files below n.
func (n *Node) Bytes() int64 {
	var total int64
	n.walk(func(f *Node) { total += f.Size })
	return total
}

// walk calls fn for every file below n in tree order.
func (n *Node) walk(fn func(*Node)) {
	if !n.Dir {
		fn(n)
		return
	}
	for _, c := range n.Children {
		c.walk(fn)
	}
}

func (n *Node) setSelected(v bool) {
	n.walk(func(f *Node) { f.selected = v })
}

// Tree is the result of Builder.Build. It is not safe for concurrent use.
type Tree struct {
	Root    *Node     `json:"root"`
	Skipped []Skipped `json:"skipped,omitempty"`

	byID   map[NodeID]*Node
	byPath map[string]*Node
}

func newTree(root *Node) *Tree {
	t := &Tree{Root: root, byID: make(map[NodeID]*Node), byPath: make(map[string]*Node)}
	var index func(*Node)
	index = func(n *Node) {
		t.byID[n.ID] = n
		t.byPath[n.Path] = n
		for _, c := range n.Children {
			index(c)
		}
	}
	index(root)
	return t
}

// Node looks up id.
func (t *Tree) Node(id NodeID) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Empty reports whether no file was discovered.
func (t *Tree) Empty() bool {
	return len(t.Root.Children) == 0
}

// Files returns every file in tree order.
func (t *Tree) Files() []*Node {
	var out []*Node
	t.Root.walk(func(f *Node) { out = append(out, f) })
	return out
}

// Toggle flips the selection of id. A directory that is fully selected is
// cleared, otherwise everything below it is selected.
func (t *Tree) Toggle(id NodeID) (Selection, error) {
	n, ok := t.byID[id]
	if !ok {
		return SelectedNone, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.setSelected(n.Selection() != SelectedAll)
	return n.Selection(), nil
}

// Select sets the selection of id and everything below it.
func (t *Tree) Select(id NodeID, selected bool) error {
	n, ok := t.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.setSelected(selected)
	return nil
}

// SelectedFiles returns the paths of the selected files in tree order.
func (t *Tree) SelectedFiles() []string {
	var out []string
	t.Root.walk(func(f *Node) {
		if f.selected {
			out = append(out, f.Path)
		}
	})
	return out
}

// MarkProcessed records that the file at path was analysed. It reports
// whether the path is in the tree.
func (t *Tree) MarkProcessed(path string) bool {
	n, ok := t.byPath[path]
	if !ok || n.Dir {
		return false
	}
	n.Processed = true
	return true
}

// Annotate stores the comprehension of the file at path and marks it
// processed.
func (t *Tree) Annotate(path string, comprehension float64) bool {
	if !t.MarkProcessed(path) {
		return false
	}
	n := t.byPath[path]
	n.Comprehension = comprehension
	n.HasComprehension = true
	return true
}
