package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vocabmine/analyze"
	"vocabmine/filetree"
	"vocabmine/kanji"
	"vocabmine/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// analysisFlags override the analysis section of the configuration.
type analysisFlags struct {
	min, max     int
	unknown      bool
	excludePOS   []string
	limit        int
	excludeHapax bool
	asJSON       bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.min, "min", 0, "minimum corpus frequency")
	cmd.Flags().IntVar(&f.max, "max", 0, "maximum corpus frequency, 0 for none")
	cmd.Flags().BoolVar(&f.unknown, "unknown", false, "include words missing from the dictionary")
	cmd.Flags().StringSliceVar(&f.excludePOS, "exclude-pos", nil,
		"parts of speech to leave out: "+strings.Join(posNames(), ", "))
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 50, "terms to print, 0 for all")
	cmd.Flags().BoolVar(&f.excludeHapax, "no-hapax", false, "leave out terms seen once")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON instead of a table")
}

func (f *analysisFlags) apply(cmd *cobra.Command, a *app) {
	an := &a.cfg.Analysis
	if cmd.Flags().Changed("min") {
		an.MinFrequency = f.min
	}
	if cmd.Flags().Changed("max") {
		an.MaxFrequency = f.max
	}
	if cmd.Flags().Changed("unknown") {
		an.IncludeUnknownWords = f.unknown
	}
	if cmd.Flags().Changed("exclude-pos") {
		an.PartOfSpeechFilter = f.excludePOS
	}
}

func posNames() []string {
	all := model.PartsOfSpeech()
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = string(p)
	}
	return out
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var flags analysisFlags
	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Rank the vocabulary of files and directories by frequency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(cmd, a)
			opts, err := a.cfg.AnalysisOptions(a.fs)
			if err != nil {
				return err
			}
			c, err := a.resolve(cmd.Context(), args)
			if err != nil {
				return err
			}
			res, err := a.run(cmd.Context(), c, opts)
			if err != nil {
				return err
			}
			ranked := analyze.Export(res.Scores.Surfaced, analyze.ExportOptions{
				ExcludeHapax: flags.excludeHapax,
				Limit:        flags.limit,
			})
			a.dump("result", res)
			a.dump("terms", ranked)
			out := cmd.OutOrStdout()
			if flags.asJSON {
				return writeJSON(out, ranked)
			}
			printTerms(out, ranked)
			printFiles(out, res.Scores.Files)
			printSummary(out, res)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newTreeCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tree <root>",
		Short: "Show the files an analysis of root would read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.resolve(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(c.trees) == 0 {
				return fmt.Errorf("%s is not a directory", args[0])
			}
			tree := c.trees[0]
			a.dump("tree", tree)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tree)
			}
			printTree(cmd.OutOrStdout(), tree)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a tree")
	return cmd
}

func newBalanceCommand(a *app) *cobra.Command {
	var (
		maxFiles  int
		maxBytes  string
		bySource  bool
		pathsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "balance <path>...",
		Short: "Pick the files that cover the most distinct vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an := &a.cfg.Analysis
			an.BalanceCorpus = true
			if cmd.Flags().Changed("max-files") {
				an.CorpusBalanceTarget.MaxFiles = maxFiles
			}
			if maxBytes != "" {
				n, err := humanize.ParseBytes(maxBytes)
				if err != nil {
					return fmt.Errorf("--max-bytes: %w", err)
				}
				an.CorpusBalanceTarget.MaxBytes = int64(n)
			}
			if cmd.Flags().Changed("by-source") {
				an.BalanceSources = bySource
			}
			opts, err := a.cfg.AnalysisOptions(a.fs)
			if err != nil {
				return err
			}
			c, err := a.resolve(cmd.Context(), args)
			if err != nil {
				return err
			}
			res, err := a.run(cmd.Context(), c, opts)
			if err != nil {
				return err
			}
			a.dump("selection", res.Selection)
			out := cmd.OutOrStdout()
			if res.Selection == nil {
				fmt.Fprintln(out, warnStyle.Render("analysis was cancelled before balancing"))
				return nil
			}
			if pathsOnly {
				for _, p := range res.Selection.Paths() {
					fmt.Fprintln(out, p)
				}
				return nil
			}
			printSelection(out, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "select at most this many files")
	cmd.Flags().StringVar(&maxBytes, "max-bytes", "", "select at most this much text, e.g. 5MB")
	cmd.Flags().BoolVar(&bySource, "by-source", false, "even out sources before analysing")
	cmd.Flags().BoolVar(&pathsOnly, "paths", false, "print only the selected paths, one per line")
	return cmd
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printTerms(w io.Writer, ranked []analyze.RankedTerm) {
	t := newTable().Headers("#", "Term", "Reading", "POS", "Freq", "Files", "Score", "Rank")
	for _, r := range ranked {
		rank := "-"
		if r.DictionaryFrequency > 0 {
			rank = humanize.Comma(int64(r.DictionaryFrequency))
		}
		t.Row(
			fmt.Sprint(r.Rank),
			kanji.Furigana(r.Lemma, r.LemmaReading),
			r.LemmaReading,
			string(r.POS),
			humanize.Comma(int64(r.Frequency)),
			fmt.Sprint(r.FileCount),
			fmt.Sprintf("%.2f", r.WeightedScore),
			rank,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printFiles(w io.Writer, files []analyze.FileStats) {
	if len(files) == 0 {
		return
	}
	t := newTable().Headers("File", "Source", "Size", "Sentences", "Terms", "Comprehension")
	for _, f := range files {
		t.Row(
			f.Path,
			f.Source,
			humanize.IBytes(uint64(f.Size)),
			humanize.Comma(int64(f.Sentences)),
			humanize.Comma(int64(f.Terms)),
			percent(f.Comprehension),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printSummary(w io.Writer, res *analyze.Result) {
	fmt.Fprintf(w, "%s terms, %s surfaced, %s words in %s sentences, comprehension %s\n",
		humanize.Comma(int64(len(res.Terms))),
		humanize.Comma(int64(len(res.Scores.Surfaced))),
		humanize.Comma(int64(res.Words)),
		humanize.Comma(int64(res.Sentences)),
		percent(res.Scores.Comprehension()),
	)
	if n := len(res.SentenceComprehension); n > 0 {
		full := 0
		for _, sc := range res.SentenceComprehension {
			if sc.Comprehension == 1 {
				full++
			}
		}
		fmt.Fprintf(w, "%s of %s sentences use only known terms (%s)\n",
			humanize.Comma(int64(full)), humanize.Comma(int64(n)), percent(float64(full)/float64(n)))
	}
	for _, d := range res.Diagnostics {
		where := d.Path
		if d.Sentence >= 0 {
			where = fmt.Sprintf("%s#%d", d.Path, d.Sentence)
		}
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("skipped %s (%s): %s", where, d.Kind, d.Message)))
	}
	if res.Cancelled {
		fmt.Fprintln(w, warnStyle.Render("cancelled: results are partial"))
	}
}

func printSelection(w io.Writer, res *analyze.Result) {
	sel := res.Selection
	t := newTable().Headers("#", "File", "Size")
	for i, f := range sel.Files {
		t.Row(fmt.Sprint(i+1), f.Path, humanize.IBytes(uint64(f.Size)))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d files, %s, cover %s of %s terms (%s)\n",
		len(sel.Files), len(res.Files),
		humanize.IBytes(uint64(sel.Bytes)),
		humanize.Comma(int64(sel.Covered)),
		humanize.Comma(int64(sel.Total)),
		percent(sel.Coverage),
	)
}

func printTree(w io.Writer, tree *filetree.Tree) {
	var walk func(n *filetree.Node, prefix string)
	walk = func(n *filetree.Node, prefix string) {
		for i, c := range n.Children {
			branch, next := "├── ", "│   "
			if i == len(n.Children)-1 {
				branch, next = "└── ", "    "
			}
			label := c.Name
			if c.Dir {
				files, _, _ := c.Counts()
				label += dimStyle.Render(fmt.Sprintf("  %d files, %s", files, humanize.IBytes(uint64(c.Bytes()))))
			} else {
				label += dimStyle.Render("  " + humanize.IBytes(uint64(c.Size)))
			}
			fmt.Fprintln(w, prefix+branch+label)
			if c.Dir {
				walk(c, prefix+next)
			}
		}
	}
	fmt.Fprintln(w, tree.Root.Path)
	walk(tree.Root, "")
	if tree.Empty() {
		fmt.Fprintln(w, dimStyle.Render("no supported files"))
	}
	for _, s := range tree.Skipped {
		fmt.Fprintln(w, warnStyle.Render("unreadable: "+s.Path+": "+s.Err))
	}
}

func percent(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", v*100), "0"), ".") + "%"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
