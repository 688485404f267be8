package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderconv"
	"github.com/gogpu/shaderconv/diag"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		to     string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "batch --to <lang> <input>...",
		Short: "Convert many shader files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dstLang, err := shaderconv.ParseLanguage(to)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}

			type row struct {
				file   string
				status shaderconv.Status
				errs   int
				warns  int
			}
			var (
				mu   sync.Mutex
				rows []row
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(a.cfg.Jobs, 1))
			for _, input := range args {
				input := input
				g.Go(func() error {
					srcLang, err := resolveLang("", input)
					if err != nil {
						return fmt.Errorf("%s: %w", input, err)
					}
					source, err := os.ReadFile(input)
					if err != nil {
						return err
					}
					result, err := shaderconv.Convert(ctx, shaderconv.Request{
						Source:     string(source),
						SourceLang: srcLang,
						TargetLang: dstLang,
						Options:    a.options(),
					})
					if err != nil {
						return fmt.Errorf("%s: %w", input, err)
					}

					if result.Status != shaderconv.StatusFailure && outDir != "" {
						out := filepath.Join(outDir, outputName(input, dstLang))
						if err := os.WriteFile(out, []byte(result.TargetCode), 0o644); err != nil {
							return err
						}
					}

					mu.Lock()
					rows = append(rows, row{
						file:   input,
						status: result.Status,
						errs:   result.Diagnostics.Count(diag.SeverityError),
						warns:  result.Diagnostics.Count(diag.SeverityWarning),
					})
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			sort.Slice(rows, func(i, j int) bool { return rows[i].file < rows[j].file })

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"File", "Status", "Errors", "Warnings"})
			failed := 0
			for _, r := range rows {
				if r.status == shaderconv.StatusFailure {
					failed++
				}
				t.AppendRow(table.Row{r.file, r.status.String(), r.errs, r.warns})
			}
			t.Render()

			if failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", failed, len(rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target language (required)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for converted files")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// outputName swaps the input's extension for the target language's.
func outputName(input string, lang shaderconv.Language) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ext := lang.String()
	if lang == shaderconv.LangISF {
		ext = "fs"
	}
	return base + "." + ext
}
