package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gogpu/shaderconv"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		to     string
		output string
	)

	cmd := &cobra.Command{
		Use:   "watch <input>",
		Short: "Reconvert a shader whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			srcLang, err := resolveLang("", input)
			if err != nil {
				return err
			}
			dstLang, err := resolveLang(to, output)
			if err != nil {
				return fmt.Errorf("target language: %w (use --to or an output extension)", err)
			}
			if output == "" {
				return fmt.Errorf("watch needs --output; stdout would interleave with logs")
			}

			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Watch the directory, not the file: editors replace files
			// on save, which drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(input)); err != nil {
				return err
			}

			convert := func() {
				source, err := os.ReadFile(input)
				if err != nil {
					log.Error("read failed", "file", input, "err", err)
					return
				}
				result, err := shaderconv.Convert(cmd.Context(), shaderconv.Request{
					Source:     string(source),
					SourceLang: srcLang,
					TargetLang: dstLang,
					Options:    a.options(),
				})
				if err != nil {
					log.Error("conversion error", "file", input, "err", err)
					return
				}
				renderDiagnostics(cmd.ErrOrStderr(), result.Diagnostics, string(source), a.color())
				if result.Status == shaderconv.StatusFailure {
					log.Warn("conversion failed", "file", input)
					return
				}
				if err := os.WriteFile(output, []byte(result.TargetCode), 0o644); err != nil {
					log.Error("write failed", "file", output, "err", err)
					return
				}
				log.Info("converted", "file", input, "output", output, "status", result.Status.String())
			}

			convert()
			log.Info("watching", "file", input)

			target := filepath.Clean(input)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(ev.Name) != target {
						continue
					}
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					convert()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error("watch error", "err", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "target language (default: output extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (required)")
	return cmd
}
