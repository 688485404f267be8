package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderconv"
	"github.com/gogpu/shaderconv/diag"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		from   string
		to     string
		output string
	)

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert one shader file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			srcLang, err := resolveLang(from, input)
			if err != nil {
				return err
			}
			dstLang, err := resolveLang(to, output)
			if err != nil {
				return fmt.Errorf("target language: %w (use --to or an output extension)", err)
			}

			source, err := os.ReadFile(input)
			if err != nil {
				return err
			}

			result, err := shaderconv.Convert(cmd.Context(), shaderconv.Request{
				Source:     string(source),
				SourceLang: srcLang,
				TargetLang: dstLang,
				Options:    a.options(),
			})
			if err != nil {
				return err
			}

			renderDiagnostics(cmd.ErrOrStderr(), result.Diagnostics, string(source), a.color())
			if result.Status == shaderconv.StatusFailure {
				return fmt.Errorf("conversion failed: %d error(s)",
					result.Diagnostics.Count(diag.SeverityError))
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), result.TargetCode)
				return nil
			}
			return os.WriteFile(output, []byte(result.TargetCode), 0o644)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source language (default: input extension)")
	cmd.Flags().StringVar(&to, "to", "", "target language (default: output extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

// options maps the merged config onto conversion options.
func (a *app) options() shaderconv.Options {
	return shaderconv.Options{
		Strict:          a.cfg.Strict,
		GLSLVersion:     a.cfg.GLSLVersion,
		HLSLShaderModel: a.cfg.ShaderModel,
	}
}

// resolveLang picks a language from an explicit name or a file path's
// extension.
func resolveLang(explicit, path string) (shaderconv.Language, error) {
	if explicit != "" {
		return shaderconv.ParseLanguage(explicit)
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("no language given and no file extension to infer from")
	}
	return shaderconv.ParseLanguage(ext)
}
