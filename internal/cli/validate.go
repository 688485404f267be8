package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderconv"
	"github.com/gogpu/shaderconv/diag"
)

func newValidateCmd(a *app) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "validate <input>",
		Short: "Parse and analyze a shader without converting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcLang, err := resolveLang(lang, args[0])
			if err != nil {
				return err
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			diags := shaderconv.ValidateSource(string(source), srcLang)
			renderDiagnostics(cmd.ErrOrStderr(), diags, string(source), a.color())
			if diags.HasErrors() {
				return fmt.Errorf("%s: %d error(s)", args[0], diags.Count(diag.SeverityError))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "shader language (default: input extension)")
	return cmd
}
