// Package cli implements the shaderconv command line: convert,
// validate, batch, watch, and version subcommands over the conversion
// library. The library itself is silent; all logging and rendering
// happens here.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// app carries the merged configuration to the subcommands.
type app struct {
	cfg        Config
	configPath string
}

// Execute runs the root command, canceling work on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shaderconv",
		Short:         "Convert shaders between WGSL, GLSL, HLSL, and ISF",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default shaderconv.yaml)")
	pf.Bool("strict", false, "fail on the first unsupported construct")
	pf.Int("glsl-version", 330, "GLSL #version for generated output")
	pf.String("shader-model", "5.0", "HLSL shader model for generated output")
	pf.Bool("no-color", false, "disable colored diagnostics")

	root.AddCommand(
		newConvertCmd(a),
		newValidateCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

// color reports whether diagnostics should be styled.
func (a *app) color() bool {
	if a.cfg.NoColor {
		return false
	}
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
