package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

type openOptions struct {
	phase    string
	entity   string
	priority int
	script   string
}

func newOpenCmd(flags *rootFlags) *cobra.Command {
	opts := &openOptions{}

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Append a staged action file, reading its body from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.phase, "phase", "init", "action phase: init or exit")
	cmd.Flags().StringVar(&opts.entity, "entity", "", "entity the action file belongs to")
	cmd.Flags().IntVar(&opts.priority, "priority", 50, "action priority (0-99, lower runs first)")
	cmd.Flags().StringVar(&opts.script, "script", "", "script file name, e.g. ip.ip or configure.sh")
	cmd.MarkFlagRequired("entity")
	cmd.MarkFlagRequired("script")

	return cmd
}

func runOpen(cmd *cobra.Command, flags *rootFlags, opts *openOptions) error {
	gen, err := dagger.New(flags.root)
	if err != nil {
		return newCommandError("open", err)
	}

	phase := generation.Phase(opts.phase)
	w, err := gen.Open(cmd.Context(), phase, opts.entity, opts.priority, opts.script)
	if err != nil {
		return newCommandError("open", err)
	}
	defer w.Close()

	if _, err := io.Copy(w, cmd.InOrStdin()); err != nil {
		return newCommandError("open", err)
	}
	return nil
}
