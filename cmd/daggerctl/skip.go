package main

import (
	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newSkipCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <entity>",
		Short: "Mark entity so the runner skips its action files in this generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("skip", err)
			}
			if err := gen.Skip(cmd.Context(), args[0]); err != nil {
				return newCommandError("skip", err)
			}
			return nil
		},
	}
}
