package main

import (
	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newAbandonCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Discard the claimed generation without promoting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("abandon", err)
			}
			if err := gen.Abandon(cmd.Context()); err != nil {
				return newCommandError("abandon", err)
			}
			return nil
		},
	}
}
