package main

import (
	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newEvolveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "evolve",
		Short: "Promote the claimed generation to current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("evolve", err)
			}
			if err := gen.Evolve(cmd.Context()); err != nil {
				return newCommandError("evolve", err)
			}
			return nil
		},
	}
}
