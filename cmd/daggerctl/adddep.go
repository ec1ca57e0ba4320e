package main

import (
	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newAddDepCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-dep <dependent> <dependee>",
		Short: "Record that dependent must be configured after dependee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("add-dep", err)
			}
			if err := gen.AddDep(cmd.Context(), args[0], args[1]); err != nil {
				return newCommandError("add-dep", err)
			}
			return nil
		},
	}
}
