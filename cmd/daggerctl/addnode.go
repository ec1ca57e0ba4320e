package main

import (
	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newAddNodeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add-node <entity>",
		Short: "Give entity an ordering slot even though it has no dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("add-node", err)
			}
			if err := gen.AddNode(cmd.Context(), args[0]); err != nil {
				return newCommandError("add-node", err)
			}
			return nil
		},
	}
}
