package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kernelkit/confd/internal/infrastructure/dagger"
)

func newClaimCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Reserve the next generation number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dagger.New(flags.root)
			if err != nil {
				return newCommandError("claim", err)
			}
			n, err := gen.Claim(cmd.Context())
			if err != nil {
				return newCommandError("claim", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), int(n))
			return nil
		},
	}
}
