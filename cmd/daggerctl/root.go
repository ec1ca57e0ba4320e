package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	root string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "daggerctl",
		Short:         "daggerctl drives a generational scratch area one operation at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.root, "root", "C", "/run/confd/dagger", "scratch area root directory")

	cmd.AddCommand(
		newClaimCmd(flags),
		newOpenCmd(flags),
		newAddDepCmd(flags),
		newAddNodeCmd(flags),
		newSkipCmd(flags),
		newEvolveCmd(flags),
		newAbandonCmd(flags),
		newShowCmd(flags),
	)

	return cmd
}

func newCommandError(operation string, cause error) error {
	return fmt.Errorf("daggerctl %s: %w", operation, cause)
}
