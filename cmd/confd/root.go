package main

import (
	"github.com/spf13/cobra"
)

// daemonFlags mirrors the reference confd binary's short-option surface
// (spec §6): debug logging, foreground operation, a pid file, whether a
// translator rejecting a transaction is fatal, the three configuration
// document paths, a per-transaction timeout, and an explicit verbosity
// level distinct from -d.
type daemonFlags struct {
	debug        bool
	foreground   bool
	pidFile      string
	fatalOnFail  bool
	factoryPath  string
	startupPath  string
	failurePath  string
	timeoutSecs  int
	verbosity    string
	daggerRoot   string
}

func newRootCmd() *cobra.Command {
	flags := &daemonFlags{}

	cmd := &cobra.Command{
		Use:           "confd",
		Short:         "confd manages network configuration through staged, dependency-ordered actions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	cmd.Flags().BoolVarP(&flags.foreground, "foreground", "n", false, "run in the foreground (confd never daemonizes itself, so this flag has no effect)")
	cmd.Flags().StringVarP(&flags.pidFile, "pid-file", "p", "/run/confd.pid", "write the daemon's pid to this file")
	cmd.Flags().BoolVarP(&flags.fatalOnFail, "fatal-plugin-fail", "f", false, "accepted but not acted on: a rejected transaction is aborted and confd keeps running")
	cmd.Flags().StringVarP(&flags.factoryPath, "factory-config", "F", "/etc/confd/factory-config.json", "path to the factory configuration document")
	cmd.Flags().StringVarP(&flags.startupPath, "startup-config", "S", "/etc/confd/startup-config.json", "path to the startup configuration document")
	cmd.Flags().StringVarP(&flags.failurePath, "failure-config", "E", "/etc/confd/failure-config.json", "path to the last-known-good fallback configuration document")
	cmd.Flags().IntVarP(&flags.timeoutSecs, "timeout", "t", 30, "accepted but not used: confd enforces no per-translator timeout")
	cmd.Flags().StringVarP(&flags.verbosity, "verbosity", "v", "info", "log verbosity: none, error, warning, info, or debug")
	cmd.Flags().StringVar(&flags.daggerRoot, "dagger-root", "/run/confd/dagger", "root of the generational scratch area")

	return cmd
}
