package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kernelkit/confd/internal/application/transaction"
	"github.com/kernelkit/confd/internal/domain/configtree"
	"github.com/kernelkit/confd/internal/infrastructure/audit"
	"github.com/kernelkit/confd/internal/infrastructure/config"
	"github.com/kernelkit/confd/internal/infrastructure/dagger"
	"github.com/kernelkit/confd/internal/infrastructure/datastore/filewatch"
	"github.com/kernelkit/confd/internal/infrastructure/events"
	"github.com/kernelkit/confd/internal/infrastructure/logging"
	"github.com/kernelkit/confd/internal/infrastructure/procrunner"
	"github.com/kernelkit/confd/internal/infrastructure/registry"
	"github.com/kernelkit/confd/internal/infrastructure/runner"
	"github.com/kernelkit/confd/internal/ports"
)

// runDaemon composes the daemon and blocks until ctx is cancelled or a
// termination signal arrives. Wiring follows the teacher's cmd/streamy/
// main.go composition-root style: every infrastructure adapter is
// constructed here and handed down through constructor arguments, never
// through package-level globals.
func runDaemon(ctx context.Context, flags *daemonFlags) error {
	buffer := logging.NewEventBuffer(1000)
	bootLogger := logging.NewBufferedLogger(buffer)

	correlationID := logging.GenerateCorrelationID()
	ctx = ports.WithCorrelationID(ctx, correlationID)

	tree, source, err := bootstrapConfig(ctx, flags, bootLogger)
	if err != nil {
		return fmt.Errorf("bootstrap configuration: %w", err)
	}

	level := flags.verbosity
	if flags.debug {
		level = "debug"
	}
	appLogger, err := logging.New(logging.Options{
		Level:     level,
		Component: "confd",
		Layer:     "infrastructure",
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	buffer.Flush(appLogger)
	appLogger.Info(ctx, "startup configuration loaded", "source", source, "pid", os.Getpid())

	candidatePath, err := seedCandidateDocument(flags, tree)
	if err != nil {
		return fmt.Errorf("seed candidate document: %w", err)
	}

	ds, err := filewatch.New(candidatePath)
	if err != nil {
		return fmt.Errorf("start datastore: %w", err)
	}

	gen, err := dagger.New(flags.daggerRoot)
	if err != nil {
		return fmt.Errorf("start dagger: %w", err)
	}

	proc := procrunner.New()

	priorities, err := registry.LoadDefaultPriorities()
	if err != nil {
		return fmt.Errorf("load default priorities: %w", err)
	}

	reg := registry.New()
	if err := registerTranslators(reg, proc, priorities); err != nil {
		return fmt.Errorf("register translators: %w", err)
	}

	run := runner.New(flags.daggerRoot, proc,
		runner.WithLogger(appLogger.With("component", "runner")),
	)

	auditPath := filepath.Join(filepath.Dir(flags.pidFile), "confd-audit.jsonl")
	auditFile, err := os.OpenFile(auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open audit ledger: %w", err)
	}
	defer auditFile.Close()
	ledger := audit.New(auditFile)

	publisher := events.NewLoggingPublisher(appLogger.With("component", "events"))

	coordinator := transaction.New(reg, gen, run,
		transaction.WithLogger(appLogger.With("component", "coordinator")),
		transaction.WithEvents(publisher),
		transaction.WithAudit(ledger),
	)

	if err := ds.Subscribe(ctx, coordinator.HandleEvent); err != nil {
		return fmt.Errorf("subscribe to datastore: %w", err)
	}

	if err := writePIDFile(flags.pidFile); err != nil {
		appLogger.Warn(ctx, "failed to write pid file", "path", flags.pidFile, "error", err)
	}

	appLogger.Info(ctx, "confd ready")
	return waitForShutdown(ctx, appLogger)
}

// bootstrapConfig implements the fail-secure bootstrap ladder (spec
// scenario D): an unparsable or invalid startup document falls back to the
// last-known-good failure document, and a missing or invalid failure
// document falls back to the factory defaults baked into the image. Every
// rejected document is recorded in bootLogger rather than discarded, since
// the real logger isn't wired up until a usable configuration exists.
func bootstrapConfig(ctx context.Context, flags *daemonFlags, bootLogger ports.Logger) (*configtree.Tree, string, error) {
	store := config.New()

	if tree, err := store.LoadStartup(ctx, flags.startupPath); err == nil {
		return tree, flags.startupPath, nil
	} else {
		bootLogger.Warn(ctx, "startup configuration rejected, falling back to failure document", "path", flags.startupPath, "error", err)
	}

	if tree, err := store.LoadFailure(ctx, flags.failurePath); err == nil {
		return tree, flags.failurePath, nil
	} else {
		bootLogger.Warn(ctx, "failure configuration rejected, falling back to factory defaults", "path", flags.failurePath, "error", err)
	}

	tree, err := store.LoadFactory(ctx, flags.factoryPath)
	if err != nil {
		return nil, "", fmt.Errorf("no usable configuration document (startup, failure, and factory all rejected): %w", err)
	}
	return tree, flags.factoryPath, nil
}

// seedCandidateDocument writes tree out as the flat JSON document filewatch.
// Datastore watches. The three documents config.Store understands are
// wrapped in a small versioned envelope (spec §6.3); filewatch has no
// notion of that envelope; it follows a bare JSON configuration tree, the
// shape sysrepo would hand the reference implementation after unwrapping.
// confd therefore maintains a fourth, unenveloped "candidate" document
// alongside the three archival ones, seeded from whichever document
// bootstrapConfig settled on, and from then on the single source of truth
// the datastore watches for edits.
func seedCandidateDocument(flags *daemonFlags, tree *configtree.Tree) (string, error) {
	path := filepath.Join(filepath.Dir(flags.startupPath), "candidate-config.json")

	raw, err := json.MarshalIndent(tree.ToJSON(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o775); err != nil {
		return "", fmt.Errorf("create candidate document directory: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o640); err != nil {
		return "", fmt.Errorf("write candidate document: %w", err)
	}
	return path, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o775); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

func waitForShutdown(ctx context.Context, logger ports.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info(ctx, "received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info(ctx, "context cancelled, shutting down")
	}
	return nil
}
