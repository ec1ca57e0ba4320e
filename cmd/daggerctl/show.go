package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type showOptions struct {
	generation string
	output     string
}

// entitySummary is one entity's staged actions and dependency edges within
// a generation, assembled by walking the scratch area's on-disk layout
// directly (the same layout internal/infrastructure/dagger.Generator
// writes) rather than through ports.Dagger, which has no read-back
// surface of its own — a deliberate omission, since only this
// administrative tool and the generation runner need to enumerate a
// generation's contents.
type entitySummary struct {
	Entity  string   `json:"entity" yaml:"entity"`
	Init    []string `json:"init,omitempty" yaml:"init,omitempty"`
	Exit    []string `json:"exit,omitempty" yaml:"exit,omitempty"`
	Depends []string `json:"depends,omitempty" yaml:"depends,omitempty"`
	Skipped bool     `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

type generationSummary struct {
	Generation int             `json:"generation" yaml:"generation"`
	Entities   []entitySummary `json:"entities" yaml:"entities"`
}

func newShowCmd(flags *rootFlags) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display a generation's staged actions and dependency graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, flags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.generation, "generation", "current", `which generation to show: "current", "next", or a generation number`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json, or yaml")

	return cmd
}

func runShow(cmd *cobra.Command, flags *rootFlags, opts *showOptions) error {
	n, err := resolveGeneration(flags.root, opts.generation)
	if err != nil {
		return newCommandError("show", err)
	}

	summary, err := readGeneration(flags.root, n)
	if err != nil {
		return newCommandError("show", err)
	}

	switch opts.output {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(summary)
	default:
		return renderShowTable(cmd, summary)
	}
}

func renderShowTable(cmd *cobra.Command, summary generationSummary) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "generation %d\n", summary.Generation)
	for _, e := range summary.Entities {
		skipped := ""
		if e.Skipped {
			skipped = " (skipped)"
		}
		fmt.Fprintf(out, "\n%s%s\n", e.Entity, skipped)
		if len(e.Depends) > 0 {
			fmt.Fprintf(out, "  depends on: %v\n", e.Depends)
		}
		for _, f := range e.Init {
			fmt.Fprintf(out, "  init %s\n", f)
		}
		for _, f := range e.Exit {
			fmt.Fprintf(out, "  exit %s\n", f)
		}
	}
	return nil
}

func resolveGeneration(root, which string) (int, error) {
	switch which {
	case "current":
		target, err := os.Readlink(filepath.Join(root, "current"))
		if err != nil {
			return 0, fmt.Errorf("no current generation: %w", err)
		}
		return strconv.Atoi(filepath.Base(target))
	case "next":
		raw, err := os.ReadFile(filepath.Join(root, "next"))
		if err != nil {
			return 0, fmt.Errorf("no generation claimed: %w", err)
		}
		var n int
		if _, err := fmt.Sscanf(string(raw), "%d", &n); err != nil {
			return 0, fmt.Errorf("parse claimed generation: %w", err)
		}
		return n, nil
	default:
		return strconv.Atoi(which)
	}
}

func readGeneration(root string, n int) (generationSummary, error) {
	genDir := filepath.Join(root, strconv.Itoa(n))
	entities := make(map[string]*entitySummary)

	get := func(name string) *entitySummary {
		if e, ok := entities[name]; ok {
			return e
		}
		e := &entitySummary{Entity: name}
		entities[name] = e
		return e
	}

	for _, phase := range []string{"init", "exit"} {
		phaseDir := filepath.Join(genDir, "action", phase)
		entries, err := os.ReadDir(phaseDir)
		if err != nil {
			continue
		}
		for _, entityEntry := range entries {
			if !entityEntry.IsDir() {
				continue
			}
			files, err := os.ReadDir(filepath.Join(phaseDir, entityEntry.Name()))
			if err != nil {
				continue
			}
			var names []string
			for _, f := range files {
				names = append(names, f.Name())
			}
			sort.Strings(names)
			e := get(entityEntry.Name())
			if phase == "init" {
				e.Init = names
			} else {
				e.Exit = names
			}
		}
	}

	dagDir := filepath.Join(genDir, "dag")
	if entries, err := os.ReadDir(dagDir); err == nil {
		for _, dependentEntry := range entries {
			if !dependentEntry.IsDir() {
				continue
			}
			e := get(dependentEntry.Name())
			deps, err := os.ReadDir(filepath.Join(dagDir, dependentEntry.Name()))
			if err != nil {
				continue
			}
			var names []string
			for _, d := range deps {
				names = append(names, d.Name())
			}
			sort.Strings(names)
			e.Depends = names
		}
	}

	skipDir := filepath.Join(genDir, "skip")
	if entries, err := os.ReadDir(skipDir); err == nil {
		for _, skipEntry := range entries {
			get(skipEntry.Name()).Skipped = true
		}
	}

	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)

	summary := generationSummary{Generation: n}
	for _, name := range names {
		summary.Entities = append(summary.Entities, *entities[name])
	}
	return summary, nil
}
