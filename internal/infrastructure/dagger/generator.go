// Package dagger implements the staged-action generator (spec §4.2) as a
// filesystem-backed scratch area, grounded on the reference implementation's
// src/confd/src/dagger.c. A Generator owns one root directory containing:
//
//	<root>/current           symlink to the promoted generation, or absent
//	<root>/next              O_CREAT|O_EXCL lock file held for one open transaction
//	<root>/<N>/action/{init,exit}/<entity>/<priority>-<script>
//	<root>/<N>/dag/<dependent>/<dependee>   symlink recording one edge
//
// The architectural shape (a struct wrapping a root path, producing typed
// errors via confderr, with cycle-free helpers delegated to the domain
// layer) follows the teacher's internal/infrastructure/engine/dag_builder.go
// pattern of keeping graph bookkeeping in small, individually testable
// methods.
package dagger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/kernelkit/confd/internal/domain/confderr"
	"github.com/kernelkit/confd/internal/domain/generation"
	"github.com/kernelkit/confd/internal/ports"
)

const (
	nextLockName    = "next"
	currentLinkName = "current"
	actionDirName   = "action"
	dagDirName      = "dag"
	skipDirName     = "skip"
	dirMode         = 0o775
	fileMode        = 0o774
)

// Generator is the filesystem-backed implementation of ports.Dagger.
type Generator struct {
	root string

	mu      sync.Mutex
	claimed bool
	gen     generation.Number
	skipped map[string]bool
}

var _ ports.Dagger = (*Generator)(nil)

// New returns a Generator rooted at root, creating it if necessary.
func New(root string) (*Generator, error) {
	if err := os.MkdirAll(root, dirMode); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "create scratch root", err, nil)
	}
	return &Generator{root: root, gen: generation.None, skipped: make(map[string]bool)}, nil
}

// Claim implements ports.Dagger. It mirrors dagger_claim: atomically create
// the "next" lock file, fail loudly if one already exists (another
// transaction is mid-flight), and compute the next generation number from
// the current symlink's target plus one.
func (g *Generator) Claim(ctx context.Context) (generation.Number, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.claimed {
		if _, err := os.Stat(filepath.Join(g.root, nextLockName)); err == nil {
			return generation.None, confderr.New(confderr.ErrCodeLockHeld,
				"a generation is already claimed for this transaction", nil)
		}
		// The generation runner promotes a claimed generation and removes
		// the next lock itself, without going through Evolve.
		g.claimed = false
	}

	lockPath := filepath.Join(g.root, nextLockName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return generation.None, confderr.New(confderr.ErrCodeLockHeld,
				"another transaction already holds the next-generation lock", nil)
		}
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "create next lock", err, nil)
	}

	cur, err := g.currentGeneration()
	if err != nil {
		f.Close()
		os.Remove(lockPath)
		return generation.None, err
	}

	next := cur + 1

	// The lock file's content records the claimed generation number, not
	// just its presence, so a separate daggerctl invocation against the
	// same root can recover which generation is open (mirrors the
	// reference implementation writing the number into next_fp before
	// shelling out to the standalone dagger tool).
	if _, err := fmt.Fprintf(f, "%d\n", next); err != nil {
		f.Close()
		os.Remove(lockPath)
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "write next lock contents", err, nil)
	}
	f.Close()

	if err := os.MkdirAll(filepath.Join(g.root, fmt.Sprintf("%d", next), actionDirName), dirMode); err != nil {
		os.Remove(lockPath)
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "create generation directory", err, nil)
	}
	if err := os.MkdirAll(filepath.Join(g.root, fmt.Sprintf("%d", next), dagDirName), dirMode); err != nil {
		os.Remove(lockPath)
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "create dag directory", err, nil)
	}
	if cur >= 0 {
		// The about-to-exit generation must have its exit directory
		// ready before any translator calls OpenCurrent to stage a
		// teardown action into it.
		exitDir := filepath.Join(g.root, fmt.Sprintf("%d", cur), actionDirName, string(generation.PhaseExit))
		if err := os.MkdirAll(exitDir, dirMode); err != nil {
			os.Remove(lockPath)
			return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "create current generation exit directory", err, nil)
		}
	}

	g.claimed = true
	g.gen = next
	g.skipped = make(map[string]bool)
	return next, nil
}

// currentGeneration resolves the "current" symlink to a generation number,
// returning generation.None-equivalent (-1, so cur+1 == 0) if no generation
// has ever been promoted.
func (g *Generator) currentGeneration() (generation.Number, error) {
	target, err := os.Readlink(filepath.Join(g.root, currentLinkName))
	if err != nil {
		if os.IsNotExist(err) {
			return -1, nil
		}
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "read current generation link", err, nil)
	}
	var n int
	if _, err := fmt.Sscanf(filepath.Base(target), "%d", &n); err != nil {
		return generation.None, confderr.Wrap(confderr.ErrCodeInternal, "parse current generation number", err, nil)
	}
	return generation.Number(n), nil
}

// requireClaimed reports whether a generation is open, rehydrating g's
// in-memory claim state from the next lock file's contents first. This
// lets a freshly constructed Generator (as daggerctl creates for each
// invocation) resume a transaction a previous invocation started, rather
// than requiring one long-lived process to hold the claim for Open,
// AddDep, AddNode, Skip, Evolve, and Abandon all to succeed.
func (g *Generator) requireClaimed() error {
	if g.claimed {
		return nil
	}
	raw, err := os.ReadFile(filepath.Join(g.root, nextLockName))
	if err != nil {
		return confderr.New(confderr.ErrCodeState, "no generation claimed; call Claim first", nil)
	}
	var n int
	if _, err := fmt.Sscanf(string(raw), "%d", &n); err != nil {
		return confderr.New(confderr.ErrCodeState, "no generation claimed; call Claim first", nil)
	}
	g.claimed = true
	g.gen = generation.Number(n)
	return nil
}

// Open implements ports.Dagger, mirroring dagger_fopen: an action file that
// already exists in the claimed generation is appended to, and the shebang
// is written only when the file is first created.
func (g *Generator) Open(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return nil, err
	}

	af := generation.ActionFile{Phase: phase, Entity: entity, Priority: priority, Script: script}
	if err := af.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Join(g.root, fmt.Sprintf("%d", g.gen), actionDirName, string(phase), entity)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "create entity action directory", err, nil)
	}

	path := filepath.Join(dir, af.FileName())
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileMode)
	if err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "create action file", err, nil)
	}

	if fresh {
		if shebang := generation.Shebang(script); shebang != "" {
			if _, err := f.WriteString(shebang); err != nil {
				f.Close()
				return nil, confderr.Wrap(confderr.ErrCodeInternal, "write action file shebang", err, nil)
			}
		}
	}

	return f, nil
}

// OpenCurrent implements ports.Dagger, writing into the promoted (about-to-
// exit) generation rather than the claimed one — this is dagger_fopen_current's
// counterpart to Open's dagger_fopen_next, used for teardown actions the
// runner's exit phase must find when it scans the previous generation.
func (g *Generator) OpenCurrent(ctx context.Context, phase generation.Phase, entity string, priority int, script string) (io.WriteCloser, error) {
	g.mu.Lock()
	cur, err := g.currentGeneration()
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if cur < 0 {
		return nil, confderr.New(confderr.ErrCodeState, "no current generation to write into", nil)
	}

	af := generation.ActionFile{Phase: phase, Entity: entity, Priority: priority, Script: script}
	if err := af.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Join(g.root, fmt.Sprintf("%d", cur), actionDirName, string(phase), entity)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "create entity action directory", err, nil)
	}

	path := filepath.Join(dir, af.FileName())
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileMode)
	if err != nil {
		return nil, confderr.Wrap(confderr.ErrCodeInternal, "open current-generation action file", err, nil)
	}

	if fresh {
		if shebang := generation.Shebang(script); shebang != "" {
			if _, err := f.WriteString(shebang); err != nil {
				f.Close()
				return nil, confderr.Wrap(confderr.ErrCodeInternal, "write action file shebang", err, nil)
			}
		}
	}

	return f, nil
}

// AddDep implements ports.Dagger via a symlink at
// <gen>/dag/<dependent>/<dependee> pointing at the sibling entity directory,
// matching dagger_add_dep's use of the filesystem itself as the edge list.
func (g *Generator) AddDep(ctx context.Context, dependent, dependee string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return err
	}
	dir := filepath.Join(g.root, fmt.Sprintf("%d", g.gen), dagDirName, dependent)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create dag dependent directory", err, nil)
	}
	link := filepath.Join(dir, dependee)
	target := filepath.Join("..", dependee)
	if err := os.Symlink(target, link); err != nil && !os.IsExist(err) {
		return confderr.Wrap(confderr.ErrCodeInternal, "create dag edge symlink", err, nil)
	}
	return nil
}

// AddNode implements ports.Dagger, giving entity an ordering slot even with
// zero dependencies.
func (g *Generator) AddNode(ctx context.Context, entity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return err
	}
	dir := filepath.Join(g.root, fmt.Sprintf("%d", g.gen), dagDirName, entity)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create dag node directory", err, nil)
	}
	return nil
}

// Skip implements ports.Dagger, recording that the generation runner must
// not process entity's action files in the claimed generation
// (dagger_skip_iface). The marker is a touched file under the
// claimed generation's skip directory rather than an in-memory flag, so it
// survives across the separate process invocations daggerctl makes and so
// ShouldSkip gives the same answer regardless of which Generator instance
// asks.
func (g *Generator) Skip(ctx context.Context, entity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return err
	}
	dir := filepath.Join(g.root, fmt.Sprintf("%d", g.gen), skipDirName)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "create skip directory", err, nil)
	}
	marker, err := os.OpenFile(filepath.Join(dir, entity), os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "touch skip marker", err, nil)
	}
	defer marker.Close()
	g.skipped[entity] = true
	return nil
}

// ShouldSkip reports whether entity was marked Skip in the claimed (next)
// generation (dagger_should_skip).
func (g *Generator) ShouldSkip(entity string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.skipped[entity] {
		return true
	}
	if err := g.requireClaimed(); err != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(g.root, fmt.Sprintf("%d", g.gen), skipDirName, entity))
	return err == nil
}

// ShouldSkipCurrent reports whether entity was marked Skip in the promoted
// (current) generation (dagger_should_skip_current). The generation runner
// does not call it; it reads the skip markers from disk itself.
func (g *Generator) ShouldSkipCurrent(entity string) bool {
	g.mu.Lock()
	cur, err := g.currentGeneration()
	g.mu.Unlock()
	if err != nil || cur < 0 {
		return false
	}
	_, err = os.Stat(filepath.Join(g.root, fmt.Sprintf("%d", cur), skipDirName, entity))
	return err == nil
}

// Evolve implements ports.Dagger: atomically repoint "current" at the
// claimed generation and release the next lock.
func (g *Generator) Evolve(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return err
	}

	linkPath := filepath.Join(g.root, currentLinkName)
	tmpLink := linkPath + ".tmp"
	os.Remove(tmpLink)
	target := fmt.Sprintf("%d", g.gen)
	if err := os.Symlink(target, tmpLink); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "stage current generation symlink", err, nil)
	}
	if err := os.Rename(tmpLink, linkPath); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "promote current generation symlink", err, nil)
	}

	if err := os.Remove(filepath.Join(g.root, nextLockName)); err != nil && !os.IsNotExist(err) {
		return confderr.Wrap(confderr.ErrCodeInternal, "release next lock", err, nil)
	}
	g.claimed = false
	return nil
}

// Abandon implements ports.Dagger: discard the claimed generation's scratch
// directory and release the next lock without promoting anything.
func (g *Generator) Abandon(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.requireClaimed(); err != nil {
		return err
	}

	genDir := filepath.Join(g.root, fmt.Sprintf("%d", g.gen))
	if err := os.RemoveAll(genDir); err != nil {
		return confderr.Wrap(confderr.ErrCodeInternal, "remove abandoned generation directory", err, nil)
	}
	if err := os.Remove(filepath.Join(g.root, nextLockName)); err != nil && !os.IsNotExist(err) {
		return confderr.Wrap(confderr.ErrCodeInternal, "release next lock", err, nil)
	}
	g.claimed = false
	return nil
}
