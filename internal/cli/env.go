package cli

import (
	"io"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/sprite-ai/specgate/internal/config"
	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/registry"
	"github.com/sprite-ai/specgate/internal/review"
	"github.com/sprite-ai/specgate/internal/specdiff"
	"github.com/sprite-ai/specgate/internal/workflow"
)

// env is the engine wired from configuration.
type env struct {
	cfg      config.Config
	taxonomy *inventory.Taxonomy
	strategy diff.Strategy
	store    *review.FileStore
	registry *registry.Registry
}

func openEnv(c config.Config) (*env, error) {
	tax, err := inventory.LoadTaxonomyOrDefault(c.TaxonomyPath)
	if err != nil {
		return nil, err
	}
	strategy, err := diff.StrategyFor(c.DiffStrategy)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(c.RegistryPath)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      c,
		taxonomy: tax,
		strategy: strategy,
		store:    review.NewFileStore(c.CustomMessagesPath),
		registry: reg,
	}, nil
}

// parser returns a parser that records unrecognized messages for review.
func (e *env) parser() (*inventory.Parser, error) {
	return inventory.NewParser(e.taxonomy, inventory.WithStore(e.store))
}

// adhocParser returns a parser that leaves the review store alone.
func (e *env) adhocParser() (*inventory.Parser, error) {
	return inventory.NewParser(e.taxonomy)
}

// reviewDir is where pending review reports are written.
func reviewDir(c config.Config) string {
	return filepath.Join(c.DataDir, "review")
}

func (e *env) workflow() (*workflow.Workflow, error) {
	p, err := e.parser()
	if err != nil {
		return nil, err
	}
	det := specdiff.NewDetector(p, specdiff.WithStrategy(e.strategy))
	return workflow.New(e.registry, e.store, det, workflow.Options{
		OutputDir: e.cfg.OutputDir,
		ReviewDir: reviewDir(e.cfg),
	}), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
