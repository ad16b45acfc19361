// Package pipeline turns card requests into a printable PDF.
//
// A run walks a fixed sequence of states:
//
//	Idle → Expanding → Fetching → Normalizing → LayingOut → Assembling → Done
//
// Fetching and Normalizing fan out over a bounded worker pool and join
// before the next state begins. The first failure in any state cancels
// the remaining work and ends the run in Failed; no partial document is
// returned.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joshmayeda/pGEN-server/internal/cards"
	"github.com/joshmayeda/pGEN-server/internal/document"
	"github.com/joshmayeda/pGEN-server/internal/errs"
	"github.com/joshmayeda/pGEN-server/internal/images"
	"github.com/joshmayeda/pGEN-server/internal/layout"
	"github.com/joshmayeda/pGEN-server/internal/models"
)

// Fetcher retrieves the raw bytes behind an image reference
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Normalizer converts raw image bytes to a fixed-size card image
type Normalizer interface {
	Normalize(ref string, data []byte) (*images.Normalized, error)
}

// Assembler serializes laid-out pages
type Assembler interface {
	Assemble(w io.Writer, pages []document.Page) error
}

// DefaultFetchConcurrency bounds simultaneous downloads per run
const DefaultFetchConcurrency = 8

// Options tunes a run
type Options struct {
	FetchConcurrency     int
	NormalizeConcurrency int
	// MaxCards caps the expanded deck; <= 0 disables the cap
	MaxCards int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		FetchConcurrency:     DefaultFetchConcurrency,
		NormalizeConcurrency: runtime.NumCPU(),
		MaxCards:             cards.DefaultMaxCards,
	}
}

// Result is the outcome of a successful run
type Result struct {
	RunID    string
	PDF      []byte
	Pages    int
	Cards    int
	Duration time.Duration
}

// Orchestrator drives runs. Collaborators are injected and shared across
// runs; each run owns its own intermediate data.
type Orchestrator struct {
	Fetcher    Fetcher
	Normalizer Normalizer
	Assembler  Assembler
	Grid       layout.Grid
	Options    Options
	Hooks      Hooks
	Logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator with default options
func NewOrchestrator(f Fetcher, n Normalizer, a Assembler, grid layout.Grid) *Orchestrator {
	return &Orchestrator{
		Fetcher:    f,
		Normalizer: n,
		Assembler:  a,
		Grid:       grid,
		Options:    DefaultOptions(),
	}
}

// run carries the per-run bookkeeping
type run struct {
	id     string
	hooks  Hooks
	logger *slog.Logger
	state  State
}

// enter moves the run to s. A run that reached Done or Failed stays there.
func (r *run) enter(s State) {
	if r.state.Terminal() {
		return
	}
	r.state = s
	r.logger.Debug("Pipeline state", "state", s.String())
	r.hooks.state(r.id, s)
}

func (r *run) fail(err error) error {
	r.logger.Error("Pipeline failed", "stage", r.state.String(), "kind", errs.KindOf(err), "ref", errs.RefOf(err), "err", err)
	r.enter(Failed)
	return err
}

// Run expands reqs, fetches and normalizes every image, lays the cards
// out and assembles the PDF. A deck that expands to no cards produces a
// valid document with zero pages.
func (o *Orchestrator) Run(ctx context.Context, reqs []models.CardRequest) (*Result, error) {
	start := time.Now()

	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &run{id: uuid.NewString(), hooks: o.Hooks, state: Idle}
	r.logger = logger.With("run_id", r.id)

	r.enter(Expanding)
	refs, err := cards.ExpandLimit(reqs, o.Options.MaxCards)
	if err != nil {
		return nil, r.fail(err)
	}
	r.logger.Info("Starting pipeline run", "entries", len(reqs), "cards", len(refs))

	r.enter(Fetching)
	raw, err := o.fetchAll(ctx, refs)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(Normalizing)
	normalized, err := o.normalizeAll(ctx, refs, raw)
	if err != nil {
		return nil, r.fail(err)
	}

	r.enter(LayingOut)
	pages := o.layOut(normalized)

	r.enter(Assembling)
	var buf bytes.Buffer
	if err := o.Assembler.Assemble(&buf, pages); err != nil {
		var typed *errs.Error
		if !errors.As(err, &typed) {
			err = errs.Wrap(errs.SerializationFailed, "", err, "failed to assemble document")
		}
		return nil, r.fail(err)
	}

	r.enter(Done)
	result := &Result{
		RunID:    r.id,
		PDF:      buf.Bytes(),
		Pages:    len(pages),
		Cards:    len(refs),
		Duration: time.Since(start),
	}
	r.logger.Info("Pipeline run complete", "pages", result.Pages, "cards", result.Cards, "bytes", len(result.PDF), "duration", result.Duration)
	return result, nil
}

// fetchAll downloads every ref concurrently. Results are stored by index
// so ordering matches refs regardless of completion order.
func (o *Orchestrator) fetchAll(ctx context.Context, refs []string) ([][]byte, error) {
	raw := make([][]byte, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(o.Options.FetchConcurrency, DefaultFetchConcurrency))

	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errs.Wrap(errs.FetchFailed, ref, err, "fetch cancelled")
			}
			data, err := o.Fetcher.Fetch(gctx, ref)
			if err != nil {
				return typed(err, errs.FetchFailed, ref, "failed to fetch image")
			}
			raw[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (o *Orchestrator) normalizeAll(ctx context.Context, refs []string, raw [][]byte) ([]*images.Normalized, error) {
	normalized := make([]*images.Normalized, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(o.Options.NormalizeConcurrency, runtime.NumCPU()))

	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errs.Wrap(errs.DecodeFailed, ref, err, "normalize cancelled")
			}
			img, err := o.Normalizer.Normalize(ref, raw[i])
			if err != nil {
				return typed(err, errs.DecodeFailed, ref, "failed to normalize image")
			}
			normalized[i] = img
			raw[i] = nil
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return normalized, nil
}

func (o *Orchestrator) layOut(normalized []*images.Normalized) []document.Page {
	grid := o.Grid
	if grid.PageWidth == 0 || grid.PageHeight == 0 {
		grid = layout.DefaultGrid
	}

	laid := grid.Paginate(len(normalized))
	pages := make([]document.Page, len(laid))
	for p, lp := range laid {
		imgs := make([]document.Image, len(lp.Items))
		for k, item := range lp.Items {
			n := normalized[item.Index]
			imgs[k] = document.Image{
				Ref:       n.SourceRef,
				Data:      n.Data,
				Placement: item.Placement,
			}
		}
		pages[p] = document.Page{Images: imgs}
	}
	return pages
}

// typed leaves categorized errors alone and wraps everything else
func typed(err error, kind errs.Kind, ref, msg string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(kind, ref, err, "%s", msg)
}

func limit(n, fallback int) int {
	if n > 0 {
		return n
	}
	if fallback > 0 {
		return fallback
	}
	return 1
}
