// Package enrichment fills the derived columns of inventory tables: the description embedding
// and the translated description.
//
// Both passes select only rows whose target column is still NULL and write each result back
// with a conditional update, so a pass can be re-run, interrupted or raced by another run
// without overwriting finished rows.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/inventra/internal/core"
	"github.com/markdave123-py/inventra/internal/core/apperr"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

// Config tunes both passes.
//
// MaxAttempts:  tries per external call, first try included.
// RetryDelay:   constant wait between tries.
// Locale:       translation target.
// OnlyMissing:  translate only rows without a translation yet.
// Concurrency:  records in flight per pass.
// EmbedDim:     required vector length; anything else is rejected before it reaches the store.
type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Locale      string
	OnlyMissing bool
	Concurrency int
	EmbedDim    int
}

type Engine struct {
	db         core.DbClient
	embedder   core.EmbeddingProvider
	translator core.Translator
	cfg        Config
	log        *logger.Logger
}

func NewEngine(db core.DbClient, embedder core.EmbeddingProvider, translator core.Translator, cfg Config, log *logger.Logger) *Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Locale == "" {
		cfg.Locale = "es"
	}
	return &Engine{db: db, embedder: embedder, translator: translator, cfg: cfg, log: log.With("service", "EnrichmentEngine")}
}

// Run executes the embedding and translation passes concurrently. A pass error is returned
// alongside whatever the other pass achieved.
func (e *Engine) Run(ctx context.Context, table string) (models.EnrichmentReport, error) {
	rep := models.EnrichmentReport{Table: table}

	var g errgroup.Group
	var embedErr, translateErr error
	g.Go(func() error {
		rep.Embedding, embedErr = e.EmbedPending(ctx, table)
		return nil
	})
	g.Go(func() error {
		rep.Translation, translateErr = e.TranslatePending(ctx, table)
		return nil
	})
	_ = g.Wait()

	return rep, errors.Join(embedErr, translateErr)
}

// RunAll enriches every registered table, one after another.
func (e *Engine) RunAll(ctx context.Context) ([]models.EnrichmentReport, error) {
	tables, err := e.db.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.EnrichmentReport, 0, len(tables))
	var errs []error
	for _, t := range tables {
		rep, err := e.Run(ctx, t)
		out = append(out, rep)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return out, errors.Join(errs...)
}

// EmbedPending computes an embedding of the description for every row whose embedding is NULL.
func (e *Engine) EmbedPending(ctx context.Context, table string) (models.PassResult, error) {
	pending, err := e.db.PendingEmbeddings(ctx, table)
	if err != nil {
		return models.PassResult{}, err
	}
	return e.runPass(ctx, "embedding", table, pending, func(ctx context.Context, p models.PendingText) (bool, error) {
		vec, err := retry(ctx, e.cfg, func() ([]float32, error) { return e.embedOne(ctx, p.Text) })
		if err != nil {
			return false, err
		}
		return e.db.SetEmbedding(ctx, table, p.InventoryID, vec)
	})
}

// TranslatePending translates the description of every selected row and stores the first
// candidate.
func (e *Engine) TranslatePending(ctx context.Context, table string) (models.PassResult, error) {
	pending, err := e.db.PendingTranslations(ctx, table, e.cfg.OnlyMissing)
	if err != nil {
		return models.PassResult{}, err
	}
	return e.runPass(ctx, "translation", table, pending, func(ctx context.Context, p models.PendingText) (bool, error) {
		text, err := retry(ctx, e.cfg, func() (string, error) { return e.translateOne(ctx, p.Text) })
		if err != nil {
			return false, err
		}
		return e.db.SetTranslation(ctx, table, p.InventoryID, text, e.cfg.OnlyMissing)
	})
}

// runPass processes records with bounded parallelism. process reports whether its write
// landed; false means another run finished the row first. Per-record failures are counted and
// logged; only cancellation fails the pass.
func (e *Engine) runPass(ctx context.Context, pass, table string, pending []models.PendingText,
	process func(context.Context, models.PendingText) (bool, error)) (models.PassResult, error) {

	res := models.PassResult{Pending: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for _, p := range pending {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			wrote, err := process(gctx, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				res.Failed++
				e.log.Warn("enrichment failed for record",
					"pass", pass, "table", table, "inventory_id", p.InventoryID,
					"kind", apperr.KindEnrichmentTransient, "external", apperr.IsExternal(err),
					"error", err)
			case wrote:
				res.Done++
			default:
				res.Skipped++
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	e.log.Info("enrichment pass finished", "pass", pass, "table", table,
		"pending", res.Pending, "done", res.Done, "failed", res.Failed, "skipped", res.Skipped)
	return res, err
}

func (e *Engine) embedOne(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, backoff.Permanent(errors.New("description is empty"))
	}
	vecs, err := e.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, classify("embed description", err)
	}
	if len(vecs) != 1 {
		return nil, backoff.Permanent(fmt.Errorf("embedding provider returned %d vectors for 1 text", len(vecs)))
	}
	if e.cfg.EmbedDim > 0 && len(vecs[0]) != e.cfg.EmbedDim {
		return nil, backoff.Permanent(fmt.Errorf("embedding has %d dimensions, table column has %d", len(vecs[0]), e.cfg.EmbedDim))
	}
	return vecs[0], nil
}

func (e *Engine) translateOne(ctx context.Context, text string) (string, error) {
	candidates, err := e.translator.Translate(ctx, text, e.cfg.Locale)
	if err != nil {
		return "", classify("translate description", err)
	}
	if len(candidates) == 0 {
		return "", backoff.Permanent(errors.New("translation returned no candidates"))
	}
	return candidates[0], nil
}

// classify marks model failures as external and stops retrying the ones that cannot succeed.
func classify(op string, err error) error {
	wrapped := apperr.External(apperr.KindEnrichmentTransient, op, err)
	if apperr.IsPermanent(err) {
		return backoff.Permanent(wrapped)
	}
	return wrapped
}

func retry[T any](ctx context.Context, cfg Config, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.RetryDelay)),
		backoff.WithMaxTries(uint(cfg.MaxAttempts)),
	)
}
