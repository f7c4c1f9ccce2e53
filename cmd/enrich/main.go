// Command enrich re-runs the embedding and translation passes, for one table or all of them.
// Rows that already carry an embedding or translation are left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/inventra/internal/app"
	"github.com/markdave123-py/inventra/internal/config"
	"github.com/markdave123-py/inventra/internal/core/identity"
	"github.com/markdave123-py/inventra/internal/logger"
	"github.com/markdave123-py/inventra/internal/models"
)

func main() {
	os.Exit(run())
}

// run returns 0 when every record is enriched, 1 on a failed pass, 2 when records are left pending.
func run() int {
	table := flag.String("table", "", "inventory table to enrich (default: every registered table)")
	flag.Parse()

	if *table != "" {
		if err := identity.Validate(*table); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	a, err := app.NewEnrichmentApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return 1
	}
	defer a.Close()

	var reports []models.EnrichmentReport
	if *table != "" {
		rep, runErr := a.Enricher.Run(ctx, *table)
		reports, err = []models.EnrichmentReport{rep}, runErr
	} else {
		reports, err = a.Enricher.RunAll(ctx)
	}

	failed := 0
	for _, r := range reports {
		fmt.Printf("%-32s embedded %d/%d  translated %d/%d\n", r.Table,
			r.Embedding.Done, r.Embedding.Pending, r.Translation.Done, r.Translation.Pending)
		failed += r.Embedding.Failed + r.Translation.Failed
	}
	if err != nil {
		log.Error("enrichment failed", "error", err)
		return 1
	}
	if failed > 0 {
		log.Warn("some records are still pending", "failed", failed)
		return 2
	}
	return 0
}
