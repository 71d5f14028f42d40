package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ppiankov/rtrarchive/internal/location"
	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/ppiankov/rtrarchive/internal/reconcile"
	"github.com/ppiankov/rtrarchive/internal/sink"
	"github.com/ppiankov/rtrarchive/internal/transport"
)

// RowWriter receives one output row per reconciled activity
type RowWriter interface {
	WriteRow(row int, fields []string) error
}

// DocumentFetcher downloads archivable documents
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*transport.FetchResult, error)
}

// DocumentWriter stores downloaded documents
type DocumentWriter interface {
	WriteDocument(identifier, key string, body []byte) (string, error)
}

// FirstDataRow is the row of the first activity; row 1 holds the header
const FirstDataRow = 2

// Pipeline runs activities through the reconciler in list order and, when
// enabled, archives the collected documents afterwards
type Pipeline struct {
	reconciler *reconcile.Reconciler
	fetcher    DocumentFetcher
	rows       RowWriter
	docs       DocumentWriter
	archive    bool
}

// New creates a pipeline. docs may be nil when archiving is disabled.
func New(reconciler *reconcile.Reconciler, fetcher DocumentFetcher, rows RowWriter, docs DocumentWriter, archive bool) *Pipeline {
	return &Pipeline{
		reconciler: reconciler,
		fetcher:    fetcher,
		rows:       rows,
		docs:       docs,
		archive:    archive && docs != nil,
	}
}

// Run reconciles every activity and then runs the archival pass. A failed
// fetch never stops the run; only context cancellation does.
func (p *Pipeline) Run(ctx context.Context, activities []model.Activity) (*RunSummary, error) {
	log := logging.FromContext(ctx)
	start := time.Now()
	summary := &RunSummary{Activities: len(activities)}

	for i, activity := range activities {
		if err := ctx.Err(); err != nil {
			summary.finish(p.reconciler, start)
			return summary, fmt.Errorf("run interrupted at activity %d: %w", i+1, err)
		}

		row := FirstDataRow + i
		out, err := p.reconciler.Reconcile(ctx, activity)
		if err != nil {
			summary.Skipped++
			var fe *reconcile.FetchError
			if errors.As(err, &fe) {
				log.Warn().Err(fe.Err).Str("uri", fe.URI).Int("status", fe.StatusCode()).Msg("error fetching activity")
			} else {
				log.Warn().Err(err).Str("uri", activity.URI).Msg("error fetching activity")
			}
			continue
		}

		if err := p.rows.WriteRow(row, out.Fields()); err != nil {
			summary.RowFailures++
			log.Error().Err(err).Int("row", row).Str("uri", activity.URI).Msg("failed to write row")
			continue
		}
		summary.Written++
		log.Info().Int("row", row).Str("uri", activity.URI).Msg("activity reconciled")
	}

	if p.archive {
		p.archiveDocuments(ctx, summary)
	}

	summary.finish(p.reconciler, start)
	return summary, nil
}

// Build wires a pipeline from configuration: fetcher, reconciler, location
// tracking and the output sinks. The returned workbook must be closed to
// save the results.
func Build(cfg *model.Config, catalog *model.Catalog, apiKey string) (*Pipeline, *sink.Workbook, error) {
	fetcher := transport.NewFetcher(cfg, apiKey)
	endpoints := transport.NewEndpoints(cfg.BaseURL(), cfg.Run.Date)

	locationFile := sink.NewListFile(filepath.Join(cfg.Output.LogDir, fmt.Sprintf("werkingsgebieden_%s.txt", cfg.Run.Date)))
	locations := location.NewAggregator(location.NewResolver(catalog.Areas), locationFile, cfg.Run.TrackLocations)

	reconciler := reconcile.NewReconciler(fetcher, endpoints, reconcile.NewArchiveIndex(), locations)

	workbookPath := filepath.Join(cfg.Output.Dir, fmt.Sprintf("rtr_%s_%s.xlsx", cfg.API.Env, cfg.Run.Date))
	workbook, err := sink.NewWorkbook(workbookPath, cfg.Output.Sheet, model.RowHeader[:])
	if err != nil {
		return nil, nil, fmt.Errorf("create workbook: %w", err)
	}

	var docs DocumentWriter
	if cfg.Run.ArchiveDocuments {
		docs = sink.NewDocumentDir(filepath.Join(cfg.Output.LogDir, cfg.Output.DocumentDir))
	}

	return New(reconciler, fetcher, workbook, docs, cfg.Run.ArchiveDocuments), workbook, nil
}
