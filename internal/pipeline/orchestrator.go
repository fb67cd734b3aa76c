package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/transfermap/transfermap/internal/database"
	"github.com/transfermap/transfermap/internal/extract"
	"github.com/transfermap/transfermap/internal/fetch"
	"github.com/transfermap/transfermap/internal/model"
	"github.com/transfermap/transfermap/internal/normalize"
)

// Store is the persistence dependency: one upsert per normalized record.
// Satisfied by database.Store.
type Store interface {
	Persist(ctx context.Context, rec model.NormalizedRecord) error
}

// Orchestrator enumerates crawl units and drives each through the
// fetch-extract-normalize-persist cycle.
//
// Design decision: Schools are walked sequentially while the subject
// units of one school run through a bounded worker pool, because:
// 1. School selection is a navigation step with form state the next
//    step depends on; interleaving schools buys nothing.
// 2. Subject searches are independent POSTs once the form is parsed.
// 3. The rate limiter is the real throughput bound either way.
type Orchestrator struct {
	// navigator walks the portal's form chain.
	navigator *Navigator

	// fetcher issues the per-unit result page requests.
	fetcher PageFetcher

	// store persists normalized records.
	store Store

	// normalizer canonicalizes and deduplicates. Shared across workers.
	normalizer *normalize.Normalizer

	// semester is the term label stamped on every unit.
	semester string

	// workers bounds the subject worker pool.
	workers int

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the subject worker pool size. Default is 1.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator.
func New(navigator *Navigator, fetcher PageFetcher, store Store, normalizer *normalize.Normalizer, semester string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		navigator:  navigator,
		fetcher:    fetcher,
		store:      store,
		normalizer: normalizer,
		semester:   semester,
		workers:    1,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run executes the crawl and returns its summary. Running twice with the
// same inputs converges to the same dataset: the store's uniqueness
// constraints absorb re-observed facts.
//
// A navigation failure before any school is reached is fatal; after that,
// failures are scoped to the school or unit they occur in. Cancellation
// lets in-flight units finish their current attempt, then returns with
// the summary flushed; committed work is never lost.
func (o *Orchestrator) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := model.NewRunSummary(uuid.NewString())

	o.logger.Info("crawl started",
		"run_id", summary.RunID,
		"semester", o.semester,
		"workers", o.workers,
	)

	page, err := o.navigator.SchoolList(ctx)
	if err != nil {
		summary.Finish()
		return summary, err
	}

	for _, school := range page.Schools {
		if err := ctx.Err(); err != nil {
			summary.Finish()
			return summary, err
		}

		if err := o.crawlSchool(ctx, page, school, summary); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Finish()
				return summary, err
			}
			// A school whose navigation fails is skipped, not fatal.
			slugUnit := model.CrawlUnit{SchoolName: school.Text, SubjectName: "subjects", Semester: o.semester}
			summary.PageFailed(slugUnit.ID(), failureReason(err))
			o.logger.Error("school skipped",
				"school", school.Text,
				"error", err,
			)
		}
	}

	summary.Finish()
	o.logger.Info("crawl finished",
		"run_id", summary.RunID,
		"units_attempted", summary.UnitsAttempted,
		"units_succeeded", summary.UnitsSucceeded,
		"records_persisted", summary.RecordsPersisted,
		"records_rejected", summary.RecordsRejected,
		"duplicates_suppressed", summary.DuplicatesSuppressed,
		"elapsed", summary.Elapsed(),
	)

	return summary, nil
}

// crawlSchool enumerates one school's subject units and runs them through
// the worker pool.
func (o *Orchestrator) crawlSchool(ctx context.Context, page *SchoolPage, school extract.SelectOption, summary *model.RunSummary) error {
	search, err := o.navigator.SubjectSearch(ctx, page, school)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, subject := range search.Subjects {
		unit := &model.CrawlUnit{
			SchoolValue:  school.Value,
			SchoolName:   school.Text,
			SubjectValue: subject.Value,
			SubjectName:  subject.Text,
			Semester:     o.semester,
		}
		req := search.Request(subject, unit.ID())

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o.processUnit(gctx, unit, req, summary)
			return nil
		})
	}

	return g.Wait()
}

// processUnit pushes one crawl unit through its full lifecycle. All
// failures are terminal for the unit only and land in a summary bucket;
// nothing escapes.
func (o *Orchestrator) processUnit(ctx context.Context, unit *model.CrawlUnit, req fetch.Request, summary *model.RunSummary) {
	summary.UnitAttempted()
	o.transition(unit, model.StateFetching)

	body, err := o.fetcher.Fetch(ctx, req)
	if err != nil {
		o.transition(unit, model.StateFetchFailed)
		summary.PageFailed(unit.ID(), failureReason(err))
		o.logger.Warn("unit fetch failed",
			"unit", unit.ID(),
			"error", err,
		)
		return
	}
	o.transition(unit, model.StateFetched)
	summary.PageFetched()

	o.transition(unit, model.StateExtracting)
	result, err := extract.ExtractEquivalencies(body, extract.Context{
		SchoolName: unit.SchoolName,
		Subject:    unit.SubjectName,
		Semester:   unit.Semester,
	})
	if err != nil {
		o.transition(unit, model.StateExtractFailed)
		summary.PageFailed(unit.ID(), model.ReasonParseHard)
		o.logger.Warn("unit extraction failed",
			"unit", unit.ID(),
			"error", err,
		)
		return
	}
	for _, w := range result.Warnings {
		summary.SoftWarning()
		o.logger.Warn("partial parse",
			"unit", unit.ID(),
			"warning", w,
		)
	}
	o.transition(unit, model.StateExtracted)
	summary.RecordsFound(len(result.Records))

	o.transition(unit, model.StateNormalizing)
	normalized := make([]model.NormalizedRecord, 0, len(result.Records))
	for _, raw := range result.Records {
		rec, err := o.normalizer.Normalize(raw)
		if err != nil {
			var rej *normalize.RejectionError
			if errors.As(err, &rej) {
				summary.RecordRejected(rej.Reason)
			} else {
				summary.RecordRejected(model.ReasonMalformedCode)
			}
			o.logger.Debug("record rejected",
				"unit", unit.ID(),
				"error", err,
			)
			continue
		}
		if rec == nil {
			summary.DuplicateSuppressed()
			continue
		}
		normalized = append(normalized, *rec)
	}

	o.transition(unit, model.StatePersisting)
	persisted := 0
	for _, rec := range normalized {
		if err := o.store.Persist(ctx, rec); err != nil {
			var integrity *database.IntegrityError
			if errors.As(err, &integrity) {
				summary.RecordRejected(model.ReasonIntegrityViolation)
				o.logger.Warn("record rolled back",
					"unit", unit.ID(),
					"gt_code", rec.GTCode,
					"external_code", rec.ExternalCode,
					"error", err,
				)
				continue
			}
			// Non-constraint store errors (disk full, cancelled context)
			// still only end this unit.
			summary.RecordRejected(model.ReasonIntegrityViolation)
			o.logger.Error("persist failed",
				"unit", unit.ID(),
				"error", err,
			)
			continue
		}
		persisted++
		summary.RecordPersisted()
	}

	if len(normalized) > 0 && persisted == 0 {
		o.transition(unit, model.StateRejected)
		return
	}

	o.transition(unit, model.StateDone)
	summary.UnitSucceeded()
	o.logger.Info("unit done",
		"unit", unit.ID(),
		"records", len(result.Records),
		"persisted", persisted,
	)
}

// transition moves the unit's state, logging the impossible case instead
// of panicking mid-run.
func (o *Orchestrator) transition(unit *model.CrawlUnit, next model.UnitState) {
	if err := unit.Transition(next); err != nil {
		o.logger.Error("unit state error", "error", err)
	}
}

// failureReason maps an error to its summary taxonomy bucket. Classified
// fetch errors carry their own reason; anything else from navigation or
// parsing is a hard parse failure.
func failureReason(err error) model.Reason {
	if fe := fetch.AsError(err); fe != nil {
		return fe.Class.Reason()
	}
	return model.ReasonParseHard
}
