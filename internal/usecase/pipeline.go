package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/pageview-ranker/internal/dataset"
	"github.com/user/pageview-ranker/internal/entity"
	"github.com/user/pageview-ranker/internal/repository"
	"github.com/user/pageview-ranker/pkg/metrics"
)

// State is a step of a pipeline run.
type State string

const (
	StateValidatingConfig State = "validating_config"
	StateLoadingBlacklist State = "loading_blacklist"
	StateDownloading      State = "downloading"
	StateIngesting        State = "ingesting"
	StateFilteringRanking State = "filtering_ranking"
	StateWriting          State = "writing"
	StateCleaningUp       State = "cleaning_up"
	StateDone             State = "done"
)

// Options controls one run.
type Options struct {
	Start         time.Time
	End           time.Time
	BlacklistPath string
	// LegacyFetchStartHour downloads the start hour's dump on every iteration,
	// reproducing the historical job for output comparisons.
	LegacyFetchStartHour bool
	// LegacyAbortOnExisting ends the whole run at the first hour whose output
	// already exists instead of skipping just that hour.
	LegacyAbortOnExisting bool
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID            string
	Hours            int
	Completed        []time.Time
	Skipped          []time.Time
	DownloadFailures []time.Time
	// Aborted is set when the run stopped early on an existing output.
	Aborted bool
}

// Dependencies groups the collaborators of a Pipeline. Statuses and Sinks are optional.
type Dependencies struct {
	Dumps    repository.DumpRepository
	Tables   repository.TableRepository
	Outputs  repository.OutputRepository
	Ranker   *Ranker
	Statuses []repository.HourStatusRepository
	Sinks    []repository.ResultSink
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Pipeline runs the hourly download, filter, rank and write loop.
type Pipeline struct {
	dumps    repository.DumpRepository
	tables   repository.TableRepository
	outputs  repository.OutputRepository
	ranker   *Ranker
	statuses []repository.HourStatusRepository
	sinks    []repository.ResultSink
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     Options
}

func NewPipeline(deps Dependencies, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{
		dumps:    deps.Dumps,
		tables:   deps.Tables,
		outputs:  deps.Outputs,
		ranker:   deps.Ranker,
		statuses: deps.Statuses,
		sinks:    deps.Sinks,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		opts:     opts,
	}
}

// Run processes every hour of the configured range in increasing order, one
// at a time. Range validation errors are returned before any I/O happens.
// A failed download is logged and the hour carries on; a failure to load,
// rank or write ends the run with that error.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString()}
	log := p.logger.With(zap.String("run_id", summary.RunID))

	p.enter(log, StateValidatingConfig)
	rng, err := NewDateRange(p.opts.Start, p.opts.End)
	if err != nil {
		return summary, err
	}
	if err := rng.Validate(p.opts.Now()); err != nil {
		return summary, err
	}
	summary.Hours = rng.Len()

	p.enter(log, StateLoadingBlacklist)
	blacklist, err := p.tables.Load(ctx, p.opts.BlacklistPath)
	if err != nil {
		return summary, fmt.Errorf("load blacklist: %w", err)
	}
	log.Info("blacklist loaded", zap.String("path", p.opts.BlacklistPath), zap.Int("rows", blacklist.Len()))

	log.Info("starting run",
		zap.Time("start", rng.Start()),
		zap.Time("end", rng.End()),
		zap.Int("hours", summary.Hours),
	)

	for hour := range rng.Hours() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		w := entity.NewHourWindow(hour)
		hlog := log.With(zap.String("hour", w.Key()))

		done, err := p.processHour(ctx, hlog, summary, blacklist, w, rng.Start())
		if err != nil {
			p.metrics.IncHours(entity.HourStatusFailed)
			p.recordStatus(ctx, hlog, &entity.HourStatus{
				RunID:         summary.RunID,
				Hour:          w.Hour,
				Status:        entity.HourStatusFailed,
				FailureReason: err.Error(),
				ProcessedAt:   time.Now().UTC(),
			})
			return summary, fmt.Errorf("hour %s: %w", w.Key(), err)
		}
		if !done {
			summary.Skipped = append(summary.Skipped, w.Hour)
			if p.opts.LegacyAbortOnExisting {
				hlog.Info("output exists, ending run")
				summary.Aborted = true
				break
			}
			continue
		}
		summary.Completed = append(summary.Completed, w.Hour)
	}

	p.enter(log, StateDone)
	log.Info("run finished",
		zap.Int("completed", len(summary.Completed)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("download_failures", len(summary.DownloadFailures)),
		zap.Bool("aborted", summary.Aborted),
	)
	return summary, nil
}

// processHour returns false when the hour was skipped because its output exists.
func (p *Pipeline) processHour(ctx context.Context, log *zap.Logger, summary *RunSummary, blacklist *dataset.Table, w entity.HourWindow, start time.Time) (bool, error) {
	began := time.Now()

	exists, err := p.outputs.Exists(w)
	if err != nil {
		return false, fmt.Errorf("check output: %w", err)
	}
	if exists {
		p.skip(ctx, log, summary.RunID, w)
		return false, nil
	}

	p.enter(log, StateDownloading)
	fetch := w
	if p.opts.LegacyFetchStartHour {
		fetch = entity.NewHourWindow(start)
	}
	stop := p.metrics.Timer(string(StateDownloading))
	path, fetchErr := p.dumps.Fetch(ctx, fetch)
	stop()
	if fetchErr != nil {
		log.Error("download failed, continuing with local file", zap.String("path", path), zap.Error(fetchErr))
		p.metrics.IncDownloadFailures()
		summary.DownloadFailures = append(summary.DownloadFailures, w.Hour)
	}

	p.enter(log, StateIngesting)
	stop = p.metrics.Timer(string(StateIngesting))
	pageviews, err := p.tables.Load(ctx, path)
	stop()
	if err != nil {
		return false, fmt.Errorf("ingest: %w", err)
	}
	p.metrics.AddRows("loaded", pageviews.Len())

	p.enter(log, StateFilteringRanking)
	stop = p.metrics.Timer(string(StateFilteringRanking))
	filtered, err := p.ranker.Filter(pageviews, blacklist)
	if err != nil {
		stop()
		return false, err
	}
	ranked, err := p.ranker.Rank(filtered)
	stop()
	if err != nil {
		return false, err
	}
	rows, err := ToRankedRows(ranked)
	if err != nil {
		return false, err
	}
	p.metrics.AddRows("filtered", filtered.Len())
	p.metrics.AddRows("ranked", len(rows))

	p.enter(log, StateWriting)
	stop = p.metrics.Timer(string(StateWriting))
	files, err := p.outputs.Write(ctx, w, rows)
	stop()
	if errors.Is(err, repository.ErrOutputExists) {
		// Another run created the output between the check and the write.
		p.skip(ctx, log, summary.RunID, w)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("write: %w", err)
	}

	p.enter(log, StateCleaningUp)
	if fetchErr != nil {
		// The partial file is left for inspection.
		log.Warn("download failed, keeping temp file", zap.String("path", path))
	} else if err := p.dumps.Remove(path); err != nil {
		log.Warn("failed to remove temp file", zap.String("path", path), zap.Error(err))
	}

	result := &repository.HourResult{
		RunID:      summary.RunID,
		Window:     w,
		OutputPath: p.outputs.Path(w),
		Files:      files,
		Rows:       rows,
	}
	p.publish(ctx, log, result)

	p.metrics.IncHours(entity.HourStatusCompleted)
	p.recordStatus(ctx, log, &entity.HourStatus{
		RunID:          summary.RunID,
		Hour:           w.Hour,
		Status:         entity.HourStatusCompleted,
		DownloadFailed: fetchErr != nil,
		RowsLoaded:     pageviews.Len(),
		RowsRanked:     len(rows),
		OutputPath:     result.OutputPath,
		ProcessedAt:    time.Now().UTC(),
		DurationMS:     time.Since(began).Milliseconds(),
	})
	log.Info("hour written",
		zap.String("output", result.OutputPath),
		zap.Int("rows_loaded", pageviews.Len()),
		zap.Int("rows_filtered", filtered.Len()),
		zap.Int("rows_ranked", len(rows)),
		zap.Duration("duration", time.Since(began)),
	)
	return true, nil
}

func (p *Pipeline) skip(ctx context.Context, log *zap.Logger, runID string, w entity.HourWindow) {
	log.Info("output exists, skipping hour", zap.String("output", p.outputs.Path(w)))
	p.metrics.IncHours(entity.HourStatusSkipped)
	p.recordStatus(ctx, log, &entity.HourStatus{
		RunID:       runID,
		Hour:        w.Hour,
		Status:      entity.HourStatusSkipped,
		OutputPath:  p.outputs.Path(w),
		ProcessedAt: time.Now().UTC(),
	})
}

func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, result *repository.HourResult) {
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, result); err != nil {
			// Sinks are best effort, the local output is the source of truth.
			log.Warn("result sink failed", zap.String("sink", sink.Name()), zap.Error(err))
			p.metrics.IncSinkErrors(sink.Name())
		}
	}
}

func (p *Pipeline) recordStatus(ctx context.Context, log *zap.Logger, status *entity.HourStatus) {
	for _, repo := range p.statuses {
		if err := repo.Save(ctx, status); err != nil {
			log.Warn("failed to record hour status", zap.String("status", status.Status), zap.Error(err))
			p.metrics.IncSinkErrors("hour_status")
		}
	}
}

func (p *Pipeline) enter(log *zap.Logger, s State) {
	log.Debug("pipeline state", zap.String("state", string(s)))
}
