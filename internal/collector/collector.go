// Package collector orchestrates a full collection run: discovery,
// reconciliation, persistence, and transcript retrieval, bracketed by a
// job record with append-only logs.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"solocollect/internal/config"
	"solocollect/internal/discovery"
	"solocollect/internal/logging"
	"solocollect/internal/parsing"
	"solocollect/internal/platform"
	"solocollect/internal/reconcile"
	"solocollect/internal/retry"
	"solocollect/internal/store"
	"solocollect/internal/transcripts"
)

const (
	skipLogCadence  = 10
	fetchLogCadence = 5
)

// Options controls one collection run.
type Options struct {
	Seasons         []int
	IncludeFallback bool
	DryRun          bool
	ForceRefresh    bool
}

// Summary reports what a finished run did.
type Summary struct {
	JobID             string
	Status            store.JobStatus
	Seasons           []int
	TotalCandidates   int
	KeptCandidates    int
	TranscriptSuccess int
	TranscriptFail    int
	TranscriptSkipped int
	FailureReasons    map[string]int
	SeasonSummaries   []store.SeasonSummary
	Duration          time.Duration
}

// LogSink receives the run's log lines in addition to the job log table.
type LogSink func(level, message string)

// Collector wires the pipeline stages together.
type Collector struct {
	cfg        *config.Config
	store      *store.Store
	discoverer *discovery.Discoverer
	enricher   *reconcile.Enricher
	retriever  *transcripts.Retriever
	logger     *slog.Logger
	sink       LogSink
}

// New builds a Collector from its stage dependencies.
func New(cfg *config.Config, st *store.Store, client platform.Client, source transcripts.Source, logger *slog.Logger) (*Collector, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	selector, err := transcripts.NewSelector(cfg.Collection.PreferredLanguages)
	if err != nil {
		return nil, fmt.Errorf("transcript languages: %w", err)
	}
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Collection.MaxRetries

	return &Collector{
		cfg:        cfg,
		store:      st,
		discoverer: discovery.New(client, cfg, logger),
		enricher:   reconcile.NewEnricher(client, cfg, logger),
		retriever:  transcripts.NewRetriever(source, selector, policy),
		logger:     logging.NewComponentLogger(logger, "collector"),
	}, nil
}

// WithLogSink registers an extra receiver for run log lines.
func (c *Collector) WithLogSink(sink LogSink) *Collector {
	c.sink = sink
	return c
}

// Collect runs the full pipeline for the requested seasons. The job record
// always reaches a terminal state: completed when the run finished, failed
// when any stage aborted.
func (c *Collector) Collect(ctx context.Context, opts Options) (*Summary, error) {
	seasons := parsing.EnsureSeasonList(opts.Seasons)
	if len(seasons) == 0 {
		return nil, fmt.Errorf("no valid seasons requested")
	}

	started := time.Now()
	job, err := c.store.CreateJob(ctx, seasons, opts.IncludeFallback, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("open job: %w", err)
	}
	logger := c.logger.With(logging.String(logging.FieldJobID, job.JobID))
	logger.Info("collection run started",
		logging.Bool("fallback", opts.IncludeFallback), logging.Bool("dry_run", opts.DryRun))

	summary := &Summary{
		JobID:          job.JobID,
		Seasons:        seasons,
		FailureReasons: make(map[string]int),
	}

	runErr := c.run(ctx, job, seasons, opts, summary, logger)

	job.TotalCandidates = summary.TotalCandidates
	job.KeptCandidates = summary.KeptCandidates
	job.TranscriptSuccess = summary.TranscriptSuccess
	job.TranscriptFail = summary.TranscriptFail

	status := store.JobCompleted
	if runErr != nil {
		status = store.JobFailed
		c.jobLog(job.JobID, logger, "error", fmt.Sprintf("수집 실패: %s", transcripts.TruncateError(runErr)))
	}
	// Closing the job must survive a cancelled run context.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.store.FinishJob(finishCtx, job, status); err != nil {
		logger.Error("job close failed", logging.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	summary.Status = job.Status
	summary.Duration = time.Since(started)
	logger.Info("collection run finished",
		logging.String("status", string(summary.Status)), logging.Duration("duration", summary.Duration))

	if runErr != nil {
		return summary, runErr
	}

	if summaries, err := c.store.SeasonSummaries(finishCtx, seasons); err == nil {
		summary.SeasonSummaries = summaries
	} else {
		logger.Warn("season summary failed", logging.Error(err))
	}
	return summary, nil
}

func (c *Collector) run(ctx context.Context, job *store.Job, seasons []int, opts Options, summary *Summary, logger *slog.Logger) error {
	c.jobLog(job.JobID, logger, "info",
		fmt.Sprintf("수집 시작: 시즌 %v, fallback=%v, dry_run=%v", seasons, opts.IncludeFallback, opts.DryRun))

	authoritative, err := c.discoverer.Authoritative(ctx, seasons)
	if err != nil {
		return fmt.Errorf("authoritative discovery: %w", err)
	}
	c.jobLog(job.JobID, logger, "info",
		fmt.Sprintf("공식 채널에서 후보 %d건 발견", len(authoritative)))

	var fallback []discovery.Candidate
	if opts.IncludeFallback {
		missing := missingSeasons(seasons, authoritative)
		if len(missing) > 0 {
			fallback, err = c.discoverer.Fallback(ctx, missing)
			if err != nil {
				return fmt.Errorf("fallback discovery: %w", err)
			}
			c.jobLog(job.JobID, logger, "info",
				fmt.Sprintf("검색 보완: 시즌 %v에서 후보 %d건", missing, len(fallback)))
		}
	}

	merged := reconcile.Merge(authoritative, fallback)
	summary.TotalCandidates = len(merged)

	enriched, stats, err := c.enricher.Enrich(ctx, seasons, merged)
	if err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if stats.FetchFailed > 0 {
		summary.FailureReasons["metadata_fetch"] = stats.FetchFailed
	}
	if stats.SeasonMismatch > 0 {
		summary.FailureReasons["season_mismatch"] = stats.SeasonMismatch
	}

	deduped := reconcile.Dedupe(enriched)
	reconcile.Order(deduped)
	summary.KeptCandidates = len(deduped)
	c.jobLog(job.JobID, logger, "info",
		fmt.Sprintf("후보 %d건 중 %d건 유지 (중복 %d건 제거)",
			summary.TotalCandidates, summary.KeptCandidates, len(enriched)-len(deduped)))

	for i := range deduped {
		if err := c.store.UpsertVideo(ctx, &deduped[i].Video); err != nil {
			return fmt.Errorf("persist video: %w", err)
		}
	}

	if opts.DryRun {
		c.jobLog(job.JobID, logger, "info", "dry run: 자막 수집 생략")
		return nil
	}
	return c.collectTranscripts(ctx, job, deduped, opts.ForceRefresh, summary, logger)
}

func (c *Collector) collectTranscripts(ctx context.Context, job *store.Job, videos []reconcile.Enriched, force bool, summary *Summary, logger *slog.Logger) error {
	logger = logger.With(logging.String(logging.FieldStage, "transcripts"))
	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !force {
			has, err := c.store.VideoHasTranscript(ctx, video.Video.VideoID)
			if err != nil {
				return fmt.Errorf("transcript lookup: %w", err)
			}
			if has {
				summary.TranscriptSkipped++
				if summary.TranscriptSkipped%skipLogCadence == 0 {
					c.jobLog(job.JobID, logger, "info",
						fmt.Sprintf("자막 보유 %d건 건너뜀", summary.TranscriptSkipped))
				}
				continue
			}
		}

		result := c.retriever.Retrieve(ctx, video.Detail)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.store.UpdateTranscript(ctx, video.Video.VideoID, result); err != nil {
			return fmt.Errorf("persist transcript: %w", err)
		}

		if result.Status == store.TranscriptSuccess {
			summary.TranscriptSuccess++
			if summary.TranscriptSuccess%fetchLogCadence == 0 {
				c.jobLog(job.JobID, logger, "info",
					fmt.Sprintf("자막 %d건 수집 완료", summary.TranscriptSuccess))
			}
		} else {
			summary.TranscriptFail++
			summary.FailureReasons[string(result.Status)]++
			logger.Warn("transcript unavailable",
				logging.String(logging.FieldVideoID, video.Video.VideoID),
				logging.String("status", string(result.Status)))
		}

		delay := transcripts.RandomDelay(c.cfg.Collection.TranscriptDelayMin, c.cfg.Collection.TranscriptDelayMax)
		if err := retry.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	c.jobLog(job.JobID, logger, "info",
		fmt.Sprintf("자막 수집 종료: 성공 %d, 실패 %d, 건너뜀 %d",
			summary.TranscriptSuccess, summary.TranscriptFail, summary.TranscriptSkipped))
	return nil
}

// jobLog writes one line to the job log table, the structured logger, and
// the optional sink. Log persistence is best effort.
func (c *Collector) jobLog(jobID string, logger *slog.Logger, level, message string) {
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.store.AppendJobLog(logCtx, jobID, level, message); err != nil {
		logger.Warn("job log write failed", logging.Error(err))
	}
	switch level {
	case "error":
		logger.Error(message)
	case "warn":
		logger.Warn(message)
	default:
		logger.Info(message)
	}
	if c.sink != nil {
		c.sink(level, message)
	}
}

func missingSeasons(requested []int, candidates []discovery.Candidate) []int {
	covered := make(map[int]bool, len(candidates))
	for _, candidate := range candidates {
		if candidate.Season != 0 {
			covered[candidate.Season] = true
		}
	}
	var missing []int
	for _, season := range requested {
		if !covered[season] {
			missing = append(missing, season)
		}
	}
	return missing
}
