package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"solocollect/internal/collector"
	"solocollect/internal/services/captions"
	"solocollect/internal/services/ytdlp"
)

const summaryDurationUnit = time.Second

func newCollectCommand(ctx *commandContext) *cobra.Command {
	var seasonsFlag string
	var fallbackFlag bool
	var dryRunFlag bool
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Discover episode videos and fetch their transcripts",
		Example: `  solocollect collect --seasons 26
  solocollect collect --seasons 10,11,12 --fallback
  solocollect collect --seasons 26 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seasons, err := parseSeasonsFlag(seasonsFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			client := ytdlp.NewCLI()
			if err := client.CheckBinary(); err != nil {
				return err
			}

			// One collector per database.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another collection run is already in progress (lock: %s)", cfg.LockPath())
			}
			defer lock.Unlock() //nolint:errcheck

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := collector.New(cfg, st, client, captions.NewHTTP(), logger)
			if err != nil {
				return err
			}

			summary, err := c.Collect(runCtx, collector.Options{
				Seasons:         seasons,
				IncludeFallback: fallbackFlag,
				DryRun:          dryRunFlag,
				ForceRefresh:    forceFlag,
			})
			if summary != nil {
				printSummary(cmd, summary)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&seasonsFlag, "seasons", "", "Comma-separated season numbers to collect (required)")
	cmd.Flags().BoolVar(&fallbackFlag, "fallback", false, "Search the whole platform for seasons the official channel misses")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Discover and persist videos but skip transcript retrieval")
	cmd.Flags().BoolVar(&forceFlag, "force-refresh", false, "Refetch transcripts that were already collected")
	_ = cmd.MarkFlagRequired("seasons")

	return cmd
}

func parseSeasonsFlag(value string) ([]int, error) {
	var seasons []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		season, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid season %q", part)
		}
		seasons = append(seasons, season)
	}
	if len(seasons) == 0 {
		return nil, fmt.Errorf("at least one season is required (e.g. --seasons 26)")
	}
	return seasons, nil
}

func printSummary(cmd *cobra.Command, summary *collector.Summary) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Job %s finished: %s (%s)\n", summary.JobID, summary.Status, summary.Duration.Round(summaryDurationUnit))
	fmt.Fprintf(out, "Candidates: %d discovered, %d kept\n", summary.TotalCandidates, summary.KeptCandidates)
	fmt.Fprintf(out, "Transcripts: %d fetched, %d failed, %d skipped\n",
		summary.TranscriptSuccess, summary.TranscriptFail, summary.TranscriptSkipped)

	if len(summary.FailureReasons) > 0 {
		fmt.Fprintln(out, "Failure reasons:")
		for reason, count := range summary.FailureReasons {
			fmt.Fprintf(out, "  %s: %d\n", reason, count)
		}
	}

	if len(summary.SeasonSummaries) > 0 {
		rows := make([][]string, 0, len(summary.SeasonSummaries))
		for _, s := range summary.SeasonSummaries {
			rows = append(rows, []string{
				strconv.Itoa(s.Season),
				strconv.Itoa(s.TotalVideos),
				strconv.Itoa(s.TranscriptSuccess),
				fmt.Sprintf("%.4f", s.AvgEngagement),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Season", "Videos", "Transcripts", "Engagement"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
		))
	}
}
