package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"solocollect/internal/store"
)

const staleJobThreshold = 6 * time.Hour

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List collection jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var statusFilter *store.JobStatus
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				status, ok := store.ParseJobStatus(trimmed)
				if !ok {
					return fmt.Errorf("unknown status %q (running, completed, failed)", trimmed)
				}
				statusFilter = &status
			}

			jobs, err := st.ListRecentJobs(cmd.Context(), limitFlag, statusFilter)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded.")
				return nil
			}

			stale := make(map[string]bool)
			if staleJobs, err := st.StaleRunningJobs(cmd.Context(), staleJobThreshold); err == nil {
				for _, job := range staleJobs {
					stale[job.JobID] = true
				}
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				status := string(job.Status)
				if stale[job.JobID] {
					status += " (stale)"
				}
				rows = append(rows, []string{
					job.JobID,
					status,
					job.StartedAt.Local().Format("2006-01-02 15:04"),
					formatSeasons(job.Seasons),
					strconv.Itoa(job.KeptCandidates),
					fmt.Sprintf("%d/%d", job.TranscriptSuccess, job.TranscriptSuccess+job.TranscriptFail),
					formatJobFlags(job),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Job", "Status", "Started", "Seasons", "Kept", "Transcripts", "Flags"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			if len(stale) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(),
					"%d job(s) have been running for over %s; a crashed run leaves its job open. Use 'jobs delete' to clean up.\n",
					len(stale), staleJobThreshold)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (running, completed, failed)")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of jobs (0 = all)")

	cmd.AddCommand(newJobLogsCommand(ctx))
	cmd.AddCommand(newJobDeleteCommand(ctx))

	return cmd
}

func newJobLogsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "logs <job-id>",
		Short: "Show the log lines of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			jobID := strings.TrimSpace(args[0])
			job, err := st.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %s not found", jobID)
			}

			lines, err := st.JobLogs(cmd.Context(), jobID, limitFlag)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No log lines for this job.")
				return nil
			}
			for _, line := range lines {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %s\n",
					line.CreatedAt.Local().Format("15:04:05"), strings.ToUpper(line.Level), line.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of lines (0 = all)")
	return cmd
}

func newJobDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <job-id>",
		Short: "Delete a job and its logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			jobID := strings.TrimSpace(args[0])
			job, err := st.GetJob(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %s not found", jobID)
			}
			if err := st.DeleteJob(cmd.Context(), jobID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", jobID)
			return nil
		},
	}
}

func formatSeasons(seasons []int) string {
	if len(seasons) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(seasons))
	for _, season := range seasons {
		parts = append(parts, strconv.Itoa(season))
	}
	return strings.Join(parts, ",")
}

func formatJobFlags(job *store.Job) string {
	var flags []string
	if job.IncludeFallback {
		flags = append(flags, "fallback")
	}
	if job.DryRun {
		flags = append(flags, "dry-run")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
