package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateJob records the start of a collection run and returns the new job.
func (s *Store) CreateJob(ctx context.Context, seasons []int, includeFallback, dryRun bool) (*Job, error) {
	seasonsJSON, err := json.Marshal(seasons)
	if err != nil {
		return nil, fmt.Errorf("marshal seasons: %w", err)
	}
	job := &Job{
		JobID:           uuid.New().String(),
		Status:          JobRunning,
		StartedAt:       time.Now().UTC(),
		Seasons:         seasons,
		IncludeFallback: includeFallback,
		DryRun:          dryRun,
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (job_id, status, started_at, seasons_json, include_fallback, dry_run)
         VALUES (?, ?, ?, ?, ?, ?)`,
		job.JobID,
		string(job.Status),
		job.StartedAt.Format(time.RFC3339Nano),
		string(seasonsJSON),
		boolToInt(includeFallback),
		boolToInt(dryRun),
	)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// FinishJob moves a running job into a terminal state and records the
// final counters. Finishing an already-terminal job is an error; the
// first transition wins.
func (s *Store) FinishJob(ctx context.Context, job *Job, status JobStatus) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if status != JobCompleted && status != JobFailed {
		return fmt.Errorf("finish job %s: %q is not a terminal status", job.JobID, status)
	}
	finishedAt := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, finished_at = ?,
             total_candidates = ?, kept_candidates = ?,
             transcript_success = ?, transcript_fail = ?
         WHERE job_id = ? AND status = ?`,
		string(status),
		finishedAt.Format(time.RFC3339Nano),
		job.TotalCandidates,
		job.KeptCandidates,
		job.TranscriptSuccess,
		job.TranscriptFail,
		job.JobID,
		string(JobRunning),
	)
	if err != nil {
		return fmt.Errorf("finish job %s: %w", job.JobID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish job %s: job missing or already finished", job.JobID)
	}
	job.Status = status
	job.FinishedAt = &finishedAt
	return nil
}

// AppendJobLog stores one append-only log line for the job.
func (s *Store) AppendJobLog(ctx context.Context, jobID, level, message string) error {
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO job_logs (job_id, created_at, level, message) VALUES (?, ?, ?, ?)`,
		jobID,
		time.Now().UTC().Format(time.RFC3339Nano),
		level,
		message,
	)
	if err != nil {
		return fmt.Errorf("append job log: %w", err)
	}
	return nil
}

// JobLogs returns a job's log lines in insertion order.
func (s *Store) JobLogs(ctx context.Context, jobID string, limit int) ([]JobLogLine, error) {
	query := `SELECT job_id, created_at, level, message FROM job_logs WHERE job_id = ? ORDER BY id`
	args := []any{jobID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("job logs: %w", err)
	}
	defer rows.Close()

	var lines []JobLogLine
	for rows.Next() {
		var line JobLogLine
		var createdRaw string
		if err := rows.Scan(&line.JobID, &createdRaw, &line.Level, &line.Message); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			line.CreatedAt = created
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetJob fetches one job by id, or nil when absent.
func (s *Store) GetJob(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListRecentJobs returns the newest jobs first, optionally filtered to one
// status.
func (s *Store) ListRecentJobs(ctx context.Context, limit int, status *JobStatus) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY started_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// StaleRunningJobs lists jobs still marked running that started before the
// threshold. A crashed process leaves its job in running forever; this
// surfaces those for operator review without changing them.
func (s *Store) StaleRunningJobs(ctx context.Context, olderThan time.Duration) ([]*Job, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? AND started_at < ? ORDER BY started_at`,
		string(JobRunning),
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job and all of its log lines.
func (s *Store) DeleteJob(ctx context.Context, jobID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete job: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_logs WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("delete job logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return tx.Commit()
}

const jobColumns = `job_id, status, started_at, finished_at, seasons_json, include_fallback, dry_run,
    total_candidates, kept_candidates, transcript_success, transcript_fail`

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job             Job
		status          string
		startedRaw      string
		finishedRaw     sql.NullString
		seasonsJSON     string
		includeFallback int
		dryRun          int
	)
	if err := scanner.Scan(
		&job.JobID, &status, &startedRaw, &finishedRaw, &seasonsJSON, &includeFallback, &dryRun,
		&job.TotalCandidates, &job.KeptCandidates, &job.TranscriptSuccess, &job.TranscriptFail,
	); err != nil {
		return nil, err
	}
	job.Status = JobStatus(status)
	job.IncludeFallback = includeFallback != 0
	job.DryRun = dryRun != 0
	if started, err := parseTimeString(startedRaw); err == nil {
		job.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	if seasonsJSON != "" {
		if err := json.Unmarshal([]byte(seasonsJSON), &job.Seasons); err != nil {
			return nil, fmt.Errorf("decode seasons for job %s: %w", job.JobID, err)
		}
	}
	return &job, nil
}
