package store

import (
	"strings"
	"time"

	"solocollect/internal/parsing"
)

// TranscriptStatus represents the terminal state machine of transcript
// retrieval for one video.
type TranscriptStatus string

const (
	TranscriptPending  TranscriptStatus = "pending"
	TranscriptSuccess  TranscriptStatus = "success"
	TranscriptMissing  TranscriptStatus = "no_transcript"
	TranscriptDisabled TranscriptStatus = "transcripts_disabled"
	TranscriptError    TranscriptStatus = "error"
)

// JobStatus represents a collection job's lifecycle. Once a job leaves
// running it never changes again.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ParseJobStatus converts a string into a known JobStatus.
func ParseJobStatus(value string) (JobStatus, bool) {
	normalized := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case JobRunning, JobCompleted, JobFailed:
		return normalized, true
	}
	return "", false
}

// Candidate sources, ordered by trust. Priorities break dedupe ties.
const (
	SourceOfficialPlaylist = "official_playlist"
	SourceOfficialChannel  = "official_channel"
	SourceGeneralSearch    = "general_search"

	PriorityOfficial = 3
	PrioritySearch   = 1
)

// Segment is one timed transcript line.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Transcript captures the result of one transcript retrieval attempt.
type Transcript struct {
	Status       TranscriptStatus
	Language     string
	Variant      string // "manual" or "auto"
	Text         string
	Segments     []Segment
	Hash         string
	ErrorMessage string
}

// Video is the canonical stored record for one episode upload.
type Video struct {
	VideoID         string
	Title           string
	URL             string
	ChannelTitle    string
	ChannelID       string
	ChannelURL      string
	Description     string
	DurationSeconds int
	DurationText    string
	UploadDate      string // ISO date or ""
	PublishedTS     int64
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	Season          int // 0 = unknown
	Episode         int // 0 = unknown
	SeriesType      parsing.ContentClass
	Source          string
	IsOfficial      bool
	SourcePriority  int
	DedupeKey       string

	TranscriptStatus    TranscriptStatus
	TranscriptLanguage  string
	TranscriptVariant   string
	TranscriptText      string
	TranscriptSegments  []Segment
	TranscriptHash      string
	TranscriptUpdatedAt *time.Time
	ErrorMessage        string

	DiscoveredAt time.Time
	UpdatedAt    time.Time
}

// HasTranscript reports whether the stored transcript is usable.
func (v *Video) HasTranscript() bool {
	return v != nil && v.TranscriptStatus == TranscriptSuccess
}

// Job is one end-to-end collection run.
type Job struct {
	JobID             string
	Status            JobStatus
	StartedAt         time.Time
	FinishedAt        *time.Time
	Seasons           []int
	IncludeFallback   bool
	DryRun            bool
	TotalCandidates   int
	KeptCandidates    int
	TranscriptSuccess int
	TranscriptFail    int
}

// IsTerminal reports whether the job has finished.
func (j *Job) IsTerminal() bool {
	return j != nil && (j.Status == JobCompleted || j.Status == JobFailed)
}

// JobLogLine is one append-only log entry belonging to a job.
type JobLogLine struct {
	JobID     string
	CreatedAt time.Time
	Level     string
	Message   string
}

// VideoFilter narrows GetVideos results. Zero values mean "no filter".
type VideoFilter struct {
	Seasons        []int
	TranscriptOnly *bool // true = success only, false = non-success only
	MainOnly       bool
	Limit          int
}

// SeasonSummary aggregates per-season collection state.
type SeasonSummary struct {
	Season            int
	TotalVideos       int
	TranscriptSuccess int
	AvgEngagement     float64
}

// AnalysisView is a named, reproducible snapshot of scored video references.
// The scoring itself lives outside this repository; the store only persists
// what the analysis collaborator hands over.
type AnalysisView struct {
	ID        int64
	Name      string
	ViewType  string
	Query     string
	Seasons   []int
	CreatedAt time.Time
}

// AnalysisViewItem is one scored video reference inside a view.
type AnalysisViewItem struct {
	VideoID string
	Season  int
	Episode int
	Score   float64
	Reason  string

	// Joined from videos when reading a view; empty on save.
	Title        string
	URL          string
	UploadDate   string
	ViewCount    int64
	CommentCount int64
}

// ChatExchange is one dashboard question/answer pair persisted for history.
type ChatExchange struct {
	ID        int64
	CreatedAt time.Time
	Query     string
	Seasons   []int
	Response  string
}

// DatabaseHealth captures diagnostic information about the database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalVideos      int
	Error            string
}
