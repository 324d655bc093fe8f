package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"solocollect/internal/parsing"
)

// UpsertVideo inserts or merges a video keyed by its platform id.
//
// Merge rules: descriptive fields and engagement counts always take the
// incoming value (fresher is better), a known season/episode is never
// replaced by unknown, and the source/is_official pair only moves when the
// incoming priority is at least the stored one. Priority itself only ever
// rises. Transcript columns are untouched here; see UpdateTranscript.
func (s *Store) UpsertVideo(ctx context.Context, video *Video) error {
	if video == nil {
		return errors.New("video is nil")
	}
	if strings.TrimSpace(video.VideoID) == "" {
		return errors.New("video id is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	title := strings.TrimSpace(video.Title)
	if title == "" {
		title = "(제목 없음)"
	}
	url := video.URL
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + video.VideoID
	}
	seriesType := video.SeriesType
	if seriesType == "" {
		seriesType = parsing.ClassUnknown
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            video_id, title, url, channel_title, channel_id, channel_url, description,
            duration_seconds, duration_text, upload_date, published_ts,
            view_count, like_count, comment_count, season, episode, series_type,
            source, is_official, source_priority, dedupe_key, discovered_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
            title = excluded.title,
            url = excluded.url,
            channel_title = excluded.channel_title,
            channel_id = excluded.channel_id,
            channel_url = excluded.channel_url,
            description = excluded.description,
            duration_seconds = excluded.duration_seconds,
            duration_text = excluded.duration_text,
            upload_date = COALESCE(excluded.upload_date, videos.upload_date),
            published_ts = excluded.published_ts,
            view_count = excluded.view_count,
            like_count = excluded.like_count,
            comment_count = excluded.comment_count,
            season = COALESCE(excluded.season, videos.season),
            episode = COALESCE(excluded.episode, videos.episode),
            series_type = excluded.series_type,
            source = CASE
                WHEN excluded.source_priority >= videos.source_priority THEN excluded.source
                ELSE videos.source
            END,
            is_official = CASE
                WHEN excluded.source_priority >= videos.source_priority THEN excluded.is_official
                ELSE videos.is_official
            END,
            source_priority = MAX(videos.source_priority, excluded.source_priority),
            dedupe_key = COALESCE(excluded.dedupe_key, videos.dedupe_key),
            updated_at = excluded.updated_at`,
		video.VideoID,
		title,
		url,
		nullableString(video.ChannelTitle),
		nullableString(video.ChannelID),
		nullableString(video.ChannelURL),
		nullableString(video.Description),
		video.DurationSeconds,
		nullableString(video.DurationText),
		nullableString(video.UploadDate),
		video.PublishedTS,
		video.ViewCount,
		video.LikeCount,
		video.CommentCount,
		nullableInt(video.Season),
		nullableInt(video.Episode),
		string(seriesType),
		video.Source,
		boolToInt(video.IsOfficial),
		video.SourcePriority,
		nullableString(video.DedupeKey),
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", video.VideoID, err)
	}
	return nil
}

// UpdateTranscript persists a transcript retrieval outcome for a video.
func (s *Store) UpdateTranscript(ctx context.Context, videoID string, transcript Transcript) error {
	if strings.TrimSpace(videoID) == "" {
		return errors.New("video id is required")
	}
	status := transcript.Status
	if status == "" {
		status = TranscriptError
	}
	segmentsJSON, err := json.Marshal(transcript.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`UPDATE videos
         SET transcript_status = ?, transcript_language = ?, transcript_variant = ?,
             transcript_text = ?, transcript_segments = ?, transcript_hash = ?,
             transcript_updated_at = ?, error_message = ?, updated_at = ?
         WHERE video_id = ?`,
		string(status),
		nullableString(transcript.Language),
		nullableString(transcript.Variant),
		nullableString(transcript.Text),
		string(segmentsJSON),
		nullableString(transcript.Hash),
		now,
		nullableString(transcript.ErrorMessage),
		now,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("update transcript %s: %w", videoID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update transcript %s: video not stored", videoID)
	}
	return nil
}

// GetVideo fetches one video by id, or nil when absent.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE video_id = ?`, videoID)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// VideoHasTranscript reports whether the stored record already carries a
// successful transcript.
func (s *Store) VideoHasTranscript(ctx context.Context, videoID string) (bool, error) {
	var status string
	row := s.db.QueryRowContext(ctx, `SELECT transcript_status FROM videos WHERE video_id = ?`, videoID)
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("transcript status %s: %w", videoID, err)
	}
	return TranscriptStatus(status) == TranscriptSuccess, nil
}

// GetVideos returns videos matching the filter in deterministic order:
// season, episode (unknown last), upload date, video id.
func (s *Store) GetVideos(ctx context.Context, filter VideoFilter) ([]*Video, error) {
	var clauses []string
	var args []any

	if len(filter.Seasons) > 0 {
		clauses = append(clauses, `season IN (`+makePlaceholders(len(filter.Seasons))+`)`)
		for _, season := range filter.Seasons {
			args = append(args, season)
		}
	}
	if filter.TranscriptOnly != nil {
		if *filter.TranscriptOnly {
			clauses = append(clauses, `transcript_status = ?`)
		} else {
			clauses = append(clauses, `transcript_status != ?`)
		}
		args = append(args, string(TranscriptSuccess))
	}
	if filter.MainOnly {
		clauses = append(clauses, `series_type = ?`)
		args = append(args, string(parsing.ClassMain))
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY COALESCE(season, 999), COALESCE(episode, 9999), COALESCE(upload_date, '9999-99-99'), video_id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// AvailableSeasons lists the distinct seasons with at least one stored video.
func (s *Store) AvailableSeasons(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT season FROM videos WHERE season IS NOT NULL ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("available seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// SeasonSummaries aggregates per-season totals, transcript successes, and
// the average comment-per-view engagement ratio.
func (s *Store) SeasonSummaries(ctx context.Context, seasons []int) ([]SeasonSummary, error) {
	query := `SELECT
            season,
            COUNT(*) AS total_videos,
            SUM(CASE WHEN transcript_status = ? THEN 1 ELSE 0 END) AS transcript_success,
            ROUND(AVG(CASE WHEN view_count > 0 THEN CAST(comment_count AS REAL) / view_count ELSE 0 END), 6) AS avg_engagement
        FROM videos
        WHERE season IS NOT NULL`
	args := []any{string(TranscriptSuccess)}
	if len(seasons) > 0 {
		query += ` AND season IN (` + makePlaceholders(len(seasons)) + `)`
		for _, season := range seasons {
			args = append(args, season)
		}
	}
	query += ` GROUP BY season ORDER BY season`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("season summaries: %w", err)
	}
	defer rows.Close()

	var summaries []SeasonSummary
	for rows.Next() {
		var summary SeasonSummary
		if err := rows.Scan(&summary.Season, &summary.TotalVideos, &summary.TranscriptSuccess, &summary.AvgEngagement); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

const videoColumns = `video_id, title, url, channel_title, channel_id, channel_url, description,
    duration_seconds, duration_text, upload_date, published_ts,
    view_count, like_count, comment_count, season, episode, series_type,
    source, is_official, source_priority, dedupe_key,
    transcript_status, transcript_language, transcript_variant, transcript_text,
    transcript_segments, transcript_hash, transcript_updated_at, error_message,
    discovered_at, updated_at`

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		videoID             string
		title               string
		url                 string
		channelTitle        sql.NullString
		channelID           sql.NullString
		channelURL          sql.NullString
		description         sql.NullString
		durationSeconds     sql.NullInt64
		durationText        sql.NullString
		uploadDate          sql.NullString
		publishedTS         sql.NullInt64
		viewCount           sql.NullInt64
		likeCount           sql.NullInt64
		commentCount        sql.NullInt64
		season              sql.NullInt64
		episode             sql.NullInt64
		seriesType          sql.NullString
		source              sql.NullString
		isOfficial          sql.NullInt64
		sourcePriority      sql.NullInt64
		dedupeKey           sql.NullString
		transcriptStatus    sql.NullString
		transcriptLanguage  sql.NullString
		transcriptVariant   sql.NullString
		transcriptText      sql.NullString
		transcriptSegments  sql.NullString
		transcriptHash      sql.NullString
		transcriptUpdatedAt sql.NullString
		errorMessage        sql.NullString
		discoveredRaw       sql.NullString
		updatedRaw          sql.NullString
	)

	if err := scanner.Scan(
		&videoID, &title, &url, &channelTitle, &channelID, &channelURL, &description,
		&durationSeconds, &durationText, &uploadDate, &publishedTS,
		&viewCount, &likeCount, &commentCount, &season, &episode, &seriesType,
		&source, &isOfficial, &sourcePriority, &dedupeKey,
		&transcriptStatus, &transcriptLanguage, &transcriptVariant, &transcriptText,
		&transcriptSegments, &transcriptHash, &transcriptUpdatedAt, &errorMessage,
		&discoveredRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		VideoID:            videoID,
		Title:              title,
		URL:                url,
		ChannelTitle:       channelTitle.String,
		ChannelID:          channelID.String,
		ChannelURL:         channelURL.String,
		Description:        description.String,
		DurationSeconds:    int(durationSeconds.Int64),
		DurationText:       durationText.String,
		UploadDate:         uploadDate.String,
		PublishedTS:        publishedTS.Int64,
		ViewCount:          viewCount.Int64,
		LikeCount:          likeCount.Int64,
		CommentCount:       commentCount.Int64,
		Season:             int(season.Int64),
		Episode:            int(episode.Int64),
		SeriesType:         parsing.ParseContentClass(seriesType.String),
		Source:             source.String,
		IsOfficial:         isOfficial.Int64 != 0,
		SourcePriority:     int(sourcePriority.Int64),
		DedupeKey:          dedupeKey.String,
		TranscriptStatus:   TranscriptStatus(transcriptStatus.String),
		TranscriptLanguage: transcriptLanguage.String,
		TranscriptVariant:  transcriptVariant.String,
		TranscriptText:     transcriptText.String,
		TranscriptHash:     transcriptHash.String,
		ErrorMessage:       errorMessage.String,
	}
	if video.TranscriptStatus == "" {
		video.TranscriptStatus = TranscriptPending
	}
	if transcriptSegments.Valid && transcriptSegments.String != "" {
		if err := json.Unmarshal([]byte(transcriptSegments.String), &video.TranscriptSegments); err != nil {
			return nil, fmt.Errorf("decode segments for %s: %w", videoID, err)
		}
	}
	if transcriptUpdatedAt.Valid {
		if t, err := parseTimeString(transcriptUpdatedAt.String); err == nil {
			video.TranscriptUpdatedAt = &t
		}
	}
	if discovered, err := parseTimeString(discoveredRaw.String); err == nil {
		video.DiscoveredAt = discovered
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		video.UpdatedAt = updated
	}
	return video, nil
}
