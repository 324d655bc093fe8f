package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveAnalysisView persists a named view snapshot and its scored items in
// one transaction, returning the view id.
func (s *Store) SaveAnalysisView(ctx context.Context, view *AnalysisView, items []AnalysisViewItem) (int64, error) {
	if view == nil {
		return 0, errors.New("view is nil")
	}
	if strings.TrimSpace(view.Name) == "" {
		return 0, errors.New("view name is required")
	}
	seasonsJSON, err := json.Marshal(view.Seasons)
	if err != nil {
		return 0, fmt.Errorf("marshal seasons: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save view: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO analysis_views (name, view_type, query, seasons_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		view.Name,
		view.ViewType,
		view.Query,
		string(seasonsJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("save view: %w", err)
	}
	viewID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("view id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO analysis_view_items (view_id, video_id, season, episode, score, reason)
             VALUES (?, ?, ?, ?, ?, ?)`,
			viewID,
			item.VideoID,
			nullableInt(item.Season),
			nullableInt(item.Episode),
			item.Score,
			item.Reason,
		)
		if err != nil {
			return 0, fmt.Errorf("save view item %s: %w", item.VideoID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	view.ID = viewID
	return viewID, nil
}

// ListAnalysisViews returns saved views, newest first.
func (s *Store) ListAnalysisViews(ctx context.Context, limit int) ([]AnalysisView, error) {
	query := `SELECT id, name, view_type, query, seasons_json, created_at
        FROM analysis_views ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var views []AnalysisView
	for rows.Next() {
		view, err := scanAnalysisView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// GetAnalysisView loads a view and its items, with current video metadata
// joined onto each item. Returns nil when the view does not exist.
func (s *Store) GetAnalysisView(ctx context.Context, viewID int64) (*AnalysisView, []AnalysisViewItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, view_type, query, seasons_json, created_at FROM analysis_views WHERE id = ?`,
		viewID,
	)
	view, err := scanAnalysisView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get view: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT i.video_id, i.season, i.episode, i.score, i.reason,
                COALESCE(v.title, ''), COALESCE(v.url, ''), COALESCE(v.upload_date, ''),
                COALESCE(v.view_count, 0), COALESCE(v.comment_count, 0)
         FROM analysis_view_items i
         LEFT JOIN videos v ON v.video_id = i.video_id
         WHERE i.view_id = ?
         ORDER BY i.score DESC, i.id`,
		viewID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("view items: %w", err)
	}
	defer rows.Close()

	var items []AnalysisViewItem
	for rows.Next() {
		var item AnalysisViewItem
		var season, episode sql.NullInt64
		if err := rows.Scan(
			&item.VideoID, &season, &episode, &item.Score, &item.Reason,
			&item.Title, &item.URL, &item.UploadDate, &item.ViewCount, &item.CommentCount,
		); err != nil {
			return nil, nil, err
		}
		item.Season = int(season.Int64)
		item.Episode = int(episode.Int64)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return view, items, nil
}

// SaveChatExchange appends one question/answer pair to the chat history.
func (s *Store) SaveChatExchange(ctx context.Context, exchange *ChatExchange) error {
	if exchange == nil {
		return errors.New("exchange is nil")
	}
	seasonsJSON, err := json.Marshal(exchange.Seasons)
	if err != nil {
		return fmt.Errorf("marshal seasons: %w", err)
	}
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO analysis_chats (created_at, query, seasons_json, response) VALUES (?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339Nano),
		exchange.Query,
		string(seasonsJSON),
		exchange.Response,
	)
	if err != nil {
		return fmt.Errorf("save chat exchange: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		exchange.ID = id
	}
	exchange.CreatedAt = createdAt
	return nil
}

// ListChatHistory returns recent chat exchanges, newest first.
func (s *Store) ListChatHistory(ctx context.Context, limit int) ([]ChatExchange, error) {
	query := `SELECT id, created_at, query, seasons_json, response
        FROM analysis_chats ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	defer rows.Close()

	var exchanges []ChatExchange
	for rows.Next() {
		var exchange ChatExchange
		var createdRaw, seasonsJSON string
		if err := rows.Scan(&exchange.ID, &createdRaw, &exchange.Query, &seasonsJSON, &exchange.Response); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			exchange.CreatedAt = created
		}
		if seasonsJSON != "" {
			if err := json.Unmarshal([]byte(seasonsJSON), &exchange.Seasons); err != nil {
				return nil, fmt.Errorf("decode seasons for chat %d: %w", exchange.ID, err)
			}
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, rows.Err()
}

func scanAnalysisView(scanner interface{ Scan(dest ...any) error }) (*AnalysisView, error) {
	var view AnalysisView
	var createdRaw, seasonsJSON string
	if err := scanner.Scan(&view.ID, &view.Name, &view.ViewType, &view.Query, &seasonsJSON, &createdRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		view.CreatedAt = created
	}
	if seasonsJSON != "" {
		if err := json.Unmarshal([]byte(seasonsJSON), &view.Seasons); err != nil {
			return nil, fmt.Errorf("decode seasons for view %d: %w", view.ID, err)
		}
	}
	return &view, nil
}
