// Package reconcile turns raw discovery output into the final set of
// records to persist: merge across strategies, enrich with full metadata,
// collapse duplicates, and order deterministically.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"solocollect/internal/config"
	"solocollect/internal/discovery"
	"solocollect/internal/logging"
	"solocollect/internal/parsing"
	"solocollect/internal/platform"
	"solocollect/internal/retry"
	"solocollect/internal/store"
)

// Enriched pairs a persistable video record with the platform detail it
// was built from. The detail carries the caption tracks the transcript
// stage needs.
type Enriched struct {
	Video  store.Video
	Detail *platform.VideoDetail
}

// Stats counts what enrichment dropped and why.
type Stats struct {
	Enriched       int
	FetchFailed    int
	SeasonMismatch int
}

// Merge combines the two discovery passes. When both saw the same video id
// the authoritative candidate wins outright.
func Merge(authoritative, fallback []discovery.Candidate) []discovery.Candidate {
	merged := make([]discovery.Candidate, 0, len(authoritative)+len(fallback))
	seen := make(map[string]bool, len(authoritative))
	for _, candidate := range authoritative {
		if seen[candidate.VideoID] {
			continue
		}
		seen[candidate.VideoID] = true
		merged = append(merged, candidate)
	}
	for _, candidate := range fallback {
		if seen[candidate.VideoID] {
			continue
		}
		seen[candidate.VideoID] = true
		merged = append(merged, candidate)
	}
	return merged
}

// Enricher resolves full metadata for merged candidates.
type Enricher struct {
	client platform.Client
	cfg    *config.Config
	logger *slog.Logger
	policy retry.Policy
	delay  time.Duration
}

// NewEnricher constructs an Enricher using the collection retry budget.
func NewEnricher(client platform.Client, cfg *config.Config, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Collection.MaxRetries
	return &Enricher{
		client: client,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "enrich"),
		policy: policy,
		delay:  time.Duration(cfg.Collection.RequestDelaySeconds * float64(time.Second)),
	}
}

// Enrich fetches full metadata for every candidate. A candidate is dropped
// when its detail cannot be fetched within the retry budget, when the full
// metadata names a different season than the one it was discovered for, or
// when its resolved season is not in the requested set.
func (e *Enricher) Enrich(ctx context.Context, seasons []int, candidates []discovery.Candidate) ([]Enriched, Stats, error) {
	wanted := make(map[int]bool, len(seasons))
	for _, season := range seasons {
		wanted[season] = true
	}
	var (
		enriched []Enriched
		stats    Stats
	)
	for i, candidate := range candidates {
		if i > 0 {
			if err := retry.Sleep(ctx, e.delay); err != nil {
				return enriched, stats, err
			}
		}

		var detail *platform.VideoDetail
		err := retry.Do(ctx, e.policy, func(ctx context.Context) error {
			fetched, err := e.client.VideoDetail(ctx, candidate.VideoID)
			if err != nil {
				return err
			}
			detail = fetched
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return enriched, stats, ctx.Err()
			}
			stats.FetchFailed++
			e.logger.Warn("metadata fetch failed",
				logging.String(logging.FieldVideoID, candidate.VideoID), logging.Error(err))
			continue
		}

		record, ok := e.build(candidate, detail, wanted)
		if !ok {
			stats.SeasonMismatch++
			e.logger.Info("season mismatch dropped",
				logging.String(logging.FieldVideoID, candidate.VideoID),
				logging.Int(logging.FieldSeason, candidate.Season))
			continue
		}
		stats.Enriched++
		enriched = append(enriched, Enriched{Video: record, Detail: detail})
	}
	return enriched, stats, nil
}

// build assembles the persistable record. Full metadata outranks the flat
// listing but never erases a known season or episode, and a record whose
// resolved season falls outside the requested set is rejected.
func (e *Enricher) build(candidate discovery.Candidate, detail *platform.VideoDetail, wanted map[int]bool) (store.Video, bool) {
	season := candidate.Season
	if parsed := parsing.ParseSeason(detail.Title); parsed != 0 {
		if season != 0 && parsed != season {
			return store.Video{}, false
		}
		season = parsed
	}
	if len(wanted) > 0 && season != 0 && !wanted[season] {
		return store.Video{}, false
	}
	episode := parsing.ParseRound(detail.Title)
	if episode == 0 {
		episode = candidate.Episode
	}

	description := detail.Description
	if description == "" {
		description = candidate.Description
	}
	if limit := e.cfg.Collection.DescriptionFullLimit; limit > 0 {
		if runes := []rune(description); len(runes) > limit {
			description = string(runes[:limit])
		}
	}

	uploadDate := parsing.ParseUploadDate(detail.UploadDate)
	if uploadDate == "" {
		uploadDate = parsing.ParseUploadDate(candidate.UploadDate)
	}

	title := detail.Title
	if title == "" {
		title = candidate.Title
	}
	url := detail.URL
	if url == "" {
		url = platform.WatchURL(candidate.VideoID)
	}

	record := store.Video{
		VideoID:         candidate.VideoID,
		Title:           title,
		URL:             url,
		ChannelTitle:    firstNonEmpty(detail.ChannelTitle, candidate.ChannelTitle),
		ChannelID:       firstNonEmpty(detail.ChannelID, candidate.ChannelID),
		ChannelURL:      firstNonEmpty(detail.ChannelURL, candidate.ChannelURL),
		Description:     description,
		DurationSeconds: detail.DurationSeconds,
		DurationText:    detail.DurationText,
		UploadDate:      uploadDate,
		PublishedTS:     detail.PublishedTS,
		ViewCount:       detail.ViewCount,
		LikeCount:       detail.LikeCount,
		CommentCount:    detail.CommentCount,
		Season:          season,
		Episode:         episode,
		SeriesType:      parsing.Classify(title, description),
		Source:          candidate.Source,
		IsOfficial:      candidate.Official,
		SourcePriority:  candidate.Priority,
	}
	record.DedupeKey = parsing.DedupeKey(record.Season, record.Episode, record.UploadDate, record.Title)
	return record, true
}

// Dedupe collapses records sharing a dedupe key. Within a group the winner
// is decided by a total order: official beats unofficial, then higher
// source priority, view count, comment count, and finally newer upload
// date.
func Dedupe(videos []Enriched) []Enriched {
	groups := make(map[string]int)
	result := make([]Enriched, 0, len(videos))
	for _, video := range videos {
		key := video.Video.DedupeKey
		if key == "" {
			result = append(result, video)
			continue
		}
		if idx, found := groups[key]; found {
			if beats(video.Video, result[idx].Video) {
				result[idx] = video
			}
			continue
		}
		groups[key] = len(result)
		result = append(result, video)
	}
	return result
}

func beats(a, b store.Video) bool {
	if a.IsOfficial != b.IsOfficial {
		return a.IsOfficial
	}
	if a.SourcePriority != b.SourcePriority {
		return a.SourcePriority > b.SourcePriority
	}
	if a.ViewCount != b.ViewCount {
		return a.ViewCount > b.ViewCount
	}
	if a.CommentCount != b.CommentCount {
		return a.CommentCount > b.CommentCount
	}
	return a.UploadDate > b.UploadDate
}

// Order sorts records for persistence and display: season, then episode
// with unknowns last, then upload date with unknowns last, then video id.
func Order(videos []Enriched) {
	sort.SliceStable(videos, func(i, j int) bool {
		a, b := videos[i].Video, videos[j].Video
		if a.Season != b.Season {
			return orderKey(a.Season, 999) < orderKey(b.Season, 999)
		}
		if a.Episode != b.Episode {
			return orderKey(a.Episode, 9999) < orderKey(b.Episode, 9999)
		}
		if a.UploadDate != b.UploadDate {
			return dateKey(a.UploadDate) < dateKey(b.UploadDate)
		}
		return a.VideoID < b.VideoID
	})
}

func orderKey(value, unknown int) int {
	if value == 0 {
		return unknown
	}
	return value
}

func dateKey(date string) string {
	if date == "" {
		return "9999-99-99"
	}
	return date
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
