// Package discovery enumerates episode candidates from the platform.
//
// Two strategies feed the pipeline: the authoritative pass walks the
// official channel's curated playlists and uploads tab, and the fallback
// pass runs per-season site searches for seasons the authoritative pass
// missed. All platform calls share a fixed inter-request delay.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"solocollect/internal/config"
	"solocollect/internal/logging"
	"solocollect/internal/parsing"
	"solocollect/internal/platform"
	"solocollect/internal/retry"
	"solocollect/internal/store"
)

// Candidate is one discovered video before reconciliation.
type Candidate struct {
	platform.Entry

	Season   int // 0 = unknown
	Episode  int // 0 = unknown
	Class    parsing.ContentClass
	Source   string
	Official bool
	Priority int
}

// Discoverer runs candidate discovery against a platform client.
type Discoverer struct {
	client platform.Client
	cfg    *config.Config
	logger *slog.Logger
	delay  time.Duration
}

// New constructs a Discoverer. The inter-request delay comes from the
// collection config.
func New(client platform.Client, cfg *config.Config, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Discoverer{
		client: client,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "discovery"),
		delay:  time.Duration(cfg.Collection.RequestDelaySeconds * float64(time.Second)),
	}
}

// Authoritative discovers candidates from the official channel: curated
// playlists whose titles name a requested season, then the uploads tab.
// Everything found here outranks search results during reconciliation.
func (d *Discoverer) Authoritative(ctx context.Context, seasons []int) ([]Candidate, error) {
	wanted := seasonSet(seasons)
	channelURL := platform.ChannelURL(d.cfg.Channel.Handle)

	playlists, err := d.client.Playlists(ctx, channelURL)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	var candidates []Candidate
	for _, playlist := range playlists {
		playlistSeasons := parsing.ParseSeasons(playlist.Title)
		season := matchedSeason(playlistSeasons, wanted)
		if season == 0 {
			continue
		}
		if err := d.pace(ctx); err != nil {
			return candidates, err
		}
		entries, err := d.client.PlaylistEntries(ctx, playlist.URL)
		if err != nil {
			d.logger.Warn("playlist listing failed",
				"playlist", playlist.Title, logging.Error(err))
			continue
		}
		d.logger.Info("playlist scanned",
			"playlist", playlist.Title, logging.Int(logging.FieldSeason, season), "entries", len(entries))
		for _, entry := range entries {
			candidates = append(candidates, d.newCandidate(entry, store.SourceOfficialPlaylist, season))
		}
	}

	if err := d.pace(ctx); err != nil {
		return candidates, err
	}
	uploads, err := d.client.ChannelUploads(ctx, channelURL)
	if err != nil {
		return nil, fmt.Errorf("list channel uploads: %w", err)
	}
	kept := 0
	for _, entry := range uploads {
		if !parsing.IsPureMainContent(entry.Title, entry.Description) {
			continue
		}
		candidate := d.newCandidate(entry, store.SourceOfficialChannel, 0)
		if candidate.Season == 0 || !wanted[candidate.Season] {
			continue
		}
		candidates = append(candidates, candidate)
		kept++
	}
	d.logger.Info("channel uploads scanned", "entries", len(uploads), "kept", kept)

	return candidates, nil
}

// Fallback searches the whole platform for the given seasons. A search hit
// is accepted only when its title or description parses to the target season
// and carries one of the series' core keywords; everything else on a public
// search page is noise.
func (d *Discoverer) Fallback(ctx context.Context, seasons []int) ([]Candidate, error) {
	var candidates []Candidate
	for _, season := range seasons {
		if err := d.pace(ctx); err != nil {
			return candidates, err
		}
		query := fmt.Sprintf("나는 SOLO %d기", season)
		entries, err := d.client.Search(ctx, query, d.cfg.Collection.MaxSearchResults)
		if err != nil {
			d.logger.Warn("season search failed", logging.Int(logging.FieldSeason, season), logging.Error(err))
			continue
		}
		kept := 0
		for _, entry := range entries {
			combined := entry.Title + "\n" + entry.Description
			if !parsing.HasCoreKeyword(combined) {
				continue
			}
			if parsing.ParseSeason(combined) != season {
				continue
			}
			candidates = append(candidates, d.newCandidate(entry, store.SourceGeneralSearch, season))
			kept++
		}
		d.logger.Info("season search complete",
			logging.Int(logging.FieldSeason, season), "results", len(entries), "kept", kept)
	}
	return candidates, nil
}

// newCandidate seeds a candidate from a flat listing entry. A non-zero
// seasonHint is binding: an entry found inside a season playlist belongs to
// that season no matter what its own title says, and the enrichment stage
// drops it later if the full metadata disagrees.
func (d *Discoverer) newCandidate(entry platform.Entry, source string, seasonHint int) Candidate {
	entry.Description = truncate(entry.Description, d.cfg.Collection.DescriptionSeedLimit)

	season := seasonHint
	if season == 0 {
		season = parsing.ParseSeason(entry.Title + "\n" + entry.Description)
	}

	official := source != store.SourceGeneralSearch
	if !official && d.cfg.Channel.ID != "" && entry.ChannelID == d.cfg.Channel.ID {
		official = true
	}
	priority := store.PrioritySearch
	if official {
		priority = store.PriorityOfficial
	}

	return Candidate{
		Entry:    entry,
		Season:   season,
		Episode:  parsing.ParseRound(entry.Title),
		Class:    parsing.Classify(entry.Title, entry.Description),
		Source:   source,
		Official: official,
		Priority: priority,
	}
}

// DedupeKey returns the candidate's heuristic identity for duplicate
// collapsing.
func (c Candidate) DedupeKey() string {
	return parsing.DedupeKey(c.Season, c.Episode, parsing.ParseUploadDate(c.UploadDate), c.Title)
}

func (d *Discoverer) pace(ctx context.Context) error {
	return retry.Sleep(ctx, d.delay)
}

func seasonSet(seasons []int) map[int]bool {
	set := make(map[int]bool, len(seasons))
	for _, season := range seasons {
		set[season] = true
	}
	return set
}

func matchedSeason(seasons []int, wanted map[int]bool) int {
	for _, season := range seasons {
		if wanted[season] {
			return season
		}
	}
	return 0
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
