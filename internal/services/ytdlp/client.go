// Package ytdlp implements platform.Client by shelling out to yt-dlp.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"solocollect/internal/platform"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the yt-dlp command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

var _ platform.Client = (*CLI)(nil)

// CheckBinary verifies yt-dlp is installed and on PATH.
func (c *CLI) CheckBinary() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.binary)
	}
	return nil
}

// Playlists lists the curated playlists of a channel.
func (c *CLI) Playlists(ctx context.Context, channelURL string) ([]platform.Playlist, error) {
	if strings.TrimSpace(channelURL) == "" {
		return nil, errors.New("channel URL is required")
	}
	listing, err := c.flatListing(ctx, strings.TrimRight(channelURL, "/")+"/playlists")
	if err != nil {
		return nil, err
	}
	playlists := make([]platform.Playlist, 0, len(listing.Entries))
	for _, entry := range listing.Entries {
		if entry.Type != "playlist" && entry.Type != "url" {
			continue
		}
		if entry.ID == "" {
			continue
		}
		playlists = append(playlists, platform.Playlist{
			PlaylistID: entry.ID,
			Title:      entry.Title,
			URL:        entry.listingURL(),
			ItemCount:  entry.PlaylistCount,
		})
	}
	return playlists, nil
}

// PlaylistEntries lists the videos of one playlist.
func (c *CLI) PlaylistEntries(ctx context.Context, playlistURL string) ([]platform.Entry, error) {
	if strings.TrimSpace(playlistURL) == "" {
		return nil, errors.New("playlist URL is required")
	}
	listing, err := c.flatListing(ctx, playlistURL)
	if err != nil {
		return nil, err
	}
	return listing.videoEntries(), nil
}

// ChannelUploads lists the videos on a channel's uploads tab.
func (c *CLI) ChannelUploads(ctx context.Context, channelURL string) ([]platform.Entry, error) {
	if strings.TrimSpace(channelURL) == "" {
		return nil, errors.New("channel URL is required")
	}
	listing, err := c.flatListing(ctx, strings.TrimRight(channelURL, "/")+"/videos")
	if err != nil {
		return nil, err
	}
	return listing.videoEntries(), nil
}

// Search runs a site search and returns up to limit entries.
func (c *CLI) Search(ctx context.Context, query string, limit int) ([]platform.Entry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	listing, err := c.flatListing(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, err
	}
	return listing.videoEntries(), nil
}

// VideoDetail fetches the full metadata record for one video.
func (c *CLI) VideoDetail(ctx context.Context, videoID string) (*platform.VideoDetail, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, errors.New("video id is required")
	}
	output, err := c.run(ctx, "-J", "--no-playlist", platform.WatchURL(videoID))
	if err != nil {
		return nil, err
	}
	var payload detailPayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return nil, fmt.Errorf("decode video detail: %w", err)
	}
	detail := &platform.VideoDetail{
		VideoID:         payload.ID,
		Title:           payload.Title,
		URL:             payload.WebpageURL,
		ChannelTitle:    payload.channelTitle(),
		ChannelID:       payload.ChannelID,
		ChannelURL:      payload.ChannelURL,
		Description:     payload.Description,
		DurationSeconds: int(payload.Duration),
		DurationText:    payload.DurationString,
		UploadDate:      payload.UploadDate,
		PublishedTS:     payload.Timestamp,
		ViewCount:       payload.ViewCount,
		LikeCount:       payload.LikeCount,
		CommentCount:    payload.CommentCount,
		ManualCaptions:  captionTracks(payload.Subtitles, false),
		AutoCaptions:    captionTracks(payload.AutomaticCaptions, true),
	}
	if detail.URL == "" {
		detail.URL = platform.WatchURL(payload.ID)
	}
	return detail, nil
}

func (c *CLI) flatListing(ctx context.Context, source string) (*flatListing, error) {
	output, err := c.run(ctx, "--flat-playlist", "-J", source)
	if err != nil {
		return nil, err
	}
	var listing flatListing
	if err := json.Unmarshal(output, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

func (c *CLI) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s returned empty output", c.binary)
	}
	return stdout.Bytes(), nil
}

type flatListing struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Channel    string      `json:"channel"`
	ChannelID  string      `json:"channel_id"`
	ChannelURL string      `json:"channel_url"`
	Entries    []flatEntry `json:"entries"`
}

type flatEntry struct {
	Type          string  `json:"_type"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	WebpageURL    string  `json:"webpage_url"`
	Duration      float64 `json:"duration"`
	ViewCount     int64   `json:"view_count"`
	Description   string  `json:"description"`
	UploadDate    string  `json:"upload_date"`
	Channel       string  `json:"channel"`
	ChannelID     string  `json:"channel_id"`
	ChannelURL    string  `json:"channel_url"`
	Uploader      string  `json:"uploader"`
	PlaylistCount int     `json:"playlist_count"`
}

func (e flatEntry) listingURL() string {
	if e.WebpageURL != "" {
		return e.WebpageURL
	}
	return e.URL
}

func (l *flatListing) videoEntries() []platform.Entry {
	entries := make([]platform.Entry, 0, len(l.Entries))
	for _, entry := range l.Entries {
		if entry.Type == "playlist" {
			continue
		}
		id := entry.ID
		if id == "" {
			id = platform.VideoIDFromURL(entry.listingURL())
		}
		if id == "" {
			continue
		}
		channelTitle := entry.Channel
		if channelTitle == "" {
			channelTitle = entry.Uploader
		}
		if channelTitle == "" {
			channelTitle = l.Channel
		}
		channelID := entry.ChannelID
		if channelID == "" {
			channelID = l.ChannelID
		}
		channelURL := entry.ChannelURL
		if channelURL == "" {
			channelURL = l.ChannelURL
		}
		url := entry.listingURL()
		if url == "" {
			url = platform.WatchURL(id)
		}
		entries = append(entries, platform.Entry{
			VideoID:         id,
			Title:           entry.Title,
			URL:             url,
			ChannelTitle:    channelTitle,
			ChannelID:       channelID,
			ChannelURL:      channelURL,
			Description:     entry.Description,
			DurationSeconds: int(entry.Duration),
			UploadDate:      entry.UploadDate,
			ViewCount:       entry.ViewCount,
		})
	}
	return entries
}

type detailPayload struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	WebpageURL        string                    `json:"webpage_url"`
	Channel           string                    `json:"channel"`
	Uploader          string                    `json:"uploader"`
	ChannelID         string                    `json:"channel_id"`
	ChannelURL        string                    `json:"channel_url"`
	Description       string                    `json:"description"`
	Duration          float64                   `json:"duration"`
	DurationString    string                    `json:"duration_string"`
	UploadDate        string                    `json:"upload_date"`
	Timestamp         int64                     `json:"timestamp"`
	ViewCount         int64                     `json:"view_count"`
	LikeCount         int64                     `json:"like_count"`
	CommentCount      int64                     `json:"comment_count"`
	Subtitles         map[string][]captionEntry `json:"subtitles"`
	AutomaticCaptions map[string][]captionEntry `json:"automatic_captions"`
}

func (p detailPayload) channelTitle() string {
	if p.Channel != "" {
		return p.Channel
	}
	return p.Uploader
}

type captionEntry struct {
	URL  string `json:"url"`
	Ext  string `json:"ext"`
	Name string `json:"name"`
}

// captionTracks flattens a yt-dlp subtitle map into one track per language,
// preferring the json3 rendition when present. Tracks are sorted by language
// so last-resort selection is stable across runs.
func captionTracks(source map[string][]captionEntry, auto bool) []platform.CaptionTrack {
	if len(source) == 0 {
		return nil
	}
	tracks := make([]platform.CaptionTrack, 0, len(source))
	for language, renditions := range source {
		if len(renditions) == 0 {
			continue
		}
		chosen := renditions[0]
		for _, rendition := range renditions {
			if rendition.Ext == "json3" {
				chosen = rendition
				break
			}
		}
		tracks = append(tracks, platform.CaptionTrack{
			Language: language,
			Name:     chosen.Name,
			URL:      chosen.URL,
			Auto:     auto,
		})
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Language < tracks[j].Language })
	return tracks
}
