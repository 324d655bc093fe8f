// Package platform abstracts the video platform from the pipeline.
// Discovery and enrichment consume the Client interface; the concrete
// yt-dlp backed implementation lives in internal/services/ytdlp.
package platform

import (
	"context"
	"net/url"
	"strings"
)

// Playlist is a curated playlist on a channel.
type Playlist struct {
	PlaylistID string
	Title      string
	URL        string
	ItemCount  int
}

// Entry is a lightweight video reference from a flat listing (playlist,
// uploads tab, or search page). Counts may be zero when the listing does
// not expose them.
type Entry struct {
	VideoID         string
	Title           string
	URL             string
	ChannelTitle    string
	ChannelID       string
	ChannelURL      string
	Description     string
	DurationSeconds int
	UploadDate      string // YYYYMMDD or "" when unknown
	ViewCount       int64
}

// CaptionTrack is one subtitle track advertised for a video.
type CaptionTrack struct {
	Language string
	Name     string
	URL      string
	Auto     bool
}

// VideoDetail is the full metadata record for one video.
type VideoDetail struct {
	VideoID         string
	Title           string
	URL             string
	ChannelTitle    string
	ChannelID       string
	ChannelURL      string
	Description     string
	DurationSeconds int
	DurationText    string
	UploadDate      string // YYYYMMDD
	PublishedTS     int64
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	ManualCaptions  []CaptionTrack
	AutoCaptions    []CaptionTrack
}

// Client enumerates and describes platform content.
type Client interface {
	// Playlists lists the curated playlists of a channel.
	Playlists(ctx context.Context, channelURL string) ([]Playlist, error)
	// PlaylistEntries lists the videos of one playlist.
	PlaylistEntries(ctx context.Context, playlistURL string) ([]Entry, error)
	// ChannelUploads lists the videos on a channel's uploads tab.
	ChannelUploads(ctx context.Context, channelURL string) ([]Entry, error)
	// Search runs a site search and returns up to limit entries.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
	// VideoDetail fetches the full metadata record for one video.
	VideoDetail(ctx context.Context, videoID string) (*VideoDetail, error)
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ChannelURL builds the canonical channel URL for an @handle.
func ChannelURL(handle string) string {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return ""
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	return "https://www.youtube.com/" + handle
}

// VideoIDFromURL extracts the video id from watch, share, shorts, or embed
// URLs. Returns "" when the URL carries no recognizable id.
func VideoIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return firstPathSegment(parsed.Path)
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := parsed.Query().Get("v"); id != "" {
			return id
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(parsed.Path, prefix) {
				return firstPathSegment(strings.TrimPrefix(parsed.Path, prefix))
			}
		}
	}
	return ""
}

func firstPathSegment(path string) string {
	path = strings.Trim(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	return path
}
