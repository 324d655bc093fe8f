// Package captions fetches caption tracks over the timedtext HTTP
// endpoint and converts them into transcript segments.
package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solocollect/internal/platform"
	"solocollect/internal/store"
	"solocollect/internal/transcripts"
)

const maxBodyBytes = 16 << 20

// Option configures the HTTP source.
type Option func(*HTTP)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// HTTP implements transcripts.Source against caption track URLs.
type HTTP struct {
	client *http.Client
}

// NewHTTP constructs an HTTP source using defaults.
func NewHTTP(opts ...Option) *HTTP {
	source := &HTTP{client: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

var _ transcripts.Source = (*HTTP)(nil)

// Fetch downloads one caption track and returns its segments.
func (h *HTTP) Fetch(ctx context.Context, track platform.CaptionTrack) ([]store.Segment, error) {
	if strings.TrimSpace(track.URL) == "" {
		return nil, transcripts.ErrNoTranscript
	}
	trackURL, err := ensureJSON3(track.URL)
	if err != nil {
		return nil, fmt.Errorf("caption track URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build caption request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, transcripts.ErrNoTranscript
	case resp.StatusCode == http.StatusForbidden:
		return nil, transcripts.ErrTranscriptsDisabled
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch captions: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, transcripts.ErrNoTranscript
	}

	segments, err := parseJSON3(body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, transcripts.ErrNoTranscript
	}
	return segments, nil
}

// ensureJSON3 forces the json3 rendition on a timedtext URL.
func ensureJSON3(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	if query.Get("fmt") != "json3" {
		query.Set("fmt", "json3")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

type json3Payload struct {
	Events []json3Event `json:"events"`
}

type json3Event struct {
	StartMs    int64      `json:"tStartMs"`
	DurationMs int64      `json:"dDurationMs"`
	Segs       []json3Seg `json:"segs"`
}

type json3Seg struct {
	UTF8 string `json:"utf8"`
}

func parseJSON3(body []byte) ([]store.Segment, error) {
	var payload json3Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}
	segments := make([]store.Segment, 0, len(payload.Events))
	for _, event := range payload.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		line := strings.TrimSpace(text.String())
		if line == "" {
			continue
		}
		segments = append(segments, store.Segment{
			Start:    float64(event.StartMs) / 1000,
			Duration: float64(event.DurationMs) / 1000,
			Text:     line,
		})
	}
	return segments, nil
}
