// Package transcripts turns a video's advertised caption tracks into a
// stored transcript with a terminal status.
package transcripts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/language"

	"solocollect/internal/parsing"
	"solocollect/internal/platform"
	"solocollect/internal/retry"
	"solocollect/internal/store"
)

// Sentinel outcomes a Source reports. Both map to terminal statuses and
// are never retried.
var (
	ErrNoTranscript        = errors.New("no transcript available")
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
)

const errorMessageLimit = 180

// Source fetches the segments behind one caption track.
type Source interface {
	Fetch(ctx context.Context, track platform.CaptionTrack) ([]store.Segment, error)
}

// Selector picks the best caption track for a set of preferred languages.
// The first preferred language defines the primary family; the remaining
// entries outside that family are secondary.
type Selector struct {
	primary   []language.Tag
	secondary []language.Tag
}

// NewSelector parses the preferred language list. Unparseable entries are
// rejected so a config typo surfaces at startup rather than per video.
func NewSelector(preferred []string) (*Selector, error) {
	if len(preferred) == 0 {
		return nil, errors.New("at least one preferred language is required")
	}
	tags := make([]language.Tag, 0, len(preferred))
	for _, raw := range preferred {
		tag, err := language.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse preferred language %q: %w", raw, err)
		}
		tags = append(tags, tag)
	}

	primaryBase, _ := tags[0].Base()
	selector := &Selector{}
	for _, tag := range tags {
		if base, _ := tag.Base(); base == primaryBase {
			selector.primary = append(selector.primary, tag)
		} else {
			selector.secondary = append(selector.secondary, tag)
		}
	}
	return selector, nil
}

// Select returns the preferred caption track. A manual track in the primary
// language family wins over an auto-generated one there; tracks in the
// secondary languages come next, and the first track available is the last
// resort.
func (s *Selector) Select(manual, auto []platform.CaptionTrack) (platform.CaptionTrack, bool) {
	if track, ok := matchTags(manual, s.primary); ok {
		return track, true
	}
	if track, ok := matchTags(auto, s.primary); ok {
		return track, true
	}
	if track, ok := matchTags(manual, s.secondary); ok {
		return track, true
	}
	if track, ok := matchTags(auto, s.secondary); ok {
		return track, true
	}
	if len(manual) > 0 {
		return manual[0], true
	}
	if len(auto) > 0 {
		return auto[0], true
	}
	return platform.CaptionTrack{}, false
}

func matchTags(tracks []platform.CaptionTrack, wanted []language.Tag) (platform.CaptionTrack, bool) {
	if len(tracks) == 0 || len(wanted) == 0 {
		return platform.CaptionTrack{}, false
	}
	available := make([]language.Tag, 0, len(tracks))
	indexes := make([]int, 0, len(tracks))
	for i, track := range tracks {
		tag, err := language.Parse(track.Language)
		if err != nil {
			continue
		}
		available = append(available, tag)
		indexes = append(indexes, i)
	}
	if len(available) == 0 {
		return platform.CaptionTrack{}, false
	}
	matcher := language.NewMatcher(available)
	_, idx, conf := matcher.Match(wanted...)
	if conf == language.No {
		return platform.CaptionTrack{}, false
	}
	return tracks[indexes[idx]], true
}

// Normalize drops empty caption lines, collapses whitespace, and returns
// the cleaned segments together with the joined text and its content hash.
func Normalize(segments []store.Segment) ([]store.Segment, string, string) {
	cleaned := make([]store.Segment, 0, len(segments))
	lines := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := parsing.CleanSpaces(segment.Text)
		if text == "" {
			continue
		}
		segment.Text = text
		cleaned = append(cleaned, segment)
		lines = append(lines, text)
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		return nil, "", ""
	}
	return cleaned, text, parsing.TranscriptHash(text)
}

// Retriever fetches and classifies transcripts for enriched videos.
type Retriever struct {
	source   Source
	selector *Selector
	policy   retry.Policy
}

// NewRetriever wires a caption source with a language selector and a
// retry policy for transient fetch failures.
func NewRetriever(source Source, selector *Selector, policy retry.Policy) *Retriever {
	return &Retriever{source: source, selector: selector, policy: policy}
}

// Retrieve resolves one video's transcript. The returned Transcript always
// carries a terminal status; fetch failures never abort the caller.
func (r *Retriever) Retrieve(ctx context.Context, detail *platform.VideoDetail) store.Transcript {
	track, ok := r.selector.Select(detail.ManualCaptions, detail.AutoCaptions)
	if !ok {
		return store.Transcript{Status: store.TranscriptMissing}
	}

	var segments []store.Segment
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		fetched, err := r.source.Fetch(ctx, track)
		if err != nil {
			return err
		}
		segments = fetched
		return nil
	})
	if err != nil {
		return classifyError(err)
	}

	cleaned, text, hash := Normalize(segments)
	if text == "" {
		return store.Transcript{Status: store.TranscriptMissing}
	}
	variant := "manual"
	if track.Auto {
		variant = "auto"
	}
	return store.Transcript{
		Status:   store.TranscriptSuccess,
		Language: track.Language,
		Variant:  variant,
		Text:     text,
		Segments: cleaned,
		Hash:     hash,
	}
}

func classifyError(err error) store.Transcript {
	switch {
	case errors.Is(err, ErrTranscriptsDisabled):
		return store.Transcript{Status: store.TranscriptDisabled}
	case errors.Is(err, ErrNoTranscript):
		return store.Transcript{Status: store.TranscriptMissing}
	default:
		return store.Transcript{
			Status:       store.TranscriptError,
			ErrorMessage: TruncateError(err),
		}
	}
}

// TruncateError bounds a fetch error for storage.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	message := err.Error()
	if runes := []rune(message); len(runes) > errorMessageLimit {
		message = string(runes[:errorMessageLimit])
	}
	return message
}

// RandomDelay returns a random duration in [min, max] seconds, used to
// pace transcript fetches. Non-positive bounds disable the delay.
func RandomDelay(minSeconds, maxSeconds float64) time.Duration {
	if maxSeconds <= 0 || maxSeconds < minSeconds {
		return 0
	}
	if minSeconds < 0 {
		minSeconds = 0
	}
	seconds := minSeconds + rand.Float64()*(maxSeconds-minSeconds)
	return time.Duration(seconds * float64(time.Second))
}
