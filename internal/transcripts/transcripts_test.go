package transcripts_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"solocollect/internal/platform"
	"solocollect/internal/retry"
	"solocollect/internal/store"
	"solocollect/internal/transcripts"
)

type stubSource struct {
	segments []store.Segment
	errs     []error
	calls    int
}

func (s *stubSource) Fetch(ctx context.Context, track platform.CaptionTrack) ([]store.Segment, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.segments, nil
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestSelectorPrefersManualPreferredLanguage(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko", "ko-KR", "en"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	manual := []platform.CaptionTrack{
		{Language: "en", Name: "English"},
		{Language: "ko", Name: "Korean"},
	}
	auto := []platform.CaptionTrack{{Language: "ko", Name: "Korean (auto)", Auto: true}}

	track, ok := selector.Select(manual, auto)
	if !ok {
		t.Fatal("expected a track")
	}
	if track.Language != "ko" || track.Auto {
		t.Fatalf("expected manual Korean track, got %+v", track)
	}
}

func TestSelectorFallsBackToAutoThenAnyManual(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	// No manual Korean; auto Korean wins over manual Japanese.
	track, ok := selector.Select(
		[]platform.CaptionTrack{{Language: "ja"}},
		[]platform.CaptionTrack{{Language: "ko", Auto: true}},
	)
	if !ok || !track.Auto || track.Language != "ko" {
		t.Fatalf("expected auto Korean track, got %+v ok=%v", track, ok)
	}

	// Nothing in any preferred language: first manual track wins.
	track, ok = selector.Select(
		[]platform.CaptionTrack{{Language: "ja"}, {Language: "fr"}},
		[]platform.CaptionTrack{{Language: "de", Auto: true}},
	)
	if !ok || track.Auto || track.Language != "ja" {
		t.Fatalf("expected first manual track, got %+v ok=%v", track, ok)
	}

	_, ok = selector.Select(nil, nil)
	if ok {
		t.Fatal("expected no track for empty lists")
	}
}

func TestSelectorAutoPrimaryBeatsManualSecondary(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko", "ko-KR", "en", "en-US"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	// An auto-generated Korean track outranks a manual English one: the
	// primary language family wins before the manual/auto distinction.
	track, ok := selector.Select(
		[]platform.CaptionTrack{{Language: "en"}},
		[]platform.CaptionTrack{{Language: "ko", Auto: true}},
	)
	if !ok || !track.Auto || track.Language != "ko" {
		t.Fatalf("expected auto Korean track, got %+v ok=%v", track, ok)
	}

	// With no Korean track at all, the manual English one is next in line.
	track, ok = selector.Select(
		[]platform.CaptionTrack{{Language: "en"}},
		[]platform.CaptionTrack{{Language: "ja", Auto: true}},
	)
	if !ok || track.Auto || track.Language != "en" {
		t.Fatalf("expected manual English track, got %+v ok=%v", track, ok)
	}
}

func TestSelectorRegionalVariantMatches(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko-KR"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	track, ok := selector.Select([]platform.CaptionTrack{{Language: "ko"}}, nil)
	if !ok || track.Language != "ko" {
		t.Fatalf("expected ko track to satisfy ko-KR preference, got %+v ok=%v", track, ok)
	}
}

func TestNewSelectorRejectsBadInput(t *testing.T) {
	if _, err := transcripts.NewSelector(nil); err == nil {
		t.Fatal("expected error for empty language list")
	}
	if _, err := transcripts.NewSelector([]string{"not a language tag"}); err == nil {
		t.Fatal("expected error for unparseable language")
	}
}

func TestNormalizeDropsEmptyAndHashes(t *testing.T) {
	segments := []store.Segment{
		{Start: 0, Duration: 2, Text: "  안녕하세요   여러분  "},
		{Start: 2, Duration: 1, Text: "   "},
		{Start: 3, Duration: 2, Text: "반갑습니다"},
	}
	cleaned, text, hash := transcripts.Normalize(segments)
	if len(cleaned) != 2 {
		t.Fatalf("expected 2 cleaned segments, got %d", len(cleaned))
	}
	if text != "안녕하세요 여러분\n반갑습니다" {
		t.Fatalf("unexpected joined text: %q", text)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	// Formatting-only differences hash identically.
	_, _, again := transcripts.Normalize([]store.Segment{
		{Text: "안녕하세요 여러분"},
		{Text: "반갑습니다!"},
	})
	if hash != again {
		t.Fatalf("hash should ignore punctuation and spacing: %s vs %s", hash, again)
	}

	cleaned, text, hash = transcripts.Normalize([]store.Segment{{Text: "   "}})
	if cleaned != nil || text != "" || hash != "" {
		t.Fatal("expected empty normalization result")
	}
}

func detailWithTrack() *platform.VideoDetail {
	return &platform.VideoDetail{
		VideoID:        "vid-1",
		ManualCaptions: []platform.CaptionTrack{{Language: "ko", URL: "https://example.com/tt"}},
	}
}

func TestRetrieveSuccess(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	source := &stubSource{segments: []store.Segment{{Start: 0, Duration: 2, Text: "첫 만남"}}}
	retriever := transcripts.NewRetriever(source, selector, fastPolicy(3))

	result := retriever.Retrieve(context.Background(), detailWithTrack())
	if result.Status != store.TranscriptSuccess {
		t.Fatalf("expected success, got %s (%s)", result.Status, result.ErrorMessage)
	}
	if result.Language != "ko" || result.Variant != "manual" {
		t.Fatalf("unexpected variant info: %+v", result)
	}
	if result.Text != "첫 만남" || result.Hash == "" {
		t.Fatalf("unexpected text/hash: %+v", result)
	}
}

func TestRetrieveRetriesTransientErrors(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	source := &stubSource{
		segments: []store.Segment{{Text: "내용"}},
		errs:     []error{errors.New("HTTP 503 service unavailable")},
	}
	retriever := transcripts.NewRetriever(source, selector, fastPolicy(3))

	result := retriever.Retrieve(context.Background(), detailWithTrack())
	if result.Status != store.TranscriptSuccess {
		t.Fatalf("expected success after retry, got %s (%s)", result.Status, result.ErrorMessage)
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 fetch attempts, got %d", source.calls)
	}
}

func TestRetrieveClassifiesSentinels(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	disabled := &stubSource{errs: []error{transcripts.ErrTranscriptsDisabled}}
	result := transcripts.NewRetriever(disabled, selector, fastPolicy(3)).Retrieve(context.Background(), detailWithTrack())
	if result.Status != store.TranscriptDisabled {
		t.Fatalf("expected disabled status, got %s", result.Status)
	}
	if disabled.calls != 1 {
		t.Fatalf("sentinel errors must not be retried, got %d calls", disabled.calls)
	}

	missing := &stubSource{errs: []error{transcripts.ErrNoTranscript}}
	result = transcripts.NewRetriever(missing, selector, fastPolicy(3)).Retrieve(context.Background(), detailWithTrack())
	if result.Status != store.TranscriptMissing {
		t.Fatalf("expected missing status, got %s", result.Status)
	}
}

func TestRetrieveNoTracksIsMissing(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	source := &stubSource{}
	result := transcripts.NewRetriever(source, selector, fastPolicy(3)).Retrieve(context.Background(), &platform.VideoDetail{VideoID: "bare"})
	if result.Status != store.TranscriptMissing {
		t.Fatalf("expected missing status, got %s", result.Status)
	}
	if source.calls != 0 {
		t.Fatal("no fetch should happen without a track")
	}
}

func TestRetrieveTruncatesErrorMessage(t *testing.T) {
	selector, err := transcripts.NewSelector([]string{"ko"})
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	long := errors.New(strings.Repeat("x", 500))
	source := &stubSource{errs: []error{long, long, long}}
	result := transcripts.NewRetriever(source, selector, fastPolicy(3)).Retrieve(context.Background(), detailWithTrack())
	if result.Status != store.TranscriptError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if len([]rune(result.ErrorMessage)) > 180 {
		t.Fatalf("error message not truncated: %d runes", len([]rune(result.ErrorMessage)))
	}
}

func TestRandomDelayBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := transcripts.RandomDelay(2.5, 5.0)
		if d < 2500*time.Millisecond || d > 5*time.Second {
			t.Fatalf("delay out of bounds: %s", d)
		}
	}
	if d := transcripts.RandomDelay(0, 0); d != 0 {
		t.Fatalf("expected zero delay, got %s", d)
	}
	if d := transcripts.RandomDelay(5, 1); d != 0 {
		t.Fatalf("expected zero delay for inverted bounds, got %s", d)
	}
}
