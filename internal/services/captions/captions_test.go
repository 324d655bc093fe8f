package captions

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"solocollect/internal/platform"
	"solocollect/internal/transcripts"
)

const sampleJSON3 = `{"events":[
	{"tStartMs":0,"dDurationMs":2400,"segs":[{"utf8":"안녕하세요 "},{"utf8":"여러분"}]},
	{"tStartMs":2400,"dDurationMs":1000},
	{"tStartMs":3400,"dDurationMs":1800,"segs":[{"utf8":"\n"}]},
	{"tStartMs":5200,"dDurationMs":2000,"segs":[{"utf8":"반갑습니다"}]}
]}`

func TestFetchParsesJSON3(t *testing.T) {
	var gotFmt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFmt = r.URL.Query().Get("fmt")
		w.Write([]byte(sampleJSON3))
	}))
	defer server.Close()

	source := NewHTTP(WithHTTPClient(server.Client()))
	segments, err := source.Fetch(context.Background(), platform.CaptionTrack{
		Language: "ko",
		URL:      server.URL + "/api/timedtext?lang=ko",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotFmt != "json3" {
		t.Fatalf("expected fmt=json3 forced on request, got %q", gotFmt)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segments), segments)
	}
	if segments[0].Text != "안녕하세요 여러분" || segments[0].Start != 0 || segments[0].Duration != 2.4 {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Text != "반갑습니다" || segments[1].Start != 5.2 {
		t.Fatalf("unexpected second segment: %+v", segments[1])
	}
}

func TestFetchStatusClassification(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, "", transcripts.ErrNoTranscript},
		{"forbidden", http.StatusForbidden, "", transcripts.ErrTranscriptsDisabled},
		{"empty body", http.StatusOK, "  ", transcripts.ErrNoTranscript},
		{"no events", http.StatusOK, `{"events":[]}`, transcripts.ErrNoTranscript},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			source := NewHTTP(WithHTTPClient(server.Client()))
			_, err := source.Fetch(context.Background(), platform.CaptionTrack{URL: server.URL})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFetchUpstreamErrorKeepsStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := NewHTTP(WithHTTPClient(server.Client()))
	_, err := source.Fetch(context.Background(), platform.CaptionTrack{URL: server.URL})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if errors.Is(err, transcripts.ErrNoTranscript) || errors.Is(err, transcripts.ErrTranscriptsDisabled) {
		t.Fatalf("503 must not map to a sentinel: %v", err)
	}
}

func TestFetchRequiresURL(t *testing.T) {
	source := NewHTTP()
	_, err := source.Fetch(context.Background(), platform.CaptionTrack{Language: "ko"})
	if !errors.Is(err, transcripts.ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript for blank URL, got %v", err)
	}
}
