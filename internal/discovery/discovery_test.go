package discovery_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"solocollect/internal/discovery"
	"solocollect/internal/platform"
	"solocollect/internal/store"
	"solocollect/internal/testsupport"
)

type fakeClient struct {
	playlists       []platform.Playlist
	playlistEntries map[string][]platform.Entry
	uploads         []platform.Entry
	searchResults   map[string][]platform.Entry
	searchErr       error

	searchQueries []string
}

func (f *fakeClient) Playlists(ctx context.Context, channelURL string) ([]platform.Playlist, error) {
	return f.playlists, nil
}

func (f *fakeClient) PlaylistEntries(ctx context.Context, playlistURL string) ([]platform.Entry, error) {
	entries, ok := f.playlistEntries[playlistURL]
	if !ok {
		return nil, errors.New("unknown playlist")
	}
	return entries, nil
}

func (f *fakeClient) ChannelUploads(ctx context.Context, channelURL string) ([]platform.Entry, error) {
	return f.uploads, nil
}

func (f *fakeClient) Search(ctx context.Context, query string, limit int) ([]platform.Entry, error) {
	f.searchQueries = append(f.searchQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[query], nil
}

func (f *fakeClient) VideoDetail(ctx context.Context, videoID string) (*platform.VideoDetail, error) {
	return nil, errors.New("not implemented")
}

func TestAuthoritativeCombinesPlaylistsAndUploads(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		playlists: []platform.Playlist{
			{PlaylistID: "PL26", Title: "나는 SOLO 26기 정주행", URL: "https://yt/PL26"},
			{PlaylistID: "PL10", Title: "나는 SOLO 10기 정주행", URL: "https://yt/PL10"},
			{PlaylistID: "PLmisc", Title: "촬영 비하인드 모음", URL: "https://yt/PLmisc"},
		},
		playlistEntries: map[string][]platform.Entry{
			"https://yt/PL26": {
				{VideoID: "pl-1", Title: "[나는 SOLO] 26기 1화"},
				{VideoID: "pl-2", Title: "솔로나라 스페셜 영상"},
			},
		},
		uploads: []platform.Entry{
			{VideoID: "up-1", Title: "[나는 SOLO] 26기 2화", ChannelID: cfg.Channel.ID},
			{VideoID: "up-2", Title: "[나는 SOLO] 12기 1화", ChannelID: cfg.Channel.ID},
			{VideoID: "up-3", Title: "공지사항", ChannelID: cfg.Channel.ID},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Authoritative(context.Background(), []int{26})
	if err != nil {
		t.Fatalf("Authoritative: %v", err)
	}

	ids := map[string]discovery.Candidate{}
	for _, c := range candidates {
		ids[c.VideoID] = c
	}
	if len(ids) != 3 {
		t.Fatalf("expected pl-1, pl-2, up-1, got %v", ids)
	}
	if _, found := ids["up-2"]; found {
		t.Fatal("season 12 upload must not appear for a season-26 run")
	}

	fromPlaylist := ids["pl-2"]
	if fromPlaylist.Source != store.SourceOfficialPlaylist {
		t.Fatalf("expected playlist source, got %s", fromPlaylist.Source)
	}
	if fromPlaylist.Season != 26 {
		t.Fatalf("playlist season hint not applied: %+v", fromPlaylist)
	}
	if fromPlaylist.Priority != store.PriorityOfficial || !fromPlaylist.Official {
		t.Fatalf("playlist candidates must be official: %+v", fromPlaylist)
	}

	episode := ids["pl-1"]
	if episode.Episode != 1 {
		t.Fatalf("expected episode parsed from title, got %+v", episode)
	}

	upload := ids["up-1"]
	if upload.Source != store.SourceOfficialChannel || upload.Season != 26 || upload.Episode != 2 {
		t.Fatalf("unexpected upload candidate: %+v", upload)
	}
}

func TestAuthoritativePlaylistSeasonPinsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		playlists: []platform.Playlist{
			{PlaylistID: "PL11", Title: "나는 SOLO 11기 정주행", URL: "https://yt/PL11"},
		},
		playlistEntries: map[string][]platform.Entry{
			"https://yt/PL11": {
				{VideoID: "stray", Title: "[나는 SOLO] 12기 하이라이트"},
			},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Authoritative(context.Background(), []int{11})
	if err != nil {
		t.Fatalf("Authoritative: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	// The playlist it was found in decides the season; enrichment rejects it
	// later if the full metadata disagrees.
	if candidates[0].Season != 11 {
		t.Fatalf("playlist season must pin the entry, got %+v", candidates[0])
	}
}

func TestAuthoritativeUploadsFilterNonEpisodic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		uploads: []platform.Entry{
			{VideoID: "episode", Title: "[나는 SOLO] 26기 2화", ChannelID: cfg.Channel.ID},
			{VideoID: "live", Title: "[나는 SOLO] 26기 라이브 특집", ChannelID: cfg.Channel.ID},
			{VideoID: "press", Title: "[나는 SOLO] 26기 기자회견 풀영상", ChannelID: cfg.Channel.ID},
			{VideoID: "desc-marker", Title: "솔로나라 최신 업로드", Description: "나는 SOLO 26기 3화 본편입니다", ChannelID: cfg.Channel.ID},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Authoritative(context.Background(), []int{26})
	if err != nil {
		t.Fatalf("Authoritative: %v", err)
	}

	ids := map[string]discovery.Candidate{}
	for _, c := range candidates {
		ids[c.VideoID] = c
	}
	if _, found := ids["live"]; found {
		t.Fatal("live uploads must not become episode candidates")
	}
	if _, found := ids["press"]; found {
		t.Fatal("press uploads must not become episode candidates")
	}
	if _, found := ids["episode"]; !found {
		t.Fatalf("regular episode missing: %v", ids)
	}
	// A season marker that lives only in the description still counts.
	fromDescription, found := ids["desc-marker"]
	if !found {
		t.Fatalf("description-marked upload missing: %v", ids)
	}
	if fromDescription.Season != 26 {
		t.Fatalf("season should parse from the description, got %+v", fromDescription)
	}
}

func TestFallbackAcceptanceGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		searchResults: map[string][]platform.Entry{
			"나는 SOLO 11기": {
				{VideoID: "hit-1", Title: "나는 SOLO 11기 3화 하이라이트"},
				{VideoID: "wrong-season", Title: "나는 SOLO 12기 1화"},
				{VideoID: "no-keyword", Title: "11기 소개팅 프로그램 정리"},
				{VideoID: "hit-2", Title: "나는솔로 11기 7화"},
			},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Fallback(context.Background(), []int{11})
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}

	if len(client.searchQueries) != 1 || client.searchQueries[0] != "나는 SOLO 11기" {
		t.Fatalf("unexpected search queries: %v", client.searchQueries)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 accepted candidates, got %d: %+v", len(candidates), candidates)
	}
	for _, c := range candidates {
		if c.Season != 11 {
			t.Fatalf("accepted candidate with wrong season: %+v", c)
		}
		if c.Source != store.SourceGeneralSearch || c.Official {
			t.Fatalf("fallback hits must be unofficial search results: %+v", c)
		}
		if c.Priority != store.PrioritySearch {
			t.Fatalf("unexpected priority: %+v", c)
		}
	}
}

func TestFallbackGateReadsDescriptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		searchResults: map[string][]platform.Entry{
			"나는 SOLO 11기": {
				{VideoID: "titled", Title: "11기 영식 결정의 순간", Description: "나솔 11기 명장면 모음"},
				{VideoID: "still-noise", Title: "화제의 소개팅 영상", Description: "설명 없음"},
			},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Fallback(context.Background(), []int{11})
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if len(candidates) != 1 || candidates[0].VideoID != "titled" {
		t.Fatalf("keyword in the description should satisfy the gate, got %+v", candidates)
	}
}

func TestFallbackSearchErrorSkipsSeason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{searchErr: errors.New("HTTP 500")}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Fallback(context.Background(), []int{10, 11})
	if err != nil {
		t.Fatalf("Fallback should not abort on a per-season search error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
	if len(client.searchQueries) != 2 {
		t.Fatalf("both seasons should be attempted, got %v", client.searchQueries)
	}
}

func TestFallbackMarksOfficialChannelHits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{
		searchResults: map[string][]platform.Entry{
			"나는 SOLO 9기": {
				{VideoID: "official-hit", Title: "나는 SOLO 9기 1화", ChannelID: cfg.Channel.ID},
			},
		},
	}

	d := discovery.New(client, cfg, nil)
	candidates, err := d.Fallback(context.Background(), []int{9})
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if !candidates[0].Official || candidates[0].Priority != store.PriorityOfficial {
		t.Fatalf("search hit from the official channel should rank official: %+v", candidates[0])
	}
}

func TestCandidateDedupeKey(t *testing.T) {
	episode := discovery.Candidate{
		Entry:   platform.Entry{Title: "[나는 SOLO] 26기 5화"},
		Season:  26,
		Episode: 5,
	}
	if got := episode.DedupeKey(); got != "s26:e005" {
		t.Fatalf("unexpected key: %q", got)
	}

	special := discovery.Candidate{
		Entry:  platform.Entry{Title: "[나는 SOLO] 26기 스페셜", UploadDate: "20250110"},
		Season: 26,
	}
	key := special.DedupeKey()
	if !strings.HasPrefix(key, "s26:d2025-01-10:") {
		t.Fatalf("unexpected coarse key: %q", key)
	}
}
