package testsupport

import (
	"context"
	"testing"

	"solocollect/internal/config"
	"solocollect/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewVideo inserts a minimal video record for tests and returns it.
func NewVideo(t testing.TB, st *store.Store, videoID, title string, season, episode int) *store.Video {
	t.Helper()

	video := &store.Video{
		VideoID:        videoID,
		Title:          title,
		Season:         season,
		Episode:        episode,
		Source:         store.SourceOfficialChannel,
		IsOfficial:     true,
		SourcePriority: store.PriorityOfficial,
	}
	if err := st.UpsertVideo(context.Background(), video); err != nil {
		t.Fatalf("store.UpsertVideo: %v", err)
	}
	return video
}
