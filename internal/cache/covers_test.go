package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
)

func TestCoverFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	store := testStore(t)
	store.PutTracks([]models.Track{
		{ID: "t1", Name: "One", CoverURL: server.URL + "/t1.jpg"},
		{ID: "t2", Name: "Two", CoverURL: server.URL + "/broken.jpg"},
		{ID: "t3", Name: "Three"},
	})

	dir := filepath.Join(t.TempDir(), "covers")
	fetcher := NewCoverFetcher(store, dir, shared.NewLogger(os.Stderr))

	tracks := store.Tracks([]string{"t1", "t2", "t3"})
	if err := fetcher.Fetch(context.Background(), []models.Track{tracks["t1"], tracks["t2"], tracks["t3"]}); err != nil {
		t.Fatal(err)
	}

	t1, _ := store.Track("t1")
	if t1.CoverPath != filepath.Join(dir, "t1.jpg") {
		t.Errorf("t1 cover path = %q", t1.CoverPath)
	}
	if t1.Name != "One" || t1.CoverURL != tracks["t1"].CoverURL {
		t.Errorf("only cover path should change, got %+v", t1)
	}
	data, err := os.ReadFile(t1.CoverPath)
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("cover file = %q, %v", data, err)
	}

	// A failed download is skipped, not fatal.
	t2, _ := store.Track("t2")
	if t2.CoverPath != "" {
		t.Errorf("t2 cover path = %q, want empty after failed fetch", t2.CoverPath)
	}
	// No URL means nothing to do.
	t3, _ := store.Track("t3")
	if t3.CoverPath != "" {
		t.Errorf("t3 cover path = %q", t3.CoverPath)
	}
}

func TestCoverFetcherReusesExistingFile(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	store := testStore(t)
	store.PutTracks([]models.Track{{ID: "t1", CoverURL: server.URL + "/t1.jpg"}})
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "t1.jpg"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	fetcher := NewCoverFetcher(store, dir, shared.NewLogger(os.Stderr))
	track, _ := store.Track("t1")
	if err := fetcher.Fetch(context.Background(), []models.Track{track}); err != nil {
		t.Fatal(err)
	}

	if hits != 0 {
		t.Errorf("server hit %d times, want 0 for an already-present cover", hits)
	}
	t1, _ := store.Track("t1")
	if t1.CoverPath != filepath.Join(dir, "t1.jpg") {
		t.Errorf("cover path = %q", t1.CoverPath)
	}
}

func TestCoverFetcherCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	store := testStore(t)
	store.PutTracks([]models.Track{{ID: "t1", CoverURL: server.URL + "/t1.jpg"}})
	fetcher := NewCoverFetcher(store, t.TempDir(), shared.NewLogger(os.Stderr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	track, _ := store.Track("t1")
	if err := fetcher.Fetch(ctx, []models.Track{track}); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	t1, _ := store.Track("t1")
	if t1.CoverPath != "" {
		t.Error("cancelled fetch should not have downloaded anything")
	}
}
