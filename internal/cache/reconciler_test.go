package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	mocks "github.com/spindleapp/spindle/internal/testing"
)

func serveTracks(tracks []models.Track) func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
	return func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
		if onPage != nil {
			if err := onPage(tracks, len(tracks), len(tracks)); err != nil {
				return nil, err
			}
		}
		return tracks, nil
	}
}

func TestReconcilerMissThenHit(t *testing.T) {
	remote := []models.Track{
		{ID: "t1", Name: "One", Artist: "A"},
		{ID: "t2", Name: "Two", Artist: "B"},
	}
	catalog := &mocks.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
		PlaylistTracksFunc: serveTracks(remote),
	}
	store := testStore(t)
	rec := NewReconciler(catalog, store, shared.NewLogger(os.Stderr))

	tracks, hit, err := rec.Resolve(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first resolve should miss")
	}
	if len(tracks) != 2 || tracks[0].ID != "t1" || tracks[1].ID != "t2" {
		t.Errorf("tracks = %v", tracks)
	}

	// Same token: served from memory, no membership fetch.
	tracks, hit, err = rec.Resolve(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second resolve should hit")
	}
	if len(tracks) != 2 {
		t.Errorf("got %d tracks", len(tracks))
	}
	if catalog.TracksCalls != 1 {
		t.Errorf("membership fetched %d times, want 1", catalog.TracksCalls)
	}
	if catalog.SnapshotCalls != 2 {
		t.Errorf("snapshot fetched %d times, want 2", catalog.SnapshotCalls)
	}
}

func TestReconcilerSnapshotChangeRefetches(t *testing.T) {
	snapshot := "s1"
	remote := []models.Track{{ID: "t1", Name: "One"}, {ID: "t2", Name: "Two"}}
	catalog := &mocks.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return snapshot, nil
		},
	}
	catalog.PlaylistTracksFunc = func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
		return serveTracks(remote)(ctx, playlistID, onPage)
	}
	store := testStore(t)
	rec := NewReconciler(catalog, store, shared.NewLogger(os.Stderr))

	if _, _, err := rec.Resolve(context.Background(), "p1", nil); err != nil {
		t.Fatal(err)
	}

	// Remote edit: t1 removed, t3 appended, token advanced.
	snapshot = "s2"
	remote = []models.Track{{ID: "t2", Name: "Two"}, {ID: "t3", Name: "Three"}}

	tracks, hit, err := rec.Resolve(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("changed token should miss")
	}
	if len(tracks) != 2 || tracks[0].ID != "t2" || tracks[1].ID != "t3" {
		t.Errorf("tracks = %v", tracks)
	}
	if catalog.TracksCalls != 2 {
		t.Errorf("membership fetched %d times, want 2", catalog.TracksCalls)
	}

	// t1's record is stale but harmless; it stays until overwritten.
	if _, ok := store.Track("t1"); !ok {
		t.Error("expected t1 record retained")
	}
}

func TestReconcilerHitSkipsMissingTracks(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
	}
	store := testStore(t)
	store.PutTracks([]models.Track{{ID: "t1", Name: "One"}})
	store.PutPlaylist("p1", Entry{SnapshotID: "s1", TrackIDs: []string{"t1", "ghost", "t1"}})
	rec := NewReconciler(catalog, store, shared.NewLogger(os.Stderr))

	tracks, hit, err := rec.Resolve(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("expected hit")
	}
	if len(tracks) != 2 || tracks[0].ID != "t1" || tracks[1].ID != "t1" {
		t.Errorf("tracks = %v, want ghost skipped and duplicate kept", tracks)
	}
	if catalog.TracksCalls != 0 {
		t.Error("hit path must not fetch membership")
	}
}

func TestReconcilerAbortLeavesEntryStale(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s2", nil
		},
		PlaylistTracksFunc: serveTracks([]models.Track{{ID: "t1"}}),
	}
	store := testStore(t)
	store.PutPlaylist("p1", Entry{SnapshotID: "s1", TrackIDs: []string{"t0"}})
	rec := NewReconciler(catalog, store, shared.NewLogger(os.Stderr))

	_, _, err := rec.Resolve(context.Background(), "p1", func(page []models.Track, fetched, total int) error {
		return shared.ErrInterrupted
	})
	if !errors.Is(err, shared.ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", err)
	}

	// The old entry must survive an aborted refetch untouched.
	entry, ok := store.Playlist("p1")
	if !ok || entry.SnapshotID != "s1" {
		t.Errorf("entry = %+v, ok = %v, want old s1 entry intact", entry, ok)
	}
	// Page merges before the abort are kept.
	if _, ok := store.Track("t1"); !ok {
		t.Error("expected merged track record from the partial fetch")
	}
}

func TestReconcilerLikedSongs(t *testing.T) {
	liked := []models.Track{{ID: "t1", Name: "One"}}
	catalog := &mocks.MockCatalog{
		LikedSnapshotFunc: func(ctx context.Context) (string, error) {
			return "total:1|2024-01-01T00:00:00Z", nil
		},
		LikedTracksFunc: func(ctx context.Context, onPage services.PageFunc) ([]models.Track, error) {
			if onPage != nil {
				if err := onPage(liked, 1, 1); err != nil {
					return nil, err
				}
			}
			return liked, nil
		},
	}
	store := testStore(t)
	rec := NewReconciler(catalog, store, shared.NewLogger(os.Stderr))

	tracks, hit, err := rec.Resolve(context.Background(), LikedPlaylistID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if hit || len(tracks) != 1 {
		t.Fatalf("hit = %v, tracks = %v", hit, tracks)
	}

	if _, hit, _ := rec.Resolve(context.Background(), LikedPlaylistID, nil); !hit {
		t.Error("unchanged synthetic token should hit")
	}
	if catalog.TracksCalls != 1 {
		t.Errorf("liked fetched %d times, want 1", catalog.TracksCalls)
	}
}

func TestReconcilerSnapshotError(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "", shared.ErrOffline
		},
	}
	rec := NewReconciler(catalog, testStore(t), shared.NewLogger(os.Stderr))

	if _, _, err := rec.Resolve(context.Background(), "p1", nil); !errors.Is(err, shared.ErrOffline) {
		t.Fatalf("err = %v, want ErrOffline", err)
	}
}
