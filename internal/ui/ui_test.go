package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/spindleapp/spindle/internal/tasks"
	tu "github.com/spindleapp/spindle/internal/testing"
)

func waitResult(t *testing.T, r *tasks.Runner, timeout time.Duration) tasks.Result {
	t.Helper()
	select {
	case result := <-r.Results():
		return result
	case <-time.After(timeout):
		t.Fatal("no task result")
		return tasks.Result{}
	}
}

// The track list must render as soon as the membership is resolved; cover
// downloads happen in a follow-up task and merge in afterwards.
func TestTrackListShownBeforeCoverDownloads(t *testing.T) {
	release := make(chan struct{})
	released := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-release
		w.Write([]byte("cover-bytes"))
	}))
	defer srv.Close()
	defer func() {
		if !released {
			close(release)
		}
	}()

	logger := shared.NewLogger(os.Stderr)
	store := cache.Open(filepath.Join(t.TempDir(), "cache.json"), logger)
	catalog := &tu.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
			tracks := []models.Track{{ID: "t1", Name: "One", Artist: "A", CoverURL: srv.URL + "/t1.jpg"}}
			if onPage != nil {
				if err := onPage(tracks, 1, 1); err != nil {
					return nil, err
				}
			}
			return tracks, nil
		},
	}
	reconciler := cache.NewReconciler(catalog, store, logger)
	covers := cache.NewCoverFetcher(store, t.TempDir(), logger)
	runner := tasks.NewRunner(logger, func() bool { return true })
	defer runner.Shutdown()

	m := NewModel(context.Background(), catalog, reconciler, store, covers, cache.NewDeduper(catalog, logger), runner)
	playlist := models.Playlist{ID: "p1", Name: "Mix"}
	m.selected = playlist
	runner.Dispatch(m.loadTask(playlist))

	// The load result may not wait on the stalled cover server.
	loaded := waitResult(t, runner, time.Second)
	if loaded.Err != nil {
		t.Fatal(loaded.Err)
	}
	if loaded.Name != "load:p1" {
		t.Fatalf("result name = %q", loaded.Name)
	}
	tracks := loaded.Value.([]models.Track)
	if len(tracks) != 1 || tracks[0].CoverPath != "" {
		t.Fatalf("tracks = %+v", tracks)
	}

	// Routing the result dispatches the cover task in the background.
	m.handleTaskResult(loaded)
	if m.view != TrackListView {
		t.Fatalf("view = %v, want track list", m.view)
	}
	select {
	case result := <-runner.Results():
		t.Fatalf("cover task finished before the download completed: %+v", result)
	case <-time.After(100 * time.Millisecond):
	}

	released = true
	close(release)

	fetched := waitResult(t, runner, 2*time.Second)
	if fetched.Name != "covers:p1" {
		t.Fatalf("result name = %q", fetched.Name)
	}
	if fetched.Err != nil {
		t.Fatal(fetched.Err)
	}
	refreshed := fetched.Value.([]models.Track)
	if refreshed[0].CoverPath == "" {
		t.Error("expected cover path set after download")
	}

	m.handleTaskResult(fetched)
	if m.tracks[0].CoverPath == "" {
		t.Error("expected displayed tracks refreshed with cover paths")
	}
}
