package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	tu "github.com/spindleapp/spindle/internal/testing"
	"github.com/urfave/cli/v3"
)

func testApp(t *testing.T, catalog services.Catalog) (*Runner, *bytes.Buffer, *cli.Command) {
	t.Helper()
	output := &bytes.Buffer{}
	store := cache.Open(filepath.Join(t.TempDir(), "cache.json"), shared.NewLogger(os.Stderr))
	runner := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Catalog: catalog,
		Logger:  shared.NewLogger(os.Stderr),
		Output:  output,
		Store:   store,
	})
	app := &cli.Command{
		Name:     "spindle",
		Commands: runner.register(),
	}
	return runner, output, app
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := &tu.MockCatalog{}
			store := cache.Open(filepath.Join(t.TempDir(), "cache.json"), logger)

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Catalog: catalog,
				Store:   store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.reconciler == nil || runner.deduper == nil {
				t.Error("expected cache components to be built")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			store := cache.Open(filepath.Join(t.TempDir(), "cache.json"), shared.NewLogger(nil))
			runner := NewRunner(RunnerOpts{Store: store})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			store := cache.Open(filepath.Join(t.TempDir(), "cache.json"), shared.NewLogger(nil))
			runner := NewRunner(RunnerOpts{Store: store})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})
}

func TestDedupeCommand(t *testing.T) {
	catalog := &tu.MockCatalog{
		PlaylistTracksFunc: func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
			return []models.Track{{ID: "A"}, {ID: "B"}, {ID: "A"}}, nil
		},
	}
	runner, output, app := testApp(t, catalog)
	runner.store.PutPlaylist("p1", cache.Entry{SnapshotID: "s1", TrackIDs: []string{"A", "B", "A"}})

	if err := app.Run(context.Background(), []string{"spindle", "dedupe", "p1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "Removed 1 duplicate") {
		t.Errorf("output = %q", output.String())
	}
	if catalog.ReplaceCalls != 1 {
		t.Errorf("replace calls = %d", catalog.ReplaceCalls)
	}
	// Mutation drops the cached entry.
	if _, ok := runner.store.Playlist("p1"); ok {
		t.Error("expected cache entry invalidated")
	}
}

func TestDedupeCommandRefusesLiked(t *testing.T) {
	_, _, app := testApp(t, &tu.MockCatalog{})
	err := app.Run(context.Background(), []string{"spindle", "dedupe", "liked"})
	if err == nil {
		t.Fatal("expected error for liked songs")
	}
}

func TestTracksCommandUsesCache(t *testing.T) {
	catalog := &tu.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
			tracks := []models.Track{{ID: "t1", Name: "One", Artist: "A"}}
			if onPage != nil {
				if err := onPage(tracks, 1, 1); err != nil {
					return nil, err
				}
			}
			return tracks, nil
		},
	}
	_, output, app := testApp(t, catalog)

	if err := app.Run(context.Background(), []string{"spindle", "tracks", "p1"}); err != nil {
		t.Fatal(err)
	}
	if err := app.Run(context.Background(), []string{"spindle", "tracks", "p1"}); err != nil {
		t.Fatal(err)
	}
	if catalog.TracksCalls != 1 {
		t.Errorf("membership fetched %d times, want 1 (second run cached)", catalog.TracksCalls)
	}
	if !strings.Contains(output.String(), "A - One") {
		t.Errorf("output = %q", output.String())
	}
}

func TestLikeStatusCommand(t *testing.T) {
	catalog := &tu.MockCatalog{
		LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
			return []bool{true, false}, nil
		},
		TracksFunc: func(ctx context.Context, ids []string) ([]models.Track, error) {
			// t2 is unknown to the catalog and gets no detail line.
			return []models.Track{{ID: "t1", Name: "One", Artist: "A"}}, nil
		},
	}
	_, output, app := testApp(t, catalog)

	if err := app.Run(context.Background(), []string{"spindle", "like", "status", "t1", "t2"}); err != nil {
		t.Fatal(err)
	}
	got := output.String()
	if !strings.Contains(got, "✓ t1  A - One") || !strings.Contains(got, "✗ t2") {
		t.Errorf("output = %q", got)
	}
}

func TestLikeStatusCommandDetailsBestEffort(t *testing.T) {
	catalog := &tu.MockCatalog{
		LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
			return []bool{true}, nil
		},
		TracksFunc: func(ctx context.Context, ids []string) ([]models.Track, error) {
			return nil, shared.ErrAPIRequest
		},
	}
	_, output, app := testApp(t, catalog)

	if err := app.Run(context.Background(), []string{"spindle", "like", "status", "t1"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "✓ t1") {
		t.Errorf("output = %q", output.String())
	}
}

func TestPlaylistRemoveCommand(t *testing.T) {
	var removed []string
	catalog := &tu.MockCatalog{
		RemoveFromPlaylistFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
			if playlistID != "p1" {
				t.Errorf("playlist = %q", playlistID)
			}
			removed = trackIDs
			return nil
		},
	}
	runner, output, app := testApp(t, catalog)
	runner.store.PutPlaylist("p1", cache.Entry{SnapshotID: "s1", TrackIDs: []string{"t1", "t2", "t3"}})

	if err := app.Run(context.Background(), []string{"spindle", "playlists", "remove", "p1", "t1", "t2"}); err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 || removed[0] != "t1" || removed[1] != "t2" {
		t.Errorf("removed = %v", removed)
	}
	if !strings.Contains(output.String(), "Removed 2 tracks") {
		t.Errorf("output = %q", output.String())
	}
	// Mutation drops the cached entry.
	if _, ok := runner.store.Playlist("p1"); ok {
		t.Error("expected cache entry invalidated")
	}
}

func TestPlaylistRemoveCommandRefusesLiked(t *testing.T) {
	_, _, app := testApp(t, &tu.MockCatalog{})
	err := app.Run(context.Background(), []string{"spindle", "playlists", "remove", "liked", "t1"})
	if err == nil {
		t.Fatal("expected error for liked songs")
	}
}

func TestAISimilarCommand(t *testing.T) {
	catalog := &tu.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
			tracks := []models.Track{{ID: "t1", Name: "One", Artist: "A"}, {ID: "t2", Name: "Two", Artist: "B"}}
			if onPage != nil {
				if err := onPage(tracks, len(tracks), len(tracks)); err != nil {
					return nil, err
				}
			}
			return tracks, nil
		},
	}
	runner, output, app := testApp(t, catalog)

	var gotRefine string
	runner.recommender = &tu.MockRecommender{
		FromTracksFunc: func(ctx context.Context, tracks []models.Track, refinement, model string, count int) ([]string, error) {
			if len(tracks) != 2 {
				t.Errorf("recommender got %d tracks, want 2", len(tracks))
			}
			gotRefine = refinement
			return []string{"C - Three"}, nil
		},
	}

	if err := app.Run(context.Background(), []string{"spindle", "ai", "similar", "--refine", "more synths", "p1"}); err != nil {
		t.Fatal(err)
	}
	if gotRefine != "more synths" {
		t.Errorf("refinement = %q", gotRefine)
	}
	if !strings.Contains(output.String(), "1. C - Three") {
		t.Errorf("output = %q", output.String())
	}
}

func TestImportCommand(t *testing.T) {
	catalog := &tu.MockCatalog{
		FindTrackIDFunc: func(ctx context.Context, query string) (string, error) {
			if query == "Queen - Bohemian Rhapsody" {
				return "q1", nil
			}
			return "", shared.ErrTrackNotFound
		},
		AddToPlaylistFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
			if len(trackIDs) != 2 {
				t.Errorf("added %v, want direct id and matched id", trackIDs)
			}
			return nil
		},
	}
	_, output, app := testApp(t, catalog)

	path := filepath.Join(t.TempDir(), "mix.csv")
	csv := "id,title,artist\ndirect1,,\n,Bohemian Rhapsody,Queen\n,Unknown Song,Nobody\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := app.Run(context.Background(), []string{"spindle", "import", "--playlist", "p1", path}); err != nil {
		t.Fatal(err)
	}
	got := output.String()
	if !strings.Contains(got, "Added 2 tracks") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "Nobody - Unknown Song") {
		t.Errorf("output should list the failed match, got %q", got)
	}
}

func TestExportCommand(t *testing.T) {
	catalog := &tu.MockCatalog{
		PlaylistSnapshotFunc: func(ctx context.Context, playlistID string) (string, error) {
			return "s1", nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
			tracks := []models.Track{{ID: "t1", Name: "One", Artist: "A", Album: "X"}}
			if onPage != nil {
				if err := onPage(tracks, len(tracks), len(tracks)); err != nil {
					return nil, err
				}
			}
			return tracks, nil
		},
	}
	_, _, app := testApp(t, catalog)

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := app.Run(context.Background(), []string{"spindle", "export", "--format", "csv", "-o", out, "p1"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "t1,One,A,X") {
		t.Errorf("export = %q", data)
	}
}

func TestConfigShowCommand(t *testing.T) {
	_, output, app := testApp(t, &tu.MockCatalog{})
	if err := app.Run(context.Background(), []string{"spindle", "config", "show", "--pretty"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(output.String(), "Credentials") {
		t.Errorf("output = %q", output.String())
	}
}
