package cache

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	mocks "github.com/spindleapp/spindle/internal/testing"
)

func TestUnique(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"duplicates", []string{"A", "B", "A", "C", "B"}, []string{"A", "B", "C"}},
		{"none", []string{"A", "B", "C"}, []string{"A", "B", "C"}},
		{"all same", []string{"A", "A", "A"}, []string{"A"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unique(tt.ids); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unique(%v) = %v, want %v", tt.ids, got, tt.want)
			}
		})
	}
}

func TestDedupeRemovesDuplicates(t *testing.T) {
	remote := []models.Track{
		{ID: "A"}, {ID: "B"}, {ID: "A"}, {ID: "C"}, {ID: "B"},
	}
	catalog := &mocks.MockCatalog{PlaylistTracksFunc: serveTracks(remote)}
	deduper := NewDeduper(catalog, shared.NewLogger(os.Stderr))

	removed, err := deduper.Dedupe(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(catalog.Replaced, want) {
		t.Errorf("replaced with %v, want %v", catalog.Replaced, want)
	}
}

func TestDedupeNoDuplicatesSkipsReplace(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistTracksFunc: serveTracks([]models.Track{{ID: "A"}, {ID: "B"}}),
	}
	deduper := NewDeduper(catalog, shared.NewLogger(os.Stderr))

	removed, err := deduper.Dedupe(context.Background(), "p1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if catalog.ReplaceCalls != 0 {
		t.Error("clean playlist must not be rewritten")
	}
}

func TestDedupeAbortedFetchSkipsReplace(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistTracksFunc: serveTracks([]models.Track{{ID: "A"}, {ID: "A"}}),
	}
	deduper := NewDeduper(catalog, shared.NewLogger(os.Stderr))

	_, err := deduper.Dedupe(context.Background(), "p1", func(page []models.Track, fetched, total int) error {
		return shared.ErrInterrupted
	})
	if !errors.Is(err, shared.ErrInterrupted) {
		t.Fatalf("err = %v, want ErrInterrupted", err)
	}
	if catalog.ReplaceCalls != 0 {
		t.Error("aborted fetch must never rewrite the playlist")
	}
}

func TestDedupeReplaceError(t *testing.T) {
	catalog := &mocks.MockCatalog{
		PlaylistTracksFunc: serveTracks([]models.Track{{ID: "A"}, {ID: "A"}}),
		ReplacePlaylistFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
			return shared.ErrAPIRequest
		},
	}
	deduper := NewDeduper(catalog, shared.NewLogger(os.Stderr))

	if _, err := deduper.Dedupe(context.Background(), "p1", nil); !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("err = %v, want ErrAPIRequest", err)
	}
}
