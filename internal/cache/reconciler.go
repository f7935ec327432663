package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
)

// LikedPlaylistID is the synthetic id of the liked-songs pseudo-playlist.
// It never collides with real playlist ids, which are base62.
const LikedPlaylistID = "liked_songs"

// Reconciler decides, per playlist request, whether the cached membership
// can be trusted or must be refetched, comparing the stored snapshot token
// against a freshly fetched one.
type Reconciler struct {
	catalog services.Catalog
	store   *Store
	logger  *log.Logger
}

// NewReconciler wires a reconciler over the given catalog and store.
func NewReconciler(catalog services.Catalog, store *Store, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{catalog: catalog, store: store, logger: logger}
}

// Resolve returns the playlist's displayable track list.
//
// The current snapshot token is always fetched (a cheap metadata call). If
// the cached entry carries the same token the list is assembled purely from
// memory and hit is true; ids whose records have gone missing are skipped
// rather than failing the view. Otherwise membership is refetched page by
// page: each page's track records are merged into the store immediately
// (they are independently valid facts, safe to keep on cancellation), the
// onPage callback observes progress and may abort, and the playlist entry
// is overwritten only once the full fetch has succeeded.
func (r *Reconciler) Resolve(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, bool, error) {
	snapshot, err := r.snapshot(ctx, playlistID)
	if err != nil {
		return nil, false, err
	}

	if entry, ok := r.store.Playlist(playlistID); ok && entry.SnapshotID == snapshot {
		r.logger.Debugf("cache hit: %s@%s", playlistID, snapshot)
		return r.assemble(entry.TrackIDs), true, nil
	}

	r.logger.Debugf("cache miss: %s@%s", playlistID, snapshot)

	tracks, err := r.fetch(ctx, playlistID, func(page []models.Track, fetched, total int) error {
		r.store.PutTracks(page)
		if onPage != nil {
			return onPage(page, fetched, total)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	ids := make([]string, 0, len(tracks))
	for _, track := range tracks {
		ids = append(ids, track.ID)
	}
	r.store.PutPlaylist(playlistID, Entry{SnapshotID: snapshot, TrackIDs: ids})

	return r.assemble(ids), false, nil
}

// Invalidate drops the playlist's cache entry.
func (r *Reconciler) Invalidate(playlistID string) {
	r.store.Invalidate(playlistID)
}

func (r *Reconciler) snapshot(ctx context.Context, playlistID string) (string, error) {
	if playlistID == LikedPlaylistID {
		return r.catalog.LikedSnapshot(ctx)
	}
	return r.catalog.PlaylistSnapshot(ctx, playlistID)
}

func (r *Reconciler) fetch(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
	if playlistID == LikedPlaylistID {
		return r.catalog.LikedTracks(ctx, onPage)
	}
	return r.catalog.PlaylistTracks(ctx, playlistID, onPage)
}

// assemble maps ids through the track store, skipping absent records. A
// playlist whose tracks have all vanished yields an empty list, not an
// error.
func (r *Reconciler) assemble(ids []string) []models.Track {
	tracks := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		if track, ok := r.store.Track(id); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks
}
