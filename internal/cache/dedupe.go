package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
)

// Deduper removes duplicate tracks from a playlist by replacing its remote
// contents with the first-occurrence unique reduction. It works from a
// fresh remote fetch, never the cache, so a stale entry can never cause a
// destructive rewrite.
type Deduper struct {
	catalog services.Catalog
	logger  *log.Logger
}

func NewDeduper(catalog services.Catalog, logger *log.Logger) *Deduper {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Deduper{catalog: catalog, logger: logger}
}

// Unique reduces ids to their first occurrences, preserving order.
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// Dedupe fetches the playlist's current membership, computes the unique
// reduction, and replaces the remote playlist when any duplicates exist.
// It returns the number of tracks removed; zero means the playlist was
// untouched. The onPage callback observes fetch progress and may abort.
// The caller is responsible for invalidating any cached entry afterwards.
func (d *Deduper) Dedupe(ctx context.Context, playlistID string, onPage services.PageFunc) (int, error) {
	tracks, err := d.catalog.PlaylistTracks(ctx, playlistID, onPage)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(tracks))
	for _, track := range tracks {
		ids = append(ids, track.ID)
	}
	unique := Unique(ids)
	removed := len(ids) - len(unique)
	if removed == 0 {
		d.logger.Debugf("no duplicates in %s", playlistID)
		return 0, nil
	}

	if err := d.catalog.ReplacePlaylist(ctx, playlistID, unique); err != nil {
		return 0, err
	}
	d.logger.Infof("removed %d duplicate tracks from %s", removed, playlistID)
	return removed, nil
}
