package main

import (
	"context"
	"fmt"

	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints the user's playlists.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	playlists, err := r.catalog.Playlists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}
	for _, pl := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", pl.ID, pl.Name, pl.TrackCount)
	}
	return r.writePlain("\n%d playlists\n", len(playlists))
}

// PlaylistCreate creates a new private playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	playlist, err := r.catalog.CreatePlaylist(ctx, name)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created '%s' (%s)\n", playlist.Name, playlist.ID)
}

// PlaylistDelete removes a playlist from the user's library and drops its
// cache entry.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.catalog.UnfollowPlaylist(ctx, id); err != nil {
		return err
	}
	r.store.Invalidate(id)
	return r.writePlain("✓ Removed playlist %s\n", id)
}

// PlaylistRemoveTracks removes all occurrences of the given tracks from a
// playlist and drops its cache entry. Liked songs go through 'like remove'.
func (r *Runner) PlaylistRemoveTracks(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if id == "liked" || id == cache.LikedPlaylistID {
		return fmt.Errorf("%w: use 'like remove' for liked songs", shared.ErrInvalidArgument)
	}
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.catalog.RemoveFromPlaylist(ctx, id, ids); err != nil {
		return err
	}
	r.store.Invalidate(id)
	return r.writePlain("✓ Removed %d tracks from %s\n", len(ids), id)
}

// resolvePlaylistID maps the "liked" shorthand to the pseudo-playlist id.
func resolvePlaylistID(id string) string {
	if id == "liked" {
		return cache.LikedPlaylistID
	}
	return id
}

// Tracks shows a playlist's tracks, resolved through the snapshot cache.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	id := resolvePlaylistID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if cmd.Bool("refresh") {
		r.reconciler.Invalidate(id)
	}

	tracks, hit, err := r.reconciler.Resolve(ctx, id, func(page []models.Track, fetched, total int) error {
		r.logger.Infof("fetched %d/%d tracks", fetched, total)
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	if hit {
		r.logger.Debug("served from cache")
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	for i, track := range tracks {
		r.writePlain("%d. %s\n", i+1, track.Display())
	}
	return r.writePlain("\n%d tracks\n", len(tracks))
}

// Dedupe removes duplicate tracks from a playlist.
func (r *Runner) Dedupe(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if id == "liked" || id == cache.LikedPlaylistID {
		return fmt.Errorf("%w: liked songs cannot contain duplicates", shared.ErrInvalidArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	removed, err := r.deduper.Dedupe(ctx, id, func(page []models.Track, fetched, total int) error {
		r.logger.Infof("scanned %d/%d tracks", fetched, total)
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return r.writePlain("No duplicates found\n")
	}
	r.store.Invalidate(id)
	return r.writePlain("✓ Removed %d duplicate tracks\n", removed)
}

// Search prints ranked track matches for a query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	tracks, err := r.catalog.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(tracks, false)
	}
	for _, track := range tracks {
		r.writePlain("%s  %s\n", track.ID, track.Display())
	}
	return nil
}
