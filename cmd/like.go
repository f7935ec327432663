package main

import (
	"context"
	"fmt"

	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// LikeAdd likes the given tracks and drops the liked-songs cache entry.
func (r *Runner) LikeAdd(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.catalog.AddLiked(ctx, ids); err != nil {
		return err
	}
	r.store.Invalidate(cache.LikedPlaylistID)
	return r.writePlain("✓ Liked %d tracks\n", len(ids))
}

// LikeRemove unlikes the given tracks and drops the liked-songs cache entry.
func (r *Runner) LikeRemove(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.catalog.RemoveLiked(ctx, ids); err != nil {
		return err
	}
	r.store.Invalidate(cache.LikedPlaylistID)
	return r.writePlain("✓ Unliked %d tracks\n", len(ids))
}

// LikeStatus prints liked status per track id.
func (r *Runner) LikeStatus(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringArgs("ids")
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	liked, err := r.catalog.LikedContains(ctx, ids)
	if err != nil {
		return err
	}
	// Detail lookup is best effort; bare ids still print without it.
	details := map[string]models.Track{}
	if tracks, err := r.catalog.Tracks(ctx, ids); err == nil {
		for _, track := range tracks {
			details[track.ID] = track
		}
	} else {
		r.logger.Warnf("track details unavailable: %v", err)
	}
	for i, id := range ids {
		mark := "✗"
		if i < len(liked) && liked[i] {
			mark = "✓"
		}
		label := id
		if track, ok := details[id]; ok {
			label = fmt.Sprintf("%s  %s", id, track.Display())
		}
		r.writePlain("%s %s\n", mark, label)
	}
	return nil
}
