package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spindleapp/spindle/internal/formatter"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// Import parses a track file, resolves entries against the catalog, and
// adds them to the target playlist (or a newly created one).
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	queries, err := formatter.ParseFile(path, data)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return fmt.Errorf("%w: no importable entries in %s", shared.ErrInvalidInput, path)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	ids, failed := r.resolveQueries(ctx, queries)
	if len(ids) == 0 {
		return fmt.Errorf("%w: no entries could be resolved", shared.ErrTrackNotFound)
	}

	playlistID := cmd.String("playlist")
	created := false
	if playlistID == "" {
		name := cmd.String("name")
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		playlist, err := r.catalog.CreatePlaylist(ctx, name)
		if err != nil {
			return err
		}
		playlistID = playlist.ID
		created = true
		r.writePlain("✓ Created '%s' (%s)\n", playlist.Name, playlist.ID)
	}

	if cmd.Bool("skip-duplicates") {
		ids = r.filterDuplicates(ctx, playlistID, created, ids)
		if len(ids) == 0 {
			return r.writePlain("Nothing to add, all tracks already present\n")
		}
	}

	if err := r.catalog.AddToPlaylist(ctx, playlistID, ids); err != nil {
		return err
	}
	r.store.Invalidate(playlistID)

	r.writePlain("✓ Added %d tracks to %s\n", len(ids), playlistID)
	if len(failed) > 0 {
		r.writePlain("\n%d entries could not be matched:\n", len(failed))
		for _, query := range failed {
			r.writePlain("  • %s\n", query)
		}
	}
	return nil
}

// resolveQueries maps import queries to track ids, returning unresolved
// query texts separately. One bad row never fails the import.
func (r *Runner) resolveQueries(ctx context.Context, queries []formatter.Query) (ids []string, failed []string) {
	for i, query := range queries {
		if query.ID != "" {
			ids = append(ids, query.ID)
			continue
		}
		r.logger.Infof("matching %q (%d/%d)", query.Text, i+1, len(queries))
		id, err := r.catalog.FindTrackID(ctx, query.Text)
		if err != nil {
			if errors.Is(err, shared.ErrTrackNotFound) {
				failed = append(failed, query.Text)
				continue
			}
			failed = append(failed, query.Text)
			r.logger.Warnf("match failed for %q: %v", query.Text, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, failed
}

// filterDuplicates drops ids duplicated within the import and, for an
// existing target, ids already in the playlist. Membership comes from a
// fresh remote fetch. On fetch failure the unfiltered list is returned, the
// import degrades to plain append.
func (r *Runner) filterDuplicates(ctx context.Context, playlistID string, created bool, ids []string) []string {
	existing := make(map[string]struct{})
	if !created {
		tracks, err := r.catalog.PlaylistTracks(ctx, playlistID, nil)
		if err != nil {
			r.logger.Warnf("duplicate check skipped: %v", err)
			return ids
		}
		for _, track := range tracks {
			existing[track.ID] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(ids))
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, id)
	}
	return filtered
}

// Export writes a playlist's tracks to a file in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	id := resolvePlaylistID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	tracks, _, err := r.reconciler.Resolve(ctx, id, func(page []models.Track, fetched, total int) error {
		r.logger.Infof("fetched %d/%d tracks", fetched, total)
		return ctx.Err()
	})
	if err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	var data []byte
	switch format {
	case "csv":
		data, err = formatter.ExportToCSV(tracks)
	case "json":
		data, err = formatter.ExportToJSON(tracks)
	case "txt", "text":
		data, err = formatter.ExportToText(id, tracks)
		format = "txt"
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = fmt.Sprintf("%s.%s", id, format)
	}
	if err := shared.WriteFileAtomic(output, data, 0o644); err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), output)
}
