package main

import (
	"context"
	"fmt"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// model resolves the model override, falling back to the configured one.
func (r *Runner) model(cmd *cli.Command) string {
	if m := cmd.String("model"); m != "" {
		return m
	}
	return r.config.Credentials.Gemini.Model
}

func (r *Runner) requireRecommender() error {
	if r.recommender == nil {
		return fmt.Errorf("%w: gemini api_key missing from config", shared.ErrMissingCredentials)
	}
	return nil
}

// AISuggest prints track suggestions for a prompt.
func (r *Runner) AISuggest(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}
	if err := r.requireRecommender(); err != nil {
		return err
	}

	lines, err := r.recommender.FromPrompt(ctx, prompt, r.model(cmd), int(cmd.Int("count")))
	if err != nil {
		return err
	}
	for i, line := range lines {
		r.writePlain("%d. %s\n", i+1, line)
	}
	return nil
}

// AISimilar prints suggestions that fit an existing playlist, optionally
// steered by a refinement prompt. The track list is resolved through the
// snapshot cache.
func (r *Runner) AISimilar(ctx context.Context, cmd *cli.Command) error {
	id := resolvePlaylistID(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	if err := r.requireRecommender(); err != nil {
		return err
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
	if len(tracks) == 0 {
		return fmt.Errorf("%w: playlist is empty", shared.ErrInvalidArgument)
	}

	lines, err := r.recommender.FromTracks(ctx, tracks, cmd.String("refine"), r.model(cmd), int(cmd.Int("count")))
	if err != nil {
		return err
	}
	for i, line := range lines {
		r.writePlain("%d. %s\n", i+1, line)
	}
	return nil
}

// AIBuild generates suggestions, resolves them to tracks, and creates a
// playlist from the matches.
func (r *Runner) AIBuild(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}
	if err := r.requireRecommender(); err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	lines, err := r.recommender.FromPrompt(ctx, prompt, r.model(cmd), int(cmd.Int("count")))
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: recommender returned no suggestions", shared.ErrInvalidInput)
	}

	var ids []string
	var failed []string
	for i, line := range lines {
		r.logger.Infof("matching %q (%d/%d)", line, i+1, len(lines))
		id, err := r.catalog.FindTrackID(ctx, line)
		if err != nil {
			failed = append(failed, line)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no suggestions could be matched", shared.ErrTrackNotFound)
	}

	playlist, err := r.catalog.CreatePlaylist(ctx, cmd.String("name"))
	if err != nil {
		return err
	}
	if err := r.catalog.AddToPlaylist(ctx, playlist.ID, ids); err != nil {
		return err
	}
	r.store.Invalidate(playlist.ID)

	r.writePlain("✓ Created '%s' with %d tracks (%s)\n", playlist.Name, len(ids), playlist.ID)
	if len(failed) > 0 {
		r.writePlain("\n%d suggestions could not be matched:\n", len(failed))
		for _, line := range failed {
			r.writePlain("  • %s\n", line)
		}
	}
	return nil
}

// AIModels lists available recommendation models.
func (r *Runner) AIModels(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireRecommender(); err != nil {
		return err
	}
	names, err := r.recommender.Models(ctx, cmd.Bool("all"))
	if err != nil {
		return err
	}
	configured := r.config.Credentials.Gemini.Model
	for _, name := range names {
		if name == configured {
			r.writePlain("* %s\n", name)
			continue
		}
		r.writePlain("  %s\n", name)
	}
	return nil
}
