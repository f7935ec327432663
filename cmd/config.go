package main

import (
	"context"
	"path/filepath"

	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes a starter config file under the user dir.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	dir, err := shared.UserDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "config.toml")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlain("✓ Wrote %s\nFill in your Spotify client_id and Gemini api_key.\n", path)
}

// ConfigShow prints the effective configuration.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	return r.writeJSON(r.config, cmd.Bool("pretty"))
}
