// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2 PKCE",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the authenticated user",
				Action: r.AuthStatus,
			},
		},
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create a starter config file",
				Action: r.ConfigInit,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.ConfigShow,
			},
		},
	}
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "create",
				Usage: "Create a new private playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "delete",
				Usage: "Remove a playlist from your library",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.PlaylistDelete,
			},
			{
				Name:  "remove",
				Usage: "Remove tracks from a playlist (all occurrences)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArgs{Name: "ids", Min: 1, Max: -1},
				},
				Action: r.PlaylistRemoveTracks,
			},
		},
	}
}

// tracksCommand shows a playlist's tracks through the cache
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "Show a playlist's tracks (use 'liked' for liked songs)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output"},
			&cli.BoolFlag{Name: "refresh", Usage: "Drop the cached entry first"},
		},
		Action: r.Tracks,
	}
}

// searchCommand searches the catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum results", Value: 10},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Search,
	}
}

// dedupeCommand removes duplicate tracks from a playlist
func dedupeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dedupe",
		Usage: "Remove duplicate tracks, keeping first occurrences",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Dedupe,
	}
}

// likeCommand manages liked songs
func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "like",
		Usage: "Manage liked songs",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Like tracks by id",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "ids", Min: 1, Max: -1},
				},
				Action: r.LikeAdd,
			},
			{
				Name:  "remove",
				Usage: "Unlike tracks by id",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "ids", Min: 1, Max: -1},
				},
				Action: r.LikeRemove,
			},
			{
				Name:  "status",
				Usage: "Show liked status for tracks",
				Arguments: []cli.Argument{
					&cli.StringArgs{Name: "ids", Min: 1, Max: -1},
				},
				Action: r.LikeStatus,
			},
		},
	}
}

// importCommand imports tracks from a file into a playlist
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import tracks from a CSV, JSON, or text file",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Target playlist id (omit to create a new one)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for the created playlist",
			},
			&cli.BoolFlag{
				Name:  "skip-duplicates",
				Usage: "Skip tracks already in the target playlist",
			},
		},
		Action: r.Import,
	}
}

// exportCommand exports a playlist to a file
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a playlist to CSV, JSON, or text",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv, json, or txt",
				Value: "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to <id>.<format>)",
			},
		},
		Action: r.Export,
	}
}

// aiCommand generates playlists and suggestions with the recommender
func aiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "ai",
		Usage: "AI-assisted playlist building",
		Commands: []*cli.Command{
			{
				Name:  "suggest",
				Usage: "Suggest tracks for a prompt",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "prompt"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Usage: "Number of suggestions", Value: 15},
					&cli.StringFlag{Name: "model", Usage: "Model override"},
				},
				Action: r.AISuggest,
			},
			{
				Name:  "similar",
				Usage: "Suggest tracks that fit an existing playlist (use 'liked' for liked songs)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Usage: "Number of suggestions", Value: 15},
					&cli.StringFlag{Name: "model", Usage: "Model override"},
					&cli.StringFlag{Name: "refine", Usage: "Refinement prompt"},
				},
				Action: r.AISimilar,
			},
			{
				Name:  "build",
				Usage: "Build a playlist from a prompt",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "prompt"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Usage: "Number of suggestions", Value: 15},
					&cli.StringFlag{Name: "model", Usage: "Model override"},
					&cli.StringFlag{Name: "name", Usage: "Playlist name", Required: true},
				},
				Action: r.AIBuild,
			},
			{
				Name:  "models",
				Usage: "List available models",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Include filtered models"},
				},
				Action: r.AIModels,
			},
		},
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse your library interactively",
		Action: r.TUI,
	}
}
