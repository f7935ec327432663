package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// configPath returns the first config file that exists: ./config.toml for
// development, otherwise the one under the user dir.
func configPath() string {
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	if dir, err := shared.UserDir(); err == nil {
		return filepath.Join(dir, "config.toml")
	}
	return "config.toml"
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if path := configPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			if loaded, err := shared.LoadConfig(path); err == nil {
				config = loaded
			} else {
				logger.Warnf("ignoring unreadable config: %v", err)
			}
		}
	}

	var spotify *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.RedirectURI); err == nil {
			spotify = svc
		} else {
			logger.Warnf("spotify client unavailable: %v", err)
		}
	}

	var recommender services.Recommender
	if svc, err := services.NewGeminiService(config.Credentials.Gemini.APIKey); err == nil {
		recommender = svc
	}

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Spotify:     spotify,
		Recommender: recommender,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "spindle",
		Usage:    "Manage Spotify playlists with a local snapshot cache",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	runner.store.Save()

	if err != nil {
		if errors.Is(err, shared.ErrInterrupted) {
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
