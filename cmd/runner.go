package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	spotify     *services.SpotifyService
	catalog     services.Catalog
	recommender services.Recommender
	logger      *log.Logger
	output      io.Writer

	store      *cache.Store
	reconciler *cache.Reconciler
	deduper    *cache.Deduper
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Spotify     *services.SpotifyService
	Catalog     services.Catalog
	Recommender services.Recommender
	Logger      *log.Logger
	Output      io.Writer
	Store       *cache.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Catalog == nil && opts.Spotify != nil {
		opts.Catalog = opts.Spotify
	}
	if opts.Store == nil {
		path, err := opts.Config.CachePath()
		if err != nil {
			path = filepath.Join(os.TempDir(), "spindle-cache.json")
		}
		opts.Store = cache.Open(path, opts.Logger)
	}

	return &Runner{
		config:      opts.Config,
		spotify:     opts.Spotify,
		catalog:     opts.Catalog,
		recommender: opts.Recommender,
		logger:      opts.Logger,
		output:      opts.Output,
		store:       opts.Store,
		reconciler:  cache.NewReconciler(opts.Catalog, opts.Store, opts.Logger),
		deduper:     cache.NewDeduper(opts.Catalog, opts.Logger),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, configCommand, playlistsCommand, tracksCommand, searchCommand,
		dedupeCommand, likeCommand, importCommand, exportCommand, aiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// tokenPath is where the OAuth token is cached between runs.
func (r *Runner) tokenPath() (string, error) {
	dir, err := shared.UserDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token.json"), nil
}

// requireAuth installs the cached token on the Spotify client. Commands
// that talk to the catalog call this first. A catalog injected without a
// Spotify client manages its own auth.
func (r *Runner) requireAuth(ctx context.Context) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: spotify client_id missing from config", shared.ErrMissingCredentials)
	}
	if r.spotify == nil {
		return nil
	}
	if r.spotify.Token() != nil {
		return nil
	}
	path, err := r.tokenPath()
	if err != nil {
		return err
	}
	token, err := services.LoadToken(path)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("%w: run 'spindle auth login' first", shared.ErrNotAuthenticated)
	}
	r.spotify.SetToken(ctx, token)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
