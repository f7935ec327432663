package services

import (
	"context"

	"github.com/spindleapp/spindle/internal/models"
)

// PageFunc is invoked after each page of a paginated fetch with the page's
// tracks and the cumulative progress (fetched of total). Returning a non-nil
// error aborts the remaining pages and surfaces that error to the caller;
// long-running operations use this to merge partial results, report progress,
// and observe cancellation between pages.
type PageFunc func(page []models.Track, fetched, total int) error

// Catalog defines the remote music catalog operations the application
// depends on. Implemented by [SpotifyService].
type Catalog interface {
	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// Playlists retrieves all of the user's playlists (paginated internally).
	Playlists(ctx context.Context) ([]models.Playlist, error)

	// PlaylistSnapshot fetches only the playlist's current change token.
	// This is the cheap metadata call the cache reconciler compares against.
	PlaylistSnapshot(ctx context.Context, playlistID string) (string, error)

	// PlaylistTracks fetches the playlist's full ordered membership.
	// Order is significant and duplicates are preserved; unplayable and
	// local-only entries are excluded.
	PlaylistTracks(ctx context.Context, playlistID string, onPage PageFunc) ([]models.Track, error)

	// LikedSnapshot synthesizes a change token for the liked-songs
	// collection, which exposes no native snapshot id.
	LikedSnapshot(ctx context.Context) (string, error)

	// LikedTracks fetches the user's liked songs, newest first.
	LikedTracks(ctx context.Context, onPage PageFunc) ([]models.Track, error)

	// Tracks retrieves full details for a batch of track ids, chunking
	// requests to the remote limit. Unknown ids are omitted from the result.
	Tracks(ctx context.Context, ids []string) ([]models.Track, error)

	// Search returns ranked track matches for a free-text query.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// FindTrackID resolves a single query (typically "Artist - Title") to
	// the best-matching track id.
	FindTrackID(ctx context.Context, query string) (string, error)

	// AddToPlaylist appends tracks to a playlist.
	AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// RemoveFromPlaylist removes all occurrences of the given tracks.
	RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// ReplacePlaylist replaces the playlist's entire membership.
	ReplacePlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// CreatePlaylist creates a new private playlist for the current user.
	CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error)

	// UnfollowPlaylist removes the playlist from the user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// LikedContains reports, per id, whether each track is liked.
	LikedContains(ctx context.Context, trackIDs []string) ([]bool, error)

	// AddLiked likes the given tracks.
	AddLiked(ctx context.Context, trackIDs []string) error

	// RemoveLiked unlikes the given tracks.
	RemoveLiked(ctx context.Context, trackIDs []string) error

	// Name returns the catalog's display name.
	Name() string
}

// Recommender defines the AI recommendation operations.
// Implemented by [GeminiService].
type Recommender interface {
	// FromPrompt generates track suggestions for a free-text description.
	// Each returned line is nominally "Artist - Title".
	FromPrompt(ctx context.Context, prompt, model string, count int) ([]string, error)

	// FromTracks generates suggestions that fit an existing track list,
	// optionally steered by a refinement prompt.
	FromTracks(ctx context.Context, tracks []models.Track, refinement, model string, count int) ([]string, error)

	// Models lists available model identifiers. When showAll is false the
	// list is reduced by an exclusion-keyword heuristic and sorted by
	// family, version, tier, and "latest" priority.
	Models(ctx context.Context, showAll bool) ([]string, error)
}
