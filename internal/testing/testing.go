// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
)

// MockCatalog is a test double for [services.Catalog]. Behavior is supplied
// per test through the function fields; unset fields return zero values.
// Call counters record how often each remote operation was hit so tests can
// assert that cached paths stay off the network.
type MockCatalog struct {
	CurrentUserFunc        func(ctx context.Context) (*models.User, error)
	PlaylistsFunc          func(ctx context.Context) ([]models.Playlist, error)
	PlaylistSnapshotFunc   func(ctx context.Context, playlistID string) (string, error)
	PlaylistTracksFunc     func(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error)
	LikedSnapshotFunc      func(ctx context.Context) (string, error)
	LikedTracksFunc        func(ctx context.Context, onPage services.PageFunc) ([]models.Track, error)
	TracksFunc             func(ctx context.Context, ids []string) ([]models.Track, error)
	SearchFunc             func(ctx context.Context, query string, limit int) ([]models.Track, error)
	FindTrackIDFunc        func(ctx context.Context, query string) (string, error)
	AddToPlaylistFunc      func(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveFromPlaylistFunc func(ctx context.Context, playlistID string, trackIDs []string) error
	ReplacePlaylistFunc    func(ctx context.Context, playlistID string, trackIDs []string) error
	CreatePlaylistFunc     func(ctx context.Context, name string) (*models.Playlist, error)
	UnfollowPlaylistFunc   func(ctx context.Context, playlistID string) error
	LikedContainsFunc      func(ctx context.Context, trackIDs []string) ([]bool, error)
	AddLikedFunc           func(ctx context.Context, trackIDs []string) error
	RemoveLikedFunc        func(ctx context.Context, trackIDs []string) error

	SnapshotCalls int
	TracksCalls   int
	ReplaceCalls  int
	Replaced      []string
}

func (m *MockCatalog) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx)
	}
	return &models.User{ID: "mock-user"}, nil
}

func (m *MockCatalog) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalog) PlaylistSnapshot(ctx context.Context, playlistID string) (string, error) {
	m.SnapshotCalls++
	if m.PlaylistSnapshotFunc != nil {
		return m.PlaylistSnapshotFunc(ctx, playlistID)
	}
	return "", nil
}

func (m *MockCatalog) PlaylistTracks(ctx context.Context, playlistID string, onPage services.PageFunc) ([]models.Track, error) {
	m.TracksCalls++
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, playlistID, onPage)
	}
	return nil, nil
}

func (m *MockCatalog) LikedSnapshot(ctx context.Context) (string, error) {
	m.SnapshotCalls++
	if m.LikedSnapshotFunc != nil {
		return m.LikedSnapshotFunc(ctx)
	}
	return "", nil
}

func (m *MockCatalog) LikedTracks(ctx context.Context, onPage services.PageFunc) ([]models.Track, error) {
	m.TracksCalls++
	if m.LikedTracksFunc != nil {
		return m.LikedTracksFunc(ctx, onPage)
	}
	return nil, nil
}

func (m *MockCatalog) Tracks(ctx context.Context, ids []string) ([]models.Track, error) {
	if m.TracksFunc != nil {
		return m.TracksFunc(ctx, ids)
	}
	return nil, nil
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

func (m *MockCatalog) FindTrackID(ctx context.Context, query string) (string, error) {
	if m.FindTrackIDFunc != nil {
		return m.FindTrackIDFunc(ctx, query)
	}
	return "", nil
}

func (m *MockCatalog) AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddToPlaylistFunc != nil {
		return m.AddToPlaylistFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockCatalog) RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.RemoveFromPlaylistFunc != nil {
		return m.RemoveFromPlaylistFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockCatalog) ReplacePlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	m.ReplaceCalls++
	m.Replaced = trackIDs
	if m.ReplacePlaylistFunc != nil {
		return m.ReplacePlaylistFunc(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name)
	}
	return &models.Playlist{ID: "mock-playlist", Name: name}, nil
}

func (m *MockCatalog) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if m.UnfollowPlaylistFunc != nil {
		return m.UnfollowPlaylistFunc(ctx, playlistID)
	}
	return nil
}

func (m *MockCatalog) LikedContains(ctx context.Context, trackIDs []string) ([]bool, error) {
	if m.LikedContainsFunc != nil {
		return m.LikedContainsFunc(ctx, trackIDs)
	}
	return make([]bool, len(trackIDs)), nil
}

func (m *MockCatalog) AddLiked(ctx context.Context, trackIDs []string) error {
	if m.AddLikedFunc != nil {
		return m.AddLikedFunc(ctx, trackIDs)
	}
	return nil
}

func (m *MockCatalog) RemoveLiked(ctx context.Context, trackIDs []string) error {
	if m.RemoveLikedFunc != nil {
		return m.RemoveLikedFunc(ctx, trackIDs)
	}
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockRecommender is a test double for [services.Recommender].
type MockRecommender struct {
	FromPromptFunc func(ctx context.Context, prompt, model string, count int) ([]string, error)
	FromTracksFunc func(ctx context.Context, tracks []models.Track, refinement, model string, count int) ([]string, error)
	ModelsFunc     func(ctx context.Context, showAll bool) ([]string, error)
}

func (m *MockRecommender) FromPrompt(ctx context.Context, prompt, model string, count int) ([]string, error) {
	if m.FromPromptFunc != nil {
		return m.FromPromptFunc(ctx, prompt, model, count)
	}
	return nil, nil
}

func (m *MockRecommender) FromTracks(ctx context.Context, tracks []models.Track, refinement, model string, count int) ([]string, error) {
	if m.FromTracksFunc != nil {
		return m.FromTracksFunc(ctx, tracks, refinement, model, count)
	}
	return nil, nil
}

func (m *MockRecommender) Models(ctx context.Context, showAll bool) ([]string, error) {
	if m.ModelsFunc != nil {
		return m.ModelsFunc(ctx, showAll)
	}
	return nil, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

var _ io.Writer = (*FWriter)(nil)
var _ services.Catalog = (*MockCatalog)(nil)
var _ services.Recommender = (*MockRecommender)(nil)
