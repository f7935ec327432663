// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// pageSize is the page length used for paginated listing calls.
	pageSize = 50
	// batchLimit is the maximum ids per batch detail or liked-status call.
	batchLimit = 50
	// mutationLimit is the maximum ids per membership mutation call.
	mutationLimit = 100
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Artists  []SpotifyArtist `json:"artists"`
	Album    SpotifyAlbum    `json:"album"`
	IsLocal  bool            `json:"is_local"`
	URI      string          `json:"uri"`
	Playable *bool           `json:"is_playable,omitempty"`
}

// SpotifyPlaylistItem represents a track within a playlist context.
type SpotifyPlaylistItem struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPage is the generic paginated envelope returned by listing endpoints.
type SpotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SnapshotID  string `json:"snapshot_id"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// Authentication uses the OAuth2 authorization-code flow with PKCE, so no
// client secret is required. Requests are throttled by a [rate.Limiter] and
// HTTP 429 responses surface as [shared.ErrRateLimited].
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSpotifyService creates a Spotify catalog client for the given client id
// and redirect URI.
func NewSpotifyService(clientID, redirectURI string) (*SpotifyService, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing Spotify client_id", shared.ErrMissingCredentials)
	}
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
			"user-library-read",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string { return "Spotify" }

// OAuthConfig exposes the underlying OAuth2 config for the callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config { return s.config }

// AuthURL returns the PKCE authorization URL for the given state and verifier.
func (s *SpotifyService) AuthURL(state, verifier string) string {
	return s.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// SetToken installs an OAuth2 token and a refreshing HTTP client around it.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// Token returns the current token, refreshed if the client has rotated it.
func (s *SpotifyService) Token() *oauth2.Token { return s.token }

// LoadToken reads a cached OAuth2 token from disk. A missing or unreadable
// file yields (nil, nil): the caller simply reauthorizes.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, nil
	}
	return &token, nil
}

// SaveToken writes the OAuth2 token to disk with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return shared.WriteFileAtomic(path, data, 0600)
}

// doRequest performs an authenticated, rate-limited HTTP request against the
// Spotify API, optionally sending a JSON body and decoding a JSON result.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call SetToken first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &models.User{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlists retrieves all of the user's playlists, following pagination.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", pageSize, offset)

		var page SpotifyPage[SpotifySimplePlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, models.Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				SnapshotID:  sp.SnapshotID,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if page.Next == nil {
			break
		}
		offset += pageSize
	}

	return all, nil
}

// PlaylistSnapshot fetches only the playlist's snapshot id.
func (s *SpotifyService) PlaylistSnapshot(ctx context.Context, playlistID string) (string, error) {
	endpoint := fmt.Sprintf("/playlists/%s?fields=snapshot_id", url.PathEscape(playlistID))

	var response struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return "", err
	}
	return response.SnapshotID, nil
}

// PlaylistTracks fetches the playlist's full ordered membership, skipping
// local-only and unplayable entries.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, onPage PageFunc) ([]models.Track, error) {
	var all []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), pageSize, offset)

		var page SpotifyPage[SpotifyPlaylistItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		tracks := parsePlaylistItems(page.Items)
		all = append(all, tracks...)

		fetched := offset + len(page.Items)
		if onPage != nil {
			if err := onPage(tracks, fetched, page.Total); err != nil {
				return nil, err
			}
		}

		if page.Next == nil {
			break
		}
		offset += pageSize
	}

	return all, nil
}

// LikedSnapshot synthesizes a change token for the liked-songs collection
// from its total count and the most recently added timestamp.
func (s *SpotifyService) LikedSnapshot(ctx context.Context) (string, error) {
	var page SpotifyPage[SpotifyPlaylistItem]
	if err := s.doRequest(ctx, http.MethodGet, "/me/tracks?limit=1", nil, &page); err != nil {
		return "", err
	}

	latest := ""
	if len(page.Items) > 0 {
		latest = page.Items[0].AddedAt
	}
	return fmt.Sprintf("total:%d|%s", page.Total, latest), nil
}

// LikedTracks fetches the user's liked songs, newest first.
func (s *SpotifyService) LikedTracks(ctx context.Context, onPage PageFunc) ([]models.Track, error) {
	var all []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", pageSize, offset)

		var page SpotifyPage[SpotifyPlaylistItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		tracks := parsePlaylistItems(page.Items)
		all = append(all, tracks...)

		fetched := offset + len(page.Items)
		if onPage != nil {
			if err := onPage(tracks, fetched, page.Total); err != nil {
				return nil, err
			}
		}

		if page.Next == nil {
			break
		}
		offset += pageSize
	}

	return all, nil
}

// Tracks retrieves full details for a batch of track ids, issuing chunked
// requests of at most 50 ids each.
func (s *SpotifyService) Tracks(ctx context.Context, ids []string) ([]models.Track, error) {
	var all []models.Track

	for start := 0; start < len(ids); start += batchLimit {
		end := min(start+batchLimit, len(ids))
		chunk := ids[start:end]

		endpoint := "/tracks?ids=" + url.QueryEscape(strings.Join(chunk, ","))

		var response struct {
			Tracks []*SpotifyTrack `json:"tracks"`
		}
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
			return nil, err
		}

		for _, st := range response.Tracks {
			if st == nil || st.ID == "" {
				continue
			}
			all = append(all, parseTrack(*st))
		}
	}

	return all, nil
}

// Search returns ranked track matches for a free-text query.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > batchLimit {
		limit = batchLimit
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks SpotifyPage[SpotifyTrack] `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	var tracks []models.Track
	for _, st := range response.Tracks.Items {
		if st.ID == "" {
			continue
		}
		tracks = append(tracks, parseTrack(st))
	}
	return tracks, nil
}

// FindTrackID resolves a query to the first-ranked track id.
func (s *SpotifyService) FindTrackID(ctx context.Context, query string) (string, error) {
	tracks, err := s.Search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w: %q", shared.ErrTrackNotFound, query)
	}
	return tracks[0].ID, nil
}

// AddToPlaylist appends tracks to a playlist in chunks of at most 100.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(trackIDs); start += mutationLimit {
		end := min(start+mutationLimit, len(trackIDs))
		body := map[string]any{"uris": trackURIs(trackIDs[start:end])}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromPlaylist removes all occurrences of the given tracks.
func (s *SpotifyService) RemoveFromPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(trackIDs); start += mutationLimit {
		end := min(start+mutationLimit, len(trackIDs))

		items := make([]map[string]string, 0, end-start)
		for _, uri := range trackURIs(trackIDs[start:end]) {
			items = append(items, map[string]string{"uri": uri})
		}

		body := map[string]any{"tracks": items}
		if err := s.doRequest(ctx, http.MethodDelete, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// ReplacePlaylist replaces the playlist's entire membership. The first chunk
// replaces, subsequent chunks append.
func (s *SpotifyService) ReplacePlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	first := min(mutationLimit, len(trackIDs))
	body := map[string]any{"uris": trackURIs(trackIDs[:first])}
	if err := s.doRequest(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return err
	}

	for start := first; start < len(trackIDs); start += mutationLimit {
		end := min(start+mutationLimit, len(trackIDs))
		body := map[string]any{"uris": trackURIs(trackIDs[start:end])}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreatePlaylist creates a new private playlist for the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string) (*models.Playlist, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(user.ID))
	body := map[string]any{"name": name, "public": false}

	var created SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:         created.ID,
		Name:       created.Name,
		SnapshotID: created.SnapshotID,
		Public:     created.Public,
	}, nil
}

// UnfollowPlaylist removes the playlist from the user's library.
func (s *SpotifyService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// LikedContains reports liked status per id, chunked to the remote limit.
func (s *SpotifyService) LikedContains(ctx context.Context, trackIDs []string) ([]bool, error) {
	var all []bool

	for start := 0; start < len(trackIDs); start += batchLimit {
		end := min(start+batchLimit, len(trackIDs))
		endpoint := "/me/tracks/contains?ids=" + url.QueryEscape(strings.Join(trackIDs[start:end], ","))

		var chunk []bool
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &chunk); err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}

	return all, nil
}

// AddLiked likes the given tracks.
func (s *SpotifyService) AddLiked(ctx context.Context, trackIDs []string) error {
	return s.mutateLiked(ctx, http.MethodPut, trackIDs)
}

// RemoveLiked unlikes the given tracks.
func (s *SpotifyService) RemoveLiked(ctx context.Context, trackIDs []string) error {
	return s.mutateLiked(ctx, http.MethodDelete, trackIDs)
}

func (s *SpotifyService) mutateLiked(ctx context.Context, method string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += batchLimit {
		end := min(start+batchLimit, len(trackIDs))
		endpoint := "/me/tracks?ids=" + url.QueryEscape(strings.Join(trackIDs[start:end], ","))
		if err := s.doRequest(ctx, method, endpoint, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// parsePlaylistItems extracts displayable tracks from playlist items,
// skipping removed, local-only, and unplayable entries.
func parsePlaylistItems(items []SpotifyPlaylistItem) []models.Track {
	var tracks []models.Track
	for _, item := range items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		if item.IsLocal || item.Track.IsLocal {
			continue
		}
		if item.Track.Playable != nil && !*item.Track.Playable {
			continue
		}
		tracks = append(tracks, parseTrack(*item.Track))
	}
	return tracks
}

func parseTrack(st SpotifyTrack) models.Track {
	names := make([]string, 0, len(st.Artists))
	for _, artist := range st.Artists {
		names = append(names, artist.Name)
	}

	coverURL := ""
	if len(st.Album.Images) > 0 {
		// The last image is the smallest; good enough for table-cell covers.
		coverURL = st.Album.Images[len(st.Album.Images)-1].URL
	}

	return models.Track{
		ID:       st.ID,
		Name:     st.Name,
		Artist:   models.JoinArtists(names),
		Album:    st.Album.Name,
		CoverURL: coverURL,
	}
}

func trackURIs(ids []string) []string {
	uris := make([]string, 0, len(ids))
	for _, id := range ids {
		uris = append(uris, "spotify:track:"+id)
	}
	return uris
}
