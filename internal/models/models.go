package models

import "strings"

// Track represents one song as known locally.
//
// CoverPath is the only mutable field: it is set once the cover fetcher has
// downloaded the asset referenced by CoverURL.
type Track struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	CoverURL  string `json:"cover_url,omitempty"`
	CoverPath string `json:"cover_path,omitempty"`
}

// Display returns the conventional "Artist - Name" rendering of a track.
func (t Track) Display() string {
	return t.Artist + " - " + t.Name
}

// JoinArtists joins multiple artist names into the single display string
// stored on a Track.
func JoinArtists(names []string) string {
	return strings.Join(names, ", ")
}

// Playlist represents a playlist's remote metadata.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SnapshotID  string `json:"snapshot_id,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// User represents the authenticated user's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
