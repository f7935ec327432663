package cache

import (
	"encoding/json"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
)

// Entry is the last known state of one playlist's membership. It is valid
// exactly while SnapshotID equals the playlist's current remote token;
// staleness is never judged by age.
type Entry struct {
	SnapshotID string   `json:"snapshot_id"`
	TrackIDs   []string `json:"track_ids"`
}

// persisted is the single on-disk record holding both cache tiers.
type persisted struct {
	Playlists map[string]Entry        `json:"playlists"`
	Tracks    map[string]models.Track `json:"tracks"`
}

// Store is the two-tier in-memory cache: playlist id → membership entry,
// and track id → track record. Track records are shared by every entry that
// references their id.
//
// Store performs no locking. Callers serialize mutation through the task
// runner's single-flight discipline.
type Store struct {
	path      string
	playlists map[string]Entry
	tracks    map[string]models.Track
	logger    *log.Logger
}

// Open creates a Store persisted at path and loads any previous state.
// A missing or unreadable file is treated as a cold cache, never an error.
func Open(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{
		path:      path,
		playlists: make(map[string]Entry),
		tracks:    make(map[string]models.Track),
		logger:    logger,
	}
	s.load()
	return s
}

// load reads the persisted record, failing soft: corrupt or absent data
// leaves both maps empty.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("cache unreadable, starting cold: %v", err)
		}
		return
	}

	var record persisted
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warnf("cache corrupt, starting cold: %v", err)
		return
	}

	if record.Playlists != nil {
		s.playlists = record.Playlists
	}
	if record.Tracks != nil {
		s.tracks = record.Tracks
	}
	s.logger.Debugf("cache loaded: %d playlists, %d tracks", len(s.playlists), len(s.tracks))
}

// Save serializes both tiers into the single on-disk record. Failure is
// logged and swallowed: losing the cache only means a cold start next run.
func (s *Store) Save() {
	record := persisted{Playlists: s.playlists, Tracks: s.tracks}

	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Warnf("cache not saved: %v", err)
		return
	}

	if err := shared.WriteFileAtomic(s.path, data, 0644); err != nil {
		s.logger.Warnf("cache not saved: %v", err)
	}
}

// Playlist returns the cached entry for a playlist, if any.
func (s *Store) Playlist(playlistID string) (Entry, bool) {
	entry, ok := s.playlists[playlistID]
	return entry, ok
}

// PutPlaylist stores or overwrites a playlist entry.
func (s *Store) PutPlaylist(playlistID string, entry Entry) {
	s.playlists[playlistID] = entry
}

// Invalidate drops a playlist entry. Called after every local mutation of
// that playlist: the client cannot predict the token the mutation produced,
// so the pessimistic drop forces a truthful refetch on the next view.
func (s *Store) Invalidate(playlistID string) {
	delete(s.playlists, playlistID)
}

// Track returns one track record.
func (s *Store) Track(id string) (models.Track, bool) {
	track, ok := s.tracks[id]
	return track, ok
}

// Tracks maps ids to known track records; missing ids are simply absent
// from the result.
func (s *Store) Tracks(ids []string) map[string]models.Track {
	found := make(map[string]models.Track, len(ids))
	for _, id := range ids {
		if track, ok := s.tracks[id]; ok {
			found[id] = track
		}
	}
	return found
}

// PutTracks merges track records into the store, overwriting by id.
func (s *Store) PutTracks(tracks []models.Track) {
	for _, track := range tracks {
		if track.ID == "" {
			continue
		}
		if prev, ok := s.tracks[track.ID]; ok && track.CoverPath == "" {
			// Keep an already-downloaded cover when refreshed remote data
			// arrives without one.
			track.CoverPath = prev.CoverPath
		}
		s.tracks[track.ID] = track
	}
}

// SetCoverPath attaches a local cover path to a stored track record,
// leaving every other field untouched.
func (s *Store) SetCoverPath(trackID, path string) bool {
	track, ok := s.tracks[trackID]
	if !ok {
		return false
	}
	track.CoverPath = path
	s.tracks[trackID] = track
	return true
}

// Len reports the current sizes of both tiers.
func (s *Store) Len() (playlists, tracks int) {
	return len(s.playlists), len(s.tracks)
}
