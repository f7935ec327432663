package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spindleapp/spindle/internal/cache"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/services"
	"github.com/spindleapp/spindle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	DedupeConfirmView
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	catalog    services.Catalog
	reconciler *cache.Reconciler
	store      *cache.Store
	covers     *cache.CoverFetcher
	deduper    *cache.Deduper
	runner     *tasks.Runner

	width    int
	height   int
	loading  bool
	progress tasks.ProgressUpdate
	status   string
	err      error

	playlistList list.Model
	trackList    list.Model
	playlists    []models.Playlist
	selected     models.Playlist
	tracks       []models.Track

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies. covers
// may be nil to disable album art fetching.
func NewModel(ctx context.Context, catalog services.Catalog, reconciler *cache.Reconciler, store *cache.Store, covers *cache.CoverFetcher, deduper *cache.Deduper, runner *tasks.Runner) *Model {
	return &Model{
		ctx:        ctx,
		view:       PlaylistListView,
		catalog:    catalog,
		reconciler: reconciler,
		store:      store,
		covers:     covers,
		deduper:    deduper,
		runner:     runner,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the playlist sidebar.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPlaylists(), m.waitForResult(), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case DedupeConfirmView:
			return m.handleDedupeConfirmKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		// Liked songs is pinned above the user's real playlists.
		m.playlists = append([]models.Playlist{{ID: cache.LikedPlaylistID, Name: "Liked Songs"}}, msg.playlists...)
		items := make([]list.Item, len(m.playlists))
		for i, pl := range m.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case taskResultMsg:
		return m.handleTaskResult(tasks.Result(msg))
	}

	return m.updateLists(msg)
}

// handleTaskResult routes a runner outcome back into the view state.
// Interrupted tasks were displaced by a newer selection and are dropped
// without comment.
func (m *Model) handleTaskResult(result tasks.Result) (tea.Model, tea.Cmd) {
	if result.Interrupted() {
		return m, m.waitForResult()
	}

	kind, id, _ := strings.Cut(result.Name, ":")
	switch kind {
	case "load":
		m.loading = false
		if result.Err != nil {
			m.err = result.Err
			m.view = PlaylistListView
			return m, m.waitForResult()
		}
		if id != m.selected.ID {
			// Result for a selection the user has already left.
			return m, m.waitForResult()
		}
		m.err = nil
		m.tracks = result.Value.([]models.Track)
		items := make([]list.Item, len(m.tracks))
		for i, track := range m.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", m.selected.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		if m.covers != nil && len(m.tracks) > 0 {
			m.runner.Dispatch(m.coversTask(id, m.tracks))
		}
		return m, m.waitForResult()

	case "covers":
		if result.Err != nil || id != m.selected.ID {
			return m, m.waitForResult()
		}
		m.tracks = result.Value.([]models.Track)
		items := make([]list.Item, len(m.tracks))
		for i, track := range m.tracks {
			items[i] = trackItem{track: track}
		}
		return m, tea.Batch(m.trackList.SetItems(items), m.waitForResult())

	case "dedupe":
		if result.Err != nil {
			m.err = result.Err
			m.loading = false
			return m, m.waitForResult()
		}
		removed := result.Value.(int)
		if removed == 0 {
			m.status = "No duplicates found"
			m.loading = false
			return m, m.waitForResult()
		}
		m.status = fmt.Sprintf("Removed %d duplicate tracks", removed)
		// Reload to show the cleaned playlist.
		m.loading = true
		m.runner.Dispatch(m.loadTask(m.selected))
		return m, m.waitForResult()
	}
	return m, m.waitForResult()
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == PlaylistListView && len(m.playlists) == 0 {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case DedupeConfirmView:
		return m.renderDedupeConfirm()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				return m.openPlaylist(pl.playlist)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "esc":
		m.view = PlaylistListView
		m.status = ""
		m.err = nil
		return m, nil
	case "r":
		// Force a refetch by dropping the cached entry first.
		m.reconciler.Invalidate(m.selected.ID)
		return m.openPlaylist(m.selected)
	case "d":
		if m.selected.ID == cache.LikedPlaylistID {
			m.status = "Liked songs cannot contain duplicates"
			return m, nil
		}
		m.view = DedupeConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDedupeConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = TrackListView
		m.loading = true
		m.status = ""
		m.runner.Dispatch(m.dedupeTask(m.selected.ID))
		return m, nil
	}
	return m, nil
}

// openPlaylist dispatches a load for the selection. A load already in
// flight is displaced by the runner.
func (m *Model) openPlaylist(playlist models.Playlist) (tea.Model, tea.Cmd) {
	m.selected = playlist
	m.loading = true
	m.status = ""
	m.err = nil
	m.progress = tasks.ProgressUpdate{}
	m.runner.Dispatch(m.loadTask(playlist))
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.runner.Cancel()
	return m, tea.Quit
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.catalog.Playlists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

// loadTask resolves the playlist through the cache. Covers are fetched by
// a follow-up task once the track list is already on screen.
func (m *Model) loadTask(playlist models.Playlist) tasks.Task {
	reconciler := m.reconciler
	return tasks.Task{
		Name: "load:" + playlist.ID,
		Run: func(ctx context.Context, check func() error, progress func(tasks.ProgressUpdate)) (any, error) {
			tracks, _, err := reconciler.Resolve(ctx, playlist.ID, func(page []models.Track, fetched, total int) error {
				progress(tasks.TrackFetchUpdate(fetched, total))
				return check()
			})
			if err != nil {
				return nil, err
			}
			return tracks, nil
		},
	}
}

// coversTask downloads album art for the displayed tracks and returns the
// refreshed records. Best effort: only cancellation aborts it, and a newer
// selection displaces it through the runner like any other task.
func (m *Model) coversTask(playlistID string, tracks []models.Track) tasks.Task {
	covers, store := m.covers, m.store
	return tasks.Task{
		Name: "covers:" + playlistID,
		Run: func(ctx context.Context, check func() error, progress func(tasks.ProgressUpdate)) (any, error) {
			progress(tasks.CoverFetchUpdate(0, len(tracks)))
			if err := covers.Fetch(ctx, tracks); err != nil {
				return nil, err
			}
			refreshed := make([]models.Track, len(tracks))
			copy(refreshed, tracks)
			for i, track := range refreshed {
				if updated, ok := store.Track(track.ID); ok {
					refreshed[i] = updated
				}
			}
			return refreshed, nil
		},
	}
}

func (m *Model) dedupeTask(playlistID string) tasks.Task {
	deduper, reconciler := m.deduper, m.reconciler
	return tasks.Task{
		Name: "dedupe:" + playlistID,
		Run: func(ctx context.Context, check func() error, progress func(tasks.ProgressUpdate)) (any, error) {
			removed, err := deduper.Dedupe(ctx, playlistID, func(page []models.Track, fetched, total int) error {
				progress(tasks.DedupeUpdate(fetched, total))
				return check()
			})
			if err != nil {
				return nil, err
			}
			reconciler.Invalidate(playlistID)
			return removed, nil
		},
	}
}

func (m *Model) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return taskResultMsg(<-m.runner.Results())
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		return progressUpdateMsg(<-m.runner.Updates())
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	body := m.playlistList.View()
	if m.loading {
		body = fmt.Sprintf("%s\n\n%s", body, m.progress.Message)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.refresh, m.keys.dedupe, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var lines []string
	if m.loading {
		lines = append(lines, m.progress.Message)
	}
	if m.status != "" {
		lines = append(lines, styles.ok.Render(m.status))
	}
	if m.err != nil {
		lines = append(lines, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	footer := helpView
	if len(lines) > 0 {
		footer = fmt.Sprintf("%s\n%s", strings.Join(lines, "\n"), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), footer)
}

func (m *Model) renderDedupeConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Remove duplicates from '%s'?", m.selected.Name))
	info := fmt.Sprintf("\nKeeps the first occurrence of every track.\nTracks: %d\n", len(m.tracks))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
