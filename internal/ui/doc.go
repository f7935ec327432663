// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a sidebar-to-table workflow for browsing the library:
//  1. [PlaylistListView] : Browse playlists, with liked songs pinned on top
//  2. [TrackListView] : View a playlist's tracks, refresh, or start a dedupe
//  3. [DedupeConfirmView] : Confirm the duplicate removal
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Playlist loads and dedupes run through the single-flight task runner, so
// selecting a different playlist mid-load displaces the fetch in progress;
// displaced results arrive as interrupted and are dropped silently.
// Progress updates flow through the runner's channels, providing non-blocking
// status reporting during paginated fetches.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
