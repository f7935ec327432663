package ui

import (
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/tasks"
)

// playlistsFetchedMsg delivers the sidebar contents.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// taskResultMsg delivers the terminal outcome of a runner task.
type taskResultMsg tasks.Result

// progressUpdateMsg delivers a progress event from the active task.
type progressUpdateMsg tasks.ProgressUpdate
