package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchSnapshot
	FetchTracks
	FetchCovers
	MatchTracks
	ApplyChanges
	Deduplicate
	Generate
	Export
	Import
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchSnapshot:
		return "fetch_snapshot"
	case FetchTracks:
		return "fetch_tracks"
	case FetchCovers:
		return "fetch_covers"
	case MatchTracks:
		return "match_tracks"
	case ApplyChanges:
		return "apply_changes"
	case Deduplicate:
		return "deduplicate"
	case Generate:
		return "generate"
	case Export:
		return "export"
	case Import:
		return "import"
	default:
		return ""
	}
}

// TrackFetchUpdate reports paginated membership fetch progress.
func TrackFetchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks (%d/%d)...", step, total),
	}
}

// CoverFetchUpdate reports album art download progress.
func CoverFetchUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCovers,
		Step:    step,
		Total:   total,
		Message: "Fetching covers...",
	}
}

// MatchUpdate reports per-query track resolution progress.
func MatchUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Matching %q (%d/%d)...", query, step, total),
	}
}

// DedupeUpdate reports duplicate scan progress.
func DedupeUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deduplicate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Scanning for duplicates (%d/%d)...", step, total),
	}
}

// GenerateUpdate reports AI suggestion progress.
func GenerateUpdate(message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Generate,
		Message: message,
	}
}

// ApplyUpdate reports playlist mutation progress.
func ApplyUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyChanges,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Applying changes (%d/%d)...", step, total),
	}
}
