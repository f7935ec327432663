package cache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
)

const coverFetchTimeout = 10 * time.Second

// CoverFetcher downloads album art to local files so the UI can render
// covers without touching the network on every view. Fetching is strictly
// best effort: a playlist is fully usable with no covers at all.
type CoverFetcher struct {
	store      *Store
	dir        string
	httpClient *http.Client
	logger     *log.Logger
}

// NewCoverFetcher stores covers under dir, creating it on first use.
func NewCoverFetcher(store *Store, dir string, logger *log.Logger) *CoverFetcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CoverFetcher{
		store:      store,
		dir:        dir,
		httpClient: &http.Client{Timeout: coverFetchTimeout},
		logger:     logger,
	}
}

// Fetch downloads covers for every track that has a cover URL but no local
// file yet. Each success is merged into the store immediately so partial
// progress survives cancellation. Individual failures are logged and
// skipped; the only error Fetch returns is the context's, checked between
// tracks so a cancelled run stops promptly.
func (f *CoverFetcher) Fetch(ctx context.Context, tracks []models.Track) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		f.logger.Warnf("cover dir unavailable: %v", err)
		return nil
	}

	for _, track := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if track.CoverURL == "" {
			continue
		}

		path := filepath.Join(f.dir, track.ID+".jpg")
		if _, err := os.Stat(path); err == nil {
			f.store.SetCoverPath(track.ID, path)
			continue
		}

		if err := f.download(ctx, track.CoverURL, path); err != nil {
			f.logger.Debugf("cover fetch failed for %s: %v", track.ID, err)
			continue
		}
		f.store.SetCoverPath(track.ID, path)
	}
	return nil
}

func (f *CoverFetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return shared.WriteFileAtomic(path, data, 0o644)
}
