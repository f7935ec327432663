// Gemini REST implementation of [Recommender]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is the fallback model when discovery fails or the
	// config names none.
	DefaultGeminiModel = "gemini-2.5-flash"
)

// excludedModelKeywords filters special-purpose model variants out of the
// default model listing.
var excludedModelKeywords = []string{
	"vision", "preview", "exp", "lite", "tts", "thinking", "code", "gemma",
}

var modelVersionPattern = regexp.MustCompile(`(\d\.\d|\d)`)

// GeminiService implements [Recommender] over the Gemini REST API.
type GeminiService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiService creates a recommendation client with the given API key.
func NewGeminiService(apiKey string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini api_key", shared.ErrMissingCredentials)
	}

	return &GeminiService{
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type geminiContent struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiModel struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type geminiModelsResponse struct {
	Models []geminiModel `json:"models"`
}

// FromPrompt generates track suggestions for a free-text description.
func (g *GeminiService) FromPrompt(ctx context.Context, prompt, model string, count int) ([]string, error) {
	if count <= 0 {
		count = 15
	}

	full := fmt.Sprintf(
		"You are a music expert and DJ. Based on the user's request, recommend a list of %d tracks. "+
			"Respond with a plain list where every line has the format 'Artist - Title'. "+
			"Do not add numbering, headers, or any other commentary. Just the list.\n\nUser request: %q",
		count, prompt)

	return g.generate(ctx, full, model)
}

// FromTracks generates suggestions that fit an existing track list.
func (g *GeminiService) FromTracks(ctx context.Context, tracks []models.Track, refinement, model string, count int) ([]string, error) {
	if count <= 0 {
		count = 15
	}

	var sb strings.Builder
	for _, track := range tracks {
		sb.WriteString(track.Display())
		sb.WriteString("\n")
	}

	full := fmt.Sprintf(
		"You are a music recommendation engine. I will give you the tracks of a playlist. "+
			"Analyze them and suggest %d NEW, DIFFERENT tracks that would fit this playlist well. "+
			"Do not include songs from the provided list. "+
			"Respond with a plain list in the format 'Artist - Title'. "+
			"Do not add numbering, headers, or commentary.\n\n",
		count)
	if refinement != "" {
		full += fmt.Sprintf("Additional direction from the user: %q\n\n", refinement)
	}
	full += "Playlist tracks:\n" + sb.String()

	return g.generate(ctx, full, model)
}

// generate sends a generateContent request and splits the response into
// trimmed, non-empty lines.
func (g *GeminiService) generate(ctx context.Context, prompt, model string) ([]string, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: gemini", shared.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gemini API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var decoded geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty gemini response", shared.ErrAPIRequest)
	}

	var lines []string
	for _, raw := range strings.Split(decoded.Candidates[0].Content.Parts[0].Text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Models lists generateContent-capable model identifiers.
//
// With showAll false, special-purpose variants and pinned numbered versions
// are filtered out, and the remainder is sorted by family, version
// (descending), tier, and "latest" priority.
func (g *GeminiService) Models(ctx context.Context, showAll bool) ([]string, error) {
	endpoint := fmt.Sprintf("%s/models?key=%s", g.baseURL, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gemini API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var decoded geminiModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var names []string
	for _, m := range decoded.Models {
		supported := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}
		parts := strings.Split(m.Name, "/")
		names = append(names, parts[len(parts)-1])
	}

	if !showAll {
		names = FilterModels(names)
	}

	SortModels(names)
	return names, nil
}

// FilterModels removes special-purpose variants and pinned numbered versions
// (a trailing "-NNN" suffix) from a model list.
func FilterModels(names []string) []string {
	var kept []string
	for _, name := range names {
		excluded := false
		for _, keyword := range excludedModelKeywords {
			if strings.Contains(name, keyword) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		if isPinnedVersion(name) {
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

// isPinnedVersion reports whether the name ends in a "-NNN" build suffix,
// e.g. "gemini-1.5-pro-002".
func isPinnedVersion(name string) bool {
	if len(name) < 4 {
		return false
	}
	tail := name[len(name)-4:]
	if tail[0] != '-' {
		return false
	}
	_, err := strconv.Atoi(tail[1:])
	return err == nil
}

// SortModels orders model names by family (gemini first), version
// descending, tier (pro before flash), and "latest" markers first.
func SortModels(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return modelSortKey(names[i]).less(modelSortKey(names[j]))
	})
}

type modelKey struct {
	family  int
	version float64
	tier    int
	latest  int
}

func (k modelKey) less(other modelKey) bool {
	if k.family != other.family {
		return k.family < other.family
	}
	if k.version != other.version {
		return k.version > other.version
	}
	if k.tier != other.tier {
		return k.tier < other.tier
	}
	return k.latest < other.latest
}

func modelSortKey(name string) modelKey {
	key := modelKey{family: 2, tier: 2, latest: 1}

	if strings.Contains(name, "gemini") {
		key.family = 0
	} else if strings.Contains(name, "gemma") {
		key.family = 1
	}

	if strings.Contains(name, "pro") {
		key.tier = 0
	} else if strings.Contains(name, "flash") {
		key.tier = 1
	}

	if strings.Contains(name, "latest") {
		key.latest = 0
	}

	if match := modelVersionPattern.FindString(name); match != "" {
		if v, err := strconv.ParseFloat(match, 64); err == nil {
			key.version = v
		}
	}

	return key
}
