// package formatter converts playlists to and from interchange formats
// (CSV, JSON, plain text) for import and export.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spindleapp/spindle/internal/models"
	"github.com/spindleapp/spindle/internal/shared"
)

// utf8BOM is written on CSV export so spreadsheet apps detect the encoding,
// and stripped on import of files that carry it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Query is one importable playlist entry. Either ID resolves the track
// directly, or Text is a free-text search (nominally "Artist - Title").
type Query struct {
	ID   string
	Text string
}

// columnAliases maps canonical import fields to the header spellings seen
// in the wild, including the localized ones legacy exports used.
var columnAliases = map[string][]string{
	"id":     {"track_id", "id", "trackid"},
	"uri":    {"uri", "track_uri"},
	"name":   {"track_name", "name", "title", "название"},
	"artist": {"artist_name", "artist", "исполнитель", "артист"},
}

// findColumnMappings resolves canonical field names to the actual headers
// present, first alias match wins. Matching is case-insensitive.
func findColumnMappings(headers []string) map[string]string {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	mappings := make(map[string]string)
	for canonical, aliases := range columnAliases {
		for _, alias := range aliases {
			for i, h := range lower {
				if h == alias {
					mappings[canonical] = headers[i]
					break
				}
			}
			if _, ok := mappings[canonical]; ok {
				break
			}
		}
	}
	return mappings
}

// rowQuery builds a Query from one record using field priority: a URI or an
// explicit id resolves directly, otherwise artist and name form a search.
// Rows with none of the mapped fields populated yield ok false.
func rowQuery(get func(string) string, mappings map[string]string) (Query, bool) {
	if col, ok := mappings["uri"]; ok {
		if uri := get(col); uri != "" {
			return Query{ID: TrackIDFromURI(uri)}, true
		}
	}
	if col, ok := mappings["id"]; ok {
		if id := get(col); id != "" {
			return Query{ID: id}, true
		}
	}
	nameCol, hasName := mappings["name"]
	artistCol, hasArtist := mappings["artist"]
	if hasName && hasArtist {
		name, artist := get(nameCol), get(artistCol)
		if name != "" && artist != "" {
			return Query{Text: fmt.Sprintf("%s - %s", artist, name)}, true
		}
	}
	return Query{}, false
}

// TrackIDFromURI extracts the track id from a Spotify URI or share URL.
// A bare id passes through unchanged.
func TrackIDFromURI(uri string) string {
	uri = strings.TrimSpace(uri)
	if strings.HasPrefix(uri, "spotify:") {
		parts := strings.Split(uri, ":")
		return parts[len(parts)-1]
	}
	if parsed, err := url.Parse(uri); err == nil && parsed.Path != "" {
		if unescaped, err := url.PathUnescape(path.Base(parsed.Path)); err == nil {
			return unescaped
		}
		return path.Base(parsed.Path)
	}
	return uri
}

// ParseFile dispatches on the file extension. Unrecognized extensions are
// parsed as plain text, one entry per line.
func ParseFile(name string, data []byte) ([]Query, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(data)
	case ".json":
		return ParseJSON(data)
	case ".txt", "":
		return ParseText(data)
	default:
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFile, filepath.Ext(name))
	}
}

// ParseCSV extracts import queries from CSV data using flexible header
// matching. Rows missing every mapped field are skipped.
func ParseCSV(data []byte) ([]Query, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	mappings := findColumnMappings(headers)
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	var queries []Query
	for _, record := range records[1:] {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if q, ok := rowQuery(get, mappings); ok {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// ParseJSON extracts import queries from a JSON array of objects, mapping
// fields from the first object's keys.
func ParseJSON(data []byte) ([]Query, error) {
	var items []map[string]any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: JSON must be a non-empty array of objects", shared.ErrInvalidInput)
	}

	keys := make([]string, 0, len(items[0]))
	for k := range items[0] {
		keys = append(keys, k)
	}
	mappings := findColumnMappings(keys)

	var queries []Query
	for _, item := range items {
		get := func(col string) string {
			if v, ok := item[col].(string); ok {
				return strings.TrimSpace(v)
			}
			return ""
		}
		if q, ok := rowQuery(get, mappings); ok {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// ParseText treats each non-empty line as one entry: a Spotify URI or share
// URL resolves directly, anything else is a search query.
func ParseText(data []byte) ([]Query, error) {
	var queries []Query
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "spotify:track:") || strings.Contains(line, "open.spotify.com/track/") {
			queries = append(queries, Query{ID: TrackIDFromURI(line)})
			continue
		}
		queries = append(queries, Query{Text: line})
	}
	return queries, nil
}

// ExportToCSV converts tracks to CSV with columns: ID, Name, Artist, Album.
// Output is BOM-prefixed for spreadsheet compatibility.
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artist", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, track := range tracks {
		record := []string{track.ID, track.Name, track.Artist, track.Album}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToJSON converts tracks to an indented JSON array.
func ExportToJSON(tracks []models.Track) ([]byte, error) {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return data, nil
}

// ExportToText converts tracks to a numbered "Artist - Name" listing.
func ExportToText(name string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Playlist: %s\n", name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track.Display()))
	}
	return buf.Bytes(), nil
}
