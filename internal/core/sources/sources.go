// Package sources reads desired link collections from index files on disk.
package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-yaml"

	"github.com/seckatie/linkindex/internal/core/index"
)

// Format names a supported input format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// FormatFromPath picks a Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported index file %q: expected .json, .yaml or .html", path)
	}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Load reads the file at path, choosing a parser by extension.
func Load(path string) ([]index.Link, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	links, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return links, nil
}

// Parse reads links in the given format from r.
func Parse(r io.Reader, format Format) ([]index.Link, error) {
	switch format {
	case FormatJSON:
		return parseJSON(r)
	case FormatYAML:
		return parseYAML(r)
	case FormatHTML:
		return parseNetscape(r)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// jsonIndex is the main index layout: {"links": [...]}.
type jsonIndex struct {
	Links []record `json:"links"`
}

func parseJSON(r io.Reader) ([]index.Link, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var records []record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return links(records), nil
	}

	var idx jsonIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return links(idx.Links), nil
}

func parseYAML(r io.Reader) ([]index.Link, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []record
	if err := yaml.Unmarshal(data, &records); err == nil {
		return links(records), nil
	}

	var idx struct {
		Links []record `yaml:"links"`
	}
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return links(idx.Links), nil
}

// parseNetscape reads a browser bookmark export:
//
//	<DT><A HREF="https://example.com" ADD_DATE="1700000000" TAGS="a,b">Title</A>
//
// ADD_DATE becomes the timestamp and LAST_MODIFIED the updated time.
func parseNetscape(r io.Reader) ([]index.Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var links []index.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "place:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		links = append(links, index.Link{
			URL:       href,
			Timestamp: strings.TrimSpace(s.AttrOr("add_date", "")),
			Title:     strings.Join(strings.Fields(s.Text()), " "),
			Tags:      strings.TrimSpace(s.AttrOr("tags", "")),
			Updated:   unixToRFC3339(s.AttrOr("last_modified", "")),
		})
	})
	return links, nil
}

func unixToRFC3339(s string) string {
	sec, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
