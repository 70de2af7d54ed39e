package sources

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seckatie/linkindex/internal/core/index"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"index.json", FormatJSON, false},
		{"links.YAML", FormatYAML, false},
		{"links.yml", FormatYAML, false},
		{"bookmarks.html", FormatHTML, false},
		{"bookmarks.htm", FormatHTML, false},
		{"links.csv", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLoad_JSON(t *testing.T) {
	t.Run("main index object", func(t *testing.T) {
		path := writeFile(t, "index.json", `{
			"info": {"version": "0.7"},
			"links": [
				{"url": "https://a.com", "timestamp": "1", "title": "A", "tags": "x,y"},
				{"url": "https://b.com", "timestamp": "2", "title": null, "updated": "2024-01-01T00:00:00Z"}
			]
		}`)

		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{
			{URL: "https://a.com", Timestamp: "1", Title: "A", Tags: "x,y"},
			{URL: "https://b.com", Timestamp: "2", Updated: "2024-01-01T00:00:00Z"},
		}, links)
	})

	t.Run("bare array", func(t *testing.T) {
		path := writeFile(t, "links.json", `[{"url": "https://a.com", "timestamp": "1"}]`)

		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{{URL: "https://a.com", Timestamp: "1"}}, links)
	})

	t.Run("empty file", func(t *testing.T) {
		links, err := Load(writeFile(t, "empty.json", "  \n"))
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.json", `{"links": [`))
		assert.Error(t, err)
	})
}

func TestLoad_YAML(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		path := writeFile(t, "links.yaml", `
- url: https://a.com
  timestamp: "1"
  title: A
- url: https://b.com
  timestamp: "2"
  tags: news
`)
		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{
			{URL: "https://a.com", Timestamp: "1", Title: "A"},
			{URL: "https://b.com", Timestamp: "2", Tags: "news"},
		}, links)
	})

	t.Run("links key", func(t *testing.T) {
		path := writeFile(t, "links.yml", `
links:
  - url: https://a.com
    timestamp: "1"
`)
		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{{URL: "https://a.com", Timestamp: "1"}}, links)
	})
}

func TestLoad_NumericFields(t *testing.T) {
	t.Run("json numbers keep their text", func(t *testing.T) {
		path := writeFile(t, "index.json", `{"links": [
			{"url": "https://a.com", "timestamp": 1700000000.5, "title": 2024},
			{"url": "https://b.com", "timestamp": 1700000001},
			{"url": "https://c.com", "timestamp": null}
		]}`)

		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{
			{URL: "https://a.com", Timestamp: "1700000000.5", Title: "2024"},
			{URL: "https://b.com", Timestamp: "1700000001"},
			{URL: "https://c.com"},
		}, links)
	})

	t.Run("yaml numbers keep their text", func(t *testing.T) {
		path := writeFile(t, "links.yaml", `
- url: https://a.com
  timestamp: 1700000000.5
- url: https://b.com
  timestamp: 1700000001
- url: https://c.com
  timestamp: ~
`)
		links, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []index.Link{
			{URL: "https://a.com", Timestamp: "1700000000.5"},
			{URL: "https://b.com", Timestamp: "1700000001"},
			{URL: "https://c.com"},
		}, links)
	})

	t.Run("non-scalar timestamp is rejected", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.json", `[{"url": "https://a.com", "timestamp": true}]`))
		assert.Error(t, err)

		_, err = Load(writeFile(t, "bad.json", `[{"url": "https://a.com", "timestamp": {"s": 1}}]`))
		assert.Error(t, err)
	})
}

func TestLoad_NetscapeHTML(t *testing.T) {
	path := writeFile(t, "bookmarks.html", `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 ADD_DATE="1600000000">Folder</H3>
    <DL><p>
        <DT><A HREF="https://a.com" ADD_DATE="1700000000" LAST_MODIFIED="1700000100" TAGS="x,y">A   site</A>
    </DL><p>
    <DT><A HREF="https://b.com">B</A>
    <DT><A HREF="place:sort=8">Recent</A>
    <DT><A HREF="">Empty</A>
</DL><p>
`)

	links, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []index.Link{
		{URL: "https://a.com", Timestamp: "1700000000", Title: "A site", Tags: "x,y", Updated: "2023-11-14T22:15:00Z"},
		{URL: "https://b.com", Title: "B"},
	}, links)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "links.txt", "https://a.com"))
	assert.Error(t, err)
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := Parse(strings.NewReader("[]"), Format("toml"))
	assert.Error(t, err)
}
