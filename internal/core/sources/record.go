package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/seckatie/linkindex/internal/core/index"
)

// record is one link as written in a JSON or YAML index. Exporters write
// timestamps as numbers as often as strings (1700000000.5), so every field
// except the URL accepts any scalar and keeps its literal text.
type record struct {
	URL       string `json:"url" yaml:"url"`
	Timestamp scalar `json:"timestamp" yaml:"timestamp"`
	Title     scalar `json:"title" yaml:"title"`
	Tags      scalar `json:"tags" yaml:"tags"`
	Updated   scalar `json:"updated" yaml:"updated"`
}

func (r record) link() index.Link {
	return index.Link{
		URL:       r.URL,
		Timestamp: string(r.Timestamp),
		Title:     string(r.Title),
		Tags:      string(r.Tags),
		Updated:   string(r.Updated),
	}
}

func links(records []record) []index.Link {
	if records == nil {
		return nil
	}
	out := make([]index.Link, len(records))
	for i, r := range records {
		out[i] = r.link()
	}
	return out
}

// scalar is a string, number or boolean held as the text it was written as.
// Null decodes to "".
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
	case len(data) > 0 && data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = scalar(v)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*s = scalar(data)
	default:
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	return nil
}

func (s *scalar) UnmarshalYAML(data []byte) error {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = scalar(v)
	case map[string]any, []any:
		return fmt.Errorf("expected a scalar, got %s", strings.TrimSpace(string(data)))
	default:
		*s = scalar(strings.TrimSpace(string(data)))
	}
	return nil
}
