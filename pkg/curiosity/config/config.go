// Package config holds curiosity's process-level settings and the page
// token codec shared by the query endpoint. It is a narrowed descendant
// of the teacher's config package: no taxonomy/stoplist/dictionary YAML
// loaders (curiosity's alias tables are built in code, see
// pkg/curiosity/alias), just the settings a server process needs plus the
// opaque pagination token spec.md's external interface describes.
package config

import (
	"encoding/base64"
	"encoding/gob"
	"bytes"
	"fmt"
	"time"
)

// Settings holds the operator-tunable knobs for an indexer/server process.
type Settings struct {
	// DataDir is the directory holding index/, store.bbolt, and terms.fst.
	DataDir string

	// ListenAddr is the address cmd/server binds its HTTP listener to.
	ListenAddr string

	// SourceURL is the HTTPS ZIP archive cmd/indexer and cmd/server's
	// periodic refresher fetch the corpus from.
	SourceURL string

	// RefreshInterval is how often cmd/server's background goroutine
	// re-fetches the archive and rebuilds the index. Zero (or negative)
	// falls back to the 6-hour default.
	RefreshInterval time.Duration

	// DefaultPageSize and MaxPageSize bound the query endpoint's page_size
	// parameter.
	DefaultPageSize int
	MaxPageSize     int
}

// rawSettings is Settings' YAML wire shape: RefreshInterval is a
// duration string ("6h", "30m") rather than a bare integer, since
// yaml.v3 has no built-in notion of time.Duration.
type rawSettings struct {
	DataDir         string `yaml:"data_dir"`
	ListenAddr      string `yaml:"listen_addr"`
	SourceURL       string `yaml:"source_url"`
	RefreshInterval string `yaml:"refresh_interval"`
	DefaultPageSize int    `yaml:"default_page_size"`
	MaxPageSize     int    `yaml:"max_page_size"`
}

// DefaultSettings returns the settings used when no config file is given
// or a field is left zero-valued in one.
func DefaultSettings() Settings {
	return Settings{
		DataDir:         "data",
		ListenAddr:      ":8080",
		RefreshInterval: 6 * time.Hour,
		DefaultPageSize: 50,
		MaxPageSize:     100,
	}
}

// PageToken is the decoded form of the query endpoint's opaque "page"
// parameter: enough of the original request to resume it at Offset. It is
// self-describing and valid indefinitely while the index generation it
// was issued against is unchanged; a stale token against a newer index
// may skip or duplicate results but must never error (spec.md §6).
type PageToken struct {
	Kind     int
	Query    string
	Seasons  []uint64
	Offset   int
	PageSize int
}

// Encode packs t as unpadded base64-url of its gob encoding.
func (t PageToken) Encode() (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return "", fmt.Errorf("config: encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodePageToken reverses Encode. An empty string is not a valid token;
// callers should treat an absent "page" parameter as "no token" before
// calling this.
func DecodePageToken(s string) (PageToken, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return PageToken{}, fmt.Errorf("config: decode page token: %w", err)
	}

	var t PageToken
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&t); err != nil {
		return PageToken{}, fmt.Errorf("config: decode page token: %w", err)
	}
	return t, nil
}
