// Package archive fetches and unpacks the transcript corpus: a ZIP
// archive over HTTPS holding a seasons.json manifest and one plaintext
// transcript file per episode. It is the one place in the system that
// exercises klauspost/compress as a faster DEFLATE implementation for
// archive/zip, per the external interface's ingest source description.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/klauspost/compress/flate"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
)

// DefaultSourceURL is the public mirror this project's transcripts are
// published from.
const DefaultSourceURL = "https://github.com/emily-signet/transcripts-at-the-table-mirror/archive/refs/heads/data.zip"

// rootPrefix is the single top-level directory every path inside the
// archive is rooted under (GitHub's codeload naming for a branch
// archive: "<repo>-<branch>/").
const rootPrefix = "transcripts-at-the-table-mirror-data/"

const seasonsFileName = rootPrefix + "seasons.json"

func init() {
	// klauspost/compress's flate.NewReader is a drop-in, faster
	// replacement for the stdlib inflate archive/zip uses by default.
	zip.RegisterDecompressor(zip.Deflate, flate.NewReader)
}

type jsonDownload struct {
	Plain string `json:"plain"`
}

type jsonEpisode struct {
	Title    string        `json:"title"`
	Slug     string        `json:"slug"`
	DocsID   *string       `json:"docs_id"`
	Ordinal  int           `json:"sorting_number"`
	Download *jsonDownload `json:"download"`
}

type jsonSeason struct {
	Title    string        `json:"title"`
	Episodes []jsonEpisode `json:"episodes"`
}

// Archive is an in-memory, already-fetched corpus archive.
type Archive struct {
	zr *zip.Reader
}

// Fetch downloads url with client (http.DefaultClient if nil) and opens
// it as a ZIP archive. The whole body is buffered in memory, matching
// zip.NewReader's requirement for a io.ReaderAt.
func Fetch(ctx context.Context, client *http.Client, url string) (*Archive, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("archive: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive: fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("archive: read response body: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("archive: open zip: %w", err)
	}

	return &Archive{zr: zr}, nil
}

// Seasons parses the archive's seasons.json manifest into the model.Season
// list the index builder expects. Each top-level key is a season slug,
// canonicalized through seasons before being resolved to a model.SeasonID;
// an unresolvable slug falls back to model.SeasonOther, matching the
// "Other" bucket's documented role as a catch-all.
func (a *Archive) Seasons(seasons *alias.Table) ([]model.Season, error) {
	f, err := a.zr.Open(seasonsFileName)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", seasonsFileName, err)
	}
	defer f.Close()

	var raw map[string]jsonSeason
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("archive: parse %s: %w", seasonsFileName, err)
	}

	out := make([]model.Season, 0, len(raw))
	for slug, js := range raw {
		id, ok := model.SeasonBySlug(seasons.Canonicalize(slug))
		if !ok {
			id = model.SeasonOther
		}

		episodes := make([]model.Episode, 0, len(js.Episodes))
		for _, je := range js.Episodes {
			ep := model.Episode{
				Title:   je.Title,
				Slug:    je.Slug,
				Ordinal: je.Ordinal,
			}
			if je.DocsID != nil {
				ep.DocsID = *je.DocsID
			}
			if je.Download != nil {
				ep.Download = &model.Download{Plain: je.Download.Plain}
			}
			episodes = append(episodes, ep)
		}

		out = append(out, model.Season{ID: id, Episodes: episodes})
	}
	return out, nil
}

// ReadDocument reads the plaintext transcript episode.Download names,
// rooted under the archive's top-level directory. Its signature matches
// build.ReadDocument so an *Archive can be passed directly to Rebuild.
// A missing download descriptor or a transcript absent from the archive
// both wrap a curiosityerr sentinel, so Rebuild can tell "skip this
// episode" apart from "abort the rebuild".
func (a *Archive) ReadDocument(_ model.SeasonID, episode model.Episode) (string, error) {
	if episode.Download == nil {
		return "", fmt.Errorf("archive: episode %q: %w", episode.Slug, curiosityerr.ErrEmptyDownload)
	}

	name := path.Join(rootPrefix, episode.Download.Plain)
	f, err := a.zr.Open(name)
	if err != nil {
		return "", fmt.Errorf("archive: open %s: %w: %w", name, curiosityerr.ErrNotFound, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("archive: read %s: %w", name, err)
	}
	return string(data), nil
}
