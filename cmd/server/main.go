// Command server serves the transcript search query endpoint over HTTP
// and keeps the index fresh with a periodic background rebuild.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atthetable/curiosity/internal/archive"
	"github.com/atthetable/curiosity/pkg/curiosity"
	"github.com/atthetable/curiosity/pkg/curiosity/assemble"
	"github.com/atthetable/curiosity/pkg/curiosity/config"
	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
	"github.com/atthetable/curiosity/pkg/curiosity/model"
	"github.com/atthetable/curiosity/pkg/curiosity/query"
)

// server holds everything an HTTP handler needs: the engine, resolved
// settings, and the loaded config components (season/speaker alias tables).
type server struct {
	engine     *curiosity.Engine
	settings   config.Settings
	components *config.Components
}

func main() {
	var (
		dataDir    = flag.String("data", "", "Data directory for the index store (required)")
		configPath = flag.String("config", "", "Optional YAML settings file")
	)
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("--data required")
	}

	loader := config.Loader{ConfigPath: *configPath}
	components, err := loader.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	components.Settings.DataDir = *dataDir

	engine, err := curiosity.New(curiosity.Options{DataDir: *dataDir, Speakers: components.Speakers})
	if err != nil {
		log.Fatal("Failed to open engine:", err)
	}
	defer engine.Close()

	srv := &server{engine: engine, settings: components.Settings, components: components}

	go srv.refreshLoop(components.Settings.SourceURL)

	mux := http.NewServeMux()
	mux.HandleFunc("/search", srv.handleSearch)

	log.Printf("curiosity server listening on %s", components.Settings.ListenAddr)
	if err := http.ListenAndServe(components.Settings.ListenAddr, mux); err != nil {
		log.Fatal("server stopped:", err)
	}
}

// refreshLoop periodically re-fetches the archive and rebuilds the index.
// It runs for the lifetime of the process on its own goroutine, never
// blocking request handling.
func (s *server) refreshLoop(sourceURL string) {
	if sourceURL == "" {
		sourceURL = archive.DefaultSourceURL
	}
	interval := s.settings.RefreshInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := s.refreshOnce(sourceURL); err != nil {
			log.Printf("refresh failed: %v", err)
		}
	}
}

func (s *server) refreshOnce(sourceURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := archive.Fetch(ctx, &http.Client{Timeout: 5 * time.Minute}, sourceURL)
	if err != nil {
		return err
	}
	seasons, err := a.Seasons(s.components.Seasons)
	if err != nil {
		return err
	}

	stats, err := s.engine.Rebuild(ctx, seasons, a.ReadDocument)
	if err != nil {
		return err
	}
	log.Printf("refresh complete: %d episodes indexed, %d skipped", stats.EpisodesIndexed, stats.EpisodesSkipped)
	return nil
}

// errorBody is the structured JSON error body per the external interface's
// error taxonomy.
type errorBody struct {
	Err  bool   `json:"err"`
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

func writeError(w http.ResponseWriter, err error) {
	kind, status := "internal", http.StatusInternalServerError
	switch {
	case errors.Is(err, curiosityerr.ErrInvalidQuery):
		kind, status = "query", http.StatusBadRequest
	case errors.Is(err, curiosityerr.ErrInvalidPage):
		kind, status = "page", http.StatusBadRequest
	case errors.Is(err, curiosityerr.ErrNotFound):
		kind, status = "not-found", http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Err: true, Kind: kind, Msg: err.Error()})
}

func parseKind(s string) query.Kind {
	switch s {
	case "phrase":
		return query.KindPhrase
	case "web":
		return query.KindWeb
	default:
		return query.KindKeywords
	}
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		req      curiosity.SearchRequest
		pageSize int
	)

	if raw := q.Get("page"); raw != "" {
		// A page token is self-describing: everything needed to run the
		// next page lives in the token, so the rest of the query params
		// (kind, query, seasons, page_size) are ignored in its favor.
		token, err := config.DecodePageToken(raw)
		if err != nil {
			writeError(w, fmt.Errorf("decode page token: %w", curiosityerr.ErrInvalidPage))
			return
		}
		req = curiosity.SearchRequest{
			Kind:     query.Kind(token.Kind),
			Query:    token.Query,
			Seasons:  token.Seasons,
			PageSize: token.PageSize,
			Offset:   token.Offset,
		}
		pageSize = token.PageSize
	} else {
		text := q.Get("query")
		if text == "" {
			text = q.Get("q")
		}

		var seasonIDs []uint64
		if raw := q.Get("seasons"); raw != "" {
			for _, slug := range strings.Split(raw, ",") {
				id, ok := model.SeasonBySlug(slug)
				if !ok {
					writeError(w, fmt.Errorf("unknown season slug %q: %w", slug, curiosityerr.ErrInvalidQuery))
					return
				}
				seasonIDs = append(seasonIDs, uint64(id))
			}
		}

		pageSize = s.settings.DefaultPageSize
		if raw := q.Get("page_size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, fmt.Errorf("invalid page_size %q: %w", raw, curiosityerr.ErrInvalidQuery))
				return
			}
			pageSize = n
		}
		if pageSize <= 0 || pageSize > s.settings.MaxPageSize {
			pageSize = s.settings.MaxPageSize
		}

		req = curiosity.SearchRequest{
			Kind:     parseKind(q.Get("kind")),
			Query:    text,
			Seasons:  seasonIDs,
			PageSize: pageSize,
		}
	}

	// WithHighlights is not part of the page token contract: it is read
	// fresh from the URL on every request, paginated or not.
	req.WithHighlights = q.Get("highlight") == "true"

	resp, err := s.engine.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	body := searchResponseBody{Episodes: make([]episodeBody, 0, len(resp.Results))}
	if resp.HasMore {
		next, err := config.PageToken{
			Kind:     int(req.Kind),
			Query:    req.Query,
			Seasons:  req.Seasons,
			Offset:   req.Offset + pageSize,
			PageSize: pageSize,
		}.Encode()
		if err == nil {
			body.NextPage = &next
		}
	}
	for _, res := range resp.Results {
		body.Episodes = append(body.Episodes, toEpisodeBody(res, req.WithHighlights))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

type searchResponseBody struct {
	NextPage *string       `json:"next_page"`
	Episodes []episodeBody `json:"episodes"`
}

type episodeBody struct {
	CuriosityID uint64       `json:"curiosity_id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	DocsID      *string      `json:"docs_id,omitempty"`
	Season      string       `json:"season"`
	Highlights  [][]spanBody `json:"highlights,omitempty"`
}

type spanBody struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

func toEpisodeBody(res assemble.Result, withHighlights bool) episodeBody {
	body := episodeBody{
		CuriosityID: res.EpisodeID,
		Slug:        res.Slug,
		Title:       res.Title,
		Season:      res.Season.Slug(),
	}
	if res.DocsID != "" {
		body.DocsID = &res.DocsID
	}
	if withHighlights {
		body.Highlights = make([][]spanBody, 0, len(res.Highlights))
		for _, h := range res.Highlights {
			spans := make([]spanBody, len(h.Spans))
			for i, sp := range h.Spans {
				spans[i] = spanBody{Text: sp.Text, Highlighted: sp.Highlighted}
			}
			body.Highlights = append(body.Highlights, spans)
		}
	}
	return body
}
