// Command fetch downloads the transcript archive and unpacks it onto
// local disk for inspection, without touching any index store. It is an
// operator utility: checking that an archive URL is reachable and parses
// cleanly before pointing cmd/indexer or cmd/server at it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/atthetable/curiosity/internal/archive"
	"github.com/atthetable/curiosity/pkg/curiosity/alias"
)

func main() {
	var (
		sourceURL = flag.String("source", archive.DefaultSourceURL, "Archive URL to fetch")
		outDir    = flag.String("out", "", "Directory to unpack transcripts and season manifest into (required)")
	)
	flag.Parse()

	if *outDir == "" {
		log.Fatal("--out required")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal("Failed to create output directory:", err)
	}

	ctx := context.Background()

	log.Printf("Fetching archive from %s", *sourceURL)
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	a, err := archive.Fetch(ctx, httpClient, *sourceURL)
	if err != nil {
		log.Fatal("Failed to fetch archive:", err)
	}

	seasons, err := a.Seasons(alias.Seasons())
	if err != nil {
		log.Fatal("Failed to parse season manifest:", err)
	}
	log.Printf("Parsed %d seasons from manifest", len(seasons))

	manifestPath := filepath.Join(*outDir, "seasons.json")
	manifestFile, err := os.Create(manifestPath)
	if err != nil {
		log.Fatal("Failed to create manifest output:", err)
	}
	enc := json.NewEncoder(manifestFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(seasons); err != nil {
		manifestFile.Close()
		log.Fatal("Failed to write manifest output:", err)
	}
	manifestFile.Close()
	log.Printf("Wrote season manifest to %s", manifestPath)

	var written, skipped int
	for _, season := range seasons {
		seasonDir := filepath.Join(*outDir, season.ID.Slug())
		if err := os.MkdirAll(seasonDir, 0o755); err != nil {
			log.Fatalf("Failed to create season directory %s: %v", seasonDir, err)
		}

		for _, episode := range season.Episodes {
			if episode.Download == nil {
				skipped++
				continue
			}

			text, err := a.ReadDocument(season.ID, episode)
			if err != nil {
				log.Printf("Failed to read transcript for %s: %v", episode.Slug, err)
				skipped++
				continue
			}

			path := filepath.Join(seasonDir, episode.Slug+".txt")
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				log.Fatalf("Failed to write transcript %s: %v", path, err)
			}
			written++
		}
	}

	log.Printf("Fetch complete: %d transcripts written, %d episodes skipped", written, skipped)
}
