// Command indexer performs a one-shot fetch-and-rebuild of the transcript
// search index: download the archive, parse its season manifest, and
// rebuild the on-disk index from every episode it names.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/atthetable/curiosity/internal/archive"
	"github.com/atthetable/curiosity/pkg/curiosity"
	"github.com/atthetable/curiosity/pkg/curiosity/config"
)

func main() {
	var (
		dataDir    = flag.String("data", "", "Data directory for the index store (required)")
		configPath = flag.String("config", "", "Optional YAML settings file")
		sourceURL  = flag.String("source", "", "Archive URL to fetch (overrides config/default)")
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

	url := components.Settings.SourceURL
	if *sourceURL != "" {
		url = *sourceURL
	}
	if url == "" {
		url = archive.DefaultSourceURL
	}

	ctx := context.Background()

	log.Printf("Fetching archive from %s", url)
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	a, err := archive.Fetch(ctx, httpClient, url)
	if err != nil {
		log.Fatal("Failed to fetch archive:", err)
	}

	seasons, err := a.Seasons(components.Seasons)
	if err != nil {
		log.Fatal("Failed to parse season manifest:", err)
	}
	log.Printf("Parsed %d seasons from manifest", len(seasons))

	engine, err := curiosity.New(curiosity.Options{DataDir: *dataDir, Speakers: components.Speakers})
	if err != nil {
		log.Fatal("Failed to open engine:", err)
	}
	defer engine.Close()

	stats, err := engine.Rebuild(ctx, seasons, a.ReadDocument)
	if err != nil {
		log.Fatal("Failed to rebuild index:", err)
	}

	log.Printf("Indexing complete: %d episodes indexed, %d skipped", stats.EpisodesIndexed, stats.EpisodesSkipped)
}
