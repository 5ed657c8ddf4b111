package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/findata-labs/finmcp/crawler"
)

// NewCrawlCmd creates the "crawl" subcommand.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl upstream API documentation pages",
		Long: "Crawl the upstream documentation index space, extract endpoint " +
			"descriptors, and persist them as per-page JSON files and a SQLite store.",
		RunE: runCrawl,
	}

	cmd.Flags().String("output", "tsanghi_docs", "Directory for per-page JSON output")
	cmd.Flags().String("db", "", "Path to SQLite doc store (default: ~/.finmcp/docs.db)")
	cmd.Flags().String("base-url", crawler.DefaultBaseURL, "Documentation site root")
	cmd.Flags().String("index", "", "Crawl a single page index (e.g. 2-1-1) instead of the full space")
	cmd.Flags().Duration("min-delay", time.Second, "Minimum pause between page fetches")
	cmd.Flags().Duration("max-delay", 3*time.Second, "Maximum pause between page fetches")
	cmd.Flags().Bool("cleanup-empty", false, "Drop empty-page records from the store after crawling")

	return cmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	dbPath, _ := cmd.Flags().GetString("db")
	baseURL, _ := cmd.Flags().GetString("base-url")
	singleIndex, _ := cmd.Flags().GetString("index")
	minDelay, _ := cmd.Flags().GetDuration("min-delay")
	maxDelay, _ := cmd.Flags().GetDuration("max-delay")
	cleanupEmpty, _ := cmd.Flags().GetBool("cleanup-empty")

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	if dbPath == "" {
		var err error
		dbPath, err = crawler.DefaultSQLitePath()
		if err != nil {
			return exitError(exitConfig, "resolving doc store path: %v", err)
		}
	}
	store, err := crawler.NewSQLiteStore(dbPath)
	if err != nil {
		return exitError(exitRuntime, "opening doc store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return exitError(exitRuntime, "creating output dir: %v", err)
	}

	c := crawler.New(crawler.Config{
		BaseURL:  baseURL,
		MinDelay: minDelay,
		MaxDelay: maxDelay,
		Logger:   logger,
	})

	ctx := cmd.Context()
	var docs []crawler.EndpointDoc
	if singleIndex != "" {
		doc, err := c.FetchDoc(ctx, singleIndex)
		if err != nil {
			return exitError(exitRuntime, "fetching index %s: %v", singleIndex, err)
		}
		docs = []crawler.EndpointDoc{doc}
	} else {
		docs, err = c.Crawl(ctx)
		if err != nil {
			return exitError(exitRuntime, "crawl aborted: %v", err)
		}
	}

	var saved, empty int
	for _, doc := range docs {
		if err := store.Upsert(ctx, doc); err != nil {
			return exitError(exitRuntime, "persisting doc %s: %v", doc.Index, err)
		}
		if err := writeDocFile(outputDir, doc); err != nil {
			return exitError(exitRuntime, "writing doc %s: %v", doc.Index, err)
		}
		if doc.Empty {
			empty++
		} else {
			saved++
		}
	}

	if cleanupEmpty {
		dropped, err := store.DeleteEmpty(ctx)
		if err != nil {
			return exitError(exitRuntime, "cleaning up empty pages: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d empty page record(s)\n", dropped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Crawled %d page(s): %d endpoint(s), %d empty\n",
		len(docs), saved, empty)
	return nil
}

// writeDocFile mirrors the store to disk: doc_{index}.json for published
// endpoints, empty_{index}.json markers for valid-but-empty pages.
func writeDocFile(outputDir string, doc crawler.EndpointDoc) error {
	name := fmt.Sprintf("doc_%s.json", doc.Index)
	if doc.Empty {
		name = fmt.Sprintf("empty_%s.json", doc.Index)
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, name), append(payload, '\n'), 0o644)
}
