package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/findata-labs/finmcp/codegen"
	"github.com/findata-labs/finmcp/crawler"
)

// EnvGenerateAPIKey names the model API key variable for "generate".
const EnvGenerateAPIKey = "FINMCP_MODEL_API_KEY"

// NewGenerateCmd creates the "generate" subcommand.
func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate catalog entry snippets from crawled docs",
		Long: "Turn crawled endpoint docs into catalog entry source snippets " +
			"using an OpenAI-compatible model. Snippets are written for review, " +
			"not compiled directly.",
		RunE: runGenerate,
	}

	cmd.Flags().String("db", "", "Path to SQLite doc store (default: ~/.finmcp/docs.db)")
	cmd.Flags().String("output", "generated", "Directory for generated snippets")
	cmd.Flags().String("index", "", "Generate for a single page index instead of all docs")
	cmd.Flags().String("model", "", "Model name (default qwen-max-latest)")
	cmd.Flags().String("model-base-url", "", "OpenAI-compatible API base URL")
	cmd.Flags().Bool("dry-run", false, "Print prompts without calling the model")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	outputDir, _ := cmd.Flags().GetString("output")
	singleIndex, _ := cmd.Flags().GetString("index")
	model, _ := cmd.Flags().GetString("model")
	modelBaseURL, _ := cmd.Flags().GetString("model-base-url")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	apiKey := os.Getenv(EnvGenerateAPIKey)
	if apiKey == "" && !dryRun {
		return exitError(exitConfig, "missing model API key: set %s or use --dry-run", EnvGenerateAPIKey)
	}

	gen, err := codegen.New(codegen.Options{
		APIKey:  apiKey,
		BaseURL: modelBaseURL,
		Model:   model,
		DryRun:  dryRun,
		Logger:  logger,
	})
	if err != nil {
		return exitError(exitConfig, "creating generator: %v", err)
	}

	if dbPath == "" {
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

	ctx := cmd.Context()

	if singleIndex != "" {
		doc, found, err := store.Get(ctx, singleIndex)
		if err != nil {
			return exitError(exitRuntime, "reading doc %s: %v", singleIndex, err)
		}
		if !found {
			return exitError(exitUsage, "no crawled doc for index %s; run crawl first", singleIndex)
		}
		snippet, err := gen.Generate(ctx, doc)
		if err != nil {
			return exitError(exitRuntime, "generating snippet for %s: %v", singleIndex, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), snippet)
		return nil
	}

	docs, err := store.List(ctx)
	if err != nil {
		return exitError(exitRuntime, "listing docs: %v", err)
	}
	if len(docs) == 0 {
		return exitError(exitUsage, "doc store is empty; run crawl first")
	}

	if err := gen.GenerateAll(ctx, docs, outputDir); err != nil {
		return exitError(exitRuntime, "generation failed: %v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Snippets written to %s\n", outputDir)
	return nil
}
