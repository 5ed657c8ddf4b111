// Package codegen turns crawled endpoint docs into catalog entry source
// snippets using an OpenAI-compatible model. Generated snippets are meant
// to be reviewed and pasted into the fintools catalog tables, not compiled
// blindly.
package codegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/findata-labs/finmcp/crawler"
)

const defaultModel = "qwen-max-latest"

const systemPrompt = "You are an expert Go developer. Output only Go source code " +
	"with no Markdown formatting and no code fences."

// Options configures a Generator.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// DryRun renders prompts without calling the model.
	DryRun bool
	Logger *slog.Logger
}

// Generator produces catalog entry snippets from endpoint docs.
type Generator struct {
	api    *openai.Client
	model  string
	dryRun bool
	logger *slog.Logger
}

// New creates a Generator. APIKey is required unless DryRun is set.
func New(opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	g := &Generator{
		model:  model,
		dryRun: opts.DryRun,
		logger: logger,
	}
	if opts.DryRun {
		return g, nil
	}

	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("codegen: api key is required")
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(strings.TrimRight(base, "/")))
	}
	client := openai.NewClient(cfg...)
	g.api = &client
	return g, nil
}

// BuildPrompt renders the user prompt for one endpoint doc.
func BuildPrompt(doc crawler.EndpointDoc) (string, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("codegen: encode doc %s: %w", doc.Index, err)
	}

	var b strings.Builder
	b.WriteString("Write a single Go catalog entry literal for the API endpoint described ")
	b.WriteString("by the JSON document below. The entry has this shape:\n\n")
	b.WriteString("\t{\n")
	b.WriteString("\t\tName:        \"get_example\",\n")
	b.WriteString("\t\tDescription: \"One-line description of the data returned.\",\n")
	b.WriteString("\t\tPath:        \"stock/{exchange_code}/example\",\n")
	b.WriteString("\t\tParams:      params(exchangeCode, tickerReq, startDate, endDate, limit),\n")
	b.WriteString("\t}\n\n")
	b.WriteString("Rules: the Name is snake_case and starts with get_; path placeholders use ")
	b.WriteString("{snake_case} segments; every placeholder must have a matching required ")
	b.WriteString("parameter; output exactly one entry literal and nothing else.\n\n")
	b.Write(payload)
	return b.String(), nil
}

// Generate produces the catalog entry snippet for one doc. In dry-run mode
// it returns the rendered prompt instead.
func (g *Generator) Generate(ctx context.Context, doc crawler.EndpointDoc) (string, error) {
	if doc.Empty {
		return "", fmt.Errorf("codegen: doc %s is an empty page", doc.Index)
	}

	prompt, err := BuildPrompt(doc)
	if err != nil {
		return "", err
	}
	if g.dryRun {
		return prompt, nil
	}

	resp, err := g.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(4000),
	})
	if err != nil {
		return "", fmt.Errorf("codegen: completion for doc %s: %w", doc.Index, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("codegen: no completion choices for doc %s", doc.Index)
	}

	snippet := StripFences(resp.Choices[0].Message.Content)
	if snippet == "" {
		return "", fmt.Errorf("codegen: empty completion for doc %s", doc.Index)
	}
	return snippet, nil
}

// GenerateAll generates snippets for every non-empty doc and writes each to
// outputDir as entry_{index}.go.txt. Per-doc failures are logged and skipped.
func (g *Generator) GenerateAll(ctx context.Context, docs []crawler.EndpointDoc, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("codegen: output dir: %w", err)
	}

	var generated int
	for _, doc := range docs {
		if doc.Empty {
			continue
		}
		snippet, err := g.Generate(ctx, doc)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.logger.Warn("snippet generation failed", "index", doc.Index, "error", err)
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("entry_%s.go.txt", doc.Index))
		if err := os.WriteFile(path, []byte(snippet+"\n"), 0o644); err != nil {
			return fmt.Errorf("codegen: write %s: %w", path, err)
		}
		g.logger.Info("snippet generated", "index", doc.Index, "path", path)
		generated++
	}

	g.logger.Info("generation complete", "docs", len(docs), "generated", generated)
	return nil
}
