package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/chunker"
	"github.com/ragstack/ragcore/internal/config"
	"github.com/ragstack/ragcore/internal/contextproc"
	"github.com/ragstack/ragcore/internal/db"
	"github.com/ragstack/ragcore/internal/embedcache"
	"github.com/ragstack/ragcore/internal/model"
	"github.com/ragstack/ragcore/internal/pkg/errs"
	"github.com/ragstack/ragcore/internal/repo"
	"github.com/ragstack/ragcore/internal/retrieval"
	"github.com/ragstack/ragcore/internal/service"
)

type app struct {
	cfg      *config.Config
	chunkSvc *service.ChunkService
	search   *service.SearchService
}

func main() {
	var configPath string
	var owner string

	rootCmd := &cobra.Command{
		Use:   "ragcore",
		Short: "chunking, hybrid retrieval and context assembly for a RAG corpus",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.PersistentFlags().StringVar(&owner, "owner", "default", "owner scope for documents and queries")

	ingestCmd := &cobra.Command{
		Use:   "ingest <file> [doc-type]",
		Short: "chunk, embed and store one document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}
			docType := model.DocTypeNote
			if len(args) > 1 {
				docType = args[1]
			}
			return friendlyError(a.ingest(cmd.Context(), owner, args[0], docType))
		},
	}

	var maxTokens int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "run a hybrid query and print the assembled context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}
			processed, stats := a.search.QueryContext(cmd.Context(), owner, args[0], maxTokens)
			out, err := json.MarshalIndent(struct {
				Stats   *model.SearchStats      `json:"stats"`
				Context *model.ProcessedContext `json:"context"`
			}{stats, processed}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	searchCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "context token budget (0 = configured default)")

	resyncCmd := &cobra.Command{
		Use:   "resync <document-id>",
		Short: "re-embed every chunk of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath)
			if err != nil {
				return err
			}
			embedded, err := a.chunkSvc.ResyncEmbeddings(cmd.Context(), owner, args[0])
			if err != nil {
				return friendlyError(err)
			}
			fmt.Printf("re-embedded %d chunks\n", embedded)
			return nil
		},
	}

	rootCmd.AddCommand(ingestCmd, searchCmd, resyncCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func buildApp(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded",
		zap.String("provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
	)

	conn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, ai.EmbedderConfig{
		Model:     cfg.AI.Model,
		Dimension: cfg.AI.Dimension,
		MaxTokens: cfg.AI.MaxTokens,
		Timeout:   cfg.AI.Timeout(),
	})
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLHours)*time.Hour)
	limiter := ai.NewRateLimiter(ai.RateLimitConfig{
		RequestsPerMinute: cfg.AI.RateLimit.RequestsPerMinute,
		TokensPerMinute:   cfg.AI.RateLimit.TokensPerMinute,
		MaxInFlight:       cfg.AI.RateLimit.MaxInFlight,
	})
	batch := ai.NewBatchEmbedder(embedder, limiter, ai.BatchEmbedderConfig{})

	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	ftsRepo := repo.NewFTSRepo(conn)

	semantic := chunker.NewSemanticChunker(cfg.Chunker, batch)
	chunkSvc := service.NewChunkService(semantic, batch, docRepo, chunkRepo)
	engine := retrieval.NewEngine(embedder, chunkRepo, ftsRepo, cfg.Retrieval)
	searchSvc := service.NewSearchService(engine, contextproc.NewProcessor(cfg.Context))

	return &app{cfg: cfg, chunkSvc: chunkSvc, search: searchSvc}, nil
}

// friendlyError appends an operator hint for the error classes the user
// can act on. Empty and oversized inputs need a different document;
// backend failures clear up on their own.
func friendlyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errs.IsEmptyContent(err):
		return fmt.Errorf("%w (document has no usable text)", err)
	case errs.IsEmbeddingTooLong(err):
		return fmt.Errorf("%w (input exceeds the embedding window, split the document and retry)", err)
	case errs.IsSearchBackend(err):
		return fmt.Errorf("%w (search backend unavailable, retry later)", err)
	default:
		return err
	}
}

func (a *app) ingest(ctx context.Context, owner, path, docType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	base := filepath.Base(path)
	meta := &model.DocumentMeta{
		DocumentID: strings.TrimSuffix(base, filepath.Ext(base)),
		Title:      strings.TrimSuffix(base, filepath.Ext(base)),
		DocType:    docType,
	}
	chunks, err := a.chunkSvc.ChunkDocument(ctx, owner, meta, string(data))
	if err != nil {
		return err
	}
	fmt.Printf("ingested %s: %d chunks\n", meta.DocumentID, len(chunks))
	return nil
}
