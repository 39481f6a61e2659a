package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/agents"
	"github.com/ternarybob/tomus/internal/services/chunker"
	"github.com/ternarybob/tomus/internal/services/citations"
	"github.com/ternarybob/tomus/internal/services/embeddings"
	"github.com/ternarybob/tomus/internal/services/index"
	"github.com/ternarybob/tomus/internal/services/materializer"
	"github.com/ternarybob/tomus/internal/services/outline"
	"github.com/ternarybob/tomus/internal/services/pdf"
	"github.com/ternarybob/tomus/internal/services/pipeline"
	"github.com/ternarybob/tomus/internal/services/planner"
	"github.com/ternarybob/tomus/internal/services/retriever"
	"github.com/ternarybob/tomus/internal/services/scheduler"
	"github.com/ternarybob/tomus/internal/services/xref"
	"github.com/ternarybob/tomus/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	processPath  = flag.String("process", "", "Process a source PDF into the corpus")
	corpusID     = flag.String("corpus", "", "Corpus identifier (derived from file name when empty)")
	forceRebuild = flag.Bool("force", false, "Rebuild the corpus index instead of appending")
	queryText    = flag.String("query", "", "Search the corpus and print evidence citations")
	askText      = flag.String("ask", "", "Ask a question and compose a grounded answer (requires agents.provider)")
	topK         = flag.Int("topk", 0, "Maximum search results (0 uses configured default)")
	reindex      = flag.Bool("reindex", false, "Re-chunk and rebuild the corpus index from stored segments")
	serve        = flag.Bool("serve", false, "Run resident with the reindex scheduler until interrupted")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Tomus version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("tomus.toml"); err == nil {
			configFiles = append(configFiles, "tomus.toml")
		}
	}

	// Startup sequence: load config, initialize logger, print banner
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("embeddings_provider", config.Embeddings.Provider).
		Str("agents_provider", config.Agents.Provider).
		Msg("Resolved configuration")

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	ctx := context.Background()

	var embedder interfaces.EmbeddingService
	if config.Embeddings.Provider == "gemini" {
		embedder, err = embeddings.NewGeminiService(ctx, config.Embeddings, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize embedding service")
		}
		logger.Info().Str("model", config.Embeddings.Model).Msg("Gemini embeddings enabled")
	} else {
		logger.Info().Msg("Embeddings disabled, corpora will be keyword-only")
	}

	extractor := pdf.NewExtractor(logger)
	indexManager := index.NewManager(storageManager.Index(), embedder, logger)
	proc := pipeline.NewPipeline(
		extractor,
		outline.NewNormalizer(logger),
		planner.NewPlanner(config.Segmentation, logger),
		materializer.NewService(extractor, config.Workers, logger),
		xref.NewBuilder(logger),
		chunker.NewChunker(config.Chunking, logger),
		indexManager,
		storageManager.Documents(),
		logger,
	)
	searchService := retriever.NewService(indexManager, embedder, config.Retrieval, logger)
	assembler := citations.NewAssembler(300, logger)

	switch {
	case *processPath != "":
		runProcess(ctx, proc, *processPath, *corpusID, *forceRebuild, logger)

	case *reindex:
		runReindex(ctx, proc, *corpusID, logger)

	case *queryText != "":
		runQuery(ctx, searchService, assembler, *corpusID, *queryText, *topK, logger)

	case *askText != "":
		runAsk(ctx, searchService, assembler, config, *corpusID, *askText, logger)

	case *serve:
		runServe(proc, storageManager, config, logger)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runProcess(ctx context.Context, proc *pipeline.Pipeline, sourcePath, corpus string, force bool, logger arbor.ILogger) {
	if corpus == "" {
		corpus = common.NewCorpusID(sourcePath)
	}

	record, err := proc.ProcessDocument(ctx, corpus, sourcePath, force)
	if err != nil {
		logger.Fatal().Err(err).Str("source", sourcePath).Msg("Processing failed")
	}

	fmt.Printf("Processed %s into corpus %s: %d pages, %d segments succeeded, %d failed\n",
		record.SourceFile, corpus, record.PageCount, record.Succeeded, record.Failed)
	for _, id := range record.FailedSegmentIDs() {
		fmt.Printf("  failed segment: %s\n", id)
	}
}

func runReindex(ctx context.Context, proc *pipeline.Pipeline, corpus string, logger arbor.ILogger) {
	if corpus == "" {
		logger.Fatal().Msg("-reindex requires -corpus")
	}
	if err := proc.ReindexCorpus(ctx, corpus); err != nil {
		logger.Fatal().Err(err).Str("corpus", corpus).Msg("Reindex failed")
	}
	fmt.Printf("Reindexed corpus %s\n", corpus)
}

func runQuery(ctx context.Context, searchService *retriever.Service, assembler *citations.Assembler, corpus, query string, topK int, logger arbor.ILogger) {
	if corpus == "" {
		logger.Fatal().Msg("-query requires -corpus")
	}

	evidence, err := searchService.Search(ctx, corpus, query, models.SearchFilters{}, topK)
	if err != nil {
		logger.Fatal().Err(err).Msg("Search failed")
	}
	if len(evidence) == 0 {
		fmt.Println("No evidence cleared the confidence threshold.")
		return
	}

	for i, ev := range evidence {
		fmt.Printf("%d. [%.4f] %s :: %s\n", i+1, ev.RelevanceScore, ev.FilePath, ev.Anchor)
	}
	fmt.Println()
	for _, c := range assembler.Assemble(evidence) {
		fmt.Printf("[%s chars %d-%d] %s\n", c.ChunkID, c.StartChar, c.EndChar, c.Text)
	}
}

func runAsk(ctx context.Context, searchService *retriever.Service, assembler *citations.Assembler, config *common.Config, corpus, question string, logger arbor.ILogger) {
	if corpus == "" {
		logger.Fatal().Msg("-ask requires -corpus")
	}
	if config.Agents.Provider != "claude" {
		logger.Fatal().Msg("-ask requires agents.provider = \"claude\"")
	}

	registry := agents.NewRegistry()
	if err := registry.Register("composer", agents.NewComposer); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register composer")
	}

	executor, err := registry.Create("composer", agents.Deps{
		Retriever: searchService,
		Assembler: assembler,
		Config:    config.Agents,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create composer")
	}

	answer, err := executor.Execute(ctx, corpus, question)
	if err != nil {
		logger.Fatal().Err(err).Msg("Answer composition failed")
	}

	fmt.Println(answer.Text)
	if !answer.Grounded {
		fmt.Println("\n(no grounding evidence found for this question)")
		return
	}
	fmt.Println("\nCitations:")
	for i, c := range answer.Citations {
		fmt.Printf("  [%d] %s :: %s (chars %d-%d)\n", i+1, c.FilePath, c.Anchor, c.StartChar, c.EndChar)
	}
}

func runServe(proc *pipeline.Pipeline, storage interfaces.StorageManager, config *common.Config, logger arbor.ILogger) {
	sched := scheduler.NewService(proc, storage.Index(), storage.KV(), config.Scheduler, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer sched.Stop()

	logger.Info().Msg("Running - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
