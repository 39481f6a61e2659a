package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/services/citations"
	"github.com/ternarybob/tomus/internal/services/index"
	"github.com/ternarybob/tomus/internal/services/retriever"
	"github.com/ternarybob/tomus/internal/storage/badger"
)

func main() {
	configPath := os.Getenv("TOMUS_CONFIG")
	if configPath == "" {
		configPath = "tomus.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal console logger so MCP stdio stays clean
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	indexManager := index.NewManager(storageManager.Index(), nil, logger)
	searchService := retriever.NewService(indexManager, nil, config.Retrieval, logger)
	assembler := citations.NewAssembler(0, logger)

	mcpServer := server.NewMCPServer(
		"tomus",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createSearchTool(), handleSearch(searchService, assembler, logger))
	mcpServer.AddTool(createGetSegmentTool(), handleGetSegment(storageManager.Documents(), logger))
	mcpServer.AddTool(createListDocumentsTool(), handleListDocuments(storageManager.Documents(), logger))
	mcpServer.AddTool(createListCorporaTool(), handleListCorpora(storageManager.Index(), logger))

	// Blocks on stdio
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
