package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/citations"
	"github.com/ternarybob/tomus/internal/services/retriever"
)

// handleSearch implements the search tool
func handleSearch(searchService *retriever.Service, assembler *citations.Assembler, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		corpusID, err := request.RequireString("corpus_id")
		if err != nil || corpusID == "" {
			return textResult("Error: corpus_id parameter is required"), nil
		}

		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}

		// Parse top_k (default: 10, max: 50)
		topK := request.GetInt("top_k", 10)
		if topK > 50 {
			topK = 50
		}

		filters := models.SearchFilters{
			SourceType: request.GetString("source_type", ""),
			SegmentID:  request.GetString("segment_id", ""),
		}

		evidence, err := searchService.Search(ctx, corpusID, query, filters, topK)
		if err != nil {
			logger.Error().Err(err).Str("corpus_id", corpusID).Msg("Search failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}

		cites := assembler.Assemble(evidence)
		return textResult(formatSearchResults(query, corpusID, evidence, cites, searchService.KeywordOnly(corpusID))), nil
	}
}

// handleGetSegment implements the get_segment tool
func handleGetSegment(docs interfaces.DocumentStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		corpusID, err := request.RequireString("corpus_id")
		if err != nil || corpusID == "" {
			return textResult("Error: corpus_id parameter is required"), nil
		}

		segmentID, err := request.RequireString("segment_id")
		if err != nil || segmentID == "" {
			return textResult("Error: segment_id parameter is required"), nil
		}

		processed, err := docs.GetProcessedSegment(corpusID, segmentID)
		if err != nil {
			logger.Error().Err(err).Str("segment_id", segmentID).Msg("GetProcessedSegment failed")
			return textResult(fmt.Sprintf("Segment not found: %v", err)), nil
		}

		// Segment metadata is optional context; the text is the payload
		var segment *models.Segment
		if segments, err := docs.ListSegments(corpusID); err == nil {
			for _, s := range segments {
				if s.ID == segmentID {
					segment = s
					break
				}
			}
		}

		return textResult(formatSegment(segment, processed)), nil
	}
}

// handleListDocuments implements the list_documents tool
func handleListDocuments(docs interfaces.DocumentStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		corpusID, err := request.RequireString("corpus_id")
		if err != nil || corpusID == "" {
			return textResult("Error: corpus_id parameter is required"), nil
		}

		records, err := docs.ListDocuments(corpusID)
		if err != nil {
			logger.Error().Err(err).Str("corpus_id", corpusID).Msg("ListDocuments failed")
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatDocuments(corpusID, records)), nil
	}
}

// handleListCorpora implements the list_corpora tool
func handleListCorpora(index interfaces.IndexStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		corpora, err := index.ListCorpora()
		if err != nil {
			logger.Error().Err(err).Msg("ListCorpora failed")
			return textResult(fmt.Sprintf("List error: %v", err)), nil
		}

		return textResult(formatCorpora(corpora)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
