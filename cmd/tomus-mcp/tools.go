package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createSearchTool returns the search tool definition
func createSearchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Search an indexed document corpus for evidence passages with citations"),
		mcp.WithString("corpus_id",
			mcp.Required(),
			mcp.Description("Corpus identifier (e.g. town-code, meeting-2026-03-12)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text search query"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum results to return (default: 10, max: 50)"),
		),
		mcp.WithString("source_type",
			mcp.Description("Filter by segment type: chapter, agenda_item, section"),
		),
		mcp.WithString("segment_id",
			mcp.Description("Restrict search to one segment"),
		),
	)
}

// createGetSegmentTool returns the get_segment tool definition
func createGetSegmentTool() mcp.Tool {
	return mcp.NewTool("get_segment",
		mcp.WithDescription("Retrieve a segment's full materialized text and cross references"),
		mcp.WithString("corpus_id",
			mcp.Required(),
			mcp.Description("Corpus identifier"),
		),
		mcp.WithString("segment_id",
			mcp.Required(),
			mcp.Description("Segment ID (format: seg_{uuid})"),
		),
	)
}

// createListDocumentsTool returns the list_documents tool definition
func createListDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List processed documents in a corpus with their segment summaries"),
		mcp.WithString("corpus_id",
			mcp.Required(),
			mcp.Description("Corpus identifier"),
		),
	)
}

// createListCorporaTool returns the list_corpora tool definition
func createListCorporaTool() mcp.Tool {
	return mcp.NewTool("list_corpora",
		mcp.WithDescription("List all corpora with indexed content"),
	)
}
