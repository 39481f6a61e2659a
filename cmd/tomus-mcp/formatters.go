package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/tomus/internal/models"
)

// formatSearchResults formats evidence and citations as markdown
func formatSearchResults(query, corpusID string, evidence []models.Evidence, cites []models.Citation, keywordOnly bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\" in %s (%d results)\n\n", query, corpusID, len(evidence)))

	if keywordOnly {
		sb.WriteString("_Keyword-only index: no embeddings available for this corpus._\n\n")
	}

	if len(evidence) == 0 {
		sb.WriteString("No evidence cleared the confidence threshold. The corpus may not cover this topic.\n")
		return sb.String()
	}

	for i, ev := range evidence {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, ev.Anchor))
		sb.WriteString(fmt.Sprintf("**Source:** %s (%s)\n", ev.FilePath, ev.SourceType))
		sb.WriteString(fmt.Sprintf("**Chunk:** %s [chars %d-%d] score %.4f\n\n", ev.ChunkID, ev.StartChar, ev.EndChar, ev.RelevanceScore))

		// Content preview (first 300 chars)
		content := ev.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		sb.WriteString(content)
		sb.WriteString("\n\n---\n\n")
	}

	sb.WriteString(fmt.Sprintf("## Citations (%d)\n\n", len(cites)))
	for _, c := range cites {
		sb.WriteString(fmt.Sprintf("- %s :: %s (chunk %s, chars %d-%d)\n", c.FilePath, c.Anchor, c.ChunkID, c.StartChar, c.EndChar))
	}

	return sb.String()
}

// formatSegment formats a materialized segment as markdown
func formatSegment(segment *models.Segment, processed *models.ProcessedSegment) string {
	var sb strings.Builder

	if segment != nil {
		sb.WriteString(fmt.Sprintf("# %s\n\n", segment.Title))
		sb.WriteString(fmt.Sprintf("**Type:** %s\n", segment.Type))
		sb.WriteString(fmt.Sprintf("**Pages:** %d-%d (%d pages)\n", segment.StartPage, segment.EndPage, segment.PageCount()))
		sb.WriteString(fmt.Sprintf("**Source:** %s\n\n", segment.SourceFile))
	} else {
		sb.WriteString(fmt.Sprintf("# Segment %s\n\n", processed.SegmentID))
	}

	if !processed.RenderedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Rendered:** %s\n\n", processed.RenderedAt.Format(time.RFC3339)))
	}

	if len(processed.References) > 0 {
		sb.WriteString("## Cross References\n\n")
		for _, ref := range processed.References {
			if ref.Resolved() {
				sb.WriteString(fmt.Sprintf("- \"%s\" -> %s\n", ref.RawText, ref.TargetID))
			} else {
				sb.WriteString(fmt.Sprintf("- \"%s\" (unresolved)\n", ref.RawText))
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Content\n\n")
	sb.WriteString(processed.Text)
	sb.WriteString("\n")

	return sb.String()
}

// formatDocuments formats document records as markdown
func formatDocuments(corpusID string, records []*models.DocumentRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Documents in %s (%d)\n\n", corpusID, len(records)))

	if len(records) == 0 {
		sb.WriteString("No documents processed for this corpus.\n")
		return sb.String()
	}

	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("### %s\n", rec.SourceFile))
		sb.WriteString(fmt.Sprintf("**Type:** %s, **Pages:** %d\n", rec.DocumentType, rec.PageCount))
		sb.WriteString(fmt.Sprintf("**Segments:** %d succeeded, %d failed\n", rec.Succeeded, rec.Failed))
		if !rec.ProcessedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("**Processed:** %s\n", rec.ProcessedAt.Format(time.RFC3339)))
		}
		sb.WriteString("\n")

		for _, seg := range rec.Segments {
			marker := ""
			if seg.Status == models.SegmentStatusFailed {
				marker = " (failed)"
			}
			sb.WriteString(fmt.Sprintf("- %s [%s] pages %d-%d%s\n", seg.Title, seg.Type, seg.StartPage, seg.EndPage, marker))
		}
		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// formatCorpora formats the corpus list as markdown
func formatCorpora(corpora []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Corpora (%d)\n\n", len(corpora)))

	if len(corpora) == 0 {
		sb.WriteString("No corpora indexed yet.\n")
		return sb.String()
	}

	sort.Strings(corpora)
	for _, id := range corpora {
		sb.WriteString(fmt.Sprintf("- %s\n", id))
	}

	return sb.String()
}
