// -----------------------------------------------------------------------
// Segmentation Planner - selects an outline depth per document type and
// resolves the final non-overlapping page ranges, with a max-span fallback
// when the outline is missing or too coarse.
// -----------------------------------------------------------------------

package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
)

// PlanResult carries the final segment list plus recoverable warnings
// recorded while resolving boundaries.
type PlanResult struct {
	Segments []*models.Segment
	Warnings []string
	Fallback bool // true when the max-span partition replaced the outline
}

// Planner resolves normalized outline entries into a gap-free, non-overlapping
// partition of the document's pages.
type Planner struct {
	config common.SegmentationConfig
	logger arbor.ILogger
}

// NewPlanner creates a new segmentation planner
func NewPlanner(config common.SegmentationConfig, logger arbor.ILogger) *Planner {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Planner{config: config, logger: logger}
}

// Plan produces the final segment list for one document. The returned
// segments strictly cover [1, pageCount]; a gap or overlap after resolution
// is a StructuralError and aborts the document.
func (p *Planner) Plan(outline *models.NormalizeResult, pageCount int, docType models.DocumentType, sourceFile string) (*PlanResult, error) {
	if pageCount < 1 {
		return nil, &models.StructuralError{Document: sourceFile, Reason: fmt.Sprintf("invalid page count %d", pageCount)}
	}

	result := &PlanResult{}

	entries := p.selectEntries(outline, pageCount, docType)
	if len(entries) < p.config.MinSegments {
		p.logger.Info().
			Str("source", sourceFile).
			Int("usable_entries", len(entries)).
			Int("min_segments", p.config.MinSegments).
			Msg("Outline unusable, partitioning by max page span")
		result.Fallback = true
		result.Segments = p.fallbackPartition(pageCount, sourceFile)
	} else {
		segments, warnings := p.resolveBoundaries(entries, pageCount, docType, sourceFile)
		result.Segments = segments
		result.Warnings = warnings
	}

	if err := p.verifyPartition(result.Segments, pageCount, sourceFile); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("source", sourceFile).
		Str("document_type", string(docType)).
		Int("segments", len(result.Segments)).
		Bool("fallback", result.Fallback).
		Msg("Segmentation plan complete")

	return result, nil
}

// selectEntries picks the outline depth matching the desired granularity for
// the document type and filters out non-content titles.
func (p *Planner) selectEntries(outline *models.NormalizeResult, pageCount int, docType models.DocumentType) []models.OutlineEntry {
	if outline == nil || len(outline.Entries) == 0 {
		return nil
	}

	switch docType {
	case models.DocumentTypeMeetingPacket:
		return p.selectMeetingDepth(outline, pageCount)
	case models.DocumentTypeMunicipalCode:
		return p.selectChapterDepth(outline)
	default:
		return p.usableEntries(outline.EntriesAtDepth(0))
	}
}

// selectChapterDepth prefers top-level chapters; descends one level when the
// top level is too coarse to partition the document.
func (p *Planner) selectChapterDepth(outline *models.NormalizeResult) []models.OutlineEntry {
	top := p.usableEntries(outline.EntriesAtDepth(0))
	if len(top) >= p.config.MinSegments {
		return top
	}
	return p.usableEntries(outline.EntriesAtDepth(1))
}

// selectMeetingDepth walks from the deepest level upward and returns the
// deepest level whose resolved spans all fit the agenda item page band.
func (p *Planner) selectMeetingDepth(outline *models.NormalizeResult, pageCount int) []models.OutlineEntry {
	for depth := outline.MaxDepth(); depth >= 0; depth-- {
		entries := p.usableEntries(outline.EntriesAtDepth(depth))
		if len(entries) < p.config.MinSegments {
			continue
		}
		if p.spansWithinBand(entries, pageCount) {
			return entries
		}
	}
	return p.usableEntries(outline.EntriesAtDepth(0))
}

// spansWithinBand checks the next-entry resolved span of every entry against
// the configured item page band.
func (p *Planner) spansWithinBand(entries []models.OutlineEntry, pageCount int) bool {
	for i, e := range entries {
		end := pageCount
		if i+1 < len(entries) {
			end = entries[i+1].StartPage - 1
		}
		span := end - e.StartPage + 1
		if span < p.config.MinItemPages || span > p.config.MaxItemPages {
			return false
		}
	}
	return true
}

// usableEntries drops skip-listed titles and orders entries by start page
func (p *Planner) usableEntries(entries []models.OutlineEntry) []models.OutlineEntry {
	var out []models.OutlineEntry
	for _, e := range entries {
		if p.isSkipTitle(e.Title) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartPage < out[j].StartPage
	})
	return out
}

func (p *Planner) isSkipTitle(title string) bool {
	normalized := strings.ToLower(strings.TrimSpace(title))
	for _, skip := range p.config.SkipTitles {
		if strings.Contains(normalized, skip) {
			return true
		}
	}
	return false
}

// resolveBoundaries applies the next-entry boundary rule and repairs
// inconsistent explicit end pages. Zero-length entries merge forward with a
// recorded warning; the plan never fails on that condition.
func (p *Planner) resolveBoundaries(entries []models.OutlineEntry, pageCount int, docType models.DocumentType, sourceFile string) ([]*models.Segment, []string) {
	var warnings []string
	segType := segmentTypeFor(docType)

	type bound struct {
		title string
		start int
		end   int
	}

	bounds := make([]bound, 0, len(entries))
	for i, e := range entries {
		nextStart := pageCount + 1
		if i+1 < len(entries) {
			nextStart = entries[i+1].StartPage
		}

		end := nextStart - 1
		if e.HasEndPage() {
			end = e.EndPage
			if end >= nextStart {
				warnings = append(warnings,
					fmt.Sprintf("entry %q: explicit end page %d overlaps next entry, clamped to %d", e.Title, e.EndPage, nextStart-1))
				end = nextStart - 1
			} else if end < nextStart-1 {
				warnings = append(warnings,
					fmt.Sprintf("entry %q: explicit end page %d leaves a gap before next entry, extended to %d", e.Title, e.EndPage, nextStart-1))
				end = nextStart - 1
			}
		}
		if i == len(entries)-1 {
			end = pageCount
		}

		if end < e.StartPage {
			// Zero or negative span; fold this entry into its successor
			warnings = append(warnings,
				fmt.Sprintf("entry %q at page %d produced an empty range, merged forward", e.Title, e.StartPage))
			p.logger.Warn().
				Str("title", e.Title).
				Int("start_page", e.StartPage).
				Msg("Merged empty segment forward")
			continue
		}

		bounds = append(bounds, bound{title: e.Title, start: e.StartPage, end: end})
	}

	// Chapters shorter than the configured minimum fold into a neighbor
	if segType == models.SegmentTypeChapter && p.config.MinChapterPages > 1 {
		merged := bounds[:0]
		for i := 0; i < len(bounds); i++ {
			b := bounds[i]
			span := b.end - b.start + 1
			if span >= p.config.MinChapterPages {
				merged = append(merged, b)
				continue
			}
			if i+1 < len(bounds) {
				warnings = append(warnings,
					fmt.Sprintf("chapter %q spans %d pages, merged into %q", b.title, span, bounds[i+1].title))
				bounds[i+1].start = b.start
			} else if len(merged) > 0 {
				warnings = append(warnings,
					fmt.Sprintf("chapter %q spans %d pages, merged into %q", b.title, span, merged[len(merged)-1].title))
				merged[len(merged)-1].end = b.end
			} else {
				merged = append(merged, b)
			}
		}
		bounds = merged
	}

	// Pages before the first selected boundary become a front matter segment
	// so the partition still covers the whole document
	segments := make([]*models.Segment, 0, len(bounds)+1)
	if len(bounds) > 0 && bounds[0].start > 1 {
		segments = append(segments, &models.Segment{
			ID:         common.NewSegmentID(),
			Title:      "Front Matter",
			Type:       models.SegmentTypeSection,
			StartPage:  1,
			EndPage:    bounds[0].start - 1,
			SourceFile: sourceFile,
		})
	}

	for _, b := range bounds {
		segments = append(segments, &models.Segment{
			ID:         common.NewSegmentID(),
			Title:      b.title,
			Type:       segType,
			StartPage:  b.start,
			EndPage:    b.end,
			SourceFile: sourceFile,
		})
	}

	for i, seg := range segments {
		seg.OrderIndex = i
	}

	return segments, warnings
}

// fallbackPartition splits [1, pageCount] into equally sized synthetic
// segments none of which exceeds the max span policy.
func (p *Planner) fallbackPartition(pageCount int, sourceFile string) []*models.Segment {
	maxSpan := p.config.MaxSpanPages
	numParts := (pageCount + maxSpan - 1) / maxSpan

	segType := models.SegmentTypeSection
	if numParts == 1 {
		segType = models.SegmentTypeSingleDocument
	}

	base := pageCount / numParts
	remainder := pageCount % numParts

	segments := make([]*models.Segment, 0, numParts)
	start := 1
	for i := 0; i < numParts; i++ {
		span := base
		if i < remainder {
			span++
		}
		end := start + span - 1
		title := fmt.Sprintf("Part %d (pages %d-%d)", i+1, start, end)
		if segType == models.SegmentTypeSingleDocument {
			title = "Document"
		}
		segments = append(segments, &models.Segment{
			ID:         common.NewSegmentID(),
			Title:      title,
			Type:       segType,
			StartPage:  start,
			EndPage:    end,
			OrderIndex: i,
			SourceFile: sourceFile,
		})
		start = end + 1
	}

	return segments
}

// verifyPartition enforces the coverage invariant before the plan is
// returned. A violation here is a planner bug, surfaced as fatal.
func (p *Planner) verifyPartition(segments []*models.Segment, pageCount int, sourceFile string) error {
	if len(segments) == 0 {
		return &models.StructuralError{Document: sourceFile, Reason: "plan produced no segments"}
	}

	if segments[0].StartPage != 1 {
		return &models.StructuralError{
			Document: sourceFile,
			Reason:   fmt.Sprintf("first segment starts at page %d, not 1", segments[0].StartPage),
		}
	}

	for i, seg := range segments {
		if seg.StartPage > seg.EndPage {
			return &models.StructuralError{
				Document: sourceFile,
				Reason:   fmt.Sprintf("segment %q has inverted range [%d, %d]", seg.Title, seg.StartPage, seg.EndPage),
			}
		}
		if seg.OrderIndex != i {
			return &models.StructuralError{
				Document: sourceFile,
				Reason:   fmt.Sprintf("segment %q has order index %d, expected %d", seg.Title, seg.OrderIndex, i),
			}
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1]
		if seg.StartPage != prev.EndPage+1 {
			kind := "gap"
			if seg.StartPage <= prev.EndPage {
				kind = "overlap"
			}
			return &models.StructuralError{
				Document: sourceFile,
				Reason:   fmt.Sprintf("%s between %q (ends %d) and %q (starts %d)", kind, prev.Title, prev.EndPage, seg.Title, seg.StartPage),
			}
		}
	}

	if last := segments[len(segments)-1]; last.EndPage != pageCount {
		return &models.StructuralError{
			Document: sourceFile,
			Reason:   fmt.Sprintf("last segment ends at page %d, document has %d pages", last.EndPage, pageCount),
		}
	}

	return nil
}

func segmentTypeFor(docType models.DocumentType) models.SegmentType {
	switch docType {
	case models.DocumentTypeMunicipalCode:
		return models.SegmentTypeChapter
	case models.DocumentTypeMeetingPacket:
		return models.SegmentTypeAgendaItem
	default:
		return models.SegmentTypeSection
	}
}
