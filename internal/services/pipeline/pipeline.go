// -----------------------------------------------------------------------
// Processing Pipeline - end-to-end document ingestion: outline reading,
// segmentation, materialization, cross-references, chunking, indexing,
// and the persisted processing summary.
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/chunker"
	"github.com/ternarybob/tomus/internal/services/index"
	"github.com/ternarybob/tomus/internal/services/materializer"
	"github.com/ternarybob/tomus/internal/services/outline"
	"github.com/ternarybob/tomus/internal/services/planner"
	"github.com/ternarybob/tomus/internal/services/xref"
)

// Pipeline wires the processing stages for one corpus
type Pipeline struct {
	renderer     interfaces.Renderer
	normalizer   *outline.Normalizer
	planner      *planner.Planner
	materializer *materializer.Service
	xref         *xref.Builder
	chunker      *chunker.Chunker
	indexMgr     *index.Manager
	storage      interfaces.DocumentStorage
	logger       arbor.ILogger
}

// NewPipeline creates a processing pipeline from its stage services
func NewPipeline(
	renderer interfaces.Renderer,
	normalizer *outline.Normalizer,
	segPlanner *planner.Planner,
	mat *materializer.Service,
	xrefBuilder *xref.Builder,
	chunkSvc *chunker.Chunker,
	indexMgr *index.Manager,
	storage interfaces.DocumentStorage,
	logger arbor.ILogger,
) *Pipeline {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Pipeline{
		renderer:     renderer,
		normalizer:   normalizer,
		planner:      segPlanner,
		materializer: mat,
		xref:         xrefBuilder,
		chunker:      chunkSvc,
		indexMgr:     indexMgr,
		storage:      storage,
		logger:       logger,
	}
}

// ProcessDocument ingests one source document into a corpus. Segment
// failures are partial; a StructuralError from planning aborts the document.
// force=true, or re-processing a file the corpus already holds, rebuilds the
// corpus index wholesale instead of appending.
func (p *Pipeline) ProcessDocument(ctx context.Context, corpusID, sourcePath string, force bool) (*models.DocumentRecord, error) {
	pageCount, err := p.renderer.PageCount(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read page count: %w", err)
	}

	nodes, err := p.renderer.Outline(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	docType := DetectDocumentType(sourcePath, nodes)
	normalized := p.normalizer.Normalize(nodes, pageCount)

	plan, err := p.planner.Plan(normalized, pageCount, docType, sourcePath)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("source", sourcePath).
		Str("document_type", string(docType)).
		Int("pages", pageCount).
		Int("segments", len(plan.Segments)).
		Msg("Processing document")

	matResult := p.materializer.MaterializeAll(ctx, plan.Segments)
	p.xref.Build(plan.Segments, matResult.Processed)

	// Segment IDs are fresh each run; a prior run of this file must have its
	// rows swept or ListSegments would return both generations
	replacing, err := p.isReprocess(corpusID, sourcePath)
	if err != nil {
		return nil, err
	}
	if err := p.storage.DeleteDocumentSegments(corpusID, sourcePath); err != nil {
		return nil, fmt.Errorf("failed to clear prior segments of %s: %w", sourcePath, err)
	}

	if err := p.storage.SaveSegments(corpusID, plan.Segments); err != nil {
		return nil, fmt.Errorf("failed to persist segments: %w", err)
	}
	for _, ps := range matResult.Processed {
		if err := p.storage.SaveProcessedSegment(corpusID, ps); err != nil {
			return nil, fmt.Errorf("failed to persist segment text: %w", err)
		}
	}

	// A forced run, or a re-run of an already indexed file, rebuilds the
	// corpus from every persisted document so sibling documents keep their
	// chunks; only a first run appends incrementally.
	if force || replacing {
		if err := p.ReindexCorpus(ctx, corpusID); err != nil {
			return nil, err
		}
	} else {
		chunks := p.buildChunks(corpusID, plan.Segments, matResult.Processed)
		if err := p.indexMgr.AddChunks(ctx, corpusID, chunks); err != nil {
			return nil, fmt.Errorf("failed to index corpus %s: %w", corpusID, err)
		}
	}

	record := buildRecord(corpusID, sourcePath, docType, pageCount, plan.Segments, matResult)
	if err := p.storage.SaveDocument(record); err != nil {
		return nil, fmt.Errorf("failed to persist document record: %w", err)
	}

	p.logger.Info().
		Str("source", sourcePath).
		Int("succeeded", record.Succeeded).
		Int("failed", record.Failed).
		Bool("rebuilt", force || replacing).
		Msg("Document processed")

	return record, nil
}

// isReprocess reports whether sourcePath already has a processing record in
// this corpus.
func (p *Pipeline) isReprocess(corpusID, sourcePath string) (bool, error) {
	record, err := p.storage.GetDocument(sourcePath)
	if err != nil {
		if err == interfaces.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check prior record of %s: %w", sourcePath, err)
	}
	return record.CorpusID == corpusID, nil
}

// ReindexCorpus re-chunks the persisted segment text and rebuilds the corpus
// index wholesale. Used by forced reindex and the scheduler.
func (p *Pipeline) ReindexCorpus(ctx context.Context, corpusID string) error {
	segments, err := p.storage.ListSegments(corpusID)
	if err != nil {
		return fmt.Errorf("failed to list segments for corpus %s: %w", corpusID, err)
	}
	if len(segments) == 0 {
		return fmt.Errorf("corpus %s has no persisted segments", corpusID)
	}

	var processed []*models.ProcessedSegment
	for _, seg := range segments {
		ps, err := p.storage.GetProcessedSegment(corpusID, seg.ID)
		if err != nil {
			if err == interfaces.ErrNotFound {
				continue
			}
			return fmt.Errorf("failed to load segment text %s: %w", seg.ID, err)
		}
		processed = append(processed, ps)
	}

	chunks := p.buildChunks(corpusID, segments, processed)
	if err := p.indexMgr.Rebuild(ctx, corpusID, chunks); err != nil {
		return fmt.Errorf("failed to rebuild corpus %s: %w", corpusID, err)
	}

	p.logger.Info().
		Str("corpus_id", corpusID).
		Int("segments", len(processed)).
		Int("chunks", len(chunks)).
		Msg("Corpus reindexed")

	return nil
}

// buildChunks windows the processed text and stamps source provenance from
// the owning segments.
func (p *Pipeline) buildChunks(corpusID string, segments []*models.Segment, processed []*models.ProcessedSegment) []*models.Chunk {
	byID := make(map[string]*models.Segment, len(segments))
	for _, seg := range segments {
		byID[seg.ID] = seg
	}

	chunks := p.chunker.ChunkAll(corpusID, processed)
	for _, ch := range chunks {
		if seg, ok := byID[ch.SegmentID]; ok {
			ch.SourceFile = seg.SourceFile
			ch.SourceType = string(seg.Type)
			ch.SegmentTitle = seg.Title
		}
	}
	return chunks
}

// buildRecord assembles the persisted per-document processing summary
func buildRecord(corpusID, sourcePath string, docType models.DocumentType, pageCount int, segments []*models.Segment, matResult *materializer.Result) *models.DocumentRecord {
	failed := make(map[string]string, len(matResult.Failures))
	for _, f := range matResult.Failures {
		failed[f.SegmentID] = f.Err.Error()
	}

	record := &models.DocumentRecord{
		SourceFile:   sourcePath,
		CorpusID:     corpusID,
		DocumentType: docType,
		PageCount:    pageCount,
		ProcessedAt:  time.Now().UTC(),
	}

	for _, seg := range segments {
		sr := models.SegmentRecord{
			SegmentID: seg.ID,
			Title:     seg.Title,
			Type:      seg.Type,
			StartPage: seg.StartPage,
			EndPage:   seg.EndPage,
			Status:    models.SegmentStatusSucceeded,
		}
		if msg, ok := failed[seg.ID]; ok {
			sr.Status = models.SegmentStatusFailed
			sr.Error = msg
			record.Failed++
		} else {
			record.Succeeded++
		}
		record.Segments = append(record.Segments, sr)
	}

	return record
}
