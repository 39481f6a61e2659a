// -----------------------------------------------------------------------
// Segment Materializer - invokes the rendering collaborator per segment
// over a bounded worker pool. Failures are segment-scoped; siblings
// continue and the batch reports partial-success counts.
// -----------------------------------------------------------------------

package materializer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/interfaces"
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/workers"
)

// Result carries the batch outcome. Processed preserves segment document
// order regardless of worker completion order; Failures lists the segments
// that did not render.
type Result struct {
	Processed []*models.ProcessedSegment
	Failures  []*models.SegmentFailure
}

// Service materializes finalized segments into text
type Service struct {
	renderer    interfaces.Renderer
	concurrency int
	timeout     time.Duration
	retries     int
	logger      arbor.ILogger
}

// NewService creates a new materializer service
func NewService(renderer interfaces.Renderer, config common.WorkersConfig, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = common.GetLogger()
	}

	timeout, err := time.ParseDuration(config.RenderTimeout)
	if err != nil || timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Service{
		renderer:    renderer,
		concurrency: config.MaterializeConcurrency,
		timeout:     timeout,
		retries:     config.RenderRetries,
		logger:      logger,
	}
}

// MaterializeAll renders every segment concurrently up to the configured
// worker count. A single segment's failure never cancels sibling work.
func (s *Service) MaterializeAll(ctx context.Context, segments []*models.Segment) *Result {
	processed := make([]*models.ProcessedSegment, len(segments))
	var failures []*models.SegmentFailure
	var mu sync.Mutex

	pool := workers.NewPool(s.concurrency, s.logger)
	pool.Start()

	for i, seg := range segments {
		idx, segment := i, seg
		err := pool.Submit(func(poolCtx context.Context) error {
			ps, err := s.materializeOne(ctx, segment)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, &models.SegmentFailure{
					SegmentID: segment.ID,
					Title:     segment.Title,
					Err:       err,
				})
				return err
			}
			processed[idx] = ps
			return nil
		})
		if err != nil {
			// Only fires once the pool is shutting down
			mu.Lock()
			failures = append(failures, &models.SegmentFailure{
				SegmentID: segment.ID,
				Title:     segment.Title,
				Err:       err,
			})
			mu.Unlock()
		}
	}

	pool.Wait()

	// Compact while preserving document order
	ordered := make([]*models.ProcessedSegment, 0, len(segments))
	for _, ps := range processed {
		if ps != nil {
			ordered = append(ordered, ps)
		}
	}

	s.logger.Info().
		Int("segments", len(segments)).
		Int("succeeded", len(ordered)).
		Int("failed", len(failures)).
		Msg("Materialization batch complete")

	return &Result{Processed: ordered, Failures: failures}
}

// materializeOne renders a single segment with a per-attempt timeout and a
// small fixed retry cap.
func (s *Service) materializeOne(ctx context.Context, segment *models.Segment) (*models.ProcessedSegment, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		rendered, err := s.renderer.Render(attemptCtx, segment.SourceFile, segment.StartPage, segment.EndPage)
		cancel()

		if err != nil {
			lastErr = err
			s.logger.Warn().
				Str("segment_id", segment.ID).
				Str("title", segment.Title).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Segment render attempt failed")
			continue
		}

		text, tables := ParseRendered([]byte(rendered.Text))
		if len(rendered.Tables) > 0 {
			tables = append(tables, rendered.Tables...)
		}

		if text == "" {
			lastErr = fmt.Errorf("renderer returned empty text for pages %d-%d", segment.StartPage, segment.EndPage)
			continue
		}

		return &models.ProcessedSegment{
			SegmentID:  segment.ID,
			Text:       text,
			Tables:     tables,
			RenderedAt: time.Now().UTC(),
		}, nil
	}

	return nil, fmt.Errorf("failed to materialize segment %q after %d attempts: %w", segment.Title, s.retries+1, lastErr)
}
