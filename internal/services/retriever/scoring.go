package retriever

import (
	"context"
	"math"
	"sort"

	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/chunker"
	"github.com/ternarybob/tomus/internal/services/index"
)

type candidate struct {
	chunkID string
	score   float64
}

// keywordCandidates scores chunks by query term overlap, with a small boost
// when a query token is one of the chunk's extracted keywords. Candidates
// are returned best-first, capped at the configured limit.
func (s *Service) keywordCandidates(snap *index.Snapshot, query string) []candidate {
	tokens := uniqueTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	matched := make(map[string]int)   // chunk id -> matched token count
	boosted := make(map[string]int)   // chunk id -> keyword hits
	for _, token := range tokens {
		for _, id := range snap.PostingList(token) {
			matched[id]++
			if chunkHasKeyword(snap.Lookup(id), token) {
				boosted[id]++
			}
		}
	}

	candidates := make([]candidate, 0, len(matched))
	for id, count := range matched {
		score := float64(count) / float64(len(tokens))
		score += 0.1 * float64(boosted[id])
		candidates = append(candidates, candidate{chunkID: id, score: score})
	}

	s.sortCandidates(snap, candidates)
	return s.cap(candidates)
}

// vectorCandidates scores chunks by cosine similarity to the query
// embedding. Returns nil when no vector side is available.
func (s *Service) vectorCandidates(ctx context.Context, snap *index.Snapshot, query string) []candidate {
	if s.embedder == nil || !snap.HasVectors() {
		return nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Query embedding failed, falling back to keyword results")
		return nil
	}

	var candidates []candidate
	for _, ch := range snap.Chunks() {
		if !ch.HasEmbedding() {
			continue
		}
		sim := cosineSimilarity(queryVec, ch.Embedding)
		if sim <= 0 {
			continue
		}
		candidates = append(candidates, candidate{chunkID: ch.ID, score: sim})
	}

	s.sortCandidates(snap, candidates)
	return s.cap(candidates)
}

// fuse merges the two candidate lists. With reciprocal-rank fusion each list
// contributes 1/(k + rank); with linear fusion the raw scores combine under
// the configured weights.
func (s *Service) fuse(snap *index.Snapshot, keyword, vector []candidate) []candidate {
	if len(vector) == 0 {
		return keyword
	}
	if len(keyword) == 0 && s.config.FusionMode == "linear" {
		return s.weighted(nil, vector)
	}

	if s.config.FusionMode == "linear" {
		return s.weighted(keyword, vector)
	}

	k := float64(s.config.RRFConstant)
	scores := make(map[string]float64)
	for rank, cand := range keyword {
		scores[cand.chunkID] += 1.0 / (k + float64(rank+1))
	}
	for rank, cand := range vector {
		scores[cand.chunkID] += 1.0 / (k + float64(rank+1))
	}

	fused := make([]candidate, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, candidate{chunkID: id, score: score})
	}
	return fused
}

// weighted combines raw scores linearly, normalizing the weights
func (s *Service) weighted(keyword, vector []candidate) []candidate {
	kw, vw := s.config.KeywordWeight, s.config.VectorWeight
	if sum := kw + vw; sum > 0 {
		kw /= sum
		vw /= sum
	}

	scores := make(map[string]float64)
	for _, cand := range keyword {
		scores[cand.chunkID] += kw * cand.score
	}
	for _, cand := range vector {
		scores[cand.chunkID] += vw * cand.score
	}

	fused := make([]candidate, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, candidate{chunkID: id, score: score})
	}
	return fused
}

func (s *Service) sortCandidates(snap *index.Snapshot, candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return snap.DocOrder(candidates[i].chunkID) < snap.DocOrder(candidates[j].chunkID)
	})
}

func (s *Service) cap(candidates []candidate) []candidate {
	if s.config.CandidateLimit > 0 && len(candidates) > s.config.CandidateLimit {
		return candidates[:s.config.CandidateLimit]
	}
	return candidates
}

func uniqueTokens(query string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, t := range chunker.Tokenize(query) {
		if !seen[t] {
			seen[t] = true
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func chunkHasKeyword(chunk *models.Chunk, token string) bool {
	if chunk == nil {
		return false
	}
	for _, kw := range chunk.Keywords {
		if kw == token {
			return true
		}
	}
	return false
}

// cosineSimilarity computes the cosine of two vectors; zero when either has
// no magnitude or dimensions differ
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
