package index

import (
	"github.com/ternarybob/tomus/internal/models"
	"github.com/ternarybob/tomus/internal/services/chunker"
)

// Snapshot is an immutable view of one corpus index. Queries always read a
// complete snapshot; writers build a replacement and swap it in atomically.
type Snapshot struct {
	corpusID   string
	chunks     []*models.Chunk
	byID       map[string]*models.Chunk
	postings   map[string][]string
	docOrder   map[string]int
	hasVectors bool
}

// buildSnapshot indexes the chunks in insertion order
func buildSnapshot(corpusID string, chunks []*models.Chunk) *Snapshot {
	s := &Snapshot{
		corpusID: corpusID,
		chunks:   chunks,
		byID:     make(map[string]*models.Chunk, len(chunks)),
		postings: make(map[string][]string),
		docOrder: make(map[string]int, len(chunks)),
	}

	for pos, ch := range chunks {
		s.byID[ch.ID] = ch
		s.docOrder[ch.ID] = pos
		if ch.HasEmbedding() {
			s.hasVectors = true
		}

		seen := make(map[string]bool)
		for _, token := range chunker.Tokenize(ch.Text) {
			if seen[token] {
				continue
			}
			seen[token] = true
			s.postings[token] = append(s.postings[token], ch.ID)
		}
	}

	return s
}

// CorpusID returns the owning corpus identifier
func (s *Snapshot) CorpusID() string { return s.corpusID }

// Chunks returns all chunks in insertion order
func (s *Snapshot) Chunks() []*models.Chunk { return s.chunks }

// Lookup returns the chunk with the given id, or nil
func (s *Snapshot) Lookup(id string) *models.Chunk { return s.byID[id] }

// PostingList returns the ids of chunks containing the token
func (s *Snapshot) PostingList(token string) []string { return s.postings[token] }

// DocOrder returns the chunk's position in document order; unknown ids sort last
func (s *Snapshot) DocOrder(id string) int {
	if pos, ok := s.docOrder[id]; ok {
		return pos
	}
	return len(s.chunks)
}

// HasVectors reports whether any chunk carries an embedding
func (s *Snapshot) HasVectors() bool { return s.hasVectors }

// Size returns the number of indexed chunks
func (s *Snapshot) Size() int { return len(s.chunks) }
