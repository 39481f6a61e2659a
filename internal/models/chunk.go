package models

// Chunk is a bounded slice of segment text used as the unit of retrieval.
// [StartChar, EndChar) ranges of a segment's chunks cover the full segment
// text with no gaps. Chunk IDs are deterministic for a fixed configuration.
type Chunk struct {
	ID        string    `json:"id"`
	SegmentID string    `json:"segment_id"`
	CorpusID  string    `json:"corpus_id"`
	StartChar int       `json:"start_char"`
	EndChar   int       `json:"end_char"`
	Text      string    `json:"text"`
	Keywords  []string  `json:"keywords,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`

	// Provenance stamped after chunking, carried into Evidence
	SourceFile   string `json:"source_file,omitempty"`
	SourceType   string `json:"source_type,omitempty"`
	SegmentTitle string `json:"segment_title,omitempty"`
}

// Length returns the chunk's character span
func (c Chunk) Length() int {
	return c.EndChar - c.StartChar
}

// HasEmbedding reports whether a vector is attached
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// Evidence is a scored, provenance-tagged retrieval result. Transient,
// produced per query, never persisted.
type Evidence struct {
	ChunkID        string            `json:"chunk_id"`
	SegmentID      string            `json:"segment_id"`
	FilePath       string            `json:"file_path"`
	Anchor         string            `json:"anchor,omitempty"`
	Content        string            `json:"content"`
	StartChar      int               `json:"start_char"`
	EndChar        int               `json:"end_char"`
	RelevanceScore float64           `json:"relevance_score"`
	SourceType     string            `json:"source_type"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Citation is a deduplicated, user-facing reference derived from one Evidence
// item. Text is always a verbatim substring of the evidence content.
type Citation struct {
	Source    string `json:"source"`
	FilePath  string `json:"file_path"`
	Anchor    string `json:"anchor,omitempty"`
	StartChar int    `json:"start_char,omitempty"`
	EndChar   int    `json:"end_char,omitempty"`
	Text      string `json:"text"`
	ChunkID   string `json:"chunk_id,omitempty"`
}

// SearchFilters narrows retrieval to a source type or specific segment
type SearchFilters struct {
	SourceType string `json:"source_type,omitempty"`
	SegmentID  string `json:"segment_id,omitempty"`
}
