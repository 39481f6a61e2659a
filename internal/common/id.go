package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewSegmentID generates a unique segment identifier (seg_{uuid})
func NewSegmentID() string {
	return fmt.Sprintf("seg_%s", uuid.New().String())
}

// NewChunkID generates a deterministic chunk identifier from its owning
// segment and chunk ordinal. Chunk IDs must be stable across re-chunking
// runs with identical configuration, so no random component is used.
func NewChunkID(segmentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%04d", segmentID, index)
}

// NewCorpusID derives a corpus identifier from a directory or collection name
func NewCorpusID(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		return "corpus_" + uuid.New().String()
	}
	return name
}
