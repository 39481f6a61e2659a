package models

// OutlineNode is one node of the raw hierarchical outline as read from the
// source document. Depth is implied by nesting, not stored on the node.
type OutlineNode struct {
	Title     string        `json:"title"`
	StartPage int           `json:"start_page"`
	EndPage   int           `json:"end_page,omitempty"` // 0 when the source gives no explicit end
	Children  []OutlineNode `json:"children,omitempty"`
}

// OutlineEntry is a flat, depth-tagged outline boundary candidate produced by
// the normalizer. Insertion order matches document order.
type OutlineEntry struct {
	Title     string `json:"title"`
	Depth     int    `json:"depth"`
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page,omitempty"` // 0 means unknown; resolved by the planner
}

// HasEndPage reports whether the entry carries an explicit end page
func (e OutlineEntry) HasEndPage() bool {
	return e.EndPage > 0
}

// NormalizeResult carries the flat entries plus non-fatal findings recorded
// while flattening the raw tree.
type NormalizeResult struct {
	Entries  []OutlineEntry `json:"entries"`
	Warnings []string       `json:"warnings,omitempty"`
	Dropped  []OutlineEntry `json:"dropped,omitempty"` // entries beyond the document page count
}

// MaxDepth returns the deepest level present among the entries, or -1 when empty
func (r NormalizeResult) MaxDepth() int {
	max := -1
	for _, e := range r.Entries {
		if e.Depth > max {
			max = e.Depth
		}
	}
	return max
}

// EntriesAtDepth returns the entries tagged with the given depth, in document order
func (r NormalizeResult) EntriesAtDepth(depth int) []OutlineEntry {
	var out []OutlineEntry
	for _, e := range r.Entries {
		if e.Depth == depth {
			out = append(out, e)
		}
	}
	return out
}
