// -----------------------------------------------------------------------
// Cross-Reference Builder - finds internal reference mentions in segment
// text and resolves them to target segment ids. Unresolved mentions are
// retained as plain text, never dropped.
// -----------------------------------------------------------------------

package xref

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tomus/internal/common"
	"github.com/ternarybob/tomus/internal/models"
)

// Reference marker synonyms are fixed; matching is case-insensitive and
// tolerates "Sec." vs "§" vs "Section" punctuation variance.
var refPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"chapter", regexp.MustCompile(`(?i)\b(?:chapter|chap\.|ch\.)\s+(\d+[A-Za-z]?)\b`)},
	{"section", regexp.MustCompile(`(?i)(?:§|\bsec\.|\bsection\b)\s*(\d+(?:[-.]\d+[A-Za-z]?)*)`)},
	{"item", regexp.MustCompile(`(?i)\bitem\s+(\d+[A-Za-z]?)\b`)},
}

// Title patterns extract the numbering a segment is addressable by
var titlePatterns = map[string]*regexp.Regexp{
	"chapter": regexp.MustCompile(`(?i)^chapter\s+(\d+[A-Za-z]?)\b`),
	"section": regexp.MustCompile(`(?i)^(?:§|sec\.|section)\s*(\d+(?:[-.]\d+[A-Za-z]?)*)`),
	"item":    regexp.MustCompile(`(?i)^(?:agenda\s+)?item\s+(\d+[A-Za-z]?)\b`),
}

// Leading bare numbering such as "5. Zoning" or "7A - Budget"
var bareNumberPattern = regexp.MustCompile(`^(\d+[A-Za-z]?)[\.\:\-\s]`)

// Builder scans materialized segment text for cross references
type Builder struct {
	logger arbor.ILogger
}

// NewBuilder creates a new cross-reference builder
func NewBuilder(logger arbor.ILogger) *Builder {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Builder{logger: logger}
}

// Build extracts and resolves references for every processed segment,
// attaching them in place. Returns the count of unresolved mentions.
func (b *Builder) Build(segments []*models.Segment, processed []*models.ProcessedSegment) int {
	lookup := b.buildLookup(segments)

	unresolved := 0
	for _, ps := range processed {
		refs := b.extract(ps.Text)
		for i := range refs {
			refs[i].TargetID = b.resolve(lookup, refs[i].Kind, refs[i].Number)
			if refs[i].TargetID == "" {
				unresolved++
			}
		}
		ps.References = refs
	}

	if unresolved > 0 {
		b.logger.Debug().
			Int("unresolved", unresolved).
			Msg("Cross-reference mentions without a target segment")
	}

	return unresolved
}

// buildLookup maps normalized "kind:number" keys to segment ids using each
// segment's title numbering.
func (b *Builder) buildLookup(segments []*models.Segment) map[string]string {
	lookup := make(map[string]string)

	register := func(kind, number, id string) {
		key := lookupKey(kind, number)
		if _, exists := lookup[key]; !exists {
			lookup[key] = id
		}
	}

	for _, seg := range segments {
		title := strings.TrimSpace(seg.Title)

		matched := false
		for kind, re := range titlePatterns {
			if m := re.FindStringSubmatch(title); m != nil {
				register(kind, m[1], seg.ID)
				matched = true
			}
		}
		if matched {
			continue
		}

		// Fall back to a leading bare number, keyed by the segment's type
		if m := bareNumberPattern.FindStringSubmatch(title); m != nil {
			register(kindForType(seg.Type), m[1], seg.ID)
		}
	}

	return lookup
}

// extract finds reference mentions in document order
func (b *Builder) extract(text string) []models.CrossReference {
	var refs []models.CrossReference

	for _, p := range refPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			refs = append(refs, models.CrossReference{
				RawText:   text[loc[0]:loc[1]],
				Kind:      p.kind,
				Number:    text[loc[2]:loc[3]],
				StartChar: loc[0],
				EndChar:   loc[1],
			})
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].StartChar < refs[j].StartChar
	})

	return refs
}

// resolve matches a mention against the lookup. Section references with
// compound numbering ("5-3") fall back to the owning chapter when no
// section-level segment exists.
func (b *Builder) resolve(lookup map[string]string, kind, number string) string {
	if id, ok := lookup[lookupKey(kind, number)]; ok {
		return id
	}

	if kind == "section" {
		lead := leadingNumber(number)
		if lead != "" {
			if id, ok := lookup[lookupKey("chapter", lead)]; ok {
				return id
			}
		}
	}

	return ""
}

func lookupKey(kind, number string) string {
	number = strings.ToLower(strings.TrimSpace(number))
	number = strings.TrimLeft(number, "0")
	if number == "" {
		number = "0"
	}
	return kind + ":" + number
}

// leadingNumber returns the part of a compound number before the first
// separator ("5-3" -> "5")
func leadingNumber(number string) string {
	for i, r := range number {
		if r == '-' || r == '.' {
			return number[:i]
		}
	}
	return number
}

func kindForType(t models.SegmentType) string {
	switch t {
	case models.SegmentTypeChapter:
		return "chapter"
	case models.SegmentTypeAgendaItem:
		return "item"
	default:
		return "section"
	}
}
