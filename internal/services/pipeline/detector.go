package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ternarybob/tomus/internal/models"
)

var (
	codeNamePattern    = regexp.MustCompile(`(?i)\b(code|ordinance|charter|bylaws?)\b`)
	meetingNamePattern = regexp.MustCompile(`(?i)\b(agenda|minutes|packet|meeting|hearing)\b`)
	datedNamePattern   = regexp.MustCompile(`\b(19|20)\d{2}[-_. ]?\d{1,2}[-_. ]?\d{1,2}\b`)
	chapterTitle       = regexp.MustCompile(`(?i)^chapter\s+\d+`)
	itemTitle          = regexp.MustCompile(`(?i)^(agenda\s+)?item\s+\d+`)
)

// DetectDocumentType classifies a source document from its filename and the
// shape of its outline. Filename signals win; outline titles break ties.
func DetectDocumentType(sourcePath string, nodes []models.OutlineNode) models.DocumentType {
	// Underscores count as word characters in regexp, so treat them as
	// separators before matching
	name := strings.ReplaceAll(strings.ToLower(filepath.Base(sourcePath)), "_", " ")

	switch {
	case codeNamePattern.MatchString(name):
		return models.DocumentTypeMunicipalCode
	case meetingNamePattern.MatchString(name):
		return models.DocumentTypeMeetingPacket
	}

	chapters, items := 0, 0
	for _, node := range nodes {
		title := strings.TrimSpace(node.Title)
		if chapterTitle.MatchString(title) {
			chapters++
		}
		if itemTitle.MatchString(title) {
			items++
		}
	}

	switch {
	case chapters > 0 && chapters >= items:
		return models.DocumentTypeMunicipalCode
	case items > 0:
		return models.DocumentTypeMeetingPacket
	case datedNamePattern.MatchString(name):
		// Dated filenames without code markers are usually meeting records
		return models.DocumentTypeMeetingPacket
	}

	return models.DocumentTypeGeneric
}
