package routing

import (
	"regexp"
	"strings"

	"github.com/Nyukimin/mcpchat/internal/domain/routing"
)

var (
	driveCreateFolder = regexp.MustCompile(`(?i)\b(?:create|make|add|new)\b.*\bfolder\b`)
	driveSearch       = regexp.MustCompile(`(?i)\b(?:search|find|look\s+for|locate)\b`)
	driveList         = regexp.MustCompile(`(?i)\b(?:list|show|display|get|see|view)\b.*\b(?:files|documents|docs|drive)\b`)
	driveWhatsIn      = regexp.MustCompile(`(?i)\bwhat(?:'s|\s+is)\s+in\s+my\s+drive\b`)

	folderNameProbes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bfolder\b.*?` + openQuote + quotedBody + closeQuote),
		regexp.MustCompile(`(?i)\b(?:called|named|titled)\s*:?\s+(.+)$`),
		regexp.MustCompile(`(?i)\bfolder\s+(?:for|about)\s+(.+)$`),
	}

	driveQueryProbes = []*regexp.Regexp{
		quotedAnywhere,
		regexp.MustCompile(`(?i)\b(?:named|called|titled|about|containing|for)\s+(.+)$`),
		regexp.MustCompile(`(?i)\b(?:search|find|locate)\s+(?:(?:my|the|all|a|some)\s+)*(?:(?:files?|documents?|docs)\s+)?(.+)$`),
	}

	// "in my drive" and similar trailers are not part of the query
	driveTrailer = regexp.MustCompile(`(?i)\s+(?:in|on|from)\s+(?:my\s+)?(?:google\s+)?drive\b.*$`)
)

// queries that only restate what is being searched
var emptyDriveQueries = map[string]bool{
	"file": true, "files": true, "document": true, "documents": true,
	"doc": true, "docs": true, "everything": true, "something": true,
}

// NewDriveDictionary は Drive 向けのルール辞書を作成
func NewDriveDictionary() *RuleDictionary {
	return newRuleDictionary(routing.DomainDrive,
		rule{name: "drive.create_folder", pattern: driveCreateFolder, action: routing.ActionCreateFolder, extract: extractFolderName},
		rule{name: "drive.search", pattern: driveSearch, action: routing.ActionSearch, extract: extractDriveQuery},
		rule{name: "drive.list", pattern: driveList, action: routing.ActionList},
		rule{name: "drive.list.whats_in", pattern: driveWhatsIn, action: routing.ActionList},
	)
}

func extractFolderName(text string) map[string]string {
	name, _ := firstCapture(text, folderNameProbes)
	return fieldsOf(routing.FieldName, name)
}

func extractDriveQuery(text string) map[string]string {
	query, _ := firstCapture(driveTrailer.ReplaceAllString(text, ""), driveQueryProbes)
	if emptyDriveQueries[strings.ToLower(query)] {
		query = ""
	}
	return fieldsOf(routing.FieldQuery, query)
}
