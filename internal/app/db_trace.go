package app

import (
	"regexp"
	"strings"
)

const tracedQueryLimit = 512

var collapseWhitespace = regexp.MustCompile(`\s+`)

// formatDBQueryForTrace flattens a query to one line and caps its length so
// span attributes stay readable.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	flat := collapseWhitespace.ReplaceAllString(query, " ")
	if len(flat) <= tracedQueryLimit {
		return flat
	}

	return flat[:tracedQueryLimit] + "..."
}
