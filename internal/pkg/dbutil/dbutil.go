// Package dbutil adapts gendry-built MySQL-flavored SQL for Postgres.
package dbutil

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
)

var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

// Finalize rewrites gendry's "LIMIT offset, count" into Postgres
// "LIMIT count OFFSET offset" (swapping the two bound args) and rebinds
// every ? placeholder to $n.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	loc := limitRegex.FindStringIndex(query)
	if loc != nil {
		prefix := query[:loc[0]]
		qCount := strings.Count(prefix, "?")
		if qCount+1 < len(args) {
			args[qCount], args[qCount+1] = args[qCount+1], args[qCount]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}
