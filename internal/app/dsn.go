package app

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// Matches the tail of a multi-row VALUES list: "($1, $2), ($3, $4), ...".
	extraValueTuplesRegex = regexp.MustCompile(`(\([^()]*\))((?:, \([^()]*\))+)`)
)

// NormalizeDBURL turns off prepared binary results for transaction poolers
// unless the url sets the flag itself.
func NormalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") != "" {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// dbNameFromURL reads the database name from either a postgres:// url or a
// key=value dsn.
func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}

	for _, token := range strings.Fields(trimmed) {
		name, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name = strings.Trim(name, `"'`); name != "" {
			return name
		}
	}
	return ""
}

// formatDBQueryForTrace collapses whitespace and folds the repeated tuples
// of a bulk standings insert so spans stay readable.
func formatDBQueryForTrace(query string) string {
	normalized := queryWhitespaceRegex.ReplaceAllString(strings.TrimSpace(query), " ")
	if normalized == "" {
		return normalized
	}

	normalized = extraValueTuplesRegex.ReplaceAllStringFunc(normalized, func(tuples string) string {
		parts := extraValueTuplesRegex.FindStringSubmatch(tuples)
		extra := strings.Count(parts[2], ", (")
		return fmt.Sprintf("%s /* +%d rows */", parts[1], extra)
	})

	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
