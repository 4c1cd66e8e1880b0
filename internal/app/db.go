package app

import (
	"net/url"
	"strings"
)

const tracedQueryMaxLen = 512

// poolerCompatDSN appends disable_prepared_binary_result=yes so lib/pq works
// behind transaction-pooling proxies that cannot keep prepared statements.
// Both DSN styles lib/pq accepts are handled; an explicit value wins.
func poolerCompatDSN(dsn string, disable bool) string {
	if !disable {
		return dsn
	}

	if isKeywordDSN(dsn) {
		if strings.Contains(dsn, "disable_prepared_binary_result=") {
			return dsn
		}
		return strings.TrimSpace(dsn) + " disable_prepared_binary_result=yes"
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	query := parsed.Query()
	if query.Has("disable_prepared_binary_result") {
		return dsn
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// isKeywordDSN reports whether the connection string uses the space-separated
// keyword=value form instead of a postgres:// URL.
func isKeywordDSN(dsn string) bool {
	return !strings.Contains(dsn, "://")
}

// databaseName extracts the database name for trace attributes and startup
// logs. Returns "" when the DSN does not name one.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ""
	}

	if isKeywordDSN(dsn) {
		for _, field := range strings.Fields(dsn) {
			if name, ok := strings.CutPrefix(field, "dbname="); ok {
				return strings.Trim(name, `"'`)
			}
		}
		return ""
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/")
}

// formatTracedQuery collapses whitespace so multi-line SQL reads as a single
// span attribute, clipped so a bulk statement cannot bloat the span.
func formatTracedQuery(query string) string {
	flat := strings.Join(strings.Fields(query), " ")
	if len(flat) > tracedQueryMaxLen {
		return flat[:tracedQueryMaxLen] + "..."
	}
	return flat
}
