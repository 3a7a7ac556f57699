package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN accepts "sqlite://<path>[?query]" or a bare file path. It returns
// the driver DSN and the database file path, empty for :memory:.
func parseDSN(dsn string) (string, string, error) {
	rest := dsn
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		rest = strings.TrimPrefix(dsn, "sqlite://")
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("invalid sqlite DSN scheme, expected sqlite:// or a file path")
	}

	if rest == "" {
		return "", "", fmt.Errorf("empty sqlite path")
	}
	if rest == ":memory:" {
		return ":memory:", "", nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, path, nil
	}
	return path, path, nil
}
