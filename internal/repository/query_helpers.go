package repository

import (
	"math"
	"strings"
)

const maxPageSize = 100

// maxOffset keeps OFFSET within what Postgres accepts; pages past it are empty.
const maxOffset = math.MaxInt32

// clampPage normalises 1-based paging input.
func clampPage(page, size, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = fallback
	}
	if last := maxOffset/size + 1; page > last {
		page = last
	}
	return page, size
}

// likePattern lower-cases term and wraps it for a substring LIKE match.
// LIKE wildcards inside term are escaped.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + escaped + "%"
}
