package middleware

import "strings"

// pathMatcher matches request paths against exact entries and "/**" subtree
// patterns. "/api/public/**" covers "/api/public" and everything below it.
type pathMatcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func newPathMatcher(patterns []string) pathMatcher {
	m := pathMatcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if base, ok := strings.CutSuffix(p, "/**"); ok {
			m.exact[base] = struct{}{}
			m.prefixes = append(m.prefixes, base+"/")
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m pathMatcher) match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// matchPattern reports whether path falls under a single pattern.
func matchPattern(pattern, path string) bool {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == pattern
}
