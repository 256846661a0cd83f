package storage

import (
	"regexp"
	"strings"
)

// MatchPattern reports whether key matches a KEYS-style glob pattern where
// '*' matches any sequence, '?' matches exactly one character, and every
// other byte (including '.') is literal (§6).
func MatchPattern(pattern, key string) bool {
	if pattern == "*" {
		return true
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return pattern == key
	}
	return re.MatchString(key)
}

func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
