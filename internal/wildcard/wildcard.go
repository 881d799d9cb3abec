// Package wildcard compiles simple wildcard expressions into anchored,
// case-insensitive matchers: '*' matches any run of characters, '?' matches
// exactly one.
package wildcard

import (
	"fmt"
	"regexp"
	"strings"
)

// Compile translates pattern into a matcher. The match is anchored: the
// whole candidate name must be consumed, so "Raiden" does not match
// "RaidenShogun" but "*Raiden*" does.
func Compile(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	var b strings.Builder
	b.WriteString("(?i)^")
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

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}
