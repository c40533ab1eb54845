package sites

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled URL pattern. '*' matches any run of characters,
// including none; every other character is literal. Matching is anchored
// and case-sensitive.
type Pattern struct {
	g   glob.Glob
	src string
}

// CompilePattern compiles a URL pattern.
func CompilePattern(pattern string) (Pattern, error) {
	if pattern == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	g, err := glob.Compile(strings.Join(parts, "*"))
	if err != nil {
		return Pattern{}, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return Pattern{g: g, src: pattern}, nil
}

// Match reports whether the whole url matches the pattern.
func (p Pattern) Match(url string) bool {
	return p.g != nil && p.g.Match(url)
}

func (p Pattern) String() string { return p.src }
