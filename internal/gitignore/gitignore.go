// Package gitignore implements .gitignore pattern matching for vault
// scanning, following https://git-scm.com/docs/gitignore: the last
// matching rule wins, "!" negates, a trailing "/" restricts the rule to
// directories, and a leading or inner "/" anchors the rule to the
// directory holding the .gitignore file.
package gitignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// rule is a single compiled pattern.
type rule struct {
	re       *regexp.Regexp
	base     string // slash-separated directory the rule is scoped to, "" for root
	negate   bool
	dirOnly  bool
	anchored bool
}

// Ruleset holds compiled rules in declaration order. Build it fully
// before sharing: Add is not safe for concurrent use, Ignored is.
type Ruleset struct {
	rules []rule
}

// New returns an empty Ruleset.
func New() *Ruleset {
	return &Ruleset{}
}

// Load parses a .gitignore file whose rules apply under base (relative
// to the scan root, "" for the root itself).
func Load(path, base string) (*Ruleset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gitignore: %w", err)
	}
	defer func() { _ = f.Close() }()

	rs := New()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		rs.Add(sc.Text(), base)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read gitignore: %w", err)
	}
	return rs, nil
}

// Add compiles one pattern line. Blank lines and comments are ignored.
func (rs *Ruleset) Add(pattern, base string) {
	// "\ " at the end of a line keeps the space, so note it before
	// trimming.
	escapedTrailingSpace := strings.HasSuffix(pattern, `\ `)
	pattern = strings.TrimSpace(pattern)

	if pattern == "" || (strings.HasPrefix(pattern, "#") && !strings.HasPrefix(pattern, `\#`)) {
		return
	}

	r := rule{base: filepath.ToSlash(base)}

	switch {
	case strings.HasPrefix(pattern, `\#`), strings.HasPrefix(pattern, `\!`):
		pattern = pattern[1:]
	case strings.HasPrefix(pattern, "!"):
		r.negate = true
		pattern = pattern[1:]
	}

	if escapedTrailingSpace && strings.HasSuffix(pattern, `\`) {
		pattern = pattern[:len(pattern)-1] + " "
	}

	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	// An inner slash also anchors: "doc/frotz" means "/doc/frotz",
	// not "**/doc/frotz".
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") && !strings.HasPrefix(pattern, "*") {
		r.anchored = true
	}

	r.re = compilePattern(pattern)
	rs.rules = append(rs.rules, r)
}

// Len reports the number of compiled rules.
func (rs *Ruleset) Len() int {
	return len(rs.rules)
}

// Ignored reports whether path (relative to the scan root, any
// separator) is excluded by the rules.
func (rs *Ruleset) Ignored(path string, isDir bool) bool {
	path = filepath.ToSlash(path)

	ignored := false
	for _, r := range rs.rules {
		if r.matches(path, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r rule) matches(path string, isDir bool) bool {
	// Scoped rules only see paths under their base, relative to it.
	if r.base != "" {
		switch {
		case path == r.base:
			path = path[strings.LastIndex(path, "/")+1:]
		case strings.HasPrefix(path, r.base+"/"):
			path = path[len(r.base)+1:]
		default:
			return false
		}
	}

	segs := strings.Split(path, "/")

	if r.anchored {
		if r.re.MatchString(path) {
			if r.dirOnly {
				return isDir
			}
			return true
		}
		// A directory rule also covers everything beneath the
		// directory it names.
		if r.dirOnly {
			for i := 1; i < len(segs); i++ {
				if r.re.MatchString(strings.Join(segs[:i], "/")) {
					return true
				}
			}
		}
		return false
	}

	if r.dirOnly {
		for i, seg := range segs {
			if r.re.MatchString(seg) {
				if i == len(segs)-1 {
					return isDir
				}
				return true
			}
		}
		return false
	}

	// Unanchored file rule: the basename, the whole path (for **
	// patterns), or any single segment.
	if r.re.MatchString(segs[len(segs)-1]) || r.re.MatchString(path) {
		return true
	}
	for _, seg := range segs[:len(segs)-1] {
		if r.re.MatchString(seg) {
			return true
		}
	}
	return false
}

// compilePattern translates a gitignore glob into an anchored regexp.
// "*" and "?" never cross a slash; "**" does.
func compilePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		switch {
		case strings.HasPrefix(rest, "**/"):
			b.WriteString(`(?:.*/)?`)
			i += 3
		case strings.HasPrefix(rest, "**"):
			b.WriteString(`.*`)
			i += 2
		case rest[0] == '*':
			b.WriteString(`[^/]*`)
			i++
		case rest[0] == '?':
			b.WriteString(`[^/]`)
			i++
		case rest[0] == '[':
			if end := strings.IndexByte(rest, ']'); end > 0 {
				b.WriteString(rest[:end+1])
				i += end + 1
			} else {
				b.WriteString(regexp.QuoteMeta("["))
				i++
			}
		case rest[0] == '\\' && len(rest) > 1:
			b.WriteString(regexp.QuoteMeta(string(rest[1])))
			i += 2
		default:
			b.WriteString(regexp.QuoteMeta(string(rest[0])))
			i++
		}
	}

	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		// Malformed glob (unbalanced class, stray escape): treat the
		// pattern as a literal name instead of failing the whole file.
		return regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
	}
	return re
}
