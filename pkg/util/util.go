// Package util holds small path helpers shared by the scanner and the CLI.
package util

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchesGitignore reports whether pathRel matches a gitignore-style pattern.
// pathRel is slash-separated and relative to the directory the pattern was
// defined in; paths that escape that directory never match.
//
// A pattern is anchored to its directory when rooted is set or when it
// contains a slash. Unanchored patterns match at any depth. "**" matches any
// number of whole segments.
func MatchesGitignore(pattern, pathRel string, rooted bool) bool {
	pattern = strings.Trim(filepath.ToSlash(pattern), "/")
	pathRel = filepath.ToSlash(pathRel)
	if pattern == "" || pathRel == "" || pathRel == "." {
		return false
	}
	if pathRel == ".." || strings.HasPrefix(pathRel, "../") {
		return false
	}

	patSegs := strings.Split(pattern, "/")
	pathSegs := strings.Split(pathRel, "/")

	if rooted || len(patSegs) > 1 {
		return matchSegments(patSegs, pathSegs)
	}
	for i := range pathSegs {
		if matchSegments(patSegs, pathSegs[i:]) {
			return true
		}
	}
	return false
}

// RelativeTo returns target relative to base, slash-separated. ok is false
// when no relative path exists.
func RelativeTo(base, target string) (rel string, ok bool) {
	r, err := filepath.Rel(base, target)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(r), true
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, err := path.Match(pat[0], segs[0]); err != nil || !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}
