package dataset

import (
	"os"
	"path/filepath"
	"strings"
)

// ListCSVs walks dir up to depth 1 and returns the plain and the gzip
// compressed CSV tables it holds. Logs may be stored flat or one directory
// per match.
func ListCSVs(dir string) (plain, compressed []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	add := func(path string) {
		switch {
		case strings.HasSuffix(path, ".csv"):
			plain = append(plain, path)
		case strings.HasSuffix(path, ".csv.gz"):
			compressed = append(compressed, path)
		}
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.IsDir() {
			add(path)
			continue
		}
		inner, err := os.ReadDir(path)
		if err != nil {
			return nil, nil, err
		}
		for _, ie := range inner {
			if !ie.IsDir() {
				add(filepath.Join(path, ie.Name()))
			}
		}
	}
	return plain, compressed, nil
}

// MatchStem is the part of a file name before the first dot, which names the
// match every table of a log belongs to.
func MatchStem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return base
}

// GroupByMatch groups table paths by MatchStem.
func GroupByMatch(paths []string) map[string][]string {
	out := map[string][]string{}
	for _, p := range paths {
		stem := MatchStem(p)
		out[stem] = append(out[stem], p)
	}
	return out
}
