package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var ErrMalformedFilename = errors.New("malformed match filename")

// MatchInfo is the metadata encoded in a log file name.
type MatchInfo struct {
	Timestamp  string
	LeftTeam   string
	LeftScore  int
	RightTeam  string
	RightScore int
}

// <timestamp>-<left team>_<left score>-vs-<right team>_<right score>.<table>.csv[.gz]
var matchNamePattern = regexp.MustCompile(`^(\d+)-([a-zA-Z0-9_\-+]+)_(\d+)-vs-([a-zA-Z0-9_\-+]+)_(\d+)\.`)

// ParseMatchInfo extracts the match metadata from a file name or path.
func ParseMatchInfo(name string) (MatchInfo, error) {
	base := filepath.Base(name)
	m := matchNamePattern.FindStringSubmatch(base)
	if m == nil {
		return MatchInfo{}, fmt.Errorf("%w: %s", ErrMalformedFilename, base)
	}
	left, err := strconv.Atoi(m[3])
	if err != nil {
		return MatchInfo{}, fmt.Errorf("%w: left score: %w", ErrMalformedFilename, err)
	}
	right, err := strconv.Atoi(m[5])
	if err != nil {
		return MatchInfo{}, fmt.Errorf("%w: right score: %w", ErrMalformedFilename, err)
	}
	return MatchInfo{
		Timestamp:  m[1],
		LeftTeam:   m[2],
		LeftScore:  left,
		RightTeam:  m[4],
		RightScore: right,
	}, nil
}
