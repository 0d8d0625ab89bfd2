package leaderboard

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownSource = errors.New("unknown leaderboard source")

type Source string

const (
	SourceLions Source = "lions"
	SourceCubs  Source = "cubs"
	SourceLazy  Source = "lazy"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceLions, SourceCubs, SourceLazy:
		return src, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// IsNFT lions / cubs 按持有数量排名
func (s Source) IsNFT() bool {
	return s == SourceLions || s == SourceCubs
}
