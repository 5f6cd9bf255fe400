package source_resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/rainymusic/internal/music/sources"
	"github.com/rs/zerolog/log"
)

const DefaultSearchPrefix = "ytsearch:"

var ErrEmptyQuery = errors.New("empty query")

type SourceResolver struct {
	loader       sources.Loader
	searchPrefix string
}

func New(loader sources.Loader, searchPrefix string) *SourceResolver {
	if searchPrefix == "" {
		searchPrefix = DefaultSearchPrefix
	}
	return &SourceResolver{loader: loader, searchPrefix: searchPrefix}
}

// Identifier returns what the loader should be asked for: URLs verbatim,
// anything else as a search.
func (r *SourceResolver) Identifier(query string) (string, error) {
	query = strings.TrimSpace(query)
	query = strings.TrimSuffix(strings.TrimPrefix(query, "<"), ">")
	if query == "" {
		return "", ErrEmptyQuery
	}
	if isURL(query) {
		return query, nil
	}
	return r.searchPrefix + query, nil
}

func (r *SourceResolver) Resolve(ctx context.Context, query string) (sources.Result, error) {
	identifier, err := r.Identifier(query)
	if err != nil {
		return sources.Result{}, err
	}

	result, err := r.loader.LoadTracks(ctx, identifier)
	if err != nil {
		return sources.Result{}, fmt.Errorf("load %q: %w", identifier, err)
	}

	log.Debug().Str("identifier", identifier).Int("tracks", len(result.Tracks)).Bool("playlist", result.Playlist).Msg("resolved query")
	return result, nil
}
