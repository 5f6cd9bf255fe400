package sources

import "context"

type Loader interface {
	// LoadTracks turns an identifier (URL or prefixed search) into tracks
	LoadTracks(ctx context.Context, identifier string) (Result, error)
}
