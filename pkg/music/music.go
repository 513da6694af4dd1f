// Package music defines the normalized record types returned by catalog
// lookups together with the Catalog interface implemented by concrete
// providers. By depending on this package the tool layer remains agnostic
// about the upstream API and its JSON shapes; nothing past the provider's
// normalizer ever sees a raw upstream payload.
package music

import "context"

// ArtistSummary is the normalized artist record. Genres and Images preserve
// upstream ordering; Images are listed largest first as the upstream returns
// them.
type ArtistSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  int      `json:"followers"`
	Images     []string `json:"images,omitempty"`
	URL        string   `json:"url"`
}

// TrackSummary is the normalized track record. PreviewURL is nil when the
// upstream omits a preview. MarketCount summarizes market availability;
// Markets carries the full ordered code list only for tools that need it
// (track details).
type TrackSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	ReleaseDate string   `json:"release_date,omitempty"`
	DurationMS  int      `json:"duration_ms"`
	Popularity  int      `json:"popularity"`
	Explicit    bool     `json:"explicit"`
	PreviewURL  *string  `json:"preview_url"`
	MarketCount int      `json:"market_count"`
	Markets     []string `json:"markets,omitempty"`
	URL         string   `json:"url"`
}

// AlbumTrack is the minimal per-track entry inside an album listing. Artists
// is included so callers can distinguish the primary performer on
// compilation entries.
type AlbumTrack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TrackNumber int      `json:"track_number"`
	Artists     []string `json:"artists,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// AlbumSummary is the normalized album record. ReleaseDate preserves the
// upstream precision and may be year-only, year-month or a full date.
// Popularity, Label and Copyright are only populated for full album lookups;
// the abbreviated album objects returned by artist discography listings do
// not carry them.
type AlbumSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Artists     []string     `json:"artists"`
	ReleaseDate string       `json:"release_date"`
	TotalTracks int          `json:"total_tracks"`
	Tracks      []AlbumTrack `json:"tracks,omitempty"`
	Images      []string     `json:"images,omitempty"`
	Popularity  int          `json:"popularity,omitempty"`
	Label       string       `json:"label,omitempty"`
	Copyright   string       `json:"copyright,omitempty"`
	URL         string       `json:"url"`
}

// AudioFeatureSummary is the normalized audio analysis record for one track.
// Key is -1 when the upstream detected no key; the value is passed through
// unmodified. Loudness is in dB and typically negative.
type AudioFeatureSummary struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
	DurationMS       int     `json:"duration_ms"`
	TimeSignature    int     `json:"time_signature"`
}

// TrackFeatures is one positional entry of a batch audio-feature lookup.
// Found is false when the upstream could not resolve the requested id; the
// entry is kept in place so the result slice always lines up index-for-index
// with the requested ids.
type TrackFeatures struct {
	TrackID  string               `json:"track_id"`
	Found    bool                 `json:"found"`
	Features *AudioFeatureSummary `json:"features,omitempty"`
}

// Catalog exposes the read-only lookups the tool layer is built on. Every
// method accepts a context for cancellation and returns a typed *Error on
// failure (see errors.go). Implementations must be safe for concurrent use.
type Catalog interface {
	// SearchArtists returns up to limit artists matching name, best match
	// first.
	SearchArtists(ctx context.Context, name string, limit int) ([]ArtistSummary, error)

	// SearchTracks returns up to limit tracks matching the free-form query.
	SearchTracks(ctx context.Context, query string, limit int) ([]TrackSummary, error)

	// ArtistTopTracks returns the artist's most popular tracks for the given
	// market code.
	ArtistTopTracks(ctx context.Context, artistID, market string) ([]TrackSummary, error)

	// ArtistAlbums returns up to limit albums and singles for the artist,
	// newest first as the upstream orders them.
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]AlbumSummary, error)

	// Artist returns the full artist record.
	Artist(ctx context.Context, artistID string) (ArtistSummary, error)

	// RelatedArtists returns up to limit artists similar to the given one.
	RelatedArtists(ctx context.Context, artistID string, limit int) ([]ArtistSummary, error)

	// Track returns the full track record including the market code list.
	Track(ctx context.Context, trackID string) (TrackSummary, error)

	// Album returns the full album record including the complete track
	// listing, label and copyright.
	Album(ctx context.Context, albumID string) (AlbumSummary, error)

	// AlbumTracks returns the track entries of an album.
	AlbumTracks(ctx context.Context, albumID string) ([]AlbumTrack, error)

	// TrackFeatures returns the audio features of a single track.
	TrackFeatures(ctx context.Context, trackID string) (AudioFeatureSummary, error)

	// TrackFeaturesBatch resolves audio features for up to 100 track ids in
	// one upstream call. The result has exactly one entry per requested id,
	// in request order, with unresolved ids marked not-found in place.
	TrackFeaturesBatch(ctx context.Context, trackIDs []string) ([]TrackFeatures, error)
}
