// This file converts raw Spotify payloads into the stable record types in
// pkg/music. Required fields are decoded through pointers so that an absent
// field is distinguishable from a zero value: the data is musical metadata
// and silently substituting zeros (a danceability of 0, a key of 0) would
// corrupt any downstream comparison. A missing expected field is reported as
// a malformed-upstream error instead.
package spotify

import (
	"spotify-insights-mcp/pkg/music"
)

type rawImage struct {
	URL string `json:"url"`
}

type rawArtistRef struct {
	Name *string `json:"name"`
}

type rawArtist struct {
	ID        *string  `json:"id"`
	Name      *string  `json:"name"`
	Genres    []string `json:"genres"`
	Followers *struct {
		Total *int `json:"total"`
	} `json:"followers"`
	Popularity   *int              `json:"popularity"`
	Images       []rawImage        `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type rawAlbumRef struct {
	Name        *string `json:"name"`
	ReleaseDate string  `json:"release_date"`
}

type rawTrack struct {
	ID               *string           `json:"id"`
	Name             *string           `json:"name"`
	Artists          []rawArtistRef    `json:"artists"`
	Album            *rawAlbumRef      `json:"album"`
	DurationMS       *int              `json:"duration_ms"`
	Popularity       *int              `json:"popularity"`
	Explicit         bool              `json:"explicit"`
	PreviewURL       *string           `json:"preview_url"`
	AvailableMarkets []string          `json:"available_markets"`
	TrackNumber      int               `json:"track_number"`
	ExternalURLs     map[string]string `json:"external_urls"`
}

type rawAlbum struct {
	ID          *string        `json:"id"`
	Name        *string        `json:"name"`
	Artists     []rawArtistRef `json:"artists"`
	ReleaseDate *string        `json:"release_date"`
	TotalTracks *int           `json:"total_tracks"`
	Images      []rawImage     `json:"images"`
	Popularity  *int           `json:"popularity"`
	Label       string         `json:"label"`
	Copyrights  []struct {
		Text string `json:"text"`
	} `json:"copyrights"`
	Tracks *struct {
		Items []rawTrack `json:"items"`
	} `json:"tracks"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type rawFeatures struct {
	ID               *string  `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Acousticness     *float64 `json:"acousticness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Speechiness      *float64 `json:"speechiness"`
	Key              *int     `json:"key"`
	Mode             *int     `json:"mode"`
	Tempo            *float64 `json:"tempo"`
	Loudness         *float64 `json:"loudness"`
	DurationMS       *int     `json:"duration_ms"`
	TimeSignature    *int     `json:"time_signature"`
}

// malformed builds the error reported when a payload lacks a field the
// normalizer requires.
func malformed(op, field string) error {
	return music.E(music.KindMalformedUpstream, op, "missing field %q in upstream response", field)
}

func normalizeArtist(op string, a rawArtist) (music.ArtistSummary, error) {
	switch {
	case a.ID == nil:
		return music.ArtistSummary{}, malformed(op, "id")
	case a.Name == nil:
		return music.ArtistSummary{}, malformed(op, "name")
	case a.Popularity == nil:
		return music.ArtistSummary{}, malformed(op, "popularity")
	case a.Followers == nil || a.Followers.Total == nil:
		return music.ArtistSummary{}, malformed(op, "followers.total")
	}
	out := music.ArtistSummary{
		ID:         *a.ID,
		Name:       *a.Name,
		Genres:     a.Genres,
		Popularity: *a.Popularity,
		Followers:  *a.Followers.Total,
		URL:        a.ExternalURLs["spotify"],
	}
	if out.Genres == nil {
		out.Genres = []string{}
	}
	for _, img := range a.Images {
		out.Images = append(out.Images, img.URL)
	}
	if out.URL == "" {
		return music.ArtistSummary{}, malformed(op, "external_urls.spotify")
	}
	return out, nil
}

// normalizeTrack handles both search/top-track results (album attached) and
// the bare track objects inside an album listing (no album, no popularity).
// includeMarkets controls whether the full market code list is carried; most
// tools only need the count.
func normalizeTrack(op string, t rawTrack, includeMarkets bool) (music.TrackSummary, error) {
	switch {
	case t.ID == nil:
		return music.TrackSummary{}, malformed(op, "id")
	case t.Name == nil:
		return music.TrackSummary{}, malformed(op, "name")
	case t.DurationMS == nil:
		return music.TrackSummary{}, malformed(op, "duration_ms")
	case len(t.Artists) == 0:
		return music.TrackSummary{}, malformed(op, "artists")
	}
	out := music.TrackSummary{
		ID:          *t.ID,
		Name:        *t.Name,
		DurationMS:  *t.DurationMS,
		Explicit:    t.Explicit,
		PreviewURL:  t.PreviewURL,
		MarketCount: len(t.AvailableMarkets),
		URL:         t.ExternalURLs["spotify"],
	}
	for _, a := range t.Artists {
		if a.Name == nil {
			return music.TrackSummary{}, malformed(op, "artists.name")
		}
		out.Artists = append(out.Artists, *a.Name)
	}
	if t.Popularity != nil {
		out.Popularity = *t.Popularity
	}
	if t.Album != nil {
		if t.Album.Name == nil {
			return music.TrackSummary{}, malformed(op, "album.name")
		}
		out.Album = *t.Album.Name
		out.ReleaseDate = t.Album.ReleaseDate
	}
	if includeMarkets {
		out.Markets = t.AvailableMarkets
	}
	return out, nil
}

// normalizeAlbum handles both the abbreviated album objects of a discography
// listing and full album records. full demands the detail-only fields
// (popularity, label, copyright, track listing) that abbreviated objects do
// not carry.
func normalizeAlbum(op string, a rawAlbum, full bool) (music.AlbumSummary, error) {
	switch {
	case a.ID == nil:
		return music.AlbumSummary{}, malformed(op, "id")
	case a.Name == nil:
		return music.AlbumSummary{}, malformed(op, "name")
	case a.ReleaseDate == nil:
		return music.AlbumSummary{}, malformed(op, "release_date")
	case a.TotalTracks == nil:
		return music.AlbumSummary{}, malformed(op, "total_tracks")
	case len(a.Artists) == 0:
		return music.AlbumSummary{}, malformed(op, "artists")
	}
	out := music.AlbumSummary{
		ID:          *a.ID,
		Name:        *a.Name,
		ReleaseDate: *a.ReleaseDate,
		TotalTracks: *a.TotalTracks,
		Label:       a.Label,
		URL:         a.ExternalURLs["spotify"],
	}
	for _, ar := range a.Artists {
		if ar.Name == nil {
			return music.AlbumSummary{}, malformed(op, "artists.name")
		}
		out.Artists = append(out.Artists, *ar.Name)
	}
	for _, img := range a.Images {
		out.Images = append(out.Images, img.URL)
	}
	if len(a.Copyrights) > 0 {
		out.Copyright = a.Copyrights[0].Text
	}
	if full {
		if a.Popularity == nil {
			return music.AlbumSummary{}, malformed(op, "popularity")
		}
		out.Popularity = *a.Popularity
		if a.Tracks == nil {
			return music.AlbumSummary{}, malformed(op, "tracks")
		}
		tracks, err := normalizeAlbumTracks(op, a.Tracks.Items)
		if err != nil {
			return music.AlbumSummary{}, err
		}
		out.Tracks = tracks
	}
	return out, nil
}

func normalizeAlbumTracks(op string, items []rawTrack) ([]music.AlbumTrack, error) {
	out := make([]music.AlbumTrack, 0, len(items))
	for _, t := range items {
		if t.ID == nil || t.Name == nil {
			return nil, malformed(op, "tracks.items")
		}
		entry := music.AlbumTrack{ID: *t.ID, Name: *t.Name, TrackNumber: t.TrackNumber, URL: t.ExternalURLs["spotify"]}
		for _, a := range t.Artists {
			if a.Name != nil {
				entry.Artists = append(entry.Artists, *a.Name)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func normalizeFeatures(op string, f rawFeatures) (music.AudioFeatureSummary, error) {
	// Every field is required; the key in particular is passed through even
	// when it is -1 (no key detected).
	fields := map[string]bool{
		"id":               f.ID == nil,
		"danceability":     f.Danceability == nil,
		"energy":           f.Energy == nil,
		"valence":          f.Valence == nil,
		"acousticness":     f.Acousticness == nil,
		"instrumentalness": f.Instrumentalness == nil,
		"liveness":         f.Liveness == nil,
		"speechiness":      f.Speechiness == nil,
		"key":              f.Key == nil,
		"mode":             f.Mode == nil,
		"tempo":            f.Tempo == nil,
		"loudness":         f.Loudness == nil,
		"duration_ms":      f.DurationMS == nil,
		"time_signature":   f.TimeSignature == nil,
	}
	for name, missing := range fields {
		if missing {
			return music.AudioFeatureSummary{}, malformed(op, name)
		}
	}
	return music.AudioFeatureSummary{
		ID:               *f.ID,
		Danceability:     *f.Danceability,
		Energy:           *f.Energy,
		Valence:          *f.Valence,
		Acousticness:     *f.Acousticness,
		Instrumentalness: *f.Instrumentalness,
		Liveness:         *f.Liveness,
		Speechiness:      *f.Speechiness,
		Key:              *f.Key,
		Mode:             *f.Mode,
		Tempo:            *f.Tempo,
		Loudness:         *f.Loudness,
		DurationMS:       *f.DurationMS,
		TimeSignature:    *f.TimeSignature,
	}, nil
}
