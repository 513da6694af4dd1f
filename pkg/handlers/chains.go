// This file implements the convenience tools that chain several catalog
// lookups: the artist audio profile and the primary-performer track listing.
// Each upstream call in a chain is strictly sequential and independently
// classified; the first failure aborts the whole tool call so callers never
// see partial results.
package handlers

import (
	"context"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// profileAlbumLimit is how deep into the discography the chained tools look.
const profileAlbumLimit = 50

// ownTracksCap bounds the song list returned by get_artist_own_tracks; the
// total count still reflects every match.
const ownTracksCap = 25

type audioProfile struct {
	ArtistID            string  `json:"artist_id"`
	ArtistName          string  `json:"artist_name"`
	TrackCount          int     `json:"track_count"`
	AvgDanceability     float64 `json:"avg_danceability"`
	AvgEnergy           float64 `json:"avg_energy"`
	AvgValence          float64 `json:"avg_valence"`
	AvgInstrumentalness float64 `json:"avg_instrumentalness"`
	AvgSpeechiness      float64 `json:"avg_speechiness"`
	AvgTempo            float64 `json:"avg_tempo"`
}

type ownTrack struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	URL         string `json:"url"`
}

type ownTracksResult struct {
	ArtistID   string     `json:"artist_id"`
	ArtistName string     `json:"artist_name"`
	TotalSongs int        `json:"total_songs"`
	Songs      []ownTrack `json:"songs"`
}

func (app *Application) handleArtistAudioProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_artist_audio_profile"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	profile, err := app.artistAudioProfile(ctx, artistID)
	return app.finish(tool, profile, err)
}

func (app *Application) handleArtistOwnTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_artist_own_tracks"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	result, err := app.artistOwnTracks(ctx, artistID)
	return app.finish(tool, result, err)
}

// artistAudioProfile resolves the artist, walks their discography collecting
// track ids, fetches audio features in batches and averages them.
func (app *Application) artistAudioProfile(ctx context.Context, artistID string) (audioProfile, error) {
	artist, err := app.Catalog.Artist(ctx, artistID)
	if err != nil {
		return audioProfile{}, err
	}
	albums, err := app.Catalog.ArtistAlbums(ctx, artistID, profileAlbumLimit)
	if err != nil {
		return audioProfile{}, err
	}

	var trackIDs []string
	for _, album := range albums {
		tracks, err := app.Catalog.AlbumTracks(ctx, album.ID)
		if err != nil {
			return audioProfile{}, err
		}
		for _, t := range tracks {
			trackIDs = append(trackIDs, t.ID)
		}
	}

	profile := audioProfile{ArtistID: artist.ID, ArtistName: artist.Name}
	var sums struct {
		danceability, energy, valence, instrumentalness, speechiness, tempo float64
	}
	for start := 0; start < len(trackIDs); start += batchIDLimit {
		end := start + batchIDLimit
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		batch, err := app.Catalog.TrackFeaturesBatch(ctx, trackIDs[start:end])
		if err != nil {
			return audioProfile{}, err
		}
		for _, entry := range batch {
			if !entry.Found {
				continue
			}
			f := entry.Features
			sums.danceability += f.Danceability
			sums.energy += f.Energy
			sums.valence += f.Valence
			sums.instrumentalness += f.Instrumentalness
			sums.speechiness += f.Speechiness
			sums.tempo += f.Tempo
			profile.TrackCount++
		}
	}
	if profile.TrackCount > 0 {
		n := float64(profile.TrackCount)
		profile.AvgDanceability = round3(sums.danceability / n)
		profile.AvgEnergy = round3(sums.energy / n)
		profile.AvgValence = round3(sums.valence / n)
		profile.AvgInstrumentalness = round3(sums.instrumentalness / n)
		profile.AvgSpeechiness = round3(sums.speechiness / n)
		profile.AvgTempo = round3(sums.tempo / n)
	}
	return profile, nil
}

// artistOwnTracks walks the discography and keeps only tracks whose first
// listed artist is the resolved artist, excluding features and
// collaborations where they are a guest.
func (app *Application) artistOwnTracks(ctx context.Context, artistID string) (ownTracksResult, error) {
	artist, err := app.Catalog.Artist(ctx, artistID)
	if err != nil {
		return ownTracksResult{}, err
	}
	albums, err := app.Catalog.ArtistAlbums(ctx, artistID, profileAlbumLimit)
	if err != nil {
		return ownTracksResult{}, err
	}

	result := ownTracksResult{ArtistID: artist.ID, ArtistName: artist.Name, Songs: []ownTrack{}}
	for _, album := range albums {
		tracks, err := app.Catalog.AlbumTracks(ctx, album.ID)
		if err != nil {
			return ownTracksResult{}, err
		}
		for _, t := range tracks {
			if len(t.Artists) == 0 || !strings.EqualFold(t.Artists[0], artist.Name) {
				continue
			}
			result.TotalSongs++
			if len(result.Songs) < ownTracksCap {
				result.Songs = append(result.Songs, ownTrack{
					ID:          t.ID,
					Name:        t.Name,
					Album:       album.Name,
					ReleaseDate: album.ReleaseDate,
					URL:         t.URL,
				})
			}
		}
	}
	return result, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
