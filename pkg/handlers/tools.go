// This file declares the MCP tool surface and the per-tool handlers. Every
// handler follows the same shape: validate the caller's parameters, run one
// or more catalog lookups, and hand the outcome to finish. Numeric bounds
// are rejected as bad requests rather than silently clamped, except for the
// documented result-count caps (artist search, related artists, artist
// albums) which are part of each tool's contract.
package handlers

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	artistSearchLimit  = 5
	artistAlbumsLimit  = 10
	relatedArtistLimit = 20
	trackSearchMin     = 1
	trackSearchMax     = 50
	trackSearchDefault = 10
	batchIDLimit       = 100
	defaultMarket      = "US"
)

// RegisterTools declares every tool on the MCP server.
func (app *Application) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("search_artist_by_name",
		mcp.WithDescription("Search for artists by name and return basic info including Spotify ID, followers, genres and popularity. Returns at most 5 matches, best match first."),
		mcp.WithString("artist_name",
			mcp.Required(),
			mcp.Description("Artist name to search for."),
		),
	), app.handleSearchArtist)

	s.AddTool(mcp.NewTool("search_tracks",
		mcp.WithDescription("Search the catalog for tracks matching a free-form query."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-form track search query, e.g. 'yellow coldplay'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results, 1-50 (default: 10)."),
		),
	), app.handleSearchTracks)

	s.AddTool(mcp.NewTool("get_artist_top_tracks",
		mcp.WithDescription("Return an artist's most popular tracks with album info and release dates."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
		mcp.WithString("market",
			mcp.Description("ISO market code controlling availability (default: US)."),
		),
	), app.handleArtistTopTracks)

	s.AddTool(mcp.NewTool("get_artist_albums",
		mcp.WithDescription("Fetch up to 10 albums and singles for an artist, newest first."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
	), app.handleArtistAlbums)

	s.AddTool(mcp.NewTool("get_artist_info",
		mcp.WithDescription("Return the full record for one artist: genres, popularity, follower count, images and canonical URL."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
	), app.handleArtistInfo)

	s.AddTool(mcp.NewTool("get_related_artists",
		mcp.WithDescription("Return up to 20 artists similar to the given one."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
	), app.handleRelatedArtists)

	s.AddTool(mcp.NewTool("get_track_audio_features",
		mcp.WithDescription("Fetch audio features for one track: danceability, energy, valence, tempo, key and more. A key of -1 means no key was detected."),
		mcp.WithString("track_id",
			mcp.Required(),
			mcp.Description("Spotify track ID."),
		),
	), app.handleTrackFeatures)

	s.AddTool(mcp.NewTool("get_track_details",
		mcp.WithDescription("Return the full record for one track including the complete market availability list."),
		mcp.WithString("track_id",
			mcp.Required(),
			mcp.Description("Spotify track ID."),
		),
	), app.handleTrackDetails)

	s.AddTool(mcp.NewTool("get_album_details",
		mcp.WithDescription("Return the full record for one album including the complete track listing, label and copyright."),
		mcp.WithString("album_id",
			mcp.Required(),
			mcp.Description("Spotify album ID."),
		),
	), app.handleAlbumDetails)

	s.AddTool(mcp.NewTool("get_multiple_tracks_audio_features",
		mcp.WithDescription("Fetch audio features for up to 100 tracks in one call. The result has one entry per requested id, in request order; unresolvable ids are marked not-found in place."),
		mcp.WithString("track_ids",
			mcp.Required(),
			mcp.Description("Comma-separated Spotify track IDs, at most 100."),
		),
	), app.handleTrackFeaturesBatch)

	s.AddTool(mcp.NewTool("get_artist_audio_profile",
		mcp.WithDescription("Summarize average audio features across an artist's albums and singles to characterize their musical style."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
	), app.handleArtistAudioProfile)

	s.AddTool(mcp.NewTool("get_artist_own_tracks",
		mcp.WithDescription("List tracks where the artist is the primary performer, excluding features and collaborations. Returns at most 25 songs."),
		mcp.WithString("artist_id",
			mcp.Required(),
			mcp.Description("Spotify artist ID."),
		),
	), app.handleArtistOwnTracks)
}

func (app *Application) handleSearchArtist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "search_artist_by_name"
	name, err := request.RequireString("artist_name")
	if err != nil || strings.TrimSpace(name) == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_name is required"))
	}
	artists, err := app.Catalog.SearchArtists(ctx, name, artistSearchLimit)
	return app.finish(tool, artists, err)
}

func (app *Application) handleSearchTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "search_tracks"
	query, err := request.RequireString("query")
	if err != nil || strings.TrimSpace(query) == "" {
		return app.finish(tool, nil, badRequest(tool, "query is required"))
	}
	limitF := request.GetFloat("limit", trackSearchDefault)
	limit := int(limitF)
	if float64(limit) != limitF {
		return app.finish(tool, nil, badRequest(tool, "limit must be an integer"))
	}
	if limit < trackSearchMin || limit > trackSearchMax {
		return app.finish(tool, nil, badRequest(tool, "limit must be between %d and %d", trackSearchMin, trackSearchMax))
	}
	tracks, err := app.Catalog.SearchTracks(ctx, query, limit)
	return app.finish(tool, tracks, err)
}

func (app *Application) handleArtistTopTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_artist_top_tracks"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	market := request.GetString("market", defaultMarket)
	tracks, err := app.Catalog.ArtistTopTracks(ctx, artistID, market)
	return app.finish(tool, tracks, err)
}

func (app *Application) handleArtistAlbums(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_artist_albums"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	albums, err := app.Catalog.ArtistAlbums(ctx, artistID, artistAlbumsLimit)
	return app.finish(tool, albums, err)
}

func (app *Application) handleArtistInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_artist_info"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	artist, err := app.Catalog.Artist(ctx, artistID)
	return app.finish(tool, artist, err)
}

func (app *Application) handleRelatedArtists(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_related_artists"
	artistID, err := request.RequireString("artist_id")
	if err != nil || artistID == "" {
		return app.finish(tool, nil, badRequest(tool, "artist_id is required"))
	}
	artists, err := app.Catalog.RelatedArtists(ctx, artistID, relatedArtistLimit)
	return app.finish(tool, artists, err)
}

func (app *Application) handleTrackFeatures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_track_audio_features"
	trackID, err := request.RequireString("track_id")
	if err != nil || trackID == "" {
		return app.finish(tool, nil, badRequest(tool, "track_id is required"))
	}
	features, err := app.Catalog.TrackFeatures(ctx, trackID)
	return app.finish(tool, features, err)
}

func (app *Application) handleTrackDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_track_details"
	trackID, err := request.RequireString("track_id")
	if err != nil || trackID == "" {
		return app.finish(tool, nil, badRequest(tool, "track_id is required"))
	}
	track, err := app.Catalog.Track(ctx, trackID)
	return app.finish(tool, track, err)
}

func (app *Application) handleAlbumDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_album_details"
	albumID, err := request.RequireString("album_id")
	if err != nil || albumID == "" {
		return app.finish(tool, nil, badRequest(tool, "album_id is required"))
	}
	album, err := app.Catalog.Album(ctx, albumID)
	return app.finish(tool, album, err)
}

func (app *Application) handleTrackFeaturesBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "get_multiple_tracks_audio_features"
	raw, err := request.RequireString("track_ids")
	if err != nil {
		return app.finish(tool, nil, badRequest(tool, "track_ids is required"))
	}
	ids := splitIDs(raw)
	if len(ids) == 0 {
		return app.finish(tool, nil, badRequest(tool, "track_ids must contain at least one id"))
	}
	if len(ids) > batchIDLimit {
		return app.finish(tool, nil, badRequest(tool, "track_ids contains %d ids, the limit is %d", len(ids), batchIDLimit))
	}
	features, err := app.Catalog.TrackFeaturesBatch(ctx, ids)
	return app.finish(tool, features, err)
}

// splitIDs parses a comma-separated id list, trimming whitespace and
// dropping empty segments so trailing commas are harmless.
func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
