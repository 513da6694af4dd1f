// This file implements the music.Catalog lookups. Each method performs one
// catalog request through the gateway and normalizes the payload; chained
// convenience tools are composed out of these primitives by the handlers
// package so every upstream call keeps its own error classification.
package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/metrics"
	"spotify-insights-mcp/pkg/music"
)

// BatchLimit is the maximum number of ids accepted by a single batched
// audio-feature lookup, matching the upstream endpoint's cap.
const BatchLimit = 100

// Client implements music.Catalog against the Spotify Web API.
type Client struct {
	baseURL    string
	tokens     *TokenManager
	httpClient *http.Client
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
}

// Compile-time interface check.
var _ music.Catalog = (*Client)(nil)

// NewClient returns a catalog client using the given token manager. log may
// not be nil; pass a logger with a discard output in tests.
func NewClient(tokens *TokenManager, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL:    BaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// WithMetrics attaches collectors for upstream call accounting and returns
// the client for chaining.
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// SearchArtists implements music.Catalog.
func (c *Client) SearchArtists(ctx context.Context, name string, limit int) ([]music.ArtistSummary, error) {
	const op = "spotify.SearchArtists"
	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("limit", strconv.Itoa(limit))
	raw, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}
	var body struct {
		Artists *struct {
			Items []rawArtist `json:"items"`
		} `json:"artists"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	if body.Artists == nil {
		return nil, malformed(op, "artists")
	}
	out := make([]music.ArtistSummary, 0, len(body.Artists.Items))
	for _, a := range body.Artists.Items {
		artist, err := normalizeArtist(op, a)
		if err != nil {
			return nil, err
		}
		out = append(out, artist)
	}
	return out, nil
}

// SearchTracks implements music.Catalog.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]music.TrackSummary, error) {
	const op = "spotify.SearchTracks"
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	raw, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}
	var body struct {
		Tracks *struct {
			Items []rawTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	if body.Tracks == nil {
		return nil, malformed(op, "tracks")
	}
	return normalizeTracks(op, body.Tracks.Items)
}

// ArtistTopTracks implements music.Catalog.
func (c *Client) ArtistTopTracks(ctx context.Context, artistID, market string) ([]music.TrackSummary, error) {
	const op = "spotify.ArtistTopTracks"
	q := url.Values{}
	q.Set("market", market)
	raw, err := c.get(ctx, "/artists/"+url.PathEscape(artistID)+"/top-tracks", q)
	if err != nil {
		return nil, err
	}
	var body struct {
		Tracks []rawTrack `json:"tracks"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	return normalizeTracks(op, body.Tracks)
}

// ArtistAlbums implements music.Catalog. Albums and singles are requested
// together, matching how the upstream discography endpoint groups releases.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]music.AlbumSummary, error) {
	const op = "spotify.ArtistAlbums"
	q := url.Values{}
	q.Set("include_groups", "album,single")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("market", "US")
	raw, err := c.get(ctx, "/artists/"+url.PathEscape(artistID)+"/albums", q)
	if err != nil {
		return nil, err
	}
	var body struct {
		Items []rawAlbum `json:"items"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	out := make([]music.AlbumSummary, 0, len(body.Items))
	for _, a := range body.Items {
		album, err := normalizeAlbum(op, a, false)
		if err != nil {
			return nil, err
		}
		out = append(out, album)
	}
	return out, nil
}

// Artist implements music.Catalog.
func (c *Client) Artist(ctx context.Context, artistID string) (music.ArtistSummary, error) {
	const op = "spotify.Artist"
	raw, err := c.get(ctx, "/artists/"+url.PathEscape(artistID), nil)
	if err != nil {
		return music.ArtistSummary{}, err
	}
	var body rawArtist
	if err := decode(op, raw, &body); err != nil {
		return music.ArtistSummary{}, err
	}
	return normalizeArtist(op, body)
}

// RelatedArtists implements music.Catalog. The upstream endpoint returns at
// most twenty artists; limit truncates further when a tool asks for fewer.
func (c *Client) RelatedArtists(ctx context.Context, artistID string, limit int) ([]music.ArtistSummary, error) {
	const op = "spotify.RelatedArtists"
	raw, err := c.get(ctx, "/artists/"+url.PathEscape(artistID)+"/related-artists", nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		Artists []rawArtist `json:"artists"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	if limit > 0 && len(body.Artists) > limit {
		body.Artists = body.Artists[:limit]
	}
	out := make([]music.ArtistSummary, 0, len(body.Artists))
	for _, a := range body.Artists {
		artist, err := normalizeArtist(op, a)
		if err != nil {
			return nil, err
		}
		out = append(out, artist)
	}
	return out, nil
}

// Track implements music.Catalog. The full market code list is included for
// track detail lookups.
func (c *Client) Track(ctx context.Context, trackID string) (music.TrackSummary, error) {
	const op = "spotify.Track"
	raw, err := c.get(ctx, "/tracks/"+url.PathEscape(trackID), nil)
	if err != nil {
		return music.TrackSummary{}, err
	}
	var body rawTrack
	if err := decode(op, raw, &body); err != nil {
		return music.TrackSummary{}, err
	}
	return normalizeTrack(op, body, true)
}

// Album implements music.Catalog.
func (c *Client) Album(ctx context.Context, albumID string) (music.AlbumSummary, error) {
	const op = "spotify.Album"
	raw, err := c.get(ctx, "/albums/"+url.PathEscape(albumID), nil)
	if err != nil {
		return music.AlbumSummary{}, err
	}
	var body rawAlbum
	if err := decode(op, raw, &body); err != nil {
		return music.AlbumSummary{}, err
	}
	return normalizeAlbum(op, body, true)
}

// AlbumTracks implements music.Catalog.
func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]music.AlbumTrack, error) {
	const op = "spotify.AlbumTracks"
	raw, err := c.get(ctx, "/albums/"+url.PathEscape(albumID)+"/tracks", nil)
	if err != nil {
		return nil, err
	}
	var body struct {
		Items []rawTrack `json:"items"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	return normalizeAlbumTracks(op, body.Items)
}

// TrackFeatures implements music.Catalog.
func (c *Client) TrackFeatures(ctx context.Context, trackID string) (music.AudioFeatureSummary, error) {
	const op = "spotify.TrackFeatures"
	raw, err := c.get(ctx, "/audio-features/"+url.PathEscape(trackID), nil)
	if err != nil {
		return music.AudioFeatureSummary{}, err
	}
	var body rawFeatures
	if err := decode(op, raw, &body); err != nil {
		return music.AudioFeatureSummary{}, err
	}
	return normalizeFeatures(op, body)
}

// TrackFeaturesBatch implements music.Catalog. The upstream returns a null
// entry for every id it cannot resolve; those are kept in place as explicit
// not-found markers so the result never desynchronizes from the request.
func (c *Client) TrackFeaturesBatch(ctx context.Context, trackIDs []string) ([]music.TrackFeatures, error) {
	const op = "spotify.TrackFeaturesBatch"
	if len(trackIDs) == 0 {
		return nil, music.E(music.KindBadRequest, op, "no track ids supplied")
	}
	if len(trackIDs) > BatchLimit {
		return nil, music.E(music.KindBadRequest, op, "%d ids exceed the batch limit of %d", len(trackIDs), BatchLimit)
	}
	q := url.Values{}
	q.Set("ids", strings.Join(trackIDs, ","))
	raw, err := c.get(ctx, "/audio-features", q)
	if err != nil {
		return nil, err
	}
	var body struct {
		AudioFeatures []*rawFeatures `json:"audio_features"`
	}
	if err := decode(op, raw, &body); err != nil {
		return nil, err
	}
	if len(body.AudioFeatures) != len(trackIDs) {
		return nil, music.E(music.KindMalformedUpstream, op,
			"requested %d ids but upstream returned %d entries", len(trackIDs), len(body.AudioFeatures))
	}
	out := make([]music.TrackFeatures, len(trackIDs))
	for i, f := range body.AudioFeatures {
		out[i].TrackID = trackIDs[i]
		if f == nil {
			continue
		}
		feats, err := normalizeFeatures(op, *f)
		if err != nil {
			return nil, err
		}
		out[i].Found = true
		out[i].Features = &feats
	}
	return out, nil
}

func normalizeTracks(op string, items []rawTrack) ([]music.TrackSummary, error) {
	out := make([]music.TrackSummary, 0, len(items))
	for _, t := range items {
		track, err := normalizeTrack(op, t, false)
		if err != nil {
			return nil, err
		}
		out = append(out, track)
	}
	return out, nil
}
