package handlers

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"spotify-insights-mcp/pkg/music"
)

// stubCatalog implements music.Catalog with canned data, recording the
// arguments of the last call so handlers can be tested without a network.
type stubCatalog struct {
	artists  []music.ArtistSummary
	tracks   []music.TrackSummary
	albums   []music.AlbumSummary
	albTrks  map[string][]music.AlbumTrack
	features music.AudioFeatureSummary
	batch    []music.TrackFeatures
	err      error

	lastQuery  string
	lastLimit  int
	lastMarket string
	lastIDs    []string
}

func (s *stubCatalog) SearchArtists(_ context.Context, name string, limit int) ([]music.ArtistSummary, error) {
	s.lastQuery, s.lastLimit = name, limit
	return s.artists, s.err
}

func (s *stubCatalog) SearchTracks(_ context.Context, query string, limit int) ([]music.TrackSummary, error) {
	s.lastQuery, s.lastLimit = query, limit
	return s.tracks, s.err
}

func (s *stubCatalog) ArtistTopTracks(_ context.Context, artistID, market string) ([]music.TrackSummary, error) {
	s.lastQuery, s.lastMarket = artistID, market
	return s.tracks, s.err
}

func (s *stubCatalog) ArtistAlbums(_ context.Context, artistID string, limit int) ([]music.AlbumSummary, error) {
	s.lastQuery, s.lastLimit = artistID, limit
	return s.albums, s.err
}

func (s *stubCatalog) Artist(_ context.Context, artistID string) (music.ArtistSummary, error) {
	s.lastQuery = artistID
	if s.err != nil {
		return music.ArtistSummary{}, s.err
	}
	if len(s.artists) == 0 {
		return music.ArtistSummary{}, music.E(music.KindNotFound, "stub", "no artist")
	}
	return s.artists[0], nil
}

func (s *stubCatalog) RelatedArtists(_ context.Context, artistID string, limit int) ([]music.ArtistSummary, error) {
	s.lastQuery, s.lastLimit = artistID, limit
	return s.artists, s.err
}

func (s *stubCatalog) Track(_ context.Context, trackID string) (music.TrackSummary, error) {
	s.lastQuery = trackID
	if s.err != nil {
		return music.TrackSummary{}, s.err
	}
	return s.tracks[0], nil
}

func (s *stubCatalog) Album(_ context.Context, albumID string) (music.AlbumSummary, error) {
	s.lastQuery = albumID
	if s.err != nil {
		return music.AlbumSummary{}, s.err
	}
	return s.albums[0], nil
}

func (s *stubCatalog) AlbumTracks(_ context.Context, albumID string) ([]music.AlbumTrack, error) {
	s.lastQuery = albumID
	return s.albTrks[albumID], s.err
}

func (s *stubCatalog) TrackFeatures(_ context.Context, trackID string) (music.AudioFeatureSummary, error) {
	s.lastQuery = trackID
	return s.features, s.err
}

func (s *stubCatalog) TrackFeaturesBatch(_ context.Context, trackIDs []string) ([]music.TrackFeatures, error) {
	s.lastIDs = trackIDs
	return s.batch, s.err
}

var _ music.Catalog = (*stubCatalog)(nil)

func newTestApp(cat music.Catalog) *Application {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Application{Catalog: cat, Log: log}
}

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestSearchTracksLimitBounds(t *testing.T) {
	cat := &stubCatalog{tracks: []music.TrackSummary{{ID: "t1", Name: "Song"}}}
	app := newTestApp(cat)

	for _, bad := range []float64{0, 51, -3, 10.5} {
		res, err := app.handleSearchTracks(context.Background(), callReq("search_tracks", map[string]any{
			"query": "q", "limit": bad,
		}))
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError {
			t.Errorf("limit %v accepted, want bad_request", bad)
		}
	}

	for _, good := range []float64{1, 50} {
		res, err := app.handleSearchTracks(context.Background(), callReq("search_tracks", map[string]any{
			"query": "q", "limit": good,
		}))
		if err != nil {
			t.Fatal(err)
		}
		if res.IsError {
			t.Errorf("limit %v rejected: %s", good, resultText(t, res))
		}
		if cat.lastLimit != int(good) {
			t.Errorf("catalog received limit %d, want %d", cat.lastLimit, int(good))
		}
	}
}

func TestSearchTracksDefaultLimit(t *testing.T) {
	cat := &stubCatalog{}
	app := newTestApp(cat)
	if _, err := app.handleSearchTracks(context.Background(), callReq("search_tracks", map[string]any{"query": "q"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastLimit != trackSearchDefault {
		t.Errorf("default limit %d, want %d", cat.lastLimit, trackSearchDefault)
	}
}

func TestSearchArtistRequiresName(t *testing.T) {
	app := newTestApp(&stubCatalog{})
	res, err := app.handleSearchArtist(context.Background(), callReq("search_artist_by_name", map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("missing artist_name accepted")
	}

	res, _ = app.handleSearchArtist(context.Background(), callReq("search_artist_by_name", map[string]any{"artist_name": "  "}))
	if !res.IsError {
		t.Error("blank artist_name accepted")
	}
}

func TestSearchArtistCapsAtFive(t *testing.T) {
	cat := &stubCatalog{}
	app := newTestApp(cat)
	if _, err := app.handleSearchArtist(context.Background(), callReq("search_artist_by_name", map[string]any{"artist_name": "x"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastLimit != artistSearchLimit {
		t.Errorf("artist search limit %d, want %d", cat.lastLimit, artistSearchLimit)
	}
}

func TestTopTracksDefaultMarket(t *testing.T) {
	cat := &stubCatalog{}
	app := newTestApp(cat)
	if _, err := app.handleArtistTopTracks(context.Background(), callReq("get_artist_top_tracks", map[string]any{"artist_id": "a1"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastMarket != defaultMarket {
		t.Errorf("market %q, want %q", cat.lastMarket, defaultMarket)
	}

	if _, err := app.handleArtistTopTracks(context.Background(), callReq("get_artist_top_tracks", map[string]any{"artist_id": "a1", "market": "DE"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastMarket != "DE" {
		t.Errorf("market %q, want DE", cat.lastMarket)
	}
}

func TestBatchToolParsesAndValidatesIDs(t *testing.T) {
	cat := &stubCatalog{batch: []music.TrackFeatures{
		{TrackID: "a", Found: true, Features: &music.AudioFeatureSummary{ID: "a", Key: -1}},
		{TrackID: "b", Found: false},
		{TrackID: "c", Found: true, Features: &music.AudioFeatureSummary{ID: "c", Key: 4}},
	}}
	app := newTestApp(cat)

	res, err := app.handleTrackFeaturesBatch(context.Background(), callReq("get_multiple_tracks_audio_features", map[string]any{
		"track_ids": "a, b,,c,",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, res))
	}
	if len(cat.lastIDs) != 3 || cat.lastIDs[2] != "c" {
		t.Errorf("ids parsed as %v", cat.lastIDs)
	}

	var out []music.TrackFeatures
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[1].Found || out[1].Features != nil {
		t.Errorf("positional markers lost: %+v", out)
	}
	if out[0].Features.Key != -1 {
		t.Errorf("key -1 not preserved through the tool result: %+v", out[0].Features)
	}
}

func TestBatchToolRejectsOversizedInput(t *testing.T) {
	app := newTestApp(&stubCatalog{})
	ids := "x"
	for i := 0; i < batchIDLimit; i++ {
		ids += ",x"
	}
	res, err := app.handleTrackFeaturesBatch(context.Background(), callReq("get_multiple_tracks_audio_features", map[string]any{
		"track_ids": ids,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("101 ids accepted, want bad_request")
	}
}

func TestNotFoundSurfacedAsTypedError(t *testing.T) {
	cat := &stubCatalog{err: music.E(music.KindNotFound, "spotify.Artist", "entity not found")}
	app := newTestApp(cat)
	res, err := app.handleArtistInfo(context.Background(), callReq("get_artist_info", map[string]any{"artist_id": "nonexistent_id"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if text := resultText(t, res); !strings.Contains(text, "not_found") {
		t.Errorf("error text %q does not carry the classification", text)
	}
}

func TestRelatedArtistsCapsAtTwenty(t *testing.T) {
	cat := &stubCatalog{}
	app := newTestApp(cat)
	if _, err := app.handleRelatedArtists(context.Background(), callReq("get_related_artists", map[string]any{"artist_id": "a"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastLimit != relatedArtistLimit {
		t.Errorf("related artists limit %d, want %d", cat.lastLimit, relatedArtistLimit)
	}
}

func TestArtistAlbumsCapsAtTen(t *testing.T) {
	cat := &stubCatalog{}
	app := newTestApp(cat)
	if _, err := app.handleArtistAlbums(context.Background(), callReq("get_artist_albums", map[string]any{"artist_id": "a"})); err != nil {
		t.Fatal(err)
	}
	if cat.lastLimit != artistAlbumsLimit {
		t.Errorf("artist albums limit %d, want %d", cat.lastLimit, artistAlbumsLimit)
	}
}
