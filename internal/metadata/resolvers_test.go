package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJSON(t *testing.T, wantPath string, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestITunesResolve(t *testing.T) {
	srv := serveJSON(t, "/lookup", `{
		"resultCount": 4,
		"results": [
			{"wrapperType":"collection","artistName":"Radiohead","collectionName":"OK Computer",
			 "artworkUrl100":"https://img/100x100bb.jpg","trackCount":3,"releaseDate":"1997-05-21T07:00:00Z"},
			{"wrapperType":"track","kind":"song","trackName":"Paranoid Android","trackTimeMillis":383000,"discNumber":1,"trackNumber":2},
			{"wrapperType":"track","kind":"song","trackName":"Airbag","trackTimeMillis":284000,"discNumber":1,"trackNumber":1},
			{"wrapperType":"track","kind":"song","trackName":"Lucky","trackTimeMillis":259000,"discNumber":2,"trackNumber":1}
		]}`)

	r := NewITunes()
	r.BaseURL = srv.URL

	facts, err := r.Resolve(context.Background(), "https://music.apple.com/us/album/ok-computer/1097861387")
	require.NoError(t, err)
	assert.Equal(t, "Radiohead", facts.Artist)
	assert.Equal(t, "OK Computer", facts.Name)
	assert.Equal(t, 1997, facts.ReleaseYear)
	assert.Equal(t, "https://img/600x600bb.jpg", facts.Cover)
	assert.Equal(t, []string{"Airbag", "Paranoid Android", "Lucky"}, facts.TrackNames)
	assert.Equal(t, 3, facts.TotalTracks)
	assert.Equal(t, (284+383+259)*time.Second, facts.Duration)
}

func TestITunesCollectionID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://music.apple.com/us/album/ok-computer/1097861387", "1097861387", true},
		{"https://music.apple.com/us/album/ok-computer/1097861387?i=1097861700", "1097861387", true},
		{"https://itunes.apple.com/us/album/ok-computer/id1097861387/", "1097861387", true},
		{"https://music.apple.com/us/artist/radiohead/657515", "", false},
		{"https://example.com/album/x/1", "", false},
		{"not a url", "", false},
	}
	for _, tt := range tests {
		got, err := iTunesCollectionID(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrBadURL, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMusicBrainzResolve(t *testing.T) {
	const mbid = "b1392450-e666-3926-a536-22c65f834433"
	srv := serveJSON(t, "/ws/2/release/"+mbid, `{
		"title": "OK Computer",
		"date": "1997-06-16",
		"artist-credit": [{"name":"Radiohead","joinphrase":""}],
		"cover-art-archive": {"front": true},
		"media": [
			{"tracks": [{"title":"Airbag","length":284000},{"title":"Paranoid Android","length":383000}]},
			{"tracks": [{"title":"Lucky","length":null}]}
		]}`)

	r := NewMusicBrainz("")
	r.BaseURL = srv.URL
	r.CoverArtURL = "https://covers"

	facts, err := r.Resolve(context.Background(), "https://musicbrainz.org/release/"+mbid)
	require.NoError(t, err)
	assert.Equal(t, "Radiohead", facts.Artist)
	assert.Equal(t, 1997, facts.ReleaseYear)
	assert.Equal(t, []string{"Airbag", "Paranoid Android", "Lucky"}, facts.TrackNames)
	assert.Equal(t, (284+383)*time.Second, facts.Duration)
	assert.Equal(t, "https://covers/release/"+mbid+"/front", facts.Cover)
}

func TestMusicBrainzMissingRelease(t *testing.T) {
	srv := serveJSON(t, "/nothing-here", `{}`)
	r := NewMusicBrainz("ops@example.com")
	r.BaseURL = srv.URL

	_, err := r.Resolve(context.Background(), "https://musicbrainz.org/release/b1392450-e666-3926-a536-22c65f834433")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(context.Background(), "https://musicbrainz.org/artist/a74b1b7f-71a5-4011-9441-d0b5e4122711")
	assert.ErrorIs(t, err, ErrBadURL)
}

func TestDiscogsResolve(t *testing.T) {
	srv := serveJSON(t, "/releases/249504", `{
		"title": "Whenever You Need Somebody",
		"year": 1987,
		"artists": [{"name":"Rick Astley (2)","join":""}],
		"tracklist": [
			{"type_":"heading","title":"Side A","duration":""},
			{"type_":"track","title":"Never Gonna Give You Up","duration":"3:32"},
			{"type_":"track","title":"Whenever You Need Somebody","duration":"3:54"}
		],
		"images": [{"type":"secondary","uri":"https://img/back.jpg"},{"type":"primary","uri":"https://img/front.jpg"}]
	}`)

	r := NewDiscogs("")
	r.BaseURL = srv.URL

	facts, err := r.Resolve(context.Background(), "https://www.discogs.com/release/249504-Rick-Astley-Whenever-You-Need-Somebody")
	require.NoError(t, err)
	assert.Equal(t, "Rick Astley", facts.Artist)
	assert.Equal(t, 1987, facts.ReleaseYear)
	assert.Equal(t, []string{"Never Gonna Give You Up", "Whenever You Need Somebody"}, facts.TrackNames)
	assert.Equal(t, (3*60+32+3*60+54)*time.Second, facts.Duration)
	assert.Equal(t, "https://img/front.jpg", facts.Cover)
}

func TestDiscogsReleaseID(t *testing.T) {
	id, err := discogsReleaseID("https://www.discogs.com/ru/release/249504-Rick-Astley")
	require.NoError(t, err)
	assert.Equal(t, "249504", id)

	_, err = discogsReleaseID("https://www.discogs.com/master/96559-Rick-Astley")
	assert.ErrorIs(t, err, ErrBadURL)
}
