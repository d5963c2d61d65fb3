package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var mbidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// MusicBrainz resolves musicbrainz.org/release/<mbid> links. The API allows
// one request per second per client.
type MusicBrainz struct {
	BaseURL     string
	CoverArtURL string
	http        httpSource
}

func NewMusicBrainz(contactEmail string) *MusicBrainz {
	if contactEmail == "" {
		contactEmail = "admin@localhost"
	}
	return &MusicBrainz{
		BaseURL:     "https://musicbrainz.org",
		CoverArtURL: "https://coverartarchive.org",
		http: newHTTPSource(5*time.Second, rate.Every(time.Second),
			fmt.Sprintf("AlbumRounds/1.0 ( %s )", contactEmail)),
	}
}

func (r *MusicBrainz) Resolve(ctx context.Context, rawURL string) (AlbumFacts, error) {
	mbid, err := releaseMBID(rawURL)
	if err != nil {
		return AlbumFacts{}, err
	}

	u, _ := url.Parse(r.BaseURL + "/ws/2/release/" + mbid)
	q := u.Query()
	q.Set("inc", "recordings artist-credits")
	q.Set("fmt", "json")
	u.RawQuery = q.Encode()

	slog.Debug("musicbrainz lookup", "mbid", mbid)
	resp, err := r.http.get(ctx, u.String(), nil)
	if err != nil {
		return AlbumFacts{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AlbumFacts{}, err
	}
	if !gjson.ValidBytes(body) {
		return AlbumFacts{}, fmt.Errorf("musicbrainz returned invalid json")
	}
	doc := gjson.ParseBytes(body)

	var artist strings.Builder
	for _, credit := range doc.Get("artist-credit").Array() {
		artist.WriteString(credit.Get("name").String())
		artist.WriteString(credit.Get("joinphrase").String())
	}

	facts := AlbumFacts{
		Artist:      artist.String(),
		Name:        doc.Get("title").String(),
		ReleaseYear: yearOf(doc.Get("date").String()),
	}
	for _, medium := range doc.Get("media").Array() {
		for _, track := range medium.Get("tracks").Array() {
			facts.TrackNames = append(facts.TrackNames, track.Get("title").String())
			facts.Duration += time.Duration(track.Get("length").Int()) * time.Millisecond
		}
	}
	facts.TotalTracks = len(facts.TrackNames)
	if doc.Get("cover-art-archive.front").Bool() {
		facts.Cover = r.CoverArtURL + "/release/" + mbid + "/front"
	}
	return facts, nil
}

func releaseMBID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Host, "musicbrainz.org") || !strings.Contains(u.Path, "/release/") {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	mbid := mbidPattern.FindString(strings.ToLower(u.Path))
	if mbid == "" {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	return mbid, nil
}
