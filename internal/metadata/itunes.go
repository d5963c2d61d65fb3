package metadata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ITunes resolves music.apple.com / itunes.apple.com album links through the
// public lookup API (Good for Artist/Title/Year and track lengths).
type ITunes struct {
	BaseURL string
	Country string
	http    httpSource
}

func NewITunes() *ITunes {
	return &ITunes{
		BaseURL: "https://itunes.apple.com",
		http:    newHTTPSource(5*time.Second, rate.Every(3*time.Second), "AlbumRounds/1.0"),
	}
}

func (r *ITunes) Resolve(ctx context.Context, rawURL string) (AlbumFacts, error) {
	id, err := iTunesCollectionID(rawURL)
	if err != nil {
		return AlbumFacts{}, err
	}

	u, _ := url.Parse(r.BaseURL + "/lookup")
	q := u.Query()
	q.Set("id", id)
	q.Set("entity", "song")
	if r.Country != "" {
		q.Set("country", r.Country)
	}
	u.RawQuery = q.Encode()

	var result struct {
		ResultCount int `json:"resultCount"`
		Results     []struct {
			WrapperType     string `json:"wrapperType"`
			Kind            string `json:"kind"`
			ArtistName      string `json:"artistName"`
			CollectionName  string `json:"collectionName"`
			ArtworkURL100   string `json:"artworkUrl100"`
			TrackCount      int    `json:"trackCount"`
			ReleaseDate     string `json:"releaseDate"`
			TrackName       string `json:"trackName"`
			TrackTimeMillis int64  `json:"trackTimeMillis"`
			DiscNumber      int    `json:"discNumber"`
			TrackNumber     int    `json:"trackNumber"`
		} `json:"results"`
	}
	if err := r.http.getJSON(ctx, u.String(), nil, &result); err != nil {
		return AlbumFacts{}, err
	}
	if result.ResultCount == 0 {
		return AlbumFacts{}, fmt.Errorf("%w: itunes collection %s", ErrNotFound, id)
	}

	type song struct {
		disc, number int
		name         string
		length       time.Duration
	}
	var (
		facts AlbumFacts
		songs []song
		found bool
	)
	for _, item := range result.Results {
		switch {
		case item.WrapperType == "collection":
			found = true
			facts.Artist = item.ArtistName
			facts.Name = item.CollectionName
			facts.ReleaseYear = yearOf(item.ReleaseDate)
			// 100x100 is the only size listed; the CDN serves larger ones by name
			facts.Cover = strings.Replace(item.ArtworkURL100, "100x100", "600x600", 1)
		case item.WrapperType == "track" && item.Kind == "song":
			songs = append(songs, song{
				disc:   item.DiscNumber,
				number: item.TrackNumber,
				name:   item.TrackName,
				length: time.Duration(item.TrackTimeMillis) * time.Millisecond,
			})
		}
	}
	if !found {
		return AlbumFacts{}, fmt.Errorf("%w: itunes collection %s", ErrNotFound, id)
	}

	sort.SliceStable(songs, func(i, j int) bool {
		if songs[i].disc != songs[j].disc {
			return songs[i].disc < songs[j].disc
		}
		return songs[i].number < songs[j].number
	})
	for _, s := range songs {
		facts.TrackNames = append(facts.TrackNames, s.name)
		facts.Duration += s.length
	}
	facts.TotalTracks = len(facts.TrackNames)
	return facts, nil
}

// iTunesCollectionID accepts https://music.apple.com/us/album/<slug>/<id> and
// the older .../id<id> form.
func iTunesCollectionID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	if !strings.HasSuffix(u.Host, "apple.com") || !strings.Contains(u.Path, "/album/") {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	last := strings.TrimPrefix(u.Path[strings.LastIndex(strings.TrimSuffix(u.Path, "/"), "/")+1:], "id")
	last = strings.TrimSuffix(last, "/")
	if last == "" || strings.Trim(last, "0123456789") != "" {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	return last, nil
}
