package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// Discogs resolves discogs.com/release/<id>-<slug> links.
type Discogs struct {
	BaseURL string
	token   string
	http    httpSource
}

func NewDiscogs(token string) *Discogs {
	// 25 req/min unauthenticated, 60 with a token
	limit := rate.Every(time.Minute / 25)
	if token != "" {
		limit = rate.Every(time.Second)
	}
	return &Discogs{
		BaseURL: "https://api.discogs.com",
		token:   token,
		http:    newHTTPSource(10*time.Second, limit, "AlbumRounds/1.0"),
	}
}

func (r *Discogs) Resolve(ctx context.Context, rawURL string) (AlbumFacts, error) {
	id, err := discogsReleaseID(rawURL)
	if err != nil {
		return AlbumFacts{}, err
	}

	var header http.Header
	if r.token != "" {
		header = http.Header{"Authorization": {"Discogs token=" + r.token}}
	}

	// Struct for the detailed release data
	var release struct {
		Title   string `json:"title"`
		Year    int    `json:"year"`
		Artists []struct {
			Name string `json:"name"`
			Join string `json:"join"`
		} `json:"artists"`
		Tracklist []struct {
			Type     string `json:"type_"`
			Title    string `json:"title"`
			Duration string `json:"duration"`
		} `json:"tracklist"`
		Images []struct {
			Type string `json:"type"`
			URI  string `json:"uri"`
		} `json:"images"`
	}
	if err := r.http.getJSON(ctx, r.BaseURL+"/releases/"+id, header, &release); err != nil {
		return AlbumFacts{}, err
	}

	facts := AlbumFacts{
		Artist:      discogsArtist(release.Artists),
		Name:        release.Title,
		ReleaseYear: release.Year,
	}
	for _, t := range release.Tracklist {
		// headings and index tracks carry no audio
		if t.Type != "" && t.Type != "track" {
			continue
		}
		facts.TrackNames = append(facts.TrackNames, t.Title)
		if d, err := models.ParseDuration(t.Duration); err == nil {
			facts.Duration += d.Std()
		}
	}
	facts.TotalTracks = len(facts.TrackNames)
	for _, img := range release.Images {
		if img.Type == "primary" || facts.Cover == "" {
			facts.Cover = img.URI
		}
	}
	return facts, nil
}

// discogsArtist joins credited artists, dropping the " (2)" disambiguation suffix.
func discogsArtist(artists []struct {
	Name string `json:"name"`
	Join string `json:"join"`
}) string {
	var b strings.Builder
	for i, a := range artists {
		name := a.Name
		if idx := strings.Index(name, " ("); idx != -1 {
			name = name[:idx]
		}
		b.WriteString(name)
		if i < len(artists)-1 {
			join := strings.TrimSpace(a.Join)
			if join == "" || join == "," {
				b.WriteString(", ")
			} else {
				b.WriteString(" " + join + " ")
			}
		}
	}
	return b.String()
}

func discogsReleaseID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.HasSuffix(u.Host, "discogs.com") {
		return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] != "release" {
			continue
		}
		slug := parts[i+1]
		end := 0
		for end < len(slug) && slug[end] >= '0' && slug[end] <= '9' {
			end++
		}
		if end > 0 {
			return slug[:end], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrBadURL, rawURL)
}
