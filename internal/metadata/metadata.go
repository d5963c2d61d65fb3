// Package metadata resolves an external album URL into the facts a
// submission is validated against.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	ErrUnknownSource = errors.New("unknown metadata source")
	ErrBadURL        = errors.New("url does not point to an album")
	ErrNotFound      = errors.New("album not found at source")
	ErrIncomplete    = errors.New("incomplete album facts")
)

// AlbumFacts is everything a submission needs from the outside world.
// TrackNames keeps the source's order.
type AlbumFacts struct {
	Artist      string        `json:"artist" validate:"required"`
	Name        string        `json:"name" validate:"required"`
	ReleaseYear int           `json:"release_year" validate:"gte=0"`
	Duration    time.Duration `json:"duration" validate:"gt=0"`
	TotalTracks int           `json:"total_tracks" validate:"gt=0"`
	Cover       string        `json:"cover" validate:"omitempty,url"`
	TrackNames  []string      `json:"track_names" validate:"min=1,dive,required"`
}

// Resolver turns one source's album URL into AlbumFacts.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (AlbumFacts, error)
}

// Registry dispatches by source name. Concurrent lookups of the same URL
// share one upstream call.
type Registry struct {
	resolvers map[string]Resolver
	validate  *validator.Validate
	group     singleflight.Group
	timeout   time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Registry{
		resolvers: make(map[string]Resolver),
		validate:  validator.New(),
		timeout:   timeout,
	}
}

// SourceName is the canonical form of a source name.
func SourceName(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}

// Register adds or replaces the resolver for source.
func (r *Registry) Register(source string, res Resolver) {
	r.resolvers[SourceName(source)] = res
}

// Sources lists registered source names, sorted.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve looks the album up and checks the facts are complete.
func (r *Registry) Resolve(ctx context.Context, source, rawURL string) (AlbumFacts, error) {
	name := SourceName(source)
	res, ok := r.resolvers[name]
	if !ok {
		return AlbumFacts{}, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	rawURL = strings.TrimSpace(rawURL)

	ch := r.group.DoChan(name+"|"+rawURL, func() (any, error) {
		// the shared call must outlive any single waiter's cancellation
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return res.Resolve(callCtx, rawURL)
	})

	select {
	case <-ctx.Done():
		return AlbumFacts{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return AlbumFacts{}, fmt.Errorf("resolve %s album: %w", name, out.Err)
		}
		return r.normalize(out.Val.(AlbumFacts))
	}
}

func (r *Registry) normalize(f AlbumFacts) (AlbumFacts, error) {
	f.Artist = strings.TrimSpace(f.Artist)
	f.Name = strings.TrimSpace(f.Name)
	names := make([]string, len(f.TrackNames))
	for i, n := range f.TrackNames {
		names[i] = strings.TrimSpace(n)
	}
	f.TrackNames = names
	if f.TotalTracks == 0 {
		f.TotalTracks = len(f.TrackNames)
	}
	if f.TotalTracks != len(f.TrackNames) {
		return AlbumFacts{}, fmt.Errorf("%w: source reports %d tracks but lists %d", ErrIncomplete, f.TotalTracks, len(f.TrackNames))
	}
	if err := r.validate.Struct(f); err != nil {
		return AlbumFacts{}, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}
	return f, nil
}

// httpSource is the plumbing every resolver shares.
type httpSource struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newHTTPSource(timeout time.Duration, limit rate.Limit, userAgent string) httpSource {
	return httpSource{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
	}
}

// get issues a paced GET; the caller closes the body.
func (s httpSource) get(ctx context.Context, u string, header http.Header) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp, nil
}

func (s httpSource) getJSON(ctx context.Context, u string, header http.Header, out any) error {
	resp, err := s.get(ctx, u, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// yearOf extracts the leading year of "1997", "1997-05-21" or an RFC 3339 stamp.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y := 0
	for _, c := range date[:4] {
		if c < '0' || c > '9' {
			return 0
		}
		y = y*10 + int(c-'0')
	}
	return y
}
