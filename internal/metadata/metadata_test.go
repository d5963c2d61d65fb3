package metadata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	facts AlbumFacts
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, rawURL string) (AlbumFacts, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.facts, f.err
}

func validFacts() AlbumFacts {
	return AlbumFacts{
		Artist:      " Radiohead ",
		Name:        "OK Computer",
		ReleaseYear: 1997,
		Duration:    53 * time.Minute,
		TrackNames:  []string{"Airbag", "Paranoid Android "},
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Run("unknown source", func(t *testing.T) {
		r := NewRegistry(time.Second)
		_, err := r.Resolve(context.Background(), "napster", "https://x")
		assert.ErrorIs(t, err, ErrUnknownSource)
	})

	t.Run("normalizes facts", func(t *testing.T) {
		r := NewRegistry(time.Second)
		r.Register("Fake", &fakeResolver{facts: validFacts()})

		got, err := r.Resolve(context.Background(), "fake", "https://x")
		require.NoError(t, err)
		assert.Equal(t, "Radiohead", got.Artist)
		assert.Equal(t, 2, got.TotalTracks)
		assert.Equal(t, []string{"Airbag", "Paranoid Android"}, got.TrackNames)
	})

	t.Run("track count disagreement", func(t *testing.T) {
		f := validFacts()
		f.TotalTracks = 12
		r := NewRegistry(time.Second)
		r.Register("fake", &fakeResolver{facts: f})

		_, err := r.Resolve(context.Background(), "fake", "https://x")
		assert.ErrorContains(t, err, "reports 12 tracks")
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("incomplete facts", func(t *testing.T) {
		f := validFacts()
		f.Name = ""
		r := NewRegistry(time.Second)
		r.Register("fake", &fakeResolver{facts: f})

		_, err := r.Resolve(context.Background(), "fake", "https://x")
		assert.ErrorContains(t, err, "incomplete album facts")
	})

	t.Run("upstream failure is wrapped", func(t *testing.T) {
		r := NewRegistry(time.Second)
		r.Register("fake", &fakeResolver{err: ErrNotFound})

		_, err := r.Resolve(context.Background(), "fake", "https://x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("caller cancellation", func(t *testing.T) {
		gate := make(chan struct{})
		defer close(gate)
		r := NewRegistry(time.Second)
		r.Register("fake", &fakeResolver{facts: validFacts(), gate: gate})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Resolve(ctx, "fake", "https://x")
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestRegistryDedupesConcurrentLookups(t *testing.T) {
	gate := make(chan struct{})
	fake := &fakeResolver{facts: validFacts(), gate: gate}
	r := NewRegistry(time.Second)
	r.Register("fake", fake)

	var wg sync.WaitGroup
	for _, source := range []string{"fake", "Fake", " FAKE", "fake ", "fAkE"} {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			_, err := r.Resolve(context.Background(), source, "https://same")
			assert.NoError(t, err)
		}(source)
	}
	// let every goroutine join the in-flight call before releasing it
	require.Eventually(t, func() bool { return fake.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestRegistrySources(t *testing.T) {
	r := NewRegistry(0)
	r.Register("musicbrainz", &fakeResolver{})
	r.Register("iTunes", &fakeResolver{})
	assert.Equal(t, []string{"itunes", "musicbrainz"}, r.Sources())
}

func TestYearOf(t *testing.T) {
	assert.Equal(t, 1997, yearOf("1997-05-21T07:00:00Z"))
	assert.Equal(t, 2001, yearOf("2001"))
	assert.Equal(t, 0, yearOf("19"))
	assert.Equal(t, 0, yearOf("abcd"))
}
