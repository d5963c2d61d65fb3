package rounds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

func TestControllerGetDefaults(t *testing.T) {
	db := setupInMemoryDB(t)
	cfg, err := NewController(db, nil).Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.CurrentRound)
	assert.Equal(t, 1, cfg.CurrentOrderNumber)
	assert.Equal(t, 2, cfg.MaxSubmissions)
	assert.False(t, cfg.SubmissionsOpen)
	assert.Equal(t, 2*time.Hour, cfg.MaxDuration.Std())
	assert.Equal(t, 30, cfg.MaxTracks)
	assert.Equal(t, 7, cfg.MinTracks)
}

func TestControllerGetMissingRow(t *testing.T) {
	db := setupInMemoryDB(t)
	require.NoError(t, db.Where("1 = 1").Delete(&models.Config{}).Error)

	_, err := NewController(db, nil).Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestControllerUpdateIsPartial(t *testing.T) {
	db := setupInMemoryDB(t)
	ctx := context.Background()
	ctl := NewController(db, nil)

	cfg, err := ctl.Update(ctx, ConfigPatch{SubmissionsOpen: ptr(true), MaxTracks: ptr(12)})
	require.NoError(t, err)
	assert.True(t, cfg.SubmissionsOpen)
	assert.Equal(t, 12, cfg.MaxTracks)
	assert.Equal(t, 7, cfg.MinTracks, "untouched")

	// explicit zero values are applied, nil keeps
	cfg, err = ctl.Update(ctx, ConfigPatch{SubmissionsOpen: ptr(false), MaxSubmissions: ptr(0)})
	require.NoError(t, err)
	assert.False(t, cfg.SubmissionsOpen)
	assert.Equal(t, 0, cfg.MaxSubmissions)
	assert.Equal(t, 12, cfg.MaxTracks)

	stored, err := ctl.Get(ctx)
	require.NoError(t, err)
	assert.False(t, stored.SubmissionsOpen)
	assert.Equal(t, 0, stored.MaxSubmissions)
	assert.Equal(t, 12, stored.MaxTracks)

	var rows int64
	require.NoError(t, db.Model(&models.Config{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestAdvanceAndStartRound(t *testing.T) {
	db := setupInMemoryDB(t)
	ctx := context.Background()
	ctl := NewController(db, nil)

	cfg, err := ctl.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.CurrentOrderNumber)

	cfg, err = ctl.StartRound(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.CurrentRound)
	assert.Equal(t, 1, cfg.CurrentOrderNumber)

	_, err = ctl.StartRound(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVisibleAlbums(t *testing.T) {
	db := setupInMemoryDB(t)
	ctx := context.Background()
	ctl := NewController(db, nil)

	_, err := ctl.VisibleAlbums(ctx, AlbumFilter{})
	assert.ErrorIs(t, err, ErrNotFound)

	insertAlbum(t, db, 2, 1, "Low", "Trust", "Canada")
	insertAlbum(t, db, 1, 2, "Slint", "Spiderland", "Washer")
	insertAlbum(t, db, 1, 1, "Codeine", "Frigid Stars", "D")
	insertAlbum(t, db, 2, 2, "Duster", "Stratosphere", "Moon Age")

	names := func(albums []models.Album) []string {
		out := make([]string, len(albums))
		for i, a := range albums {
			out[i] = a.Name
		}
		return out
	}

	t.Run("ordered by round and order", func(t *testing.T) {
		all, err := ctl.VisibleAlbums(ctx, AlbumFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Frigid Stars", "Spiderland", "Trust", "Stratosphere"}, names(all))
	})

	t.Run("no spoilers hides the current and later albums", func(t *testing.T) {
		setConfig(t, db, ConfigPatch{CurrentRound: ptr(2), CurrentOrderNumber: ptr(2)})
		got, err := ctl.VisibleAlbums(ctx, AlbumFilter{NoSpoilers: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Frigid Stars", "Spiderland", "Trust"}, names(got))

		setConfig(t, db, ConfigPatch{CurrentRound: ptr(1), CurrentOrderNumber: ptr(1)})
		_, err = ctl.VisibleAlbums(ctx, AlbumFilter{NoSpoilers: true})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("exact filters", func(t *testing.T) {
		got, err := ctl.VisibleAlbums(ctx, AlbumFilter{Artist: "Low"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Trust"}, names(got))

		_, err = ctl.VisibleAlbums(ctx, AlbumFilter{Artist: "low"})
		assert.ErrorIs(t, err, ErrNotFound)

		got, err = ctl.VisibleAlbums(ctx, AlbumFilter{ReleaseYear: ptr(0), Name: "Spiderland"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Spiderland"}, names(got))
	})
}

func TestCurrentAlbumAndTracks(t *testing.T) {
	db := setupInMemoryDB(t)
	ctx := context.Background()
	ctl := NewController(db, nil)

	_, err := ctl.CurrentAlbum(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "ranking unavailable", Message(err))

	insertAlbum(t, db, 1, 1, "Slint", "Spiderland", "Breadcrumb Trail", "Nosferatu Man", "Washer")
	insertAlbum(t, db, 1, 2, "Low", "Trust", "Canada")

	album, err := ctl.CurrentAlbum(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Spiderland", album.Name)

	tracks, err := ctl.CurrentTracks(ctx, "")
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, "Breadcrumb Trail", tracks[0].TrackName)
	assert.Equal(t, "Washer", tracks[2].TrackName)

	tracks, err = ctl.CurrentTracks(ctx, "Washer")
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	// tracks of other albums are not listed
	_, err = ctl.CurrentTracks(ctx, "Canada")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ctl.Advance(ctx)
	require.NoError(t, err)
	tracks, err = ctl.CurrentTracks(ctx, "Canada")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}
