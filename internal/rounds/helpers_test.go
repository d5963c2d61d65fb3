package rounds

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	database "github.com/Shoshak/album-ranking-v2/internal/db"
	"github.com/Shoshak/album-ranking-v2/internal/metadata"
	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// setupInMemoryDB gives every test its own seeded sqlite database.
func setupInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	c, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	require.NoError(t, err)
	require.NoError(t, c.AutoMigrate())
	require.NoError(t, database.SeedConfig(c.DB))
	t.Cleanup(func() { c.Close() })
	return c.DB
}

func ptr[T any](v T) *T { return &v }

func setConfig(t *testing.T, db *gorm.DB, patch ConfigPatch) models.Config {
	t.Helper()
	cfg, err := NewController(db, nil).Update(context.Background(), patch)
	require.NoError(t, err)
	return cfg
}

func openRound(t *testing.T, db *gorm.DB, round int) models.Config {
	t.Helper()
	return setConfig(t, db, ConfigPatch{
		CurrentRound:       ptr(round),
		CurrentOrderNumber: ptr(1),
		SubmissionsOpen:    ptr(true),
	})
}

func albumFacts(artist, name string, tracks int, length time.Duration) metadata.AlbumFacts {
	names := make([]string, tracks)
	for i := range names {
		names[i] = fmt.Sprintf("%s %d", name, i+1)
	}
	return metadata.AlbumFacts{
		Artist:      artist,
		Name:        name,
		ReleaseYear: 2001,
		Duration:    length,
		TotalTracks: tracks,
		TrackNames:  names,
	}
}

// insertAlbum stores an album directly, bypassing the submission rules.
func insertAlbum(t *testing.T, db *gorm.DB, round, order int, artist, name string, tracks ...string) models.Album {
	t.Helper()
	album := models.Album{
		Artist:      artist,
		Name:        name,
		Duration:    models.Duration(40 * time.Minute),
		TotalTracks: len(tracks),
		RoundNumber: round,
		OrderNumber: &order,
	}
	require.NoError(t, db.Omit("Tracks").Create(&album).Error)
	for i, tn := range tracks {
		tr := models.Track{AlbumID: album.ID, Position: i + 1, TrackName: tn}
		require.NoError(t, db.Create(&tr).Error)
		album.Tracks = append(album.Tracks, tr)
	}
	return album
}
