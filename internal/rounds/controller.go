package rounds

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	database "github.com/Shoshak/album-ranking-v2/internal/db"
	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// Controller owns the config row and the views that depend on it.
type Controller struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewController(db *gorm.DB, logger *slog.Logger) *Controller {
	return &Controller{db: db, logger: resolveLogger(logger)}
}

// ConfigPatch is a partial config update. Nil fields keep their value.
type ConfigPatch struct {
	CurrentRound       *int             `json:"current_round"`
	CurrentOrderNumber *int             `json:"current_order_number"`
	MaxSubmissions     *int             `json:"max_submissions"`
	SubmissionsOpen    *bool            `json:"submissions_open"`
	MaxDuration        *models.Duration `json:"max_duration"`
	MaxTracks          *int             `json:"max_tracks"`
	MinTracks          *int             `json:"min_tracks"`
}

func (p ConfigPatch) apply(cfg *models.Config) {
	if p.CurrentRound != nil {
		cfg.CurrentRound = *p.CurrentRound
	}
	if p.CurrentOrderNumber != nil {
		cfg.CurrentOrderNumber = *p.CurrentOrderNumber
	}
	if p.MaxSubmissions != nil {
		cfg.MaxSubmissions = *p.MaxSubmissions
	}
	if p.SubmissionsOpen != nil {
		cfg.SubmissionsOpen = *p.SubmissionsOpen
	}
	if p.MaxDuration != nil {
		cfg.MaxDuration = *p.MaxDuration
	}
	if p.MaxTracks != nil {
		cfg.MaxTracks = *p.MaxTracks
	}
	if p.MinTracks != nil {
		cfg.MinTracks = *p.MinTracks
	}
}

// AlbumFilter narrows VisibleAlbums. Empty fields do not filter.
type AlbumFilter struct {
	Artist      string
	Name        string
	ReleaseYear *int
	NoSpoilers  bool
}

// loadConfig reads the config row, locking it when lock is set.
// sqlite ignores the FOR UPDATE clause.
func loadConfig(tx *gorm.DB, lock bool) (models.Config, error) {
	var cfg models.Config
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&cfg, models.ConfigID).Error; err != nil {
		if database.IsNotFound(err) {
			return cfg, newError(ErrNotFound, "config not found")
		}
		return cfg, err
	}
	return cfg, nil
}

func (c *Controller) Get(ctx context.Context) (models.Config, error) {
	return loadConfig(c.db.WithContext(ctx), false)
}

// Update applies patch under a row lock. Last committer wins.
func (c *Controller) Update(ctx context.Context, patch ConfigPatch) (models.Config, error) {
	return c.mutate(ctx, func(cfg *models.Config) error {
		patch.apply(cfg)
		return nil
	})
}

// Advance opens the next album of the current round for ranking.
func (c *Controller) Advance(ctx context.Context) (models.Config, error) {
	return c.mutate(ctx, func(cfg *models.Config) error {
		cfg.CurrentOrderNumber++
		return nil
	})
}

// StartRound moves to round n and rewinds the order number to 1.
func (c *Controller) StartRound(ctx context.Context, n int) (models.Config, error) {
	if n < 1 {
		return models.Config{}, newError(ErrInvalidInput, "round must be positive")
	}
	return c.mutate(ctx, func(cfg *models.Config) error {
		cfg.CurrentRound = n
		cfg.CurrentOrderNumber = 1
		return nil
	})
}

func (c *Controller) mutate(ctx context.Context, fn func(*models.Config) error) (models.Config, error) {
	var cfg models.Config
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if cfg, err = loadConfig(tx, true); err != nil {
			return err
		}
		if err := fn(&cfg); err != nil {
			return err
		}
		// Save writes zero values too (closing submissions)
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return models.Config{}, err
	}
	c.logger.Info("config updated",
		"round", cfg.CurrentRound,
		"order", cfg.CurrentOrderNumber,
		"submissions_open", cfg.SubmissionsOpen,
	)
	return cfg, nil
}

// VisibleAlbums lists albums ordered by round and order number.
// With NoSpoilers only albums that were already opened for ranking show up.
func (c *Controller) VisibleAlbums(ctx context.Context, f AlbumFilter) ([]models.Album, error) {
	db := c.db.WithContext(ctx)
	q := db.Model(&models.Album{})
	if f.Artist != "" {
		q = q.Where("artist = ?", f.Artist)
	}
	if f.Name != "" {
		q = q.Where("name = ?", f.Name)
	}
	if f.ReleaseYear != nil {
		q = q.Where("release_year = ?", *f.ReleaseYear)
	}
	if f.NoSpoilers {
		cfg, err := loadConfig(db, false)
		if err != nil {
			return nil, err
		}
		q = q.Where("round_number < ? OR (round_number = ? AND order_number < ?)",
			cfg.CurrentRound, cfg.CurrentRound, cfg.CurrentOrderNumber)
	}

	var albums []models.Album
	if err := q.Order("round_number, order_number, id").Find(&albums).Error; err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, newError(ErrNotFound, "no albums found")
	}
	return albums, nil
}

// CurrentAlbum is the album open for ranking.
func (c *Controller) CurrentAlbum(ctx context.Context) (models.Album, error) {
	db := c.db.WithContext(ctx)
	cfg, err := loadConfig(db, false)
	if err != nil {
		return models.Album{}, err
	}
	return currentAlbum(db, cfg)
}

func currentAlbum(tx *gorm.DB, cfg models.Config) (models.Album, error) {
	var album models.Album
	err := tx.Where("round_number = ? AND order_number = ?", cfg.CurrentRound, cfg.CurrentOrderNumber).
		First(&album).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return album, newError(ErrNotFound, "ranking unavailable")
		}
		return album, err
	}
	return album, nil
}

// CurrentTracks lists the tracks of the current album, optionally only
// those named trackName.
func (c *Controller) CurrentTracks(ctx context.Context, trackName string) ([]models.Track, error) {
	album, err := c.CurrentAlbum(ctx)
	if err != nil {
		return nil, err
	}
	q := c.db.WithContext(ctx).Where("album_id = ?", album.ID)
	if trackName != "" {
		q = q.Where("track_name = ?", trackName)
	}
	var tracks []models.Track
	if err := q.Order("position, id").Find(&tracks).Error; err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, newError(ErrNotFound, "no tracks found")
	}
	return tracks, nil
}
