package rounds

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// Albums reads and removes albums with everything they own.
type Albums struct {
	db     *gorm.DB
	covers CoverArchive
	logger *slog.Logger
}

func NewAlbums(db *gorm.DB, logger *slog.Logger) *Albums {
	return &Albums{db: db, logger: resolveLogger(logger)}
}

// WithCovers lets Delete drop archived covers.
func (a *Albums) WithCovers(covers CoverArchive) *Albums {
	a.covers = covers
	return a
}

// Get returns the album with its tracks in track order.
func (a *Albums) Get(ctx context.Context, id uint) (models.Album, error) {
	var album models.Album
	err := a.db.WithContext(ctx).Preload("Tracks", tracksInOrder).First(&album, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return album, newError(ErrNotFound, "album not found")
		}
		return album, err
	}
	return album, nil
}

// Delete removes the album, its tracks, their rankings and the submission
// records in one transaction.
func (a *Albums) Delete(ctx context.Context, id uint) error {
	var album models.Album
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&album, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "album not found")
			}
			return err
		}

		tracks := tx.Model(&models.Track{}).Select("id").Where("album_id = ?", id)
		if err := tx.Where("track_id IN (?)", tracks).Delete(&models.Ranking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", id).Delete(&models.Track{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", id).Delete(&models.UserAlbumSubmission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&album).Error
	})
	if err != nil {
		return err
	}

	a.logger.Info("album deleted", "album_id", id, "artist", album.Artist, "album", album.Name)

	if a.covers != nil && album.Cover != "" {
		if err := a.covers.DeleteCover(context.WithoutCancel(ctx), album.Cover); err != nil {
			a.logger.Debug("cover not removed", "cover", album.Cover, "error", err)
		}
	}
	return nil
}
