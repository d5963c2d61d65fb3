package rounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shoshak/album-ranking-v2/internal/metadata"
	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// FactsResolver looks an album up at an external source.
type FactsResolver interface {
	Resolve(ctx context.Context, source, rawURL string) (metadata.AlbumFacts, error)
}

// CoverArchive keeps a copy of album covers.
type CoverArchive interface {
	MirrorCover(ctx context.Context, name, sourceURL string) (string, error)
	DeleteCover(ctx context.Context, publicURL string) error
}

// Submitter enforces the submission rules and assigns order numbers.
type Submitter struct {
	db       *gorm.DB
	resolver FactsResolver
	covers   CoverArchive
	logger   *slog.Logger
}

func NewSubmitter(db *gorm.DB, resolver FactsResolver, logger *slog.Logger) *Submitter {
	return &Submitter{db: db, resolver: resolver, logger: resolveLogger(logger)}
}

// WithCovers enables cover mirroring.
func (s *Submitter) WithCovers(covers CoverArchive) *Submitter {
	s.covers = covers
	return s
}

// SubmitFromSource resolves (source, url) and submits the result as username.
// Nothing is fetched while submissions are closed.
func (s *Submitter) SubmitFromSource(ctx context.Context, username, source, rawURL string) (models.Album, error) {
	cfg, err := loadConfig(s.db.WithContext(ctx), false)
	if err != nil {
		return models.Album{}, err
	}
	if !cfg.SubmissionsOpen {
		submissionsTotal.WithLabelValues("forbidden").Inc()
		return models.Album{}, newError(ErrForbidden, "submissions closed")
	}
	if s.resolver == nil {
		return models.Album{}, newError(ErrInvalidInput, "no metadata sources configured")
	}

	label := metadata.SourceName(source)
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		resolveDuration.WithLabelValues(label).Observe(v)
	}))
	facts, err := s.resolver.Resolve(ctx, source, rawURL)
	if errors.Is(err, metadata.ErrUnknownSource) {
		// request input must not mint new series
		label = "unknown"
	}
	timer.ObserveDuration()
	if err != nil {
		submissionsTotal.WithLabelValues("resolve_failed").Inc()
		return models.Album{}, resolveError(err)
	}

	mirrored := ""
	if s.covers != nil && facts.Cover != "" {
		if url, err := s.covers.MirrorCover(ctx, facts.Artist+" "+facts.Name, facts.Cover); err != nil {
			s.logger.Warn("cover mirror failed, keeping upstream url", "cover", facts.Cover, "error", err)
		} else {
			mirrored = url
			facts.Cover = url
		}
	}

	album, err := s.SubmitAlbum(ctx, username, facts)
	if err != nil && mirrored != "" {
		if derr := s.covers.DeleteCover(context.WithoutCancel(ctx), mirrored); derr != nil {
			s.logger.Warn("orphaned cover", "cover", mirrored, "error", derr)
		}
	}
	return album, err
}

func resolveError(err error) error {
	switch {
	case errors.Is(err, metadata.ErrUnknownSource):
		return wrapError(ErrInvalidInput, "unknown source", err)
	case errors.Is(err, metadata.ErrBadURL):
		return wrapError(ErrInvalidInput, "url does not point to an album", err)
	case errors.Is(err, metadata.ErrIncomplete):
		return wrapError(ErrInvalidInput, "source returned incomplete album data", err)
	case errors.Is(err, metadata.ErrNotFound):
		return wrapError(ErrNotFound, "album not found at source", err)
	default:
		return fmt.Errorf("resolve album: %w", err)
	}
}

// SubmitAlbum validates facts against the current config and stores the
// album with its tracks and the submission record in one transaction.
func (s *Submitter) SubmitAlbum(ctx context.Context, username string, facts metadata.AlbumFacts) (models.Album, error) {
	var album models.Album
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx, true)
		if err != nil {
			return err
		}
		if err := checkEligibility(tx, cfg, username, facts); err != nil {
			return err
		}

		order, err := nextOrderNumber(tx, cfg.CurrentRound)
		if err != nil {
			return err
		}

		album = models.Album{
			Artist:      facts.Artist,
			Name:        facts.Name,
			ReleaseYear: facts.ReleaseYear,
			Duration:    models.Duration(facts.Duration),
			TotalTracks: facts.TotalTracks,
			RoundNumber: cfg.CurrentRound,
			OrderNumber: &order,
			Cover:       facts.Cover,
		}
		if err := tx.Omit(clause.Associations).Create(&album).Error; err != nil {
			return conflictOr(err, "album already appeared")
		}

		tracks := make([]models.Track, len(facts.TrackNames))
		for i, name := range facts.TrackNames {
			tracks[i] = models.Track{AlbumID: album.ID, Position: i + 1, TrackName: name}
		}
		if err := tx.Create(&tracks).Error; err != nil {
			return err
		}
		album.Tracks = tracks

		return tx.Create(&models.UserAlbumSubmission{Username: username, AlbumID: album.ID}).Error
	})

	submissionsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return models.Album{}, err
	}

	s.logger.Info("album submitted",
		"user", username,
		"artist", album.Artist,
		"album", album.Name,
		"round", album.RoundNumber,
		"order", *album.OrderNumber,
	)
	return album, nil
}

// checkEligibility runs the submission rules in order against cfg.
func checkEligibility(tx *gorm.DB, cfg models.Config, username string, facts metadata.AlbumFacts) error {
	if !cfg.SubmissionsOpen {
		return newError(ErrForbidden, "submissions closed")
	}
	if strings.TrimSpace(facts.Artist) == "" || strings.TrimSpace(facts.Name) == "" {
		return newError(ErrInvalidInput, "artist and album name are required")
	}

	var n int64
	if err := tx.Model(&models.Album{}).
		Where("artist = ? AND name = ?", facts.Artist, facts.Name).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return newError(ErrConflict, "album already appeared")
	}

	if err := tx.Model(&models.Album{}).
		Where("artist = ? AND round_number IN ?", facts.Artist, []int{cfg.CurrentRound, cfg.CurrentRound - 1}).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return newError(ErrConflict, "artist cooldown: artist appeared in this or the previous round")
	}

	if facts.TotalTracks < cfg.MinTracks || facts.TotalTracks > cfg.MaxTracks {
		return newError(ErrInvalidInput,
			fmt.Sprintf("album must have between %d and %d tracks", cfg.MinTracks, cfg.MaxTracks))
	}
	if models.Duration(facts.Duration) > cfg.MaxDuration {
		return newError(ErrInvalidInput,
			fmt.Sprintf("album must be at most %s long", cfg.MaxDuration))
	}

	if err := tx.Model(&models.UserAlbumSubmission{}).
		Joins("JOIN albums ON albums.id = user_album_submissions.album_id").
		Where("user_album_submissions.username = ? AND albums.round_number = ?", username, cfg.CurrentRound).
		Count(&n).Error; err != nil {
		return err
	}
	if n >= int64(cfg.MaxSubmissions) {
		return newError(ErrForbidden, "quota exceeded")
	}

	if len(facts.TrackNames) != facts.TotalTracks {
		return newError(ErrInvalidInput, "track list does not match total tracks")
	}
	return nil
}

func nextOrderNumber(tx *gorm.DB, round int) (int, error) {
	var max sql.NullInt64
	err := tx.Model(&models.Album{}).
		Where("round_number = ?", round).
		Select("MAX(order_number)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}
