package rounds

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"gorm.io/gorm"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// Aggregator stores track placements and computes album standings.
type Aggregator struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAggregator(db *gorm.DB, logger *slog.Logger) *Aggregator {
	return &Aggregator{db: db, logger: resolveLogger(logger)}
}

// Vote is one user's placement of one track.
type Vote struct {
	Username  string `json:"username"`
	Placement int    `json:"placement"`
}

// TrackStanding is a track with its votes and their mean.
type TrackStanding struct {
	TrackID       uint    `json:"track_id"`
	TrackName     string  `json:"track_name"`
	Rankings      []Vote  `json:"rankings"`
	MeanPlacement float64 `json:"mean_placement"`
}

func tracksInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

// rankingTarget loads the album and checks placements can apply to it now.
func rankingTarget(tx *gorm.DB, albumID uint, placements []int) (models.Album, error) {
	var album models.Album
	err := tx.Preload("Tracks", tracksInOrder).First(&album, albumID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return album, err
	}
	if err != nil || len(album.Tracks) == 0 {
		return album, newError(ErrNotFound, "album not found")
	}
	if len(placements) != len(album.Tracks) {
		return album, newError(ErrInvalidInput, "count mismatch: placements must cover every track")
	}
	if err := checkPermutation(placements); err != nil {
		return album, err
	}

	cfg, err := loadConfig(tx, false)
	if err != nil {
		return album, err
	}
	if album.RoundNumber != cfg.CurrentRound || album.OrderNumber == nil || *album.OrderNumber != cfg.CurrentOrderNumber {
		return album, newError(ErrForbidden, "ranking closed: album is not open for ranking")
	}
	return album, nil
}

// checkPermutation requires placements to be exactly 1..N.
func checkPermutation(placements []int) error {
	seen := make([]bool, len(placements)+1)
	for _, p := range placements {
		if p < 1 || p > len(placements) || seen[p] {
			return newError(ErrInvalidInput, "placements must use each position from 1 to the track count once")
		}
		seen[p] = true
	}
	return nil
}

func trackIDs(tracks []models.Track) []uint {
	ids := make([]uint, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

// SubmitRanking records username's first ranking of an album.
// placements[i] belongs to the i-th track in track order.
func (a *Aggregator) SubmitRanking(ctx context.Context, albumID uint, username string, placements []int) (models.Album, error) {
	var album models.Album
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if album, err = rankingTarget(tx, albumID, placements); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Ranking{}).
			Where("username = ? AND track_id IN ?", username, trackIDs(album.Tracks)).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return newError(ErrConflict, "already ranked")
		}

		rankings := make([]models.Ranking, len(album.Tracks))
		for i, t := range album.Tracks {
			rankings[i] = models.Ranking{Username: username, TrackID: t.ID, Placement: placements[i]}
		}
		return conflictOr(tx.Create(&rankings).Error, "already ranked")
	})

	rankingsTotal.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		return models.Album{}, err
	}
	a.logger.Info("ranking submitted", "user", username, "album_id", album.ID)
	return album, nil
}

// UpdateRanking replaces username's placements for an album. The user
// must have ranked every track before.
func (a *Aggregator) UpdateRanking(ctx context.Context, albumID uint, username string, placements []int) (models.Album, error) {
	var album models.Album
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if album, err = rankingTarget(tx, albumID, placements); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.Ranking{}).
			Where("username = ? AND track_id IN ?", username, trackIDs(album.Tracks)).
			Count(&n).Error; err != nil {
			return err
		}
		if int(n) != len(album.Tracks) {
			return newError(ErrNotFound, "no ranking to update")
		}

		for i, t := range album.Tracks {
			if err := tx.Model(&models.Ranking{}).
				Where("username = ? AND track_id = ?", username, t.ID).
				Update("placement", placements[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})

	rankingsTotal.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		return models.Album{}, err
	}
	a.logger.Info("ranking updated", "user", username, "album_id", album.ID)
	return album, nil
}

// AlbumRankings returns every track of the album, best mean placement first.
func (a *Aggregator) AlbumRankings(ctx context.Context, albumID uint) ([]TrackStanding, error) {
	var tracks []models.Track
	err := a.db.WithContext(ctx).
		Preload("Rankings", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("album_id = ?", albumID).
		Order("position, id").
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, newError(ErrNotFound, "album not found")
	}

	out := standings(tracks)
	if len(out[0].Rankings) == 0 {
		// unranked tracks sort last, so the first one tells
		return nil, newError(ErrNotFound, "no rankings yet")
	}
	return out, nil
}

// standings averages each track's placements and sorts ascending by
// mean, rounded half to even. Ties keep track order; tracks nobody ranked
// go last.
func standings(tracks []models.Track) []TrackStanding {
	out := make([]TrackStanding, len(tracks))
	for i, t := range tracks {
		st := TrackStanding{TrackID: t.ID, TrackName: t.TrackName, Rankings: make([]Vote, len(t.Rankings))}
		sum := 0
		for j, r := range t.Rankings {
			st.Rankings[j] = Vote{Username: r.Username, Placement: r.Placement}
			sum += r.Placement
		}
		if len(t.Rankings) > 0 {
			st.MeanPlacement = math.RoundToEven(float64(sum)/float64(len(t.Rankings))*100) / 100
		}
		out[i] = st
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := len(out[i].Rankings) > 0, len(out[j].Rankings) > 0
		if ri != rj {
			return ri
		}
		return out[i].MeanPlacement < out[j].MeanPlacement
	})
	return out
}

// TrackRankings lists the raw votes on one track, optionally by one user.
func (a *Aggregator) TrackRankings(ctx context.Context, trackID uint, username string) ([]models.Ranking, error) {
	q := a.db.WithContext(ctx).Where("track_id = ?", trackID)
	if username != "" {
		q = q.Where("username = ?", username)
	}
	var rankings []models.Ranking
	if err := q.Order("id").Find(&rankings).Error; err != nil {
		return nil, err
	}
	if len(rankings) == 0 {
		return nil, newError(ErrNotFound, "no rankings found")
	}
	return rankings, nil
}
