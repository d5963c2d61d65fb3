package rounds

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// Users manages the registered participants.
type Users struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewUsers(db *gorm.DB, logger *slog.Logger) *Users {
	return &Users{db: db, logger: resolveLogger(logger)}
}

// List returns all users, or only the one with telegramID when given.
func (u *Users) List(ctx context.Context, telegramID *int64) ([]models.User, error) {
	q := u.db.WithContext(ctx).Order("id")
	if telegramID != nil {
		q = q.Where("id = ?", *telegramID)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, newError(ErrNotFound, "no users found")
	}
	return users, nil
}

func (u *Users) Create(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == 0 || user.Username == "" {
		return user, newError(ErrInvalidInput, "id and username are required")
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return newError(ErrConflict, "user already exists")
		}
		return conflictOr(tx.Create(&user).Error, "user already exists")
	})
	if err != nil {
		return models.User{}, err
	}
	u.logger.Info("user created", "telegram_id", user.ID, "username", user.Username, "admin", user.AdminRights)
	return user, nil
}
