package rounds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Shoshak/album-ranking-v2/internal/clock"
	"github.com/Shoshak/album-ranking-v2/internal/models"
	"github.com/Shoshak/album-ranking-v2/internal/telegram"
)

// SessionConfig holds the secrets and lifetimes for Telegram sessions.
type SessionConfig struct {
	BotToken   string
	JWTSecret  []byte
	TTL        time.Duration // counted from auth_date
	MaxAuthAge time.Duration // oldest auth_date accepted at login
}

// Sessions turns verified Telegram logins into signed session tokens.
type Sessions struct {
	db     *gorm.DB
	cfg    SessionConfig
	clock  clock.Clock
	logger *slog.Logger
}

func NewSessions(db *gorm.DB, cfg SessionConfig, clk clock.Clock, logger *slog.Logger) *Sessions {
	if cfg.TTL <= 0 {
		cfg.TTL = 14 * 24 * time.Hour
	}
	if cfg.MaxAuthAge <= 0 {
		cfg.MaxAuthAge = 24 * time.Hour
	}
	return &Sessions{db: db, cfg: cfg, clock: clock.OrReal(clk), logger: resolveLogger(logger)}
}

// Claims are carried by session tokens. Subject is the session id.
type Claims struct {
	Username   string `json:"username"`
	TelegramID int64  `json:"telegram_id"`
	Admin      bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller behind a token.
type Identity struct {
	SessionID  string
	TelegramID int64
	Username   string
	Admin      bool
}

// Issued is a session together with its bearer token.
type Issued struct {
	Session models.TelegramSession `json:"session"`
	Token   string                 `json:"token"`
}

// verifyLogin checks the widget hash and the age of auth_date.
func (s *Sessions) verifyLogin(d telegram.LoginData) error {
	if err := telegram.Verify(s.cfg.BotToken, d); err != nil {
		if errors.Is(err, telegram.ErrBadHash) {
			return wrapError(ErrForbidden, "data is not from Telegram", err)
		}
		return err
	}
	if s.clock.Now().Sub(d.AuthTime()) > s.cfg.MaxAuthAge {
		return newError(ErrExpired, "authentication data is outdated")
	}
	return nil
}

// Create opens the first session for a Telegram account, registering the
// account as a user if it is new.
func (s *Sessions) Create(ctx context.Context, d telegram.LoginData) (Issued, error) {
	if err := s.verifyLogin(d); err != nil {
		return Issued{}, err
	}
	name := d.DisplayName()
	if name == "" {
		return Issued{}, newError(ErrInvalidInput, "telegram account has no name")
	}

	var (
		sess models.TelegramSession
		user models.User
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.TelegramSession{}).Where("telegram_id = ?", d.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return newError(ErrConflict, "session already exists")
		}

		if err := tx.Where(models.User{ID: d.ID}).
			Attrs(models.User{Username: name}).
			FirstOrCreate(&user).Error; err != nil {
			return err
		}

		sess = models.TelegramSession{
			ID:         uuid.NewString(),
			TelegramID: d.ID,
			Username:   user.Username,
			ExpiresAt:  d.AuthTime().Add(s.cfg.TTL).UTC(),
		}
		return conflictOr(tx.Create(&sess).Error, "session already exists")
	})
	if err != nil {
		return Issued{}, err
	}

	s.logger.Info("session created", "telegram_id", d.ID, "username", user.Username)
	return s.issue(sess, user)
}

// Refresh extends an existing session from a fresh Telegram login.
func (s *Sessions) Refresh(ctx context.Context, d telegram.LoginData) (Issued, error) {
	if err := s.verifyLogin(d); err != nil {
		return Issued{}, err
	}

	var (
		sess models.TelegramSession
		user models.User
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("telegram_id = ?", d.ID).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "session not found")
			}
			return err
		}
		if err := tx.First(&user, d.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "user not found")
			}
			return err
		}
		sess.ExpiresAt = d.AuthTime().Add(s.cfg.TTL).UTC()
		return tx.Model(&sess).Update("expires_at", sess.ExpiresAt).Error
	})
	if err != nil {
		return Issued{}, err
	}

	s.logger.Info("session refreshed", "telegram_id", d.ID, "expires_at", sess.ExpiresAt)
	return s.issue(sess, user)
}

func (s *Sessions) Get(ctx context.Context, telegramID int64) (models.TelegramSession, error) {
	var sess models.TelegramSession
	err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sess, newError(ErrNotFound, "session not found")
		}
		return sess, err
	}
	return sess, nil
}

func (s *Sessions) issue(sess models.TelegramSession, user models.User) (Issued, error) {
	claims := Claims{
		Username:   user.Username,
		TelegramID: user.ID,
		Admin:      user.AdminRights,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(s.clock.Now()),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign session token: %w", err)
	}
	return Issued{Session: sess, Token: token}, nil
}

// Authenticate resolves a bearer token to the caller. Admin rights are
// read from the users table, not from the token.
func (s *Sessions) Authenticate(ctx context.Context, tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.cfg.JWTSecret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, wrapError(ErrForbidden, "invalid token", err)
	}

	db := s.db.WithContext(ctx)
	var sess models.TelegramSession
	if err := db.First(&sess, "id = ?", claims.Subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, newError(ErrForbidden, "session not found")
		}
		return Identity{}, err
	}
	if !s.clock.Now().Before(sess.ExpiresAt) {
		return Identity{}, newError(ErrForbidden, "session expired")
	}

	var user models.User
	if err := db.First(&user, sess.TelegramID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, newError(ErrForbidden, "user not found")
		}
		return Identity{}, err
	}

	return Identity{
		SessionID:  sess.ID,
		TelegramID: user.ID,
		Username:   user.Username,
		Admin:      user.AdminRights,
	}, nil
}
