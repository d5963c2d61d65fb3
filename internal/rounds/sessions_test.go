package rounds

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Shoshak/album-ranking-v2/internal/clock"
	"github.com/Shoshak/album-ranking-v2/internal/models"
	"github.com/Shoshak/album-ranking-v2/internal/telegram"
)

const testBotToken = "123456:test-bot-token"

var authDate = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signedLogin(id int64, username string, at time.Time) telegram.LoginData {
	d := telegram.LoginData{ID: id, FirstName: "Test", Username: username, AuthDate: at.Unix()}
	d.Hash = telegram.Sign(testBotToken, d)
	return d
}

func newTestSessions(t *testing.T) (*Sessions, *clock.MockClock, *gorm.DB) {
	t.Helper()
	db := setupInMemoryDB(t)
	clk := &clock.MockClock{MockTime: authDate.Add(time.Hour)}
	s := NewSessions(db, SessionConfig{
		BotToken:   testBotToken,
		JWTSecret:  []byte("test-secret"),
		TTL:        14 * 24 * time.Hour,
		MaxAuthAge: 24 * time.Hour,
	}, clk, nil)
	return s, clk, db
}

func TestSessionCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("registers user and issues token", func(t *testing.T) {
		s, _, db := newTestSessions(t)

		issued, err := s.Create(ctx, signedLogin(42, "alice", authDate))
		require.NoError(t, err)
		assert.NotEmpty(t, issued.Token)
		assert.Equal(t, int64(42), issued.Session.TelegramID)
		assert.Equal(t, "alice", issued.Session.Username)
		assert.True(t, authDate.Add(14*24*time.Hour).Equal(issued.Session.ExpiresAt))

		var user models.User
		require.NoError(t, db.First(&user, 42).Error)
		assert.Equal(t, "alice", user.Username)
		assert.False(t, user.AdminRights)

		var claims Claims
		_, _, err = jwt.NewParser().ParseUnverified(issued.Token, &claims)
		require.NoError(t, err)
		assert.Equal(t, issued.Session.ID, claims.Subject)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("keeps registered username and rights", func(t *testing.T) {
		s, _, db := newTestSessions(t)
		require.NoError(t, db.Create(&models.User{ID: 42, Username: "Alice", AdminRights: true}).Error)

		issued, err := s.Create(ctx, signedLogin(42, "alice_tg", authDate))
		require.NoError(t, err)
		assert.Equal(t, "Alice", issued.Session.Username)

		id, err := s.Authenticate(ctx, issued.Token)
		require.NoError(t, err)
		assert.True(t, id.Admin)
	})

	t.Run("tampered payload", func(t *testing.T) {
		s, _, _ := newTestSessions(t)
		d := signedLogin(42, "alice", authDate)
		d.Username = "mallory"
		_, err := s.Create(ctx, d)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "data is not from Telegram", Message(err))
	})

	t.Run("stale auth date", func(t *testing.T) {
		s, clk, _ := newTestSessions(t)
		clk.MockTime = authDate.Add(25 * time.Hour)
		_, err := s.Create(ctx, signedLogin(42, "alice", authDate))
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("second session conflicts", func(t *testing.T) {
		s, _, _ := newTestSessions(t)
		_, err := s.Create(ctx, signedLogin(42, "alice", authDate))
		require.NoError(t, err)
		_, err = s.Create(ctx, signedLogin(42, "alice", authDate.Add(time.Minute)))
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestSessionRefresh(t *testing.T) {
	ctx := context.Background()
	s, clk, _ := newTestSessions(t)

	_, err := s.Refresh(ctx, signedLogin(42, "alice", authDate))
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.Create(ctx, signedLogin(42, "alice", authDate))
	require.NoError(t, err)

	later := authDate.Add(10 * 24 * time.Hour)
	clk.MockTime = later.Add(time.Minute)
	refreshed, err := s.Refresh(ctx, signedLogin(42, "alice", later))
	require.NoError(t, err)
	assert.Equal(t, first.Session.ID, refreshed.Session.ID)
	assert.True(t, later.Add(14*24*time.Hour).Equal(refreshed.Session.ExpiresAt))

	got, err := s.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, refreshed.Session.ExpiresAt.Equal(got.ExpiresAt))

	_, err = s.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s, clk, db := newTestSessions(t)

	issued, err := s.Create(ctx, signedLogin(42, "alice", authDate))
	require.NoError(t, err)

	id, err := s.Authenticate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, int64(42), id.TelegramID)
	assert.False(t, id.Admin)

	t.Run("rights come from the users table", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", 42).Update("admin_rights", true).Error)
		id, err := s.Authenticate(ctx, issued.Token)
		require.NoError(t, err)
		assert.True(t, id.Admin)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewSessions(db, SessionConfig{BotToken: testBotToken, JWTSecret: []byte("other")}, clk, nil)
		_, err := other.Authenticate(ctx, issued.Token)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("deleted session", func(t *testing.T) {
		s2, _, db2 := newTestSessions(t)
		issued, err := s2.Create(ctx, signedLogin(7, "bob", authDate))
		require.NoError(t, err)
		require.NoError(t, db2.Where("telegram_id = ?", 7).Delete(&models.TelegramSession{}).Error)
		_, err = s2.Authenticate(ctx, issued.Token)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("expired", func(t *testing.T) {
		clk.MockTime = authDate.Add(15 * 24 * time.Hour)
		_, err := s.Authenticate(ctx, issued.Token)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
