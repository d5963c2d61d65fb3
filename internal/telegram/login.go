// Package telegram verifies Telegram Login Widget payloads.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadHash  = errors.New("data is not from Telegram")
	ErrNoSecret = errors.New("telegram bot token is not configured")
)

// LoginData is what the login widget hands to the browser.
type LoginData struct {
	ID        int64  `json:"id" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
	AuthDate  int64  `json:"auth_date" binding:"required"`
	Hash      string `json:"hash" binding:"required"`
}

// AuthTime is AuthDate as a time.
func (d LoginData) AuthTime() time.Time {
	return time.Unix(d.AuthDate, 0)
}

// DisplayName is the username, or the first name for accounts without one.
func (d LoginData) DisplayName() string {
	if d.Username != "" {
		return d.Username
	}
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// CheckString builds the data-check-string: every present field except hash,
// as key=value, sorted, joined by newlines.
func (d LoginData) CheckString() string {
	fields := map[string]string{
		"id":         strconv.FormatInt(d.ID, 10),
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"username":   d.Username,
		"photo_url":  d.PhotoURL,
		"auth_date":  strconv.FormatInt(d.AuthDate, 10),
	}
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, "\n")
}

// Sign computes the hash Telegram would attach for this bot token.
func Sign(botToken string, d LoginData) string {
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(d.CheckString()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the payload hash against the bot token.
func Verify(botToken string, d LoginData) error {
	if botToken == "" {
		return ErrNoSecret
	}
	want := Sign(botToken, d)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(d.Hash))) {
		return ErrBadHash
	}
	return nil
}
