package models

import "time"

// Album is one submission to a round. OrderNumber stays nil until assigned.
type Album struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Artist      string    `gorm:"not null;index;uniqueIndex:uix_artist_name" json:"artist"`
	Name        string    `gorm:"not null;uniqueIndex:uix_artist_name" json:"name"`
	ReleaseYear int       `json:"release_year"`
	Duration    Duration  `gorm:"not null" json:"duration"`
	TotalTracks int       `gorm:"not null" json:"total_tracks"`
	RoundNumber int       `gorm:"not null;index;uniqueIndex:uix_round_order" json:"round_number"`
	OrderNumber *int      `gorm:"uniqueIndex:uix_round_order" json:"order_number"`
	Cover       string    `json:"cover"`

	Tracks []Track `gorm:"foreignKey:AlbumID" json:"tracks,omitempty"`
}

// UserAlbumSubmission links a username to the album they submitted.
// Only used to count submissions per round.
type UserAlbumSubmission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"not null;index" json:"username"`
	AlbumID  uint   `gorm:"not null;index" json:"album_id"`
}
