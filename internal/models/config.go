package models

import "time"

// ConfigID is the primary key of the only row in the config table.
const ConfigID = 1

// Config holds the competition state every rule check reads.
// There is ONE row in this table (ID=1).
type Config struct {
	ID                 uint     `gorm:"primaryKey" json:"-"`
	CurrentRound       int      `gorm:"not null;default:1" json:"current_round"`
	CurrentOrderNumber int      `gorm:"not null;default:1" json:"current_order_number"` // album open for ranking
	MaxSubmissions     int      `gorm:"not null;default:2" json:"max_submissions"`      // per user, per round
	SubmissionsOpen    bool     `gorm:"not null;default:false" json:"submissions_open"`
	MaxDuration        Duration `gorm:"not null" json:"max_duration"`
	MaxTracks          int      `gorm:"not null;default:30" json:"max_tracks"`
	MinTracks          int      `gorm:"not null;default:7" json:"min_tracks"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization
func (Config) TableName() string {
	return "config"
}

// DefaultConfig is the row seeded on first start.
func DefaultConfig() Config {
	return Config{
		ID:                 ConfigID,
		CurrentRound:       1,
		CurrentOrderNumber: 1,
		MaxSubmissions:     2,
		SubmissionsOpen:    false,
		MaxDuration:        Duration(2 * time.Hour),
		MaxTracks:          30,
		MinTracks:          7,
	}
}
