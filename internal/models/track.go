package models

// Track belongs to exactly one Album. Position is the 1-based order the
// metadata source listed it in; rankings pair placements with tracks by it.
type Track struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	AlbumID   uint   `gorm:"not null;index" json:"album_id"`
	Position  int    `gorm:"not null" json:"position"`
	TrackName string `gorm:"not null" json:"track_name"`

	Rankings []Ranking `gorm:"foreignKey:TrackID" json:"-"`
}

// Ranking is one voter's placement for one track.
type Ranking struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"not null;uniqueIndex:uix_user_track" json:"username"`
	TrackID   uint   `gorm:"not null;uniqueIndex:uix_user_track;index" json:"track_id"`
	Placement int    `gorm:"not null" json:"placement"`
}
