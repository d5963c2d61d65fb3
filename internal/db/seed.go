package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Shoshak/album-ranking-v2/internal/models"
)

// SeedConfig makes sure the singleton config row exists.
func SeedConfig(db *gorm.DB) error {
	row := models.DefaultConfig()
	// UPSERT on the fixed id so restarts never reset a live competition
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// SeedAdminUser registers the configured administrator, promoting an
// existing user of the same id.
func SeedAdminUser(db *gorm.DB, telegramID int64, username string) error {
	if telegramID == 0 || username == "" {
		return nil
	}
	admin := models.User{ID: telegramID, Username: username, AdminRights: true}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"admin_rights"}),
	}).Create(&admin).Error
	if err != nil {
		return err
	}
	log.Printf("🌱 Admin user %q (%d) ready", username, telegramID)
	return nil
}
