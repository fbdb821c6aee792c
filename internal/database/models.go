package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Download statuses
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Download is one produced file, or the attempt to produce it
type Download struct {
	ID          string     `gorm:"primaryKey"`
	MangaTitle  string     `gorm:"not null"`
	MangaSlug   string     `gorm:"not null;index"`
	Source      string     `gorm:"not null"`
	Chapters    string     `gorm:"not null"` // compact interval list, e.g. 1-3,5
	Format      string     `gorm:"not null"`
	FilePath    string     `gorm:""`
	SizeBytes   int64      `gorm:"default:0"`
	Status      string     `gorm:"not null;index"`
	Error       string     `gorm:""`
	CreatedAt   time.Time  `gorm:"index"`
	CompletedAt *time.Time `gorm:""`
}

// TableName overrides the table name
func (Download) TableName() string {
	return "downloads"
}

// BeforeCreate assigns a UUID to rows created without one
func (d *Download) BeforeCreate(*gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Download{})
}
