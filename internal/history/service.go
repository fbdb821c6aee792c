// Package history records the files mangadl produced
package history

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/justchokingaround/mangadl/internal/database"
)

// Service provides history management functionality
type Service struct {
	db *gorm.DB
}

// Entry is one finished or failed conversion
type Entry struct {
	MangaTitle string
	MangaSlug  string
	Source     string
	Chapters   string
	Format     string
	FilePath   string
	SizeBytes  int64
	Err        error
}

// Stats summarizes the history
type Stats struct {
	TotalDownloads int64
	FailedCount    int64
	TotalBytes     int64
	MangaCount     int64
}

// NewService creates a new history service. A nil db gives a service that
// records nothing, for when the database is disabled.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Enabled reports whether the service is backed by a database
func (s *Service) Enabled() bool {
	return s != nil && s.db != nil
}

// Record stores an entry. Entries with Err set are stored as failed.
func (s *Service) Record(entry Entry) (*database.Download, error) {
	if !s.Enabled() {
		return nil, nil
	}

	row := database.Download{
		MangaTitle: entry.MangaTitle,
		MangaSlug:  entry.MangaSlug,
		Source:     entry.Source,
		Chapters:   entry.Chapters,
		Format:     entry.Format,
		FilePath:   entry.FilePath,
		SizeBytes:  entry.SizeBytes,
		Status:     database.StatusCompleted,
	}
	if entry.Err != nil {
		row.Status = database.StatusFailed
		row.Error = entry.Err.Error()
	} else {
		now := time.Now()
		row.CompletedAt = &now
	}

	if err := s.db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}
	return &row, nil
}

// List returns the most recent downloads first. A limit of 0 returns all.
func (s *Service) List(limit int) ([]database.Download, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := s.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []database.Download
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	return rows, nil
}

// ForManga returns the downloads of one manga, most recent first
func (s *Service) ForManga(slug string) ([]database.Download, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("database connection is nil")
	}

	var rows []database.Download
	if err := s.db.Where("manga_slug = ?", slug).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", slug, err)
	}
	return rows, nil
}

// GetStats retrieves download statistics
func (s *Service) GetStats() (*Stats, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("database connection is nil")
	}

	var stats Stats
	model := func() *gorm.DB { return s.db.Model(&database.Download{}) }

	if err := model().Count(&stats.TotalDownloads).Error; err != nil {
		return nil, err
	}
	if err := model().Where("status = ?", database.StatusFailed).Count(&stats.FailedCount).Error; err != nil {
		return nil, err
	}
	if err := model().Select("COALESCE(SUM(size_bytes), 0)").Where("status = ?", database.StatusCompleted).Scan(&stats.TotalBytes).Error; err != nil {
		return nil, err
	}
	if err := model().Distinct("manga_slug").Count(&stats.MangaCount).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// Cleanup removes failed records older than 30 days
func (s *Service) Cleanup() error {
	if !s.Enabled() {
		return fmt.Errorf("database connection is nil")
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	return s.db.Where("status = ? AND created_at < ?", database.StatusFailed, cutoff).Delete(&database.Download{}).Error
}
