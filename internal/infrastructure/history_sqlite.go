package infrastructure

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IgorBrzezek/YT-Audio-Video-Extractor/internal/domain"
)

// HistoryEntry is one finished job persisted for later inspection.
type HistoryEntry struct {
	ID         string `gorm:"primaryKey"`
	Source     string `gorm:"not null"`
	Format     string
	OutputPath string
	Result     string `gorm:"index"`
	Reason     string
	Attempts   int
	Bytes      int64
	DurationMs int64
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// SQLiteHistory implements domain.HistoryStore using SQLite.
type SQLiteHistory struct {
	db *gorm.DB
}

// NewSQLiteHistory opens (and migrates) the history database.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &SQLiteHistory{db: db}, nil
}

// Record persists one finished job.
func (h *SQLiteHistory) Record(job *domain.Job) error {
	entry := &HistoryEntry{
		ID:         job.ID,
		Source:     job.Source,
		Format:     string(job.Format),
		OutputPath: job.OutputPath,
		Result:     string(job.Result),
		Reason:     job.FailureReason,
		Attempts:   job.Attempt,
		Bytes:      job.BytesDone(),
		DurationMs: (job.Timing.FetchDuration + job.Timing.CombineDuration).Milliseconds(),
	}
	return h.db.Create(entry).Error
}

// Recent returns the most recent entries, newest first.
func (h *SQLiteHistory) Recent(limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	err := h.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// CountByResult returns how many recorded jobs ended with the given result.
func (h *SQLiteHistory) CountByResult(result domain.TerminalResult) (int64, error) {
	var count int64
	err := h.db.Model(&HistoryEntry{}).Where("result = ?", string(result)).Count(&count).Error
	return count, err
}

// Close closes the underlying database handle.
func (h *SQLiteHistory) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
