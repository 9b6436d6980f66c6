package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// FrameRepository provides database operations for captured frames
type FrameRepository struct {
	db *gorm.DB
}

// NewFrameRepository creates a new repository instance
func NewFrameRepository(db *gorm.DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// Insert stores a single frame
func (r *FrameRepository) Insert(frame *FrameRecord) error {
	if frame == nil {
		return fmt.Errorf("frame cannot be nil")
	}

	if !frame.IsValid() {
		return fmt.Errorf("frame is not valid: direction=%q, sfd=%q", frame.Direction, frame.SFD)
	}

	return r.db.Create(frame).Error
}

// InsertBatch stores several frames in one transaction
func (r *FrameRepository) InsertBatch(frames []FrameRecord) error {
	if len(frames) == 0 {
		return nil
	}

	for i := range frames {
		if !frames[i].IsValid() {
			return fmt.Errorf("frame %d is not valid: direction=%q, sfd=%q", i, frames[i].Direction, frames[i].SFD)
		}
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range frames {
			if err := tx.Create(&frames[i]).Error; err != nil {
				return fmt.Errorf("insert frame %d: %w", i, err)
			}
		}
		return nil
	})
}

// Count returns the total number of captured frames
func (r *FrameRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&FrameRecord{}).Count(&count).Error
	return count, err
}

// DeleteAll removes all captured frames
func (r *FrameRepository) DeleteAll() error {
	return r.db.Where("1 = 1").Delete(&FrameRecord{}).Error
}

// Recent returns the newest frames first
func (r *FrameRepository) Recent(limit int) ([]FrameRecord, error) {
	var frames []FrameRecord
	err := r.db.Order("id DESC").
		Limit(limit).
		Find(&frames).Error
	return frames, err
}

// BySFD returns the newest frames carrying the given SFD
func (r *FrameRepository) BySFD(sfd string, limit int) ([]FrameRecord, error) {
	var frames []FrameRecord
	err := r.db.Where("sfd = ?", sfd).
		Order("id DESC").
		Limit(limit).
		Find(&frames).Error
	return frames, err
}

// Failed returns received frames that did not verify
func (r *FrameRepository) Failed(limit int) ([]FrameRecord, error) {
	var frames []FrameRecord
	err := r.db.Where("direction = ? AND (fcs_good = ? OR error_text != '')", DirectionRX, false).
		Order("id DESC").
		Limit(limit).
		Find(&frames).Error
	return frames, err
}

// GetStatistics returns frame counts per direction and SFD
func (r *FrameRepository) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := r.Count()
	if err != nil {
		return nil, err
	}
	stats["total_frames"] = count

	var failed int64
	err = r.db.Model(&FrameRecord{}).
		Where("direction = ? AND fcs_good = ?", DirectionRX, false).
		Count(&failed).Error
	if err != nil {
		return nil, err
	}
	stats["bad_fcs"] = failed

	var latest FrameRecord
	err = r.db.Order("id DESC").First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		stats["last_captured"] = latest.CreatedAt
	}

	var sfdStats []struct {
		Direction string `json:"direction"`
		SFD       string `json:"sfd"`
		Count     int    `json:"count"`
	}
	err = r.db.Model(&FrameRecord{}).
		Select("direction, sfd, COUNT(*) as count").
		Group("direction, sfd").
		Order("count DESC").
		Find(&sfdStats).Error
	if err != nil {
		return nil, err
	}
	stats["by_sfd"] = sfdStats

	return stats, nil
}

// HealthCheck verifies the repository is working correctly
func (r *FrameRepository) HealthCheck() error {
	var count int64
	return r.db.Model(&FrameRecord{}).Count(&count).Error
}
