package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"cims/internal/db"
	"cims/internal/model"
)

// LogFilter narrows ListLogs; zero fields are ignored.
type LogFilter struct {
	EquipmentID uint
	MemberID    uint
	OpenOnly    bool
}

// EquipmentRepository defines equipment and issue-log persistence operations.
type EquipmentRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Equipment, error)
	MarkUnavailable(ctx context.Context, id uint) (int64, error)
	MarkAvailable(ctx context.Context, id uint, condition *model.Condition) error
	CreateLog(ctx context.Context, log *model.EquipmentLog) error
	FindLog(ctx context.Context, id uint) (*model.EquipmentLog, error)
	CloseLog(ctx context.Context, id uint, returnedAt time.Time) (int64, error)
	ListLogs(ctx context.Context, filter LogFilter) ([]model.EquipmentLog, error)
	WithConnection(ctx context.Context, fn func(ctx context.Context, repo EquipmentRepository) error) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EquipmentRepository) error) error
}

type equipmentRepository struct {
	db *gorm.DB
}

// NewEquipmentRepository creates a new equipment repository.
func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

func (r *equipmentRepository) FindByID(ctx context.Context, id uint) (*model.Equipment, error) {
	var equipment model.Equipment
	if err := r.db.WithContext(ctx).Where("EquipmentID = ?", id).First(&equipment).Error; err != nil {
		return nil, err
	}
	return &equipment, nil
}

// MarkUnavailable flips IsAvailable only if the item is still available, so a
// concurrent issue of the same item affects zero rows.
func (r *equipmentRepository) MarkUnavailable(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("EquipmentID = ? AND IsAvailable = ?", id, true).
		Update("IsAvailable", false)
	return res.RowsAffected, res.Error
}

func (r *equipmentRepository) MarkAvailable(ctx context.Context, id uint, condition *model.Condition) error {
	columns := map[string]interface{}{"IsAvailable": true}
	if condition != nil {
		columns["Condition_"] = string(*condition)
	}
	return r.db.WithContext(ctx).Model(&model.Equipment{}).
		Where("EquipmentID = ?", id).
		Updates(columns).Error
}

func (r *equipmentRepository) CreateLog(ctx context.Context, log *model.EquipmentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *equipmentRepository) FindLog(ctx context.Context, id uint) (*model.EquipmentLog, error) {
	var log model.EquipmentLog
	if err := r.db.WithContext(ctx).Where("LogID = ?", id).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// CloseLog stamps the return date on an open log entry.
func (r *equipmentRepository) CloseLog(ctx context.Context, id uint, returnedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.EquipmentLog{}).
		Where("LogID = ? AND ReturnDate IS NULL", id).
		Update("ReturnDate", returnedAt)
	return res.RowsAffected, res.Error
}

// ListLogs returns log entries, most recent issue first.
func (r *equipmentRepository) ListLogs(ctx context.Context, filter LogFilter) ([]model.EquipmentLog, error) {
	query := r.db.WithContext(ctx).Model(&model.EquipmentLog{})
	if filter.EquipmentID != 0 {
		query = query.Where("EquipmentID = ?", filter.EquipmentID)
	}
	if filter.MemberID != 0 {
		query = query.Where("IssuedTo = ?", filter.MemberID)
	}
	if filter.OpenOnly {
		query = query.Where("ReturnDate IS NULL")
	}
	var logs []model.EquipmentLog
	err := query.Order("IssueDate DESC").Order("LogID DESC").Find(&logs).Error
	return logs, err
}

func (r *equipmentRepository) WithConnection(ctx context.Context, fn func(ctx context.Context, repo EquipmentRepository) error) error {
	return db.Acquire(ctx, r.db, func(conn *gorm.DB) error {
		return fn(ctx, &equipmentRepository{db: conn})
	})
}

func (r *equipmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EquipmentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &equipmentRepository{db: tx})
	})
}
