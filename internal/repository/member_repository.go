package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cims/internal/db"
	"cims/internal/model"
)

// MemberRepository defines CIMS persistence operations: members, their
// credential rows and their group mappings.
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	FindByID(ctx context.Context, id uint) (*model.Member, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)

	CreateCredential(ctx context.Context, credential *model.Credential) error
	FindCredential(ctx context.Context, memberID uint) (*model.Credential, error)
	DeleteCredential(ctx context.Context, memberID uint) (int64, error)

	AddMapping(ctx context.Context, mapping *model.GroupMapping) error
	CountMappings(ctx context.Context, memberID uint) (int64, error)
	// LockMappings counts the member's mappings with a locking read, blocking
	// concurrent inserts for that member until the transaction ends.
	LockMappings(ctx context.Context, memberID uint) (int64, error)
	DeleteMapping(ctx context.Context, memberID uint, groupID string) (int64, error)
	ListByGroup(ctx context.Context, groupID string) ([]model.Member, error)

	// WithConnection runs fn on a single acquired connection.
	WithConnection(ctx context.Context, fn func(ctx context.Context, repo MemberRepository) error) error
	// WithTransaction runs fn inside a transaction; any returned error rolls it back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MemberRepository) error) error
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository builds a GORM-backed repository over the CIMS database.
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) FindByID(ctx context.Context, id uint) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).Where("ID = ?", id).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, r.db, &model.Member{}, "ID", id)
}

// UpdateColumns touches only the given columns. The affected count follows the
// driver's semantics, so a zero does not prove the row is missing.
func (r *memberRepository) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Member{}).
		Where("ID = ?", id).
		Updates(columns)
	return res.RowsAffected, res.Error
}

func (r *memberRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("ID = ?", id).Delete(&model.Member{})
	return res.RowsAffected, res.Error
}

func (r *memberRepository) CreateCredential(ctx context.Context, credential *model.Credential) error {
	return r.db.WithContext(ctx).Create(credential).Error
}

func (r *memberRepository) FindCredential(ctx context.Context, memberID uint) (*model.Credential, error) {
	var credential model.Credential
	if err := r.db.WithContext(ctx).Where("MemberID = ?", memberID).First(&credential).Error; err != nil {
		return nil, err
	}
	return &credential, nil
}

func (r *memberRepository) DeleteCredential(ctx context.Context, memberID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("MemberID = ?", memberID).Delete(&model.Credential{})
	return res.RowsAffected, res.Error
}

func (r *memberRepository) AddMapping(ctx context.Context, mapping *model.GroupMapping) error {
	return r.db.WithContext(ctx).Create(mapping).Error
}

func (r *memberRepository) CountMappings(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMapping{}).
		Where("MemberID = ?", memberID).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) LockMappings(ctx context.Context, memberID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GroupMapping{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("MemberID = ?", memberID).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) DeleteMapping(ctx context.Context, memberID uint, groupID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("MemberID = ? AND GroupID = ?", memberID, groupID).
		Delete(&model.GroupMapping{})
	return res.RowsAffected, res.Error
}

// ListByGroup returns the group's members ordered by name, then ID.
func (r *memberRepository) ListByGroup(ctx context.Context, groupID string) ([]model.Member, error) {
	members := []model.Member{}
	err := r.db.WithContext(ctx).Model(&model.Member{}).
		Joins("JOIN MemberGroupMapping mgm ON mgm.MemberID = members.ID").
		Where("mgm.GroupID = ?", groupID).
		Order("members.UserName ASC").
		Order("members.ID ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *memberRepository) WithConnection(ctx context.Context, fn func(ctx context.Context, repo MemberRepository) error) error {
	return db.Acquire(ctx, r.db, func(conn *gorm.DB) error {
		return fn(ctx, &memberRepository{db: conn})
	})
}

func (r *memberRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MemberRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &memberRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

// IsNotFound reports whether err means the looked-up row is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
