package repository

import (
	"context"

	"gorm.io/gorm"

	"cims/internal/db"
	"cims/internal/model"
)

// TeamRepository defines team and player persistence in the Project database.
type TeamRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Team, error)
	Exists(ctx context.Context, id uint) (bool, error)
	CountPlayers(ctx context.Context, teamID, eventID uint) (int64, error)
	CreatePlayer(ctx context.Context, player *model.Player) error
	ListPlayers(ctx context.Context, teamID, eventID uint) ([]model.Player, error)
	DeletePlayer(ctx context.Context, teamID, eventID, memberID uint) (int64, error)
	WithConnection(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) FindByID(ctx context.Context, id uint) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).Where("TeamID = ?", id).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, r.db, &model.Team{}, "TeamID", id)
}

func (r *teamRepository) CountPlayers(ctx context.Context, teamID, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Player{}).
		Where("TeamID = ? AND EventID = ?", teamID, eventID).
		Count(&count).Error
	return count, err
}

func (r *teamRepository) CreatePlayer(ctx context.Context, player *model.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *teamRepository) ListPlayers(ctx context.Context, teamID, eventID uint) ([]model.Player, error) {
	var players []model.Player
	err := r.db.WithContext(ctx).
		Where("TeamID = ? AND EventID = ?", teamID, eventID).
		Order("PlayerID").
		Find(&players).Error
	return players, err
}

func (r *teamRepository) DeletePlayer(ctx context.Context, teamID, eventID, memberID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("MemberID = ? AND TeamID = ? AND EventID = ?", memberID, teamID, eventID).
		Delete(&model.Player{})
	return res.RowsAffected, res.Error
}

func (r *teamRepository) WithConnection(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error {
	return db.Acquire(ctx, r.db, func(conn *gorm.DB) error {
		return fn(ctx, &teamRepository{db: conn})
	})
}

func (r *teamRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &teamRepository{db: tx})
	})
}

// exists runs a LIMIT 1 key lookup against the model's table.
func exists(ctx context.Context, gdb *gorm.DB, table interface{}, column string, id uint) (bool, error) {
	var found []uint
	err := gdb.WithContext(ctx).Model(table).
		Where(column+" = ?", id).
		Limit(1).
		Pluck(column, &found).Error
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}
