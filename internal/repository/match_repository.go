package repository

import (
	"context"

	"gorm.io/gorm"

	"cims/internal/db"
	"cims/internal/model"
)

// MatchFilter narrows List; zero fields are ignored. TeamID matches either side.
type MatchFilter struct {
	EventID uint
	TeamID  uint
	VenueID uint
	Date    *model.Date
}

// MatchRepository defines match persistence operations.
type MatchRepository interface {
	Create(ctx context.Context, match *model.Match) error
	FindByID(ctx context.Context, id uint) (*model.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]model.Match, error)
	UpdateScore(ctx context.Context, id uint, team1Score, team2Score int, winnerID *uint) error
	Delete(ctx context.Context, id uint) (int64, error)
	VenueBooked(ctx context.Context, eventID uint, date model.Date, slot string, venueID uint) (bool, error)
	TeamBooked(ctx context.Context, eventID uint, date model.Date, slot string, teamID uint) (bool, error)
	WithConnection(ctx context.Context, fn func(ctx context.Context, repo MatchRepository) error) error
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MatchRepository) error) error
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new match repository.
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *model.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *matchRepository) FindByID(ctx context.Context, id uint) (*model.Match, error) {
	var match model.Match
	if err := r.db.WithContext(ctx).Where("MatchID = ?", id).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// List returns matches ordered by date then slot.
func (r *matchRepository) List(ctx context.Context, filter MatchFilter) ([]model.Match, error) {
	query := r.db.WithContext(ctx).Model(&model.Match{})
	if filter.EventID != 0 {
		query = query.Where("EventID = ?", filter.EventID)
	}
	if filter.TeamID != 0 {
		query = query.Where("(Team1ID = ? OR Team2ID = ?)", filter.TeamID, filter.TeamID)
	}
	if filter.VenueID != 0 {
		query = query.Where("VenueID = ?", filter.VenueID)
	}
	if filter.Date != nil {
		query = query.Where("MatchDate = ?", *filter.Date)
	}
	var matches []model.Match
	err := query.Order("MatchDate").Order("Slot").Order("MatchID").Find(&matches).Error
	return matches, err
}

// UpdateScore writes both scores and the winner; a nil winner clears it.
func (r *matchRepository) UpdateScore(ctx context.Context, id uint, team1Score, team2Score int, winnerID *uint) error {
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("MatchID = ?", id).
		Updates(map[string]interface{}{
			"Team1Score": team1Score,
			"Team2Score": team2Score,
			"WinnerID":   winnerID,
		}).Error
}

func (r *matchRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("MatchID = ?", id).Delete(&model.Match{})
	return res.RowsAffected, res.Error
}

func (r *matchRepository) VenueBooked(ctx context.Context, eventID uint, date model.Date, slot string, venueID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("EventID = ? AND MatchDate = ? AND Slot = ? AND VenueID = ?", eventID, date, slot, venueID).
		Count(&count).Error
	return count > 0, err
}

func (r *matchRepository) TeamBooked(ctx context.Context, eventID uint, date model.Date, slot string, teamID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("EventID = ? AND MatchDate = ? AND Slot = ?", eventID, date, slot).
		Where("(Team1ID = ? OR Team2ID = ?)", teamID, teamID).
		Count(&count).Error
	return count > 0, err
}

func (r *matchRepository) WithConnection(ctx context.Context, fn func(ctx context.Context, repo MatchRepository) error) error {
	return db.Acquire(ctx, r.db, func(conn *gorm.DB) error {
		return fn(ctx, &matchRepository{db: conn})
	})
}

func (r *matchRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MatchRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &matchRepository{db: tx})
	})
}
