package repository

import (
	"context"

	"gorm.io/gorm"

	"cims/internal/db"
	"cims/internal/model"
)

// EventRepository reads events and venues from the Project database.
type EventRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Event, error)
	Exists(ctx context.Context, id uint) (bool, error)
	VenueExists(ctx context.Context, id uint) (bool, error)
	WithConnection(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("EventID = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, r.db, &model.Event{}, "EventID", id)
}

func (r *eventRepository) VenueExists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, r.db, &model.Venue{}, "VenueID", id)
}

func (r *eventRepository) WithConnection(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error {
	return db.Acquire(ctx, r.db, func(conn *gorm.DB) error {
		return fn(ctx, &eventRepository{db: conn})
	})
}
