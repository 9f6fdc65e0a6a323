package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
)

// Reasons reported by the eligibility predicates.
const (
	ReasonEventStarted         = "cannot register for an event that has already started"
	ReasonEquipmentNotFound    = "equipment not found"
	ReasonEquipmentUnavailable = "equipment is not available for issue"
	ReasonEquipmentPoor        = "equipment is in poor condition and cannot be issued"
	ReasonDatabaseError        = "database error occurred"
)

// Checks are read-only existence and eligibility predicates. They never
// return an error: storage faults are logged and read as "no".
type Checks interface {
	MemberExists(ctx context.Context, id uint) bool
	TeamExists(ctx context.Context, id uint) bool
	VenueExists(ctx context.Context, id uint) bool
	EventExists(ctx context.Context, id uint) bool
	EventValid(ctx context.Context, id uint) (bool, string)
	EquipmentIssuable(ctx context.Context, id uint) (bool, string)
	MemberHasRole(ctx context.Context, id uint, roles ...string) bool
}

type checks struct {
	members   repository.MemberRepository
	teams     repository.TeamRepository
	events    repository.EventRepository
	equipment repository.EquipmentRepository
	loc       *time.Location
	now       func() time.Time
}

// NewChecks builds the predicates. "Today" is taken from now in loc.
func NewChecks(
	members repository.MemberRepository,
	teams repository.TeamRepository,
	events repository.EventRepository,
	equipment repository.EquipmentRepository,
	loc *time.Location,
	now func() time.Time,
) Checks {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &checks{
		members:   members,
		teams:     teams,
		events:    events,
		equipment: equipment,
		loc:       loc,
		now:       now,
	}
}

func (c *checks) MemberExists(ctx context.Context, id uint) bool {
	var found bool
	err := c.members.WithConnection(ctx, func(ctx context.Context, repo repository.MemberRepository) error {
		var err error
		found, err = repo.Exists(ctx, id)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "check member existence", "member_id", id, "error", err)
		return false
	}
	return found
}

func (c *checks) TeamExists(ctx context.Context, id uint) bool {
	var found bool
	err := c.teams.WithConnection(ctx, func(ctx context.Context, repo repository.TeamRepository) error {
		var err error
		found, err = repo.Exists(ctx, id)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "check team existence", "team_id", id, "error", err)
		return false
	}
	return found
}

func (c *checks) VenueExists(ctx context.Context, id uint) bool {
	var found bool
	err := c.events.WithConnection(ctx, func(ctx context.Context, repo repository.EventRepository) error {
		var err error
		found, err = repo.VenueExists(ctx, id)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "check venue existence", "venue_id", id, "error", err)
		return false
	}
	return found
}

func (c *checks) EventExists(ctx context.Context, id uint) bool {
	var found bool
	err := c.events.WithConnection(ctx, func(ctx context.Context, repo repository.EventRepository) error {
		var err error
		found, err = repo.Exists(ctx, id)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "check event existence", "event_id", id, "error", err)
		return false
	}
	return found
}

// EventValid accepts only events that start strictly after today.
func (c *checks) EventValid(ctx context.Context, id uint) (bool, string) {
	var event *model.Event
	err := c.events.WithConnection(ctx, func(ctx context.Context, repo repository.EventRepository) error {
		var err error
		event, err = repo.FindByID(ctx, id)
		return err
	})
	switch {
	case repository.IsNotFound(err):
		return false, fmt.Sprintf("event %d not found", id)
	case err != nil:
		slog.ErrorContext(ctx, "check event validity", "event_id", id, "error", err)
		return false, failureReason(err)
	}

	today := model.NewDate(c.now().In(c.loc))
	if !today.Before(event.StartDate) {
		return false, ReasonEventStarted
	}
	return true, ""
}

func (c *checks) EquipmentIssuable(ctx context.Context, id uint) (bool, string) {
	var item *model.Equipment
	err := c.equipment.WithConnection(ctx, func(ctx context.Context, repo repository.EquipmentRepository) error {
		var err error
		item, err = repo.FindByID(ctx, id)
		return err
	})
	switch {
	case repository.IsNotFound(err):
		return false, ReasonEquipmentNotFound
	case err != nil:
		slog.ErrorContext(ctx, "check equipment status", "equipment_id", id, "error", err)
		return false, failureReason(err)
	case !item.IsAvailable:
		return false, ReasonEquipmentUnavailable
	case item.Condition == model.LowestCondition():
		return false, ReasonEquipmentPoor
	}
	return true, ""
}

func (c *checks) MemberHasRole(ctx context.Context, id uint, roles ...string) bool {
	var credential *model.Credential
	err := c.members.WithConnection(ctx, func(ctx context.Context, repo repository.MemberRepository) error {
		var err error
		credential, err = repo.FindCredential(ctx, id)
		return err
	})
	if repository.IsNotFound(err) {
		return false
	}
	if err != nil {
		slog.ErrorContext(ctx, "check member role", "member_id", id, "error", err)
		return false
	}
	return slices.Contains(roles, credential.Role)
}

func failureReason(err error) string {
	if apperrors.KindOf(err) == apperrors.KindDatabaseUnavailable {
		return apperrors.ErrDatabaseUnavailable.Message
	}
	return ReasonDatabaseError
}
