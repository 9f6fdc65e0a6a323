package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"cims/internal/auth"
	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
	"cims/internal/util"
)

var errCoachRequired = apperrors.New(apperrors.KindForbidden, "admin or assigned coach privileges required")

// PlayerRequest registers a member on a team for an event.
type PlayerRequest struct {
	MemberID uint
	Position util.Optional[string]
}

// RosterService manages the players a team fields for an event.
type RosterService interface {
	RegisterPlayer(ctx context.Context, actor auth.Actor, teamID, eventID uint, in PlayerRequest) (*model.Player, error)
	ListPlayers(ctx context.Context, teamID, eventID uint) ([]model.Player, error)
	RemovePlayer(ctx context.Context, actor auth.Actor, teamID, eventID, memberID uint) error
}

type rosterService struct {
	teams      repository.TeamRepository
	checks     Checks
	maxPlayers int
}

// NewRosterService creates a roster service. maxPlayers caps a team's
// registrations per event; zero disables the cap.
func NewRosterService(teams repository.TeamRepository, checks Checks, maxPlayers int) RosterService {
	return &rosterService{teams: teams, checks: checks, maxPlayers: maxPlayers}
}

func (s *rosterService) RegisterPlayer(ctx context.Context, actor auth.Actor, teamID, eventID uint, in PlayerRequest) (*model.Player, error) {
	team, err := s.team(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !s.mayManage(ctx, actor, team) {
		return nil, errCoachRequired
	}
	if ok, reason := s.checks.EventValid(ctx, eventID); !ok {
		return nil, predicateError(apperrors.KindBadRequest, reason)
	}
	if !s.checks.MemberExists(ctx, in.MemberID) {
		return nil, apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("member %d not found", in.MemberID))
	}

	player := &model.Player{MemberID: in.MemberID, TeamID: teamID, EventID: eventID}
	if pos := strings.TrimSpace(in.Position.Val); in.Position.IsSet && pos != "" {
		player.Position = &pos
	}

	err = s.teams.WithConnection(ctx, func(ctx context.Context, conn repository.TeamRepository) error {
		return conn.WithTransaction(ctx, func(ctx context.Context, tx repository.TeamRepository) error {
			if s.maxPlayers > 0 {
				count, err := tx.CountPlayers(ctx, teamID, eventID)
				if err != nil {
					return err
				}
				if count >= int64(s.maxPlayers) {
					return apperrors.New(apperrors.KindConflict,
						fmt.Sprintf("team %d already has %d players registered for event %d", teamID, count, eventID))
				}
			}
			return tx.CreatePlayer(ctx, player)
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.Wrap(apperrors.KindConflict,
			fmt.Sprintf("member %d is already registered for event %d", in.MemberID, eventID), err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "register player", "team_id", teamID, "event_id", eventID, "member_id", in.MemberID, "error", err)
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "player registered",
		"player_id", player.ID, "team_id", teamID, "event_id", eventID, "member_id", in.MemberID, "actor_id", actor.MemberID)
	return player, nil
}

// ListPlayers returns the team's roster for an event, past or upcoming.
func (s *rosterService) ListPlayers(ctx context.Context, teamID, eventID uint) ([]model.Player, error) {
	if _, err := s.team(ctx, teamID); err != nil {
		return nil, err
	}
	if !s.checks.EventExists(ctx, eventID) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("event %d not found", eventID))
	}

	var players []model.Player
	err := s.teams.WithConnection(ctx, func(ctx context.Context, conn repository.TeamRepository) error {
		var err error
		players, err = conn.ListPlayers(ctx, teamID, eventID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "list players", "team_id", teamID, "event_id", eventID, "error", err)
		return nil, db.Classify(err)
	}
	if players == nil {
		players = []model.Player{}
	}
	return players, nil
}

// RemovePlayer takes a member off the team's roster for an event.
func (s *rosterService) RemovePlayer(ctx context.Context, actor auth.Actor, teamID, eventID, memberID uint) error {
	team, err := s.team(ctx, teamID)
	if err != nil {
		return err
	}
	if !s.mayManage(ctx, actor, team) {
		return errCoachRequired
	}

	var removed int64
	err = s.teams.WithConnection(ctx, func(ctx context.Context, conn repository.TeamRepository) error {
		var err error
		removed, err = conn.DeletePlayer(ctx, teamID, eventID, memberID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "remove player", "team_id", teamID, "event_id", eventID, "member_id", memberID, "error", err)
		return db.Classify(err)
	}
	if removed == 0 {
		return apperrors.New(apperrors.KindNotFound,
			fmt.Sprintf("member %d is not a player on team %d for event %d", memberID, teamID, eventID))
	}

	slog.InfoContext(ctx, "player removed",
		"team_id", teamID, "event_id", eventID, "member_id", memberID, "actor_id", actor.MemberID)
	return nil
}

func (s *rosterService) team(ctx context.Context, teamID uint) (*model.Team, error) {
	var team *model.Team
	err := s.teams.WithConnection(ctx, func(ctx context.Context, conn repository.TeamRepository) error {
		var err error
		team, err = conn.FindByID(ctx, teamID)
		return err
	})
	if repository.IsNotFound(err) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("team %d not found", teamID))
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return team, nil
}

// mayManage admits admins and the team's own coach. The coach role is read
// from the credential row rather than trusted from the token.
func (s *rosterService) mayManage(ctx context.Context, actor auth.Actor, team *model.Team) bool {
	if actor.IsAdmin() {
		return true
	}
	return team.CoachID == actor.MemberID && s.checks.MemberHasRole(ctx, actor.MemberID, model.RoleCoach)
}

// predicateError turns a negative predicate into an error. Storage failures
// hidden behind the predicate keep their database kind.
func predicateError(kind apperrors.Kind, reason string) error {
	switch reason {
	case ReasonDatabaseError:
		return apperrors.New(apperrors.KindDatabase, reason)
	case apperrors.ErrDatabaseUnavailable.Message:
		return apperrors.ErrDatabaseUnavailable
	}
	return apperrors.New(kind, reason)
}
