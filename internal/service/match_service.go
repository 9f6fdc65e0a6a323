package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cims/internal/auth"
	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
	"cims/internal/util"
)

var (
	errSchedulerRequired = apperrors.New(apperrors.KindForbidden, "admin or organizer privileges required")
	errSameTeam          = apperrors.New(apperrors.KindBadRequest, "team cannot play against itself")
	errInvalidMatchDate  = apperrors.New(apperrors.KindBadRequest, "invalid match date, use YYYY-MM-DD")
	errSlotRequired      = apperrors.New(apperrors.KindBadRequest, "slot is required")
	errScorerRequired    = apperrors.New(apperrors.KindForbidden, "admin or referee privileges required")
	errNegativeScore     = apperrors.New(apperrors.KindBadRequest, "scores cannot be negative")
	errWinnerNotPlaying  = apperrors.New(apperrors.KindBadRequest, "winner must be one of the participating teams")
	errInvalidDateFilter = apperrors.New(apperrors.KindBadRequest, "invalid date filter, use YYYY-MM-DD")
)

// MatchRequest describes a fixture to schedule.
type MatchRequest struct {
	EventID   uint
	Team1ID   uint
	Team2ID   uint
	MatchDate string
	Slot      string
	VenueID   uint
}

// MatchQuery filters ListMatches. Zero IDs and an empty date are ignored.
type MatchQuery struct {
	EventID uint
	TeamID  uint
	VenueID uint
	Date    string
}

// ScoreRequest records a result. An unset WinnerID records no winner.
type ScoreRequest struct {
	Team1Score int
	Team2Score int
	WinnerID   util.Optional[uint]
}

// MatchService schedules, scores and cancels matches.
type MatchService interface {
	ScheduleMatch(ctx context.Context, actor auth.Actor, in MatchRequest) (*model.Match, error)
	ListMatches(ctx context.Context, q MatchQuery) ([]model.Match, error)
	GetMatch(ctx context.Context, matchID uint) (*model.Match, error)
	UpdateScore(ctx context.Context, actor auth.Actor, matchID uint, in ScoreRequest) (*model.Match, error)
	DeleteMatch(ctx context.Context, actor auth.Actor, matchID uint) error
}

type matchService struct {
	matches repository.MatchRepository
	checks  Checks
}

// NewMatchService creates a match service.
func NewMatchService(matches repository.MatchRepository, checks Checks) MatchService {
	return &matchService{matches: matches, checks: checks}
}

// ScheduleMatch rejects a venue already booked for the slot and a team that
// already plays in it.
func (s *matchService) ScheduleMatch(ctx context.Context, actor auth.Actor, in MatchRequest) (*model.Match, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleOrganizer) {
		return nil, errSchedulerRequired
	}
	if in.Team1ID == in.Team2ID {
		return nil, errSameTeam
	}
	date, err := model.ParseDate(in.MatchDate)
	if err != nil {
		return nil, errInvalidMatchDate
	}
	slot := strings.TrimSpace(in.Slot)
	if slot == "" {
		return nil, errSlotRequired
	}

	if ok, reason := s.checks.EventValid(ctx, in.EventID); !ok {
		return nil, predicateError(apperrors.KindBadRequest, reason)
	}
	for _, teamID := range []uint{in.Team1ID, in.Team2ID} {
		if !s.checks.TeamExists(ctx, teamID) {
			return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("team %d not found", teamID))
		}
	}
	if !s.checks.VenueExists(ctx, in.VenueID) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("venue %d not found", in.VenueID))
	}

	match := &model.Match{
		EventID:   in.EventID,
		Team1ID:   in.Team1ID,
		Team2ID:   in.Team2ID,
		MatchDate: date,
		Slot:      slot,
		VenueID:   in.VenueID,
	}
	err = s.matches.WithConnection(ctx, func(ctx context.Context, conn repository.MatchRepository) error {
		booked, err := conn.VenueBooked(ctx, in.EventID, date, slot, in.VenueID)
		if err != nil {
			return err
		}
		if booked {
			return apperrors.New(apperrors.KindConflict,
				fmt.Sprintf("venue %d is already booked for slot %s on %s", in.VenueID, slot, date))
		}
		for _, teamID := range []uint{in.Team1ID, in.Team2ID} {
			booked, err := conn.TeamBooked(ctx, in.EventID, date, slot, teamID)
			if err != nil {
				return err
			}
			if booked {
				return apperrors.New(apperrors.KindConflict,
					fmt.Sprintf("team %d already has a match in slot %s on %s", teamID, slot, date))
			}
		}
		return conn.Create(ctx, match)
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindConflict {
			slog.ErrorContext(ctx, "schedule match", "event_id", in.EventID, "error", err)
		}
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "match scheduled", "match_id", match.ID, "event_id", in.EventID, "actor_id", actor.MemberID)
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, q MatchQuery) ([]model.Match, error) {
	filter := repository.MatchFilter{EventID: q.EventID, TeamID: q.TeamID, VenueID: q.VenueID}
	if raw := strings.TrimSpace(q.Date); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			return nil, errInvalidDateFilter
		}
		filter.Date = &date
	}

	var matches []model.Match
	err := s.matches.WithConnection(ctx, func(ctx context.Context, conn repository.MatchRepository) error {
		var err error
		matches, err = conn.List(ctx, filter)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "list matches", "error", err)
		return nil, db.Classify(err)
	}
	if matches == nil {
		matches = []model.Match{}
	}
	return matches, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID uint) (*model.Match, error) {
	var match *model.Match
	err := s.matches.WithConnection(ctx, func(ctx context.Context, conn repository.MatchRepository) error {
		var err error
		match, err = conn.FindByID(ctx, matchID)
		return err
	})
	if repository.IsNotFound(err) {
		return nil, matchNotFound(matchID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "get match", "match_id", matchID, "error", err)
		return nil, db.Classify(err)
	}
	return match, nil
}

// UpdateScore overwrites both scores and the winner. The winner, when given,
// must be one of the two teams.
func (s *matchService) UpdateScore(ctx context.Context, actor auth.Actor, matchID uint, in ScoreRequest) (*model.Match, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleReferee) {
		return nil, errScorerRequired
	}
	if in.Team1Score < 0 || in.Team2Score < 0 {
		return nil, errNegativeScore
	}
	winner := in.WinnerID.Ptr()

	var match *model.Match
	err := s.matches.WithConnection(ctx, func(ctx context.Context, conn repository.MatchRepository) error {
		return conn.WithTransaction(ctx, func(ctx context.Context, tx repository.MatchRepository) error {
			var err error
			match, err = tx.FindByID(ctx, matchID)
			if repository.IsNotFound(err) {
				return matchNotFound(matchID)
			}
			if err != nil {
				return err
			}
			if winner != nil && *winner != match.Team1ID && *winner != match.Team2ID {
				return errWinnerNotPlaying
			}
			if err := tx.UpdateScore(ctx, matchID, in.Team1Score, in.Team2Score, winner); err != nil {
				return err
			}
			match.Team1Score, match.Team2Score, match.WinnerID = in.Team1Score, in.Team2Score, winner
			return nil
		})
	})
	if err != nil {
		if kind := apperrors.KindOf(err); kind != apperrors.KindNotFound && kind != apperrors.KindBadRequest {
			slog.ErrorContext(ctx, "update match score", "match_id", matchID, "error", err)
		}
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "match score updated",
		"match_id", matchID, "team1_score", in.Team1Score, "team2_score", in.Team2Score, "actor_id", actor.MemberID)
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, actor auth.Actor, matchID uint) error {
	if !actor.HasRole(model.RoleAdmin, model.RoleOrganizer) {
		return errSchedulerRequired
	}

	var removed int64
	err := s.matches.WithConnection(ctx, func(ctx context.Context, conn repository.MatchRepository) error {
		var err error
		removed, err = conn.Delete(ctx, matchID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "delete match", "match_id", matchID, "error", err)
		return db.Classify(err)
	}
	if removed == 0 {
		return matchNotFound(matchID)
	}

	slog.InfoContext(ctx, "match deleted", "match_id", matchID, "actor_id", actor.MemberID)
	return nil
}

func matchNotFound(id uint) error {
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("match %d not found", id))
}
