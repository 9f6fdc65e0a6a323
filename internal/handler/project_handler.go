package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cims/internal/service"
	"cims/internal/util"
)

// ProjectHandler serves the roster, equipment and match endpoints.
type ProjectHandler struct {
	roster    service.RosterService
	equipment service.EquipmentService
	matches   service.MatchService
}

// NewProjectHandler creates a project handler.
func NewProjectHandler(roster service.RosterService, equipment service.EquipmentService, matches service.MatchService) *ProjectHandler {
	return &ProjectHandler{roster: roster, equipment: equipment, matches: matches}
}

// RegisterPlayerRequest is the body of the player registration endpoint.
type RegisterPlayerRequest struct {
	MemberID uint                  `json:"member_id" validate:"required"`
	Position util.Optional[string] `json:"position" swaggertype:"string" example:"Bowler"`
}

// IssueEquipmentRequest lends equipment to a member.
type IssueEquipmentRequest struct {
	EquipmentID uint `json:"equipment_id" validate:"required"`
	IssuedTo    uint `json:"issued_to" validate:"required"`
}

// ReturnEquipmentRequest optionally regrades the returned item.
type ReturnEquipmentRequest struct {
	Condition util.Optional[string] `json:"condition" swaggertype:"string" enums:"Good,Fair,Poor"`
}

// ScheduleMatchRequest describes a fixture.
type ScheduleMatchRequest struct {
	EventID   uint   `json:"event_id" validate:"required"`
	Team1ID   uint   `json:"team1_id" validate:"required"`
	Team2ID   uint   `json:"team2_id" validate:"required"`
	MatchDate string `json:"match_date" validate:"required" example:"2025-01-15"`
	Slot      string `json:"slot" validate:"required" example:"morning"`
	VenueID   uint   `json:"venue_id" validate:"required"`
}

// UpdateScoreRequest records a match result. winner_id is omitted for a draw.
type UpdateScoreRequest struct {
	Team1Score *int                `json:"team1_score" validate:"required" example:"3"`
	Team2Score *int                `json:"team2_score" validate:"required" example:"1"`
	WinnerID   util.Optional[uint] `json:"winner_id" swaggertype:"integer"`
}

// RegisterPlayer godoc
// @Summary Register a member as a team player for an upcoming event
// @Tags teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param team_id path int true "Team ID"
// @Param event_id path int true "Event ID"
// @Param request body RegisterPlayerRequest true "Player"
// @Success 201 {object} model.Player
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /teams/{team_id}/events/{event_id}/players [post]
func (h *ProjectHandler) RegisterPlayer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	teamID, err := pathID(c, "team_id")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return err
	}
	var req RegisterPlayerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	player, err := h.roster.RegisterPlayer(c.Request().Context(), actor, teamID, eventID, service.PlayerRequest{
		MemberID: req.MemberID,
		Position: req.Position,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, player)
}

// IssueEquipment godoc
// @Summary Issue equipment to a member
// @Tags equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IssueEquipmentRequest true "Issue"
// @Success 201 {object} model.EquipmentLog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /equipment/issues [post]
func (h *ProjectHandler) IssueEquipment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req IssueEquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	log, err := h.equipment.IssueEquipment(c.Request().Context(), actor, service.IssueRequest{
		EquipmentID: req.EquipmentID,
		MemberID:    req.IssuedTo,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, log)
}

// ReturnEquipment godoc
// @Summary Return issued equipment
// @Tags equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log_id path int true "Equipment log ID"
// @Param request body ReturnEquipmentRequest false "Condition on return"
// @Success 200 {object} model.EquipmentLog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /equipment/issues/{log_id}/return [put]
func (h *ProjectHandler) ReturnEquipment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	logID, err := pathID(c, "log_id")
	if err != nil {
		return err
	}
	var req ReturnEquipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	log, err := h.equipment.ReturnEquipment(c.Request().Context(), actor, logID, service.ReturnRequest{Condition: req.Condition})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, log)
}

// ScheduleMatch godoc
// @Summary Schedule a match within an upcoming event
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ScheduleMatchRequest true "Match"
// @Success 201 {object} model.Match
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /matches [post]
func (h *ProjectHandler) ScheduleMatch(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req ScheduleMatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	match, err := h.matches.ScheduleMatch(c.Request().Context(), actor, service.MatchRequest{
		EventID:   req.EventID,
		Team1ID:   req.Team1ID,
		Team2ID:   req.Team2ID,
		MatchDate: req.MatchDate,
		Slot:      req.Slot,
		VenueID:   req.VenueID,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, match)
}

// ListPlayers godoc
// @Summary List a team's players for an event
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param team_id path int true "Team ID"
// @Param event_id path int true "Event ID"
// @Success 200 {array} model.Player
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /teams/{team_id}/events/{event_id}/players [get]
func (h *ProjectHandler) ListPlayers(c echo.Context) error {
	if _, err := actorFrom(c); err != nil {
		return err
	}
	teamID, err := pathID(c, "team_id")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return err
	}

	players, err := h.roster.ListPlayers(c.Request().Context(), teamID, eventID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, players)
}

// RemovePlayer godoc
// @Summary Remove a player from a team's roster for an event
// @Tags teams
// @Produce json
// @Security BearerAuth
// @Param team_id path int true "Team ID"
// @Param event_id path int true "Event ID"
// @Param member_id path int true "Member ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /teams/{team_id}/events/{event_id}/players/{member_id} [delete]
func (h *ProjectHandler) RemovePlayer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	teamID, err := pathID(c, "team_id")
	if err != nil {
		return err
	}
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return err
	}
	memberID, err := pathID(c, "member_id")
	if err != nil {
		return err
	}

	if err := h.roster.RemovePlayer(c.Request().Context(), actor, teamID, eventID, memberID); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEquipmentLogs godoc
// @Summary List equipment issue history
// @Tags equipment
// @Produce json
// @Security BearerAuth
// @Param equipment_id query int false "Equipment ID"
// @Param member_id query int false "Borrower member ID"
// @Param issued query bool false "Only items not yet returned"
// @Success 200 {array} model.EquipmentLog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /equipment/logs [get]
func (h *ProjectHandler) ListEquipmentLogs(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var q service.LogQuery
	if q.EquipmentID, err = queryID(c, "equipment_id"); err != nil {
		return err
	}
	if q.MemberID, err = queryID(c, "member_id"); err != nil {
		return err
	}
	if raw := c.QueryParam("issued"); raw != "" {
		if q.OutstandingOnly, err = strconv.ParseBool(raw); err != nil {
			return badRequest("invalid issued filter, use true or false")
		}
	}

	logs, err := h.equipment.ListLogs(c.Request().Context(), actor, q)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, logs)
}

// ListMatches godoc
// @Summary List matches
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param event_id query int false "Event ID"
// @Param team_id query int false "Team ID, either side"
// @Param venue_id query int false "Venue ID"
// @Param date query string false "Match date (YYYY-MM-DD)"
// @Success 200 {array} model.Match
// @Failure 400 {object} errors.ErrorResponse
// @Router /matches [get]
func (h *ProjectHandler) ListMatches(c echo.Context) error {
	if _, err := actorFrom(c); err != nil {
		return err
	}
	q := service.MatchQuery{Date: c.QueryParam("date")}
	var err error
	if q.EventID, err = queryID(c, "event_id"); err != nil {
		return err
	}
	if q.TeamID, err = queryID(c, "team_id"); err != nil {
		return err
	}
	if q.VenueID, err = queryID(c, "venue_id"); err != nil {
		return err
	}

	matches, err := h.matches.ListMatches(c.Request().Context(), q)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, matches)
}

// GetMatch godoc
// @Summary Read one match
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param match_id path int true "Match ID"
// @Success 200 {object} model.Match
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /matches/{match_id} [get]
func (h *ProjectHandler) GetMatch(c echo.Context) error {
	if _, err := actorFrom(c); err != nil {
		return err
	}
	matchID, err := pathID(c, "match_id")
	if err != nil {
		return err
	}

	match, err := h.matches.GetMatch(c.Request().Context(), matchID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, match)
}

// UpdateMatchScore godoc
// @Summary Record a match result
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param match_id path int true "Match ID"
// @Param request body UpdateScoreRequest true "Result"
// @Success 200 {object} model.Match
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /matches/{match_id}/score [put]
func (h *ProjectHandler) UpdateMatchScore(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	matchID, err := pathID(c, "match_id")
	if err != nil {
		return err
	}
	var req UpdateScoreRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	match, err := h.matches.UpdateScore(c.Request().Context(), actor, matchID, service.ScoreRequest{
		Team1Score: *req.Team1Score,
		Team2Score: *req.Team2Score,
		WinnerID:   req.WinnerID,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, match)
}

// DeleteMatch godoc
// @Summary Cancel a match
// @Tags matches
// @Security BearerAuth
// @Param match_id path int true "Match ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /matches/{match_id} [delete]
func (h *ProjectHandler) DeleteMatch(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	matchID, err := pathID(c, "match_id")
	if err != nil {
		return err
	}

	if err := h.matches.DeleteMatch(c.Request().Context(), actor, matchID); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
