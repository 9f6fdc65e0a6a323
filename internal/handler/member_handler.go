package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"cims/internal/service"
	"cims/internal/util"
)

// MemberHandler serves member directory endpoints.
type MemberHandler struct {
	svc service.MemberService
}

// NewMemberHandler creates a member handler.
func NewMemberHandler(svc service.MemberService) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// AddMemberRequest is the body of POST /admin/members.
type AddMemberRequest struct {
	Name        string                `json:"name" validate:"required" example:"Asha Rao"`
	Email       util.Optional[string] `json:"email" swaggertype:"string" example:"asha@example.com"`
	DateOfBirth util.Optional[string] `json:"dob" swaggertype:"string" example:"2001-08-15"`
	Role        util.Optional[string] `json:"role" swaggertype:"string" example:"user"`
}

// UpdateMemberRequest is a partial update; omitted fields are left unchanged.
type UpdateMemberRequest struct {
	Name        util.Optional[string] `json:"name" swaggertype:"string"`
	Email       util.Optional[string] `json:"email" swaggertype:"string"`
	DateOfBirth util.Optional[string] `json:"dob" swaggertype:"string"`
}

// MemberCreatedResponse is returned by AddMember.
type MemberCreatedResponse struct {
	Message  string `json:"message"`
	MemberID uint   `json:"member_id"`
	Role     string `json:"role"`
}

// AddMember godoc
// @Summary Create a member with a default credential
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddMemberRequest true "Member data"
// @Success 201 {object} MemberCreatedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /admin/members [post]
func (h *MemberHandler) AddMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req AddMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	created, err := h.svc.AddMember(c.Request().Context(), actor, service.NewMember{
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Role:        req.Role,
	})
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusCreated, MemberCreatedResponse{
		Message:  "member created with default credential",
		MemberID: created.ID,
		Role:     created.Role,
	})
}

// GetOwnProfile godoc
// @Summary Read the caller's own profile
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Member
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /profile/me [get]
func (h *MemberHandler) GetOwnProfile(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	member, err := h.svc.GetOwnProfile(c.Request().Context(), actor.MemberID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// GetProfile godoc
// @Summary Read any member's profile
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} model.Member
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/members/{id} [get]
func (h *MemberHandler) GetProfile(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	member, err := h.svc.GetProfile(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// UpdateMember godoc
// @Summary Update name, email or date of birth
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param request body UpdateMemberRequest true "Fields to change"
// @Success 200 {object} model.Member
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/members/{id} [put]
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	member, err := h.svc.UpdateMember(c.Request().Context(), actor, id, service.MemberUpdate{
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, member)
}

// DeleteMember godoc
// @Summary Delete a member or detach it from the home group
// @Description A member with no group mappings is deleted with its credential.
// @Description Otherwise only the home-group mapping is removed.
// @Tags members
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} service.DeleteOutcome
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/members/{id} [delete]
func (h *MemberHandler) DeleteMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	outcome, err := h.svc.DeleteMember(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, outcome)
}

// ListGroupMembers godoc
// @Summary List members of the home group
// @Tags members
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Member
// @Failure 403 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /members/my-group [get]
func (h *MemberHandler) ListGroupMembers(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	members, err := h.svc.ListGroupMembers(c.Request().Context(), actor)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, members)
}
