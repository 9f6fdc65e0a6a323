package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"cims/internal/auth"
	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
	"cims/internal/util"
)

// Deletion branches reported in DeleteOutcome.Branch.
const (
	BranchFullDelete  = "full_delete"
	BranchGroupDetach = "group_detach"
)

var (
	errNameRequired    = apperrors.New(apperrors.KindBadRequest, "name is required")
	errNoUpdateFields  = apperrors.New(apperrors.KindBadRequest, "no update fields provided (name, email, dob)")
	errInvalidDOB      = apperrors.New(apperrors.KindBadRequest, "invalid date format for dob, use YYYY-MM-DD")
	errGroupListDenied = apperrors.New(apperrors.KindForbidden, "insufficient privileges to view group members")
	errMissingMemberID = apperrors.New(apperrors.KindInternal, "member ID was not generated")

	// errMemberVanished rolls back a full deletion whose member row disappeared mid-flight.
	errMemberVanished = errors.New("member row vanished during deletion")
	// errMappingsAppeared rolls back a full deletion when a mapping was added after the branch was chosen.
	errMappingsAppeared = errors.New("group mapping added during deletion")
)

// NewMember is the input of AddMember.
type NewMember struct {
	Name        string
	Email       util.Optional[string]
	DateOfBirth util.Optional[string]
	Role        util.Optional[string]
}

// CreatedMember is the result of AddMember: the stored member row and the
// role written to its credential.
type CreatedMember struct {
	model.Member
	Role string
}

// MemberUpdate is a partial update; only fields with IsSet are written.
// An empty email or dob clears the column.
type MemberUpdate struct {
	Name        util.Optional[string]
	Email       util.Optional[string]
	DateOfBirth util.Optional[string]
}

// DeleteOutcome describes what DeleteMember did. Counts are only present for
// the branch that produced them.
type DeleteOutcome struct {
	MemberID           uint   `json:"member_id"`
	Branch             string `json:"branch"`
	Message            string `json:"message"`
	DeletedFromLogin   *int64 `json:"deleted_from_login,omitempty"`
	DeletedFromMembers *int64 `json:"deleted_from_members,omitempty"`
	DeletedFromMapping *int64 `json:"deleted_from_mapping_for_this_group,omitempty"`
}

// MemberSettings are the deployment values the member operations depend on.
type MemberSettings struct {
	DefaultPassword string
	HomeGroupID     string
	ListPolicy      auth.Policy
}

// MemberService manages members, their credentials and home-group mappings.
type MemberService interface {
	AddMember(ctx context.Context, actor auth.Actor, in NewMember) (*CreatedMember, error)
	GetOwnProfile(ctx context.Context, callerID uint) (*model.Member, error)
	GetProfile(ctx context.Context, actor auth.Actor, memberID uint) (*model.Member, error)
	UpdateMember(ctx context.Context, actor auth.Actor, memberID uint, in MemberUpdate) (*model.Member, error)
	DeleteMember(ctx context.Context, actor auth.Actor, memberID uint) (*DeleteOutcome, error)
	ListGroupMembers(ctx context.Context, actor auth.Actor) ([]model.Member, error)
}

type memberService struct {
	repo     repository.MemberRepository
	settings MemberSettings
}

// NewMemberService creates a member service.
func NewMemberService(repo repository.MemberRepository, settings MemberSettings) MemberService {
	if settings.ListPolicy == nil {
		settings.ListPolicy = auth.AnyAuthenticated{}
	}
	return &memberService{repo: repo, settings: settings}
}

// AddMember creates the member row and its credential in one transaction.
func (s *memberService) AddMember(ctx context.Context, actor auth.Actor, in NewMember) (*CreatedMember, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errNameRequired
	}

	member := &model.Member{Name: name}
	if email := strings.TrimSpace(in.Email.Val); in.Email.IsSet && email != "" {
		member.Email = &email
	}
	if raw := strings.TrimSpace(in.DateOfBirth.Val); in.DateOfBirth.IsSet && raw != "" {
		dob, err := model.ParseDate(raw)
		if err != nil {
			return nil, errInvalidDOB
		}
		member.DateOfBirth = &dob
	}
	credential := &model.Credential{Role: strings.TrimSpace(in.Role.UnwrapOr(model.RoleUser))}
	if credential.Role == "" {
		credential.Role = model.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.settings.DefaultPassword), bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "hash default password", err)
	}
	credential.PasswordHash = string(hash)

	err = s.repo.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		return conn.WithTransaction(ctx, func(ctx context.Context, tx repository.MemberRepository) error {
			if err := tx.Create(ctx, member); err != nil {
				return err
			}
			if member.ID == 0 {
				return errMissingMemberID
			}
			credential.MemberID = member.ID
			return tx.CreateCredential(ctx, credential)
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "create member", "actor_id", actor.MemberID, "error", err)
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "member created", "member_id", member.ID, "role", credential.Role, "actor_id", actor.MemberID)
	return &CreatedMember{Member: *member, Role: credential.Role}, nil
}

func (s *memberService) GetOwnProfile(ctx context.Context, callerID uint) (*model.Member, error) {
	member, err := s.findMember(ctx, callerID)
	if errors.Is(err, apperrors.ErrMemberNotFound) {
		slog.WarnContext(ctx, "authenticated member has no profile row", "member_id", callerID)
	}
	return member, err
}

func (s *memberService) GetProfile(ctx context.Context, actor auth.Actor, memberID uint) (*model.Member, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminRequired
	}
	return s.findMember(ctx, memberID)
}

func (s *memberService) findMember(ctx context.Context, id uint) (*model.Member, error) {
	var member *model.Member
	err := s.repo.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		var err error
		member, err = conn.FindByID(ctx, id)
		return err
	})
	if repository.IsNotFound(err) {
		return nil, apperrors.ErrMemberNotFound
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return member, nil
}

// UpdateMember writes only the supplied columns and returns the row as stored.
func (s *memberService) UpdateMember(ctx context.Context, actor auth.Actor, memberID uint, in MemberUpdate) (*model.Member, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminRequired
	}
	columns, err := updateColumns(in)
	if err != nil {
		return nil, err
	}

	var member *model.Member
	err = s.repo.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		affected, err := conn.UpdateColumns(ctx, memberID, columns)
		if err != nil {
			return err
		}
		// MySQL reports changed rows, so an update to identical values affects zero.
		if affected == 0 {
			found, err := conn.Exists(ctx, memberID)
			if err != nil {
				return err
			}
			if !found {
				return apperrors.ErrMemberNotFound
			}
		}
		member, err = conn.FindByID(ctx, memberID)
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrMemberNotFound) {
			slog.ErrorContext(ctx, "update member", "member_id", memberID, "actor_id", actor.MemberID, "error", err)
		}
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "member updated", "member_id", memberID, "actor_id", actor.MemberID)
	return member, nil
}

func updateColumns(in MemberUpdate) (map[string]interface{}, error) {
	if !in.Name.IsSet && !in.Email.IsSet && !in.DateOfBirth.IsSet {
		return nil, errNoUpdateFields
	}

	columns := make(map[string]interface{}, 3)
	if in.Name.IsSet {
		name := strings.TrimSpace(in.Name.Val)
		if name == "" {
			return nil, errNameRequired
		}
		columns["UserName"] = name
	}
	if in.Email.IsSet {
		if email := strings.TrimSpace(in.Email.Val); email != "" {
			columns["emailID"] = email
		} else {
			columns["emailID"] = nil
		}
	}
	if in.DateOfBirth.IsSet {
		if raw := strings.TrimSpace(in.DateOfBirth.Val); raw != "" {
			dob, err := model.ParseDate(raw)
			if err != nil {
				return nil, errInvalidDOB
			}
			columns["DoB"] = dob
		} else {
			columns["DoB"] = nil
		}
	}
	return columns, nil
}

// DeleteMember fully deletes a member that belongs to no group. A member that
// still has mappings is only detached from the home group.
func (s *memberService) DeleteMember(ctx context.Context, actor auth.Actor, memberID uint) (*DeleteOutcome, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrAdminRequired
	}

	var outcome *DeleteOutcome
	err := s.repo.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		found, err := conn.Exists(ctx, memberID)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.ErrMemberNotFound
		}

		mappings, err := conn.CountMappings(ctx, memberID)
		if err != nil {
			return err
		}
		if mappings == 0 {
			outcome, err = s.deleteFully(ctx, conn, memberID)
			if !errors.Is(err, errMappingsAppeared) {
				return err
			}
			slog.WarnContext(ctx, "member gained a group mapping during deletion", "member_id", memberID)
		}
		outcome, err = s.detachFromHomeGroup(ctx, conn, memberID)
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrMemberNotFound) {
			slog.ErrorContext(ctx, "delete member", "member_id", memberID, "actor_id", actor.MemberID, "error", err)
		}
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "member delete processed",
		"member_id", memberID,
		"branch", outcome.Branch,
		"group_id", s.settings.HomeGroupID,
		"actor_id", actor.MemberID,
	)
	return outcome, nil
}

func (s *memberService) deleteFully(ctx context.Context, conn repository.MemberRepository, memberID uint) (*DeleteOutcome, error) {
	var fromLogin, fromMembers int64
	err := conn.WithTransaction(ctx, func(ctx context.Context, tx repository.MemberRepository) error {
		mappings, err := tx.LockMappings(ctx, memberID)
		if err != nil {
			return err
		}
		if mappings > 0 {
			return errMappingsAppeared
		}
		if fromLogin, err = tx.DeleteCredential(ctx, memberID); err != nil {
			return err
		}
		if fromMembers, err = tx.Delete(ctx, memberID); err != nil {
			return err
		}
		if fromMembers == 0 {
			return errMemberVanished
		}
		return nil
	})

	outcome := &DeleteOutcome{MemberID: memberID, Branch: BranchFullDelete}
	switch {
	case errors.Is(err, errMemberVanished):
		slog.WarnContext(ctx, "member disappeared during deletion", "member_id", memberID)
		var zero int64
		outcome.DeletedFromLogin = &zero
		outcome.DeletedFromMembers = &zero
		outcome.Message = fmt.Sprintf("Member %d not found in members table during deletion (unexpected).", memberID)
		return outcome, nil
	case err != nil:
		return nil, err
	}

	outcome.DeletedFromLogin = &fromLogin
	outcome.DeletedFromMembers = &fromMembers
	outcome.Message = fmt.Sprintf("Member %d deleted successfully from members and Login tables.", memberID)
	return outcome, nil
}

func (s *memberService) detachFromHomeGroup(ctx context.Context, conn repository.MemberRepository, memberID uint) (*DeleteOutcome, error) {
	group := s.settings.HomeGroupID

	var removed int64
	err := conn.WithTransaction(ctx, func(ctx context.Context, tx repository.MemberRepository) error {
		var err error
		removed, err = tx.DeleteMapping(ctx, memberID, group)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome := &DeleteOutcome{MemberID: memberID, Branch: BranchGroupDetach, DeletedFromMapping: &removed}
	if removed > 0 {
		outcome.Message = fmt.Sprintf("Removed association for Member %d with Group %s. Member NOT deleted from system.", memberID, group)
	} else {
		outcome.Message = fmt.Sprintf("Member %d was not associated with Group %s. No mapping deleted.", memberID, group)
	}
	return outcome, nil
}

// ListGroupMembers returns the home group's members ordered by name.
func (s *memberService) ListGroupMembers(ctx context.Context, actor auth.Actor) ([]model.Member, error) {
	if !s.settings.ListPolicy.Allow(actor) {
		return nil, errGroupListDenied
	}

	var members []model.Member
	err := s.repo.WithConnection(ctx, func(ctx context.Context, conn repository.MemberRepository) error {
		var err error
		members, err = conn.ListByGroup(ctx, s.settings.HomeGroupID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "list group members", "group_id", s.settings.HomeGroupID, "error", err)
		return nil, db.Classify(err)
	}
	return members, nil
}
