package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cims/internal/auth"
	"cims/internal/db"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/repository"
	"cims/internal/util"
)

// BorrowerRoles may issue, return and borrow equipment.
var BorrowerRoles = []string{model.RoleAdmin, model.RoleEqManager, model.RoleCoach, model.RolePlayer, model.RoleOrganizer}

var (
	errBorrowDenied     = apperrors.New(apperrors.KindForbidden, "your role cannot issue or return equipment")
	errLogNotFound      = apperrors.New(apperrors.KindNotFound, "equipment log not found")
	errAlreadyReturned  = apperrors.New(apperrors.KindConflict, "equipment already returned")
	errInvalidCondition = apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("invalid condition, must be one of %v", model.Conditions))
	errLogViewDenied    = apperrors.New(apperrors.KindForbidden, "admin or equipment manager privileges required")
)

// IssueRequest lends one item to a member.
type IssueRequest struct {
	EquipmentID uint
	MemberID    uint
}

// ReturnRequest closes an issue; Condition optionally regrades the item.
type ReturnRequest struct {
	Condition util.Optional[string]
}

// LogQuery filters ListLogs. OutstandingOnly keeps unreturned issues.
type LogQuery struct {
	EquipmentID     uint
	MemberID        uint
	OutstandingOnly bool
}

// EquipmentService issues and returns equipment.
type EquipmentService interface {
	IssueEquipment(ctx context.Context, actor auth.Actor, in IssueRequest) (*model.EquipmentLog, error)
	ReturnEquipment(ctx context.Context, actor auth.Actor, logID uint, in ReturnRequest) (*model.EquipmentLog, error)
	ListLogs(ctx context.Context, actor auth.Actor, q LogQuery) ([]model.EquipmentLog, error)
}

type equipmentService struct {
	equipment repository.EquipmentRepository
	checks    Checks
	now       func() time.Time
}

// NewEquipmentService creates an equipment service.
func NewEquipmentService(equipment repository.EquipmentRepository, checks Checks, now func() time.Time) EquipmentService {
	if now == nil {
		now = time.Now
	}
	return &equipmentService{equipment: equipment, checks: checks, now: now}
}

// IssueEquipment logs the issue and marks the item unavailable in one
// transaction. Losing a race for the same item is a conflict.
func (s *equipmentService) IssueEquipment(ctx context.Context, actor auth.Actor, in IssueRequest) (*model.EquipmentLog, error) {
	if !actor.HasRole(BorrowerRoles...) {
		return nil, errBorrowDenied
	}
	if !s.checks.MemberExists(ctx, in.MemberID) {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("member %d not found", in.MemberID))
	}
	if !s.checks.MemberHasRole(ctx, in.MemberID, BorrowerRoles...) {
		return nil, apperrors.New(apperrors.KindBadRequest, fmt.Sprintf("member %d is not permitted to borrow equipment", in.MemberID))
	}
	if ok, reason := s.checks.EquipmentIssuable(ctx, in.EquipmentID); !ok {
		if reason == ReasonEquipmentNotFound {
			return nil, apperrors.New(apperrors.KindNotFound, reason)
		}
		return nil, predicateError(apperrors.KindConflict, reason)
	}

	log := &model.EquipmentLog{EquipmentID: in.EquipmentID, IssuedTo: in.MemberID, IssueDate: s.now()}
	err := s.equipment.WithConnection(ctx, func(ctx context.Context, conn repository.EquipmentRepository) error {
		return conn.WithTransaction(ctx, func(ctx context.Context, tx repository.EquipmentRepository) error {
			if err := tx.CreateLog(ctx, log); err != nil {
				return err
			}
			affected, err := tx.MarkUnavailable(ctx, in.EquipmentID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return apperrors.New(apperrors.KindConflict, ReasonEquipmentUnavailable)
			}
			return nil
		})
	})
	if err != nil {
		slog.ErrorContext(ctx, "issue equipment", "equipment_id", in.EquipmentID, "member_id", in.MemberID, "error", err)
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "equipment issued",
		"log_id", log.ID, "equipment_id", in.EquipmentID, "member_id", in.MemberID, "actor_id", actor.MemberID)
	return log, nil
}

// ReturnEquipment stamps the return date and makes the item available again.
func (s *equipmentService) ReturnEquipment(ctx context.Context, actor auth.Actor, logID uint, in ReturnRequest) (*model.EquipmentLog, error) {
	if !actor.HasRole(BorrowerRoles...) {
		return nil, errBorrowDenied
	}
	var condition *model.Condition
	if raw := strings.TrimSpace(in.Condition.Val); in.Condition.IsSet && raw != "" {
		c := model.Condition(raw)
		if !c.Valid() {
			return nil, errInvalidCondition
		}
		condition = &c
	}

	var log *model.EquipmentLog
	returnedAt := s.now()
	err := s.equipment.WithConnection(ctx, func(ctx context.Context, conn repository.EquipmentRepository) error {
		return conn.WithTransaction(ctx, func(ctx context.Context, tx repository.EquipmentRepository) error {
			var err error
			log, err = tx.FindLog(ctx, logID)
			if repository.IsNotFound(err) {
				return errLogNotFound
			}
			if err != nil {
				return err
			}
			if log.ReturnDate != nil {
				return errAlreadyReturned
			}
			affected, err := tx.CloseLog(ctx, logID, returnedAt)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errAlreadyReturned
			}
			log.ReturnDate = &returnedAt
			return tx.MarkAvailable(ctx, log.EquipmentID, condition)
		})
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindNotFound && apperrors.KindOf(err) != apperrors.KindConflict {
			slog.ErrorContext(ctx, "return equipment", "log_id", logID, "error", err)
		}
		return nil, db.Classify(err)
	}

	slog.InfoContext(ctx, "equipment returned", "log_id", logID, "equipment_id", log.EquipmentID, "actor_id", actor.MemberID)
	return log, nil
}

// ListLogs returns the issue history, most recent first.
func (s *equipmentService) ListLogs(ctx context.Context, actor auth.Actor, q LogQuery) ([]model.EquipmentLog, error) {
	if !actor.HasRole(model.RoleAdmin, model.RoleEqManager) {
		return nil, errLogViewDenied
	}

	var logs []model.EquipmentLog
	err := s.equipment.WithConnection(ctx, func(ctx context.Context, conn repository.EquipmentRepository) error {
		var err error
		logs, err = conn.ListLogs(ctx, repository.LogFilter{
			EquipmentID: q.EquipmentID,
			MemberID:    q.MemberID,
			OpenOnly:    q.OutstandingOnly,
		})
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "list equipment logs", "error", err)
		return nil, db.Classify(err)
	}
	if logs == nil {
		logs = []model.EquipmentLog{}
	}
	return logs, nil
}
