package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"cims/internal/auth"
	"cims/internal/model"
	"cims/internal/service"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

// newEcho returns an echo instance that authenticates every request as actor.
// A nil actor leaves the request anonymous.
func newEcho(actor *auth.Actor) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	if actor != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set(ContextKeyClaims, &auth.Claims{MemberID: actor.MemberID, Role: actor.Role})
				return next(c)
			}
		})
	}
	return e
}

func doRequest(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) AddMember(ctx context.Context, actor auth.Actor, in service.NewMember) (*service.CreatedMember, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedMember), args.Error(1)
}

func (m *MockMemberService) GetOwnProfile(ctx context.Context, callerID uint) (*model.Member, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) GetProfile(ctx context.Context, actor auth.Actor, memberID uint) (*model.Member, error) {
	args := m.Called(ctx, actor, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) UpdateMember(ctx context.Context, actor auth.Actor, memberID uint, in service.MemberUpdate) (*model.Member, error) {
	args := m.Called(ctx, actor, memberID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockMemberService) DeleteMember(ctx context.Context, actor auth.Actor, memberID uint) (*service.DeleteOutcome, error) {
	args := m.Called(ctx, actor, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteOutcome), args.Error(1)
}

func (m *MockMemberService) ListGroupMembers(ctx context.Context, actor auth.Actor) ([]model.Member, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, memberID uint, password string) (*service.TokenPair, error) {
	args := m.Called(ctx, memberID, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

type MockRosterService struct {
	mock.Mock
}

func (m *MockRosterService) RegisterPlayer(ctx context.Context, actor auth.Actor, teamID, eventID uint, in service.PlayerRequest) (*model.Player, error) {
	args := m.Called(ctx, actor, teamID, eventID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Player), args.Error(1)
}

func (m *MockRosterService) ListPlayers(ctx context.Context, teamID, eventID uint) ([]model.Player, error) {
	args := m.Called(ctx, teamID, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Player), args.Error(1)
}

func (m *MockRosterService) RemovePlayer(ctx context.Context, actor auth.Actor, teamID, eventID, memberID uint) error {
	args := m.Called(ctx, actor, teamID, eventID, memberID)
	return args.Error(0)
}

type MockEquipmentService struct {
	mock.Mock
}

func (m *MockEquipmentService) IssueEquipment(ctx context.Context, actor auth.Actor, in service.IssueRequest) (*model.EquipmentLog, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EquipmentLog), args.Error(1)
}

func (m *MockEquipmentService) ReturnEquipment(ctx context.Context, actor auth.Actor, logID uint, in service.ReturnRequest) (*model.EquipmentLog, error) {
	args := m.Called(ctx, actor, logID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EquipmentLog), args.Error(1)
}

func (m *MockEquipmentService) ListLogs(ctx context.Context, actor auth.Actor, q service.LogQuery) ([]model.EquipmentLog, error) {
	args := m.Called(ctx, actor, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EquipmentLog), args.Error(1)
}

type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) ScheduleMatch(ctx context.Context, actor auth.Actor, in service.MatchRequest) (*model.Match, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Match), args.Error(1)
}

func (m *MockMatchService) ListMatches(ctx context.Context, q service.MatchQuery) ([]model.Match, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Match), args.Error(1)
}

func (m *MockMatchService) GetMatch(ctx context.Context, matchID uint) (*model.Match, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Match), args.Error(1)
}

func (m *MockMatchService) UpdateScore(ctx context.Context, actor auth.Actor, matchID uint, in service.ScoreRequest) (*model.Match, error) {
	args := m.Called(ctx, actor, matchID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Match), args.Error(1)
}

func (m *MockMatchService) DeleteMatch(ctx context.Context, actor auth.Actor, matchID uint) error {
	args := m.Called(ctx, actor, matchID)
	return args.Error(0)
}

type stubPinger map[string]error

func (s stubPinger) Ping(context.Context) map[string]error {
	return s
}
