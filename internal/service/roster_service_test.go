package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cims/internal/auth"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/testutil"
	"cims/internal/util"
)

func TestRegisterPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	coach := f.addMember(t, "Coach Kim", model.RoleCoach)
	otherCoach := f.addMember(t, "Coach Lee", model.RoleCoach)
	player := f.addMember(t, "Player One", model.RolePlayer)
	second := f.addMember(t, "Player Two", model.RolePlayer)
	team := f.addTeam(t, "Falcons", coach)
	future := f.addEvent(t, "2024-06-01")
	today := f.addEvent(t, "2024-05-01")

	svc := NewRosterService(f.teams, f.checks, 1)

	tests := []struct {
		name    string
		actor   auth.Actor
		teamID  uint
		eventID uint
		member  uint
		kind    apperrors.Kind
	}{
		{name: "unknown team", actor: admin, teamID: team + 1, eventID: future, member: player, kind: apperrors.KindNotFound},
		{name: "other coach", actor: auth.Actor{MemberID: otherCoach, Role: model.RoleCoach}, teamID: team, eventID: future, member: player, kind: apperrors.KindForbidden},
		{name: "player cannot register", actor: auth.Actor{MemberID: player, Role: model.RolePlayer}, teamID: team, eventID: future, member: player, kind: apperrors.KindForbidden},
		{name: "event started", actor: admin, teamID: team, eventID: today, member: player, kind: apperrors.KindBadRequest},
		{name: "unknown member", actor: admin, teamID: team, eventID: future, member: 999, kind: apperrors.KindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterPlayer(ctx, tt.actor, tt.teamID, tt.eventID, PlayerRequest{MemberID: tt.member})
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	registered, err := svc.RegisterPlayer(ctx, auth.Actor{MemberID: coach, Role: model.RoleCoach}, team, future,
		PlayerRequest{MemberID: player, Position: util.Some("Bowler")})
	require.NoError(t, err)
	assert.NotZero(t, registered.ID)
	assert.Equal(t, "Bowler", *registered.Position)

	_, err = svc.RegisterPlayer(ctx, admin, team, future, PlayerRequest{MemberID: second})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err), "team is full")

	unlimited := NewRosterService(f.teams, f.checks, 0)
	_, err = unlimited.RegisterPlayer(ctx, admin, team, future, PlayerRequest{MemberID: player})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err), "already registered")

	_, err = unlimited.RegisterPlayer(ctx, admin, team, future, PlayerRequest{MemberID: second})
	require.NoError(t, err)
}

func TestRegisterPlayer_CoachRoleReadFromStore(t *testing.T) {
	f := newFixture(t)
	demoted := f.addMember(t, "Former Coach", model.RolePlayer)
	team := f.addTeam(t, "Hawks", demoted)
	event := f.addEvent(t, "2024-06-01")
	player := f.addMember(t, "P", model.RolePlayer)

	svc := NewRosterService(f.teams, f.checks, 12)
	_, err := svc.RegisterPlayer(context.Background(), auth.Actor{MemberID: demoted, Role: model.RoleCoach}, team, event, PlayerRequest{MemberID: player})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestListPlayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewRosterService(f.teams, f.checks, 0)

	team := f.addTeam(t, "Falcons", 0)
	past := f.addEvent(t, "2024-04-01")
	empty := f.addEvent(t, "2024-07-01")
	for _, p := range []model.Player{
		{MemberID: 11, TeamID: team, EventID: past},
		{MemberID: 12, TeamID: team, EventID: past, Position: testutil.Ptr("Keeper")},
		{MemberID: 13, TeamID: team + 1, EventID: past},
	} {
		p := p
		require.NoError(t, f.project.Create(&p).Error)
	}

	players, err := svc.ListPlayers(ctx, team, past)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, uint(11), players[0].MemberID)
	assert.Equal(t, "Keeper", *players[1].Position)

	players, err = svc.ListPlayers(ctx, team, empty)
	require.NoError(t, err)
	assert.NotNil(t, players)
	assert.Empty(t, players)

	_, err = svc.ListPlayers(ctx, team+5, past)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	_, err = svc.ListPlayers(ctx, team, empty+5)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestRemovePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewRosterService(f.teams, f.checks, 0)

	coach := f.addMember(t, "Coach Kim", model.RoleCoach)
	otherCoach := f.addMember(t, "Coach Lee", model.RoleCoach)
	demoted := f.addMember(t, "Former Coach", model.RolePlayer)
	team := f.addTeam(t, "Falcons", coach)
	exCoached := f.addTeam(t, "Hawks", demoted)
	event := f.addEvent(t, "2024-06-01")
	require.NoError(t, f.project.Create(&model.Player{MemberID: 21, TeamID: team, EventID: event}).Error)
	require.NoError(t, f.project.Create(&model.Player{MemberID: 22, TeamID: team, EventID: event}).Error)
	require.NoError(t, f.project.Create(&model.Player{MemberID: 23, TeamID: exCoached, EventID: event}).Error)

	tests := []struct {
		name   string
		actor  auth.Actor
		teamID uint
		member uint
		kind   apperrors.Kind
	}{
		{name: "unknown team", actor: admin, teamID: team + 10, member: 21, kind: apperrors.KindNotFound},
		{name: "other coach", actor: auth.Actor{MemberID: otherCoach, Role: model.RoleCoach}, teamID: team, member: 21, kind: apperrors.KindForbidden},
		{name: "assigned but no longer a coach", actor: auth.Actor{MemberID: demoted, Role: model.RoleCoach}, teamID: exCoached, member: 23, kind: apperrors.KindForbidden},
		{name: "not on roster", actor: admin, teamID: team, member: 99, kind: apperrors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.RemovePlayer(ctx, tt.actor, tt.teamID, event, tt.member)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	require.NoError(t, svc.RemovePlayer(ctx, auth.Actor{MemberID: coach, Role: model.RoleCoach}, team, event, 21))
	require.NoError(t, svc.RemovePlayer(ctx, admin, exCoached, event, 23))
	assert.Zero(t, f.count(t, f.project, &model.Player{}, "MemberID IN ?", []uint{21, 23}))
	assert.Equal(t, int64(1), f.count(t, f.project, &model.Player{}, "MemberID = ?", 22))

	err := svc.RemovePlayer(ctx, admin, team, event, 21)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err), "second removal")
}
