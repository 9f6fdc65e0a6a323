package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cims/internal/auth"
	apperrors "cims/internal/errors"
	"cims/internal/model"
	"cims/internal/util"
)

func TestScheduleMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMatchService(f.matches, f.checks)
	organizer := auth.Actor{MemberID: 7, Role: model.RoleOrganizer}

	event := f.addEvent(t, "2024-06-01")
	started := f.addEvent(t, "2024-04-01")
	t1 := f.addTeam(t, "Falcons", 0)
	t2 := f.addTeam(t, "Hawks", 0)
	t3 := f.addTeam(t, "Owls", 0)
	t4 := f.addTeam(t, "Kites", 0)
	venue := f.addVenue(t, "Main Ground")
	other := f.addVenue(t, "Nets")

	base := MatchRequest{EventID: event, Team1ID: t1, Team2ID: t2, MatchDate: "2024-06-03", Slot: "morning", VenueID: venue}

	match, err := svc.ScheduleMatch(ctx, organizer, base)
	require.NoError(t, err)
	assert.NotZero(t, match.ID)
	assert.Zero(t, match.Team1Score)
	assert.Nil(t, match.WinnerID)

	with := func(mod func(*MatchRequest)) MatchRequest {
		r := base
		mod(&r)
		return r
	}

	tests := []struct {
		name  string
		actor auth.Actor
		in    MatchRequest
		kind  apperrors.Kind
	}{
		{name: "player", actor: auth.Actor{Role: model.RolePlayer}, in: base, kind: apperrors.KindForbidden},
		{name: "same team", actor: admin, in: with(func(r *MatchRequest) { r.Team2ID = t1 }), kind: apperrors.KindBadRequest},
		{name: "bad date", actor: admin, in: with(func(r *MatchRequest) { r.MatchDate = "June 3" }), kind: apperrors.KindBadRequest},
		{name: "no slot", actor: admin, in: with(func(r *MatchRequest) { r.Slot = " " }), kind: apperrors.KindBadRequest},
		{name: "started event", actor: admin, in: with(func(r *MatchRequest) { r.EventID = started }), kind: apperrors.KindBadRequest},
		{name: "unknown team", actor: admin, in: with(func(r *MatchRequest) { r.Team2ID = 99 }), kind: apperrors.KindNotFound},
		{name: "unknown venue", actor: admin, in: with(func(r *MatchRequest) { r.VenueID = 99 }), kind: apperrors.KindNotFound},
		{name: "venue double booked", actor: admin, in: with(func(r *MatchRequest) { r.Team1ID = t3; r.Team2ID = t4 }), kind: apperrors.KindConflict},
		{name: "team double booked", actor: admin, in: with(func(r *MatchRequest) { r.Team2ID = t3; r.VenueID = other }), kind: apperrors.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ScheduleMatch(ctx, tt.actor, tt.in)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	_, err = svc.ScheduleMatch(ctx, admin, with(func(r *MatchRequest) { r.Slot = "evening" }))
	require.NoError(t, err, "same teams in another slot")
}

func (f *fixture) addMatch(t *testing.T, eventID, team1, team2 uint, date, slot string, venueID uint) uint {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	m := &model.Match{EventID: eventID, Team1ID: team1, Team2ID: team2, MatchDate: d, Slot: slot, VenueID: venueID}
	require.NoError(t, f.project.Create(m).Error)
	return m.ID
}

func TestListAndGetMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMatchService(f.matches, f.checks)

	first := f.addMatch(t, 1, 10, 20, "2024-06-02", "morning", 5)
	second := f.addMatch(t, 1, 30, 10, "2024-06-01", "evening", 6)
	third := f.addMatch(t, 2, 20, 30, "2024-06-01", "morning", 5)

	tests := []struct {
		name string
		q    MatchQuery
		want []uint
	}{
		{name: "no filter", q: MatchQuery{}, want: []uint{second, third, first}},
		{name: "team either side", q: MatchQuery{TeamID: 10}, want: []uint{second, first}},
		{name: "event and venue", q: MatchQuery{EventID: 1, VenueID: 5}, want: []uint{first}},
		{name: "date", q: MatchQuery{Date: " 2024-06-01 "}, want: []uint{second, third}},
		{name: "nothing matches", q: MatchQuery{VenueID: 99}, want: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := svc.ListMatches(ctx, tt.q)
			require.NoError(t, err)
			ids := make([]uint, 0, len(matches))
			for _, m := range matches {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := svc.ListMatches(ctx, MatchQuery{Date: "01/06/2024"})
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	match, err := svc.GetMatch(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-02", match.MatchDate.String())

	_, err = svc.GetMatch(ctx, third+1)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdateScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMatchService(f.matches, f.checks)
	referee := auth.Actor{MemberID: 4, Role: model.RoleReferee}
	id := f.addMatch(t, 1, 10, 20, "2024-06-02", "morning", 5)

	tests := []struct {
		name  string
		actor auth.Actor
		id    uint
		in    ScoreRequest
		kind  apperrors.Kind
	}{
		{name: "organizer", actor: auth.Actor{Role: model.RoleOrganizer}, id: id, in: ScoreRequest{Team1Score: 1}, kind: apperrors.KindForbidden},
		{name: "negative", actor: referee, id: id, in: ScoreRequest{Team1Score: -1}, kind: apperrors.KindBadRequest},
		{name: "winner not playing", actor: referee, id: id, in: ScoreRequest{Team1Score: 2, WinnerID: util.Some(uint(30))}, kind: apperrors.KindBadRequest},
		{name: "unknown match", actor: admin, id: id + 1, in: ScoreRequest{}, kind: apperrors.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateScore(ctx, tt.actor, tt.id, tt.in)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	stored, err := svc.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, stored.Team1Score, "rejected updates leave the score alone")

	updated, err := svc.UpdateScore(ctx, referee, id, ScoreRequest{Team1Score: 3, Team2Score: 1, WinnerID: util.Some(uint(10))})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Team1Score)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, uint(10), *updated.WinnerID)

	// resubmitting the same result is not a missing match
	_, err = svc.UpdateScore(ctx, referee, id, ScoreRequest{Team1Score: 3, Team2Score: 1, WinnerID: util.Some(uint(10))})
	require.NoError(t, err)

	updated, err = svc.UpdateScore(ctx, admin, id, ScoreRequest{Team1Score: 2, Team2Score: 2})
	require.NoError(t, err)
	assert.Nil(t, updated.WinnerID)

	stored, err = svc.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Team2Score)
	assert.Nil(t, stored.WinnerID)
}

func TestDeleteMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewMatchService(f.matches, f.checks)
	id := f.addMatch(t, 1, 10, 20, "2024-06-02", "morning", 5)

	err := svc.DeleteMatch(ctx, auth.Actor{Role: model.RoleReferee}, id)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, svc.DeleteMatch(ctx, auth.Actor{MemberID: 7, Role: model.RoleOrganizer}, id))
	assert.Zero(t, f.count(t, f.project, &model.Match{}, "MatchID = ?", id))

	err = svc.DeleteMatch(ctx, admin, id)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
