package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cims/internal/model"
	"cims/internal/testutil"
)

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestTeamRepositoryPlayers(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewTeamRepository(gdb)
	ctx := context.Background()

	team := &model.Team{Name: "Falcons", CoachID: 10}
	require.NoError(t, gdb.Create(team).Error)

	ok, err := repo.Exists(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, team.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(10), found.CoachID)

	require.NoError(t, repo.CreatePlayer(ctx, &model.Player{MemberID: 1, TeamID: team.ID, EventID: 5}))
	require.NoError(t, repo.CreatePlayer(ctx, &model.Player{MemberID: 2, TeamID: team.ID, EventID: 5}))
	require.NoError(t, repo.CreatePlayer(ctx, &model.Player{MemberID: 1, TeamID: team.ID, EventID: 6}))

	count, err := repo.CountPlayers(ctx, team.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	err = repo.CreatePlayer(ctx, &model.Player{MemberID: 2, TeamID: team.ID, EventID: 5})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	players, err := repo.ListPlayers(ctx, team.ID, 5)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, []uint{1, 2}, []uint{players[0].MemberID, players[1].MemberID})

	n, err := repo.DeletePlayer(ctx, team.ID, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.DeletePlayer(ctx, team.ID, 5, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = repo.DeletePlayer(ctx, team.ID+1, 6, 1)
	require.NoError(t, err)
	assert.Zero(t, n, "other team's roster untouched")

	count, err = repo.CountPlayers(ctx, team.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestEventRepository(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewEventRepository(gdb)
	ctx := context.Background()

	event := &model.Event{Name: "Inter IIT", StartDate: mustDate(t, "2030-01-10"), EndDate: mustDate(t, "2030-01-20")}
	require.NoError(t, gdb.Create(event).Error)
	venue := &model.Venue{Name: "Main Ground"}
	require.NoError(t, gdb.Create(venue).Error)

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-10", found.StartDate.String())

	_, err = repo.FindByID(ctx, event.ID+1)
	assert.True(t, IsNotFound(err))

	ok, err := repo.VenueExists(ctx, venue.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, event.ID+1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEquipmentRepositoryIssueCycle(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewEquipmentRepository(gdb)
	ctx := context.Background()

	bat := &model.Equipment{Name: "Bat", IsAvailable: true, Condition: model.ConditionGood}
	require.NoError(t, gdb.Create(bat).Error)

	n, err := repo.MarkUnavailable(ctx, bat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.MarkUnavailable(ctx, bat.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "second issue must not match")

	log := &model.EquipmentLog{EquipmentID: bat.ID, IssuedTo: 3, IssueDate: time.Now()}
	require.NoError(t, repo.CreateLog(ctx, log))

	n, err = repo.CloseLog(ctx, log.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.CloseLog(ctx, log.ID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	closed, err := repo.FindLog(ctx, log.ID)
	require.NoError(t, err)
	assert.NotNil(t, closed.ReturnDate)

	poor := model.ConditionPoor
	require.NoError(t, repo.MarkAvailable(ctx, bat.ID, &poor))
	found, err := repo.FindByID(ctx, bat.ID)
	require.NoError(t, err)
	assert.True(t, found.IsAvailable)
	assert.Equal(t, model.ConditionPoor, found.Condition)
}

func TestMatchRepositoryBookings(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewMatchRepository(gdb)
	ctx := context.Background()
	day := mustDate(t, "2030-01-12")

	require.NoError(t, repo.Create(ctx, &model.Match{EventID: 1, Team1ID: 1, Team2ID: 2, MatchDate: day, Slot: "morning", VenueID: 9}))

	booked, err := repo.VenueBooked(ctx, 1, day, "morning", 9)
	require.NoError(t, err)
	assert.True(t, booked)
	booked, err = repo.VenueBooked(ctx, 1, day, "evening", 9)
	require.NoError(t, err)
	assert.False(t, booked)

	booked, err = repo.TeamBooked(ctx, 1, day, "morning", 2)
	require.NoError(t, err)
	assert.True(t, booked)
	booked, err = repo.TeamBooked(ctx, 1, day, "morning", 3)
	require.NoError(t, err)
	assert.False(t, booked)
	booked, err = repo.TeamBooked(ctx, 1, mustDate(t, "2030-01-13"), "morning", 1)
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestEquipmentRepositoryListLogs(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewEquipmentRepository(gdb)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	returned := base.Add(2 * time.Hour)

	logs := []*model.EquipmentLog{
		{EquipmentID: 1, IssuedTo: 10, IssueDate: base, ReturnDate: &returned},
		{EquipmentID: 1, IssuedTo: 11, IssueDate: base.Add(3 * time.Hour)},
		{EquipmentID: 2, IssuedTo: 10, IssueDate: base.Add(time.Hour)},
	}
	for _, l := range logs {
		require.NoError(t, repo.CreateLog(ctx, l))
	}

	tests := []struct {
		name   string
		filter LogFilter
		want   []uint
	}{
		{"all newest first", LogFilter{}, []uint{logs[1].ID, logs[2].ID, logs[0].ID}},
		{"by equipment", LogFilter{EquipmentID: 1}, []uint{logs[1].ID, logs[0].ID}},
		{"by member", LogFilter{MemberID: 10}, []uint{logs[2].ID, logs[0].ID}},
		{"open only", LogFilter{OpenOnly: true}, []uint{logs[1].ID, logs[2].ID}},
		{"combined", LogFilter{EquipmentID: 1, MemberID: 10, OpenOnly: true}, []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.ListLogs(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]uint, 0, len(found))
			for _, l := range found {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMatchRepositoryReadScoreDelete(t *testing.T) {
	gdb := testutil.NewSQLite(t, testutil.ProjectModels...)
	repo := NewMatchRepository(gdb)
	ctx := context.Background()
	day1 := mustDate(t, "2030-01-12")
	day2 := mustDate(t, "2030-01-13")

	late := &model.Match{EventID: 1, Team1ID: 1, Team2ID: 2, MatchDate: day2, Slot: "morning", VenueID: 9}
	evening := &model.Match{EventID: 1, Team1ID: 3, Team2ID: 1, MatchDate: day1, Slot: "evening", VenueID: 8}
	morning := &model.Match{EventID: 2, Team1ID: 2, Team2ID: 3, MatchDate: day1, Slot: "morning", VenueID: 9}
	for _, m := range []*model.Match{late, evening, morning} {
		require.NoError(t, repo.Create(ctx, m))
	}

	tests := []struct {
		name   string
		filter MatchFilter
		want   []uint
	}{
		{"all by date then slot", MatchFilter{}, []uint{evening.ID, morning.ID, late.ID}},
		{"event", MatchFilter{EventID: 1}, []uint{evening.ID, late.ID}},
		{"team on either side", MatchFilter{TeamID: 1}, []uint{evening.ID, late.ID}},
		{"venue", MatchFilter{VenueID: 9}, []uint{morning.ID, late.ID}},
		{"date", MatchFilter{Date: &day1}, []uint{evening.ID, morning.ID}},
		{"team and venue", MatchFilter{TeamID: 3, VenueID: 9}, []uint{morning.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]uint, 0, len(found))
			for _, m := range found {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	winner := uint(2)
	require.NoError(t, repo.UpdateScore(ctx, late.ID, 1, 3, &winner))
	found, err := repo.FindByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Team1Score)
	assert.Equal(t, 3, found.Team2Score)
	require.NotNil(t, found.WinnerID)
	assert.Equal(t, winner, *found.WinnerID)

	require.NoError(t, repo.UpdateScore(ctx, late.ID, 2, 2, nil))
	found, err = repo.FindByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Nil(t, found.WinnerID, "draw clears the winner")

	n, err := repo.Delete(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.Delete(ctx, late.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = repo.FindByID(ctx, late.ID)
	assert.True(t, IsNotFound(err))
}
