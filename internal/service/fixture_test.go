package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cims/internal/auth"
	"cims/internal/model"
	"cims/internal/repository"
	"cims/internal/testutil"
)

const (
	testHomeGroup       = "G"
	testDefaultPassword = "default123"
)

var (
	admin = auth.Actor{MemberID: 1, Role: model.RoleAdmin}
	// fixedNow is mid-morning UTC on 2024-05-01.
	fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

// fixture wires the repositories over two in-memory databases.
type fixture struct {
	cims      *gorm.DB
	project   *gorm.DB
	members   repository.MemberRepository
	teams     repository.TeamRepository
	events    repository.EventRepository
	equipment repository.EquipmentRepository
	matches   repository.MatchRepository
	checks    Checks
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	provider := testutil.NewProvider(t)
	return fixtureFor(provider.CIMS, provider.Project)
}

func fixtureFor(cims, project *gorm.DB) *fixture {
	f := &fixture{
		cims:      cims,
		project:   project,
		members:   repository.NewMemberRepository(cims),
		teams:     repository.NewTeamRepository(project),
		events:    repository.NewEventRepository(project),
		equipment: repository.NewEquipmentRepository(project),
		matches:   repository.NewMatchRepository(project),
	}
	f.checks = NewChecks(f.members, f.teams, f.events, f.equipment, time.UTC, func() time.Time { return fixedNow })
	return f
}

func (f *fixture) memberService(policy auth.Policy) MemberService {
	return NewMemberService(f.members, MemberSettings{
		DefaultPassword: testDefaultPassword,
		HomeGroupID:     testHomeGroup,
		ListPolicy:      policy,
	})
}

// addMember inserts a member with a credential and the given group mappings.
func (f *fixture) addMember(t *testing.T, name, role string, groups ...string) uint {
	t.Helper()
	return f.addMemberWithID(t, 0, name, role, groups...)
}

func (f *fixture) addMemberWithID(t *testing.T, id uint, name, role string, groups ...string) uint {
	t.Helper()
	m := &model.Member{ID: id, Name: name}
	require.NoError(t, f.cims.Create(m).Error)
	hash, err := bcrypt.GenerateFromPassword([]byte(testDefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.cims.Create(&model.Credential{MemberID: m.ID, PasswordHash: string(hash), Role: role}).Error)
	for _, g := range groups {
		require.NoError(t, f.cims.Create(&model.GroupMapping{MemberID: m.ID, GroupID: g}).Error)
	}
	return m.ID
}

func (f *fixture) addEvent(t *testing.T, start string) uint {
	t.Helper()
	d, err := model.ParseDate(start)
	require.NoError(t, err)
	e := &model.Event{Name: "Event " + start, StartDate: d, EndDate: d}
	require.NoError(t, f.project.Create(e).Error)
	return e.ID
}

func (f *fixture) addTeam(t *testing.T, name string, coachID uint) uint {
	t.Helper()
	team := &model.Team{Name: name, CoachID: coachID}
	require.NoError(t, f.project.Create(team).Error)
	return team.ID
}

func (f *fixture) addVenue(t *testing.T, name string) uint {
	t.Helper()
	v := &model.Venue{Name: name}
	require.NoError(t, f.project.Create(v).Error)
	return v.ID
}

func (f *fixture) addEquipment(t *testing.T, available bool, condition model.Condition) uint {
	t.Helper()
	e := &model.Equipment{Name: "Bat", IsAvailable: available, Condition: condition}
	require.NoError(t, f.project.Create(e).Error)
	return e.ID
}

func (f *fixture) count(t *testing.T, gdb *gorm.DB, table interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(table).Where(query, args...).Count(&n).Error)
	return n
}
