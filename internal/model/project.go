package model

import "time"

// Team is a squad in the Project database.
type Team struct {
	ID        uint   `json:"team_id" gorm:"column:TeamID;primaryKey;autoIncrement"`
	Name      string `json:"team_name" gorm:"column:TeamName;size:255;not null"`
	CoachID   uint   `json:"coach_id" gorm:"column:CoachID"`
	CaptainID uint   `json:"captain_id" gorm:"column:CaptainID"`
}

func (Team) TableName() string { return "Team" }

// Event is a competition with a start date that gates registration.
type Event struct {
	ID          uint   `json:"event_id" gorm:"column:EventID;primaryKey;autoIncrement"`
	Name        string `json:"event_name" gorm:"column:EventName;size:255;not null"`
	StartDate   Date   `json:"start_date" gorm:"column:EventStartDate;type:date;not null"`
	EndDate     Date   `json:"end_date" gorm:"column:EventEndDate;type:date;not null"`
	Location    string `json:"location" gorm:"column:Location;size:255"`
	OrganizerID uint   `json:"organizer_id" gorm:"column:OrganizerID"`
}

func (Event) TableName() string { return "Event_" }

// Venue is a place where matches are played.
type Venue struct {
	ID       uint   `json:"venue_id" gorm:"column:VenueID;primaryKey;autoIncrement"`
	Name     string `json:"venue_name" gorm:"column:VenueName;size:255;not null"`
	Location string `json:"location" gorm:"column:Location;size:255"`
}

func (Venue) TableName() string { return "Venue" }

// Condition grades equipment from best to worst.
type Condition string

const (
	ConditionGood Condition = "Good"
	ConditionFair Condition = "Fair"
	ConditionPoor Condition = "Poor"
)

// Conditions lists grades best first; the last entry disqualifies issue.
var Conditions = []Condition{ConditionGood, ConditionFair, ConditionPoor}

// LowestCondition returns the disqualifying grade.
func LowestCondition() Condition {
	return Conditions[len(Conditions)-1]
}

// Valid reports whether c is a known grade.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// Equipment is an issuable item.
type Equipment struct {
	ID              uint      `json:"equipment_id" gorm:"column:EquipmentID;primaryKey;autoIncrement"`
	Name            string    `json:"equipment_name" gorm:"column:EquipmentName;size:255;not null"`
	IsAvailable     bool      `json:"is_available" gorm:"column:IsAvailable;not null"`
	Condition       Condition `json:"condition" gorm:"column:Condition_;size:16;not null"`
	LastCheckedDate *Date     `json:"last_checked_date,omitempty" gorm:"column:LastCheckedDate;type:date"`
}

func (Equipment) TableName() string { return "Equipment" }

// EquipmentLog records one issue of equipment to a member.
type EquipmentLog struct {
	ID          uint       `json:"log_id" gorm:"column:LogID;primaryKey;autoIncrement"`
	EquipmentID uint       `json:"equipment_id" gorm:"column:EquipmentID;not null;index"`
	IssuedTo    uint       `json:"issued_to" gorm:"column:IssuedTo;not null;index"`
	IssueDate   time.Time  `json:"issue_date" gorm:"column:IssueDate;not null"`
	ReturnDate  *time.Time `json:"return_date,omitempty" gorm:"column:ReturnDate"`
}

func (EquipmentLog) TableName() string { return "EquipmentLog" }

// Player registers a member on a team for one event.
type Player struct {
	ID       uint    `json:"player_id" gorm:"column:PlayerID;primaryKey;autoIncrement"`
	MemberID uint    `json:"member_id" gorm:"column:MemberID;not null;uniqueIndex:uq_player_member_event"`
	TeamID   uint    `json:"team_id" gorm:"column:TeamID;not null;index"`
	EventID  uint    `json:"event_id" gorm:"column:EventID;not null;uniqueIndex:uq_player_member_event"`
	Position *string `json:"position,omitempty" gorm:"column:Position_;size:64"`
}

func (Player) TableName() string { return "Player" }

// Match is a scheduled fixture between two teams.
type Match struct {
	ID         uint   `json:"match_id" gorm:"column:MatchID;primaryKey;autoIncrement"`
	EventID    uint   `json:"event_id" gorm:"column:EventID;not null;index"`
	Team1ID    uint   `json:"team1_id" gorm:"column:Team1ID;not null"`
	Team2ID    uint   `json:"team2_id" gorm:"column:Team2ID;not null"`
	MatchDate  Date   `json:"match_date" gorm:"column:MatchDate;type:date;not null"`
	Slot       string `json:"slot" gorm:"column:Slot;size:32;not null"`
	VenueID    uint   `json:"venue_id" gorm:"column:VenueID;not null"`
	Team1Score int    `json:"team1_score" gorm:"column:Team1Score;not null;default:0"`
	Team2Score int    `json:"team2_score" gorm:"column:Team2Score;not null;default:0"`
	WinnerID   *uint  `json:"winner_id,omitempty" gorm:"column:WinnerID"`
}

func (Match) TableName() string { return "Match_" }
