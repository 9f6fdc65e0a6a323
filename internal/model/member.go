package model

// Role labels stored in the credential row.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleCoach     = "Coach"
	RolePlayer    = "Player"
	RoleOrganizer = "Organizer"
	RoleEqManager = "EqManager"
	RoleReferee   = "Referee"
)

// Member is an identity record in the CIMS database.
type Member struct {
	ID          uint    `json:"id" gorm:"column:ID;primaryKey;autoIncrement"`
	Name        string  `json:"name" gorm:"column:UserName;size:255;not null;index"`
	Email       *string `json:"email" gorm:"column:emailID;size:255;uniqueIndex"`
	DateOfBirth *Date   `json:"dob" gorm:"column:DoB;type:date"`
}

// TableName pins the shared CIMS table name.
func (Member) TableName() string { return "members" }

// Credential is the login record paired one-to-one with a Member.
type Credential struct {
	MemberID     uint   `json:"member_id" gorm:"column:MemberID;primaryKey;autoIncrement:false"`
	PasswordHash string `json:"-" gorm:"column:Password;size:255;not null"` // Never expose in JSON
	Role         string `json:"role" gorm:"column:Role;size:50;not null;default:'user'"`
}

func (Credential) TableName() string { return "Login" }

// GroupMapping associates a member with a group code.
type GroupMapping struct {
	MemberID uint   `json:"member_id" gorm:"column:MemberID;primaryKey;autoIncrement:false"`
	GroupID  string `json:"group_id" gorm:"column:GroupID;primaryKey;size:64"`
}

func (GroupMapping) TableName() string { return "MemberGroupMapping" }
