package models

import "time"

// MissionStatus is the lifecycle state of an alliance mission.
type MissionStatus string

const (
	MissionActive   MissionStatus = "active"
	MissionResolved MissionStatus = "resolved" // boss defeated
	MissionExpired  MissionStatus = "expired"  // window elapsed with boss alive
)

// MissionRole distinguishes the alliance leader from regular members.
type MissionRole string

const (
	RoleLeader MissionRole = "leader"
	RoleMember MissionRole = "member"
)

// AllianceMission is a time-boxed cooperative encounter: member task
// completions damage a shared boss health pool.
type AllianceMission struct {
	ID         string        `json:"id" validate:"required,uuid4"`
	Title      string        `json:"title" validate:"required,min=1,max=255"`
	BossName   string        `json:"bossName" validate:"required"`
	MaxHealth  int           `json:"maxHealth" validate:"required,min=1"`
	BossHealth int           `json:"bossHealth" validate:"min=0"`
	Status     MissionStatus `json:"status" validate:"required,oneof=active resolved expired"`
	StartAt    time.Time     `json:"startAt" validate:"required"`
	EndAt      time.Time     `json:"endAt" validate:"required,gtfield=StartAt"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Synced     bool          `json:"synced"`
}

// MissionMember is one participant's contribution record. Each field is owned
// by exactly one writer path: counters by that member's own contributions, the
// boss pool by the mission engine's guarded decrement.
type MissionMember struct {
	MissionID       string      `json:"missionId" validate:"required,uuid4"`
	UserID          string      `json:"userId" validate:"required"`
	Role            MissionRole `json:"role" validate:"required,oneof=leader member"`
	DamageDealt     int         `json:"damageDealt" validate:"min=0"`
	StoreVisits     int         `json:"storeVisits" validate:"min=0"`
	Attacks         int         `json:"attacks" validate:"min=0"`
	EasyCompletions int         `json:"easyCompletions" validate:"min=0"`
	HardCompletions int         `json:"hardCompletions" validate:"min=0"`
	ChatDays        int         `json:"chatDays" validate:"min=0"` // distinct days with a message sent
	NoFailedTasks   bool        `json:"noFailedTasks"`             // cleared permanently on the first failure in-window
	JoinedAt        time.Time   `json:"joinedAt"`
	Synced          bool        `json:"synced"`
}

// IsEasy reports whether the difficulty counts toward the member's easy bucket
// for end-of-mission bonuses. The split is between the two lower and the two
// higher grades.
func IsEasy(d Difficulty) bool {
	return d == DifficultyVeryEasy || d == DifficultyEasy
}
