package types

// LevelUpEvent is an already-computed level-up fact handed to the notification
// collaborator. One event is emitted per level gained, even when a single
// reward crosses several levels.
type LevelUpEvent struct {
	UserID   string `json:"userId"`
	OldLevel int    `json:"oldLevel"`
	NewLevel int    `json:"newLevel"`
	PPGained int    `json:"ppGained"`
}

// MissionOutcome describes how a mission ended.
type MissionOutcome string

const (
	MissionOutcomeBossDefeated MissionOutcome = "boss_defeated"
	MissionOutcomeExpired      MissionOutcome = "expired"
)

// MissionResolvedEvent is emitted once when a mission leaves the active state.
type MissionResolvedEvent struct {
	MissionID string         `json:"missionId"`
	Outcome   MissionOutcome `json:"outcome"`
}

// Notifier receives engine events as discrete facts. The engine never formats
// or delivers anything itself; delivery belongs to the excluded collaborator.
// Implementations must be safe for concurrent use.
type Notifier interface {
	LevelUp(event LevelUpEvent)
	MissionResolved(event MissionResolvedEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) LevelUp(LevelUpEvent)                 {}
func (NopNotifier) MissionResolved(MissionResolvedEvent) {}

// Multipliers is the currently-active effect set for a user, supplied by the
// equipment collaborator and consumed as opaque numeric inputs.
type Multipliers struct {
	Attack      float64 `json:"attack"`
	PP          float64 `json:"pp"`
	ExtraAttack bool    `json:"extraAttack"`
}

// NeutralMultipliers is the effect set of a user with no active equipment.
var NeutralMultipliers = Multipliers{Attack: 1.0, PP: 1.0}

// EffectProvider supplies the active multiplier set for a user at call time.
// The engine does not manage equipment inventory or expiration.
type EffectProvider interface {
	MultipliersFor(userID string) Multipliers
}

// StaticEffects is an EffectProvider returning the same multipliers for every
// user. The zero value is not useful; use NoEffects for the neutral provider.
type StaticEffects struct {
	M Multipliers
}

func (s StaticEffects) MultipliersFor(string) Multipliers { return s.M }

// NoEffects is the neutral effect provider.
var NoEffects EffectProvider = StaticEffects{M: NeutralMultipliers}
