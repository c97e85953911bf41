package game

import "time"

// Rand is the source of randomness for spawning and enemy fire.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Float32() float32
	Intn(n int) int
}

// Input is the set of controls held during a tick. Pause is a discrete toggle.
type Input struct {
	Left  bool `json:"left"`
	Right bool `json:"right"`
	Fire  bool `json:"fire"`
	Pause bool `json:"pause"`
}

// Rect is an axis-aligned box with its origin at the top-left corner
type Rect struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// Player is the locally controlled ship
type Player struct {
	Rect
	Speed     float32 `json:"speed"`
	HasShield bool    `json:"hasShield"`
}

// EnemyCategory decides an enemy's toughness and value
type EnemyCategory uint8

const (
	EnemyWeak EnemyCategory = iota
	EnemyMedium
	EnemyStrong
)

// Enemy is one member of the marching formation
type Enemy struct {
	Rect
	Category  EnemyCategory `json:"category"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Points    int           `json:"points"`
}

// Bullet is a vertical projectile. Player bullets travel up, enemy bullets down.
type Bullet struct {
	Rect
	Speed float32 `json:"speed"`
}

// PowerUpType identifies a collectible effect
type PowerUpType uint8

const (
	PowerUpRapidFire PowerUpType = iota
	PowerUpShield
	PowerUpMultiShot
)

// PowerUpTypes lists every power-up type in spawn order
var PowerUpTypes = [...]PowerUpType{PowerUpRapidFire, PowerUpShield, PowerUpMultiShot}

// PowerUp is a falling collectible
type PowerUp struct {
	Rect
	Type PowerUpType `json:"type"`
}

// ActiveEffect is the single power-up effect currently applied to the player
type ActiveEffect struct {
	Type      PowerUpType `json:"type"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Outcome reports how a tick ended
type Outcome uint8

const (
	OutcomeContinue Outcome = iota
	OutcomeLevelComplete
	OutcomeLivesExhausted
	OutcomeBreached
)

// World is the authoritative state of one local simulation run.
// It is owned by a single controller and never shared.
type World struct {
	Player       Player
	Enemies      []Enemy
	Bullets      []Bullet
	EnemyBullets []Bullet
	PowerUps     []PowerUp
	Effect       *ActiveEffect

	Score int
	Lives int
	Level int
	Tick  uint64

	direction    float32
	enemySpeed   float32
	shotCooldown time.Duration
	lastShot     time.Time
	gameOver     bool

	rng Rand
}

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeLevelComplete:
		return "level_complete"
	case OutcomeLivesExhausted:
		return "lives_exhausted"
	case OutcomeBreached:
		return "breached"
	default:
		return "unknown"
	}
}
