package game

import "time"

// Game world constants
const (
	WorldWidth  = 800.0
	WorldHeight = 600.0
	StartLives  = 3
	MaxLevel    = 5 // Highest level offered on the level select screen
)

// Player ship constants
const (
	PlayerWidth   = 40.0
	PlayerHeight  = 40.0
	PlayerSpeed   = 5.0
	PlayerBottomY = 60.0 // Distance from the bottom edge to the ship's top
)

// Projectile constants
const (
	BulletWidth       = 4.0
	BulletHeight      = 15.0
	BulletSpeed       = 8.0
	EnemyBulletWidth  = 4.0
	EnemyBulletHeight = 12.0
	EnemyBulletSpeed  = 4.0
	MultiShotSpread   = 15.0
)

// Formation constants
const (
	FormationColumns = 8
	FormationOffsetX = 80.0
	FormationOffsetY = 50.0
	EnemyWidth       = 35.0
	EnemyHeight      = 35.0
	EnemyPadding     = 15.0
	EnemyDropAmount  = 20.0
	EnemyFireBase    = 0.01
	EnemyFirePerLvl  = 0.005
)

// Power-up constants
const (
	PowerUpSize        = 30.0
	PowerUpFallSpeed   = 2.0
	PowerUpSpawnPerLvl = 0.002
	PowerUpDuration    = 10 * time.Second
)

// Shot cooldown scaling
const (
	BaseShotCooldown   = 300 * time.Millisecond
	MinShotCooldown    = 150 * time.Millisecond
	ShotCooldownPerLvl = 30 * time.Millisecond
	BaseEnemySpeed     = 1.0
	EnemySpeedPerLvl   = 0.3
)
