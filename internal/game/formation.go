package game

import "time"

// CategoryForRow assigns the enemy category for a formation row
func CategoryForRow(row int) EnemyCategory {
	switch {
	case row < 2:
		return EnemyWeak
	case row < 4:
		return EnemyMedium
	default:
		return EnemyStrong
	}
}

// Health returns the starting health of an enemy in this category
func (c EnemyCategory) Health() int {
	switch c {
	case EnemyWeak:
		return 1
	case EnemyMedium:
		return 2
	case EnemyStrong:
		return 3
	default:
		return 0
	}
}

// Points returns the score awarded for defeating an enemy in this category
func (c EnemyCategory) Points() int {
	switch c {
	case EnemyWeak:
		return 10
	case EnemyMedium:
		return 20
	case EnemyStrong:
		return 30
	default:
		return 0
	}
}

func (c EnemyCategory) String() string {
	switch c {
	case EnemyWeak:
		return "weak"
	case EnemyMedium:
		return "medium"
	case EnemyStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// NewEnemy builds the enemy at a grid cell. The level only sizes the grid.
func NewEnemy(row, col int) Enemy {
	category := CategoryForRow(row)
	return Enemy{
		Rect: Rect{
			X: FormationOffsetX + float32(col)*(EnemyWidth+EnemyPadding),
			Y: FormationOffsetY + float32(row)*(EnemyHeight+EnemyPadding),
			W: EnemyWidth,
			H: EnemyHeight,
		},
		Category:  category,
		Health:    category.Health(),
		MaxHealth: category.Health(),
		Points:    category.Points(),
	}
}

// FormationRows returns the number of enemy rows for a level
func FormationRows(level int) int {
	return 3 + level
}

// NewFormation lays out the full enemy grid for a level in row-major order
func NewFormation(level int) []Enemy {
	rows := FormationRows(level)
	enemies := make([]Enemy, 0, rows*FormationColumns)
	for row := 0; row < rows; row++ {
		for col := 0; col < FormationColumns; col++ {
			enemies = append(enemies, NewEnemy(row, col))
		}
	}
	return enemies
}

// EnemySpeedForLevel returns the horizontal march speed per tick
func EnemySpeedForLevel(level int) float32 {
	return BaseEnemySpeed + float32(level)*EnemySpeedPerLvl
}

// ShotCooldownForLevel returns the player's baseline time between shots
func ShotCooldownForLevel(level int) time.Duration {
	return max(MinShotCooldown, BaseShotCooldown-time.Duration(level)*ShotCooldownPerLvl)
}

// EnemyFireChance returns the per-tick probability that the formation fires
func EnemyFireChance(level int) float64 {
	return EnemyFireBase + float64(level)*EnemyFirePerLvl
}

// resetFormation rebuilds the grid and rescales speeds for the current level
func (w *World) resetFormation() {
	w.Enemies = NewFormation(w.Level)
	w.direction = 1
	w.enemySpeed = EnemySpeedForLevel(w.Level)
	w.shotCooldown = ShotCooldownForLevel(w.Level)
}

// updateEnemies marches the formation, lets it fire and reports a breach
func (w *World) updateEnemies() bool {
	if len(w.Enemies) == 0 {
		return false
	}

	shouldMoveDown := false
	for i := range w.Enemies {
		enemy := &w.Enemies[i]
		enemy.X += w.enemySpeed * w.direction

		if enemy.X <= 0 || enemy.X+enemy.W >= WorldWidth {
			shouldMoveDown = true
		}
	}

	if shouldMoveDown {
		w.direction = -w.direction
		for i := range w.Enemies {
			w.Enemies[i].Y += EnemyDropAmount
		}
	}

	if w.rng.Float64() < EnemyFireChance(w.Level) {
		shooter := w.Enemies[w.rng.Intn(len(w.Enemies))]
		w.EnemyBullets = append(w.EnemyBullets, Bullet{
			Rect: Rect{
				X: shooter.X + shooter.W/2 - EnemyBulletWidth/2,
				Y: shooter.Y + shooter.H,
				W: EnemyBulletWidth,
				H: EnemyBulletHeight,
			},
			Speed: EnemyBulletSpeed,
		})
	}

	for _, enemy := range w.Enemies {
		if enemy.Y+enemy.H >= w.Player.Y {
			return true
		}
	}
	return false
}

// Direction returns +1 while the formation marches right and -1 while it marches left
func (w *World) Direction() float32 {
	return w.direction
}

// EnemySpeed returns the current horizontal march speed
func (w *World) EnemySpeed() float32 {
	return w.enemySpeed
}

// ShotCooldown returns the player's baseline cooldown for the current level
func (w *World) ShotCooldown() time.Duration {
	return w.shotCooldown
}
