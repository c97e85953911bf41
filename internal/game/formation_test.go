package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnemyCategoryByRow(t *testing.T) {
	tests := []struct {
		row    int
		want   EnemyCategory
		health int
		points int
	}{
		{0, EnemyWeak, 1, 10},
		{1, EnemyWeak, 1, 10},
		{2, EnemyMedium, 2, 20},
		{3, EnemyMedium, 2, 20},
		{4, EnemyStrong, 3, 30},
		{7, EnemyStrong, 3, 30},
	}

	for _, tt := range tests {
		enemy := NewEnemy(tt.row, 0)
		assert.Equal(t, tt.want, enemy.Category, "row %d", tt.row)
		assert.Equal(t, tt.health, enemy.Health, "row %d", tt.row)
		assert.Equal(t, tt.health, enemy.MaxHealth, "row %d", tt.row)
		assert.Equal(t, tt.points, enemy.Points, "row %d", tt.row)
	}
}

func TestNewFormationGrid(t *testing.T) {
	for level := 1; level <= MaxLevel; level++ {
		enemies := NewFormation(level)
		require.Len(t, enemies, (3+level)*FormationColumns, "level %d", level)

		last := enemies[len(enemies)-1]
		assert.Equal(t, float32(80+7*50), last.X)
		assert.Equal(t, float32(50+(2+level)*50), last.Y)
	}

	levelOne := NewFormation(1)
	weak, medium := 0, 0
	for _, enemy := range levelOne {
		switch enemy.Category {
		case EnemyWeak:
			weak++
		case EnemyMedium:
			medium++
		case EnemyStrong:
			t.Fatalf("level 1 should have no strong enemies")
		}
	}
	assert.Equal(t, 16, weak)
	assert.Equal(t, 16, medium)
}

func TestLevelScaling(t *testing.T) {
	assert.InDelta(t, 1.3, EnemySpeedForLevel(1), 1e-6)
	assert.InDelta(t, 2.5, EnemySpeedForLevel(5), 1e-6)

	assert.Equal(t, 270*time.Millisecond, ShotCooldownForLevel(1))
	assert.Equal(t, 180*time.Millisecond, ShotCooldownForLevel(4))
	assert.Equal(t, 150*time.Millisecond, ShotCooldownForLevel(5))
	assert.Equal(t, 150*time.Millisecond, ShotCooldownForLevel(9))

	assert.InDelta(t, 0.015, EnemyFireChance(1), 1e-9)
	assert.InDelta(t, 0.002, PowerUpSpawnChance(1), 1e-9)
}

func TestFormationBouncesOffLeftEdge(t *testing.T) {
	w := NewWorld(1, quietRand())
	shift := w.Enemies[0].X - 0.5
	for i := range w.Enemies {
		w.Enemies[i].X -= shift
	}
	w.direction = -1

	before := make([]float32, len(w.Enemies))
	for i, enemy := range w.Enemies {
		before[i] = enemy.Y
	}

	_, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, float32(1), w.Direction())
	for i, enemy := range w.Enemies {
		assert.Equal(t, before[i]+EnemyDropAmount, enemy.Y, "enemy %d", i)
	}

	_, err = w.Step(testEpoch, Input{})
	require.NoError(t, err)
	assert.Equal(t, float32(1), w.Direction(), "no second bounce once clear of the edge")
	assert.Equal(t, before[0]+EnemyDropAmount, w.Enemies[0].Y)
}

func TestFormationBouncesOffRightEdge(t *testing.T) {
	w := NewWorld(1, quietRand())
	lastX := w.Enemies[FormationColumns-1].X
	shift := WorldWidth - EnemyWidth - 0.5 - lastX
	for i := range w.Enemies {
		w.Enemies[i].X += shift
	}
	y := w.Enemies[0].Y

	_, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, float32(-1), w.Direction())
	assert.Equal(t, y+EnemyDropAmount, w.Enemies[0].Y)
}

func TestFormationMarchesWithoutBounce(t *testing.T) {
	w := NewWorld(1, quietRand())
	x, y := w.Enemies[0].X, w.Enemies[0].Y

	_, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.InDelta(t, x+1.3, w.Enemies[0].X, 1e-4)
	assert.Equal(t, y, w.Enemies[0].Y)
}

func TestEnemyFiresFromLowerCentre(t *testing.T) {
	w := NewWorld(1, &stubRand{roll: 0, pick: 3})
	w.Enemies = []Enemy{NewEnemy(0, 0), NewEnemy(0, 1), NewEnemy(1, 0), NewEnemy(1, 1)}

	breached := w.updateEnemies()
	require.False(t, breached)

	require.Len(t, w.EnemyBullets, 1)
	shooter := w.Enemies[3]
	bullet := w.EnemyBullets[0]
	assert.Equal(t, shooter.X+shooter.W/2-EnemyBulletWidth/2, bullet.X)
	assert.Equal(t, shooter.Y+shooter.H, bullet.Y)
	assert.Equal(t, float32(EnemyBulletSpeed), bullet.Speed)
}

func TestQuietFormationDoesNotFire(t *testing.T) {
	w := NewWorld(3, quietRand())
	for i := 0; i < 20; i++ {
		w.updateEnemies()
	}
	assert.Empty(t, w.EnemyBullets)
}
