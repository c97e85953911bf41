package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRand returns the same roll every time. A roll near 1 keeps enemies
// from firing and power-ups from spawning.
type stubRand struct {
	roll float64
	pick int
}

func (r *stubRand) Float64() float64 { return r.roll }
func (r *stubRand) Float32() float32 { return float32(r.roll) }
func (r *stubRand) Intn(n int) int   { return r.pick % n }

func quietRand() *stubRand {
	return &stubRand{roll: 0.999}
}

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewWorldDefaults(t *testing.T) {
	w := NewWorld(1, quietRand())

	assert.Equal(t, StartLives, w.Lives)
	assert.Equal(t, 0, w.Score)
	assert.Equal(t, 1, w.Level)
	assert.Equal(t, float32(380), w.Player.X)
	assert.Equal(t, float32(540), w.Player.Y)
	assert.Nil(t, w.Effect)
	assert.False(t, w.Player.HasShield)
	assert.Len(t, w.Enemies, 32)
	assert.Equal(t, float32(1), w.Direction())
	assert.InDelta(t, 1.3, w.EnemySpeed(), 1e-6)
	assert.Equal(t, 270*time.Millisecond, w.ShotCooldown())
}

func TestNewWorldClampsLevel(t *testing.T) {
	w := NewWorld(0, quietRand())
	assert.Equal(t, 1, w.Level)
}

func TestPlayerHoldsLeftFiveTicks(t *testing.T) {
	w := NewWorld(1, quietRand())
	now := testEpoch

	for i := 0; i < 5; i++ {
		now = now.Add(16 * time.Millisecond)
		_, err := w.Step(now, Input{Left: true})
		require.NoError(t, err)
	}

	assert.Equal(t, float32(355), w.Player.X)
}

func TestPlayerClampedToWorld(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Player.X = 2

	_, err := w.Step(testEpoch, Input{Left: true})
	require.NoError(t, err)
	assert.Equal(t, float32(0), w.Player.X)

	w.Player.X = WorldWidth - PlayerWidth - 1
	_, err = w.Step(testEpoch, Input{Right: true})
	require.NoError(t, err)
	assert.Equal(t, float32(WorldWidth-PlayerWidth), w.Player.X)
}

func TestDestroyingFirstRowScoresEighty(t *testing.T) {
	w := NewWorld(1, quietRand())
	require.Len(t, w.Enemies, 32)

	for _, enemy := range w.Enemies[:FormationColumns] {
		require.Equal(t, EnemyWeak, enemy.Category)
		w.Bullets = append(w.Bullets, Bullet{
			Rect:  Rect{X: enemy.X + enemy.W/2, Y: enemy.Y + 10, W: BulletWidth, H: BulletHeight},
			Speed: BulletSpeed,
		})
	}

	outcome, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome)
	assert.Equal(t, 80, w.Score)
	assert.Len(t, w.Enemies, 24)
	assert.Empty(t, w.Bullets)
	for _, enemy := range w.Enemies {
		assert.Greater(t, enemy.Y, float32(FormationOffsetY))
	}
}

func TestLevelCompleteRebuildsFormation(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Score = 500
	w.Lives = 2
	w.Player.X = 100
	w.Enemies = nil

	outcome, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeLevelComplete, outcome)
	assert.Equal(t, 2, w.Level)
	assert.Equal(t, 500, w.Score)
	assert.Equal(t, 2, w.Lives)
	assert.Equal(t, float32(100), w.Player.X)
	require.Len(t, w.Enemies, 5*FormationColumns)

	for i, enemy := range w.Enemies {
		row, col := i/FormationColumns, i%FormationColumns
		assert.Equal(t, float32(80+col*50), enemy.X, "enemy %d x", i)
		assert.Equal(t, float32(50+row*50), enemy.Y, "enemy %d y", i)
		assert.Equal(t, CategoryForRow(row), enemy.Category)
	}
	assert.InDelta(t, 1.6, w.EnemySpeed(), 1e-6)
	assert.Equal(t, 240*time.Millisecond, w.ShotCooldown())
}

func TestBreachEndsRunRegardlessOfLives(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Enemies = []Enemy{NewEnemy(0, 3)}
	w.Enemies[0].Y = w.Player.Y - EnemyHeight

	outcome, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeBreached, outcome)
	assert.True(t, w.GameOver())
	assert.Equal(t, StartLives, w.Lives)

	tick := w.Tick
	_, err = w.Step(testEpoch, Input{})
	require.NoError(t, err)
	assert.Equal(t, tick, w.Tick, "a finished run must not advance")
}

func TestLivesExhaustedEndsRun(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Lives = 1
	w.EnemyBullets = []Bullet{{
		Rect:  Rect{X: w.Player.X + 10, Y: w.Player.Y, W: EnemyBulletWidth, H: EnemyBulletHeight},
		Speed: EnemyBulletSpeed,
	}}

	outcome, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeLivesExhausted, outcome)
	assert.Equal(t, 0, w.Lives)
	assert.True(t, w.GameOver())
}

func TestStepReportsInvariantViolation(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Lives = 7

	_, err := w.Step(testEpoch, Input{})
	require.ErrorIs(t, err, ErrInvariant)
	assert.True(t, w.GameOver())
}

func TestBulletsLeaveWorld(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.Bullets = []Bullet{{Rect: Rect{X: 10, Y: -10, W: BulletWidth, H: BulletHeight}, Speed: BulletSpeed}}
	w.EnemyBullets = []Bullet{{Rect: Rect{X: 10, Y: WorldHeight - 2, W: EnemyBulletWidth, H: EnemyBulletHeight}, Speed: EnemyBulletSpeed}}
	w.PowerUps = []PowerUp{{Rect: Rect{X: 10, Y: WorldHeight - 1, W: PowerUpSize, H: PowerUpSize}, Type: PowerUpShield}}

	_, err := w.Step(testEpoch, Input{})
	require.NoError(t, err)

	assert.Empty(t, w.Bullets)
	assert.Empty(t, w.EnemyBullets)
	assert.Empty(t, w.PowerUps)
}

func TestViewIsDetachedCopy(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.activatePowerUp(PowerUpShield, testEpoch)

	view := w.View()
	view.Enemies[0].Health = 99
	view.Effect.Type = PowerUpMultiShot

	assert.Equal(t, 1, w.Enemies[0].Health)
	assert.Equal(t, PowerUpShield, w.Effect.Type)
	assert.Equal(t, w.Score, view.Score)
	assert.Len(t, view.Enemies, len(w.Enemies))
}
