package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shieldOnPlayer(w *World) PowerUp {
	return PowerUp{
		Rect: Rect{X: w.Player.X, Y: w.Player.Y - PowerUpFallSpeed, W: PowerUpSize, H: PowerUpSize},
		Type: PowerUpShield,
	}
}

func TestShieldExpiresExactlyOnce(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.PowerUps = []PowerUp{shieldOnPlayer(w)}
	pickedUp := testEpoch

	_, err := w.Step(pickedUp, Input{})
	require.NoError(t, err)
	require.True(t, w.Player.HasShield)

	for _, offset := range []time.Duration{time.Millisecond, 5 * time.Second, PowerUpDuration - time.Millisecond} {
		_, err = w.Step(pickedUp.Add(offset), Input{})
		require.NoError(t, err)
		assert.True(t, w.Player.HasShield, "shield should hold at +%s", offset)
		assert.True(t, w.effectIs(PowerUpShield))
	}

	for _, offset := range []time.Duration{PowerUpDuration, PowerUpDuration + time.Millisecond, 3 * PowerUpDuration} {
		_, err = w.Step(pickedUp.Add(offset), Input{})
		require.NoError(t, err)
		assert.False(t, w.Player.HasShield, "shield should be gone at +%s", offset)
		assert.Nil(t, w.Effect)
	}
}

func TestShieldFlagTracksEffectEveryTick(t *testing.T) {
	w := NewWorld(2, &stubRand{roll: 0.0015})
	now := testEpoch

	for i := 0; i < 200; i++ {
		now = now.Add(100 * time.Millisecond)
		if i%40 == 0 {
			w.PowerUps = append(w.PowerUps, shieldOnPlayer(w))
		}
		if i%55 == 0 {
			w.PowerUps = append(w.PowerUps, PowerUp{
				Rect: shieldOnPlayer(w).Rect,
				Type: PowerUpTypes[i%len(PowerUpTypes)],
			})
		}
		_, err := w.Step(now, Input{})
		require.NoError(t, err)
		assert.Equal(t, w.effectIs(PowerUpShield), w.Player.HasShield, "tick %d", i)
		if w.GameOver() {
			break
		}
	}
}

func TestNewEffectOverwritesShield(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.activatePowerUp(PowerUpShield, testEpoch)
	require.True(t, w.Player.HasShield)

	later := testEpoch.Add(3 * time.Second)
	w.activatePowerUp(PowerUpRapidFire, later)

	assert.False(t, w.Player.HasShield)
	require.NotNil(t, w.Effect)
	assert.Equal(t, PowerUpRapidFire, w.Effect.Type)
	assert.Equal(t, later.Add(PowerUpDuration), w.Effect.ExpiresAt)

	active, ok := w.ActivePowerUp()
	assert.True(t, ok)
	assert.Equal(t, PowerUpRapidFire, active)
}

func TestShieldPickupRefreshesTimer(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.activatePowerUp(PowerUpShield, testEpoch)
	w.activatePowerUp(PowerUpShield, testEpoch.Add(8*time.Second))

	w.checkPowerUpExpiry(testEpoch.Add(12 * time.Second))
	assert.True(t, w.Player.HasShield)

	w.checkPowerUpExpiry(testEpoch.Add(18 * time.Second))
	assert.False(t, w.Player.HasShield)
}

func TestMultiShotFiresThreeBullets(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.activatePowerUp(PowerUpMultiShot, testEpoch)

	w.shoot(testEpoch)

	require.Len(t, w.Bullets, 3)
	centre := w.Player.X + w.Player.W/2 - BulletWidth/2
	assert.Equal(t, centre, w.Bullets[0].X)
	assert.Equal(t, centre-MultiShotSpread, w.Bullets[1].X)
	assert.Equal(t, centre+MultiShotSpread, w.Bullets[2].X)
	for _, bullet := range w.Bullets {
		assert.Equal(t, w.Player.Y, bullet.Y)
	}
}

func TestShotCooldown(t *testing.T) {
	w := NewWorld(1, quietRand())

	w.shoot(testEpoch)
	require.Len(t, w.Bullets, 1)

	w.shoot(testEpoch.Add(140 * time.Millisecond))
	assert.Len(t, w.Bullets, 1, "baseline cooldown is 270ms")

	w.shoot(testEpoch.Add(271 * time.Millisecond))
	assert.Len(t, w.Bullets, 2)
}

func TestRapidFireHalvesCooldown(t *testing.T) {
	w := NewWorld(1, quietRand())
	w.activatePowerUp(PowerUpRapidFire, testEpoch)

	w.shoot(testEpoch)
	w.shoot(testEpoch.Add(100 * time.Millisecond))
	assert.Len(t, w.Bullets, 1)

	w.shoot(testEpoch.Add(140 * time.Millisecond))
	assert.Len(t, w.Bullets, 2)
}

func TestPowerUpSpawnsAtTop(t *testing.T) {
	w := NewWorld(1, &stubRand{roll: 0.5, pick: 2})

	w.spawnPowerUp()

	require.Len(t, w.PowerUps, 1)
	powerUp := w.PowerUps[0]
	assert.Equal(t, PowerUpMultiShot, powerUp.Type)
	assert.Equal(t, float32(0), powerUp.Y)
	assert.Equal(t, float32(0.5*(WorldWidth-PowerUpSize)), powerUp.X)
}

func TestPowerUpTypeNames(t *testing.T) {
	for _, powerUp := range PowerUpTypes {
		assert.NotEqual(t, "unknown", powerUp.String())
		assert.NotEmpty(t, powerUp.Label())
	}
	assert.Equal(t, "shield", PowerUpShield.String())
	assert.Equal(t, "Multi-Shot", PowerUpMultiShot.Label())
}
