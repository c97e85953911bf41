package game

import "time"

func (t PowerUpType) String() string {
	switch t {
	case PowerUpRapidFire:
		return "rapid_fire"
	case PowerUpShield:
		return "shield"
	case PowerUpMultiShot:
		return "multi_shot"
	default:
		return "unknown"
	}
}

// Label is the human readable name shown while the effect is active
func (t PowerUpType) Label() string {
	switch t {
	case PowerUpRapidFire:
		return "Rapid Fire"
	case PowerUpShield:
		return "Shield"
	case PowerUpMultiShot:
		return "Multi-Shot"
	default:
		return ""
	}
}

// PowerUpSpawnChance returns the per-tick probability of a new power-up
func PowerUpSpawnChance(level int) float64 {
	return PowerUpSpawnPerLvl * float64(level)
}

// spawnPowerUp drops a random power-up from a random point on the top edge
func (w *World) spawnPowerUp() {
	w.PowerUps = append(w.PowerUps, PowerUp{
		Rect: Rect{
			X: w.rng.Float32() * (WorldWidth - PowerUpSize),
			Y: 0,
			W: PowerUpSize,
			H: PowerUpSize,
		},
		Type: PowerUpTypes[w.rng.Intn(len(PowerUpTypes))],
	})
}

// updatePowerUps moves power-ups down and drops the ones that left the world
func (w *World) updatePowerUps() {
	kept := w.PowerUps[:0]
	for _, powerUp := range w.PowerUps {
		powerUp.Y += PowerUpFallSpeed
		if powerUp.Y < WorldHeight {
			kept = append(kept, powerUp)
		}
	}
	w.PowerUps = kept
}

// activatePowerUp replaces the active effect. The previous effect's side
// effects are undone before the new one is applied.
func (w *World) activatePowerUp(t PowerUpType, now time.Time) {
	if w.Effect != nil {
		w.revertEffect(w.Effect.Type)
	}

	w.Effect = &ActiveEffect{Type: t, ExpiresAt: now.Add(PowerUpDuration)}
	switch t {
	case PowerUpShield:
		w.Player.HasShield = true
	case PowerUpRapidFire, PowerUpMultiShot:
		// read by shoot while active
	}
}

func (w *World) revertEffect(t PowerUpType) {
	switch t {
	case PowerUpShield:
		w.Player.HasShield = false
	case PowerUpRapidFire, PowerUpMultiShot:
	}
}

// checkPowerUpExpiry clears the effect once its timer has run out
func (w *World) checkPowerUpExpiry(now time.Time) {
	if w.Effect == nil || now.Before(w.Effect.ExpiresAt) {
		return
	}

	w.revertEffect(w.Effect.Type)
	w.Effect = nil
}

func (w *World) effectIs(t PowerUpType) bool {
	return w.Effect != nil && w.Effect.Type == t
}

// ActivePowerUp returns the active effect type, if any
func (w *World) ActivePowerUp() (PowerUpType, bool) {
	if w.Effect == nil {
		return 0, false
	}
	return w.Effect.Type, true
}
