package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInvariant is returned by Step when the world reaches an impossible state
var ErrInvariant = errors.New("simulation invariant violated")

// NewWorld creates a fresh run starting at the given level
func NewWorld(level int, rng Rand) *World {
	if level < 1 {
		level = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	world := &World{
		Player: NewPlayer(),
		Lives:  StartLives,
		Level:  level,
		rng:    rng,
	}
	world.resetFormation()
	return world
}

// Step advances the simulation by one tick in a fixed order:
// input, player bullets, enemies, enemy bullets, power-ups, collisions,
// power-up expiry, power-up spawn and level completion.
func (w *World) Step(now time.Time, input Input) (Outcome, error) {
	if w.gameOver {
		return OutcomeContinue, nil
	}
	w.Tick++

	w.Player.move(input)
	if input.Fire {
		w.shoot(now)
	}

	w.updateBullets()

	if w.updateEnemies() {
		return w.end(OutcomeBreached), nil
	}

	w.updateEnemyBullets()
	w.updatePowerUps()

	exhausted := w.resolveCollisions(now)

	w.checkPowerUpExpiry(now)

	if w.rng.Float64() < PowerUpSpawnChance(w.Level) {
		w.spawnPowerUp()
	}

	if err := w.checkInvariants(); err != nil {
		w.gameOver = true
		return OutcomeContinue, err
	}

	if exhausted {
		return w.end(OutcomeLivesExhausted), nil
	}

	if len(w.Enemies) == 0 {
		w.Level++
		w.resetFormation()
		return OutcomeLevelComplete, nil
	}

	return OutcomeContinue, nil
}

// GameOver reports whether the run has ended
func (w *World) GameOver() bool {
	return w.gameOver
}

func (w *World) end(outcome Outcome) Outcome {
	w.gameOver = true
	return outcome
}

// updateBullets moves player bullets up and drops the ones past the top edge
func (w *World) updateBullets() {
	kept := w.Bullets[:0]
	for _, bullet := range w.Bullets {
		bullet.Y -= bullet.Speed
		if bullet.Y > -bullet.H {
			kept = append(kept, bullet)
		}
	}
	w.Bullets = kept
}

// updateEnemyBullets moves enemy bullets down and drops the ones past the bottom edge
func (w *World) updateEnemyBullets() {
	kept := w.EnemyBullets[:0]
	for _, bullet := range w.EnemyBullets {
		bullet.Y += bullet.Speed
		if bullet.Y < WorldHeight {
			kept = append(kept, bullet)
		}
	}
	w.EnemyBullets = kept
}

// checkInvariants verifies the state rules every tick must preserve
func (w *World) checkInvariants() error {
	if w.Lives < 0 || w.Lives > StartLives {
		return fmt.Errorf("%w: lives %d out of range", ErrInvariant, w.Lives)
	}
	if w.Player.HasShield != w.effectIs(PowerUpShield) {
		return fmt.Errorf("%w: shield flag %t disagrees with active effect", ErrInvariant, w.Player.HasShield)
	}
	for i, enemy := range w.Enemies {
		if enemy.Health <= 0 || enemy.Health > enemy.MaxHealth {
			return fmt.Errorf("%w: enemy %d health %d/%d", ErrInvariant, i, enemy.Health, enemy.MaxHealth)
		}
	}
	return nil
}
