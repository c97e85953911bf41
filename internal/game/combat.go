package game

import "time"

// Intersects reports whether two boxes overlap. Touching edges do not collide.
func Intersects(a, b Rect) bool {
	return a.X < b.X+b.W && a.X+a.W > b.X &&
		a.Y < b.Y+b.H && a.Y+a.H > b.Y
}

// resolveCollisions runs the three collision passes in order. It reports
// whether the player ran out of lives.
func (w *World) resolveCollisions(now time.Time) bool {
	w.resolvePlayerBullets()
	exhausted := w.resolveEnemyBullets()
	w.resolvePowerUpPickups(now)
	return exhausted
}

// resolvePlayerBullets lets each bullet hit at most one enemy, newest bullet first
func (w *World) resolvePlayerBullets() {
	for i := len(w.Bullets) - 1; i >= 0; i-- {
		bullet := w.Bullets[i]

		for j := len(w.Enemies) - 1; j >= 0; j-- {
			if !Intersects(bullet.Rect, w.Enemies[j].Rect) {
				continue
			}

			w.Bullets = append(w.Bullets[:i], w.Bullets[i+1:]...)
			w.applyEnemyDamage(j)
			break
		}
	}
}

// applyEnemyDamage removes one health point and the enemy itself once defeated
func (w *World) applyEnemyDamage(index int) {
	enemy := &w.Enemies[index]
	enemy.Health--
	if enemy.Health > 0 {
		return
	}

	w.Score += enemy.Points
	w.Enemies = append(w.Enemies[:index], w.Enemies[index+1:]...)
}

// resolveEnemyBullets applies hits on the player unless a shield is up
func (w *World) resolveEnemyBullets() bool {
	exhausted := false
	for i := len(w.EnemyBullets) - 1; i >= 0; i-- {
		if !Intersects(w.EnemyBullets[i].Rect, w.Player.Rect) {
			continue
		}

		w.EnemyBullets = append(w.EnemyBullets[:i], w.EnemyBullets[i+1:]...)
		if w.Player.HasShield {
			continue
		}

		if w.Lives > 0 {
			w.Lives--
		}
		if w.Lives == 0 {
			exhausted = true
		}
	}
	return exhausted
}

// resolvePowerUpPickups activates every power-up the ship touches
func (w *World) resolvePowerUpPickups(now time.Time) {
	for i := len(w.PowerUps) - 1; i >= 0; i-- {
		powerUp := w.PowerUps[i]
		if !Intersects(powerUp.Rect, w.Player.Rect) {
			continue
		}

		w.activatePowerUp(powerUp.Type, now)
		w.PowerUps = append(w.PowerUps[:i], w.PowerUps[i+1:]...)
	}
}
