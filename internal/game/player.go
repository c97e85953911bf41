package game

import "time"

// NewPlayer creates a ship centred at the bottom of the world
func NewPlayer() Player {
	return Player{
		Rect: Rect{
			X: WorldWidth/2 - PlayerWidth/2,
			Y: WorldHeight - PlayerBottomY,
			W: PlayerWidth,
			H: PlayerHeight,
		},
		Speed: PlayerSpeed,
	}
}

// move applies horizontal input and keeps the ship inside the world
func (player *Player) move(input Input) {
	if input.Left {
		player.X = max(0, player.X-player.Speed)
	}
	if input.Right {
		player.X = min(WorldWidth-player.W, player.X+player.Speed)
	}
}

// muzzle returns the bullet spawn point for a horizontal offset from the ship's centre
func (player *Player) muzzle(offset float32) Bullet {
	return Bullet{
		Rect: Rect{
			X: player.X + player.W/2 - BulletWidth/2 + offset,
			Y: player.Y,
			W: BulletWidth,
			H: BulletHeight,
		},
		Speed: BulletSpeed,
	}
}

// shoot fires if the cooldown allows it, honouring rapid fire and multi shot
func (w *World) shoot(now time.Time) {
	cooldown := w.shotCooldown
	if w.effectIs(PowerUpRapidFire) {
		cooldown /= 2
	}
	if now.Sub(w.lastShot) <= cooldown {
		return
	}

	if w.effectIs(PowerUpMultiShot) {
		w.Bullets = append(w.Bullets,
			w.Player.muzzle(0),
			w.Player.muzzle(-MultiShotSpread),
			w.Player.muzzle(MultiShotSpread),
		)
	} else {
		w.Bullets = append(w.Bullets, w.Player.muzzle(0))
	}
	w.lastShot = now
}
