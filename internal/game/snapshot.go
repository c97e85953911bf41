package game

import "slices"

// View is a read-only copy of the world handed to the presentation layer each frame
type View struct {
	Player       Player        `json:"player"`
	Enemies      []Enemy       `json:"enemies"`
	Bullets      []Bullet      `json:"bullets"`
	EnemyBullets []Bullet      `json:"enemyBullets"`
	PowerUps     []PowerUp     `json:"powerUps"`
	Effect       *ActiveEffect `json:"effect,omitempty"`
	Score        int           `json:"score"`
	Lives        int           `json:"lives"`
	Level        int           `json:"level"`
	Tick         uint64        `json:"tick"`
}

// View copies the current state so the caller can read it without racing the next tick
func (w *World) View() View {
	view := View{
		Player:       w.Player,
		Enemies:      slices.Clone(w.Enemies),
		Bullets:      slices.Clone(w.Bullets),
		EnemyBullets: slices.Clone(w.EnemyBullets),
		PowerUps:     slices.Clone(w.PowerUps),
		Score:        w.Score,
		Lives:        w.Lives,
		Level:        w.Level,
		Tick:         w.Tick,
	}
	if w.Effect != nil {
		effect := *w.Effect
		view.Effect = &effect
	}
	return view
}
