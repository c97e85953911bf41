package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/Aulris16/space-invaders-alike/internal/game"
	"github.com/Aulris16/space-invaders-alike/internal/session"
)

var (
	styleText     = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleNotice   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	stylePlayer   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleShield   = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	styleBullet   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleEnemyHit = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleOpponent = tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
)

// frame is what a single draw needs beyond the controller view
type frame struct {
	view      session.View
	codeInput string
	notice    string
}

func draw(screen tcell.Screen, f frame) {
	screen.Clear()
	width, height := screen.Size()

	switch f.view.Phase {
	case session.Menu:
		drawLines(screen, width, height, styleTitle, "SPACE INVADERS",
			"",
			"1  single player",
			"2  multiplayer",
			"i  instructions",
			"q  quit")
	case session.LevelSelect:
		drawLines(screen, width, height, styleTitle, "SELECT LEVEL",
			"",
			fmt.Sprintf("1-%d  start at level", game.MaxLevel),
			"esc  back")
	case session.Instructions:
		drawLines(screen, width, height, styleTitle, "HOW TO PLAY",
			"",
			"left/right or a/d  move",
			"space  fire",
			"p or esc  pause",
			"q  quit to menu",
			"",
			"Power-ups last 10 seconds:",
			"R rapid fire   S shield   M multi-shot",
			"",
			"esc  back")
	case session.MultiplayerLobby:
		drawLobby(screen, width, height, f)
	case session.Playing, session.Paused, session.GameOver:
		drawGame(screen, width, height, f.view)
	}

	if f.notice != "" {
		drawText(screen, 0, height-1, styleNotice, f.notice)
	}
	screen.Show()
}

func drawLobby(screen tcell.Screen, width, height int, f frame) {
	if f.view.RoomCode != "" {
		drawLines(screen, width, height, styleTitle, "MULTIPLAYER",
			"",
			"Room code: "+f.view.RoomCode,
			"Waiting for a second player...",
			"",
			"esc  leave")
		return
	}
	drawLines(screen, width, height, styleTitle, "MULTIPLAYER",
		"",
		"enter  create a room",
		"or type a room code and press enter to join",
		"",
		"> "+f.codeInput,
		"",
		"esc  back")
}

func drawGame(screen tcell.Screen, width, height int, view session.View) {
	w := view.World
	if w == nil {
		return
	}

	hud := fmt.Sprintf(" Score %d  Lives %d  Level %d ", w.Score, w.Lives, w.Level)
	if w.Effect != nil {
		hud += " [" + w.Effect.Type.Label() + "]"
	}
	if view.Opponent != nil {
		hud += fmt.Sprintf("  | Opponent %d  Lv %d  Lives %d", view.Opponent.Score, view.Opponent.Level, view.Opponent.Lives)
	}
	for x := 0; x < width; x++ {
		screen.SetContent(x, 0, ' ', nil, styleHUD)
	}
	drawText(screen, 0, 0, styleHUD, hud)

	field := playfield{width: width, top: 1, height: height - 2}

	if view.Opponent != nil {
		field.put(screen, view.Opponent.X+game.PlayerWidth/2, view.Opponent.Y+game.PlayerHeight/2, 'o', styleOpponent)
	}
	for _, enemy := range w.Enemies {
		style := enemyStyle(enemy)
		field.put(screen, enemy.X+enemy.W/2, enemy.Y+enemy.H/2, enemyRune(enemy.Category), style)
	}
	for _, powerUp := range w.PowerUps {
		field.put(screen, powerUp.X+powerUp.W/2, powerUp.Y+powerUp.H/2, powerUpRune(powerUp.Type), styleTitle)
	}
	for _, bullet := range w.Bullets {
		field.put(screen, bullet.X, bullet.Y, '|', styleBullet)
	}
	for _, bullet := range w.EnemyBullets {
		field.put(screen, bullet.X, bullet.Y, '!', styleEnemyHit)
	}

	player := w.Player
	style := stylePlayer
	if player.HasShield {
		style = styleShield
	}
	field.put(screen, player.X+player.W/2, player.Y+player.H/2, 'A', style)

	switch view.Phase {
	case session.Paused:
		drawLines(screen, width, height, styleTitle, "PAUSED", "", "p  resume", "q  quit to menu")
	case session.GameOver:
		lines := []string{"", fmt.Sprintf("Final score: %d", w.Score), ""}
		if view.Mode == session.SinglePlayer {
			lines = append(lines, "r  play again")
		}
		lines = append(lines, "q  main menu")
		drawLines(screen, width, height, styleTitle, "GAME OVER", lines...)
	}
}

// playfield maps world coordinates onto the terminal cells below the HUD
type playfield struct {
	width, top, height int
}

func (p playfield) cell(x, y float32) (int, int, bool) {
	if p.width <= 0 || p.height <= 0 || x < 0 || y < 0 || x >= game.WorldWidth || y >= game.WorldHeight {
		return 0, 0, false
	}
	col := int(x / game.WorldWidth * float32(p.width))
	row := int(y / game.WorldHeight * float32(p.height))
	return col, p.top + row, true
}

func (p playfield) put(screen tcell.Screen, x, y float32, r rune, style tcell.Style) {
	if col, row, ok := p.cell(x, y); ok {
		screen.SetContent(col, row, r, nil, style)
	}
}

func enemyRune(c game.EnemyCategory) rune {
	switch c {
	case game.EnemyStrong:
		return 'W'
	case game.EnemyMedium:
		return 'M'
	default:
		return 'v'
	}
}

func enemyStyle(e game.Enemy) tcell.Style {
	switch {
	case e.Health < e.MaxHealth:
		return tcell.StyleDefault.Foreground(tcell.ColorOrange)
	case e.Category == game.EnemyStrong:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case e.Category == game.EnemyMedium:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

func powerUpRune(t game.PowerUpType) rune {
	switch t {
	case game.PowerUpRapidFire:
		return 'R'
	case game.PowerUpShield:
		return 'S'
	case game.PowerUpMultiShot:
		return 'M'
	default:
		return '?'
	}
}

// drawLines centres a title and body lines on the screen
func drawLines(screen tcell.Screen, width, height int, titleStyle tcell.Style, title string, lines ...string) {
	top := (height - len(lines) - 1) / 2
	if top < 0 {
		top = 0
	}
	drawText(screen, (width-len(title))/2, top, titleStyle, title)
	for i, line := range lines {
		drawText(screen, (width-len(line))/2, top+1+i, styleText, line)
	}
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	if x < 0 {
		x = 0
	}
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
