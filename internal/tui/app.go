// Package tui is a terminal presenter for the game: it draws controller
// views with tcell and turns key presses into controller commands.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Aulris16/space-invaders-alike/internal/game"
	"github.com/Aulris16/space-invaders-alike/internal/netsync"
	"github.com/Aulris16/space-invaders-alike/internal/session"
)

// RoomTimeout bounds the store round trips a lobby or quit command makes on the game loop
const RoomTimeout = 5 * time.Second

// Commander queues work on the game loop. *session.Loop satisfies it.
type Commander interface {
	Do(fn func(*session.Controller)) bool
}

// App owns the terminal screen
type App struct {
	screen tcell.Screen
	keys   *Keys

	mu        sync.Mutex
	view      session.View
	codeInput string
	notice    string
}

// New wraps an initialised screen
func New(screen tcell.Screen) *App {
	return &App{
		screen: screen,
		keys:   NewKeys(nil),
	}
}

// Input is polled by the game loop once per frame
func (a *App) Input() game.Input {
	return a.keys.Input()
}

// Render draws a view. The game loop calls it after every frame.
func (a *App) Render(view session.View) {
	a.mu.Lock()
	a.view = view
	f := frame{view: view, codeInput: a.codeInput, notice: a.notice}
	a.mu.Unlock()

	draw(a.screen, f)
}

// Run handles terminal events until the player quits from the menu or ctx ends
func (a *App) Run(ctx context.Context, loop Commander) {
	go func() {
		<-ctx.Done()
		a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			a.screen.Sync()
		case *tcell.EventKey:
			if !a.handleKey(ev, loop) {
				return
			}
		}
	}
}

// handleKey maps a key press to a command for the current phase. It returns
// false when the player asks to leave the program.
func (a *App) handleKey(ev *tcell.EventKey, loop Commander) bool {
	if ev.Key() == tcell.KeyCtrlC {
		return false
	}

	a.mu.Lock()
	phase := a.view.Phase
	inRoom := a.view.RoomCode != ""
	a.mu.Unlock()

	switch phase {
	case session.Menu:
		switch ev.Rune() {
		case '1', 's':
			loop.Do(func(c *session.Controller) { c.ChooseSinglePlayer() })
		case '2', 'm':
			loop.Do(func(c *session.Controller) { c.ChooseMultiplayer() })
		case 'i':
			loop.Do(func(c *session.Controller) { c.ShowInstructions() })
		case 'q':
			return false
		}

	case session.LevelSelect:
		if r := ev.Rune(); r >= '1' && r <= rune('0'+game.MaxLevel) {
			level := int(r - '0')
			loop.Do(func(c *session.Controller) { c.StartNewGame(level) })
		} else if isBack(ev) {
			roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.Back(ctx) })
		}

	case session.Instructions:
		if isBack(ev) {
			roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.Back(ctx) })
		}

	case session.MultiplayerLobby:
		a.handleLobbyKey(ev, loop, inRoom)

	case session.Playing, session.Paused:
		a.handlePlayKey(ev, loop)

	case session.GameOver:
		switch {
		case ev.Rune() == 'r' || ev.Key() == tcell.KeyEnter:
			a.keys.Release()
			loop.Do(func(c *session.Controller) { c.PlayAgain() })
		case ev.Rune() == 'q' || ev.Rune() == 'm' || ev.Key() == tcell.KeyEscape:
			roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.Quit(ctx) })
		}
	}
	return true
}

func (a *App) handlePlayKey(ev *tcell.EventKey, loop Commander) {
	switch ev.Key() {
	case tcell.KeyLeft:
		a.keys.Left()
		return
	case tcell.KeyRight:
		a.keys.Right()
		return
	case tcell.KeyEscape:
		a.keys.TogglePause()
		return
	}

	switch ev.Rune() {
	case 'a':
		a.keys.Left()
	case 'd':
		a.keys.Right()
	case ' ':
		a.keys.Fire()
	case 'p':
		a.keys.TogglePause()
	case 'q':
		a.keys.Release()
		roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.Quit(ctx) })
	}
}

// handleLobbyKey only treats Escape as back since every letter may be part of a code
func (a *App) handleLobbyKey(ev *tcell.EventKey, loop Commander, inRoom bool) {
	if ev.Key() == tcell.KeyEscape {
		a.setCode("")
		a.report(nil)
		if inRoom {
			roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.LeaveRoom(ctx) })
			return
		}
		roomCommand(loop, func(ctx context.Context, c *session.Controller) { c.Back(ctx) })
		return
	}
	if inRoom {
		return
	}

	switch ev.Key() {
	case tcell.KeyEnter:
		code := a.takeCode()
		if code == "" {
			roomCommand(loop, func(ctx context.Context, c *session.Controller) {
				_, err := c.CreateRoom(ctx)
				a.report(err)
			})
			return
		}
		roomCommand(loop, func(ctx context.Context, c *session.Controller) {
			a.report(c.JoinRoom(ctx, code))
		})
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.mu.Lock()
		if n := len(a.codeInput); n > 0 {
			a.codeInput = a.codeInput[:n-1]
		}
		a.mu.Unlock()
		return
	}

	r := ev.Rune()
	if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
		a.mu.Lock()
		if len(a.codeInput) < 6 {
			a.codeInput += strings.ToUpper(string(r))
		}
		a.mu.Unlock()
	}
}

func (a *App) setCode(code string) {
	a.mu.Lock()
	a.codeInput = code
	a.mu.Unlock()
}

func (a *App) takeCode() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	code := a.codeInput
	a.codeInput = ""
	return code
}

// report shows a lobby error, or clears the last one
func (a *App) report(err error) {
	notice := ""
	switch {
	case err == nil:
	case errors.Is(err, netsync.ErrRoomNotFound):
		notice = "Room not found!"
	case errors.Is(err, netsync.ErrRoomFull):
		notice = "Room is full!"
	case errors.Is(err, netsync.ErrStoreUnavailable):
		notice = "Multiplayer server unavailable, try again."
	default:
		notice = err.Error()
	}
	a.mu.Lock()
	a.notice = notice
	a.mu.Unlock()
}

func isBack(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyEscape || ev.Rune() == 'b'
}

// roomCommand runs fn on the loop with a deadline on its store round trips
func roomCommand(loop Commander, fn func(context.Context, *session.Controller)) bool {
	return loop.Do(func(c *session.Controller) {
		ctx, cancel := context.WithTimeout(context.Background(), RoomTimeout)
		defer cancel()
		fn(ctx, c)
	})
}
