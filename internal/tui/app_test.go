package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aulris16/space-invaders-alike/internal/session"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

// direct runs commands immediately and redraws, standing in for the game loop
type direct struct {
	app  *App
	ctrl *session.Controller
}

func (d direct) Do(fn func(*session.Controller)) bool {
	fn(d.ctrl)
	d.app.Render(d.ctrl.View())
	return true
}

func newTestApp(t *testing.T, s store.Store) (*App, direct, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(100, 30)
	t.Cleanup(screen.Fini)

	app := New(screen)
	ctrl := session.NewController(session.Options{Store: s, PlayerID: "tester"})
	d := direct{app: app, ctrl: ctrl}
	app.Render(ctrl.View())
	return app, d, screen
}

func screenText(screen tcell.SimulationScreen) string {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	for i, cell := range cells {
		if len(cell.Runes) > 0 {
			b.WriteRune(cell.Runes[0])
		} else {
			b.WriteByte(' ')
		}
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func press(app *App, d direct, r rune) bool {
	return app.handleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone), d)
}

func pressKey(app *App, d direct, k tcell.Key) bool {
	return app.handleKey(tcell.NewEventKey(k, 0, tcell.ModNone), d)
}

func TestMenuToGame(t *testing.T) {
	app, d, screen := newTestApp(t, nil)
	assert.Contains(t, screenText(screen), "SPACE INVADERS")

	require.True(t, press(app, d, '1'))
	assert.Equal(t, session.LevelSelect, d.ctrl.Phase())
	assert.Contains(t, screenText(screen), "SELECT LEVEL")

	require.True(t, press(app, d, '3'))
	require.Equal(t, session.Playing, d.ctrl.Phase())
	assert.Equal(t, 3, d.ctrl.World().Level)
	text := screenText(screen)
	assert.Contains(t, text, "Score 0")
	assert.Contains(t, text, "Level 3")
	assert.Contains(t, text, "A")

	press(app, d, 'a')
	press(app, d, ' ')
	input := app.Input()
	assert.True(t, input.Left)
	assert.True(t, input.Fire)

	pressKey(app, d, tcell.KeyEscape)
	assert.True(t, app.Input().Pause)

	press(app, d, 'q')
	assert.Equal(t, session.Menu, d.ctrl.Phase())
	assert.False(t, press(app, d, 'q'), "q on the menu exits")
}

func TestInstructionsAndBack(t *testing.T) {
	app, d, screen := newTestApp(t, nil)

	press(app, d, 'i')
	assert.Equal(t, session.Instructions, d.ctrl.Phase())
	assert.Contains(t, screenText(screen), "HOW TO PLAY")

	press(app, d, 'b')
	assert.Equal(t, session.Menu, d.ctrl.Phase())
}

func TestLobbyCreateAndJoinErrors(t *testing.T) {
	app, d, screen := newTestApp(t, store.NewMemory())

	press(app, d, '2')
	require.Equal(t, session.MultiplayerLobby, d.ctrl.Phase())

	for _, r := range "zz9" {
		press(app, d, r)
	}
	pressKey(app, d, tcell.KeyBackspace2)
	for _, r := range "qqqb" {
		press(app, d, r)
	}
	app.Render(d.ctrl.View())
	assert.Contains(t, screenText(screen), "> ZZQQQB")

	pressKey(app, d, tcell.KeyEnter)
	assert.Equal(t, session.MultiplayerLobby, d.ctrl.Phase())
	assert.Contains(t, screenText(screen), "Room not found!")

	pressKey(app, d, tcell.KeyEnter)
	code := d.ctrl.View().RoomCode
	require.Len(t, code, 6)
	text := screenText(screen)
	assert.Contains(t, text, "Room code: "+code)
	assert.NotContains(t, text, "Room not found!")

	pressKey(app, d, tcell.KeyEscape)
	assert.Equal(t, session.MultiplayerLobby, d.ctrl.Phase())
	assert.Empty(t, d.ctrl.View().RoomCode)

	pressKey(app, d, tcell.KeyEscape)
	assert.Equal(t, session.Menu, d.ctrl.Phase())
}

// deadlineStore records the deadline of every read and write
type deadlineStore struct {
	*store.Memory
	deadlines []time.Time
}

func (s *deadlineStore) record(ctx context.Context) {
	deadline, _ := ctx.Deadline()
	s.deadlines = append(s.deadlines, deadline)
}

func (s *deadlineStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	s.record(ctx)
	return s.Memory.Get(ctx, path)
}

func (s *deadlineStore) Set(ctx context.Context, path string, value any) error {
	s.record(ctx)
	return s.Memory.Set(ctx, path, value)
}

func TestLobbyCommandsHaveDeadline(t *testing.T) {
	docs := &deadlineStore{Memory: store.NewMemory()}
	app, d, _ := newTestApp(t, docs)

	press(app, d, '2')
	pressKey(app, d, tcell.KeyEnter)
	require.Len(t, d.ctrl.View().RoomCode, 6)
	pressKey(app, d, tcell.KeyEscape)

	for _, r := range "ABC123" {
		press(app, d, r)
	}
	pressKey(app, d, tcell.KeyEnter)

	require.Len(t, docs.deadlines, 2, "one write to create, one read to join")
	for _, deadline := range docs.deadlines {
		require.False(t, deadline.IsZero())
		assert.WithinDuration(t, time.Now().Add(RoomTimeout), deadline, time.Second)
	}
}

func TestLobbyWithoutStore(t *testing.T) {
	app, d, screen := newTestApp(t, nil)
	press(app, d, 'm')
	pressKey(app, d, tcell.KeyEnter)

	assert.Contains(t, screenText(screen), "Multiplayer server unavailable")
	assert.Equal(t, session.MultiplayerLobby, d.ctrl.Phase())
}

func TestPlayfieldScaling(t *testing.T) {
	field := playfield{width: 80, top: 1, height: 20}

	col, row, ok := field.cell(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.Equal(t, 1, row)

	col, row, ok = field.cell(799, 599)
	require.True(t, ok)
	assert.Equal(t, 79, col)
	assert.Equal(t, 20, row)

	_, _, ok = field.cell(-1, 10)
	assert.False(t, ok)
	_, _, ok = field.cell(10, 600)
	assert.False(t, ok)
}
