package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Aulris16/space-invaders-alike/internal/game"
	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/netsync"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

// Options configures a Controller
type Options struct {
	// Store is the shared document store for multiplayer. Nil disables rooms.
	Store store.Store
	// PlayerID is written to the room document as host or guest
	PlayerID string
	// Rand drives the simulation and room codes. Nil seeds from the clock.
	Rand game.Rand
	// Clock supplies game time. Nil uses a wall clock.
	Clock *PausableClock
}

// View is everything a presenter needs to draw one frame
type View struct {
	Phase    Phase
	Mode     Mode
	Level    int
	RoomCode string
	Role     netsync.Role
	World    *game.View
	Opponent *netsync.Snapshot
}

// Controller owns one player's game. It is not safe for concurrent use;
// Loop serializes every call onto a single goroutine.
type Controller struct {
	phase Phase
	mode  Mode
	world *game.World

	playerID string
	rng      game.Rand
	clock    *PausableClock
	sync     *netsync.Synchronizer
}

// NewController creates a controller sitting on the menu
func NewController(opts Options) *Controller {
	rng := opts.Rand
	if rng == nil {
		rng = newSeededRand()
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewPausableClock(nil)
	}
	return &Controller{
		phase:    Menu,
		playerID: opts.PlayerID,
		rng:      rng,
		clock:    clock,
		sync:     netsync.NewSynchronizer(opts.Store, rng),
	}
}

// Phase is the current screen
func (c *Controller) Phase() Phase {
	return c.phase
}

// Mode is the mode picked on the menu
func (c *Controller) Mode() Mode {
	return c.mode
}

// World exposes the running simulation, nil before the first game
func (c *Controller) World() *game.World {
	return c.world
}

// ChooseSinglePlayer moves from the menu to level selection
func (c *Controller) ChooseSinglePlayer() bool {
	if c.phase != Menu {
		return false
	}
	c.mode = SinglePlayer
	c.transition(LevelSelect)
	return true
}

// ChooseMultiplayer moves from the menu to the room lobby
func (c *Controller) ChooseMultiplayer() bool {
	if c.phase != Menu {
		return false
	}
	c.mode = Multiplayer
	c.transition(MultiplayerLobby)
	return true
}

// ShowInstructions moves from the menu to the instructions screen
func (c *Controller) ShowInstructions() bool {
	if c.phase != Menu {
		return false
	}
	c.transition(Instructions)
	return true
}

// Back returns to the menu from level select, instructions or the lobby.
// Leaving the lobby also leaves any room created or joined there.
func (c *Controller) Back(ctx context.Context) bool {
	switch c.phase {
	case LevelSelect, Instructions:
	case MultiplayerLobby:
		c.leaveRoom(ctx)
	default:
		return false
	}
	c.transition(Menu)
	return true
}

// StartNewGame begins a single player run at level, clamped to 1..MaxLevel
func (c *Controller) StartNewGame(level int) bool {
	if c.phase != LevelSelect {
		return false
	}
	c.mode = SinglePlayer
	c.startRun(level)
	return true
}

// CreateRoom opens a waiting room and returns its code. The game starts on
// its own once a guest joins. Outside the lobby, or while already hosting,
// it does nothing and returns an empty code.
func (c *Controller) CreateRoom(ctx context.Context) (string, error) {
	if c.phase != MultiplayerLobby || c.sync.InRoom() {
		return "", nil
	}
	code, err := c.sync.CreateRoom(ctx, c.playerID)
	if err != nil {
		logger.Log.WithError(err).Warn("create room failed")
		return "", err
	}
	return code, nil
}

// JoinRoom joins the room with the given code and starts playing at level 1.
// A rejected join leaves the controller in the lobby.
func (c *Controller) JoinRoom(ctx context.Context, code string) error {
	if c.phase != MultiplayerLobby || c.sync.InRoom() {
		return nil
	}
	if err := c.sync.JoinRoom(ctx, code, c.playerID); err != nil {
		logger.Log.WithError(err).WithField("room", code).Warn("join room failed")
		return err
	}
	c.mode = Multiplayer
	c.startRun(1)
	return nil
}

// LeaveRoom abandons a room created in the lobby without leaving the lobby
func (c *Controller) LeaveRoom(ctx context.Context) bool {
	if c.phase != MultiplayerLobby || !c.sync.InRoom() {
		return false
	}
	c.leaveRoom(ctx)
	return true
}

// Pause freezes the simulation and its clock
func (c *Controller) Pause() bool {
	if c.phase != Playing {
		return false
	}
	c.clock.Pause()
	c.transition(Paused)
	return true
}

// Resume continues a paused run from the current moment
func (c *Controller) Resume() bool {
	if c.phase != Paused {
		return false
	}
	c.clock.Resume()
	c.transition(Playing)
	return true
}

// Quit abandons the run, leaves any room and returns to the menu
func (c *Controller) Quit(ctx context.Context) bool {
	switch c.phase {
	case Playing, Paused, GameOver:
	default:
		return false
	}
	c.leaveRoom(ctx)
	c.clock.Resume()
	c.world = nil
	c.transition(Menu)
	return true
}

// PlayAgain restarts a finished single player run at the level it ended on
func (c *Controller) PlayAgain() bool {
	if c.phase != GameOver || c.mode != SinglePlayer {
		return false
	}
	level := 1
	if c.world != nil {
		level = c.world.Level
	}
	c.startRun(level)
	return true
}

// Shutdown leaves any room whatever the phase. Loop calls it when stopping.
func (c *Controller) Shutdown(ctx context.Context) {
	c.leaveRoom(ctx)
}

// Frame runs one display frame: queued room events are applied first, then
// the world advances if playing, and in multiplayer the local snapshot is
// published.
func (c *Controller) Frame(ctx context.Context, input game.Input) {
	c.drainRoom(ctx)

	switch c.phase {
	case Paused:
		if input.Pause {
			c.Resume()
		}
		return
	case Playing:
	default:
		return
	}

	if input.Pause {
		c.Pause()
		return
	}

	outcome, err := c.world.Step(c.clock.Now(), input)
	switch {
	case err != nil:
		logger.Log.WithError(err).WithField("tick", c.world.Tick).Error("ending run")
		c.endRun(ctx)
	case outcome == game.OutcomeLivesExhausted || outcome == game.OutcomeBreached:
		logger.Log.WithFields(logrus.Fields{
			"outcome": outcome.String(),
			"score":   c.world.Score,
			"level":   c.world.Level,
		}).Info("game over")
		c.endRun(ctx)
	case outcome == game.OutcomeLevelComplete:
		logger.Log.WithField("level", c.world.Level).Info("level complete")
	}

	if c.mode == Multiplayer {
		c.publish(ctx)
	}
}

// View copies the state a presenter draws
func (c *Controller) View() View {
	view := View{
		Phase:    c.phase,
		Mode:     c.mode,
		RoomCode: c.sync.Code(),
		Role:     c.sync.Role(),
		Opponent: c.sync.Opponent(),
	}
	if c.world != nil {
		worldView := c.world.View()
		view.World = &worldView
		view.Level = c.world.Level
	}
	return view
}

func (c *Controller) startRun(level int) {
	level = max(1, min(level, game.MaxLevel))
	c.clock.Resume()
	c.world = game.NewWorld(level, c.rng)
	c.transition(Playing)
}

func (c *Controller) endRun(ctx context.Context) {
	c.transition(GameOver)
	if c.mode != Multiplayer || !c.sync.InRoom() {
		return
	}
	if err := c.sync.Finish(ctx); err != nil {
		logger.Log.WithError(err).Debug("marking room finished")
	}
}

func (c *Controller) publish(ctx context.Context) {
	if !c.sync.InRoom() {
		return
	}
	snap := netsync.Snapshot{
		X:                c.world.Player.X,
		Y:                c.world.Player.Y,
		Score:            c.world.Score,
		Lives:            c.world.Lives,
		Level:            c.world.Level,
		EnemiesRemaining: len(c.world.Enemies),
	}
	if err := c.sync.Publish(ctx, snap); err != nil {
		logger.Log.WithError(err).Debug("publish snapshot")
	}
}

// drainRoom applies store events queued since the last frame
func (c *Controller) drainRoom(ctx context.Context) {
	for _, msg := range c.sync.Drain() {
		switch msg.Kind {
		case netsync.RoomReady:
			if c.phase != MultiplayerLobby {
				continue
			}
			// the guest is already playing, so a failed status write still starts the run
			if err := c.sync.StartMatch(ctx); err != nil {
				logger.Log.WithError(err).Warn("starting match")
			}
			c.mode = Multiplayer
			c.startRun(1)
		case netsync.OpponentGone:
			logger.Log.WithField("room", c.sync.Code()).Info("opponent left")
		}
	}
}

func (c *Controller) leaveRoom(ctx context.Context) {
	if err := c.sync.Leave(ctx); err != nil {
		logger.Log.WithError(err).Warn("leaving room")
	}
}

func (c *Controller) transition(to Phase) {
	logger.Log.WithFields(logrus.Fields{
		"from": c.phase.String(),
		"to":   to.String(),
		"mode": c.mode.String(),
	}).Debug("phase change")
	c.phase = to
}

func newSeededRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
