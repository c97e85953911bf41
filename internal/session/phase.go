// Package session drives a game through its screens: it owns the world,
// decides which phase may run the simulation and bridges the local game
// to a multiplayer room.
package session

// Phase is the screen the game is on. Only Playing advances the world.
type Phase int

const (
	Menu Phase = iota
	LevelSelect
	MultiplayerLobby
	Instructions
	Playing
	Paused
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Menu:
		return "menu"
	case LevelSelect:
		return "level_select"
	case MultiplayerLobby:
		return "multiplayer_lobby"
	case Instructions:
		return "instructions"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Mode is chosen on the menu and decides whether snapshots are published
type Mode int

const (
	SinglePlayer Mode = iota
	Multiplayer
)

func (m Mode) String() string {
	switch m {
	case SinglePlayer:
		return "single_player"
	case Multiplayer:
		return "multiplayer"
	default:
		return "unknown"
	}
}
