package server

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/mathkombat/combat"
	"github.com/zucenko/mathkombat/config"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/narrative"
	"github.com/zucenko/mathkombat/report"
)

// Deps is what every game instance shares. All of it is read only or safe
// for concurrent use.
type Deps struct {
	Grid      *maze.Grid
	Game      *config.Game
	Narrative narrative.Service
	Reporter  *report.Reporter
	Seed      func() int64
	Now       func() time.Time
}

type GameServer struct {
	GameSessions   map[string]*GameSession
	GameRequests   chan GameRequest
	CountRequests  chan chan int
	Finished       chan string
	Upgrader       *websocket.Upgrader
	MaxSessions    int
	RequestTimeout time.Duration
	Deps           Deps
}

type GameSessionState int

const (
	GS_MENU GameSessionState = iota
	GS_INTRO
	GS_PLAY
	GS_OVER
	GS_REPORT
)

// GameSession is one game instance: a player going from the menu through
// matches and reports. Everything it owns is touched only by Loop.
type GameSession struct {
	Id      string
	State   GameSessionState
	Profile *model.Profile
	Combat  *combat.Session
	Deps    Deps

	Events   chan model.ClientMessage
	Errors   chan error
	Out      chan model.ServerMessage
	intros   chan model.Intro
	analyses chan model.Analysis

	ctx         context.Context
	cancel      context.CancelFunc
	matchCtx    context.Context
	matchCancel context.CancelFunc

	ghostTicker     *time.Ticker
	effectTicker    *time.Ticker
	spawnTicker     *time.Ticker
	countdownTicker *time.Ticker
	over            *time.Timer
	lastState       combat.State
}

type PlayerSessionState int

const (
	PS_NEW PlayerSessionState = iota + 1
	PS_PLAY
	PS_OVER
	PS_ERR
)

type PlayerSession struct {
	State       PlayerSessionState
	GameSession *GameSession
	Conn        *websocket.Conn
	Codec       Codec

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
