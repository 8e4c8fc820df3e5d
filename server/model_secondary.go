package server

import (
	"errors"
	"fmt"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_TIMEOUT = 408
const HTTP_SERVER_ERR = 503

var (
	ErrNoProfile  = errors.New("no profile, send one first")
	ErrPlaying    = errors.New("a match is already running")
	ErrNotPlaying = errors.New("no match is running")
)

type ResponseCode int

const (
	GAME_READY ResponseCode = iota
	GAME_FULL
	GAME_INVALIDE
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case GAME_READY:
		return HTTP_SUCCESS
	case GAME_FULL:
		return HTTP_SERVER_ERR
	case GAME_INVALIDE:
		return HTTP_BAD_REQUEST
	default:
		panic(h)
	}
}

func (gss GameSessionState) Name() string {
	switch gss {
	case GS_MENU:
		return "GS_MENU"
	case GS_INTRO:
		return "GS_INTRO"
	case GS_PLAY:
		return "GS_PLAY"
	case GS_OVER:
		return "GS_OVER"
	case GS_REPORT:
		return "GS_REPORT"
	default:
		return fmt.Sprintf("n/a:%d", gss)
	}
}

func (ps PlayerSessionState) Name() string {
	switch ps {
	case PS_NEW:
		return "NEW"
	case PS_PLAY:
		return "PLAY"
	case PS_OVER:
		return "OVER"
	case PS_ERR:
		return "ERR"
	default:
		return "N/A"
	}
}

type GameContextAwaiting struct {
	ResponseCode ResponseCode
	GameSession  *GameSession
}

type GameRequest struct {
	GameContextAwaiting chan GameContextAwaiting
}
