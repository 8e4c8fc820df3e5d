package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/model"
)

const (
	DefaultMaxSessions    = 100
	DefaultRequestTimeout = 200 * time.Millisecond
)

func NewGameServer(deps Deps) *GameServer {
	if deps.Seed == nil {
		deps.Seed = func() int64 { return time.Now().UnixNano() }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &GameServer{
		GameSessions:  make(map[string]*GameSession),
		GameRequests:  make(chan GameRequest),
		CountRequests: make(chan chan int),
		Finished:      make(chan string),
		Upgrader: &websocket.Upgrader{
			// the game is served to browsers from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		MaxSessions:    DefaultMaxSessions,
		RequestTimeout: DefaultRequestTimeout,
		Deps:           deps,
	}
}

func (s *GameServer) HandleHttpCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("HandleHttpCall - connection received")

		codec, err := CodecByName(r.URL.Query().Get("codec"))
		if err != nil {
			log.Warnf("HandleHttpCall %v", err)
			w.WriteHeader(GAME_INVALIDE.ToHttp())
			return
		}

		timeout := s.RequestTimeout
		gcas := make(chan GameContextAwaiting, 1)
		select {
		case s.GameRequests <- GameRequest{GameContextAwaiting: gcas}:
		case <-time.After(timeout):
			log.Warn("GameRequests TIMEOUTED")
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}

		var gca GameContextAwaiting
		select {
		case gca = <-gcas:
			if gca.ResponseCode != GAME_READY {
				log.Warnf("HandleHttpCall no game session, code:%d", gca.ResponseCode)
				w.WriteHeader(gca.ResponseCode.ToHttp())
				return
			}
		case <-time.After(timeout):
			log.Warn("HandleHttpCall GameContextAwaiting <- TIMEOUTED")
			go abandon(gcas)
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		gs := gca.GameSession

		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the request
			log.Warnf("HandleHttpCall websocket upgrade err %v", err)
			gs.Stop()
			return
		}
		defer con.Close()

		ps := NewPlayerSession(gs, con, codec)
		go ps.LoopChannelRead()
		go ps.LoopChannelWrite()

		log.WithFields(log.Fields{"session": gs.Id, "codec": codec.Name()}).Info("HandleHttpCall playing")
		<-gs.Done()
		con.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}
}

// abandon stops a session created for a request nobody waits for anymore.
// The registry answers every accepted request exactly once.
func abandon(gcas <-chan GameContextAwaiting) {
	if gca := <-gcas; gca.GameSession != nil {
		log.WithField("session", gca.GameSession.Id).Warn("abandoning GameSession, caller gone")
		gca.GameSession.Stop()
	}
}

// HandleHistory serves the local match history as json.
func (s *GameServer) HandleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := []model.GameRecord{}
		if s.Deps.Reporter != nil {
			records = s.Deps.Reporter.History.List()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			log.Warnf("HandleHistory encode %v", err)
		}
	}
}

// HandleHealth answers with the number of live game sessions.
func (s *GameServer) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := make(chan int, 1)
		select {
		case s.CountRequests <- counts:
		case <-time.After(time.Second):
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"sessions": <-counts})
	}
}

// Loop owns the session registry. It returns when ctx is cancelled, which
// also stops every session it started.
func (s *GameServer) Loop(ctx context.Context) {
	log.Info("GameServer.Loop starting")
	for {
		select {
		case <-ctx.Done():
			log.Info("GameServer.Loop stopped")
			return
		case gameReq := <-s.GameRequests:
			if len(s.GameSessions) >= s.MaxSessions {
				log.Warnf("GameServer.Loop full with %d sessions", len(s.GameSessions))
				gameReq.GameContextAwaiting <- GameContextAwaiting{ResponseCode: GAME_FULL}
				continue
			}
			gs := NewGameSession(ctx, s.Deps)
			s.GameSessions[gs.Id] = gs
			go func() {
				gs.Loop()
				select {
				case s.Finished <- gs.Id:
				case <-ctx.Done():
				}
			}()
			log.WithField("session", gs.Id).Info("GameServer.Loop created GameSession")
			gameReq.GameContextAwaiting <- GameContextAwaiting{
				ResponseCode: GAME_READY,
				GameSession:  gs,
			}
		case id := <-s.Finished:
			delete(s.GameSessions, id)
			log.WithField("session", id).Info("GameServer.Loop removed GameSession")
		case counts := <-s.CountRequests:
			counts <- len(s.GameSessions)
		}
	}
}

func NewPlayerSession(gs *GameSession, conn *websocket.Conn, codec Codec) *PlayerSession {
	ps := &PlayerSession{
		State:       PS_NEW,
		GameSession: gs,
		Conn:        conn,
		Codec:       codec,
	}
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			ps.DebugLastPing = time.Now()
			ps.DebugPings++
			if err == websocket.ErrCloseSent {
				return nil
			} else if e, ok := err.(net.Error); ok && e.Timeout() {
				return nil
			}
			return err
		})
	return ps
}

// LoopChannelRead decodes client messages and hands them to the game
// session. Input is not queued: when the session is busy it is dropped.
// It is the only writer of ps.State.
func (ps *PlayerSession) LoopChannelRead() {
	gs := ps.GameSession
	logger := log.WithField("session", gs.Id)
	logger.Debug("LoopChannelRead STARTED")
	ps.State = PS_PLAY
loop:
	for {
		_, r, err := ps.Conn.NextReader()
		if err != nil {
			select {
			case <-gs.Done():
				ps.State = PS_OVER
			default:
				logger.Infof("LoopChannelRead connection gone: %v", err)
				ps.State = PS_ERR
				gs.Fail(err)
			}
			break loop
		}
		cm := model.ClientMessage{}
		if err := ps.Codec.Decode(r, &cm); err != nil {
			logger.Warnf("LoopChannelRead cant decode: %v", err)
			gs.Reject(err)
			continue
		}
		ps.DebugLastMessage = time.Now()
		ps.DebugInMessages++

		select {
		case gs.Events <- cm:
		case <-gs.Done():
			break loop
		default:
			logger.Warn("Dropping client message, GameSession.Events FULL")
		}
	}
	logger.Debug("LoopChannelRead ENDED")
}

// LoopChannelWrite only consumes, so a full buffer never blocks the session
// for long.
func (ps *PlayerSession) LoopChannelWrite() {
	gs := ps.GameSession
	logger := log.WithField("session", gs.Id)
	logger.Debug("LoopChannelWrite STARTED")
loop:
	for {
		select {
		case <-gs.Done():
			break loop
		case mes := <-gs.Out:
			w, err := ps.Conn.NextWriter(ps.Codec.MessageType())
			if err != nil {
				logger.Warnf("LoopChannelWrite cant get writer %v", err)
				gs.Fail(err)
				break loop
			}
			if err := ps.Codec.Encode(w, mes); err != nil {
				logger.Warnf("LoopChannelWrite cant encode %v", err)
				gs.Fail(err)
				break loop
			}
			if err := w.Close(); err != nil {
				logger.Warnf("LoopChannelWrite cant flush %v", err)
				gs.Fail(err)
				break loop
			}
			ps.DebugOutMessages++
		}
	}
	logger.Debug("LoopChannelWrite ENDED")
}
