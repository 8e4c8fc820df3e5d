package server

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/combat"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/narrative"
)

const (
	eventBuffer = 8
	outBuffer   = 32
	sendTimeout = 500 * time.Millisecond
)

func NewGameSession(parent context.Context, deps Deps) *GameSession {
	ctx, cancel := context.WithCancel(parent)
	gs := &GameSession{
		Id:       uuid.NewString(),
		State:    GS_MENU,
		Deps:     deps,
		Events:   make(chan model.ClientMessage, eventBuffer),
		Errors:   make(chan error, 1),
		Out:      make(chan model.ServerMessage, outBuffer),
		intros:   make(chan model.Intro, 1),
		analyses: make(chan model.Analysis, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	gs.matchCtx, gs.matchCancel = context.WithCancel(ctx)
	return gs
}

// Done is closed once the session has stopped for good.
func (gs *GameSession) Done() <-chan struct{} {
	return gs.ctx.Done()
}

// Stop ends the session from any goroutine.
func (gs *GameSession) Stop() {
	gs.cancel()
}

// Fail reports a transport error; the session stops. Safe from any goroutine.
func (gs *GameSession) Fail(err error) {
	select {
	case gs.Errors <- err:
	default:
	}
}

// Reject tells the client its message was not understood. Safe from any
// goroutine.
func (gs *GameSession) Reject(err error) {
	select {
	case gs.Out <- model.ServerMessage{Errors: []string{err.Error()}}:
	default:
	}
}

func tick(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func fired(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// Loop is the only goroutine touching the session and its match. Each
// periodic concern has its own ticker; a stopped ticker is a nil channel and
// never fires.
func (gs *GameSession) Loop() {
	logger := log.WithField("session", gs.Id)
	logger.Info("GameSession.Loop start")
	defer func() {
		gs.stopTickers()
		gs.stopOver()
		gs.cancel()
		logger.Info("GameSession.Loop end")
	}()
	for {
		select {
		case <-gs.ctx.Done():
			return
		case err := <-gs.Errors:
			logger.Infof("GameSession.Loop stopping: %v", err)
			return
		case cm := <-gs.Events:
			gs.handle(cm)
		case <-tick(gs.ghostTicker):
			gs.Combat.TickGhosts()
			gs.afterUpdate(true)
		case <-tick(gs.effectTicker):
			if expired := gs.Combat.TickEffects(); len(expired) > 0 {
				gs.afterUpdate(true)
			}
		case <-tick(gs.spawnTicker):
			if _, ok := gs.Combat.TickSpawn(); ok {
				gs.afterUpdate(true)
			}
		case <-tick(gs.countdownTicker):
			gs.Combat.TickCountdown()
			gs.afterUpdate(true)
		case <-fired(gs.over):
			gs.over = nil
			gs.finish()
		case intro := <-gs.intros:
			gs.send(model.ServerMessage{Intro: []model.Intro{intro}}, false)
		case analysis := <-gs.analyses:
			gs.send(model.ServerMessage{Analysis: []model.Analysis{analysis}}, false)
		}
	}
}

func (gs *GameSession) handle(cm model.ClientMessage) {
	var err error
	switch {
	case cm.Quit:
		gs.toMenu()
	case cm.Profile != nil:
		err = gs.onboard(*cm.Profile)
	case cm.Start:
		err = gs.start()
	case len(cm.Moves) > 0:
		err = gs.move(cm.Moves[0])
	case len(cm.Answers) > 0:
		err = gs.answer(cm.Answers[0])
	}
	if err != nil {
		log.WithField("session", gs.Id).Debugf("client message rejected: %v", err)
		gs.send(model.ServerMessage{Errors: []string{err.Error()}}, false)
	}
}

// onboard takes the player profile and starts fetching the intro story. The
// match can start before the story arrives.
func (gs *GameSession) onboard(p model.Profile) error {
	if gs.State == GS_PLAY || gs.State == GS_OVER {
		return ErrPlaying
	}
	if err := p.Validate(); err != nil {
		return err
	}
	gs.Profile = &p
	gs.State = GS_INTRO
	log.WithFields(log.Fields{"session": gs.Id, "player": p.Name, "difficulty": p.Difficulty}).Info("onboarded")

	ctx, svc, intros := gs.matchCtx, gs.Deps.Narrative, gs.intros
	go func() {
		intro := narrative.IntroOrFallback(ctx, svc, p)
		select {
		case intros <- intro:
		case <-ctx.Done():
		}
	}()
	return nil
}

func (gs *GameSession) start() error {
	if gs.Profile == nil {
		return ErrNoProfile
	}
	if gs.State == GS_PLAY || gs.State == GS_OVER {
		return ErrPlaying
	}
	rng := rand.New(rand.NewSource(gs.Deps.Seed()))
	gs.Combat = combat.New(gs.Deps.Grid, gs.Deps.Game, gs.Profile.Difficulty, rng)
	gs.lastState = gs.Combat.State()
	gs.State = GS_PLAY

	tier := gs.Combat.Tier()
	gs.ghostTicker = time.NewTicker(tier.GhostTick)
	gs.effectTicker = time.NewTicker(gs.Deps.Game.EffectTick)
	gs.spawnTicker = time.NewTicker(gs.Deps.Game.SpawnTick)
	log.WithFields(log.Fields{"session": gs.Id, "nodes": gs.Combat.Remaining()}).Info("match started")
	gs.send(model.ServerMessage{Snapshots: []model.Snapshot{gs.Combat.Snapshot()}}, false)
	return nil
}

func (gs *GameSession) move(d model.Direction) error {
	if gs.State != GS_PLAY {
		return ErrNotPlaying
	}
	if gs.Combat.Move(d, gs.Deps.Now()) {
		gs.afterUpdate(false)
	}
	return nil
}

func (gs *GameSession) answer(v int) error {
	if gs.State != GS_PLAY {
		return ErrNotPlaying
	}
	if _, err := gs.Combat.Answer(v); err != nil {
		return err
	}
	gs.afterUpdate(false)
	return nil
}

// afterUpdate publishes the new frame and reacts to state transitions of
// the match: the countdown runs only while a question is live, and a
// finished match stops every periodic timer before anything else happens.
func (gs *GameSession) afterUpdate(droppable bool) {
	state := gs.Combat.State()
	prev := gs.lastState
	gs.lastState = state

	if state != prev {
		droppable = false
		log.WithFields(log.Fields{"session": gs.Id, "from": prev.Name(), "to": state.Name()}).Debug("match state")
	}
	switch {
	case state.Terminal():
		if !prev.Terminal() {
			gs.stopTickers()
			gs.State = GS_OVER
			gs.over = time.NewTimer(gs.Combat.TerminalDelay())
			log.WithFields(log.Fields{"session": gs.Id, "state": state.Name(), "points": gs.Combat.Points()}).Info("match over")
		}
	case state == combat.COLLIDING && prev != combat.COLLIDING:
		gs.countdownTicker = time.NewTicker(gs.Deps.Game.CountdownTick)
	case state != combat.COLLIDING && prev == combat.COLLIDING:
		stopTicker(&gs.countdownTicker)
	}
	gs.send(model.ServerMessage{Snapshots: []model.Snapshot{gs.Combat.Snapshot()}}, droppable)
}

// finish emits the result once the terminal pause is over.
func (gs *GameSession) finish() {
	if gs.Combat == nil || !gs.Combat.State().Terminal() {
		return
	}
	result := gs.Combat.Result()
	records := gs.Deps.Reporter.Report(gs.matchCtx, *gs.Profile, result)
	gs.State = GS_REPORT
	gs.send(model.ServerMessage{
		Results: []model.MatchResult{result},
		History: records,
	}, false)

	ctx, svc, analyses, p := gs.matchCtx, gs.Deps.Narrative, gs.analyses, *gs.Profile
	go func() {
		a := narrative.AnalysisOrFallback(ctx, svc, p, result)
		select {
		case analyses <- a:
		case <-ctx.Done():
		}
	}()
}

// toMenu abandons whatever is going on: timers stop, outstanding narrative
// and persistence calls are cancelled, and nothing waits for them.
func (gs *GameSession) toMenu() {
	gs.stopTickers()
	gs.stopOver()
	gs.matchCancel()
	gs.matchCtx, gs.matchCancel = context.WithCancel(gs.ctx)
	gs.Combat = nil
	gs.Profile = nil
	gs.lastState = 0
	gs.State = GS_MENU
	// drop narrative results that were already delivered
	select {
	case <-gs.intros:
	default:
	}
	select {
	case <-gs.analyses:
	default:
	}
	log.WithField("session", gs.Id).Info("back to menu")
}

func (gs *GameSession) stopTickers() {
	stopTicker(&gs.ghostTicker)
	stopTicker(&gs.effectTicker)
	stopTicker(&gs.spawnTicker)
	stopTicker(&gs.countdownTicker)
}

func (gs *GameSession) stopOver() {
	if gs.over != nil {
		gs.over.Stop()
		gs.over = nil
	}
}

func stopTicker(t **time.Ticker) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// send hands a message to the writer. Frames may be dropped when the client
// lags; anything else waits a little before giving up.
func (gs *GameSession) send(msg model.ServerMessage, droppable bool) {
	select {
	case gs.Out <- msg:
		return
	default:
	}
	if droppable {
		log.WithField("session", gs.Id).Debug("client lagging, frame dropped")
		return
	}
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()
	select {
	case gs.Out <- msg:
	case <-gs.ctx.Done():
	case <-timer.C:
		log.WithField("session", gs.Id).Warn("client lagging, message dropped")
	}
}
