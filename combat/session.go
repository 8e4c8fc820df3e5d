// Package combat is the state machine of one match: free roam, the question
// gated recovery after a ghost catches the player, and the terminal win or
// loss.
//
// A Session is not safe for concurrent use. It is owned by exactly one
// goroutine which feeds it ticks and player input in sequence; every method
// applies one complete logical update before returning.
package combat

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/zucenko/mathkombat/config"
	"github.com/zucenko/mathkombat/effect"
	"github.com/zucenko/mathkombat/ghost"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/quiz"
)

type State int

const (
	ACTIVE State = iota + 1
	COLLIDING
	WON
	LOST
)

func (s State) Name() string {
	switch s {
	case ACTIVE:
		return "ACTIVE"
	case COLLIDING:
		return "COLLIDING"
	case WON:
		return "WON"
	case LOST:
		return "LOST"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}

func (s State) Terminal() bool {
	return s == WON || s == LOST
}

const (
	OutcomeRestored = "LOGIC_RESTORED"
	OutcomeFailure  = "SYSTEM_FAILURE"
)

var (
	ErrNotColliding = errors.New("no question is live")
	ErrOver         = errors.New("match is over")
)

type Session struct {
	cfg        *config.Game
	tier       config.Tier
	difficulty model.Difficulty
	grid       *maze.Grid
	rng        *rand.Rand

	effects  *effect.Manager
	nodes    *maze.Collectibles
	powerUps []model.PowerUp
	nextId   int
	ghosts   []model.Ghost
	player   model.Position
	lastMove time.Time

	state     State
	lives     int
	points    int
	collected int
	correct   int
	incorrect int
	missed    []string

	question  *model.Question
	countdown int
	collision model.Position
	outcome   string
}

// New sets up a match on grid: nodes are scattered, ghosts sit on their
// spawns and the player starts on its spawn under a grace shield.
func New(grid *maze.Grid, cfg *config.Game, d model.Difficulty, rng *rand.Rand) *Session {
	tier := cfg.Tier(d)
	s := &Session{
		cfg:        cfg,
		tier:       tier,
		difficulty: d,
		grid:       grid,
		rng:        rng,
		effects:    effect.NewManager(),
		nodes:      maze.Place(grid, cfg.CollectibleProb, rng),
		ghosts:     ghost.Spawn(grid, tier.GhostCount),
		player:     grid.Spawn,
		state:      ACTIVE,
		lives:      cfg.Lives,
		missed:     make([]string, 0),
	}
	s.effects.Activate(effect.Shield, cfg.Effects.Grace)
	return s
}

func (s *Session) State() State { return s.state }
func (s *Session) Lives() int { return s.lives }
func (s *Session) Points() int { return s.points }
func (s *Session) Player() model.Position { return s.player }
func (s *Session) Countdown() int { return s.countdown }
func (s *Session) Remaining() int { return s.nodes.Len() }
func (s *Session) Difficulty() model.Difficulty { return s.difficulty }
func (s *Session) Tier() config.Tier { return s.tier }

// Effects exposes the effect timers, mainly to read them.
func (s *Session) Effects() *effect.Manager { return s.effects }

func (s *Session) Ghosts() []model.Ghost {
	out := make([]model.Ghost, len(s.ghosts))
	copy(out, s.ghosts)
	return out
}

// Question returns the live question, if any.
func (s *Session) Question() (model.Question, bool) {
	if s.question == nil {
		return model.Question{}, false
	}
	return *s.question, true
}

// MoveCooldown is the minimum time between two accepted moves.
func (s *Session) MoveCooldown() time.Duration {
	if s.effects.Active(effect.Speed) {
		return s.tier.MoveCooldown / 2
	}
	return s.tier.MoveCooldown
}

// TerminalDelay is how long the final screen stays before the result is
// handed out.
func (s *Session) TerminalDelay() time.Duration {
	if s.state == WON {
		return s.cfg.WinDelay
	}
	return s.cfg.LossDelay
}

// Move steps the player one cell. Input is ignored outside free roam, within
// the movement cooldown, and against walls. It reports whether the player
// moved.
func (s *Session) Move(d model.Direction, now time.Time) bool {
	if s.state != ACTIVE || !d.Valid() {
		return false
	}
	if !s.lastMove.IsZero() && now.Sub(s.lastMove) < s.MoveCooldown() {
		return false
	}
	next := s.grid.TryMove(s.player, d.Delta())
	if next == s.player {
		return false
	}
	s.player = next
	s.lastMove = now
	s.pickup()
	if s.checkWin() {
		return true
	}
	s.checkCollision()
	return true
}

// TickGhosts advances the ghost AI one step. Freeze skips the whole tick.
func (s *Session) TickGhosts() {
	if s.state != ACTIVE || s.effects.Active(effect.Freeze) {
		return
	}
	ghost.Tick(s.grid, s.ghosts, s.player, s.tier.ChaseProb, s.rng)
	s.checkCollision()
}

// TickEffects advances the effect timers by the configured step and returns
// what expired. Timers hold still while a question is live.
func (s *Session) TickEffects() []effect.Kind {
	if s.state != ACTIVE {
		return nil
	}
	expired := s.effects.Tick(s.cfg.EffectTick)
	if len(expired) > 0 {
		// a ghost may be parked on the player when the shield drops
		s.checkCollision()
	}
	return expired
}

// TickSpawn may drop one power up of a random kind on a free cell.
func (s *Session) TickSpawn() (model.PowerUp, bool) {
	if s.state != ACTIVE || len(s.powerUps) >= s.cfg.MaxPowerUps {
		return model.PowerUp{}, false
	}
	if s.rng.Float64() >= s.cfg.SpawnProb {
		return model.PowerUp{}, false
	}
	free := s.grid.FreeCells(s.taken)
	if len(free) == 0 {
		return model.PowerUp{}, false
	}
	s.nextId++
	pu := model.PowerUp{
		Id:   s.nextId,
		Pos:  free[s.rng.Intn(len(free))],
		Kind: model.PowerUpKinds[s.rng.Intn(len(model.PowerUpKinds))],
	}
	s.powerUps = append(s.powerUps, pu)
	return pu, true
}

// TickCountdown counts the live question down; running out is a wrong
// answer.
func (s *Session) TickCountdown() {
	if s.state != COLLIDING {
		return
	}
	s.countdown--
	if s.countdown <= 0 {
		s.countdown = 0
		s.resolve(false)
	}
}

// Answer resolves the live question with the chosen option and reports
// whether it was right.
func (s *Session) Answer(value int) (bool, error) {
	if s.state.Terminal() {
		return false, ErrOver
	}
	if s.state != COLLIDING {
		return false, ErrNotColliding
	}
	ok := s.question != nil && value == s.question.Answer
	s.resolve(ok)
	return ok, nil
}

func (s *Session) resolve(correct bool) {
	if s.question == nil {
		panic("combat: resolving a recovery without a live question")
	}
	if correct {
		s.correct++
		s.outcome = OutcomeRestored
	} else {
		s.incorrect++
		s.missed = append(s.missed, s.question.Text)
		s.lives--
		s.outcome = OutcomeFailure
	}
	s.question = nil
	s.countdown = 0
	s.player = s.grid.Spawn
	s.lastMove = time.Time{}
	s.effects.Activate(effect.Shield, s.cfg.Effects.Grace)
	if s.lives <= 0 {
		s.lives = 0
		s.state = LOST
		s.effects.Clear()
		return
	}
	s.state = ACTIVE
}

func (s *Session) pickup() {
	if s.nodes.Take(s.player) {
		pts := s.tier.NodePoints
		if s.effects.Active(effect.Multiplier) {
			pts *= 2
		}
		s.points += pts
		s.collected++
	}
	for i, pu := range s.powerUps {
		if pu.Pos == s.player {
			s.powerUps = append(s.powerUps[:i], s.powerUps[i+1:]...)
			s.consume(pu.Kind)
			return
		}
	}
}

func (s *Session) consume(kind model.PowerUpKind) {
	e := s.cfg.Effects
	switch kind {
	case model.PowerPoints:
		s.points += s.cfg.PointsBonus
	case model.PowerShield:
		s.effects.Activate(effect.Shield, e.Shield)
	case model.PowerSpeed:
		s.effects.Activate(effect.Speed, e.Speed)
	case model.PowerFreeze:
		s.effects.Activate(effect.Freeze, e.Freeze)
	case model.PowerMultiplier:
		s.effects.Activate(effect.Multiplier, e.Multiplier)
	case model.PowerPhase:
		s.effects.Activate(effect.Phase, e.Phase)
	}
}

func (s *Session) checkWin() bool {
	if s.state != ACTIVE || s.nodes.Len() > 0 {
		return false
	}
	s.state = WON
	s.points += s.lives * s.cfg.LifeBonus
	s.effects.Clear()
	return true
}

// vulnerable reports whether a ghost on the player's cell counts as a catch.
func (s *Session) vulnerable() bool {
	return !s.effects.Active(effect.Shield) &&
		!s.effects.Active(effect.Phase) &&
		!s.effects.Active(effect.Freeze)
}

func (s *Session) checkCollision() {
	if s.state != ACTIVE || !s.vulnerable() {
		return
	}
	for _, g := range s.ghosts {
		if g.Pos == s.player {
			s.collide()
			return
		}
	}
}

func (s *Session) collide() {
	q := quiz.Generate(s.tier.Quiz(), s.rng)
	s.question = &q
	s.countdown = s.tier.Countdown
	s.collision = s.player
	s.outcome = ""
	s.state = COLLIDING
}

func (s *Session) taken(p model.Position) bool {
	if p == s.player || s.nodes.Has(p) {
		return true
	}
	for _, g := range s.ghosts {
		if g.Pos == p {
			return true
		}
	}
	for _, pu := range s.powerUps {
		if pu.Pos == p {
			return true
		}
	}
	return false
}

// Result is the terminal summary of the match.
func (s *Session) Result() model.MatchResult {
	missed := make([]string, len(s.missed))
	copy(missed, s.missed)
	return model.MatchResult{
		Collected:       s.collected,
		Misses:          s.incorrect,
		Correct:         s.correct,
		Incorrect:       s.incorrect,
		Points:          s.points,
		MissedQuestions: missed,
	}
}

// Snapshot copies everything a client needs to draw the current frame.
func (s *Session) Snapshot() model.Snapshot {
	powerUps := make([]model.PowerUp, len(s.powerUps))
	copy(powerUps, s.powerUps)
	snap := model.Snapshot{
		State:        s.state.Name(),
		Cols:         s.grid.Cols,
		Rows:         s.grid.Rows,
		Lives:        s.lives,
		Points:       s.points,
		Collected:    s.collected,
		Player:       s.player,
		Ghosts:       s.Ghosts(),
		Collectibles: s.nodes.Positions(),
		PowerUps:     powerUps,
		Effects:      s.effects.Millis(),
		Outcome:      s.outcome,
	}
	if s.question != nil {
		opts := make([]int, len(s.question.Options))
		copy(opts, s.question.Options)
		snap.Prompt = []model.Prompt{{
			Text:      s.question.Text,
			Options:   opts,
			Countdown: s.countdown,
			Collision: s.collision,
		}}
	}
	return snap
}
