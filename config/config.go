// Package config holds the difficulty tiers and scoring constants of a match,
// and the process settings of the server.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/zucenko/mathkombat/model"
	"github.com/zucenko/mathkombat/quiz"
	"gopkg.in/yaml.v3"
)

//go:embed tiers.yaml
var defaultTiers []byte

type Tier struct {
	QuestionRange int           `yaml:"question_range"`
	Operators     []string      `yaml:"operators"`
	GhostCount    int           `yaml:"ghost_count"`
	GhostTick     time.Duration `yaml:"ghost_tick"`
	ChaseProb     float64       `yaml:"chase_prob"`
	MoveCooldown  time.Duration `yaml:"move_cooldown"`
	Countdown     int           `yaml:"countdown"` // countdown ticks per recovery question
	NodePoints    int           `yaml:"node_points"`
}

type Effects struct {
	Shield     time.Duration `yaml:"shield"`
	Grace      time.Duration `yaml:"grace"`
	Speed      time.Duration `yaml:"speed"`
	Freeze     time.Duration `yaml:"freeze"`
	Multiplier time.Duration `yaml:"multiplier"`
	Phase      time.Duration `yaml:"phase"`
}

type Game struct {
	Lives           int                       `yaml:"lives"`
	LifeBonus       int                       `yaml:"life_bonus"`
	PointsBonus     int                       `yaml:"points_bonus"`
	CollectibleProb float64                   `yaml:"collectible_prob"`
	EffectTick      time.Duration             `yaml:"effect_tick"`
	CountdownTick   time.Duration             `yaml:"countdown_tick"`
	SpawnTick       time.Duration             `yaml:"spawn_tick"`
	SpawnProb       float64                   `yaml:"spawn_prob"`
	MaxPowerUps     int                       `yaml:"max_power_ups"`
	LossDelay       time.Duration             `yaml:"loss_delay"`
	WinDelay        time.Duration             `yaml:"win_delay"`
	Effects         Effects                   `yaml:"effects"`
	Tiers           map[model.Difficulty]Tier `yaml:"tiers"`
}

// Default returns the embedded table. It panics if the embedded file is
// broken, which can only happen at build time.
func Default() *Game {
	g, err := Parse(defaultTiers)
	if err != nil {
		panic(err)
	}
	return g
}

// LoadFile reads a table from path; an empty path yields the default.
func LoadFile(path string) (*Game, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Game, error) {
	g := &Game{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) Validate() error {
	if g.Lives <= 0 {
		return fmt.Errorf("lives must be positive, got %d", g.Lives)
	}
	if g.EffectTick <= 0 || g.CountdownTick <= 0 || g.SpawnTick <= 0 {
		return fmt.Errorf("tick intervals must be positive")
	}
	if g.CollectibleProb <= 0 || g.CollectibleProb > 1 {
		return fmt.Errorf("collectible_prob %v not in (0,1]", g.CollectibleProb)
	}
	for _, d := range model.Difficulties {
		t, ok := g.Tiers[d]
		if !ok {
			return fmt.Errorf("missing tier %s", d)
		}
		if t.GhostCount < 1 || t.GhostCount > 5 {
			return fmt.Errorf("tier %s: ghost_count %d not in 1..5", d, t.GhostCount)
		}
		if t.ChaseProb < 0 || t.ChaseProb > 1 {
			return fmt.Errorf("tier %s: chase_prob %v not in 0..1", d, t.ChaseProb)
		}
		if t.GhostTick <= 0 || t.Countdown <= 0 || t.QuestionRange <= 0 {
			return fmt.Errorf("tier %s: ghost_tick, countdown and question_range must be positive", d)
		}
		if len(t.Operators) == 0 {
			return fmt.Errorf("tier %s: no operators", d)
		}
		for _, op := range t.Operators {
			if !quiz.ValidOperator(op) {
				return fmt.Errorf("tier %s: unknown operator %q", d, op)
			}
		}
	}
	return nil
}

// Quiz is the question generator view of a tier.
func (t Tier) Quiz() quiz.Tier {
	return quiz.Tier{Range: t.QuestionRange, Operators: t.Operators}
}

// Tier returns the tier of d, Recruit for unknown difficulties.
func (g *Game) Tier(d model.Difficulty) Tier {
	if t, ok := g.Tiers[d]; ok {
		return t
	}
	return g.Tiers[model.Recruit]
}
