package model

import "fmt"

type Difficulty string

const (
	Recruit Difficulty = "Recruit"
	Veteran Difficulty = "Veteran"
	Elite   Difficulty = "Elite"
)

var Difficulties = []Difficulty{Recruit, Veteran, Elite}

var Genders = []string{"Male", "Female", "Non-binary", "Classified"}

var Styles = []string{"Muay Thai", "Jiu Jitsu", "Boxing", "Mixed Martial Arts"}

// Direction follows the path order of a cell: right, down, left, up.
type Direction int

const (
	RIGHT Direction = iota
	DOWN
	LEFT
	UP
)

var deltas = [4]Position{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

func (d Direction) Valid() bool {
	return d >= RIGHT && d <= UP
}

func (d Direction) Delta() Position {
	if !d.Valid() {
		return Position{}
	}
	return deltas[d]
}

func (d Direction) Name() string {
	switch d {
	case RIGHT:
		return "RIGHT"
	case DOWN:
		return "DOWN"
	case LEFT:
		return "LEFT"
	case UP:
		return "UP"
	default:
		return fmt.Sprintf("n/a:%d", d)
	}
}

type Position struct {
	X, Y int
}

func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) Manhattan(o Position) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type PowerUpKind string

const (
	PowerShield     PowerUpKind = "shield"
	PowerSpeed      PowerUpKind = "speed"
	PowerPoints     PowerUpKind = "points"
	PowerFreeze     PowerUpKind = "freeze"
	PowerMultiplier PowerUpKind = "multiplier"
	PowerPhase      PowerUpKind = "phase"
)

var PowerUpKinds = []PowerUpKind{PowerShield, PowerSpeed, PowerPoints, PowerFreeze, PowerMultiplier, PowerPhase}

type PowerUp struct {
	Id   int
	Pos  Position
	Kind PowerUpKind
}

type Ghost struct {
	Id   int
	Name string
	Pos  Position
}

// Profile is what the player fills in before a match.
type Profile struct {
	Name       string     `json:"name"`
	Age        int        `json:"age"`
	Gender     string     `json:"gender"`
	Style      string     `json:"style"`
	Difficulty Difficulty `json:"difficulty"`
}

type Question struct {
	Text    string `json:"question"`
	Answer  int    `json:"answer"`
	Options []int  `json:"options"`
}

// MatchResult is the terminal snapshot handed to reporting.
type MatchResult struct {
	Collected       int      `json:"hits"`
	Misses          int      `json:"misses"`
	Correct         int      `json:"mathCorrect"`
	Incorrect       int      `json:"mathIncorrect"`
	Points          int      `json:"points"`
	MissedQuestions []string `json:"missedQuestions"`
}

type GameRecord struct {
	Id      string      `json:"id"`
	Date    string      `json:"date"`
	Profile Profile     `json:"userData"`
	Result  MatchResult `json:"stats"`
}
