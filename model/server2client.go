package model

type ServerMessage struct {
	Intro     []Intro       `json:",omitempty"`
	Snapshots []Snapshot    `json:",omitempty"`
	Results   []MatchResult `json:",omitempty"`
	History   []GameRecord  `json:",omitempty"`
	Analysis  []Analysis    `json:",omitempty"`
	Errors    []string      `json:",omitempty"`
}

// ClientMessage carries one intent. Moves and Answers hold at most one value;
// they are lists so that RIGHT or an answer of 0 survives gob, which drops
// zero values.
type ClientMessage struct {
	Profile *Profile    `json:",omitempty"`
	Start   bool        `json:",omitempty"`
	Moves   []Direction `json:",omitempty"`
	Answers []int       `json:",omitempty"`
	Quit    bool        `json:",omitempty"`
}

type Intro struct {
	ImageRef string
	Story    string
	Fallback bool
}

type Analysis struct {
	Strengths  string
	Weaknesses string
	StudyPlan  string
	Tips       string
	Fallback   bool
}

// Prompt is the client side view of a live Question, without its answer.
type Prompt struct {
	Text      string
	Options   []int
	Countdown int
	Collision Position
}

type Snapshot struct {
	State        string
	Cols, Rows   int
	Lives        int
	Points       int
	Collected    int
	Player       Position
	Ghosts       []Ghost
	Collectibles []Position
	PowerUps     []PowerUp
	// Effects holds remaining milliseconds of active effects only.
	Effects map[string]int
	Prompt  []Prompt
	Outcome string
}
