// Package quiz builds the arithmetic questions that gate a recovery.
package quiz

import (
	"fmt"
	"math/rand"

	"github.com/zucenko/mathkombat/model"
)

const (
	OptionCount = 4
	// distractors land in answer-10 .. answer+9, never on the answer itself
	offsetSpan = 20
	offsetBase = 10
	minOperand = 2
)

var Operators = []string{"+", "-", "*", "/"}

type Tier struct {
	Range     int
	Operators []string
}

// Generate returns a fresh question drawn from t: operands in
// minOperand..t.Range+minOperand-1, one of t.Operators.
func Generate(t Tier, rng *rand.Rand) model.Question {
	a := rng.Intn(t.Range) + minOperand
	b := rng.Intn(t.Range) + minOperand
	op := t.Operators[rng.Intn(len(t.Operators))]

	var q model.Question
	switch op {
	case "/":
		// quotient and divisor first, so the dividend always divides evenly
		q.Answer = a
		q.Text = fmt.Sprintf("%d / %d", a*b, b)
	case "*":
		q.Answer = a * b
		q.Text = fmt.Sprintf("%d * %d", a, b)
	case "-":
		q.Answer = a - b
		q.Text = fmt.Sprintf("%d - %d", a, b)
	default:
		q.Answer = a + b
		q.Text = fmt.Sprintf("%d + %d", a, b)
	}
	q.Options = options(q.Answer, rng)
	return q
}

func options(answer int, rng *rand.Rand) []int {
	seen := map[int]bool{answer: true}
	opts := []int{answer}
	for len(opts) < OptionCount {
		offset := rng.Intn(offsetSpan) - offsetBase
		if offset == 0 || seen[answer+offset] {
			continue
		}
		seen[answer+offset] = true
		opts = append(opts, answer+offset)
	}
	rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

// ValidOperator reports whether op is one the generator understands.
func ValidOperator(op string) bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}
