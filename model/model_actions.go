package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidProfile = errors.New("invalid profile")

const (
	MinAge = 5
	MaxAge = 99
)

func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if v == d {
			return true
		}
	}
	return false
}

// Validate checks the onboarding form. Empty gender, style and difficulty
// are filled with the form defaults.
func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidProfile)
	}
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("%w: age %d not in %d..%d", ErrInvalidProfile, p.Age, MinAge, MaxAge)
	}
	if p.Gender == "" {
		p.Gender = Genders[0]
	}
	if !contains(Genders, p.Gender) {
		return fmt.Errorf("%w: gender %q", ErrInvalidProfile, p.Gender)
	}
	if p.Style == "" {
		p.Style = "Mixed Martial Arts"
	}
	if !contains(Styles, p.Style) {
		return fmt.Errorf("%w: style %q", ErrInvalidProfile, p.Style)
	}
	if p.Difficulty == "" {
		p.Difficulty = Recruit
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("%w: difficulty %q", ErrInvalidProfile, p.Difficulty)
	}
	return nil
}

// Accuracy is the rounded percentage of correct recoveries.
func (r MatchResult) Accuracy() int {
	total := r.Correct + r.Incorrect
	if total == 0 {
		total = 1
	}
	return int(math.Round(float64(r.Correct) / float64(total) * 100))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
