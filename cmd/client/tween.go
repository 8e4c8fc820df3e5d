package main

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const frame = float32(1) / 60

type Action struct {
	onChange func(float32)
	onFinish []func()
}

func (a *Action) addOnFinish(f func()) {
	a.onFinish = append(a.onFinish, f)
}

func (g *Game) animate(from, to, seconds float32, easing ease.TweenFunc, onChange func(float32)) *Action {
	t := gween.New(from, to, seconds, easing)
	g.Tweens[t] = &Action{onChange: onChange}
	return g.Tweens[t]
}

func (g *Game) updateTweens() {
	for t, a := range g.Tweens {
		curr, finished := t.Update(frame)
		if a.onChange != nil {
			a.onChange(curr)
		}
		if finished {
			for _, onFinish := range a.onFinish {
				onFinish()
			}
			delete(g.Tweens, t)
		}
	}
}
