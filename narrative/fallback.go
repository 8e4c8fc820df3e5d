package narrative

import (
	"fmt"

	"github.com/zucenko/mathkombat/model"
)

const (
	PlaceholderImage = "https://images.unsplash.com/photo-1550745165-9bc0b252726f?auto=format&fit=crop&q=80&w=800"
	DefaultStory     = "The last hope of the logic grid."
)

func FallbackIntro(p model.Profile) model.Intro {
	return model.Intro{
		ImageRef: PlaceholderImage,
		Story: fmt.Sprintf("%s entered the neon maze armed with nothing but %s and a head for numbers. %s",
			p.Name, p.Style, DefaultStory),
		Fallback: true,
	}
}

func FallbackAnalysis() model.Analysis {
	return model.Analysis{
		Strengths:  "Stable data processing under low latency conditions.",
		Weaknesses: "Desync spikes detected in complex arithmetic.",
		StudyPlan:  "Mental firmware update required: fast multiplication module.",
		Tips:       "Switch to deep focus mode before every data node.",
		Fallback:   true,
	}
}
