// Package narrative fetches the flavor text around a match: the origin story
// shown before it and the diagnostic shown after it.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/model"
)

var (
	ErrUnavailable = errors.New("narrative service unavailable")
	ErrQuota       = errors.New("narrative quota exhausted")
)

type Service interface {
	Intro(ctx context.Context, p model.Profile) (model.Intro, error)
	Analyze(ctx context.Context, p model.Profile, r model.MatchResult) (model.Analysis, error)
}

// HTTPService talks JSON to a text/image generation backend.
type HTTPService struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Retry   RetryPolicy
}

func NewHTTPService(baseURL, apiKey string) *HTTPService {
	return &HTTPService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 20 * time.Second},
		Retry:   DefaultRetryPolicy(),
	}
}

type introRequest struct {
	Profile model.Profile `json:"profile"`
}

type introResponse struct {
	ImageRef string `json:"imageRef"`
	Story    string `json:"story"`
}

type analysisRequest struct {
	Profile model.Profile     `json:"profile"`
	Stats   model.MatchResult `json:"stats"`
}

type analysisResponse struct {
	Strengths  string `json:"strengths"`
	Weaknesses string `json:"weaknesses"`
	StudyPlan  string `json:"studyPlan"`
	Tips       string `json:"tips"`
}

func (s *HTTPService) Intro(ctx context.Context, p model.Profile) (model.Intro, error) {
	var res introResponse
	if err := s.call(ctx, "/intro", introRequest{Profile: p}, &res); err != nil {
		return model.Intro{}, err
	}
	intro := model.Intro{ImageRef: res.ImageRef, Story: res.Story}
	if intro.ImageRef == "" {
		intro.ImageRef = PlaceholderImage
	}
	if intro.Story == "" {
		intro.Story = DefaultStory
	}
	return intro, nil
}

func (s *HTTPService) Analyze(ctx context.Context, p model.Profile, r model.MatchResult) (model.Analysis, error) {
	var res analysisResponse
	if err := s.call(ctx, "/analysis", analysisRequest{Profile: p, Stats: r}, &res); err != nil {
		return model.Analysis{}, err
	}
	return model.Analysis{
		Strengths:  res.Strengths,
		Weaknesses: res.Weaknesses,
		StudyPlan:  res.StudyPlan,
		Tips:       res.Tips,
	}, nil
}

func (s *HTTPService) call(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return Retry(ctx, s.Retry, isQuota, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.APIKey)
		}
		resp, err := s.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusTooManyRequests || bytes.Contains(data, []byte("RESOURCE_EXHAUSTED")) {
			return fmt.Errorf("%w: %s %d", ErrQuota, path, resp.StatusCode)
		}
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("%w: %s %d", ErrUnavailable, path, resp.StatusCode)
		}
		return json.Unmarshal(data, out)
	})
}

func isQuota(err error) bool {
	return errors.Is(err, ErrQuota)
}

// Offline is used when no backend is configured; every call falls back.
type Offline struct{}

func (Offline) Intro(context.Context, model.Profile) (model.Intro, error) {
	return model.Intro{}, ErrUnavailable
}

func (Offline) Analyze(context.Context, model.Profile, model.MatchResult) (model.Analysis, error) {
	return model.Analysis{}, ErrUnavailable
}

// IntroOrFallback never fails: any error is logged and replaced by the local
// story.
func IntroOrFallback(ctx context.Context, s Service, p model.Profile) model.Intro {
	intro, err := s.Intro(ctx, p)
	if err != nil {
		log.WithField("player", p.Name).Warnf("intro generation failed, using fallback: %v", err)
		return FallbackIntro(p)
	}
	return intro
}

// AnalysisOrFallback never fails either.
func AnalysisOrFallback(ctx context.Context, s Service, p model.Profile, r model.MatchResult) model.Analysis {
	a, err := s.Analyze(ctx, p, r)
	if err != nil {
		log.WithField("player", p.Name).Warnf("analysis failed, using fallback: %v", err)
		return FallbackAnalysis()
	}
	return a
}
