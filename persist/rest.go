package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zucenko/mathkombat/model"
)

// RESTService inserts into the game_records table of a PostgREST style API.
type RESTService struct {
	URL    string
	Key    string
	Client *http.Client
	Now    func() time.Time
}

func NewRESTService(url, key string) *RESTService {
	return &RESTService{
		URL:    strings.TrimRight(url, "/"),
		Key:    key,
		Client: &http.Client{Timeout: 10 * time.Second},
		Now:    time.Now,
	}
}

func (s *RESTService) Save(ctx context.Context, p model.Profile, r model.MatchResult) error {
	body, err := json.Marshal([]Record{NewRecord(p, r, s.Now())})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL+"/rest/v1/game_records", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if s.Key != "" {
		req.Header.Set("apikey", s.Key)
		req.Header.Set("Authorization", "Bearer "+s.Key)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("save record: status %d", resp.StatusCode)
	}
	return nil
}
