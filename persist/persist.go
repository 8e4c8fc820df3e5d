// Package persist stores finished matches in a remote backend. Saving is
// best effort: callers log failures and move on.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zucenko/mathkombat/config"
	"github.com/zucenko/mathkombat/model"
)

var ErrBackend = errors.New("unknown persistence backend")

type Service interface {
	Save(ctx context.Context, p model.Profile, r model.MatchResult) error
}

// Record is the row shape shared by every backend.
type Record struct {
	PlayerName     string   `json:"player_name"`
	Score          int      `json:"score"`
	Difficulty     string   `json:"difficulty"`
	Accuracy       int      `json:"accuracy"`
	MathCorrect    int      `json:"math_correct"`
	NodesCollected int      `json:"nodes_collected"`
	MetaData       MetaData `json:"meta_data"`
}

type MetaData struct {
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	MissedQuestions []string `json:"missed_questions"`
	Timestamp       string   `json:"timestamp"`
}

func NewRecord(p model.Profile, r model.MatchResult, now time.Time) Record {
	missed := r.MissedQuestions
	if missed == nil {
		missed = []string{}
	}
	return Record{
		PlayerName:     p.Name,
		Score:          r.Points,
		Difficulty:     string(p.Difficulty),
		Accuracy:       r.Accuracy(),
		MathCorrect:    r.Correct,
		NodesCollected: r.Collected,
		MetaData: MetaData{
			Age:             p.Age,
			Gender:          p.Gender,
			MissedQuestions: missed,
			Timestamp:       now.UTC().Format(time.RFC3339),
		},
	}
}

// Nop drops every record.
type Nop struct{}

func (Nop) Save(context.Context, model.Profile, model.MatchResult) error { return nil }

// New builds the backend named in the settings.
func New(ctx context.Context, s config.Settings) (Service, error) {
	switch s.PersistBackend {
	case "", "none":
		return Nop{}, nil
	case "rest":
		if s.PersistURL == "" {
			return nil, fmt.Errorf("rest backend needs PERSIST_URL")
		}
		return NewRESTService(s.PersistURL, s.PersistKey), nil
	case "s3":
		if s.S3Bucket == "" {
			return nil, fmt.Errorf("s3 backend needs S3_BUCKET")
		}
		clients, err := NewAWSClients(ctx, s.AWSRegion)
		if err != nil {
			return nil, err
		}
		return &S3Service{Client: clients.S3, Bucket: s.S3Bucket, Prefix: "records"}, nil
	case "sqs":
		if s.SQSQueue == "" {
			return nil, fmt.Errorf("sqs backend needs SQS_QUEUE")
		}
		clients, err := NewAWSClients(ctx, s.AWSRegion)
		if err != nil {
			return nil, err
		}
		return &SQSService{Client: clients.SQS, Queue: s.SQSQueue}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackend, s.PersistBackend)
	}
}
