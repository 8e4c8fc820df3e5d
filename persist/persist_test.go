package persist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mathkombat/config"
	"github.com/zucenko/mathkombat/model"
)

var (
	trinity = model.Profile{Name: "Trinity", Age: 28, Gender: "Female", Style: "Boxing", Difficulty: model.Veteran}
	result  = model.MatchResult{Collected: 12, Misses: 1, Correct: 3, Incorrect: 1, Points: 7800, MissedQuestions: []string{"7 * 8"}}
	noon    = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

func TestNewRecord(t *testing.T) {
	rec := NewRecord(trinity, model.MatchResult{Points: 10}, noon)
	assert.Equal(t, "Trinity", rec.PlayerName)
	assert.Equal(t, "Veteran", rec.Difficulty)
	assert.Equal(t, 0, rec.Accuracy)
	assert.Equal(t, "2024-05-01T12:00:00Z", rec.MetaData.Timestamp)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"missed_questions":[]`)
}

func TestRESTSave(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/game_records", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		var recs []Record
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&recs)) || !assert.Len(t, recs, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, 7800, recs[0].Score)
		assert.Equal(t, 75, recs[0].Accuracy)
		assert.Equal(t, 3, recs[0].MathCorrect)
		assert.Equal(t, 12, recs[0].NodesCollected)
		assert.Equal(t, []string{"7 * 8"}, recs[0].MetaData.MissedQuestions)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewRESTService(srv.URL, "anon")
	s.Now = func() time.Time { return noon }
	assert.NoError(t, s.Save(context.Background(), trinity, result))
}

func TestRESTSaveFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	assert.Error(t, NewRESTService(srv.URL, "").Save(context.Background(), trinity, result))
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Save(t *testing.T) {
	fake := &fakeS3{}
	s := &S3Service{Client: fake, Bucket: "matches", Prefix: "records", Now: func() time.Time { return noon }}
	require.NoError(t, s.Save(context.Background(), trinity, result))

	assert.Equal(t, "matches", *fake.in.Bucket)
	assert.True(t, strings.HasPrefix(*fake.in.Key, "records/2024-05-01/"), *fake.in.Key)
	assert.True(t, strings.HasSuffix(*fake.in.Key, ".json"))
	var rec Record
	require.NoError(t, json.Unmarshal(fake.body, &rec))
	assert.Equal(t, "Trinity", rec.PlayerName)

	fake.err = errors.New("access denied")
	assert.Error(t, s.Save(context.Background(), trinity, result))
}

type fakeSQS struct {
	in *sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.in = in
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSave(t *testing.T) {
	fake := &fakeSQS{}
	s := &SQSService{Client: fake, Queue: "https://sqs.eu-west-1.amazonaws.com/1/matches"}
	require.NoError(t, s.Save(context.Background(), trinity, result))
	assert.Nil(t, fake.in.MessageGroupId)
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(*fake.in.MessageBody), &rec))
	assert.Equal(t, 7800, rec.Score)

	s.Queue += ".fifo"
	require.NoError(t, s.Save(context.Background(), trinity, result))
	require.NotNil(t, fake.in.MessageGroupId)
	assert.Equal(t, "Trinity", *fake.in.MessageGroupId)
	assert.NotEmpty(t, *fake.in.MessageDeduplicationId)
}

func TestNew(t *testing.T) {
	svc, err := New(context.Background(), config.Settings{PersistBackend: "none"})
	require.NoError(t, err)
	assert.Equal(t, Nop{}, svc)

	svc, err = New(context.Background(), config.Settings{PersistBackend: "rest", PersistURL: "http://db"})
	require.NoError(t, err)
	assert.IsType(t, &RESTService{}, svc)

	_, err = New(context.Background(), config.Settings{PersistBackend: "rest"})
	assert.Error(t, err)
	_, err = New(context.Background(), config.Settings{PersistBackend: "s3"})
	assert.Error(t, err)
	_, err = New(context.Background(), config.Settings{PersistBackend: "carrier-pigeon"})
	assert.ErrorIs(t, err, ErrBackend)
}
