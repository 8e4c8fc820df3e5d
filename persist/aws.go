package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/zucenko/mathkombat/model"
)

type AWSClients struct {
	S3  *s3.Client
	SQS *sqs.Client
}

func NewAWSClients(ctx context.Context, region string) (AWSClients, error) {
	opts := make([]func(*awsconfig.LoadOptions) error, 0)
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load aws config: %w", err)
	}
	return AWSClients{
		S3:  s3.NewFromConfig(cfg),
		SQS: sqs.NewFromConfig(cfg),
	}, nil
}

// S3API is the part of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Service writes one JSON object per match under Prefix/yyyy-mm-dd/.
type S3Service struct {
	Client S3API
	Bucket string
	Prefix string
	Now    func() time.Time
}

func (s *S3Service) Save(ctx context.Context, p model.Profile, r model.MatchResult) error {
	now := s.now()
	body, err := json.Marshal(NewRecord(p, r, now))
	if err != nil {
		return err
	}
	key := path.Join(s.Prefix, now.UTC().Format("2006-01-02"), uuid.NewString()+".json")
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SQSAPI is the part of the SQS client the publisher needs.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSService publishes each record as a message for a downstream writer.
type SQSService struct {
	Client SQSAPI
	Queue  string
}

func (s *SQSService) Save(ctx context.Context, p model.Profile, r model.MatchResult) error {
	body, err := json.Marshal(NewRecord(p, r, time.Now()))
	if err != nil {
		return err
	}
	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.Queue),
		MessageBody: aws.String(string(body)),
	}
	if strings.HasSuffix(s.Queue, ".fifo") {
		in.MessageGroupId = aws.String(p.Name)
		in.MessageDeduplicationId = aws.String(uuid.NewString())
	}
	if _, err := s.Client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("send record: %w", err)
	}
	return nil
}
