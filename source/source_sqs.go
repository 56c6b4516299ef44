package source

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

type SourceSQSConfig struct {
	// WaitTimeSeconds is the long-poll wait of each receive. Keep it short:
	// the consumer loop does its own backoff between empty polls.
	WaitTimeSeconds int32
	VisibilityTO    int32
}

func (c *SourceSQSConfig) validate() {
	if c.WaitTimeSeconds < 0 || c.WaitTimeSeconds > 20 {
		panic("wait time seconds must be between 0 and 20")
	}
	if c.VisibilityTO < 0 {
		panic("visibility timeout must be non-negative")
	}
}

var DefaultSourceSQSConfig = SourceSQSConfig{
	WaitTimeSeconds: 0,
	VisibilityTO:    30,
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQS takes requests from an SQS queue, one message per call.
//
// Messages come back in the order SQS delivers them; there is no key
// ordering. A message whose delete fails becomes visible again after the
// visibility timeout.
type SQS struct {
	cfg SourceSQSConfig
	log *zap.Logger

	client      sqsAPI
	queueURL    string
	queueURLPtr *string
}

func NewSQS(client sqsAPI, queueURL string, log *zap.Logger) *SQS {
	return NewSQSWithConfig(client, queueURL, DefaultSourceSQSConfig, log)
}

func NewSQSWithConfig(client sqsAPI, queueURL string, cfg SourceSQSConfig, log *zap.Logger) *SQS {
	if client == nil {
		panic("sqs client is required")
	}
	if queueURL == "" {
		panic("queue url is required")
	}
	cfg.validate()
	if log == nil {
		log = zap.NewNop()
	}

	s := &SQS{
		cfg:      cfg,
		log:      log,
		client:   client,
		queueURL: queueURL,
	}
	s.queueURLPtr = &s.queueURL
	return s
}

func (s *SQS) FetchNext(ctx context.Context) (Item, bool) {
	it, ok, err := s.fetch(ctx)
	if err != nil {
		key := UnknownKey
		var rerr *ReadError
		if errors.As(err, &rerr) {
			key = rerr.Key
		}
		s.log.Error("Bad reading", zap.String("key", key), zap.Error(err))
		return Item{}, false
	}
	return it, ok
}

func (s *SQS) fetch(ctx context.Context) (Item, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.WaitTimeSeconds+5)*time.Second)
	out, err := s.client.ReceiveMessage(reqCtx, &sqs.ReceiveMessageInput{
		QueueUrl:            s.queueURLPtr,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     s.cfg.WaitTimeSeconds,
		VisibilityTimeout:   s.cfg.VisibilityTO,
	})
	cancel()
	if err != nil {
		return Item{}, false, &ReadError{Key: UnknownKey, Op: OpReceive, Err: err}
	}
	if len(out.Messages) == 0 {
		return Item{}, false, nil
	}

	m := &out.Messages[0]
	key := messageKey(m)

	if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      s.queueURLPtr,
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		return Item{}, false, &ReadError{Key: key, Op: OpDelete, Err: err}
	}

	body := aws.ToString(m.Body)
	if body == "" {
		return Item{}, false, &ReadError{Key: key, Op: OpRead, Err: ErrEmptyBody}
	}
	return Item{Key: key, Body: []byte(body)}, true, nil
}

func messageKey(m *sqstypes.Message) string {
	if id := aws.ToString(m.MessageId); id != "" {
		return id
	}
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
