package source

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 uses a bucket as a request queue. The lexicographically smallest key is
// always the next item.
//
// S3 assumes it is the only consumer of the bucket; nothing guards the window
// between reading an object and deleting it.
type S3 struct {
	client s3API
	log    *zap.Logger

	bucket    string
	bucketPtr *string
}

func NewS3(client s3API, bucket string, log *zap.Logger) *S3 {
	if client == nil {
		panic("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		panic("bucket is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &S3{
		client: client,
		log:    log,
		bucket: bucket,
	}
	s.bucketPtr = &s.bucket
	return s
}

// FetchNext reads and deletes the smallest key in the bucket.
//
// The item is only returned once its deletion succeeded. If DeleteObject
// fails the object is left in place and will be picked again by a later call.
func (s *S3) FetchNext(ctx context.Context) (Item, bool) {
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

func (s *S3) fetch(ctx context.Context) (Item, bool, error) {
	key, found, err := s.minKey(ctx)
	if err != nil {
		return Item{}, false, &ReadError{Key: UnknownKey, Op: OpList, Err: err}
	}
	if !found {
		return Item{}, false, nil
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: s.bucketPtr, Key: &key})
	if err != nil {
		return Item{}, false, &ReadError{Key: key, Op: OpGet, Err: err}
	}
	body, err := io.ReadAll(out.Body)
	_ = out.Body.Close()
	if err != nil {
		return Item{}, false, &ReadError{Key: key, Op: OpRead, Err: err}
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: s.bucketPtr, Key: &key}); err != nil {
		return Item{}, false, &ReadError{Key: key, Op: OpDelete, Err: err}
	}

	if len(body) == 0 {
		return Item{}, false, &ReadError{Key: key, Op: OpRead, Err: ErrEmptyBody}
	}
	return Item{Key: key, Body: body}, true, nil
}

// minKey walks every listing page; backends are not required to return keys
// in order.
func (s *S3) minKey(ctx context.Context) (key string, found bool, err error) {
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: s.bucketPtr})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", false, err
		}
		for i := range page.Contents {
			k := aws.ToString(page.Contents[i].Key)
			if k == "" {
				continue
			}
			if !found || k < key {
				key = k
				found = true
			}
		}
	}
	return key, found, nil
}
