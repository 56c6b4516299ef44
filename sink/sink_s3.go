package sink

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/funkybooboo/CS5260-Program2/encoder"
	"github.com/funkybooboo/CS5260-Program2/request"
)

// ObjectKeyPrefix is the first segment of every stored widget key.
const ObjectKeyPrefix = "widgets"

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectKey returns widgets/{owner}/{id}, with the owner lower-cased and each
// space replaced by a hyphen. Equal owner and id always give the same key.
func ObjectKey(owner, id string) string {
	owner = strings.ReplaceAll(strings.ToLower(owner), " ", "-")
	return ObjectKeyPrefix + "/" + owner + "/" + id
}

// ObjectStore writes each request as one S3 object under ObjectKey.
// Existing objects are overwritten.
type ObjectStore struct {
	client s3API
	enc    encoder.Encoder[request.Request]

	bucket    string
	bucketPtr *string
}

// NewObjectStore builds an ObjectStore. A nil encoder selects JSON.
func NewObjectStore(client s3API, bucket string, enc encoder.Encoder[request.Request]) *ObjectStore {
	if client == nil {
		panic("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		panic("bucket is required")
	}
	if enc == nil {
		enc = encoder.JSONEncoder[request.Request]{}
	}

	s := &ObjectStore{
		client: client,
		enc:    enc,
		bucket: bucket,
	}
	s.bucketPtr = &s.bucket
	return s
}

func (s *ObjectStore) Persist(ctx context.Context, r request.Request) error {
	key := ObjectKey(r.Owner, r.ID)

	data, err := s.enc.Encode(ctx, []request.Request{r})
	if err != nil {
		return &Error{Backend: BackendS3, Key: key, Err: err}
	}

	ct := s.enc.ContentType()
	if ct == "" {
		ct = "application/octet-stream"
	}
	cl := int64(len(data))

	var body bytes.Reader
	body.Reset(data)

	input := s3.PutObjectInput{
		Bucket:        s.bucketPtr,
		Key:           &key,
		Body:          &body,
		ContentLength: &cl,
		ContentType:   &ct,
	}

	if _, err := s.client.PutObject(ctx, &input); err != nil {
		return &Error{Backend: BackendS3, Key: key, Err: err}
	}
	return nil
}
