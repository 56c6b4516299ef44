package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/funkybooboo/CS5260-Program2/encoder"
	"github.com/funkybooboo/CS5260-Program2/request"
)

type fakeS3API struct {
	mu sync.Mutex

	putCalls int
	lastIn   *s3.PutObjectInput
	objects  map[string][]byte

	putErr error
}

func (f *fakeS3API) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	f.lastIn = in
	if f.putErr != nil {
		return nil, f.putErr
	}

	b, _ := io.ReadAll(in.Body)
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

// no-capture fake for benchmarks: minimal overhead, no body reads/copies.
type fakeS3NoCapture struct{}

func (fakeS3NoCapture) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, nil
}

type failingEncoder struct{ err error }

func (e failingEncoder) Encode(context.Context, []request.Request) ([]byte, error) { return nil, e.err }
func (failingEncoder) ContentType() string                                         { return "" }

var _ Sink = (*ObjectStore)(nil)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		owner, id, want string
	}{
		{"Jane Doe", "w1", "widgets/jane-doe/w1"},
		{"Mary  Major", "w2", "widgets/mary--major/w2"},
		{"lower", "x", "widgets/lower/x"},
		{"", "x", "widgets//x"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.owner, tt.id); got != tt.want {
			t.Fatalf("ObjectKey(%q, %q) = %q; want %q", tt.owner, tt.id, got, tt.want)
		}
	}
}

func TestObjectStore_Persist_SameOwnerAndIDSameKey(t *testing.T) {
	f := &fakeS3API{}
	s := NewObjectStore(f, "web", nil)
	ctx := context.Background()

	a := request.Request{ID: "w1", Owner: "Jane Doe", Label: "first", Description: "one"}
	b := request.Request{ID: "w1", Owner: "Jane Doe", Label: "second", Description: "two"}

	if err := s.Persist(ctx, a); err != nil {
		t.Fatalf("Persist a: %v", err)
	}
	if err := s.Persist(ctx, b); err != nil {
		t.Fatalf("Persist b: %v", err)
	}

	if f.putCalls != 2 {
		t.Fatalf("putCalls=%d want=2", f.putCalls)
	}
	if len(f.objects) != 1 {
		t.Fatalf("objects=%d want=1 (overwrite)", len(f.objects))
	}

	var got request.Request
	if err := json.Unmarshal(f.objects["widgets/jane-doe/w1"], &got); err != nil {
		t.Fatalf("stored payload is not json: %v", err)
	}
	if got.Label != "second" {
		t.Fatalf("label=%q want=second (last write wins)", got.Label)
	}
}

func TestObjectStore_Persist_BuildsPutInput(t *testing.T) {
	f := &fakeS3API{}
	s := NewObjectStore(f, "web", encoder.JSONEncoder[request.Request]{})

	r := request.Request{
		ID: "w1", Owner: "Jane Doe", Label: "L", Description: "D",
		OtherAttributes: []request.Attribute{{Name: "color", Value: "red"}},
	}
	if err := s.Persist(context.Background(), r); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	in := f.lastIn
	if aws.ToString(in.Bucket) != "web" {
		t.Fatalf("bucket: %q", aws.ToString(in.Bucket))
	}
	if aws.ToString(in.Key) != "widgets/jane-doe/w1" {
		t.Fatalf("key: %q", aws.ToString(in.Key))
	}
	if aws.ToString(in.ContentType) != "application/json" {
		t.Fatalf("content-type: %q", aws.ToString(in.ContentType))
	}
	body := f.objects["widgets/jane-doe/w1"]
	if in.ContentLength == nil || *in.ContentLength != int64(len(body)) {
		t.Fatalf("content-length: %#v body=%d", in.ContentLength, len(body))
	}
	want := `{"description":"D","id":"w1","label":"L","otherAttributes":[{"name":"color","value":"red"}],"owner":"Jane Doe"}`
	if string(body) != want {
		t.Fatalf("body:\n got  %s\n want %s", body, want)
	}
}

func TestObjectStore_Persist_StoresBodyAsReceived(t *testing.T) {
	body := `{"requestId":"r-42","widgetId":"w7","owner":"Jane Doe","label":"L","description":"D",` +
		`"otherAttributes":[{"name":"serial","value":12345678901234567891}]}`
	r, err := request.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	f := &fakeS3API{}
	if err := NewObjectStore(f, "web", nil).Persist(context.Background(), r); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	stored, ok := f.objects["widgets/jane-doe/w7"]
	if !ok {
		t.Fatalf("no object under widgets/jane-doe/w7: %v", f.objects)
	}

	var got map[string]any
	dec := json.NewDecoder(bytes.NewReader(stored))
	dec.UseNumber()
	if err := dec.Decode(&got); err != nil {
		t.Fatalf("stored payload is not json: %v", err)
	}
	if got["requestId"] != "r-42" || got["widgetId"] != "w7" {
		t.Fatalf("stored=%s", stored)
	}
	if _, ok := got["id"]; ok {
		t.Fatalf("legacy widgetId rewritten as id: %s", stored)
	}
	attrs := got["otherAttributes"].([]any)
	if v := attrs[0].(map[string]any)["value"]; v != json.Number("12345678901234567891") {
		t.Fatalf("serial=%v", v)
	}
}

func TestObjectStore_Persist_ParquetEncoding(t *testing.T) {
	f := &fakeS3API{}
	enc, err := encoder.ForRequests(encoder.EncodingParquet)
	if err != nil {
		t.Fatalf("ForRequests: %v", err)
	}
	s := NewObjectStore(f, "web", enc)

	if err := s.Persist(context.Background(), request.Request{ID: "w1", Owner: "o", Label: "l", Description: "d"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if aws.ToString(f.lastIn.ContentType) != "application/vnd.apache.parquet" {
		t.Fatalf("content-type: %q", aws.ToString(f.lastIn.ContentType))
	}
	if b := f.objects["widgets/o/w1"]; len(b) < 4 || string(b[:4]) != "PAR1" {
		t.Fatalf("expected parquet magic, got %q", b)
	}
}

func TestObjectStore_Persist_PropagatesPutError(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeS3API{putErr: boom}
	s := NewObjectStore(f, "web", nil)

	err := s.Persist(context.Background(), request.Request{ID: "w1", Owner: "Jane Doe"})
	if !errors.Is(err, boom) || !errors.Is(err, ErrSink) {
		t.Fatalf("expected boom wrapped in ErrSink, got %v", err)
	}
	var serr *Error
	if !errors.As(err, &serr) || serr.Backend != BackendS3 || serr.Key != "widgets/jane-doe/w1" {
		t.Fatalf("unexpected sink error %#v", serr)
	}
}

func TestObjectStore_Persist_EncodeErrorSkipsPut(t *testing.T) {
	boom := errors.New("encode boom")
	f := &fakeS3API{}
	s := NewObjectStore(f, "web", failingEncoder{err: boom})

	if err := s.Persist(context.Background(), request.Request{ID: "w1"}); !errors.Is(err, boom) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if f.putCalls != 0 {
		t.Fatalf("putCalls=%d want=0", f.putCalls)
	}
}

func TestNewObjectStore_PanicsOnMissingArgs(t *testing.T) {
	for name, fn := range map[string]func(){
		"nil client":   func() { NewObjectStore(nil, "web", nil) },
		"empty bucket": func() { NewObjectStore(&fakeS3API{}, "", nil) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			fn()
		})
	}
}

func BenchmarkObjectStore_Persist_NoCapture(b *testing.B) {
	for _, n := range []int{0, 8, 64} {
		b.Run(fmt.Sprintf("attrs=%s", strconv.Itoa(n)), func(b *testing.B) {
			s := NewObjectStore(fakeS3NoCapture{}, "web", nil)
			r := request.Request{ID: "w1", Owner: "Jane Doe", Label: "L", Description: "D"}
			for i := 0; i < n; i++ {
				r.OtherAttributes = append(r.OtherAttributes, request.Attribute{Name: strconv.Itoa(i), Value: i})
			}
			ctx := context.Background()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.Persist(ctx, r); err != nil {
					b.Fatalf("persist: %v", err)
				}
			}
		})
	}
}
