package encoder

import (
	"context"
	"fmt"
	"strings"

	"github.com/funkybooboo/CS5260-Program2/request"
)

// Encoder converts typed records into the bytes stored under one object key.
//
// Implementations must be safe for concurrent use unless documented otherwise.
type Encoder[iType any] interface {
	Encode(ctx context.Context, items []iType) (data []byte, err error)
	ContentType() string
}

// Encoding names accepted by ForRequests.
const (
	EncodingJSON    = "json"
	EncodingParquet = "parquet"
)

// ForRequests returns the request encoder registered under name. An empty
// name selects JSON.
func ForRequests(name string) (Encoder[request.Request], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingJSON:
		return JSONEncoder[request.Request]{}, nil
	case EncodingParquet:
		return RequestParquetEncoder{Compression: ParquetCompressionSnappy}, nil
	default:
		return nil, fmt.Errorf("unknown object encoding %q", name)
	}
}

func checkCtx(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
