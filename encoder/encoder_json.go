package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// JSONEncoder writes one JSON document per item, newline separated. A single
// item therefore produces a plain JSON object with no trailing newline.
type JSONEncoder[iType any] struct {
	TrailingNewline bool
}

func (e JSONEncoder[iType]) ContentType() string { return "application/json" }

func (e JSONEncoder[iType]) Encode(ctx context.Context, items []iType) ([]byte, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return nil, fmt.Errorf("json encode item %d: %w", i, err)
		}
	}

	if !e.TrailingNewline && buf.Len() > 0 {
		b := buf.Bytes()
		if b[len(b)-1] == '\n' {
			buf.Truncate(buf.Len() - 1)
		}
	}

	return buf.Bytes(), nil
}
