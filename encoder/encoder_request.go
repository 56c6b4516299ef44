package encoder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/funkybooboo/CS5260-Program2/request"
)

// Row is the Parquet layout of a request. Attribute values are free-form, so
// they are stored as their JSON text.
type Row struct {
	ID              string         `parquet:"id"`
	Owner           string         `parquet:"owner"`
	Label           string         `parquet:"label"`
	Description     string         `parquet:"description"`
	Type            string         `parquet:"type,optional"`
	OtherAttributes []AttributeRow `parquet:"other_attributes"`
}

type AttributeRow struct {
	Name  string `parquet:"name"`
	Value string `parquet:"value"`
}

func RowFromRequest(r request.Request) (Row, error) {
	row := Row{
		ID:          r.ID,
		Owner:       r.Owner,
		Label:       r.Label,
		Description: r.Description,
		Type:        r.Type,
	}
	if len(r.OtherAttributes) > 0 {
		row.OtherAttributes = make([]AttributeRow, 0, len(r.OtherAttributes))
	}
	for _, a := range r.OtherAttributes {
		v, err := json.Marshal(a.Value)
		if err != nil {
			return Row{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		row.OtherAttributes = append(row.OtherAttributes, AttributeRow{Name: a.Name, Value: string(v)})
	}
	return row, nil
}

// RequestParquetEncoder writes requests as Parquet rows.
type RequestParquetEncoder struct {
	Compression string
}

func (e RequestParquetEncoder) ContentType() string {
	return ParquetEncoder[Row]{}.ContentType()
}

func (e RequestParquetEncoder) Encode(ctx context.Context, items []request.Request) ([]byte, error) {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		row, err := RowFromRequest(it)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return ParquetEncoder[Row]{Compression: e.Compression}.Encode(ctx, rows)
}
